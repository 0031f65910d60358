package compiler

import "github.com/funvibe/loxvm/internal/scanner"

// Precedence is the binding-power ladder for infix operators, low to high.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < <= > >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[scanner.Type]parseRule

func init() {
	rules = map[scanner.Type]parseRule{
		scanner.LEFT_PAREN:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: PrecCall},
		scanner.MINUS:         {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		scanner.PLUS:          {infix: (*Compiler).binary, precedence: PrecTerm},
		scanner.SLASH:         {infix: (*Compiler).binary, precedence: PrecFactor},
		scanner.STAR:          {infix: (*Compiler).binary, precedence: PrecFactor},
		scanner.BANG:          {prefix: (*Compiler).unary},
		scanner.BANG_EQUAL:    {infix: (*Compiler).binary, precedence: PrecEquality},
		scanner.EQUAL_EQUAL:   {infix: (*Compiler).binary, precedence: PrecEquality},
		scanner.GREATER:       {infix: (*Compiler).binary, precedence: PrecComparison},
		scanner.GREATER_EQUAL: {infix: (*Compiler).binary, precedence: PrecComparison},
		scanner.LESS:          {infix: (*Compiler).binary, precedence: PrecComparison},
		scanner.LESS_EQUAL:    {infix: (*Compiler).binary, precedence: PrecComparison},
		scanner.IDENT:         {prefix: (*Compiler).variable},
		scanner.STRING:        {prefix: (*Compiler).stringLiteral},
		scanner.NUMBER:        {prefix: (*Compiler).number},
		scanner.AND:           {infix: (*Compiler).and_, precedence: PrecAnd},
		scanner.OR:            {infix: (*Compiler).or_, precedence: PrecOr},
		scanner.FALSE:         {prefix: (*Compiler).literal},
		scanner.TRUE:          {prefix: (*Compiler).literal},
		scanner.NIL:           {prefix: (*Compiler).literal},
	}
}

func getRule(t scanner.Type) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{}
}

// parsePrecedence is the Pratt engine: parse a prefix expression, then keep
// consuming infix operators whose precedence is at least `precedence`.
func (c *Compiler) parsePrecedence(precedence Precedence) {
	c.advance()
	prefix := getRule(c.p.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := precedence <= PrecAssignment
	prefix(c, canAssign)

	for precedence <= getRule(c.p.current.Type).precedence {
		c.advance()
		infix := getRule(c.p.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(scanner.EQUAL) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}
