package compiler

import (
	"github.com/funvibe/loxvm/internal/bytecode"
	"github.com/funvibe/loxvm/internal/scanner"
	"github.com/funvibe/loxvm/internal/value"
)

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(scanner.RIGHT_PAREN, "Expect ')' after expression.")
}

func (c *Compiler) number(canAssign bool) {
	c.emitConstant(c.numberConstant(c.p.previous.Lexeme))
}

func (c *Compiler) stringLiteral(canAssign bool) {
	lexeme := c.p.previous.Lexeme
	raw := lexeme[1 : len(lexeme)-1] // strip the surrounding quotes, no escape processing
	str := c.interner.Intern(raw)
	c.emitConstant(value.ObjValue(str))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.p.previous.Type {
	case scanner.FALSE:
		c.emitByte(byte(bytecode.FALSE))
	case scanner.TRUE:
		c.emitByte(byte(bytecode.TRUE))
	case scanner.NIL:
		c.emitByte(byte(bytecode.NIL))
	}
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.p.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case scanner.MINUS:
		c.emitByte(byte(bytecode.NEGATE))
	case scanner.BANG:
		c.emitByte(byte(bytecode.NOT))
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.p.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case scanner.PLUS:
		c.emitByte(byte(bytecode.ADD))
	case scanner.MINUS:
		c.emitByte(byte(bytecode.SUBTRACT))
	case scanner.STAR:
		c.emitByte(byte(bytecode.MULTIPLY))
	case scanner.SLASH:
		c.emitByte(byte(bytecode.DIVIDE))
	case scanner.EQUAL_EQUAL:
		c.emitByte(byte(bytecode.EQUAL))
	case scanner.BANG_EQUAL:
		c.emitBytes(byte(bytecode.EQUAL), byte(bytecode.NOT))
	case scanner.GREATER:
		c.emitByte(byte(bytecode.GREATER))
	case scanner.GREATER_EQUAL:
		c.emitBytes(byte(bytecode.LESS), byte(bytecode.NOT))
	case scanner.LESS:
		c.emitByte(byte(bytecode.LESS))
	case scanner.LESS_EQUAL:
		c.emitBytes(byte(bytecode.GREATER), byte(bytecode.NOT))
	}
}

// and_ short-circuits: if the left operand is falsey, skip the right
// operand entirely and leave the falsey value on the stack.
func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitByte(byte(bytecode.POP))
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

// or_ short-circuits the other way: if the left operand is truthy, skip the
// right operand.
func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	endJump := c.emitJump(bytecode.JUMP)
	c.patchJump(elseJump)
	c.emitByte(byte(bytecode.POP))
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitBytes(byte(bytecode.CALL), argCount)
}

func (c *Compiler) argumentList() byte {
	count := 0
	if !c.check(scanner.RIGHT_PAREN) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(scanner.COMMA) {
				break
			}
		}
	}
	c.consume(scanner.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(count)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.p.previous, canAssign)
}

// namedVariable resolves an identifier in order: the current function's
// locals, then enclosing functions' locals via upvalues, then globals.
func (c *Compiler) namedVariable(name scanner.Token, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	var arg int

	if slot, ok := c.resolveLocal(c.current, name.Lexeme); ok {
		getOp, setOp, arg = bytecode.GET_LOCAL, bytecode.SET_LOCAL, slot
	} else if idx, ok := c.resolveUpvalue(c.current, name.Lexeme); ok {
		getOp, setOp, arg = bytecode.GET_UPVALUE, bytecode.SET_UPVALUE, idx
	} else {
		arg = int(c.identifierConstant(name.Lexeme))
		getOp, setOp = bytecode.GET_GLOBAL, bytecode.SET_GLOBAL
	}

	if canAssign && c.match(scanner.EQUAL) {
		c.expression()
		c.emitBytes(byte(setOp), byte(arg))
	} else {
		c.emitBytes(byte(getOp), byte(arg))
	}
}
