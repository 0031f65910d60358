package compiler

import (
	"fmt"

	"github.com/funvibe/loxvm/internal/scanner"
)

func (c *Compiler) advance() {
	c.p.previous = c.p.current
	for {
		c.p.current = c.p.scanner.Next()
		if c.p.current.Type != scanner.ERROR {
			break
		}
		c.errorAtCurrent(c.p.current.Lexeme)
	}
}

func (c *Compiler) check(t scanner.Type) bool { return c.p.current.Type == t }

func (c *Compiler) match(t scanner.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t scanner.Type, message string) {
	if c.p.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) error(message string) { c.errorAt(c.p.previous, message) }

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.p.current, message) }

// errorAt reports message at tok, implementing panic-mode suppression: the
// first error in a run is reported; subsequent errors are swallowed until
// synchronize() finds a recovery point.
func (c *Compiler) errorAt(tok scanner.Token, message string) {
	if c.p.panicMode {
		return
	}
	c.p.panicMode = true
	c.p.hadError = true

	if c.p.errOut == nil {
		return
	}
	switch tok.Type {
	case scanner.EOF:
		fmt.Fprintf(c.p.errOut, "[line %d] Error at end: %s\n", tok.Line, message)
	case scanner.ERROR:
		fmt.Fprintf(c.p.errOut, "[line %d] Error: %s\n", tok.Line, message)
	default:
		fmt.Fprintf(c.p.errOut, "[line %d] Error at '%s': %s\n", tok.Line, tok.Lexeme, message)
	}
}

// synchronize skips tokens until it finds a statement boundary, so a single
// syntax error doesn't cascade into a pile of spurious follow-on errors.
func (c *Compiler) synchronize() {
	c.p.panicMode = false

	for c.p.current.Type != scanner.EOF {
		if c.p.previous.Type == scanner.SEMICOLON {
			return
		}
		switch c.p.current.Type {
		case scanner.CLASS, scanner.FUN, scanner.VAR, scanner.FOR,
			scanner.IF, scanner.WHILE, scanner.PRINT, scanner.RETURN:
			return
		}
		c.advance()
	}
}
