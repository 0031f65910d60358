package compiler

import (
	"github.com/funvibe/loxvm/internal/bytecode"
	"github.com/funvibe/loxvm/internal/object"
	"github.com/funvibe/loxvm/internal/scanner"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(scanner.VAR):
		c.varDeclaration()
	case c.match(scanner.FUN):
		c.funDeclaration()
	default:
		c.statement()
	}
	if c.p.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(scanner.EQUAL) {
		c.expression()
	} else {
		c.emitByte(byte(bytecode.NIL))
	}
	c.consume(scanner.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	// Mark initialized before the body compiles so the function can call
	// itself by name.
	c.markInitialized()
	name := c.p.previous.Lexeme
	fn, upvalues := c.function(typeFunction, name)
	c.emitClosure(fn, upvalues)
	c.defineVariable(global)
}

// function compiles one `fun` body in a fresh fnCompiler and returns the
// resulting Function plus the upvalue descriptors it captured, for the
// caller to emit as a CLOSURE instruction.
func (c *Compiler) function(ft functionType, name string) (*object.Function, []upvalueRef) {
	c.pushFunction(ft, name)
	c.beginScope()

	c.consume(scanner.LEFT_PAREN, "Expect '(' after function name.")
	if !c.check(scanner.RIGHT_PAREN) {
		for {
			c.current.function.Arity++
			if c.current.function.Arity > maxParams {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			param := c.parseVariable("Expect parameter name.")
			c.defineVariable(param)
			if !c.match(scanner.COMMA) {
				break
			}
		}
	}
	c.consume(scanner.RIGHT_PAREN, "Expect ')' after parameters.")
	c.consume(scanner.LEFT_BRACE, "Expect '{' before function body.")
	c.block()

	fn := c.endFunction()
	return fn, c.pendingUpvalues
}

func (c *Compiler) statement() {
	switch {
	case c.match(scanner.PRINT):
		c.printStatement()
	case c.match(scanner.IF):
		c.ifStatement()
	case c.match(scanner.WHILE):
		c.whileStatement()
	case c.match(scanner.FOR):
		c.forStatement()
	case c.match(scanner.RETURN):
		c.returnStatement()
	case c.match(scanner.LEFT_BRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(scanner.RIGHT_BRACE) && !c.check(scanner.EOF) {
		c.declaration()
	}
	c.consume(scanner.RIGHT_BRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(scanner.SEMICOLON, "Expect ';' after value.")
	c.emitByte(byte(bytecode.PRINT))
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(scanner.SEMICOLON, "Expect ';' after expression.")
	c.emitByte(byte(bytecode.POP))
}

func (c *Compiler) returnStatement() {
	if c.current.fnType == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(scanner.SEMICOLON) {
		c.emitByte(byte(bytecode.NIL))
		c.emitByte(byte(bytecode.RETURN))
		return
	}
	c.expression()
	c.consume(scanner.SEMICOLON, "Expect ';' after return value.")
	c.emitByte(byte(bytecode.RETURN))
}

func (c *Compiler) ifStatement() {
	c.consume(scanner.LEFT_PAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(scanner.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitByte(byte(bytecode.POP))
	c.statement()

	elseJump := c.emitJump(bytecode.JUMP)
	c.patchJump(thenJump)
	c.emitByte(byte(bytecode.POP))

	if c.match(scanner.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.currentOffset()
	c.consume(scanner.LEFT_PAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(scanner.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitByte(byte(bytecode.POP))
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitByte(byte(bytecode.POP))
}

// forStatement desugars `for (init; cond; incr) body` into a scoped block
// built from while/if primitives, rather than its own opcode.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(scanner.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(scanner.SEMICOLON):
		// no initializer
	case c.match(scanner.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.currentOffset()
	exitJump := -1
	if !c.match(scanner.SEMICOLON) {
		c.expression()
		c.consume(scanner.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.JUMP_IF_FALSE)
		c.emitByte(byte(bytecode.POP))
	}

	if !c.match(scanner.RIGHT_PAREN) {
		bodyJump := c.emitJump(bytecode.JUMP)
		incrementStart := c.currentOffset()
		c.expression()
		c.emitByte(byte(bytecode.POP))
		c.consume(scanner.RIGHT_PAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitByte(byte(bytecode.POP))
	}

	c.endScope()
}
