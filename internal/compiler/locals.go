package compiler

import (
	"github.com/funvibe/loxvm/internal/bytecode"
	"github.com/funvibe/loxvm/internal/scanner"
)

func (c *Compiler) beginScope() { c.current.scopeDepth++ }

// endScope pops every local declared in the scope being left. A captured
// local is lifted to the heap with CLOSE_UPVALUE; an uncaptured one is just
// POPed.
func (c *Compiler) endScope() {
	c.current.scopeDepth--
	fc := c.current
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth > fc.scopeDepth {
		if fc.locals[len(fc.locals)-1].isCaptured {
			c.emitByte(byte(bytecode.CLOSE_UPVALUE))
		} else {
			c.emitByte(byte(bytecode.POP))
		}
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

// resolveLocal scans fc's locals from the top for name. If found while
// still uninitialized (depth == -1), reports the self-reference error but
// still returns found=true so callers don't fall through to upvalue/global
// resolution for what is unambiguously a local.
func (c *Compiler) resolveLocal(fc *fnCompiler, name string) (slot int, found bool) {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue recursively looks for name in enclosing compilers. A local
// found in an ancestor is marked captured and registered as an upvalue in
// the immediate child; further descent re-registers the upvalue chain so
// each intermediate function also carries the indirection.
func (c *Compiler) resolveUpvalue(fc *fnCompiler, name string) (idx int, found bool) {
	if fc.enclosing == nil {
		return 0, false
	}
	if slot, ok := c.resolveLocal(fc.enclosing, name); ok {
		fc.enclosing.locals[slot].isCaptured = true
		return c.addUpvalue(fc, uint8(slot), true), true
	}
	if outerIdx, ok := c.resolveUpvalue(fc.enclosing, name); ok {
		return c.addUpvalue(fc, uint8(outerIdx), false), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(fc *fnCompiler, index uint8, isLocal bool) int {
	for i, uv := range fc.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fc.upvalues) - 1
}

// declareVariable registers name as a new local in the current scope (a
// no-op at global scope, where variables live in the globals table
// instead). Shadowing an outer scope's local is fine; redeclaring in the
// *same* scope is an error.
func (c *Compiler) declareVariable(name scanner.Token) {
	if c.current.scopeDepth == 0 {
		return
	}
	fc := c.current
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := fc.locals[i]
		if l.depth != -1 && l.depth < fc.scopeDepth {
			break
		}
		if l.name == name.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name.Lexeme)
}

func (c *Compiler) addLocal(name string) {
	if len(c.current.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.current.locals = append(c.current.locals, local{name: name, depth: -1})
}

// markInitialized flips the most recently declared local's depth from the
// "declared but uninitialized" sentinel to the current scope depth. At
// global scope (scopeDepth == 0) there's no local to flip — used instead to
// let a function's own name be visible inside its body for recursion.
func (c *Compiler) markInitialized() {
	if c.current.scopeDepth == 0 {
		return
	}
	c.current.locals[len(c.current.locals)-1].depth = c.current.scopeDepth
}

// parseVariable consumes an identifier, declares it if we're in a local
// scope, and returns the constant-pool index to use for DEFINE_GLOBAL if
// it turns out to be global (the index is meaningless, and ignored, for
// locals).
func (c *Compiler) parseVariable(errorMessage string) uint8 {
	c.consume(scanner.IDENT, errorMessage)
	name := c.p.previous
	c.declareVariable(name)
	if c.current.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name.Lexeme)
}

// defineVariable binds the most recently parsed variable: at global scope
// it emits DEFINE_GLOBAL; at local scope the local was already live the
// moment its initializer finished (markInitialized), so there's nothing
// further to emit.
func (c *Compiler) defineVariable(global uint8) {
	if c.current.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(bytecode.DEFINE_GLOBAL), global)
}
