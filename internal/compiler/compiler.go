// Package compiler implements the single-pass Pratt-style compiler: it
// drives the scanner one token at a time and emits bytecode directly into
// the current function's chunk, with no intermediate AST.
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/funvibe/loxvm/internal/bytecode"
	"github.com/funvibe/loxvm/internal/object"
	"github.com/funvibe/loxvm/internal/scanner"
	"github.com/funvibe/loxvm/internal/value"
)

// maxLocals and maxUpvalues match the one-byte operand width GET_LOCAL,
// SET_LOCAL, GET_UPVALUE and SET_UPVALUE are encoded with.
const (
	maxLocals   = 256
	maxUpvalues = 256
	maxParams   = 255
)

type functionType int

const (
	typeFunction functionType = iota
	typeScript
)

type local struct {
	name       string
	depth      int // -1 means "declared but uninitialized"
	isCaptured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// fnCompiler is one stack frame of compile-time state: one per function
// (or the implicit top-level script) currently being compiled. Nested `fun`
// bodies push a new fnCompiler that chains to the enclosing one so upvalue
// resolution can walk outward.
type fnCompiler struct {
	enclosing *fnCompiler
	function  *object.Function
	fnType    functionType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

// parser is the singleton compilation-wide state: the two-token lookahead
// window and panic-mode bookkeeping.
type parser struct {
	scanner   *scanner.Scanner
	current   scanner.Token
	previous  scanner.Token
	hadError  bool
	panicMode bool
	errOut    io.Writer
}

// Compiler drives compilation of a whole source string into a tree of
// object.Function values (the script plus every nested `fun`).
type Compiler struct {
	p        *parser
	current  *fnCompiler
	interner *object.Interner

	// pendingUpvalues carries the just-finished function's upvalue
	// descriptor list from endFunction to the CLOSURE emission that
	// follows in the enclosing fnCompiler (see emitClosure).
	pendingUpvalues []upvalueRef
}

// Compile compiles source into the implicit top-level script Function, or
// returns ok=false if any compile error was reported. Errors are written to
// errOut in the "[line L] Error at '<lexeme>': <message>" shape.
func Compile(source string, interner *object.Interner, errOut io.Writer) (fn *object.Function, ok bool) {
	c := &Compiler{
		interner: interner,
		p: &parser{
			scanner: scanner.New(source),
			errOut:  errOut,
		},
	}
	c.pushFunction(typeScript, "")

	c.advance()
	for !c.check(scanner.EOF) {
		c.declaration()
	}
	c.consume(scanner.EOF, "Expect end of expression.")

	script := c.endFunction()
	return script, !c.p.hadError
}

func (c *Compiler) pushFunction(ft functionType, name string) {
	fc := &fnCompiler{
		enclosing: c.current,
		function:  object.NewFunction(name),
		fnType:    ft,
		// Slot 0 is reserved for the callee itself: frame.slots[0] always
		// holds the running Closure/script Function.
		locals: []local{{name: "", depth: 0}},
	}
	c.current = fc
}

func (c *Compiler) endFunction() *object.Function {
	c.emitByte(byte(bytecode.NIL))
	c.emitByte(byte(bytecode.RETURN))

	fn := c.current.function
	fn.UpvalueCount = len(c.current.upvalues)
	c.pendingUpvalues = c.current.upvalues
	c.current = c.current.enclosing
	return fn
}

// emitClosure adds fn as a constant and emits CLOSURE followed by one
// (isLocal, index) pair per captured upvalue.
func (c *Compiler) emitClosure(fn *object.Function, upvalues []upvalueRef) {
	idx, err := c.addConstant(value.ObjValue(fn))
	if err != nil {
		c.error(err.Error())
		return
	}
	c.emitBytes(byte(bytecode.CLOSURE), byte(idx))
	for _, uv := range upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		c.emitBytes(isLocal, uv.index)
	}
}

func (c *Compiler) chunk() *bytecode.Chunk { return c.current.function.Chunk }

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.p.previous.Line)
}

func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, err := c.addConstant(v)
	if err != nil {
		c.error(err.Error())
		return
	}
	c.emitBytes(byte(bytecode.CONSTANT), byte(idx))
}

func (c *Compiler) addConstant(v value.Value) (int, error) {
	if len(c.chunk().Constants) >= bytecode.MaxConstants {
		return 0, fmt.Errorf("too many constants in one chunk")
	}
	return c.chunk().AddConstant(v)
}

// emitJump writes op followed by a two-byte placeholder operand and
// returns the placeholder's offset, to be back-filled by patchJump.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitByte(byte(op))
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	if err := c.chunk().PatchJump(offset); err != nil {
		c.error(err.Error())
	}
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitByte(byte(bytecode.LOOP))
	jump := len(c.chunk().Code) - loopStart + 2
	if jump > 0xFFFF {
		c.error("Too much code to jump over.")
		jump = 0
	}
	c.emitByte(byte((jump >> 8) & 0xFF))
	c.emitByte(byte(jump & 0xFF))
}

func (c *Compiler) currentOffset() int { return len(c.chunk().Code) }

// identifierConstant interns name and adds it as a string constant,
// returning its constant-pool index for GET_GLOBAL/SET_GLOBAL/DEFINE_GLOBAL.
func (c *Compiler) identifierConstant(name string) uint8 {
	str := c.interner.Intern(name)
	idx, err := c.addConstant(value.ObjValue(str))
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return uint8(idx)
}

func (c *Compiler) numberConstant(lexeme string) value.Value {
	n, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return value.NumberValue(0)
	}
	return value.NumberValue(n)
}
