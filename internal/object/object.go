// Package object implements the concrete heap-object kinds that back
// value.Value's Obj alternative: interned strings, compiled functions,
// natives, closures, and upvalues.
package object

import (
	"fmt"
	"hash/fnv"

	"github.com/funvibe/loxvm/internal/bytecode"
	"github.com/funvibe/loxvm/internal/value"
)

// Kind distinguishes the concrete object subtypes.
type Kind uint8

const (
	KindString Kind = iota
	KindFunction
	KindNative
	KindClosure
	KindUpvalue
)

// Header is embedded by every concrete object and carries its kind tag.
// Allocation lifetime itself is left entirely to Go's garbage collector;
// there is no VM-owned allocation list to thread into.
type Header struct {
	kind Kind
}

func (h *Header) Kind() Kind { return h.kind }

// String is an immutable, interned sequence of bytes. hash is FNV-1a over
// Chars, computed once at construction.
type String struct {
	Header
	Chars string
	Hash  uint32
}

func NewString(s string) *String {
	return &String{Header: Header{kind: KindString}, Chars: s, Hash: hashString(s)}
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (s *String) ObjName() string { return "string" }
func (s *String) Inspect() string { return s.Chars }

// Function is a single compilation unit's compiled body: the implicit
// top-level <script> (Name == "") or one `fun` declaration. A bare Function
// is never directly callable at runtime — it's always wrapped in a Closure
// first.
type Function struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        *bytecode.Chunk
	Name         string // "" denotes the implicit top-level script
}

func NewFunction(name string) *Function {
	return &Function{Header: Header{kind: KindFunction}, Chunk: bytecode.NewChunk(), Name: name}
}

func (f *Function) ObjName() string { return "function" }
func (f *Function) Inspect() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}

// FuncName, FuncChunk and FuncUpvalueCount satisfy bytecode.FunctionConstant
// so the disassembler can recurse into a CLOSURE operand's function body
// without internal/bytecode importing this package.
func (f *Function) FuncName() string             { return f.Inspect() }
func (f *Function) FuncChunk() *bytecode.Chunk    { return f.Chunk }
func (f *Function) FuncUpvalueCount() int         { return f.UpvalueCount }

// NativeFn is the signature every built-in native function implements.
type NativeFn func(args []value.Value) (value.Value, error)

// Native wraps a Go function as a callable VM value. clock() is the one
// native shipped by default; see vm.defineNatives.
type Native struct {
	Header
	Name string
	Fn   NativeFn
}

func NewNative(name string, fn NativeFn) *Native {
	return &Native{Header: Header{kind: KindNative}, Name: name, Fn: fn}
}

func (n *Native) ObjName() string { return "native function" }
func (n *Native) Inspect() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// Closure pairs a Function with the Upvalues it captured at creation time.
// Every invocable user-level value at runtime is a Closure.
type Closure struct {
	Header
	Fn       *Function
	Upvalues []*Upvalue
}

func NewClosure(fn *Function) *Closure {
	return &Closure{
		Header:   Header{kind: KindClosure},
		Fn:       fn,
		Upvalues: make([]*Upvalue, fn.UpvalueCount),
	}
}

func (c *Closure) ObjName() string { return "function" }
func (c *Closure) Inspect() string { return c.Fn.Inspect() }

// Upvalue is the indirection closures use to share a captured local.
// Location holds the index of the live stack slot while open; once closed,
// Location is -1 and Closed holds the lifted value. Open is a predicate,
// not a separate bool, so there's exactly one place ("Location == -1")
// that can get out of sync with the value.
type Upvalue struct {
	Header
	Location int
	Closed   value.Value
	NextOpen *Upvalue // singly linked, sorted by descending Location while open
}

func NewOpenUpvalue(stackIndex int) *Upvalue {
	return &Upvalue{Header: Header{kind: KindUpvalue}, Location: stackIndex}
}

func (u *Upvalue) IsOpen() bool { return u.Location >= 0 }

func (u *Upvalue) ObjName() string { return "upvalue" }
func (u *Upvalue) Inspect() string { return "<upvalue>" }

var (
	_ value.Object = (*String)(nil)
	_ value.Object = (*Function)(nil)
	_ value.Object = (*Native)(nil)
	_ value.Object = (*Closure)(nil)
	_ value.Object = (*Upvalue)(nil)
)
