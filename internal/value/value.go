// Package value defines the runtime value representation shared by the
// compiler and the VM: a small tagged union plus the Object interface that
// every heap-allocated kind (string, function, closure, ...) implements.
package value

import (
	"fmt"
	"math"
)

// Kind identifies which alternative of the tagged union a Value holds.
type Kind uint8

const (
	Nil Kind = iota
	Bool
	Number
	Obj
)

// Object is the polymorphic heap entity. Concrete kinds (strings, functions,
// natives, closures, upvalues) live in package object, which depends on
// this package rather than the reverse, so Value itself stays agnostic of
// what an Object actually is beyond its identity and textual form.
type Object interface {
	// ObjName returns a short, lowercase name for the kind, e.g. "string",
	// used by runtime type-error messages.
	ObjName() string
	// Inspect renders the object the way PRINT and the disassembler do.
	Inspect() string
}

// Value is a stack-allocated tagged union: Nil, Bool, Number(float64) or
// Obj(handle). Copying a Value never allocates.
type Value struct {
	kind Kind
	num  float64
	obj  Object
}

func NilValue() Value             { return Value{kind: Nil} }
func BoolValue(b bool) Value       { return Value{kind: Bool, num: boolBit(b)} }
func NumberValue(n float64) Value  { return Value{kind: Number, num: n} }
func ObjValue(o Object) Value      { return Value{kind: Obj, obj: o} }

func boolBit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNil() bool  { return v.kind == Nil }
func (v Value) IsBool() bool { return v.kind == Bool }
func (v Value) IsNumber() bool { return v.kind == Number }
func (v Value) IsObj() bool  { return v.kind == Obj }

func (v Value) AsBool() bool     { return v.num != 0 }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObj() Object    { return v.obj }

// IsFalsey reports whether v is falsey: nil or false. Every other value,
// including 0 and the empty string, is truthy.
func (v Value) IsFalsey() bool {
	return v.kind == Nil || (v.kind == Bool && v.num == 0)
}

// Equal implements Value equality: same tag and same payload. Objects
// compare by handle identity (interface equality) — valid for strings only
// because every string is interned, so equal content always shares one
// handle.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Nil:
		return true
	case Bool, Number:
		return a.num == b.num
	case Obj:
		return a.obj == b.obj
	default:
		return false
	}
}

// TypeName returns the name used in runtime type-error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case Obj:
		return v.obj.ObjName()
	default:
		return "?"
	}
}

// String renders v the way PRINT does.
func (v Value) String() string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		return fmt.Sprintf("%t", v.num != 0)
	case Number:
		return formatNumber(v.num)
	case Obj:
		if v.obj == nil {
			return "<nil>"
		}
		return v.obj.Inspect()
	default:
		return "?"
	}
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	return fmt.Sprintf("%g", n)
}
