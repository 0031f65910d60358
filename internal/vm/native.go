package vm

import (
	"fmt"
	"time"

	"github.com/funvibe/loxvm/internal/object"
	"github.com/funvibe/loxvm/internal/value"
)

// defineNatives registers the natives available in every globals table.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", 0, vm.nativeClock)
}

func (vm *VM) defineNative(name string, arity int, fn object.NativeFn) {
	interned := vm.interner.Intern(name)
	native := object.NewNative(name, arityCheckedNative(name, arity, fn))
	vm.globals.Set(interned.Chars, interned.Hash, value.ObjValue(native))
}

// arityCheckedNative wraps a native so it reports the same
// "Expected N arguments but got M." shape a Closure call would, since
// natives bypass the Closure arity check in call().
func arityCheckedNative(name string, arity int, fn object.NativeFn) object.NativeFn {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != arity {
			return value.Value{}, fmt.Errorf("Expected %d arguments but got %d.", arity, len(args))
		}
		return fn(args)
	}
}

// nativeClock returns the number of seconds since the VM was constructed.
// Only relative elapsed time matters for this native; absolute precision
// and epoch are unspecified.
func (vm *VM) nativeClock(args []value.Value) (value.Value, error) {
	return value.NumberValue(time.Since(vm.started).Seconds()), nil
}
