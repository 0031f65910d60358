package vm

import (
	"github.com/funvibe/loxvm/internal/compiler"
	"github.com/funvibe/loxvm/internal/object"
)

// Stats reports the size of the last-compiled program and the VM's live
// global/interned-string counts, backing the --stats CLI flag.
type Stats struct {
	CodeBytes       int
	Instructions    int
	Constants       int
	InternedStrings int
	Globals         int
}

// Stats returns the current size of the most recently run script's
// bytecode plus the VM's globals/intern table occupancy. Instructions is
// approximate: it counts bytes, not decoded opcodes, since operand widths
// vary.
func (vm *VM) Stats() Stats {
	s := Stats{Globals: vm.globals.Len(), InternedStrings: vm.interner.Len()}
	if vm.lastScript != nil {
		s.CodeBytes = len(vm.lastScript.Chunk.Code)
		s.Instructions = len(vm.lastScript.Chunk.Code)
		s.Constants = len(vm.lastScript.Chunk.Constants)
	}
	return s
}

// CompileOnly compiles source without running it, for the --disasm CLI mode.
func (vm *VM) CompileOnly(source string) (*object.Function, bool) {
	fn, ok := compiler.Compile(source, vm.interner, vm.stderr)
	vm.lastScript = fn
	return fn, ok
}
