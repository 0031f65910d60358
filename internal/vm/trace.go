package vm

import (
	"fmt"
	"strings"

	"github.com/funvibe/loxvm/internal/bytecode"
)

// traceStep prints the current value stack followed by the disassembly of
// the instruction about to execute, reusing the same renderer the
// --disasm CLI command uses offline. Enabled only when tracing is on, since
// it runs once per executed instruction.
func (vm *VM) traceStep(f *callFrame) {
	var sb strings.Builder
	sb.WriteString("          ")
	for i := 0; i < vm.sp; i++ {
		fmt.Fprintf(&sb, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(vm.stderr, sb.String())

	var instr strings.Builder
	bytecode.DisassembleInstruction(&instr, f.closure.Fn.Chunk, f.ip)
	fmt.Fprint(vm.stderr, instr.String())
}
