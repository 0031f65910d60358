package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/loxvm/internal/bytecode"
	"github.com/funvibe/loxvm/internal/object"
)

func compileOK(t *testing.T, source string) *object.Function {
	t.Helper()
	var errOut strings.Builder
	fn, ok := Compile(source, object.NewInterner(), &errOut)
	if !ok {
		t.Fatalf("Compile(%q) failed:\n%s", source, errOut.String())
	}
	return fn
}

func compileErr(t *testing.T, source string) string {
	t.Helper()
	var errOut strings.Builder
	_, ok := Compile(source, object.NewInterner(), &errOut)
	if ok {
		t.Fatalf("Compile(%q) unexpectedly succeeded", source)
	}
	return errOut.String()
}

func TestCompileArithmeticExpression(t *testing.T) {
	fn := compileOK(t, "1 + 2 * 3;")
	out := bytecode.Disassemble(fn.Chunk, "script")
	for _, want := range []string{"CONSTANT", "MULTIPLY", "ADD", "POP"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestCompileGlobalVariable(t *testing.T) {
	fn := compileOK(t, "var x = 10; print x;")
	out := bytecode.Disassemble(fn.Chunk, "script")
	for _, want := range []string{"DEFINE_GLOBAL", "GET_GLOBAL", "PRINT"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestCompileLocalScope(t *testing.T) {
	fn := compileOK(t, "{ var x = 1; var y = 2; print x + y; }")
	out := bytecode.Disassemble(fn.Chunk, "script")
	if !strings.Contains(out, "GET_LOCAL") {
		t.Errorf("expected a local read in:\n%s", out)
	}
	if strings.Contains(out, "GET_GLOBAL") {
		t.Errorf("block-scoped locals should not read via GET_GLOBAL:\n%s", out)
	}
}

func TestCompileFunctionAndClosure(t *testing.T) {
	fn := compileOK(t, `
		fun makeCounter() {
			var count = 0;
			fun counter() {
				count = count + 1;
				return count;
			}
			return counter;
		}
		var c = makeCounter();
	`)
	out := bytecode.Disassemble(fn.Chunk, "script")
	if !strings.Contains(out, "CLOSURE") {
		t.Errorf("expected CLOSURE opcode in:\n%s", out)
	}
	// The nested closure's own disassembly should show upvalue access.
	if !strings.Contains(out, "GET_UPVALUE") && !strings.Contains(out, "SET_UPVALUE") {
		t.Errorf("expected an upvalue op in nested function disassembly:\n%s", out)
	}
}

func TestCompileAndOrShortCircuit(t *testing.T) {
	fn := compileOK(t, "true and false; false or true;")
	out := bytecode.Disassemble(fn.Chunk, "script")
	if !strings.Contains(out, "JUMP_IF_FALSE") {
		t.Errorf("expected short-circuit jumps in:\n%s", out)
	}
}

func TestCompileForLoopDesugars(t *testing.T) {
	fn := compileOK(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	out := bytecode.Disassemble(fn.Chunk, "script")
	if !strings.Contains(out, "LOOP") {
		t.Errorf("expected LOOP opcode in:\n%s", out)
	}
}

func TestReturnFromTopLevelIsError(t *testing.T) {
	msg := compileErr(t, "return 1;")
	if !strings.Contains(msg, "Can't return from top-level code.") {
		t.Errorf("errOut = %q, want top-level return message", msg)
	}
}

func TestReadOwnInitializerIsError(t *testing.T) {
	msg := compileErr(t, "{ var a = a; }")
	if !strings.Contains(msg, "Can't read local variable in its own initializer.") {
		t.Errorf("errOut = %q, want self-initializer message", msg)
	}
}

func TestRedeclareInSameScopeIsError(t *testing.T) {
	msg := compileErr(t, "{ var a = 1; var a = 2; }")
	if !strings.Contains(msg, "Already a variable with this name in this scope.") {
		t.Errorf("errOut = %q, want redeclaration message", msg)
	}
}

func TestInvalidAssignmentTargetIsError(t *testing.T) {
	msg := compileErr(t, "1 + 2 = 3;")
	if !strings.Contains(msg, "Invalid assignment target.") {
		t.Errorf("errOut = %q, want invalid assignment message", msg)
	}
}

func TestTooManyArgumentsIsError(t *testing.T) {
	// The arguments are nil literals, which use no constant-pool slot, so the
	// 256-constant limit is not hit before the argument limit.
	var sb strings.Builder
	sb.WriteString("fun f() {} f(")
	for i := 0; i < 256; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("nil")
	}
	sb.WriteString(");")

	msg := compileErr(t, sb.String())
	if !strings.Contains(msg, "Can't have more than 255 arguments.") {
		t.Errorf("errOut = %q, want arg-count message", msg)
	}
}

func TestTooManyConstantsIsError(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 257; i++ {
		fmt.Fprintf(&sb, "%d;\n", i)
	}

	msg := compileErr(t, sb.String())
	if !strings.Contains(msg, "too many constants in one chunk") {
		t.Errorf("errOut = %q, want too-many-constants message", msg)
	}
}

func TestSynchronizeRecoversAfterError(t *testing.T) {
	var errOut strings.Builder
	_, ok := Compile(`.; var x = 1;`, object.NewInterner(), &errOut)
	if ok {
		t.Fatal("expected a compile error for the malformed first statement")
	}
	// Only one error should have been reported: synchronize() should skip
	// past the first statement boundary and let the second var declaration
	// compile cleanly rather than cascading further errors.
	if strings.Count(errOut.String(), "Error") != 1 {
		t.Errorf("expected exactly one reported error, got:\n%s", errOut.String())
	}
}
