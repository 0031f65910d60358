package vm

import (
	"strings"
	"testing"
)

func run(t *testing.T, source string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut strings.Builder
	machine := New()
	machine.SetOutput(&out)
	machine.SetErrorOutput(&errOut)
	err = machine.Interpret(source)
	return out.String(), errOut.String(), err
}

func TestPrintArithmetic(t *testing.T) {
	out, _, err := run(t, "print 1 + 2 * 3;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Errorf("stdout = %q, want \"7\"", out)
	}
}

func TestStringConcatenation(t *testing.T) {
	out, _, err := run(t, `print "a" + "b";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "ab" {
		t.Errorf("stdout = %q, want \"ab\"", out)
	}
}

func TestAddTypeMismatchIsRuntimeError(t *testing.T) {
	_, errOut, err := run(t, `print 1 + "a";`)
	if err != ErrRuntime {
		t.Fatalf("err = %v, want ErrRuntime", err)
	}
	if !strings.Contains(errOut, "Operands must be two numbers or two strings.") {
		t.Errorf("errOut = %q, want the type-mismatch message", errOut)
	}
}

func TestGlobalVariables(t *testing.T) {
	out, _, err := run(t, "var x = 10; x = x + 5; print x;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "15" {
		t.Errorf("stdout = %q, want \"15\"", out)
	}
}

func TestUndefinedGlobalReadIsRuntimeError(t *testing.T) {
	_, errOut, err := run(t, "print nope;")
	if err != ErrRuntime {
		t.Fatalf("err = %v, want ErrRuntime", err)
	}
	if !strings.Contains(errOut, "Undefined variable 'nope'.") {
		t.Errorf("errOut = %q, want undefined-global message", errOut)
	}
}

func TestUndefinedGlobalAssignIsRuntimeError(t *testing.T) {
	_, errOut, err := run(t, "nope = 1;")
	if err != ErrRuntime {
		t.Fatalf("err = %v, want ErrRuntime", err)
	}
	if !strings.Contains(errOut, "Undefined variable 'nope'.") {
		t.Errorf("errOut = %q, want undefined-global message", errOut)
	}
}

func TestFunctionCallAndReturn(t *testing.T) {
	out, _, err := run(t, `
		fun add(a, b) {
			return a + b;
		}
		print add(2, 3);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "5" {
		t.Errorf("stdout = %q, want \"5\"", out)
	}
}

func TestRecursion(t *testing.T) {
	out, _, err := run(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "55" {
		t.Errorf("stdout = %q, want \"55\"", out)
	}
}

func TestClosureCapturesAndSharesUpvalue(t *testing.T) {
	out, _, err := run(t, `
		fun makeCounter() {
			var count = 0;
			fun counter() {
				count = count + 1;
				return count;
			}
			return counter;
		}
		var c1 = makeCounter();
		print c1();
		print c1();
		var c2 = makeCounter();
		print c2();
		print c1();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := strings.Fields(out)
	want := []string{"1", "2", "1", "3"}
	if len(got) != len(want) {
		t.Fatalf("stdout = %q, want lines %v", out, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, errOut, err := run(t, `
		fun f(a, b) { return a + b; }
		f(1);
	`)
	if err != ErrRuntime {
		t.Fatalf("err = %v, want ErrRuntime", err)
	}
	if !strings.Contains(errOut, "Expected 2 arguments but got 1.") {
		t.Errorf("errOut = %q, want arity message", errOut)
	}
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, errOut, err := run(t, `
		var x = 1;
		x();
	`)
	if err != ErrRuntime {
		t.Fatalf("err = %v, want ErrRuntime", err)
	}
	if !strings.Contains(errOut, "Can only call functions and classes.") {
		t.Errorf("errOut = %q, want call-target message", errOut)
	}
}

func TestRuntimeErrorPrintsStackTrace(t *testing.T) {
	_, errOut, err := run(t, `
		fun a() { return 1 + "x"; }
		fun b() { return a(); }
		b();
	`)
	if err != ErrRuntime {
		t.Fatalf("err = %v, want ErrRuntime", err)
	}
	for _, want := range []string{"in a()", "in b()", "in script"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("errOut missing %q:\n%s", want, errOut)
		}
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	out, _, err := run(t, `
		print false and (1/0);
		print true or (1/0);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Fields(out)
	if len(lines) != 2 || lines[0] != "false" || lines[1] != "true" {
		t.Errorf("stdout = %q, want [\"false\" \"true\"] (short-circuit should skip the division)", out)
	}
}

func TestWhileAndForLoops(t *testing.T) {
	out, _, err := run(t, `
		var i = 0;
		while (i < 3) {
			print i;
			i = i + 1;
		}
		for (var j = 0; j < 3; j = j + 1) {
			print j * 10;
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := strings.Fields(out)
	want := []string{"0", "1", "2", "0", "10", "20"}
	if len(got) != len(want) {
		t.Fatalf("stdout = %q, want %v", out, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClockNativeReturnsNumber(t *testing.T) {
	out, _, err := run(t, "print clock() >= 0;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "true" {
		t.Errorf("stdout = %q, want \"true\"", out)
	}
}

func TestClockNativeArityMismatchIsRuntimeError(t *testing.T) {
	_, errOut, err := run(t, "clock(1);")
	if err != ErrRuntime {
		t.Fatalf("err = %v, want ErrRuntime", err)
	}
	if !strings.Contains(errOut, "Expected 0 arguments but got 1.") {
		t.Errorf("errOut = %q, want native arity message", errOut)
	}
}

func TestCompileErrorReturnsErrCompile(t *testing.T) {
	_, _, err := run(t, "var;")
	if err != ErrCompile {
		t.Fatalf("err = %v, want ErrCompile", err)
	}
}
