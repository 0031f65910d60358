package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/loxvm/internal/vm"
)

func writeSource(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lox")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRunFileOK(t *testing.T) {
	machine := vm.New()
	var out strings.Builder
	machine.SetOutput(&out)

	code := runFile(machine, writeSource(t, `print 1 + 1;`), false)
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "2", strings.TrimSpace(out.String()))
}

func TestRunFileCompileError(t *testing.T) {
	machine := vm.New()
	var errOut strings.Builder
	machine.SetErrorOutput(&errOut)

	code := runFile(machine, writeSource(t, `var;`), false)
	assert.Equal(t, ExitCompileError, code)
}

func TestRunFileRuntimeError(t *testing.T) {
	machine := vm.New()
	var errOut strings.Builder
	machine.SetErrorOutput(&errOut)

	code := runFile(machine, writeSource(t, `print 1 + "a";`), false)
	assert.Equal(t, ExitRuntimeError, code)
	assert.Contains(t, errOut.String(), "Operands must be two numbers or two strings.")
}

func TestRunFileMissingPathIsIOError(t *testing.T) {
	machine := vm.New()
	code := runFile(machine, filepath.Join(t.TempDir(), "missing.lox"), false)
	assert.Equal(t, ExitIOError, code)
}

func TestRunFileStatsReportsCounts(t *testing.T) {
	machine := vm.New()
	var out, errOut strings.Builder
	machine.SetOutput(&out)
	machine.SetErrorOutput(&errOut)

	// runFile writes the stats report to the process's stderr, not to the
	// VM's error writer, so capture os.Stderr for the duration of the run.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	oldStderr := os.Stderr
	os.Stderr = w
	code := runFile(machine, writeSource(t, `var x = 1; print x;`), true)
	os.Stderr = oldStderr
	require.NoError(t, w.Close())
	stats, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, string(stats), "bytecode:")
	assert.Contains(t, string(stats), "globals:")
}

func TestDisassembleFileDoesNotRunTheScript(t *testing.T) {
	machine := vm.New()
	var out strings.Builder
	machine.SetOutput(&out)

	code := disassembleFile(machine, writeSource(t, `print "should not print";`))
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, out.String(), "disassembly must not execute the script")
}

func TestDisassembleFileCompileError(t *testing.T) {
	machine := vm.New()
	code := disassembleFile(machine, writeSource(t, `var;`))
	assert.Equal(t, ExitCompileError, code)
}
