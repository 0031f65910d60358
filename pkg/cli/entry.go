// Package cli is the REPL/file-runner driver: no args starts an
// interactive prompt, one arg runs that file, anything else is a usage
// error.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/loxvm/internal/bytecode"
	"github.com/funvibe/loxvm/internal/config"
	"github.com/funvibe/loxvm/internal/vm"
)

// Exit codes returned by Run.
const (
	ExitOK           = 0
	ExitUsage        = 64
	ExitCompileError = 65
	ExitRuntimeError = 70
	ExitIOError      = 74
)

// Options are the flags Run accepts, parsed by cmd/loxvm's main.go.
type Options struct {
	Path       string
	Trace      bool
	Stats      bool
	Disasm     bool
	ConfigPath string
}

// Run is the whole program: REPL with no path, file-runner with one. It
// returns the process exit code rather than calling os.Exit itself, so it
// stays testable.
func Run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loxvm: %s\n", err)
		return ExitIOError
	}

	machine := vm.NewWithConfig(cfg)
	machine.SetTrace(opts.Trace || cfg.Trace)

	if opts.Path == "" {
		return runREPL(machine)
	}
	if opts.Disasm {
		return disassembleFile(machine, opts.Path)
	}
	return runFile(machine, opts.Path, opts.Stats)
}

// runREPL implements the read-eval-print loop: read a line, interpret,
// loop until EOF. The `>` prompt and banner only print when stdin is
// attached to a terminal (stdout is not checked), so piping input through
// loxvm doesn't pollute the output with prompts.
func runREPL(machine *vm.VM) int {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	if interactive {
		fmt.Printf("loxvm %s\n", Version)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Println()
			}
			return ExitOK
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		// REPL errors are diagnostics, not fatal: keep reading lines.
		_ = machine.Interpret(line)
	}
}

// runFile reads path and interprets it once, mapping compile/runtime
// failures to the appropriate exit code.
func runFile(machine *vm.VM, path string, stats bool) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loxvm: %s\n", err)
		return ExitIOError
	}

	err = machine.Interpret(string(source))
	if stats {
		printStats(os.Stderr, machine)
	}

	switch err {
	case nil:
		return ExitOK
	case vm.ErrCompile:
		return ExitCompileError
	case vm.ErrRuntime:
		return ExitRuntimeError
	default:
		fmt.Fprintf(os.Stderr, "loxvm: %s\n", err)
		return ExitIOError
	}
}

// printStats reports compiled-bytecode and object-pool sizes after a run,
// using go-humanize for readable byte counts.
func printStats(w io.Writer, machine *vm.VM) {
	stats := machine.Stats()
	fmt.Fprintf(w, "bytecode: %s (%s instructions)\n",
		humanize.Bytes(uint64(stats.CodeBytes)),
		humanize.Comma(int64(stats.Instructions)))
	fmt.Fprintf(w, "constants: %s\n", humanize.Comma(int64(stats.Constants)))
	fmt.Fprintf(w, "interned strings: %s\n", humanize.Comma(int64(stats.InternedStrings)))
	fmt.Fprintf(w, "globals: %s\n", humanize.Comma(int64(stats.Globals)))
}

// disassembleFile prints the static disassembly of path without running
// it, backing cmd/loxvm's --disasm flag.
func disassembleFile(machine *vm.VM, path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loxvm: %s\n", err)
		return ExitIOError
	}

	fn, ok := machine.CompileOnly(string(source))
	if !ok {
		return ExitCompileError
	}
	fmt.Print(bytecode.Disassemble(fn.Chunk, "script"))
	return ExitOK
}
