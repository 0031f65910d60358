// Command loxvm is the thin entry point: parse flags, hand off to
// pkg/cli.Run, and translate its result into a process exit code.
package main

import (
	"fmt"
	"os"

	"github.com/funvibe/loxvm/pkg/cli"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [--trace] [--stats] [--disasm] [--config path] [script]\n", os.Args[0])
}

func main() {
	opts := cli.Options{ConfigPath: "loxvm.yaml"}

	args := os.Args[1:]
	var positional []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--trace":
			opts.Trace = true
		case "--stats":
			opts.Stats = true
		case "--disasm":
			opts.Disasm = true
		case "--config":
			if i+1 >= len(args) {
				usage()
				os.Exit(cli.ExitUsage)
			}
			i++
			opts.ConfigPath = args[i]
		case "-h", "--help":
			usage()
			os.Exit(cli.ExitOK)
		default:
			positional = append(positional, args[i])
		}
	}

	switch len(positional) {
	case 0:
		// REPL mode.
	case 1:
		opts.Path = positional[0]
	default:
		usage()
		os.Exit(cli.ExitUsage)
	}

	os.Exit(cli.Run(opts))
}
