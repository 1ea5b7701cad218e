// Package main provides the mini compiler entry point.
//
// The pipeline:
// 1. Lexical and syntax analysis (parser)
// 2. Lowering: name and type resolution, layout, IR generation (semantic)
// 3. Pruning and verification of the IR
// 4. One of: LLVM IR text (build), IR text (ir), execution (run)
//
// USAGE:
//   minic build [-v] [-o out.ll] [file.mini]
//   minic run [-v] [file.mini]
//   minic ir [-v] [file.mini]
//   minic repl
//
// Without a file the program is read from standard input.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/hassan/minic/internal/diag"
	"github.com/hassan/minic/internal/interp"
	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/llvmgen"
	"github.com/hassan/minic/internal/parser"
	"github.com/hassan/minic/internal/semantic"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `Usage: minic <command> [flags] [file]

Commands:
  build   compile to LLVM IR
  run     compile and execute
  ir      print the intermediate representation
  repl    read and run programs interactively
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "build", "run", "ir":
	case "repl":
		return repl(stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "minic: unknown command %q\n\n%s", cmd, usage)
		return exitUsage
	}

	flags := flag.NewFlagSet("minic "+cmd, flag.ContinueOnError)
	flags.SetOutput(stderr)
	verbose := flags.Bool("v", false, "trace declarations and dump scopes")
	output := flags.String("o", "", "write the result to `file` (build only)")
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}
	if flags.NArg() > 1 {
		fmt.Fprintf(stderr, "minic %s: at most one input file\n", cmd)
		return exitUsage
	}

	name, source, err := readSource(flags.Arg(0), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %v\n", err)
		return exitError
	}

	var trace io.Writer
	if *verbose {
		trace = stderr
	}

	switch cmd {
	case "build":
		return build(name, source, *output, trace, stdout, stderr)
	case "ir":
		module, err := compile(name, source, trace, stderr, nil)
		if err != nil {
			return exitError
		}
		fmt.Fprintln(stdout, module.String())
		return exitOK
	default:
		module, err := compile(name, source, trace, stderr, nil)
		if err != nil {
			return exitError
		}
		return execute(module, stdout, stderr)
	}
}

func readSource(path string, stdin io.Reader) (string, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		return "<stdin>", string(data), err
	}
	data, err := os.ReadFile(path)
	return path, string(data), err
}

// compile parses and lowers one unit. Syntax and lowering errors share
// one log, which reports each to stderr as it is found.
func compile(name, source string, trace, stderr io.Writer, emitter semantic.Emitter) (*ir.Module, error) {
	log := diag.New(stderr)
	prog, errs := parser.Parse(source, name)
	if len(errs) > 0 {
		log.Add(errs...)
		return nil, log.Err()
	}

	opts := []semantic.Option{
		semantic.WithDiagnostics(log),
		semantic.WithVerbose(trace),
	}
	if emitter != nil {
		opts = append(opts, semantic.WithEmitter(emitter))
	}

	module, err := semantic.New(ir.NewBuilder(prog.Name), opts...).Lower(prog)
	if err != nil {
		// diagnostics were printed by the log already
		if !isDiagnostics(err) {
			fmt.Fprintln(stderr, err)
		}
		return nil, err
	}
	return module, nil
}

func isDiagnostics(err error) bool {
	var d *diag.Diagnostic
	return errors.As(err, &d)
}

func build(name, source, output string, trace, stdout, stderr io.Writer) int {
	w := stdout
	var file *os.File
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			fmt.Fprintf(stderr, "Error creating output: %v\n", err)
			return exitError
		}
		file, w = f, f
	}

	_, err := compile(name, source, trace, stderr, llvmgen.NewEmitter(w))
	if file != nil {
		if cerr := file.Close(); err == nil && cerr != nil {
			fmt.Fprintf(stderr, "Error writing output: %v\n", cerr)
			return exitError
		}
	}
	if err != nil {
		if file != nil {
			os.Remove(output)
		}
		return exitError
	}
	return exitOK
}

// execute runs the module; a non-zero result of main becomes the exit
// code.
func execute(module *ir.Module, stdout, stderr io.Writer) int {
	code, err := interp.New(module, stdout).Run()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	return int(code)
}
