// Command lox is the CLI entry point for the lox-lang tree-walking
// interpreter.
//
// Usage:
//
//	lox               Start the interactive REPL
//	lox <script>      Run a source file once
//	lox ast <script>  Print the parsed AST as JSON (debug)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"lox-lang/internal/diag"
	"lox-lang/internal/runtime"
)

const (
	exitOK        = 0
	exitUsage     = 64
	exitDataError = 65
	exitRuntime   = 70
)

func main() {
	args := os.Args[1:]

	if len(args) == 2 && args[0] == "ast" {
		cmdAST(args[1])
		return
	}

	switch len(args) {
	case 0:
		cmdRepl()
	case 1:
		os.Exit(runFile(args[0]))
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s [script]\n", progName())
		os.Exit(exitUsage)
	}
}

func progName() string {
	return filepath.Base(os.Args[0])
}

// runFile scans, parses, resolves, and interprets a single source file,
// returning the process exit code the language's CLI contract specifies.
func runFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName(), err)
		return exitDataError
	}

	bag := diag.NewBag()
	locals, file, ok := compile(string(source), bag)
	if !ok {
		bag.Print(os.Stderr)
		return exitDataError
	}

	interp := runtime.NewInterpreter(os.Stdout)
	if runErr := interp.Interpret(file, locals); runErr != nil {
		reportRuntimeError(bag, runErr)
		bag.Print(os.Stderr)
		return exitRuntime
	}

	return exitOK
}
