package main

import (
	"encoding/json"
	"fmt"
	"os"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
	"lox-lang/internal/runtime"
)

// compile runs the scan/parse/resolve pipeline shared by file-run and
// the REPL. ok is false if any static error occurred,
// in which case bag already holds the diagnostics to report.
func compile(source string, bag *diag.Bag) (map[ast.Expr]int, *ast.File, bool) {
	tokens := lexer.New(source, bag).Tokenize()
	if bag.HadError() {
		return nil, nil, false
	}

	file := parser.New(tokens, bag).ParseProgram()
	if bag.HadError() {
		return nil, file, false
	}

	locals := resolver.Resolve(file, bag)
	if bag.HadError() {
		return nil, file, false
	}

	return locals, file, true
}

func reportRuntimeError(bag *diag.Bag, err error) {
	if rtErr, ok := err.(*runtime.RuntimeError); ok {
		bag.RuntimeError(rtErr.Token, rtErr.Message)
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

// cmdAST prints the parsed AST of a source file as JSON, without
// resolving or interpreting it. The AST is printed even when static
// errors occurred; those errors are then reported and the process exits
// with status 65.
func cmdAST(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName(), err)
		os.Exit(exitDataError)
	}

	bag := diag.NewBag()
	tokens := lexer.New(string(source), bag).Tokenize()
	file := parser.New(tokens, bag).ParseProgram()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(ast.NodeToMap(file)); encErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName(), encErr)
		os.Exit(exitDataError)
	}

	if bag.HadError() {
		bag.Print(os.Stderr)
		os.Exit(exitDataError)
	}
}
