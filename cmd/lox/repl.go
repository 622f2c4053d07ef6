package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lox-lang/internal/diag"
	"lox-lang/internal/runtime"

	"github.com/chzyer/readline"
)

// cmdRepl runs the interactive read-eval-print loop. Each line is
// scanned, parsed, resolved, and interpreted independently; a static
// error on one line never prevents later lines from running (the
// parse/resolve error flag is cleared after every line), while a
// runtime error is remembered for the life of the process.
func cmdRepl() {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".lox_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: readline init failed: %v\n", progName(), err)
		os.Exit(exitDataError)
	}
	defer rl.Close()

	bag := diag.NewBag()
	interp := runtime.NewInterpreter(rl.Stdout())

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		if line == "" {
			continue
		}

		locals, file, ok := compile(line, bag)
		if !ok {
			bag.Print(rl.Stderr())
			bag.ResetLine()
			continue
		}

		if runErr := interp.Interpret(file, locals); runErr != nil {
			reportRuntimeError(bag, runErr)
			bag.Print(rl.Stderr())
		}
		bag.ResetLine()
	}
}
