// Package diag provides the diagnostics sink shared by every phase of the
// interpreter pipeline: the scanner, the parser, the resolver, and the
// interpreter itself. It is the single collaborator responsible for the
// wire format of error messages described in the language's external
// interface, and for the hadError/hadRuntimeError flags the CLI driver
// uses to choose an exit code.
package diag

import (
	"fmt"
	"io"

	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// Severity distinguishes a static error from a runtime error. Both are
// fatal to the current run; the distinction only affects which flag on
// the Bag gets set and how the message is framed.
type Severity int

const (
	// Static covers lexical, parse, and resolver errors: "[line L] Error...".
	Static Severity = iota
	// Runtime covers errors raised while executing a resolved program.
	Runtime
)

// Diagnostic is one reported error. Code is a stable identifier used by
// tests and by callers that want to distinguish error kinds without
// string-matching Message; it plays no part in the printed text, which
// must match the language's specified wire format exactly.
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
	Span     span.Span
	// At describes where in the token stream a parse/resolve error was
	// found: "" for line-only errors (lexical errors), "end" for errors
	// at EOF, or a lexeme for errors at a
	// specific token.
	At string
}

// String renders the diagnostic exactly as the language's diagnostics
// sink specifies.
func (d Diagnostic) String() string {
	line := d.Span.Start.Line
	switch d.Severity {
	case Runtime:
		return fmt.Sprintf("%s\n[line %d]", d.Message, line)
	default:
		switch d.At {
		case "":
			return fmt.Sprintf("[line %d] Error: %s", line, d.Message)
		case "end":
			return fmt.Sprintf("[line %d] Error at end: %s", line, d.Message)
		default:
			return fmt.Sprintf("[line %d] Error at '%s': %s", line, d.At, d.Message)
		}
	}
}

// Bag accumulates diagnostics across scanning, parsing, resolving, and
// interpreting a single run, and tracks the two process-scoped flags the
// CLI driver reads to choose an exit code (spec external interface, and
// design note on error-flag cross-cutting state).
type Bag struct {
	diagnostics     []Diagnostic
	hadError        bool
	hadRuntimeError bool
}

// NewBag creates an empty diagnostics bag.
func NewBag() *Bag {
	return &Bag{}
}

// Error reports a line-only static error, e.g. a lexical error.
func (b *Bag) Error(code string, s span.Span, format string, args ...interface{}) {
	b.report(Diagnostic{
		Code:     code,
		Severity: Static,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	})
}

// ErrorAt reports a static error anchored to a specific token, using "at
// end" when the token is EOF and "at '<lexeme>'" otherwise.
func (b *Bag) ErrorAt(code string, tok token.Token, format string, args ...interface{}) {
	at := tok.Lexeme
	if tok.Kind == token.EOF {
		at = "end"
	}
	b.report(Diagnostic{
		Code:     code,
		Severity: Static,
		Message:  fmt.Sprintf(format, args...),
		Span:     tok.Span,
		At:       at,
	})
}

// RuntimeError reports a runtime error at the given token's line.
// Distinct from Error/ErrorAt: it sets hadRuntimeError instead of
// hadError, and never participates in REPL per-line reset.
func (b *Bag) RuntimeError(tok token.Token, message string) {
	b.diagnostics = append(b.diagnostics, Diagnostic{
		Severity: Runtime,
		Message:  message,
		Span:     tok.Span,
	})
	b.hadRuntimeError = true
}

func (b *Bag) report(d Diagnostic) {
	b.diagnostics = append(b.diagnostics, d)
	b.hadError = true
}

// HadError reports whether any static error has been recorded since the
// bag was created or last reset.
func (b *Bag) HadError() bool { return b.hadError }

// HadRuntimeError reports whether a runtime error has ever been
// recorded. Unlike HadError, the REPL never resets this.
func (b *Bag) HadRuntimeError() bool { return b.hadRuntimeError }

// Diagnostics returns every diagnostic recorded since the bag was
// created or last reset.
func (b *Bag) Diagnostics() []Diagnostic { return b.diagnostics }

// ResetLine clears the static-error flag and the accumulated
// diagnostics, ready for the next REPL line. hadRuntimeError is left
// untouched, matching the language's REPL contract.
func (b *Bag) ResetLine() {
	b.diagnostics = nil
	b.hadError = false
}

// Print writes every accumulated diagnostic to w, one per line.
func (b *Bag) Print(w io.Writer) {
	for _, d := range b.diagnostics {
		fmt.Fprintln(w, d.String())
	}
}
