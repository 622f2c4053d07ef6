package lexer

import (
	"testing"

	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

func tokenize(t *testing.T, source string) ([]token.Token, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	tokens := New(source, bag).Tokenize()
	return tokens, bag
}

func TestTokenizeSimple(t *testing.T) {
	tokens, bag := tokenize(t, `var x = 1 + 2;`)
	if bag.HadError() {
		t.Errorf("unexpected diagnostics: %v", bag.Diagnostics())
	}

	expected := []token.Kind{
		token.KW_VAR, token.IDENT, token.ASSIGN,
		token.NUMBER, token.PLUS, token.NUMBER, token.SEMICOLON, token.EOF,
	}
	assertKinds(t, tokens, expected)
}

func TestTokenizeKeywords(t *testing.T) {
	source := `and class else false for fun if nil or print return super this true var while`
	tokens, bag := tokenize(t, source)
	if bag.HadError() {
		t.Errorf("unexpected diagnostics: %v", bag.Diagnostics())
	}

	expected := []token.Kind{
		token.KW_AND, token.KW_CLASS, token.KW_ELSE, token.KW_FALSE,
		token.KW_FOR, token.KW_FUN, token.KW_IF, token.KW_NIL, token.KW_OR,
		token.KW_PRINT, token.KW_RETURN, token.KW_SUPER, token.KW_THIS,
		token.KW_TRUE, token.KW_VAR, token.KW_WHILE, token.EOF,
	}
	assertKinds(t, tokens, expected)
}

func TestTokenizeOperators(t *testing.T) {
	tokens, bag := tokenize(t, `= == != < <= > >= + - * / !`)
	if bag.HadError() {
		t.Errorf("unexpected diagnostics: %v", bag.Diagnostics())
	}

	expected := []token.Kind{
		token.ASSIGN, token.EQ, token.BANG_EQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.BANG,
		token.EOF,
	}
	assertKinds(t, tokens, expected)
}

func TestTokenizeDelimiters(t *testing.T) {
	tokens, bag := tokenize(t, `( ) { } , . ;`)
	if bag.HadError() {
		t.Errorf("unexpected diagnostics: %v", bag.Diagnostics())
	}

	expected := []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.COMMA, token.DOT, token.SEMICOLON, token.EOF,
	}
	assertKinds(t, tokens, expected)
}

func TestTokenizeString(t *testing.T) {
	tokens, bag := tokenize(t, `"hello" "world"`)
	if bag.HadError() {
		t.Errorf("unexpected diagnostics: %v", bag.Diagnostics())
	}

	if tokens[0].Kind != token.STRING || tokens[0].Lexeme != "hello" {
		t.Errorf("expected STRING 'hello', got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
	if tokens[1].Kind != token.STRING || tokens[1].Lexeme != "world" {
		t.Errorf("expected STRING 'world', got %s %q", tokens[1].Kind, tokens[1].Lexeme)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, bag := tokenize(t, `"unterminated`)
	if !bag.HadError() {
		t.Fatal("expected an unterminated string diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "Unterminated string." {
		t.Errorf("expected 'Unterminated string.', got %q", got)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	tokens, bag := tokenize(t, `123 3.14 0`)
	if bag.HadError() {
		t.Errorf("unexpected diagnostics: %v", bag.Diagnostics())
	}

	if tokens[0].Kind != token.NUMBER || tokens[0].NumberLiteral != 123 {
		t.Errorf("token[0]: expected NUMBER 123, got %s %v", tokens[0].Kind, tokens[0].NumberLiteral)
	}
	if tokens[1].Kind != token.NUMBER || tokens[1].NumberLiteral != 3.14 {
		t.Errorf("token[1]: expected NUMBER 3.14, got %s %v", tokens[1].Kind, tokens[1].NumberLiteral)
	}
}

func TestTokenizeTrailingDotNotConsumed(t *testing.T) {
	// "123." is a NUMBER followed by a DOT, not a malformed number: this
	// matters because `123.method()` isn't meaningful but `Point.x` is.
	tokens, _ := tokenize(t, `123.`)
	assertKinds(t, tokens, []token.Kind{token.NUMBER, token.DOT, token.EOF})
}

func TestTokenizeLineComment(t *testing.T) {
	tokens, _ := tokenize(t, "x // this is a comment\ny")
	assertKinds(t, tokens, []token.Kind{token.IDENT, token.IDENT, token.EOF})
}

func TestTokenizeUnexpectedCharacter(t *testing.T) {
	_, bag := tokenize(t, `@`)
	if !bag.HadError() {
		t.Fatal("expected an unexpected-character diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "Unexpected character." {
		t.Errorf("expected 'Unexpected character.', got %q", got)
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens, _ := tokenize(t, "var x = 1;")

	if tokens[0].Span.Start.Line != 1 || tokens[0].Span.Start.Column != 1 {
		t.Errorf("'var' position: expected 1:1, got %d:%d", tokens[0].Span.Start.Line, tokens[0].Span.Start.Column)
	}
	if tokens[1].Span.Start.Line != 1 || tokens[1].Span.Start.Column != 5 {
		t.Errorf("'x' position: expected 1:5, got %d:%d", tokens[1].Span.Start.Line, tokens[1].Span.Start.Column)
	}
}

func TestTokenizeMultilineTracksLine(t *testing.T) {
	tokens, _ := tokenize(t, "var x = 1;\nvar y = 2;")
	// tokens[5] is the second 'var'
	if tokens[5].Span.Start.Line != 2 {
		t.Errorf("expected second 'var' on line 2, got line %d", tokens[5].Span.Start.Line)
	}
}

func assertKinds(t *testing.T, tokens []token.Token, expected []token.Kind) {
	t.Helper()
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(expected), len(tokens), tokens)
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s (%q)", i, exp, tokens[i].Kind, tokens[i].Lexeme)
		}
	}
}
