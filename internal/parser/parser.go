// Package parser implements recursive-descent syntax analysis for
// lox-lang, one method per precedence level.
package parser

import (
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

const maxArgs = 255

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	bag    *diag.Bag
}

// New creates a new parser from a token slice, reporting errors into bag.
func New(tokens []token.Token, bag *diag.Bag) *Parser {
	return &Parser{tokens: tokens, bag: bag}
}

// parseError unwinds the recursive-descent call stack to the nearest
// declaration boundary once a diagnostic has already been reported;
// synchronize() decides where parsing resumes.
type parseError struct{}

// ParseProgram parses a full source file (or a REPL entry) into a
// sequence of top-level declarations.
func (p *Parser) ParseProgram() *ast.File {
	file := &ast.File{}
	startPos := p.peek().Span.Start

	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			file.Body = append(file.Body, stmt)
		}
	}

	file.Span = span.Span{Start: startPos, End: p.prevEnd()}
	return file
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes the current token if it has the given kind, or reports
// message anchored to the offending token and unwinds via parseError.
func (p *Parser) expect(kind token.Kind, code, message string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	panic(p.errorAt(p.peek(), code, message))
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

func (p *Parser) errorAt(tok token.Token, code, message string) parseError {
	p.bag.ErrorAt(code, tok, "%s", message)
	return parseError{}
}

// synchronize discards tokens until it reaches a likely statement
// boundary, so one syntax error doesn't cascade into a wall of spurious
// follow-on diagnostics.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.tokens[p.pos-1].Kind == token.SEMICOLON {
			return
		}
		switch p.peekKind() {
		case token.KW_CLASS, token.KW_FUN, token.KW_VAR, token.KW_FOR,
			token.KW_IF, token.KW_WHILE, token.KW_PRINT, token.KW_RETURN:
			return
		}
		p.advance()
	}
}

// ============================================================
// Declarations
// ============================================================

func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()

	switch {
	case p.check(token.KW_CLASS):
		return p.classDecl()
	case p.check(token.KW_FUN):
		p.advance()
		return p.function("function")
	case p.check(token.KW_VAR):
		return p.varDecl()
	default:
		return p.statement()
	}
}

func (p *Parser) classDecl() *ast.ClassDecl {
	start := p.advance() // 'class'
	name := p.expect(token.IDENT, "E2001", "Expect class name.")

	var superclass *ast.VariableExpr
	if p.match(token.LT) {
		superName := p.expect(token.IDENT, "E2001", "Expect superclass name.")
		superclass = &ast.VariableExpr{
			ExprBase: exprBase(superName.Span),
			Name:     superName,
		}
	}

	p.expect(token.LBRACE, "E2001", "Expect '{' before class body.")

	var methods []*ast.FunctionDecl
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}

	end := p.expect(token.RBRACE, "E2001", "Expect '}' after class body.")

	return &ast.ClassDecl{
		StmtBase:   stmtBase(start.Span.Start, end.Span.End),
		Name:       name,
		Superclass: superclass,
		Methods:    methods,
	}
}

// function parses the name/params/body of a function declaration or,
// when kind is "method", of a method (methods carry no leading 'fun'
// keyword). kind only changes the wording of error messages.
func (p *Parser) function(kind string) *ast.FunctionDecl {
	name := p.expect(token.IDENT, "E2001", "Expect "+kind+" name.")

	p.expect(token.LPAREN, "E2001", "Expect '(' after "+kind+" name.")
	var params []token.Token
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= maxArgs {
				p.errorAt(p.peek(), "E2002", "Can't have more than 255 parameters.")
			}
			params = append(params, p.expect(token.IDENT, "E2001", "Expect parameter name."))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN, "E2001", "Expect ')' after parameters.")

	p.expect(token.LBRACE, "E2001", "Expect '{' before "+kind+" body.")
	body := p.block()

	end := p.prevEnd()
	return &ast.FunctionDecl{
		StmtBase: stmtBase(name.Span.Start, end),
		Name:     name,
		Params:   params,
		Body:     body,
	}
}

func (p *Parser) varDecl() *ast.VarStmt {
	start := p.advance() // 'var'
	name := p.expect(token.IDENT, "E2001", "Expect variable name.")

	var init ast.Expr
	if p.match(token.ASSIGN) {
		init = p.expression()
	}

	end := p.expect(token.SEMICOLON, "E2001", "Expect ';' after variable declaration.")
	return &ast.VarStmt{
		StmtBase: stmtBase(start.Span.Start, end.Span.End),
		Name:     name,
		Init:     init,
	}
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.check(token.KW_FOR):
		return p.forStmt()
	case p.check(token.KW_IF):
		return p.ifStmt()
	case p.check(token.KW_PRINT):
		return p.printStmt()
	case p.check(token.KW_RETURN):
		return p.returnStmt()
	case p.check(token.KW_WHILE):
		return p.whileStmt()
	case p.check(token.LBRACE):
		start := p.advance()
		stmts := p.block()
		return &ast.BlockStmt{StmtBase: stmtBase(start.Span.Start, p.prevEnd()), Stmts: stmts}
	default:
		return p.exprStmt()
	}
}

// forStmt desugars `for (init; cond; update) body` entirely into
// initializer/while/block nodes: there is no ForStmt in the AST.
func (p *Parser) forStmt() ast.Stmt {
	start := p.advance() // 'for'
	p.expect(token.LPAREN, "E2001", "Expect '(' after 'for'.")

	var init ast.Stmt
	switch {
	case p.match(token.SEMICOLON):
		init = nil
	case p.check(token.KW_VAR):
		init = p.varDecl()
	default:
		init = p.exprStmt()
	}

	var condition ast.Expr
	if !p.check(token.SEMICOLON) {
		condition = p.expression()
	}
	p.expect(token.SEMICOLON, "E2001", "Expect ';' after loop condition.")

	var update ast.Expr
	if !p.check(token.RPAREN) {
		update = p.expression()
	}
	p.expect(token.RPAREN, "E2001", "Expect ')' after for clauses.")

	body := p.statement()

	if update != nil {
		body = &ast.BlockStmt{
			StmtBase: stmtBase(body.GetSpan().Start, update.GetSpan().End),
			Stmts:    []ast.Stmt{body, &ast.ExpressionStmt{StmtBase: stmtBase(update.GetSpan().Start, update.GetSpan().End), Expression: update}},
		}
	}

	if condition == nil {
		condition = &ast.LiteralExpr{ExprBase: exprBase(start.Span), Value: true}
	}
	body = &ast.WhileStmt{StmtBase: stmtBase(start.Span.Start, body.GetSpan().End), Condition: condition, Body: body}

	if init != nil {
		body = &ast.BlockStmt{StmtBase: stmtBase(init.GetSpan().Start, body.GetSpan().End), Stmts: []ast.Stmt{init, body}}
	}

	return body
}

func (p *Parser) ifStmt() ast.Stmt {
	start := p.advance() // 'if'
	p.expect(token.LPAREN, "E2001", "Expect '(' after 'if'.")
	condition := p.expression()
	p.expect(token.RPAREN, "E2001", "Expect ')' after if condition.")

	thenBranch := p.statement()
	var elseBranch ast.Stmt
	end := thenBranch.GetSpan().End
	if p.match(token.KW_ELSE) {
		elseBranch = p.statement()
		end = elseBranch.GetSpan().End
	}

	return &ast.IfStmt{
		StmtBase:  stmtBase(start.Span.Start, end),
		Condition: condition,
		Then:      thenBranch,
		Else:      elseBranch,
	}
}

func (p *Parser) printStmt() ast.Stmt {
	start := p.advance() // 'print'
	value := p.expression()
	end := p.expect(token.SEMICOLON, "E2001", "Expect ';' after value.")
	return &ast.PrintStmt{StmtBase: stmtBase(start.Span.Start, end.Span.End), Expression: value}
}

func (p *Parser) returnStmt() ast.Stmt {
	keyword := p.advance() // 'return'
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		value = p.expression()
	}
	end := p.expect(token.SEMICOLON, "E2001", "Expect ';' after return value.")
	return &ast.ReturnStmt{StmtBase: stmtBase(keyword.Span.Start, end.Span.End), Keyword: keyword, Value: value}
}

func (p *Parser) whileStmt() ast.Stmt {
	start := p.advance() // 'while'
	p.expect(token.LPAREN, "E2001", "Expect '(' after 'while'.")
	condition := p.expression()
	p.expect(token.RPAREN, "E2001", "Expect ')' after condition.")
	body := p.statement()
	return &ast.WhileStmt{StmtBase: stmtBase(start.Span.Start, body.GetSpan().End), Condition: condition, Body: body}
}

func (p *Parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.expect(token.RBRACE, "E2001", "Expect '}' after block.")
	return stmts
}

func (p *Parser) exprStmt() ast.Stmt {
	expr := p.expression()
	end := p.expect(token.SEMICOLON, "E2001", "Expect ';' after expression.")
	return &ast.ExpressionStmt{StmtBase: stmtBase(expr.GetSpan().Start, end.Span.End), Expression: expr}
}

// ============================================================
// Expressions (recursive descent, one method per precedence level)
// ============================================================

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	expr := p.or()

	if p.check(token.ASSIGN) {
		equals := p.advance()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{
				ExprBase: exprBase(span.Span{Start: expr.GetSpan().Start, End: value.GetSpan().End}),
				Name:     target.Name,
				Value:    value,
			}
		case *ast.GetExpr:
			return &ast.SetExpr{
				ExprBase: exprBase(span.Span{Start: expr.GetSpan().Start, End: value.GetSpan().End}),
				Object:   target.Object,
				Name:     target.Name,
				Value:    value,
			}
		default:
			// Reported but not fatal: the already-parsed expr is kept so
			// parsing can continue past this statement.
			p.errorAt(equals, "E2003", "Invalid assignment target.")
			return expr
		}
	}

	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.check(token.KW_OR) {
		op := p.advance()
		right := p.and()
		expr = &ast.LogicalExpr{ExprBase: exprBase(span.Span{Start: expr.GetSpan().Start, End: right.GetSpan().End}), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.check(token.KW_AND) {
		op := p.advance()
		right := p.equality()
		expr = &ast.LogicalExpr{ExprBase: exprBase(span.Span{Start: expr.GetSpan().Start, End: right.GetSpan().End}), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.match(token.BANG_EQ, token.EQ) {
		op := p.tokens[p.pos-1]
		right := p.comparison()
		expr = &ast.BinaryExpr{ExprBase: exprBase(span.Span{Start: expr.GetSpan().Start, End: right.GetSpan().End}), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.match(token.GT, token.GTE, token.LT, token.LTE) {
		op := p.tokens[p.pos-1]
		right := p.term()
		expr = &ast.BinaryExpr{ExprBase: exprBase(span.Span{Start: expr.GetSpan().Start, End: right.GetSpan().End}), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.match(token.MINUS, token.PLUS) {
		op := p.tokens[p.pos-1]
		right := p.factor()
		expr = &ast.BinaryExpr{ExprBase: exprBase(span.Span{Start: expr.GetSpan().Start, End: right.GetSpan().End}), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.match(token.SLASH, token.STAR) {
		op := p.tokens[p.pos-1]
		right := p.unary()
		expr = &ast.BinaryExpr{ExprBase: exprBase(span.Span{Start: expr.GetSpan().Start, End: right.GetSpan().End}), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(token.BANG, token.MINUS) {
		op := p.tokens[p.pos-1]
		right := p.unary()
		return &ast.UnaryExpr{ExprBase: exprBase(span.Span{Start: op.Span.Start, End: right.GetSpan().End}), Op: op, Right: right}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()

	for {
		switch {
		case p.check(token.LPAREN):
			p.advance()
			expr = p.finishCall(expr)
		case p.check(token.DOT):
			p.advance()
			name := p.expect(token.IDENT, "E2001", "Expect property name after '.'.")
			expr = &ast.GetExpr{ExprBase: exprBase(span.Span{Start: expr.GetSpan().Start, End: name.Span.End}), Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			if len(args) >= maxArgs {
				p.errorAt(p.peek(), "E2002", "Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.expect(token.RPAREN, "E2001", "Expect ')' after arguments.")
	return &ast.CallExpr{ExprBase: exprBase(span.Span{Start: callee.GetSpan().Start, End: paren.Span.End}), Callee: callee, Paren: paren, Args: args}
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.KW_FALSE:
		p.advance()
		return &ast.LiteralExpr{ExprBase: exprBase(tok.Span), Value: false}
	case token.KW_TRUE:
		p.advance()
		return &ast.LiteralExpr{ExprBase: exprBase(tok.Span), Value: true}
	case token.KW_NIL:
		p.advance()
		return &ast.LiteralExpr{ExprBase: exprBase(tok.Span), Value: nil}
	case token.NUMBER:
		p.advance()
		return &ast.LiteralExpr{ExprBase: exprBase(tok.Span), Value: tok.NumberLiteral}
	case token.STRING:
		p.advance()
		return &ast.LiteralExpr{ExprBase: exprBase(tok.Span), Value: tok.Lexeme}
	case token.KW_SUPER:
		p.advance()
		p.expect(token.DOT, "E2001", "Expect '.' after 'super'.")
		method := p.expect(token.IDENT, "E2001", "Expect superclass method name.")
		return &ast.SuperExpr{ExprBase: exprBase(span.Span{Start: tok.Span.Start, End: method.Span.End}), Keyword: tok, Method: method}
	case token.KW_THIS:
		p.advance()
		return &ast.ThisExpr{ExprBase: exprBase(tok.Span), Keyword: tok}
	case token.IDENT:
		p.advance()
		return &ast.VariableExpr{ExprBase: exprBase(tok.Span), Name: tok}
	case token.LPAREN:
		p.advance()
		expr := p.expression()
		end := p.expect(token.RPAREN, "E2001", "Expect ')' after expression.")
		return &ast.GroupingExpr{ExprBase: exprBase(span.Span{Start: tok.Span.Start, End: end.Span.End}), Expression: expr}
	default:
		panic(p.errorAt(tok, "E2004", "Expect expression."))
	}
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func exprBase(s span.Span) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: s}}
}

func stmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
