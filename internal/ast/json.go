package ast

import (
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has a "kind" field.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *File:
		return m("File", n.Span, "body", stmtSlice(n.Body))

	// ---- Expressions ----
	case *LiteralExpr:
		return m("LiteralExpr", n.Span, "value", n.Value)
	case *GroupingExpr:
		return m("GroupingExpr", n.Span, "expression", NodeToMap(n.Expression))
	case *UnaryExpr:
		return m("UnaryExpr", n.Span, "op", n.Op.Lexeme, "right", NodeToMap(n.Right))
	case *BinaryExpr:
		return m("BinaryExpr", n.Span,
			"op", n.Op.Lexeme,
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *LogicalExpr:
		return m("LogicalExpr", n.Span,
			"op", n.Op.Lexeme,
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *VariableExpr:
		return m("VariableExpr", n.Span, "name", n.Name.Lexeme)
	case *AssignExpr:
		return m("AssignExpr", n.Span, "name", n.Name.Lexeme, "value", NodeToMap(n.Value))
	case *CallExpr:
		return m("CallExpr", n.Span,
			"callee", NodeToMap(n.Callee),
			"args", exprSlice(n.Args))
	case *GetExpr:
		return m("GetExpr", n.Span, "object", NodeToMap(n.Object), "name", n.Name.Lexeme)
	case *SetExpr:
		return m("SetExpr", n.Span,
			"object", NodeToMap(n.Object),
			"name", n.Name.Lexeme,
			"value", NodeToMap(n.Value))
	case *ThisExpr:
		return m("ThisExpr", n.Span)
	case *SuperExpr:
		return m("SuperExpr", n.Span, "method", n.Method.Lexeme)

	// ---- Statements ----
	case *ExpressionStmt:
		return m("ExpressionStmt", n.Span, "expression", NodeToMap(n.Expression))
	case *PrintStmt:
		return m("PrintStmt", n.Span, "expression", NodeToMap(n.Expression))
	case *VarStmt:
		result := m("VarStmt", n.Span, "name", n.Name.Lexeme)
		if n.Init != nil {
			result["init"] = NodeToMap(n.Init)
		}
		return result
	case *BlockStmt:
		return m("BlockStmt", n.Span, "stmts", stmtSlice(n.Stmts))
	case *IfStmt:
		result := m("IfStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"then", NodeToMap(n.Then))
		if n.Else != nil {
			result["else"] = NodeToMap(n.Else)
		}
		return result
	case *WhileStmt:
		return m("WhileStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
	case *FunctionDecl:
		return m("FunctionDecl", n.Span,
			"name", n.Name.Lexeme,
			"params", tokenNames(n.Params),
			"body", stmtSlice(n.Body))
	case *ReturnStmt:
		result := m("ReturnStmt", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *ClassDecl:
		result := m("ClassDecl", n.Span, "name", n.Name.Lexeme)
		if n.Superclass != nil {
			result["superclass"] = n.Superclass.Name.Lexeme
		}
		if len(n.Methods) > 0 {
			methods := make([]interface{}, len(n.Methods))
			for i, md := range n.Methods {
				methods[i] = NodeToMap(md)
			}
			result["methods"] = methods
		}
		return result

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]interface{}{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func stmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, st := range stmts {
		result[i] = NodeToMap(st)
	}
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}

func tokenNames(toks []token.Token) []string {
	names := make([]string, len(toks))
	for i, t := range toks {
		names[i] = t.Lexeme
	}
	return names
}
