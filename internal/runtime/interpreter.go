package runtime

import (
	"fmt"
	"io"

	"lox-lang/internal/ast"
	"lox-lang/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
// return is not an error: it unwinds the call stack as a value, not a
// panic, so a well-behaved return from deep inside nested blocks and
// loops is indistinguishable in cost from falling off the end of a
// function body.
type ExecSignal int

const (
	SigNone ExecSignal = iota
	SigReturn
)

// ExecResult carries a control flow signal and, for SigReturn, the
// returned value.
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Runtime error
// ============================================================

// RuntimeError represents an error raised while executing a resolved
// program. Token anchors it to the source line the way the language's
// diagnostics sink expects.
type RuntimeError struct {
	Token   token.Token
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func runtimeErr(tok token.Token, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Token: tok, Message: fmt.Sprintf(format, args...)}
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks a resolved AST and executes it.
type Interpreter struct {
	global *Environment
	env    *Environment
	locals map[ast.Expr]int
	output io.Writer
}

// NewInterpreter creates a new interpreter with native functions
// registered in its global environment, writing `print` output to w.
func NewInterpreter(w io.Writer) *Interpreter {
	global := NewEnvironment(nil)
	RegisterNatives(global)
	return &Interpreter{
		global: global,
		env:    global,
		locals: make(map[ast.Expr]int),
		output: w,
	}
}

// Interpret merges locals (as produced by the resolver for this file or
// REPL entry) into the interpreter's side table and executes every
// top-level statement in file, in order, stopping at the first error.
func (i *Interpreter) Interpret(file *ast.File, locals map[ast.Expr]int) error {
	for expr, depth := range locals {
		i.locals[expr] = depth
	}
	for _, stmt := range file.Body {
		if _, err := i.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execute(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := i.evaluate(s.Expression)
		return resultNone, err

	case *ast.PrintStmt:
		return i.execPrint(s)

	case *ast.VarStmt:
		return i.execVarStmt(s)

	case *ast.BlockStmt:
		return i.executeBlock(s.Stmts, NewEnvironment(i.env))

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.FunctionDecl:
		fn := &Function{Decl: s, Closure: i.env}
		i.env.Define(s.Name.Lexeme, fn)
		return resultNone, nil

	case *ast.ReturnStmt:
		var val Value = NilVal{}
		if s.Value != nil {
			v, err := i.evaluate(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.ClassDecl:
		return i.execClassDecl(s)

	default:
		return resultNone, runtimeErr(token.Token{Span: stmt.GetSpan()}, "unhandled statement type: %T", stmt)
	}
}

func (i *Interpreter) execPrint(s *ast.PrintStmt) (ExecResult, error) {
	val, err := i.evaluate(s.Expression)
	if err != nil {
		return resultNone, err
	}
	fmt.Fprintln(i.output, val.String())
	return resultNone, nil
}

func (i *Interpreter) execVarStmt(s *ast.VarStmt) (ExecResult, error) {
	var val Value = NilVal{}
	if s.Init != nil {
		v, err := i.evaluate(s.Init)
		if err != nil {
			return resultNone, err
		}
		val = v
	}
	i.env.Define(s.Name.Lexeme, val)
	return resultNone, nil
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := i.evaluate(s.Condition)
	if err != nil {
		return resultNone, err
	}
	if IsTruthy(cond) {
		return i.execute(s.Then)
	}
	if s.Else != nil {
		return i.execute(s.Else)
	}
	return resultNone, nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		cond, err := i.evaluate(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			return resultNone, nil
		}
		result, err := i.execute(s.Body)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigReturn {
			return result, nil
		}
	}
}

// executeBlock runs stmts against blockEnv, restoring the interpreter's
// previous environment on the way out even if a statement returns or
// errors partway through.
func (i *Interpreter) executeBlock(stmts []ast.Stmt, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range stmts {
		result, err := i.execute(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execClassDecl(s *ast.ClassDecl) (ExecResult, error) {
	var superclass *Class
	if s.Superclass != nil {
		superVal, err := i.lookUpVariable(s.Superclass.Name, s.Superclass)
		if err != nil {
			return resultNone, err
		}
		sc, ok := superVal.(*Class)
		if !ok {
			return resultNone, runtimeErr(s.Superclass.Name, "Superclass must be a class.")
		}
		superclass = sc
	}

	i.env.Define(s.Name.Lexeme, NilVal{})

	if superclass != nil {
		i.env = NewEnvironment(i.env)
		i.env.Define("super", superclass)
	}

	methods := make(map[string]*Function, len(s.Methods))
	for _, m := range s.Methods {
		methods[m.Name.Lexeme] = &Function{
			Decl:          m,
			Closure:       i.env,
			IsInitializer: m.Name.Lexeme == "init",
		}
	}

	class := &Class{Name: s.Name.Lexeme, Superclass: superclass, Methods: methods}

	if superclass != nil {
		i.env = i.env.parent
	}

	i.env.Assign(s.Name.Lexeme, class)
	return resultNone, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evaluate(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e.Value), nil

	case *ast.GroupingExpr:
		return i.evaluate(e.Expression)

	case *ast.UnaryExpr:
		return i.evalUnary(e)

	case *ast.BinaryExpr:
		return i.evalBinary(e)

	case *ast.LogicalExpr:
		return i.evalLogical(e)

	case *ast.VariableExpr:
		return i.lookUpVariable(e.Name, e)

	case *ast.AssignExpr:
		return i.evalAssign(e)

	case *ast.CallExpr:
		return i.evalCall(e)

	case *ast.GetExpr:
		return i.evalGet(e)

	case *ast.SetExpr:
		return i.evalSet(e)

	case *ast.ThisExpr:
		return i.lookUpVariable(e.Keyword, e)

	case *ast.SuperExpr:
		return i.evalSuper(e)

	default:
		return nil, runtimeErr(token.Token{Span: expr.GetSpan()}, "unhandled expression type: %T", expr)
	}
}

func literalValue(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return NilVal{}
	case bool:
		return BoolVal(val)
	case float64:
		return NumberVal(val)
	case string:
		return StringVal(val)
	default:
		return NilVal{}
	}
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	right, err := i.evaluate(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.MINUS:
		n, ok := right.(NumberVal)
		if !ok {
			return nil, runtimeErr(e.Op, "Operand must be a number.")
		}
		return -n, nil
	case token.BANG:
		return BoolVal(!IsTruthy(right)), nil
	default:
		return nil, runtimeErr(e.Op, "unknown unary operator: %s", e.Op.Kind)
	}
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evaluate(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.PLUS:
		if ln, ok := left.(NumberVal); ok {
			if rn, ok := right.(NumberVal); ok {
				return ln + rn, nil
			}
		}
		if ls, ok := left.(StringVal); ok {
			if rs, ok := right.(StringVal); ok {
				return ls + rs, nil
			}
		}
		return nil, runtimeErr(e.Op, "Operands must be two numbers or two strings.")

	case token.MINUS, token.STAR, token.SLASH, token.GT, token.GTE, token.LT, token.LTE:
		ln, lok := left.(NumberVal)
		rn, rok := right.(NumberVal)
		if !lok || !rok {
			return nil, runtimeErr(e.Op, "Operands must be numbers.")
		}
		switch e.Op.Kind {
		case token.MINUS:
			return ln - rn, nil
		case token.STAR:
			return ln * rn, nil
		case token.SLASH:
			return ln / rn, nil
		case token.GT:
			return BoolVal(ln > rn), nil
		case token.GTE:
			return BoolVal(ln >= rn), nil
		case token.LT:
			return BoolVal(ln < rn), nil
		default: // token.LTE
			return BoolVal(ln <= rn), nil
		}

	case token.EQ:
		return BoolVal(isEqual(left, right)), nil
	case token.BANG_EQ:
		return BoolVal(!isEqual(left, right)), nil

	default:
		return nil, runtimeErr(e.Op, "unknown binary operator: %s", e.Op.Kind)
	}
}

func isEqual(a, b Value) bool {
	return a == b
}

func (i *Interpreter) evalLogical(e *ast.LogicalExpr) (Value, error) {
	left, err := i.evaluate(e.Left)
	if err != nil {
		return nil, err
	}

	if e.Op.Kind == token.KW_OR {
		if IsTruthy(left) {
			return left, nil
		}
	} else if !IsTruthy(left) {
		return left, nil
	}

	return i.evaluate(e.Right)
}

func (i *Interpreter) evalAssign(e *ast.AssignExpr) (Value, error) {
	val, err := i.evaluate(e.Value)
	if err != nil {
		return nil, err
	}

	if depth, ok := i.locals[e]; ok {
		i.env.AssignAt(depth, e.Name.Lexeme, val)
		return val, nil
	}
	if !i.global.Assign(e.Name.Lexeme, val) {
		return nil, runtimeErr(e.Name, "Undefined variable '%s'.", e.Name.Lexeme)
	}
	return val, nil
}

func (i *Interpreter) lookUpVariable(name token.Token, expr ast.Expr) (Value, error) {
	if depth, ok := i.locals[expr]; ok {
		return i.env.GetAt(depth, name.Lexeme), nil
	}
	val, ok := i.global.Get(name.Lexeme)
	if !ok {
		return nil, runtimeErr(name, "Undefined variable '%s'.", name.Lexeme)
	}
	return val, nil
}

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evaluate(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, a := range e.Args {
		v, err := i.evaluate(a)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}

	switch fn := callee.(type) {
	case *Function:
		if len(args) != len(fn.Decl.Params) {
			return nil, runtimeErr(e.Paren, "Expected %d arguments but got %d.", len(fn.Decl.Params), len(args))
		}
		return i.callFunction(fn, args)

	case *NativeFunction:
		if len(args) != fn.Arity {
			return nil, runtimeErr(e.Paren, "Expected %d arguments but got %d.", fn.Arity, len(args))
		}
		return fn.Fn(i, args)

	case *Class:
		arity := 0
		if init, ok := fn.FindMethod("init"); ok {
			arity = len(init.Decl.Params)
		}
		if len(args) != arity {
			return nil, runtimeErr(e.Paren, "Expected %d arguments but got %d.", arity, len(args))
		}
		return i.instantiate(fn, args)

	default:
		return nil, runtimeErr(e.Paren, "Can only call functions and classes.")
	}
}

// callFunction invokes fn with args already evaluated in the caller's
// environment, executing its body in a fresh environment parented on
// its closure — the mechanism that makes closures capture the
// environment they were declared in rather than the one they're called
// from.
func (i *Interpreter) callFunction(fn *Function, args []Value) (Value, error) {
	env := NewEnvironment(fn.Closure)
	for idx, param := range fn.Decl.Params {
		env.Define(param.Lexeme, args[idx])
	}

	result, err := i.executeBlock(fn.Decl.Body, env)
	if err != nil {
		return nil, err
	}

	if fn.IsInitializer {
		return fn.Closure.GetAt(0, "this"), nil
	}
	if result.Signal == SigReturn {
		return result.Value, nil
	}
	return NilVal{}, nil
}

func (i *Interpreter) instantiate(class *Class, args []Value) (Value, error) {
	instance := NewInstance(class)
	if initializer, ok := class.FindMethod("init"); ok {
		if _, err := i.callFunction(initializer.Bind(instance), args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

func (i *Interpreter) evalGet(e *ast.GetExpr) (Value, error) {
	obj, err := i.evaluate(e.Object)
	if err != nil {
		return nil, err
	}
	instance, ok := obj.(*Instance)
	if !ok {
		return nil, runtimeErr(e.Name, "Only instances have properties.")
	}
	val, ok := instance.Get(e.Name.Lexeme)
	if !ok {
		return nil, runtimeErr(e.Name, "Undefined property '%s'.", e.Name.Lexeme)
	}
	return val, nil
}

func (i *Interpreter) evalSet(e *ast.SetExpr) (Value, error) {
	obj, err := i.evaluate(e.Object)
	if err != nil {
		return nil, err
	}
	instance, ok := obj.(*Instance)
	if !ok {
		return nil, runtimeErr(e.Name, "Only instances have fields.")
	}
	val, err := i.evaluate(e.Value)
	if err != nil {
		return nil, err
	}
	instance.Set(e.Name.Lexeme, val)
	return val, nil
}

func (i *Interpreter) evalSuper(e *ast.SuperExpr) (Value, error) {
	depth := i.locals[e]
	superclass := i.env.GetAt(depth, "super").(*Class)
	object := i.env.GetAt(depth-1, "this").(*Instance)

	method, ok := superclass.FindMethod(e.Method.Lexeme)
	if !ok {
		return nil, runtimeErr(e.Method, "Undefined property '%s'.", e.Method.Lexeme)
	}
	return method.Bind(object), nil
}
