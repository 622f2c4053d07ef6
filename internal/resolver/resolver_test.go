package resolver

import (
	"testing"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
)

func resolveSource(t *testing.T, source string) (*ast.File, map[ast.Expr]int, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	tokens := lexer.New(source, bag).Tokenize()
	if bag.HadError() {
		t.Fatalf("lex errors: %v", bag.Diagnostics())
	}
	file := parser.New(tokens, bag).ParseProgram()
	if bag.HadError() {
		t.Fatalf("parse errors: %v", bag.Diagnostics())
	}
	locals := Resolve(file, bag)
	return file, locals, bag
}

func TestResolveGlobalIsAbsentFromTable(t *testing.T) {
	_, locals, bag := resolveSource(t, `var x = 1; print x;`)
	if bag.HadError() {
		t.Fatalf("unexpected diagnostics: %v", bag.Diagnostics())
	}
	if len(locals) != 0 {
		t.Errorf("expected no local depths for a global reference, got %v", locals)
	}
}

func TestResolveLocalDepthInBlock(t *testing.T) {
	source := `{
  var x = 1;
  print x;
}`
	file, locals, bag := resolveSource(t, source)
	if bag.HadError() {
		t.Fatalf("unexpected diagnostics: %v", bag.Diagnostics())
	}
	block := file.Body[0].(*ast.BlockStmt)
	printStmt := block.Stmts[1].(*ast.PrintStmt)
	varExpr := printStmt.Expression.(*ast.VariableExpr)
	if depth, ok := locals[varExpr]; !ok || depth != 0 {
		t.Errorf("expected depth 0 for 'x' in its own block, got %v (ok=%v)", depth, ok)
	}
}

func TestResolveClosureCapturesOuterDepth(t *testing.T) {
	source := `fun outer() {
  var x = "outside";
  fun inner() {
    print x;
  }
  inner();
}`
	file, locals, bag := resolveSource(t, source)
	if bag.HadError() {
		t.Fatalf("unexpected diagnostics: %v", bag.Diagnostics())
	}
	outer := file.Body[0].(*ast.FunctionDecl)
	inner := outer.Body[1].(*ast.FunctionDecl)
	printStmt := inner.Body[0].(*ast.PrintStmt)
	varExpr := printStmt.Expression.(*ast.VariableExpr)
	// inner's params and body share one scope, and outer's scope holds
	// x: x lives one scope out from inner's body scope.
	if depth, ok := locals[varExpr]; !ok || depth != 1 {
		t.Errorf("expected depth 1 for captured 'x', got %v (ok=%v)", depth, ok)
	}
}

func TestResolveSelfInitializerError(t *testing.T) {
	_, _, bag := resolveSource(t, `{ var a = a; }`)
	if !bag.HadError() {
		t.Fatal("expected a self-initializer diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "Can't read local variable in its own initializer." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestResolveDuplicateLocalDeclaration(t *testing.T) {
	source := `{
  var a = 1;
  var a = 2;
}`
	_, _, bag := resolveSource(t, source)
	if !bag.HadError() {
		t.Fatal("expected a duplicate-declaration diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "Already a variable with this name in this scope." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestResolveShadowingAtGlobalScopeIsAllowed(t *testing.T) {
	// Redeclaring at the top level (not inside a block) is fine: the
	// duplicate check only applies within a single local scope.
	_, _, bag := resolveSource(t, `var a = 1; var a = 2; print a;`)
	if bag.HadError() {
		t.Errorf("unexpected diagnostics for global redeclaration: %v", bag.Diagnostics())
	}
}

func TestResolveReturnFromTopLevelError(t *testing.T) {
	_, _, bag := resolveSource(t, `return 1;`)
	if !bag.HadError() {
		t.Fatal("expected a top-level return diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "Can't return from top-level code." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestResolveReturnValueFromInitializerError(t *testing.T) {
	source := `class Foo {
  init() {
    return 1;
  }
}`
	_, _, bag := resolveSource(t, source)
	if !bag.HadError() {
		t.Fatal("expected an initializer-return diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "Can't return a value from an initializer." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestResolveBareReturnFromInitializerAllowed(t *testing.T) {
	source := `class Foo {
  init() {
    if (true) return;
  }
}`
	_, _, bag := resolveSource(t, source)
	if bag.HadError() {
		t.Errorf("unexpected diagnostics: %v", bag.Diagnostics())
	}
}

func TestResolveThisOutsideClassError(t *testing.T) {
	_, _, bag := resolveSource(t, `print this;`)
	if !bag.HadError() {
		t.Fatal("expected a this-outside-class diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "Can't use 'this' outside of a class." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestResolveSuperOutsideClassError(t *testing.T) {
	_, _, bag := resolveSource(t, `print super.method();`)
	if !bag.HadError() {
		t.Fatal("expected a super-outside-class diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "Can't use 'super' outside of a class." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestResolveSuperWithNoSuperclassError(t *testing.T) {
	source := `class Foo {
  bar() {
    super.bar();
  }
}`
	_, _, bag := resolveSource(t, source)
	if !bag.HadError() {
		t.Fatal("expected a no-superclass diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "Can't use 'super' in a class with no superclass." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestResolveClassInheritsFromItselfError(t *testing.T) {
	_, _, bag := resolveSource(t, `class Foo < Foo {}`)
	if !bag.HadError() {
		t.Fatal("expected a self-inheritance diagnostic")
	}
	if got := bag.Diagnostics()[0].Message; got != "A class can't inherit from itself." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestResolveMethodSeesThisAndSuper(t *testing.T) {
	source := `class Animal {
  speak() {
    print "...";
  }
}
class Dog < Animal {
  speak() {
    super.speak();
    print this;
  }
}`
	_, _, bag := resolveSource(t, source)
	if bag.HadError() {
		t.Errorf("unexpected diagnostics: %v", bag.Diagnostics())
	}
}
