package optimizer

import (
	"fmt"
	"math/big"
	"testing"

	"yasny/internal/ast"
	"yasny/internal/lexer"
	"yasny/internal/parser"
)

func optimizeString(input string) (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("optimizer panic: %v", r)
			}
			prog = nil
		}
	}()
	toks := lexer.New(input, "").Tokenize()
	parsed := parser.New(toks, "").Parse()
	prog = Optimize(parsed)
	return
}

func mustOptimize(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, err := optimizeString(input)
	if err != nil {
		t.Fatalf("unexpected error optimizing %q: %v", input, err)
	}
	return prog
}

func TestConstantFoldingIntArithmetic(t *testing.T) {
	prog := mustOptimize(t, "пусть x = 1 + 2\n")
	decl := prog.Statements[0].(*ast.VarDecl)
	lit, ok := decl.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitInt {
		t.Fatalf("expected folded int literal, got %#v", decl.Value)
	}
	if lit.Value.(*big.Int).Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("expected 3, got %v", lit.Value)
	}
}

func TestConstantFoldingModuloNegativeIntFloors(t *testing.T) {
	// vm.py:102-104's `a % b` is Python's floor-mod: -7 % 2 == 1, taking
	// the divisor's sign. The folder must agree with the VM (intArith).
	prog := mustOptimize(t, "пусть x = -7 % 2\n")
	decl := prog.Statements[0].(*ast.VarDecl)
	lit, ok := decl.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitInt {
		t.Fatalf("expected folded int literal, got %#v", decl.Value)
	}
	if lit.Value.(*big.Int).Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected -7%%2=1 (floor-mod), got %v", lit.Value)
	}
}

func TestConstantFoldingModuloFloatKeepsFractionalPart(t *testing.T) {
	prog := mustOptimize(t, "пусть x = 7.5 % 2.0\n")
	decl := prog.Statements[0].(*ast.VarDecl)
	lit, ok := decl.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitFloat {
		t.Fatalf("expected folded float literal, got %#v", decl.Value)
	}
	if lit.Value.(float64) != 1.5 {
		t.Fatalf("expected 7.5%%2.0=1.5, got %v", lit.Value)
	}
}

func TestConstantFoldingStringConcat(t *testing.T) {
	prog := mustOptimize(t, "пусть x = \"a\" + \"b\"\n")
	decl := prog.Statements[0].(*ast.VarDecl)
	lit, ok := decl.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitString || lit.Value.(string) != "ab" {
		t.Fatalf("expected folded string \"ab\", got %#v", decl.Value)
	}
}

func TestConstantFoldingComparison(t *testing.T) {
	prog := mustOptimize(t, "пусть x = 1 < 2\n")
	decl := prog.Statements[0].(*ast.VarDecl)
	lit, ok := decl.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitBool || lit.Value.(bool) != true {
		t.Fatalf("expected folded bool true, got %#v", decl.Value)
	}
}

func TestConstantFoldingLogical(t *testing.T) {
	prog := mustOptimize(t, "пусть x = истина и ложь\n")
	decl := prog.Statements[0].(*ast.VarDecl)
	lit, ok := decl.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitBool || lit.Value.(bool) != false {
		t.Fatalf("expected folded bool false, got %#v", decl.Value)
	}
}

func TestDivisionByZeroIsNotFolded(t *testing.T) {
	prog := mustOptimize(t, "пусть x = 1 / 0\n")
	decl := prog.Statements[0].(*ast.VarDecl)
	if _, ok := decl.Value.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected division by zero to stay unfolded, got %#v", decl.Value)
	}
}

func TestUnaryNegFolding(t *testing.T) {
	prog := mustOptimize(t, "пусть x = -5\n")
	decl := prog.Statements[0].(*ast.VarDecl)
	lit, ok := decl.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitInt {
		t.Fatalf("expected folded negative int literal, got %#v", decl.Value)
	}
	if lit.Value.(*big.Int).Cmp(big.NewInt(-5)) != 0 {
		t.Fatalf("expected -5, got %v", lit.Value)
	}
}

func TestDeadBranchEliminationConstantTrue(t *testing.T) {
	prog := mustOptimize(t, "если истина:\n    пусть x = 1\nиначе:\n    пусть y = 2\n")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected only the then-branch to survive, got %d statements", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*ast.VarDecl)
	if !ok || decl.Name != "x" {
		t.Fatalf("expected surviving decl 'x', got %#v", prog.Statements[0])
	}
}

func TestDeadBranchEliminationConstantFalse(t *testing.T) {
	prog := mustOptimize(t, "если ложь:\n    пусть x = 1\nиначе:\n    пусть y = 2\n")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected only the else-branch to survive, got %d statements", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*ast.VarDecl)
	if !ok || decl.Name != "y" {
		t.Fatalf("expected surviving decl 'y', got %#v", prog.Statements[0])
	}
}

func TestDeadLoopEliminatedWhenConditionIsFalse(t *testing.T) {
	prog := mustOptimize(t, "пока ложь:\n    печать(1)\nпусть x = 1\n")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected the while loop to be dropped entirely, got %d statements", len(prog.Statements))
	}
}

func TestDeadCodeAfterReturnIsDropped(t *testing.T) {
	prog := mustOptimize(t, "экспорт функция f() -> Цел:\n    вернуть 1\n    печать(2)\n")
	fn := prog.Statements[0].(*ast.FuncDecl)
	if len(fn.Body) != 1 {
		t.Fatalf("expected the statement after 'вернуть' to be dropped, got %d statements", len(fn.Body))
	}
}

func TestPureExpressionStatementIsDropped(t *testing.T) {
	prog := mustOptimize(t, "1 + 2\nпусть x = 1\n")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected the pure bare expression to be dropped, got %d statements", len(prog.Statements))
	}
}

func TestCallExpressionStatementIsNeverDropped(t *testing.T) {
	prog := mustOptimize(t, "печать(1)\n")
	if len(prog.Statements) != 1 {
		t.Fatal("expected the call statement to survive optimization")
	}
	if _, ok := prog.Statements[0].(*ast.ExprStmt); !ok {
		t.Fatalf("expected an ExprStmt wrapping the call, got %#v", prog.Statements[0])
	}
}

func TestTreeShakeDropsUnreachableFunction(t *testing.T) {
	prog := mustOptimize(t,
		"функция использованная() -> Цел:\n    вернуть 1\n"+
			"функция неиспользованная() -> Цел:\n    вернуть 2\n"+
			"функция main() -> Пусто:\n    печать(использованная())\n    вернуть пусто\n")
	names := map[string]bool{}
	for _, s := range prog.Statements {
		if fn, ok := s.(*ast.FuncDecl); ok {
			names[fn.Name] = true
		}
	}
	if !names["использованная"] || !names["main"] {
		t.Fatalf("expected used functions to survive, got %v", names)
	}
	if names["неиспользованная"] {
		t.Fatal("expected unreachable function to be tree-shaken away")
	}
}

func TestTreeShakeKeepsExportedFunction(t *testing.T) {
	prog := mustOptimize(t,
		"экспорт функция помощь() -> Цел:\n    вернуть 1\n"+
			"функция main() -> Пусто:\n    вернуть пусто\n")
	found := false
	for _, s := range prog.Statements {
		if fn, ok := s.(*ast.FuncDecl); ok && fn.Name == "помощь" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an exported function to survive tree-shaking even though nothing calls it locally")
	}
}

func TestTreeShakeKeepsFunctionCalledFromTopLevelStatement(t *testing.T) {
	prog := mustOptimize(t,
		"функция помощь() -> Цел:\n    вернуть 1\n"+
			"пусть x = помощь()\n")
	found := false
	for _, s := range prog.Statements {
		if fn, ok := s.(*ast.FuncDecl); ok && fn.Name == "помощь" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a function called from a top-level statement to survive tree-shaking")
	}
}
