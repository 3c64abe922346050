// Package optimizer performs a single post-check pass over a resolved,
// type-checked program: constant folding, dead-branch and dead-code
// elimination, pure-statement removal, and a call-graph tree-shake that
// drops unreachable functions.
//
// Grounded on optimizer.py's module-level optimize_program/_Optimizer/
// _tree_shake functions. The Go shape follows the same precedent set by
// internal/checker and internal/module: a struct with one method per node
// kind, dispatched with a type switch rather than the ast.Visitor
// interfaces, since no part of this pass needs double dispatch — each
// node kind is handled by exactly one recursive function, matching the
// source's isinstance chain.
package optimizer

import (
	"math/big"

	"yasny/internal/ast"
	"yasny/internal/numeric"
)

// optimizedStmt mirrors optimizer.py's OptimizedStmt: a statement may
// expand to zero statements (pure expression statements are dropped
// outright) and a block stops emitting anything after the first
// statement that terminally exits it (return/break/continue).
type optimizedStmt struct {
	statements []ast.Stmt
	terminal   bool
}

// Optimize runs constant folding, dead-code elimination, and tree-shaking
// over program and returns a new, optimized ast.Program.
func Optimize(program *ast.Program) *ast.Program {
	o := &optimizer{}
	statements := o.optimizeBlock(program.Statements)
	statements = treeShake(statements)
	return ast.NewProgram(statements)
}

type optimizer struct{}

func (o *optimizer) optimizeBlock(statements []ast.Stmt) []ast.Stmt {
	var out []ast.Stmt
	for _, stmt := range statements {
		res := o.optimizeStmt(stmt)
		out = append(out, res.statements...)
		if res.terminal {
			break
		}
	}
	return out
}

func blockTerminal(statements []ast.Stmt) bool {
	if len(statements) == 0 {
		return false
	}
	switch statements[len(statements)-1].(type) {
	case *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt:
		return true
	}
	return false
}

func (o *optimizer) optimizeStmt(stmt ast.Stmt) optimizedStmt {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		line, col := s.Pos()
		return optimizedStmt{statements: []ast.Stmt{
			ast.NewVarDecl(line, col, s.Name, s.Annotation, o.optimizeExpr(s.Value), s.Exported),
		}}

	case *ast.AssignStmt:
		line, col := s.Pos()
		return optimizedStmt{statements: []ast.Stmt{
			ast.NewAssignStmt(line, col, s.Name, o.optimizeExpr(s.Value)),
		}}

	case *ast.IndexAssignStmt:
		line, col := s.Pos()
		return optimizedStmt{statements: []ast.Stmt{
			ast.NewIndexAssignStmt(line, col, o.optimizeExpr(s.Target), o.optimizeExpr(s.Index), o.optimizeExpr(s.Value)),
		}}

	case *ast.ExprStmt:
		line, col := s.Pos()
		optimized := o.optimizeExpr(s.Expr)
		if isPureExpression(optimized) {
			return optimizedStmt{}
		}
		return optimizedStmt{statements: []ast.Stmt{ast.NewExprStmt(line, col, optimized)}}

	case *ast.ReturnStmt:
		line, col := s.Pos()
		var val ast.Expr
		if s.Value != nil {
			val = o.optimizeExpr(s.Value)
		}
		return optimizedStmt{statements: []ast.Stmt{ast.NewReturnStmt(line, col, val)}, terminal: true}

	case *ast.BreakStmt:
		line, col := s.Pos()
		return optimizedStmt{statements: []ast.Stmt{ast.NewBreakStmt(line, col)}, terminal: true}

	case *ast.ContinueStmt:
		line, col := s.Pos()
		return optimizedStmt{statements: []ast.Stmt{ast.NewContinueStmt(line, col)}, terminal: true}

	case *ast.IfStmt:
		line, col := s.Pos()
		cond := o.optimizeExpr(s.Condition)
		if lit, ok := cond.(*ast.Literal); ok && lit.Kind == ast.LitBool {
			if lit.Value.(bool) {
				stmts := o.optimizeBlock(s.ThenBody)
				return optimizedStmt{statements: stmts, terminal: blockTerminal(stmts)}
			}
			stmts := o.optimizeBlock(s.ElseBody)
			return optimizedStmt{statements: stmts, terminal: blockTerminal(stmts)}
		}
		thenStmts := o.optimizeBlock(s.ThenBody)
		var elseStmts []ast.Stmt
		if s.ElseBody != nil {
			elseStmts = o.optimizeBlock(s.ElseBody)
		}
		terminal := blockTerminal(thenStmts) && s.ElseBody != nil && blockTerminal(elseStmts)
		return optimizedStmt{
			statements: []ast.Stmt{ast.NewIfStmt(line, col, cond, thenStmts, elseStmts)},
			terminal:   terminal,
		}

	case *ast.WhileStmt:
		line, col := s.Pos()
		cond := o.optimizeExpr(s.Condition)
		if lit, ok := cond.(*ast.Literal); ok && lit.Kind == ast.LitBool && !lit.Value.(bool) {
			return optimizedStmt{}
		}
		body := o.optimizeBlock(s.Body)
		return optimizedStmt{statements: []ast.Stmt{ast.NewWhileStmt(line, col, cond, body)}}

	case *ast.ForStmt:
		line, col := s.Pos()
		iterable := o.optimizeExpr(s.Iterable)
		body := o.optimizeBlock(s.Body)
		return optimizedStmt{statements: []ast.Stmt{ast.NewForStmt(line, col, s.VarName, iterable, body)}}

	case *ast.FuncDecl:
		line, col := s.Pos()
		body := o.optimizeBlock(s.Body)
		return optimizedStmt{statements: []ast.Stmt{
			ast.NewFuncDecl(line, col, s.Name, s.Params, s.ReturnType, body, s.Exported, s.IsAsync),
		}}

	case *ast.ImportAll, *ast.ImportFrom:
		// Already consumed by module resolution; a resolved program never
		// reaches the optimizer with these still present, but the case is
		// kept so an unresolved program fails loudly downstream rather
		// than silently losing the import here.
		return optimizedStmt{statements: []ast.Stmt{stmt}}

	default:
		return optimizedStmt{statements: []ast.Stmt{ast.CloneStmt(stmt)}}
	}
}

func (o *optimizer) optimizeExpr(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case *ast.Literal, *ast.Identifier:
		return ast.CloneExpr(expr)

	case *ast.MemberExpr:
		line, col := e.Pos()
		return ast.NewMemberExpr(line, col, o.optimizeExpr(e.Target), e.Member)

	case *ast.IndexExpr:
		line, col := e.Pos()
		return ast.NewIndexExpr(line, col, o.optimizeExpr(e.Target), o.optimizeExpr(e.Index))

	case *ast.ListLiteral:
		line, col := e.Pos()
		elems := make([]ast.Expr, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = o.optimizeExpr(el)
		}
		return ast.NewListLiteral(line, col, elems)

	case *ast.DictLiteral:
		line, col := e.Pos()
		entries := make([]ast.DictEntry, len(e.Entries))
		for i, entry := range e.Entries {
			entries[i] = ast.DictEntry{Key: o.optimizeExpr(entry.Key), Value: o.optimizeExpr(entry.Value)}
		}
		return ast.NewDictLiteral(line, col, entries)

	case *ast.CallExpr:
		line, col := e.Pos()
		args := make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = o.optimizeExpr(a)
		}
		return ast.NewCallExpr(line, col, o.optimizeExpr(e.Callee), args)

	case *ast.UnaryExpr:
		line, col := e.Pos()
		operand := o.optimizeExpr(e.Operand)
		if lit, ok := operand.(*ast.Literal); ok {
			if folded := foldUnary(e.Op, lit, line, col); folded != nil {
				return folded
			}
		}
		return ast.NewUnaryExpr(line, col, e.Op, operand)

	case *ast.BinaryExpr:
		line, col := e.Pos()
		left := o.optimizeExpr(e.Left)
		right := o.optimizeExpr(e.Right)
		leftLit, leftOk := left.(*ast.Literal)
		rightLit, rightOk := right.(*ast.Literal)
		if leftOk && rightOk {
			if folded := foldBinary(e.Op, leftLit, rightLit, line, col); folded != nil {
				return folded
			}
		}
		return ast.NewBinaryExpr(line, col, left, e.Op, right)

	default:
		return ast.CloneExpr(expr)
	}
}

// isPureExpression reports whether expr can be dropped as a statement
// without observable effect. CallExpr is never pure — some builtins
// (печать, пауза, запустить, ...) have effects and there is no purity
// annotation to tell them apart from the ones that don't.
func isPureExpression(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Literal, *ast.Identifier:
		return true
	case *ast.MemberExpr:
		return isPureExpression(e.Target)
	case *ast.IndexExpr:
		return isPureExpression(e.Target) && isPureExpression(e.Index)
	case *ast.UnaryExpr:
		return isPureExpression(e.Operand)
	case *ast.BinaryExpr:
		return isPureExpression(e.Left) && isPureExpression(e.Right)
	case *ast.ListLiteral:
		for _, el := range e.Elements {
			if !isPureExpression(el) {
				return false
			}
		}
		return true
	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			if !isPureExpression(entry.Key) || !isPureExpression(entry.Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func foldUnary(op string, operand *ast.Literal, line, col int) *ast.Literal {
	switch op {
	case "not":
		if operand.Kind == ast.LitBool {
			return ast.NewLiteral(line, col, ast.LitBool, !operand.Value.(bool))
		}
	case "neg":
		switch operand.Kind {
		case ast.LitInt:
			v := new(big.Int).Neg(operand.Value.(*big.Int))
			return ast.NewLiteral(line, col, ast.LitInt, v)
		case ast.LitFloat:
			return ast.NewLiteral(line, col, ast.LitFloat, -operand.Value.(float64))
		}
	}
	return nil
}

func foldBinary(op string, left, right *ast.Literal, line, col int) *ast.Literal {
	switch {
	case left.Kind == ast.LitInt && right.Kind == ast.LitInt:
		if lit := foldIntBinary(op, left.Value.(*big.Int), right.Value.(*big.Int), line, col); lit != nil {
			return lit
		}
	case left.Kind == ast.LitFloat && right.Kind == ast.LitFloat:
		if lit := foldFloatBinary(op, left.Value.(float64), right.Value.(float64), line, col); lit != nil {
			return lit
		}
	case left.Kind == ast.LitString && right.Kind == ast.LitString:
		if op == "+" {
			return ast.NewLiteral(line, col, ast.LitString, left.Value.(string)+right.Value.(string))
		}
	case left.Kind == ast.LitBool && right.Kind == ast.LitBool:
		switch op {
		case "и":
			return ast.NewLiteral(line, col, ast.LitBool, left.Value.(bool) && right.Value.(bool))
		case "или":
			return ast.NewLiteral(line, col, ast.LitBool, left.Value.(bool) || right.Value.(bool))
		}
	}

	// Equality/ordering fold across any matching literal kind, regardless
	// of the arithmetic cases above — the checker has already confirmed
	// operand-type compatibility by the time this pass runs.
	switch op {
	case "==", "!=":
		if eq, ok := literalsEqual(left, right); ok {
			if op == "!=" {
				eq = !eq
			}
			return ast.NewLiteral(line, col, ast.LitBool, eq)
		}
	case "<", "<=", ">", ">=":
		if cmp, ok := literalsCompare(left, right); ok {
			var result bool
			switch op {
			case "<":
				result = cmp < 0
			case "<=":
				result = cmp <= 0
			case ">":
				result = cmp > 0
			case ">=":
				result = cmp >= 0
			}
			return ast.NewLiteral(line, col, ast.LitBool, result)
		}
	}
	return nil
}

func foldIntBinary(op string, left, right *big.Int, line, col int) *ast.Literal {
	switch op {
	case "+":
		return ast.NewLiteral(line, col, ast.LitInt, new(big.Int).Add(left, right))
	case "-":
		return ast.NewLiteral(line, col, ast.LitInt, new(big.Int).Sub(left, right))
	case "*":
		return ast.NewLiteral(line, col, ast.LitInt, new(big.Int).Mul(left, right))
	case "/":
		if right.Sign() == 0 {
			// Leave unfolded so the VM raises the division-by-zero error
			// at runtime rather than the optimizer silently miscompiling.
			return nil
		}
		return ast.NewLiteral(line, col, ast.LitInt, new(big.Int).Quo(left, right))
	case "%":
		if right.Sign() == 0 {
			return nil
		}
		return ast.NewLiteral(line, col, ast.LitInt, numeric.FloorMod(left, right))
	}
	return nil
}

func foldFloatBinary(op string, left, right float64, line, col int) *ast.Literal {
	switch op {
	case "+":
		return ast.NewLiteral(line, col, ast.LitFloat, left+right)
	case "-":
		return ast.NewLiteral(line, col, ast.LitFloat, left-right)
	case "*":
		return ast.NewLiteral(line, col, ast.LitFloat, left*right)
	case "/":
		if right == 0.0 {
			return nil
		}
		return ast.NewLiteral(line, col, ast.LitFloat, left/right)
	case "%":
		if right == 0.0 {
			return nil
		}
		return ast.NewLiteral(line, col, ast.LitFloat, numeric.FloorModFloat(left, right))
	}
	return nil
}

func literalsEqual(left, right *ast.Literal) (bool, bool) {
	if left.Kind != right.Kind {
		return false, false
	}
	switch left.Kind {
	case ast.LitInt:
		return left.Value.(*big.Int).Cmp(right.Value.(*big.Int)) == 0, true
	case ast.LitFloat:
		return left.Value.(float64) == right.Value.(float64), true
	case ast.LitString:
		return left.Value.(string) == right.Value.(string), true
	case ast.LitBool:
		return left.Value.(bool) == right.Value.(bool), true
	case ast.LitNull:
		return true, true
	}
	return false, false
}

func literalsCompare(left, right *ast.Literal) (int, bool) {
	if left.Kind != right.Kind {
		return 0, false
	}
	switch left.Kind {
	case ast.LitInt:
		return left.Value.(*big.Int).Cmp(right.Value.(*big.Int)), true
	case ast.LitFloat:
		return numeric.Compare(left.Value.(float64), right.Value.(float64)), true
	case ast.LitString:
		a, b := left.Value.(string), right.Value.(string)
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}
