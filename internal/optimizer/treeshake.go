package optimizer

import "yasny/internal/ast"

// treeShake drops function declarations unreachable from main, from any
// exported function, or from a call site in a top-level non-function
// statement. Non-function top-level statements are always kept — they run
// unconditionally at program start. Grounded on optimizer.py's
// _tree_shake/_collect_calls_in_* helpers.
func treeShake(statements []ast.Stmt) []ast.Stmt {
	functions := map[string]*ast.FuncDecl{}
	var order []string
	var others []ast.Stmt
	for _, stmt := range statements {
		if fn, ok := stmt.(*ast.FuncDecl); ok {
			functions[fn.Name] = fn
			order = append(order, fn.Name)
			continue
		}
		others = append(others, stmt)
	}
	if len(functions) == 0 {
		return statements
	}

	reachable := map[string]bool{}
	var queue []string
	seed := func(name string) {
		if _, ok := functions[name]; ok && !reachable[name] {
			reachable[name] = true
			queue = append(queue, name)
		}
	}
	seed("main")
	for _, name := range order {
		if functions[name].Exported {
			seed(name)
		}
	}
	for _, stmt := range others {
		for name := range collectCallsInStmt(stmt) {
			seed(name)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for callee := range collectCallsInFunction(functions[name]) {
			seed(callee)
		}
	}

	out := make([]ast.Stmt, 0, len(others)+len(reachable))
	out = append(out, others...)
	for _, name := range order {
		if reachable[name] {
			out = append(out, functions[name])
		}
	}
	return out
}

func collectCallsInFunction(fn *ast.FuncDecl) map[string]bool {
	calls := map[string]bool{}
	for _, stmt := range fn.Body {
		collectCallsInStmtInto(stmt, calls)
	}
	return calls
}

func collectCallsInStmt(stmt ast.Stmt) map[string]bool {
	calls := map[string]bool{}
	collectCallsInStmtInto(stmt, calls)
	return calls
}

func collectCallsInStmtInto(stmt ast.Stmt, calls map[string]bool) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		collectCallsInExprInto(s.Value, calls)
	case *ast.AssignStmt:
		collectCallsInExprInto(s.Value, calls)
	case *ast.IndexAssignStmt:
		collectCallsInExprInto(s.Target, calls)
		collectCallsInExprInto(s.Index, calls)
		collectCallsInExprInto(s.Value, calls)
	case *ast.IfStmt:
		collectCallsInExprInto(s.Condition, calls)
		for _, st := range s.ThenBody {
			collectCallsInStmtInto(st, calls)
		}
		for _, st := range s.ElseBody {
			collectCallsInStmtInto(st, calls)
		}
	case *ast.WhileStmt:
		collectCallsInExprInto(s.Condition, calls)
		for _, st := range s.Body {
			collectCallsInStmtInto(st, calls)
		}
	case *ast.ForStmt:
		collectCallsInExprInto(s.Iterable, calls)
		for _, st := range s.Body {
			collectCallsInStmtInto(st, calls)
		}
	case *ast.ReturnStmt:
		if s.Value != nil {
			collectCallsInExprInto(s.Value, calls)
		}
	case *ast.ExprStmt:
		collectCallsInExprInto(s.Expr, calls)
	}
}

func collectCallsInExprInto(expr ast.Expr, calls map[string]bool) {
	switch e := expr.(type) {
	case *ast.CallExpr:
		if ident, ok := e.Callee.(*ast.Identifier); ok {
			calls[ident.Name] = true
		} else {
			collectCallsInExprInto(e.Callee, calls)
		}
		for _, a := range e.Args {
			collectCallsInExprInto(a, calls)
		}
	case *ast.UnaryExpr:
		collectCallsInExprInto(e.Operand, calls)
	case *ast.BinaryExpr:
		collectCallsInExprInto(e.Left, calls)
		collectCallsInExprInto(e.Right, calls)
	case *ast.ListLiteral:
		for _, el := range e.Elements {
			collectCallsInExprInto(el, calls)
		}
	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			collectCallsInExprInto(entry.Key, calls)
			collectCallsInExprInto(entry.Value, calls)
		}
	case *ast.IndexExpr:
		collectCallsInExprInto(e.Target, calls)
		collectCallsInExprInto(e.Index, calls)
	case *ast.MemberExpr:
		collectCallsInExprInto(e.Target, calls)
	}
}
