// internal/ast/clone.go
package ast

// CloneExpr and CloneStmt deep-copy a tree. The module resolver needs this
// when materializing an imported declaration under a mangled name: the
// same exported declaration can be imported by several importers, and each
// importer must get its own tree to rewrite independently.
//
// Grounded on _examples/original_source/yasny/module_loader.py, which
// reaches for Python's generic `copy.deepcopy` at every rewrite step; Go
// has no equivalent, so the same effect is implemented here as one more
// visitor, consistent with this package's Accept/Visitor idiom rather than
// a separate ad hoc recursive function per node kind.
type cloner struct{}

func CloneExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	return e.Accept(cloner{}).(Expr)
}

func CloneStmt(s Stmt) Stmt {
	if s == nil {
		return nil
	}
	return s.Accept(cloner{}).(Stmt)
}

func cloneExprs(in []Expr) []Expr {
	if in == nil {
		return nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = CloneExpr(e)
	}
	return out
}

func cloneStmts(in []Stmt) []Stmt {
	if in == nil {
		return nil
	}
	out := make([]Stmt, len(in))
	for i, s := range in {
		out[i] = CloneStmt(s)
	}
	return out
}

func (cloner) VisitLiteral(e *Literal) interface{} {
	return &Literal{exprBase: e.exprBase, Kind: e.Kind, Value: e.Value}
}

func (cloner) VisitIdentifier(e *Identifier) interface{} {
	return &Identifier{exprBase: e.exprBase, Name: e.Name}
}

func (c cloner) VisitListLiteral(e *ListLiteral) interface{} {
	return &ListLiteral{exprBase: e.exprBase, Elements: cloneExprs(e.Elements)}
}

func (c cloner) VisitDictLiteral(e *DictLiteral) interface{} {
	entries := make([]DictEntry, len(e.Entries))
	for i, en := range e.Entries {
		entries[i] = DictEntry{Key: CloneExpr(en.Key), Value: CloneExpr(en.Value)}
	}
	return &DictLiteral{exprBase: e.exprBase, Entries: entries}
}

func (c cloner) VisitIndexExpr(e *IndexExpr) interface{} {
	return &IndexExpr{exprBase: e.exprBase, Target: CloneExpr(e.Target), Index: CloneExpr(e.Index)}
}

func (c cloner) VisitMemberExpr(e *MemberExpr) interface{} {
	return &MemberExpr{exprBase: e.exprBase, Target: CloneExpr(e.Target), Member: e.Member}
}

func (c cloner) VisitUnaryExpr(e *UnaryExpr) interface{} {
	return &UnaryExpr{exprBase: e.exprBase, Op: e.Op, Operand: CloneExpr(e.Operand)}
}

func (c cloner) VisitBinaryExpr(e *BinaryExpr) interface{} {
	return &BinaryExpr{exprBase: e.exprBase, Left: CloneExpr(e.Left), Op: e.Op, Right: CloneExpr(e.Right)}
}

func (c cloner) VisitCallExpr(e *CallExpr) interface{} {
	return &CallExpr{exprBase: e.exprBase, Callee: CloneExpr(e.Callee), Args: cloneExprs(e.Args)}
}

func (c cloner) VisitProgram(s *Program) interface{} {
	return &Program{stmtBase: s.stmtBase, Statements: cloneStmts(s.Statements)}
}

func (c cloner) VisitVarDecl(s *VarDecl) interface{} {
	return &VarDecl{stmtBase: s.stmtBase, Name: s.Name, Annotation: s.Annotation, Value: CloneExpr(s.Value), Exported: s.Exported}
}

func (c cloner) VisitAssignStmt(s *AssignStmt) interface{} {
	return &AssignStmt{stmtBase: s.stmtBase, Name: s.Name, Value: CloneExpr(s.Value)}
}

func (c cloner) VisitIndexAssignStmt(s *IndexAssignStmt) interface{} {
	return &IndexAssignStmt{stmtBase: s.stmtBase, Target: CloneExpr(s.Target), Index: CloneExpr(s.Index), Value: CloneExpr(s.Value)}
}

func (c cloner) VisitFuncDecl(s *FuncDecl) interface{} {
	params := make([]Param, len(s.Params))
	copy(params, s.Params)
	return &FuncDecl{
		stmtBase:   s.stmtBase,
		Name:       s.Name,
		Params:     params,
		ReturnType: s.ReturnType,
		Body:       cloneStmts(s.Body),
		Exported:   s.Exported,
		IsAsync:    s.IsAsync,
	}
}

func (c cloner) VisitIfStmt(s *IfStmt) interface{} {
	return &IfStmt{stmtBase: s.stmtBase, Condition: CloneExpr(s.Condition), ThenBody: cloneStmts(s.ThenBody), ElseBody: cloneStmts(s.ElseBody)}
}

func (c cloner) VisitWhileStmt(s *WhileStmt) interface{} {
	return &WhileStmt{stmtBase: s.stmtBase, Condition: CloneExpr(s.Condition), Body: cloneStmts(s.Body)}
}

func (c cloner) VisitForStmt(s *ForStmt) interface{} {
	return &ForStmt{stmtBase: s.stmtBase, VarName: s.VarName, Iterable: CloneExpr(s.Iterable), Body: cloneStmts(s.Body)}
}

func (c cloner) VisitReturnStmt(s *ReturnStmt) interface{} {
	return &ReturnStmt{stmtBase: s.stmtBase, Value: CloneExpr(s.Value)}
}

func (c cloner) VisitBreakStmt(s *BreakStmt) interface{} { return &BreakStmt{stmtBase: s.stmtBase} }

func (c cloner) VisitContinueStmt(s *ContinueStmt) interface{} {
	return &ContinueStmt{stmtBase: s.stmtBase}
}

func (c cloner) VisitExprStmt(s *ExprStmt) interface{} {
	return &ExprStmt{stmtBase: s.stmtBase, Expr: CloneExpr(s.Expr)}
}

func (c cloner) VisitImportAll(s *ImportAll) interface{} {
	return &ImportAll{stmtBase: s.stmtBase, ModulePath: s.ModulePath, Alias: s.Alias}
}

func (c cloner) VisitImportFrom(s *ImportFrom) interface{} {
	items := make([]ImportItem, len(s.Items))
	copy(items, s.Items)
	return &ImportFrom{stmtBase: s.stmtBase, ModulePath: s.ModulePath, Items: items}
}
