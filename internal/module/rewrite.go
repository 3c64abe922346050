package module

import (
	"fmt"

	"yasny/internal/ast"
	"yasny/internal/diagnostics"
)

// aliasRewriter rewrites a just-parsed statement so that references to
// names brought in by an earlier `подключить`/`из ... подключить` resolve
// to their mangled identifiers, and `alias.member` access through a
// namespace import resolves to the aliased module's mangled member. It
// tracks local bindings (params, loop vars, local `пусть`) so a local
// shadowing an imported name is left alone.
//
// Grounded on _examples/original_source/yasny/module_loader.py's
// _AliasRewriter; ported as a type switch rather than this package's
// Accept/Visitor idiom because, unlike the checker/compiler, this rewrite
// needs no double dispatch — it is a single recursive function per node
// kind, exactly mirroring the source's isinstance chain.
type aliasRewriter struct {
	nameMap      map[string]string
	namespaceMap map[string]map[string]string
	scopes       []map[string]bool
}

func newAliasRewriter(nameMap map[string]string, namespaceMap map[string]map[string]string) *aliasRewriter {
	return &aliasRewriter{nameMap: nameMap, namespaceMap: namespaceMap}
}

func (r *aliasRewriter) RewriteStmt(stmt ast.Stmt) ast.Stmt {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		value := r.RewriteExpr(s.Value)
		cp := *s
		cp.Value = value
		r.define(cp.Name)
		return &cp
	case *ast.AssignStmt:
		cp := *s
		if !r.isLocal(s.Name) {
			if mangled, ok := r.nameMap[s.Name]; ok {
				cp.Name = mangled
			}
		}
		cp.Value = r.RewriteExpr(s.Value)
		return &cp
	case *ast.IndexAssignStmt:
		cp := *s
		cp.Target = r.RewriteExpr(s.Target)
		cp.Index = r.RewriteExpr(s.Index)
		cp.Value = r.RewriteExpr(s.Value)
		return &cp
	case *ast.FuncDecl:
		cp := *s
		params := make([]ast.Param, len(s.Params))
		copy(params, s.Params)
		cp.Params = params
		r.pushScope()
		for _, p := range params {
			r.define(p.Name)
		}
		cp.Body = r.rewriteBlock(s.Body)
		r.popScope()
		return &cp
	case *ast.IfStmt:
		cp := *s
		cp.Condition = r.RewriteExpr(s.Condition)
		r.pushScope()
		cp.ThenBody = r.rewriteBlock(s.ThenBody)
		r.popScope()
		if s.ElseBody != nil {
			r.pushScope()
			cp.ElseBody = r.rewriteBlock(s.ElseBody)
			r.popScope()
		}
		return &cp
	case *ast.WhileStmt:
		cp := *s
		cp.Condition = r.RewriteExpr(s.Condition)
		r.pushScope()
		cp.Body = r.rewriteBlock(s.Body)
		r.popScope()
		return &cp
	case *ast.ForStmt:
		cp := *s
		cp.Iterable = r.RewriteExpr(s.Iterable)
		r.pushScope()
		r.define(s.VarName)
		cp.Body = r.rewriteBlock(s.Body)
		r.popScope()
		return &cp
	case *ast.ReturnStmt:
		cp := *s
		cp.Value = r.RewriteExpr(s.Value)
		return &cp
	case *ast.ExprStmt:
		cp := *s
		cp.Expr = r.RewriteExpr(s.Expr)
		return &cp
	default:
		return ast.CloneStmt(stmt)
	}
}

func (r *aliasRewriter) rewriteBlock(body []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, len(body))
	for i, s := range body {
		out[i] = r.RewriteStmt(s)
	}
	return out
}

func (r *aliasRewriter) RewriteExpr(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.Identifier:
		if !r.isLocal(e.Name) {
			if mangled, ok := r.nameMap[e.Name]; ok {
				return ast.NewIdentifier(e.Line, e.Col, mangled)
			}
		}
		return ast.CloneExpr(e).(*ast.Identifier)
	case *ast.MemberExpr:
		target := r.RewriteExpr(e.Target)
		if ident, ok := target.(*ast.Identifier); ok {
			if ns, ok := r.namespaceMap[ident.Name]; ok {
				mangled, ok := ns[e.Member]
				if !ok {
					panic(diagnostics.NewNameError(
						fmt.Sprintf("Модуль '%s' не содержит символ '%s'", ident.Name, e.Member),
						"", e.Line, e.Col))
				}
				return ast.NewIdentifier(e.Line, e.Col, mangled)
			}
		}
		panic(diagnostics.NewNameError(
			fmt.Sprintf("Доступ через '.' разрешён только к пространству имён модуля: '%s'", e.Member),
			"", e.Line, e.Col))
	case *ast.Literal:
		return ast.CloneExpr(e)
	case *ast.ListLiteral:
		cp := *e
		cp.Elements = make([]ast.Expr, len(e.Elements))
		for i, el := range e.Elements {
			cp.Elements[i] = r.RewriteExpr(el)
		}
		return &cp
	case *ast.DictLiteral:
		cp := *e
		cp.Entries = make([]ast.DictEntry, len(e.Entries))
		for i, en := range e.Entries {
			cp.Entries[i] = ast.DictEntry{Key: r.RewriteExpr(en.Key), Value: r.RewriteExpr(en.Value)}
		}
		return &cp
	case *ast.UnaryExpr:
		cp := *e
		cp.Operand = r.RewriteExpr(e.Operand)
		return &cp
	case *ast.BinaryExpr:
		cp := *e
		cp.Left = r.RewriteExpr(e.Left)
		cp.Right = r.RewriteExpr(e.Right)
		return &cp
	case *ast.IndexExpr:
		cp := *e
		cp.Target = r.RewriteExpr(e.Target)
		cp.Index = r.RewriteExpr(e.Index)
		return &cp
	case *ast.CallExpr:
		cp := *e
		cp.Callee = r.RewriteExpr(e.Callee)
		cp.Args = make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			cp.Args[i] = r.RewriteExpr(a)
		}
		return &cp
	default:
		return ast.CloneExpr(expr)
	}
}

func (r *aliasRewriter) pushScope() { r.scopes = append(r.scopes, make(map[string]bool)) }
func (r *aliasRewriter) popScope()  { r.scopes = r.scopes[:len(r.scopes)-1] }
func (r *aliasRewriter) define(name string) {
	if len(r.scopes) > 0 {
		r.scopes[len(r.scopes)-1][name] = true
	}
}
func (r *aliasRewriter) isLocal(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			return true
		}
	}
	return false
}

// renameSymbols applies a flat rename map to every non-local reference; it
// is the second rewrite pass, run once per importer against a cloned copy
// of the imported declaration, to give that declaration its mangled name
// everywhere it refers to itself or a co-imported sibling.
type renameSymbols struct {
	renameMap map[string]string
	scopes    []map[string]bool
}

func newRenameSymbols(renameMap map[string]string) *renameSymbols {
	return &renameSymbols{renameMap: renameMap}
}

func (r *renameSymbols) RewriteStmt(stmt ast.Stmt) ast.Stmt {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		cp := *s
		if mangled, ok := r.renameMap[s.Name]; ok {
			cp.Name = mangled
		}
		cp.Value = r.rewriteExpr(s.Value)
		r.define(cp.Name)
		return &cp
	case *ast.AssignStmt:
		cp := *s
		if !r.isLocal(s.Name) {
			if mangled, ok := r.renameMap[s.Name]; ok {
				cp.Name = mangled
			}
		}
		cp.Value = r.rewriteExpr(s.Value)
		return &cp
	case *ast.IndexAssignStmt:
		cp := *s
		cp.Target = r.rewriteExpr(s.Target)
		cp.Index = r.rewriteExpr(s.Index)
		cp.Value = r.rewriteExpr(s.Value)
		return &cp
	case *ast.FuncDecl:
		cp := *s
		if mangled, ok := r.renameMap[s.Name]; ok {
			cp.Name = mangled
		}
		params := make([]ast.Param, len(s.Params))
		copy(params, s.Params)
		cp.Params = params
		r.pushScope()
		for _, p := range params {
			r.define(p.Name)
		}
		cp.Body = r.rewriteBlock(s.Body)
		r.popScope()
		return &cp
	case *ast.IfStmt:
		cp := *s
		cp.Condition = r.rewriteExpr(s.Condition)
		r.pushScope()
		cp.ThenBody = r.rewriteBlock(s.ThenBody)
		r.popScope()
		if s.ElseBody != nil {
			r.pushScope()
			cp.ElseBody = r.rewriteBlock(s.ElseBody)
			r.popScope()
		}
		return &cp
	case *ast.WhileStmt:
		cp := *s
		cp.Condition = r.rewriteExpr(s.Condition)
		r.pushScope()
		cp.Body = r.rewriteBlock(s.Body)
		r.popScope()
		return &cp
	case *ast.ForStmt:
		cp := *s
		cp.Iterable = r.rewriteExpr(s.Iterable)
		r.pushScope()
		r.define(s.VarName)
		cp.Body = r.rewriteBlock(s.Body)
		r.popScope()
		return &cp
	case *ast.ReturnStmt:
		cp := *s
		cp.Value = r.rewriteExpr(s.Value)
		return &cp
	case *ast.ExprStmt:
		cp := *s
		cp.Expr = r.rewriteExpr(s.Expr)
		return &cp
	default:
		return ast.CloneStmt(stmt)
	}
}

func (r *renameSymbols) rewriteBlock(body []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, len(body))
	for i, s := range body {
		out[i] = r.RewriteStmt(s)
	}
	return out
}

func (r *renameSymbols) rewriteExpr(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.Identifier:
		if !r.isLocal(e.Name) {
			if mangled, ok := r.renameMap[e.Name]; ok {
				return ast.NewIdentifier(e.Line, e.Col, mangled)
			}
		}
		return ast.CloneExpr(e).(*ast.Identifier)
	case *ast.MemberExpr:
		cp := *e
		cp.Target = r.rewriteExpr(e.Target)
		return &cp
	case *ast.Literal:
		return ast.CloneExpr(e)
	case *ast.ListLiteral:
		cp := *e
		cp.Elements = make([]ast.Expr, len(e.Elements))
		for i, el := range e.Elements {
			cp.Elements[i] = r.rewriteExpr(el)
		}
		return &cp
	case *ast.DictLiteral:
		cp := *e
		cp.Entries = make([]ast.DictEntry, len(e.Entries))
		for i, en := range e.Entries {
			cp.Entries[i] = ast.DictEntry{Key: r.rewriteExpr(en.Key), Value: r.rewriteExpr(en.Value)}
		}
		return &cp
	case *ast.UnaryExpr:
		cp := *e
		cp.Operand = r.rewriteExpr(e.Operand)
		return &cp
	case *ast.BinaryExpr:
		cp := *e
		cp.Left = r.rewriteExpr(e.Left)
		cp.Right = r.rewriteExpr(e.Right)
		return &cp
	case *ast.IndexExpr:
		cp := *e
		cp.Target = r.rewriteExpr(e.Target)
		cp.Index = r.rewriteExpr(e.Index)
		return &cp
	case *ast.CallExpr:
		cp := *e
		cp.Callee = r.rewriteExpr(e.Callee)
		cp.Args = make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			cp.Args[i] = r.rewriteExpr(a)
		}
		return &cp
	default:
		return ast.CloneExpr(expr)
	}
}

func (r *renameSymbols) pushScope() { r.scopes = append(r.scopes, make(map[string]bool)) }
func (r *renameSymbols) popScope()  { r.scopes = r.scopes[:len(r.scopes)-1] }
func (r *renameSymbols) define(name string) {
	if len(r.scopes) > 0 {
		r.scopes[len(r.scopes)-1][name] = true
	}
}
func (r *renameSymbols) isLocal(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			return true
		}
	}
	return false
}
