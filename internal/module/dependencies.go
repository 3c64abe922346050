package module

import "yasny/internal/ast"

// builtinNames lists every identifier the dependency collector must never
// mistake for a reference to another export; it mirrors the full builtin
// table the checker and VM install (spec.md §4.3, §6).
var builtinNames = map[string]bool{
	"печать": true, "длина": true, "диапазон": true, "ввод": true,
	"пауза": true, "строка": true, "число": true, "запустить": true,
	"готово": true, "ожидать": true, "ожидать_все": true, "отменить": true,
}

// directDependencies returns the set of exportNames that decl references
// as free variables, used to pull in the transitive closure of an
// `из ... подключить` request.
func directDependencies(decl ast.Stmt, exportNames map[string]bool) map[string]bool {
	c := &dependencyCollector{exportNames: exportNames, deps: make(map[string]bool)}
	switch d := decl.(type) {
	case *ast.VarDecl:
		c.collectExpr(d.Value)
		delete(c.deps, d.Name)
	case *ast.FuncDecl:
		c.collectFunction(d)
		delete(c.deps, d.Name)
	}
	return c.deps
}

// dependencyCollector walks a declaration's body looking for references to
// other module-level exports, skipping builtins and anything bound locally
// (parameters, loop variables, local declarations).
type dependencyCollector struct {
	exportNames map[string]bool
	deps        map[string]bool
	scopes      []map[string]bool
}

func (c *dependencyCollector) collectFunction(fn *ast.FuncDecl) {
	c.pushScope()
	for _, p := range fn.Params {
		c.define(p.Name)
	}
	for _, s := range fn.Body {
		c.collectStmt(s)
	}
	c.popScope()
}

func (c *dependencyCollector) collectStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		c.collectExpr(s.Value)
		c.define(s.Name)
	case *ast.AssignStmt:
		c.considerName(s.Name)
		c.collectExpr(s.Value)
	case *ast.IndexAssignStmt:
		c.collectExpr(s.Target)
		c.collectExpr(s.Index)
		c.collectExpr(s.Value)
	case *ast.IfStmt:
		c.collectExpr(s.Condition)
		c.pushScope()
		for _, x := range s.ThenBody {
			c.collectStmt(x)
		}
		c.popScope()
		if s.ElseBody != nil {
			c.pushScope()
			for _, x := range s.ElseBody {
				c.collectStmt(x)
			}
			c.popScope()
		}
	case *ast.WhileStmt:
		c.collectExpr(s.Condition)
		c.pushScope()
		for _, x := range s.Body {
			c.collectStmt(x)
		}
		c.popScope()
	case *ast.ForStmt:
		c.collectExpr(s.Iterable)
		c.pushScope()
		c.define(s.VarName)
		for _, x := range s.Body {
			c.collectStmt(x)
		}
		c.popScope()
	case *ast.ReturnStmt:
		c.collectExpr(s.Value)
	case *ast.ExprStmt:
		c.collectExpr(s.Expr)
	}
}

func (c *dependencyCollector) collectExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil:
		return
	case *ast.Identifier:
		c.considerName(e.Name)
	case *ast.Literal:
	case *ast.ListLiteral:
		for _, item := range e.Elements {
			c.collectExpr(item)
		}
	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			c.collectExpr(entry.Key)
			c.collectExpr(entry.Value)
		}
	case *ast.UnaryExpr:
		c.collectExpr(e.Operand)
	case *ast.BinaryExpr:
		c.collectExpr(e.Left)
		c.collectExpr(e.Right)
	case *ast.IndexExpr:
		c.collectExpr(e.Target)
		c.collectExpr(e.Index)
	case *ast.MemberExpr:
		c.collectExpr(e.Target)
	case *ast.CallExpr:
		c.collectExpr(e.Callee)
		for _, arg := range e.Args {
			c.collectExpr(arg)
		}
	}
}

func (c *dependencyCollector) considerName(name string) {
	if builtinNames[name] {
		return
	}
	if c.isLocal(name) {
		return
	}
	if c.exportNames[name] {
		c.deps[name] = true
	}
}

func (c *dependencyCollector) isLocal(name string) bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i][name] {
			return true
		}
	}
	return false
}

func (c *dependencyCollector) define(name string) {
	if len(c.scopes) > 0 {
		c.scopes[len(c.scopes)-1][name] = true
	}
}

func (c *dependencyCollector) pushScope() { c.scopes = append(c.scopes, make(map[string]bool)) }
func (c *dependencyCollector) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }
