// internal/ast/expr.go
package ast

import "yasny/internal/types"

// Expr is any expression node. Every expression carries an inferred_type
// slot the checker fills in (spec.md §3); it stays the zero Type until then.
type Expr interface {
	Accept(visitor ExprVisitor) interface{}
	Pos() (line, col int)
	Type() types.Type
	SetType(t types.Type)
}

// exprBase factors {line, col, inferred} into every expression node.
type exprBase struct {
	Line     int
	Col      int
	inferred types.Type
}

func (e *exprBase) Pos() (int, int)         { return e.Line, e.Col }
func (e *exprBase) Type() types.Type        { return e.inferred }
func (e *exprBase) SetType(t types.Type)    { e.inferred = t }

// LiteralKind distinguishes the five literal forms the lexer produces.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
	LitNull
)

// Literal is an int/float/string/bool/null constant.
type Literal struct {
	exprBase
	Kind  LiteralKind
	Value interface{}
}

func NewLiteral(line, col int, kind LiteralKind, value interface{}) *Literal {
	return &Literal{exprBase: exprBase{Line: line, Col: col}, Kind: kind, Value: value}
}

func (l *Literal) Accept(v ExprVisitor) interface{} { return v.VisitLiteral(l) }

// Identifier is a bare name reference.
type Identifier struct {
	exprBase
	Name string
}

func NewIdentifier(line, col int, name string) *Identifier {
	return &Identifier{exprBase: exprBase{Line: line, Col: col}, Name: name}
}

func (i *Identifier) Accept(v ExprVisitor) interface{} { return v.VisitIdentifier(i) }

// ListLiteral is `[e1, e2, ...]`.
type ListLiteral struct {
	exprBase
	Elements []Expr
}

func NewListLiteral(line, col int, elements []Expr) *ListLiteral {
	return &ListLiteral{exprBase: exprBase{Line: line, Col: col}, Elements: elements}
}

func (l *ListLiteral) Accept(v ExprVisitor) interface{} { return v.VisitListLiteral(l) }

// DictEntry is one key:value pair inside a dict literal.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictLiteral is `{k1: v1, k2: v2, ...}`.
type DictLiteral struct {
	exprBase
	Entries []DictEntry
}

func NewDictLiteral(line, col int, entries []DictEntry) *DictLiteral {
	return &DictLiteral{exprBase: exprBase{Line: line, Col: col}, Entries: entries}
}

func (d *DictLiteral) Accept(v ExprVisitor) interface{} { return v.VisitDictLiteral(d) }

// IndexExpr is `target[index]`.
type IndexExpr struct {
	exprBase
	Target Expr
	Index  Expr
}

func NewIndexExpr(line, col int, target, index Expr) *IndexExpr {
	return &IndexExpr{exprBase: exprBase{Line: line, Col: col}, Target: target, Index: index}
}

func (i *IndexExpr) Accept(v ExprVisitor) interface{} { return v.VisitIndexExpr(i) }

// MemberExpr is `target.member`, produced only by namespace-aliased imports
// (`N.member`) before the module resolver rewrites it; it must never reach
// the checker (internal/module rewrites every namespace MemberExpr to a
// plain Identifier referencing the mangled name and rejects any other).
type MemberExpr struct {
	exprBase
	Target Expr
	Member string
}

func NewMemberExpr(line, col int, target Expr, member string) *MemberExpr {
	return &MemberExpr{exprBase: exprBase{Line: line, Col: col}, Target: target, Member: member}
}

func (m *MemberExpr) Accept(v ExprVisitor) interface{} { return v.VisitMemberExpr(m) }

// UnaryExpr covers `await e`, `не e`, and unary `-e`. Op is one of "await",
// "not", "neg".
type UnaryExpr struct {
	exprBase
	Op      string
	Operand Expr
}

func NewUnaryExpr(line, col int, op string, operand Expr) *UnaryExpr {
	return &UnaryExpr{exprBase: exprBase{Line: line, Col: col}, Op: op, Operand: operand}
}

func (u *UnaryExpr) Accept(v ExprVisitor) interface{} { return v.VisitUnaryExpr(u) }

// BinaryExpr covers every binary operator: arithmetic, comparison, and
// logical and/or (short-circuit lowering happens in the compiler, not here).
type BinaryExpr struct {
	exprBase
	Left  Expr
	Op    string
	Right Expr
}

func NewBinaryExpr(line, col int, left Expr, op string, right Expr) *BinaryExpr {
	return &BinaryExpr{exprBase: exprBase{Line: line, Col: col}, Left: left, Op: op, Right: right}
}

func (b *BinaryExpr) Accept(v ExprVisitor) interface{} { return v.VisitBinaryExpr(b) }

// CallExpr is `callee(args...)`. Callee is always an Identifier (or, before
// resolution, a MemberExpr) — the language has no first-class function
// values (spec.md §9 Non-goals), so calls are resolved by name, never by
// evaluating an arbitrary callee expression.
type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func NewCallExpr(line, col int, callee Expr, args []Expr) *CallExpr {
	return &CallExpr{exprBase: exprBase{Line: line, Col: col}, Callee: callee, Args: args}
}

func (c *CallExpr) Accept(v ExprVisitor) interface{} { return v.VisitCallExpr(c) }

// ExprVisitor dispatches over every expression kind (spec.md Design Note 1:
// a single visitor pattern rather than runtime type assertions).
type ExprVisitor interface {
	VisitLiteral(e *Literal) interface{}
	VisitIdentifier(e *Identifier) interface{}
	VisitListLiteral(e *ListLiteral) interface{}
	VisitDictLiteral(e *DictLiteral) interface{}
	VisitIndexExpr(e *IndexExpr) interface{}
	VisitMemberExpr(e *MemberExpr) interface{}
	VisitUnaryExpr(e *UnaryExpr) interface{}
	VisitBinaryExpr(e *BinaryExpr) interface{}
	VisitCallExpr(e *CallExpr) interface{}
}
