// internal/ast/typenode.go
package ast

// TypeNode is parsed type syntax, not yet resolved to a types.Type. The
// checker's internal/checker package turns a TypeNode into a types.Type via
// FromTypeNode; keeping the parse tree and the resolved type algebra
// separate mirrors the teacher's own split between parse-time syntax and the
// semantic representation built on top of it.
type TypeNode interface {
	typeNode()
	Pos() (line, col int)
}

type typeNodeBase struct {
	Line int
	Col  int
}

func (typeNodeBase) typeNode()                {}
func (t typeNodeBase) Pos() (int, int)        { return t.Line, t.Col }

// PrimitiveTypeNode names one of Цел/Дроб/Лог/Строка/Пусто/Любой/Задача.
type PrimitiveTypeNode struct {
	typeNodeBase
	Name string
}

func NewPrimitiveTypeNode(line, col int, name string) *PrimitiveTypeNode {
	return &PrimitiveTypeNode{typeNodeBase: typeNodeBase{Line: line, Col: col}, Name: name}
}

// ListTypeNode is `Список[T]`.
type ListTypeNode struct {
	typeNodeBase
	Element TypeNode
}

func NewListTypeNode(line, col int, element TypeNode) *ListTypeNode {
	return &ListTypeNode{typeNodeBase: typeNodeBase{Line: line, Col: col}, Element: element}
}

// DictTypeNode is `Словарь[K,V]`.
type DictTypeNode struct {
	typeNodeBase
	Key   TypeNode
	Value TypeNode
}

func NewDictTypeNode(line, col int, key, value TypeNode) *DictTypeNode {
	return &DictTypeNode{typeNodeBase: typeNodeBase{Line: line, Col: col}, Key: key, Value: value}
}

// UnionTypeNode is `T1 | T2 | ...`, including the `T?` sugar which the
// parser desugars to `UnionTypeNode{Variants: [T, Пусто]}`.
type UnionTypeNode struct {
	typeNodeBase
	Variants []TypeNode
}

func NewUnionTypeNode(line, col int, variants []TypeNode) *UnionTypeNode {
	return &UnionTypeNode{typeNodeBase: typeNodeBase{Line: line, Col: col}, Variants: variants}
}
