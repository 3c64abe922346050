// Package types implements the closed type-constructor set used by the
// checker, optimizer and compiler: primitives, List/Dict/Union, Void, Any
// and Task.
//
// Grounded on _examples/original_source/build/lib/yasny/types.py: the same
// name+args shape, the same union flatten/dedup/Any-collapse/singleton
// rules (spec.md §3, §8 "Union normalization").
package types

import "strings"

// Head identifies a type constructor.
type Head string

const (
	Int    Head = "Int"
	Float  Head = "Float"
	Bool   Head = "Bool"
	String Head = "String"
	Void   Head = "Void"
	Any    Head = "Any"
	Task   Head = "Task"
	List   Head = "List"
	Dict   Head = "Dict"
	Union  Head = "Union"
)

// Type is a recursive value: a head plus an ordered tuple of type
// arguments. List has arity 1, Dict arity 2, Union arity >= 2.
type Type struct {
	Head Head
	Args []Type
}

func prim(h Head) Type { return Type{Head: h} }

var (
	TInt    = prim(Int)
	TFloat  = prim(Float)
	TBool   = prim(Bool)
	TString = prim(String)
	TVoid   = prim(Void)
	TAny    = prim(Any)
	TTask   = prim(Task)
)

func ListOf(elem Type) Type      { return Type{Head: List, Args: []Type{elem}} }
func DictOf(k, v Type) Type      { return Type{Head: Dict, Args: []Type{k, v}} }

// UnionOf builds a normalized union from the given variants, applying
// flattening, Any-collapse, dedup-by-first-occurrence and the
// singleton/empty collapse rules of spec.md §3.
func UnionOf(variants ...Type) Type {
	var flat []Type
	for _, v := range variants {
		if v.Head == Union {
			flat = append(flat, v.Args...)
		} else {
			flat = append(flat, v)
		}
	}

	uniq := make([]Type, 0, len(flat))
	for _, t := range flat {
		found := false
		for _, u := range uniq {
			if Equal(u, t) {
				found = true
				break
			}
		}
		if !found {
			uniq = append(uniq, t)
		}
	}

	for _, t := range uniq {
		if t.Head == Any {
			return TAny
		}
	}

	switch len(uniq) {
	case 0:
		return TVoid
	case 1:
		return uniq[0]
	default:
		return Type{Head: Union, Args: uniq}
	}
}

// Variants returns the decomposed member types of a (possibly non-union)
// type: a union decomposes to its args, anything else is a one-element
// slice of itself.
func Variants(t Type) []Type {
	if t.Head == Union {
		return t.Args
	}
	return []Type{t}
}

// Equal is structural equality, not assignability.
func Equal(a, b Type) bool {
	if a.Head != b.Head || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !Equal(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return true
}

// IsAssignable reports whether a value of type actual may be used where
// expected is required (spec.md §4.4 "Assignability"): for each variant a
// of actual there must exist a variant e of expected such that either is
// Any, their heads are identical primitive heads, or both are List/Dict
// with pairwise-assignable arguments.
func IsAssignable(expected, actual Type) bool {
	for _, a := range Variants(actual) {
		if !anyVariantAccepts(expected, a) {
			return false
		}
	}
	return true
}

func anyVariantAccepts(expected, a Type) bool {
	for _, e := range Variants(expected) {
		if variantAssignable(e, a) {
			return true
		}
	}
	return false
}

func variantAssignable(e, a Type) bool {
	if e.Head == Any || a.Head == Any {
		return true
	}
	if e.Head != a.Head {
		return false
	}
	switch e.Head {
	case List:
		return IsAssignable(e.Args[0], a.Args[0])
	case Dict:
		return IsAssignable(e.Args[0], a.Args[0]) && IsAssignable(e.Args[1], a.Args[1])
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Head {
	case Union:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		return strings.Join(parts, " | ")
	case List:
		return "List[" + t.Args[0].String() + "]"
	case Dict:
		return "Dict[" + t.Args[0].String() + "," + t.Args[1].String() + "]"
	default:
		return string(t.Head)
	}
}

// Optional is the `T?` sugar: T | Void.
func Optional(t Type) Type { return UnionOf(t, TVoid) }
