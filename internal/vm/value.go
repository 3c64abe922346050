// Package vm executes a bytecode.Program on a stack-based interpreter: one
// activation frame per call, a locals vector per frame, a shared globals
// vector, and a worker-pool-backed async task subsystem.
//
// Grounded on _examples/original_source/yasny/vm.py (VirtualMachine,
// Frame, the full opcode dispatch loop, _format_value) for exact runtime
// semantics, generalized from Python's dynamically-typed values to a
// closed Go interface{} value set; and on the teacher's internal/vm
// package for the Go Frame/stack/dispatch idiom (explicit struct, a
// switch-based dispatch loop, panic/recover around one frame's
// execution rather than per-instruction error returns).
package vm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"yasny/internal/diagnostics"
	"yasny/internal/numeric"
)

// Value is the closed runtime value set: nil (пусто), bool, *big.Int
// (цел), float64 (дробь), string, List, *Dict, or *Task.
type Value = interface{}

// List is a dynamic array. Like Python's list, it has reference
// semantics: INDEX_SET mutates the backing array in place so every
// holder of the same List observes the write.
type List []Value

// Dict is an insertion-ordered map. Keys are compared with valuesEqual
// rather than Go's native map equality because a *big.Int key must
// compare by value, not by pointer identity — something a native Go map
// cannot do for a non-comparable-by-value key type. Linear lookup is the
// pragmatic tradeoff: no ordered-map library appears anywhere in the
// example pack, and dictionaries in this language are not expected to
// hold enough entries for O(n) lookup to matter.
type Dict struct {
	keys []Value
	vals []Value
}

func NewDict() *Dict { return &Dict{} }

func (d *Dict) Get(key Value) (Value, bool) {
	for i, k := range d.keys {
		if valuesEqual(k, key) {
			return d.vals[i], true
		}
	}
	return nil, false
}

func (d *Dict) Set(key, val Value) {
	for i, k := range d.keys {
		if valuesEqual(k, key) {
			d.vals[i] = val
			return
		}
	}
	d.keys = append(d.keys, key)
	d.vals = append(d.vals, val)
}

func (d *Dict) Len() int { return len(d.keys) }

// Each visits every key/value pair in insertion order.
func (d *Dict) Each(fn func(key, val Value)) {
	for i, k := range d.keys {
		fn(k, d.vals[i])
	}
}

func runtimeErr(path, format string, args ...interface{}) *diagnostics.Error {
	return diagnostics.NewRuntimeError(fmt.Sprintf(format, args...), path)
}

// valuesEqual implements `==`/`!=` and Dict key comparison: structural
// equality across the closed value set, matching Python's `==` on the
// corresponding native types (vm.py's EQ/NE just use Python's `==`).
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case *big.Int:
		bv, ok := b.(*big.Int)
		return ok && av.Cmp(bv) == 0
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Dict:
		bv, ok := b.(*Dict)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i, k := range av.keys {
			bval, found := bv.Get(k)
			if !found || !valuesEqual(av.vals[i], bval) {
				return false
			}
		}
		return true
	case *Task:
		bv, ok := b.(*Task)
		return ok && av == bv
	}
	return false
}

// compareValues implements `<`/`<=`/`>`/`>=`: Цел, Дробь and Строка only
// (the checker already rejected every other operand shape). float64
// ordering goes through internal/numeric.Compare, the same helper
// internal/optimizer's constant folder uses, so compile-time folding and
// runtime evaluation can never disagree.
func compareValues(path string, a, b Value) int {
	switch av := a.(type) {
	case *big.Int:
		return av.Cmp(b.(*big.Int))
	case float64:
		return numeric.Compare(av, b.(float64))
	case string:
		return strings.Compare(av, b.(string))
	}
	panic(runtimeErr(path, "Сравнение не поддерживается для типа %s", typeName(a)))
}

func typeName(v Value) string {
	switch v.(type) {
	case nil:
		return "Пусто"
	case bool:
		return "Лог"
	case *big.Int:
		return "Цел"
	case float64:
		return "Дробь"
	case string:
		return "Строка"
	case List:
		return "Список"
	case *Dict:
		return "Словарь"
	case *Task:
		return "Задача"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func truthy(v Value) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	default:
		return true
	}
}

// FormatValue renders a value the way `печать`/`строка` do: "истина"/
// "ложь"/"пусто" for booleans and null, recursive bracketed rendering for
// lists and dicts, everything else via its natural string form
// (_format_value in vm.py).
func FormatValue(v Value) string {
	switch vv := v.(type) {
	case nil:
		return "пусто"
	case bool:
		if vv {
			return "истина"
		}
		return "ложь"
	case *big.Int:
		return vv.String()
	case float64:
		return strconv.FormatFloat(vv, 'g', -1, 64)
	case string:
		return vv
	case List:
		parts := make([]string, len(vv))
		for i, el := range vv {
			parts[i] = FormatValue(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Dict:
		parts := make([]string, vv.Len())
		for i, k := range vv.keys {
			parts[i] = fmt.Sprintf("%s: %s", FormatValue(k), FormatValue(vv.vals[i]))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *Task:
		return fmt.Sprintf("<задача %d>", vv.ID)
	default:
		return fmt.Sprintf("%v", vv)
	}
}

// ToJSON converts a runtime value into plain data encoding/json already
// knows how to marshal, for the JSON call interface (spec.md §6's
// `POST /call` contract, stood in locally by cmd/yasny's `call` verb).
// *big.Int renders as its decimal string (JSON numbers cannot carry
// arbitrary precision losslessly); a dict's keys are rendered with
// FormatValue since JSON object keys must be strings, even when the
// source key was itself a Цел or Дробь.
func ToJSON(v Value) interface{} {
	switch vv := v.(type) {
	case nil, bool, string, float64:
		return vv
	case *big.Int:
		return vv.String()
	case List:
		out := make([]interface{}, len(vv))
		for i, el := range vv {
			out[i] = ToJSON(el)
		}
		return out
	case *Dict:
		out := make(map[string]interface{}, vv.Len())
		vv.Each(func(k, val Value) { out[FormatValue(k)] = ToJSON(val) })
		return out
	case *Task:
		return FormatValue(vv)
	default:
		return fmt.Sprintf("%v", vv)
	}
}

// deepCopyValue clones a value recursively so a spawned task's globals
// snapshot shares nothing mutable with the caller's globals (spec.md
// §4.8's "deep-copy guarantees concurrent tasks cannot observe each
// other's mutations").
func deepCopyValue(v Value) Value {
	switch vv := v.(type) {
	case List:
		cp := make(List, len(vv))
		for i, el := range vv {
			cp[i] = deepCopyValue(el)
		}
		return cp
	case *Dict:
		cp := NewDict()
		for i, k := range vv.keys {
			cp.keys = append(cp.keys, deepCopyValue(k))
			cp.vals = append(cp.vals, deepCopyValue(vv.vals[i]))
		}
		return cp
	case *big.Int:
		return new(big.Int).Set(vv)
	default:
		return v
	}
}
