// Package numeric holds the tiny numeric helpers shared between the
// optimizer's constant folder and the VM's arithmetic opcodes, so
// compile-time folding and runtime evaluation always agree on ordering and
// on modulo semantics.
package numeric

import (
	"math"
	"math/big"

	"golang.org/x/exp/constraints"
)

// Compare returns -1, 0, or 1 as a < b, a == b, or a > b.
func Compare[T constraints.Integer | constraints.Float](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FloorMod returns a mod b with Python's floor-mod convention: the result
// takes the divisor's sign, not the dividend's (vm.py:102-104's `a % b`,
// native Python `%`). b must be non-zero; callers check for division by
// zero themselves so they can raise their own diagnostic.
func FloorMod(a, b *big.Int) *big.Int {
	m := new(big.Int).Rem(a, b)
	if m.Sign() != 0 && m.Sign() != b.Sign() {
		m.Add(m, b)
	}
	return m
}

// FloorModFloat returns a mod b with the same floor-mod convention as
// FloorMod, for Дробь operands. math.Mod truncates toward zero like
// big.Int.Rem, so it needs the same sign correction.
func FloorModFloat(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
