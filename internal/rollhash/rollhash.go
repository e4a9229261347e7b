// Package rollhash finds every occurrence of a pattern using a Rabin-Karp polynomial rolling hash.
//
// Hashes are computed modulo the Mersenne prime 2^61-1 with a fixed base, which keeps the chance of a spurious
// window match negligible for texts of a few million elements.  Every hash match is still confirmed by comparing
// the window with the pattern, so a collision costs time but never produces a false match.
package rollhash

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

const (
	modulus = 1<<61 - 1
	base    = 1_000_003
)

// FindAll returns the offset of every occurrence of pattern in text, including overlapping occurrences.  The result
// is identical to a KMP search; expected time is O(n+m), degrading to O(n*m) only if many windows collide.
// Returns nil if pattern is empty, text is empty, or pattern is longer than text.
func FindAll[T constraints.Integer](text, pattern []T) []int {
	n, m := len(text), len(pattern)
	if m == 0 || n == 0 || m > n {
		return nil
	}

	// power is base^(m-1), the weight of the element leaving the window.
	power := uint64(1)
	for i := 1; i < m; i++ {
		power = mulmod(power, base)
	}
	var want, have uint64
	for i := 0; i < m; i++ {
		want = addmod(mulmod(want, base), value(pattern[i]))
		have = addmod(mulmod(have, base), value(text[i]))
	}

	var found []int
	for i := 0; ; i++ {
		if have == want && equal(text[i:i+m], pattern) {
			found = append(found, i)
		}
		if i+m >= n {
			return found
		}
		have = submod(have, mulmod(value(text[i]), power))
		have = addmod(mulmod(have, base), value(text[i+m]))
	}
}

// value maps an element into [0, modulus).  Negative values wrap, which is harmless because the hash is only ever
// compared with another hash of the same element type.
func value[T constraints.Integer](v T) uint64 { return uint64(v) % modulus }

func addmod(a, b uint64) uint64 {
	s := a + b // both below 2^61, cannot overflow.
	if s >= modulus {
		s -= modulus
	}
	return s
}

// submod returns a-b normalised into [0, modulus).
func submod(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return a + modulus - b
}

// mulmod multiplies a and b modulo 2^61-1 using the identity 2^61 = 1 (mod 2^61-1).
func mulmod(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	s := (hi<<3 | lo>>61) + lo&modulus
	if s >= modulus {
		s -= modulus
	}
	if s >= modulus {
		s -= modulus
	}
	return s
}

func equal[T comparable](a, b []T) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
