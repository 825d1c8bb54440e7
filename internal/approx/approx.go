// Package approx compares numerical arrays for equality, exactly or within
// a tolerance. It plays the role guppy's lib/eq package played for its
// round-trip tests, extended with a tolerance-based comparison since pic2d's
// testable properties (spec §8) mix bit-identical checks (sorter
// idempotence) with relative-tolerance checks (energy conservation).
package approx

import "math"

// Float64s returns true if x and y have the same length and are equal
// element-wise.
func Float64s(x, y []float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Float32s returns true if x and y have the same length and are equal
// element-wise.
func Float32s(x, y []float32) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Ints returns true if x and y have the same length and are equal
// element-wise.
func Ints(x, y []int) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Within reports whether a and b differ by no more than the given relative
// tolerance (or by no more than tol in absolute terms when both are close to
// zero).
func Within(a, b, tol float64) bool {
	diff := math.Abs(a - b)
	if diff <= tol {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= tol*scale
}

// Float64sWithin reports whether every element of x and y is within tol of
// its counterpart.
func Float64sWithin(x, y []float64, tol float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !Within(x[i], y[i], tol) {
			return false
		}
	}
	return true
}
