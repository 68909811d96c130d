// Package mathx holds the numeric helpers shared by the solver, the
// calculator and the code generator.
package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// RoundHalfUp rounds to the nearest integer, ties toward +Inf. This is the
// rounding used for every derived register value.
func RoundHalfUp[T constraints.Float](x T) T {
	return T(math.Floor(float64(x) + 0.5))
}

// RoundTo rounds x half up to the given number of decimal places.
func RoundTo[T constraints.Float](x T, places int) T {
	p := math.Pow(10, float64(places))
	return T(math.Floor(float64(x)*p+0.5) / p)
}

// Lerp maps t in [0,1] onto [a,b].
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// Clamp pins v to the inclusive range lo..hi. lo must not exceed hi.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// Between reports whether v lies in the inclusive range lo..hi. Range
// checks in input validation go through here so NaN is never accepted.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	return lo <= v && v <= hi
}
