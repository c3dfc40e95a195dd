// Package numutil carries small numeric helpers: significant-digit
// rounding, clamping and weighted random choice.
package numutil

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrBadWeights indicates empty, negative or all-zero choice weights.
var ErrBadWeights = errors.New("numutil: weights must be non-negative with a positive sum")

// Sign returns 1, -1 or 0 depending on the sign of x.
func Sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Clamp limits x to the range [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

// ClampInt limits x to the range [lo, hi].
func ClampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// RoundSignificant rounds x to n significant digits.
func RoundSignificant(x float64, n int) float64 {
	if x == 0 {
		return 0
	}
	shift := float64(n-1) - math.Floor(math.Log10(math.Abs(x)))
	scale := math.Pow(10, shift)
	return math.Round(x*scale) / scale
}

// FloorDigits floors x to n decimal digits.
func FloorDigits(x float64, n int) float64 {
	scale := math.Pow(10, float64(n))
	return math.Floor(x*scale) / scale
}

// FloorSignificant floors x to n significant digits.
func FloorSignificant(x float64, n int) float64 {
	if x == 0 {
		return 0
	}
	return FloorDigits(x, n-1-int(math.Floor(math.Log10(math.Abs(x)))))
}

// CeilDigits ceils x to n decimal digits.
func CeilDigits(x float64, n int) float64 {
	scale := math.Pow(10, float64(n))
	return math.Ceil(x*scale) / scale
}

// CeilSignificant ceils x to n significant digits.
func CeilSignificant(x float64, n int) float64 {
	if x == 0 {
		return 0
	}
	return CeilDigits(x, n-1-int(math.Floor(math.Log10(math.Abs(x)))))
}

// WeightedChoices returns n indices into weights, each drawn independently
// with probability proportional to its weight.
func WeightedChoices(weights []float64, n int, src rand.Source) ([]int, error) {
	if len(weights) == 0 {
		return nil, ErrBadWeights
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, ErrBadWeights
		}
		sum += w
	}
	if sum <= 0 {
		return nil, ErrBadWeights
	}

	dist := distuv.NewCategorical(weights, src)
	out := make([]int, n)
	for i := range out {
		out[i] = int(dist.Rand())
	}
	return out, nil
}

// WeightedChoice draws a single index with probability proportional to
// its weight.
func WeightedChoice(weights []float64, src rand.Source) (int, error) {
	idx, err := WeightedChoices(weights, 1, src)
	if err != nil {
		return 0, err
	}
	return idx[0], nil
}

// Choice draws one element of items using the matching weights.
func Choice[T any](items []T, weights []float64, src rand.Source) (T, error) {
	var zero T
	if len(items) != len(weights) {
		return zero, ErrBadWeights
	}
	idx, err := WeightedChoice(weights, src)
	if err != nil {
		return zero, err
	}
	return items[idx], nil
}
