// Package util provides small numeric helpers shared across the service.
package util

import "math"

// RoundToStep rounds x to the nearest multiple of step. For example, with
// step=50, 24,876 becomes 24,900. A non-positive step returns x unchanged.
func RoundToStep(x, step float64) float64 {
	if step <= 0 {
		return x
	}
	return math.Round(x/step) * step
}

// Round2 rounds x to two decimal places, ties away from zero. Percentage
// values are stored and compared at two decimals.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.Round(x*100) / 100
}

// ClampInt bounds v to the inclusive range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
