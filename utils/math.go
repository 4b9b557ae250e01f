package utils

import (
	"math"
)

// NearestIndex maps a value onto the index of a uniformly spaced sequence,
// rounding half away from zero. Truncation would map 9.2/0.1 to 91.
func NearestIndex(x, interval float64) int {
	return int(math.Round(x / interval))
}

// RelativeChange is |q - q0| / |q0|, or |q - q0| when q0 is zero.
func RelativeChange(q, q0 float64) float64 {
	if q0 == 0 {
		return math.Abs(q - q0)
	}
	return math.Abs((q - q0) / q0)
}
