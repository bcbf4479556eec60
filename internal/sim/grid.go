package sim

import (
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// ValidateGrid checks that t is usable as a simulation grid: at least two
// finite points, t[0] >= 0, non-decreasing, and spanning a positive interval.
// Repeated points are allowed.
func ValidateGrid(t []float64) error {
	if len(t) < 2 {
		return &dynamo.GridError{Index: -1, Reason: "fewer than 2 time points"}
	}
	for i, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &dynamo.GridError{Index: i, Time: v, Reason: "non-finite time"}
		}
		if i > 0 && v < t[i-1] {
			return &dynamo.GridError{Index: i, Time: v, Reason: "time decreases"}
		}
	}
	if t[0] < 0 {
		return &dynamo.GridError{Index: 0, Time: t[0], Reason: "negative start time"}
	}
	if t[len(t)-1] <= t[0] {
		return &dynamo.GridError{Index: -1, Reason: "grid spans no time"}
	}
	return nil
}

// Linspace returns n evenly spaced points from start to stop inclusive.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
