package dynamo

import (
	"math"
)

// State is the state vector of a linear realization.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Result is a sampled step response. Times and Output always have equal
// length and belong to the caller.
type Result struct {
	Times      []float64
	Output     []float64
	Amplitude  float64
	Integrator string
	StepsTaken int
}

// Len returns the number of samples.
func (r *Result) Len() int {
	return len(r.Times)
}

// Final returns the last output sample.
func (r *Result) Final() float64 {
	if len(r.Output) == 0 {
		return 0
	}
	return r.Output[len(r.Output)-1]
}

// IsBounded reports whether every output sample is finite.
func (r *Result) IsBounded() bool {
	return State(r.Output).IsValid()
}
