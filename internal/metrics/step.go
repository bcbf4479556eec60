// Package metrics extracts time-domain performance figures from a sampled
// step response.
package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// DefaultTolerance is the settling band as a fraction of the setpoint.
const DefaultTolerance = 0.02

// Options selects the reference the response is judged against.
type Options struct {
	Setpoint  float64
	Tolerance float64
}

// DefaultOptions judges a unit step with a ±2% band.
func DefaultOptions() Options {
	return Options{Setpoint: 1, Tolerance: DefaultTolerance}
}

// Step holds the two headline figures of a step response.
type Step struct {
	OvershootPercent float64 `json:"overshoot_percent"`
	SettlingTime     float64 `json:"settling_time"`
}

// Compute returns overshoot and settling time with a ±2% band.
func Compute(t, y []float64, setpoint float64) (Step, error) {
	return ComputeWith(t, y, Options{Setpoint: setpoint, Tolerance: DefaultTolerance})
}

// ComputeWith is Compute with an explicit tolerance.
func ComputeWith(t, y []float64, opts Options) (Step, error) {
	if err := opts.check(t, y); err != nil {
		return Step{}, err
	}
	return Step{
		OvershootPercent: Overshoot(y, opts.Setpoint),
		SettlingTime:     SettlingTime(t, y, opts.Setpoint, opts.Tolerance),
	}, nil
}

// Validate checks the setpoint and tolerance.
func (o Options) Validate() error {
	if o.Setpoint == 0 || math.IsNaN(o.Setpoint) || math.IsInf(o.Setpoint, 0) {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidSetpoint, o.Setpoint)
	}
	if !(o.Tolerance > 0 && o.Tolerance < 1) {
		return fmt.Errorf("%w: tolerance %v must lie in (0, 1)", dynamo.ErrParameterBounds, o.Tolerance)
	}
	return nil
}

func (o Options) check(t, y []float64) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if len(t) != len(y) {
		return fmt.Errorf("%w: %d times, %d samples", dynamo.ErrDimensionMismatch, len(t), len(y))
	}
	if len(t) < 2 {
		return &dynamo.GridError{Index: -1, Reason: "fewer than 2 samples"}
	}
	return nil
}

// peak returns the index of the sample furthest in the direction of the
// setpoint, or -1 if every sample is NaN.
func peak(y []float64, setpoint float64) int {
	idx := -1
	for i, v := range y {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || (setpoint > 0 && v > y[idx]) || (setpoint < 0 && v < y[idx]) {
			idx = i
		}
	}
	return idx
}

// Overshoot is max(0, (peak-sp)/sp·100). NaN samples are ignored.
func Overshoot(y []float64, setpoint float64) float64 {
	i := peak(y, setpoint)
	if i < 0 {
		return 0
	}
	return math.Max(0, (y[i]-setpoint)/setpoint*100)
}

// SettlingTime is the earliest t[i] after which every sample stays within
// tol·|sp| of sp. If the final sample is outside the band it is t[len-1].
func SettlingTime(t, y []float64, setpoint, tol float64) float64 {
	n := len(t)
	if n == 0 {
		return math.NaN()
	}
	band := tol * math.Abs(setpoint)

	settled := n - 1
	for i := n - 1; i >= 0; i-- {
		// NaN fails the comparison and ends the run.
		if !(math.Abs(y[i]-setpoint) <= band) {
			break
		}
		settled = i
	}
	return t[settled]
}
