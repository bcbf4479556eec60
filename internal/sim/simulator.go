// Package sim produces sampled step responses of transfer functions.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/lti"
	"github.com/san-kum/pidlab/internal/tf"
)

// ctxCheckInterval is how many samples pass between context checks.
const ctxCheckInterval = 256

// Observer is notified of every output sample as it is produced.
type Observer interface {
	OnSample(t, y float64)
}

// Simulator runs step responses with a named integrator. A Simulator holds
// no per-run state and is safe for concurrent use.
type Simulator struct {
	integrator string
	observers  []Observer
}

// New returns a Simulator using the named integrator ("" selects exact).
func New(integrator string) (*Simulator, error) {
	if integrator == "" {
		integrator = integrators.DefaultName
	}
	if _, err := integrators.New(integrator); err != nil {
		return nil, err
	}
	return &Simulator{integrator: integrator}, nil
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Integrator returns the integrator name.
func (s *Simulator) Integrator() string { return s.integrator }

// Run simulates the response of g to a step of the given amplitude applied
// at t[0], starting from rest. The output has one sample per grid point.
// Unstable systems are simulated; their output may grow without bound.
func (s *Simulator) Run(ctx context.Context, g tf.TransferFunction, t []float64, amplitude float64) (*dynamo.Result, error) {
	if err := ValidateGrid(t); err != nil {
		return nil, err
	}
	if math.IsNaN(amplitude) || math.IsInf(amplitude, 0) {
		return nil, fmt.Errorf("%w: step amplitude %v", dynamo.ErrParameterBounds, amplitude)
	}

	sys, err := lti.Realize(g)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(s.integrator)
	if err != nil {
		return nil, err
	}

	result := &dynamo.Result{
		Times:      make([]float64, len(t)),
		Output:     make([]float64, len(t)),
		Amplitude:  amplitude,
		Integrator: integ.Name(),
	}
	copy(result.Times, t)

	x := make(dynamo.State, sys.Order())
	result.Output[0] = sys.Output(x, amplitude)
	s.notify(t[0], result.Output[0])

	for i := 1; i < len(t); i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		x = integ.Step(sys, x, amplitude, t[i]-t[i-1])
		result.Output[i] = sys.Output(x, amplitude)
		result.StepsTaken++
		s.notify(t[i], result.Output[i])
	}

	return result, nil
}

func (s *Simulator) notify(t, y float64) {
	for _, o := range s.observers {
		o.OnSample(t, y)
	}
}

var defaultSimulator = &Simulator{integrator: integrators.DefaultName}

// StepResponse is the unit-step response of g sampled on t, using exact
// discretization.
func StepResponse(g tf.TransferFunction, t []float64) (*dynamo.Result, error) {
	return defaultSimulator.Run(context.Background(), g, t, 1)
}
