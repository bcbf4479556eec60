package integrators

import (
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/lti"
)

// sameStepTol is the relative difference under which two intervals share a
// cached discretization. Uniform grids built by linspace differ by a few ulps.
const sameStepTol = 1e-12

// Exact steps with x(t+dt) = Φ·x(t) + Γ·u, where Φ and Γ come from the
// matrix exponential. Discretizations are cached per (system, dt).
type Exact struct {
	sys   *lti.StateSpace
	dt    float64
	phi   lti.Matrix
	gamma []float64
	ready bool

	// Discretizations counts matrix exponentials evaluated.
	Discretizations int
}

func NewExact() *Exact {
	return &Exact{}
}

func (e *Exact) Name() string { return "exact" }

func (e *Exact) Step(sys *lti.StateSpace, x dynamo.State, u, dt float64) dynamo.State {
	if dt == 0 {
		return x.Clone()
	}
	if !e.ready || e.sys != sys || math.Abs(dt-e.dt) > sameStepTol*math.Abs(dt) {
		e.phi, e.gamma = lti.Discretize(sys, dt)
		e.sys, e.dt, e.ready = sys, dt, true
		e.Discretizations++
	}

	next := dynamo.State(e.phi.MulVec(x))
	for i, g := range e.gamma {
		next[i] += g * u
	}
	return next
}
