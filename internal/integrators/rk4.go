package integrators

import (
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/lti"
)

type RK4 struct {
	// MaxStep bounds the internal step; zero means one step per interval.
	MaxStep float64

	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(sys *lti.StateSpace, x dynamo.State, u, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	steps, h := substeps(dt, r.MaxStep)
	result := x.Clone()
	for s := 0; s < steps; s++ {
		r.step(sys, result, u, h)
	}
	return result
}

// step advances x in place by h.
func (r *RK4) step(sys *lti.StateSpace, x dynamo.State, u, h float64) {
	n := len(x)

	sys.Derive(r.k1, x, u)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*0.5*r.k1[i]
	}
	sys.Derive(r.k2, r.scratch, u)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*0.5*r.k2[i]
	}
	sys.Derive(r.k3, r.scratch, u)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*r.k3[i]
	}
	sys.Derive(r.k4, r.scratch, u)

	h6 := h / 6.0
	for i := 0; i < n; i++ {
		x[i] += h6 * (r.k1[i] + 2*r.k2[i] + 2*r.k3[i] + r.k4[i])
	}
}
