package integrators

import (
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/lti"
)

type Euler struct {
	MaxStep float64
	dx      dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(sys *lti.StateSpace, x dynamo.State, u, dt float64) dynamo.State {
	if len(e.dx) != len(x) {
		e.dx = make(dynamo.State, len(x))
	}
	steps, h := substeps(dt, e.MaxStep)
	result := x.Clone()
	for s := 0; s < steps; s++ {
		sys.Derive(e.dx, result, u)
		for i := range result {
			result[i] += h * e.dx[i]
		}
	}
	return result
}
