// Package integrators advances a linear state-space system across one
// interval of the time grid under a constant input.
//
// Exact is the default and is exact for LTI systems. Euler and RK4 are
// fixed-step explicit schemes kept for comparison runs.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/lti"
)

// Integrator instances carry scratch space and caches. They are not safe
// for concurrent use; build one per simulation.
type Integrator interface {
	Name() string
	Step(sys *lti.StateSpace, x dynamo.State, u, dt float64) dynamo.State
}

const DefaultName = "exact"

var registry = map[string]func() Integrator{
	"exact": func() Integrator { return NewExact() },
	"rk4":   func() Integrator { return NewRK4() },
	"euler": func() Integrator { return NewEuler() },
}

// New returns a fresh integrator by name.
func New(name string) (Integrator, error) {
	if name == "" {
		name = DefaultName
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// substeps splits dt into n equal pieces no longer than maxStep.
func substeps(dt, maxStep float64) (int, float64) {
	if maxStep <= 0 || dt <= maxStep {
		return 1, dt
	}
	n := int(dt/maxStep) + 1
	return n, dt / float64(n)
}
