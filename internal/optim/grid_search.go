// Package optim searches PID gains for the best step response.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sweep"
)

// ErrNoCandidate is returned when no gain combination evaluates and meets
// the constraints.
var ErrNoCandidate = errors.New("optim: no candidate satisfies the constraints")

// Objective scores a report; lower is better.
type Objective func(metrics.Report) float64

var objectives = map[string]Objective{
	"settling_time": func(r metrics.Report) float64 { return r.SettlingTime },
	"overshoot":     func(r metrics.Report) float64 { return r.OvershootPercent },
	"iae":           func(r metrics.Report) float64 { return r.IAE },
	"itae":          func(r metrics.Report) float64 { return r.ITAE },
	"rise_time":     func(r metrics.Report) float64 { return r.RiseTime },
}

func ObjectiveNames() []string {
	names := make([]string, 0, len(objectives))
	for name := range objectives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LookupObjective(name string) (Objective, error) {
	obj, ok := objectives[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective: %s (available: %v)", name, ObjectiveNames())
	}
	return obj, nil
}

// GridSearch evaluates the Cartesian product of the gain ranges.
type GridSearch struct {
	Kp, Ki, Kd []float64
	Objective  string
	// MaxOvershoot rejects candidates above this percentage; zero disables it.
	MaxOvershoot float64
}

func NewGridSearch(kp, ki, kd []float64, objective string) *GridSearch {
	return &GridSearch{Kp: kp, Ki: ki, Kd: kd, Objective: objective}
}

// Candidate is one evaluated gain combination with its score.
type Candidate struct {
	Gains   controllers.Gains
	Score   float64
	Outcome sweep.Outcome
}

// Cases enumerates every gain combination in Kp-major order.
func (g *GridSearch) Cases() []sweep.Case {
	ranges := [][]float64{g.Kp, g.Ki, g.Kd}
	var cases []sweep.Case
	g.product(0, ranges, controllers.Gains{}, &cases)
	return cases
}

func (g *GridSearch) product(depth int, ranges [][]float64, current controllers.Gains, out *[]sweep.Case) {
	if depth == len(ranges) {
		*out = append(*out, sweep.Case{Label: current.String(), Gains: current})
		return
	}
	for _, v := range ranges[depth] {
		next, _ := current.With(controllers.Params[depth], v)
		g.product(depth+1, ranges, next, out)
	}
}

// Rank evaluates every combination and returns the qualifying candidates,
// best first. Failed cases and constraint violations are skipped.
func (g *GridSearch) Rank(ctx context.Context, runner *sweep.Runner) ([]Candidate, error) {
	objective, err := LookupObjective(g.Objective)
	if err != nil {
		return nil, err
	}
	cases := g.Cases()
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: empty gain range", ErrNoCandidate)
	}

	outcomes, err := runner.Evaluate(ctx, cases)
	if outcomes == nil {
		return nil, err
	}
	if err != nil {
		runner.Log().Debugw("some candidates failed", "error", err)
	}

	candidates := make([]Candidate, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		if g.MaxOvershoot > 0 && o.Report.OvershootPercent > g.MaxOvershoot {
			continue
		}
		score := objective(o.Report)
		if math.IsNaN(score) {
			continue
		}
		candidates = append(candidates, Candidate{Gains: o.Case.Gains, Score: score, Outcome: o})
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidate
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})
	runner.Log().Infow("grid search complete",
		"objective", g.Objective, "evaluated", len(outcomes), "qualified", len(candidates),
		"best", candidates[0].Gains.String(), "score", candidates[0].Score)
	return candidates, nil
}

// Search returns the best candidate.
func (g *GridSearch) Search(ctx context.Context, runner *sweep.Runner) (Candidate, error) {
	ranked, err := g.Rank(ctx, runner)
	if err != nil {
		return Candidate{}, err
	}
	return ranked[0], nil
}
