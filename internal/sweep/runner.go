package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/tf"
)

// Runner evaluates cases through the full pipeline: PID synthesis,
// closed-loop composition, step response and metric extraction.
type Runner struct {
	Plant      tf.TransferFunction
	Grid       []float64
	Setpoint   float64
	Tolerance  float64
	Amplitude  float64
	Integrator string
	// Workers bounds concurrent cases; zero means GOMAXPROCS.
	Workers int
	Logger  golog.Logger
}

// NewRunner returns a Runner for a unit step judged with a ±2% band.
func NewRunner(plant tf.TransferFunction, grid []float64, logger golog.Logger) *Runner {
	return &Runner{
		Plant:     plant,
		Grid:      grid,
		Setpoint:  1,
		Tolerance: metrics.DefaultTolerance,
		Amplitude: 1,
		Logger:    logger,
	}
}

// Log returns the configured logger or the global one.
func (r *Runner) Log() golog.Logger {
	if r.Logger == nil {
		return golog.Global()
	}
	return r.Logger
}

func (r *Runner) workers(n int) int {
	w := r.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	return min(w, n)
}

func (r *Runner) check() error {
	if err := sim.ValidateGrid(r.Grid); err != nil {
		return err
	}
	return r.options().Validate()
}

// EvaluateCase runs one case. Failures are reported in Outcome.Err.
func (r *Runner) EvaluateCase(ctx context.Context, c Case) Outcome {
	out := Outcome{Case: c}

	loop, err := controllers.ClosedLoop(c.Gains, r.Plant)
	if err != nil {
		out.Err = err
		return out
	}
	out.Loop = loop

	s, err := sim.New(r.Integrator)
	if err != nil {
		out.Err = err
		return out
	}
	res, err := s.Run(ctx, loop, r.Grid, r.Amplitude)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = res

	out.Report, out.Err = metrics.Analyze(res.Times, res.Output, r.options())
	return out
}

func (r *Runner) options() metrics.Options {
	return metrics.Options{Setpoint: r.Setpoint, Tolerance: r.Tolerance}
}

// Evaluate runs every case on a bounded worker pool. Outcomes keep the
// order of cases. The returned error combines every failed case; successful
// outcomes are returned alongside it. Only an invalid grid or setpoint, or a
// cancelled context, aborts the whole batch.
func (r *Runner) Evaluate(ctx context.Context, cases []Case) ([]Outcome, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	log := r.Log()
	outcomes := make([]Outcome, len(cases))
	if len(cases) == 0 {
		return outcomes, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := r.workers(len(cases))
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = r.EvaluateCase(ctx, cases[idx])
			}
		}()
	}

	log.Debugw("evaluating cases", "cases", len(cases), "workers", workers)
dispatch:
	for i := range cases {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var errs error
	for _, o := range outcomes {
		if o.Err != nil {
			log.Warnw("case failed", "case", o.Case.Label, "gains", o.Case.Gains.String(), "error", o.Err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", o.Case.Label, o.Err))
			continue
		}
		log.Debugw("case evaluated", "case", o.Case.Label,
			"overshoot", o.Report.OvershootPercent, "settling", o.Report.SettlingTime)
	}
	return outcomes, errs
}

// EvaluatePanels evaluates each panel in turn. The error combines failures
// from every panel.
func (r *Runner) EvaluatePanels(ctx context.Context, panels []Panel) ([][]Outcome, error) {
	all := make([][]Outcome, len(panels))
	var errs error
	for i, p := range panels {
		outcomes, err := r.Evaluate(ctx, p.Cases)
		if outcomes == nil && err != nil {
			return nil, err
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("panel %q: %w", p.Title, err))
		}
		all[i] = outcomes
	}
	return all, errs
}
