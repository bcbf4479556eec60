package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/san-kum/pidlab/internal/analysis"
	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/optim"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/storage"
	"github.com/san-kum/pidlab/internal/sweep"
	"github.com/san-kum/pidlab/internal/tui"
)

func runStep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()
	runner, err := cfg.Runner(logger)
	if err != nil {
		return err
	}

	out := runner.EvaluateCase(cmd.Context(), sweep.Case{Label: cfg.Base.String(), Gains: cfg.Base})
	if !out.OK() {
		return out.Err
	}

	fmt.Printf("plant:       %s\n", runner.Plant)
	fmt.Printf("gains:       %s\n", cfg.Base)
	fmt.Printf("closed loop: %s\n", out.Loop)
	fmt.Printf("integrator:  %s (%d steps)\n\n", out.Result.Integrator, out.Result.StepsTaken)

	if err := printReport(out.Report); err != nil {
		return err
	}

	if plotFlag {
		fmt.Println()
		fmt.Println(chart.ASCII([]chart.Series{{Label: out.Case.Label, X: out.Result.Times, Y: out.Result.Output}},
			"step response ("+out.Legend()+")", 12, 80))
	}

	if saveFlag {
		st := storage.New(cfg.DataDir)
		id, err := saveOutcome(st, runner, out)
		if err != nil {
			return err
		}
		logger.Infow("run saved", "id", id, "dir", st.Dir())
		fmt.Printf("\nsaved: %s\n", id)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.Panels) == 0 {
		return errors.New("config has no panels (try --preset pid-analysis)")
	}
	logger := newLogger()
	runner, err := cfg.Runner(logger)
	if err != nil {
		return err
	}
	panels, err := cfg.BuildPanels()
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := runner.EvaluatePanels(cmd.Context(), panels)
	if results == nil {
		return err
	}
	if err != nil {
		logger.Warnw("some cases failed", "failed", len(multierr.Errors(err)))
	}
	logger.Debugw("sweep evaluated", "panels", len(panels), "elapsed", time.Since(start))

	var st *storage.Store
	if saveFlag {
		st = storage.New(cfg.DataDir)
	}

	charts := make([]chart.Panel, len(panels))
	for i, p := range panels {
		fmt.Println(p.Title)
		for _, out := range results[i] {
			fmt.Printf("  %s\n", out.Legend())
			if st != nil && out.OK() {
				if _, err := saveOutcome(st, runner, out); err != nil {
					return err
				}
			}
		}
		charts[i] = chart.FromOutcomes(p.Title, results[i])
	}

	opts := chart.DefaultOptions()
	opts.Title = cfg.Title
	opts.Setpoint = cfg.Setpoint
	if err := chart.RenderGrid(outPath, charts, opts); err != nil {
		return err
	}
	logger.Infow("chart written", "path", outPath)
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runner, err := cfg.Runner(newLogger())
	if err != nil {
		return err
	}

	search := optim.NewGridSearch(kpRange, kiRange, kdRange, objective)
	search.MaxOvershoot = maxOvershoot
	ranked, err := search.Rank(cmd.Context(), runner)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tKP\tKI\tKD\t%s\tOVERSHOOT\tSETTLING\n", strings.ToUpper(objective))
	for i, c := range ranked[:min(max(top, 1), len(ranked))] {
		fmt.Fprintf(w, "%d\t%g\t%g\t%g\t%.4g\t%.2f%%\t%.2fs\n",
			i+1, c.Gains.Kp, c.Gains.Ki, c.Gains.Kd, c.Score,
			c.Outcome.Report.OvershootPercent, c.Outcome.Report.SettlingTime)
	}
	return w.Flush()
}

func runPoles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	plant, err := cfg.TransferFunction()
	if err != nil {
		return err
	}
	loop, err := controllers.ClosedLoop(cfg.Base, plant)
	if err != nil {
		return err
	}
	s, err := analysis.Summarize(loop)
	if err != nil {
		return err
	}

	fmt.Printf("closed loop: %s\n", loop)
	fmt.Printf("poles:       %s\n", analysis.FormatRoots(s.Poles))
	fmt.Printf("zeros:       %s\n", analysis.FormatRoots(s.Zeros))
	fmt.Printf("stability:   %s\n", s.Stability)
	if len(s.Poles) > 0 {
		fmt.Printf("dominant:    %s (ζ=%.4g, ωn=%.4g rad/s)\n",
			analysis.FormatRoots([]complex128{s.Dominant}), s.Damping, s.NaturalFreq)
	}
	fmt.Printf("dc gain:     %.6g\n", loop.DCGain())
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	plant, err := cfg.TransferFunction()
	if err != nil {
		return err
	}
	loop, err := controllers.ClosedLoop(cfg.Base, plant)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = integrators.Names()
	}
	grid := cfg.TimeGrid()
	opts := metrics.Options{Setpoint: cfg.Setpoint, Tolerance: cfg.Tolerance}

	reference, err := sim.StepResponse(loop, grid)
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators for %s (%d points, %.1fs)\n\n", cfg.Base, len(grid), cfg.Grid.Stop)
	fmt.Printf("%-10s  %-12s  %-12s  %-12s  %-10s\n", "integrator", "overshoot", "settling", "max_err", "time_ms")
	fmt.Println(strings.Repeat("-", 62))

	for _, name := range names {
		s, err := sim.New(name)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}
		start := time.Now()
		res, err := s.Run(cmd.Context(), loop, grid, cfg.Amplitude)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}
		step, err := metrics.ComputeWith(res.Times, res.Output, opts)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}
		fmt.Printf("%-10s  %11.4f%%  %11.4fs  %12.2e  %10.2f\n", name,
			step.OvershootPercent, step.SettlingTime,
			maxDeviation(res.Output, reference.Output, cfg.Amplitude), float64(elapsed.Microseconds())/1000)
	}
	return nil
}

// maxDeviation compares y against a unit-step reference scaled by amp.
func maxDeviation(y, ref []float64, amp float64) float64 {
	worst := 0.0
	for i := range y {
		worst = math.Max(worst, math.Abs(y[i]-amp*ref[i]))
	}
	return worst
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runner, err := cfg.Runner(newLogger())
	if err != nil {
		return err
	}
	final, err := tui.Run(runner, cfg.Base)
	if err != nil {
		return err
	}
	fmt.Printf("final gains: %s\n", final)
	return nil
}

func printReport(r metrics.Report) error {
	values := r.Values()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, name := range metrics.Names() {
		fmt.Fprintf(w, "%s\t%.6g\n", name, values[name])
	}
	return w.Flush()
}

func saveOutcome(st *storage.Store, runner *sweep.Runner, out sweep.Outcome) (string, error) {
	meta := storage.RunMetadata{
		Label:      out.Case.Label,
		Plant:      storage.RationalOf(runner.Plant),
		Gains:      out.Case.Gains,
		ClosedLoop: storage.RationalOf(out.Loop),
		Integrator: out.Result.Integrator,
		Setpoint:   runner.Setpoint,
		Tolerance:  runner.Tolerance,
		Amplitude:  runner.Amplitude,
		Metrics:    out.Report.Values(),
	}
	return st.Save(meta, out.Result)
}
