package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/storage"
)

// runStore opens the data directory of the effective configuration.
func runStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := runStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tKP\tKI\tKD\tINTEG\tOS\tTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%s\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Gains.Kp,
			run.Gains.Ki,
			run.Gains.Kd,
			run.Integrator,
			metricOrDash(run.Metrics, "overshoot_percent", "%.2f%%"),
			metricOrDash(run.Metrics, "settling_time", "%.2fs"),
		)
	}

	return w.Flush()
}

func bestRuns(cmd *cobra.Command, args []string) error {
	st, err := runStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.Rank(rankMetric, bestTop)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tID\tLABEL\t%s\n", strings.ToUpper(rankMetric))
	for i, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.6g\n", i+1, run.ID, run.Label, run.Metrics[rankMetric])
	}
	return w.Flush()
}

func metricOrDash(m map[string]float64, key, format string) string {
	v, ok := m[key]
	if !ok {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := runStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, output, err := st.LoadResponse(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run:        %s\n", meta.ID)
	fmt.Printf("label:      %s\n", meta.Label)
	fmt.Printf("time:       %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	if plant, err := meta.Plant.TransferFunction(); err == nil {
		fmt.Printf("plant:      %s\n", plant)
	}
	if loop, err := meta.ClosedLoop.TransferFunction(); err == nil {
		fmt.Printf("closed:     %s\n", loop)
	}
	fmt.Printf("integrator: %s\n", meta.Integrator)
	fmt.Printf("samples:    %d\n\n", len(times))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range metrics.Names() {
		fmt.Fprintf(w, "%s\t%s\n", name, metricOrDash(meta.Metrics, name, "%.6g"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(chart.ASCII([]chart.Series{{Label: meta.Label, X: times, Y: output}}, meta.Label, 12, 80))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := runStore(cmd)
	if err != nil {
		return err
	}
	times, output, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteCSV(os.Stdout, times, output)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := runStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, output, err := st.LoadResponse(runID)
	if err != nil {
		return err
	}

	result := &dynamo.Result{
		Times:      times,
		Output:     output,
		Amplitude:  meta.Amplitude,
		Integrator: meta.Integrator,
	}
	return storage.ExportJSON(os.Stdout, *meta, result)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPLANT\tHORIZON\tPANELS\tTITLE")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		plant := "invalid"
		if g, err := cfg.TransferFunction(); err == nil {
			plant = g.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%.0fs\t%d\t%s\n", name, plant, cfg.Grid.Stop, len(cfg.Panels), cfg.Title)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
