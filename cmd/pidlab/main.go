package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/edaniels/golog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/optim"
)

var (
	configFile string
	preset     string
	dataDir    string
	debug      bool

	kp         float64
	ki         float64
	kd         float64
	integrator string
	stop       float64
	points     int
	workers    int

	plotFlag bool
	saveFlag bool
	outPath  string

	objective    string
	maxOvershoot float64
	kpRange      []float64
	kiRange      []float64
	kdRange      []float64
	top          int
	rankMetric   string
	bestTop      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pidlab",
		Short:         "PID step-response lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	registerConfigFlags(rootCmd.PersistentFlags())

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "simulate the closed-loop step response for one set of gains",
		Args:  cobra.NoArgs,
		RunE:  runStep,
	}
	stepCmd.Flags().BoolVar(&plotFlag, "plot", false, "draw the response in the terminal")
	stepCmd.Flags().BoolVar(&saveFlag, "save", false, "store the run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "evaluate the configured gain panels and render a png grid",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVarP(&outPath, "out", "o", "pid_analysis.png", "output png")
	sweepCmd.Flags().BoolVar(&saveFlag, "save", false, "store every run")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search for the best gains",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&objective, "objective", "settling_time", fmt.Sprintf("objective %v", optim.ObjectiveNames()))
	tuneCmd.Flags().Float64Var(&maxOvershoot, "max-overshoot", 0, "reject candidates above this overshoot % (0 = off)")
	tuneCmd.Flags().Float64SliceVar(&kpRange, "kp-range", []float64{1, 5, 10}, "Kp candidates")
	tuneCmd.Flags().Float64SliceVar(&kiRange, "ki-range", []float64{0, 0.5, 1}, "Ki candidates")
	tuneCmd.Flags().Float64SliceVar(&kdRange, "kd-range", []float64{0, 0.1, 0.5}, "Kd candidates")
	tuneCmd.Flags().IntVar(&top, "top", 5, "candidates to print")

	polesCmd := &cobra.Command{
		Use:   "poles",
		Short: "closed-loop poles, zeros and stability",
		Args:  cobra.NoArgs,
		RunE:  runPoles,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [integrators...]",
		Short: "compare integrators against the exact response",
		RunE:  compareIntegrators,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	bestCmd := &cobra.Command{
		Use:   "best",
		Short: "stored runs ranked by a metric",
		Args:  cobra.NoArgs,
		RunE:  bestRuns,
	}
	bestCmd.Flags().StringVar(&rankMetric, "metric", "settling_time", "metric to rank by")
	bestCmd.Flags().IntVar(&bestTop, "top", 10, "runs to print (0 = all)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored response as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive gain tuner",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}

	rootCmd.AddCommand(stepCmd, sweepCmd, tuneCmd, polesCmd, compareCmd, listCmd, bestCmd, showCmd,
		exportCSVCmd, exportJSONCmd, presetsCmd, initConfigCmd, tuiCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

// registerConfigFlags binds the flags that feed loadConfig.
func registerConfigFlags(fs *pflag.FlagSet) {
	fs.StringVar(&configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&preset, "preset", "", "use preset configuration")
	fs.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	fs.BoolVar(&debug, "debug", false, "debug logging")
	fs.Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	fs.Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	fs.Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	fs.StringVar(&integrator, "integrator", integrators.DefaultName, "integrator (exact, rk4, euler)")
	fs.Float64Var(&stop, "time", config.DefaultStop, "simulation horizon in seconds")
	fs.IntVar(&points, "points", config.DefaultPoints, "number of time samples")
	fs.IntVar(&workers, "workers", 0, "parallel cases (0 = all cores)")
}

func newLogger() golog.Logger {
	if debug {
		return golog.NewDebugLogger("pidlab")
	}
	return golog.NewDevelopmentLogger("pidlab")
}

// loadConfig resolves the effective configuration: defaults, then preset,
// then config file, then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("kp") {
		cfg.Base.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Base.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Base.Kd = kd
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("time") {
		cfg.Grid.Stop = stop
	}
	if flags.Changed("points") {
		cfg.Grid.Points = points
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
