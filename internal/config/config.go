package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/sweep"
	"github.com/san-kum/pidlab/internal/tf"
)

const (
	DefaultStart     = 0.0
	DefaultStop      = 10.0
	DefaultPoints    = 1000
	DefaultSetpoint  = 1.0
	DefaultAmplitude = 1.0
	DefaultKp        = 5.0
	DefaultKi        = 0.5
	DefaultKd        = 0.1
	DefaultDataDir   = "./data"
)

type Config struct {
	Title      string            `yaml:"title,omitempty"`
	Plant      PlantConfig       `yaml:"plant"`
	Grid       GridConfig        `yaml:"grid"`
	Setpoint   float64           `yaml:"setpoint"`
	Tolerance  float64           `yaml:"tolerance"`
	Amplitude  float64           `yaml:"amplitude"`
	Integrator string            `yaml:"integrator"`
	Workers    int               `yaml:"workers"`
	Base       controllers.Gains `yaml:"base"`
	Panels     []PanelConfig     `yaml:"panels,omitempty"`
	DataDir    string            `yaml:"data_dir"`
}

// PlantConfig holds coefficients in descending powers of s.
type PlantConfig struct {
	Num []float64 `yaml:"num"`
	Den []float64 `yaml:"den"`
}

type GridConfig struct {
	Start  float64 `yaml:"start"`
	Stop   float64 `yaml:"stop"`
	Points int     `yaml:"points"`
}

// PanelConfig varies one gain around a base. Base falls back to the
// top-level base gains when omitted.
type PanelConfig struct {
	Title  string             `yaml:"title"`
	Vary   string             `yaml:"vary"`
	Values []float64          `yaml:"values"`
	Base   *controllers.Gains `yaml:"base,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant: PlantConfig{
			Num: []float64{1},
			Den: []float64{1, 2, 1},
		},
		Grid: GridConfig{
			Start:  DefaultStart,
			Stop:   DefaultStop,
			Points: DefaultPoints,
		},
		Setpoint:   DefaultSetpoint,
		Tolerance:  metrics.DefaultTolerance,
		Amplitude:  DefaultAmplitude,
		Integrator: integrators.DefaultName,
		Base: controllers.Gains{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
		DataDir: DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.TransferFunction(); err != nil {
		errs = append(errs, fmt.Errorf("plant: %w", err))
	}
	if c.Grid.Points < 2 {
		errs = append(errs, fmt.Errorf("grid: points must be at least 2, got %d", c.Grid.Points))
	} else if err := sim.ValidateGrid(c.TimeGrid()); err != nil {
		errs = append(errs, fmt.Errorf("grid: %w", err))
	}
	if err := c.options().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if err := c.Base.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("base: %w", err))
	}
	if _, err := c.BuildPanels(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TransferFunction builds the plant.
func (c *Config) TransferFunction() (tf.TransferFunction, error) {
	return tf.New(c.Plant.Num, c.Plant.Den)
}

// TimeGrid is the evenly spaced simulation grid.
func (c *Config) TimeGrid() []float64 {
	return sim.Linspace(c.Grid.Start, c.Grid.Stop, c.Grid.Points)
}

func (c *Config) options() metrics.Options {
	return metrics.Options{Setpoint: c.Setpoint, Tolerance: c.Tolerance}
}

// BuildPanels expands the panel definitions into sweep cases.
func (c *Config) BuildPanels() ([]sweep.Panel, error) {
	panels := make([]sweep.Panel, 0, len(c.Panels))
	for i, p := range c.Panels {
		if len(p.Values) == 0 {
			return nil, fmt.Errorf("panel %d (%s): no values", i, p.Title)
		}
		base := c.Base
		if p.Base != nil {
			base = *p.Base
		}
		cases, err := sweep.Vary(base, p.Vary, p.Values)
		if err != nil {
			return nil, fmt.Errorf("panel %d (%s): %w", i, p.Title, err)
		}
		panels = append(panels, sweep.Panel{Title: p.Title, Cases: cases})
	}
	return panels, nil
}

// Runner builds a sweep runner from the configuration.
func (c *Config) Runner(logger golog.Logger) (*sweep.Runner, error) {
	plant, err := c.TransferFunction()
	if err != nil {
		return nil, err
	}
	r := sweep.NewRunner(plant, c.TimeGrid(), logger)
	r.Setpoint = c.Setpoint
	r.Tolerance = c.Tolerance
	r.Amplitude = c.Amplitude
	r.Integrator = c.Integrator
	r.Workers = c.Workers
	return r, nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Plant.Num = append([]float64(nil), c.Plant.Num...)
	out.Plant.Den = append([]float64(nil), c.Plant.Den...)
	out.Panels = make([]PanelConfig, len(c.Panels))
	for i, p := range c.Panels {
		p.Values = append([]float64(nil), p.Values...)
		if p.Base != nil {
			b := *p.Base
			p.Base = &b
		}
		out.Panels[i] = p
	}
	return &out
}
