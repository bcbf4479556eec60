package config

import (
	"sort"

	"github.com/san-kum/pidlab/internal/controllers"
)

var (
	kpValues = []float64{1, 5, 10}
	kiValues = []float64{0, 0.5, 1}
	kdValues = []float64{0, 0.1, 0.5}
)

func gains(kp, ki, kd float64) *controllers.Gains {
	return &controllers.Gains{Kp: kp, Ki: ki, Kd: kd}
}

// gainStudy is the six-panel study of how each gain shapes the response.
func gainStudy() []PanelConfig {
	return []PanelConfig{
		{Title: "Vary Kp (Ki=0.5, Kd=0.1)", Vary: controllers.ParamKp, Values: kpValues, Base: gains(5, 0.5, 0.1)},
		{Title: "Vary Ki (Kp=5.0, Kd=0.1)", Vary: controllers.ParamKi, Values: kiValues, Base: gains(5, 0.5, 0.1)},
		{Title: "Vary Kd (Kp=5.0, Ki=0.5)", Vary: controllers.ParamKd, Values: kdValues, Base: gains(5, 0.5, 0.1)},
		{Title: "Vary Ki with low Kp (1.0)", Vary: controllers.ParamKi, Values: kiValues, Base: gains(1, 0.5, 0.1)},
		{Title: "Vary Kd with high Kp (10.0)", Vary: controllers.ParamKd, Values: kdValues, Base: gains(10, 0.5, 0.1)},
		{Title: "Vary Kd with high Ki (1.0)", Vary: controllers.ParamKd, Values: kdValues, Base: gains(5, 1, 0.1)},
	}
}

func preset(title string, num, den []float64, stop float64, panels []PanelConfig) *Config {
	cfg := DefaultConfig()
	cfg.Title = title
	cfg.Plant = PlantConfig{Num: num, Den: den}
	cfg.Grid.Stop = stop
	cfg.Panels = panels
	return cfg
}

var Presets = map[string]*Config{
	"pid-analysis": preset("PID Controller Analysis: Effect of Kp, Ki and Kd",
		[]float64{1}, []float64{1, 2, 1}, 10, gainStudy()),
	"first-order": preset("First-order plant 1/(s+1)",
		[]float64{1}, []float64{1, 1}, 10, []PanelConfig{
			{Title: "Vary Kp (Ki=0.5, Kd=0)", Vary: controllers.ParamKp, Values: kpValues, Base: gains(5, 0.5, 0)},
			{Title: "Vary Ki (Kp=5.0, Kd=0)", Vary: controllers.ParamKi, Values: kiValues, Base: gains(5, 0.5, 0)},
		}),
	"third-order": preset("Third-order plant 1/(s+1)^3",
		[]float64{1}, []float64{1, 3, 3, 1}, 30, []PanelConfig{
			{Title: "Vary Kp (Ki=0.2, Kd=1.0)", Vary: controllers.ParamKp, Values: []float64{0.5, 1, 2}, Base: gains(1, 0.2, 1)},
			{Title: "Vary Kd (Kp=1.0, Ki=0.2)", Vary: controllers.ParamKd, Values: []float64{0, 1, 2}, Base: gains(1, 0.2, 1)},
		}),
	"type-one": preset("Type-one plant 1/(s(s+2))",
		[]float64{1}, []float64{1, 2, 0}, 15, []PanelConfig{
			{Title: "Vary Kp (Ki=0, Kd=0.5)", Vary: controllers.ParamKp, Values: kpValues, Base: gains(5, 0, 0.5)},
			{Title: "Vary Kd (Kp=5.0, Ki=0)", Vary: controllers.ParamKd, Values: kdValues, Base: gains(5, 0, 0.5)},
		}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
