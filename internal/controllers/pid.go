package controllers

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/tf"
)

// Gains are the three PID gains. Any finite values are valid; zeros give
// P, PI, PD and the other special cases.
type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"`
	Ki float64 `yaml:"ki" json:"ki"`
	Kd float64 `yaml:"kd" json:"kd"`
}

// Param names accepted by With and Get, matched case-insensitively.
const (
	ParamKp = "Kp"
	ParamKi = "Ki"
	ParamKd = "Kd"
)

var Params = []string{ParamKp, ParamKi, ParamKd}

// ParamName returns the canonical spelling of a gain name.
func ParamName(param string) (string, error) {
	for _, p := range Params {
		if strings.EqualFold(p, param) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown gain: %s", param)
}

func (g Gains) Validate() error {
	for _, v := range []float64{g.Kp, g.Ki, g.Kd} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: gains must be finite, got %s", dynamo.ErrParameterBounds, g)
		}
	}
	return nil
}

// With returns a copy of g with one gain replaced.
func (g Gains) With(param string, value float64) (Gains, error) {
	switch strings.ToLower(param) {
	case "kp":
		g.Kp = value
	case "ki":
		g.Ki = value
	case "kd":
		g.Kd = value
	default:
		return g, fmt.Errorf("unknown gain: %s", param)
	}
	return g, nil
}

func (g Gains) Get(param string) (float64, error) {
	switch strings.ToLower(param) {
	case "kp":
		return g.Kp, nil
	case "ki":
		return g.Ki, nil
	case "kd":
		return g.Kd, nil
	}
	return 0, fmt.Errorf("unknown gain: %s", param)
}

// TransferFunction is MakePID(g.Kp, g.Ki, g.Kd).
func (g Gains) TransferFunction() (tf.TransferFunction, error) {
	return MakePID(g.Kp, g.Ki, g.Kd)
}

func (g Gains) String() string {
	return fmt.Sprintf("Kp=%g, Ki=%g, Kd=%g", g.Kp, g.Ki, g.Kd)
}

// MakePID returns Kd·s + Kp + Ki/s in rational form,
// (Kd·s² + Kp·s + Ki) / s. The result is improper when Kd != 0; closing
// the loop around a strictly proper plant restores properness.
func MakePID(kp, ki, kd float64) (tf.TransferFunction, error) {
	g := Gains{Kp: kp, Ki: ki, Kd: kd}
	if err := g.Validate(); err != nil {
		return tf.TransferFunction{}, err
	}
	return tf.New([]float64{kd, kp, ki}, []float64{1, 0})
}
