package metrics

import (
	"math"
)

// Report extends Step with the remaining classical step-response figures.
// RiseTime is NaN when the response never reaches 90% of the setpoint.
type Report struct {
	Step
	PeakValue        float64 `json:"peak_value"`
	PeakTime         float64 `json:"peak_time"`
	RiseTime         float64 `json:"rise_time"`
	SteadyStateError float64 `json:"steady_state_error"`
	IAE              float64 `json:"iae"`
	ITAE             float64 `json:"itae"`
}

// Analyze computes every figure in Report.
func Analyze(t, y []float64, opts Options) (Report, error) {
	step, err := ComputeWith(t, y, opts)
	if err != nil {
		return Report{}, err
	}
	sp := opts.Setpoint

	r := Report{
		Step:             step,
		PeakValue:        math.NaN(),
		PeakTime:         math.NaN(),
		RiseTime:         RiseTime(t, y, sp, 0.1, 0.9),
		SteadyStateError: sp - y[len(y)-1],
	}
	if i := peak(y, sp); i >= 0 {
		r.PeakValue, r.PeakTime = y[i], t[i]
	}
	r.IAE, r.ITAE = errorIntegrals(t, y, sp)
	return r, nil
}

// RiseTime is the time between the first samples reaching the lo and hi
// fractions of the setpoint.
func RiseTime(t, y []float64, setpoint, lo, hi float64) float64 {
	tLo, tHi := math.NaN(), math.NaN()
	for i, v := range y {
		frac := v / setpoint
		if math.IsNaN(tLo) && frac >= lo {
			tLo = t[i]
		}
		if frac >= hi {
			tHi = t[i]
			break
		}
	}
	return tHi - tLo
}

// errorIntegrals returns ∫|e|dt and ∫t·|e|dt by the trapezoidal rule.
func errorIntegrals(t, y []float64, setpoint float64) (iae, itae float64) {
	for i := 1; i < len(t); i++ {
		dt := t[i] - t[i-1]
		e0 := math.Abs(setpoint - y[i-1])
		e1 := math.Abs(setpoint - y[i])
		iae += 0.5 * dt * (e0 + e1)
		itae += 0.5 * dt * (t[i-1]*e0 + t[i]*e1)
	}
	return iae, itae
}

// Values flattens the report for tables and storage.
func (r Report) Values() map[string]float64 {
	return map[string]float64{
		"overshoot_percent":  r.OvershootPercent,
		"settling_time":      r.SettlingTime,
		"peak_value":         r.PeakValue,
		"peak_time":          r.PeakTime,
		"rise_time":          r.RiseTime,
		"steady_state_error": r.SteadyStateError,
		"iae":                r.IAE,
		"itae":               r.ITAE,
	}
}

// Names lists the keys of Values in display order.
func Names() []string {
	return []string{
		"overshoot_percent", "settling_time", "rise_time", "peak_value",
		"peak_time", "steady_state_error", "iae", "itae",
	}
}
