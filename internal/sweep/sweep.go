// Package sweep evaluates many PID gain combinations against one plant.
package sweep

import (
	"fmt"
	"strconv"

	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/tf"
)

// Case is one gain combination with a display label.
type Case struct {
	Label string
	Gains controllers.Gains
}

// Panel groups cases that are plotted together.
type Panel struct {
	Title string
	Cases []Case
}

// Vary returns one case per value, each equal to base with param replaced.
func Vary(base controllers.Gains, param string, values []float64) ([]Case, error) {
	name, err := controllers.ParamName(param)
	if err != nil {
		return nil, err
	}
	cases := make([]Case, 0, len(values))
	for _, v := range values {
		g, _ := base.With(name, v)
		cases = append(cases, Case{Label: name + "=" + formatGain(v), Gains: g})
	}
	return cases, nil
}

func formatGain(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Outcome is the evaluated response of one case. Err is set when any stage
// of the pipeline failed; the remaining fields are then partial.
type Outcome struct {
	Case   Case
	Loop   tf.TransferFunction
	Result *dynamo.Result
	Report metrics.Report
	Err    error
}

// OK reports whether the case evaluated without error.
func (o Outcome) OK() bool { return o.Err == nil }

// Legend formats the case label with its headline metrics,
// e.g. "Kp=5, OS=7.10%, Ts=10.00s".
func (o Outcome) Legend() string {
	if o.Err != nil {
		return fmt.Sprintf("%s, failed", o.Case.Label)
	}
	return fmt.Sprintf("%s, OS=%.2f%%, Ts=%.2fs", o.Case.Label, o.Report.OvershootPercent, o.Report.SettlingTime)
}
