// Package chart renders step responses as PNG panel grids and terminal
// plots.
package chart

import (
	"github.com/san-kum/pidlab/internal/sweep"
)

// Series is one labelled curve.
type Series struct {
	Label string
	X, Y  []float64
}

// Panel is a titled set of curves drawn on shared axes.
type Panel struct {
	Title  string
	Series []Series
}

// FromOutcomes builds a panel with one curve per successful outcome,
// labelled with its headline metrics.
func FromOutcomes(title string, outcomes []sweep.Outcome) Panel {
	p := Panel{Title: title}
	for _, o := range outcomes {
		if !o.OK() || o.Result == nil {
			continue
		}
		p.Series = append(p.Series, Series{Label: o.Legend(), X: o.Result.Times, Y: o.Result.Output})
	}
	return p
}
