package chart

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Blue, asciigraph.Orange, asciigraph.Green,
	asciigraph.Red, asciigraph.Magenta, asciigraph.Cyan,
}

// ASCII renders the series as a terminal plot. Non-finite samples are
// left as gaps.
func ASCII(series []Series, caption string, height, width int) string {
	data := make([][]float64, 0, len(series))
	legends := make([]string, 0, len(series))
	colors := make([]asciigraph.AnsiColor, 0, len(series))
	for i, s := range series {
		if len(s.Y) == 0 {
			continue
		}
		ys := make([]float64, len(s.Y))
		finite := false
		for k, v := range s.Y {
			if math.IsInf(v, 0) {
				v = math.NaN()
			}
			finite = finite || !math.IsNaN(v)
			ys[k] = v
		}
		if !finite {
			continue
		}
		data = append(data, ys)
		legends = append(legends, s.Label)
		colors = append(colors, seriesColors[i%len(seriesColors)])
	}
	if len(data) == 0 {
		return ""
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.Precision(2),
	}
	if len(data) > 1 {
		opts = append(opts, asciigraph.SeriesColors(colors...), asciigraph.SeriesLegends(legends...))
	}
	return asciigraph.PlotMany(data, opts...)
}
