package chart

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

type Options struct {
	Title    string
	Cols     int
	XLabel   string
	YLabel   string
	WidthIn  float64
	HeightIn float64
	DPI      int
	// Setpoint draws a dashed reference line when non-zero.
	Setpoint float64
}

func DefaultOptions() Options {
	return Options{
		Cols:     2,
		XLabel:   "Time (s)",
		YLabel:   "Output",
		WidthIn:  12,
		HeightIn: 12,
		DPI:      150,
		Setpoint: 1,
	}
}

// RenderGrid writes the panels as a PNG grid to path, creating parent
// directories as needed.
func RenderGrid(path string, panels []Panel, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WriteGrid(bw, panels, opts); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// WriteGrid encodes the panel grid as PNG to w.
func WriteGrid(w io.Writer, panels []Panel, opts Options) error {
	if len(panels) == 0 {
		return fmt.Errorf("chart: no panels to render")
	}
	cols := opts.Cols
	if cols <= 0 {
		cols = 2
	}
	cols = min(cols, len(panels))
	rows := (len(panels) + cols - 1) / cols

	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
	}
	for i, panel := range panels {
		p, err := newPanelPlot(panel, opts)
		if err != nil {
			return fmt.Errorf("panel %q: %w", panel.Title, err)
		}
		plots[i/cols][i%cols] = p
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.WidthIn)*vg.Inch, vg.Length(opts.HeightIn)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	dc := draw.New(c)

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	if opts.Title != "" {
		tiles.PadTop = vg.Millimeter * 12
		drawTitle(dc, opts.Title)
	}

	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i, p := range plots[j] {
			if p != nil {
				p.Draw(canvases[j][i])
			}
		}
	}

	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

func drawTitle(dc draw.Canvas, title string) {
	sty := plot.New().Title.TextStyle
	sty.Font.Size = vg.Points(16)
	sty.XAlign = text.XCenter
	sty.YAlign = text.YTop
	pt := vg.Point{
		X: (dc.Min.X + dc.Max.X) / 2,
		Y: dc.Max.Y - vg.Millimeter*3,
	}
	dc.FillText(sty, pt, title)
}

func newPanelPlot(panel Panel, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Add(plotter.NewGrid())

	var xmin, xmax float64 = math.Inf(1), math.Inf(-1)
	for i, s := range panel.Series {
		if len(s.X) != len(s.Y) {
			return nil, fmt.Errorf("series %q: %d x values, %d y values", s.Label, len(s.X), len(s.Y))
		}
		pts := make(plotter.XYs, 0, len(s.X))
		for k := range s.X {
			if math.IsNaN(s.Y[k]) || math.IsInf(s.Y[k], 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: s.X[k], Y: s.Y[k]})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Label, line)

		xmin = math.Min(xmin, pts[0].X)
		xmax = math.Max(xmax, pts[len(pts)-1].X)
	}

	if opts.Setpoint != 0 && xmax > xmin {
		ref, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: opts.Setpoint}, {X: xmax, Y: opts.Setpoint}})
		if err != nil {
			return nil, err
		}
		ref.LineStyle.Width = vg.Points(0.8)
		ref.LineStyle.Dashes = plotutil.Dashes(1)
		p.Add(ref)
	}

	p.Legend.Top = false
	p.Legend.Left = false
	p.Legend.TextStyle.Font.Size = vg.Points(8)
	return p, nil
}
