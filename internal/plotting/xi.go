// Package plotting renders correlation functions with gonum/plot.
package plotting

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNothingToPlot is returned when no bin has a finite value.
var ErrNothingToPlot = errors.New("no finite correlation values to plot")

// Default figure size.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// Series is one correlation function to draw.
type Series struct {
	Label string
	Edges []float64
	Xi    []float64
}

// points returns (bin midpoint, xi) for every finite bin.
func (s Series) points() plotter.XYs {
	pts := make(plotter.XYs, 0, len(s.Xi))
	for i, v := range s.Xi {
		if i+1 >= len(s.Edges) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: 0.5 * (s.Edges[i] + s.Edges[i+1]), Y: v})
	}
	return pts
}

var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
}

// NewXiPlot builds a figure of xi(r) for each series. Non-finite bins are
// skipped. logR puts separation on a logarithmic axis.
func NewXiPlot(title string, logR bool, series ...Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "r"
	p.Y.Label.Text = "ξ(r)"
	p.Add(plotter.NewGrid())
	if logR {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	drawn := 0
	for i, s := range series {
		pts := s.points()
		if len(pts) == 0 {
			continue
		}
		line, markers, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		c := palette[i%len(palette)]
		line.Color = c
		line.Width = vg.Points(1)
		markers.Color = c
		p.Add(line, markers)
		if s.Label != "" {
			p.Legend.Add(s.Label, line, markers)
		}
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNothingToPlot
	}
	return p, nil
}

// SaveXi writes the figure to path; the format follows the file extension.
func SaveXi(path, title string, logR bool, series ...Series) error {
	p, err := NewXiPlot(title, logR, series...)
	if err != nil {
		return err
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

// WriteXi renders the figure in the given format ("png", "svg", "pdf", ...)
// to w.
func WriteXi(w io.Writer, format, title string, logR bool, series ...Series) error {
	p, err := NewXiPlot(title, logR, series...)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
