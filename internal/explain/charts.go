package explain

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"math"
	"sort"

	"aquamonitor/internal/ml"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Charts renders the two explainability images as base64-encoded PNGs.
type Charts interface {
	SummaryPlot(attributions, features [][]float64, names []string) (string, error)
	BarPlot(names []string, importances []float64, title, xLabel string) (string, error)
}

// PlotCharts draws charts with gonum/plot.
type PlotCharts struct {
	SummaryWidth, SummaryHeight vg.Length
	BarWidth, BarHeight         vg.Length
}

func NewPlotCharts() *PlotCharts {
	return &PlotCharts{
		SummaryWidth:  10 * vg.Inch,
		SummaryHeight: 7 * vg.Inch,
		BarWidth:      9 * vg.Inch,
		BarHeight:     6 * vg.Inch,
	}
}

var (
	lowValueColor  = color.RGBA{R: 0, G: 138, B: 250, A: 255}
	highValueColor = color.RGBA{R: 255, G: 0, B: 82, A: 255}
	barColor       = color.RGBA{R: 33, G: 145, B: 140, A: 220}
)

// SummaryPlot draws one row of points per feature, most important at the top. Each point is
// a sample's attribution, colored from blue (low feature value) to red (high).
func (c *PlotCharts) SummaryPlot(attributions, features [][]float64, names []string) (string, error) {
	if len(attributions) == 0 || len(attributions) != len(features) {
		return "", fmt.Errorf("summary plot: %d attribution rows for %d feature rows", len(attributions), len(features))
	}
	m := len(names)

	meanAbs := make([]float64, m)
	for _, row := range attributions {
		for j := 0; j < m; j++ {
			meanAbs[j] += math.Abs(row[j])
		}
	}
	order := ascendingOrder(meanAbs)

	p := plot.New()
	p.Title.Text = "SHAP analysis - impact per feature"
	p.X.Label.Text = "SHAP value (impact on predicted consumption)"
	p.Add(plotter.NewGrid())

	labels := make([]string, m)
	for pos, j := range order {
		labels[pos] = ml.DisplayName(names[j])

		lo, hi := math.Inf(1), math.Inf(-1)
		for _, row := range features {
			lo = math.Min(lo, row[j])
			hi = math.Max(hi, row[j])
		}

		xys := make(plotter.XYs, len(attributions))
		for i, row := range attributions {
			xys[i].X = row[j]
			xys[i].Y = float64(pos) + jitter(i)
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return "", fmt.Errorf("summary plot: %w", err)
		}
		scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			t := 0.5
			if hi > lo {
				t = (features[i][j] - lo) / (hi - lo)
			}
			return draw.GlyphStyle{
				Color:  blend(lowValueColor, highValueColor, t),
				Radius: vg.Points(3),
				Shape:  draw.CircleGlyph{},
			}
		}
		p.Add(scatter)
	}
	p.NominalY(labels...)

	return encodePNG(p, c.SummaryWidth, c.SummaryHeight)
}

// BarPlot draws horizontal bars sorted so the largest importance is at the top.
func (c *PlotCharts) BarPlot(names []string, importances []float64, title, xLabel string) (string, error) {
	if len(names) != len(importances) || len(names) == 0 {
		return "", fmt.Errorf("bar plot: %d names for %d values", len(names), len(importances))
	}
	order := ascendingOrder(importances)

	values := make(plotter.Values, len(order))
	labels := make([]string, len(order))
	for pos, j := range order {
		values[pos] = importances[j]
		labels[pos] = ml.DisplayName(names[j])
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.X.Min = 0
	grid := plotter.NewGrid()
	grid.Horizontal.Width = 0
	p.Add(grid)

	bars, err := plotter.NewBarChart(values, vg.Points(22))
	if err != nil {
		return "", fmt.Errorf("bar plot: %w", err)
	}
	bars.Horizontal = true
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(labels...)

	return encodePNG(p, c.BarWidth, c.BarHeight)
}

func encodePNG(p *plot.Plot, w, h vg.Length) (string, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return "", fmt.Errorf("render png: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("write png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ascendingOrder returns indices of values sorted ascending, ties kept in index order.
func ascendingOrder(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
	return idx
}

// jitter spreads points vertically within a row without randomness.
func jitter(i int) float64 {
	return float64((i*37)%21-10) / 50
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
