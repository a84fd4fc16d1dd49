// Package chart draws the aggregate tables as static images with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/cannalytics/internal/aggregate"
	"github.com/KaramelBytes/cannalytics/internal/table"
	"github.com/KaramelBytes/cannalytics/internal/utils"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

// Kinds lists the chart names accepted by Build.
var Kinds = []string{"growth", "monthly-sentiment", "density", "correlation"}

var (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch

	barColor  = color.RGBA{R: 46, G: 139, B: 87, A: 255}
	lineColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Add(plotter.NewGrid())
	return p
}

// Growth is a bar chart of dispensaries per year.
func Growth(rows []aggregate.YearGrowth) (*plot.Plot, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	p := newPlot("Dispensary Growth by Year", "Year", "Dispensaries")
	values := make(plotter.Values, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		values[i] = float64(r.Dispensaries)
		labels[i] = fmt.Sprint(r.Year)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.Y.Min = 0
	return p, nil
}

// Monthly plots average sentiment per month. Months without scores are
// left out of the line.
func Monthly(rows []aggregate.MonthlySentiment) (*plot.Plot, error) {
	var pts plotter.XYs
	for _, r := range rows {
		if r.Sentiment == nil {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(r.Date.Unix()), Y: *r.Sentiment})
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}
	p := newPlot("Monthly Sentiment", "Month", "Average sentiment")
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("line: %w", err)
	}
	line.Color = lineColor
	points.Color = lineColor
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.Y.Min, p.Y.Max = -1, 1
	return p, nil
}

// Density is a bar chart of average per-capita density by region.
func Density(rows []aggregate.RegionDensity) (*plot.Plot, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	p := newPlot("Average Dispensary Density by Region", "Region", "Dispensaries per 100k")
	values := make(plotter.Values, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.AverageDensity
		labels[i] = r.Region
	}
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 8
	p.X.Tick.Label.XAlign = draw.XRight
	p.Y.Min = 0
	return p, nil
}

// Correlation scatters per-capita density against average sentiment with
// county labels.
func Correlation(c aggregate.Correlation) (*plot.Plot, error) {
	var pts plotter.XYs
	var names []string
	for _, r := range c.Rows {
		if r.PerCapita == nil {
			continue
		}
		pts = append(pts, plotter.XY{X: *r.PerCapita, Y: r.AverageSentiment})
		names = append(names, r.County)
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}
	title := "Density vs Sentiment"
	if c.Defined() {
		title = fmt.Sprintf("%s (r = %.2f)", title, c.Pearson)
	}
	p := newPlot(title, "Dispensaries per 100k", "Average sentiment")
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(4)
	scatter.GlyphStyle.Color = lineColor
	p.Add(scatter)
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: names})
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	p.Add(labels)
	return p, nil
}

// Save writes p to path; the extension picks the format (png, svg, pdf...).
func Save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// WritePNG renders p as PNG to w.
func WritePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Normalize maps user spellings to a chart kind.
func Normalize(kind string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(kind))
	switch k {
	case "monthly", "sentiment":
		k = "monthly-sentiment"
	case "regions", "regional-density":
		k = "density"
	}
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Build computes the aggregate behind kind from an already-filtered table
// and draws it. density is only read by the correlation chart.
func Build(kind string, calc *aggregate.Calculator, t, density *table.Table) (*plot.Plot, error) {
	switch kind {
	case "growth":
		return Growth(calc.YearlyGrowth(t))
	case "monthly-sentiment":
		return Monthly(calc.MonthlySentiments(t))
	case "density":
		return Density(calc.RegionalDensity(t))
	case "correlation":
		return Correlation(calc.MarketCorrelation(t, density))
	}
	return nil, fmt.Errorf("unknown chart %q (use %s)", kind, strings.Join(Kinds, ", "))
}
