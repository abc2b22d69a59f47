package report

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// Series colors
var (
	ColorHistory    = color.NRGBA{A: 255}
	ColorPopulation = color.NRGBA{R: 31, G: 119, B: 180, A: 255}
	ColorEconomy    = color.NRGBA{R: 44, G: 160, B: 44, A: 255}
	ColorCrash      = color.NRGBA{R: 214, G: 39, B: 40, A: 255}
	ColorMarker     = color.NRGBA{R: 127, G: 127, B: 127, A: 255}

	palette = []color.NRGBA{
		{R: 31, G: 119, B: 180, A: 220},
		{R: 255, G: 127, B: 14, A: 220},
		{R: 44, G: 160, B: 44, A: 220},
		{R: 214, G: 39, B: 40, A: 220},
		{R: 148, G: 103, B: 189, A: 220},
		{R: 140, G: 86, B: 75, A: 220},
		{R: 227, G: 119, B: 194, A: 220},
		{R: 188, G: 189, B: 34, A: 220},
	}
)

// ForecastOptions controls the look of a forecast chart
type ForecastOptions struct {
	Title  string
	XLabel string
	YLabel string
	Color  color.NRGBA
	// CrashYear draws a dashed marker at January 1st when positive
	CrashYear int
}

// Layer is one band of a stacked area chart
type Layer struct {
	Label  string
	Points plotter.XYs
}

// YearValue maps a date to a decimal year for the X axis
func YearValue(t time.Time) float64 {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + t.Sub(start).Hours()/end.Sub(start).Hours()
}

// thousandsTicker relabels default ticks with grouped digits
type thousandsTicker struct {
	printer *message.Printer
}

func (t thousandsTicker) Ticks(lo, hi float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(lo, hi)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		if math.Abs(hi-lo) < 10 {
			ticks[i].Label = t.printer.Sprintf("%.1f", ticks[i].Value)
		} else {
			ticks[i].Label = t.printer.Sprintf("%d", int64(math.Round(ticks[i].Value)))
		}
	}
	return ticks
}

// yearTicker labels whole years only
type yearTicker struct{}

func (yearTicker) Ticks(lo, hi float64) []plot.Tick {
	span := hi - lo
	step := 1
	switch {
	case span > 40:
		step = 10
	case span > 16:
		step = 5
	case span > 8:
		step = 2
	}
	var ticks []plot.Tick
	for y := int(math.Ceil(lo)); float64(y) <= hi; y++ {
		label := ""
		if y%step == 0 {
			label = fmt.Sprintf("%d", y)
		}
		ticks = append(ticks, plot.Tick{Value: float64(y), Label: label})
	}
	return ticks
}

// NewPrinter returns the number formatter used on chart labels
func NewPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = yearTicker{}
	p.Y.Tick.Marker = thousandsTicker{printer: NewPrinter()}
	p.Legend.Top = true
	p.Legend.Left = true

	grid := plotter.NewGrid()
	grid.Vertical.Color = color.NRGBA{A: 40}
	grid.Horizontal.Color = color.NRGBA{A: 40}
	p.Add(grid)
	return p
}

// ForecastChart plots the history as points, the forecast as a line and
// the interval as a shaded band
func ForecastChart(history []domain.TimeSeriesPoint, result *domain.ForecastResult, opts ForecastOptions) (*plot.Plot, error) {
	if result == nil || len(result.Rows) == 0 {
		return nil, fmt.Errorf("empty forecast")
	}
	p := newPlot(opts.Title, opts.XLabel, opts.YLabel)

	n := len(result.Rows)
	line := make(plotter.XYs, n)
	band := make(plotter.XYs, 0, 2*n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, r := range result.Rows {
		x := YearValue(r.DS)
		line[i] = plotter.XY{X: x, Y: r.YHat}
		band = append(band, plotter.XY{X: x, Y: r.YHatUpper})
		lo = math.Min(lo, r.YHatLower)
		hi = math.Max(hi, r.YHatUpper)
	}
	for i := n - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: YearValue(result.Rows[i].DS), Y: result.Rows[i].YHatLower})
	}

	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return nil, fmt.Errorf("interval band: %w", err)
	}
	fill := opts.Color
	fill.A = 50
	poly.Color = fill
	poly.LineStyle.Width = 0
	p.Add(poly)

	l, err := plotter.NewLine(line)
	if err != nil {
		return nil, fmt.Errorf("forecast line: %w", err)
	}
	l.LineStyle.Width = vg.Points(2)
	l.LineStyle.Color = opts.Color
	p.Add(l)
	p.Legend.Add("Forecast", l)

	if len(history) > 0 {
		pts := make(plotter.XYs, len(history))
		for i, h := range history {
			pts[i] = plotter.XY{X: YearValue(h.DS), Y: h.Y}
			lo = math.Min(lo, h.Y)
			hi = math.Max(hi, h.Y)
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("history points: %w", err)
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Color = ColorHistory
		s.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(s)
		p.Legend.Add("History", s)
	}

	if opts.CrashYear > 0 {
		x := float64(opts.CrashYear)
		crash, err := plotter.NewLine(plotter.XYs{{X: x, Y: lo}, {X: x, Y: hi}})
		if err != nil {
			return nil, fmt.Errorf("crash marker: %w", err)
		}
		crash.LineStyle.Color = ColorCrash
		crash.LineStyle.Width = vg.Points(1.5)
		crash.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(crash)
		p.Legend.Add("Crash", crash)
	}

	return p, nil
}

// StackedAreaChart stacks the layers bottom up. Every layer must share
// the X positions of the first. A positive markX draws a dashed
// "forecast start" line.
func StackedAreaChart(title, xLabel, yLabel string, layers []Layer, markX float64) (*plot.Plot, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("no layers")
	}
	p := newPlot(title, xLabel, yLabel)
	p.Y.Min = 0

	n := len(layers[0].Points)
	base := make([]float64, n)
	top := 0.0
	for k, layer := range layers {
		if len(layer.Points) != n {
			return nil, fmt.Errorf("layer %s has %d points, want %d", layer.Label, len(layer.Points), n)
		}
		outline := make(plotter.XYs, 0, 2*n)
		next := make([]float64, n)
		for i, pt := range layer.Points {
			next[i] = base[i] + math.Max(0, pt.Y)
			outline = append(outline, plotter.XY{X: pt.X, Y: next[i]})
			top = math.Max(top, next[i])
		}
		for i := n - 1; i >= 0; i-- {
			outline = append(outline, plotter.XY{X: layer.Points[i].X, Y: base[i]})
		}

		poly, err := plotter.NewPolygon(outline)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", layer.Label, err)
		}
		poly.Color = palette[k%len(palette)]
		poly.LineStyle.Width = 0
		p.Add(poly)
		p.Legend.Add(layer.Label, poly)
		base = next
	}

	if markX > 0 {
		marker, err := plotter.NewLine(plotter.XYs{{X: markX, Y: 0}, {X: markX, Y: top}})
		if err != nil {
			return nil, err
		}
		marker.LineStyle.Color = ColorMarker
		marker.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(marker)
		p.Legend.Add("Forecast start", marker)
	}

	p.Y.Max = math.Max(top, 1)
	return p, nil
}

// MessageChart is a blank chart carrying a centred message
func MessageChart(title, msg string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: 0.5, Y: 0.5}},
		Labels: []string{msg},
	})
	if err != nil {
		return nil, err
	}
	labels.TextStyle[0].XAlign = draw.XCenter
	labels.TextStyle[0].YAlign = draw.YCenter
	labels.TextStyle[0].Font.Size = vg.Points(14)
	p.Add(labels)
	return p, nil
}

// WriteSVG renders the plot as SVG
func WriteSVG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "svg")
	if err != nil {
		return fmt.Errorf("svg canvas: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
