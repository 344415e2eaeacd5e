// Package svgchart renders chart specs to static SVG on the server, for
// pages and exports that cannot run JavaScript.
package svgchart

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/goliatone/go-formflow/pkg/assets"
	"github.com/goliatone/go-formflow/pkg/charts"
)

// Name is the registry name of the creator.
const Name = "svg"

// EmptyMessage is shown instead of a chart when there is nothing to plot.
const EmptyMessage = "No results yet."

// Option configures the creator.
type Option func(*Creator)

// WithSize sets the SVG canvas size in pixels.
func WithSize(width, height int) Option {
	return func(c *Creator) {
		if width > 0 {
			c.width = width
		}
		if height > 0 {
			c.height = height
		}
	}
}

// WithBarWidth sets the bar width in pixels.
func WithBarWidth(width int) Option {
	return func(c *Creator) {
		if width > 0 {
			c.barWidth = width
		}
	}
}

// Creator implements charts.Creator with go-chart.
type Creator struct {
	width    int
	height   int
	barWidth int
}

var _ charts.Creator = (*Creator)(nil)

// New constructs the creator.
func New(options ...Option) *Creator {
	c := &Creator{width: 640, height: 320, barWidth: 48}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Creator) Name() string        { return Name }
func (c *Creator) Title() string       { return "SVG" }
func (c *Creator) Description() string { return "Static SVG charts rendered on the server." }

// Assets is empty: the markup is self-contained.
func (c *Creator) Assets() []assets.Asset { return nil }

// Pies is not supported and returns an empty widget.
func (c *Creator) Pies(string, charts.Dataset, ...charts.BuildOption) (charts.Widget, error) {
	return charts.Widget{Creator: Name}, nil
}

// Bars renders the chart spec as an inline SVG figure.
func (c *Creator) Bars(title string, dataset charts.Dataset, opts ...charts.BuildOption) (charts.Widget, error) {
	spec := charts.BuildBarChart(title, dataset, opts...)

	var b strings.Builder
	if spec.Title != "" {
		tag := html.EscapeString(spec.TitleTag)
		fmt.Fprintf(&b, `<%s class="formflow-chart-title">%s</%s>`, tag, html.EscapeString(spec.Title), tag)
	}
	fmt.Fprintf(&b, `<figure id="%s" class="formflow-svg-chart">`, html.EscapeString(spec.ID))

	if len(spec.Categories) == 0 {
		fmt.Fprintf(&b, `<figcaption class="formflow-chart-empty">%s</figcaption>`, EmptyMessage)
	} else {
		svg, err := c.render(spec)
		if err != nil {
			return charts.Widget{}, fmt.Errorf("svgchart: render chart %q: %w", spec.ID, err)
		}
		b.Write(svg)
	}
	b.WriteString(`</figure>`)

	return charts.Widget{Creator: Name, Spec: spec, HTML: b.String()}, nil
}

// SVG renders a chart spec to a standalone SVG document.
func (c *Creator) SVG(spec charts.ChartSpec) ([]byte, error) {
	if len(spec.Categories) == 0 {
		return nil, fmt.Errorf("svgchart: chart %q has no categories", spec.ID)
	}
	return c.render(spec)
}

func (c *Creator) render(spec charts.ChartSpec) ([]byte, error) {
	values := spec.Values(charts.SeriesName)
	color := drawing.ColorFromHex(strings.TrimPrefix(charts.SeriesColor, "#"))
	for _, series := range spec.Series {
		if series.Name == charts.SeriesName && series.Color != "" {
			color = drawing.ColorFromHex(strings.TrimPrefix(series.Color, "#"))
		}
	}

	bars := make([]chart.Value, 0, len(spec.Categories))
	peak := 0
	for idx, label := range spec.Categories {
		count := 0
		if idx < len(values) {
			count = values[idx]
		}
		if count > peak {
			peak = count
		}
		bars = append(bars, chart.Value{
			Label: label,
			Value: float64(count),
			Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		})
	}

	top := float64(integerCeiling(peak))
	graph := chart.BarChart{
		Width:    c.width,
		Height:   c.height,
		BarWidth: c.barWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: top},
			Ticks:          integerTicks(top),
			ValueFormatter: formatTick,
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// integerCeiling keeps the y range non-empty so an all-zero dataset still
// draws an axis.
func integerCeiling(peak int) int {
	if peak < 1 {
		return 1
	}
	return peak
}

// integerTicks spreads at most six whole-number ticks over [0, top].
func integerTicks(top float64) []chart.Tick {
	step := math.Max(1, math.Ceil(top/5))
	var ticks []chart.Tick
	for v := 0.0; v <= top; v += step {
		ticks = append(ticks, chart.Tick{Value: v, Label: charts.FormatIntegerTick(v)})
	}
	if last := ticks[len(ticks)-1].Value; last < top {
		ticks = append(ticks, chart.Tick{Value: top, Label: charts.FormatIntegerTick(top)})
	}
	return ticks
}

func formatTick(v any) string {
	switch n := v.(type) {
	case float64:
		return charts.FormatIntegerTick(n)
	case int:
		return charts.FormatIntegerTick(float64(n))
	default:
		return ""
	}
}
