// Package c3 renders chart specs as c3.js declarative configs embedded in
// the page next to their mount point.
package c3

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-formflow/pkg/assets"
	"github.com/goliatone/go-formflow/pkg/charts"
)

// Name is the registry name of the creator.
const Name = "c3"

// Asset handles enqueued by the creator.
const (
	HandleStyle = "formflow-c3-css"
	HandleD3    = "formflow-d3"
	HandleC3    = "formflow-c3"
	HandleGlue  = "formflow-c3-glue"
)

const (
	defaultD3URL    = "https://cdnjs.cloudflare.com/ajax/libs/d3/5.16.0/d3.min.js"
	defaultC3URL    = "https://cdnjs.cloudflare.com/ajax/libs/c3/0.7.20/c3.min.js"
	defaultStyleURL = "https://cdnjs.cloudflare.com/ajax/libs/c3/0.7.20/c3.min.css"
	defaultBase     = "/assets/"
)

// Option configures the creator.
type Option func(*Creator)

// WithAssetBase sets the URL prefix the embedded glue script is served under.
func WithAssetBase(base string) Option {
	return func(c *Creator) {
		if base = strings.TrimSpace(base); base != "" {
			c.assetBase = strings.TrimSuffix(base, "/") + "/"
		}
	}
}

// WithLibraryURLs points the d3/c3 script and stylesheet handles at
// self-hosted copies. Empty values keep the defaults.
func WithLibraryURLs(d3, c3, style string) Option {
	return func(c *Creator) {
		if d3 != "" {
			c.d3URL = d3
		}
		if c3 != "" {
			c.c3URL = c3
		}
		if style != "" {
			c.styleURL = style
		}
	}
}

// Creator implements charts.Creator for c3.js.
type Creator struct {
	assetBase string
	d3URL     string
	c3URL     string
	styleURL  string
}

var _ charts.Creator = (*Creator)(nil)

// New constructs the creator.
func New(options ...Option) *Creator {
	c := &Creator{
		assetBase: defaultBase,
		d3URL:     defaultD3URL,
		c3URL:     defaultC3URL,
		styleURL:  defaultStyleURL,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Creator) Name() string        { return Name }
func (c *Creator) Title() string       { return "C3" }
func (c *Creator) Description() string { return "Chart creating with C3." }

// Bars builds the chart spec and renders the mount div plus its JSON config.
func (c *Creator) Bars(title string, dataset charts.Dataset, opts ...charts.BuildOption) (charts.Widget, error) {
	spec := charts.BuildBarChart(title, dataset, opts...)
	payload, err := json.Marshal(Config(spec))
	if err != nil {
		return charts.Widget{}, fmt.Errorf("c3: encode chart %q: %w", spec.ID, err)
	}

	id := html.EscapeString(spec.ID)
	var b strings.Builder
	if spec.Title != "" {
		tag := html.EscapeString(spec.TitleTag)
		fmt.Fprintf(&b, `<%s class="formflow-chart-title">%s</%s>`, tag, html.EscapeString(spec.Title), tag)
	}
	fmt.Fprintf(&b, `<div id="%s" class="c3-chart"></div>`, id)
	fmt.Fprintf(&b, `<script type="application/json" data-formflow-chart="%s">%s</script>`, id, payload)

	return charts.Widget{Creator: Name, Spec: spec, HTML: b.String()}, nil
}

// Pies is not supported and returns an empty widget.
func (c *Creator) Pies(string, charts.Dataset, ...charts.BuildOption) (charts.Widget, error) {
	return charts.Widget{Creator: Name}, nil
}

// Assets lists the stylesheet, the two libraries and the glue script.
func (c *Creator) Assets() []assets.Asset {
	return []assets.Asset{
		assets.Style(HandleStyle, c.styleURL),
		assets.Script(HandleD3, c.d3URL),
		assets.Script(HandleC3, c.c3URL, HandleD3),
		assets.Script(HandleGlue, c.assetBase+assets.C3GlueScript, HandleC3),
	}
}

// ChartConfig mirrors the subset of the c3.generate options formflow uses.
// Formatter fields carry symbolic names resolved by the glue script.
type ChartConfig struct {
	BindTo  string      `json:"bindto"`
	Data    DataConfig  `json:"data"`
	Axis    AxisConfig  `json:"axis"`
	Legend  LegendShow  `json:"legend"`
	Tooltip TooltipSpec `json:"tooltip"`
}

type DataConfig struct {
	Columns [][]any             `json:"columns"`
	Type    string              `json:"type"`
	Keys    map[string][]string `json:"keys"`
	Colors  map[string]string   `json:"colors"`
}

type AxisConfig struct {
	X XAxis `json:"x"`
	Y YAxis `json:"y"`
}

type XAxis struct {
	Type       string   `json:"type"`
	Categories []string `json:"categories"`
}

type YAxis struct {
	Tick struct {
		Format string `json:"format"`
	} `json:"tick"`
}

type LegendShow struct {
	Show bool `json:"show"`
}

type TooltipSpec struct {
	Format struct {
		Name string `json:"name"`
	} `json:"format"`
}

// Config converts a spec into the c3 option tree.
func Config(spec charts.ChartSpec) ChartConfig {
	cfg := ChartConfig{
		BindTo: "#" + spec.ID,
		Data: DataConfig{
			Columns: make([][]any, 0, len(spec.Series)),
			Type:    spec.Type,
			Keys:    make(map[string][]string, len(spec.Series)),
			Colors:  make(map[string]string, len(spec.Series)),
		},
		Axis: AxisConfig{
			X: XAxis{Type: spec.XAxisType, Categories: spec.Categories},
		},
		Legend: LegendShow{Show: spec.ShowLegend},
	}
	if cfg.Axis.X.Categories == nil {
		cfg.Axis.X.Categories = []string{}
	}
	for _, series := range spec.Series {
		column := make([]any, 0, len(series.Values)+1)
		column = append(column, series.Name)
		for _, value := range series.Values {
			column = append(column, value)
		}
		cfg.Data.Columns = append(cfg.Data.Columns, column)
		cfg.Data.Keys[series.Name] = []string{series.Name}
		cfg.Data.Colors[series.Name] = series.Color
	}
	cfg.Axis.Y.Tick.Format = spec.YTickFormat
	cfg.Tooltip.Format.Name = spec.TooltipLabel
	return cfg
}
