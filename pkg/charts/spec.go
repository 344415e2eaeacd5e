package charts

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formflow/pkg/render"
)

const (
	// SeriesName is the single series every bar chart carries.
	SeriesName = "value"
	// SeriesColor is the fill used for the value series.
	SeriesColor = "#0073aa"
	// TickFormatInteger labels whole-number ticks and blanks fractional ones.
	TickFormatInteger = "integer"
	// TypeBar is the chart type of BuildBarChart output.
	TypeBar = "bar"
	// AxisCategory marks the x axis as categorical.
	AxisCategory = "category"
	// DefaultTitleTag wraps the chart title.
	DefaultTitleTag = "h3"
	// CountLabelKey is the translation key of the tooltip label.
	CountLabelKey = "formflow.chart.count"
	// CountLabel is the untranslated tooltip label.
	CountLabel = "Count"
)

// Series is one named row of values aligned with the chart categories.
type Series struct {
	Name   string `json:"name"`
	Values []int  `json:"values"`
	Color  string `json:"color"`
}

// ChartSpec is a declarative bar chart description.
type ChartSpec struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	TitleTag     string   `json:"title_tag"`
	Type         string   `json:"type"`
	XAxisType    string   `json:"x_axis_type"`
	Categories   []string `json:"categories"`
	Series       []Series `json:"series"`
	YTickFormat  string   `json:"y_tick_format"`
	ShowLegend   bool     `json:"show_legend"`
	TooltipLabel string   `json:"tooltip_label"`
}

// Values returns the values of the named series.
func (s ChartSpec) Values(series string) []int {
	for _, entry := range s.Series {
		if entry.Name == series {
			return entry.Values
		}
	}
	return nil
}

// IDGenerator produces render-target ids.
type IDGenerator func() string

// DefaultIDGenerator returns "chart-" followed by a random UUID, unique per
// page without relying on a random range.
func DefaultIDGenerator() string {
	return "chart-" + uuid.NewString()
}

// BuildOption customizes BuildBarChart.
type BuildOption func(*buildConfig)

type buildConfig struct {
	id        string
	generator IDGenerator
	titleTag  string
	localizer render.Localizer
	locale    string
}

// WithID pins the render-target id.
func WithID(id string) BuildOption {
	return func(cfg *buildConfig) {
		cfg.id = strings.TrimSpace(id)
	}
}

// WithIDGenerator replaces the generator used when no id is pinned.
func WithIDGenerator(gen IDGenerator) BuildOption {
	return func(cfg *buildConfig) {
		if gen != nil {
			cfg.generator = gen
		}
	}
}

// WithTitleTag changes the heading element wrapping the title.
func WithTitleTag(tag string) BuildOption {
	return func(cfg *buildConfig) {
		if tag = strings.TrimSpace(tag); tag != "" {
			cfg.titleTag = tag
		}
	}
}

// WithLocalizer translates the tooltip label for locale.
func WithLocalizer(l render.Localizer, locale string) BuildOption {
	return func(cfg *buildConfig) {
		cfg.localizer = l
		cfg.locale = locale
	}
}

// BuildBarChart describes a bar chart of dataset: categories in dataset
// order, one "value" series, integer y ticks, no legend and a fixed tooltip
// label. An empty dataset yields an empty chart, not an error.
func BuildBarChart(title string, dataset Dataset, opts ...BuildOption) ChartSpec {
	cfg := buildConfig{
		generator: DefaultIDGenerator,
		titleTag:  DefaultTitleTag,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	id := cfg.id
	if id == "" {
		id = cfg.generator()
	}

	return ChartSpec{
		ID:          id,
		Title:       title,
		TitleTag:    cfg.titleTag,
		Type:        TypeBar,
		XAxisType:   AxisCategory,
		Categories:  dataset.Labels(),
		YTickFormat: TickFormatInteger,
		Series: []Series{{
			Name:   SeriesName,
			Values: dataset.Counts(),
			Color:  SeriesColor,
		}},
		ShowLegend:   false,
		TooltipLabel: cfg.localizer.Text(cfg.locale, CountLabelKey, CountLabel),
	}
}

// FormatIntegerTick renders whole numbers and returns "" for fractional
// ticks so the axis only labels integers.
func FormatIntegerTick(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Floor(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
