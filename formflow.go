// Package formflow renders multi-step forms one container at a time and
// builds bar chart specs from aggregated answers. The subpackages hold the
// pieces; this package re-exports the common entry points.
package formflow

import (
	"io/fs"

	"github.com/goliatone/go-formflow/pkg/assets"
	"github.com/goliatone/go-formflow/pkg/charts"
	"github.com/goliatone/go-formflow/pkg/charts/c3"
	"github.com/goliatone/go-formflow/pkg/charts/svgchart"
	"github.com/goliatone/go-formflow/pkg/frontend"
)

// Request describes one step render.
type Request = frontend.Request

// Output is the result of a step render.
type Output = frontend.Output

// Overrides customize button labels, classes, markup and title visibility.
type Overrides = frontend.Overrides

// Dataset is an ordered list of label/count entries.
type Dataset = charts.Dataset

// ChartSpec is the chart description produced by BuildBarChart.
type ChartSpec = charts.ChartSpec

// NewRenderer constructs a step renderer. An issuer is required, see
// frontend.WithIssuer.
func NewRenderer(options ...frontend.Option) (*frontend.Renderer, error) {
	return frontend.New(options...)
}

// BuildBarChart turns a dataset into a bar chart spec, keeping its order.
func BuildBarChart(title string, dataset Dataset, opts ...charts.BuildOption) ChartSpec {
	return charts.BuildBarChart(title, dataset, opts...)
}

// DefaultChartRegistry returns a registry holding the c3 and svg creators.
// assetBase is the URL prefix AssetsFS is served under; empty keeps the c3
// default.
func DefaultChartRegistry(assetBase string) (*charts.Registry, error) {
	reg := charts.NewRegistry()
	if err := reg.Register(c3.New(c3.WithAssetBase(assetBase))); err != nil {
		return nil, err
	}
	if err := reg.Register(svgchart.New()); err != nil {
		return nil, err
	}
	return reg, nil
}

// TemplatesFS exposes the embedded step templates so callers can copy or
// extend them.
func TemplatesFS() fs.FS {
	return frontend.TemplatesFS()
}

// AssetsFS exposes the embedded stylesheet and chart glue script.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formflow.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return assets.FS()
}
