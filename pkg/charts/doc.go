// Package charts turns aggregated counts into declarative chart specs and
// hands them to pluggable chart creators for serialization.
//
// BuildBarChart is pure: it never touches the network or the page. Creators
// (see the c3 and svgchart subpackages) decide how a ChartSpec reaches the
// browser and which assets it needs.
package charts
