package svgchart

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/charts"
)

func TestBars_RendersSVG(t *testing.T) {
	widget, err := New(WithSize(400, 200)).Bars("Colors", charts.Dataset{{Label: "Red", Count: 3}, {Label: "Blue", Count: 1}}, charts.WithID("s1"))
	if err != nil {
		t.Fatalf("bars: %v", err)
	}
	if !strings.HasPrefix(widget.HTML, `<h3 class="formflow-chart-title">Colors</h3><figure id="s1" class="formflow-svg-chart">`) {
		t.Fatalf("unexpected prefix: %.120s", widget.HTML)
	}
	if !strings.Contains(widget.HTML, "<svg") || !strings.HasSuffix(widget.HTML, "</figure>") {
		t.Fatalf("expected inline svg figure, got %.200s", widget.HTML)
	}
	if !strings.Contains(widget.HTML, "Red") || !strings.Contains(widget.HTML, "Blue") {
		t.Fatalf("expected category labels in svg")
	}
	if diff := cmp.Diff([]string{"Red", "Blue"}, widget.Spec.Categories); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestBars_EmptyDatasetPlaceholder(t *testing.T) {
	widget, err := New().Bars("", nil, charts.WithID("e"))
	if err != nil {
		t.Fatalf("bars: %v", err)
	}
	want := `<figure id="e" class="formflow-svg-chart"><figcaption class="formflow-chart-empty">No results yet.</figcaption></figure>`
	if widget.HTML != want {
		t.Fatalf("placeholder mismatch\nwant: %s\n got: %s", want, widget.HTML)
	}
	if _, err := New().SVG(widget.Spec); err == nil {
		t.Fatalf("expected SVG to reject an empty spec")
	}
}

func TestBars_AllZeroCounts(t *testing.T) {
	if _, err := New().Bars("", charts.Dataset{{Label: "A", Count: 0}}); err != nil {
		t.Fatalf("zero counts must still render: %v", err)
	}
}

func TestIntegerTicks(t *testing.T) {
	var labels []string
	for _, tick := range integerTicks(12) {
		labels = append(labels, tick.Label)
	}
	if diff := cmp.Diff([]string{"0", "3", "6", "9", "12"}, labels); diff != "" {
		t.Fatalf("ticks mismatch (-want +got):\n%s", diff)
	}

	labels = nil
	for _, tick := range integerTicks(1) {
		labels = append(labels, tick.Label)
	}
	if diff := cmp.Diff([]string{"0", "1"}, labels); diff != "" {
		t.Fatalf("ticks mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatTick(t *testing.T) {
	if formatTick(2.0) != "2" || formatTick(2.5) != "" || formatTick("x") != "" {
		t.Fatalf("unexpected tick formatting")
	}
}
