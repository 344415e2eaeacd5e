package results_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/charts"
	"github.com/goliatone/go-formflow/pkg/charts/c3"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/results"
	"github.com/goliatone/go-formflow/pkg/store"
)

func completed(id string, values map[string][]string) *model.Submission {
	return &model.Submission{ID: id, FormID: "survey", Status: model.StatusCompleted, Values: values}
}

func TestAggregate_ChoiceOrder(t *testing.T) {
	element := model.Element{ID: "color", Type: model.ElementTypeRadio, Choices: []model.Choice{
		{Value: "red", Label: "Red"}, {Value: "green"}, {Value: "blue", Label: "Blue"},
	}}
	subs := []*model.Submission{
		completed("1", map[string][]string{"color": {"blue"}}),
		completed("2", map[string][]string{"color": {"red"}}),
		completed("3", map[string][]string{"color": {"blue"}}),
		completed("4", map[string][]string{"color": {"purple"}}),
		{ID: "5", Status: model.StatusProgressing, Values: map[string][]string{"color": {"red"}}},
	}

	want := charts.Dataset{{Label: "Red", Count: 1}, {Label: "green", Count: 0}, {Label: "Blue", Count: 2}}
	if diff := cmp.Diff(want, results.Aggregate(element, subs)); diff != "" {
		t.Fatalf("dataset mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_SharedLabelsCountSeparately(t *testing.T) {
	element := model.Element{ID: "size", Type: model.ElementTypeSelect, Choices: []model.Choice{
		{Value: "s-eu", Label: "Small"}, {Value: "s-us", Label: "Small"}, {Value: "l", Label: "Large"},
	}}
	subs := []*model.Submission{
		completed("1", map[string][]string{"size": {"s-eu"}}),
		completed("2", map[string][]string{"size": {"s-us"}}),
		completed("3", map[string][]string{"size": {"s-us"}}),
	}

	want := charts.Dataset{{Label: "Small", Count: 1}, {Label: "Small", Count: 2}, {Label: "Large", Count: 0}}
	if diff := cmp.Diff(want, results.Aggregate(element, subs)); diff != "" {
		t.Fatalf("dataset mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_CheckboxAndFreeText(t *testing.T) {
	subs := []*model.Submission{
		completed("1", map[string][]string{"agree": {"1"}, "city": {"Lima"}}),
		completed("2", map[string][]string{"city": {"Oslo"}}),
		completed("3", map[string][]string{"agree": {"1"}, "city": {"Lima"}}),
	}

	agree := results.Aggregate(model.Element{ID: "agree", Type: model.ElementTypeCheckbox}, subs)
	if diff := cmp.Diff(charts.Dataset{{Label: "Yes", Count: 2}, {Label: "No", Count: 1}}, agree); diff != "" {
		t.Fatalf("checkbox dataset mismatch (-want +got):\n%s", diff)
	}
	city := results.Aggregate(model.Element{ID: "city", Type: model.ElementTypeText}, subs)
	if diff := cmp.Diff(charts.Dataset{{Label: "Lima", Count: 2}, {Label: "Oslo", Count: 1}}, city); diff != "" {
		t.Fatalf("free text dataset mismatch (-want +got):\n%s", diff)
	}
}

func TestService_Charts(t *testing.T) {
	ctx := context.Background()
	subs := store.NewMemory()
	for _, sub := range []*model.Submission{
		completed("1", map[string][]string{"color": {"red"}}),
		completed("2", map[string][]string{"color": {"red"}}),
	} {
		if err := subs.Create(ctx, sub); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	reg := charts.NewRegistry()
	reg.MustRegister(c3.New())

	form := model.Form{ID: "survey", Containers: []model.Container{{ID: "c", Elements: []model.Element{
		{ID: "name", Type: model.ElementTypeText},
		{ID: "color", Type: model.ElementTypeRadio, Choices: []model.Choice{{Value: "red"}, {Value: "blue"}}},
	}}}}

	svc := results.NewService(subs, reg)
	got, err := svc.Charts(ctx, form, c3.Name, charts.WithID("chart-color"))
	if err != nil {
		t.Fatalf("charts: %v", err)
	}
	if len(got) != 1 || got[0].ElementID != "color" {
		t.Fatalf("expected a single color chart, got %+v", got)
	}
	if diff := cmp.Diff([]int{2, 0}, got[0].Widget.Spec.Values(charts.SeriesName)); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if got[0].Widget.Spec.Title != "Color" || !strings.Contains(got[0].Widget.HTML, `id="chart-color"`) {
		t.Fatalf("unexpected widget %+v", got[0].Widget)
	}

	if _, err := svc.Charts(ctx, form, "missing"); !errors.Is(err, charts.ErrCreatorNotFound) {
		t.Fatalf("expected ErrCreatorNotFound, got %v", err)
	}
}
