package widgets

import (
	"testing"

	"github.com/goliatone/go-formflow/pkg/model"
)

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := NewRegistry()
	element := model.Element{
		Type:     model.ElementTypeCheckbox,
		Metadata: map[string]string{"widget": "toggle"},
	}

	if got, ok := reg.Resolve(element); !ok || got != "toggle" {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name    string
		element model.Element
		expect  string
	}{
		{"text input", model.Element{Type: model.ElementTypeText}, WidgetInput},
		{"email input", model.Element{Type: model.ElementTypeEmail}, WidgetInput},
		{"number input", model.Element{Type: model.ElementTypeNumber}, WidgetInput},
		{"textarea", model.Element{Type: model.ElementTypeTextarea}, WidgetTextarea},
		{"checkbox", model.Element{Type: model.ElementTypeCheckbox}, WidgetCheckbox},
		{"radio", model.Element{Type: model.ElementTypeRadio, Choices: []model.Choice{{Value: "a"}}}, WidgetRadio},
		{"multiselect", model.Element{Type: model.ElementTypeMultiselect}, WidgetSelect},
		{"text with choices", model.Element{Type: model.ElementTypeText, Choices: []model.Choice{{Value: "a"}}}, WidgetSelect},
		{"content", model.Element{Type: model.ElementTypeContent}, WidgetContent},
		{"unknown type", model.Element{Type: "date"}, WidgetInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := reg.Resolve(tc.element)
			if !ok {
				t.Fatalf("expected resolution for %s", tc.name)
			}
			if got != tc.expect {
				t.Fatalf("resolve %s: want %q, got %q", tc.name, tc.expect, got)
			}
		})
	}
}

func TestResolve_PriorityOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register("stars", 999, func(element model.Element) bool {
		return element.Type == model.ElementTypeRadio && element.Metadata["scale"] == "stars"
	})

	got, ok := reg.Resolve(model.Element{Type: model.ElementTypeRadio, Metadata: map[string]string{"scale": "stars"}})
	if !ok || got != "stars" {
		t.Fatalf("priority matcher should win, got %q (ok=%v)", got, ok)
	}
	if got, _ := reg.Resolve(model.Element{Type: model.ElementTypeRadio}); got != WidgetRadio {
		t.Fatalf("non matching radio should keep builtin, got %q", got)
	}
}

func TestResolve_EmptyRegistry(t *testing.T) {
	var reg Registry
	if _, ok := reg.Resolve(model.Element{Type: model.ElementTypeText}); ok {
		t.Fatalf("empty registry must not resolve")
	}
}

func TestApply_StampsViews(t *testing.T) {
	reg := NewRegistry()
	elements := []model.Element{
		{ID: "bio", Type: model.ElementTypeTextarea},
		{ID: "agree", Type: model.ElementTypeCheckbox},
	}
	views := []model.ElementView{
		{ID: "bio"},
		{ID: "agree", Widget: "custom"},
		{ID: "stray"},
	}

	reg.Apply(elements, views)

	if views[0].Widget != WidgetTextarea {
		t.Fatalf("expected textarea widget, got %q", views[0].Widget)
	}
	if views[1].Widget != "custom" {
		t.Fatalf("existing widget must be preserved, got %q", views[1].Widget)
	}
	if views[2].Widget != "" {
		t.Fatalf("unknown element must stay unresolved, got %q", views[2].Widget)
	}
}
