package frontend

import (
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Default button classes and labels.
const (
	DefaultButtonClass        = "formflow-button"
	DefaultPrimaryButtonClass = "formflow-button-primary"

	DefaultNextLabel   = "Next Step"
	DefaultPrevLabel   = "Previous Step"
	DefaultSubmitLabel = "Submit"
)

// Translation keys for the button labels.
const (
	NextLabelKey   = "formflow.button.next"
	PrevLabelKey   = "formflow.button.prev"
	SubmitLabelKey = "formflow.button.submit"
)

// Theme tokens read by ThemeOverrides.
const (
	TokenButtonClass        = "formflow.button.class"
	TokenPrimaryButtonClass = "formflow.button.primaryClass"
)

// Slot signatures. Each slot receives the value computed so far and returns
// the value to use.
type (
	StringSlot     func(current string) string
	FormStringSlot func(formID, current string) string
	MarkupSlot     func(formID string) string
	TitleSlot      func(formID, containerID string, show bool) bool
)

// Overrides customizes a render. Nil slots keep the default.
type Overrides struct {
	ButtonClass        StringSlot
	PrimaryButtonClass StringSlot
	NextLabel          FormStringSlot
	PrevLabel          FormStringSlot
	SubmitLabel        FormStringSlot
	SubmitBefore       MarkupSlot
	SubmitAfter        MarkupSlot
	ShowContainerTitle TitleSlot
}

// MergeOverrides chains sets in order: value slots feed each result into the
// next set's slot, markup slots concatenate.
func MergeOverrides(sets ...Overrides) Overrides {
	var out Overrides
	for _, set := range sets {
		out.ButtonClass = chainString(out.ButtonClass, set.ButtonClass)
		out.PrimaryButtonClass = chainString(out.PrimaryButtonClass, set.PrimaryButtonClass)
		out.NextLabel = chainFormString(out.NextLabel, set.NextLabel)
		out.PrevLabel = chainFormString(out.PrevLabel, set.PrevLabel)
		out.SubmitLabel = chainFormString(out.SubmitLabel, set.SubmitLabel)
		out.SubmitBefore = chainMarkup(out.SubmitBefore, set.SubmitBefore)
		out.SubmitAfter = chainMarkup(out.SubmitAfter, set.SubmitAfter)
		out.ShowContainerTitle = chainTitle(out.ShowContainerTitle, set.ShowContainerTitle)
	}
	return out
}

// ThemeOverrides reads the button classes from the selected theme's tokens.
// Variant tokens take precedence over manifest tokens.
func ThemeOverrides(selector theme.ThemeSelector, themeName, variant string) (Overrides, error) {
	if selector == nil {
		return Overrides{}, nil
	}
	selection, err := selector.Select(themeName, variant)
	if err != nil {
		return Overrides{}, fmt.Errorf("frontend: select theme %q: %w", themeName, err)
	}
	if selection == nil {
		return Overrides{}, nil
	}

	return ManifestOverrides(selection.Manifest, selection.Variant), nil
}

// ManifestOverrides reads the button classes from a manifest's tokens.
func ManifestOverrides(manifest *theme.Manifest, variant string) Overrides {
	tokens := ThemeTokens(manifest, variant)
	var out Overrides
	if class := strings.TrimSpace(tokens[TokenButtonClass]); class != "" {
		out.ButtonClass = func(string) string { return class }
	}
	if class := strings.TrimSpace(tokens[TokenPrimaryButtonClass]); class != "" {
		out.PrimaryButtonClass = func(string) string { return class }
	}
	return out
}

// ThemeTokens merges a manifest's tokens with those of one of its variants.
func ThemeTokens(manifest *theme.Manifest, variant string) map[string]string {
	out := make(map[string]string)
	if manifest == nil {
		return out
	}
	for key, value := range manifest.Tokens {
		out[key] = value
	}
	if v, ok := manifest.Variants[variant]; ok {
		for key, value := range v.Tokens {
			out[key] = value
		}
	}
	return out
}

type resolvedOverrides struct {
	buttonClass  string
	primaryClass string
	nextLabel    string
	prevLabel    string
	submitLabel  string
	submitBefore string
	submitAfter  string
	showTitle    bool
}

func chainString(a, b StringSlot) StringSlot {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(current string) string { return b(a(current)) }
}

func chainFormString(a, b FormStringSlot) FormStringSlot {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(formID, current string) string { return b(formID, a(formID, current)) }
}

func chainMarkup(a, b MarkupSlot) MarkupSlot {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(formID string) string { return a(formID) + b(formID) }
}

func chainTitle(a, b TitleSlot) TitleSlot {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(formID, containerID string, show bool) bool {
		return b(formID, containerID, a(formID, containerID, show))
	}
}
