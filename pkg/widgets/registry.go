package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Built-in widget identifiers. Each one names a partial under
// templates/widgets/ that the step template includes.
const (
	WidgetInput    = "input"
	WidgetTextarea = "textarea"
	WidgetCheckbox = "checkbox"
	WidgetRadio    = "radio"
	WidgetSelect   = "select"
	WidgetContent  = "content"
)

// MetadataKey is the element metadata entry that pins a widget explicitly.
const MetadataKey = "widget"

// Matcher decides whether a widget should render the supplied element.
type Matcher func(element model.Element) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for elements based on explicit metadata or
// registered matchers. Higher priority wins; ties fall back to registration
// order. An empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher with the provided name and priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for an element. Metadata["widget"] is
// honoured before matcher evaluation.
func (r *Registry) Resolve(element model.Element) (string, bool) {
	if explicit := strings.TrimSpace(element.Metadata[MetadataKey]); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(element) {
			return entry.name, true
		}
	}
	return "", false
}

// Apply stamps the resolved widget onto views whose Widget is unset. Views
// are matched to elements by id.
func (r *Registry) Apply(elements []model.Element, views []model.ElementView) {
	byID := make(map[string]model.Element, len(elements))
	for _, element := range elements {
		byID[element.ID] = element
	}
	for idx := range views {
		if views[idx].Widget != "" {
			continue
		}
		element, ok := byID[views[idx].ID]
		if !ok {
			continue
		}
		if widget, ok := r.Resolve(element); ok {
			views[idx].Widget = widget
		}
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetContent, 100, func(element model.Element) bool {
		return element.Type == model.ElementTypeContent
	})

	r.Register(WidgetSelect, 80, func(element model.Element) bool {
		switch element.Type {
		case model.ElementTypeSelect, model.ElementTypeMultiselect:
			return true
		}
		return false
	})

	r.Register(WidgetRadio, 70, func(element model.Element) bool {
		return element.Type == model.ElementTypeRadio
	})

	r.Register(WidgetCheckbox, 60, func(element model.Element) bool {
		return element.Type == model.ElementTypeCheckbox
	})

	r.Register(WidgetTextarea, 50, func(element model.Element) bool {
		return element.Type == model.ElementTypeTextarea
	})

	// Free-text element types offering choices render as a dropdown.
	r.Register(WidgetSelect, 40, func(element model.Element) bool {
		return len(element.Choices) > 0 && element.Type != model.ElementTypeCheckbox
	})

	r.Register(WidgetInput, 0, func(model.Element) bool {
		return true
	})
}
