// Package results aggregates completed submissions into chart datasets and
// renders them with a chart creator.
package results

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formflow/pkg/charts"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/store"
)

// Checkbox categories.
const (
	CheckedLabel   = "Yes"
	UncheckedLabel = "No"
)

// Chartable reports whether the element's answers form categories.
func Chartable(element model.Element) bool {
	switch element.Type {
	case model.ElementTypeCheckbox:
		return true
	case model.ElementTypeRadio, model.ElementTypeSelect, model.ElementTypeMultiselect:
		return len(element.Choices) > 0
	}
	return false
}

// Aggregate counts the element's values across completed submissions.
// Choice elements keep choice order and list unanswered choices with a zero
// count; other elements list values in first-seen order.
func Aggregate(element model.Element, submissions []*model.Submission) charts.Dataset {
	var dataset charts.Dataset
	// slots maps a choice value to its entry; labels may repeat across
	// values and must not merge their counts.
	slots := make(map[string]int, len(element.Choices))

	switch {
	case element.Type == model.ElementTypeCheckbox:
		dataset.Add(CheckedLabel, 0)
		dataset.Add(UncheckedLabel, 0)
	case len(element.Choices) > 0:
		for _, choice := range element.Choices {
			if _, seen := slots[choice.Value]; seen {
				continue
			}
			label := choice.Label
			if label == "" {
				label = choice.Value
			}
			slots[choice.Value] = len(dataset)
			dataset = append(dataset, charts.Entry{Label: label})
		}
	}

	for _, sub := range submissions {
		if !sub.Completed() {
			continue
		}
		values := sub.Values[element.ID]
		if element.Type == model.ElementTypeCheckbox {
			if len(values) > 0 {
				dataset.Add(CheckedLabel, 1)
			} else {
				dataset.Add(UncheckedLabel, 1)
			}
			continue
		}
		for _, value := range values {
			if len(slots) > 0 {
				if idx, ok := slots[value]; ok {
					dataset[idx].Count++
				}
				continue
			}
			dataset.Add(value, 1)
		}
	}
	return dataset
}

// ElementChart is the chart rendered for one element.
type ElementChart struct {
	ElementID string         `json:"element_id"`
	Dataset   charts.Dataset `json:"dataset"`
	Widget    charts.Widget  `json:"widget"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Service) {
		s.logger = log
	}
}

// Service renders result charts for forms.
type Service struct {
	submissions store.Submissions
	creators    *charts.Registry
	logger      logr.Logger
}

// NewService constructs a Service.
func NewService(submissions store.Submissions, creators *charts.Registry, options ...Option) *Service {
	s := &Service{
		submissions: submissions,
		creators:    creators,
		logger:      logr.Discard(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Charts renders a bar chart for every chartable element of the form using
// the named creator.
func (s *Service) Charts(ctx context.Context, form model.Form, creatorName string, opts ...charts.BuildOption) ([]ElementChart, error) {
	creator, err := s.creators.Get(creatorName)
	if err != nil {
		return nil, fmt.Errorf("results: %w", err)
	}
	submissions, err := s.submissions.ListByForm(ctx, form.ID)
	if err != nil {
		return nil, fmt.Errorf("results: list submissions for %q: %w", form.ID, err)
	}

	var out []ElementChart
	for _, element := range form.Elements() {
		if !Chartable(element) {
			continue
		}
		title := element.Label
		if title == "" {
			title = model.Humanize(element.ID)
		}
		dataset := Aggregate(element, submissions)
		widget, err := creator.Bars(title, dataset, opts...)
		if err != nil {
			return nil, fmt.Errorf("results: chart for %q: %w", element.ID, err)
		}
		out = append(out, ElementChart{ElementID: element.ID, Dataset: dataset, Widget: widget})
	}
	s.logger.V(1).Info("charts rendered", "form", form.ID, "creator", creatorName, "charts", len(out), "submissions", len(submissions))
	return out, nil
}
