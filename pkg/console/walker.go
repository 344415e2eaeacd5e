// Package console walks a form step by step on a terminal, posting each
// answered step through the same processor the HTTP server uses.
package console

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/frontend"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/nonce"
	"github.com/goliatone/go-formflow/pkg/render"
)

// CheckedValue is posted for a ticked checkbox, matching the HTML widget.
const CheckedValue = "1"

const defaultMaxAttempts = 5

// Option configures a Walker.
type Option func(*Walker)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(w *Walker) {
		if driver != nil {
			w.driver = driver
		}
	}
}

// WithOwnerKey ties created submissions to an owner.
func WithOwnerKey(key string) Option {
	return func(w *Walker) {
		w.ownerKey = strings.TrimSpace(key)
	}
}

// WithLocale selects the locale for labels and validation messages.
func WithLocale(locale string) Option {
	return func(w *Walker) {
		w.locale = strings.TrimSpace(locale)
	}
}

// WithLocalizer translates navigation labels.
func WithLocalizer(l render.Localizer) Option {
	return func(w *Walker) {
		w.localizer = l
	}
}

// WithFieldPrefix must match the prefix the processor was built with.
func WithFieldPrefix(prefix string) Option {
	return func(w *Walker) {
		w.names = render.FieldNames{Prefix: prefix}
	}
}

// WithMaxAttempts bounds how often a step is asked again after failing
// validation. Zero or negative keeps the default.
func WithMaxAttempts(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(w *Walker) {
		w.logger = log
	}
}

// Walker drives a form through a processor with prompts.
type Walker struct {
	processor   *flow.Processor
	issuer      nonce.Issuer
	driver      PromptDriver
	names       render.FieldNames
	localizer   render.Localizer
	locale      string
	ownerKey    string
	maxAttempts int
	logger      logr.Logger
}

// New constructs a Walker. The issuer must be the one the processor
// verifies tokens with.
func New(processor *flow.Processor, issuer nonce.Issuer, options ...Option) (*Walker, error) {
	if processor == nil {
		return nil, errors.New("console: processor is required")
	}
	if issuer == nil {
		return nil, errors.New("console: issuer is required")
	}
	w := &Walker{
		processor:   processor,
		issuer:      issuer,
		maxAttempts: defaultMaxAttempts,
		logger:      logr.Discard(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	if w.driver == nil {
		w.driver = NewSurveyDriver(nil)
	}
	return w, nil
}

// Walk prompts through the form until its submission completes and returns
// the completed submission.
func (w *Walker) Walk(ctx context.Context, form model.Form) (*model.Submission, error) {
	if _, err := form.FirstContainer(); err != nil {
		return nil, fmt.Errorf("console: form %q: %w", form.ID, err)
	}

	var sub *model.Submission
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return sub, err
		}
		container := w.current(form, sub)
		nav, _ := model.NavigationFor(form, container.ID)

		if err := w.header(ctx, form, container, nav, sub); err != nil {
			return sub, err
		}
		values, err := w.ask(ctx, container, sub)
		if err != nil {
			return sub, err
		}
		action, err := w.choose(ctx, nav)
		if err != nil {
			return sub, err
		}

		subID := ""
		if sub != nil {
			subID = sub.ID
		}
		outcome, err := w.processor.Handle(ctx, form, flow.ActionRequest{
			FormID:       form.ID,
			SubmissionID: subID,
			Action:       action,
			Token:        w.issuer.Issue(nonce.FormAction(form.ID, subID)),
			Values:       values,
			OwnerKey:     w.ownerKey,
			Locale:       w.locale,
		})
		if err != nil {
			return sub, fmt.Errorf("console: %w", err)
		}
		sub = outcome.Submission
		w.logger.V(1).Info("step posted", "form", form.ID, "submission", sub.ID,
			"container", container.ID, "action", string(action), "invalid", outcome.Invalid)

		if outcome.Completed {
			return sub, nil
		}
		if !outcome.Invalid {
			attempts = 0
			continue
		}
		attempts++
		if attempts >= w.maxAttempts {
			return sub, fmt.Errorf("%w: %q after %d attempts", ErrNoProgress, container.ID, attempts)
		}
	}
}

func (w *Walker) current(form model.Form, sub *model.Submission) model.Container {
	if sub != nil {
		if container, ok := form.Container(sub.ContainerID); ok {
			return container
		}
	}
	first, _ := form.FirstContainer()
	return first
}

func (w *Walker) header(ctx context.Context, form model.Form, container model.Container, nav model.Navigation, sub *model.Submission) error {
	if nav.Total > 1 {
		label := container.Label
		if label == "" {
			label = model.Humanize(container.ID)
		}
		if err := w.driver.Info(ctx, fmt.Sprintf("[%d/%d] %s", nav.Index+1, nav.Total, label)); err != nil {
			return err
		}
	} else if form.Title != "" {
		if err := w.driver.Info(ctx, form.Title); err != nil {
			return err
		}
	}
	if sub == nil {
		return nil
	}
	for _, message := range render.NormalizeMessages(sub.FormErrors) {
		if err := w.driver.Info(ctx, "! "+message); err != nil {
			return err
		}
	}
	return nil
}

// ask prompts for every element of the container and returns the values
// in the shape a browser would post them.
func (w *Walker) ask(ctx context.Context, container model.Container, sub *model.Submission) (url.Values, error) {
	values := url.Values{}
	for _, element := range container.Elements {
		view := element.View(w.names.Value(element.ID, element.Multiple()), sub)
		if element.Type == model.ElementTypeContent {
			text := view.Description
			if text == "" {
				text = view.Label
			}
			if err := w.driver.Info(ctx, text); err != nil {
				return nil, err
			}
			continue
		}
		for _, message := range view.Errors {
			if err := w.driver.Info(ctx, fmt.Sprintf("! %s: %s", view.Label, message)); err != nil {
				return nil, err
			}
		}

		answers, err := w.prompt(ctx, view)
		if err != nil {
			return nil, err
		}
		for _, answer := range answers {
			values.Add(view.InputName, answer)
		}
	}
	return values, nil
}

func (w *Walker) prompt(ctx context.Context, view model.ElementView) ([]string, error) {
	message := view.Label
	switch view.Type {
	case model.ElementTypeCheckbox:
		ok, err := w.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: view.Value != "", Help: view.Description})
		if err != nil || !ok {
			return nil, err
		}
		return []string{CheckedValue}, nil

	case model.ElementTypeTextarea:
		text, err := w.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: view.Value, Help: view.Description})
		if err != nil {
			return nil, err
		}
		return []string{text}, nil

	case model.ElementTypeRadio, model.ElementTypeSelect, model.ElementTypeMultiselect:
		if len(view.Choices) == 0 {
			break
		}
		options := make([]string, len(view.Choices))
		var selected []int
		for idx, choice := range view.Choices {
			options[idx] = choice.Label
			if choice.Selected {
				selected = append(selected, idx)
			}
		}
		cfg := SelectConfig{Message: message, Options: options, Help: view.Description, Required: view.Required}
		if view.Multiple {
			cfg.Defaults = selected
			picked, err := w.driver.MultiSelect(ctx, cfg)
			if err != nil {
				return nil, err
			}
			out := make([]string, 0, len(picked))
			for _, idx := range picked {
				if idx >= 0 && idx < len(view.Choices) {
					out = append(out, view.Choices[idx].Value)
				}
			}
			return out, nil
		}
		cfg.DefaultIndex = -1
		if len(selected) > 0 {
			cfg.DefaultIndex = selected[0]
		}
		idx, err := w.driver.Select(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(view.Choices) {
			return nil, nil
		}
		return []string{view.Choices[idx].Value}, nil
	}

	text, err := w.driver.Input(ctx, InputConfig{
		Message:  message,
		Default:  view.Value,
		Help:     view.Description,
		Required: view.Required,
	})
	if err != nil {
		return nil, err
	}
	return []string{text}, nil
}

// choose asks where to go after a step. Steps without a previous container
// move forward without asking.
func (w *Walker) choose(ctx context.Context, nav model.Navigation) (flow.Action, error) {
	forward := flow.ActionNext
	label := w.localizer.Text(w.locale, frontend.NextLabelKey, frontend.DefaultNextLabel)
	if nav.IsLast {
		forward = flow.ActionSubmit
		label = w.localizer.Text(w.locale, frontend.SubmitLabelKey, frontend.DefaultSubmitLabel)
	}
	if !nav.HasPrevious {
		return forward, nil
	}
	back := w.localizer.Text(w.locale, frontend.PrevLabelKey, frontend.DefaultPrevLabel)
	idx, err := w.driver.Select(ctx, SelectConfig{Message: "Continue", Options: []string{label, back}})
	if err != nil {
		return "", err
	}
	if idx == 1 {
		return flow.ActionPrev, nil
	}
	return forward, nil
}
