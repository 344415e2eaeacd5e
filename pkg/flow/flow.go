// Package flow moves a submission through a form's containers in response
// to the navigation buttons a step posts.
package flow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/nonce"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Action is the value of the navigation button that was pressed.
type Action string

const (
	ActionNext   Action = "next"
	ActionPrev   Action = "prev"
	ActionSubmit Action = "submit"
)

// MessageFixErrors is added to the form errors when a step fails
// validation.
const MessageFixErrors = "Please correct the errors below."

const messageFixErrorsKey = "formflow.notice.fix_errors"

var (
	ErrInvalidToken     = errors.New("flow: invalid or expired token")
	ErrFormMismatch     = errors.New("flow: submission belongs to another form")
	ErrAlreadyCompleted = errors.New("flow: submission already completed")
	ErrUnknownAction    = errors.New("flow: unknown action")
	ErrForbidden        = errors.New("flow: submission belongs to another visitor")
)

// ActionRequest is one posted step.
type ActionRequest struct {
	FormID       string
	SubmissionID string
	Action       Action
	Token        string
	// Values holds the raw request parameters; element values are read
	// from their namespaced names.
	Values   url.Values
	OwnerKey string
	PageID   string
	Locale   string
}

// Outcome describes what an action did to the submission.
type Outcome struct {
	Submission *model.Submission
	// Created is set when the action started the submission.
	Created bool
	// Invalid is set when validation kept the submission on its step.
	Invalid   bool
	Completed bool
	// RedirectPageID is the page the visitor came from, if any.
	RedirectPageID string
}

// Option configures a Processor.
type Option func(*Processor)

// WithValidator replaces the default validator.
func WithValidator(v *validation.Validator) Option {
	return func(p *Processor) {
		if v != nil {
			p.validator = v
		}
	}
}

// WithFieldPrefix changes the request parameter namespace. It must match the
// step renderer's.
func WithFieldPrefix(prefix string) Option {
	return func(p *Processor) {
		p.names = render.FieldNames{Prefix: prefix}
	}
}

// WithLocalizer translates the form level notice and, unless WithValidator
// is given, the validation messages.
func WithLocalizer(l render.Localizer) Option {
	return func(p *Processor) {
		p.localizer = l
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides the submission id generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(p *Processor) {
		p.logger = log
	}
}

// Processor handles posted steps. It is safe for concurrent use; writes to
// one submission are serialized by the store.
type Processor struct {
	submissions store.Submissions
	issuer      nonce.Issuer
	validator   *validation.Validator
	names       render.FieldNames
	localizer   render.Localizer
	now         func() time.Time
	newID       func() string
	logger      logr.Logger
}

// New constructs a Processor.
func New(submissions store.Submissions, issuer nonce.Issuer, options ...Option) (*Processor, error) {
	if submissions == nil {
		return nil, errors.New("flow: submission store is required")
	}
	if issuer == nil {
		return nil, errors.New("flow: nonce issuer is required")
	}
	p := &Processor{
		submissions: submissions,
		issuer:      issuer,
		now:         time.Now,
		newID:       uuid.NewString,
		logger:      logr.Discard(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.validator == nil {
		p.validator = validation.New(validation.WithLocalizer(p.localizer))
	}
	return p, nil
}

// ParseRequest reads the namespaced parameters a step posts.
func (p *Processor) ParseRequest(values url.Values) ActionRequest {
	return ActionRequest{
		FormID:       strings.TrimSpace(values.Get(p.names.FormID())),
		SubmissionID: strings.TrimSpace(values.Get(p.names.SubmissionID())),
		Action:       Action(strings.TrimSpace(values.Get(p.names.Action()))),
		Token:        strings.TrimSpace(values.Get(p.names.Nonce())),
		PageID:       strings.TrimSpace(values.Get(p.names.OriginalPageID())),
		Values:       values,
	}
}

// Handle applies req to the form's submission, creating it on the first
// action.
func (p *Processor) Handle(ctx context.Context, form model.Form, req ActionRequest) (Outcome, error) {
	switch req.Action {
	case ActionNext, ActionPrev, ActionSubmit:
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	if req.FormID != "" && req.FormID != form.ID {
		return Outcome{}, fmt.Errorf("%w: posted %q to %q", ErrFormMismatch, req.FormID, form.ID)
	}

	log := p.logger.WithValues("form", form.ID, "action", string(req.Action))

	var sub *model.Submission
	if req.SubmissionID != "" {
		loaded, err := p.submissions.Get(ctx, req.SubmissionID)
		if err != nil {
			return Outcome{}, fmt.Errorf("flow: load submission: %w", err)
		}
		sub = loaded
	}

	subID := ""
	if sub != nil {
		subID = sub.ID
	}
	if !p.issuer.Verify(nonce.FormAction(form.ID, subID), req.Token) {
		log.Info("token rejected", "submission", subID)
		return Outcome{}, ErrInvalidToken
	}

	now := p.now().UTC()
	outcome := Outcome{}
	if sub == nil {
		first, err := form.FirstContainer()
		if err != nil {
			return Outcome{}, fmt.Errorf("flow: form %q: %w", form.ID, err)
		}
		sub = &model.Submission{
			ID:          p.newID(),
			FormID:      form.ID,
			ContainerID: first.ID,
			Status:      model.StatusProgressing,
			OwnerKey:    req.OwnerKey,
			PageID:      strings.TrimSpace(req.PageID),
			CreatedAt:   now,
		}
		outcome.Created = true
	} else {
		if sub.FormID != form.ID {
			return Outcome{}, fmt.Errorf("%w: %q", ErrFormMismatch, sub.ID)
		}
		if sub.Completed() {
			return Outcome{}, fmt.Errorf("%w: %q", ErrAlreadyCompleted, sub.ID)
		}
		if sub.OwnerKey != "" && sub.OwnerKey != req.OwnerKey {
			return Outcome{}, fmt.Errorf("%w: %q", ErrForbidden, sub.ID)
		}
	}

	container, ok := form.Container(sub.ContainerID)
	if !ok {
		first, err := form.FirstContainer()
		if err != nil {
			return Outcome{}, fmt.Errorf("flow: form %q: %w", form.ID, err)
		}
		container = first
		sub.ContainerID = first.ID
	}

	p.mergeValues(sub, container, req.Values)
	p.clearErrors(sub, container)

	switch req.Action {
	case ActionPrev:
		if prev, ok := form.PreviousContainer(container.ID); ok {
			sub.ContainerID = prev.ID
		}
	case ActionNext, ActionSubmit:
		errs := p.validator.ForLocale(req.Locale).ValidateContainer(container, sub.Values)
		if len(errs) > 0 {
			if sub.Errors == nil {
				sub.Errors = make(map[string][]string, len(errs))
			}
			for id, messages := range errs {
				sub.Errors[id] = messages
			}
			sub.FormErrors = render.MergeFormErrors(nil, p.localizer.Text(req.Locale, messageFixErrorsKey, MessageFixErrors))
			outcome.Invalid = true
			break
		}
		if next, ok := form.NextContainer(container.ID); ok {
			sub.ContainerID = next.ID
		} else if req.Action == ActionSubmit {
			sub.Status = model.StatusCompleted
			completed := now
			sub.CompletedAt = &completed
			outcome.Completed = true
		}
	}
	sub.UpdatedAt = now

	if outcome.Created {
		if err := p.submissions.Create(ctx, sub); err != nil {
			return Outcome{}, fmt.Errorf("flow: create submission: %w", err)
		}
	} else if err := p.submissions.Update(ctx, sub); err != nil {
		if errors.Is(err, store.ErrFinalized) {
			return Outcome{}, fmt.Errorf("%w: %v", ErrAlreadyCompleted, err)
		}
		return Outcome{}, fmt.Errorf("flow: update submission: %w", err)
	}

	log.V(1).Info("action handled", "submission", sub.ID, "container", sub.ContainerID,
		"invalid", outcome.Invalid, "completed", outcome.Completed)

	outcome.Submission = sub
	outcome.RedirectPageID = sub.PageID
	return outcome, nil
}

func (p *Processor) mergeValues(sub *model.Submission, container model.Container, params url.Values) {
	for _, element := range container.Elements {
		if element.Type == model.ElementTypeContent {
			continue
		}
		posted := params[p.names.Value(element.ID, element.Multiple())]
		var kept []string
		for _, value := range posted {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				kept = append(kept, trimmed)
			}
		}
		if len(kept) == 0 {
			delete(sub.Values, element.ID)
			continue
		}
		if sub.Values == nil {
			sub.Values = make(map[string][]string)
		}
		sub.Values[element.ID] = kept
	}
}

func (p *Processor) clearErrors(sub *model.Submission, container model.Container) {
	for _, element := range container.Elements {
		delete(sub.Errors, element.ID)
	}
	if len(sub.Errors) == 0 {
		sub.Errors = nil
	}
	sub.FormErrors = nil
}
