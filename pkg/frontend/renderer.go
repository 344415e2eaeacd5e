// Package frontend renders the active step of a multi-step form: the
// visible container, its elements, the hidden state and the navigation
// buttons.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/nonce"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/render/template"
	"github.com/goliatone/go-formflow/pkg/render/template/pongo"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

// MessageNoContainer is shown when a form has no step to render.
const MessageNoContainer = "No container exists for this form."

const messageNoContainerKey = "formflow.notice.no_container"

// Option configures the renderer.
type Option func(*Renderer)

// WithTemplateRenderer replaces the built-in pongo2 engine.
func WithTemplateRenderer(tr template.TemplateRenderer) Option {
	return func(r *Renderer) {
		if tr != nil {
			r.templates = tr
		}
	}
}

// WithIssuer sets the anti-forgery token issuer. Required.
func WithIssuer(issuer nonce.Issuer) Option {
	return func(r *Renderer) {
		r.issuer = issuer
	}
}

// WithAccessChecker sets the access predicate. Defaults to AllowAll.
func WithAccessChecker(checker AccessChecker) Option {
	return func(r *Renderer) {
		if checker != nil {
			r.access = checker
		}
	}
}

// WithOverrides appends override sets; they are merged in call order.
func WithOverrides(sets ...Overrides) Option {
	return func(r *Renderer) {
		r.overrides = MergeOverrides(append([]Overrides{r.overrides}, sets...)...)
	}
}

// WithWidgets replaces the widget registry.
func WithWidgets(reg *widgets.Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.widgets = reg
		}
	}
}

// WithLocalizer sets the translator used for labels and notices.
func WithLocalizer(l render.Localizer) Option {
	return func(r *Renderer) {
		r.localizer = l
	}
}

// WithFieldPrefix changes the request parameter namespace.
func WithFieldPrefix(prefix string) Option {
	return func(r *Renderer) {
		r.names = render.FieldNames{Prefix: prefix}
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(r *Renderer) {
		r.logger = log
	}
}

// Renderer renders form steps. It is safe for concurrent use.
type Renderer struct {
	templates template.TemplateRenderer
	issuer    nonce.Issuer
	access    AccessChecker
	overrides Overrides
	widgets   *widgets.Registry
	localizer render.Localizer
	names     render.FieldNames
	policy    *bluemonday.Policy
	logger    logr.Logger
}

// New constructs a Renderer. Without WithTemplateRenderer the embedded
// templates are loaded into a pongo2 engine.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		access:  AllowAll,
		widgets: widgets.NewRegistry(),
		policy:  bluemonday.UGCPolicy(),
		logger:  logr.Discard(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}

	if r.issuer == nil {
		return nil, errors.New("frontend: nonce issuer is required")
	}
	if r.templates == nil {
		engine, err := pongo.New(
			pongo.WithFS(TemplatesFS()),
			pongo.WithFuncs(r.localizer.TemplateFuncs()),
		)
		if err != nil {
			return nil, fmt.Errorf("frontend: default templates: %w", err)
		}
		r.templates = engine
	}
	return r, nil
}

// Render resolves the step and executes the "form" template. Skipped
// renders never reach the template engine.
func (r *Renderer) Render(ctx context.Context, req Request) (Output, error) {
	out, err := r.Build(ctx, req)
	if err != nil {
		return Output{}, err
	}

	switch out.Status {
	case StatusSkipped:
		return out, nil
	case StatusNotice:
		html, err := r.templates.RenderTemplate(NoticeTemplateName, map[string]any{"notices": out.Notices})
		if err != nil {
			return Output{}, fmt.Errorf("frontend: render notices for form %q: %w", req.Form.ID, err)
		}
		out.HTML = html
		return out, nil
	}

	html, err := r.templates.RenderTemplate(TemplateName, out.Data)
	if err != nil {
		return Output{}, fmt.Errorf("frontend: render form %q: %w", req.Form.ID, err)
	}
	out.HTML = html
	return out, nil
}

// Build runs the preconditions and assembles the template data without
// rendering it.
func (r *Renderer) Build(ctx context.Context, req Request) (Output, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	form, sub := req.Form, req.Submission
	log := r.logger.WithValues("form", form.ID)

	if !r.access.CanAccess(ctx, form, sub) {
		log.V(1).Info("step skipped", "reason", "access denied")
		return Output{Status: StatusSkipped}, nil
	}
	if sub.Completed() {
		log.V(1).Info("step skipped", "reason", "submission completed", "submission", sub.ID)
		return Output{Status: StatusSkipped}, nil
	}

	container, ok := r.currentContainer(form, sub)
	if !ok {
		log.Info("form has no renderable container")
		return Output{
			Status: StatusNotice,
			Notices: []Notice{{
				Level:   NoticeError,
				Message: r.localizer.Text(req.Locale, messageNoContainerKey, MessageNoContainer),
			}},
		}, nil
	}

	step, _ := model.NavigationFor(form, container.ID)
	resolved := r.resolveOverrides(req, container.ID)

	data := &TemplateData{
		Form:             form.View(),
		Action:           req.Action,
		Locale:           req.Locale,
		HiddenFields:     r.hiddenFields(req),
		Navigation:       r.navigation(step, resolved),
		Step:             step,
		CurrentContainer: container.View(),
	}
	data.HiddenFieldsHTML = render.HiddenFieldsMarkup(data.HiddenFields)
	if !resolved.showTitle {
		data.CurrentContainer.Label = ""
	}

	for _, element := range container.Elements {
		view := element.View(r.names.Value(element.ID, element.Multiple()), sub)
		view.Description = r.policy.Sanitize(view.Description)
		data.CurrentContainer.Elements = append(data.CurrentContainer.Elements, view)
	}
	r.widgets.Apply(container.Elements, data.CurrentContainer.Elements)

	if sub != nil {
		for _, message := range render.NormalizeMessages(sub.FormErrors) {
			data.Notices = append(data.Notices, Notice{Level: NoticeError, Message: message})
		}
	}

	log.V(1).Info("step built", "container", container.ID, "index", step.Index, "total", step.Total)
	return Output{Status: StatusRendered, Notices: data.Notices, Data: data}, nil
}

// currentContainer picks the submission's container when it belongs to the
// form and the first container otherwise. A submission for another form
// resolves nothing.
func (r *Renderer) currentContainer(form model.Form, sub *model.Submission) (model.Container, bool) {
	if sub != nil && sub.FormID != "" && sub.FormID != form.ID {
		return model.Container{}, false
	}
	if sub != nil && sub.ContainerID != "" {
		if container, ok := form.Container(sub.ContainerID); ok {
			return container, true
		}
	}
	first, err := form.FirstContainer()
	if err != nil {
		return model.Container{}, false
	}
	return first, true
}

func (r *Renderer) hiddenFields(req Request) []render.HiddenField {
	fields := []render.HiddenField{
		render.Token(r.names.Nonce(), r.issuer.Issue(NonceAction(req.Form, req.Submission))),
		render.Hidden(r.names.FormID(), req.Form.ID),
	}
	if req.Submission != nil && req.Submission.ID != "" {
		fields = append(fields, render.Hidden(r.names.SubmissionID(), req.Submission.ID))
	}
	if page := strings.TrimSpace(req.PageID); page != "" && page != req.Form.ID {
		fields = append(fields, render.Hidden(r.names.OriginalPageID(), page))
	}
	return render.MergeHiddenFields(nil, fields...)
}

func (r *Renderer) navigation(step model.Navigation, o resolvedOverrides) Navigation {
	var nav Navigation
	if step.HasNext {
		nav.NextButton = &Button{
			Label: o.nextLabel,
			Attrs: r.buttonAttrs("next", o.buttonClass),
		}
	} else {
		nav.SubmitButton = &Button{
			Label:  o.submitLabel,
			Attrs:  r.buttonAttrs("submit", strings.TrimSpace(o.buttonClass+" "+o.primaryClass)),
			Before: o.submitBefore,
			After:  o.submitAfter,
		}
	}
	if step.HasPrevious {
		nav.PrevButton = &Button{
			Label: o.prevLabel,
			Attrs: r.buttonAttrs("prev", o.buttonClass),
		}
	}
	return nav
}

func (r *Renderer) buttonAttrs(action, class string) ButtonAttrs {
	return ButtonAttrs{
		Type:  "submit",
		Name:  r.names.Action(),
		Value: action,
		Class: class,
	}
}

// resolveOverrides evaluates every slot once for the render.
func (r *Renderer) resolveOverrides(req Request, containerID string) resolvedOverrides {
	o := r.overrides
	formID := req.Form.ID
	out := resolvedOverrides{
		buttonClass:  DefaultButtonClass,
		primaryClass: DefaultPrimaryButtonClass,
		nextLabel:    r.localizer.Text(req.Locale, NextLabelKey, DefaultNextLabel),
		prevLabel:    r.localizer.Text(req.Locale, PrevLabelKey, DefaultPrevLabel),
		submitLabel:  r.localizer.Text(req.Locale, SubmitLabelKey, DefaultSubmitLabel),
		showTitle:    len(req.Form.Containers) > 1,
	}

	if o.ButtonClass != nil {
		out.buttonClass = o.ButtonClass(out.buttonClass)
	}
	if o.PrimaryButtonClass != nil {
		out.primaryClass = o.PrimaryButtonClass(out.primaryClass)
	}
	if o.NextLabel != nil {
		out.nextLabel = o.NextLabel(formID, out.nextLabel)
	}
	if o.PrevLabel != nil {
		out.prevLabel = o.PrevLabel(formID, out.prevLabel)
	}
	if o.SubmitLabel != nil {
		out.submitLabel = o.SubmitLabel(formID, out.submitLabel)
	}
	if o.SubmitBefore != nil {
		out.submitBefore = r.policy.Sanitize(o.SubmitBefore(formID))
	}
	if o.SubmitAfter != nil {
		out.submitAfter = r.policy.Sanitize(o.SubmitAfter(formID))
	}
	if o.ShowContainerTitle != nil {
		out.showTitle = o.ShowContainerTitle(formID, containerID, out.showTitle)
	}
	return out
}

// NonceAction is the token action for a step of form. sub may be nil.
func NonceAction(form model.Form, sub *model.Submission) string {
	if sub == nil {
		return nonce.FormAction(form.ID, "")
	}
	return nonce.FormAction(form.ID, sub.ID)
}
