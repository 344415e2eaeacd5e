package frontend_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/frontend"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/nonce"
	"github.com/goliatone/go-formflow/pkg/render"
)

type captureTemplates struct {
	calls []string
	data  any
}

func (c *captureTemplates) Render(name string, data any, out ...io.Writer) (string, error) {
	return c.RenderTemplate(name, data, out...)
}

func (c *captureTemplates) RenderTemplate(name string, data any, _ ...io.Writer) (string, error) {
	c.calls = append(c.calls, name)
	c.data = data
	return "<" + name + ">", nil
}

func (c *captureTemplates) RenderString(string, any, ...io.Writer) (string, error) {
	return "", errors.New("not supported")
}

func (c *captureTemplates) RegisterFilter(string, func(any, any) (any, error)) error { return nil }
func (c *captureTemplates) GlobalContext(any) error                                  { return nil }

func surveyForm() model.Form {
	return model.Form{
		ID:    "survey",
		Title: "Survey",
		Containers: []model.Container{
			{ID: "about", Label: "About you", Elements: []model.Element{
				{ID: "name", Type: model.ElementTypeText, Label: "Name", Required: true},
				{ID: "email", Type: model.ElementTypeEmail},
			}},
			{ID: "taste", Label: "Taste", Elements: []model.Element{
				{ID: "color", Type: model.ElementTypeRadio, Choices: []model.Choice{{Value: "red"}, {Value: "blue"}}},
				{ID: "toppings", Type: model.ElementTypeMultiselect, Choices: []model.Choice{{Value: "ham"}, {Value: "olives"}}},
			}},
			{ID: "done", Label: "Wrap up", Elements: []model.Element{
				{ID: "notes", Type: model.ElementTypeTextarea, Description: `<b>Optional</b><script>alert(1)</script>`},
			}},
		},
	}
}

func newRenderer(t *testing.T, tpl *captureTemplates, opts ...frontend.Option) *frontend.Renderer {
	t.Helper()
	base := []frontend.Option{frontend.WithIssuer(nonce.Static("tok"))}
	if tpl != nil {
		base = append(base, frontend.WithTemplateRenderer(tpl))
	}
	r, err := frontend.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func build(t *testing.T, r *frontend.Renderer, req frontend.Request) frontend.Output {
	t.Helper()
	out, err := r.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return out
}

func progressing(containerID string) *model.Submission {
	return &model.Submission{ID: "s1", FormID: "survey", ContainerID: containerID, Status: model.StatusProgressing}
}

func TestBuild_NavigationPerStep(t *testing.T) {
	r := newRenderer(t, &captureTemplates{})

	tests := []struct {
		container  string
		wantNext   bool
		wantSubmit bool
		wantPrev   bool
	}{
		{"about", true, false, false},
		{"taste", true, false, true},
		{"done", false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.container, func(t *testing.T) {
			out := build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing(tt.container)})
			nav := out.Data.Navigation
			if (nav.NextButton != nil) != tt.wantNext {
				t.Fatalf("next button presence = %v, want %v", nav.NextButton != nil, tt.wantNext)
			}
			if (nav.SubmitButton != nil) != tt.wantSubmit {
				t.Fatalf("submit button presence = %v, want %v", nav.SubmitButton != nil, tt.wantSubmit)
			}
			if (nav.PrevButton != nil) != tt.wantPrev {
				t.Fatalf("prev button presence = %v, want %v", nav.PrevButton != nil, tt.wantPrev)
			}
			if out.Data.CurrentContainer.ID != tt.container {
				t.Fatalf("rendered container %q, want %q", out.Data.CurrentContainer.ID, tt.container)
			}
		})
	}
}

func TestBuild_ButtonAttributes(t *testing.T) {
	r := newRenderer(t, &captureTemplates{})

	first := build(t, r, frontend.Request{Form: surveyForm()}).Data.Navigation
	wantNext := &frontend.Button{
		Label: "Next Step",
		Attrs: frontend.ButtonAttrs{Type: "submit", Name: "formflow_submission[action]", Value: "next", Class: "formflow-button"},
	}
	if diff := cmp.Diff(wantNext, first.NextButton); diff != "" {
		t.Fatalf("next button mismatch (-want +got):\n%s", diff)
	}

	last := build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing("done")}).Data.Navigation
	wantSubmit := &frontend.Button{
		Label: "Submit",
		Attrs: frontend.ButtonAttrs{Type: "submit", Name: "formflow_submission[action]", Value: "submit", Class: "formflow-button formflow-button-primary"},
	}
	if diff := cmp.Diff(wantSubmit, last.SubmitButton); diff != "" {
		t.Fatalf("submit button mismatch (-want +got):\n%s", diff)
	}
	wantPrev := &frontend.Button{
		Label: "Previous Step",
		Attrs: frontend.ButtonAttrs{Type: "submit", Name: "formflow_submission[action]", Value: "prev", Class: "formflow-button"},
	}
	if diff := cmp.Diff(wantPrev, last.PrevButton); diff != "" {
		t.Fatalf("prev button mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SingleContainerHidesTitle(t *testing.T) {
	r := newRenderer(t, &captureTemplates{})
	form := model.Form{ID: "one", Containers: []model.Container{{ID: "only", Label: "Only step"}}}

	out := build(t, r, frontend.Request{Form: form})
	if out.Data.CurrentContainer.Label != "" {
		t.Fatalf("single container title must be hidden, got %q", out.Data.CurrentContainer.Label)
	}
	if out.Data.Navigation.SubmitButton == nil || out.Data.Navigation.NextButton != nil || out.Data.Navigation.PrevButton != nil {
		t.Fatalf("single container shows only submit, got %+v", out.Data.Navigation)
	}

	multi := build(t, r, frontend.Request{Form: surveyForm()})
	if multi.Data.CurrentContainer.Label != "About you" {
		t.Fatalf("multi container title must be shown, got %q", multi.Data.CurrentContainer.Label)
	}
}

func TestBuild_HiddenFields(t *testing.T) {
	r := newRenderer(t, &captureTemplates{})

	fresh := build(t, r, frontend.Request{Form: surveyForm(), PageID: "survey"})
	want := []render.HiddenField{
		{Name: "formflow_submission[nonce]", Value: "tok"},
		{Name: "formflow_submission[form_id]", Value: "survey"},
	}
	if diff := cmp.Diff(want, fresh.Data.HiddenFields); diff != "" {
		t.Fatalf("hidden fields mismatch (-want +got):\n%s", diff)
	}

	embedded := build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing("taste"), PageID: "landing"})
	want = []render.HiddenField{
		{Name: "formflow_submission[nonce]", Value: "tok"},
		{Name: "formflow_submission[form_id]", Value: "survey"},
		{Name: "formflow_submission[id]", Value: "s1"},
		{Name: "formflow_submission[original_page_id]", Value: "landing"},
	}
	if diff := cmp.Diff(want, embedded.Data.HiddenFields); diff != "" {
		t.Fatalf("hidden fields mismatch (-want +got):\n%s", diff)
	}
	if embedded.Data.HiddenFieldsHTML != render.HiddenFieldsMarkup(want) {
		t.Fatalf("hidden markup out of sync: %s", embedded.Data.HiddenFieldsHTML)
	}
}

type recordingIssuer struct{ actions []string }

func (i *recordingIssuer) Issue(action string) string { i.actions = append(i.actions, action); return "t" }
func (i *recordingIssuer) Verify(string, string) bool { return true }

func TestBuild_TokenBoundToSubmission(t *testing.T) {
	issuer := &recordingIssuer{}
	r := newRenderer(t, &captureTemplates{}, frontend.WithIssuer(issuer))

	build(t, r, frontend.Request{Form: surveyForm()})
	build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing("about")})
	if diff := cmp.Diff([]string{"formflow_form_survey_new", "formflow_form_survey_s1"}, issuer.actions); diff != "" {
		t.Fatalf("token actions mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_AccessDeniedSkipsTemplate(t *testing.T) {
	tpl := &captureTemplates{}
	deny := frontend.AccessFunc(func(context.Context, model.Form, *model.Submission) bool { return false })
	r := newRenderer(t, tpl, frontend.WithAccessChecker(deny))

	out, err := r.Render(context.Background(), frontend.Request{Form: surveyForm()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Status != frontend.StatusSkipped || out.HTML != "" || out.Data != nil {
		t.Fatalf("expected skipped output, got %+v", out)
	}
	if len(tpl.calls) != 0 {
		t.Fatalf("template must not be invoked, got %v", tpl.calls)
	}
}

func TestRender_CompletedSubmissionSkips(t *testing.T) {
	tpl := &captureTemplates{}
	r := newRenderer(t, tpl)
	sub := progressing("done")
	sub.Status = model.StatusCompleted

	out, err := r.Render(context.Background(), frontend.Request{Form: surveyForm(), Submission: sub})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Status != frontend.StatusSkipped || out.Data != nil || len(tpl.calls) != 0 {
		t.Fatalf("completed submission must render nothing, got %+v (calls %v)", out, tpl.calls)
	}
}

func TestRender_NoContainerNotice(t *testing.T) {
	tests := map[string]frontend.Request{
		"empty form":   {Form: model.Form{ID: "empty"}},
		"foreign form": {Form: surveyForm(), Submission: &model.Submission{ID: "x", FormID: "other", ContainerID: "about"}},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			tpl := &captureTemplates{}
			r := newRenderer(t, tpl)
			out, err := r.Render(context.Background(), req)
			if err != nil {
				t.Fatalf("configuration problems must not be errors: %v", err)
			}
			want := []frontend.Notice{{Level: frontend.NoticeError, Message: "No container exists for this form."}}
			if out.Status != frontend.StatusNotice {
				t.Fatalf("expected notice status, got %q", out.Status)
			}
			if diff := cmp.Diff(want, out.Notices); diff != "" {
				t.Fatalf("notices mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{frontend.NoticeTemplateName}, tpl.calls); diff != "" {
				t.Fatalf("template calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_UnknownContainerFallsBackToFirst(t *testing.T) {
	r := newRenderer(t, &captureTemplates{})
	out := build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing("gone")})
	if out.Data.CurrentContainer.ID != "about" {
		t.Fatalf("expected first container, got %q", out.Data.CurrentContainer.ID)
	}
}

func TestBuild_ElementViews(t *testing.T) {
	r := newRenderer(t, &captureTemplates{})
	sub := progressing("taste")
	sub.Values = map[string][]string{"color": {"blue"}, "toppings": {"ham", "olives"}}
	sub.Errors = map[string][]string{"color": {"Pick one"}}
	sub.FormErrors = []string{"Please fix the errors below.", " "}

	out := build(t, r, frontend.Request{Form: surveyForm(), Submission: sub})
	elements := out.Data.CurrentContainer.Elements
	if len(elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elements))
	}

	color := elements[0]
	if color.InputName != "formflow_submission[values][color]" || color.Widget != "radio" || color.Value != "blue" || !color.HasErrors {
		t.Fatalf("unexpected color view %+v", color)
	}
	if !color.Choices[1].Selected || color.Choices[0].Selected {
		t.Fatalf("expected blue selected, got %+v", color.Choices)
	}
	toppings := elements[1]
	if toppings.InputName != "formflow_submission[values][toppings][]" || toppings.Widget != "select" || !toppings.Multiple {
		t.Fatalf("unexpected toppings view %+v", toppings)
	}

	want := []frontend.Notice{{Level: frontend.NoticeError, Message: "Please fix the errors below."}}
	if diff := cmp.Diff(want, out.Notices); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SanitizesDescriptions(t *testing.T) {
	r := newRenderer(t, &captureTemplates{})
	out := build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing("done")})
	got := out.Data.CurrentContainer.Elements[0].Description
	if got != "<b>Optional</b>" {
		t.Fatalf("unexpected sanitized description %q", got)
	}
}

func TestBuild_Overrides(t *testing.T) {
	custom := frontend.Overrides{
		ButtonClass:        func(string) string { return "btn" },
		PrimaryButtonClass: func(string) string { return "btn-primary" },
		SubmitLabel: func(formID, current string) string {
			return current + " " + formID
		},
		SubmitBefore: func(string) string { return `<p onclick="x()">Almost done</p>` },
		SubmitAfter:  func(string) string { return `<script>bad()</script><em>thanks</em>` },
		ShowContainerTitle: func(formID, containerID string, show bool) bool {
			return containerID != "done"
		},
	}
	louder := frontend.Overrides{
		SubmitLabel: func(_ string, current string) string { return strings.ToUpper(current) },
	}
	r := newRenderer(t, &captureTemplates{}, frontend.WithOverrides(custom, louder))

	out := build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing("done")})
	submit := out.Data.Navigation.SubmitButton
	if submit.Label != "SUBMIT SURVEY" {
		t.Fatalf("expected chained label, got %q", submit.Label)
	}
	if submit.Attrs.Class != "btn btn-primary" {
		t.Fatalf("unexpected class %q", submit.Attrs.Class)
	}
	if submit.Before != "<p>Almost done</p>" || submit.After != "<em>thanks</em>" {
		t.Fatalf("before/after not sanitized: %q %q", submit.Before, submit.After)
	}
	if out.Data.CurrentContainer.Label != "" {
		t.Fatalf("title override ignored")
	}
	if prev := out.Data.Navigation.PrevButton; prev.Attrs.Class != "btn" {
		t.Fatalf("prev button class %q", prev.Attrs.Class)
	}
}

func TestBuild_LocalizedLabels(t *testing.T) {
	l := render.Localizer{Translator: render.NewMapTranslator(map[string]map[string]string{
		"es": {
			frontend.NextLabelKey: "Siguiente",
			frontend.PrevLabelKey: "Anterior",
		},
	})}
	r := newRenderer(t, &captureTemplates{}, frontend.WithLocalizer(l))

	out := build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing("taste"), Locale: "es"})
	if out.Data.Navigation.NextButton.Label != "Siguiente" || out.Data.Navigation.PrevButton.Label != "Anterior" {
		t.Fatalf("labels not localized: %+v", out.Data.Navigation)
	}
	last := build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing("done"), Locale: "es"})
	if last.Data.Navigation.SubmitButton.Label != "Submit" {
		t.Fatalf("missing translation should fall back, got %q", last.Data.Navigation.SubmitButton.Label)
	}
}

type stubSelector struct {
	selection *theme.Selection
	err       error
}

func (s stubSelector) Select(string, string, ...theme.QueryOption) (*theme.Selection, error) {
	return s.selection, s.err
}

func TestThemeOverrides(t *testing.T) {
	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			frontend.TokenButtonClass:        "acme-btn",
			frontend.TokenPrimaryButtonClass: "acme-btn-primary",
		},
		Variants: map[string]theme.Variant{
			"dark": {Tokens: map[string]string{frontend.TokenPrimaryButtonClass: "acme-btn-dark"}},
		},
	}
	selector := stubSelector{selection: &theme.Selection{Theme: "acme", Variant: "dark", Manifest: manifest}}

	overrides, err := frontend.ThemeOverrides(selector, "acme", "dark")
	if err != nil {
		t.Fatalf("theme overrides: %v", err)
	}
	r := newRenderer(t, &captureTemplates{}, frontend.WithOverrides(overrides))
	out := build(t, r, frontend.Request{Form: surveyForm(), Submission: progressing("done")})
	if got := out.Data.Navigation.SubmitButton.Attrs.Class; got != "acme-btn acme-btn-dark" {
		t.Fatalf("unexpected themed class %q", got)
	}

	if _, err := frontend.ThemeOverrides(stubSelector{err: errors.New("boom")}, "x", ""); err == nil {
		t.Fatalf("expected selector error")
	}
	if o, err := frontend.ThemeOverrides(nil, "x", ""); err != nil || o.ButtonClass != nil {
		t.Fatalf("nil selector must yield empty overrides")
	}
}

func TestNew_RequiresIssuer(t *testing.T) {
	if _, err := frontend.New(); err == nil {
		t.Fatalf("expected error without issuer")
	}
}

func TestRender_EmbeddedTemplates(t *testing.T) {
	r := newRenderer(t, nil)
	sub := progressing("about")
	sub.Values = map[string][]string{"name": {`Ada "the first"`}}
	sub.Errors = map[string][]string{"name": {"Too short"}}

	out, err := r.Render(context.Background(), frontend.Request{Form: surveyForm(), Submission: sub, Action: "/forms/survey"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`<form class="formflow" id="formflow-survey" method="post" action="/forms/survey" novalidate>`,
		`<h2 class="formflow-container-title">About you</h2>`,
		`name="formflow_submission[values][name]" value="Ada &quot;the first&quot;"`,
		`<ul class="formflow-errors" id="name-errors"><li>Too short</li></ul>`,
		`<input type="email" id="formflow-email" name="formflow_submission[values][email]"`,
		`<input type="hidden" name="formflow_submission[id]" value="s1">`,
		`<button type="submit" name="formflow_submission[action]" value="next" class="formflow-button">Next Step</button>`,
	} {
		if !strings.Contains(out.HTML, want) {
			t.Fatalf("rendered form missing %q\n%s", want, out.HTML)
		}
	}
	if strings.Contains(out.HTML, `value="prev"`) || strings.Contains(out.HTML, `value="submit"`) {
		t.Fatalf("first step must only offer next:\n%s", out.HTML)
	}
}

func TestRender_EmbeddedWidgetTemplates(t *testing.T) {
	form := model.Form{
		ID: "widgets",
		Containers: []model.Container{{ID: "all", Label: "Everything", Elements: []model.Element{
			{ID: "intro", Type: model.ElementTypeContent, Label: "Intro", Description: "Welcome"},
			{ID: "color", Type: model.ElementTypeRadio, Choices: []model.Choice{{Value: "red", Label: "Red"}, {Value: "blue", Label: "Blue"}}},
			{ID: "size", Type: model.ElementTypeSelect, Choices: []model.Choice{{Value: "s"}, {Value: "m"}}},
			{ID: "toppings", Type: model.ElementTypeMultiselect, Choices: []model.Choice{{Value: "ham"}, {Value: "olives"}}},
			{ID: "agree", Type: model.ElementTypeCheckbox},
			{ID: "notes", Type: model.ElementTypeTextarea},
		}}},
	}
	sub := &model.Submission{
		ID: "s1", FormID: "widgets", ContainerID: "all", Status: model.StatusProgressing,
		Values: map[string][]string{"color": {"red"}, "toppings": {"olives"}},
		Errors: map[string][]string{"color": {"Pick one"}, "notes": {"Too long"}},
	}

	out, err := newRenderer(t, nil).Render(context.Background(), frontend.Request{Form: form, Submission: sub})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`<div class="formflow-element formflow-element-content"><h3>Intro</h3>Welcome</div>`,
		`<input type="radio" name="formflow_submission[values][color]" value="red" checked> Red</label>`,
		`<ul class="formflow-errors" id="color-errors"><li>Pick one</li></ul>`,
		`<select id="formflow-size" name="formflow_submission[values][size]">`,
		`<select id="formflow-toppings" name="formflow_submission[values][toppings][]" multiple>`,
		`<option value="olives" selected>olives</option>`,
		`<input type="checkbox" id="formflow-agree" name="formflow_submission[values][agree]" value="1">`,
		`<textarea id="formflow-notes" name="formflow_submission[values][notes]"></textarea>`,
		`<ul class="formflow-errors" id="notes-errors"><li>Too long</li></ul>`,
		`value="submit"`,
	} {
		if !strings.Contains(out.HTML, want) {
			t.Fatalf("rendered widgets missing %q\n%s", want, out.HTML)
		}
	}
}

func TestRender_EmbeddedNoticeTemplate(t *testing.T) {
	r := newRenderer(t, nil)
	out, err := r.Render(context.Background(), frontend.Request{Form: model.Form{ID: "empty"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.HTML, `<div class="formflow-notice formflow-notice-error"><p>No container exists for this form.</p></div>`) {
		t.Fatalf("unexpected notice markup %q", out.HTML)
	}
}
