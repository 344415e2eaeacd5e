package frontend

import (
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
)

// Request describes one step render. PageID is the page embedding the form,
// if any; it is carried back so the processor can redirect there.
type Request struct {
	Form       model.Form
	Submission *model.Submission
	PageID     string
	Locale     string
	// Action is the URL the step posts to. Empty posts to the current URL.
	Action string
}

// Status tells the caller what a render produced.
type Status string

const (
	// StatusRendered means HTML holds the step.
	StatusRendered Status = "rendered"
	// StatusSkipped means a precondition suppressed all output.
	StatusSkipped Status = "skipped"
	// StatusNotice means only notices were produced.
	StatusNotice Status = "notice"
)

// Notice levels.
const (
	NoticeError = "error"
	NoticeInfo  = "info"
)

// Notice is a user-visible message shown above the step.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Output is the result of a render.
type Output struct {
	Status  Status
	HTML    string
	Notices []Notice
	Data    *TemplateData
}

// ButtonAttrs are the attributes of a navigation button.
type ButtonAttrs struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
	Class string `json:"class"`
}

// Button is a navigation button. Before and After are sanitized markup
// printed around the submit button.
type Button struct {
	Label  string      `json:"label"`
	Attrs  ButtonAttrs `json:"attrs"`
	Before string      `json:"before,omitempty"`
	After  string      `json:"after,omitempty"`
}

// Navigation holds the buttons of the active step. Exactly one of
// NextButton and SubmitButton is set.
type Navigation struct {
	NextButton   *Button `json:"next_button,omitempty"`
	SubmitButton *Button `json:"submit_button,omitempty"`
	PrevButton   *Button `json:"prev_button,omitempty"`
}

// TemplateData is handed to the "form" template.
type TemplateData struct {
	Form             model.FormView       `json:"form"`
	Action           string               `json:"action"`
	Locale           string               `json:"locale"`
	HiddenFields     []render.HiddenField `json:"hidden_fields"`
	HiddenFieldsHTML string               `json:"hidden_fields_html"`
	Navigation       Navigation           `json:"navigation"`
	Step             model.Navigation     `json:"step"`
	CurrentContainer model.ContainerView  `json:"current_container"`
	Notices          []Notice             `json:"notices,omitempty"`
}
