package model

import "time"

// ElementType is the simplified enum for the input kinds a container can hold.
type ElementType string

const (
	ElementTypeText        ElementType = "text"
	ElementTypeTextarea    ElementType = "textarea"
	ElementTypeEmail       ElementType = "email"
	ElementTypeNumber      ElementType = "number"
	ElementTypeCheckbox    ElementType = "checkbox"
	ElementTypeRadio       ElementType = "radio"
	ElementTypeSelect      ElementType = "select"
	ElementTypeMultiselect ElementType = "multiselect"
	ElementTypeContent     ElementType = "content"
)

// Choice is a selectable option for radio, select and multiselect elements.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Element is a single field definition. Rules carries additional
// go-playground/validator tags (for example "min=3,max=40") that are applied
// on top of the constraints implied by Type and Required.
type Element struct {
	ID          string            `json:"id" yaml:"id"`
	Type        ElementType       `json:"type" yaml:"type"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Rules       string            `json:"rules,omitempty" yaml:"rules,omitempty"`
	Choices     []Choice          `json:"choices,omitempty" yaml:"choices,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Container is one step of a multi-step form.
type Container struct {
	ID       string    `json:"id" yaml:"id"`
	Label    string    `json:"label,omitempty" yaml:"label,omitempty"`
	Elements []Element `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// Form is the top-level definition renderers consume. Containers are ordered;
// the first one is where new submissions start.
type Form struct {
	ID         string            `json:"id" yaml:"id"`
	Title      string            `json:"title,omitempty" yaml:"title,omitempty"`
	Slug       string            `json:"slug,omitempty" yaml:"slug,omitempty"`
	Containers []Container       `json:"containers,omitempty" yaml:"containers,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SubmissionStatus tracks where a submission is in its lifecycle.
type SubmissionStatus string

const (
	StatusProgressing SubmissionStatus = "progressing"
	StatusCompleted   SubmissionStatus = "completed"
)

// Submission is one respondent's answer set for a form. Values and Errors are
// keyed by element id; FormErrors holds messages that do not belong to a
// single element.
type Submission struct {
	ID          string              `json:"id"`
	FormID      string              `json:"form_id"`
	ContainerID string              `json:"container_id,omitempty"`
	Status      SubmissionStatus    `json:"status"`
	Values      map[string][]string `json:"values,omitempty"`
	Errors      map[string][]string `json:"errors,omitempty"`
	FormErrors  []string            `json:"form_errors,omitempty"`
	OwnerKey    string              `json:"-"`
	PageID      string              `json:"page_id,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// Completed reports whether the submission has been finalized. A nil
// submission is never completed.
func (s *Submission) Completed() bool {
	return s != nil && s.Status == StatusCompleted
}

// Value returns the first submitted value for the element.
func (s *Submission) Value(elementID string) string {
	if s == nil || len(s.Values[elementID]) == 0 {
		return ""
	}
	return s.Values[elementID][0]
}

// HasErrors reports whether any element or form level error is recorded.
func (s *Submission) HasErrors() bool {
	if s == nil {
		return false
	}
	return len(s.Errors) > 0 || len(s.FormErrors) > 0
}

// Clone returns a deep copy so stores can hand out submissions without
// sharing maps with their internal state.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	out := *s
	out.Values = cloneValues(s.Values)
	out.Errors = cloneValues(s.Errors)
	if len(s.FormErrors) > 0 {
		out.FormErrors = append([]string(nil), s.FormErrors...)
	}
	if s.CompletedAt != nil {
		completed := *s.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}

func cloneValues(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for key, values := range in {
		out[key] = append([]string(nil), values...)
	}
	return out
}
