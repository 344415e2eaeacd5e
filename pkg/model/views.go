package model

// FormView is the display representation of a form handed to templates.
type FormView struct {
	ID             string            `json:"id"`
	Title          string            `json:"title,omitempty"`
	Slug           string            `json:"slug,omitempty"`
	ContainerCount int               `json:"container_count"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ContainerView is the display representation of a container. Elements is
// filled by the caller so submission state can be merged per element.
type ContainerView struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Elements []ElementView `json:"elements"`
}

// ChoiceView marks whether a choice is part of the current submission.
type ChoiceView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// ElementView is the display representation of an element, including the
// submitted values and validation errors when a submission exists.
type ElementView struct {
	ID          string            `json:"id"`
	Type        ElementType       `json:"type"`
	Label       string            `json:"label"`
	Description string            `json:"description,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Required    bool              `json:"required"`
	InputName   string            `json:"input_name"`
	Multiple    bool              `json:"multiple"`
	Value       string            `json:"value"`
	Values      []string          `json:"values,omitempty"`
	Choices     []ChoiceView      `json:"choices,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
	HasErrors   bool              `json:"has_errors"`
	Widget      string            `json:"widget,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// View returns the form's display representation.
func (f Form) View() FormView {
	return FormView{
		ID:             f.ID,
		Title:          f.Title,
		Slug:           f.Slug,
		ContainerCount: len(f.Containers),
		Metadata:       copyStringMap(f.Metadata),
	}
}

// View returns the container's display representation without elements.
func (c Container) View() ContainerView {
	return ContainerView{
		ID:       c.ID,
		Label:    c.Label,
		Elements: []ElementView{},
	}
}

// Multiple reports whether the element accepts more than one value.
func (e Element) Multiple() bool {
	return e.Type == ElementTypeMultiselect
}

// View returns the element's display representation. inputName is the
// request parameter the element posts under; sub may be nil.
func (e Element) View(inputName string, sub *Submission) ElementView {
	label := e.Label
	if label == "" {
		label = Humanize(e.ID)
	}
	view := ElementView{
		ID:          e.ID,
		Type:        e.Type,
		Label:       label,
		Description: e.Description,
		Placeholder: e.Placeholder,
		Required:    e.Required,
		InputName:   inputName,
		Multiple:    e.Multiple(),
		Metadata:    copyStringMap(e.Metadata),
	}

	var values []string
	if sub != nil {
		values = append(values, sub.Values[e.ID]...)
		if errs := sub.Errors[e.ID]; len(errs) > 0 {
			view.Errors = append([]string(nil), errs...)
			view.HasErrors = true
		}
	}
	if len(values) > 0 {
		view.Value = values[0]
		view.Values = values
	}

	if len(e.Choices) > 0 {
		selected := make(map[string]struct{}, len(values))
		for _, value := range values {
			selected[value] = struct{}{}
		}
		view.Choices = make([]ChoiceView, 0, len(e.Choices))
		for _, choice := range e.Choices {
			choiceLabel := choice.Label
			if choiceLabel == "" {
				choiceLabel = choice.Value
			}
			_, isSelected := selected[choice.Value]
			view.Choices = append(view.Choices, ChoiceView{
				Value:    choice.Value,
				Label:    choiceLabel,
				Selected: isSelected,
			})
		}
	}
	return view
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
