package render

import (
	"fmt"
	"html"
	"strings"
)

// HiddenField is a hidden input emitted alongside the visible step.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// Token returns the hidden field carrying an anti-forgery token. Blank
// tokens still produce the field so a missing token fails verification
// instead of dropping the parameter.
func Token(name, token string) HiddenField {
	return Hidden(name, strings.TrimSpace(token))
}

// FieldName builds a bracketed request parameter name under prefix, e.g.
// FieldName("formflow_submission", "values", "email") returns
// "formflow_submission[values][email]".
func FieldName(prefix string, path ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prefix))
	for _, segment := range path {
		b.WriteString("[")
		b.WriteString(strings.TrimSpace(segment))
		b.WriteString("]")
	}
	return b.String()
}

// MergeHiddenFields returns a copy of base with the provided fields applied.
// Empty names are ignored; later fields win on name collisions while the
// first position of a name is preserved.
func MergeHiddenFields(base []HiddenField, fields ...HiddenField) []HiddenField {
	if len(base) == 0 && len(fields) == 0 {
		return nil
	}
	out := make([]HiddenField, 0, len(base)+len(fields))
	index := make(map[string]int, len(base)+len(fields))
	for _, field := range append(append([]HiddenField(nil), base...), fields...) {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		field.Name = name
		if pos, exists := index[name]; exists {
			out[pos] = field
			continue
		}
		index[name] = len(out)
		out = append(out, field)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// HiddenFieldsMarkup renders the fields as escaped <input type="hidden">
// elements in the order given.
func HiddenFieldsMarkup(fields []HiddenField) string {
	var b strings.Builder
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		b.WriteString(`<input type="hidden" name="`)
		b.WriteString(html.EscapeString(field.Name))
		b.WriteString(`" value="`)
		b.WriteString(html.EscapeString(field.Value))
		b.WriteString(`">`)
	}
	return b.String()
}

// DefaultPrefix namespaces every request parameter a step posts.
const DefaultPrefix = "formflow_submission"

// FieldNames derives the request parameter names shared by the step
// renderer and the submission processor.
type FieldNames struct {
	Prefix string
}

func (n FieldNames) prefix() string {
	if p := strings.TrimSpace(n.Prefix); p != "" {
		return p
	}
	return DefaultPrefix
}

func (n FieldNames) Nonce() string          { return FieldName(n.prefix(), "nonce") }
func (n FieldNames) FormID() string         { return FieldName(n.prefix(), "form_id") }
func (n FieldNames) SubmissionID() string   { return FieldName(n.prefix(), "id") }
func (n FieldNames) OriginalPageID() string { return FieldName(n.prefix(), "original_page_id") }
func (n FieldNames) Action() string         { return FieldName(n.prefix(), "action") }

// Value is the parameter an element posts under. Multi-valued elements get a
// trailing "[]".
func (n FieldNames) Value(elementID string, multiple bool) string {
	name := FieldName(n.prefix(), "values", elementID)
	if multiple {
		name += "[]"
	}
	return name
}
