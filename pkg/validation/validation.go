// Package validation checks the values posted for a container against the
// constraints implied by each element and the validator tags in
// Element.Rules.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
)

// Default messages, keyed by the validator tag that produced them. Messages
// with a %s verb receive the tag parameter.
var defaultMessages = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"numeric":  "Enter a number.",
	"number":   "Enter a number.",
	"choice":   "Select a valid choice.",
	"single":   "Select only one value.",
	"min":      "Enter at least %s characters.",
	"max":      "Enter at most %s characters.",
	"len":      "Enter exactly %s characters.",
	"gte":      "Enter a value greater than or equal to %s.",
	"lte":      "Enter a value less than or equal to %s.",
	"gt":       "Enter a value greater than %s.",
	"lt":       "Enter a value less than %s.",
	"oneof":    "Enter one of: %s.",
	"url":      "Enter a valid URL.",
	"alpha":    "Use letters only.",
	"alphanum": "Use letters and digits only.",
	"rule":     "This field has an invalid validation rule.",
}

const fallbackMessage = "Enter a valid value."

// MessageKeyPrefix namespaces the translation keys for validation messages,
// e.g. "formflow.validation.required".
const MessageKeyPrefix = "formflow.validation."

// Option configures a Validator.
type Option func(*Validator)

// WithLocalizer translates messages.
func WithLocalizer(l render.Localizer) Option {
	return func(v *Validator) {
		v.localizer = l
	}
}

// WithValidate replaces the underlying go-playground validator, for example
// to register custom tags usable from Element.Rules.
func WithValidate(validate *validator.Validate) Option {
	return func(v *Validator) {
		if validate != nil {
			v.validate = validate
		}
	}
}

// Validator validates container submissions. It is safe for concurrent use.
type Validator struct {
	validate  *validator.Validate
	localizer render.Localizer
	locale    string
}

// New constructs a Validator.
func New(options ...Option) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// ForLocale returns a copy of v that translates messages for locale.
func (v *Validator) ForLocale(locale string) *Validator {
	out := *v
	out.locale = strings.TrimSpace(locale)
	return &out
}

// ValidateContainer validates the values posted for every element of the
// container. The result maps element ids to their messages and is empty when
// everything passed.
func (v *Validator) ValidateContainer(container model.Container, values map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for _, element := range container.Elements {
		if messages := v.ValidateElement(element, values[element.ID]); len(messages) > 0 {
			out[element.ID] = messages
		}
	}
	return out
}

// ValidateElement validates the values posted for a single element.
func (v *Validator) ValidateElement(element model.Element, values []string) []string {
	if element.Type == model.ElementTypeContent {
		return nil
	}

	present := nonBlank(values)
	if len(present) == 0 {
		if element.Required {
			return []string{v.message("required", "")}
		}
		return nil
	}

	var messages []string
	if !element.Multiple() && len(present) > 1 {
		messages = append(messages, v.message("single", ""))
	}

	switch element.Type {
	case model.ElementTypeEmail:
		messages = append(messages, v.check(anySlice(present), "email")...)
	case model.ElementTypeNumber:
		messages = append(messages, v.check(anySlice(present), "numeric")...)
	}

	if len(element.Choices) > 0 && element.Type != model.ElementTypeCheckbox {
		allowed := make(map[string]struct{}, len(element.Choices))
		for _, choice := range element.Choices {
			allowed[choice.Value] = struct{}{}
		}
		for _, value := range present {
			if _, ok := allowed[value]; !ok {
				messages = append(messages, v.message("choice", ""))
				break
			}
		}
	}

	if rules := strings.TrimSpace(element.Rules); rules != "" {
		if element.Type == model.ElementTypeNumber {
			messages = append(messages, v.check(numbers(present), rules)...)
		} else {
			messages = append(messages, v.check(anySlice(present), rules)...)
		}
	}
	return render.NormalizeMessages(messages)
}

// CheckRules reports whether tag is a usable validator tag string.
func (v *Validator) CheckRules(tag string) error {
	if strings.TrimSpace(tag) == "" {
		return nil
	}
	err := v.safeVar("", tag)
	var invalid ruleError
	if errors.As(err, &invalid) {
		return fmt.Errorf("validation: rules %q: %w", tag, err)
	}
	return nil
}

func (v *Validator) check(values []any, tag string) []string {
	var messages []string
	for _, value := range values {
		err := v.safeVar(value, tag)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				messages = append(messages, v.message(fe.Tag(), fe.Param()))
			}
			continue
		}
		messages = append(messages, v.message("rule", ""))
	}
	return messages
}

type ruleError struct{ reason string }

func (e ruleError) Error() string { return e.reason }

// safeVar runs validator.Var, turning the panic raised for unknown tags into
// an error.
func (v *Validator) safeVar(value any, tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ruleError{reason: fmt.Sprint(r)}
		}
	}()
	return v.validate.Var(value, tag)
}

func (v *Validator) message(tag, param string) string {
	template, ok := defaultMessages[tag]
	if !ok {
		template = fallbackMessage
	}
	fallback := template
	if strings.Contains(template, "%s") {
		fallback = fmt.Sprintf(template, param)
	}
	if param == "" {
		return v.localizer.Text(v.locale, MessageKeyPrefix+tag, fallback)
	}
	return v.localizer.Text(v.locale, MessageKeyPrefix+tag, fallback, param)
}

// numbers parses values so numeric rules such as gte compare magnitudes
// rather than lengths. Unparsable values are left to the "number" check.
func numbers(values []string) []any {
	out := make([]any, 0, len(values))
	for _, value := range values {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			out = append(out, parsed)
		}
	}
	return out
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}

func nonBlank(values []string) []string {
	var out []string
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			out = append(out, value)
		}
	}
	return out
}
