// Package openapi builds multi-step forms from the request bodies of OpenAPI
// operations.
//
// Each body property becomes an element. Properties are assigned to a
// container with the x-formflow-step extension, ordered by x-formflow-order
// then name. The body schema may list containers with x-formflow-steps,
// either as [{id, label}] or as a map of id to label; listed containers come
// first in list order.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/source"
)

// Extension keys read from schemas.
const (
	ExtStep   = "x-formflow-step"
	ExtSteps  = "x-formflow-steps"
	ExtOrder  = "x-formflow-order"
	ExtWidget = "x-formflow-widget"
)

// DefaultStep holds properties without x-formflow-step.
const DefaultStep = "main"

// textareaThreshold turns long strings into textareas.
const textareaThreshold = 255

var mediaTypes = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}

// Option configures a Builder.
type Option func(*Builder)

// WithExternalRefs allows $ref to other documents.
func WithExternalRefs(allowed bool) Option {
	return func(b *Builder) {
		b.externalRefs = allowed
	}
}

// WithValidation validates the document before building forms.
func WithValidation(enabled bool) Option {
	return func(b *Builder) {
		b.validate = enabled
	}
}

// Builder converts OpenAPI operations to forms.
type Builder struct {
	externalRefs bool
	validate     bool
}

// New constructs a Builder.
func New(options ...Option) *Builder {
	b := &Builder{}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// LoadFile reads a document from disk and builds a form for every operation
// with an object request body.
func (b *Builder) LoadFile(ctx context.Context, path string) ([]model.Form, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	return b.Forms(ctx, data)
}

// Forms builds a form for every operation with an object request body,
// ordered by form id.
func (b *Builder) Forms(ctx context.Context, data []byte) ([]model.Form, error) {
	doc, err := b.load(ctx, data)
	if err != nil {
		return nil, err
	}
	var out []model.Form
	for _, op := range operations(doc) {
		if requestSchema(op.operation) == nil {
			continue
		}
		form, err := buildForm(op)
		if err != nil {
			return nil, err
		}
		out = append(out, form)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Form builds the form for a single operation id.
func (b *Builder) Form(ctx context.Context, data []byte, operationID string) (model.Form, error) {
	doc, err := b.load(ctx, data)
	if err != nil {
		return model.Form{}, err
	}
	for _, op := range operations(doc) {
		if op.id == operationID {
			return buildForm(op)
		}
	}
	return model.Form{}, fmt.Errorf("openapi: operation %q not found", operationID)
}

func (b *Builder) load(ctx context.Context, data []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: b.externalRefs}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if b.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return doc, nil
}

type operation struct {
	id        string
	method    string
	path      string
	operation *openapi3.Operation
}

func operations(doc *openapi3.T) []operation {
	if doc.Paths == nil {
		return nil
	}
	var out []operation
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			out = append(out, operation{id: id, method: method, path: path, operation: op})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range mediaTypes {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return objectOrNil(mt.Schema.Value)
		}
	}
	return nil
}

func objectOrNil(schema *openapi3.Schema) *openapi3.Schema {
	if len(schema.Properties) == 0 {
		return nil
	}
	return schema
}

type property struct {
	name  string
	order float64
	step  string
	value *openapi3.Schema
}

func buildForm(op operation) (model.Form, error) {
	schema := requestSchema(op.operation)
	if schema == nil {
		return model.Form{}, fmt.Errorf("openapi: operation %q has no object request body", op.id)
	}

	title := strings.TrimSpace(op.operation.Summary)
	if title == "" {
		title = model.Humanize(op.id)
	}
	form := model.Form{
		ID:    op.id,
		Title: title,
		Metadata: map[string]string{
			"method": op.method,
			"path":   op.path,
		},
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	props := make([]property, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref == nil || ref.Value == nil || ref.Value.ReadOnly {
			continue
		}
		order, _ := number(ref.Value.Extensions[ExtOrder])
		step, _ := ref.Value.Extensions[ExtStep].(string)
		step = strings.TrimSpace(step)
		if step == "" {
			step = DefaultStep
		}
		props = append(props, property{name: name, order: order, step: step, value: ref.Value})
	}
	sort.Slice(props, func(i, j int) bool {
		if props[i].order != props[j].order {
			return props[i].order < props[j].order
		}
		return props[i].name < props[j].name
	})

	containers, index := declaredSteps(schema.Extensions[ExtSteps])
	for _, prop := range props {
		idx, ok := index[prop.step]
		if !ok {
			idx = len(containers)
			index[prop.step] = idx
			containers = append(containers, model.Container{ID: prop.step, Label: model.Humanize(prop.step)})
		}
		_, isRequired := required[prop.name]
		containers[idx].Elements = append(containers[idx].Elements, element(prop, isRequired))
	}

	for _, container := range containers {
		if len(container.Elements) > 0 {
			form.Containers = append(form.Containers, container)
		}
	}
	if err := source.Check(form); err != nil {
		return model.Form{}, fmt.Errorf("openapi: operation %q: %w", op.id, err)
	}
	return form, nil
}

func declaredSteps(raw any) ([]model.Container, map[string]int) {
	index := make(map[string]int)
	var out []model.Container
	add := func(id, label string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, exists := index[id]; exists {
			return
		}
		if strings.TrimSpace(label) == "" {
			label = model.Humanize(id)
		}
		index[id] = len(out)
		out = append(out, model.Container{ID: id, Label: label})
	}

	switch steps := raw.(type) {
	case []any:
		for _, item := range steps {
			switch step := item.(type) {
			case string:
				add(step, "")
			case map[string]any:
				id, _ := step["id"].(string)
				label, _ := step["label"].(string)
				add(id, label)
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(steps))
		for key := range steps {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			label, _ := steps[key].(string)
			add(key, label)
		}
	}
	return out, index
}

func element(prop property, required bool) model.Element {
	schema := prop.value
	label := strings.TrimSpace(schema.Title)
	if label == "" {
		label = model.Humanize(prop.name)
	}
	el := model.Element{
		ID:          prop.name,
		Label:       label,
		Description: schema.Description,
		Required:    required,
		Type:        elementType(schema),
	}

	switch {
	case len(schema.Enum) > 0:
		el.Choices = choices(schema.Enum)
	case schema.Items != nil && schema.Items.Value != nil && len(schema.Items.Value.Enum) > 0:
		el.Choices = choices(schema.Items.Value.Enum)
	}

	var rules []string
	if schema.MinLength > 0 {
		rules = append(rules, "min="+strconv.FormatUint(schema.MinLength, 10))
	}
	if schema.MaxLength != nil {
		rules = append(rules, "max="+strconv.FormatUint(*schema.MaxLength, 10))
	}
	if schema.Min != nil {
		rules = append(rules, "gte="+strconv.FormatFloat(*schema.Min, 'f', -1, 64))
	}
	if schema.Max != nil {
		rules = append(rules, "lte="+strconv.FormatFloat(*schema.Max, 'f', -1, 64))
	}
	el.Rules = strings.Join(rules, ",")

	if schema.Pattern != "" {
		el.Metadata = map[string]string{"pattern": schema.Pattern}
	}
	return el
}

func elementType(schema *openapi3.Schema) model.ElementType {
	if widget, ok := schema.Extensions[ExtWidget].(string); ok && strings.TrimSpace(widget) != "" {
		return model.ElementType(strings.TrimSpace(widget))
	}
	switch {
	case schema.Type.Is(openapi3.TypeBoolean):
		return model.ElementTypeCheckbox
	case schema.Type.Is(openapi3.TypeInteger), schema.Type.Is(openapi3.TypeNumber):
		if len(schema.Enum) > 0 {
			return model.ElementTypeSelect
		}
		return model.ElementTypeNumber
	case schema.Type.Is(openapi3.TypeArray):
		return model.ElementTypeMultiselect
	}
	switch {
	case len(schema.Enum) > 0:
		return model.ElementTypeSelect
	case schema.Format == "email":
		return model.ElementTypeEmail
	case schema.MaxLength != nil && *schema.MaxLength > textareaThreshold:
		return model.ElementTypeTextarea
	}
	return model.ElementTypeText
}

func choices(values []any) []model.Choice {
	out := make([]model.Choice, 0, len(values))
	for _, value := range values {
		out = append(out, model.Choice{Value: fmt.Sprint(value)})
	}
	return out
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return parsed, err == nil
	}
	return 0, false
}
