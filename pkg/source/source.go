// Package source loads form definitions and keeps them in a catalog.
//
// A YAML document holds either a single form:
//
//	id: survey
//	containers:
//	  - id: about
//	    elements:
//	      - {id: name, type: text, required: true}
//
// or a list under "forms:".
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
)

var knownTypes = map[model.ElementType]struct{}{
	model.ElementTypeText:        {},
	model.ElementTypeTextarea:    {},
	model.ElementTypeEmail:       {},
	model.ElementTypeNumber:      {},
	model.ElementTypeCheckbox:    {},
	model.ElementTypeRadio:       {},
	model.ElementTypeSelect:      {},
	model.ElementTypeMultiselect: {},
	model.ElementTypeContent:     {},
}

var rulesChecker = validation.New()

type document struct {
	Forms []model.Form `yaml:"forms"`
}

// Parse decodes one YAML document into forms and validates each one.
func Parse(data []byte) ([]model.Form, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("source: document is empty")
	}

	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("source: decode: %w", err)
	}

	var forms []model.Form
	if _, ok := probe["forms"]; ok {
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("source: decode forms: %w", err)
		}
		forms = doc.Forms
	} else {
		var form model.Form
		if err := yaml.Unmarshal(data, &form); err != nil {
			return nil, fmt.Errorf("source: decode form: %w", err)
		}
		forms = []model.Form{form}
	}

	for idx := range forms {
		normalize(&forms[idx])
		if err := Check(forms[idx]); err != nil {
			return nil, err
		}
	}
	return forms, nil
}

// Check validates a form's structure, element types and rules.
func Check(form model.Form) error {
	if err := form.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	for _, element := range form.Elements() {
		if _, ok := knownTypes[element.Type]; !ok {
			return fmt.Errorf("source: form %q element %q: unknown type %q", form.ID, element.ID, element.Type)
		}
		if err := rulesChecker.CheckRules(element.Rules); err != nil {
			return fmt.Errorf("source: form %q element %q: %w", form.ID, element.ID, err)
		}
	}
	return nil
}

// LoadFile parses the forms in a YAML file.
func LoadFile(path string) ([]model.Form, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	forms, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return forms, nil
}

// LoadFS parses every file in fsys matching pattern, in name order.
func LoadFS(fsys fs.FS, pattern string) ([]model.Form, error) {
	if fsys == nil {
		return nil, errors.New("source: filesystem is required")
	}
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("source: glob %q: %w", pattern, err)
	}
	sort.Strings(names)

	var out []model.Form
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("source: read %s: %w", name, err)
		}
		forms, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, forms...)
	}
	return out, nil
}

// normalize fills element types left blank in hand-written documents.
func normalize(form *model.Form) {
	for cidx := range form.Containers {
		for eidx := range form.Containers[cidx].Elements {
			element := &form.Containers[cidx].Elements[eidx]
			if element.Type != "" {
				continue
			}
			if len(element.Choices) > 0 {
				element.Type = model.ElementTypeSelect
			} else {
				element.Type = model.ElementTypeText
			}
		}
	}
}
