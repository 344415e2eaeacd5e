// Package testsupport holds fixture and golden file helpers shared by the
// package tests.
package testsupport

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/model"
)

// UpdateEnv enables rewriting golden files instead of comparing them.
const UpdateEnv = "UPDATE_GOLDENS"

// MustLoadForm decodes a YAML (or JSON) form fixture as-is, without the
// normalization the source package applies.
func MustLoadForm(t *testing.T, path string) model.Form {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read form fixture: %v", err)
	}
	var form model.Form
	if err := yaml.Unmarshal(data, &form); err != nil {
		t.Fatalf("decode form fixture %s: %v", path, err)
	}
	if err := form.Validate(); err != nil {
		t.Fatalf("form fixture %s: %v", path, err)
	}
	return form
}

// Golden compares got with the golden file at path. With UPDATE_GOLDENS set
// the file is rewritten instead.
func Golden(t *testing.T, path, got string) {
	t.Helper()

	if os.Getenv(UpdateEnv) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
		return
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if diff := cmp.Diff(string(want), got); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", filepath.Base(path), diff)
	}
}

// CaptureTemplateOutput runs a render function that also writes to an
// io.Writer and returns both the result and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
