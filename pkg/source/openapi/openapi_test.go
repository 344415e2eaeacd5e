package openapi_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/source/openapi"
)

func TestBuilder_Form(t *testing.T) {
	data, err := os.ReadFile("testdata/signup.yaml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	form, err := openapi.New().Form(context.Background(), data, "createSignup")
	if err != nil {
		t.Fatalf("form: %v", err)
	}

	want := model.Form{
		ID:       "createSignup",
		Title:    "Sign up",
		Metadata: map[string]string{"method": "POST", "path": "/signup"},
		Containers: []model.Container{
			{ID: "account", Label: "Your account", Elements: []model.Element{
				{ID: "name", Label: "Name", Type: model.ElementTypeText, Required: true, Rules: "min=2,max=40"},
				{ID: "email", Label: "Email", Type: model.ElementTypeEmail, Required: true},
			}},
			{ID: "prefs", Label: "Preferences", Elements: []model.Element{
				{ID: "newsletter", Label: "Newsletter", Type: model.ElementTypeCheckbox},
				{ID: "plan", Label: "Plan", Type: model.ElementTypeSelect, Choices: []model.Choice{{Value: "free"}, {Value: "pro"}}},
				{ID: "topics", Label: "Topics", Type: model.ElementTypeMultiselect, Choices: []model.Choice{{Value: "go"}, {Value: "rust"}}},
			}},
			{ID: "main", Label: "Main", Elements: []model.Element{
				{ID: "age", Label: "Age", Type: model.ElementTypeNumber, Rules: "gte=18"},
				{ID: "bio", Label: "Bio", Type: model.ElementTypeTextarea, Rules: "max=1000", Metadata: map[string]string{"pattern": "^[^<>]*$"}},
			}},
		},
	}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_FormsSkipsOperationsWithoutBody(t *testing.T) {
	forms, err := openapi.New().LoadFile(context.Background(), "testdata/signup.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(forms) != 1 || forms[0].ID != "createSignup" {
		t.Fatalf("expected only createSignup, got %d forms", len(forms))
	}
}

func TestBuilder_Errors(t *testing.T) {
	b := openapi.New()
	if _, err := b.Forms(context.Background(), nil); err == nil {
		t.Fatalf("expected empty payload error")
	}
	data, err := os.ReadFile("testdata/signup.yaml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := b.Form(context.Background(), data, "missing"); err == nil {
		t.Fatalf("expected unknown operation error")
	}
	if _, err := b.Form(context.Background(), data, "health"); err == nil {
		t.Fatalf("expected error for operation without body")
	}
}
