package console_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/console"
	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/nonce"
	"github.com/goliatone/go-formflow/pkg/store"
)

type stubDriver struct {
	inputs    []string
	selects   []int
	multis    [][]int
	confirms  []bool
	textAreas []string
	info      []string
	prompts   []string
}

func (s *stubDriver) Input(_ context.Context, cfg console.InputConfig) (string, error) {
	s.prompts = append(s.prompts, "input:"+cfg.Message)
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[0]
	s.inputs = s.inputs[1:]
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg console.ConfirmConfig) (bool, error) {
	s.prompts = append(s.prompts, "confirm:"+cfg.Message)
	if len(s.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirms[0]
	s.confirms = s.confirms[1:]
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg console.SelectConfig) (int, error) {
	s.prompts = append(s.prompts, "select:"+cfg.Message)
	if len(s.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	val := s.selects[0]
	s.selects = s.selects[1:]
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg console.SelectConfig) ([]int, error) {
	s.prompts = append(s.prompts, "multi:"+cfg.Message)
	if len(s.multis) == 0 {
		return nil, errors.New("no multi-select scripted")
	}
	val := s.multis[0]
	s.multis = s.multis[1:]
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg console.TextAreaConfig) (string, error) {
	s.prompts = append(s.prompts, "textarea:"+cfg.Message)
	if len(s.textAreas) == 0 {
		return "", errors.New("no text scripted")
	}
	val := s.textAreas[0]
	s.textAreas = s.textAreas[1:]
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

func surveyForm() model.Form {
	return model.Form{
		ID: "survey",
		Containers: []model.Container{
			{ID: "about", Label: "About you", Elements: []model.Element{
				{ID: "intro", Type: model.ElementTypeContent, Description: "Tell us about yourself."},
				{ID: "name", Type: model.ElementTypeText, Required: true},
			}},
			{ID: "taste", Label: "Taste", Elements: []model.Element{
				{ID: "color", Type: model.ElementTypeRadio, Choices: []model.Choice{{Value: "red", Label: "Red"}, {Value: "blue", Label: "Blue"}}},
				{ID: "toppings", Type: model.ElementTypeMultiselect, Choices: []model.Choice{{Value: "ham"}, {Value: "olives"}}},
				{ID: "notes", Type: model.ElementTypeTextarea},
				{ID: "agree", Type: model.ElementTypeCheckbox, Required: true},
			}},
		},
	}
}

func newWalker(t *testing.T, driver console.PromptDriver, opts ...console.Option) (*console.Walker, *store.Memory) {
	t.Helper()
	subs := store.NewMemory()
	issuer := nonce.Static("tok")
	processor, err := flow.New(subs, issuer)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	walker, err := console.New(processor, issuer, append([]console.Option{console.WithPromptDriver(driver)}, opts...)...)
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	return walker, subs
}

func TestWalk_CompletesForm(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada"},
		selects:   []int{1, 0},
		multis:    [][]int{{1}},
		textAreas: []string{"none"},
		confirms:  []bool{true},
	}
	walker, subs := newWalker(t, driver, console.WithOwnerKey("cli"))

	sub, err := walker.Walk(context.Background(), surveyForm())
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if !sub.Completed() {
		t.Fatalf("expected completed submission, got %q", sub.Status)
	}
	want := map[string][]string{
		"name":     {"Ada"},
		"color":    {"blue"},
		"toppings": {"olives"},
		"notes":    {"none"},
		"agree":    {console.CheckedValue},
	}
	if diff := cmp.Diff(want, sub.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	stored, err := subs.Get(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.OwnerKey != "cli" {
		t.Fatalf("expected owner key to be stored, got %q", stored.OwnerKey)
	}
	if driver.info[0] != "[1/2] About you" || driver.info[1] != "Tell us about yourself." {
		t.Fatalf("unexpected info lines: %q", driver.info)
	}
	if last := driver.prompts[len(driver.prompts)-1]; last != "select:Continue" {
		t.Fatalf("expected navigation prompt last, got %q", last)
	}
}

func TestWalk_RepeatsInvalidStepWithErrors(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"", "Ada"},
		selects:   []int{0, 0},
		multis:    [][]int{nil},
		textAreas: []string{""},
		confirms:  []bool{true},
	}
	walker, _ := newWalker(t, driver)

	sub, err := walker.Walk(context.Background(), surveyForm())
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if !sub.Completed() {
		t.Fatalf("expected completion after retry")
	}
	joined := strings.Join(driver.info, "\n")
	if !strings.Contains(joined, "! "+flow.MessageFixErrors) {
		t.Fatalf("expected form error line, got %q", driver.info)
	}
	if !strings.Contains(joined, "! Name: This field is required.") {
		t.Fatalf("expected element error line, got %q", driver.info)
	}
}

func TestWalk_GoesBack(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada", "Grace"},
		selects:   []int{0, 1, 0, 0},
		multis:    [][]int{nil, nil},
		textAreas: []string{"", ""},
		confirms:  []bool{false, true},
	}
	walker, _ := newWalker(t, driver)

	sub, err := walker.Walk(context.Background(), surveyForm())
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if got := sub.Value("name"); got != "Grace" {
		t.Fatalf("expected name to be re-asked after going back, got %q", got)
	}
}

func TestWalk_GivesUpAfterAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"", ""}}
	walker, _ := newWalker(t, driver, console.WithMaxAttempts(2))

	_, err := walker.Walk(context.Background(), surveyForm())
	if !errors.Is(err, console.ErrNoProgress) {
		t.Fatalf("expected ErrNoProgress, got %v", err)
	}
}

func TestWalk_EmptyForm(t *testing.T) {
	walker, _ := newWalker(t, &stubDriver{})
	if _, err := walker.Walk(context.Background(), model.Form{ID: "empty"}); !errors.Is(err, model.ErrNoContainers) {
		t.Fatalf("expected ErrNoContainers, got %v", err)
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := console.New(nil, nonce.Static("x")); err == nil {
		t.Fatalf("expected processor error")
	}
	processor, err := flow.New(store.NewMemory(), nonce.Static("x"))
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	if _, err := console.New(processor, nil); err == nil {
		t.Fatalf("expected issuer error")
	}
}
