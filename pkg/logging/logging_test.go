package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-logr/logr"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log, flush, err := New(Options{Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Info("rendered step", "form", "survey", "container", "about")
	flush()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON entry, got %q: %v", buf.String(), err)
	}
	if entry[MessageKey] != "rendered step" || entry["form"] != "survey" {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if _, ok := entry[TimeStampKey]; !ok {
		t.Fatalf("expected %q key in %#v", TimeStampKey, entry)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, flush, err := New(Options{Level: "error", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Info("hidden")
	flush()
	if buf.Len() != 0 {
		t.Fatalf("info entry should be filtered at error level, got %q", buf.String())
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log, flush, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Info("hello")
	flush()
	if !strings.Contains(buf.String(), "INFO") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.GetSink() != logr.Discard().GetSink() {
		t.Fatalf("expected discard logger without attachment")
	}

	var buf bytes.Buffer
	log, flush, _ := New(Options{Output: &buf})
	ctx := WithLogger(context.Background(), log)
	FromContext(ctx).Info("from ctx")
	flush()
	if !strings.Contains(buf.String(), "from ctx") {
		t.Fatalf("expected context logger to be used, got %q", buf.String())
	}
}
