package render

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrMissingTranslator is passed to the missing-translation handler when no
// Translator was configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides what string is shown when a key cannot be
// translated. err is ErrMissingTranslator when no translator is configured.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// DefaultMissingTranslation returns the fallback carried in args (a
// map[string]any with a "default" entry) or the key itself.
func DefaultMissingTranslation(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		params, ok := arg.(map[string]any)
		if !ok {
			continue
		}
		if fallback, ok := params["default"].(string); ok && strings.TrimSpace(fallback) != "" {
			return fallback
		}
	}
	return key
}

// Localizer pairs a Translator with a missing-translation policy. The zero
// value returns fallbacks untouched.
type Localizer struct {
	Translator Translator
	OnMissing  MissingTranslationHandler
}

// Text translates key, returning fallback when the key is unknown.
func (l Localizer) Text(locale, key, fallback string, args ...any) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	onMissing := l.OnMissing
	if onMissing == nil {
		onMissing = DefaultMissingTranslation
	}
	params := append([]any{map[string]any{"default": fallback}}, args...)

	if l.Translator == nil {
		return onMissing(locale, key, params, ErrMissingTranslator)
	}
	result, err := l.Translator.Translate(locale, key, args...)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, params, err)
}

// TemplateFuncs exposes the localizer to templates as
// translate(locale, key, fallback) and current_locale(locale).
func (l Localizer) TemplateFuncs() map[string]any {
	return map[string]any{
		"translate": func(locale, key string, fallback ...string) string {
			return l.Text(locale, key, strings.Join(fallback, " "))
		},
		"current_locale": func(locale string) string {
			return strings.TrimSpace(locale)
		},
	}
}

// MapTranslator is an in-memory catalog keyed by locale then message key.
// Lookups fall back from "pt-BR" to "pt" before failing. Messages may contain
// fmt verbs that are filled from the translation args.
type MapTranslator struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
}

// NewMapTranslator builds a translator seeded with catalog.
func NewMapTranslator(catalog map[string]map[string]string) *MapTranslator {
	t := &MapTranslator{messages: make(map[string]map[string]string)}
	for locale, entries := range catalog {
		t.Add(locale, entries)
	}
	return t
}

// Add merges entries into the catalog for locale.
func (t *MapTranslator) Add(locale string, entries map[string]string) {
	locale = normalizeLocale(locale)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.messages[locale] == nil {
		t.messages[locale] = make(map[string]string, len(entries))
	}
	for key, msg := range entries {
		t.messages[locale][key] = msg
	}
}

// Translate implements Translator.
func (t *MapTranslator) Translate(locale, key string, args ...any) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, candidate := range localeCandidates(locale) {
		msg, ok := t.messages[candidate][key]
		if !ok {
			continue
		}
		if len(args) > 0 && strings.Contains(msg, "%") {
			return fmt.Sprintf(msg, args...), nil
		}
		return msg, nil
	}
	return "", fmt.Errorf("render: no translation for %q in locale %q", key, locale)
}

// LoadTranslations reads a YAML catalog of locale -> key -> message.
func LoadTranslations(path string) (*MapTranslator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: read translations: %w", err)
	}
	var catalog map[string]map[string]string
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("render: decode translations %s: %w", path, err)
	}
	return NewMapTranslator(catalog), nil
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{""}
	}
	out := []string{locale}
	if base, _, found := strings.Cut(locale, "-"); found {
		out = append(out, base)
	}
	return out
}
