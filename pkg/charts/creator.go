package charts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/assets"
)

// ErrCreatorNotFound is returned when a creator name is not registered.
var ErrCreatorNotFound = errors.New("charts: creator not found")

// Widget is a creator's rendition of a chart. An empty HTML means the
// creator produced nothing for that chart kind.
type Widget struct {
	Creator string    `json:"creator"`
	Spec    ChartSpec `json:"spec"`
	HTML    string    `json:"html"`
}

// Empty reports whether the widget carries no markup.
func (w Widget) Empty() bool {
	return strings.TrimSpace(w.HTML) == ""
}

// Creator renders chart specs for a particular charting backend.
type Creator interface {
	Name() string
	Title() string
	Description() string
	Bars(title string, dataset Dataset, opts ...BuildOption) (Widget, error)
	Pies(title string, dataset Dataset, opts ...BuildOption) (Widget, error)
	Assets() []assets.Asset
}

// Registry stores creators by name. It is populated at startup and passed by
// reference.
type Registry struct {
	mu       sync.RWMutex
	creators map[string]Creator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{creators: make(map[string]Creator)}
}

// Register adds a creator by its Name(). Duplicate names return an error.
func (r *Registry) Register(creator Creator) error {
	if creator == nil {
		return fmt.Errorf("charts: creator is required")
	}
	name := strings.TrimSpace(creator.Name())
	if name == "" {
		return fmt.Errorf("charts: creator name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.creators[name]; exists {
		return fmt.Errorf("charts: creator %q already registered", name)
	}
	r.creators[name] = creator
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(creator Creator) {
	if err := r.Register(creator); err != nil {
		panic(err)
	}
}

// Get retrieves a creator by name.
func (r *Registry) Get(name string) (Creator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	creator, ok := r.creators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCreatorNotFound, name)
	}
	return creator, nil
}

// List returns the sorted creator names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a creator is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.creators[name]
	return ok
}

// RegisterAssets enqueues every creator's assets in both page contexts.
func (r *Registry) RegisterAssets(reg *assets.Registry) error {
	for _, name := range r.List() {
		creator, err := r.Get(name)
		if err != nil {
			return err
		}
		for _, ctx := range []assets.Context{assets.ContextAdmin, assets.ContextFrontend} {
			if err := reg.Enqueue(ctx, creator.Assets()...); err != nil {
				return fmt.Errorf("charts: creator %q: %w", name, err)
			}
		}
	}
	return nil
}
