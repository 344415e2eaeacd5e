// Package assets keeps track of the stylesheets and scripts a page needs and
// serves the ones formflow ships.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"strings"
	"sync"
)

//go:embed static/*
var embeddedStatic embed.FS

const (
	// C3GlueScript turns a serialized chart spec into a c3 chart.
	C3GlueScript = "formflow-c3.js"
	// Stylesheet is the default stylesheet for rendered steps.
	Stylesheet = "formflow.css"
)

// FS exposes the embedded static files so callers can serve them over HTTP.
func FS() fs.FS {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return embeddedStatic
	}
	return sub
}

// Kind distinguishes stylesheets from scripts.
type Kind string

const (
	KindStyle  Kind = "style"
	KindScript Kind = "script"
)

// Context is the page family an asset is enqueued for.
type Context string

const (
	ContextAdmin    Context = "admin"
	ContextFrontend Context = "frontend"
)

// Asset is one stylesheet or script. Deps name handles that must be emitted
// first.
type Asset struct {
	Handle string   `json:"handle"`
	Kind   Kind     `json:"kind"`
	URL    string   `json:"url"`
	Deps   []string `json:"deps,omitempty"`
}

// Style is shorthand for a stylesheet asset.
func Style(handle, url string, deps ...string) Asset {
	return Asset{Handle: handle, Kind: KindStyle, URL: url, Deps: deps}
}

// Script is shorthand for a script asset.
func Script(handle, url string, deps ...string) Asset {
	return Asset{Handle: handle, Kind: KindScript, URL: url, Deps: deps}
}

// Registry collects assets per context. The first enqueue of a handle wins.
type Registry struct {
	mu       sync.RWMutex
	contexts map[Context][]Asset
	handles  map[Context]map[string]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		contexts: make(map[Context][]Asset),
		handles:  make(map[Context]map[string]struct{}),
	}
}

// Enqueue adds assets to ctx, skipping handles that are already present.
func (r *Registry) Enqueue(ctx Context, assets ...Asset) error {
	if r == nil {
		return errors.New("assets: registry is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handles[ctx] == nil {
		r.handles[ctx] = make(map[string]struct{})
	}
	for _, asset := range assets {
		asset.Handle = strings.TrimSpace(asset.Handle)
		if asset.Handle == "" {
			return errors.New("assets: handle is required")
		}
		if asset.Kind != KindStyle && asset.Kind != KindScript {
			return fmt.Errorf("assets: %q has unknown kind %q", asset.Handle, asset.Kind)
		}
		if strings.TrimSpace(asset.URL) == "" {
			return fmt.Errorf("assets: %q has no url", asset.Handle)
		}
		if _, exists := r.handles[ctx][asset.Handle]; exists {
			continue
		}
		r.handles[ctx][asset.Handle] = struct{}{}
		asset.Deps = append([]string(nil), asset.Deps...)
		r.contexts[ctx] = append(r.contexts[ctx], asset)
	}
	return nil
}

// Assets returns the assets for ctx with every dependency ahead of its
// dependents. Unrelated assets keep their enqueue order.
func (r *Registry) Assets(ctx Context) ([]Asset, error) {
	if r == nil {
		return nil, nil
	}
	r.mu.RLock()
	queued := append([]Asset(nil), r.contexts[ctx]...)
	r.mu.RUnlock()

	byHandle := make(map[string]Asset, len(queued))
	for _, asset := range queued {
		byHandle[asset.Handle] = asset
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(queued))
	out := make([]Asset, 0, len(queued))

	var visit func(handle string, path []string) error
	visit = func(handle string, path []string) error {
		switch state[handle] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("assets: dependency cycle %s", strings.Join(append(path, handle), " -> "))
		}
		asset, ok := byHandle[handle]
		if !ok {
			return fmt.Errorf("assets: %q depends on unknown handle %q", path[len(path)-1], handle)
		}
		state[handle] = visiting
		for _, dep := range asset.Deps {
			if err := visit(dep, append(path, handle)); err != nil {
				return err
			}
		}
		state[handle] = done
		out = append(out, asset)
		return nil
	}

	for _, asset := range queued {
		if err := visit(asset.Handle, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Markup renders the context's assets as tags: stylesheets first, then
// scripts, each group in dependency order.
func (r *Registry) Markup(ctx Context) (string, error) {
	ordered, err := r.Assets(ctx)
	if err != nil {
		return "", err
	}

	var styles, scripts strings.Builder
	for _, asset := range ordered {
		url := html.EscapeString(asset.URL)
		id := html.EscapeString(asset.Handle)
		switch asset.Kind {
		case KindStyle:
			fmt.Fprintf(&styles, `<link rel="stylesheet" id="%s-css" href="%s">`+"\n", id, url)
		case KindScript:
			fmt.Fprintf(&scripts, `<script id="%s-js" src="%s"></script>`+"\n", id, url)
		}
	}
	return styles.String() + scripts.String(), nil
}
