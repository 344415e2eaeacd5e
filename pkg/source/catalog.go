package source

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Catalog holds forms by id. It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	forms map[string]model.Form
}

// NewCatalog returns a catalog seeded with forms.
func NewCatalog(forms ...model.Form) (*Catalog, error) {
	c := &Catalog{forms: make(map[string]model.Form)}
	if err := c.Add(forms...); err != nil {
		return nil, err
	}
	return c, nil
}

// Add validates and stores forms. Ids must be unique across the catalog.
func (c *Catalog) Add(forms ...model.Form) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, form := range forms {
		if err := Check(form); err != nil {
			return err
		}
		if _, exists := c.forms[form.ID]; exists {
			return fmt.Errorf("source: form %q already registered", form.ID)
		}
		c.forms[form.ID] = form
	}
	return nil
}

// Get returns the form with id.
func (c *Catalog) Get(id string) (model.Form, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	form, ok := c.forms[id]
	return form, ok
}

// List returns every form ordered by id.
func (c *Catalog) List() []model.Form {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Form, 0, len(c.forms))
	for _, form := range c.forms {
		out = append(out, form)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports how many forms are registered.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.forms)
}
