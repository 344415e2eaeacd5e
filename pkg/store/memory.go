package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Memory keeps submissions in process. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*model.Submission
}

var _ Submissions = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]*model.Submission)}
}

func (m *Memory) Create(ctx context.Context, sub *model.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Check(sub); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[sub.ID]; exists {
		return fmt.Errorf("%w: %q", ErrConflict, sub.ID)
	}
	m.items[sub.ID] = sub.Clone()
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return sub.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, sub *model.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Check(sub); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[sub.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, sub.ID)
	}
	if existing.Completed() {
		return fmt.Errorf("%w: %q", ErrFinalized, sub.ID)
	}
	m.items[sub.ID] = sub.Clone()
	return nil
}

func (m *Memory) ListByForm(ctx context.Context, formID string) ([]*model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]*model.Submission, 0)
	for _, sub := range m.items {
		if sub.FormID == formID {
			out = append(out, sub.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
