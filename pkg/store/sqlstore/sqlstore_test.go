package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/store/sqlstore"
)

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)

	sub := &model.Submission{
		ID:          "s1",
		FormID:      "survey",
		ContainerID: "about",
		Status:      model.StatusProgressing,
		Values:      map[string][]string{"name": {"Ada"}, "toppings": {"ham", "olives"}},
		Errors:      map[string][]string{"email": {"Enter a valid email address."}},
		FormErrors:  []string{"Please fix the errors below."},
		OwnerKey:    "owner-1",
		PageID:      "landing",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, s.Create(ctx, sub))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	completed := created.Add(time.Minute)
	got.Status = model.StatusCompleted
	got.ContainerID = "done"
	got.Errors = nil
	got.FormErrors = nil
	got.CompletedAt = &completed
	got.UpdatedAt = completed
	require.NoError(t, s.Update(ctx, got))

	again, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.True(t, again.Completed())
}

func TestStore_ListByFormOrdered(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for _, sub := range []*model.Submission{
		{ID: "late", FormID: "survey", Status: model.StatusProgressing, CreatedAt: base.Add(time.Hour)},
		{ID: "early", FormID: "survey", Status: model.StatusCompleted, CreatedAt: base},
		{ID: "other", FormID: "other", Status: model.StatusProgressing, CreatedAt: base},
	} {
		require.NoError(t, s.Create(ctx, sub))
	}

	list, err := s.ListByForm(ctx, "survey")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "early", list[0].ID)
	assert.Equal(t, "late", list[1].ID)

	empty, err := s.ListByForm(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_CompletedIsFinal(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, &model.Submission{
		ID: "s1", FormID: "survey", ContainerID: "taste", Status: model.StatusProgressing,
		CreatedAt: created, UpdatedAt: created,
	}))

	first, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	stale, err := s.Get(ctx, "s1")
	require.NoError(t, err)

	completed := created.Add(time.Minute)
	first.Status = model.StatusCompleted
	first.CompletedAt = &completed
	require.NoError(t, s.Update(ctx, first))

	stale.ContainerID = "about"
	require.ErrorIs(t, s.Update(ctx, stale), store.ErrFinalized)

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Completed())
	assert.Equal(t, "taste", got.ContainerID)
	require.NotNil(t, got.CompletedAt)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	sub := &model.Submission{ID: "dup", FormID: "f", Status: model.StatusProgressing}
	require.NoError(t, s.Create(ctx, sub))
	assert.ErrorIs(t, s.Create(ctx, sub), store.ErrConflict)
	assert.ErrorIs(t, s.Update(ctx, &model.Submission{ID: "ghost", FormID: "f"}), store.ErrNotFound)
	assert.ErrorIs(t, s.Create(ctx, &model.Submission{FormID: "f"}), store.ErrInvalid)

	_, err = sqlstore.Open(ctx, " ")
	assert.Error(t, err)
}
