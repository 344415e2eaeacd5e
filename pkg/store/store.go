// Package store persists submissions. Stores hand out clones so callers can
// mutate what they read without racing other requests.
package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-formflow/pkg/model"
)

var (
	// ErrNotFound is returned when a submission id is unknown.
	ErrNotFound = errors.New("store: submission not found")
	// ErrConflict is returned when creating a submission whose id exists.
	ErrConflict = errors.New("store: submission already exists")
	// ErrFinalized is returned when updating a submission that is already
	// completed. Completed submissions are immutable.
	ErrFinalized = errors.New("store: submission already completed")
	// ErrInvalid is returned for submissions without an id or form id.
	ErrInvalid = errors.New("store: submission requires id and form id")
)

// Submissions is the persistence contract used by the flow processor, the
// HTTP surface and result aggregation.
type Submissions interface {
	Create(ctx context.Context, sub *model.Submission) error
	Get(ctx context.Context, id string) (*model.Submission, error)
	// Update fails with ErrFinalized when the stored row is completed.
	Update(ctx context.Context, sub *model.Submission) error
	// ListByForm returns the form's submissions oldest first.
	ListByForm(ctx context.Context, formID string) ([]*model.Submission, error)
}

// Check validates the fields every store requires.
func Check(sub *model.Submission) error {
	if sub == nil || sub.ID == "" || sub.FormID == "" {
		return ErrInvalid
	}
	return nil
}
