// Package sqlstore persists submissions in SQLite through sqlx, with queries
// built by go-sqlbuilder.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/store"
)

// DriverName is the database/sql driver used by Open.
const DriverName = "sqlite"

const submissionsTable = "formflow_submissions"

var schema = []string{`
CREATE TABLE IF NOT EXISTS formflow_submissions (
	id               TEXT PRIMARY KEY,
	form_id          TEXT NOT NULL,
	container_id     TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	values_json      TEXT,
	errors_json      TEXT,
	form_errors_json TEXT,
	owner_key        TEXT NOT NULL DEFAULT '',
	page_id          TEXT NOT NULL DEFAULT '',
	created_at       TEXT,
	updated_at       TEXT,
	completed_at     TEXT
)`,
	`CREATE INDEX IF NOT EXISTS formflow_submissions_form ON formflow_submissions (form_id, created_at)`,
}

// SubmissionRow is the database row of a submission.
type SubmissionRow struct {
	ID          string                    `db:"id"`
	FormID      string                    `db:"form_id"`
	ContainerID string                    `db:"container_id"`
	Status      string                    `db:"status"`
	Values      JSON[map[string][]string] `db:"values_json"`
	Errors      JSON[map[string][]string] `db:"errors_json"`
	FormErrors  JSON[[]string]            `db:"form_errors_json"`
	OwnerKey    string                    `db:"owner_key"`
	PageID      string                    `db:"page_id"`
	CreatedAt   Timestamp                 `db:"created_at"`
	UpdatedAt   Timestamp                 `db:"updated_at"`
	CompletedAt Timestamp                 `db:"completed_at"`
}

var submissionStruct = sqlbuilder.NewStruct(new(SubmissionRow)).For(sqlbuilder.SQLite)

// FromSubmission converts a submission to its row.
func FromSubmission(sub *model.Submission) *SubmissionRow {
	row := &SubmissionRow{
		ID:          sub.ID,
		FormID:      sub.FormID,
		ContainerID: sub.ContainerID,
		Status:      string(sub.Status),
		Values:      JSON[map[string][]string]{Data: sub.Values},
		Errors:      JSON[map[string][]string]{Data: sub.Errors},
		FormErrors:  JSON[[]string]{Data: sub.FormErrors},
		OwnerKey:    sub.OwnerKey,
		PageID:      sub.PageID,
		CreatedAt:   Timestamp{Time: sub.CreatedAt},
		UpdatedAt:   Timestamp{Time: sub.UpdatedAt},
	}
	if sub.CompletedAt != nil {
		row.CompletedAt = Timestamp{Time: *sub.CompletedAt}
	}
	return row
}

// ToSubmission converts a row to a submission.
func ToSubmission(row *SubmissionRow) *model.Submission {
	sub := &model.Submission{
		ID:          row.ID,
		FormID:      row.FormID,
		ContainerID: row.ContainerID,
		Status:      model.SubmissionStatus(row.Status),
		Values:      row.Values.Data,
		Errors:      row.Errors.Data,
		FormErrors:  row.FormErrors.Data,
		OwnerKey:    row.OwnerKey,
		PageID:      row.PageID,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
	if !row.CompletedAt.Time.IsZero() {
		completed := row.CompletedAt.Time
		sub.CompletedAt = &completed
	}
	return sub
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Store) {
		s.logger = log
	}
}

// Store implements store.Submissions on SQLite.
type Store struct {
	db     *sqlx.DB
	logger logr.Logger
}

var _ store.Submissions = (*Store)(nil)

// Open connects to dsn with the pure Go SQLite driver and bootstraps the
// schema. ":memory:" opens a private in-memory database.
func Open(ctx context.Context, dsn string, options ...Option) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("sqlstore: dsn is required")
	}
	db, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %q: %w", dsn, err)
	}
	// SQLite allows a single writer; an in-memory database also lives
	// inside one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s, err := New(ctx, db, options...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection and bootstraps the schema.
func New(ctx context.Context, db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is required")
	}
	s := &Store{db: db, logger: logr.Discard()}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("sqlstore: bootstrap schema: %w", err)
		}
	}
	return s, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, sub *model.Submission) error {
	if err := store.Check(sub); err != nil {
		return err
	}
	ib := submissionStruct.InsertInto(submissionsTable, FromSubmission(sub))
	query, args := ib.Build()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", store.ErrConflict, sub.ID)
		}
		s.logger.Error(err, "create submission failed", "id", sub.ID, "form", sub.FormID)
		return fmt.Errorf("sqlstore: create submission %q: %w", sub.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.Submission, error) {
	sb := submissionStruct.SelectFrom(submissionsTable)
	sb.Where(sb.Equal("id", id))
	query, args := sb.Build()

	var row SubmissionRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("sqlstore: get submission %q: %w", id, err)
	}
	return ToSubmission(&row), nil
}

func (s *Store) Update(ctx context.Context, sub *model.Submission) error {
	if err := store.Check(sub); err != nil {
		return err
	}
	ub := submissionStruct.Update(submissionsTable, FromSubmission(sub))
	ub.Where(
		ub.Equal("id", sub.ID),
		ub.NotEqual("status", string(model.StatusCompleted)),
	)
	query, args := ub.Build()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.Error(err, "update submission failed", "id", sub.ID)
		return fmt.Errorf("sqlstore: update submission %q: %w", sub.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: update submission %q: %w", sub.ID, err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, sub.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %q", store.ErrFinalized, sub.ID)
	}
	return nil
}

func (s *Store) ListByForm(ctx context.Context, formID string) ([]*model.Submission, error) {
	sb := submissionStruct.SelectFrom(submissionsTable)
	sb.Where(sb.Equal("form_id", formID))
	sb.OrderBy("created_at", "id")
	query, args := sb.Build()

	var rows []SubmissionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sqlstore: list submissions for %q: %w", formID, err)
	}
	out := make([]*model.Submission, len(rows))
	for i := range rows {
		out[i] = ToSubmission(&rows[i])
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed: unique")
}
