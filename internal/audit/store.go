// Package audit keeps a local trail of scheduling actions (saves and
// publishes) in sqlite, with retention cleanup and spreadsheet export.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Actions recorded in the trail.
const (
	ActionSave    = "save"
	ActionPublish = "publish"
)

// Event is one recorded scheduling action.
type Event struct {
	ID         string
	OccurredAt time.Time
	Actor      string
	Action     string
	WeekStart  string
	Details    string
}

// Store wraps the sqlite audit database.
type Store struct {
	db *sql.DB
}

// Open opens the audit database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			occurred_at TIMESTAMP NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			week_start TEXT NOT NULL,
			details TEXT
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit tables: %w", err)
	}
	if _, err := db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_audit_week ON audit_events(week_start)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit index: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PingContext verifies the database connection.
func (s *Store) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Record inserts an event. The id and timestamp are filled in when
// empty.
func (s *Store) Record(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, occurred_at, actor, action, week_start, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.OccurredAt, e.Actor, e.Action, e.WeekStart, e.Details,
	)
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// ListByWeek returns events for a week, oldest first.
func (s *Store) ListByWeek(ctx context.Context, weekStart string) ([]Event, error) {
	return s.list(ctx,
		"SELECT id, occurred_at, actor, action, week_start, details FROM audit_events WHERE week_start = ? ORDER BY occurred_at",
		weekStart)
}

// ListAll returns every event, oldest first.
func (s *Store) ListAll(ctx context.Context) ([]Event, error) {
	return s.list(ctx,
		"SELECT id, occurred_at, actor, action, week_start, details FROM audit_events ORDER BY occurred_at")
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Actor, &e.Action, &e.WeekStart, &details); err != nil {
			return nil, err
		}
		if details.Valid {
			e.Details = details.String
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteOldEvents removes events older than the retention duration and
// returns the number deleted.
func (s *Store) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_events WHERE occurred_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old audit events: %w", err)
	}
	return res.RowsAffected()
}
