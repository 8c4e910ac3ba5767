package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome values recorded for command events.
const (
	OutcomeOpened       = "opened"
	OutcomeFailed       = "failed"
	OutcomeExpired      = "session_expired"
	OutcomeRateLimited  = "rate_limited"
	OutcomeUnauthorized = "unauthorized"
	OutcomeStatus       = "status"
	OutcomeUnknown      = "unknown_command"
)

// CommandEvent is one audited webhook or CLI decision.
type CommandEvent struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Command   string    `json:"command"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the audit database.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection (shared with tests and the CLI).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordEvent inserts an audit event and returns it with ID and timestamp set.
func (s *Store) RecordEvent(ctx context.Context, sender, command, outcome, detail string) (CommandEvent, error) {
	event := CommandEvent{
		ID:        uuid.New().String(),
		Sender:    sender,
		Command:   command,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_events (id, sender, command, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.Sender, event.Command, event.Outcome, event.Detail, event.CreatedAt.Unix(),
	)
	if err != nil {
		return CommandEvent{}, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// ListEvents returns the most recent events, newest first.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]CommandEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender, command, outcome, COALESCE(detail, ''), created_at
		 FROM command_events
		 ORDER BY created_at DESC, id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []CommandEvent
	for rows.Next() {
		var e CommandEvent
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Sender, &e.Command, &e.Outcome, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEventsSince returns how many events a sender generated since the cutoff.
func (s *Store) CountEventsSince(ctx context.Context, sender string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM command_events WHERE sender = ? AND created_at >= ?`,
		sender, since.Unix(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
