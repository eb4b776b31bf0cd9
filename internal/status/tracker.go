// Package status keeps one externally visible live-status message in sync
// with current occupancy: a Tracker remembers which message is published and
// a Synchronizer re-renders and edits it on a fixed cadence.
package status

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// Message identifies the published live-status message.
type Message struct {
	ChatID    int64
	MessageID int
}

// Tracker owns the identity of the currently published status message. It is
// persisted as a singleton row so the bot resumes editing the same message
// after a restart. Reads come from the poll loop while writes come from
// command handlers, hence the mutex.
type Tracker struct {
	db *sql.DB

	mu        sync.Mutex
	current   Message
	published bool
}

// NewTracker creates a tracker, loading any previously published message id.
func NewTracker(db *sql.DB) (*Tracker, error) {
	t := &Tracker{db: db}

	row := db.QueryRow("SELECT chat_id, message_id FROM status_message WHERE id = 0")
	switch err := row.Scan(&t.current.ChatID, &t.current.MessageID); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("loading status message: %w", err)
	default:
		t.published = true
	}

	return t, nil
}

// Current returns the tracked message, if one is published.
func (t *Tracker) Current() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.published
}

// Publish records m as the live status message, replacing any previous one.
func (t *Tracker) Publish(ctx context.Context, m Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO status_message (id, chat_id, message_id) VALUES (0, ?, ?)",
		m.ChatID, m.MessageID,
	); err != nil {
		return fmt.Errorf("saving status message: %w", err)
	}

	t.current = m
	t.published = true
	return nil
}

// Unpublish stops tracking the live status message. The message itself is
// left alone.
func (t *Tracker) Unpublish(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.db.ExecContext(ctx,
		"DELETE FROM status_message WHERE id = 0",
	); err != nil {
		return fmt.Errorf("clearing status message: %w", err)
	}

	t.current = Message{}
	t.published = false
	return nil
}
