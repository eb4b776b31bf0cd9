package visit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RetentionDays is how long visit records are kept after their day passes.
const RetentionDays = 30

// Store provides CRUD operations for visit records.
type Store struct {
	db *sql.DB
}

// NewStore creates a visit store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetVisits returns all visits with day in the inclusive range [from, to].
func (s *Store) GetVisits(ctx context.Context, from, to Day) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT person, day, purpose, status FROM visit WHERE day >= ? AND day <= ?",
		int64(from), int64(to),
	)
	if err != nil {
		return nil, fmt.Errorf("querying visits: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var visits []Visit
	for rows.Next() {
		var (
			person, day, status int64
			purpose             string
		)
		if err := rows.Scan(&person, &day, &purpose, &status); err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		visits = append(visits, Visit{
			Person:  Uid(person),
			Day:     Day(day),
			Purpose: purpose,
			Status:  StatusFromCode(status),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visits: %w", err)
	}

	return visits, nil
}

// UpsertVisit inserts or updates the record for (update.Person, update.Day).
// It reports whether a change worth announcing happened: a new record always
// is, an update only when the status actually changed. A purpose-only edit is
// persisted but reported as false, so silent edits don't spam the channel.
//
// The read and the conditional write run in one transaction; concurrent
// upserts for the same (person, day) serialize on it.
func (s *Store) UpsertVisit(ctx context.Context, update Update) (changed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		existingPurpose string
		existingStatus  int64
	)
	row := tx.QueryRowContext(ctx,
		"SELECT purpose, status FROM visit WHERE person = ? AND day = ?",
		int64(update.Person), int64(update.Day),
	)
	switch err := row.Scan(&existingPurpose, &existingStatus); {
	case errors.Is(err, sql.ErrNoRows):
		purpose := ""
		if update.Purpose != nil {
			purpose = *update.Purpose
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO visit (person, day, purpose, status) VALUES (?, ?, ?, ?)",
			int64(update.Person), int64(update.Day), purpose, update.Status.Code(),
		); err != nil {
			return false, fmt.Errorf("inserting visit: %w", err)
		}
		changed = true
	case err != nil:
		return false, fmt.Errorf("reading visit: %w", err)
	default:
		shouldUpdateStatus := update.Status != StatusFromCode(existingStatus)
		shouldUpdatePurpose := update.Purpose != nil
		if shouldUpdateStatus || shouldUpdatePurpose {
			purpose := existingPurpose
			if update.Purpose != nil {
				purpose = *update.Purpose
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE visit SET purpose = ?, status = ? WHERE person = ? AND day = ?",
				purpose, update.Status.Code(), int64(update.Person), int64(update.Day),
			); err != nil {
				return false, fmt.Errorf("updating visit: %w", err)
			}
		}
		changed = shouldUpdateStatus
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing visit: %w", err)
	}

	return changed, nil
}

// DeleteVisit removes the record for (person, day) and reports whether a row
// was actually removed. Deleting a missing record is not an error.
func (s *Store) DeleteVisit(ctx context.Context, person Uid, day Day) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM visit WHERE person = ? AND day = ?",
		int64(person), int64(day),
	)
	if err != nil {
		return false, fmt.Errorf("deleting visit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}

	return rows > 0, nil
}

// CheckOutEverybody sets every record on the given day to CheckedOut,
// regardless of prior status. Purposes are untouched.
func (s *Store) CheckOutEverybody(ctx context.Context, day Day) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE visit SET status = ? WHERE day = ?",
		CheckedOut.Code(), int64(day),
	); err != nil {
		return fmt.Errorf("checking out everybody: %w", err)
	}
	return nil
}

// Cleanup deletes every record older than the retention window relative to
// now. A record exactly RetentionDays old is kept.
func (s *Store) Cleanup(ctx context.Context, now Day) error {
	cutoff := int64(now) - RetentionDays
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM visit WHERE day < ?", cutoff,
	); err != nil {
		return fmt.Errorf("cleaning up visits: %w", err)
	}
	return nil
}
