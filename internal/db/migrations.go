package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS visit (
		person  INTEGER NOT NULL,
		day     INTEGER NOT NULL,
		purpose TEXT    NOT NULL DEFAULT '',
		status  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (person, day)
	)`,
	`CREATE TABLE IF NOT EXISTS status_message (
		id         INTEGER PRIMARY KEY CHECK (id = 0),
		chat_id    INTEGER NOT NULL,
		message_id INTEGER NOT NULL
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
