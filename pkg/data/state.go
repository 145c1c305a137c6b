package data

import (
	"database/sql"
	"errors"
	"fmt"
)

const (
	insertStateSQL = `INSERT INTO state (kind, subject, next_offset) VALUES (?, ?, ?)
		ON CONFLICT(kind, subject) DO UPDATE SET next_offset = ?
	`

	selectStateSQL = `SELECT next_offset FROM state WHERE kind = ? AND subject = ?`

	deleteStateSQL = `DELETE FROM state WHERE kind = ? AND subject = ?`
)

// GetOffset returns the saved import offset for a kind/subject, or 0
// when no import was started.
func GetOffset(db *sql.DB, kind, subject string) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	row := db.QueryRow(selectStateSQL, kind, subject)

	var offset sql.NullInt64
	if err := row.Scan(&offset); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan state row: %w", err)
	}

	return int(offset.Int64), nil
}

// SaveOffset records the import offset for a kind/subject so the next
// run can resume where this one stopped.
func SaveOffset(db *sql.DB, kind, subject string, offset int) error {
	if db == nil {
		return errDBNotInitialized
	}

	if kind == "" || subject == "" {
		return fmt.Errorf("kind: %s and subject: %s are both required", kind, subject)
	}

	if _, err := db.Exec(insertStateSQL, kind, subject, offset, offset); err != nil {
		return fmt.Errorf("failed to insert state: %w", err)
	}

	return nil
}

// ClearOffset removes the saved offset, marking the import complete.
func ClearOffset(db *sql.DB, kind, subject string) error {
	if db == nil {
		return errDBNotInitialized
	}

	if _, err := db.Exec(deleteStateSQL, kind, subject); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}

	return nil
}
