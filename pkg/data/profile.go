package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	insertProfileSQL = `INSERT INTO profile (
			handle,
			followers,
			following,
			age_days,
			verified,
			fetched_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET
			followers = ?,
			following = ?,
			age_days = ?,
			verified = ?,
			fetched_at = ?
	`

	selectProfileSQL = `SELECT
			handle,
			followers,
			following,
			age_days,
			verified
		FROM profile
		WHERE handle = ?
	`
)

// Profile is a cached social account snapshot. AgeDays is nil when the
// account creation date was absent or unparseable at fetch time.
type Profile struct {
	Handle    string `json:"handle" yaml:"handle"`
	Followers int64  `json:"followers" yaml:"followers"`
	Following int64  `json:"following" yaml:"following"`
	AgeDays   *int64 `json:"age_days,omitempty" yaml:"ageDays,omitempty"`
	Verified  bool   `json:"verified" yaml:"verified"`
}

// SaveProfile upserts one profile snapshot.
func SaveProfile(db *sql.DB, p *Profile) error {
	if db == nil {
		return errDBNotInitialized
	}
	if p == nil || p.Handle == "" {
		return errors.New("profile with handle is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	age := nullInt(p.AgeDays)

	if _, err := db.Exec(insertProfileSQL,
		p.Handle, p.Followers, p.Following, age, p.Verified, now,
		p.Followers, p.Following, age, p.Verified, now); err != nil {
		return fmt.Errorf("error inserting profile %s: %w", p.Handle, err)
	}

	return nil
}

// GetProfile returns one cached profile, or nil when not cached.
func GetProfile(db *sql.DB, handle string) (*Profile, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if handle == "" {
		return nil, errors.New("handle is required")
	}

	var p Profile
	var age sql.NullInt64
	row := db.QueryRow(selectProfileSQL, handle)
	if err := row.Scan(&p.Handle, &p.Followers, &p.Following, &age, &p.Verified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan profile row: %w", err)
	}
	if age.Valid {
		p.AgeDays = &age.Int64
	}

	return &p, nil
}
