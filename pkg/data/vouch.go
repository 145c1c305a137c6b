package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	insertVouchSQL = `INSERT INTO vouch (
			id,
			voucher_profile_id,
			subject_profile_id,
			voucher_handle,
			subject_handle,
			voucher_score,
			subject_score,
			updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			voucher_profile_id = ?,
			subject_profile_id = ?,
			voucher_handle = ?,
			subject_handle = ?,
			voucher_score = ?,
			subject_score = ?,
			updated_at = ?
	`

	selectVouchersForSubjectSQL = `SELECT
			id,
			voucher_profile_id,
			subject_profile_id,
			COALESCE(voucher_handle, ''),
			COALESCE(subject_handle, ''),
			voucher_score,
			subject_score
		FROM vouch
		WHERE subject_handle = ?
		ORDER BY id
	`

	selectVouchSubjectsSQL = `SELECT DISTINCT subject_handle
		FROM vouch
		WHERE subject_handle IS NOT NULL AND subject_handle != ''
		ORDER BY subject_handle
	`
)

// Vouch is a cached vouch row with the resolved handles and Ethos
// scores of both sides.
type Vouch struct {
	ID               int64  `json:"id" yaml:"id"`
	VoucherProfileID int64  `json:"voucher_profile_id" yaml:"voucherProfileId"`
	SubjectProfileID int64  `json:"subject_profile_id" yaml:"subjectProfileId"`
	VoucherHandle    string `json:"voucher_handle,omitempty" yaml:"voucherHandle,omitempty"`
	SubjectHandle    string `json:"subject_handle,omitempty" yaml:"subjectHandle,omitempty"`
	VoucherScore     int64  `json:"voucher_score" yaml:"voucherScore"`
	SubjectScore     int64  `json:"subject_score" yaml:"subjectScore"`
}

// SaveVouches upserts the given vouches in a single transaction.
func SaveVouches(db *sql.DB, vouches []*Vouch) error {
	if db == nil {
		return errDBNotInitialized
	}

	if len(vouches) == 0 {
		return nil
	}

	stmt, err := db.Prepare(insertVouchSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare vouch insert statement: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	for i, v := range vouches {
		if _, err = tx.Stmt(stmt).Exec(
			v.ID, v.VoucherProfileID, v.SubjectProfileID, v.VoucherHandle,
			v.SubjectHandle, v.VoucherScore, v.SubjectScore, now,
			v.VoucherProfileID, v.SubjectProfileID, v.VoucherHandle,
			v.SubjectHandle, v.VoucherScore, v.SubjectScore, now); err != nil {
			slog.Error("failed to insert vouch",
				"index", i,
				"error", err,
				"id", v.ID,
				"voucher", v.VoucherHandle,
				"subject", v.SubjectHandle,
			)
			rollbackTransaction(tx)
			return fmt.Errorf("error inserting vouch[%d]: %d: %w", i, v.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetVouchersForSubject returns all cached vouches received by the
// given subject handle.
func GetVouchersForSubject(db *sql.DB, subject string) ([]*Vouch, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if subject == "" {
		return nil, errors.New("subject is required")
	}

	rows, err := db.Query(selectVouchersForSubjectSQL, subject)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute vouch select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*Vouch, 0)
	for rows.Next() {
		var v Vouch
		if err := rows.Scan(&v.ID, &v.VoucherProfileID, &v.SubjectProfileID,
			&v.VoucherHandle, &v.SubjectHandle, &v.VoucherScore, &v.SubjectScore); err != nil {
			return nil, fmt.Errorf("failed to scan vouch row: %w", err)
		}
		list = append(list, &v)
	}

	return list, nil
}

// GetVouchSubjects returns the distinct subject handles with cached
// vouches.
func GetVouchSubjects(db *sql.DB) ([]string, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectVouchSubjectsSQL)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute vouch subject select statement: %w", err)
	}
	defer rows.Close()

	list := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, s)
	}

	if len(list) > 0 {
		slog.Debug("vouch subjects", "count", len(list))
	}

	return list, nil
}
