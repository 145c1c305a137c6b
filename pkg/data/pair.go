package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	insertPairSQL = `INSERT INTO pair (
			voucher_handle,
			subject_handle,
			voucher_mentions,
			subject_mentions,
			voucher_follows,
			subject_follows,
			fetched_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(voucher_handle, subject_handle) DO UPDATE SET
			voucher_mentions = ?,
			subject_mentions = ?,
			voucher_follows = ?,
			subject_follows = ?,
			fetched_at = ?
	`

	selectPairSQL = `SELECT
			voucher_handle,
			subject_handle,
			voucher_mentions,
			subject_mentions,
			voucher_follows,
			subject_follows
		FROM pair
		WHERE voucher_handle = ? AND subject_handle = ?
	`

	selectPairsForSubjectSQL = `SELECT
			voucher_handle,
			subject_handle,
			voucher_mentions,
			subject_mentions,
			voucher_follows,
			subject_follows
		FROM pair
		WHERE subject_handle = ?
		ORDER BY voucher_handle
	`

	insertPairScoreSQL = `INSERT INTO pair_score (
			voucher_handle,
			subject_handle,
			relationship,
			credibility,
			tier,
			bidirectional,
			flags,
			scored_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(voucher_handle, subject_handle) DO UPDATE SET
			relationship = ?,
			credibility = ?,
			tier = ?,
			bidirectional = ?,
			flags = ?,
			scored_at = ?
	`

	selectPairScoresForSubjectSQL = `SELECT
			voucher_handle,
			subject_handle,
			relationship,
			credibility,
			tier,
			bidirectional,
			COALESCE(flags, '')
		FROM pair_score
		WHERE subject_handle = ?
		ORDER BY relationship DESC, voucher_handle
	`

	selectPairScoresByTierSQL = `SELECT
			voucher_handle,
			subject_handle,
			relationship,
			credibility,
			tier,
			bidirectional,
			COALESCE(flags, '')
		FROM pair_score
		WHERE subject_handle = ? AND tier = ?
		ORDER BY relationship DESC, voucher_handle
	`
)

// Pair is a cached voucher/subject signal row. Pointer fields are nil
// when the signal was never fetched, which is distinct from zero.
type Pair struct {
	VoucherHandle   string `json:"voucher_handle" yaml:"voucherHandle"`
	SubjectHandle   string `json:"subject_handle" yaml:"subjectHandle"`
	VoucherMentions *int64 `json:"voucher_mentions,omitempty" yaml:"voucherMentions,omitempty"`
	SubjectMentions *int64 `json:"subject_mentions,omitempty" yaml:"subjectMentions,omitempty"`
	VoucherFollows  *bool  `json:"voucher_follows,omitempty" yaml:"voucherFollows,omitempty"`
	SubjectFollows  *bool  `json:"subject_follows,omitempty" yaml:"subjectFollows,omitempty"`
}

// PairScore is one scored voucher/subject pair.
type PairScore struct {
	VoucherHandle string   `json:"voucher_handle" yaml:"voucherHandle"`
	SubjectHandle string   `json:"subject_handle" yaml:"subjectHandle"`
	Relationship  float64  `json:"relationship" yaml:"relationship"`
	Credibility   float64  `json:"credibility" yaml:"credibility"`
	Tier          string   `json:"tier" yaml:"tier"`
	Bidirectional bool     `json:"bidirectional" yaml:"bidirectional"`
	Flags         []string `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// SavePair upserts one pair signal row.
func SavePair(db *sql.DB, p *Pair) error {
	if db == nil {
		return errDBNotInitialized
	}
	if p == nil || p.VoucherHandle == "" || p.SubjectHandle == "" {
		return errors.New("pair with voucher and subject handles is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)

	vm := nullInt(p.VoucherMentions)
	sm := nullInt(p.SubjectMentions)
	vf := nullBool(p.VoucherFollows)
	sf := nullBool(p.SubjectFollows)

	if _, err := db.Exec(insertPairSQL,
		p.VoucherHandle, p.SubjectHandle, vm, sm, vf, sf, now,
		vm, sm, vf, sf, now); err != nil {
		return fmt.Errorf("error inserting pair %s/%s: %w", p.VoucherHandle, p.SubjectHandle, err)
	}

	return nil
}

// GetPair returns one cached pair signal row, or nil when not cached.
func GetPair(db *sql.DB, voucher, subject string) (*Pair, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if voucher == "" || subject == "" {
		return nil, errors.New("voucher and subject are required")
	}

	row := db.QueryRow(selectPairSQL, voucher, subject)
	p, err := scanPair(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan pair row: %w", err)
	}

	return p, nil
}

// GetPairsForSubject returns all cached pair signals for one subject.
func GetPairsForSubject(db *sql.DB, subject string) ([]*Pair, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if subject == "" {
		return nil, errors.New("subject is required")
	}

	rows, err := db.Query(selectPairsForSubjectSQL, subject)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute pair select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*Pair, 0)
	for rows.Next() {
		p, err := scanPair(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pair row: %w", err)
		}
		list = append(list, p)
	}

	return list, nil
}

// SavePairScores upserts the given scores in a single transaction.
func SavePairScores(db *sql.DB, scores []*PairScore) error {
	if db == nil {
		return errDBNotInitialized
	}

	if len(scores) == 0 {
		return nil
	}

	stmt, err := db.Prepare(insertPairScoreSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare pair score insert statement: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	for i, s := range scores {
		flags := strings.Join(s.Flags, ",")
		if _, err = tx.Stmt(stmt).Exec(
			s.VoucherHandle, s.SubjectHandle, s.Relationship, s.Credibility,
			s.Tier, s.Bidirectional, flags, now,
			s.Relationship, s.Credibility, s.Tier, s.Bidirectional, flags, now); err != nil {
			slog.Error("failed to insert pair score",
				"index", i,
				"error", err,
				"voucher", s.VoucherHandle,
				"subject", s.SubjectHandle,
			)
			rollbackTransaction(tx)
			return fmt.Errorf("error inserting pair score[%d]: %s/%s: %w",
				i, s.VoucherHandle, s.SubjectHandle, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetPairScoresForSubject returns all cached scores for one subject,
// strongest relationship first.
func GetPairScoresForSubject(db *sql.DB, subject string) ([]*PairScore, error) {
	if subject == "" {
		return nil, errors.New("subject is required")
	}
	return queryPairScores(db, selectPairScoresForSubjectSQL, subject)
}

// GetPairScoresByTier returns cached scores for one subject in one tier.
func GetPairScoresByTier(db *sql.DB, subject, tier string) ([]*PairScore, error) {
	if subject == "" || tier == "" {
		return nil, errors.New("subject and tier are required")
	}
	return queryPairScores(db, selectPairScoresByTierSQL, subject, tier)
}

func queryPairScores(db *sql.DB, q string, args ...any) ([]*PairScore, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(q, args...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute pair score select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*PairScore, 0)
	for rows.Next() {
		var s PairScore
		var flags string
		if err := rows.Scan(&s.VoucherHandle, &s.SubjectHandle, &s.Relationship,
			&s.Credibility, &s.Tier, &s.Bidirectional, &flags); err != nil {
			return nil, fmt.Errorf("failed to scan pair score row: %w", err)
		}
		if flags != "" {
			s.Flags = strings.Split(flags, ",")
		}
		list = append(list, &s)
	}

	return list, nil
}

func scanPair(scan func(...any) error) (*Pair, error) {
	var p Pair
	var vm, sm sql.NullInt64
	var vf, sf sql.NullBool

	if err := scan(&p.VoucherHandle, &p.SubjectHandle, &vm, &sm, &vf, &sf); err != nil {
		return nil, err
	}

	if vm.Valid {
		p.VoucherMentions = &vm.Int64
	}
	if sm.Valid {
		p.SubjectMentions = &sm.Int64
	}
	if vf.Valid {
		p.VoucherFollows = &vf.Bool
	}
	if sf.Valid {
		p.SubjectFollows = &sf.Bool
	}

	return &p, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
