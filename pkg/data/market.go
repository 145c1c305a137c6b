package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	insertMarketSQL = `INSERT INTO market (
			profile_id,
			handle,
			ethos_score,
			trust_votes,
			distrust_votes,
			updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			handle = ?,
			ethos_score = ?,
			trust_votes = ?,
			distrust_votes = ?,
			updated_at = ?
	`

	selectMarketSQL = `SELECT
			profile_id,
			COALESCE(handle, ''),
			ethos_score,
			trust_votes,
			distrust_votes
		FROM market
		WHERE profile_id = ?
	`

	selectMarketByHandleSQL = `SELECT
			profile_id,
			COALESCE(handle, ''),
			ethos_score,
			trust_votes,
			distrust_votes
		FROM market
		WHERE handle = ?
	`

	queryMarketsSQL = `SELECT
			profile_id,
			COALESCE(handle, ''),
			ethos_score,
			trust_votes,
			distrust_votes
		FROM market
		WHERE handle LIKE ?
		ORDER BY trust_votes DESC
		LIMIT ?
	`
)

// Market is a cached reputation market row.
type Market struct {
	ProfileID     int64  `json:"profile_id" yaml:"profileId"`
	Handle        string `json:"handle,omitempty" yaml:"handle,omitempty"`
	EthosScore    int64  `json:"ethos_score" yaml:"ethosScore"`
	TrustVotes    int64  `json:"trust_votes" yaml:"trustVotes"`
	DistrustVotes int64  `json:"distrust_votes" yaml:"distrustVotes"`
}

// SaveMarkets upserts the given markets in a single transaction.
func SaveMarkets(db *sql.DB, markets []*Market) error {
	if db == nil {
		return errDBNotInitialized
	}

	if len(markets) == 0 {
		return nil
	}

	stmt, err := db.Prepare(insertMarketSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare market insert statement: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	for i, m := range markets {
		if _, err = tx.Stmt(stmt).Exec(
			m.ProfileID, m.Handle, m.EthosScore, m.TrustVotes, m.DistrustVotes, now,
			m.Handle, m.EthosScore, m.TrustVotes, m.DistrustVotes, now); err != nil {
			slog.Error("failed to insert market",
				"index", i,
				"error", err,
				"profile", m.ProfileID,
				"handle", m.Handle,
			)
			rollbackTransaction(tx)
			return fmt.Errorf("error inserting market[%d]: %d: %w", i, m.ProfileID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetMarket returns one market by profile ID, or nil when not cached.
func GetMarket(db *sql.DB, profileID int64) (*Market, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var m Market
	row := db.QueryRow(selectMarketSQL, profileID)
	if err := row.Scan(&m.ProfileID, &m.Handle, &m.EthosScore, &m.TrustVotes, &m.DistrustVotes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan market row: %w", err)
	}

	return &m, nil
}

// GetMarketByHandle returns one market by handle, or nil when not cached.
func GetMarketByHandle(db *sql.DB, handle string) (*Market, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if handle == "" {
		return nil, errors.New("handle is required")
	}

	var m Market
	row := db.QueryRow(selectMarketByHandleSQL, handle)
	if err := row.Scan(&m.ProfileID, &m.Handle, &m.EthosScore, &m.TrustVotes, &m.DistrustVotes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan market row: %w", err)
	}

	return &m, nil
}

// QueryMarkets returns markets whose handle matches the given pattern,
// most trusted first.
func QueryMarkets(db *sql.DB, like string, limit int) ([]*Market, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit < 1 {
		limit = 100
	}
	if like == "" {
		like = "%"
	} else {
		like = "%" + like + "%"
	}

	rows, err := db.Query(queryMarketsSQL, like, limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute market query: %w", err)
	}
	defer rows.Close()

	list := make([]*Market, 0)
	for rows.Next() {
		var m Market
		if err := rows.Scan(&m.ProfileID, &m.Handle, &m.EthosScore, &m.TrustVotes, &m.DistrustVotes); err != nil {
			return nil, fmt.Errorf("failed to scan market row: %w", err)
		}
		list = append(list, &m)
	}

	return list, nil
}
