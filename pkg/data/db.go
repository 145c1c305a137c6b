// Package data implements the local SQLite cache: imported markets,
// vouches, profiles, pair signals, pair scores, and import resume state.
package data

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const (
	// DataFileName is the default database file name.
	DataFileName = "data.db"

	schemaVersion = 1

	selectSchemaVersionSQL = `SELECT COALESCE(MAX(version), 0) FROM schema_version`
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")

	stateQueries = map[string]string{
		"market":     "SELECT COUNT(*) FROM market",
		"vouch":      "SELECT COUNT(*) FROM vouch",
		"profile":    "SELECT COUNT(*) FROM profile",
		"pair":       "SELECT COUNT(*) FROM pair",
		"pair_score": "SELECT COUNT(*) FROM pair_score",
	}
)

// Init creates the schema in the given database file if needed. The
// DDL is idempotent so running Init on an existing file is a no-op.
func Init(dbFilePath string) error {
	if dbFilePath == "" {
		return errors.New("dbFilePath not specified")
	}

	db, err := GetDB(dbFilePath)
	if err != nil {
		return fmt.Errorf("error opening database %s: %w", dbFilePath, err)
	}
	defer db.Close()

	slog.Debug("ensuring db schema", "path", dbFilePath)
	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return fmt.Errorf("failed to read the schema creation file: %w", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		return fmt.Errorf("failed to create database schema in %s: %w", dbFilePath, err)
	}

	var v int
	if err := db.QueryRow(selectSchemaVersionSQL).Scan(&v); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unsupported schema version: %d (want %d)", v, schemaVersion)
	}

	return nil
}

// GetDB opens the database at the given path.
func GetDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return conn, nil
}

// GetDataState returns row counts for the main tables.
func GetDataState(db *sql.DB) (map[string]int64, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	state := make(map[string]int64)
	for k, q := range stateQueries {
		var count int64
		if err := db.QueryRow(q).Scan(&count); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				state[k] = 0
				continue
			}
			return nil, fmt.Errorf("error getting %s count: %w", k, err)
		}
		state[k] = count
	}

	return state, nil
}

func rollbackTransaction(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		slog.Error("failed to rollback transaction", "error", err)
	}
}
