package data

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	err := Init(dbPath)
	require.NoError(t, err)
	db, err := GetDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInit_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	err := Init(dbPath)
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestInit_EmptyPath(t *testing.T) {
	err := Init("")
	assert.Error(t, err)
}

func TestInit_RunsMigrations(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, Init(dbPath))
	db, err := GetDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var version int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	assert.NoError(t, err)
	assert.Greater(t, version, 0)
}

func TestInit_Idempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, Init(dbPath))
	assert.NoError(t, Init(dbPath))
}

func TestGetDataState(t *testing.T) {
	db := setupTestDB(t)

	state, err := GetDataState(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state["market"])
	assert.Equal(t, int64(0), state["vouch"])

	require.NoError(t, SaveMarkets(db, []*Market{{ProfileID: 1, Handle: "alice"}}))

	state, err = GetDataState(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state["market"])
}

func TestNilDB(t *testing.T) {
	_, err := GetDataState(nil)
	assert.ErrorIs(t, err, errDBNotInitialized)

	assert.ErrorIs(t, SaveMarkets(nil, []*Market{{}}), errDBNotInitialized)
	assert.ErrorIs(t, SaveVouches(nil, []*Vouch{{}}), errDBNotInitialized)
	assert.ErrorIs(t, SavePair(nil, &Pair{VoucherHandle: "a", SubjectHandle: "b"}), errDBNotInitialized)
	assert.ErrorIs(t, SaveOffset(nil, "k", "s", 1), errDBNotInitialized)
}
