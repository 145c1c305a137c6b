package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveMarkets(t *testing.T) {
	db := setupTestDB(t)

	markets := []*Market{
		{ProfileID: 1, Handle: "alice", EthosScore: 1700, TrustVotes: 12, DistrustVotes: 1},
		{ProfileID: 2, Handle: "bob", EthosScore: 1100, TrustVotes: 3},
	}
	require.NoError(t, SaveMarkets(db, markets))

	m, err := GetMarket(db, 1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "alice", m.Handle)
	assert.Equal(t, int64(1700), m.EthosScore)
	assert.Equal(t, int64(12), m.TrustVotes)
}

func TestSaveMarkets_Upsert(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, SaveMarkets(db, []*Market{{ProfileID: 1, Handle: "alice", EthosScore: 1000}}))
	require.NoError(t, SaveMarkets(db, []*Market{{ProfileID: 1, Handle: "alice", EthosScore: 1500}}))

	m, err := GetMarket(db, 1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1500), m.EthosScore)

	state, err := GetDataState(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state["market"])
}

func TestSaveMarkets_Empty(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, SaveMarkets(db, nil))
}

func TestGetMarket_Missing(t *testing.T) {
	db := setupTestDB(t)

	m, err := GetMarket(db, 99)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestGetMarketByHandle(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, SaveMarkets(db, []*Market{{ProfileID: 7, Handle: "carol", EthosScore: 1200}}))

	m, err := GetMarketByHandle(db, "carol")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(7), m.ProfileID)

	m, err = GetMarketByHandle(db, "nobody")
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = GetMarketByHandle(db, "")
	assert.Error(t, err)
}

func TestQueryMarkets(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, SaveMarkets(db, []*Market{
		{ProfileID: 1, Handle: "alice", TrustVotes: 5},
		{ProfileID: 2, Handle: "alicia", TrustVotes: 9},
		{ProfileID: 3, Handle: "bob", TrustVotes: 2},
	}))

	list, err := QueryMarkets(db, "ali", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alicia", list[0].Handle)

	list, err = QueryMarkets(db, "", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
