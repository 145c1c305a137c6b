package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vouchlab/vouchpulse/pkg/data"
	"github.com/vouchlab/vouchpulse/pkg/score"
)

func setupTestConfig(t *testing.T) *appConfig {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, data.Init(dbPath))
	db, err := data.GetDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &appConfig{DBPath: dbPath, DB: db}
}

func TestLoadSignals(t *testing.T) {
	cfg := setupTestConfig(t)

	require.NoError(t, data.SaveVouches(cfg.DB, []*data.Vouch{
		{ID: 1, VoucherHandle: "alice", SubjectHandle: "bob", VoucherScore: 1600},
		{ID: 2, VoucherHandle: "carol", SubjectHandle: "bob"},
	}))

	twelve := int64(12)
	two := int64(2)
	yes := true
	require.NoError(t, data.SavePair(cfg.DB, &data.Pair{
		VoucherHandle:   "alice",
		SubjectHandle:   "bob",
		VoucherMentions: &twelve,
		SubjectMentions: &two,
		VoucherFollows:  &yes,
		SubjectFollows:  &yes,
	}))
	require.NoError(t, data.SavePair(cfg.DB, &data.Pair{
		VoucherHandle: "carol",
		SubjectHandle: "bob",
	}))
	require.NoError(t, data.SavePair(cfg.DB, &data.Pair{
		VoucherHandle: "erin",
		SubjectHandle: "bob",
	}))

	age := int64(2200)
	require.NoError(t, data.SaveProfile(cfg.DB, &data.Profile{
		Handle:    "alice",
		Followers: 15000,
		Following: 300,
		AgeDays:   &age,
		Verified:  true,
	}))

	// erin's profile was fetched but carried no creation date
	require.NoError(t, data.SaveProfile(cfg.DB, &data.Profile{Handle: "erin", Followers: 500}))

	sigs, malformed, err := loadSignals(cfg, "bob")
	require.NoError(t, err)
	assert.Zero(t, malformed)
	require.Len(t, sigs, 3)

	alice := sigs[0]
	assert.Equal(t, "alice", alice.Voucher)
	assert.Equal(t, 12, alice.VoucherMentions)
	assert.True(t, alice.SubjectFollowsVoucher)
	assert.True(t, alice.ProfileKnown)
	assert.True(t, alice.VoucherProfile.AgeKnown)
	assert.Equal(t, int64(2200), alice.VoucherProfile.AgeDays)
	assert.Equal(t, int64(15000), alice.VoucherProfile.Followers)
	assert.Equal(t, int64(1600), alice.VoucherEthos)

	// no cached profile for carol
	carol := sigs[1]
	assert.False(t, carol.ProfileKnown)
	assert.Zero(t, carol.VoucherEthos)

	// erin's profile is known but her account age is not
	erin := sigs[2]
	assert.True(t, erin.ProfileKnown)
	assert.False(t, erin.VoucherProfile.AgeKnown)
}

func TestLoadSignals_Empty(t *testing.T) {
	cfg := setupTestConfig(t)

	sigs, malformed, err := loadSignals(cfg, "nobody")
	require.NoError(t, err)
	assert.Empty(t, sigs)
	assert.Zero(t, malformed)
}

func TestLoadSignals_ScoresEndToEnd(t *testing.T) {
	cfg := setupTestConfig(t)

	twelve := int64(12)
	two := int64(2)
	yes := true
	require.NoError(t, data.SavePair(cfg.DB, &data.Pair{
		VoucherHandle:   "alice",
		SubjectHandle:   "bob",
		VoucherMentions: &twelve,
		SubjectMentions: &two,
		VoucherFollows:  &yes,
		SubjectFollows:  &yes,
	}))

	sigs, _, err := loadSignals(cfg, "bob")
	require.NoError(t, err)
	require.Len(t, sigs, 1)

	scorer := score.NewScorer(score.DefaultThresholds())
	s := scorer.Evaluate(sigs[0])
	assert.Equal(t, 1.0, s.RelationshipScore)
	assert.Equal(t, score.TierInnerCircle, s.Tier)

	require.NoError(t, data.SavePairScores(cfg.DB, []*data.PairScore{toPairScore(s)}))

	saved, err := data.GetPairScoresByTier(cfg.DB, "bob", string(score.TierInnerCircle))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "alice", saved[0].VoucherHandle)
}

func TestToPairScore(t *testing.T) {
	got := toPairScore(&score.Scored{
		Voucher:           "alice",
		Subject:           "bob",
		RelationshipScore: 0.85,
		CredibilityScore:  0.9,
		Tier:              score.TierInnerCircle,
		Bidirectional:     true,
		Flags:             []string{score.FlagBidirectional},
	})
	assert.Equal(t, "alice", got.VoucherHandle)
	assert.Equal(t, 0.85, got.Relationship)
	assert.Equal(t, "inner_circle", got.Tier)
	assert.True(t, got.Bidirectional)
	assert.Equal(t, []string{"bidirectional"}, got.Flags)
}
