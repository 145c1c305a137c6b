package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePair_Defaults(t *testing.T) {
	sig, err := NormalizePair(RawPair{Voucher: "alice", Subject: "bob"})
	require.NoError(t, err)

	assert.Equal(t, "alice", sig.Voucher)
	assert.Equal(t, "bob", sig.Subject)
	assert.Zero(t, sig.VoucherMentions)
	assert.Zero(t, sig.SubjectMentions)
	assert.False(t, sig.VoucherFollowsSubject)
	assert.False(t, sig.SubjectFollowsVoucher)
	assert.False(t, sig.ProfileKnown)
	assert.Zero(t, sig.VoucherEthos)
}

func TestNormalizePair_AllFields(t *testing.T) {
	raw := RawPair{
		Voucher:               "alice",
		Subject:               "bob",
		VoucherMentions:       intPtr(7),
		SubjectMentions:       intPtr(2),
		VoucherFollowsSubject: boolPtr(true),
		SubjectFollowsVoucher: boolPtr(false),
		VoucherProfile:        &Profile{Handle: "alice", Followers: 1200, Following: 300, AgeDays: 500, AgeKnown: true, Verified: true},
		VoucherEthos:          int64Ptr(1400),
	}

	sig, err := NormalizePair(raw)
	require.NoError(t, err)
	assert.Equal(t, 7, sig.VoucherMentions)
	assert.Equal(t, 2, sig.SubjectMentions)
	assert.True(t, sig.VoucherFollowsSubject)
	assert.False(t, sig.SubjectFollowsVoucher)
	assert.True(t, sig.ProfileKnown)
	assert.True(t, sig.VoucherProfile.AgeKnown)
	assert.Equal(t, int64(1200), sig.VoucherProfile.Followers)
	assert.Equal(t, int64(1400), sig.VoucherEthos)
}

func TestNormalizePair_MissingVoucher(t *testing.T) {
	_, err := NormalizePair(RawPair{Subject: "bob"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPair)
}

func TestNormalizePair_MissingSubject(t *testing.T) {
	_, err := NormalizePair(RawPair{Voucher: "alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPair)
	assert.Contains(t, err.Error(), "alice")
}

func TestNormalizePair_NegativeCountsClamped(t *testing.T) {
	raw := RawPair{
		Voucher:         "alice",
		Subject:         "bob",
		VoucherMentions: intPtr(-3),
		SubjectMentions: intPtr(-1),
		VoucherProfile:  &Profile{Followers: -10, Following: -5, AgeDays: -1},
		VoucherEthos:    int64Ptr(-200),
	}

	sig, err := NormalizePair(raw)
	require.NoError(t, err)
	assert.Zero(t, sig.VoucherMentions)
	assert.Zero(t, sig.SubjectMentions)
	assert.Zero(t, sig.VoucherProfile.Followers)
	assert.Zero(t, sig.VoucherProfile.Following)
	assert.Zero(t, sig.VoucherProfile.AgeDays)
	assert.Zero(t, sig.VoucherEthos)
}

func TestNormalizePair_ThenEvaluate(t *testing.T) {
	sig, err := NormalizePair(RawPair{
		Voucher:         "alice",
		Subject:         "bob",
		VoucherMentions: intPtr(1),
	})
	require.NoError(t, err)

	res := testScorer().Evaluate(sig)
	assert.Equal(t, TierPassive, res.Tier)
}
