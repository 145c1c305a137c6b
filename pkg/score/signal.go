package score

import (
	"errors"
	"fmt"
)

// ErrMalformedPair is returned by NormalizePair when a record is
// missing the identity key linking voucher to subject.
var ErrMalformedPair = errors.New("malformed pair record")

// Profile is an immutable snapshot of a social account at fetch time.
// AgeKnown is false when the account creation date was absent or
// unparseable; an unknown age contributes no points and no flags.
type Profile struct {
	Handle    string `json:"handle,omitempty" yaml:"handle,omitempty"`
	Followers int64  `json:"followers" yaml:"followers"`
	Following int64  `json:"following" yaml:"following"`
	AgeDays   int64  `json:"age_days" yaml:"ageDays"`
	AgeKnown  bool   `json:"age_known" yaml:"ageKnown"`
	Verified  bool   `json:"verified" yaml:"verified"`
}

// PairSignal holds the directional relationship signals between a
// voucher account and the subject it vouched for. Built once per
// vouch record after the upstream lookups complete, read-only after.
type PairSignal struct {
	Voucher string `json:"voucher" yaml:"voucher"`
	Subject string `json:"subject" yaml:"subject"`

	// Mention/reply counts in each direction.
	VoucherMentions int `json:"voucher_mentions" yaml:"voucherMentions"`
	SubjectMentions int `json:"subject_mentions" yaml:"subjectMentions"`

	VoucherFollowsSubject bool `json:"voucher_follows_subject" yaml:"voucherFollowsSubject"`
	SubjectFollowsVoucher bool `json:"subject_follows_voucher" yaml:"subjectFollowsVoucher"`

	VoucherProfile Profile `json:"voucher_profile" yaml:"voucherProfile"`
	// ProfileKnown is false when the upstream profile lookup failed or
	// was skipped; profile-level red flags are suppressed in that case.
	ProfileKnown bool  `json:"profile_known" yaml:"profileKnown"`
	VoucherEthos int64 `json:"voucher_ethos" yaml:"voucherEthos"`
}

// RawPair is the boundary record assembled from the upstream API
// responses. Optional fields are pointers so that "absent" is
// distinguishable from zero/false; NormalizePair applies the defaults.
type RawPair struct {
	Voucher string
	Subject string

	VoucherMentions *int
	SubjectMentions *int

	VoucherFollowsSubject *bool
	SubjectFollowsVoucher *bool

	VoucherProfile *Profile
	VoucherEthos   *int64
}

// NormalizePair converts a raw record into a well-formed PairSignal.
// Missing numeric fields default to 0, missing booleans to false, and
// negative counts are clamped to 0. The only failure mode is a missing
// voucher or subject identity, reported as ErrMalformedPair.
func NormalizePair(r RawPair) (*PairSignal, error) {
	if r.Voucher == "" || r.Subject == "" {
		return nil, fmt.Errorf("%w: voucher=%q subject=%q", ErrMalformedPair, r.Voucher, r.Subject)
	}

	sig := &PairSignal{
		Voucher:               r.Voucher,
		Subject:               r.Subject,
		VoucherMentions:       intOrZero(r.VoucherMentions),
		SubjectMentions:       intOrZero(r.SubjectMentions),
		VoucherFollowsSubject: boolOrFalse(r.VoucherFollowsSubject),
		SubjectFollowsVoucher: boolOrFalse(r.SubjectFollowsVoucher),
	}

	if r.VoucherProfile != nil {
		sig.ProfileKnown = true
		sig.VoucherProfile = *r.VoucherProfile
		if sig.VoucherProfile.Followers < 0 {
			sig.VoucherProfile.Followers = 0
		}
		if sig.VoucherProfile.Following < 0 {
			sig.VoucherProfile.Following = 0
		}
		if sig.VoucherProfile.AgeDays < 0 {
			sig.VoucherProfile.AgeDays = 0
		}
	}

	if r.VoucherEthos != nil && *r.VoucherEthos > 0 {
		sig.VoucherEthos = *r.VoucherEthos
	}

	return sig, nil
}

func intOrZero(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func boolOrFalse(v *bool) bool {
	return v != nil && *v
}
