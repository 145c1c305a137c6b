package score

// ModelVersion is the current scoring model version.
const ModelVersion = "1.0.0"

const (
	// Relationship signal points.
	interactionHighCount  = 10
	interactionMidCount   = 3
	interactionHighPoints = 0.50
	interactionMidPoints  = 0.35
	interactionLowPoints  = 0.20
	bidirectionalPoints   = 0.20
	followPoints          = 0.15

	// Credibility signal points.
	followerHighCount  = 10000
	followerMidCount   = 1000
	followerLowCount   = 100
	followerHighPoints = 0.30
	followerMidPoints  = 0.20
	followerLowPoints  = 0.10

	ageHighDays   = 730
	ageMidDays    = 365
	ageLowDays    = 180
	ageHighPoints = 0.20
	ageMidPoints  = 0.15
	ageLowPoints  = 0.10

	ratioHighMin    = 2.0
	ratioHighPoints = 0.10
	verifiedPoints  = 0.10

	ethosHighScore  = 1500
	ethosMidScore   = 1000
	ethosHighPoints = 0.20
	ethosMidPoints  = 0.10
)

// Tier is the discrete relationship classification bucket.
type Tier string

const (
	TierInnerCircle Tier = "inner_circle"
	TierActive      Tier = "active"
	TierPassive     Tier = "passive"
	TierWeak        Tier = "weak"
	TierNone        Tier = "none"
	TierSuspicious  Tier = "suspicious"
)

// Tiers returns all tiers in display order.
func Tiers() []Tier {
	return []Tier{TierInnerCircle, TierActive, TierPassive, TierWeak, TierNone, TierSuspicious}
}

// Qualitative flags attached to scored pairs for reporting.
const (
	FlagFrequentInteractions = "frequent_interactions"
	FlagBidirectional        = "bidirectional"
	FlagFollowedBack         = "followed_back"
	FlagHighFollowers        = "high_followers"
	FlagLowFollowers         = "low_followers"
	FlagNewAccount           = "new_account"
	FlagSuspiciousRatio      = "suspicious_ratio"
	FlagScoreMismatch        = "score_mismatch"
	FlagVerified             = "verified"
	FlagHighEthos            = "high_ethos"
)

// Thresholds configures the red-flag predicate. All values are
// explicit inputs rather than constants buried in the scoring code.
type Thresholds struct {
	// LowFollowerFloor flags accounts with fewer followers than this.
	LowFollowerFloor int64 `json:"low_follower_floor" yaml:"lowFollowerFloor"`
	// SkewedRatioMax flags followers/following ratios below this value
	// when the account also has fewer than SkewedRatioFollowerCap followers.
	SkewedRatioMax         float64 `json:"skewed_ratio_max" yaml:"skewedRatioMax"`
	SkewedRatioFollowerCap int64   `json:"skewed_ratio_follower_cap" yaml:"skewedRatioFollowerCap"`
	// NewAccountMaxAgeDays flags accounts younger than this.
	NewAccountMaxAgeDays int64 `json:"new_account_max_age_days" yaml:"newAccountMaxAgeDays"`
	// MismatchEthosMin flags a non-trivial reputation score paired
	// with a follower count below LowFollowerFloor.
	MismatchEthosMin int64 `json:"mismatch_ethos_min" yaml:"mismatchEthosMin"`
}

// DefaultThresholds returns the red-flag configuration used by the CLI.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowFollowerFloor:       50,
		SkewedRatioMax:         0.1,
		SkewedRatioFollowerCap: 100,
		NewAccountMaxAgeDays:   90,
		MismatchEthosMin:       1000,
	}
}

// Scored is the scoring engine's output for one voucher/subject pair.
type Scored struct {
	Voucher           string   `json:"voucher" yaml:"voucher"`
	Subject           string   `json:"subject" yaml:"subject"`
	RelationshipScore float64  `json:"relationship_score" yaml:"relationshipScore"`
	CredibilityScore  float64  `json:"credibility_score" yaml:"credibilityScore"`
	Tier              Tier     `json:"tier" yaml:"tier"`
	Bidirectional     bool     `json:"bidirectional" yaml:"bidirectional"`
	AnyInteraction    bool     `json:"any_interaction" yaml:"anyInteraction"`
	Interactions      int      `json:"interactions" yaml:"interactions"`
	Flags             []string `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// Scorer evaluates pair signals against a fixed threshold configuration.
// Evaluate is pure and safe for concurrent use.
type Scorer struct {
	thresholds Thresholds
}

func NewScorer(t Thresholds) *Scorer {
	return &Scorer{thresholds: t}
}

// Evaluate computes the relationship and credibility scores for a pair
// and assigns its tier. Total over its input domain: it never fails on
// zero counts, zero followers, or missing history.
func (s *Scorer) Evaluate(sig *PairSignal) *Scored {
	res := &Scored{
		Voucher:       sig.Voucher,
		Subject:       sig.Subject,
		Interactions:  sig.VoucherMentions + sig.SubjectMentions,
		Bidirectional: sig.VoucherMentions > 0 && sig.SubjectMentions > 0,
	}
	res.AnyInteraction = res.Interactions > 0

	res.RelationshipScore = s.relationshipScore(sig, res)
	res.CredibilityScore = s.credibilityScore(sig, res)
	res.Flags = append(res.Flags, s.thresholds.redFlags(sig)...)
	res.Tier = s.tier(res)

	return res
}

// relationshipScore is a sum of the applicable signal points, clamped
// to [0.0, 1.0]. The interaction-count bucket is exclusive; the
// bidirectional and follow contributions are independent.
func (s *Scorer) relationshipScore(sig *PairSignal, res *Scored) float64 {
	var rel float64

	switch {
	case res.Interactions >= interactionHighCount:
		rel += interactionHighPoints
		res.Flags = append(res.Flags, FlagFrequentInteractions)
	case res.Interactions >= interactionMidCount:
		rel += interactionMidPoints
	case res.Interactions >= 1:
		rel += interactionLowPoints
	}

	if res.Bidirectional {
		rel += bidirectionalPoints
		res.Flags = append(res.Flags, FlagBidirectional)
	}

	if sig.VoucherFollowsSubject {
		rel += followPoints
	}
	if sig.SubjectFollowsVoucher {
		rel += followPoints
		res.Flags = append(res.Flags, FlagFollowedBack)
	}

	return clamp01(rel)
}

// credibilityScore rates the voucher's own profile, independent of the
// subject. Each signal group contributes independently; the sum is
// clamped to [0.0, 1.0].
func (s *Scorer) credibilityScore(sig *PairSignal, res *Scored) float64 {
	var cred float64
	p := sig.VoucherProfile

	if sig.ProfileKnown {
		switch {
		case p.Followers >= followerHighCount:
			cred += followerHighPoints
			res.Flags = append(res.Flags, FlagHighFollowers)
		case p.Followers >= followerMidCount:
			cred += followerMidPoints
		case p.Followers >= followerLowCount:
			cred += followerLowPoints
		}

		if p.AgeKnown {
			switch {
			case p.AgeDays >= ageHighDays:
				cred += ageHighPoints
			case p.AgeDays >= ageMidDays:
				cred += ageMidPoints
			case p.AgeDays >= ageLowDays:
				cred += ageLowPoints
			}
		}

		if float64(p.Followers)/float64(max(p.Following, 1)) > ratioHighMin {
			cred += ratioHighPoints
		}

		if p.Verified {
			cred += verifiedPoints
			res.Flags = append(res.Flags, FlagVerified)
		}
	}

	switch {
	case sig.VoucherEthos >= ethosHighScore:
		cred += ethosHighPoints
		res.Flags = append(res.Flags, FlagHighEthos)
	case sig.VoucherEthos >= ethosMidScore:
		cred += ethosMidPoints
	}

	return clamp01(cred)
}

// redFlags evaluates the suspicion predicate over the voucher profile
// and reputation score alone. Interaction history plays no part, and
// unknown profiles or unknown account ages contribute nothing.
func (t Thresholds) redFlags(sig *PairSignal) []string {
	if !sig.ProfileKnown {
		return nil
	}
	p := sig.VoucherProfile

	var flags []string
	if p.Followers < t.LowFollowerFloor {
		flags = append(flags, FlagLowFollowers)
	}
	if p.AgeKnown && p.AgeDays < t.NewAccountMaxAgeDays {
		flags = append(flags, FlagNewAccount)
	}
	ratio := float64(p.Followers) / float64(max(p.Following, 1))
	if p.Following > 0 && ratio < t.SkewedRatioMax && p.Followers < t.SkewedRatioFollowerCap {
		flags = append(flags, FlagSuspiciousRatio)
	}
	if p.Followers < t.LowFollowerFloor && sig.VoucherEthos >= t.MismatchEthosMin {
		flags = append(flags, FlagScoreMismatch)
	}

	return flags
}

var redFlags = map[string]bool{
	FlagLowFollowers:    true,
	FlagNewAccount:      true,
	FlagSuspiciousRatio: true,
	FlagScoreMismatch:   true,
}

// RedFlagged reports whether a scored pair carries any profile-level
// red flag. The predicate is profile-only, independent of interaction
// history.
func (r *Scored) RedFlagged() bool {
	for _, f := range r.Flags {
		if redFlags[f] {
			return true
		}
	}
	return false
}

// tier maps the relationship score plus qualitative flags to a tier.
// Ordered rules, first match wins. Suspicious is reserved for the
// zero-signal case: a red-flagged voucher with real interaction
// history still classifies by its score.
func (s *Scorer) tier(res *Scored) Tier {
	switch {
	case res.RelationshipScore == 0 && res.RedFlagged():
		return TierSuspicious
	case res.RelationshipScore >= 0.7 && res.Bidirectional:
		return TierInnerCircle
	case res.RelationshipScore >= 0.5:
		return TierActive
	case res.RelationshipScore >= 0.2:
		return TierPassive
	case res.RelationshipScore > 0:
		return TierWeak
	default:
		return TierNone
	}
}

func clamp01(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
