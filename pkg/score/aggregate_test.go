package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredFixture() []*Scored {
	return []*Scored{
		{Voucher: "a", Subject: "x", Tier: TierInnerCircle, RelationshipScore: 1.0, CredibilityScore: 0.8, AnyInteraction: true, Bidirectional: true},
		{Voucher: "b", Subject: "x", Tier: TierActive, RelationshipScore: 0.5, CredibilityScore: 0.4, AnyInteraction: true},
		{Voucher: "c", Subject: "x", Tier: TierWeak, RelationshipScore: 0.15, CredibilityScore: 0.2, AnyInteraction: true},
		{Voucher: "d", Subject: "x", Tier: TierNone, RelationshipScore: 0.0, CredibilityScore: 0.1},
	}
}

func TestAggregate_Distribution(t *testing.T) {
	r := Aggregate(scoredFixture())

	assert.Equal(t, 4, r.TotalPairs)
	assert.Equal(t, 1, r.Counts[TierInnerCircle])
	assert.Equal(t, 1, r.Counts[TierActive])
	assert.Equal(t, 1, r.Counts[TierWeak])
	assert.Equal(t, 1, r.Counts[TierNone])
	assert.Equal(t, 0, r.Counts[TierPassive])
	assert.Equal(t, 0, r.Counts[TierSuspicious])

	assert.InDelta(t, 25.0, r.Percentages[TierInnerCircle], 1e-9)
	assert.InDelta(t, 25.0, r.Percentages[TierActive], 1e-9)
	assert.InDelta(t, 25.0, r.Percentages[TierWeak], 1e-9)
	assert.InDelta(t, 25.0, r.Percentages[TierNone], 1e-9)

	assert.InDelta(t, 0.4125, r.MeanRelationshipScore, 1e-9)
	assert.InDelta(t, 0.375, r.MeanCredibilityScore, 1e-9)
	assert.InDelta(t, 0.75, r.AnyInteractionRate, 1e-9)
	assert.InDelta(t, 0.25, r.BidirectionalRate, 1e-9)
}

func TestAggregate_CountsSumToTotal(t *testing.T) {
	r := Aggregate(scoredFixture())

	sum := 0
	for _, n := range r.Counts {
		sum += n
	}
	assert.Equal(t, r.TotalPairs, sum)
}

func TestAggregate_PercentagesSumTo100(t *testing.T) {
	// 3 pairs would expose rounding bugs (33.33...% each)
	list := scoredFixture()[:3]
	r := Aggregate(list)

	var sum float64
	for _, p := range r.Percentages {
		sum += p
	}
	assert.Less(t, math.Abs(sum-100.0), 1e-6)
}

func TestAggregate_Empty(t *testing.T) {
	r := Aggregate(nil)

	assert.Zero(t, r.TotalPairs)
	assert.Zero(t, r.MeanRelationshipScore)
	assert.Zero(t, r.MeanCredibilityScore)
	assert.Zero(t, r.AnyInteractionRate)
	assert.Zero(t, r.BidirectionalRate)
	for _, tier := range Tiers() {
		assert.Zero(t, r.Counts[tier])
		assert.Zero(t, r.Percentages[tier])
	}
}

func TestAggregate_Commutative(t *testing.T) {
	list := scoredFixture()
	reversed := make([]*Scored, len(list))
	for i, s := range list {
		reversed[len(list)-1-i] = s
	}

	assert.Equal(t, Aggregate(list), Aggregate(reversed))
}

func TestAccumulator_MergeMatchesSinglePass(t *testing.T) {
	list := scoredFixture()

	left := NewAccumulator()
	right := NewAccumulator()
	for i, s := range list {
		if i%2 == 0 {
			left.Add(s)
		} else {
			right.Add(s)
		}
	}
	left.Merge(right)

	assert.Equal(t, Aggregate(list), left.Finalize())
}

func TestAccumulator_MergeOrderIndependent(t *testing.T) {
	list := scoredFixture()

	a1, b1 := NewAccumulator(), NewAccumulator()
	a2, b2 := NewAccumulator(), NewAccumulator()
	for i, s := range list {
		if i < 2 {
			a1.Add(s)
			a2.Add(s)
		} else {
			b1.Add(s)
			b2.Add(s)
		}
	}

	a1.Merge(b1)
	b2.Merge(a2)
	assert.Equal(t, a1.Finalize(), b2.Finalize())
}

func TestAccumulator_MergeNil(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(scoredFixture()[0])
	acc.Merge(nil)

	r := acc.Finalize()
	require.Equal(t, 1, r.TotalPairs)
	assert.InDelta(t, 100.0, r.Percentages[TierInnerCircle], 1e-9)
}
