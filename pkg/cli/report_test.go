package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vouchlab/vouchpulse/pkg/data"
	"github.com/vouchlab/vouchpulse/pkg/score"
)

func TestRenderReport(t *testing.T) {
	scored := []*score.Scored{
		{Tier: score.TierInnerCircle, RelationshipScore: 0.9, CredibilityScore: 0.8, AnyInteraction: true, Bidirectional: true},
		{Tier: score.TierPassive, RelationshipScore: 0.2, AnyInteraction: true},
		{Tier: score.TierSuspicious},
		{Tier: score.TierNone},
	}

	res := &AnalysisResult{
		Subject:      "bob",
		ModelVersion: score.ModelVersion,
		Report:       score.Aggregate(scored),
		InnerCircle: []*data.PairScore{
			{VoucherHandle: "alice", Relationship: 0.9, Credibility: 0.8},
		},
		Suspicious: []*data.PairScore{
			{VoucherHandle: "eve", Flags: []string{"low_followers", "new_account"}},
		},
	}

	md := renderReport(res)

	assert.True(t, strings.HasPrefix(md, "# Vouch Analysis: @bob"))
	assert.Contains(t, md, "4 pairs scored")
	assert.Contains(t, md, "| inner_circle | 1 | 25.0% |")
	assert.Contains(t, md, "| suspicious | 1 | 25.0% |")
	assert.Contains(t, md, "- @alice (relationship 0.90, credibility 0.80)")
	assert.Contains(t, md, "flags: low_followers, new_account")
	assert.NotContains(t, md, "malformed")
}

func TestRenderReport_Malformed(t *testing.T) {
	res := &AnalysisResult{
		Subject:      "bob",
		ModelVersion: score.ModelVersion,
		Report:       score.Aggregate(nil),
		Malformed:    3,
	}

	md := renderReport(res)
	assert.Contains(t, md, "(3 malformed records skipped)")
	assert.NotContains(t, md, "## Inner Circle")
	assert.NotContains(t, md, "## Suspicious")
}

func TestBar(t *testing.T) {
	assert.Equal(t, "", bar(0))
	assert.Equal(t, strings.Repeat("█", 5), bar(25))
	assert.Equal(t, strings.Repeat("█", 20), bar(100))
	assert.Equal(t, strings.Repeat("█", 20), bar(120))
}
