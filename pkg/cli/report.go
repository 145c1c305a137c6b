package cli

import (
	"fmt"
	"strings"

	"github.com/vouchlab/vouchpulse/pkg/score"
)

const reportBarWidth = 20

// renderReport formats an analysis result as a markdown document.
func renderReport(res *AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Vouch Analysis: @%s\n\n", res.Subject)
	fmt.Fprintf(&b, "Model %s, %d pairs scored", res.ModelVersion, res.Report.TotalPairs)
	if res.Malformed > 0 {
		fmt.Fprintf(&b, " (%d malformed records skipped)", res.Malformed)
	}
	b.WriteString(".\n\n")

	b.WriteString("## Tier Distribution\n\n")
	b.WriteString("| Tier | Count | Share | |\n")
	b.WriteString("|------|------:|------:|--|\n")
	for _, t := range score.Tiers() {
		pct := res.Report.Percentages[t]
		fmt.Fprintf(&b, "| %s | %d | %.1f%% | %s |\n",
			t, res.Report.Counts[t], pct, bar(pct))
	}
	b.WriteString("\n")

	b.WriteString("## Signals\n\n")
	fmt.Fprintf(&b, "- Mean relationship score: %.2f\n", res.Report.MeanRelationshipScore)
	fmt.Fprintf(&b, "- Mean voucher credibility: %.2f\n", res.Report.MeanCredibilityScore)
	fmt.Fprintf(&b, "- Pairs with any interaction: %.1f%%\n", res.Report.AnyInteractionRate*100)
	fmt.Fprintf(&b, "- Bidirectional pairs: %.1f%%\n", res.Report.BidirectionalRate*100)
	b.WriteString("\n")

	if len(res.InnerCircle) > 0 {
		b.WriteString("## Inner Circle\n\n")
		for _, s := range res.InnerCircle {
			fmt.Fprintf(&b, "- @%s (relationship %.2f, credibility %.2f)\n",
				s.VoucherHandle, s.Relationship, s.Credibility)
		}
		b.WriteString("\n")
	}

	if len(res.Suspicious) > 0 {
		b.WriteString("## Suspicious\n\n")
		for _, s := range res.Suspicious {
			flags := strings.Join(s.Flags, ", ")
			if flags == "" {
				flags = "none"
			}
			fmt.Fprintf(&b, "- @%s (credibility %.2f, flags: %s)\n",
				s.VoucherHandle, s.Credibility, flags)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func bar(pct float64) string {
	n := int(pct / 100 * reportBarWidth)
	if n < 0 {
		n = 0
	}
	if n > reportBarWidth {
		n = reportBarWidth
	}
	return strings.Repeat("█", n)
}
