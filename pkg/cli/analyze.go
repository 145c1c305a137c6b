package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/vouchlab/vouchpulse/pkg/data"
	"github.com/vouchlab/vouchpulse/pkg/score"
	"golang.org/x/sync/errgroup"
)

const workersDefault = 4

var (
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Number of concurrent scoring workers",
		Value: workersDefault,
	}

	outFileFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "Write a markdown report to the given file",
	}

	analyzeCmd = &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Score cached voucher/subject pairs and report the tier distribution",
		UsageText: `vouchpulse analyze --subject somehandle
   vouchpulse analyze --subject somehandle --out report.md`,
		Action: cmdAnalyze,
		Flags: []cli.Flag{
			subjectFlag,
			workersFlag,
			outFileFlag,
		},
	}
)

// AnalysisResult is the analyze command output: the tier distribution
// plus the pairs worth a closer look.
type AnalysisResult struct {
	Subject      string            `json:"subject" yaml:"subject"`
	ModelVersion string            `json:"model_version" yaml:"modelVersion"`
	Report       *score.Report     `json:"report" yaml:"report"`
	InnerCircle  []*data.PairScore `json:"inner_circle,omitempty" yaml:"innerCircle,omitempty"`
	Suspicious   []*data.PairScore `json:"suspicious,omitempty" yaml:"suspicious,omitempty"`
	Malformed    int               `json:"malformed" yaml:"malformed"`
	Duration     string            `json:"duration" yaml:"duration"`
}

func cmdAnalyze(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)
	subject := normalizeHandle(c.String(subjectFlag.Name))
	workers := c.Int(workersFlag.Name)
	if workers < 1 {
		workers = workersDefault
	}

	if subject == "" {
		return cli.ShowSubcommandHelp(c)
	}

	sigs, malformed, err := loadSignals(cfg, subject)
	if err != nil {
		return err
	}
	if len(sigs) == 0 {
		return fmt.Errorf("no cached pairs for %s, run `vouchpulse import pairs --subject %s` first",
			subject, subject)
	}

	scorer := score.NewScorer(score.DefaultThresholds())

	in := make(chan *score.PairSignal)
	accs := make([]*score.Accumulator, workers)
	outs := make([][]*data.PairScore, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		acc := score.NewAccumulator()
		accs[w] = acc
		g.Go(func() error {
			for sig := range in {
				s := scorer.Evaluate(sig)
				acc.Add(s)
				outs[w] = append(outs[w], toPairScore(s))
			}
			return nil
		})
	}

	for _, sig := range sigs {
		in <- sig
	}
	close(in)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("scoring pairs: %w", err)
	}

	acc := score.NewAccumulator()
	scores := make([]*data.PairScore, 0, len(sigs))
	for w := 0; w < workers; w++ {
		acc.Merge(accs[w])
		scores = append(scores, outs[w]...)
	}

	if err := data.SavePairScores(cfg.DB, scores); err != nil {
		return fmt.Errorf("saving pair scores: %w", err)
	}

	res := &AnalysisResult{
		Subject:      subject,
		ModelVersion: score.ModelVersion,
		Report:       acc.Finalize(),
		Malformed:    malformed,
		Duration:     time.Since(start).String(),
	}

	if res.InnerCircle, err = data.GetPairScoresByTier(cfg.DB, subject, string(score.TierInnerCircle)); err != nil {
		return fmt.Errorf("loading inner circle pairs: %w", err)
	}
	if res.Suspicious, err = data.GetPairScoresByTier(cfg.DB, subject, string(score.TierSuspicious)); err != nil {
		return fmt.Errorf("loading suspicious pairs: %w", err)
	}

	if out := c.String(outFileFlag.Name); out != "" {
		if err := os.WriteFile(out, []byte(renderReport(res)), 0644); err != nil {
			return fmt.Errorf("writing report to %s: %w", out, err)
		}
		slog.Info("report written", "path", out)
	}

	return getEncoder().Encode(res)
}

// loadSignals assembles the scoring input for every cached pair of the
// subject, joining the pair signals with the voucher profiles and the
// cached Ethos scores. Malformed records are counted and skipped.
func loadSignals(cfg *appConfig, subject string) ([]*score.PairSignal, int, error) {
	pairs, err := data.GetPairsForSubject(cfg.DB, subject)
	if err != nil {
		return nil, 0, fmt.Errorf("loading cached pairs: %w", err)
	}

	vouches, err := data.GetVouchersForSubject(cfg.DB, subject)
	if err != nil {
		return nil, 0, fmt.Errorf("loading cached vouches: %w", err)
	}
	ethosByVoucher := make(map[string]int64, len(vouches))
	for _, v := range vouches {
		ethosByVoucher[normalizeHandle(v.VoucherHandle)] = v.VoucherScore
	}

	sigs := make([]*score.PairSignal, 0, len(pairs))
	malformed := 0

	for _, p := range pairs {
		raw := score.RawPair{
			Voucher:               p.VoucherHandle,
			Subject:               p.SubjectHandle,
			VoucherMentions:       intPtr(p.VoucherMentions),
			SubjectMentions:       intPtr(p.SubjectMentions),
			VoucherFollowsSubject: p.VoucherFollows,
			SubjectFollowsVoucher: p.SubjectFollows,
		}

		profile, err := data.GetProfile(cfg.DB, p.VoucherHandle)
		if err != nil {
			return nil, 0, fmt.Errorf("loading profile for %s: %w", p.VoucherHandle, err)
		}
		if profile != nil {
			raw.VoucherProfile = &score.Profile{
				Handle:    profile.Handle,
				Followers: profile.Followers,
				Following: profile.Following,
				Verified:  profile.Verified,
			}
			if profile.AgeDays != nil {
				raw.VoucherProfile.AgeDays = *profile.AgeDays
				raw.VoucherProfile.AgeKnown = true
			}
		}

		if ethos, ok := ethosByVoucher[p.VoucherHandle]; ok {
			raw.VoucherEthos = &ethos
		}

		sig, err := score.NormalizePair(raw)
		if err != nil {
			if errors.Is(err, score.ErrMalformedPair) {
				slog.Warn("skipping malformed pair", "error", err)
				malformed++
				continue
			}
			return nil, 0, fmt.Errorf("normalizing pair: %w", err)
		}
		sigs = append(sigs, sig)
	}

	return sigs, malformed, nil
}

func toPairScore(s *score.Scored) *data.PairScore {
	return &data.PairScore{
		VoucherHandle: s.Voucher,
		SubjectHandle: s.Subject,
		Relationship:  s.RelationshipScore,
		Credibility:   s.CredibilityScore,
		Tier:          string(s.Tier),
		Bidirectional: s.Bidirectional,
		Flags:         s.Flags,
	}
}

func intPtr(v *int64) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
