package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/vouchlab/vouchpulse/pkg/data"
	"github.com/vouchlab/vouchpulse/pkg/ethos"
	"github.com/vouchlab/vouchpulse/pkg/twitter"
)

const (
	importBatchSize  = 100
	pairDelayDefault = 1000

	stateKindMarkets = "markets"
	stateKindVouches = "vouches"
)

var (
	subjectFlag = &cli.StringFlag{
		Name:  "subject",
		Usage: "X handle of the market subject (the person being vouched for)",
	}

	maxFlag = &cli.IntFlag{
		Name:  "max",
		Usage: "Maximum number of records to import (0 imports everything)",
	}

	freshFlag = &cli.BoolFlag{
		Name:  "fresh",
		Usage: "Ignore cached data and re-import from scratch",
	}

	pairDelayFlag = &cli.IntFlag{
		Name:  "delay",
		Usage: "Pause between pair lookups in milliseconds",
		Value: pairDelayDefault,
	}

	importCmd = &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import Ethos and social data into the local cache",
		UsageText: `vouchpulse import markets                       # all reputation markets
   vouchpulse import vouches --subject somehandle  # vouches received by a subject
   vouchpulse import pairs --subject somehandle    # social signals per voucher pair`,
		HideHelpCommand: true,
		Subcommands: []*cli.Command{
			{
				Name:   "markets",
				Usage:  "Import reputation markets",
				Action: cmdImportMarkets,
				Flags: []cli.Flag{
					maxFlag,
					freshFlag,
				},
			},
			{
				Name:   "vouches",
				Usage:  "Import vouch records for a subject (or the whole network)",
				Action: cmdImportVouches,
				Flags: []cli.Flag{
					subjectFlag,
					maxFlag,
				},
			},
			{
				Name:   "pairs",
				Usage:  "Fetch social signals for each cached voucher/subject pair",
				Action: cmdImportPairs,
				Flags: []cli.Flag{
					subjectFlag,
					maxFlag,
					freshFlag,
					pairDelayFlag,
				},
			},
		},
	}
)

type MarketImportResult struct {
	Imported int    `json:"imported" yaml:"imported"`
	Duration string `json:"duration" yaml:"duration"`
}

type VouchImportResult struct {
	Subject  string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Imported int    `json:"imported" yaml:"imported"`
	Duration string `json:"duration" yaml:"duration"`
}

type PairImportResult struct {
	Subject  string `json:"subject" yaml:"subject"`
	Fetched  int    `json:"fetched" yaml:"fetched"`
	Skipped  int    `json:"skipped" yaml:"skipped"`
	Failed   int    `json:"failed" yaml:"failed"`
	Requests int64  `json:"requests" yaml:"requests"`
	Duration string `json:"duration" yaml:"duration"`
}

func cmdImportMarkets(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)
	max := c.Int(maxFlag.Name)

	client, err := ethos.NewClient()
	if err != nil {
		return fmt.Errorf("creating ethos client: %w", err)
	}

	if c.Bool(freshFlag.Name) {
		if err := data.ClearOffset(cfg.DB, stateKindMarkets, "all"); err != nil {
			return fmt.Errorf("clearing import state: %w", err)
		}
	}

	offset, err := data.GetOffset(cfg.DB, stateKindMarkets, "all")
	if err != nil {
		return fmt.Errorf("getting import state: %w", err)
	}
	if offset > 0 {
		slog.Info("resuming market import", "offset", offset)
	}

	ctx := context.Background()
	imported := 0

	for {
		page, err := client.ListMarkets(ctx, importBatchSize, offset)
		if err != nil {
			return fmt.Errorf("listing markets: %w", err)
		}
		if len(page.Values) == 0 {
			break
		}

		batch := make([]*data.Market, 0, len(page.Values))
		for i := range page.Values {
			batch = append(batch, toDataMarket(&page.Values[i]))
		}
		if err := data.SaveMarkets(cfg.DB, batch); err != nil {
			return fmt.Errorf("saving markets: %w", err)
		}

		imported += len(batch)
		offset += len(page.Values)

		if err := data.SaveOffset(cfg.DB, stateKindMarkets, "all", offset); err != nil {
			return fmt.Errorf("saving import state: %w", err)
		}
		slog.Debug("imported market page", "offset", offset, "total", page.Total)

		if offset >= page.Total || (max > 0 && imported >= max) {
			break
		}
	}

	if err := data.ClearOffset(cfg.DB, stateKindMarkets, "all"); err != nil {
		slog.Error("failed to clear import state", "error", err)
	}

	res := &MarketImportResult{
		Imported: imported,
		Duration: time.Since(start).String(),
	}
	return getEncoder().Encode(res)
}

func cmdImportVouches(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)
	subject := normalizeHandle(c.String(subjectFlag.Name))
	max := c.Int(maxFlag.Name)

	client, err := ethos.NewClient()
	if err != nil {
		return fmt.Errorf("creating ethos client: %w", err)
	}

	ctx := context.Background()
	imported := 0
	batch := make([]*data.Vouch, 0, importBatchSize)

	save := func(v *ethos.Vouch) error {
		if max > 0 && imported >= max {
			return errImportLimit
		}

		batch = append(batch, toDataVouch(v, subject))
		imported++

		if len(batch) >= importBatchSize {
			if err := data.SaveVouches(cfg.DB, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
		return nil
	}

	if subject == "" {
		slog.Info("no subject specified, importing all vouches")
		err = client.AllVouches(ctx, save)
	} else {
		var user *ethos.User
		user, err = client.UserByHandle(ctx, subject)
		if err != nil {
			return fmt.Errorf("resolving subject %s: %w", subject, err)
		}
		slog.Info("importing vouches", "subject", subject, "profile", user.ProfileID)
		err = client.VouchesForSubject(ctx, user.ProfileID, save)
	}
	if err != nil && !errors.Is(err, errImportLimit) {
		return fmt.Errorf("importing vouches: %w", err)
	}

	if err := data.SaveVouches(cfg.DB, batch); err != nil {
		return fmt.Errorf("saving vouches: %w", err)
	}

	res := &VouchImportResult{
		Subject:  subject,
		Imported: imported,
		Duration: time.Since(start).String(),
	}
	return getEncoder().Encode(res)
}

func cmdImportPairs(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)
	subject := normalizeHandle(c.String(subjectFlag.Name))
	max := c.Int(maxFlag.Name)
	fresh := c.Bool(freshFlag.Name)
	delay := time.Duration(c.Int(pairDelayFlag.Name)) * time.Millisecond

	if subject == "" {
		return cli.ShowSubcommandHelp(c)
	}

	key, err := getTwitterKey()
	if err != nil {
		return err
	}
	client, err := twitter.NewClient(key)
	if err != nil {
		return fmt.Errorf("creating twitter client: %w", err)
	}

	vouches, err := data.GetVouchersForSubject(cfg.DB, subject)
	if err != nil {
		return fmt.Errorf("loading cached vouches: %w", err)
	}
	if len(vouches) == 0 {
		return fmt.Errorf("no cached vouches for %s, run `vouchpulse import vouches --subject %s` first",
			subject, subject)
	}

	ctx := context.Background()
	res := &PairImportResult{Subject: subject}

	for _, v := range vouches {
		voucher := normalizeHandle(v.VoucherHandle)
		if voucher == "" {
			res.Skipped++
			continue
		}

		if !fresh {
			cached, err := data.GetPair(cfg.DB, voucher, subject)
			if err != nil {
				return fmt.Errorf("checking pair cache: %w", err)
			}
			if cached != nil {
				res.Skipped++
				continue
			}
		}

		if max > 0 && res.Fetched >= max {
			break
		}

		if err := importPair(ctx, cfg.DB, client, voucher, subject); err != nil {
			slog.Error("failed to import pair", "voucher", voucher, "subject", subject, "error", err)
			res.Failed++
			continue
		}
		res.Fetched++
		slog.Info("imported pair", "voucher", voucher, "subject", subject,
			"done", res.Fetched, "of", len(vouches))

		// be nice to the API
		time.Sleep(delay)
	}

	res.Requests = client.RequestCount()
	res.Duration = time.Since(start).String()
	return getEncoder().Encode(res)
}

// importPair fetches the voucher profile and the four directional
// signals for one pair, caching whatever succeeds. Individual lookup
// failures, the profile included, are logged and left unset rather
// than failing the pair: a voucher with a dead profile still gets
// scored on whatever signals remain.
func importPair(ctx context.Context, db *sql.DB, client *twitter.Client, voucher, subject string) error {
	pair := &data.Pair{VoucherHandle: voucher, SubjectHandle: subject}

	if profile, err := client.UserInfo(ctx, voucher); err != nil {
		slog.Warn("profile lookup failed, continuing without profile", "voucher", voucher, "error", err)
	} else {
		p := &data.Profile{
			Handle:    voucher,
			Followers: profile.Followers,
			Following: profile.Following,
			Verified:  profile.IsBlueVerified,
		}
		if days, known := profile.AgeDays(time.Now()); known {
			p.AgeDays = &days
		}
		if err := data.SaveProfile(db, p); err != nil {
			return fmt.Errorf("saving profile for %s: %w", voucher, err)
		}
	}

	if out, err := client.SearchInteractions(ctx, voucher, subject, 1); err != nil {
		slog.Warn("outbound interaction lookup failed", "voucher", voucher, "error", err)
	} else {
		n := int64(out.Count)
		pair.VoucherMentions = &n
	}

	if in, err := client.SearchInteractions(ctx, subject, voucher, 1); err != nil {
		slog.Warn("inbound interaction lookup failed", "voucher", voucher, "error", err)
	} else {
		n := int64(in.Count)
		pair.SubjectMentions = &n
	}

	if follows, err := client.FollowsQuick(ctx, voucher, subject); err != nil {
		slog.Warn("outbound follow lookup failed", "voucher", voucher, "error", err)
	} else {
		pair.VoucherFollows = &follows
	}

	if follows, err := client.FollowsQuick(ctx, subject, voucher); err != nil {
		slog.Warn("inbound follow lookup failed", "voucher", voucher, "error", err)
	} else {
		pair.SubjectFollows = &follows
	}

	return data.SavePair(db, pair)
}

var errImportLimit = errors.New("import limit reached")

func toDataMarket(m *ethos.Market) *data.Market {
	dm := &data.Market{
		ProfileID:     m.ProfileID,
		Handle:        m.User.Handle(),
		TrustVotes:    m.TrustVotes,
		DistrustVotes: m.DistrustVotes,
	}
	if m.User != nil {
		dm.EthosScore = m.User.Score
	}
	return dm
}

func toDataVouch(v *ethos.Vouch, subject string) *data.Vouch {
	dv := &data.Vouch{
		ID:               v.ID,
		VoucherProfileID: v.AuthorProfileID,
		SubjectProfileID: v.SubjectProfileID,
		VoucherHandle:    normalizeHandle(v.AuthorUser.Handle()),
		SubjectHandle:    normalizeHandle(v.SubjectUser.Handle()),
	}
	if dv.SubjectHandle == "" {
		dv.SubjectHandle = subject
	}
	if v.AuthorUser != nil {
		dv.VoucherScore = v.AuthorUser.Score
	}
	if v.SubjectUser != nil {
		dv.SubjectScore = v.SubjectUser.Score
	}
	return dv
}

func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}
