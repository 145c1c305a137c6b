package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/vouchlab/vouchpulse/pkg/data"
)

const queryResultLimitDefault = 100

var (
	queryLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of results returned",
		Value: queryResultLimitDefault,
	}

	marketLikeFlag = &cli.StringFlag{
		Name:  "like",
		Usage: "Fuzzy search on the market handle",
	}

	tierQueryFlag = &cli.StringFlag{
		Name:  "tier",
		Usage: "Only return pairs in the given tier",
	}

	queryCmd = &cli.Command{
		Name:            "query",
		Aliases:         []string{"q"},
		Usage:           "Query the local cache",
		HideHelpCommand: true,
		Subcommands: []*cli.Command{
			{
				Name:    "markets",
				Usage:   "List cached reputation markets",
				Aliases: []string{"m"},
				Action:  cmdQueryMarkets,
				Flags: []cli.Flag{
					marketLikeFlag,
					queryLimitFlag,
				},
			},
			{
				Name:    "pairs",
				Usage:   "List scored pairs for a subject",
				Aliases: []string{"p"},
				Action:  cmdQueryPairs,
				Flags: []cli.Flag{
					subjectFlag,
					tierQueryFlag,
				},
			},
			{
				Name:    "vouchers",
				Usage:   "List cached vouchers for a subject",
				Aliases: []string{"v"},
				Action:  cmdQueryVouchers,
				Flags: []cli.Flag{
					subjectFlag,
				},
			},
			{
				Name:   "state",
				Usage:  "Show row counts for the local cache",
				Action: cmdQueryState,
			},
		},
	}
)

func cmdQueryMarkets(c *cli.Context) error {
	cfg := getConfig(c)

	list, err := data.QueryMarkets(cfg.DB, c.String(marketLikeFlag.Name), c.Int(queryLimitFlag.Name))
	if err != nil {
		return fmt.Errorf("querying markets: %w", err)
	}

	return getEncoder().Encode(list)
}

func cmdQueryPairs(c *cli.Context) error {
	cfg := getConfig(c)
	subject := normalizeHandle(c.String(subjectFlag.Name))
	if subject == "" {
		return cli.ShowSubcommandHelp(c)
	}

	var list []*data.PairScore
	var err error
	if tier := c.String(tierQueryFlag.Name); tier != "" {
		list, err = data.GetPairScoresByTier(cfg.DB, subject, tier)
	} else {
		list, err = data.GetPairScoresForSubject(cfg.DB, subject)
	}
	if err != nil {
		return fmt.Errorf("querying pair scores: %w", err)
	}

	return getEncoder().Encode(list)
}

func cmdQueryVouchers(c *cli.Context) error {
	cfg := getConfig(c)
	subject := normalizeHandle(c.String(subjectFlag.Name))
	if subject == "" {
		return cli.ShowSubcommandHelp(c)
	}

	list, err := data.GetVouchersForSubject(cfg.DB, subject)
	if err != nil {
		return fmt.Errorf("querying vouchers: %w", err)
	}

	return getEncoder().Encode(list)
}

func cmdQueryState(c *cli.Context) error {
	cfg := getConfig(c)

	state, err := data.GetDataState(cfg.DB)
	if err != nil {
		return fmt.Errorf("querying data state: %w", err)
	}

	return getEncoder().Encode(state)
}
