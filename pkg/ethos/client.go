// Package ethos implements a typed client for the Ethos Network v2
// REST API: profile stats, reputation markets, and vouch records, with
// offset pagination.
package ethos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vouchlab/vouchpulse/pkg/net"
)

const (
	baseURLDefault    = "https://api.ethos.network/api/v2"
	clientNameDefault = "vouchpulse"
	pageSizeDefault   = 100
	pageDelayDefault  = 200 * time.Millisecond

	// userkey prefixes carrying the linked X (Twitter) identity
	userkeyHandlePrefix  = "service:x.com:username:"
	userkeyServicePrefix = "service:x.com:"
)

// Stats holds network-wide profile statistics.
type Stats struct {
	ActiveProfiles   int64 `json:"activeProfiles" yaml:"activeProfiles"`
	InvitesAvailable int64 `json:"invitesAvailable" yaml:"invitesAvailable"`
}

// User is an Ethos account with its linked identities.
type User struct {
	ID        int64    `json:"id,omitempty" yaml:"id,omitempty"`
	ProfileID int64    `json:"profileId,omitempty" yaml:"profileId,omitempty"`
	Username  string   `json:"username,omitempty" yaml:"username,omitempty"`
	Score     int64    `json:"score,omitempty" yaml:"score,omitempty"`
	Userkeys  []string `json:"userkeys,omitempty" yaml:"userkeys,omitempty"`
}

// Market is one reputation market (a person whose reputation trades).
type Market struct {
	ProfileID     int64 `json:"marketProfileId" yaml:"marketProfileId"`
	TrustVotes    int64 `json:"trustVotes" yaml:"trustVotes"`
	DistrustVotes int64 `json:"distrustVotes" yaml:"distrustVotes"`
	User          *User `json:"user,omitempty" yaml:"user,omitempty"`
}

// Vouch is a staked trust assertion from one profile toward another.
type Vouch struct {
	ID               int64 `json:"id" yaml:"id"`
	AuthorProfileID  int64 `json:"authorProfileId" yaml:"authorProfileId"`
	SubjectProfileID int64 `json:"subjectProfileId" yaml:"subjectProfileId"`
	AuthorUser       *User `json:"authorUser,omitempty" yaml:"authorUser,omitempty"`
	SubjectUser      *User `json:"subjectUser,omitempty" yaml:"subjectUser,omitempty"`
}

// Page is the API's offset-paginated envelope.
type Page[T any] struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Values []T `json:"values"`
}

// VouchQuery filters the vouch listing.
type VouchQuery struct {
	SubjectProfileIDs []int64 `json:"subjectProfileIds,omitempty"`
	AuthorProfileIDs  []int64 `json:"authorProfileIds,omitempty"`
	Limit             int     `json:"limit"`
	Offset            int     `json:"offset"`
}

// Client talks to the Ethos Network API. No authentication is
// required; the client only identifies itself via a header.
type Client struct {
	baseURL   string
	client    *http.Client
	headers   map[string]string
	pageDelay time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithPageDelay overrides the politeness delay between pages.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

func NewClient(opts ...Option) (*Client, error) {
	hc, err := net.GetHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP client: %w", err)
	}

	c := &Client{
		baseURL:   baseURLDefault,
		client:    hc,
		headers:   map[string]string{"X-Ethos-Client": clientNameDefault},
		pageDelay: pageDelayDefault,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Stats returns overall profile statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := net.GetJSON(ctx, c.client, c.baseURL+"/profiles/stats", c.headers, &s); err != nil {
		return nil, fmt.Errorf("error getting profile stats: %w", err)
	}
	return &s, nil
}

// ListMarkets returns one page of reputation markets, newest first.
func (c *Client) ListMarkets(ctx context.Context, limit, offset int) (*Page[Market], error) {
	if limit < 1 || limit > pageSizeDefault {
		limit = pageSizeDefault
	}

	url := fmt.Sprintf("%s/markets?limit=%d&offset=%d&orderBy=createdAt&orderDirection=desc",
		c.baseURL, limit, offset)

	var page Page[Market]
	if err := net.GetJSON(ctx, c.client, url, c.headers, &page); err != nil {
		return nil, fmt.Errorf("error listing markets at offset %d: %w", offset, err)
	}
	return &page, nil
}

// AllMarkets walks every market with automatic pagination, invoking fn
// for each. Iteration stops on the first error returned by fn.
func (c *Client) AllMarkets(ctx context.Context, fn func(*Market) error) error {
	return paginate(ctx, c.pageDelay, func(ctx context.Context, offset int) (*Page[Market], error) {
		return c.ListMarkets(ctx, pageSizeDefault, offset)
	}, fn)
}

// ListVouches returns one page of vouches matching the query filters.
func (c *Client) ListVouches(ctx context.Context, q VouchQuery) (*Page[Vouch], error) {
	if q.Limit < 1 || q.Limit > pageSizeDefault {
		q.Limit = pageSizeDefault
	}

	var page Page[Vouch]
	if err := net.PostJSON(ctx, c.client, c.baseURL+"/vouches", c.headers, q, &page); err != nil {
		return nil, fmt.Errorf("error listing vouches at offset %d: %w", q.Offset, err)
	}
	return &page, nil
}

// AllVouches walks every vouch on the network.
func (c *Client) AllVouches(ctx context.Context, fn func(*Vouch) error) error {
	return paginate(ctx, c.pageDelay, func(ctx context.Context, offset int) (*Page[Vouch], error) {
		return c.ListVouches(ctx, VouchQuery{Limit: pageSizeDefault, Offset: offset})
	}, fn)
}

// VouchesForSubject walks all vouches received by one profile.
func (c *Client) VouchesForSubject(ctx context.Context, profileID int64, fn func(*Vouch) error) error {
	return paginate(ctx, c.pageDelay, func(ctx context.Context, offset int) (*Page[Vouch], error) {
		return c.ListVouches(ctx, VouchQuery{
			SubjectProfileIDs: []int64{profileID},
			Limit:             pageSizeDefault,
			Offset:            offset,
		})
	}, fn)
}

// UserByHandle looks up an Ethos user by X (Twitter) handle.
func (c *Client) UserByHandle(ctx context.Context, handle string) (*User, error) {
	if handle == "" {
		return nil, errors.New("handle is required")
	}

	var u User
	url := c.baseURL + "/user/by/x/" + strings.TrimPrefix(handle, "@")
	if err := net.GetJSON(ctx, c.client, url, c.headers, &u); err != nil {
		return nil, fmt.Errorf("error getting user for handle %s: %w", handle, err)
	}
	return &u, nil
}

func paginate[T any](ctx context.Context, delay time.Duration, list func(context.Context, int) (*Page[T], error), fn func(*T) error) error {
	offset := 0
	total := -1

	for {
		page, err := list(ctx, offset)
		if err != nil {
			return err
		}

		if total < 0 {
			total = page.Total
			slog.Debug("pagination started", "total", total)
		}

		for i := range page.Values {
			if err := fn(&page.Values[i]); err != nil {
				return err
			}
		}

		offset += pageSizeDefault
		if offset >= total || len(page.Values) == 0 {
			return nil
		}

		// be nice to the API
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Handle returns the user's X handle: the username field when set,
// otherwise parsed from the userkeys.
func (u *User) Handle() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	for _, k := range u.Userkeys {
		if strings.HasPrefix(k, userkeyHandlePrefix) {
			return k[strings.LastIndex(k, ":")+1:]
		}
	}
	return ""
}

// TwitterID returns the user's numeric X account ID from the userkeys.
func (u *User) TwitterID() string {
	if u == nil {
		return ""
	}
	for _, k := range u.Userkeys {
		if strings.HasPrefix(k, userkeyServicePrefix) && !strings.Contains(k, "username") {
			return k[strings.LastIndex(k, ":")+1:]
		}
	}
	return ""
}
