// Package twitter implements a typed client for the TwitterAPI.io
// service: profile lookups, quick follow checks, and mention/reply
// interaction search between two accounts.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vouchlab/vouchpulse/pkg/net"
)

const (
	baseURLDefault = "https://api.twitterapi.io"
	apiKeyHeader   = "X-API-Key"

	// createdAt formats seen in API responses
	rubyDateFormat = "Mon Jan 02 15:04:05 -0700 2006"
)

// Profile is an account snapshot as returned by the user info endpoint.
type Profile struct {
	UserName       string `json:"userName" yaml:"userName"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	Followers      int64  `json:"followers" yaml:"followers"`
	Following      int64  `json:"following" yaml:"following"`
	CreatedAt      string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	IsBlueVerified bool   `json:"isBlueVerified" yaml:"isBlueVerified"`
}

// Tweet is a minimal tweet representation from the search endpoint.
type Tweet struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Text      string `json:"text,omitempty" yaml:"text,omitempty"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// Interactions is the result of searching tweets from one user
// mentioning or replying to another.
type Interactions struct {
	Query  string  `json:"query" yaml:"query"`
	Count  int     `json:"count" yaml:"count"`
	Tweets []Tweet `json:"tweets,omitempty" yaml:"tweets,omitempty"`
}

// Client talks to TwitterAPI.io using header key authentication.
type Client struct {
	baseURL  string
	client   *http.Client
	headers  map[string]string
	requests atomic.Int64
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}

	hc, err := net.GetHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP client: %w", err)
	}

	c := &Client{
		baseURL: baseURLDefault,
		client:  hc,
		headers: map[string]string{apiKeyHeader: apiKey},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RequestCount returns the number of API requests made by this client.
func (c *Client) RequestCount() int64 {
	return c.requests.Load()
}

// UserInfo returns the profile for a username.
func (c *Client) UserInfo(ctx context.Context, username string) (*Profile, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}

	var res struct {
		Data Profile `json:"data"`
	}

	u := fmt.Sprintf("%s/twitter/user/info?userName=%s", c.baseURL, url.QueryEscape(username))
	c.requests.Add(1)
	if err := net.GetJSON(ctx, c.client, u, c.headers, &res); err != nil {
		return nil, fmt.Errorf("error getting user info for %s: %w", username, err)
	}

	return &res.Data, nil
}

// FollowsQuick reports whether source follows target by scanning the
// first page of source's followings only. A false result means "not
// found in the first page", not a definitive no.
func (c *Client) FollowsQuick(ctx context.Context, source, target string) (bool, error) {
	if source == "" || target == "" {
		return false, errors.New("source and target are required")
	}

	var res struct {
		Followings []struct {
			UserName string `json:"userName"`
			Username string `json:"username"`
		} `json:"followings"`
	}

	u := fmt.Sprintf("%s/twitter/user/followings?userName=%s", c.baseURL, url.QueryEscape(source))
	c.requests.Add(1)
	if err := net.GetJSON(ctx, c.client, u, c.headers, &res); err != nil {
		return false, fmt.Errorf("error listing followings for %s: %w", source, err)
	}

	want := strings.ToLower(target)
	for _, f := range res.Followings {
		name := f.UserName
		if name == "" {
			name = f.Username
		}
		if strings.ToLower(name) == want {
			return true, nil
		}
	}
	return false, nil
}

// SearchInteractions finds tweets from one user mentioning or replying
// to another. A 404 from the search endpoint means no matches and is
// returned as an empty result, not an error.
func (c *Client) SearchInteractions(ctx context.Context, from, to string, limit int) (*Interactions, error) {
	if from == "" || to == "" {
		return nil, errors.New("from and to are required")
	}
	if limit < 1 {
		limit = 20
	}

	query := fmt.Sprintf("from:%s (@%s OR to:%s)", from, to, to)

	var res struct {
		Tweets []Tweet `json:"tweets"`
		Data   struct {
			Tweets []Tweet `json:"tweets"`
		} `json:"data"`
	}

	u := fmt.Sprintf("%s/twitter/tweet/advanced_search?query=%s&queryType=Latest",
		c.baseURL, url.QueryEscape(query))
	c.requests.Add(1)
	if err := net.GetJSON(ctx, c.client, u, c.headers, &res); err != nil {
		if errors.Is(err, net.ErrNotFound) {
			return &Interactions{Query: query}, nil
		}
		return nil, fmt.Errorf("error searching interactions %s -> %s: %w", from, to, err)
	}

	tweets := res.Tweets
	if len(tweets) == 0 {
		tweets = res.Data.Tweets
	}

	r := &Interactions{Query: query, Count: len(tweets)}
	if len(tweets) > limit {
		tweets = tweets[:limit]
	}
	r.Tweets = tweets
	return r, nil
}

// HasInteraction reports whether from has ever mentioned or replied to.
func (c *Client) HasInteraction(ctx context.Context, from, to string) (bool, error) {
	res, err := c.SearchInteractions(ctx, from, to, 1)
	if err != nil {
		return false, err
	}
	return res.Count > 0, nil
}

// AgeDays returns the account age in days. The second return is false
// when the createdAt value is absent or unparseable, which is distinct
// from a known age of zero days.
func (p *Profile) AgeDays(now time.Time) (int64, bool) {
	if p == nil || p.CreatedAt == "" {
		return 0, false
	}

	created, err := time.Parse(time.RFC3339, p.CreatedAt)
	if err != nil {
		created, err = time.Parse(rubyDateFormat, p.CreatedAt)
	}
	if err != nil {
		return 0, false
	}

	days := int64(now.Sub(created).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}
