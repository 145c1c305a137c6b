package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNotFound is returned for HTTP 404 responses so callers can treat
// "no results" differently from transport failures.
var ErrNotFound = errors.New("not found")

// GetJSON issues a GET and decodes the response body into target.
func GetJSON[T any](ctx context.Context, client *http.Client, url string, headers map[string]string, target *T) error {
	return doJSON(ctx, client, http.MethodGet, url, headers, nil, target)
}

// PostJSON issues a POST with a JSON body and decodes the response into target.
func PostJSON[T any](ctx context.Context, client *http.Client, url string, headers map[string]string, body any, target *T) error {
	return doJSON(ctx, client, http.MethodPost, url, headers, body, target)
}

func doJSON[T any](ctx context.Context, client *http.Client, method, url string, headers map[string]string, body any, target *T) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("error creating HTTP %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := ""
		if b, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024)); readErr == nil {
			msg = string(b)
		}
		return fmt.Errorf("unexpected status %s for %s: %s", resp.Status, url, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding content: %w", err)
	}

	return nil
}
