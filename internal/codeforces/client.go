// Package codeforces fetches submission histories from the Codeforces API.
package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/verte-zerg/cfheat/internal/model"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://codeforces.com"

// DefaultTimeout bounds a single history fetch.
const DefaultTimeout = 30 * time.Second

// ErrAPIStatus is returned when the API answers with a non-OK status.
var ErrAPIStatus = errors.New("codeforces api returned non-OK status")

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,24}$`)

// ValidHandle reports whether h looks like a Codeforces handle.
func ValidHandle(h string) bool {
	return handlePattern.MatchString(h)
}

// Client talks to the Codeforces API.
type Client struct {
	baseURL  string
	http     *http.Client
	location *time.Location
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTimeout sets the HTTP client timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLocation sets the zone submission timestamps are converted to.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

// NewClient constructs a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		http:     &http.Client{Timeout: DefaultTimeout},
		location: time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submissions returns the full submission history of handle, newest first as
// the API orders it.
func (c *Client) Submissions(ctx context.Context, handle string) ([]model.RawSubmission, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("handle is required")
	}
	endpoint := c.baseURL + "/api/user.status?handle=" + url.QueryEscape(handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var payload statusResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && payload.Comment != "" {
			return nil, fmt.Errorf("unexpected api status %s: %s", resp.Status, payload.Comment)
		}
		return nil, fmt.Errorf("unexpected api status: %s", resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode api response: %w", decodeErr)
	}
	if payload.Status != statusOK {
		if payload.Comment != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrAPIStatus, payload.Status, payload.Comment)
		}
		return nil, fmt.Errorf("%w: %q", ErrAPIStatus, payload.Status)
	}
	return payload.ToRawSubmissions(c.location), nil
}
