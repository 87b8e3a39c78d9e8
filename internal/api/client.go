// Package api is the HTTP client of the constituencies JSON API.
//
// List calls never return errors directly; they return a Result whose Kind the
// caller switches on. Lookups that return a single record use ordinary error
// returns.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"constituencies/internal/logging"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 2 << 20

// Client talks to the constituencies API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero disables the per-request bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client rooted at baseURL (for example
// "https://host/api"). A trailing slash is ignored.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    15 * time.Second,
		userAgent:  "constituencies/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Provinces calls GET /provinces.
func (c *Client) Provinces(ctx context.Context) Result {
	return c.list(ctx, "/provinces")
}

// AllConstituencies calls GET /constituencies.
func (c *Client) AllConstituencies(ctx context.Context) Result {
	return c.list(ctx, "/constituencies")
}

// Constituencies calls GET /constituencies/{province}. Both the bare list and
// the wrapper object are accepted.
func (c *Client) Constituencies(ctx context.Context, province string) Result {
	log := logging.Get(logging.CategoryAPI)

	body, err := c.get(ctx, "/constituencies/"+url.PathEscape(province))
	if err != nil {
		log.Warn("constituencies for %q failed: %v", province, err)
		return Failed(err)
	}
	payload, err := DecodePayload(body)
	if err != nil {
		log.Warn("constituencies for %q: %v", province, err)
		return Failed(err)
	}
	log.Debug("constituencies for %q: shape=%s items=%d", province, payload.Shape, len(payload.Items()))
	return Succeeded(payload.Items())
}

// Match is the body of GET /constituency/{name}.
type Match struct {
	Constituency string `json:"constituency"`
	Province     string `json:"province"`
}

// LookupProvince calls GET /constituency/{name}. A 404 is reported as an error
// matching ErrNotFound.
func (c *Client) LookupProvince(ctx context.Context, name string) (Match, error) {
	body, err := c.get(ctx, "/constituency/"+url.PathEscape(name))
	if err != nil {
		return Match{}, err
	}
	var m Match
	if err := json.Unmarshal(body, &m); err != nil {
		return Match{}, fmt.Errorf("failed to decode lookup response: %w", err)
	}
	return m, nil
}

func (c *Client) list(ctx context.Context, path string) Result {
	body, err := c.get(ctx, path)
	if err != nil {
		logging.Get(logging.CategoryAPI).Warn("GET %s failed: %v", path, err)
		return Failed(err)
	}
	var items []string
	if err := json.Unmarshal(body, &items); err != nil {
		return Failed(fmt.Errorf("failed to decode %s: %w", path, err))
	}
	return Succeeded(items)
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	timer := logging.StartTimer(logging.CategoryAPI, "GET "+path)
	defer timer.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Detail: detailOf(body)}
	}
	return body, nil
}

// detailOf extracts the "detail" message of an error body, if it has one.
func detailOf(body []byte) string {
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &e) != nil || len(e.Detail) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(e.Detail, &s) == nil {
		return s
	}
	return string(e.Detail)
}
