// Package airtable reads records from the Airtable REST API, or from JSONL
// exports of it, as lazy sequences.
package airtable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/steveyegge/airbridge/internal/schema"
)

// DefaultURL is the Airtable API root.
const DefaultURL = "https://api.airtable.com"

// DefaultPageSize is the largest page Airtable serves.
const DefaultPageSize = 100

var (
	// ErrSourceRead is returned when Airtable rejects a list request.
	ErrSourceRead = errors.New("airtable request failed")

	// ErrDownload is returned when an attachment cannot be fetched.
	ErrDownload = errors.New("attachment download failed")
)

// Client reads one Airtable account with a personal access token.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of the
// HTTP client, so a client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithPageSize sets the number of records requested per page (1-100).
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= DefaultPageSize {
			c.pageSize = n
		}
	}
}

// New creates a client. Empty baseURL means DefaultURL.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		pageSize: DefaultPageSize,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Records []schema.Record `json:"records"`
	Offset  string          `json:"offset"`
}

// Records lists every record of a table, fetching one page at a time as
// the sequence is consumed. table is a table id or name. Iteration stops
// at the first error.
func (c *Client) Records(ctx context.Context, baseID, table string) iter.Seq2[schema.Record, error] {
	return func(yield func(schema.Record, error) bool) {
		offset := ""
		for {
			page, err := c.listPage(ctx, baseID, table, offset)
			if err != nil {
				yield(schema.Record{}, err)
				return
			}
			for _, rec := range page.Records {
				if rec.Fields == nil {
					rec.Fields = map[string]any{}
				}
				if !yield(rec, nil) {
					return
				}
			}
			if page.Offset == "" {
				return
			}
			offset = page.Offset
		}
	}
}

func (c *Client) listPage(ctx context.Context, baseID, table, offset string) (*listResponse, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if offset != "" {
		q.Set("offset", offset)
	}
	endpoint := fmt.Sprintf("%s/v0/%s/%s?%s", c.baseURL, url.PathEscape(baseID), url.PathEscape(table), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s/%s: %w", baseID, table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: list %s/%s returned %d: %s", ErrSourceRead, baseID, table, resp.StatusCode, body)
	}

	var page listResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode records of %s/%s: %w", baseID, table, err)
	}
	return &page, nil
}

// Download fetches attachment content. Airtable attachment URLs are signed,
// so no token is sent.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrDownload, rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	return data, nil
}
