// Package baserow is a small client for the Baserow REST API: field
// listing, batch row create and update, and user file upload.
package baserow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/steveyegge/airbridge/internal/schema"
)

// DefaultURL is the hosted Baserow instance.
const DefaultURL = "https://api.baserow.io"

// MaxBatchSize is the largest number of rows Baserow accepts per batch
// request.
const MaxBatchSize = 200

// Client talks to one Baserow instance with a database token.
type Client struct {
	apiURL string
	token  string
	http   *http.Client
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

// New creates a client. baseURL is the instance root, for example
// https://baserow.example.com for self-hosted deployments; empty means
// DefaultURL.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		apiURL: strings.TrimRight(baseURL, "/") + "/api",
		token:  token,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListFields returns the field descriptors of a table.
func (c *Client) ListFields(ctx context.Context, tableID int) ([]schema.Field, error) {
	path := fmt.Sprintf("/database/fields/table/%d/", tableID)

	var fields []schema.Field
	if err := c.doJSON(ctx, "failed to get baserow field data", http.MethodGet, path, nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

type batchRequest struct {
	Items []map[string]any `json:"items"`
}

type batchResponse struct {
	Items []struct {
		ID int `json:"id"`
	} `json:"items"`
}

// BatchCreate creates rows and returns their ids in input order.
func (c *Client) BatchCreate(ctx context.Context, tableID int, items []map[string]any) ([]int, error) {
	path := fmt.Sprintf("/database/rows/table/%d/batch/", tableID)

	var resp batchResponse
	if err := c.doJSON(ctx, "error creating records", http.MethodPost, path, batchRequest{Items: items}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) != len(items) {
		return nil, fmt.Errorf("%w: %s returned %d rows for %d items", ErrDestinationWrite, path, len(resp.Items), len(items))
	}

	ids := make([]int, len(resp.Items))
	for i, item := range resp.Items {
		ids[i] = item.ID
	}
	return ids, nil
}

// BatchUpdate patches rows. Every item must carry the row "id".
func (c *Client) BatchUpdate(ctx context.Context, tableID int, items []map[string]any) error {
	path := fmt.Sprintf("/database/rows/table/%d/batch/", tableID)
	return c.doJSON(ctx, "error updating records", http.MethodPatch, path, batchRequest{Items: items}, nil)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadFile stores content as a user file and returns the name Baserow
// assigned to it. File fields reference uploads by that name.
func (c *Client) UploadFile(ctx context.Context, filename string, content []byte, mimeType string) (string, error) {
	const path = "/user-files/upload-file/"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header.Set("Content-Type", mimeType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Name string `json:"name"`
	}
	if err := c.do(req, "error uploading file", ErrFileUpload, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", fmt.Errorf("%w: upload of %q returned no file name", ErrFileUpload, filename)
	}
	return resp.Name, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, op, ErrDestinationWrite, out)
}

func (c *Client) do(req *http.Request, op string, kind error, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{
			Op:         op,
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       string(data),
			kind:       kind,
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
