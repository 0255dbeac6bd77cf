// Package client provides the Go SDK for the jugtracker HTTP API.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrConflict is returned by UpdateTail when the ledger changed by more rows
// than were edited since the tail was fetched.
var ErrConflict = errors.New("ledger changed since the rows were fetched")

// ErrInvalid is returned when the server rejects a request as malformed.
var ErrInvalid = errors.New("request rejected by server")

// Jug states.
const (
	StateFilled  = "Filled"
	StateEmptied = "Emptied"
)

// Event is one row of the ledger.
type Event struct {
	JugName  string `json:"JugName"`
	State    string `json:"State"`
	DateTime string `json:"DateTime"`
}

// TailResult is returned by Tail.
type TailResult struct {
	Lines         []Event `json:"lines"`
	TotalRows     int     `json:"totalRows"`
	RetrievedRows int     `json:"retrievedRows"`
}

// HealthResult is returned by Health.
type HealthResult struct {
	Status string `json:"status"`
	Ledger string `json:"ledger,omitempty"`
}

// Client talks to a jugtracker server.
type Client struct {
	base       string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client, overriding any TLS options.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Only use this against a server with a self-signed certificate.
func WithInsecureSkipVerify() Option {
	return func(c *Client) error {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
			Timeout: 10 * time.Second,
		}
		return nil
	}
}

// New creates a new Client for the server at base.
//
//	c, err := client.New("http://localhost:5000")
func New(base string, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, errors.New("server URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// ListAll returns every ledger event in storage order.
func (c *Client) ListAll(ctx context.Context) ([]Event, error) {
	return c.listJugs(ctx, "/api/jugs")
}

// ListFilled returns the jugs that are currently filled, oldest fill first.
func (c *Client) ListFilled(ctx context.Context) ([]Event, error) {
	return c.listJugs(ctx, "/api/jugs?state=filled")
}

func (c *Client) listJugs(ctx context.Context, path string) ([]Event, error) {
	body, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return events, nil
}

// Fill marks the named jugs as filled and returns how many were recorded.
func (c *Client) Fill(ctx context.Context, names ...string) (int, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/api/jugs/fill", map[string]any{"jugs": names})
	if err != nil {
		return 0, err
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return resp.Count, nil
}

// Empty marks the named jug as emptied.
func (c *Client) Empty(ctx context.Context, name string) error {
	_, err := c.doJSON(ctx, http.MethodPost, "/api/jugs/empty", map[string]string{"jugName": name})
	return err
}

// ExportCSV returns the raw ledger CSV.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/data-csv", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")
	return c.do(req, 64<<20)
}

// Tail returns the newest n events, newest first.
func (c *Client) Tail(ctx context.Context, n int) (*TailResult, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/api/data-csv/last-n?n="+strconv.Itoa(n), nil)
	if err != nil {
		return nil, err
	}
	var res TailResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &res, nil
}

// UpdateTail replaces the editedCount newest rows with lines (newest first,
// as returned by Tail). totalRows is the TotalRows seen when the tail was
// fetched. It returns the new row count.
func (c *Client) UpdateTail(ctx context.Context, lines []Event, totalRows, editedCount int) (int, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/api/data-csv/update", map[string]any{
		"lines":       lines,
		"totalRows":   totalRows,
		"editedCount": editedCount,
	})
	if err != nil {
		return 0, err
	}
	var resp struct {
		NewTotal int `json:"newTotal"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return resp.NewTotal, nil
}

// Health queries GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResult, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	var res HealthResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &res, nil
}

// doJSON sends payload (when non-nil) as JSON and returns the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, 16<<20)
}

// do executes req and maps non-2xx responses to errors.
func (c *Client) do(req *http.Request, limit int64) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, fmt.Errorf("%w: %s", ErrConflict, errorMessage(body))
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrInvalid, errorMessage(body))
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("not found: %s", req.URL.Path)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, errorMessage(body))
	}
	return body, nil
}

// errorMessage extracts the "error" field of a JSON error body, falling back
// to the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
