// Package remote talks to the task collection endpoint of the sync server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dori/tasksync/internal/model"
)

// TasksPath is the task collection path on the server
const TasksPath = "/tasks"

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 8 << 20

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the server root, e.g. "http://[::]:8000".
	BaseURL string

	// Timeout bounds each request when HTTPClient is nil. Zero means no
	// timeout.
	Timeout time.Duration

	// HTTPClient is used for all requests. Defaults to a client with
	// Timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: %s %s: unexpected status %d %s",
		e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client fetches and uploads the full task list
type Client struct {
	tasksURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates cfg and builds a Client
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("remote: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote: base URL must be http or https (got %q)", cfg.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("remote: base URL %q has no host", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		tasksURL:   base + TasksPath,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// TasksURL returns the absolute URL of the task collection
func (c *Client) TasksURL() string {
	return c.tasksURL
}

// FetchEntries GETs the task collection. Returned entries carry fresh IDs.
func (c *Client) FetchEntries(ctx context.Context) ([]model.Entry, error) {
	body, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	var entries []model.Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("remote: decoding GET %s: %w", TasksPath, err)
	}
	if entries == nil {
		entries = []model.Entry{}
	}

	c.logger.Debug("fetched entries", "url", c.tasksURL, "count", len(entries))
	return model.EnsureIDs(entries), nil
}

// PushEntries POSTs the full task list. The response body is discarded.
func (c *Client) PushEntries(ctx context.Context, entries []model.Entry) error {
	if entries == nil {
		entries = []model.Entry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("remote: encoding entries: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, payload); err != nil {
		return err
	}

	c.logger.Debug("pushed entries", "url", c.tasksURL, "count", len(entries))
	return nil
}

// do issues a request against the task collection and returns the body of
// a 2xx response.
func (c *Client) do(ctx context.Context, method string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.tasksURL, reader)
	if err != nil {
		return nil, fmt.Errorf("remote: building %s request: %w", method, err)
	}
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("remote: %s %s: %w", method, TasksPath, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("remote: reading %s %s response: %w", method, TasksPath, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &StatusError{Method: method, URL: c.tasksURL, StatusCode: response.StatusCode}
	}

	return body, nil
}
