// Package remote talks to the task collection resource over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nibzard/tasklist-go/internal/task"
)

const (
	// DefaultBaseURL is the collection resource used when none is configured.
	DefaultBaseURL = "https://670131c8b52042b542d7097f.mockapi.io/todolist-hcu/todolist"

	// DefaultTimeout bounds every call.
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 4 << 20
)

// Resource is the contract of the remote task collection.
// Calls are attempted once; failures are returned as *TransportError.
type Resource interface {
	// ListTasks returns the collection in server order.
	ListTasks(ctx context.Context) ([]task.Task, error)

	// CreateTask posts t and returns the record the server created.
	// The caller validates t beforehand.
	CreateTask(ctx context.Context, t task.Task) (task.Task, error)

	// DeleteTask removes the task with the given id.
	DeleteTask(ctx context.Context, id string) error

	// UpdateTask replaces the full record of t.ID.
	UpdateTask(ctx context.Context, t task.Task) error
}

// Options configures a Client.
type Options struct {
	// BaseURL is the collection endpoint. Defaults to DefaultBaseURL.
	BaseURL string
	// Timeout bounds each call. Defaults to DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the HTTP client (for testing).
	HTTPClient *http.Client
}

// Client implements Resource over HTTP with JSON bodies.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
}

var _ Resource = (*Client)(nil)

// New creates a client for the collection at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", base)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		base:    strings.TrimRight(u.String(), "/"),
		timeout: timeout,
		http:    httpClient,
	}, nil
}

// BaseURL returns the collection endpoint.
func (c *Client) BaseURL() string {
	return c.base
}

// ListTasks returns the collection in server order.
func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	if err := c.do(ctx, "list", http.MethodGet, c.base, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// CreateTask posts t and returns the created record. An empty response body
// yields t unchanged.
func (c *Client) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	var created *task.Task
	if err := c.do(ctx, "create", http.MethodPost, c.base, t, &created); err != nil {
		return task.Task{}, err
	}
	if created == nil {
		return t, nil
	}
	return *created, nil
}

// DeleteTask removes the task with the given id.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.itemURL(id), nil, nil)
}

// UpdateTask sends the full record of t to its item URL.
func (c *Client) UpdateTask(ctx context.Context, t task.Task) error {
	return c.do(ctx, "update", http.MethodPut, c.itemURL(t.ID), t, nil)
}

func (c *Client) itemURL(id string) string {
	return c.base + "/" + url.PathEscape(id)
}

// do performs one request. out, when non-nil, receives the decoded body;
// an empty body leaves it untouched.
func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fail := func(status int, err error) error {
		return &TransportError{Op: op, Method: method, URL: target, StatusCode: status, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fail(0, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: snippet(data)})
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:197] + "..."
	}
	return s
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.Code)
	if text == "" {
		text = "unexpected status"
	}
	if e.Body != "" {
		return fmt.Sprintf("%d %s: %s", e.Code, text, e.Body)
	}
	return fmt.Sprintf("%d %s", e.Code, text)
}

// TransportError reports a failed call to the collection resource:
// network failure, timeout, non-2xx status or an undecodable body.
type TransportError struct {
	Op         string // list, create, delete or update
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s task: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the server answered 404.
func (e *TransportError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Timeout reports whether the call ran out of time.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
