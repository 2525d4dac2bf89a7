// Package api talks to a jsonplaceholder-style /comments REST endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/idilsaglam/comments/internal/model"
)

const (
	DefaultBaseURL = "https://jsonplaceholder.typicode.com"
	defaultTimeout = 10 * time.Second
	userAgent      = "comments-cli/1.0"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

type Client struct {
	baseURL   string
	client    *http.Client
	transport http.RoundTripper
	token     string
}

type Option func(*Client)

// WithTimeout bounds every request. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTransport swaps the underlying round tripper (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: defaultTimeout},
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client.Transport = c
	return c
}

// BaseURL is the endpoint root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// RoundTrip stamps the headers every request carries.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", xid.New().String())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.transport.RoundTrip(req)
}

// List fetches the full collection in server order.
func (c *Client) List(ctx context.Context) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.do(ctx, http.MethodGet, "/comments", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Comment{}
	}
	return out, nil
}

// Create posts a new comment. The response body is discarded.
func (c *Client) Create(ctx context.Context, cm model.Comment) error {
	return c.do(ctx, http.MethodPost, "/comments", cm, nil)
}

// Update patches the comment identified by cm.ID. The response body is discarded.
func (c *Client) Update(ctx context.Context, cm model.Comment) error {
	return c.do(ctx, http.MethodPatch, commentPath(cm.ID), cm, nil)
}

func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, commentPath(id), nil, nil)
}

func commentPath(id int) string {
	return "/comments/" + strconv.Itoa(id)
}

// do performs one request. Transport errors are returned as-is so their
// message reaches the user verbatim.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(b)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Method: method, URL: url}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
