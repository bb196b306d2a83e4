// Package apiclient is the single way the server talks to the Almacen
// backend. Every request goes through Client, which rebinds "/api" targets
// to the configured origin and applies the caller's RequestOptions.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/almacen/almacen-ui/internal/observability/metrics"
	"github.com/almacen/almacen-ui/internal/observability/statsd"
)

// ErrRelativeTarget is returned when a target is still relative after
// resolution, which happens for "/api" paths when no base origin is set.
var ErrRelativeTarget = errors.New("apiclient: target has no origin; set API_BASE_URL")

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

// Client wraps an *http.Client with base-origin resolution.
type Client struct {
	resolver Resolver
	http     *http.Client
	metrics  statsd.Sink
	logger   *slog.Logger
}

// New builds a Client. The default HTTP client has no timeout of its own;
// deadlines come from the request context.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Noop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		resolver: NewResolver(opts.BaseURL),
		http:     hc,
		metrics:  sink,
		logger:   logger,
	}
}

// Resolver exposes the client's base-origin resolver.
func (c *Client) Resolver() Resolver { return c.resolver }

// Fetch sends a request to target after resolving it against the base origin.
// The caller owns the response body.
func (c *Client) Fetch(ctx context.Context, method, target string, opts RequestOptions, body io.Reader) (*http.Response, error) {
	return c.do(ctx, method, c.resolver.Resolve(target), opts, body)
}

// FetchURL sends a request to u as-is. URL values are never rewritten.
func (c *Client) FetchURL(ctx context.Context, method string, u *url.URL, opts RequestOptions, body io.Reader) (*http.Response, error) {
	if u == nil {
		return nil, errors.New("apiclient: nil url")
	}
	return c.do(ctx, method, u.String(), opts, body)
}

func (c *Client) do(ctx context.Context, method, target string, opts RequestOptions, body io.Reader) (*http.Response, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse target %q: %w", target, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: %s", ErrRelativeTarget, target)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	opts.Apply(req)
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	m := metrics.APIMetric{Method: method, Duration: time.Since(start), Err: err}
	if resp != nil {
		m.Status = resp.StatusCode
	}
	metrics.EmitAPICall(c.metrics, m)
	if err != nil {
		c.logger.DebugContext(ctx, "backend request failed",
			slog.String("method", method),
			slog.String("path", u.Path),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// getJSON performs a GET and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, target string, opts RequestOptions, out any) error {
	resp, err := c.Fetch(ctx, http.MethodGet, target, opts, nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// sendJSON encodes in as the request body and decodes a 2xx JSON body into out.
// out may be nil when the response body is not needed.
func (c *Client) sendJSON(ctx context.Context, method, target string, opts RequestOptions, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.Fetch(ctx, method, target, opts, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

const maxErrorBody = 64 << 10

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newError(resp, body)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	// an empty 2xx body leaves out untouched
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
