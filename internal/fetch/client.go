// Package fetch is the outbound HTTP layer shared by image providers, image
// downloads and source ingestion: GET with bounded retries on timeouts, 429
// and 5xx, Retry-After handling, and an SSRF guard on every hop.
package fetch

import (
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
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// DefaultMaxBytes caps response bodies.
const DefaultMaxBytes int64 = 32 << 20

// Client performs guarded GET requests with retries.
type Client struct {
	httpClient *http.Client
	retry      RetryPolicy
	userAgent  string
	guard      func(*url.URL) error
}

// Option configures a Client.
type Option func(*Client)

// WithRetry sets the retry policy. Negative MaxRetries is treated as zero.
func WithRetry(p RetryPolicy) Option {
	return func(c *Client) {
		if p.MaxRetries < 0 {
			p.MaxRetries = 0
		}
		c.retry = p
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option { return func(c *Client) { c.userAgent = ua } }

// WithGuard replaces the per-URL SSRF guard. The dial-time address check
// stays on unless g is nil, which disables both.
func WithGuard(g func(*url.URL) error) Option { return func(c *Client) { c.guard = g } }

// New returns a Client whose requests time out after timeout (DefaultTimeout
// when zero or negative).
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{retry: DefaultRetryPolicy(), userAgent: "deckgen/0.1", guard: Guard}
	for _, o := range opts {
		o(c)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.guard != nil {
		dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second, Control: dialControl}
		transport.DialContext = dialer.DialContext
	}
	c.httpClient = &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			if c.guard != nil {
				return c.guard(req.URL)
			}
			return nil
		},
	}
	return c
}

// HTTPTimeout returns the per-request timeout.
func (c *Client) HTTPTimeout() time.Duration { return c.httpClient.Timeout }

// Retry returns the retry policy.
func (c *Client) Retry() RetryPolicy { return c.retry }

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
	Retries    int
}

// StatusError reports a non-2xx response that was not retried away.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d: %s", e.URL, e.StatusCode, truncate(e.Body, 300))
}

// Get fetches rawURL. Bodies larger than maxBytes (DefaultMaxBytes when <= 0)
// are rejected.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header, maxBytes int64) (*Response, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if c.guard != nil {
		if err := c.guard(u); err != nil {
			return nil, err
		}
	}
	attempts := c.retry.attempts()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < attempts-1 && ctx.Err() == nil && isRetryableError(err) {
				c.sleepBackoff(attempt)
				continue
			}
			return nil, fmt.Errorf("http: %w", err)
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
		_ = resp.Body.Close() //nolint:errcheck
		if readErr != nil {
			lastErr = readErr
			if attempt < attempts-1 && isRetryableError(readErr) {
				c.sleepBackoff(attempt)
				continue
			}
			return nil, fmt.Errorf("read body: %w", readErr)
		}
		if int64(len(body)) > maxBytes {
			return nil, fmt.Errorf("GET %s: body exceeds %d bytes", rawURL, maxBytes)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(body)}
			if attempt < attempts-1 {
				if ra, ok := RetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
					sleepFunc(ra)
				} else {
					c.sleepBackoff(attempt)
				}
				continue
			}
			return nil, lastErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(body)}
		}
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body, URL: resp.Request.URL.String(), Retries: attempt}, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("request failed without a specific error")
}

// GetJSON fetches rawURL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	if header == nil {
		header = http.Header{}
	}
	if header.Get("Accept") == "" {
		header.Set("Accept", "application/json")
	}
	resp, err := c.Get(ctx, rawURL, header, 0)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode json: %w; body: %s", err, truncate(string(resp.Body), 200))
	}
	return nil
}

func (c *Client) sleepBackoff(attempt int) {
	sleepFunc(c.retry.Delay(attempt))
}

// isRetryableError returns true for transient network failures and timeouts.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBlocked) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") || strings.Contains(s, "connection reset")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
