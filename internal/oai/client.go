// Package oai is a minimal OpenAI-compatible chat completions client used
// to draft slide outlines.
package oai

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hyperifyio/deckgen/internal/fetch"
)

// APIError is a non-2xx reply from the chat endpoint.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat API %s: %d: %s", e.Endpoint, e.StatusCode, truncate(e.Body, 2000))
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      fetch.RetryPolicy
}

// NewClient creates a client. Negative retries are treated as zero.
func NewClient(baseURL, apiKey string, timeout time.Duration, retry fetch.RetryPolicy) *Client {
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

// HTTPTimeout returns the configured HTTP timeout.
func (c *Client) HTTPTimeout() time.Duration { return c.httpClient.Timeout }

// Retry returns the configured RetryPolicy.
func (c *Client) Retry() fetch.RetryPolicy { return c.retry }

// CreateChatCompletion posts req, retrying timeouts, 429 and 5xx with one
// Idempotency-Key across attempts. A 400 that rejects the temperature is
// retried once without it.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionsRequest) (ChatCompletionsResponse, error) {
	out, err := c.create(ctx, req)
	var apiErr *APIError
	if err != nil && req.Temperature != nil && errors.As(err, &apiErr) &&
		apiErr.StatusCode == http.StatusBadRequest && mentionsUnsupportedTemperature(apiErr.Body) {
		req.Temperature = nil
		return c.create(ctx, req)
	}
	return out, err
}

func (c *Client) create(ctx context.Context, req ChatCompletionsRequest) (ChatCompletionsResponse, error) {
	var zero ChatCompletionsResponse
	body, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	attempts := c.retry.MaxRetries + 1
	idemKey := generateIdempotencyKey()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		httpReq, nerr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if nerr != nil {
			return zero, fmt.Errorf("new request: %w", nerr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		httpReq.Header.Set("Idempotency-Key", idemKey)

		resp, derr := c.httpClient.Do(httpReq)
		if derr != nil {
			lastErr = derr
			if attempt < attempts-1 && ctx.Err() == nil && isRetryableError(derr) {
				sleepFunc(c.retry.Delay(attempt))
				continue
			}
			return zero, fmt.Errorf("http do: %w", derr)
		}
		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close() //nolint:errcheck
		if readErr != nil {
			lastErr = readErr
			if attempt < attempts-1 && isRetryableError(readErr) {
				sleepFunc(c.retry.Delay(attempt))
				continue
			}
			return zero, fmt.Errorf("read response body: %w", readErr)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(respBody)}
			if attempt < attempts-1 && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) {
				if ra, ok := fetch.RetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
					sleepFunc(ra)
				} else {
					sleepFunc(c.retry.Delay(attempt))
				}
				continue
			}
			return zero, lastErr
		}
		if err := json.Unmarshal(respBody, &zero); err != nil {
			return ChatCompletionsResponse{}, fmt.Errorf("decode response: %w; body: %s", err, truncate(string(respBody), 1000))
		}
		return zero, nil
	}
	if lastErr != nil {
		return zero, lastErr
	}
	return zero, errors.New("chat request failed without a specific error")
}

// sleepFunc allows tests to intercept sleeps deterministically.
var sleepFunc = func(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// isRetryableError returns true for transient network failures and timeouts.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// generateIdempotencyKey returns a random hex string suitable for Idempotency-Key.
func generateIdempotencyKey() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("deckgen-%d", time.Now().UnixNano())
	}
	return "deckgen-" + hex.EncodeToString(b[:])
}
