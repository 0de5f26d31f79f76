package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	old := sleepFunc
	sleepFunc = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleepFunc = old })
	return &slept
}

func TestGet_RetriesOn5xxThenSucceeds(t *testing.T) {
	t.Setenv(AllowLocalEnv, "1")
	slept := noSleep(t)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "deckgen-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(time.Second, WithUserAgent("deckgen-test"))
	resp, err := c.Get(context.Background(), srv.URL, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, 1, resp.Retries)
	assert.Len(t, *slept, 1)
}

func TestGet_HonorsRetryAfter(t *testing.T) {
	t.Setenv(AllowLocalEnv, "1")
	slept := noSleep(t)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	_, err := New(time.Second).Get(context.Background(), srv.URL, nil, 0)
	require.NoError(t, err)
	require.Len(t, *slept, 1)
	assert.Equal(t, 3*time.Second, (*slept)[0])
}

func TestGet_ClientErrorIsNotRetried(t *testing.T) {
	t.Setenv(AllowLocalEnv, "1")
	noSleep(t)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(time.Second).Get(context.Background(), srv.URL, nil, 0)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet_ExhaustsRetries(t *testing.T) {
	t.Setenv(AllowLocalEnv, "1")
	noSleep(t)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(time.Second, WithRetry(RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}))
	_, err := c.Get(context.Background(), srv.URL, nil, 0)
	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestGet_BodyLimit(t *testing.T) {
	t.Setenv(AllowLocalEnv, "1")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	_, err := New(time.Second).Get(context.Background(), srv.URL, nil, 32)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestGetJSON(t *testing.T) {
	t.Setenv(AllowLocalEnv, "1")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Client-ID k", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"deck"}`))
	}))
	defer srv.Close()

	var out struct{ Name string }
	h := http.Header{}
	h.Set("Authorization", "Client-ID k")
	require.NoError(t, New(time.Second).GetJSON(context.Background(), srv.URL, h, &out))
	assert.Equal(t, "deck", out.Name)
}

func TestGuard(t *testing.T) {
	t.Setenv(AllowLocalEnv, "")
	old := lookupIP
	lookupIP = func(host string) ([]net.IP, error) {
		switch host {
		case "internal.example":
			return []net.IP{net.ParseIP("10.1.2.3")}, nil
		case "public.example":
			return []net.IP{net.ParseIP("93.184.216.34")}, nil
		}
		return nil, errors.New("no such host")
	}
	t.Cleanup(func() { lookupIP = old })

	tests := []struct {
		raw     string
		blocked bool
		ok      bool
	}{
		{"http://127.0.0.1/x", true, false},
		{"http://[::1]/x", true, false},
		{"http://192.168.1.1/", true, false},
		{"http://169.254.169.254/latest", true, false},
		{"http://100.64.0.1/", true, false},
		{"http://100.127.255.254/", true, false},
		{"http://0.0.0.0/", true, false},
		{"http://0.1.2.3/", true, false},
		{"http://100.128.0.1/", false, true},
		{"https://internal.example/", true, false},
		{"https://missing.example/", true, false},
		{"http://abc.onion/", true, false},
		{"ftp://public.example/", false, false},
		{"https://public.example/img.jpg", false, true},
		{"http://8.8.8.8/", false, true},
	}
	for _, tc := range tests {
		u, err := url.Parse(tc.raw)
		require.NoError(t, err)
		err = Guard(u)
		if tc.ok {
			assert.NoError(t, err, tc.raw)
			continue
		}
		require.Error(t, err, tc.raw)
		assert.Equal(t, tc.blocked, errors.Is(err, ErrBlocked), tc.raw)
	}
}

func TestGet_GuardRejectsBeforeDialing(t *testing.T) {
	t.Setenv(AllowLocalEnv, "")
	_, err := New(time.Second).Get(context.Background(), "http://127.0.0.1:1/", nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlocked))
}

func TestGet_DialTimeCheckCatchesRebinding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secret"))
	}))
	defer srv.Close()
	t.Setenv(AllowLocalEnv, "")

	// A URL check that approves the host, as a DNS answer flipping to a
	// private address after the lookup would.
	c := New(time.Second, WithGuard(func(*url.URL) error { return nil }), WithRetry(RetryPolicy{MaxRetries: 2}))
	_, err := c.Get(context.Background(), srv.URL, nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlocked), "%v", err)

	assert.NoError(t, dialControl("tcp4", "93.184.216.34:443", nil))
	assert.Error(t, dialControl("tcp4", "100.64.1.1:80", nil))
	assert.Error(t, dialControl("tcp6", "[fd00::1]:80", nil))
	assert.Error(t, dialControl("tcp", "nonsense", nil))

	t.Setenv(AllowLocalEnv, "1")
	resp, err := c.Get(context.Background(), srv.URL, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(resp.Body))
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d, ok := RetryAfter("5", now)
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	d, ok = RetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now)
	assert.True(t, ok)
	assert.Equal(t, 10*time.Second, d)

	_, ok = RetryAfter("", now)
	assert.False(t, ok)
	_, ok = RetryAfter("soon", now)
	assert.False(t, ok)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 0; attempt < 6; attempt++ {
		base := backoffDuration(100*time.Millisecond, attempt)
		got := backoffWithJitter(100*time.Millisecond, attempt, 0.2, nil)
		lo := time.Duration(float64(base) * 0.8)
		hi := time.Duration(float64(base) * 1.2)
		if got < lo || got > hi {
			t.Fatalf("attempt %d: %v not within [%v,%v]", attempt, got, lo, hi)
		}
	}
	assert.Equal(t, 2*time.Second, backoffDuration(time.Second, 10))
}
