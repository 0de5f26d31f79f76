package fetch

import (
	mathrand "math/rand"
	"net/http"
	"strings"
	"time"
)

// RetryPolicy controls HTTP retry behavior for transient failures.
// MaxRetries specifies the number of retries after the initial attempt.
// Backoff specifies the base delay between attempts; exponential backoff is applied.
// JitterFraction specifies the +/- fractional jitter applied to each computed backoff.
// When Rand is non-nil, it is used to sample jitter for deterministic tests.
type RetryPolicy struct {
	MaxRetries     int
	Backoff        time.Duration
	JitterFraction float64
	Rand           *mathrand.Rand
}

// DefaultRetryPolicy is three attempts in total with a 100ms base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Backoff: 100 * time.Millisecond, JitterFraction: 0.2}
}

func (p RetryPolicy) attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Delay returns the jittered wait before retry number attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return backoffWithJitter(p.Backoff, attempt, p.JitterFraction, p.Rand)
}

// backoffDuration returns base<<attempt capped at 2s.
func backoffDuration(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	d := base << attempt
	if d > 2*time.Second || d <= 0 {
		d = 2 * time.Second
	}
	return d
}

// backoffWithJitter returns an exponential backoff adjusted by +/- jitter fraction.
// When jitterFraction <= 0, this falls back to backoffDuration. When r is nil,
// a time-seeded RNG is used.
func backoffWithJitter(base time.Duration, attempt int, jitterFraction float64, r *mathrand.Rand) time.Duration {
	d := backoffDuration(base, attempt)
	if jitterFraction <= 0 {
		return d
	}
	if jitterFraction > 0.9 {
		jitterFraction = 0.9
	}
	if r == nil {
		r = mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	}
	minF := 1.0 - jitterFraction
	maxF := 1.0 + jitterFraction
	factor := minF + r.Float64()*(maxF-minF)
	jittered := time.Duration(float64(d) * factor)
	if jittered < time.Millisecond {
		return time.Millisecond
	}
	return jittered
}

// RetryAfter parses the Retry-After header which may be seconds or HTTP-date.
// Returns (duration, true) when valid; otherwise (0, false).
func RetryAfter(h string, now time.Time) (time.Duration, bool) {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0, false
	}
	if secs, err := time.ParseDuration(h + "s"); err == nil {
		if secs > 0 {
			return secs, true
		}
	}
	if t, err := http.ParseTime(h); err == nil {
		if t.After(now) {
			return t.Sub(now), true
		}
	}
	return 0, false
}

// sleepFunc allows tests to intercept sleeps deterministically.
var sleepFunc = sleepFor

func sleepFor(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
