package imagesearch

import (
	"context"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxAttempts is the download budget used when callers pass a
// non-positive value.
const DefaultMaxAttempts = 6

// Fetcher downloads and validates one candidate URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, query, saveDir string) (Result, error)
}

// Chain runs providers in priority order over a query and its alternatives.
type Chain struct {
	providers    []Provider
	fetcher      Fetcher
	log          logrus.FieldLogger
	shuffle      func([]string)
	alternatives func(string) []string
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithShuffle replaces the candidate shuffler. Tests pass a no-op for a
// deterministic order.
func WithShuffle(f func([]string)) ChainOption { return func(c *Chain) { c.shuffle = f } }

// WithAlternatives replaces AlternativeQueries.
func WithAlternatives(f func(string) []string) ChainOption {
	return func(c *Chain) { c.alternatives = f }
}

// NewChain returns a chain over providers using fetcher for downloads.
func NewChain(providers []Provider, fetcher Fetcher, log logrus.FieldLogger, opts ...ChainOption) *Chain {
	if log == nil {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		log = l
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	c := &Chain{
		providers:    providers,
		fetcher:      fetcher,
		log:          log,
		shuffle:      func(s []string) { r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] }) },
		alternatives: AlternativeQueries,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetImage returns the first candidate that downloads and validates. Every
// download consumes one unit of maxAttempts across all queries and
// providers. When nothing succeeds within the budget it returns ok=false and
// a zero Result; it never fails hard.
func (c *Chain) GetImage(ctx context.Context, query, saveDir string, maxAttempts int) (Result, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, false
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		c.log.WithError(err).WithField("dir", saveDir).Warn("cannot create image directory")
		return Result{}, false
	}

	queries := append([]string{query}, c.alternatives(query)...)
	budget := maxAttempts
	tried := make(map[string]bool)
	for _, q := range queries {
		for _, p := range c.providers {
			if ctx.Err() != nil {
				return Result{}, false
			}
			if budget == 0 {
				c.log.WithFields(logrus.Fields{"query": query, "attempts": maxAttempts}).Warn("image attempts exhausted")
				return Result{}, false
			}
			log := c.log.WithFields(logrus.Fields{"query": q, "provider": p.Name()})
			urls, err := p.Search(ctx, q, MaxResults)
			if err != nil {
				log.WithError(err).Warn("image provider failed")
				continue
			}
			if len(urls) == 0 {
				log.Debug("image provider returned no results")
				continue
			}
			c.shuffle(urls)
			for _, u := range urls {
				if tried[u] {
					continue
				}
				if budget == 0 {
					c.log.WithFields(logrus.Fields{"query": query, "attempts": maxAttempts}).Warn("image attempts exhausted")
					return Result{}, false
				}
				budget--
				tried[u] = true
				attempt := maxAttempts - budget
				res, err := c.fetcher.Fetch(ctx, u, q, saveDir)
				if err != nil {
					log.WithFields(logrus.Fields{"url": u, "attempt": attempt}).WithError(err).Debug("image candidate rejected")
					continue
				}
				res.Provider = p.Name()
				log.WithFields(logrus.Fields{"url": u, "attempt": attempt, "path": res.SavePath}).Info("image found")
				return res, true
			}
		}
	}
	c.log.WithField("query", query).Warn("no usable image found")
	return Result{}, false
}
