// Package imagesearch finds a usable photo for a free-text query. Providers
// are tried in priority order (DuckDuckGo, Unsplash, Google Custom Search)
// over the original query and a handful of alternatives, and each candidate
// URL is downloaded and validated until one passes or the attempt budget runs
// out.
package imagesearch

import (
	"context"
	"os"
	"strings"

	"github.com/hyperifyio/deckgen/internal/fetch"
)

// Environment variables read by DefaultProviders.
const (
	UnsplashKeyEnv     = "UNSPLASH_API_KEY"
	GoogleKeyEnv       = "GOOGLE_API_KEY"
	GoogleCXEnv        = "GOOGLE_CX"
	DDGBaseURLEnv      = "DECKGEN_DDG_BASE_URL"
	UnsplashBaseURLEnv = "DECKGEN_UNSPLASH_BASE_URL"
	GoogleBaseURLEnv   = "DECKGEN_GOOGLE_BASE_URL"
)

// MaxResults caps the number of URLs a provider returns per query.
const MaxResults = 15

// Provider returns candidate image URLs for a query. An empty slice with a nil
// error means the provider has nothing for this query.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, max int) ([]string, error)
}

// DefaultProviders returns DuckDuckGo, Unsplash and Google in priority order,
// configured from the environment.
func DefaultProviders(client *fetch.Client) []Provider {
	return []Provider{
		NewDuckDuckGo(client, os.Getenv(DDGBaseURLEnv)),
		NewUnsplash(client, os.Getenv(UnsplashKeyEnv), os.Getenv(UnsplashBaseURLEnv)),
		NewGoogle(client, os.Getenv(GoogleKeyEnv), os.Getenv(GoogleCXEnv), os.Getenv(GoogleBaseURLEnv)),
	}
}

func clampMax(max int) int {
	if max <= 0 || max > MaxResults {
		return MaxResults
	}
	return max
}

func baseOr(base, def string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return def
	}
	return base
}

// appendURL adds u to out unless it is blank or already present.
func appendURL(out []string, seen map[string]bool, u string) []string {
	u = strings.TrimSpace(u)
	if u == "" || seen[u] {
		return out
	}
	seen[u] = true
	return append(out, u)
}
