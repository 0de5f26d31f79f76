package imagesearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hyperifyio/deckgen/internal/fetch"
)

const unsplashDefaultBase = "https://api.unsplash.com"

// Unsplash searches the Unsplash photo API. Without an access key it returns
// no results.
type Unsplash struct {
	client *fetch.Client
	key    string
	base   string
}

func NewUnsplash(client *fetch.Client, key, base string) *Unsplash {
	return &Unsplash{client: client, key: strings.TrimSpace(key), base: baseOr(base, unsplashDefaultBase)}
}

func (u *Unsplash) Name() string { return "unsplash" }

func (u *Unsplash) Search(ctx context.Context, query string, max int) ([]string, error) {
	if u.key == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(clampMax(max)))
	q.Set("orientation", "landscape")
	h := http.Header{}
	h.Set("Authorization", "Client-ID "+u.key)
	h.Set("Accept-Version", "v1")
	var out struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := u.client.GetJSON(ctx, u.base+"/search/photos?"+q.Encode(), h, &out); err != nil {
		return nil, fmt.Errorf("unsplash: %w", err)
	}
	seen := make(map[string]bool)
	var urls []string
	for _, r := range out.Results {
		urls = appendURL(urls, seen, r.URLs.Regular)
	}
	if len(urls) > clampMax(max) {
		urls = urls[:clampMax(max)]
	}
	return urls, nil
}
