package imagesearch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hyperifyio/deckgen/internal/fetch"
)

const googleDefaultBase = "https://www.googleapis.com"

// googleMaxNum is the Custom Search per-request ceiling.
const googleMaxNum = 10

// Google queries the Custom Search JSON API in image mode. Both the API key
// and the engine id are required; without them it returns no results.
type Google struct {
	client *fetch.Client
	key    string
	cx     string
	base   string
}

func NewGoogle(client *fetch.Client, key, cx, base string) *Google {
	return &Google{
		client: client,
		key:    strings.TrimSpace(key),
		cx:     strings.TrimSpace(cx),
		base:   baseOr(base, googleDefaultBase),
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Search(ctx context.Context, query string, max int) ([]string, error) {
	if g.key == "" || g.cx == "" {
		return nil, nil
	}
	num := clampMax(max)
	if num > googleMaxNum {
		num = googleMaxNum
	}
	q := url.Values{}
	q.Set("key", g.key)
	q.Set("cx", g.cx)
	q.Set("q", query)
	q.Set("searchType", "image")
	q.Set("num", strconv.Itoa(num))
	q.Set("imgType", "photo")
	q.Set("imgSize", "large")
	q.Set("safe", "active")
	var out struct {
		Items []struct {
			Link string `json:"link"`
		} `json:"items"`
	}
	if err := g.client.GetJSON(ctx, g.base+"/customsearch/v1?"+q.Encode(), nil, &out); err != nil {
		// The key travels in the query string; keep it out of logs.
		return nil, fmt.Errorf("google custom search: %s", redactKey(err.Error(), g.key))
	}
	seen := make(map[string]bool)
	var urls []string
	for _, it := range out.Items {
		urls = appendURL(urls, seen, it.Link)
	}
	return urls, nil
}

func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, url.QueryEscape(key), "REDACTED")
}
