package imagesearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/deckgen/internal/fetch"
)

const ddgDefaultBase = "https://duckduckgo.com"

// ErrNoToken is returned when the DuckDuckGo search page carries no vqd token.
var ErrNoToken = errors.New("duckduckgo: vqd token not found")

var vqdPattern = regexp.MustCompile(`vqd=["']?([0-9][0-9-]+)`)

// DuckDuckGo searches images through the public i.js endpoint. It needs no
// credentials but requires a per-query vqd token scraped from the HTML page.
type DuckDuckGo struct {
	client *fetch.Client
	base   string
}

// NewDuckDuckGo returns the provider. An empty base uses duckduckgo.com.
func NewDuckDuckGo(client *fetch.Client, base string) *DuckDuckGo {
	return &DuckDuckGo{client: client, base: baseOr(base, ddgDefaultBase)}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, max int) ([]string, error) {
	max = clampMax(max)
	token, err := d.token(ctx, query)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("l", "us-en")
	q.Set("o", "json")
	q.Set("q", query)
	q.Set("vqd", token)
	q.Set("f", ",size:Large,type:photo,,")
	q.Set("p", "1")
	h := http.Header{}
	h.Set("Referer", d.base+"/")
	var out struct {
		Results []struct {
			Image string `json:"image"`
		} `json:"results"`
	}
	if err := d.client.GetJSON(ctx, d.base+"/i.js?"+q.Encode(), h, &out); err != nil {
		return nil, fmt.Errorf("duckduckgo images: %w", err)
	}
	seen := make(map[string]bool)
	var urls []string
	for _, r := range out.Results {
		urls = appendURL(urls, seen, r.Image)
		if len(urls) == max {
			break
		}
	}
	return urls, nil
}

// token loads the HTML search page and extracts the vqd value, first from a
// hidden form input and then from inline scripts.
func (d *DuckDuckGo) token(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("iax", "images")
	q.Set("ia", "images")
	resp, err := d.client.Get(ctx, d.base+"/?"+q.Encode(), nil, 0)
	if err != nil {
		return "", fmt.Errorf("duckduckgo page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return "", fmt.Errorf("duckduckgo page: %w", err)
	}
	if v, ok := doc.Find(`input[name="vqd"]`).First().Attr("value"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	var token string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := vqdPattern.FindStringSubmatch(s.Text()); m != nil {
			token = m[1]
			return false
		}
		return true
	})
	if token == "" {
		if m := vqdPattern.FindSubmatch(resp.Body); m != nil {
			token = string(m[1])
		}
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
