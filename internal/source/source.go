// Package source turns the material a deck is generated from (a PDF, an
// HTML page, a plain text file or a web URL) into plain text.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"github.com/hyperifyio/deckgen/internal/fetch"
)

// DefaultMaxChars caps the extracted text handed to the outline model.
const DefaultMaxChars = 60000

const maxSourceBytes = 20 << 20

// ErrEmpty is returned when a source yields no text.
var ErrEmpty = errors.New("source contains no extractable text")

// Document is extracted source text.
type Document struct {
	Title     string
	Text      string
	Origin    string
	Format    string
	Truncated bool
}

// Loader reads documents from disk or the web.
type Loader struct {
	client   *fetch.Client
	maxChars int
	log      logrus.FieldLogger
}

// NewLoader returns a Loader. A nil client disables URLs; maxChars <= 0 uses
// DefaultMaxChars.
func NewLoader(client *fetch.Client, maxChars int, log logrus.FieldLogger) *Loader {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Loader{client: client, maxChars: maxChars, log: log}
}

// Load dispatches on src: http(s) URLs are fetched, anything else is a path.
func (l *Loader) Load(ctx context.Context, src string) (Document, error) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return l.FromURL(ctx, src)
	}
	return l.FromFile(src)
}

// FromFile extracts text by extension: .pdf, .html/.htm, otherwise the file
// is read as UTF-8 text.
func (l *Loader) FromFile(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("stat source: %w", err)
	}
	if info.Size() > maxSourceBytes {
		return Document{}, fmt.Errorf("source too large: %d bytes (limit %d)", info.Size(), maxSourceBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read source: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		doc, err = FromPDF(data)
	case ".html", ".htm":
		doc, err = FromHTML(data, &url.URL{Scheme: "file", Path: path})
	default:
		doc = Document{Text: string(data), Format: "text"}
	}
	if err != nil {
		return Document{}, err
	}
	if doc.Title == "" {
		doc.Title = stem
	}
	doc.Origin = path
	return l.finish(doc)
}

// FromURL fetches raw through the guarded client. PDFs are detected by
// content type or extension; other responses go through readability.
func (l *Loader) FromURL(ctx context.Context, raw string) (Document, error) {
	if l.client == nil {
		return Document{}, errors.New("url sources are disabled")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Document{}, fmt.Errorf("parse url: %w", err)
	}
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,text/plain;q=0.8")
	resp, err := l.client.Get(ctx, raw, h, maxSourceBytes)
	if err != nil {
		return Document{}, fmt.Errorf("fetch source: %w", err)
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	var doc Document
	switch {
	case strings.Contains(ct, "application/pdf") || strings.HasSuffix(strings.ToLower(u.Path), ".pdf"):
		doc, err = FromPDF(resp.Body)
	case strings.HasPrefix(ct, "text/plain"):
		doc = Document{Text: string(resp.Body), Format: "text"}
	default:
		doc, err = FromHTML(resp.Body, u)
	}
	if err != nil {
		return Document{}, err
	}
	if doc.Title == "" {
		doc.Title = u.Host
	}
	doc.Origin = raw
	l.log.WithFields(logrus.Fields{"url": raw, "format": doc.Format, "chars": utf8.RuneCountInString(doc.Text)}).Debug("source fetched")
	return l.finish(doc)
}

func (l *Loader) finish(doc Document) (Document, error) {
	doc.Text = strings.TrimSpace(doc.Text)
	if doc.Text == "" {
		return Document{}, fmt.Errorf("%s: %w", doc.Origin, ErrEmpty)
	}
	doc.Text, doc.Truncated = truncateRunes(doc.Text, l.maxChars)
	if doc.Truncated {
		l.log.WithFields(logrus.Fields{"origin": doc.Origin, "max_chars": l.maxChars}).Warn("source text truncated")
	}
	return doc, nil
}

// FromHTML extracts the main article text.
func FromHTML(data []byte, base *url.URL) (Document, error) {
	art, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return Document{}, fmt.Errorf("readability extract: %w", err)
	}
	return Document{Title: strings.TrimSpace(art.Title), Text: art.TextContent, Format: "html"}, nil
}

// FromPDF extracts the plain text of every page in order.
func FromPDF(data []byte) (doc Document, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc, err = Document{}, fmt.Errorf("parse pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, fmt.Errorf("parse pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return Document{}, fmt.Errorf("pdf page %d: %w", i, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(text))
	}
	return Document{Text: b.String(), Format: "pdf"}, nil
}

func truncateRunes(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
