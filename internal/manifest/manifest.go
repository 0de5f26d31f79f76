// Package manifest records what a generation run produced: the deck file,
// the theme and template it used, and where every picture came from.
package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/deckgen/internal/deck"
)

// Version is the manifest schema version.
const Version = "1"

type Manifest struct {
	Version   string `json:"version"`
	RunID     string `json:"run_id"`
	CreatedAt string `json:"created_at"`
	Tool      string `json:"tool,omitempty"`

	Source   string `json:"source,omitempty"`
	Model    string `json:"model,omitempty"`
	Theme    string `json:"theme"`
	Template string `json:"template,omitempty"`
	Output   string `json:"output"`
	Handout  string `json:"handout,omitempty"`

	Slides   []Slide  `json:"slides"`
	Images   []Image  `json:"images,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type Slide struct {
	Number      int      `json:"number"`
	Kind        string   `json:"kind"`
	LayoutIndex int      `json:"layout_index"`
	LayoutName  string   `json:"layout_name,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

type Image struct {
	Slide       int     `json:"slide"`
	Query       string  `json:"query,omitempty"`
	Path        string  `json:"path"`
	SourceURL   string  `json:"source_url,omitempty"`
	Provider    string  `json:"provider,omitempty"`
	AspectRatio float64 `json:"aspect_ratio,omitempty"`
}

// New starts a manifest with a fresh run id.
func New(now time.Time, tool string) *Manifest {
	return &Manifest{
		Version:   Version,
		RunID:     uuid.NewString(),
		CreatedAt: now.UTC().Format(time.RFC3339),
		Tool:      tool,
	}
}

// Record copies the per-slide report of a build.
func (m *Manifest) Record(res *deck.Result) {
	if res == nil {
		return
	}
	m.Template = res.Template
	m.Warnings = append(m.Warnings, res.Warnings...)
	for _, s := range res.Slides {
		m.Slides = append(m.Slides, Slide{
			Number:      s.Number,
			Kind:        s.Kind.String(),
			LayoutIndex: s.LayoutIndex,
			LayoutName:  s.LayoutName,
			Warnings:    s.Warnings,
		})
		if s.Image != nil {
			m.Images = append(m.Images, Image{
				Slide:       s.Number,
				Query:       s.Image.Query,
				Path:        s.Image.Path,
				SourceURL:   redactURL(s.Image.SourceURL),
				Provider:    s.Image.Provider,
				AspectRatio: s.Image.AspectRatio,
			})
		}
	}
}

// Validate checks the fields every manifest must carry.
func (m *Manifest) Validate() error {
	if m == nil {
		return errors.New("nil manifest")
	}
	if m.Version != Version {
		return fmt.Errorf("unsupported version %q", m.Version)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		return fmt.Errorf("run_id: %w", err)
	}
	if _, err := time.Parse(time.RFC3339, m.CreatedAt); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if strings.TrimSpace(m.Output) == "" {
		return errors.New("output is required")
	}
	return nil
}

var secretParams = []string{"key", "api_key", "apikey", "token", "client_id", "sig", "signature"}

// redactURL masks credential-looking query parameters.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for k := range q {
		lk := strings.ToLower(k)
		for _, s := range secretParams {
			if lk == s {
				q.Set(k, "****")
				changed = true
			}
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
