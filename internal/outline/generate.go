// Package outline asks an OpenAI-compatible model to draft a deck from
// extracted source text.
package outline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hyperifyio/deckgen/internal/oai"
	"github.com/hyperifyio/deckgen/internal/slidespec"
	"github.com/hyperifyio/deckgen/internal/source"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.4
	DefaultMaxTokens   = 8192
)

// ErrNoJSON is returned when the reply holds no JSON document.
var ErrNoJSON = errors.New("model reply contains no JSON")

// ChatCompleter is satisfied by *oai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req oai.ChatCompletionsRequest) (oai.ChatCompletionsResponse, error)
}

type Generator struct {
	chat        ChatCompleter
	model       string
	temperature float64
	maxTokens   int
	log         logrus.FieldLogger
}

type Option func(*Generator)

func WithModel(model string) Option {
	return func(g *Generator) {
		if strings.TrimSpace(model) != "" {
			g.model = model
		}
	}
}

func WithTemperature(t float64) Option { return func(g *Generator) { g.temperature = t } }

func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

func NewGenerator(chat ChatCompleter, log logrus.FieldLogger, opts ...Option) *Generator {
	g := &Generator{
		chat:        chat,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		log:         log,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Model returns the model id sent with each request.
func (g *Generator) Model() string { return g.model }

// Generate drafts a deck for doc. Slides the parser skips are reported in
// the returned Deck's Warnings.
func (g *Generator) Generate(ctx context.Context, doc source.Document) (slidespec.Deck, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return slidespec.Deck{}, source.ErrEmpty
	}
	messages := []oai.Message{
		{Role: oai.RoleSystem, Content: systemPrompt},
		{Role: oai.RoleUser, Content: userPrompt(doc)},
	}
	log := g.log.WithFields(logrus.Fields{"model": g.model, "origin": doc.Origin})
	log.WithField("prompt_tokens_est", oai.EstimateTokens(messages)).Info("requesting outline")

	resp, err := g.chat.CreateChatCompletion(ctx, oai.ChatCompletionsRequest{
		Model:          g.model,
		Messages:       messages,
		Temperature:    oai.EffectiveTemperature(g.model, g.temperature),
		MaxTokens:      g.maxTokens,
		ResponseFormat: &oai.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return slidespec.Deck{}, fmt.Errorf("outline request: %w", err)
	}
	reply := resp.Content()
	raw, ok := slidespec.ExtractJSON(reply)
	if !ok {
		return slidespec.Deck{}, fmt.Errorf("%w: %q", ErrNoJSON, truncate(reply, 200))
	}
	deck, err := slidespec.Parse([]byte(raw))
	if err != nil {
		return slidespec.Deck{}, fmt.Errorf("parse outline: %w", err)
	}
	for _, w := range deck.Warnings {
		log.Warn(w)
	}
	log.WithField("slides", len(deck.Slides)).Info("outline ready")
	return deck, nil
}

func userPrompt(doc source.Document) string {
	var b strings.Builder
	if doc.Title != "" {
		fmt.Fprintf(&b, "Document title: %s\n", doc.Title)
	}
	if doc.Truncated {
		b.WriteString("The document was truncated; outline the available text.\n")
	}
	b.WriteString("Create the presentation JSON for this document:\n\n")
	b.WriteString(doc.Text)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
