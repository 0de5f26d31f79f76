package outline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/deckgen/internal/fetch"
	"github.com/hyperifyio/deckgen/internal/oai"
	"github.com/hyperifyio/deckgen/internal/slidespec"
	"github.com/hyperifyio/deckgen/internal/source"
)

type fakeChat struct {
	reply string
	err   error
	got   oai.ChatCompletionsRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req oai.ChatCompletionsRequest) (oai.ChatCompletionsResponse, error) {
	f.got = req
	if f.err != nil {
		return oai.ChatCompletionsResponse{}, f.err
	}
	return oai.ChatCompletionsResponse{Choices: []oai.ChatCompletionsResponseChoice{{Message: oai.Message{Role: oai.RoleAssistant, Content: f.reply}}}}, nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var sampleDoc = source.Document{Title: "Film", Text: "Film cameras record images on film.", Origin: "film.txt"}

func TestGenerate_FencedReplyWithComments(t *testing.T) {
	chat := &fakeChat{reply: "Here you go:\n```json\n{\"slides\": [\n" +
		"  {\"layout_idx\": 0, // title\n \"title\": \"Film\", \"subtitle\": \"An overview\"},\n" +
		"  {\"layout_idx\": 1, \"title\": \"Basics\", \"content\": [\"Light\", \"  Silver halide\"]},\n" +
		"  {\"layout_idx\": 42, \"title\": \"bogus\"}\n]}\n```"}

	deck, err := NewGenerator(chat, quietLogger()).Generate(context.Background(), sampleDoc)
	require.NoError(t, err)
	require.Len(t, deck.Slides, 2)
	assert.Equal(t, slidespec.TitleSlide, deck.Slides[0].Kind)
	assert.Equal(t, []string{"Light", "  Silver halide"}, deck.Slides[1].Content)
	assert.Len(t, deck.Warnings, 1)

	require.Len(t, chat.got.Messages, 2)
	assert.Equal(t, oai.RoleSystem, chat.got.Messages[0].Role)
	assert.Contains(t, chat.got.Messages[0].Content, "layout_idx")
	assert.Contains(t, chat.got.Messages[1].Content, "Document title: Film")
	assert.Contains(t, chat.got.Messages[1].Content, sampleDoc.Text)
	assert.Equal(t, DefaultModel, chat.got.Model)
	require.NotNil(t, chat.got.Temperature)
	assert.InDelta(t, DefaultTemperature, *chat.got.Temperature, 1e-9)
	assert.Equal(t, "json_object", chat.got.ResponseFormat.Type)
}

func TestGenerate_ReasoningModelOmitsTemperature(t *testing.T) {
	chat := &fakeChat{reply: `{"slides":[{"layout_idx":5,"title":"Only"}]}`}
	g := NewGenerator(chat, quietLogger(), WithModel("o3-mini"), WithMaxTokens(100))
	_, err := g.Generate(context.Background(), sampleDoc)
	require.NoError(t, err)
	assert.Nil(t, chat.got.Temperature)
	assert.Equal(t, 100, chat.got.MaxTokens)
	assert.Equal(t, "o3-mini", g.Model())
}

func TestGenerate_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewGenerator(&fakeChat{}, quietLogger()).Generate(ctx, source.Document{Text: "  "})
	assert.True(t, errors.Is(err, source.ErrEmpty))

	_, err = NewGenerator(&fakeChat{reply: "I cannot help with that."}, quietLogger()).Generate(ctx, sampleDoc)
	assert.True(t, errors.Is(err, ErrNoJSON))

	_, err = NewGenerator(&fakeChat{reply: `{"slides": []}`}, quietLogger()).Generate(ctx, sampleDoc)
	assert.True(t, errors.Is(err, slidespec.ErrNoSlides))

	boom := errors.New("boom")
	_, err = NewGenerator(&fakeChat{err: boom}, quietLogger()).Generate(ctx, sampleDoc)
	assert.True(t, errors.Is(err, boom))
}

func TestGenerate_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req oai.ChatCompletionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		_ = json.NewEncoder(w).Encode(oai.ChatCompletionsResponse{Choices: []oai.ChatCompletionsResponseChoice{{
			Message: oai.Message{Role: oai.RoleAssistant, Content: `{"slides":[{"layout_idx":2,"section_title":"Intro"}]}`},
		}}})
	}))
	defer srv.Close()

	client := oai.NewClient(srv.URL, "k", 2*time.Second, fetch.RetryPolicy{})
	deck, err := NewGenerator(client, quietLogger(), WithModel("test-model")).Generate(context.Background(), sampleDoc)
	require.NoError(t, err)
	require.Len(t, deck.Slides, 1)
	assert.Equal(t, "Intro", deck.Slides[0].SectionTitle)
}
