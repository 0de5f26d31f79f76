// Package server exposes deck generation over HTTP with gin.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hyperifyio/deckgen/internal/deck"
	"github.com/hyperifyio/deckgen/internal/imagesearch"
	"github.com/hyperifyio/deckgen/internal/slidespec"
	"github.com/hyperifyio/deckgen/internal/source"
	"github.com/hyperifyio/deckgen/internal/theme"
)

// PPTXContentType is the media type of generated decks.
const PPTXContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

const (
	maxBodyBytes    = 4 << 20
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// MaxRequestAttempts caps the max_attempts a client may ask for.
const MaxRequestAttempts = 20

// Outliner drafts a deck from text. *outline.Generator implements it.
type Outliner interface {
	Generate(ctx context.Context, doc source.Document) (slidespec.Deck, error)
}

// Options wires the server to the rest of the pipeline. Images and Outline
// may be nil; the matching endpoints then answer 503.
type Options struct {
	Config      theme.Config
	ConfigDir   string
	Images      deck.ImageSource
	ImagesDir   string
	MaxAttempts int
	Outline     Outliner
	Log         logrus.FieldLogger
}

type Server struct {
	opts   Options
	router *gin.Engine
}

func New(opts Options) *Server {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = imagesearch.DefaultMaxAttempts
	}
	if opts.ImagesDir == "" {
		opts.ImagesDir = "images"
	}
	s := &Server{opts: opts}
	s.router = s.routes()
	return s
}

// Handler returns the gin router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	v1 := r.Group("/v1")
	v1.GET("/themes", s.handleThemes)
	v1.POST("/decks", s.handleDeck)
	v1.POST("/outline", s.handleOutline)
	v1.POST("/images/search", s.handleImageSearch)
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.opts.Log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.opts.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		start := time.Now()
		c.Next()
		s.opts.Log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	}
}

// imageDirName turns a request id into a per-request directory name. Only
// ids that parse as a UUID are used; anything else gets a fresh one, so a
// client header can never name a path outside ImagesDir.
func imageDirName(requestID string) string {
	if id, err := uuid.Parse(requestID); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func (s *Server) handleThemes(c *gin.Context) {
	cfg := s.opts.Config.WithTheme("", nil)
	current, _ := cfg.Active()
	type entry struct {
		Name         string `json:"name"`
		TemplatePath string `json:"template_path,omitempty"`
		Mapped       int    `json:"mapped_layouts"`
	}
	var themes []entry
	for _, name := range cfg.ThemeNames() {
		t, ok := cfg.Templates[name]
		if !ok {
			t = theme.Template{TemplatePath: cfg.TemplatePath, LayoutMapping: cfg.LayoutMapping}
		}
		themes = append(themes, entry{Name: name, TemplatePath: t.TemplatePath, Mapped: len(t.LayoutMapping)})
	}
	c.JSON(http.StatusOK, gin.H{"current": current, "themes": themes})
}

func (s *Server) handleDeck(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body"})
		return
	}
	if len(body) > maxBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}
	d, err := slidespec.Parse(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log := s.opts.Log.WithField("request_id", c.GetString("request_id"))
	cfg := s.opts.Config.WithTheme(c.Query("theme"), log)
	var opts []deck.Option
	if s.opts.Images != nil && c.Query("images") != "0" {
		dir := filepath.Join(s.opts.ImagesDir, imageDirName(c.GetString("request_id")))
		opts = append(opts, deck.WithImages(s.opts.Images, dir, s.opts.MaxAttempts))
	}
	res, err := deck.NewBuilder(cfg, log, opts...).Build(c.Request.Context(), d, cfg.TemplateFile(s.opts.ConfigDir, log))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := res.WriteTo(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="presentation.pptx"`)
	c.Header("X-Deck-Slides", strconv.Itoa(len(res.Slides)))
	if n := len(res.Warnings); n > 0 {
		c.Header("X-Deck-Warnings", strconv.Itoa(n))
	}
	c.Data(http.StatusOK, PPTXContentType, buf.Bytes())
}

type outlineRequest struct {
	Title string `json:"title"`
	Text  string `json:"text" binding:"required"`
}

func (s *Server) handleOutline(c *gin.Context) {
	if s.opts.Outline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "outline generation is not configured"})
		return
	}
	var req outlineRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	d, err := s.opts.Outline.Generate(c.Request.Context(), source.Document{Title: req.Title, Text: req.Text, Origin: "request"})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

type imageSearchRequest struct {
	Query       string `json:"query" binding:"required"`
	MaxAttempts int    `json:"max_attempts"`
}

func (s *Server) handleImageSearch(c *gin.Context) {
	if s.opts.Images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image search is disabled"})
		return
	}
	var req imageSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	attempts := req.MaxAttempts
	switch {
	case attempts <= 0:
		attempts = s.opts.MaxAttempts
	case attempts > MaxRequestAttempts:
		attempts = MaxRequestAttempts
	}
	res, ok := s.opts.Images.GetImage(c.Request.Context(), req.Query, s.opts.ImagesDir, attempts)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"found":        true,
		"path":         res.SavePath,
		"aspect_ratio": res.AspectRatio,
		"source_url":   res.SourceURL,
		"provider":     res.Provider,
	})
}
