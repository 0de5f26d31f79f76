package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hyperifyio/deckgen/internal/deck"
	"github.com/hyperifyio/deckgen/internal/fetch"
	"github.com/hyperifyio/deckgen/internal/handout"
	"github.com/hyperifyio/deckgen/internal/imagesearch"
	"github.com/hyperifyio/deckgen/internal/manifest"
	"github.com/hyperifyio/deckgen/internal/oai"
	"github.com/hyperifyio/deckgen/internal/outline"
	"github.com/hyperifyio/deckgen/internal/server"
	"github.com/hyperifyio/deckgen/internal/slidespec"
	"github.com/hyperifyio/deckgen/internal/source"
	"github.com/hyperifyio/deckgen/internal/theme"
)

const slidesHint = "slide JSON is an object with a \"slides\" list; every entry needs an integer layout_idx from 0 to 8"

// runDeck builds one presentation from -slides or -source.
func runDeck(cfg cliConfig, stdin io.Reader, stdout io.Writer, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	themeCfg, configDir := loadTheme(cfg, log)
	m := manifest.New(time.Now(), "deckgen "+version)
	m.Theme, _ = themeCfg.Active()

	var d slidespec.Deck
	var err error
	if cfg.sourcePath != "" {
		d, err = outlineSource(ctx, cfg, log)
		m.Source, m.Model = cfg.sourcePath, cfg.model
	} else {
		d, err = readSlides(cfg.slidesPath, stdin)
		if err == nil {
			for _, w := range d.Warnings {
				log.Warn(w)
			}
		}
		m.Source = cfg.slidesPath
	}
	if err != nil {
		return err
	}

	var opts []deck.Option
	if !cfg.noImages {
		opts = append(opts, deck.WithImages(newImageChain(log), cfg.imagesDir, cfg.maxAttempts))
	}
	res, err := deck.NewBuilder(themeCfg, log, opts...).Build(ctx, d, themeCfg.TemplateFile(configDir, log))
	if err != nil {
		return fmt.Errorf("build deck: %w", err)
	}
	if err := res.Write(cfg.out); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"out": cfg.out, "slides": len(res.Slides), "warnings": len(res.Warnings)}).Info("presentation written")
	m.Output = cfg.out
	m.Record(res)

	if cfg.handoutPath != "" {
		title := res.Presentation().GetDocumentProperties().Title
		if err := handout.Write(d, title, cfg.handoutPath); err != nil {
			return err
		}
		m.Handout = cfg.handoutPath
		log.WithField("handout", cfg.handoutPath).Info("handout written")
	}
	if cfg.stateDir != "" {
		path, err := manifest.Save(cfg.stateDir, m)
		if err != nil {
			return hinted(fmt.Errorf("save manifest: %w", err), "the state dir must be owned by you and not world-writable")
		}
		log.WithField("manifest", path).Debug("manifest saved")
	}
	safeFprintln(stdout, cfg.out)
	return nil
}

// loadTheme reads the YAML config and selects the theme. Problems are
// logged and the built-in defaults are used.
func loadTheme(cfg cliConfig, log logrus.FieldLogger) (theme.Config, string) {
	tc, exists, err := theme.Load(cfg.configPath)
	switch {
	case err != nil:
		log.WithError(err).Warn("cannot load config; using defaults")
	case !exists && cfg.sources["config"] != "default":
		log.WithField("config", cfg.configPath).Warn("config file not found; using defaults")
	}
	return tc.WithTheme(cfg.themeName, log), filepath.Dir(cfg.configPath)
}

func readSlides(path string, stdin io.Reader) (slidespec.Deck, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return slidespec.Deck{}, fmt.Errorf("read slides: %w", err)
	}
	d, err := slidespec.Parse(data)
	if err != nil {
		return slidespec.Deck{}, hinted(fmt.Errorf("parse slides: %w", err), slidesHint)
	}
	return d, nil
}

func outlineSource(ctx context.Context, cfg cliConfig, log logrus.FieldLogger) (slidespec.Deck, error) {
	if cfg.apiKey == "" && cfg.baseURL == defaultBaseURL {
		return slidespec.Deck{}, hinted(errors.New("an API key is required to outline a source"), "set OAI_API_KEY or pass -api-key, or point -base-url at a local server")
	}
	loader := source.NewLoader(fetch.New(fetch.DefaultTimeout, fetch.WithRetry(fetch.DefaultRetryPolicy())), 0, log)
	doc, err := loader.Load(ctx, cfg.sourcePath)
	if err != nil {
		return slidespec.Deck{}, fmt.Errorf("load source: %w", err)
	}
	gen := outline.NewGenerator(newChatClient(cfg), log, outline.WithModel(cfg.model))
	return gen.Generate(ctx, doc)
}

func newChatClient(cfg cliConfig) *oai.Client {
	return oai.NewClient(cfg.baseURL, cfg.apiKey, cfg.httpTimeout, fetch.RetryPolicy{
		MaxRetries:     cfg.httpRetries,
		Backoff:        cfg.httpBackoff,
		JitterFraction: 0.2,
	})
}

func newImageChain(log logrus.FieldLogger) *imagesearch.Chain {
	client := fetch.New(fetch.DefaultTimeout, fetch.WithRetry(fetch.DefaultRetryPolicy()))
	return imagesearch.NewChain(imagesearch.DefaultProviders(client), imagesearch.NewDownloader(), log)
}

// runServe serves the HTTP API until SIGINT or SIGTERM.
func runServe(cfg cliConfig, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.debug {
		gin.SetMode(gin.ReleaseMode)
	}
	themeCfg, configDir := loadTheme(cfg, log)
	opts := server.Options{
		Config:      themeCfg,
		ConfigDir:   configDir,
		ImagesDir:   cfg.imagesDir,
		MaxAttempts: cfg.maxAttempts,
		Log:         log,
	}
	if !cfg.noImages {
		opts.Images = newImageChain(log)
	}
	if cfg.apiKey != "" || cfg.baseURL != defaultBaseURL {
		opts.Outline = outline.NewGenerator(newChatClient(cfg), log, outline.WithModel(cfg.model))
	} else {
		log.Warn("no API key; /v1/outline is disabled")
	}
	return server.New(opts).ListenAndServe(ctx, cfg.serveAddr)
}
