package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/deckgen/internal/imagesearch"
	"github.com/hyperifyio/deckgen/internal/outline"
	"github.com/hyperifyio/deckgen/internal/theme"
)

const (
	defaultOut         = "presentation.pptx"
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultHTTPTimeout = 90 * time.Second
	defaultHTTPRetries = 2
	defaultHTTPBackoff = 500 * time.Millisecond
)

// cliConfig holds configuration resolved from flags and env. sources records
// where each value came from: "flag", "env" or "default".
type cliConfig struct {
	slidesPath  string
	sourcePath  string
	out         string
	configPath  string
	themeName   string
	imagesDir   string
	maxAttempts int
	noImages    bool
	handoutPath string
	stateDir    string

	baseURL     string
	model       string
	apiKey      string
	httpTimeout time.Duration
	httpRetries int
	httpBackoff time.Duration

	serveAddr   string
	printConfig bool
	debug       bool
	quiet       bool

	sources map[string]string
}

// usageError marks invalid invocations; cliMain maps it to exit code 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, a ...any) error { return &usageError{msg: fmt.Sprintf(format, a...)} }

// resolveAPIKeyFromEnv returns the key and the variable it came from.
// Precedence: OAI_API_KEY > OPENAI_API_KEY.
func resolveAPIKeyFromEnv() (string, string) {
	if v := os.Getenv("OAI_API_KEY"); strings.TrimSpace(v) != "" {
		return v, "env"
	}
	if v := os.Getenv("OPENAI_API_KEY"); strings.TrimSpace(v) != "" {
		return v, "env:OPENAI_API_KEY"
	}
	return "", "default"
}

// parseFlags resolves configuration with precedence flag > env > default.
func parseFlags(args []string) (cliConfig, error) {
	cfg := cliConfig{sources: map[string]string{}}
	fs := flag.NewFlagSet("deckgen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.slidesPath, "slides", "", "Slide JSON file ('-' for STDIN)")
	fs.StringVar(&cfg.sourcePath, "source", "", "Source document path or http(s) URL to outline")
	fs.StringVar(&cfg.out, "out", "", "Output .pptx path")
	fs.StringVar(&cfg.configPath, "config", "", "Theme config YAML")
	fs.StringVar(&cfg.themeName, "theme", "", "Theme name from the config")
	fs.StringVar(&cfg.imagesDir, "images-dir", "", "Directory for downloaded images")
	cfg.maxAttempts = -1
	fs.Var(&intFlexFlag{dst: &cfg.maxAttempts}, "max-attempts", "Image download budget per slide")
	fs.BoolVar(&cfg.noImages, "no-images", false, "Skip image search")
	fs.StringVar(&cfg.handoutPath, "handout", "", "Also write a PDF handout to this path")
	fs.StringVar(&cfg.stateDir, "state-dir", "", "Directory for run manifests")
	fs.StringVar(&cfg.baseURL, "base-url", "", "OpenAI-compatible base URL")
	fs.StringVar(&cfg.model, "model", "", "Model ID for outlines")
	fs.StringVar(&cfg.apiKey, "api-key", "", "API key")
	fs.Var(durationFlexFlag{dst: &cfg.httpTimeout}, "http-timeout", "HTTP timeout for chat completions")
	cfg.httpRetries = -1
	fs.Var(&intFlexFlag{dst: &cfg.httpRetries}, "http-retries", "Retries for transient HTTP failures")
	fs.Var(durationFlexFlag{dst: &cfg.httpBackoff}, "http-retry-backoff", "Base backoff between retries")
	fs.StringVar(&cfg.serveAddr, "serve", "", "Serve the HTTP API on this address")
	fs.BoolVar(&cfg.printConfig, "print-config", false, "Print resolved config and exit")
	fs.BoolVar(&cfg.debug, "debug", false, "Debug logging")
	fs.BoolVar(&cfg.quiet, "quiet", false, "Only log warnings and errors")

	if err := fs.Parse(args); err != nil {
		return cfg, usageErrorf("%v", err)
	}
	if fs.NArg() > 0 {
		return cfg, usageErrorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	str := func(name string, dst *string, env, def string) {
		switch {
		case set[name]:
			cfg.sources[name] = "flag"
		case env != "" && strings.TrimSpace(os.Getenv(env)) != "":
			*dst = strings.TrimSpace(os.Getenv(env))
			cfg.sources[name] = "env"
		default:
			*dst = def
			cfg.sources[name] = "default"
		}
	}
	str("out", &cfg.out, "DECKGEN_OUT", defaultOut)
	str("config", &cfg.configPath, "DECKGEN_CONFIG", theme.FileName)
	str("theme", &cfg.themeName, "DECKGEN_THEME", "")
	str("images-dir", &cfg.imagesDir, "DECKGEN_IMAGES_DIR", filepath.Join(filepath.Dir(cfg.out), "images"))
	str("state-dir", &cfg.stateDir, "DECKGEN_STATE_DIR", "")
	str("base-url", &cfg.baseURL, "OAI_BASE_URL", defaultBaseURL)
	str("model", &cfg.model, "OAI_MODEL", outline.DefaultModel)
	str("serve", &cfg.serveAddr, "DECKGEN_ADDR", "")
	if set["api-key"] {
		cfg.sources["api-key"] = "flag"
	} else {
		cfg.apiKey, cfg.sources["api-key"] = resolveAPIKeyFromEnv()
	}

	var err error
	if cfg.maxAttempts, err = intSetting(set["max-attempts"], cfg.maxAttempts, "DECKGEN_MAX_ATTEMPTS", imagesearch.DefaultMaxAttempts, cfg.sources, "max-attempts"); err != nil {
		return cfg, err
	}
	if cfg.httpRetries, err = intSetting(set["http-retries"], cfg.httpRetries, "OAI_HTTP_RETRIES", defaultHTTPRetries, cfg.sources, "http-retries"); err != nil {
		return cfg, err
	}
	if cfg.httpTimeout, err = durationSetting(set["http-timeout"], cfg.httpTimeout, "OAI_HTTP_TIMEOUT", defaultHTTPTimeout, cfg.sources, "http-timeout"); err != nil {
		return cfg, err
	}
	if cfg.httpBackoff, err = durationSetting(set["http-retry-backoff"], cfg.httpBackoff, "OAI_HTTP_RETRY_BACKOFF", defaultHTTPBackoff, cfg.sources, "http-retry-backoff"); err != nil {
		return cfg, err
	}

	if cfg.maxAttempts <= 0 {
		return cfg, usageErrorf("-max-attempts must be positive, got %d", cfg.maxAttempts)
	}
	if cfg.httpRetries < 0 {
		return cfg, usageErrorf("-http-retries must be >= 0, got %d", cfg.httpRetries)
	}
	if cfg.debug && cfg.quiet {
		return cfg, usageErrorf("-debug and -quiet are mutually exclusive")
	}
	if cfg.printConfig {
		return cfg, nil
	}
	if cfg.serveAddr == "" {
		switch {
		case cfg.slidesPath == "" && cfg.sourcePath == "":
			return cfg, usageErrorf("one of -slides or -source is required")
		case cfg.slidesPath != "" && cfg.sourcePath != "":
			return cfg, usageErrorf("-slides and -source are mutually exclusive")
		}
	}
	return cfg, nil
}

func intSetting(flagSet bool, v int, env string, def int, sources map[string]string, name string) (int, error) {
	if flagSet {
		sources[name] = "flag"
		return v, nil
	}
	if raw := strings.TrimSpace(os.Getenv(env)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, usageErrorf("invalid %s %q: %v", env, raw, err)
		}
		sources[name] = "env"
		return n, nil
	}
	sources[name] = "default"
	return def, nil
}

func durationSetting(flagSet bool, v time.Duration, env string, def time.Duration, sources map[string]string, name string) (time.Duration, error) {
	if flagSet {
		sources[name] = "flag"
		return v, nil
	}
	if raw := strings.TrimSpace(os.Getenv(env)); raw != "" {
		d, err := parseDurationFlexible(raw)
		if err != nil {
			return 0, usageErrorf("invalid %s: %v", env, err)
		}
		sources[name] = "env"
		return d, nil
	}
	sources[name] = "default"
	return def, nil
}

// intFlexFlag wires an int destination.
type intFlexFlag struct{ dst *int }

func (f *intFlexFlag) String() string {
	if f == nil || f.dst == nil {
		return "0"
	}
	return strconv.Itoa(*f.dst)
}

func (f *intFlexFlag) Set(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*f.dst = v
	return nil
}

// durationFlexFlag accepts Go durations or plain seconds.
type durationFlexFlag struct{ dst *time.Duration }

func (f durationFlexFlag) String() string {
	if f.dst == nil {
		return ""
	}
	return f.dst.String()
}

func (f durationFlexFlag) Set(s string) error {
	d, err := parseDurationFlexible(s)
	if err != nil {
		return err
	}
	*f.dst = d
	return nil
}

// parseDurationFlexible accepts either standard Go duration strings (e.g., "500ms", "2s")
// or plain integers meaning seconds (e.g., "30" -> 30s).
func parseDurationFlexible(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative duration: %s", s)
		}
		return d, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration seconds: %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid duration: %q", s)
}
