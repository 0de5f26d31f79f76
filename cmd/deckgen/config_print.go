package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/hyperifyio/deckgen/internal/imagesearch"
)

// printResolvedConfig writes the resolved configuration as JSON. Secrets are
// reported by presence only.
func printResolvedConfig(cfg cliConfig, stdout io.Writer) int {
	val := func(name string, v any) map[string]any {
		return map[string]any{"value": v, "source": cfg.sources[name]}
	}
	payload := map[string]any{
		"out":              val("out", cfg.out),
		"config":           val("config", cfg.configPath),
		"theme":            val("theme", cfg.themeName),
		"imagesDir":        val("images-dir", cfg.imagesDir),
		"maxAttempts":      val("max-attempts", cfg.maxAttempts),
		"stateDir":         val("state-dir", cfg.stateDir),
		"baseURL":          val("base-url", cfg.baseURL),
		"model":            val("model", cfg.model),
		"httpTimeout":      val("http-timeout", cfg.httpTimeout.String()),
		"httpRetries":      val("http-retries", cfg.httpRetries),
		"httpRetryBackoff": val("http-retry-backoff", cfg.httpBackoff.String()),
		"serve":            val("serve", cfg.serveAddr),
		"apiKey": map[string]any{
			"present": strings.TrimSpace(cfg.apiKey) != "",
			"source":  cfg.sources["api-key"],
		},
		"images": map[string]any{
			"enabled":   !cfg.noImages,
			"providers": providerStatus(),
		},
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		safeFprintln(stdout, "{}")
		return 0
	}
	safeFprintln(stdout, string(data))
	return 0
}

func providerStatus() map[string]bool {
	present := func(k string) bool { return strings.TrimSpace(os.Getenv(k)) != "" }
	return map[string]bool{
		"duckduckgo": true,
		"unsplash":   present(imagesearch.UnsplashKeyEnv),
		"google":     present(imagesearch.GoogleKeyEnv) && present(imagesearch.GoogleCXEnv),
	}
}
