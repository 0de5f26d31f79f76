package main

import (
	"fmt"
	"io"
	"strings"
)

// Build-time variables set via -ldflags; defaults are useful for dev builds.
var (
	version   = "v0.0.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// helpRequested returns true if any canonical help token is present.
func helpRequested(args []string) bool {
	for _, a := range args {
		if a == "--help" || a == "-h" || a == "-help" || a == "help" {
			return true
		}
	}
	return false
}

// versionRequested returns true if any canonical version token is present.
func versionRequested(args []string) bool {
	for _, a := range args {
		if a == "--version" || a == "-version" {
			return true
		}
	}
	return false
}

func printVersion(w io.Writer) {
	safeFprintln(w, fmt.Sprintf("deckgen version %s (commit %s, built %s)", version, shortCommit(commit), buildDate))
}

func shortCommit(c string) string {
	c = strings.TrimSpace(c)
	if len(c) > 7 {
		return c[:7]
	}
	if c == "" {
		return "unknown"
	}
	return c
}

func printUsage(w io.Writer) {
	var b strings.Builder
	b.WriteString("deckgen: build PowerPoint decks from slide JSON or source documents\n\n")
	b.WriteString("Usage:\n  deckgen -slides deck.json [flags]\n  deckgen -source paper.pdf [flags]\n  deckgen -serve :8080 [flags]\n\n")
	b.WriteString("Flags (precedence: flag > env > default):\n")
	b.WriteString("  -slides string\n    Slide JSON file ('-' for STDIN)\n")
	b.WriteString("  -source string\n    Document (.pdf, .html, text) or http(s) URL to outline with the model\n")
	b.WriteString("  -out string\n    Output .pptx path (env DECKGEN_OUT; default presentation.pptx)\n")
	b.WriteString("  -config string\n    Theme config YAML (env DECKGEN_CONFIG; default slide_config.yaml)\n")
	b.WriteString("  -theme string\n    Theme name (env DECKGEN_THEME; default current_theme from config)\n")
	b.WriteString("  -images-dir string\n    Downloaded images directory (env DECKGEN_IMAGES_DIR; default <out dir>/images)\n")
	b.WriteString("  -max-attempts int\n    Image download budget per slide (env DECKGEN_MAX_ATTEMPTS; default 6)\n")
	b.WriteString("  -no-images\n    Skip image search; visual slides get a placeholder\n")
	b.WriteString("  -handout string\n    Also write a PDF handout to this path\n")
	b.WriteString("  -state-dir string\n    Write a run manifest here (env DECKGEN_STATE_DIR)\n")
	b.WriteString("  -base-url string\n    OpenAI-compatible base URL (env OAI_BASE_URL; default https://api.openai.com/v1)\n")
	b.WriteString("  -model string\n    Outline model ID (env OAI_MODEL; default gpt-4o-mini)\n")
	b.WriteString("  -api-key string\n    API key (env OAI_API_KEY; falls back to OPENAI_API_KEY)\n")
	b.WriteString("  -http-timeout duration\n    HTTP timeout for chat completions (env OAI_HTTP_TIMEOUT; default 90s)\n")
	b.WriteString("  -http-retries int\n    Retries for timeouts, 429 and 5xx (env OAI_HTTP_RETRIES; default 2)\n")
	b.WriteString("  -http-retry-backoff duration\n    Base exponential backoff (env OAI_HTTP_RETRY_BACKOFF; default 500ms)\n")
	b.WriteString("  -serve string\n    Serve the HTTP API on this address (env DECKGEN_ADDR)\n")
	b.WriteString("  -print-config\n    Print resolved config and exit\n")
	b.WriteString("  -debug\n    Debug logging\n")
	b.WriteString("  -quiet\n    Only log warnings and errors\n")
	b.WriteString("  --version | -version\n    Print version and exit\n")
	b.WriteString("\nImage providers (tried in order):\n")
	b.WriteString("  duckduckgo   no key required\n")
	b.WriteString("  unsplash     UNSPLASH_API_KEY\n")
	b.WriteString("  google       GOOGLE_API_KEY and GOOGLE_CX\n")
	b.WriteString("\nExit codes: 0 success, 1 runtime failure, 2 usage error\n")
	b.WriteString("\nExamples:\n")
	b.WriteString("  deckgen -slides deck.json -out out/talk.pptx -theme ocean\n")
	b.WriteString("  deckgen -source https://example.com/article -handout out/talk.pdf -state-dir .deckgen\n")
	b.WriteString("  cat deck.json | deckgen -slides - -no-images\n")
	safeFprintln(w, strings.TrimRight(b.String(), "\n"))
}

// safeFprintln writes a line to w and intentionally ignores write errors.
func safeFprintln(w io.Writer, a ...any) {
	if _, err := fmt.Fprintln(w, a...); err != nil {
		return
	}
}

// safeFprintf writes formatted text to w and intentionally ignores write errors.
func safeFprintf(w io.Writer, format string, a ...any) {
	if _, err := fmt.Fprintf(w, format, a...); err != nil {
		return
	}
}
