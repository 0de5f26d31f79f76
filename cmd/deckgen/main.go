package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(cliMain(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cliMain is the testable entrypoint. It returns the process exit code:
// 0 on success, 1 on runtime failure and 2 on usage errors.
func cliMain(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if helpRequested(args) {
		printUsage(stdout)
		return 0
	}
	if versionRequested(args) {
		printVersion(stdout)
		return 0
	}
	cfg, err := parseFlags(args)
	if err != nil {
		safeFprintln(stderr, "error: "+err.Error())
		printUsage(stderr)
		return 2
	}
	if cfg.printConfig {
		return printResolvedConfig(cfg, stdout)
	}
	log := newLogger(cfg, stderr)
	if cfg.serveAddr != "" {
		err = runServe(cfg, log)
	} else {
		err = runDeck(cfg, stdin, stdout, log)
	}
	if err != nil {
		writeError(stderr, err)
		var ue *usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

func newLogger(cfg cliConfig, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	switch {
	case cfg.debug:
		l.SetLevel(logrus.DebugLevel)
	case cfg.quiet:
		l.SetLevel(logrus.WarnLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

type hintedError struct {
	err  error
	hint string
}

func (h *hintedError) Error() string { return h.err.Error() }
func (h *hintedError) Unwrap() error { return h.err }

func hinted(err error, hint string) error { return &hintedError{err: err, hint: hint} }

// writeError prints err as a single JSON line on stderr.
func writeError(w io.Writer, err error) {
	payload := map[string]string{"error": strings.ReplaceAll(err.Error(), "\n", " ")}
	var he *hintedError
	if errors.As(err, &he) && he.hint != "" {
		payload["hint"] = strings.ReplaceAll(he.hint, "\n", " ")
	}
	b, mErr := json.Marshal(payload)
	if mErr != nil {
		safeFprintf(w, "{\"error\":%q}\n", payload["error"])
		return
	}
	safeFprintln(w, string(b))
}
