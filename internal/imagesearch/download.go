package imagesearch

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // content-addressed file naming, not security
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/webp" // register decoder

	"github.com/hyperifyio/deckgen/internal/fetch"
)

// Download limits.
const (
	MinWidth        = 800
	MinHeight       = 600
	MinAspect       = 0.5
	MaxAspect       = 2.0
	DownloadTimeout = 15 * time.Second
	maxImageBytes   = 25 << 20
	safeQueryLen    = 50
)

var (
	// ErrTooSmall rejects images under MinWidth x MinHeight.
	ErrTooSmall = errors.New("image too small")
	// ErrAspect rejects images whose height/width falls outside [MinAspect, MaxAspect].
	ErrAspect = errors.New("image aspect ratio out of range")
)

// Result is a validated image saved to disk. AspectRatio is height/width.
type Result struct {
	Data        []byte
	SavePath    string
	AspectRatio float64
	SourceURL   string
	Width       int
	Height      int
	Format      string
	Provider    string
	Query       string
}

// Downloader fetches candidate URLs and keeps only images large enough and
// shaped well enough for a slide.
type Downloader struct {
	client *fetch.Client
}

// NewDownloader returns a Downloader with the standard 15s timeout and a
// browser-like User-Agent. Downloads are not retried.
func NewDownloader() *Downloader {
	return NewDownloaderWithClient(fetch.New(DownloadTimeout,
		fetch.WithUserAgent("Mozilla/5.0"),
		fetch.WithRetry(fetch.RetryPolicy{MaxRetries: 0})))
}

func NewDownloaderWithClient(c *fetch.Client) *Downloader {
	return &Downloader{client: c}
}

// Fetch downloads rawURL, validates it and saves it under saveDir with a
// name derived from query and the URL.
func (d *Downloader) Fetch(ctx context.Context, rawURL, query, saveDir string) (Result, error) {
	h := http.Header{}
	h.Set("Accept", "image/*")
	resp, err := d.client.Get(ctx, rawURL, h, maxImageBytes)
	if err != nil {
		return Result{}, err
	}
	data, format, w, hgt, err := normalize(resp.Body)
	if err != nil {
		return Result{}, err
	}
	ext := "jpg"
	if format == "png" {
		ext = "png"
	}
	path := filepath.Join(saveDir, FileName(query, rawURL, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Result{}, fmt.Errorf("save image: %w", err)
	}
	return Result{
		Data:        data,
		SavePath:    path,
		AspectRatio: float64(hgt) / float64(w),
		SourceURL:   rawURL,
		Width:       w,
		Height:      hgt,
		Format:      format,
		Query:       query,
	}, nil
}

// normalize validates raw image bytes. JPEG and PNG are kept as-is; WEBP and
// GIF are re-encoded as JPEG.
func normalize(raw []byte) ([]byte, string, int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, "", 0, 0, fmt.Errorf("decode image: %w", err)
	}
	if err := Validate(cfg.Width, cfg.Height); err != nil {
		return nil, "", 0, 0, err
	}
	switch format {
	case "jpeg", "png":
		if _, _, err := image.Decode(bytes.NewReader(raw)); err != nil {
			return nil, "", 0, 0, fmt.Errorf("decode %s: %w", format, err)
		}
		return raw, format, cfg.Width, cfg.Height, nil
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", 0, 0, fmt.Errorf("decode %s: %w", format, err)
	}
	rgb := image.NewRGBA(img.Bounds())
	draw.Draw(rgb, rgb.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(rgb, rgb.Bounds(), img, img.Bounds().Min, draw.Over)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: 90}); err != nil {
		return nil, "", 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "jpeg", cfg.Width, cfg.Height, nil
}

// Validate applies the size and aspect limits.
func Validate(width, height int) error {
	if width < MinWidth || height < MinHeight {
		return fmt.Errorf("%w: %dx%d", ErrTooSmall, width, height)
	}
	ratio := float64(height) / float64(width)
	if ratio < MinAspect || ratio > MaxAspect {
		return fmt.Errorf("%w: %.2f", ErrAspect, ratio)
	}
	return nil
}

// FileName is "<safe query>_<sha1(url)[:8]>.<ext>". The query part keeps
// letters, digits, '_' and '-', maps everything else to '_' and is cut at 50
// characters.
func FileName(query, rawURL, ext string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if n == safeQueryLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		n++
	}
	sum := sha1.Sum([]byte(rawURL)) //nolint:gosec
	return b.String() + "_" + hex.EncodeToString(sum[:])[:8] + "." + ext
}
