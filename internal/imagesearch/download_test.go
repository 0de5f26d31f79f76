package imagesearch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/deckgen/internal/fetch"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{color.White, color.Black})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func imageServer(t *testing.T, files map[string][]byte) *httptest.Server {
	t.Helper()
	t.Setenv(fetch.AllowLocalEnv, "1")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFileName(t *testing.T) {
	name := FileName("Film camera: 35mm/120", "https://example.com/a.jpg", "jpg")
	assert.True(t, strings.HasPrefix(name, "Film_camera__35mm_120_"), name)
	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(name, "Film_camera__35mm_120_"), ".jpg"), 8)

	long := FileName(strings.Repeat("x", 80), "u", "png")
	assert.Equal(t, 50+1+8+4, len(long))

	assert.Equal(t, FileName("q", "https://a/1", "jpg"), FileName("q", "https://a/1", "jpg"))
	assert.NotEqual(t, FileName("q", "https://a/1", "jpg"), FileName("q", "https://a/2", "jpg"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		w, h int
		err  error
	}{
		{800, 600, nil},
		{1920, 1080, nil},
		{799, 600, ErrTooSmall},
		{800, 599, ErrTooSmall},
		{2000, 900, ErrAspect},
		{800, 1700, ErrAspect},
		{1200, 600, nil},
		{800, 1600, nil},
	}
	for _, tc := range tests {
		err := Validate(tc.w, tc.h)
		if tc.err == nil {
			assert.NoError(t, err, "%dx%d", tc.w, tc.h)
			continue
		}
		assert.True(t, errors.Is(err, tc.err), "%dx%d: %v", tc.w, tc.h, err)
	}
}

func TestDownloader_SavesPNG(t *testing.T) {
	raw := pngBytes(t, 1000, 700)
	srv := imageServer(t, map[string][]byte{"/big.png": raw})
	dir := t.TempDir()

	res, err := NewDownloader().Fetch(context.Background(), srv.URL+"/big.png", "red dot", dir)
	require.NoError(t, err)
	assert.Equal(t, "png", res.Format)
	assert.Equal(t, filepath.Join(dir, FileName("red dot", srv.URL+"/big.png", "png")), res.SavePath)
	assert.InDelta(t, 0.7, res.AspectRatio, 1e-9)
	assert.Equal(t, raw, res.Data)

	onDisk, err := os.ReadFile(res.SavePath)
	require.NoError(t, err)
	assert.Equal(t, raw, onDisk)
}

func TestDownloader_ReencodesGIFAsJPEG(t *testing.T) {
	srv := imageServer(t, map[string][]byte{"/anim.gif": gifBytes(t, 900, 600)})
	res, err := NewDownloader().Fetch(context.Background(), srv.URL+"/anim.gif", "q", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", res.Format)
	assert.True(t, strings.HasSuffix(res.SavePath, ".jpg"))
	_, err = jpeg.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
}

func TestDownloader_Rejects(t *testing.T) {
	srv := imageServer(t, map[string][]byte{
		"/small.png": pngBytes(t, 100, 100),
		"/wide.png":  pngBytes(t, 2400, 800),
		"/text":      []byte("<html>not an image</html>"),
	})
	d := NewDownloader()
	dir := t.TempDir()

	_, err := d.Fetch(context.Background(), srv.URL+"/small.png", "q", dir)
	assert.True(t, errors.Is(err, ErrTooSmall), "%v", err)
	_, err = d.Fetch(context.Background(), srv.URL+"/wide.png", "q", dir)
	assert.True(t, errors.Is(err, ErrAspect), "%v", err)
	_, err = d.Fetch(context.Background(), srv.URL+"/text", "q", dir)
	assert.Error(t, err)
	_, err = d.Fetch(context.Background(), srv.URL+"/missing.png", "q", dir)
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected images are not written")
}
