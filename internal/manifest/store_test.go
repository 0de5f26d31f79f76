package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/deckgen/internal/deck"
	"github.com/hyperifyio/deckgen/internal/slidespec"
)

func sample() *Manifest {
	m := New(time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC), "deckgen test")
	m.Theme = "default"
	m.Output = "out/presentation.pptx"
	m.Record(&deck.Result{
		Template: "templates/blue.pptx",
		Warnings: []string{"slide 3: unsupported layout_idx 12; skipped"},
		Slides: []deck.SlideResult{
			{Number: 1, Kind: slidespec.TitleSlide, LayoutIndex: 0, LayoutName: "Title Slide"},
			{Number: 2, Kind: slidespec.PictureWithCaption, LayoutIndex: 8, Image: &deck.ImageRef{
				Query: "film camera", Path: "out/images/film_camera_1a2b3c4d.jpg",
				SourceURL: "https://cdn.example.com/p.jpg?w=1080&client_id=abc123", Provider: "unsplash", AspectRatio: 1.5,
			}},
		},
	})
	return m
}

func TestSaveAndLoadLatest(t *testing.T) {
	synced := 0
	old := syncDirFunc
	syncDirFunc = func(dir string) error { synced++; return old(dir) }
	t.Cleanup(func() { syncDirFunc = old })

	dir := filepath.Join(t.TempDir(), "state")
	m := sample()
	path, err := Save(dir, m)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "deckgen-2025-03-04T102030Z-"), base)
	assert.True(t, strings.HasSuffix(base, ".json"))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	got, err := LoadLatest(dir)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, "templates/blue.pptx", got.Template)
	require.Len(t, got.Slides, 2)
	assert.Equal(t, "PICTURE_WITH_CAPTION", got.Slides[1].Kind)
	require.Len(t, got.Images, 1)
	assert.Equal(t, 2, got.Images[0].Slide)
	assert.NotContains(t, got.Images[0].SourceURL, "abc123")
	assert.Contains(t, got.Images[0].SourceURL, "w=1080")
	assert.Len(t, got.Warnings, 1)
}

func TestLoadLatest_DetectsTampering(t *testing.T) {
	dir := t.TempDir()
	path, err := Save(dir, sample())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(data, ' '), 0o600))

	_, err = LoadLatest(dir)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestLoadLatest_RejectsUnsafePointer(t *testing.T) {
	dir := t.TempDir()
	ptr, _ := json.Marshal(latestPointer{Version: Version, Path: "../escape.json"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, LatestName), ptr, 0o600))

	_, err := LoadLatest(dir)
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = LoadLatest(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestSave_Validation(t *testing.T) {
	m := sample()
	m.Output = ""
	_, err := Save(t.TempDir(), m)
	assert.Error(t, err)

	m = sample()
	m.RunID = "not-a-uuid"
	_, err = Save(t.TempDir(), m)
	assert.Error(t, err)
}

func TestSave_RejectsWorldWritableDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not authoritative on windows")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o777))
	_, err := Save(dir, sample())
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://x.test/a.jpg", redactURL("https://x.test/a.jpg"))
	assert.Equal(t, "https://x.test/a.jpg?key=%2A%2A%2A%2A&q=cat", redactURL("https://x.test/a.jpg?key=secret&q=cat"))
	assert.Equal(t, "::bad", redactURL("::bad"))
}
