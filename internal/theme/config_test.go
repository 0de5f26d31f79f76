package theme

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

const sampleYAML = `
current_theme: organic
templates:
  organic:
    template_path: templates/Organic.pptx
    layout_mapping:
      COMPARISON: 6
      TITLE_ONLY: 2
  plain:
    layout_mapping:
      0: 1
default_font_name: Georgia
default_body_font_size_pt: 22
enable_dynamic_body_font_size: false
alignment_layout_1_title: center
alignment_notes: RIGHT
unrelated_key: 5
`

func TestParse_OverridesDefaultsAndCollectsAlignments(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "Georgia", cfg.FontName)
	assert.Equal(t, 22, cfg.BodyFontSize)
	assert.False(t, cfg.DynamicBodyFontSize)
	// untouched keys keep their defaults
	assert.Equal(t, 36, cfg.TitleFontSize)
	assert.Equal(t, 10, cfg.MinFontSize)
	assert.Equal(t, 400, cfg.CharCountThreshold)

	assert.Equal(t, "center", cfg.Alignments["alignment_layout_1_title"])
	assert.Equal(t, "RIGHT", cfg.Alignments["alignment_notes"])
	assert.NotContains(t, cfg.Alignments, "unrelated_key")

	assert.Equal(t, map[string]int{"0": 1}, cfg.Templates["plain"].LayoutMapping)
}

func TestParse_Malformed(t *testing.T) {
	cfg, err := Parse([]byte("templates: [unterminated"))
	require.Error(t, err)
	assert.Equal(t, Default().FontName, cfg.FontName)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, exists, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, Default().BodyFontSize, cfg.BodyFontSize)
}

func TestThemeSelection(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	log := quietLogger()

	assert.Equal(t, []string{"organic", "plain"}, cfg.ThemeNames())
	assert.Equal(t, "plain", cfg.WithTheme("plain", log).CurrentTheme)
	assert.Equal(t, "organic", cfg.WithTheme("missing", log).CurrentTheme)

	cfg.CurrentTheme = "gone"
	assert.Equal(t, "organic", cfg.WithTheme("", log).CurrentTheme)

	name, tpl := cfg.WithTheme("organic", log).Active()
	assert.Equal(t, "organic", name)
	assert.Equal(t, 6, tpl.LayoutMapping["COMPARISON"])
}

func TestImplicitDefaultTheme(t *testing.T) {
	cfg, err := Parse([]byte("template_path: deck.pptx\nlayout_mapping:\n  BLANK: 3\n"))
	require.NoError(t, err)
	cfg = cfg.WithTheme("", quietLogger())
	name, tpl := cfg.Active()
	assert.Equal(t, DefaultThemeName, name)
	assert.Equal(t, "deck.pptx", tpl.TemplatePath)
	assert.Equal(t, 3, tpl.LayoutMapping["BLANK"])
}

func TestTemplateFile_ResolvesRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "templates"), 0o755))
	tplPath := filepath.Join(dir, "templates", "Organic.pptx")
	require.NoError(t, os.WriteFile(tplPath, []byte("x"), 0o644))

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	log := quietLogger()

	assert.Equal(t, tplPath, cfg.WithTheme("organic", log).TemplateFile(dir, log))
	assert.Equal(t, "", cfg.WithTheme("plain", log).TemplateFile(dir, log))
	assert.Equal(t, "", cfg.WithTheme("organic", log).TemplateFile(t.TempDir(), log))
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"ff0000", "FF0000", true},
		{"#1e40af", "1E40AF", true},
		{"", "", false},
		{"12345", "", false},
		{"GGGGGG", "", false},
	}
	for _, tc := range tests {
		got, ok := NormalizeColor(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("NormalizeColor(%q)=%q,%v; want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
