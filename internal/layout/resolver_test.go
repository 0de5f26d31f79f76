package layout

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/deckgen/internal/slidespec"
	"github.com/hyperifyio/deckgen/internal/theme"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func mustConfig(t *testing.T, yml string) theme.Config {
	t.Helper()
	cfg, err := theme.Parse([]byte(yml))
	require.NoError(t, err)
	return cfg.WithTheme("", quietLogger())
}

func TestLayoutIndex_ThemeOverridesAndDefaultFallback(t *testing.T) {
	cfg := mustConfig(t, `
current_theme: custom
templates:
  custom:
    layout_mapping:
      COMPARISON: 11
      title_only: 7
      NOT_A_LAYOUT: 3
`)
	r := NewResolver(cfg, quietLogger())

	idx, ok := r.LayoutIndex(slidespec.Comparison)
	require.True(t, ok)
	assert.Equal(t, 11, idx)
	idx, _ = r.LayoutIndex(slidespec.TitleOnly)
	assert.Equal(t, 7, idx)

	def := DefaultLayoutMapping()
	for _, k := range slidespec.Kinds() {
		if k == slidespec.Comparison || k == slidespec.TitleOnly {
			continue
		}
		got, ok := r.LayoutIndex(k)
		if !ok || got != def[k] {
			t.Fatalf("LayoutIndex(%v)=%d,%v; want default %d", k, got, ok, def[k])
		}
	}
}

func TestLayoutIndex_OutOfBounds(t *testing.T) {
	cfg := mustConfig(t, "layout_mapping:\n  COMPARISON: 40\n  BLANK: 2\n")
	r := NewResolver(cfg, quietLogger()).WithLayoutCount(6)

	idx, ok := r.LayoutIndex(slidespec.Comparison)
	require.True(t, ok)
	assert.Equal(t, 4, idx, "falls back to default index when mapped one is out of range")

	idx, ok = r.LayoutIndex(slidespec.Blank)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = r.LayoutIndex(slidespec.PictureWithCaption)
	assert.False(t, ok, "default index 8 is out of range for 6 layouts")
}

func TestAlignment_LookupOrder(t *testing.T) {
	cfg := mustConfig(t, `
alignment_layout_1_title: right
alignment_layout_3_left_body: center
alignment_layout_4_left_header: left
alignment_layout_1_content: bogus
alignment_notes: center
`)
	r := NewResolver(cfg, quietLogger())

	tests := []struct {
		idx  int
		ph   string
		want Alignment
	}{
		{1, PHTitle, AlignRight},
		{3, PHLeftContent, AlignCenter},   // alias key
		{4, PHLeftHeader, AlignLeft},      // config beats built-in CENTER
		{4, PHRightHeader, AlignCenter},   // built-in table
		{0, PHTitle, AlignCenter},         // built-in table
		{0, PHSubtitle, AlignCenter},      // built-in table
		{5, PHTitle, AlignCenter},         // built-in table
		{1, PHContent, AlignLeft},         // unknown string
		{7, PHCaption, AlignLeft},         // global default
		{2, PHSectionDescription, AlignLeft},
	}
	for _, tc := range tests {
		if got := r.Alignment(tc.idx, tc.ph); got != tc.want {
			t.Fatalf("Alignment(%d,%q)=%v; want %v", tc.idx, tc.ph, got, tc.want)
		}
	}
	assert.Equal(t, AlignCenter, r.NotesAlignment())
	assert.Equal(t, AlignLeft, NewResolver(theme.Default(), quietLogger()).NotesAlignment())
}

func TestAnchor(t *testing.T) {
	r := NewResolver(mustConfig(t, "default_vertical_anchor: bottom\n"), quietLogger())
	assert.Equal(t, AnchorMiddle, r.Anchor(slidespec.TitleSlide, PHTitle))
	assert.Equal(t, AnchorMiddle, r.Anchor(slidespec.TitleOnly, PHTitle))
	assert.Equal(t, AnchorBottom, r.Anchor(slidespec.TitleAndContent, PHTitle))
	assert.Equal(t, AnchorTop, ParseAnchor("sideways"))
}

func TestBaseFontSizes(t *testing.T) {
	r := NewResolver(theme.Default(), quietLogger())
	assert.Equal(t, 36, r.BaseFontSize(RoleTitle))
	assert.Equal(t, 20, r.BaseFontSize(RoleBody))
	assert.Equal(t, 24, r.BaseFontSize(RoleSubtitle))
	assert.Equal(t, 14, r.BaseFontSize(RoleCaption))
	assert.Equal(t, 10, r.BaseFontSize(RoleNotes))
}

func TestBodyFontSize_Thresholds(t *testing.T) {
	r := NewResolver(theme.Default(), quietLogger())
	items := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "x"
		}
		return out
	}

	assert.Equal(t, 20, r.BodyFontSize(items(6)), "count equal to threshold does not trigger")
	assert.Equal(t, 16, r.BodyFontSize(items(7)), "count above threshold triggers")
	assert.Equal(t, 20, r.BodyFontSize(append(items(6), "", "   ")), "blank items are not counted")

	assert.Equal(t, 20, r.BodyFontSize([]string{strings.Repeat("a", 400)}), "chars equal to threshold")
	assert.Equal(t, 16, r.BodyFontSize([]string{strings.Repeat("a", 401)}), "chars above threshold")
	assert.Equal(t, 20, r.BodyFontSize([]string{"   " + strings.Repeat("a", 400) + "  "}), "surrounding space is trimmed")

	bold := make([]string, 5)
	for i := range bold {
		bold[i] = "**" + strings.Repeat("a", 78) + "**"
	}
	assert.Equal(t, 20, r.BodyFontSize(bold), "markup does not count toward the threshold")
	assert.Equal(t, 20, r.BodyFontSize([]string{"<u>" + strings.Repeat("a", 200) + "</u>", "*" + strings.Repeat("b", 200) + "*"}))
	assert.Equal(t, 16, r.BodyFontSize([]string{"**" + strings.Repeat("a", 401) + "**"}))
	assert.Equal(t, 20, r.BodyFontSize([]string{strings.Repeat("ä", 400)}), "characters, not bytes")

	off := theme.Default()
	off.DynamicBodyFontSize = false
	assert.Equal(t, 20, NewResolver(off, quietLogger()).BodyFontSize(items(50)))
}

func TestLevelFontSize_MonotonicAndClamped(t *testing.T) {
	cfgs := []theme.Config{theme.Default()}
	c := theme.Default()
	c.IndentReduction = 5
	c.MinFontSize = 12
	cfgs = append(cfgs, c)

	for _, cfg := range cfgs {
		r := NewResolver(cfg, quietLogger())
		for _, base := range []int{8, 14, 20, 36} {
			prev := r.LevelFontSize(base, 0)
			for level := 1; level <= 10; level++ {
				got := r.LevelFontSize(base, level)
				if got > prev {
					t.Fatalf("LevelFontSize(%d,%d)=%d; grew from %d", base, level, got, prev)
				}
				if got < cfg.MinFontSize {
					t.Fatalf("LevelFontSize(%d,%d)=%d; below min %d", base, level, got, cfg.MinFontSize)
				}
				prev = got
			}
		}
	}
	r := NewResolver(theme.Default(), quietLogger())
	assert.Equal(t, 20, r.LevelFontSize(20, 0))
	assert.Equal(t, 16, r.LevelFontSize(20, 2))
	assert.Equal(t, 10, r.LevelFontSize(20, 5))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		level int
		text  string
	}{
		{"plain", 0, "plain"},
		{" one space", 0, "one space"},
		{"  - sub", 1, "- sub"},
		{"    deeper  ", 2, "deeper"},
		{"\tTabbed", 1, "Tabbed"},
		{strings.Repeat(" ", 30) + "deep", 5, "deep"},
	}
	for _, tc := range tests {
		level, text := ParseLevel(tc.in)
		if level != tc.level || text != tc.text {
			t.Fatalf("ParseLevel(%q)=%d,%q; want %d,%q", tc.in, level, text, tc.level, tc.text)
		}
	}
}

func TestColors(t *testing.T) {
	cfg := theme.Default()
	cfg.FontColor = "nothex"
	cfg.BackgroundColor = "#f0f0f0"
	r := NewResolver(cfg, quietLogger())
	assert.Equal(t, "", r.FontColor())
	bg, ok := r.Background()
	assert.True(t, ok)
	assert.Equal(t, "F0F0F0", bg)

	_, ok = NewResolver(theme.Default(), quietLogger()).Background()
	assert.False(t, ok)
}
