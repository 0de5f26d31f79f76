// Package layout resolves which physical layout a slide uses and how each of
// its placeholders is aligned, anchored and sized. Every lookup ends in a
// documented default; nothing here fails.
package layout

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/hyperifyio/deckgen/internal/slidespec"
	"github.com/hyperifyio/deckgen/internal/theme"
)

// maxLevel caps indentation depth.
const maxLevel = 5

// DefaultLayoutMapping maps every kind to the layout index of the standard
// Office template.
func DefaultLayoutMapping() map[slidespec.Kind]int {
	m := make(map[slidespec.Kind]int, len(slidespec.Kinds()))
	for _, k := range slidespec.Kinds() {
		m[k] = int(k)
	}
	return m
}

// defaultAlignments holds the built-in per-layout placeholder alignments that
// differ from the global LEFT.
var defaultAlignments = map[string]Alignment{
	"alignment_layout_0_title":        AlignCenter,
	"alignment_layout_0_subtitle":     AlignCenter,
	"alignment_layout_4_left_header":  AlignCenter,
	"alignment_layout_4_right_header": AlignCenter,
	"alignment_layout_5_title":        AlignCenter,
}

// placeholderAliases lists alternative config key suffixes accepted for a
// placeholder name.
var placeholderAliases = map[string][]string{
	"content":             {"body"},
	"left_content":        {"left_body"},
	"right_content":       {"right_body"},
	"left_header":         {"left_head", "left_heading"},
	"right_header":        {"right_head", "right_heading"},
	"section_title":       {"title"},
	"section_description": {"body", "content"},
}

// Resolver answers layout and style questions for one theme configuration.
type Resolver struct {
	cfg         theme.Config
	mapping     map[slidespec.Kind]int
	layoutCount int
	log         logrus.FieldLogger
}

// NewResolver merges the active theme's layout_mapping over the default
// mapping. Unknown kind names in the mapping are ignored with a warning.
func NewResolver(cfg theme.Config, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Resolver{cfg: cfg, mapping: DefaultLayoutMapping(), log: log}
	name, tpl := cfg.Active()
	for key, idx := range tpl.LayoutMapping {
		k, ok := slidespec.KindFromName(key)
		if !ok {
			log.WithFields(logrus.Fields{"theme": name, "layout": key}).Warn("unknown layout name in layout_mapping; ignored")
			continue
		}
		r.mapping[k] = idx
	}
	return r
}

// WithLayoutCount returns a copy that validates indices against the number
// of layouts available in the loaded template. Zero disables validation.
func (r *Resolver) WithLayoutCount(n int) *Resolver {
	c := *r
	c.layoutCount = n
	return &c
}

// Config returns the configuration the resolver was built from.
func (r *Resolver) Config() theme.Config { return r.cfg }

// LayoutIndex resolves the physical layout index for kind. Kinds absent from
// the theme's mapping use the default mapping. With a known layout count an
// out-of-range index falls back to the default index, and ok is false when
// that is out of range too.
func (r *Resolver) LayoutIndex(kind slidespec.Kind) (int, bool) {
	idx, ok := r.mapping[kind]
	if !ok {
		idx, ok = DefaultLayoutMapping()[kind]
		if !ok {
			return 0, false
		}
	}
	if r.inRange(idx) {
		return idx, true
	}
	r.log.WithFields(logrus.Fields{"layout": kind.String(), "index": idx, "available": r.layoutCount}).
		Warn("mapped layout index out of bounds")
	def := int(kind)
	if def != idx && r.inRange(def) {
		return def, true
	}
	return 0, false
}

func (r *Resolver) inRange(idx int) bool {
	if idx < 0 {
		return false
	}
	return r.layoutCount <= 0 || idx < r.layoutCount
}

// Alignment resolves alignment_layout_<idx>_<placeholder>, then its aliases,
// then the built-in per-layout table, then LEFT.
func (r *Resolver) Alignment(layoutIdx int, placeholder string) Alignment {
	names := append([]string{placeholder}, placeholderAliases[placeholder]...)
	for _, n := range names {
		if v, ok := r.cfg.Alignments[alignmentKey(layoutIdx, n)]; ok && strings.TrimSpace(v) != "" {
			return ParseAlignment(v)
		}
	}
	for _, n := range names {
		if a, ok := defaultAlignments[alignmentKey(layoutIdx, n)]; ok {
			return a
		}
	}
	return AlignLeft
}

// NotesAlignment resolves alignment_notes.
func (r *Resolver) NotesAlignment() Alignment {
	return ParseAlignment(r.cfg.Alignments["alignment_notes"])
}

func alignmentKey(layoutIdx int, placeholder string) string {
	return fmt.Sprintf("alignment_layout_%d_%s", layoutIdx, placeholder)
}

// Anchor returns the vertical anchor for a placeholder. Titles of title and
// title-only slides are centered vertically.
func (r *Resolver) Anchor(kind slidespec.Kind, placeholder string) Anchor {
	if placeholder == "title" && (kind == slidespec.TitleSlide || kind == slidespec.TitleOnly) {
		return AnchorMiddle
	}
	return ParseAnchor(r.cfg.VerticalAnchor)
}

// BaseFontSize returns the configured size for role.
func (r *Resolver) BaseFontSize(role Role) int {
	d := theme.Default()
	pick := func(v, def int) int {
		if v > 0 {
			return v
		}
		return def
	}
	switch role {
	case RoleTitle:
		return pick(r.cfg.TitleFontSize, d.TitleFontSize)
	case RoleSubtitle:
		return pick(r.cfg.SubtitleFontSize, d.SubtitleFontSize)
	case RoleCaption:
		return pick(r.cfg.CaptionFontSize, d.CaptionFontSize)
	case RoleNotes:
		return pick(r.cfg.NotesFontSize, d.NotesFontSize)
	default:
		return pick(r.cfg.BodyFontSize, d.BodyFontSize)
	}
}

// BodyFontSize returns the smaller content size when dynamic sizing is on and
// the non-empty item count or their total visible length (markup stripped)
// exceeds its threshold; otherwise the body size.
func (r *Resolver) BodyFontSize(items []string) int {
	base := r.BaseFontSize(RoleBody)
	if !r.cfg.DynamicBodyFontSize {
		return base
	}
	count, chars := 0, 0
	for _, it := range items {
		s := strings.TrimSpace(StripMarkup(it))
		if s == "" {
			continue
		}
		count++
		chars += utf8.RuneCountInString(s)
	}
	if count > r.cfg.ItemCountThreshold || chars > r.cfg.CharCountThreshold {
		if r.cfg.SmallerContentFontSize > 0 {
			return r.cfg.SmallerContentFontSize
		}
	}
	return base
}

// LevelFontSize is max(min, base - level*reduction).
func (r *Resolver) LevelFontSize(base, level int) int {
	if level < 0 {
		level = 0
	}
	reduction := r.cfg.IndentReduction
	if reduction < 0 {
		reduction = 0
	}
	size := base - level*reduction
	if size < r.cfg.MinFontSize {
		return r.cfg.MinFontSize
	}
	return size
}

// FontName returns the configured font family.
func (r *Resolver) FontName() string {
	if strings.TrimSpace(r.cfg.FontName) == "" {
		return theme.Default().FontName
	}
	return r.cfg.FontName
}

// FontColor returns the configured text color, or "" when it is invalid.
func (r *Resolver) FontColor() string {
	c, ok := theme.NormalizeColor(r.cfg.FontColor)
	if !ok {
		if r.cfg.FontColor != "" {
			r.log.WithField("color", r.cfg.FontColor).Warn("invalid default_font_color_rgb; ignored")
		}
		return ""
	}
	return c
}

// Background returns the master background color when one is configured.
func (r *Resolver) Background() (string, bool) {
	if strings.TrimSpace(r.cfg.BackgroundColor) == "" {
		return "", false
	}
	c, ok := theme.NormalizeColor(r.cfg.BackgroundColor)
	if !ok {
		r.log.WithField("color", r.cfg.BackgroundColor).Warn("invalid master_background_color_rgb; ignored")
	}
	return c, ok
}

// Style resolves the full style of one placeholder. Body placeholders get
// dynamic sizing over items.
func (r *Resolver) Style(kind slidespec.Kind, layoutIdx int, placeholder string, role Role, items []string) Style {
	size := r.BaseFontSize(role)
	if role == RoleBody {
		size = r.BodyFontSize(items)
	}
	return Style{
		Alignment: r.Alignment(layoutIdx, placeholder),
		Anchor:    r.Anchor(kind, placeholder),
		FontSize:  size,
		FontName:  r.FontName(),
		FontColor: r.FontColor(),
	}
}

// ParseLevel splits an item into its indentation level (two spaces per
// level, capped) and the trimmed text.
func ParseLevel(item string) (int, string) {
	trimmed := strings.TrimLeft(item, " \t")
	lead := 0
	for _, c := range item[:len(item)-len(trimmed)] {
		if c == '\t' {
			lead += 2
		} else {
			lead++
		}
	}
	level := lead / 2
	if level > maxLevel {
		level = maxLevel
	}
	return level, strings.TrimRight(trimmed, " \t")
}
