// Package theme loads the YAML deck configuration: named themes with their
// template files and layout mappings, plus global font, color, alignment and
// dynamic sizing defaults.
package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// FileName is the configuration file looked up when no path is given.
const FileName = "slide_config.yaml"

// DefaultThemeName names the implicit theme built from top-level
// template_path/layout_mapping keys.
const DefaultThemeName = "default"

// Template is one entry under "templates".
type Template struct {
	TemplatePath  string         `yaml:"template_path" json:"template_path,omitempty"`
	LayoutMapping map[string]int `yaml:"layout_mapping" json:"layout_mapping,omitempty"`
}

// Config mirrors slide_config.yaml. Keys missing from the file keep the
// values of Default().
type Config struct {
	CurrentTheme string              `yaml:"current_theme" json:"current_theme,omitempty"`
	Templates    map[string]Template `yaml:"templates" json:"templates,omitempty"`

	// Top-level template keys are accepted for single-theme files.
	TemplatePath  string         `yaml:"template_path" json:"template_path,omitempty"`
	LayoutMapping map[string]int `yaml:"layout_mapping" json:"layout_mapping,omitempty"`

	FontName         string `yaml:"default_font_name" json:"default_font_name"`
	FontColor        string `yaml:"default_font_color_rgb" json:"default_font_color_rgb"`
	TitleFontSize    int    `yaml:"default_title_font_size_pt" json:"default_title_font_size_pt"`
	BodyFontSize     int    `yaml:"default_body_font_size_pt" json:"default_body_font_size_pt"`
	SubtitleFontSize int    `yaml:"default_subtitle_font_size_pt" json:"default_subtitle_font_size_pt"`
	CaptionFontSize  int    `yaml:"default_caption_font_size_pt" json:"default_caption_font_size_pt"`
	NotesFontSize    int    `yaml:"default_notes_font_size_pt" json:"default_notes_font_size_pt"`

	BackgroundColor string `yaml:"master_background_color_rgb" json:"master_background_color_rgb,omitempty"`
	VerticalAnchor  string `yaml:"default_vertical_anchor" json:"default_vertical_anchor"`

	DynamicBodyFontSize    bool `yaml:"enable_dynamic_body_font_size" json:"enable_dynamic_body_font_size"`
	SmallerContentFontSize int  `yaml:"smaller_content_font_size_pt" json:"smaller_content_font_size_pt"`
	ItemCountThreshold     int  `yaml:"dynamic_size_item_count_threshold" json:"dynamic_size_item_count_threshold"`
	CharCountThreshold     int  `yaml:"dynamic_size_char_count_threshold" json:"dynamic_size_char_count_threshold"`
	IndentReduction        int  `yaml:"indent_level_font_size_reduction_pt" json:"indent_level_font_size_reduction_pt"`
	MinFontSize            int  `yaml:"min_font_size_pt" json:"min_font_size_pt"`

	// Alignments holds alignment_layout_<idx>_<placeholder> and
	// alignment_notes entries found in the file.
	Alignments map[string]string `yaml:"-" json:"alignments,omitempty"`

	Extra map[string]interface{} `yaml:",inline" json:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FontName:               "Calibri",
		FontColor:              "000000",
		TitleFontSize:          36,
		BodyFontSize:           20,
		SubtitleFontSize:       24,
		CaptionFontSize:        14,
		NotesFontSize:          10,
		VerticalAnchor:         "TOP",
		DynamicBodyFontSize:    true,
		SmallerContentFontSize: 16,
		ItemCountThreshold:     6,
		CharCountThreshold:     400,
		IndentReduction:        2,
		MinFontSize:            10,
		Alignments:             map[string]string{},
	}
}

// Parse decodes YAML over the defaults.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Default(), fmt.Errorf("parse yaml: %w", err)
	}
	cfg.collectAlignments()
	return cfg, nil
}

// Load reads path. A missing file yields the defaults with exists=false and
// no error. A malformed file yields the defaults and the parse error.
func Load(path string) (cfg Config, exists bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), false, nil
		}
		return Default(), false, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err = Parse(raw)
	if err != nil {
		return cfg, true, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, true, nil
}

func (c *Config) collectAlignments() {
	if c.Alignments == nil {
		c.Alignments = map[string]string{}
	}
	for k, v := range c.Extra {
		if !strings.HasPrefix(k, "alignment_") {
			continue
		}
		if s, ok := v.(string); ok {
			c.Alignments[k] = s
		}
	}
}

// ThemeNames lists configured themes in sorted order. Files without a
// "templates" section expose the implicit default theme.
func (c Config) ThemeNames() []string {
	if len(c.Templates) == 0 {
		return []string{DefaultThemeName}
	}
	names := make([]string, 0, len(c.Templates))
	for n := range c.Templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WithTheme returns a copy whose CurrentTheme is name when that theme exists.
// An empty or unknown name keeps current_theme when valid and otherwise
// selects the first theme by name.
func (c Config) WithTheme(name string, log logrus.FieldLogger) Config {
	names := c.ThemeNames()
	has := func(n string) bool {
		for _, x := range names {
			if x == n {
				return true
			}
		}
		return false
	}
	switch {
	case name != "" && has(name):
		c.CurrentTheme = name
		return c
	case name != "" && log != nil:
		log.WithField("theme", name).Warn("theme not found in config; using configured default")
	}
	if has(c.CurrentTheme) {
		return c
	}
	if c.CurrentTheme != "" && log != nil {
		log.WithField("theme", c.CurrentTheme).Warn("current_theme not found in templates; using first theme")
	}
	c.CurrentTheme = names[0]
	return c
}

// Active returns the selected theme entry.
func (c Config) Active() (string, Template) {
	if len(c.Templates) == 0 {
		return DefaultThemeName, Template{TemplatePath: c.TemplatePath, LayoutMapping: c.LayoutMapping}
	}
	name := c.CurrentTheme
	if t, ok := c.Templates[name]; ok {
		return name, t
	}
	name = c.ThemeNames()[0]
	return name, c.Templates[name]
}

// TemplateFile resolves the active theme's template path against baseDir
// (normally the config file's directory). It returns "" when no template is
// configured or the file does not exist.
func (c Config) TemplateFile(baseDir string, log logrus.FieldLogger) string {
	name, t := c.Active()
	p := strings.TrimSpace(t.TemplatePath)
	if p == "" {
		return ""
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	if _, err := os.Stat(p); err != nil {
		if log != nil {
			log.WithFields(logrus.Fields{"theme": name, "path": p}).Warn("template not found; generating without template")
		}
		return ""
	}
	return p
}
