package slidespec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Slide is one entry of a deck description. Only the fields relevant to Kind
// are populated.
type Slide struct {
	Kind Kind

	Title    string
	Subtitle string
	Content  []string

	SectionTitle       string
	SectionDescription string

	LeftHeading  string
	RightHeading string
	LeftContent  []string
	RightContent []string

	CaptionText        []string
	ObjectDescription  string
	PictureDescription string
	ImagePath          string

	Notes string
}

// Deck is an ordered list of slides. Warnings collects entries that were
// skipped or partially understood while parsing.
type Deck struct {
	Slides   []Slide  `json:"slides"`
	Warnings []string `json:"-"`
}

// ErrNoSlides is returned when the input contains no usable slide entries.
var ErrNoSlides = errors.New("no slides")

// Field aliases accepted on input. The first name is the one written on output.
var (
	aliasLeftHeading  = []string{"left_heading", "left_header", "left_title"}
	aliasRightHeading = []string{"right_heading", "right_header", "right_title"}
	aliasLeftBody     = []string{"left_comparison_content", "left_content", "left_body"}
	aliasRightBody    = []string{"right_comparison_content", "right_content", "right_body"}
)

// Parse decodes a deck from JSON. The input may be an object with a "slides"
// array or a bare array. Slides with a missing or unsupported layout_idx are
// skipped and reported in Deck.Warnings.
func Parse(data []byte) (Deck, error) {
	var deck Deck
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return deck, errors.New("empty slide description")
	}
	var entries []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return deck, fmt.Errorf("decode slides array: %w", err)
		}
	} else {
		var root struct {
			Slides json.RawMessage `json:"slides"`
		}
		if err := json.Unmarshal(data, &root); err != nil {
			return deck, fmt.Errorf("decode slide description: %w", err)
		}
		if len(root.Slides) == 0 {
			return deck, fmt.Errorf("missing \"slides\": %w", ErrNoSlides)
		}
		if err := json.Unmarshal(root.Slides, &entries); err != nil {
			return deck, fmt.Errorf("\"slides\" must be a list: %w", err)
		}
	}
	for i, raw := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			deck.Warnings = append(deck.Warnings, fmt.Sprintf("slide %d: not an object; skipped", i+1))
			continue
		}
		s, err := decodeSlide(fields)
		if err != nil {
			deck.Warnings = append(deck.Warnings, fmt.Sprintf("slide %d: %v; skipped", i+1, err))
			continue
		}
		deck.Slides = append(deck.Slides, s)
	}
	if len(deck.Slides) == 0 {
		return deck, ErrNoSlides
	}
	return deck, nil
}

func decodeSlide(f map[string]json.RawMessage) (Slide, error) {
	var s Slide
	rawIdx, ok := f["layout_idx"]
	if !ok {
		return s, errors.New("missing layout_idx")
	}
	idx, err := layoutIndex(rawIdx)
	if err != nil {
		return s, err
	}
	kind, ok := KindFromIndex(idx)
	if !ok {
		return s, fmt.Errorf("unsupported layout_idx %d", idx)
	}
	s.Kind = kind
	s.Title = text(f, "title")
	s.Notes = text(f, "notes")
	switch kind {
	case TitleSlide:
		s.Subtitle = text(f, "subtitle", "body")
	case TitleAndContent:
		s.Content = list(f, "content", "body")
	case SectionHeader:
		s.SectionTitle = text(f, "section_title")
		s.SectionDescription = text(f, "section_description")
		if s.SectionDescription == "" {
			s.SectionDescription = strings.Join(list(f, "content"), "\n")
		}
	case TwoContent:
		s.LeftContent = list(f, "left_content", "left_body")
		s.RightContent = list(f, "right_content", "right_body")
	case Comparison:
		s.LeftHeading = text(f, aliasLeftHeading...)
		s.RightHeading = text(f, aliasRightHeading...)
		s.LeftContent = list(f, aliasLeftBody...)
		s.RightContent = list(f, aliasRightBody...)
	case ContentWithCaption:
		s.CaptionText = list(f, "caption_text", "caption")
		s.ObjectDescription = text(f, "object_description")
		s.Content = list(f, "content")
	case PictureWithCaption:
		s.CaptionText = list(f, "caption_text", "caption")
		s.PictureDescription = text(f, "picture_description")
		s.ImagePath = text(f, "image_path")
	}
	return s, nil
}

func layoutIndex(raw json.RawMessage) (int, error) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("layout_idx: %w", err)
	}
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("non-integer layout_idx %s", string(raw))
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, fmt.Errorf("non-integer layout_idx %q", n.String())
	}
	return i, nil
}

// text returns the first non-empty value among keys. Lists are joined with
// newlines so a caption given as a list still renders.
func text(f map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := f[k]
		if !ok {
			continue
		}
		if items := decodeList(raw); len(items) > 0 {
			joined := strings.TrimRight(strings.Join(items, "\n"), "\n")
			if strings.TrimSpace(joined) != "" {
				return joined
			}
		}
	}
	return ""
}

// list returns the first non-empty value among keys as a list of strings.
func list(f map[string]json.RawMessage, keys ...string) []string {
	for _, k := range keys {
		raw, ok := f[k]
		if !ok {
			continue
		}
		if items := decodeList(raw); len(items) > 0 {
			return items
		}
	}
	return nil
}

// decodeList accepts a string, a number or a list of those. Other element
// types are dropped.
func decodeList(raw json.RawMessage) []string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			switch ev := e.(type) {
			case string:
				out = append(out, ev)
			case float64:
				out = append(out, strconv.FormatFloat(ev, 'f', -1, 64))
			}
		}
		return out
	}
	return nil
}

type wireSlide struct {
	LayoutIdx          int      `json:"layout_idx"`
	Title              string   `json:"title,omitempty"`
	Subtitle           string   `json:"subtitle,omitempty"`
	Content            []string `json:"content,omitempty"`
	SectionTitle       string   `json:"section_title,omitempty"`
	SectionDescription string   `json:"section_description,omitempty"`
	LeftHeading        string   `json:"left_heading,omitempty"`
	RightHeading       string   `json:"right_heading,omitempty"`
	LeftContent        []string `json:"left_content,omitempty"`
	RightContent       []string `json:"right_content,omitempty"`
	LeftComparison     []string `json:"left_comparison_content,omitempty"`
	RightComparison    []string `json:"right_comparison_content,omitempty"`
	CaptionText        []string `json:"caption_text,omitempty"`
	ObjectDescription  string   `json:"object_description,omitempty"`
	PictureDescription string   `json:"picture_description,omitempty"`
	ImagePath          string   `json:"image_path,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// MarshalJSON writes the canonical field names for the slide's kind.
func (s Slide) MarshalJSON() ([]byte, error) {
	w := wireSlide{
		LayoutIdx:          int(s.Kind),
		Title:              s.Title,
		Subtitle:           s.Subtitle,
		Content:            s.Content,
		SectionTitle:       s.SectionTitle,
		SectionDescription: s.SectionDescription,
		CaptionText:        s.CaptionText,
		ObjectDescription:  s.ObjectDescription,
		PictureDescription: s.PictureDescription,
		ImagePath:          s.ImagePath,
		Notes:              s.Notes,
	}
	if s.Kind == Comparison {
		w.LeftHeading, w.RightHeading = s.LeftHeading, s.RightHeading
		w.LeftComparison, w.RightComparison = s.LeftContent, s.RightContent
	} else {
		w.LeftContent, w.RightContent = s.LeftContent, s.RightContent
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the same shapes as Parse for a single slide.
func (s *Slide) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	decoded, err := decodeSlide(fields)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// Heading returns the text shown as the slide's heading, whichever field
// carries it for the kind.
func (s Slide) Heading() string {
	if s.Kind == SectionHeader && s.SectionTitle != "" {
		return s.SectionTitle
	}
	if s.Title != "" {
		return s.Title
	}
	if s.Kind == PictureWithCaption && len(s.CaptionText) > 0 {
		return s.CaptionText[0]
	}
	return ""
}

// ImageQuery returns the search query for the slide's image slot, if any.
func (s Slide) ImageQuery() string {
	switch s.Kind {
	case ContentWithCaption:
		return strings.TrimSpace(s.ObjectDescription)
	case PictureWithCaption:
		return strings.TrimSpace(s.PictureDescription)
	}
	return ""
}
