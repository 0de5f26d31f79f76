package layout

import (
	"strings"

	"github.com/hyperifyio/deckgen/internal/slidespec"
)

// Placeholder names used in alignment keys and slide geometry.
const (
	PHTitle              = "title"
	PHSubtitle           = "subtitle"
	PHContent            = "content"
	PHSectionTitle       = "section_title"
	PHSectionDescription = "section_description"
	PHLeftContent        = "left_content"
	PHRightContent       = "right_content"
	PHLeftHeader         = "left_header"
	PHRightHeader        = "right_header"
	PHCaption            = "caption"
	PHPicture            = "picture"
)

// Box is one text placeholder to fill.
type Box struct {
	Placeholder string
	Role        Role
	// Items holds one entry per paragraph with indentation preserved.
	Items    []string
	Style    Style
	Bulleted bool
}

// SlidePlan is the resolved rendering of one slide.
type SlidePlan struct {
	Kind        slidespec.Kind
	LayoutIndex int
	HasLayout   bool
	Boxes       []Box
	// Picture is set for kinds with an image slot.
	Picture    *PictureSlot
	Notes      string
	NotesStyle Style
	Warnings   []string
}

// PictureSlot describes the image wanted by a visual slide. Path wins over
// Query when both are set.
type PictureSlot struct {
	Query string
	Path  string
}

// Plan resolves layout, placeholders and styles for s.
func (r *Resolver) Plan(s slidespec.Slide) SlidePlan {
	p := SlidePlan{Kind: s.Kind}
	p.LayoutIndex, p.HasLayout = r.LayoutIndex(s.Kind)
	idx := p.LayoutIndex
	if !p.HasLayout {
		idx = int(s.Kind)
	}
	add := func(ph string, role Role, items []string, bulleted bool) {
		items = nonBlank(items)
		if len(items) == 0 {
			return
		}
		st := r.Style(s.Kind, idx, ph, role, items)
		if ph == PHLeftHeader || ph == PHRightHeader {
			st.Bold = true
		}
		p.Boxes = append(p.Boxes, Box{Placeholder: ph, Role: role, Items: items, Style: st, Bulleted: bulleted})
	}
	title := lines(s.Title)

	switch s.Kind {
	case slidespec.TitleSlide:
		add(PHTitle, RoleTitle, title, false)
		add(PHSubtitle, RoleSubtitle, lines(s.Subtitle), false)
	case slidespec.TitleAndContent:
		add(PHTitle, RoleTitle, title, false)
		add(PHContent, RoleBody, s.Content, true)
	case slidespec.SectionHeader:
		heading := s.SectionTitle
		if heading == "" {
			heading = s.Title
		}
		add(PHSectionTitle, RoleTitle, lines(heading), false)
		add(PHSectionDescription, RoleBody, lines(s.SectionDescription), false)
	case slidespec.TwoContent:
		add(PHTitle, RoleTitle, title, false)
		add(PHLeftContent, RoleBody, s.LeftContent, true)
		add(PHRightContent, RoleBody, s.RightContent, true)
	case slidespec.Comparison:
		add(PHTitle, RoleTitle, title, false)
		add(PHLeftHeader, RoleBody, lines(s.LeftHeading), false)
		add(PHRightHeader, RoleBody, lines(s.RightHeading), false)
		add(PHLeftContent, RoleBody, s.LeftContent, true)
		add(PHRightContent, RoleBody, s.RightContent, true)
	case slidespec.TitleOnly:
		add(PHTitle, RoleTitle, title, false)
	case slidespec.Blank:
		if strings.TrimSpace(s.Title) != "" {
			p.Warnings = append(p.Warnings, "title given for a blank layout; not rendered")
		}
	case slidespec.ContentWithCaption:
		add(PHTitle, RoleTitle, title, false)
		add(PHCaption, RoleCaption, s.CaptionText, false)
		p.Picture = &PictureSlot{Query: s.ImageQuery()}
	case slidespec.PictureWithCaption:
		add(PHTitle, RoleTitle, title, false)
		add(PHCaption, RoleCaption, s.CaptionText, false)
		p.Picture = &PictureSlot{Query: s.ImageQuery(), Path: strings.TrimSpace(s.ImagePath)}
	}
	if p.Picture != nil && p.Picture.Query == "" && p.Picture.Path == "" {
		p.Picture = nil
	}

	if n := strings.TrimSpace(s.Notes); n != "" {
		p.Notes = n
		p.NotesStyle = Style{
			Alignment: r.NotesAlignment(),
			Anchor:    AnchorTop,
			FontSize:  r.BaseFontSize(RoleNotes),
			FontName:  r.FontName(),
			FontColor: r.FontColor(),
		}
	}
	return p
}

// Box returns the planned box for placeholder, if any.
func (p SlidePlan) Box(placeholder string) (Box, bool) {
	for _, b := range p.Boxes {
		if b.Placeholder == placeholder {
			return b, true
		}
	}
	return Box{}, false
}

func lines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func nonBlank(items []string) []string {
	out := items[:0:0]
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			out = append(out, it)
		}
	}
	return out
}
