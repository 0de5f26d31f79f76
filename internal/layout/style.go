package layout

import "strings"

// Alignment is the horizontal paragraph alignment of a placeholder.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "CENTER"
	case AlignRight:
		return "RIGHT"
	case AlignJustify:
		return "JUSTIFY"
	default:
		return "LEFT"
	}
}

// ParseAlignment is case-insensitive; unknown values are LEFT.
func ParseAlignment(s string) Alignment {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CENTER", "CENTRE", "CTR":
		return AlignCenter
	case "RIGHT":
		return AlignRight
	case "JUSTIFY", "JUSTIFIED":
		return AlignJustify
	default:
		return AlignLeft
	}
}

// Anchor is the vertical anchoring of text inside its box.
type Anchor int

const (
	AnchorTop Anchor = iota
	AnchorMiddle
	AnchorBottom
)

func (a Anchor) String() string {
	switch a {
	case AnchorMiddle:
		return "MIDDLE"
	case AnchorBottom:
		return "BOTTOM"
	default:
		return "TOP"
	}
}

// ParseAnchor is case-insensitive; unknown values are TOP.
func ParseAnchor(s string) Anchor {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MIDDLE", "CENTER":
		return AnchorMiddle
	case "BOTTOM":
		return AnchorBottom
	default:
		return AnchorTop
	}
}

// Role selects the base font size of a placeholder.
type Role int

const (
	RoleTitle Role = iota
	RoleBody
	RoleSubtitle
	RoleCaption
	RoleNotes
)

func (r Role) String() string {
	switch r {
	case RoleTitle:
		return "title"
	case RoleSubtitle:
		return "subtitle"
	case RoleCaption:
		return "caption"
	case RoleNotes:
		return "notes"
	default:
		return "body"
	}
}

// Style is the resolved formatting of one placeholder.
type Style struct {
	Alignment Alignment
	Anchor    Anchor
	// FontSize is the level-0 size in points; nested items shrink from it.
	FontSize  int
	FontName  string
	FontColor string
	Bold      bool
}
