package slidespec

import (
	"strconv"
	"strings"
)

// Kind identifies the content shape of a slide. The numeric value is the
// layout_idx used in slide JSON.
type Kind int

const (
	TitleSlide Kind = iota
	TitleAndContent
	SectionHeader
	TwoContent
	Comparison
	TitleOnly
	Blank
	ContentWithCaption
	PictureWithCaption
)

var kindNames = [...]string{
	TitleSlide:         "TITLE_SLIDE",
	TitleAndContent:    "TITLE_AND_CONTENT",
	SectionHeader:      "SECTION_HEADER",
	TwoContent:         "TWO_CONTENT",
	Comparison:         "COMPARISON",
	TitleOnly:          "TITLE_ONLY",
	Blank:              "BLANK",
	ContentWithCaption: "CONTENT_WITH_CAPTION",
	PictureWithCaption: "PICTURE_WITH_CAPTION",
}

// Kinds returns every supported kind in layout_idx order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for i := range kindNames {
		out = append(out, Kind(i))
	}
	return out
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool { return k >= 0 && int(k) < len(kindNames) }

func (k Kind) String() string {
	if !k.Valid() {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// KindFromIndex maps a layout_idx to its kind.
func KindFromIndex(idx int) (Kind, bool) {
	k := Kind(idx)
	return k, k.Valid()
}

// KindFromName accepts the symbolic name (case-insensitive, '-' or ' ' may
// stand in for '_') or a decimal layout_idx.
func KindFromName(name string) (Kind, bool) {
	n := strings.TrimSpace(name)
	if n == "" {
		return 0, false
	}
	if idx, err := strconv.Atoi(n); err == nil {
		return KindFromIndex(idx)
	}
	n = strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(n))
	for i, s := range kindNames {
		if s == n {
			return Kind(i), true
		}
	}
	return 0, false
}

// Visual reports whether slides of this kind carry an image slot.
func (k Kind) Visual() bool { return k == ContentWithCaption || k == PictureWithCaption }
