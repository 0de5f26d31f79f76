package layout

import (
	"regexp"
	"strings"
)

// Run is a span of text sharing one set of inline formatting flags.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

var inlineMarkup = regexp.MustCompile(`(\*\*.*?\*\*|\*.*?\*|<u>.*?</u>)`)

// SplitRuns splits text on **bold**, *italic* and <u>underline</u> markers.
// Markers are stripped; nested outer markers on one span combine, so
// "**<u>x</u>**" is bold and underlined. Unmatched markers stay literal.
func SplitRuns(text string) []Run {
	var runs []Run
	last := 0
	for _, loc := range inlineMarkup.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			runs = append(runs, Run{Text: text[last:loc[0]]})
		}
		if r := markedRun(text[loc[0]:loc[1]]); r.Text != "" {
			runs = append(runs, r)
		}
		last = loc[1]
	}
	if last < len(text) {
		runs = append(runs, Run{Text: text[last:]})
	}
	return runs
}

func markedRun(s string) Run {
	var r Run
	for {
		switch {
		case len(s) > 4 && strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**"):
			s, r.Bold = s[2:len(s)-2], true
		case len(s) > 2 && strings.HasPrefix(s, "*") && strings.HasSuffix(s, "*"):
			s, r.Italic = s[1:len(s)-1], true
		case len(s) > 7 && strings.HasPrefix(s, "<u>") && strings.HasSuffix(s, "</u>"):
			s, r.Underline = s[3:len(s)-4], true
		default:
			r.Text = s
			return r
		}
	}
}

// StripMarkup returns text with inline markers removed.
func StripMarkup(text string) string {
	var b strings.Builder
	for _, r := range SplitRuns(text) {
		b.WriteString(r.Text)
	}
	return b.String()
}
