package layout

import (
	"strings"
	"unicode/utf8"
)

const (
	avgCharWidthFactor = 0.6
	maxFitLines        = 3
	truncatedLines     = 2
)

// Fit is the outcome of FitText.
type Fit struct {
	Size   int
	Lines  []string
	Fitted bool
}

// FitText picks the largest size, stepping down 2pt from maxSize to minSize,
// at which text wraps into at most three lines of a box widthPt wide. When
// no size fits, the text is cut to two lines ending in "..." at minSize.
func FitText(text string, maxSize, minSize int, widthPt float64) Fit {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return Fit{Size: maxSize, Fitted: true}
	}
	if minSize <= 0 || minSize > maxSize {
		minSize = maxSize
	}
	maxChars := int(widthPt / (float64(maxSize) * avgCharWidthFactor))
	if maxChars < 1 {
		maxChars = 1
	}
	perLine := func(size int) int {
		n := maxChars * maxSize / size
		if n < 1 {
			n = 1
		}
		return n
	}
	for size := maxSize; size >= minSize; size -= 2 {
		wrapped := wrapWords(text, perLine(size))
		if len(wrapped) <= maxFitLines {
			return Fit{Size: size, Lines: wrapped, Fitted: true}
		}
	}
	width := perLine(minSize)
	wrapped := wrapWords(text, width)
	if len(wrapped) > truncatedLines {
		wrapped = wrapped[:truncatedLines]
	}
	last := []rune(wrapped[len(wrapped)-1])
	if len(last) > width-3 && width > 3 {
		last = last[:width-3]
	}
	wrapped[len(wrapped)-1] = string(last) + "..."
	return Fit{Size: minSize, Lines: wrapped, Fitted: false}
}

// wrapWords greedily packs words into lines of at most width characters,
// splitting words longer than a line.
func wrapWords(text string, width int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, w := range strings.Fields(text) {
		for r := []rune(w); len(r) > width; r = []rune(w) {
			flush()
			out = append(out, string(r[:width]))
			w = string(r[width:])
		}
		n := utf8.RuneCountInString(w)
		switch {
		case curLen == 0:
			cur.WriteString(w)
			curLen = n
		case curLen+1+n <= width:
			cur.WriteByte(' ')
			cur.WriteString(w)
			curLen += 1 + n
		default:
			flush()
			cur.WriteString(w)
			curLen = n
		}
	}
	flush()
	return out
}
