// Package handout renders a deck as a printable A4 PDF: one heading per
// slide followed by its bullet items and speaker notes.
package handout

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/deckgen/internal/layout"
	"github.com/hyperifyio/deckgen/internal/slidespec"
)

const (
	fontFamily  = "Helvetica"
	lineHeight  = 6.0
	indentStep  = 6.0
	bulletWidth = 5.0
)

// block is a labelled group of items under a slide heading.
type block struct {
	label string
	items []string
}

// Write renders d to path, creating parent directories.
func Write(d slidespec.Deck, title, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create handout dir: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := Render(d, title, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write handout: %w", err)
	}
	return nil
}

// Render writes the handout PDF to w.
func Render(d slidespec.Deck, title string, w io.Writer) error {
	if len(d.Slides) == 0 {
		return slidespec.ErrNoSlides
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetCreator("deckgen", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(fontFamily, "B", 18)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, 10, tr(layout.StripMarkup(title)), "", "C", false)
		pdf.Ln(4)
	}

	for i, s := range d.Slides {
		heading := layout.StripMarkup(s.Heading())
		if heading == "" {
			heading = s.Kind.String()
		}
		pdf.SetFont(fontFamily, "B", 13)
		pdf.SetTextColor(30, 30, 30)
		pdf.MultiCell(0, 8, tr(fmt.Sprintf("%d. %s", i+1, heading)), "", "L", false)

		for _, b := range blocks(s) {
			if b.label != "" {
				pdf.SetFont(fontFamily, "B", 10)
				pdf.SetTextColor(60, 60, 60)
				pdf.MultiCell(0, lineHeight, tr(layout.StripMarkup(b.label)), "", "L", false)
			}
			pdf.SetFont(fontFamily, "", 10)
			pdf.SetTextColor(0, 0, 0)
			for _, item := range b.items {
				writeItem(pdf, tr, item)
			}
		}

		if notes := strings.TrimSpace(s.Notes); notes != "" {
			pdf.Ln(1)
			pdf.SetFont(fontFamily, "I", 9)
			pdf.SetTextColor(90, 90, 90)
			pdf.MultiCell(0, 5, tr(layout.StripMarkup(notes)), "", "L", false)
		}
		pdf.Ln(4)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("handout generation: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("handout output: %w", err)
	}
	return nil
}

func writeItem(pdf *gofpdf.Fpdf, tr func(string) string, item string) {
	level, text := layout.ParseLevel(item)
	text = layout.StripMarkup(text)
	if strings.TrimSpace(text) == "" {
		return
	}
	left, _, _, _ := pdf.GetMargins()
	x := left + float64(level)*indentStep
	pdf.SetX(x)
	pdf.CellFormat(bulletWidth, lineHeight, tr("•"), "", 0, "L", false, 0, "")
	pdf.SetLeftMargin(x + bulletWidth)
	pdf.MultiCell(0, lineHeight, tr(text), "", "L", false)
	pdf.SetLeftMargin(left)
}

// blocks lists the text a slide carries besides its heading.
func blocks(s slidespec.Slide) []block {
	var out []block
	add := func(label string, items []string) {
		if len(items) > 0 {
			out = append(out, block{label: label, items: items})
		}
	}
	switch s.Kind {
	case slidespec.TitleSlide:
		if s.Subtitle != "" {
			add("", strings.Split(s.Subtitle, "\n"))
		}
	case slidespec.SectionHeader:
		if s.SectionDescription != "" {
			add("", strings.Split(s.SectionDescription, "\n"))
		}
	case slidespec.TwoContent:
		add("", s.LeftContent)
		add("", s.RightContent)
	case slidespec.Comparison:
		add(s.LeftHeading, s.LeftContent)
		add(s.RightHeading, s.RightContent)
	case slidespec.ContentWithCaption:
		add("", s.Content)
		add("", s.CaptionText)
		if q := s.ImageQuery(); q != "" {
			add("", []string{"[Image: " + q + "]"})
		}
	case slidespec.PictureWithCaption:
		caption := s.CaptionText
		if s.Title == "" && len(caption) > 0 {
			caption = caption[1:]
		}
		add("", caption)
		if q := s.ImageQuery(); q != "" {
			add("", []string{"[Image: " + q + "]"})
		}
	default:
		add("", s.Content)
	}
	return out
}
