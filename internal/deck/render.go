package deck

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/sirupsen/logrus"

	"github.com/hyperifyio/deckgen/internal/layout"
)

const (
	bulletChar  = "•"
	bulletFont  = "Arial"
	placeholder = "[Image: %s - unavailable]"
)

type slideWriter struct {
	b        *Builder
	resolver *layout.Resolver
	canvas   canvas
}

func (w *slideWriter) render(ctx context.Context, slide *ppt.Slide, plan layout.SlidePlan, warnings []string, log logrus.FieldLogger) (*ImageRef, []string) {
	if bg, ok := w.resolver.Background(); ok {
		slide.SetBackground(ppt.NewFill().SetSolid(argb(bg)))
	}
	for _, box := range plan.Boxes {
		w.textBox(slide, lookupFrame(plan.Kind, box.Placeholder), box)
	}
	var ref *ImageRef
	if plan.Picture != nil {
		var warn string
		ref, warn = w.picture(ctx, slide, plan, log)
		if warn != "" {
			warnings = append(warnings, warn)
		}
	}
	if plan.Notes != "" {
		slide.SetNotes(plan.Notes)
	}
	return ref, warnings
}

func (w *slideWriter) textBox(slide *ppt.Slide, f frame, box layout.Box) {
	x, y, width, height := w.canvas.rect(f)
	rt := slide.CreateRichTextShape()
	rt.SetOffsetX(x).SetOffsetY(y)
	rt.SetWidth(width).SetHeight(height)
	rt.SetWordWrap(true)
	rt.SetTextAnchor(textAnchor(box.Style.Anchor))

	items := box.Items
	size := box.Style.FontSize
	if box.Role == layout.RoleTitle && len(items) == 1 {
		fit := layout.FitText(layout.StripMarkup(items[0]), size, w.resolver.Config().MinFontSize, w.canvas.widthPt(f))
		size = fit.Size
		if !fit.Fitted {
			items = []string{strings.Join(fit.Lines, " ")}
		}
	}

	for i, item := range items {
		para := rt.GetActiveParagraph()
		if i > 0 {
			para = rt.CreateParagraph()
		}
		level, text := 0, strings.TrimSpace(item)
		itemSize := size
		if box.Bulleted {
			level, text = layout.ParseLevel(item)
			itemSize = w.resolver.LevelFontSize(size, level)
			b := ppt.NewBullet()
			b.SetCharBullet(bulletChar, bulletFont)
			para.SetBullet(b)
		}
		al := ppt.NewAlignment().SetHorizontal(horizontal(box.Style.Alignment))
		al.Level = level
		para.SetAlignment(al)
		for _, run := range layout.SplitRuns(text) {
			tr := para.CreateTextRun(run.Text)
			font := tr.GetFont()
			font.SetSize(itemSize).SetBold(box.Style.Bold || run.Bold).SetItalic(run.Italic)
			if run.Underline {
				font.SetUnderline(ppt.UnderlineSingle)
			}
			if box.Style.FontName != "" {
				font.SetName(box.Style.FontName)
			}
			if box.Style.FontColor != "" {
				font.SetColor(argb(box.Style.FontColor))
			}
		}
	}
}

// picture places the slide image. An explicit path is tried first, then the
// image search; when both fail a placeholder text takes the picture frame.
func (w *slideWriter) picture(ctx context.Context, slide *ppt.Slide, plan layout.SlidePlan, log logrus.FieldLogger) (*ImageRef, string) {
	f := lookupFrame(plan.Kind, layout.PHPicture)
	slot := plan.Picture
	if slot.Path != "" {
		data, mime, aspect, err := readLocalImage(slot.Path)
		if err == nil {
			w.drawImage(slide, f, data, mime, aspect)
			return &ImageRef{Query: slot.Query, Path: slot.Path, AspectRatio: aspect}, ""
		}
		log.WithError(err).WithField("path", slot.Path).Warn("cannot use image_path")
	}
	if slot.Query != "" && w.b.images != nil {
		res, ok := w.b.images.GetImage(ctx, slot.Query, w.b.imageDir, w.b.maxAttempts)
		if ok {
			if mime, ok := mimeFor(res.Format, res.Data); ok {
				w.drawImage(slide, f, res.Data, mime, res.AspectRatio)
				return &ImageRef{
					Query:       slot.Query,
					Path:        res.SavePath,
					SourceURL:   res.SourceURL,
					Provider:    res.Provider,
					AspectRatio: res.AspectRatio,
				}, ""
			}
		}
	}
	label := slot.Query
	if label == "" {
		label = slot.Path
	}
	w.textBox(slide, f, layout.Box{
		Placeholder: layout.PHPicture,
		Role:        layout.RoleBody,
		Items:       []string{fmt.Sprintf(placeholder, label)},
		Style: layout.Style{
			Alignment: layout.AlignCenter,
			Anchor:    layout.AnchorMiddle,
			FontSize:  w.resolver.BaseFontSize(layout.RoleBody),
			FontName:  w.resolver.FontName(),
			FontColor: w.resolver.FontColor(),
		},
	})
	return nil, fmt.Sprintf("image unavailable for %q", label)
}

func (w *slideWriter) drawImage(slide *ppt.Slide, f frame, data []byte, mime string, aspect float64) {
	x, y, width, height := w.canvas.fitImage(f, aspect)
	img := slide.CreateDrawingShape()
	img.SetImageData(data, mime)
	img.SetOffsetX(x).SetOffsetY(y)
	img.SetWidth(width).SetHeight(height)
}

func readLocalImage(path string) ([]byte, string, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", 0, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", 0, fmt.Errorf("decode %s: %w", path, err)
	}
	mime, ok := mimeFor(format, data)
	if !ok {
		return nil, "", 0, fmt.Errorf("unsupported image format %q", format)
	}
	if cfg.Width == 0 {
		return nil, "", 0, fmt.Errorf("empty image %s", path)
	}
	return data, mime, float64(cfg.Height) / float64(cfg.Width), nil
}

func mimeFor(format string, data []byte) (string, bool) {
	switch format {
	case "jpeg":
		return "image/jpeg", true
	case "png":
		return "image/png", true
	case "gif":
		return "image/gif", true
	case "":
		if _, f, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && f != "" {
			return mimeFor(f, nil)
		}
	}
	return "", false
}

func argb(hex string) ppt.Color { return ppt.NewColor("FF" + hex) }

func horizontal(a layout.Alignment) ppt.HorizontalAlignment {
	switch a {
	case layout.AlignCenter:
		return ppt.HorizontalCenter
	case layout.AlignRight:
		return ppt.HorizontalRight
	case layout.AlignJustify:
		return ppt.HorizontalJustify
	}
	return ppt.HorizontalLeft
}

func textAnchor(a layout.Anchor) ppt.TextAnchorType {
	switch a {
	case layout.AnchorMiddle:
		return ppt.TextAnchorMiddle
	case layout.AnchorBottom:
		return ppt.TextAnchorBottom
	}
	return ppt.TextAnchorTop
}
