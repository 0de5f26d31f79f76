// Package deck renders a parsed slide deck into a PPTX file with GoPPT,
// either on a theme template's layouts or on plain 16:9 slides.
package deck

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/sirupsen/logrus"

	"github.com/hyperifyio/deckgen/internal/imagesearch"
	"github.com/hyperifyio/deckgen/internal/layout"
	"github.com/hyperifyio/deckgen/internal/slidespec"
	"github.com/hyperifyio/deckgen/internal/theme"
)

// Creator is written to the document properties.
const Creator = "deckgen"

// ImageSource finds an image for a query. *imagesearch.Chain implements it.
type ImageSource interface {
	GetImage(ctx context.Context, query, saveDir string, maxAttempts int) (imagesearch.Result, bool)
}

// Builder turns decks into presentations.
type Builder struct {
	cfg         theme.Config
	images      ImageSource
	imageDir    string
	maxAttempts int
	log         logrus.FieldLogger
}

// Option configures a Builder.
type Option func(*Builder)

// WithImages enables image search for visual slides. Downloads land in dir.
func WithImages(src ImageSource, dir string, maxAttempts int) Option {
	return func(b *Builder) {
		b.images = src
		b.imageDir = dir
		b.maxAttempts = maxAttempts
	}
}

// NewBuilder returns a Builder for the resolved theme configuration.
func NewBuilder(cfg theme.Config, log logrus.FieldLogger, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, log: log, imageDir: "images"}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Result is a rendered presentation plus a per-slide report.
type Result struct {
	pres     *ppt.Presentation
	Template string
	Slides   []SlideResult
	Warnings []string
}

// SlideResult reports how one input slide was rendered.
type SlideResult struct {
	Number      int
	Kind        slidespec.Kind
	LayoutIndex int
	LayoutName  string
	Image       *ImageRef
	Warnings    []string
}

// ImageRef records the picture placed on a slide.
type ImageRef struct {
	Query       string
	Path        string
	SourceURL   string
	Provider    string
	AspectRatio float64
}

// Presentation exposes the underlying GoPPT document.
func (r *Result) Presentation() *ppt.Presentation { return r.pres }

// Write saves the presentation to path, creating parent directories.
func (r *Result) Write(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := r.pres.Save(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteTo streams the PPTX bytes to w.
func (r *Result) WriteTo(w io.Writer) error {
	if err := r.pres.WriteTo(w); err != nil {
		return fmt.Errorf("write pptx: %w", err)
	}
	return nil
}

// Build renders d. With a non-empty templatePath the template's layouts are
// used; if it cannot be opened the deck is built on plain slides and a
// warning is recorded.
func (b *Builder) Build(ctx context.Context, d slidespec.Deck, templatePath string) (*Result, error) {
	if len(d.Slides) == 0 {
		return nil, slidespec.ErrNoSlides
	}
	res := &Result{Warnings: append([]string(nil), d.Warnings...)}
	resolver := layout.NewResolver(b.cfg, b.log)

	var pres *ppt.Presentation
	var layouts []*ppt.SlideLayout
	if templatePath != "" {
		tp, err := ppt.OpenTemplate(templatePath)
		switch {
		case err != nil:
			b.log.WithError(err).WithField("template", templatePath).Warn("cannot open template; using plain slides")
			res.Warnings = append(res.Warnings, fmt.Sprintf("template %s: %v", templatePath, err))
		case len(tp.GetSlideLayouts()) == 0:
			b.log.WithField("template", templatePath).Warn("template has no layouts; using plain slides")
			res.Warnings = append(res.Warnings, fmt.Sprintf("template %s has no layouts", templatePath))
		default:
			pres = tp
			layouts = tp.GetSlideLayouts()
			resolver = resolver.WithLayoutCount(len(layouts))
			res.Template = templatePath
		}
	}
	if pres == nil {
		pres = ppt.New()
		pres.GetLayout().SetLayout(ppt.LayoutScreen16x9)
	}
	props := pres.GetDocumentProperties()
	props.Title = stripTitle(d.Slides[0].Heading())
	props.Creator = Creator

	w := &slideWriter{
		b:        b,
		resolver: resolver,
		canvas:   newCanvas(pres),
	}
	for i, s := range d.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		plan := resolver.Plan(s)
		sr := SlideResult{Number: i + 1, Kind: s.Kind, LayoutIndex: plan.LayoutIndex, Warnings: plan.Warnings}
		log := b.log.WithFields(logrus.Fields{"slide": i + 1, "layout": plan.LayoutIndex})

		slide, name := b.newSlide(pres, layouts, plan, i, log)
		sr.LayoutName = name
		sr.Image, sr.Warnings = w.render(ctx, slide, plan, sr.Warnings, log)
		for _, warn := range sr.Warnings {
			res.Warnings = append(res.Warnings, fmt.Sprintf("slide %d: %s", i+1, warn))
		}
		res.Slides = append(res.Slides, sr)
	}
	res.pres = pres
	return res, nil
}

// newSlide adds the slide for plan. In template mode the mapped layout is
// used when present; otherwise a plain slide is created.
func (b *Builder) newSlide(pres *ppt.Presentation, layouts []*ppt.SlideLayout, plan layout.SlidePlan, i int, log logrus.FieldLogger) (*ppt.Slide, string) {
	if layouts != nil && plan.HasLayout && plan.LayoutIndex < len(layouts) {
		name := layouts[plan.LayoutIndex].Name
		slide, err := pres.AddSlideWithLayout(name)
		if err == nil {
			return slide, name
		}
		log.WithError(err).Warn("layout not usable; using plain slide")
	}
	if layouts == nil && i == 0 {
		return pres.GetActiveSlide(), ""
	}
	return pres.CreateSlide(), ""
}

func stripTitle(s string) string {
	return strings.TrimSpace(layout.StripMarkup(s))
}
