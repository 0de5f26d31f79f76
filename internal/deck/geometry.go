package deck

import (
	ppt "github.com/VantageDataChat/GoPPT"

	"github.com/hyperifyio/deckgen/internal/layout"
	"github.com/hyperifyio/deckgen/internal/slidespec"
)

// Reference canvas (16:9). Frames are given in inches on this canvas and
// scaled to the real slide size.
const (
	canvasWidthIn  = 10.0
	canvasHeightIn = 5.625
)

type frame struct{ x, y, w, h float64 }

var (
	titleBar    = frame{0.5, 0.3, 9.0, 0.9}
	bodyFull    = frame{0.5, 1.35, 9.0, 3.95}
	leftColumn  = frame{0.5, 1.35, 4.35, 3.95}
	rightColumn = frame{5.15, 1.35, 4.35, 3.95}
)

var frames = map[slidespec.Kind]map[string]frame{
	slidespec.TitleSlide: {
		layout.PHTitle:    {0.75, 1.5, 8.5, 1.4},
		layout.PHSubtitle: {1.5, 3.05, 7.0, 0.9},
	},
	slidespec.TitleAndContent: {
		layout.PHTitle:   titleBar,
		layout.PHContent: bodyFull,
	},
	slidespec.SectionHeader: {
		layout.PHSectionTitle:       {0.75, 1.6, 8.5, 1.2},
		layout.PHSectionDescription: {0.75, 2.9, 8.5, 1.3},
	},
	slidespec.TwoContent: {
		layout.PHTitle:        titleBar,
		layout.PHLeftContent:  leftColumn,
		layout.PHRightContent: rightColumn,
	},
	slidespec.Comparison: {
		layout.PHTitle:        titleBar,
		layout.PHLeftHeader:   {0.5, 1.3, 4.35, 0.55},
		layout.PHRightHeader:  {5.15, 1.3, 4.35, 0.55},
		layout.PHLeftContent:  {0.5, 1.9, 4.35, 3.4},
		layout.PHRightContent: {5.15, 1.9, 4.35, 3.4},
	},
	slidespec.TitleOnly: {
		layout.PHTitle: {0.5, 2.0, 9.0, 1.6},
	},
	slidespec.ContentWithCaption: {
		layout.PHTitle:   {0.5, 0.4, 3.4, 1.1},
		layout.PHCaption: {0.5, 1.6, 3.4, 3.6},
		layout.PHPicture: {4.2, 0.4, 5.3, 4.8},
	},
	slidespec.PictureWithCaption: {
		layout.PHPicture: {1.0, 0.3, 8.0, 3.7},
		layout.PHTitle:   {1.0, 4.1, 8.0, 0.6},
		layout.PHCaption: {1.0, 4.7, 8.0, 0.7},
	},
}

// lookupFrame returns the frame for a placeholder, falling back to the body
// area so nothing planned is ever dropped.
func lookupFrame(kind slidespec.Kind, placeholder string) frame {
	if f, ok := frames[kind][placeholder]; ok {
		return f
	}
	if placeholder == layout.PHTitle {
		return titleBar
	}
	return bodyFull
}

// canvas converts reference inches to EMU on the actual slide.
type canvas struct {
	sx, sy float64
}

func newCanvas(p *ppt.Presentation) canvas {
	c := canvas{sx: 1, sy: 1}
	if l := p.GetLayout(); l != nil && l.CX > 0 && l.CY > 0 {
		c.sx = float64(l.CX) / float64(ppt.Inch(canvasWidthIn))
		c.sy = float64(l.CY) / float64(ppt.Inch(canvasHeightIn))
	}
	return c
}

func (c canvas) rect(f frame) (x, y, w, h int64) {
	return int64(float64(ppt.Inch(f.x)) * c.sx),
		int64(float64(ppt.Inch(f.y)) * c.sy),
		int64(float64(ppt.Inch(f.w)) * c.sx),
		int64(float64(ppt.Inch(f.h)) * c.sy)
}

// widthPt is the frame width in points on the actual slide.
func (c canvas) widthPt(f frame) float64 { return f.w * 72 * c.sx }

// fitImage centers an image with the given height/width ratio inside f.
func (c canvas) fitImage(f frame, aspect float64) (x, y, w, h int64) {
	fx, fy, fw, fh := c.rect(f)
	if aspect <= 0 {
		return fx, fy, fw, fh
	}
	w, h = fw, int64(float64(fw)*aspect)
	if h > fh {
		h = fh
		w = int64(float64(fh) / aspect)
	}
	return fx + (fw-w)/2, fy + (fh-h)/2, w, h
}
