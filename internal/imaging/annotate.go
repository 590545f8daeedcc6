package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Annotation is one labelled box drawn by Annotate.
type Annotation struct {
	// Rect is the box in source image coordinates.
	Rect image.Rectangle

	// Label is drawn above the box (or inside it at the top edge).
	Label string

	// ColorHex is the "#RRGGBB" stroke and label background color.
	ColorHex string
}

// Annotate returns a copy of img with every annotation outlined and
// labelled. Annotations are drawn in order, so later ones overlap earlier.
// Invalid colors fall back to LowConfidenceHex.
func Annotate(img image.Image, annotations []Annotation) (*ImageResult, error) {
	canvas := imaging.Clone(img)
	origin := img.Bounds().Min
	face := basicfont.Face7x13
	labelFg := image.NewUniform(color.White)

	for _, a := range annotations {
		c, err := ParseHexColor(a.ColorHex)
		if err != nil {
			c = mustColor(LowConfidenceHex)
		}
		r := a.Rect.Sub(origin)
		strokeRect(canvas, r, 2, c)

		if a.Label == "" {
			continue
		}

		textWidth := font.MeasureString(face, a.Label).Ceil()
		labelHeight := face.Height + 2
		top := r.Min.Y - labelHeight
		if top < 0 {
			top = r.Min.Y
		}
		bg := image.Rect(r.Min.X, top, r.Min.X+textWidth+4, top+labelHeight)
		draw.Draw(canvas, bg.Intersect(canvas.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)

		d := &font.Drawer{
			Dst:  canvas,
			Src:  labelFg,
			Face: face,
			Dot:  fixed.P(r.Min.X+2, top+face.Ascent+1),
		}
		d.DrawString(a.Label)
	}

	return EncodePNG(canvas)
}
