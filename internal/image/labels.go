package image

import (
	"image"
	"image/color"
	"image/draw"

	"seg-editor/pkg/colorutil"
	"seg-editor/pkg/geometry"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawLabel draws text centred on center over a translucent box in the
// contrasting color.
func drawLabel(dst draw.Image, text string, center geometry.Point2D, fg color.NRGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
	}

	width := d.MeasureString(text).Ceil()
	x := int(center.X) - width/2
	baseline := int(center.Y) + (face.Ascent-face.Descent)/2

	box := image.Rect(x-2, baseline-face.Ascent-1, x+width+2, baseline+face.Descent+1)
	bg := colorutil.WithAlpha(colorutil.Contrast(fg), 160)
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(bg), image.Point{}, draw.Over)

	d.Dot = fixed.P(x, baseline)
	d.DrawString(text)
}
