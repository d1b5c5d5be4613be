package maskimport

import (
	"image"
	"image/color"
	"image/draw"

	"seg-editor/internal/polygon"
	"seg-editor/pkg/geometry"

	"golang.org/x/image/vector"
)

// Rasterize paints set into a width x height mask: external rings in 255,
// holes in 0 on top, in z-order.
func Rasterize(set polygon.Set, width, height int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	fg := image.NewUniform(color.Gray{Y: 255})
	bg := image.NewUniform(color.Gray{Y: 0})

	r := vector.NewRasterizer(width, height)
	for _, p := range set.Polygons() {
		if p.Kind == polygon.KindExternal {
			fillRing(r, dst, p.Points, fg)
		}
	}
	for _, p := range set.Polygons() {
		if p.Kind == polygon.KindInternal {
			fillRing(r, dst, p.Points, bg)
		}
	}
	return dst
}

func fillRing(r *vector.Rasterizer, dst draw.Image, ring []geometry.Point2D, src image.Image) {
	if len(ring) < polygon.MinRingPoints {
		return
	}
	b := dst.Bounds()
	r.Reset(b.Dx(), b.Dy())
	r.DrawOp = draw.Over
	r.MoveTo(float32(ring[0].X), float32(ring[0].Y))
	for _, p := range ring[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
	r.Draw(dst, b, src, image.Point{})
}
