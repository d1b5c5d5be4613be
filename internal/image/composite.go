package image

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"seg-editor/internal/viewport"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// BlendMode specifies how a mask tint is combined with the image.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDifference
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// ParseBlendMode maps a lower-case name to a mode, defaulting to Normal.
func ParseBlendMode(s string) BlendMode {
	switch s {
	case "multiply":
		return BlendMultiply
	case "screen":
		return BlendScreen
	case "overlay":
		return BlendOverlay
	case "difference":
		return BlendDifference
	default:
		return BlendNormal
	}
}

// Background fills the area outside the image.
var Background = color.RGBA{40, 40, 40, 255}

// RenderView draws the part of layer visible through vp into a new
// width x height image. Zoomed-in views use nearest neighbour so single
// pixels stay visible; zoomed-out views are filtered.
func RenderView(layer *Layer, vp viewport.Viewport, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{Background}, image.Point{}, draw.Src)

	if layer == nil || layer.Image == nil || !layer.Visible {
		return dst
	}

	src := layer.Image
	b := src.Bounds()
	s2d := screenFromImage(vp, b)

	var interp xdraw.Interpolator = xdraw.ApproxBiLinear
	if vp.Zoom >= 2 {
		interp = xdraw.NearestNeighbor
	}

	var opts *xdraw.Options
	if layer.Opacity < 1 {
		alpha := uint8(clamp(layer.Opacity, 0, 1) * 255)
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: alpha})}
	}
	interp.Transform(dst, s2d, src, b, draw.Over, opts)
	return dst
}

// MaskView maps an image-space mask through vp into a width x height mask
// in screen coordinates, ready for BlendMask.
func MaskView(mask *image.Gray, vp viewport.Viewport, width, height int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	b := mask.Bounds()
	xdraw.NearestNeighbor.Transform(dst, screenFromImage(vp, b), mask, b, draw.Src, nil)
	return dst
}

// screenFromImage maps image pixel (x, y) to screen
// (x*zoom + offset.x, y*zoom + offset.y).
func screenFromImage(vp viewport.Viewport, b image.Rectangle) f64.Aff3 {
	return f64.Aff3{
		vp.Zoom, 0, vp.Offset.X - float64(b.Min.X)*vp.Zoom,
		0, vp.Zoom, vp.Offset.Y - float64(b.Min.Y)*vp.Zoom,
	}
}

// BlendMask tints the pixels of dst where mask is set, using mode and
// opacity. mask is in the same coordinates as dst.
func BlendMask(dst *image.RGBA, mask *image.Gray, tint color.Color, mode BlendMode, opacity float64) {
	b := dst.Bounds().Intersect(mask.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			m := mask.GrayAt(x, y).Y
			if m == 0 {
				continue
			}
			a := opacity * float64(m) / 255
			dst.Set(x, y, blend(dst.At(x, y), tint, mode, a))
		}
	}
}

// blend performs the blend operation between two colors.
func blend(dst, src color.Color, mode BlendMode, opacity float64) color.Color {
	sr, sg, sb, sa := src.RGBA()
	dr, dg, db, da := dst.RGBA()

	// Convert to 0-1 range
	sf := [4]float64{float64(sr) / 65535.0, float64(sg) / 65535.0, float64(sb) / 65535.0, float64(sa) / 65535.0}
	df := [4]float64{float64(dr) / 65535.0, float64(dg) / 65535.0, float64(db) / 65535.0, float64(da) / 65535.0}

	var rf [3]float64

	switch mode {
	case BlendNormal:
		rf[0] = sf[0]
		rf[1] = sf[1]
		rf[2] = sf[2]

	case BlendMultiply:
		rf[0] = sf[0] * df[0]
		rf[1] = sf[1] * df[1]
		rf[2] = sf[2] * df[2]

	case BlendScreen:
		rf[0] = 1 - (1-sf[0])*(1-df[0])
		rf[1] = 1 - (1-sf[1])*(1-df[1])
		rf[2] = 1 - (1-sf[2])*(1-df[2])

	case BlendOverlay:
		for i := 0; i < 3; i++ {
			if df[i] < 0.5 {
				rf[i] = 2 * sf[i] * df[i]
			} else {
				rf[i] = 1 - 2*(1-sf[i])*(1-df[i])
			}
		}

	case BlendDifference:
		rf[0] = math.Abs(sf[0] - df[0])
		rf[1] = math.Abs(sf[1] - df[1])
		rf[2] = math.Abs(sf[2] - df[2])
	}

	alpha := sf[3] * opacity
	return color.RGBA{
		R: uint8(clamp(rf[0]*alpha+df[0]*(1-alpha), 0, 1) * 255),
		G: uint8(clamp(rf[1]*alpha+df[1]*(1-alpha), 0, 1) * 255),
		B: uint8(clamp(rf[2]*alpha+df[2]*(1-alpha), 0, 1) * 255),
		A: uint8(clamp(alpha+df[3]*(1-alpha), 0, 1) * 255),
	}
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
