// Package viewport maps between image space and screen space for a given
// zoom factor and pan offset.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"seg-editor/pkg/geometry"
)

const (
	MinZoom  = 0.05
	MaxZoom  = 40.0
	ZoomStep = 1.25
)

// ErrInvalidTransformParameters is returned for a zoom that is not a finite
// positive number.
var ErrInvalidTransformParameters = errors.New("invalid transform parameters")

// Viewport is the camera state owned by the host. Offset is in screen units.
type Viewport struct {
	Zoom   float64          `json:"zoom"`
	Offset geometry.Point2D `json:"offset"`
}

// New creates a viewport and validates its zoom.
func New(zoom float64, offset geometry.Point2D) (Viewport, error) {
	v := Viewport{Zoom: zoom, Offset: offset}
	if err := v.Validate(); err != nil {
		return Viewport{}, err
	}
	return v, nil
}

// Identity returns a viewport with zoom 1 and no offset.
func Identity() Viewport {
	return Viewport{Zoom: 1}
}

// Validate reports ErrInvalidTransformParameters unless zoom > 0 and finite.
func (v Viewport) Validate() error {
	if !(v.Zoom > 0) || math.IsInf(v.Zoom, 0) {
		return fmt.Errorf("%w: zoom %v", ErrInvalidTransformParameters, v.Zoom)
	}
	if math.IsNaN(v.Offset.X) || math.IsNaN(v.Offset.Y) {
		return fmt.Errorf("%w: offset %v", ErrInvalidTransformParameters, v.Offset)
	}
	return nil
}

// ToImage converts a screen point to image space. Zoom must be positive.
func (v Viewport) ToImage(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: (p.X - v.Offset.X) / v.Zoom,
		Y: (p.Y - v.Offset.Y) / v.Zoom,
	}
}

// ToScreen converts an image point to screen space.
func (v Viewport) ToScreen(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: p.X*v.Zoom + v.Offset.X,
		Y: p.Y*v.Zoom + v.Offset.Y,
	}
}

// ToScreenAll converts a ring to screen space.
func (v Viewport) ToScreenAll(points []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(points))
	for i, p := range points {
		out[i] = v.ToScreen(p)
	}
	return out
}

// ImageDistance converts a screen-space length to image units, so that hit
// radii stay the same size on screen at every zoom level.
func (v Viewport) ImageDistance(screenPx float64) float64 {
	return screenPx / v.Zoom
}

// Affine returns the image-to-screen mapping as an affine transform.
func (v Viewport) Affine() geometry.AffineTransform {
	return geometry.Translation(v.Offset.X, v.Offset.Y).Compose(geometry.Scale(v.Zoom, v.Zoom))
}

// Pan shifts the offset by a screen-space delta.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.Offset = v.Offset.Add(geometry.Point2D{X: dx, Y: dy})
	return v
}

// ZoomAt multiplies the zoom by factor, clamped to [MinZoom, MaxZoom], and
// adjusts the offset so the image point under screen stays where it is.
func (v Viewport) ZoomAt(screen geometry.Point2D, factor float64) Viewport {
	anchor := v.ToImage(screen)
	v.Zoom = clampZoom(v.Zoom * factor)
	v.Offset = geometry.Point2D{
		X: screen.X - anchor.X*v.Zoom,
		Y: screen.Y - anchor.Y*v.Zoom,
	}
	return v
}

// Fit returns a viewport that shows the whole image centered in view, with a
// small margin.
func Fit(image, view geometry.Size) Viewport {
	if image.Width <= 0 || image.Height <= 0 || view.Width <= 0 || view.Height <= 0 {
		return Identity()
	}
	zoom := math.Min(view.Width/image.Width, view.Height/image.Height) * 0.95
	zoom = clampZoom(zoom)
	return Viewport{
		Zoom: zoom,
		Offset: geometry.Point2D{
			X: (view.Width - image.Width*zoom) / 2,
			Y: (view.Height - image.Height*zoom) / 2,
		},
	}
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
