package image

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"seg-editor/internal/editor"
	"seg-editor/internal/hover"
	"seg-editor/internal/mode"
	"seg-editor/internal/polygon"
	"seg-editor/internal/viewport"
	"seg-editor/pkg/colorutil"
	"seg-editor/pkg/geometry"

	"golang.org/x/image/vector"
)

// Scene is everything the overlay needs for one frame.
type Scene struct {
	Polygons polygon.Set
	Selected string
	Mode     mode.Mode
	Hover    *hover.State
	Preview  editor.Preview
	Viewport viewport.Viewport
}

// SceneOf captures the engine state for drawing.
func SceneOf(e *editor.Engine) Scene {
	s := Scene{
		Polygons: e.Polygons(),
		Selected: e.Selected(),
		Mode:     e.Mode(),
		Preview:  e.Preview(),
		Viewport: e.Viewport(),
	}
	if h, ok := e.Hover(); ok {
		s.Hover = &h
	}
	return s
}

// OverlayStyle sets screen-space sizes and fill opacity.
type OverlayStyle struct {
	FillAlpha   uint8
	StrokeWidth float64
	VertexSize  float64
	Labels      bool // draw external ring ids at their centroids
}

// DefaultOverlayStyle returns the stock overlay look.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		FillAlpha:   64,
		StrokeWidth: 2,
		VertexSize:  7,
	}
}

var (
	hoverColor   = colorutil.Yellow
	anchorColor  = colorutil.Red
	pathColor    = colorutil.Magenta
	draftColor   = colorutil.Cyan
	defaultOuter = colorutil.Cyan
	defaultHole  = colorutil.Magenta
)

// DrawScene paints polygons and the editing affordances over dst, which is
// assumed to start at the origin.
func DrawScene(dst draw.Image, s Scene, st OverlayStyle) {
	b := dst.Bounds()
	p := &painter{
		dst: dst,
		r:   vector.NewRasterizer(b.Dx(), b.Dy()),
	}

	for _, poly := range s.Polygons.Polygons() {
		base := defaultOuter
		if poly.Kind == polygon.KindInternal {
			base = defaultHole
		}
		c := colorutil.ParseHexOr(poly.Color, base)
		screen := s.Viewport.ToScreenAll(poly.Points)

		if st.FillAlpha > 0 {
			p.fill(screen, colorutil.WithAlpha(c, st.FillAlpha))
		}
		width := st.StrokeWidth
		if poly.ID == s.Selected {
			c = colorutil.Highlight(c, 0.4)
			width *= 1.5
		}
		p.stroke(screen, true, width, c)
	}

	if st.Labels {
		for _, poly := range s.Polygons.Polygons() {
			if poly.Kind != polygon.KindExternal {
				continue
			}
			c := colorutil.ParseHexOr(poly.Color, defaultOuter)
			drawLabel(dst, poly.ID, s.Viewport.ToScreen(geometry.AreaCentroid(poly.Points)), c)
		}
	}

	sel, ok := s.Polygons.Get(s.Selected)
	if !ok {
		return
	}

	if s.Hover != nil && s.Hover.PolygonID == sel.ID {
		n := sel.Len()
		i := s.Hover.SegmentIndex
		if i >= 0 && i < n {
			seg := []geometry.Point2D{sel.Points[i], sel.Points[(i+1)%n]}
			p.stroke(s.Viewport.ToScreenAll(seg), false, st.StrokeWidth*2, hoverColor)
			p.square(s.Viewport.ToScreen(s.Hover.Projected), st.VertexSize*0.6, hoverColor)
		}
	}

	if s.Mode != mode.View {
		for _, v := range s.Viewport.ToScreenAll(sel.Points) {
			p.square(v, st.VertexSize, colorutil.White)
		}
	}

	pv := s.Preview
	if len(pv.Path) > 1 {
		p.stroke(s.Viewport.ToScreenAll(pv.Path), false, st.StrokeWidth*2, pathColor)
	}
	if pv.AnchorIndex != editor.NoVertex {
		trail := append([]geometry.Point2D{pv.Anchor}, pv.Draft...)
		if pv.HasCursor && s.Mode != mode.View {
			trail = append(trail, pv.Cursor)
		}
		if len(trail) > 1 {
			p.stroke(s.Viewport.ToScreenAll(trail), false, st.StrokeWidth, draftColor)
		}
		for _, d := range pv.Draft {
			p.square(s.Viewport.ToScreen(d), st.VertexSize*0.8, draftColor)
		}
		p.square(s.Viewport.ToScreen(pv.Anchor), st.VertexSize*1.3, anchorColor)
	}
}

type painter struct {
	dst draw.Image
	r   *vector.Rasterizer
}

func (p *painter) begin() {
	b := p.dst.Bounds()
	p.r.Reset(b.Dx(), b.Dy())
	p.r.DrawOp = draw.Over
}

func (p *painter) end(c color.Color) {
	p.r.Draw(p.dst, p.dst.Bounds(), image.NewUniform(c), image.Point{})
}

// fill paints a closed ring.
func (p *painter) fill(pts []geometry.Point2D, c color.Color) {
	if len(pts) < polygon.MinRingPoints {
		return
	}
	p.begin()
	p.r.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, pt := range pts[1:] {
		p.r.LineTo(float32(pt.X), float32(pt.Y))
	}
	p.r.ClosePath()
	p.end(c)
}

// stroke paints a polyline as one path of edge quads. All quads share a
// winding so overlapping joints saturate instead of cancelling.
func (p *painter) stroke(pts []geometry.Point2D, closed bool, width float64, c color.Color) {
	if len(pts) < 2 {
		return
	}
	p.begin()
	n := len(pts)
	last := n - 1
	if closed {
		last = n
	}
	for i := 0; i < last; i++ {
		p.quad(pts[i], pts[(i+1)%n], width/2)
	}
	p.end(c)
}

func (p *painter) quad(a, b geometry.Point2D, half float64) {
	d := b.Sub(a)
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		return
	}
	n := geometry.Point2D{X: -d.Y / l * half, Y: d.X / l * half}
	corners := [4]geometry.Point2D{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
	p.r.MoveTo(float32(corners[0].X), float32(corners[0].Y))
	for _, q := range corners[1:] {
		p.r.LineTo(float32(q.X), float32(q.Y))
	}
	p.r.ClosePath()
}

// square paints a filled handle of the given size around center.
func (p *painter) square(center geometry.Point2D, size float64, c color.Color) {
	h := size / 2
	p.fill([]geometry.Point2D{
		{X: center.X - h, Y: center.Y - h},
		{X: center.X + h, Y: center.Y - h},
		{X: center.X + h, Y: center.Y + h},
		{X: center.X - h, Y: center.Y + h},
	}, c)
}
