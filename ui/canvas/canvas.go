// Package canvas provides the polygon editing view: the image under the
// current viewport with the polygon overlay, driven by pointer input.
package canvas

import (
	"image"
	"log"

	"seg-editor/internal/app"
	"seg-editor/internal/editor"
	segimage "seg-editor/internal/image"
	"seg-editor/internal/viewport"
	"seg-editor/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// EditorCanvas displays the image and polygons and feeds pointer events to
// the engine. Positions are kept in fyne units; the raster is rendered at
// device pixels by scaling the viewport.
type EditorCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster
	style  segimage.OverlayStyle

	// Panning with the middle button, or the primary button when no vertex
	// is being dragged
	panning bool

	fitPending bool

	// Last rendered output for sampling
	lastOutput *image.RGBA

	onContextMenu func(pos fyne.Position, actions []MenuAction)
}

var (
	_ desktop.Hoverable      = (*EditorCanvas)(nil)
	_ desktop.Mouseable      = (*EditorCanvas)(nil)
	_ fyne.Scrollable        = (*EditorCanvas)(nil)
	_ fyne.Draggable         = (*EditorCanvas)(nil)
	_ fyne.SecondaryTappable = (*EditorCanvas)(nil)
)

// NewEditorCanvas creates a canvas bound to the application state.
func NewEditorCanvas(state *app.State) *EditorCanvas {
	c := &EditorCanvas{
		state: state,
		style: segimage.DefaultOverlayStyle(),
	}
	c.raster = fynecanvas.NewRaster(c.draw)
	c.raster.ScaleMode = fynecanvas.ImageScalePixels

	refresh := func(interface{}) { c.Refresh() }
	for _, ev := range []editor.EventType{
		editor.EventPolygonsChanged,
		editor.EventModeChanged,
		editor.EventHoverChanged,
		editor.EventViewportChanged,
	} {
		state.Engine.On(ev, refresh)
	}
	state.On(app.EventImageLoaded, func(interface{}) { c.FitToWindow() })

	c.ExtendBaseWidget(c)
	return c
}

// SetStyle changes the overlay look.
func (c *EditorCanvas) SetStyle(style segimage.OverlayStyle) {
	c.style = style
	c.Refresh()
}

// Style returns the overlay look.
func (c *EditorCanvas) Style() segimage.OverlayStyle {
	return c.style
}

// OnContextMenu sets the callback for secondary taps. pos is relative to the
// canvas.
func (c *EditorCanvas) OnContextMenu(callback func(pos fyne.Position, actions []MenuAction)) {
	c.onContextMenu = callback
}

// FitToWindow zooms so the whole image is visible. Before the first layout
// the fit is deferred until the canvas has a size.
func (c *EditorCanvas) FitToWindow() {
	size := c.Size()
	if size.Width <= 0 || size.Height <= 0 {
		c.fitPending = true
		return
	}
	c.fitPending = false
	if err := c.state.FitView(geometry.Size{Width: float64(size.Width), Height: float64(size.Height)}); err != nil {
		log.Printf("canvas: fit: %v", err)
	}
}

// ZoomIn zooms about the canvas centre.
func (c *EditorCanvas) ZoomIn() {
	c.zoomAt(c.center(), viewport.ZoomStep)
}

// ZoomOut zooms out about the canvas centre.
func (c *EditorCanvas) ZoomOut() {
	c.zoomAt(c.center(), 1/viewport.ZoomStep)
}

// ActualSize shows image pixels at one unit each, keeping the canvas centre
// in place.
func (c *EditorCanvas) ActualSize() {
	c.zoomAt(c.center(), 1/c.state.Engine.Viewport().Zoom)
}

// GetRenderedOutput returns the last rendered canvas output.
func (c *EditorCanvas) GetRenderedOutput() *image.RGBA {
	return c.lastOutput
}

// Refresh redraws the raster.
func (c *EditorCanvas) Refresh() {
	c.raster.Refresh()
}

// MouseIn implements desktop.Hoverable.
func (c *EditorCanvas) MouseIn(ev *desktop.MouseEvent) {
	c.state.Engine.PointerMove(toPoint(ev.Position))
}

// MouseMoved implements desktop.Hoverable.
func (c *EditorCanvas) MouseMoved(ev *desktop.MouseEvent) {
	c.state.Engine.PointerMove(toPoint(ev.Position))
}

// MouseOut implements desktop.Hoverable.
func (c *EditorCanvas) MouseOut() {
	c.state.Engine.PointerLeave()
}

// MouseDown implements desktop.Mouseable. Rejected clicks are reported by
// the engine through EventEditRejected.
func (c *EditorCanvas) MouseDown(ev *desktop.MouseEvent) {
	switch ev.Button {
	case desktop.MouseButtonTertiary:
		c.panning = true
	case desktop.MouseButtonPrimary:
		c.state.Engine.PointerDown(toPoint(ev.Position), editor.ButtonPrimary, modifiers(ev.Modifier))
		c.panning = !c.state.Engine.Dragging() && ev.Modifier&fyne.KeyModifierShift == 0
	case desktop.MouseButtonSecondary:
		c.state.Engine.PointerDown(toPoint(ev.Position), editor.ButtonSecondary, modifiers(ev.Modifier))
	}
}

// MouseUp implements desktop.Mouseable.
func (c *EditorCanvas) MouseUp(ev *desktop.MouseEvent) {
	c.panning = false
	c.state.Engine.PointerUp(toPoint(ev.Position))
}

// Dragged moves the dragged vertex, or pans the view.
func (c *EditorCanvas) Dragged(ev *fyne.DragEvent) {
	e := c.state.Engine
	if e.Dragging() {
		e.PointerMove(toPoint(ev.Position))
		return
	}
	if !c.panning {
		return
	}
	vp := e.Viewport().Pan(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
	e.SetViewport(vp.Zoom, vp.Offset)
}

// DragEnd implements fyne.Draggable.
func (c *EditorCanvas) DragEnd() {
	c.panning = false
}

// Scrolled zooms about the pointer.
func (c *EditorCanvas) Scrolled(ev *fyne.ScrollEvent) {
	switch {
	case ev.Scrolled.DY > 0:
		c.zoomAt(toPoint(ev.Position), viewport.ZoomStep)
	case ev.Scrolled.DY < 0:
		c.zoomAt(toPoint(ev.Position), 1/viewport.ZoomStep)
	}
}

// TappedSecondary opens the context menu for what is under the pointer.
func (c *EditorCanvas) TappedSecondary(ev *fyne.PointEvent) {
	if c.onContextMenu == nil {
		return
	}
	c.state.Engine.PointerMove(toPoint(ev.Position))
	actions := ContextActions(c.state.Engine)
	if len(actions) > 0 {
		c.onContextMenu(ev.Position, actions)
	}
}

// CreateRenderer implements fyne.Widget.
func (c *EditorCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &editorCanvasRenderer{canvas: c}
}

func (c *EditorCanvas) center() geometry.Point2D {
	size := c.Size()
	return geometry.Point2D{X: float64(size.Width) / 2, Y: float64(size.Height) / 2}
}

func (c *EditorCanvas) zoomAt(p geometry.Point2D, factor float64) {
	e := c.state.Engine
	vp := e.Viewport().ZoomAt(p, factor)
	e.SetViewport(vp.Zoom, vp.Offset)
}

// draw is the raster drawing function. w and h are device pixels.
func (c *EditorCanvas) draw(w, h int) image.Image {
	size := c.Size()
	scale := 1.0
	if size.Width > 0 {
		scale = float64(w) / float64(size.Width)
	}

	scene := segimage.SceneOf(c.state.Engine)
	scene.Viewport = viewport.Viewport{
		Zoom:   scene.Viewport.Zoom * scale,
		Offset: scene.Viewport.Offset.Scale(scale),
	}

	output := segimage.RenderView(c.state.CurrentImage(), scene.Viewport, w, h)

	style := c.style
	style.StrokeWidth *= scale
	style.VertexSize *= scale
	segimage.DrawScene(output, scene, style)

	c.lastOutput = output
	return output
}

type editorCanvasRenderer struct {
	canvas *EditorCanvas
}

func (r *editorCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
	if r.canvas.fitPending && size.Width > 0 && size.Height > 0 {
		r.canvas.FitToWindow()
	}
}

func (r *editorCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

func (r *editorCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *editorCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *editorCanvasRenderer) Destroy() {}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

func modifiers(m fyne.KeyModifier) editor.Modifiers {
	var out editor.Modifiers
	if m&fyne.KeyModifierShift != 0 {
		out |= editor.ModShift
	}
	if m&fyne.KeyModifierControl != 0 || m&fyne.KeyModifierSuper != 0 {
		out |= editor.ModControl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= editor.ModAlt
	}
	return out
}
