package editor

import (
	"seg-editor/internal/edit"
	"seg-editor/internal/hover"
	"seg-editor/internal/mode"
	"seg-editor/pkg/geometry"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Modifiers is a bit set of held modifier keys.
type Modifiers uint

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
)

// Has reports whether all of m2 are held.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// Key is a logical editor key. Hosts map their shortcuts onto these.
type Key int

const (
	KeyEscape Key = iota
	KeyDelete
	KeyDuplicate
	KeyAddPoints
	KeySlice
	KeyUndo
	KeyRedo
)

// PointerMove updates hover and preview state for a screen position. While
// a vertex is being dragged it follows the pointer.
func (e *Engine) PointerMove(screen geometry.Point2D) {
	e.mu.Lock()
	e.setPointer(screen)

	if d := e.drag; d != nil && e.machine.Mode() == mode.EditVertices && e.machine.Selected() == d.polygonID {
		if next, err := edit.MoveVertex(e.set, d.polygonID, d.vertex, e.cursor); err == nil {
			d.moved = true
			e.install(next)
		}
	} else {
		e.refreshHover()
	}

	e.unlockAndFlush()
}

// PointerDown handles a press at a screen position. Secondary presses only
// update the pointer; the host opens its context menu and sends Requests.
func (e *Engine) PointerDown(screen geometry.Point2D, button Button, mods Modifiers) error {
	e.mu.Lock()
	e.setPointer(screen)
	e.finishDrag()
	e.refreshHover()

	var err error
	if button == ButtonPrimary {
		err = e.press(mods)
	}

	e.settle()
	e.unlockAndFlush()
	return err
}

// PointerUp ends a drag. A drag that moved the vertex becomes one undo step.
func (e *Engine) PointerUp(screen geometry.Point2D) {
	e.mu.Lock()
	e.setPointer(screen)
	if e.drag != nil {
		e.finishDrag()
		e.refreshHover()
	}
	e.unlockAndFlush()
}

// PointerLeave clears hover state when the pointer leaves the view.
func (e *Engine) PointerLeave() {
	e.mu.Lock()
	e.hasPointer = false
	e.refreshHover()
	e.unlockAndFlush()
}

// KeyPress handles a logical key. Vertex keys act on the vertex under the
// pointer.
func (e *Engine) KeyPress(key Key) error {
	e.mu.Lock()

	var err error
	sel := e.machine.Selected()
	switch key {
	case KeyEscape:
		err = e.apply(Action{Kind: ActionCancel})
	case KeyUndo:
		err = e.apply(Action{Kind: ActionUndo})
	case KeyRedo:
		err = e.apply(Action{Kind: ActionRedo})
	case KeyAddPoints:
		err = e.apply(Action{Kind: ActionBeginAddPoints, PolygonID: sel, Vertex: e.hoveredVertex()})
	case KeySlice:
		err = e.apply(Action{Kind: ActionBeginSlice, PolygonID: sel, Vertex: e.hoveredVertex()})
	case KeyDelete, KeyDuplicate:
		kind := ActionDeleteVertex
		if key == KeyDuplicate {
			kind = ActionDuplicateVertex
		}
		if v := e.hoveredVertex(); v != NoVertex {
			err = e.apply(Action{Kind: kind, PolygonID: sel, Vertex: v})
		}
	}

	e.settle()
	e.unlockAndFlush()
	return err
}

func (e *Engine) setPointer(screen geometry.Point2D) {
	e.pointer = screen
	e.cursor = e.vp.ToImage(screen)
	e.hasPointer = true
}

func (e *Engine) hoveredVertex() int {
	if v, ok := e.vertexUnderCursor(); ok {
		return v
	}
	return NoVertex
}

// press maps a primary click onto the active mode.
func (e *Engine) press(mods Modifiers) error {
	sel := e.machine.Selected()

	switch e.machine.Mode() {
	case mode.View:
		if p, ok := hover.PolygonAt(e.set, e.cursor); ok {
			return e.apply(Action{Kind: ActionSelect, PolygonID: p.ID})
		}
		return nil

	case mode.EditVertices:
		if v, ok := e.vertexUnderCursor(); ok {
			e.drag = &dragState{polygonID: sel, vertex: v, before: e.set}
			return nil
		}
		if mods.Has(ModShift) && e.hovering && e.hoverState.PolygonID == sel {
			return e.apply(Action{
				Kind:      ActionInsertVertex,
				PolygonID: sel,
				Vertex:    e.hoverState.SegmentIndex,
				Point:     e.hoverState.Projected,
			})
		}
		if p, ok := hover.PolygonAt(e.set, e.cursor); ok {
			if p.ID != sel {
				return e.apply(Action{Kind: ActionSelect, PolygonID: p.ID})
			}
			return nil
		}
		if !e.hovering {
			return e.apply(Action{Kind: ActionDeselect})
		}
		return nil

	case mode.AddPoints:
		if v, ok := e.vertexUnderCursor(); ok {
			return e.apply(Action{Kind: ActionAddPoint, PolygonID: sel, Vertex: v})
		}
		if e.anchor != NoVertex {
			return e.apply(Action{Kind: ActionAddPoint, PolygonID: sel, Vertex: NoVertex, Point: e.cursor})
		}
		return nil

	case mode.Slice:
		if v, ok := e.vertexUnderCursor(); ok {
			return e.apply(Action{Kind: ActionSliceTo, PolygonID: sel, Vertex: v})
		}
		return nil
	}
	return nil
}
