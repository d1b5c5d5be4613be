package editor

import (
	"fmt"

	"seg-editor/internal/edit"
	"seg-editor/internal/mode"
	"seg-editor/pkg/geometry"
)

// ActionKind names a discrete request from the host, typically a context
// menu entry or a toolbar button.
type ActionKind int

const (
	ActionSelect ActionKind = iota
	ActionDeselect
	ActionDeleteVertex
	ActionDuplicateVertex
	ActionMoveVertex
	ActionInsertVertex // Vertex is the segment index
	ActionDeletePolygon
	ActionBeginAddPoints
	ActionAddPoint // Vertex, or NoVertex with Point for a free point
	ActionBeginSlice
	ActionSliceTo
	ActionCancel
	ActionUndo
	ActionRedo
)

var actionNames = map[ActionKind]string{
	ActionSelect:          "select",
	ActionDeselect:        "deselect",
	ActionDeleteVertex:    "delete vertex",
	ActionDuplicateVertex: "duplicate vertex",
	ActionMoveVertex:      "move vertex",
	ActionInsertVertex:    "insert vertex",
	ActionDeletePolygon:   "delete polygon",
	ActionBeginAddPoints:  "begin add points",
	ActionAddPoint:        "add point",
	ActionBeginSlice:      "begin slice",
	ActionSliceTo:         "slice",
	ActionCancel:          "cancel",
	ActionUndo:            "undo",
	ActionRedo:            "redo",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is a request addressed by polygon id and vertex or segment index.
// Point is in image space.
type Action struct {
	Kind      ActionKind
	PolygonID string
	Vertex    int
	Point     geometry.Point2D
}

// apply performs a. Must be called with e.mu held. A vertex drag in
// progress ends first: cancel reverts it, anything else keeps it as its own
// undo step.
func (e *Engine) apply(a Action) error {
	if a.Kind == ActionCancel && e.abortDrag() {
		return nil
	}
	e.finishDrag()

	switch a.Kind {
	case ActionSelect:
		if _, err := e.set.Lookup(a.PolygonID); err != nil {
			return e.reject(a.Kind, err)
		}
		if err := e.machine.Select(a.PolygonID); err != nil {
			return e.reject(a.Kind, err)
		}
		return nil

	case ActionDeselect:
		e.machine.Deselect()
		return nil

	case ActionDeleteVertex:
		return e.applyEdit(a, mode.OpDeleteVertex, func() error {
			next, err := edit.DeleteVertex(e.set, a.PolygonID, a.Vertex)
			if err == nil {
				e.commit(next)
			}
			return err
		})

	case ActionDuplicateVertex:
		return e.applyEdit(a, mode.OpDuplicateVertex, func() error {
			next, err := edit.DuplicateVertex(e.set, a.PolygonID, a.Vertex)
			if err == nil {
				e.commit(next)
			}
			return err
		})

	case ActionMoveVertex:
		return e.applyEdit(a, mode.OpMoveVertex, func() error {
			next, err := edit.MoveVertex(e.set, a.PolygonID, a.Vertex, a.Point)
			if err == nil {
				e.commit(next)
			}
			return err
		})

	case ActionInsertVertex:
		return e.applyEdit(a, mode.OpInsertVertex, func() error {
			next, err := edit.InsertVertex(e.set, a.PolygonID, a.Vertex, a.Point)
			if err == nil {
				e.commit(next)
			}
			return err
		})

	case ActionDeletePolygon:
		next, err := edit.DeletePolygon(e.set, a.PolygonID)
		if err != nil {
			return e.reject(a.Kind, err)
		}
		e.commit(next)
		return nil

	case ActionBeginAddPoints:
		return e.beginSubMode(a, mode.OpBeginAddPoints, e.machine.EnterAddPoints)

	case ActionBeginSlice:
		return e.beginSubMode(a, mode.OpBeginSlice, e.machine.EnterSlice)

	case ActionAddPoint:
		return e.applyEdit(a, mode.OpAddPoint, func() error {
			switch {
			case a.Vertex == NoVertex && e.anchor == NoVertex:
				return ErrNoAnchor
			case a.Vertex == NoVertex:
				e.draft = append(e.draft, a.Point)
				return nil
			case e.anchor == NoVertex:
				return e.setAnchor(a.PolygonID, a.Vertex)
			default:
				return e.insertDraft(a.PolygonID, a.Vertex)
			}
		})

	case ActionSliceTo:
		return e.applyEdit(a, mode.OpSlice, func() error {
			if e.anchor == NoVertex {
				return e.setAnchor(a.PolygonID, a.Vertex)
			}
			return e.sliceSelected(a.PolygonID, a.Vertex)
		})

	case ActionCancel:
		e.cancel()
		return nil

	case ActionUndo:
		prev, ok := e.hist.back(e.set)
		if !ok {
			return e.reject(a.Kind, ErrNothingToUndo)
		}
		e.machine.ExitSubMode()
		e.install(prev)
		return nil

	case ActionRedo:
		next, ok := e.hist.forward(e.set)
		if !ok {
			return e.reject(a.Kind, ErrNothingToRedo)
		}
		e.machine.ExitSubMode()
		e.install(next)
		return nil

	default:
		return e.reject(a.Kind, fmt.Errorf("unknown action %d", int(a.Kind)))
	}
}

// applyEdit gates run on the mode machine before running it.
func (e *Engine) applyEdit(a Action, op mode.Op, run func() error) error {
	if err := e.machine.Check(op, a.PolygonID); err != nil {
		return e.reject(a.Kind, err)
	}
	if err := run(); err != nil {
		return e.reject(a.Kind, err)
	}
	return nil
}

// beginSubMode enters a sub-mode, optionally anchored at a.Vertex.
func (e *Engine) beginSubMode(a Action, op mode.Op, enter func() error) error {
	return e.applyEdit(a, op, func() error {
		if a.Vertex != NoVertex {
			p, err := e.set.Lookup(a.PolygonID)
			if err != nil {
				return err
			}
			if err := p.CheckIndex(a.Vertex); err != nil {
				return err
			}
		}
		if err := enter(); err != nil {
			return err
		}
		e.clearDraft()
		e.anchor = a.Vertex
		e.refreshCandidate()
		return nil
	})
}

func (e *Engine) setAnchor(id string, v int) error {
	p, err := e.set.Lookup(id)
	if err != nil {
		return err
	}
	if err := p.CheckIndex(v); err != nil {
		return err
	}
	e.anchor = v
	e.refreshCandidate()
	return nil
}

// cancel backs out one level: a pending draft, then the sub-mode, then the
// selection.
func (e *Engine) cancel() {
	switch {
	case e.machine.Mode().IsSubMode() && (len(e.draft) > 0 || e.anchor != NoVertex):
		e.clearDraft()
	case e.machine.Mode().IsSubMode():
		e.machine.ExitSubMode()
	default:
		e.machine.Deselect()
	}
}
