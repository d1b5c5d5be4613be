package canvas

import (
	"seg-editor/internal/editor"
	"seg-editor/internal/mode"
)

// MenuAction is one context menu entry.
type MenuAction struct {
	Label  string
	Action editor.Action
}

// ContextActions lists what can be done with what is under the pointer in
// the engine's current mode.
func ContextActions(e *editor.Engine) []MenuAction {
	var out []MenuAction
	add := func(label string, a editor.Action) {
		out = append(out, MenuAction{Label: label, Action: a})
	}

	sel := e.Selected()
	h, hovering := e.Hover()

	switch e.Mode() {
	case mode.View:
		if hovering {
			add("Select "+h.PolygonID, editor.Action{Kind: editor.ActionSelect, PolygonID: h.PolygonID})
			add("Delete polygon", editor.Action{Kind: editor.ActionDeletePolygon, PolygonID: h.PolygonID})
		}

	case mode.EditVertices:
		if v := e.HoveredVertex(); v != editor.NoVertex {
			add("Delete vertex", editor.Action{Kind: editor.ActionDeleteVertex, PolygonID: sel, Vertex: v})
			add("Duplicate vertex", editor.Action{Kind: editor.ActionDuplicateVertex, PolygonID: sel, Vertex: v})
			add("Add points from here", editor.Action{Kind: editor.ActionBeginAddPoints, PolygonID: sel, Vertex: v})
			add("Slice from here", editor.Action{Kind: editor.ActionBeginSlice, PolygonID: sel, Vertex: v})
		} else {
			if hovering && h.PolygonID == sel {
				add("Insert vertex", editor.Action{
					Kind:      editor.ActionInsertVertex,
					PolygonID: sel,
					Vertex:    h.SegmentIndex,
					Point:     h.Projected,
				})
			}
			add("Add points", editor.Action{Kind: editor.ActionBeginAddPoints, PolygonID: sel, Vertex: editor.NoVertex})
			add("Slice", editor.Action{Kind: editor.ActionBeginSlice, PolygonID: sel, Vertex: editor.NoVertex})
		}
		add("Delete polygon", editor.Action{Kind: editor.ActionDeletePolygon, PolygonID: sel})
		add("Deselect", editor.Action{Kind: editor.ActionDeselect})

	case mode.AddPoints, mode.Slice:
		add("Cancel", editor.Action{Kind: editor.ActionCancel})
	}

	if e.CanUndo() {
		add("Undo", editor.Action{Kind: editor.ActionUndo})
	}
	if e.CanRedo() {
		add("Redo", editor.Action{Kind: editor.ActionRedo})
	}
	return out
}
