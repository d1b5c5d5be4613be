package editor

import "seg-editor/internal/polygon"

// history keeps whole Set snapshots. Sets share unchanged rings, so a
// snapshot costs one map and one order slice.
type history struct {
	undo  []polygon.Set
	redo  []polygon.Set
	limit int
}

func (h *history) push(s polygon.Set) {
	h.undo = append(h.undo, s)
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
}

func (h *history) back(current polygon.Set) (polygon.Set, bool) {
	if len(h.undo) == 0 {
		return current, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return prev, true
}

func (h *history) forward(current polygon.Set) (polygon.Set, bool) {
	if len(h.redo) == 0 {
		return current, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return next, true
}

func (h *history) reset() {
	h.undo = nil
	h.redo = nil
}
