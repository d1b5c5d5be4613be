// Package editor ties the geometry packages into the interactive editing
// engine a host view drives. The host feeds viewport parameters, pointer and
// key events, and discrete action requests; it renders from the query
// surface and listens for events.
package editor

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"seg-editor/internal/edit"
	"seg-editor/internal/hover"
	"seg-editor/internal/mode"
	"seg-editor/internal/pathfind"
	"seg-editor/internal/polygon"
	"seg-editor/internal/viewport"
	"seg-editor/pkg/geometry"
)

// NoVertex marks an Action or anchor that does not refer to a vertex.
const NoVertex = -1

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrNoAnchor is returned when a free point is added before an anchor
	// vertex has been chosen.
	ErrNoAnchor = errors.New("no anchor vertex chosen")
)

// Engine is the editing core. It is safe for use from several goroutines,
// but edits are expected to arrive from a single UI event loop.
type Engine struct {
	mu sync.RWMutex

	cfg     Config
	set     polygon.Set
	vp      viewport.Viewport
	machine mode.Machine
	hist    history

	// Pointer, in screen and image space.
	pointer    geometry.Point2D
	cursor     geometry.Point2D
	hasPointer bool

	hoverState hover.State
	hovering   bool

	// Sub-mode draft: the anchor vertex, free points placed after it, and the
	// arc that would be used if the vertex under the cursor were clicked.
	anchor    int
	draft     []geometry.Point2D
	candidate *pathfind.Result

	drag *dragState

	lastMode ModeChange
	pending  []pendingEvent

	listenersMu sync.RWMutex
	listeners   map[EventType][]EventListener
}

type dragState struct {
	polygonID string
	vertex    int
	before    polygon.Set
	moved     bool
}

// finishDrag ends a vertex drag. A drag that moved the vertex becomes one
// undo step. Must be called with e.mu held.
func (e *Engine) finishDrag() {
	d := e.drag
	if d == nil {
		return
	}
	e.drag = nil
	if d.moved {
		e.hist.push(d.before)
	}
}

// abortDrag ends a vertex drag and puts the vertex back where it was.
// Reports whether a drag was in progress.
func (e *Engine) abortDrag() bool {
	d := e.drag
	if d == nil {
		return false
	}
	e.drag = nil
	if d.moved {
		e.install(d.before)
	}
	return true
}

// Preview is the ephemeral drawing state for the current frame. Points are
// in image space.
type Preview struct {
	AnchorIndex int                // NoVertex when unset
	Anchor      geometry.Point2D   // position of AnchorIndex
	Draft       []geometry.Point2D // free points placed in AddPoints
	Path        []geometry.Point2D // candidate arc from the anchor
	Cursor      geometry.Point2D
	HasCursor   bool
}

// New creates an engine with an empty polygon set and identity viewport.
func New(cfg Config) *Engine {
	cfg = cfg.normalized()
	return &Engine{
		cfg:       cfg,
		vp:        viewport.Identity(),
		hist:      history{limit: cfg.HistoryLimit},
		anchor:    NoVertex,
		lastMode:  ModeChange{Mode: mode.View},
		listeners: make(map[EventType][]EventListener),
	}
}

// Config returns the active settings.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig replaces the settings. History beyond the new limit is dropped
// on the next edit.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg.normalized()
	e.hist.limit = e.cfg.HistoryLimit
	e.refreshHover()
	e.unlockAndFlush()
}

// Polygons returns the current polygon set.
func (e *Engine) Polygons() polygon.Set {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.set
}

// Snapshot returns the set to hand to the host's commit channel.
func (e *Engine) Snapshot() polygon.Set {
	return e.Polygons()
}

// Hover returns the highlighted edge, if any.
func (e *Engine) Hover() (hover.State, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hoverState, e.hovering
}

// Mode returns the active mode.
func (e *Engine) Mode() mode.Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.machine.Mode()
}

// Selected returns the selected polygon id, empty in View.
func (e *Engine) Selected() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.machine.Selected()
}

// Viewport returns the viewport last supplied by the host.
func (e *Engine) Viewport() viewport.Viewport {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vp
}

// CanUndo reports whether an undo step is available.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.hist.undo) > 0
}

// CanRedo reports whether a redo step is available.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.hist.redo) > 0
}

// Preview returns the draft state of the active sub-mode.
func (e *Engine) Preview() Preview {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pv := Preview{AnchorIndex: NoVertex, Cursor: e.cursor, HasCursor: e.hasPointer}
	ring, ok := e.selectedRing()
	if !ok {
		return pv
	}
	if e.anchor >= 0 && e.anchor < len(ring) {
		pv.AnchorIndex = e.anchor
		pv.Anchor = ring[e.anchor]
	}
	if len(e.draft) > 0 {
		pv.Draft = make([]geometry.Point2D, len(e.draft))
		copy(pv.Draft, e.draft)
	}
	if e.candidate != nil {
		pv.Path = e.candidate.Points(ring)
	}
	return pv
}

// HoveredVertex returns the vertex of the selected ring under the pointer,
// or NoVertex. Hosts use it to build context menus.
func (e *Engine) HoveredVertex() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hoveredVertex()
}

// Dragging reports whether a vertex drag is in progress.
func (e *Engine) Dragging() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.drag != nil
}

// Load replaces the polygon set wholesale, as when the host switches images.
// History, selection and drafts are cleared.
func (e *Engine) Load(set polygon.Set) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("load polygons: %w", err)
	}

	e.mu.Lock()
	e.set = set
	e.hist.reset()
	e.machine.Deselect()
	e.drag = nil
	e.clearDraft()
	e.queue(EventPolygonsChanged, set)
	e.settle()
	e.refreshHover()
	e.unlockAndFlush()

	log.Printf("editor: loaded %d polygons", set.Len())
	return nil
}

// SetViewport updates the camera. Called by the host whenever zoom or pan
// changes.
func (e *Engine) SetViewport(zoom float64, offset geometry.Point2D) error {
	vp, err := viewport.New(zoom, offset)
	if err != nil {
		return err
	}

	e.mu.Lock()
	changed := vp != e.vp
	e.vp = vp
	if changed {
		if e.hasPointer {
			e.cursor = vp.ToImage(e.pointer)
		}
		e.queue(EventViewportChanged, vp)
		e.refreshHover()
	}
	e.unlockAndFlush()
	return nil
}

// Request performs a discrete action. A rejected action leaves the polygon
// set unchanged, emits EventEditRejected and returns the error.
func (e *Engine) Request(a Action) error {
	e.mu.Lock()
	err := e.apply(a)
	e.settle()
	e.unlockAndFlush()
	return err
}

// commit records the current set in history and installs next.
// Must be called with e.mu held.
func (e *Engine) commit(next polygon.Set) {
	e.hist.push(e.set)
	e.install(next)
}

// install swaps in a set without touching history and drops any state that
// may refer to vertices that no longer exist.
func (e *Engine) install(next polygon.Set) {
	e.set = next
	if sel := e.machine.Selected(); sel != "" && !next.Has(sel) {
		e.machine.Deselect()
	}
	e.queue(EventPolygonsChanged, next)
	e.refreshHover()
}

// reject logs and reports a refused edit.
func (e *Engine) reject(kind ActionKind, err error) error {
	log.Printf("editor: %s rejected: %v", kind, err)
	e.queue(EventEditRejected, err)
	return err
}

// settle publishes a mode change and resets drafts when a sub-mode is left.
// Must be called with e.mu held.
func (e *Engine) settle() {
	cur := ModeChange{Mode: e.machine.Mode(), Selected: e.machine.Selected()}
	if d := e.drag; d != nil && (cur.Mode != mode.EditVertices || cur.Selected != d.polygonID) {
		e.finishDrag()
	}
	if cur == e.lastMode {
		return
	}
	if !cur.Mode.IsSubMode() || cur.Selected != e.lastMode.Selected {
		e.clearDraft()
	}
	e.lastMode = cur
	e.queue(EventModeChanged, cur)
	e.refreshHover()
}

func (e *Engine) clearDraft() {
	e.anchor = NoVertex
	e.draft = nil
	e.candidate = nil
}

// selectedRing returns the points of the selected polygon.
func (e *Engine) selectedRing() ([]geometry.Point2D, bool) {
	sel := e.machine.Selected()
	if sel == "" {
		return nil, false
	}
	p, ok := e.set.Get(sel)
	if !ok {
		return nil, false
	}
	return p.Points, true
}

// refreshHover recomputes the hovered edge and the candidate arc for the
// current cursor. With a selection only the selected ring is considered.
func (e *Engine) refreshHover() {
	var st hover.State
	ok := false

	if e.hasPointer {
		threshold := e.vp.ImageDistance(e.cfg.HoverThreshold)
		if sel := e.machine.Selected(); sel != "" {
			if p, found := e.set.Get(sel); found {
				st, ok = hover.Resolve(p.ID, p.Points, e.cursor, threshold)
			}
		} else {
			st, ok = hover.ResolveSet(e.set, e.cursor, threshold)
		}
	}

	if ok != e.hovering || st != e.hoverState {
		e.hoverState, e.hovering = st, ok
		if ok {
			cp := st
			e.queue(EventHoverChanged, &cp)
		} else {
			e.queue(EventHoverChanged, (*hover.State)(nil))
		}
	}

	e.refreshCandidate()
}

func (e *Engine) refreshCandidate() {
	e.candidate = nil
	if !e.hasPointer || !e.machine.Mode().IsSubMode() || e.anchor < 0 {
		return
	}
	ring, ok := e.selectedRing()
	if !ok {
		return
	}
	v, ok := hover.NearestVertex(ring, e.cursor, e.vp.ImageDistance(e.cfg.VertexRadius))
	if !ok || v == e.anchor {
		return
	}
	if r, err := pathfind.FindPath(ring, e.anchor, v); err == nil {
		e.candidate = &r
	}
}

// vertexUnderCursor returns the vertex of the selected ring within the hit
// radius of the cursor.
func (e *Engine) vertexUnderCursor() (int, bool) {
	ring, ok := e.selectedRing()
	if !ok || !e.hasPointer {
		return NoVertex, false
	}
	return hover.NearestVertex(ring, e.cursor, e.vp.ImageDistance(e.cfg.VertexRadius))
}

// sliceSelected splits the selected ring between the anchor and v.
func (e *Engine) sliceSelected(id string, v int) error {
	p, err := e.set.Lookup(id)
	if err != nil {
		return err
	}
	forward, backward, err := pathfind.Traversals(p.Points, e.anchor, v)
	if err != nil {
		return err
	}
	next, split, err := edit.SplitRing(e.set, id, forward, backward)
	if err != nil {
		return err
	}

	log.Printf("editor: sliced %s into %s and %s", split.Retired, split.Created[0], split.Created[1])
	e.clearDraft()
	e.machine.Deselect()
	e.commit(next)
	e.queue(EventPolygonRetired, split)
	return nil
}

// insertDraft replaces the shorter arc from the anchor to v with the draft.
func (e *Engine) insertDraft(id string, v int) error {
	p, err := e.set.Lookup(id)
	if err != nil {
		return err
	}
	path, err := pathfind.FindPath(p.Points, e.anchor, v)
	if err != nil {
		return err
	}
	next, err := edit.InsertAlongPath(e.set, id, path, e.draft)
	if err != nil {
		return err
	}

	log.Printf("editor: replaced %d vertices of %s with %d new points", len(path.Interior()), id, len(e.draft))
	e.clearDraft()
	e.machine.ExitSubMode()
	e.commit(next)
	return nil
}
