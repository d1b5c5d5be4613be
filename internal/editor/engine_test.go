package editor

import (
	"errors"
	"sync"
	"testing"

	"seg-editor/internal/edit"
	"seg-editor/internal/mode"
	"seg-editor/internal/pathfind"
	"seg-editor/internal/polygon"
	"seg-editor/internal/viewport"
	"seg-editor/pkg/geometry"
)

func pt(x, y float64) geometry.Point2D {
	return geometry.Point2D{X: x, Y: y}
}

var square = []geometry.Point2D{pt(0, 0), pt(100, 0), pt(100, 100), pt(0, 100)}

type recorder struct {
	mu     sync.Mutex
	events map[EventType][]interface{}
}

func record(e *Engine) *recorder {
	r := &recorder{events: make(map[EventType][]interface{})}
	for _, ev := range []EventType{
		EventPolygonsChanged, EventModeChanged, EventHoverChanged,
		EventEditRejected, EventPolygonRetired, EventViewportChanged,
	} {
		ev := ev
		e.On(ev, func(data interface{}) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events[ev] = append(r.events[ev], data)
		})
	}
	return r
}

func (r *recorder) count(ev EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[ev])
}

func (r *recorder) last(ev EventType) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.events[ev]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

func newEngine(t *testing.T) (*Engine, *recorder) {
	t.Helper()
	set, err := polygon.NewSet(polygon.Polygon{ID: "sq", Points: square})
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	e := New(DefaultConfig())
	if err := e.Load(set); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return e, record(e)
}

func ringOf(t *testing.T, e *Engine, id string) []geometry.Point2D {
	t.Helper()
	p, ok := e.Polygons().Get(id)
	if !ok {
		t.Fatalf("polygon %s missing", id)
	}
	return p.Points
}

func selectSquare(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.Request(Action{Kind: ActionSelect, PolygonID: "sq"}); err != nil {
		t.Fatalf("select failed: %v", err)
	}
}

func TestAddPointRejectedInView(t *testing.T) {
	for _, id := range []string{"sq", "missing", ""} {
		t.Run(id, func(t *testing.T) {
			e, rec := newEngine(t)
			err := e.Request(Action{Kind: ActionAddPoint, PolygonID: id, Vertex: 0})
			if !errors.Is(err, mode.ErrOperationNotAllowed) {
				t.Fatalf("expected ErrOperationNotAllowed, got %v", err)
			}
			if rec.count(EventEditRejected) != 1 {
				t.Errorf("expected one rejection event, got %d", rec.count(EventEditRejected))
			}
			if rec.count(EventPolygonsChanged) != 0 {
				t.Errorf("rejected action changed polygons")
			}
			if len(ringOf(t, e, "sq")) != 4 {
				t.Errorf("ring modified")
			}
		})
	}
}

func TestClickSelectsPolygon(t *testing.T) {
	e, rec := newEngine(t)
	if err := e.SetViewport(2, pt(10, 10)); err != nil {
		t.Fatalf("SetViewport failed: %v", err)
	}

	if err := e.PointerDown(pt(110, 110), ButtonPrimary, 0); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}
	if e.Mode() != mode.EditVertices || e.Selected() != "sq" {
		t.Fatalf("mode %v selected %q", e.Mode(), e.Selected())
	}
	mc, ok := rec.last(EventModeChanged).(ModeChange)
	if !ok || mc.Mode != mode.EditVertices || mc.Selected != "sq" {
		t.Errorf("unexpected mode event %+v", rec.last(EventModeChanged))
	}

	// Clicking far from any ring deselects.
	if err := e.PointerDown(pt(900, 900), ButtonPrimary, 0); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}
	if e.Mode() != mode.View {
		t.Errorf("expected View after clicking empty space, got %v", e.Mode())
	}
}

func TestHoverFollowsPointer(t *testing.T) {
	e, rec := newEngine(t)
	if err := e.SetViewport(2, pt(10, 10)); err != nil {
		t.Fatalf("SetViewport failed: %v", err)
	}

	// Screen (110, 13) is image (50, 1.5); threshold is 8px / 2 = 4 units.
	e.PointerMove(pt(110, 13))
	st, ok := e.Hover()
	if !ok {
		t.Fatal("expected hover")
	}
	if st.PolygonID != "sq" || st.SegmentIndex != 0 || !st.Projected.ApproxEqual(pt(50, 0), 1e-9) {
		t.Errorf("unexpected hover %+v", st)
	}

	e.PointerMove(pt(110, 110))
	if _, ok := e.Hover(); ok {
		t.Errorf("center of the square should not hover an edge")
	}
	if rec.count(EventHoverChanged) != 2 {
		t.Errorf("expected 2 hover events, got %d", rec.count(EventHoverChanged))
	}

	e.PointerMove(pt(110, 13))
	e.PointerLeave()
	if _, ok := e.Hover(); ok {
		t.Errorf("hover should clear when the pointer leaves")
	}
}

func TestDeleteUndoRedo(t *testing.T) {
	e, rec := newEngine(t)
	selectSquare(t, e)

	if err := e.Request(Action{Kind: ActionDeleteVertex, PolygonID: "sq", Vertex: 1}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := len(ringOf(t, e, "sq")); got != 3 {
		t.Fatalf("expected 3 points, got %d", got)
	}

	err := e.Request(Action{Kind: ActionDeleteVertex, PolygonID: "sq", Vertex: 0})
	if !errors.Is(err, polygon.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
	if got, ok := rec.last(EventEditRejected).(error); !ok || !errors.Is(got, polygon.ErrInvariantViolation) {
		t.Errorf("rejection event carried %v", rec.last(EventEditRejected))
	}

	if !e.CanUndo() || e.CanRedo() {
		t.Fatalf("history state: undo %v redo %v", e.CanUndo(), e.CanRedo())
	}
	if err := e.Request(Action{Kind: ActionUndo}); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if got := len(ringOf(t, e, "sq")); got != 4 {
		t.Errorf("undo: expected 4 points, got %d", got)
	}
	if err := e.Request(Action{Kind: ActionRedo}); err != nil {
		t.Fatalf("redo failed: %v", err)
	}
	if got := len(ringOf(t, e, "sq")); got != 3 {
		t.Errorf("redo: expected 3 points, got %d", got)
	}
	if err := e.Request(Action{Kind: ActionRedo}); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestDeleteVertexOnUnselectedPolygonRejected(t *testing.T) {
	e, _ := newEngine(t)
	err := e.Request(Action{Kind: ActionDeleteVertex, PolygonID: "sq", Vertex: 1})
	if !errors.Is(err, mode.ErrOperationNotAllowed) {
		t.Errorf("expected ErrOperationNotAllowed, got %v", err)
	}
}

func TestDragVertexIsOneUndoStep(t *testing.T) {
	e, _ := newEngine(t)
	selectSquare(t, e)

	if err := e.PointerDown(pt(100, 100), ButtonPrimary, 0); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}
	if !e.Dragging() {
		t.Fatal("press on a vertex should start a drag")
	}
	e.PointerMove(pt(120, 110))
	e.PointerMove(pt(130, 130))
	e.PointerUp(pt(130, 130))
	if e.Dragging() {
		t.Error("release should end the drag")
	}

	if got := ringOf(t, e, "sq")[2]; !got.ApproxEqual(pt(130, 130), 1e-9) {
		t.Fatalf("dragged vertex at %v", got)
	}
	if err := e.Request(Action{Kind: ActionUndo}); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if got := ringOf(t, e, "sq")[2]; !got.ApproxEqual(pt(100, 100), 1e-9) {
		t.Errorf("undo restored %v", got)
	}
	if e.CanUndo() {
		t.Errorf("drag should record a single history entry")
	}
}

func TestDragInterruptedByOtherInput(t *testing.T) {
	dragged := pt(120, 120)
	tests := []struct {
		name      string
		interrupt func(e *Engine) error
		wantMode  mode.Mode
		wantRing  []geometry.Point2D
		wantUndos int
	}{
		{
			name:      "escape reverts the drag",
			interrupt: func(e *Engine) error { return e.KeyPress(KeyEscape) },
			wantMode:  mode.EditVertices,
			wantRing:  square,
			wantUndos: 0,
		},
		{
			name:      "deselect keeps the move",
			interrupt: func(e *Engine) error { return e.Request(Action{Kind: ActionDeselect}) },
			wantMode:  mode.View,
			wantRing:  []geometry.Point2D{pt(0, 0), pt(100, 0), dragged, pt(0, 100)},
			wantUndos: 1,
		},
		{
			name: "delete another vertex",
			interrupt: func(e *Engine) error {
				return e.Request(Action{Kind: ActionDeleteVertex, PolygonID: "sq", Vertex: 0})
			},
			wantMode:  mode.EditVertices,
			wantRing:  []geometry.Point2D{pt(100, 0), dragged, pt(0, 100)},
			wantUndos: 2,
		},
		{
			name:      "duplicate key on the dragged vertex",
			interrupt: func(e *Engine) error { return e.KeyPress(KeyDuplicate) },
			wantMode:  mode.EditVertices,
			wantRing:  []geometry.Point2D{pt(0, 0), pt(100, 0), dragged, dragged, pt(0, 100)},
			wantUndos: 2,
		},
		{
			name:      "undo reverts the drag",
			interrupt: func(e *Engine) error { return e.KeyPress(KeyUndo) },
			wantMode:  mode.EditVertices,
			wantRing:  square,
			wantUndos: 0,
		},
		{
			name: "begin slice",
			interrupt: func(e *Engine) error {
				return e.Request(Action{Kind: ActionBeginSlice, PolygonID: "sq", Vertex: 0})
			},
			wantMode:  mode.Slice,
			wantRing:  []geometry.Point2D{pt(0, 0), pt(100, 0), dragged, pt(0, 100)},
			wantUndos: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(t)
			selectSquare(t, e)

			if err := e.PointerDown(pt(100, 100), ButtonPrimary, 0); err != nil {
				t.Fatalf("PointerDown failed: %v", err)
			}
			e.PointerMove(dragged)
			if err := tt.interrupt(e); err != nil {
				t.Fatalf("interrupt failed: %v", err)
			}
			if e.Dragging() {
				t.Error("drag should end on other input")
			}
			e.PointerMove(pt(150, 150))
			e.PointerUp(pt(150, 150))

			if e.Mode() != tt.wantMode {
				t.Errorf("mode = %v, want %v", e.Mode(), tt.wantMode)
			}
			ring := ringOf(t, e, "sq")
			if len(ring) != len(tt.wantRing) {
				t.Fatalf("ring = %v, want %v", ring, tt.wantRing)
			}
			for i := range ring {
				if !ring[i].ApproxEqual(tt.wantRing[i], 1e-9) {
					t.Fatalf("ring = %v, want %v", ring, tt.wantRing)
				}
			}

			undos := 0
			for e.CanUndo() {
				if err := e.Request(Action{Kind: ActionUndo}); err != nil {
					t.Fatalf("undo failed: %v", err)
				}
				undos++
			}
			if undos != tt.wantUndos {
				t.Errorf("undo steps = %d, want %d", undos, tt.wantUndos)
			}
			if got := ringOf(t, e, "sq"); len(got) != len(square) || got[2] != square[2] {
				t.Errorf("full undo left %v", got)
			}
		})
	}
}

func TestClickEmptySpaceDeselects(t *testing.T) {
	e, rec := newEngine(t)
	selectSquare(t, e)
	before := rec.count(EventModeChanged)

	if err := e.PointerDown(pt(300, 300), ButtonPrimary, 0); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}
	if e.Mode() != mode.View || e.Selected() != "" {
		t.Errorf("mode %v selected %q after clicking empty space", e.Mode(), e.Selected())
	}
	if rec.count(EventModeChanged) != before+1 {
		t.Errorf("expected one mode change event")
	}
}

func TestShiftClickInsertsOnHoveredEdge(t *testing.T) {
	e, _ := newEngine(t)
	selectSquare(t, e)

	if err := e.PointerDown(pt(50, 2), ButtonPrimary, ModShift); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}
	ring := ringOf(t, e, "sq")
	if len(ring) != 5 || !ring[1].ApproxEqual(pt(50, 0), 1e-9) {
		t.Errorf("unexpected ring %v", ring)
	}
}

func TestAddPointsFlow(t *testing.T) {
	e, _ := newEngine(t)
	selectSquare(t, e)

	if err := e.Request(Action{Kind: ActionBeginAddPoints, PolygonID: "sq", Vertex: 0}); err != nil {
		t.Fatalf("begin add points failed: %v", err)
	}
	if e.Mode() != mode.AddPoints {
		t.Fatalf("mode %v", e.Mode())
	}

	if err := e.PointerDown(pt(50, -50), ButtonPrimary, 0); err != nil {
		t.Fatalf("free point failed: %v", err)
	}
	e.PointerMove(pt(99, 99))
	pv := e.Preview()
	if pv.AnchorIndex != 0 || len(pv.Draft) != 1 {
		t.Fatalf("unexpected preview %+v", pv)
	}
	if len(pv.Path) != 3 || !pv.Path[1].ApproxEqual(pt(100, 0), 1e-9) {
		t.Errorf("candidate path should follow the forward arc on a tie, got %v", pv.Path)
	}

	if err := e.PointerDown(pt(100, 100), ButtonPrimary, 0); err != nil {
		t.Fatalf("closing click failed: %v", err)
	}
	want := []geometry.Point2D{pt(0, 0), pt(50, -50), pt(100, 100), pt(0, 100)}
	ring := ringOf(t, e, "sq")
	if len(ring) != len(want) {
		t.Fatalf("ring %v, want %v", ring, want)
	}
	for i := range want {
		if !ring[i].ApproxEqual(want[i], 1e-9) {
			t.Errorf("vertex %d: got %v, want %v", i, ring[i], want[i])
		}
	}
	if e.Mode() != mode.EditVertices {
		t.Errorf("expected EditVertices after commit, got %v", e.Mode())
	}
	if pv := e.Preview(); pv.AnchorIndex != NoVertex || len(pv.Draft) != 0 {
		t.Errorf("draft not cleared: %+v", pv)
	}
}

func TestAddPointSameVertexIsDegenerate(t *testing.T) {
	e, _ := newEngine(t)
	selectSquare(t, e)
	if err := e.Request(Action{Kind: ActionBeginAddPoints, PolygonID: "sq", Vertex: 2}); err != nil {
		t.Fatalf("begin add points failed: %v", err)
	}
	err := e.Request(Action{Kind: ActionAddPoint, PolygonID: "sq", Vertex: 2})
	if !errors.Is(err, pathfind.ErrDegenerateSelection) {
		t.Errorf("expected ErrDegenerateSelection, got %v", err)
	}
	if e.Mode() != mode.AddPoints {
		t.Errorf("degenerate click should keep the sub-mode, got %v", e.Mode())
	}
}

func TestFreePointNeedsAnchor(t *testing.T) {
	e, _ := newEngine(t)
	selectSquare(t, e)
	if err := e.Request(Action{Kind: ActionBeginAddPoints, PolygonID: "sq", Vertex: NoVertex}); err != nil {
		t.Fatalf("begin add points failed: %v", err)
	}
	err := e.Request(Action{Kind: ActionAddPoint, PolygonID: "sq", Vertex: NoVertex, Point: pt(1, 1)})
	if !errors.Is(err, ErrNoAnchor) {
		t.Errorf("expected ErrNoAnchor, got %v", err)
	}
}

func TestSliceFlow(t *testing.T) {
	e, rec := newEngine(t)
	selectSquare(t, e)
	if err := e.Request(Action{Kind: ActionBeginSlice, PolygonID: "sq", Vertex: NoVertex}); err != nil {
		t.Fatalf("begin slice failed: %v", err)
	}

	if err := e.PointerDown(pt(1, 1), ButtonPrimary, 0); err != nil {
		t.Fatalf("anchor click failed: %v", err)
	}
	if err := e.PointerDown(pt(99, 99), ButtonPrimary, 0); err != nil {
		t.Fatalf("slice click failed: %v", err)
	}

	set := e.Polygons()
	if set.Len() != 2 || set.Has("sq") || !set.Has("sq-a") || !set.Has("sq-b") {
		t.Fatalf("unexpected polygons %v", set.IDs())
	}
	split, ok := rec.last(EventPolygonRetired).(edit.Split)
	if !ok || split.Retired != "sq" {
		t.Errorf("unexpected retire event %+v", rec.last(EventPolygonRetired))
	}
	if e.Mode() != mode.View || e.Selected() != "" {
		t.Errorf("expected View after slicing, got %v %q", e.Mode(), e.Selected())
	}

	if err := e.Request(Action{Kind: ActionUndo}); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if !e.Polygons().Has("sq") || e.Polygons().Len() != 1 {
		t.Errorf("undo should restore the original ring, got %v", e.Polygons().IDs())
	}
}

func TestSliceAdjacentVerticesRejected(t *testing.T) {
	e, _ := newEngine(t)
	selectSquare(t, e)
	if err := e.Request(Action{Kind: ActionBeginSlice, PolygonID: "sq", Vertex: 0}); err != nil {
		t.Fatalf("begin slice failed: %v", err)
	}
	err := e.Request(Action{Kind: ActionSliceTo, PolygonID: "sq", Vertex: 1})
	if !errors.Is(err, polygon.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
	if e.Mode() != mode.Slice || !e.Polygons().Has("sq") {
		t.Errorf("rejected slice changed state: mode %v ids %v", e.Mode(), e.Polygons().IDs())
	}
}

func TestEscapeBacksOut(t *testing.T) {
	e, _ := newEngine(t)
	selectSquare(t, e)
	if err := e.Request(Action{Kind: ActionBeginAddPoints, PolygonID: "sq", Vertex: 0}); err != nil {
		t.Fatalf("begin add points failed: %v", err)
	}

	steps := []struct {
		wantMode   mode.Mode
		wantAnchor int
	}{
		{mode.AddPoints, NoVertex},
		{mode.EditVertices, NoVertex},
		{mode.View, NoVertex},
	}
	for i, s := range steps {
		if err := e.KeyPress(KeyEscape); err != nil {
			t.Fatalf("escape %d: %v", i, err)
		}
		if e.Mode() != s.wantMode || e.Preview().AnchorIndex != s.wantAnchor {
			t.Errorf("escape %d: mode %v anchor %d", i, e.Mode(), e.Preview().AnchorIndex)
		}
	}
}

func TestDeleteKeyActsOnHoveredVertex(t *testing.T) {
	e, _ := newEngine(t)
	selectSquare(t, e)
	e.PointerMove(pt(98, 3))
	if v := e.HoveredVertex(); v != 1 {
		t.Fatalf("HoveredVertex = %d, want 1", v)
	}
	if err := e.KeyPress(KeyDelete); err != nil {
		t.Fatalf("delete key failed: %v", err)
	}
	ring := ringOf(t, e, "sq")
	if len(ring) != 3 || ring[1] != pt(100, 100) {
		t.Errorf("expected vertex 1 removed, got %v", ring)
	}
}

func TestSetViewportValidates(t *testing.T) {
	e, _ := newEngine(t)
	if err := e.SetViewport(0, pt(0, 0)); !errors.Is(err, viewport.ErrInvalidTransformParameters) {
		t.Errorf("expected ErrInvalidTransformParameters, got %v", err)
	}
	if e.Viewport() != viewport.Identity() {
		t.Errorf("invalid viewport should not be installed")
	}
}

func TestLoadResetsState(t *testing.T) {
	e, _ := newEngine(t)
	selectSquare(t, e)
	_ = e.Request(Action{Kind: ActionDeleteVertex, PolygonID: "sq", Vertex: 0})

	other, err := polygon.NewSet(polygon.Polygon{ID: "b", Points: square})
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	if err := e.Load(other); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if e.Mode() != mode.View || e.CanUndo() || !e.Snapshot().Has("b") {
		t.Errorf("Load did not reset: mode %v undo %v", e.Mode(), e.CanUndo())
	}
}
