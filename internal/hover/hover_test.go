package hover

import (
	"math"
	"testing"

	"seg-editor/internal/polygon"
	"seg-editor/pkg/geometry"
)

var square = []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

func TestResolveMidpoint(t *testing.T) {
	tests := []struct {
		name    string
		cursor  geometry.Point2D
		wantSeg int
		wantP   geometry.Point2D
	}{
		{"top edge", geometry.Point2D{X: 5, Y: 0}, 0, geometry.Point2D{X: 5, Y: 0}},
		{"right edge", geometry.Point2D{X: 10, Y: 5}, 1, geometry.Point2D{X: 10, Y: 5}},
		{"bottom edge", geometry.Point2D{X: 5, Y: 10}, 2, geometry.Point2D{X: 5, Y: 10}},
		{"closing edge", geometry.Point2D{X: 0, Y: 5}, 3, geometry.Point2D{X: 0, Y: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := Resolve("sq", square, tt.cursor, 1)
			if !ok {
				t.Fatalf("expected a hover hit")
			}
			if st.SegmentIndex != tt.wantSeg {
				t.Errorf("segment: got %d, want %d", st.SegmentIndex, tt.wantSeg)
			}
			if !st.Projected.ApproxEqual(tt.wantP, 1e-12) {
				t.Errorf("projected: got %v, want %v", st.Projected, tt.wantP)
			}
			if st.PolygonID != "sq" || st.Distance != 0 {
				t.Errorf("unexpected state %+v", st)
			}
		})
	}
}

func TestResolveProjectsOffEdgeCursor(t *testing.T) {
	st, ok := Resolve("sq", square, geometry.Point2D{X: 4, Y: -2}, 3)
	if !ok {
		t.Fatal("expected a hover hit")
	}
	if st.SegmentIndex != 0 || !st.Projected.ApproxEqual(geometry.Point2D{X: 4, Y: 0}, 1e-12) {
		t.Errorf("got %+v", st)
	}
	if math.Abs(st.Distance-2) > 1e-12 {
		t.Errorf("distance: got %v, want 2", st.Distance)
	}
}

func TestResolveThreshold(t *testing.T) {
	if _, ok := Resolve("sq", square, geometry.Point2D{X: 5, Y: -5}, 4.9); ok {
		t.Errorf("cursor 5 units away should be outside threshold 4.9")
	}
	if _, ok := Resolve("sq", square, geometry.Point2D{X: 5, Y: -5}, 5); !ok {
		t.Errorf("cursor exactly at threshold should hit")
	}
	if _, ok := Resolve("sq", square, geometry.Point2D{X: 5, Y: 5}, 1); ok {
		t.Errorf("center of a 10x10 square is 5 units from every edge")
	}
}

func TestResolveTieLowestIndex(t *testing.T) {
	// Corner (10,0) is equidistant from edges 0 and 1.
	st, ok := Resolve("sq", square, geometry.Point2D{X: 11, Y: -1}, 5)
	if !ok {
		t.Fatal("expected a hover hit")
	}
	if st.SegmentIndex != 0 {
		t.Errorf("tie should resolve to segment 0, got %d", st.SegmentIndex)
	}
}

func TestResolveSetPrefersTopmost(t *testing.T) {
	a := polygon.Polygon{ID: "a", Points: square}
	b := polygon.Polygon{ID: "b", Points: square}
	set, err := polygon.NewSet(a, b)
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	st, ok := ResolveSet(set, geometry.Point2D{X: 5, Y: 0.5}, 1)
	if !ok || st.PolygonID != "b" {
		t.Errorf("expected topmost ring b, got %+v ok=%v", st, ok)
	}
	if _, ok := ResolveSet(set, geometry.Point2D{X: 50, Y: 50}, 1); ok {
		t.Errorf("far cursor should not resolve")
	}
}

func TestNearestVertex(t *testing.T) {
	if i, ok := NearestVertex(square, geometry.Point2D{X: 9, Y: 9.5}, 2); !ok || i != 2 {
		t.Errorf("got %d ok=%v, want 2", i, ok)
	}
	if _, ok := NearestVertex(square, geometry.Point2D{X: 5, Y: 5}, 2); ok {
		t.Errorf("center should not hit a vertex")
	}
}

func TestPolygonAtSkipsHoles(t *testing.T) {
	outer := polygon.Polygon{ID: "outer", Kind: polygon.KindExternal, Points: []geometry.Point2D{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}}
	hole := polygon.Polygon{ID: "hole", Kind: polygon.KindInternal, ParentID: "outer", Points: []geometry.Point2D{
		{X: 40, Y: 40}, {X: 60, Y: 40}, {X: 60, Y: 60}, {X: 40, Y: 60},
	}}
	set, err := polygon.NewSet(outer, hole)
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}

	if p, ok := PolygonAt(set, geometry.Point2D{X: 10, Y: 10}); !ok || p.ID != "outer" {
		t.Errorf("expected outer, got %v ok=%v", p.ID, ok)
	}
	if _, ok := PolygonAt(set, geometry.Point2D{X: 50, Y: 50}); ok {
		t.Errorf("point inside the hole should not select the outer ring")
	}
}
