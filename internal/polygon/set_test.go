package polygon

import (
	"encoding/json"
	"errors"
	"testing"

	"seg-editor/pkg/geometry"
)

func square(id string, x, y, size float64) Polygon {
	return Polygon{
		ID:   id,
		Kind: KindExternal,
		Points: []geometry.Point2D{
			{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size},
		},
	}
}

func TestNewRejectsShortRing(t *testing.T) {
	_, err := New("p", KindExternal, []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestNewCopiesPoints(t *testing.T) {
	pts := []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	p, err := New("p", KindExternal, pts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	pts[0].X = 99
	if p.Points[0].X != 0 {
		t.Errorf("polygon shares caller's slice")
	}
}

func TestNewSetDuplicateID(t *testing.T) {
	_, err := NewSet(square("a", 0, 0, 1), square("a", 5, 5, 1))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestSetWithIsFunctional(t *testing.T) {
	s, err := NewSet(square("a", 0, 0, 10), square("b", 20, 0, 10))
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}

	a, _ := s.Get("a")
	moved := a.WithPoints([]geometry.Point2D{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}})
	next, err := s.With(moved)
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}

	if got, _ := s.Get("a"); got.Len() != 4 {
		t.Errorf("original set changed: polygon a has %d points", got.Len())
	}
	if got, _ := next.Get("a"); got.Len() != 3 {
		t.Errorf("new set: polygon a has %d points, want 3", got.Len())
	}
	if ids := next.IDs(); ids[0] != "a" || ids[1] != "b" {
		t.Errorf("z-order changed: %v", ids)
	}
}

func TestSetWithAppendsOnTop(t *testing.T) {
	s, _ := NewSet(square("a", 0, 0, 10))
	next, err := s.With(square("z", 0, 0, 1))
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	ids := next.IDs()
	if len(ids) != 2 || ids[1] != "z" {
		t.Errorf("expected z appended on top, got %v", ids)
	}
}

func TestSetReplaceKeepsPosition(t *testing.T) {
	s, _ := NewSet(square("a", 0, 0, 1), square("b", 0, 0, 1), square("c", 0, 0, 1))
	next, err := s.Replace("b", square("b1", 0, 0, 1), square("b2", 0, 0, 1))
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	want := []string{"a", "b1", "b2", "c"}
	got := next.IDs()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
	if next.Has("b") {
		t.Errorf("replaced id still present")
	}
	if !s.Has("b") {
		t.Errorf("original set lost b")
	}
}

func TestSetReplaceRejectsCollision(t *testing.T) {
	s, _ := NewSet(square("a", 0, 0, 1), square("b", 0, 0, 1))
	next, err := s.Replace("a", square("b", 0, 0, 1))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if next.Len() != 2 || !next.Has("a") {
		t.Errorf("failed replace should return the unchanged set")
	}
}

func TestSetWithout(t *testing.T) {
	s, _ := NewSet(square("a", 0, 0, 1), square("b", 0, 0, 1))
	next, err := s.Without("a")
	if err != nil {
		t.Fatalf("Without failed: %v", err)
	}
	if next.Len() != 1 || next.Has("a") {
		t.Errorf("a not removed: %v", next.IDs())
	}
	if _, err := next.Without("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetChildrenAndUniqueID(t *testing.T) {
	hole := square("h", 2, 2, 2)
	hole.Kind = KindInternal
	hole.ParentID = "a"
	s, _ := NewSet(square("a", 0, 0, 10), hole, square("a-2", 50, 50, 1))

	if kids := s.Children("a"); len(kids) != 1 || kids[0].ID != "h" {
		t.Errorf("Children: got %v", kids)
	}
	if id := s.UniqueID("fresh"); id != "fresh" {
		t.Errorf("UniqueID(fresh) = %s", id)
	}
	if id := s.UniqueID("a"); id != "a-3" {
		t.Errorf("UniqueID(a) = %s, want a-3", id)
	}
}

func TestVertexOutOfRange(t *testing.T) {
	p := square("a", 0, 0, 1)
	for _, i := range []int{-1, 4, 100} {
		if _, err := p.Vertex(i); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Vertex(%d): expected ErrOutOfRange, got %v", i, err)
		}
	}
	a, b, err := p.Segment(3)
	if err != nil {
		t.Fatalf("Segment(3) failed: %v", err)
	}
	if a != p.Points[3] || b != p.Points[0] {
		t.Errorf("last segment should wrap to vertex 0")
	}
}

func TestKindJSON(t *testing.T) {
	data, err := json.Marshal(Polygon{ID: "h", Kind: KindInternal})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Polygon
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Kind != KindInternal {
		t.Errorf("kind: got %v, want internal (json %s)", back.Kind, data)
	}
}
