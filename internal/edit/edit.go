// Package edit applies discrete vertex edits to a polygon set. Every function
// takes the current set and returns a new one; on error the input set is
// returned unchanged and no ring is modified in place.
package edit

import (
	"fmt"

	"seg-editor/internal/pathfind"
	"seg-editor/internal/polygon"
	"seg-editor/pkg/geometry"
)

// ErrInvalidPath is returned when a path does not describe an arc of the
// target ring, or two paths are not complementary.
var ErrInvalidPath = pathfind.ErrInvalidPath

// DeleteVertex removes vertex i from polygon id. Later indices shift down by
// one. A ring already at the minimum size is left alone.
func DeleteVertex(set polygon.Set, id string, i int) (polygon.Set, error) {
	p, err := set.Lookup(id)
	if err != nil {
		return set, err
	}
	if err := p.CheckIndex(i); err != nil {
		return set, err
	}
	if p.Len()-1 < polygon.MinRingPoints {
		return set, fmt.Errorf("%w: deleting vertex %d would leave polygon %s with %d points",
			polygon.ErrInvariantViolation, i, id, p.Len()-1)
	}

	pts := make([]geometry.Point2D, 0, p.Len()-1)
	pts = append(pts, p.Points[:i]...)
	pts = append(pts, p.Points[i+1:]...)
	return set.With(p.WithPoints(pts))
}

// DuplicateVertex inserts a copy of vertex i directly after it, leaving a
// zero-length edge for the user to drag apart.
func DuplicateVertex(set polygon.Set, id string, i int) (polygon.Set, error) {
	p, err := set.Lookup(id)
	if err != nil {
		return set, err
	}
	if err := p.CheckIndex(i); err != nil {
		return set, err
	}
	return set.With(p.WithPoints(insertAt(p.Points, i+1, p.Points[i])))
}

// InsertVertex inserts pt on edge segment, between vertex segment and
// segment+1 mod n.
func InsertVertex(set polygon.Set, id string, segment int, pt geometry.Point2D) (polygon.Set, error) {
	p, err := set.Lookup(id)
	if err != nil {
		return set, err
	}
	if err := p.CheckIndex(segment); err != nil {
		return set, err
	}
	return set.With(p.WithPoints(insertAt(p.Points, segment+1, pt)))
}

// MoveVertex sets vertex i of polygon id to pt.
func MoveVertex(set polygon.Set, id string, i int, pt geometry.Point2D) (polygon.Set, error) {
	p, err := set.Lookup(id)
	if err != nil {
		return set, err
	}
	if err := p.CheckIndex(i); err != nil {
		return set, err
	}
	pts := make([]geometry.Point2D, p.Len())
	copy(pts, p.Points)
	pts[i] = pt
	return set.With(p.WithPoints(pts))
}

// DeletePolygon removes polygon id along with any holes it parents.
func DeletePolygon(set polygon.Set, id string) (polygon.Set, error) {
	next, err := set.Without(id)
	if err != nil {
		return set, err
	}
	for _, h := range set.Children(id) {
		if next, err = next.Without(h.ID); err != nil {
			return set, err
		}
	}
	return next, nil
}

// InsertAlongPath replaces the interior of the arc described by path with
// newPoints, given in order from path.Start to path.End. The arc endpoints
// and every vertex outside the arc keep their relative storage order, and
// the ring keeps its orientation.
func InsertAlongPath(set polygon.Set, id string, path pathfind.Result, newPoints []geometry.Point2D) (polygon.Set, error) {
	p, err := set.Lookup(id)
	if err != nil {
		return set, err
	}
	n := p.Len()
	if err := path.Validate(n); err != nil {
		return set, err
	}

	removed := make(map[int]bool, len(path.Indices))
	for _, i := range path.Interior() {
		removed[i] = true
	}

	// Forward arcs get the new points after Start in storage order; backward
	// arcs get them reversed after End.
	anchor, fill := path.Start, newPoints
	if path.Direction == pathfind.Backward {
		anchor, fill = path.End, reversed(newPoints)
	}

	pts := make([]geometry.Point2D, 0, n-len(removed)+len(newPoints))
	for i := 0; i < n; i++ {
		if removed[i] {
			continue
		}
		pts = append(pts, p.Points[i])
		if i == anchor {
			pts = append(pts, fill...)
		}
	}

	if len(pts) < polygon.MinRingPoints {
		return set, fmt.Errorf("%w: inserting along %v would leave polygon %s with %d points",
			polygon.ErrInvariantViolation, path.Indices, id, len(pts))
	}
	return set.With(p.WithPoints(pts))
}

// Split reports the outcome of SplitRing: Retired no longer exists and the
// two Created ids replace it at its z-position.
type Split struct {
	Retired string
	Created [2]string
}

// SplitRing cuts polygon id into two rings along the complementary arcs
// pathA and pathB, which must join the same pair of vertices. Each arc
// becomes a ring closed by the edge joining the shared endpoints.
func SplitRing(set polygon.Set, id string, pathA, pathB pathfind.Result) (polygon.Set, Split, error) {
	p, err := set.Lookup(id)
	if err != nil {
		return set, Split{}, err
	}
	n := p.Len()
	if err := checkComplementary(n, pathA, pathB); err != nil {
		return set, Split{}, err
	}

	ringA := arcRing(p.Points, pathA)
	ringB := arcRing(p.Points, pathB)
	if len(ringA) < polygon.MinRingPoints || len(ringB) < polygon.MinRingPoints {
		return set, Split{}, fmt.Errorf("%w: slicing polygon %s between vertices %d and %d gives rings of %d and %d points",
			polygon.ErrInvariantViolation, id, pathA.Start, pathA.End, len(ringA), len(ringB))
	}

	a := p.WithPoints(ringA)
	a.ID = set.UniqueID(id + "-a")
	b := p.WithPoints(ringB)
	b.ID = set.UniqueID(id + "-b")

	next, err := set.Replace(id, a, b)
	if err != nil {
		return set, Split{}, err
	}

	if p.Kind == polygon.KindExternal {
		for _, h := range set.Children(id) {
			h.ParentID = a.ID
			if len(h.Points) > 0 && !a.Contains(h.Points[0]) && b.Contains(h.Points[0]) {
				h.ParentID = b.ID
			}
			if next, err = next.With(h); err != nil {
				return set, Split{}, err
			}
		}
	}

	return next, Split{Retired: id, Created: [2]string{a.ID, b.ID}}, nil
}

// checkComplementary verifies that a and b are the two arcs between one pair
// of vertices on a ring of n points.
func checkComplementary(n int, a, b pathfind.Result) error {
	if err := a.Validate(n); err != nil {
		return fmt.Errorf("first path: %w", err)
	}
	if err := b.Validate(n); err != nil {
		return fmt.Errorf("second path: %w", err)
	}
	sameEnds := (a.Start == b.Start && a.End == b.End) || (a.Start == b.End && a.End == b.Start)
	if !sameEnds {
		return fmt.Errorf("%w: paths join %d-%d and %d-%d", ErrInvalidPath, a.Start, a.End, b.Start, b.End)
	}
	if len(a.Indices)+len(b.Indices) != n+2 {
		return fmt.Errorf("%w: paths cover %d indices, ring has %d", ErrInvalidPath, len(a.Indices)+len(b.Indices)-2, n)
	}

	seen := make(map[int]bool, n)
	for _, i := range a.Indices {
		seen[i] = true
	}
	for _, i := range b.Interior() {
		if seen[i] {
			return fmt.Errorf("%w: vertex %d lies on both paths", ErrInvalidPath, i)
		}
		seen[i] = true
	}
	return nil
}

// arcRing returns the arc's points in storage order so the new ring keeps
// the source winding.
func arcRing(ring []geometry.Point2D, path pathfind.Result) []geometry.Point2D {
	pts := path.Points(ring)
	if path.Direction == pathfind.Backward {
		return reversed(pts)
	}
	return pts
}

func insertAt(points []geometry.Point2D, at int, pt geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, 0, len(points)+1)
	out = append(out, points[:at]...)
	out = append(out, pt)
	out = append(out, points[at:]...)
	return out
}

func reversed(points []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}
