// Package hover resolves which ring edge or vertex lies under the pointer.
// Every function is pure; callers recompute on each pointer event and may
// drop a result at any time.
package hover

import (
	"math"

	"seg-editor/internal/polygon"
	"seg-editor/pkg/geometry"
)

// State identifies the edge nearest the cursor. The edge joins vertex
// SegmentIndex and SegmentIndex+1 mod n.
type State struct {
	PolygonID    string           `json:"polygonId"`
	SegmentIndex int              `json:"segmentIndex"`
	Projected    geometry.Point2D `json:"projectedPoint"`
	Distance     float64          `json:"distance"`
}

// Resolve projects cursor onto every edge of ring, clamped to the segment,
// and returns the nearest edge when it lies within threshold (image units).
// Equal distances resolve to the lowest segment index.
func Resolve(polygonID string, ring []geometry.Point2D, cursor geometry.Point2D, threshold float64) (State, bool) {
	n := len(ring)
	if n < 2 {
		return State{}, false
	}

	best := State{PolygonID: polygonID, SegmentIndex: -1, Distance: math.Inf(1)}
	for i := 0; i < n; i++ {
		proj, _ := geometry.ProjectOntoSegment(cursor, ring[i], ring[(i+1)%n])
		d := cursor.Distance(proj)
		if d < best.Distance {
			best.SegmentIndex = i
			best.Projected = proj
			best.Distance = d
		}
	}

	if best.SegmentIndex < 0 || best.Distance > threshold {
		return State{}, false
	}
	return best, true
}

// ResolveSet runs Resolve over every ring. On equal distances the ring drawn
// on top (later in z-order) wins, matching what the user sees.
func ResolveSet(set polygon.Set, cursor geometry.Point2D, threshold float64) (State, bool) {
	var best State
	found := false
	for _, p := range set.Polygons() {
		st, ok := Resolve(p.ID, p.Points, cursor, threshold)
		if !ok {
			continue
		}
		if !found || st.Distance <= best.Distance {
			best = st
			found = true
		}
	}
	return best, found
}

// NearestVertex returns the index of the vertex closest to cursor within
// threshold. Ties go to the lowest index.
func NearestVertex(ring []geometry.Point2D, cursor geometry.Point2D, threshold float64) (int, bool) {
	bestIdx := -1
	bestDist := math.Inf(1)
	for i, p := range ring {
		if d := cursor.Distance(p); d < bestDist {
			bestIdx = i
			bestDist = d
		}
	}
	if bestIdx < 0 || bestDist > threshold {
		return -1, false
	}
	return bestIdx, true
}

// PolygonAt returns the topmost external ring containing pt. A point inside
// one of that ring's holes does not count as inside.
func PolygonAt(set polygon.Set, pt geometry.Point2D) (polygon.Polygon, bool) {
	polys := set.Polygons()
	for i := len(polys) - 1; i >= 0; i-- {
		p := polys[i]
		if p.Kind != polygon.KindExternal || !p.Contains(pt) {
			continue
		}
		inHole := false
		for _, h := range set.Children(p.ID) {
			if h.Contains(pt) {
				inHole = true
				break
			}
		}
		if !inHole {
			return p, true
		}
	}
	return polygon.Polygon{}, false
}
