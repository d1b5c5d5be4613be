package geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// ProjectOntoSegment returns the point on segment a-b closest to p and the
// segment parameter t in [0, 1]. A zero-length segment projects onto a.
func ProjectOntoSegment(p, a, b Point2D) (Point2D, float64) {
	ab := r2.Sub(b.Vec(), a.Vec())
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return a, 0
	}

	t := r2.Dot(r2.Sub(p.Vec(), a.Vec()), ab) / l2
	t = math.Max(0, math.Min(1, t))
	return FromVec(r2.Add(a.Vec(), r2.Scale(t, ab))), t
}

// DistanceToSegment returns the distance from p to the closed segment a-b.
func DistanceToSegment(p, a, b Point2D) float64 {
	proj, _ := ProjectOntoSegment(p, a, b)
	return p.Distance(proj)
}

// SignedArea returns the shoelace area of a ring. The sign is positive when
// the vertices run counter-clockwise in a y-up frame (clockwise on screen).
func SignedArea(ring []Point2D) float64 {
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r2.Cross(ring[i].Vec(), ring[j].Vec())
	}
	return sum / 2
}

// Area returns the absolute area of a ring.
func Area(ring []Point2D) float64 {
	return math.Abs(SignedArea(ring))
}

// Perimeter returns the closed length of a ring, including the wrap-around edge.
func Perimeter(ring []Point2D) float64 {
	if len(ring) < 2 {
		return 0
	}
	var total float64
	n := len(ring)
	for i := 0; i < n; i++ {
		total += ring[i].Distance(ring[(i+1)%n])
	}
	return total
}

// AreaCentroid returns the centroid of the region enclosed by a ring. It
// falls back to the vertex average for rings with zero area.
func AreaCentroid(ring []Point2D) Point2D {
	a := SignedArea(ring)
	if math.Abs(a) < Epsilon {
		return Centroid(ring)
	}
	var cx, cy float64
	n := len(ring)
	for i := 0; i < n; i++ {
		p, q := ring[i], ring[(i+1)%n]
		cross := p.X*q.Y - q.X*p.Y
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	return Point2D{X: cx / (6 * a), Y: cy / (6 * a)}
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := polygon[i], polygon[j]
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// SegmentIntersection computes the intersection of segments p1-p2 and p3-p4.
// Parallel segments never intersect.
func SegmentIntersection(p1, p2, p3, p4 Point2D) (Point2D, bool) {
	d1 := r2.Sub(p2.Vec(), p1.Vec())
	d2 := r2.Sub(p4.Vec(), p3.Vec())
	denom := r2.Cross(d1, d2)
	if math.Abs(denom) < 1e-12 {
		return Point2D{}, false
	}

	w := r2.Sub(p3.Vec(), p1.Vec())
	t := r2.Cross(w, d2) / denom
	u := r2.Cross(w, d1) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point2D{}, false
	}
	return p1.Lerp(p2, t), true
}

// PolygonsIntersect reports whether two rings overlap: a vertex of either lies
// inside the other, or any pair of edges crosses.
func PolygonsIntersect(a, b []Point2D) bool {
	for _, p := range a {
		if PointInPolygon(p, b) {
			return true
		}
	}
	for _, p := range b {
		if PointInPolygon(p, a) {
			return true
		}
	}
	for i := range a {
		a1, a2 := a[i], a[(i+1)%len(a)]
		for k := range b {
			if _, ok := SegmentIntersection(a1, a2, b[k], b[(k+1)%len(b)]); ok {
				return true
			}
		}
	}
	return false
}

// ConvexHull computes the convex hull of a set of points using Graham scan.
// Returns the points forming the convex hull in counter-clockwise order.
func ConvexHull(points []Point2D) []Point2D {
	if len(points) < 3 {
		return append([]Point2D(nil), points...)
	}

	pts := make([]Point2D, len(points))
	copy(pts, points)

	// Lowest y, leftmost on ties, becomes the pivot.
	lowest := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[lowest].Y ||
			(pts[i].Y == pts[lowest].Y && pts[i].X < pts[lowest].X) {
			lowest = i
		}
	}
	pts[0], pts[lowest] = pts[lowest], pts[0]
	pivot := pts[0]

	rest := pts[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		cross := crossProduct(pivot, rest[i], rest[j])
		if cross == 0 {
			return distSq(pivot, rest[i]) < distSq(pivot, rest[j])
		}
		return cross > 0
	})

	hull := []Point2D{pivot}
	for _, p := range rest {
		for len(hull) > 1 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return hull
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return r2.Cross(r2.Sub(a.Vec(), o.Vec()), r2.Sub(b.Vec(), o.Vec()))
}

func distSq(a, b Point2D) float64 {
	return r2.Norm2(r2.Sub(b.Vec(), a.Vec()))
}
