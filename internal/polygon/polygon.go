// Package polygon holds the editable annotation state: rings with a stable id
// and kind, collected into an immutable, ordered Set.
package polygon

import (
	"encoding/json"
	"errors"
	"fmt"

	"seg-editor/pkg/geometry"
)

// MinRingPoints is the smallest number of vertices a ring may have.
const MinRingPoints = 3

var (
	// ErrInvariantViolation is returned when an edit would leave a ring with
	// fewer than MinRingPoints vertices.
	ErrInvariantViolation = errors.New("ring invariant violated")

	// ErrOutOfRange is returned for a vertex or segment index outside [0, n).
	ErrOutOfRange = errors.New("index out of range")

	// ErrNotFound is returned when a polygon id is not in the set.
	ErrNotFound = errors.New("polygon not found")

	// ErrDuplicateID is returned when two polygons share an id.
	ErrDuplicateID = errors.New("duplicate polygon id")
)

// Kind distinguishes outer boundaries from holes. Geometry never consults it.
type Kind int

const (
	KindExternal Kind = iota // Outer boundary
	KindInternal             // Hole
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	default:
		return "external"
	}
}

// ParseKind converts the wire name of a kind. Unknown names are external.
func ParseKind(s string) Kind {
	if s == "internal" || s == "hole" {
		return KindInternal
	}
	return KindExternal
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseKind(s)
	return nil
}

// Polygon is a closed ring. Consecutive points, including last to first,
// form its edges.
type Polygon struct {
	ID       string             `json:"id"`
	Kind     Kind               `json:"type"`
	Points   []geometry.Point2D `json:"points"`
	ParentID string             `json:"parentId,omitempty"`
	Class    string             `json:"class,omitempty"`
	Color    string             `json:"color,omitempty"`
}

// New creates a validated polygon. The points are copied.
func New(id string, kind Kind, points []geometry.Point2D) (Polygon, error) {
	p := Polygon{ID: id, Kind: kind, Points: clonePoints(points)}
	if err := p.Validate(); err != nil {
		return Polygon{}, err
	}
	return p, nil
}

// Len returns the number of vertices.
func (p Polygon) Len() int {
	return len(p.Points)
}

// Validate checks the ring invariant.
func (p Polygon) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("polygon has empty id")
	}
	if len(p.Points) < MinRingPoints {
		return fmt.Errorf("%w: polygon %s has %d points, need at least %d",
			ErrInvariantViolation, p.ID, len(p.Points), MinRingPoints)
	}
	return nil
}

// Vertex returns the vertex at index i.
func (p Polygon) Vertex(i int) (geometry.Point2D, error) {
	if err := p.CheckIndex(i); err != nil {
		return geometry.Point2D{}, err
	}
	return p.Points[i], nil
}

// CheckIndex returns ErrOutOfRange unless 0 <= i < Len().
func (p Polygon) CheckIndex(i int) error {
	if i < 0 || i >= len(p.Points) {
		return fmt.Errorf("%w: vertex %d of polygon %s (len %d)", ErrOutOfRange, i, p.ID, len(p.Points))
	}
	return nil
}

// Segment returns the endpoints of edge i, which joins vertex i and i+1 mod n.
func (p Polygon) Segment(i int) (geometry.Point2D, geometry.Point2D, error) {
	if err := p.CheckIndex(i); err != nil {
		return geometry.Point2D{}, geometry.Point2D{}, err
	}
	return p.Points[i], p.Points[(i+1)%len(p.Points)], nil
}

// WithPoints returns a copy of p carrying the given points. The slice is
// taken over by the new polygon and must not be modified afterwards.
func (p Polygon) WithPoints(points []geometry.Point2D) Polygon {
	p.Points = points
	return p
}

// Clone returns a deep copy.
func (p Polygon) Clone() Polygon {
	p.Points = clonePoints(p.Points)
	return p
}

// Bounds returns the bounding box of the ring.
func (p Polygon) Bounds() geometry.Rect {
	return geometry.BoundingBox(p.Points)
}

// Contains reports whether pt lies inside the ring.
func (p Polygon) Contains(pt geometry.Point2D) bool {
	return geometry.PointInPolygon(pt, p.Points)
}

func clonePoints(points []geometry.Point2D) []geometry.Point2D {
	if points == nil {
		return nil
	}
	out := make([]geometry.Point2D, len(points))
	copy(out, points)
	return out
}
