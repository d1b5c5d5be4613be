// Package pathfind chooses between the two boundary traversals joining a pair
// of vertices on a ring.
package pathfind

import (
	"errors"
	"fmt"
	"log"

	"seg-editor/internal/polygon"
	"seg-editor/pkg/geometry"

	"gonum.org/v1/gonum/floats"
)

// ErrDegenerateSelection is returned, together with a usable single-vertex
// Result, when the start and end indices coincide.
var ErrDegenerateSelection = errors.New("degenerate selection")

// ErrInvalidPath is returned when a Result does not describe a contiguous
// arc of the ring it is checked against.
var ErrInvalidPath = errors.New("invalid path")

// Direction is the traversal direction relative to ring storage order.
type Direction int

const (
	None     Direction = iota // Degenerate, single vertex
	Forward                   // Increasing indices (clockwise)
	Backward                  // Decreasing indices (counter-clockwise)
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "none"
	}
}

// Result is an ordered run of ring indices from Start to End inclusive.
type Result struct {
	Indices   []int     `json:"indices"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Direction Direction `json:"direction"`
	Length    float64   `json:"length"`
}

// Clockwise reports whether the path follows storage order.
func (r Result) Clockwise() bool {
	return r.Direction == Forward
}

// Interior returns the indices strictly between Start and End.
func (r Result) Interior() []int {
	if len(r.Indices) <= 2 {
		return nil
	}
	return r.Indices[1 : len(r.Indices)-1]
}

// Points resolves the path's indices against a ring.
func (r Result) Points(ring []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, 0, len(r.Indices))
	for _, i := range r.Indices {
		if i >= 0 && i < len(ring) {
			out = append(out, ring[i])
		}
	}
	return out
}

// FindPath returns the shorter of the two traversals from start to end, by
// total Euclidean edge length. An exact tie goes to the forward traversal.
//
// When start == end the selection is logged and a single-vertex Result is
// returned along with ErrDegenerateSelection.
func FindPath(ring []geometry.Point2D, start, end int) (Result, error) {
	forward, backward, err := Traversals(ring, start, end)
	if err != nil {
		return forward, err
	}
	if backward.Length < forward.Length {
		return backward, nil
	}
	return forward, nil
}

// Traversals returns both candidate paths from start to end. Every ring index
// appears in exactly one of them except the two shared endpoints.
func Traversals(ring []geometry.Point2D, start, end int) (forward, backward Result, err error) {
	n := len(ring)
	if n < polygon.MinRingPoints {
		return Result{}, Result{}, fmt.Errorf("%w: ring has %d points", polygon.ErrInvariantViolation, n)
	}
	if start < 0 || start >= n || end < 0 || end >= n {
		return Result{}, Result{}, fmt.Errorf("%w: path %d->%d on ring of %d", polygon.ErrOutOfRange, start, end, n)
	}

	if start == end {
		log.Printf("pathfind: degenerate selection, start and end are both vertex %d", start)
		single := Result{Indices: []int{start}, Start: start, End: end, Direction: None}
		return single, single, ErrDegenerateSelection
	}

	forward = walk(ring, start, end, 1)
	backward = walk(ring, start, end, n-1)
	return forward, backward, nil
}

// walk steps from start by step (mod n) until it reaches end.
func walk(ring []geometry.Point2D, start, end, step int) Result {
	n := len(ring)
	indices := []int{start}
	var lengths []float64
	for i := start; i != end; {
		next := (i + step) % n
		lengths = append(lengths, ring[i].Distance(ring[next]))
		indices = append(indices, next)
		i = next
	}

	dir := Forward
	if step != 1 {
		dir = Backward
	}
	return Result{
		Indices:   indices,
		Start:     start,
		End:       end,
		Direction: dir,
		Length:    floats.Sum(lengths),
	}
}

// Validate checks that r describes a contiguous arc on a ring of n vertices.
// Every failure wraps ErrInvalidPath; a single-vertex path also wraps
// ErrDegenerateSelection and a bad index polygon.ErrOutOfRange.
func (r Result) Validate(n int) error {
	if len(r.Indices) < 2 {
		if r.Start == r.End {
			return fmt.Errorf("%w: %w", ErrInvalidPath, ErrDegenerateSelection)
		}
		return fmt.Errorf("%w: path has %d indices", ErrInvalidPath, len(r.Indices))
	}
	if r.Indices[0] != r.Start || r.Indices[len(r.Indices)-1] != r.End {
		return fmt.Errorf("%w: endpoints %d->%d do not match indices", ErrInvalidPath, r.Start, r.End)
	}
	if r.Start == r.End {
		return fmt.Errorf("%w: %w", ErrInvalidPath, ErrDegenerateSelection)
	}
	if len(r.Indices) > n {
		return fmt.Errorf("%w: %d indices on a ring of %d", ErrInvalidPath, len(r.Indices), n)
	}

	step := 1
	if r.Direction == Backward {
		step = n - 1
	} else if r.Direction != Forward {
		return fmt.Errorf("%w: no direction", ErrInvalidPath)
	}
	for k, i := range r.Indices {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: %w: index %d on ring of %d", ErrInvalidPath, polygon.ErrOutOfRange, i, n)
		}
		if k > 0 && (r.Indices[k-1]+step)%n != i {
			return fmt.Errorf("%w: not contiguous at position %d", ErrInvalidPath, k)
		}
	}
	return nil
}
