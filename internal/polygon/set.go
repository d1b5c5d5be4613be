package polygon

import (
	"fmt"
)

// Set is an immutable collection of polygons keyed by id. Insertion order is
// kept for deterministic z-ordering: later polygons draw on top.
//
// All methods that change the set return a new Set. Rings are shared between
// sets, so a Polygon obtained from a Set must never have its Points modified
// in place; build a new slice and use With instead.
type Set struct {
	order []string
	byID  map[string]Polygon
}

// NewSet validates and collects polygons in the given order.
func NewSet(polygons ...Polygon) (Set, error) {
	s := Set{
		order: make([]string, 0, len(polygons)),
		byID:  make(map[string]Polygon, len(polygons)),
	}
	for _, p := range polygons {
		if err := p.Validate(); err != nil {
			return Set{}, err
		}
		if _, exists := s.byID[p.ID]; exists {
			return Set{}, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		s.byID[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return s, nil
}

// Len returns the number of polygons.
func (s Set) Len() int {
	return len(s.order)
}

// IDs returns polygon ids in z-order.
func (s Set) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns the polygon with the given id.
func (s Set) Get(id string) (Polygon, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Lookup is Get with an ErrNotFound error.
func (s Set) Lookup(id string) (Polygon, error) {
	p, ok := s.byID[id]
	if !ok {
		return Polygon{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Polygons returns all polygons in z-order.
func (s Set) Polygons() []Polygon {
	out := make([]Polygon, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Children returns the holes whose parent is id, in z-order.
func (s Set) Children(id string) []Polygon {
	var out []Polygon
	for _, cid := range s.order {
		if p := s.byID[cid]; p.ParentID == id && p.Kind == KindInternal {
			out = append(out, p)
		}
	}
	return out
}

// With returns a set where p replaces the polygon with the same id, keeping
// its z-position, or is appended on top when the id is new.
func (s Set) With(p Polygon) (Set, error) {
	if err := p.Validate(); err != nil {
		return s, err
	}
	next := s.clone()
	if _, exists := next.byID[p.ID]; !exists {
		next.order = append(next.order, p.ID)
	}
	next.byID[p.ID] = p
	return next, nil
}

// Without returns a set with id removed.
func (s Set) Without(id string) (Set, error) {
	if !s.Has(id) {
		return s, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := s.clone()
	delete(next.byID, id)
	next.order = removeID(next.order, id)
	return next, nil
}

// Replace swaps the polygon id for the given replacements, which take its
// z-position in the order given.
func (s Set) Replace(id string, replacements ...Polygon) (Set, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return s, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := s.clone()
	delete(next.byID, id)

	ids := make([]string, 0, len(replacements))
	for _, p := range replacements {
		if err := p.Validate(); err != nil {
			return s, err
		}
		if _, exists := next.byID[p.ID]; exists {
			return s, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		next.byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	order := make([]string, 0, len(s.order)-1+len(ids))
	order = append(order, s.order[:idx]...)
	order = append(order, ids...)
	order = append(order, s.order[idx+1:]...)
	next.order = order
	return next, nil
}

// UniqueID returns base when unused, otherwise base with the smallest numeric
// suffix that is free.
func (s Set) UniqueID(base string) string {
	if !s.Has(base) {
		return base
	}
	for i := 2; ; i++ {
		id := fmt.Sprintf("%s-%d", base, i)
		if !s.Has(id) {
			return id
		}
	}
}

// Validate re-checks every ring invariant.
func (s Set) Validate() error {
	for _, id := range s.order {
		if err := s.byID[id].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s Set) indexOf(id string) int {
	for i, oid := range s.order {
		if oid == id {
			return i
		}
	}
	return -1
}

// clone copies the order slice and map header; ring values are shared.
func (s Set) clone() Set {
	next := Set{
		order: make([]string, len(s.order)),
		byID:  make(map[string]Polygon, len(s.byID)+1),
	}
	copy(next.order, s.order)
	for id, p := range s.byID {
		next.byID[id] = p
	}
	return next
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
