// Package segmentation reads and writes segmentation results: the polygon
// list produced by the segmentation service and committed back after
// editing.
package segmentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"seg-editor/internal/polygon"
)

// ErrFailedResult is returned when a result reports success=false.
var ErrFailedResult = errors.New("segmentation failed")

// Result is the wire form of a segmentation result.
//
//	{"success": true, "polygons": [{"id": "...", "type": "external", "points": [{"x": 1, "y": 2}, ...]}]}
//
// Holes may be listed flat with a parentId, or nested under their parent's
// "holes" array.
type Result struct {
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Polygons []WirePolygon `json:"polygons"`
}

// WirePolygon is a polygon as it appears in a Result.
type WirePolygon struct {
	polygon.Polygon
	Holes []WirePolygon `json:"holes,omitempty"`
}

// Decode reads a Result and converts it to a polygon set.
func Decode(r io.Reader) (polygon.Set, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return polygon.Set{}, fmt.Errorf("decode segmentation result: %w", err)
	}
	return res.Set()
}

// Encode writes set as an indented Result.
func Encode(w io.Writer, set polygon.Set) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromSet(set))
}

// Load reads a segmentation result file.
func Load(path string) (polygon.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return polygon.Set{}, err
	}
	defer f.Close()

	set, err := Decode(f)
	if err != nil {
		return polygon.Set{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("segmentation: loaded %d polygons from %s", set.Len(), path)
	return set, nil
}

// Save writes set to path.
func Save(path string, set polygon.Set) error {
	data, err := json.MarshalIndent(FromSet(set), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	log.Printf("segmentation: saved %d polygons to %s", set.Len(), path)
	return nil
}

// FromSet builds the flat wire form of set in z-order.
func FromSet(set polygon.Set) Result {
	res := Result{Success: true, Polygons: make([]WirePolygon, 0, set.Len())}
	for _, p := range set.Polygons() {
		res.Polygons = append(res.Polygons, WirePolygon{Polygon: p})
	}
	return res
}

// Set validates res and builds a polygon set. Rings with fewer than three
// points are dropped with a log line; missing ids are generated as
// polygon-N or hole-N. Duplicate ids are an error.
func (res Result) Set() (polygon.Set, error) {
	if !res.Success {
		if res.Error != "" {
			return polygon.Set{}, fmt.Errorf("%w: %s", ErrFailedResult, res.Error)
		}
		return polygon.Set{}, ErrFailedResult
	}

	taken := make(map[string]bool)
	reserveIDs(res.Polygons, taken)
	var n int
	flat := flatten(res.Polygons, "", false, taken, &n)

	kept := make([]polygon.Polygon, 0, len(flat))
	for _, p := range flat {
		if len(p.Points) < polygon.MinRingPoints {
			log.Printf("segmentation: dropping %s with %d points", p.ID, len(p.Points))
			continue
		}
		kept = append(kept, p)
	}

	return polygon.NewSet(kept...)
}

func reserveIDs(in []WirePolygon, taken map[string]bool) {
	for _, w := range in {
		if w.ID != "" {
			taken[w.ID] = true
		}
		reserveIDs(w.Holes, taken)
	}
}

// flatten lists polygons with their nested holes after them, naming any
// that arrived without an id. n counts polygons visited so far.
func flatten(in []WirePolygon, parentID string, nested bool, taken map[string]bool, n *int) []polygon.Polygon {
	var out []polygon.Polygon
	for _, w := range in {
		*n++
		p := w.Polygon
		if nested {
			p.Kind = polygon.KindInternal
			if p.ParentID == "" {
				p.ParentID = parentID
			}
		}
		if p.ID == "" {
			p.ID = generateID(p.Kind, *n, taken)
		}
		out = append(out, p)
		out = append(out, flatten(w.Holes, p.ID, true, taken, n)...)
	}
	return out
}

func generateID(kind polygon.Kind, n int, taken map[string]bool) string {
	prefix := "polygon"
	if kind == polygon.KindInternal {
		prefix = "hole"
	}
	id := fmt.Sprintf("%s-%d", prefix, n)
	for k := 2; taken[id]; k++ {
		id = fmt.Sprintf("%s-%d-%d", prefix, n, k)
	}
	taken[id] = true
	return id
}
