package features

import (
	"fmt"
	"log"

	"seg-editor/internal/polygon"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Scale maps pixels to physical units. The zero value reports pixels.
type Scale struct {
	PixelSize float64 `json:"pixelSize"` // units per pixel
	Unit      string  `json:"unit"`
}

// Pixels is the identity scale.
var Pixels = Scale{PixelSize: 1, Unit: "px"}

func (s Scale) normalized() Scale {
	if s.PixelSize <= 0 {
		return Pixels
	}
	if s.Unit == "" {
		s.Unit = "px"
	}
	return s
}

// Region holds the metrics of one polygon in a set. NetArea subtracts the
// area of the holes of an external ring; for holes it equals Area.
type Region struct {
	ID       string       `json:"id"`
	Kind     polygon.Kind `json:"type"`
	Class    string       `json:"class,omitempty"`
	ParentID string       `json:"parentId,omitempty"`
	Holes    int          `json:"holes"`
	NetArea  float64      `json:"netArea"`
	Metrics
}

// Report collects the regions of a set in z-order.
type Report struct {
	Scale        Scale    `json:"scale"`
	Regions      []Region `json:"regions"`
	Count        int      `json:"count"` // external rings
	TotalArea    float64  `json:"totalArea"`
	MeanArea     float64  `json:"meanArea"`
	MeanCircular float64  `json:"meanCircularity"`
}

// Measure computes metrics for every polygon in set. Rings that cannot be
// measured are logged and skipped.
func Measure(set polygon.Set, scale Scale) Report {
	scale = scale.normalized()
	r := Report{Scale: scale}

	var areas, circularities []float64
	for _, p := range set.Polygons() {
		m, err := Compute(p.Points)
		if err != nil {
			log.Printf("features: skipping %s: %v", p.ID, err)
			continue
		}
		m = m.Scaled(scale.PixelSize)

		region := Region{
			ID:       p.ID,
			Kind:     p.Kind,
			Class:    p.Class,
			ParentID: p.ParentID,
			NetArea:  m.Area,
			Metrics:  m,
		}
		if p.Kind == polygon.KindExternal {
			holes := set.Children(p.ID)
			region.Holes = len(holes)
			for _, h := range holes {
				hm, err := Compute(h.Points)
				if err != nil {
					continue
				}
				region.NetArea -= hm.Scaled(scale.PixelSize).Area
			}
			areas = append(areas, region.NetArea)
			circularities = append(circularities, m.Circularity)
		}
		r.Regions = append(r.Regions, region)
	}

	r.Count = len(areas)
	if r.Count > 0 {
		r.TotalArea = floats.Sum(areas)
		r.MeanArea = stat.Mean(areas, nil)
		r.MeanCircular = stat.Mean(circularities, nil)
	}
	return r
}

// Region returns the metrics of polygon id.
func (r Report) Region(id string) (Region, error) {
	for _, reg := range r.Regions {
		if reg.ID == id {
			return reg, nil
		}
	}
	return Region{}, fmt.Errorf("%w: %s", polygon.ErrNotFound, id)
}
