package features

import (
	"math"
	"testing"

	"seg-editor/internal/polygon"
	"seg-editor/pkg/geometry"
)

func rect(x, y, w, h float64) []geometry.Point2D {
	return []geometry.Point2D{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

// rectDense is rect with midpoints added so it qualifies for an ellipse fit.
func rectDense(x, y, w, h float64) []geometry.Point2D {
	return []geometry.Point2D{
		{X: x, Y: y}, {X: x + w/2, Y: y}, {X: x + w, Y: y},
		{X: x + w, Y: y + h}, {X: x + w/2, Y: y + h}, {X: x, Y: y + h},
	}
}

func TestComputeCircle(t *testing.T) {
	ring := geometry.GenerateCirclePoints(50, 50, 10, 360)
	m, err := Compute(ring)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	tests := []struct {
		name      string
		got, want float64
		tol       float64
	}{
		{"area", m.Area, math.Pi * 100, 0.1},
		{"perimeter", m.Perimeter, 2 * math.Pi * 10, 0.01},
		{"circularity", m.Circularity, 1, 1e-3},
		{"solidity", m.Solidity, 1, 1e-9},
		{"major axis", m.MajorAxis, 20, 0.01},
		{"minor axis", m.MinorAxis, 20, 0.01},
		{"centroid x", m.Centroid.X, 50, 1e-9},
		{"centroid y", m.Centroid.Y, 50, 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > tt.tol {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if m.Eccentricity > 0.05 {
		t.Errorf("circle eccentricity should be near 0, got %v", m.Eccentricity)
	}
}

func TestComputeRectangleEllipse(t *testing.T) {
	tests := []struct {
		name        string
		ring        []geometry.Point2D
		orientation float64
	}{
		{"wide", rectDense(0, 0, 20, 10), 0},
		{"tall", rectDense(0, 0, 10, 20), 90},
	}

	// Variances of a 20x10 rectangle are 400/12 and 100/12.
	wantMajor := 4 * math.Sqrt(400.0/12)
	wantMinor := 4 * math.Sqrt(100.0/12)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compute(tt.ring)
			if err != nil {
				t.Fatalf("Compute failed: %v", err)
			}
			if math.Abs(m.MajorAxis-wantMajor) > 1e-9 || math.Abs(m.MinorAxis-wantMinor) > 1e-9 {
				t.Errorf("axes: got %v/%v, want %v/%v", m.MajorAxis, m.MinorAxis, wantMajor, wantMinor)
			}
			if math.Abs(m.Eccentricity-math.Sqrt(0.75)) > 1e-9 {
				t.Errorf("eccentricity: got %v", m.Eccentricity)
			}
			if math.Abs(m.Orientation-tt.orientation) > 1e-6 {
				t.Errorf("orientation: got %v, want %v", m.Orientation, tt.orientation)
			}
		})
	}
}

func TestComputeSmallRingSkipsEllipse(t *testing.T) {
	m, err := Compute(rect(0, 0, 10, 10))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if m.MajorAxis != 0 || m.Eccentricity != 0 {
		t.Errorf("4-point ring should not get an ellipse fit: %+v", m)
	}
	if m.Area != 100 || m.Perimeter != 40 {
		t.Errorf("area/perimeter: %v %v", m.Area, m.Perimeter)
	}

	if _, err := Compute(rect(0, 0, 1, 1)[:2]); err == nil {
		t.Errorf("expected error for a 2-point ring")
	}
}

func TestSolidityOfConcaveRing(t *testing.T) {
	// 10x10 square with a 5x5 notch removed from one corner.
	l := []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 10}}
	m, err := Compute(l)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	// Hull drops the notch corner: area 100 - 12.5.
	if want := 75.0 / 87.5; math.Abs(m.Solidity-want) > 1e-9 {
		t.Errorf("solidity: got %v, want %v", m.Solidity, want)
	}
}

func TestMeasureNetAreaAndScale(t *testing.T) {
	set, err := polygon.NewSet(
		polygon.Polygon{ID: "cell", Points: rect(0, 0, 100, 100), Class: "spheroid"},
		polygon.Polygon{ID: "hole", Kind: polygon.KindInternal, ParentID: "cell", Points: rect(40, 40, 10, 10)},
		polygon.Polygon{ID: "small", Points: rect(200, 200, 10, 10)},
	)
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}

	r := Measure(set, Scale{})
	if r.Count != 2 || len(r.Regions) != 3 {
		t.Fatalf("count %d regions %d", r.Count, len(r.Regions))
	}
	cell, err := r.Region("cell")
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if cell.NetArea != 9900 || cell.Holes != 1 {
		t.Errorf("cell net area %v holes %d", cell.NetArea, cell.Holes)
	}
	if r.TotalArea != 10000 || r.MeanArea != 5000 {
		t.Errorf("total %v mean %v", r.TotalArea, r.MeanArea)
	}

	scaled := Measure(set, Scale{PixelSize: 0.5, Unit: "um"})
	cell, _ = scaled.Region("cell")
	if cell.NetArea != 9900*0.25 || cell.Perimeter != 400*0.5 {
		t.Errorf("scaled: net area %v perimeter %v", cell.NetArea, cell.Perimeter)
	}
	if scaled.Scale.Unit != "um" {
		t.Errorf("unit %q", scaled.Scale.Unit)
	}
}
