// Package features computes morphology metrics for segmented regions:
// size, shape and an equivalent-ellipse fit per ring, plus per-set reports.
package features

import (
	"fmt"
	"math"

	"seg-editor/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// MinEllipsePoints is the smallest ring for which an ellipse is fitted.
const MinEllipsePoints = 5

// Metrics describes one ring. Lengths are in the ring's units, areas in
// units squared and Orientation in degrees in [0, 180).
type Metrics struct {
	Area         float64          `json:"area"`
	Perimeter    float64          `json:"perimeter"`
	Circularity  float64          `json:"circularity"`
	Solidity     float64          `json:"solidity"`
	Eccentricity float64          `json:"eccentricity"`
	MajorAxis    float64          `json:"majorAxis"`
	MinorAxis    float64          `json:"minorAxis"`
	Orientation  float64          `json:"orientation"`
	Centroid     geometry.Point2D `json:"centroid"`
}

// Compute measures a ring. Rings with fewer than MinEllipsePoints vertices
// get no ellipse fit.
func Compute(ring []geometry.Point2D) (Metrics, error) {
	if len(ring) < 3 {
		return Metrics{}, fmt.Errorf("ring has %d points, need at least 3", len(ring))
	}

	m := Metrics{
		Area:      geometry.Area(ring),
		Perimeter: geometry.Perimeter(ring),
		Centroid:  geometry.AreaCentroid(ring),
	}

	if m.Perimeter > 0 {
		m.Circularity = 4 * math.Pi * m.Area / (m.Perimeter * m.Perimeter)
	}
	if hullArea := geometry.Area(geometry.ConvexHull(ring)); hullArea > 0 {
		m.Solidity = m.Area / hullArea
	}

	if len(ring) >= MinEllipsePoints && m.Area > 0 {
		e, err := fitEllipse(ring)
		if err != nil {
			return m, err
		}
		m.MajorAxis = e.major
		m.MinorAxis = e.minor
		m.Orientation = e.orientation
		if e.major > 0 {
			r := e.minor / e.major
			m.Eccentricity = math.Sqrt(math.Max(0, 1-r*r))
		}
	}

	return m, nil
}

// Scaled converts pixel metrics to physical units given the size of one
// pixel. Unitless ratios and the orientation are unchanged.
func (m Metrics) Scaled(pixelSize float64) Metrics {
	if pixelSize <= 0 || pixelSize == 1 {
		return m
	}
	m.Area *= pixelSize * pixelSize
	m.Perimeter *= pixelSize
	m.MajorAxis *= pixelSize
	m.MinorAxis *= pixelSize
	m.Centroid = m.Centroid.Scale(pixelSize)
	return m
}

type ellipse struct {
	major, minor float64
	orientation  float64
}

// fitEllipse returns the ellipse with the same second moments as the region
// enclosed by ring. A filled ellipse with semi-axis a has variance a²/4
// along that axis, so each full axis is 4·sqrt(eigenvalue).
func fitEllipse(ring []geometry.Point2D) (ellipse, error) {
	cxx, cxy, cyy := centralMoments(ring)

	cov := mat.NewSymDense(2, []float64{cxx, cxy, cxy, cyy})
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return ellipse{}, fmt.Errorf("ellipse fit: eigen decomposition failed")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	hi, lo := 1, 0
	if values[0] > values[1] {
		hi, lo = 0, 1
	}

	angle := math.Atan2(vectors.At(1, hi), vectors.At(0, hi)) * 180 / math.Pi
	angle = math.Mod(angle, 180)
	if angle < 0 {
		angle += 180
	}

	return ellipse{
		major:       4 * math.Sqrt(math.Max(0, values[hi])),
		minor:       4 * math.Sqrt(math.Max(0, values[lo])),
		orientation: angle,
	}, nil
}

// centralMoments returns the normalized second central moments of the
// region enclosed by ring, from Green's theorem over its edges.
func centralMoments(ring []geometry.Point2D) (cxx, cxy, cyy float64) {
	n := len(ring)
	var a, mx, my, mxx, myy, mxy float64
	for i := 0; i < n; i++ {
		p, q := ring[i], ring[(i+1)%n]
		cross := p.X*q.Y - q.X*p.Y
		a += cross
		mx += (p.X + q.X) * cross
		my += (p.Y + q.Y) * cross
		mxx += (p.X*p.X + p.X*q.X + q.X*q.X) * cross
		myy += (p.Y*p.Y + p.Y*q.Y + q.Y*q.Y) * cross
		mxy += (p.X*q.Y + 2*p.X*p.Y + 2*q.X*q.Y + q.X*p.Y) * cross
	}
	a /= 2
	if a == 0 {
		return 0, 0, 0
	}

	cx := mx / (6 * a)
	cy := my / (6 * a)
	cxx = mxx/(12*a) - cx*cx
	cyy = myy/(12*a) - cy*cy
	cxy = mxy/(24*a) - cx*cy
	return cxx, cxy, cyy
}
