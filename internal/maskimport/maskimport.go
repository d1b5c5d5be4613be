// Package maskimport converts binary segmentation masks into polygon sets
// and back.
package maskimport

import (
	"fmt"
	"image"
	"log"

	"seg-editor/internal/polygon"
	"seg-editor/pkg/colorutil"
	"seg-editor/pkg/geometry"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

const (
	ClassRegion = "spheroid"
	ClassHole   = "hole"
)

// Options controls contour extraction.
type Options struct {
	// Threshold: pixels strictly above it are foreground.
	Threshold uint8
	// MinArea drops outer contours below this area in pixels. Holes use half.
	MinArea float64
	// Simplify, when positive, runs Douglas-Peucker with an epsilon of
	// Simplify percent of the contour perimeter.
	Simplify float64
}

// DefaultOptions returns the extraction settings of the segmentation service.
func DefaultOptions() Options {
	return Options{
		Threshold: 127,
		MinArea:   100,
	}
}

// Stats summarizes one extraction.
type Stats struct {
	Contours int `json:"contours"`
	External int `json:"external"`
	Holes    int `json:"holes"`
	Dropped  int `json:"dropped"`
}

// LoadMask reads an image file, applies EXIF orientation and binarizes it.
func LoadMask(path string, threshold uint8) (*image.Gray, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open mask: %w", err)
	}
	return Binarize(img, threshold), nil
}

// Binarize maps pixels above threshold to 255 and the rest to 0.
func Binarize(img image.Image, threshold uint8) *image.Gray {
	gray := imaging.Grayscale(img)
	if threshold == 255 {
		return segment.Threshold(gray, 255)
	}
	// segment.Threshold keeps values >= level.
	return segment.Threshold(gray, threshold+1)
}

// ExtractFile loads a mask and extracts its polygons.
func ExtractFile(path string, opts Options) (polygon.Set, Stats, error) {
	mask, err := LoadMask(path, opts.Threshold)
	if err != nil {
		return polygon.Set{}, Stats{}, err
	}
	return Extract(mask, opts)
}

// Extract traces a binary mask. Every contour at even nesting depth becomes
// an external ring; contours directly inside it become its holes. Rings are
// listed outer first, each followed by its holes.
func Extract(mask *image.Gray, opts Options) (polygon.Set, Stats, error) {
	if opts.MinArea < 0 {
		opts.MinArea = 0
	}

	mat, err := gocv.ImageGrayToMatGray(mask)
	if err != nil {
		return polygon.Set{}, Stats{}, fmt.Errorf("convert mask: %w", err)
	}
	defer mat.Close()

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	contours := gocv.FindContoursWithParams(mat, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxNone)
	defer contours.Close()

	n := contours.Size()
	stats := Stats{Contours: n}
	if n == 0 {
		set, err := polygon.NewSet()
		return set, stats, err
	}

	parents := make([]int, n)
	children := make(map[int][]int)
	for i := 0; i < n; i++ {
		h := hierarchy.GetVeciAt(0, i)
		parents[i] = int(h[3])
		if parents[i] >= 0 {
			children[parents[i]] = append(children[parents[i]], i)
		}
	}

	var polys []polygon.Polygon
	for i := 0; i < n; i++ {
		if depth(parents, i)%2 != 0 {
			continue
		}
		contour := contours.At(i)
		if gocv.ContourArea(contour) < opts.MinArea {
			stats.Dropped++
			continue
		}

		outer, ok := ring(contour, opts.Simplify)
		if !ok {
			stats.Dropped++
			continue
		}
		stats.External++
		id := fmt.Sprintf("polygon-%d", stats.External)
		polys = append(polys, polygon.Polygon{
			ID:     id,
			Kind:   polygon.KindExternal,
			Points: outer,
			Class:  ClassRegion,
			Color:  colorutil.PaletteColor(i),
		})

		for _, c := range children[i] {
			child := contours.At(c)
			if gocv.ContourArea(child) < opts.MinArea/2 {
				stats.Dropped++
				continue
			}
			hole, ok := ring(child, opts.Simplify)
			if !ok {
				stats.Dropped++
				continue
			}
			stats.Holes++
			polys = append(polys, polygon.Polygon{
				ID:       fmt.Sprintf("hole-%d", stats.Holes),
				Kind:     polygon.KindInternal,
				Points:   hole,
				ParentID: id,
				Class:    ClassHole,
				Color:    colorutil.PaletteColor(c + 5),
			})
		}
	}

	log.Printf("maskimport: %d contours, %d external, %d holes, %d dropped",
		stats.Contours, stats.External, stats.Holes, stats.Dropped)

	set, err := polygon.NewSet(polys...)
	return set, stats, err
}

// depth counts the ancestors of contour i.
func depth(parents []int, i int) int {
	d := 0
	for p := parents[i]; p >= 0; p = parents[p] {
		d++
	}
	return d
}

// ring converts a contour to image-space points, simplifying when asked.
// Contours that collapse below three points are rejected.
func ring(contour gocv.PointVector, simplify float64) ([]geometry.Point2D, bool) {
	pts := contour.ToPoints()
	if simplify > 0 {
		epsilon := simplify * 0.01 * gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, epsilon, true)
		if approx.Size() >= polygon.MinRingPoints {
			pts = approx.ToPoints()
		}
		approx.Close()
	}
	if len(pts) < polygon.MinRingPoints {
		return nil, false
	}

	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
	}
	return out, true
}
