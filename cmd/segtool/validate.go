package main

import (
	"errors"
	"fmt"

	segimage "seg-editor/internal/image"
	"seg-editor/internal/polygon"
	"seg-editor/internal/segmentation"
	"seg-editor/pkg/geometry"

	"github.com/spf13/cobra"
)

var validateImage string

var errInvalid = errors.New("polygon file has problems")

var validateCmd = &cobra.Command{
	Use:   "validate [polygons.json]",
	Short: "Check a polygon file for broken rings",
	Long: `Load a polygon file and report self-intersecting rings, holes outside
their parent and, with --image, points outside the image.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateImage, "image", "i", "", "Image the polygons belong to")
}

func runValidate(cmd *cobra.Command, args []string) error {
	set, err := segmentation.Load(args[0])
	if err != nil {
		return err
	}
	if err := set.Validate(); err != nil {
		return err
	}

	var bounds *geometry.Rect
	if validateImage != "" {
		layer, err := segimage.Load(validateImage)
		if err != nil {
			return err
		}
		r := geometry.NewRect(0, 0, float64(layer.Width()), float64(layer.Height()))
		bounds = &r
	}

	problems := checkSet(set, bounds)
	w := cmd.OutOrStdout()
	for _, p := range problems {
		fmt.Fprintln(w, p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %d found", errInvalid, len(problems))
	}
	fmt.Fprintf(w, "%d polygons OK\n", set.Len())
	return nil
}

// checkSet lists the problems of every ring in set. bounds may be nil.
func checkSet(set polygon.Set, bounds *geometry.Rect) []string {
	var problems []string
	for _, p := range set.Polygons() {
		if i, j, ok := selfIntersection(p.Points); ok {
			problems = append(problems, fmt.Sprintf("%s: edges %d and %d cross", p.ID, i, j))
		}
		if p.Kind == polygon.KindInternal && p.ParentID != "" {
			if parent, ok := set.Get(p.ParentID); ok && !ringInside(p.Points, parent.Points) {
				problems = append(problems, fmt.Sprintf("%s: hole leaves parent %s", p.ID, p.ParentID))
			}
		}
		if bounds != nil {
			for i, pt := range p.Points {
				if !bounds.Contains(pt) {
					problems = append(problems, fmt.Sprintf("%s: point %d (%.1f, %.1f) outside image", p.ID, i, pt.X, pt.Y))
					break
				}
			}
		}
	}
	return problems
}

// selfIntersection finds the first pair of non-adjacent edges that cross.
func selfIntersection(ring []geometry.Point2D) (int, int, bool) {
	n := len(ring)
	for i := 0; i < n; i++ {
		a1, a2 := ring[i], ring[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if _, ok := geometry.SegmentIntersection(a1, a2, ring[j], ring[(j+1)%n]); ok {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func ringInside(inner, outer []geometry.Point2D) bool {
	for _, pt := range inner {
		if !geometry.PointInPolygon(pt, outer) {
			return false
		}
	}
	return true
}
