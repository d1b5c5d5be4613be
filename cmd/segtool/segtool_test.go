package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seg-editor/internal/features"
	"seg-editor/internal/polygon"
	"seg-editor/internal/segmentation"
	"seg-editor/pkg/geometry"
)

func rect(x, y, w, h float64) []geometry.Point2D {
	return []geometry.Point2D{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

func writePolygons(t *testing.T, polys ...polygon.Polygon) string {
	t.Helper()
	set, err := polygon.NewSet(polys...)
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "polygons.json")
	if err := segmentation.Save(path, set); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return path
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMetrics(t *testing.T) {
	path := writePolygons(t,
		polygon.Polygon{ID: "cell", Points: rect(0, 0, 10, 10)},
		polygon.Polygon{ID: "hole", Kind: polygon.KindInternal, ParentID: "cell", Points: rect(2, 2, 2, 2)},
	)

	out, err := run(t, "metrics", path, "--pixel-size", "0.5", "--image", "", "--json")
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	var report features.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	if report.Count != 1 {
		t.Errorf("Count = %d, want 1", report.Count)
	}
	// (100 - 4) px² at 0.25 µm² per px²
	if report.TotalArea != 24 {
		t.Errorf("TotalArea = %v, want 24", report.TotalArea)
	}

	out, err = run(t, "metrics", path, "--pixel-size", "0", "--image", "", "--json=false")
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	if !strings.Contains(out, "cell") || !strings.Contains(out, "Regions: 1") {
		t.Errorf("unexpected table:\n%s", out)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		polys   []polygon.Polygon
		wantErr bool
	}{
		{
			name:  "clean",
			polys: []polygon.Polygon{{ID: "a", Points: rect(0, 0, 10, 10)}},
		},
		{
			name: "bowtie",
			polys: []polygon.Polygon{{ID: "a", Points: []geometry.Point2D{
				{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10},
			}}},
			wantErr: true,
		},
		{
			name: "hole outside parent",
			polys: []polygon.Polygon{
				{ID: "a", Points: rect(0, 0, 10, 10)},
				{ID: "h", Kind: polygon.KindInternal, ParentID: "a", Points: rect(20, 20, 2, 2)},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePolygons(t, tt.polys...)
			out, err := run(t, "validate", path, "--image", "")
			if tt.wantErr {
				if !errors.Is(err, errInvalid) {
					t.Errorf("err = %v, want errInvalid; output:\n%s", err, out)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error %v; output:\n%s", err, out)
			}
		})
	}
}

func TestValidateOutsideImage(t *testing.T) {
	path := writePolygons(t, polygon.Polygon{ID: "a", Points: rect(0, 0, 30, 30)})
	img := writePNG(t, image.NewGray(image.Rect(0, 0, 20, 20)))

	out, err := run(t, "validate", path, "--image", img)
	if !errors.Is(err, errInvalid) || !strings.Contains(out, "outside image") {
		t.Errorf("err = %v, output:\n%s", err, out)
	}
}

func TestRender(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			src.SetRGBA(x, y, color.RGBA{100, 100, 100, 255})
		}
	}
	img := writePNG(t, src)
	polys := writePolygons(t, polygon.Polygon{ID: "a", Points: rect(10, 10, 20, 20)})
	out := filepath.Join(t.TempDir(), "overlay.png")

	if _, err := run(t, "render", img, polys, "-o", out, "--zoom", "2", "--blend", "multiply", "--labels=false"); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := got.Bounds(); b.Dx() != 80 || b.Dy() != 80 {
		t.Fatalf("output size %v, want 80x80", b)
	}
	r, g, _, _ := got.At(40, 40).RGBA()
	if r == g {
		t.Errorf("region interior should be tinted, got r=%d g=%d", r, g)
	}
	r, g, _, _ = got.At(4, 4).RGBA()
	if r != g {
		t.Errorf("background should be untouched, got r=%d g=%d", r, g)
	}
}

func TestExtract(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 60, 60))
	for y := 10; y < 50; y++ {
		for x := 10; x < 50; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	in := writePNG(t, mask)
	out := filepath.Join(t.TempDir(), "traced.json")

	text, err := run(t, "extract", in, "-o", out, "--min-area", "10")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(text, "Regions:  1") {
		t.Errorf("unexpected output:\n%s", text)
	}
	set, err := segmentation.Load(out)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("traced %d polygons, want 1", set.Len())
	}
}
