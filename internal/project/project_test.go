package project

import (
	"os"
	"path/filepath"
	"testing"

	"seg-editor/internal/editor"
	"seg-editor/internal/viewport"
	"seg-editor/pkg/geometry"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "run1"+Extension)

	p := New("run1")
	p.SetImage(projPath, filepath.Join(dir, "images", "well_A1.tif"))
	p.SetPolygons(projPath, filepath.Join(dir, "well_A1.json"))
	p.PixelSize = 0.65
	p.Settings.Editor.HoverThreshold = 12

	vp, err := viewport.New(2.5, geometry.Point2D{X: -40, Y: 12})
	if err != nil {
		t.Fatal(err)
	}
	p.SetViewport(vp)

	if err := p.Save(projPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(projPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.ImagePath != filepath.Join("images", "well_A1.tif") {
		t.Errorf("ImagePath = %q, want relative", got.ImagePath)
	}
	if got.GetImagePath(projPath) != filepath.Join(dir, "images", "well_A1.tif") {
		t.Errorf("GetImagePath = %q", got.GetImagePath(projPath))
	}
	if got.GetPolygonsPath(projPath) != filepath.Join(dir, "well_A1.json") {
		t.Errorf("GetPolygonsPath = %q", got.GetPolygonsPath(projPath))
	}
	if got.PixelSize != 0.65 || got.Settings.Editor.HoverThreshold != 12 {
		t.Errorf("settings lost: %+v", got)
	}
	if v := got.Viewport(); v != vp {
		t.Errorf("Viewport = %+v, want %+v", v, vp)
	}
}

func TestDefaultPolygonsPath(t *testing.T) {
	p := New("x")
	if got := p.GetPolygonsPath("/data/run1.segproj"); got != "/data/run1_polygons.json" {
		t.Errorf("got %q", got)
	}
	if got := p.GetImagePath("/data/run1.segproj"); got != "" {
		t.Errorf("empty image path should stay empty, got %q", got)
	}
}

func TestViewportFallback(t *testing.T) {
	p := New("x")
	p.View = ViewState{Zoom: -3}
	if got := p.Viewport(); got != viewport.Identity() {
		t.Errorf("invalid zoom should fall back to identity, got %+v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.segproj")
	os.WriteFile(bad, []byte("{"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}

	future := filepath.Join(dir, "future.segproj")
	os.WriteFile(future, []byte(`{"version": 99}`), 0644)
	if _, err := Load(future); err == nil {
		t.Error("expected version error")
	}

	if _, err := Load(filepath.Join(dir, "missing.segproj")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewDefaults(t *testing.T) {
	p := New("x")
	if p.Settings.Editor != editor.DefaultConfig() || p.View.Zoom != 1 {
		t.Errorf("unexpected defaults %+v", p)
	}
}
