package prefs

import (
	"path/filepath"
	"testing"

	"seg-editor/internal/editor"
)

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)

	p := LoadFrom(path)
	p.SetString(KeyLastDir, "/data/plates")
	p.SetBool(KeyWatchPolygons, true)
	p.SetFloat(KeyFillAlpha, 90)
	p.SetEditorConfig(editor.Config{HoverThreshold: 5, VertexRadius: 14, HistoryLimit: 20})
	if err := p.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	r := LoadFrom(path)
	if got := r.String(KeyLastDir); got != "/data/plates" {
		t.Errorf("last dir = %q", got)
	}
	if !r.Bool(KeyWatchPolygons, false) {
		t.Error("watch flag lost")
	}
	if got := r.FillAlpha(64); got != 90 {
		t.Errorf("FillAlpha = %d", got)
	}
	want := editor.Config{HoverThreshold: 5, VertexRadius: 14, HistoryLimit: 20}
	if got := r.EditorConfig(); got != want {
		t.Errorf("EditorConfig = %+v, want %+v", got, want)
	}
}

func TestDefaults(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if got := p.EditorConfig(); got != editor.DefaultConfig() {
		t.Errorf("EditorConfig = %+v", got)
	}
	if got := p.FillAlpha(64); got != 64 {
		t.Errorf("FillAlpha fallback = %d", got)
	}
	if p.Bool(KeyWatchPolygons, true) != true {
		t.Error("Bool fallback ignored")
	}
	p.SetFloat(KeyFillAlpha, 400)
	if got := p.FillAlpha(64); got != 255 {
		t.Errorf("FillAlpha should clamp, got %d", got)
	}
}
