// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"seg-editor/internal/editor"
)

const prefsFile = "preferences.json"

// Preference keys.
const (
	KeyLastDir        = "last_dir"
	KeyHoverThreshold = "hover_threshold"
	KeyVertexRadius   = "vertex_radius"
	KeyHistoryLimit   = "history_limit"
	KeyFillAlpha      = "fill_alpha"
	KeyWatchPolygons  = "watch_polygons"
)

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads preferences from ~/.config/seg-editor/preferences.json.
// Returns a Prefs with defaults if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "seg-editor", prefsFile))
}

// LoadFrom reads preferences from an explicit file.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// Float returns a float64 preference, or 0 if not set.
func (p *Prefs) Float(key string) float64 {
	return p.FloatWithFallback(key, 0)
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// EditorConfig builds the engine settings, with defaults for unset keys.
func (p *Prefs) EditorConfig() editor.Config {
	def := editor.DefaultConfig()
	return editor.Config{
		HoverThreshold: p.FloatWithFallback(KeyHoverThreshold, def.HoverThreshold),
		VertexRadius:   p.FloatWithFallback(KeyVertexRadius, def.VertexRadius),
		HistoryLimit:   int(p.FloatWithFallback(KeyHistoryLimit, float64(def.HistoryLimit))),
	}
}

// SetEditorConfig stores the engine settings.
func (p *Prefs) SetEditorConfig(cfg editor.Config) {
	p.SetFloat(KeyHoverThreshold, cfg.HoverThreshold)
	p.SetFloat(KeyVertexRadius, cfg.VertexRadius)
	p.SetFloat(KeyHistoryLimit, float64(cfg.HistoryLimit))
}

// FillAlpha returns the overlay fill opacity (0-255).
func (p *Prefs) FillAlpha(fallback uint8) uint8 {
	v := p.FloatWithFallback(KeyFillAlpha, float64(fallback))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
