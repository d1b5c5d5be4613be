// Package project provides the editing session file and its persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"seg-editor/internal/editor"
	"seg-editor/internal/viewport"
	"seg-editor/pkg/geometry"
)

// Extension is the session file suffix.
const Extension = ".segproj"

// CurrentVersion is written by Save.
const CurrentVersion = 1

// File represents a segmentation editing session (.segproj).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Paths relative to the session file
	ImagePath    string `json:"image,omitempty"`
	PolygonsPath string `json:"polygons,omitempty"`

	// Micrometres per pixel when the image carries no resolution tags.
	PixelSize float64 `json:"pixel_size,omitempty"`

	View     ViewState       `json:"view"`
	Settings ProjectSettings `json:"settings"`
}

// ViewState is the viewport at the time the session was saved.
type ViewState struct {
	Zoom    float64 `json:"zoom"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// ProjectSettings holds per-session editor preferences.
type ProjectSettings struct {
	Editor    editor.Config `json:"editor"`
	FillAlpha uint8         `json:"fill_alpha"`
}

// New creates a new session file with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		Name:     name,
		Created:  now,
		Modified: now,
		View:     ViewState{Zoom: 1},
		Settings: ProjectSettings{
			Editor:    editor.DefaultConfig(),
			FillAlpha: 64,
		},
	}
}

// Load loads a session from a .segproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if proj.Version > CurrentVersion {
		return nil, fmt.Errorf("session version %d is newer than supported %d", proj.Version, CurrentVersion)
	}
	if proj.View.Zoom <= 0 {
		proj.View.Zoom = 1
	}

	return &proj, nil
}

// Save saves the session to a file.
func (p *File) Save(path string) error {
	p.Version = CurrentVersion
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetImage sets the image path (relative to the session).
func (p *File) SetImage(projectPath, imagePath string) {
	p.ImagePath = relativeTo(projectPath, imagePath)
	p.Modified = time.Now()
}

// SetPolygons sets the polygons path (relative to the session).
func (p *File) SetPolygons(projectPath, polygonsPath string) {
	p.PolygonsPath = relativeTo(projectPath, polygonsPath)
	p.Modified = time.Now()
}

// SetViewport records the current view.
func (p *File) SetViewport(vp viewport.Viewport) {
	p.View = ViewState{Zoom: vp.Zoom, OffsetX: vp.Offset.X, OffsetY: vp.Offset.Y}
}

// Viewport returns the saved view, falling back to identity when the stored
// parameters are invalid.
func (p *File) Viewport() viewport.Viewport {
	vp, err := viewport.New(p.View.Zoom, geometry.Point2D{X: p.View.OffsetX, Y: p.View.OffsetY})
	if err != nil {
		return viewport.Identity()
	}
	return vp
}

// GetImagePath returns the absolute path to the image.
func (p *File) GetImagePath(projectPath string) string {
	return resolve(projectPath, p.ImagePath)
}

// GetPolygonsPath returns the absolute path to the polygons file.
func (p *File) GetPolygonsPath(projectPath string) string {
	if p.PolygonsPath == "" {
		// Default: session_name_polygons.json
		base := projectPath[:len(projectPath)-len(filepath.Ext(projectPath))]
		return base + "_polygons.json"
	}
	return resolve(projectPath, p.PolygonsPath)
}

func relativeTo(projectPath, path string) string {
	rel, err := filepath.Rel(filepath.Dir(projectPath), path)
	if err != nil {
		return path
	}
	return rel
}

func resolve(projectPath, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(projectPath), path)
}
