// Package app provides application lifecycle management, configuration, and events.
package app

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"seg-editor/internal/editor"
	"seg-editor/internal/features"
	"seg-editor/internal/image"
	"seg-editor/internal/maskimport"
	"seg-editor/internal/polygon"
	"seg-editor/internal/project"
	"seg-editor/internal/segmentation"
	"seg-editor/internal/viewport"
	"seg-editor/pkg/geometry"
)

// ErrNoImage is returned by operations that need a loaded image.
var ErrNoImage = errors.New("no image loaded")

// State holds the application state: the session, the image being annotated,
// and the editing engine that owns the polygons.
type State struct {
	mu sync.RWMutex

	// Session
	ProjectPath string
	Project     *project.File
	Modified    bool

	// Image and the file its polygons were last read from or written to
	Image        *image.Layer
	PolygonsPath string

	Engine *editor.Engine

	// Event listeners
	listenersMu sync.RWMutex
	listeners   map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventImageLoaded
	EventPolygonsLoaded
	EventPolygonsSaved
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state around a fresh engine.
func NewState(cfg editor.Config) *State {
	s := &State{
		Project:   project.New("untitled"),
		Engine:    editor.New(cfg),
		listeners: make(map[EventType][]EventListener),
	}
	s.Project.Settings.Editor = s.Engine.Config()
	s.Engine.On(editor.EventPolygonsChanged, func(interface{}) {
		s.SetModified(true)
	})
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.listenersMu.RLock()
	listeners := s.listeners[event]
	s.listenersMu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the session as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// IsModified reports unsaved changes.
func (s *State) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Modified
}

// LoadImage loads the image to annotate. Polygons are cleared because they
// belong to the previous image.
func (s *State) LoadImage(path string) error {
	layer, err := image.Load(path)
	if err != nil {
		return err
	}

	empty, _ := polygon.NewSet()
	if err := s.Engine.Load(empty); err != nil {
		return err
	}

	s.mu.Lock()
	s.Image = layer
	s.PolygonsPath = ""
	s.mu.Unlock()

	log.Printf("app: loaded image %s (%dx%d, %.4g µm/px)",
		filepath.Base(path), layer.Width(), layer.Height(), layer.PixelSize)
	s.SetModified(false)
	s.Emit(EventImageLoaded, layer)
	return nil
}

// CurrentImage returns the loaded image layer, or nil.
func (s *State) CurrentImage() *image.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Image
}

// PolygonsFile returns the file the current polygons were loaded from or
// last saved to, empty for unsaved polygons.
func (s *State) PolygonsFile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PolygonsPath
}

// LoadPolygons replaces the engine's polygons with a segmentation result file.
func (s *State) LoadPolygons(path string) error {
	set, err := segmentation.Load(path)
	if err != nil {
		return err
	}
	if err := s.Engine.Load(set); err != nil {
		return err
	}

	s.mu.Lock()
	s.PolygonsPath = path
	s.mu.Unlock()

	s.SetModified(false)
	s.Emit(EventPolygonsLoaded, set)
	return nil
}

// SavePolygons writes the current polygons as a segmentation result.
func (s *State) SavePolygons(path string) error {
	set := s.Engine.Snapshot()
	if err := segmentation.Save(path, set); err != nil {
		return err
	}

	s.mu.Lock()
	s.PolygonsPath = path
	s.mu.Unlock()

	s.SetModified(false)
	s.Emit(EventPolygonsSaved, path)
	return nil
}

// ImportMask traces a binary mask image into polygons and loads them. The
// result is unsaved.
func (s *State) ImportMask(path string, opts maskimport.Options) (maskimport.Stats, error) {
	set, stats, err := maskimport.ExtractFile(path, opts)
	if err != nil {
		return stats, err
	}
	if err := s.Engine.Load(set); err != nil {
		return stats, err
	}
	s.SetModified(true)
	s.Emit(EventPolygonsLoaded, set)
	return stats, nil
}

// Scale returns the measurement scale: the image resolution when it has one,
// else the session's pixel size, else pixels.
func (s *State) Scale() features.Scale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Image != nil && s.Image.PixelSize > 0 {
		return s.Image.Scale()
	}
	if s.Project != nil && s.Project.PixelSize > 0 {
		return features.Scale{PixelSize: s.Project.PixelSize, Unit: "µm"}
	}
	return features.Pixels
}

// Metrics measures the current polygons.
func (s *State) Metrics() features.Report {
	return features.Measure(s.Engine.Polygons(), s.Scale())
}

// FitView zooms the engine so the whole image fits a view of the given size.
func (s *State) FitView(view geometry.Size) error {
	img := s.CurrentImage()
	if img == nil {
		return ErrNoImage
	}
	vp := viewport.Fit(img.Size(), view)
	return s.Engine.SetViewport(vp.Zoom, vp.Offset)
}

// LoadProject loads a session: settings, view, image and polygons.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	s.Engine.SetConfig(proj.Settings.Editor)

	if imgPath := proj.GetImagePath(path); imgPath != "" {
		if err := s.LoadImage(imgPath); err != nil {
			return fmt.Errorf("load session image: %w", err)
		}
	}
	if proj.PolygonsPath != "" {
		if err := s.LoadPolygons(proj.GetPolygonsPath(path)); err != nil {
			return fmt.Errorf("load session polygons: %w", err)
		}
	}

	vp := proj.Viewport()
	if err := s.Engine.SetViewport(vp.Zoom, vp.Offset); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Project = proj
	s.mu.Unlock()

	s.SetModified(false)
	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject saves the session and the polygons it references. Polygons
// without a file yet are written next to the session.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	proj := s.Project
	imgPath := ""
	if s.Image != nil {
		imgPath = s.Image.Path
	}
	polyPath := s.PolygonsPath
	s.mu.RUnlock()

	if proj == nil {
		proj = project.New(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if imgPath != "" {
		proj.SetImage(path, imgPath)
	}
	if polyPath == "" {
		polyPath = proj.GetPolygonsPath(path)
	}
	if err := s.SavePolygons(polyPath); err != nil {
		return err
	}
	proj.SetPolygons(path, polyPath)
	proj.SetViewport(s.Engine.Viewport())
	proj.Settings.Editor = s.Engine.Config()

	if err := proj.Save(path); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Project = proj
	s.mu.Unlock()

	log.Printf("app: saved session %s", path)
	s.SetModified(false)
	s.Emit(EventProjectSaved, path)
	return nil
}
