package app

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher reports when a polygons file is rewritten by another process,
// such as the segmentation service finishing a new run. Bursts of events are
// collapsed into one callback after the debounce interval.
type FileWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu            sync.Mutex
	onChange      func(path string) // Called from the watcher goroutine
	suppressUntil time.Time
}

// NewFileWatcher watches path. The parent directory is watched so that
// atomic replace-by-rename is seen as well as in-place writes.
func NewFileWatcher(path string, debounce time.Duration) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &FileWatcher{
		path:     abs,
		debounce: debounce,
		watcher:  w,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Path returns the watched file.
func (w *FileWatcher) Path() string {
	return w.path
}

// OnChange sets the callback. It runs on the watcher goroutine; UI callers
// must hop to their event loop.
func (w *FileWatcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Suppress ignores changes for d, so the application's own saves do not
// trigger a reload prompt.
func (w *FileWatcher) Suppress(d time.Duration) {
	w.mu.Lock()
	w.suppressUntil = time.Now().Add(d)
	w.mu.Unlock()
}

// Start begins watching in a background goroutine.
func (w *FileWatcher) Start() {
	go w.watchLoop()
}

// Stop ends the watcher and waits for its goroutine.
func (w *FileWatcher) Stop() error {
	close(w.stopCh)
	err := w.watcher.Close()
	<-w.doneCh
	return err
}

func (w *FileWatcher) watchLoop() {
	defer close(w.doneCh)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("app: watching %s: %v", w.path, err)

		case <-fire:
			fire = nil
			w.mu.Lock()
			cb := w.onChange
			suppressed := time.Now().Before(w.suppressUntil)
			w.mu.Unlock()
			if suppressed {
				continue
			}
			if cb != nil {
				cb(w.path)
			}
		}
	}
}
