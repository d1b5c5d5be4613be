package editor

import (
	"seg-editor/internal/mode"
)

// EventType identifies different engine events.
type EventType int

const (
	EventPolygonsChanged EventType = iota // data: polygon.Set
	EventModeChanged                      // data: ModeChange
	EventHoverChanged                     // data: *hover.State, nil when nothing is hovered
	EventEditRejected                     // data: error
	EventPolygonRetired                   // data: edit.Split
	EventViewportChanged                  // data: viewport.Viewport
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// ModeChange is the payload of EventModeChanged.
type ModeChange struct {
	Mode     mode.Mode
	Selected string
}

type pendingEvent struct {
	event EventType
	data  interface{}
}

// On registers an event listener for the specified event type.
func (e *Engine) On(event EventType, listener EventListener) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (e *Engine) Emit(event EventType, data interface{}) {
	e.listenersMu.RLock()
	listeners := e.listeners[event]
	e.listenersMu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// queue records an event to be emitted once the engine lock is released.
// Must be called with e.mu held.
func (e *Engine) queue(event EventType, data interface{}) {
	e.pending = append(e.pending, pendingEvent{event: event, data: data})
}

// unlockAndFlush releases e.mu and emits everything queued while it was
// held, so listeners may call back into the engine.
func (e *Engine) unlockAndFlush() {
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, ev := range pending {
		e.Emit(ev.event, ev.data)
	}
}
