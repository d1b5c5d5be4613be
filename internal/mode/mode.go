// Package mode implements the editor's interaction state machine.
//
//	View -> EditVertices -> {AddPoints | Slice} -> EditVertices -> View
//
// The machine only gates which edits are valid; it never touches polygons.
package mode

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSelection is returned when a transition needs a selected polygon.
	ErrNoSelection = errors.New("no polygon selected")

	// ErrInvalidTransition is returned for a transition the current state
	// does not allow.
	ErrInvalidTransition = errors.New("invalid mode transition")

	// ErrOperationNotAllowed is returned by Check when the current state
	// does not permit an edit.
	ErrOperationNotAllowed = errors.New("operation not allowed in current mode")
)

// Mode is the active interaction.
type Mode int

const (
	// View is the initial mode; nothing is selected.
	View Mode = iota
	// EditVertices allows direct manipulation of the selected ring.
	EditVertices
	// AddPoints draws new points that replace an arc of the selected ring.
	AddPoints
	// Slice splits the selected ring along a vertex pair.
	Slice
)

func (m Mode) String() string {
	switch m {
	case View:
		return "view"
	case EditVertices:
		return "edit"
	case AddPoints:
		return "add-points"
	case Slice:
		return "slice"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// IsSubMode reports whether m is AddPoints or Slice.
func (m Mode) IsSubMode() bool {
	return m == AddPoints || m == Slice
}

// Op names an edit the dispatcher can perform.
type Op int

const (
	OpDeleteVertex Op = iota
	OpDuplicateVertex
	OpMoveVertex
	OpInsertVertex
	OpBeginAddPoints
	OpAddPoint
	OpBeginSlice
	OpSlice
)

var opNames = map[Op]string{
	OpDeleteVertex:    "delete vertex",
	OpDuplicateVertex: "duplicate vertex",
	OpMoveVertex:      "move vertex",
	OpInsertVertex:    "insert vertex",
	OpBeginAddPoints:  "begin add points",
	OpAddPoint:        "add point",
	OpBeginSlice:      "begin slice",
	OpSlice:           "slice",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Machine holds the current mode and selection. The zero value is in View.
type Machine struct {
	mode     Mode
	selected string
}

// Mode returns the active mode.
func (m *Machine) Mode() Mode {
	return m.mode
}

// Selected returns the selected polygon id, empty in View.
func (m *Machine) Selected() string {
	return m.selected
}

// Select enters EditVertices for id from any state. Selecting a different
// polygon leaves any sub-mode.
func (m *Machine) Select(id string) error {
	if id == "" {
		return ErrNoSelection
	}
	if m.selected != id || m.mode == View {
		m.mode = EditVertices
	}
	m.selected = id
	return nil
}

// Deselect returns to View from any state and clears the selection.
func (m *Machine) Deselect() {
	m.mode = View
	m.selected = ""
}

// EnterAddPoints switches to AddPoints for the current selection, leaving
// Slice if it was active.
func (m *Machine) EnterAddPoints() error {
	return m.enterSubMode(AddPoints)
}

// EnterSlice switches to Slice for the current selection, leaving AddPoints
// if it was active.
func (m *Machine) EnterSlice() error {
	return m.enterSubMode(Slice)
}

func (m *Machine) enterSubMode(sub Mode) error {
	if m.mode == View || m.selected == "" {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, sub, m.mode)
	}
	m.mode = sub
	return nil
}

// ExitSubMode returns from AddPoints or Slice to EditVertices. It is a no-op
// in other states.
func (m *Machine) ExitSubMode() {
	if m.mode.IsSubMode() {
		m.mode = EditVertices
	}
}

// Allows reports whether op is valid in the current mode, ignoring which
// polygon it targets.
func (m *Machine) Allows(op Op) bool {
	switch op {
	case OpDeleteVertex, OpDuplicateVertex, OpMoveVertex, OpInsertVertex:
		return m.mode == EditVertices
	case OpBeginAddPoints, OpBeginSlice:
		return m.mode != View
	case OpAddPoint:
		return m.mode == AddPoints
	case OpSlice:
		return m.mode == Slice
	default:
		return false
	}
}

// Check returns ErrOperationNotAllowed unless op is valid now and targets
// the selected polygon.
func (m *Machine) Check(op Op, polygonID string) error {
	if !m.Allows(op) {
		return fmt.Errorf("%w: %s in %s mode", ErrOperationNotAllowed, op, m.mode)
	}
	if polygonID != m.selected {
		return fmt.Errorf("%w: %s targets %q but %q is selected", ErrOperationNotAllowed, op, polygonID, m.selected)
	}
	return nil
}
