package canvas

import (
	"seg-editor/internal/editor"

	"fyne.io/fyne/v2"
)

// keyMap binds unmodified keys to editor keys.
var keyMap = map[fyne.KeyName]editor.Key{
	fyne.KeyEscape:    editor.KeyEscape,
	fyne.KeyDelete:    editor.KeyDelete,
	fyne.KeyBackspace: editor.KeyDelete,
	fyne.KeyD:         editor.KeyDuplicate,
	fyne.KeyA:         editor.KeyAddPoints,
	fyne.KeyS:         editor.KeySlice,
}

// KeyFor maps a typed key to an editor key.
func KeyFor(name fyne.KeyName) (editor.Key, bool) {
	k, ok := keyMap[name]
	return k, ok
}

// Shortcuts returns the undo/redo bindings for a window canvas.
func Shortcuts() map[editor.Key]fyne.Shortcut {
	return map[editor.Key]fyne.Shortcut{
		editor.KeyUndo: &desktopShortcut{key: fyne.KeyZ, mod: fyne.KeyModifierShortcutDefault},
		editor.KeyRedo: &desktopShortcut{key: fyne.KeyZ, mod: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift},
	}
}

// desktopShortcut is a key plus modifier bound on the window canvas.
type desktopShortcut struct {
	key fyne.KeyName
	mod fyne.KeyModifier
}

func (s *desktopShortcut) ShortcutName() string {
	return "seg-editor:" + string(s.key) + ":" + modName(s.mod)
}

func (s *desktopShortcut) Key() fyne.KeyName {
	return s.key
}

func (s *desktopShortcut) Mod() fyne.KeyModifier {
	return s.mod
}

func modName(m fyne.KeyModifier) string {
	name := ""
	if m&fyne.KeyModifierShift != 0 {
		name += "shift+"
	}
	if m&fyne.KeyModifierControl != 0 {
		name += "ctrl+"
	}
	if m&fyne.KeyModifierSuper != 0 {
		name += "super+"
	}
	if m&fyne.KeyModifierAlt != 0 {
		name += "alt+"
	}
	return name
}
