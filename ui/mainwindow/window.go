// Package mainwindow provides the main application window.
package mainwindow

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"seg-editor/internal/app"
	"seg-editor/internal/editor"
	segimage "seg-editor/internal/image"
	"seg-editor/internal/maskimport"
	"seg-editor/internal/project"
	"seg-editor/internal/version"
	"seg-editor/ui/canvas"
	"seg-editor/ui/dialogs"
	"seg-editor/ui/panels"
	"seg-editor/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	appTitle = "Segmentation Editor"

	// Writes of our own are not reported by the polygon file watcher for
	// this long.
	saveQuiet     = 2 * time.Second
	watchDebounce = 300 * time.Millisecond
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	prefs  *prefs.Prefs
	canvas *canvas.EditorCanvas
	panel  *panels.RegionsPanel

	modeLabel *widget.Label
	statusBar *widget.Label

	watcher *app.FileWatcher

	labelsItem *fyne.MenuItem
	imageItem  *fyne.MenuItem
	mainMenu   *fyne.MainMenu
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeys()
	mw.setupEventHandlers()

	mw.SetCloseIntercept(mw.onClose)
	mw.Resize(fyne.NewSize(1200, 800))
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewEditorCanvas(mw.state)
	style := mw.canvas.Style()
	style.FillAlpha = mw.prefs.FillAlpha(style.FillAlpha)
	mw.canvas.SetStyle(style)
	mw.canvas.OnContextMenu(mw.showContextMenu)

	mw.modeLabel = widget.NewLabel(mw.state.Engine.Mode().String())
	mw.statusBar = widget.NewLabel("Ready")

	mw.panel = panels.NewRegionsPanel(mw.state)

	canvasArea := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.canvas,          // center
	)

	// Side panel takes 20% of width
	split := container.NewHSplit(mw.panel.Container(), canvasArea)
	split.SetOffset(0.2)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		split,
	)
	mw.SetContent(content)
}

// createToolbar creates the toolbar with mode and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewLabel("Mode:"),
		mw.modeLabel,
		widget.NewButton("Add Points", func() { mw.pressKey(editor.KeyAddPoints) }),
		widget.NewButton("Slice", func() { mw.pressKey(editor.KeySlice) }),
		widget.NewButton("Cancel", func() { mw.pressKey(editor.KeyEscape) }),
		widget.NewSeparator(),
		widget.NewButton("Undo", mw.onUndo),
		widget.NewButton("Redo", mw.onRedo),
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.canvas.ZoomOut),
		widget.NewButton("+", mw.canvas.ZoomIn),
		widget.NewButton("Fit", mw.canvas.FitToWindow),
		widget.NewButton("1:1", mw.canvas.ActualSize),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Session...", mw.onOpenProject),
		fyne.NewMenuItem("Save Session", mw.onSaveProject),
		fyne.NewMenuItem("Save Session As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Open Polygons...", mw.onOpenPolygons),
		fyne.NewMenuItem("Import Mask...", mw.onImportMask),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Polygons", mw.onSavePolygons),
		fyne.NewMenuItem("Save Polygons As...", mw.onSavePolygonsAs),
		fyne.NewMenuItem("Export Metrics...", mw.onExportMetrics),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", mw.onClose),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Selected Polygon", mw.onDeleteSelected),
		fyne.NewMenuItem("Deselect", func() { mw.request(editor.Action{Kind: editor.ActionDeselect}) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences...", mw.onPreferences),
	)

	mw.labelsItem = fyne.NewMenuItem("Show Labels", mw.onToggleLabels)
	mw.imageItem = fyne.NewMenuItem("Show Image", mw.onToggleImage)
	mw.imageItem.Checked = true

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
		fyne.NewMenuItem("Actual Size", mw.canvas.ActualSize),
		fyne.NewMenuItemSeparator(),
		mw.labelsItem,
		mw.imageItem,
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("Keys", mw.onKeys),
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.mainMenu = fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu)
	mw.SetMainMenu(mw.mainMenu)
}

// setupKeys binds editor keys on the window canvas.
func (mw *MainWindow) setupKeys() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if key, ok := canvas.KeyFor(ev.Name); ok {
			mw.pressKey(key)
		}
	})
	for key, sc := range canvas.Shortcuts() {
		key := key
		mw.Canvas().AddShortcut(sc, func(fyne.Shortcut) { mw.pressKey(key) })
	}
}

// setupEventHandlers registers for application and engine events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Session loaded: " + path)
		}
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Session saved: " + path)
		}
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if layer, ok := data.(*segimage.Layer); ok {
			mw.updateStatus(fmt.Sprintf("Image loaded: %s (%dx%d)",
				filepath.Base(layer.Path), layer.Width(), layer.Height()))
		}
		mw.watchPolygons("")
	})

	mw.state.On(app.EventPolygonsLoaded, func(interface{}) {
		mw.watchPolygons(mw.state.PolygonsFile())
		mw.updateSummary()
	})

	mw.state.On(app.EventPolygonsSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.watchPolygons(path)
			mw.updateStatus("Polygons saved: " + path)
		}
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		modified, _ := data.(bool)
		title := mw.Title()
		hasMark := len(title) > 0 && title[len(title)-1] == '*'
		switch {
		case modified && !hasMark:
			mw.SetTitle(title + " *")
		case !modified && hasMark:
			mw.SetTitle(title[:len(title)-2])
		}
	})

	e := mw.state.Engine
	e.On(editor.EventModeChanged, func(data interface{}) {
		if mc, ok := data.(editor.ModeChange); ok {
			mw.modeLabel.SetText(mc.Mode.String())
			mw.updateSummary()
		}
	})
	e.On(editor.EventPolygonsChanged, func(interface{}) {
		mw.updateSummary()
	})
	e.On(editor.EventEditRejected, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Rejected: " + err.Error())
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// updateSummary shows the selection and the measurements of the polygons.
func (mw *MainWindow) updateSummary() {
	report := mw.state.Metrics()
	text := fmt.Sprintf("%d regions, total area %.4g %s², mean circularity %.3f",
		report.Count, report.TotalArea, report.Scale.Unit, report.MeanCircular)

	if sel := mw.state.Engine.Selected(); sel != "" {
		if r, err := report.Region(sel); err == nil {
			text = fmt.Sprintf("%s: area %.4g %s², perimeter %.4g %s | %s",
				sel, r.NetArea, report.Scale.Unit, r.Perimeter, report.Scale.Unit, text)
		}
	}
	mw.updateStatus(text)
}

func (mw *MainWindow) pressKey(key editor.Key) {
	// Rejections are reported through EventEditRejected.
	_ = mw.state.Engine.KeyPress(key)
}

func (mw *MainWindow) request(a editor.Action) {
	_ = mw.state.Engine.Request(a)
}

// showContextMenu pops up the actions for what is under the pointer.
func (mw *MainWindow) showContextMenu(pos fyne.Position, actions []canvas.MenuAction) {
	items := make([]*fyne.MenuItem, 0, len(actions))
	for _, a := range actions {
		a := a
		items = append(items, fyne.NewMenuItem(a.Label, func() { mw.request(a.Action) }))
	}
	menu := widget.NewPopUpMenu(fyne.NewMenu("", items...), mw.Canvas())
	abs := fyne.CurrentApp().Driver().AbsolutePositionForObject(mw.canvas)
	menu.ShowAtPosition(abs.Add(pos))
}

// watchPolygons follows the polygon file on disk. An empty path stops
// watching.
func (mw *MainWindow) watchPolygons(path string) {
	if mw.watcher != nil {
		if mw.watcher.Path() == path {
			return
		}
		if err := mw.watcher.Stop(); err != nil {
			log.Printf("mainwindow: stop watcher: %v", err)
		}
		mw.watcher = nil
	}
	if path == "" || !mw.prefs.Bool(prefs.KeyWatchPolygons, true) {
		return
	}

	w, err := app.NewFileWatcher(path, watchDebounce)
	if err != nil {
		log.Printf("mainwindow: watch %s: %v", path, err)
		return
	}
	w.OnChange(mw.onPolygonsChangedOnDisk)
	w.Start()
	mw.watcher = w
}

func (mw *MainWindow) onPolygonsChangedOnDisk(path string) {
	msg := fmt.Sprintf("%s changed on disk.\nReload it?", filepath.Base(path))
	if mw.state.IsModified() {
		msg += "\nUnsaved edits will be lost."
	}
	dialog.ShowConfirm("Polygons Changed", msg, func(ok bool) {
		if !ok {
			return
		}
		if err := mw.state.LoadPolygons(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
}

// quiet keeps our own writes from triggering a reload prompt.
func (mw *MainWindow) quiet() {
	if mw.watcher != nil {
		mw.watcher.Suppress(saveQuiet)
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
}

// openFile shows a file open dialog filtered to exts and calls load with the
// chosen path.
func (mw *MainWindow) openFile(exts []string, load func(path string) error) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := load(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(exts))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// saveFile shows a file save dialog and calls save with the chosen path,
// forcing ext.
func (mw *MainWindow) saveFile(name, ext string, save func(path string) error) {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ext {
			path += ext
		}
		mw.saveLastDir(path)
		if err := save(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName(name)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// confirmDiscard runs next directly, or after confirmation when there are
// unsaved edits.
func (mw *MainWindow) confirmDiscard(next func()) {
	if !mw.state.IsModified() {
		next()
		return
	}
	dialog.ShowConfirm("Unsaved Changes", "Discard unsaved polygon edits?", func(ok bool) {
		if ok {
			next()
		}
	}, mw.Window)
}

// Menu action handlers

func (mw *MainWindow) onOpenProject() {
	mw.confirmDiscard(func() {
		mw.openFile([]string{project.Extension}, mw.state.LoadProject)
	})
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	mw.quiet()
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	mw.saveFile("session"+project.Extension, project.Extension, func(path string) error {
		mw.quiet()
		return mw.state.SaveProject(path)
	})
}

func (mw *MainWindow) onOpenImage() {
	mw.confirmDiscard(func() {
		mw.openFile(segimage.SupportedFormats(), mw.state.LoadImage)
	})
}

func (mw *MainWindow) onOpenPolygons() {
	mw.confirmDiscard(func() {
		mw.openFile([]string{".json"}, mw.state.LoadPolygons)
	})
}

func (mw *MainWindow) onImportMask() {
	mw.confirmDiscard(func() {
		mw.openFile(segimage.SupportedFormats(), func(path string) error {
			layer, err := segimage.Load(path)
			if err != nil {
				return err
			}
			dialogs.NewMaskImportDialog(layer.Image, maskimport.DefaultOptions(), mw.Window, func(opts maskimport.Options) {
				stats, err := mw.state.ImportMask(path, opts)
				if err != nil {
					dialog.ShowError(err, mw.Window)
					return
				}
				mw.updateStatus(fmt.Sprintf("Imported %d regions and %d holes from %s (%d dropped)",
					stats.External, stats.Holes, filepath.Base(path), stats.Dropped))
			}).Show()
			return nil
		})
	})
}

func (mw *MainWindow) onSavePolygons() {
	path := mw.state.PolygonsFile()
	if path == "" {
		mw.onSavePolygonsAs()
		return
	}
	mw.quiet()
	if err := mw.state.SavePolygons(path); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSavePolygonsAs() {
	mw.saveFile("polygons.json", ".json", func(path string) error {
		mw.quiet()
		return mw.state.SavePolygons(path)
	})
}

func (mw *MainWindow) onExportMetrics() {
	mw.saveFile("metrics.json", ".json", func(path string) error {
		data, err := json.MarshalIndent(mw.state.Metrics(), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		mw.updateStatus("Metrics exported: " + path)
		return nil
	})
}

func (mw *MainWindow) onUndo() {
	mw.pressKey(editor.KeyUndo)
}

func (mw *MainWindow) onRedo() {
	mw.pressKey(editor.KeyRedo)
}

func (mw *MainWindow) onDeleteSelected() {
	sel := mw.state.Engine.Selected()
	if sel == "" {
		mw.updateStatus("No polygon selected")
		return
	}
	mw.request(editor.Action{Kind: editor.ActionDeletePolygon, PolygonID: sel})
}

func (mw *MainWindow) onToggleLabels() {
	style := mw.canvas.Style()
	style.Labels = !style.Labels
	mw.canvas.SetStyle(style)
	mw.labelsItem.Checked = style.Labels
	mw.mainMenu.Refresh()
}

func (mw *MainWindow) onToggleImage() {
	layer := mw.state.CurrentImage()
	if layer == nil {
		return
	}
	layer.Visible = !layer.Visible
	mw.imageItem.Checked = layer.Visible
	mw.mainMenu.Refresh()
	mw.canvas.Refresh()
}

// onPreferences edits the interaction settings and the fill opacity.
func (mw *MainWindow) onPreferences() {
	cfg := mw.state.Engine.Config()
	style := mw.canvas.Style()

	hover := widget.NewEntry()
	hover.SetText(strconv.FormatFloat(cfg.HoverThreshold, 'g', -1, 64))
	radius := widget.NewEntry()
	radius.SetText(strconv.FormatFloat(cfg.VertexRadius, 'g', -1, 64))
	limit := widget.NewEntry()
	limit.SetText(strconv.Itoa(cfg.HistoryLimit))
	alpha := widget.NewSlider(0, 255)
	alpha.SetValue(float64(style.FillAlpha))
	watch := widget.NewCheck("", nil)
	watch.SetChecked(mw.prefs.Bool(prefs.KeyWatchPolygons, true))

	items := []*widget.FormItem{
		widget.NewFormItem("Hover threshold (px)", hover),
		widget.NewFormItem("Vertex radius (px)", radius),
		widget.NewFormItem("Undo steps", limit),
		widget.NewFormItem("Fill opacity", alpha),
		widget.NewFormItem("Watch polygon file", watch),
	}

	dialog.ShowForm("Preferences", "Apply", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		next, err := parseConfig(hover.Text, radius.Text, limit.Text)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.Engine.SetConfig(next)
		mw.prefs.SetEditorConfig(mw.state.Engine.Config())

		style.FillAlpha = uint8(alpha.Value)
		mw.canvas.SetStyle(style)
		mw.prefs.SetFloat(prefs.KeyFillAlpha, alpha.Value)

		mw.prefs.SetBool(prefs.KeyWatchPolygons, watch.Checked)
		if watch.Checked {
			mw.watchPolygons(mw.state.PolygonsFile())
		} else {
			mw.watchPolygons("")
		}
		mw.savePreferences()
	}, mw.Window)
}

var errBadSetting = errors.New("settings must be positive numbers")

// parseConfig reads the preference form fields.
func parseConfig(hover, radius, limit string) (editor.Config, error) {
	h, err1 := strconv.ParseFloat(hover, 64)
	r, err2 := strconv.ParseFloat(radius, 64)
	l, err3 := strconv.Atoi(limit)
	if err1 != nil || err2 != nil || err3 != nil || h <= 0 || r <= 0 || l <= 0 {
		return editor.Config{}, errBadSetting
	}
	return editor.Config{HoverThreshold: h, VertexRadius: r, HistoryLimit: l}, nil
}

func (mw *MainWindow) onKeys() {
	dialog.ShowInformation("Keys",
		"Click a polygon to select it, drag its vertices to move them.\n"+
			"Shift+click an edge to insert a vertex.\n\n"+
			"A  add points from the vertex under the pointer\n"+
			"S  slice from the vertex under the pointer\n"+
			"D  duplicate the vertex under the pointer\n"+
			"Delete  delete the vertex under the pointer\n"+
			"Esc  cancel, then deselect\n"+
			"Ctrl+Z / Ctrl+Shift+Z  undo / redo\n\n"+
			"Middle drag or drag on empty space pans, the wheel zooms.",
		mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Interactive polygon editing for microscopy segmentation.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// onClose asks about unsaved edits, then saves preferences and quits.
func (mw *MainWindow) onClose() {
	mw.confirmDiscard(func() {
		mw.savePreferences()
		if mw.watcher != nil {
			_ = mw.watcher.Stop()
		}
		mw.app.Quit()
	})
}

// savePreferences persists the editor settings.
func (mw *MainWindow) savePreferences() {
	mw.prefs.SetEditorConfig(mw.state.Engine.Config())
	if err := mw.prefs.Save(); err != nil {
		log.Printf("mainwindow: save preferences: %v", err)
	}
}
