// Package main provides the entry point for the segmentation editor.
package main

import (
	"log"
	"os"
	"path/filepath"

	"seg-editor/internal/app"
	"seg-editor/internal/project"
	"seg-editor/internal/version"
	"seg-editor/ui/mainwindow"
	"seg-editor/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "org.seg-editor.editor"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s", version.String())

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.Theme{})

	appPrefs := prefs.Load()
	appState := app.NewState(appPrefs.EditorConfig())

	win := mainwindow.New(fyneApp, appState, appPrefs)

	// A session, image, or polygon file may be given on the command line.
	if len(os.Args) > 1 {
		openArg(appState, os.Args[1])
	}

	win.ShowAndRun()
}

func openArg(state *app.State, path string) {
	var err error
	switch filepath.Ext(path) {
	case project.Extension:
		err = state.LoadProject(path)
	case ".json":
		err = state.LoadPolygons(path)
	default:
		err = state.LoadImage(path)
	}
	if err != nil {
		log.Printf("Failed to open %s: %v", path, err)
	}
}
