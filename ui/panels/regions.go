// Package panels provides the side panels of the main window.
package panels

import (
	"fmt"
	"sort"

	"seg-editor/internal/app"
	"seg-editor/internal/editor"
	"seg-editor/internal/features"
	"seg-editor/internal/polygon"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"gonum.org/v1/gonum/stat"
)

// RegionsPanel lists the polygons with their measurements. Choosing a row
// selects the polygon for editing.
type RegionsPanel struct {
	state *app.State

	list    *widget.List
	summary *widget.Label
	box     fyne.CanvasObject

	report  features.Report
	regions []features.Region

	// Set while the list follows the engine, so OnSelected does not echo
	// the selection back.
	syncing bool
}

// NewRegionsPanel creates the panel and subscribes it to state.
func NewRegionsPanel(state *app.State) *RegionsPanel {
	rp := &RegionsPanel{state: state}

	rp.summary = widget.NewLabel("")
	rp.summary.Wrapping = fyne.TextWrapWord

	rp.list = widget.NewList(
		func() int { return len(rp.regions) },
		func() fyne.CanvasObject { return widget.NewLabel("polygon-0000 0000000") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(rp.regions) {
				obj.(*widget.Label).SetText(rowText(rp.regions[id], rp.report.Scale))
			}
		},
	)
	rp.list.OnSelected = rp.onSelected

	rp.box = container.NewBorder(
		widget.NewLabelWithStyle("Regions", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		rp.summary,
		nil,
		nil,
		rp.list,
	)

	refresh := func(interface{}) { rp.Refresh() }
	state.On(app.EventPolygonsLoaded, refresh)
	state.On(app.EventImageLoaded, refresh)
	state.Engine.On(editor.EventPolygonsChanged, refresh)
	state.Engine.On(editor.EventModeChanged, func(interface{}) { rp.syncSelection() })

	rp.Refresh()
	return rp
}

// Container returns the panel for embedding.
func (rp *RegionsPanel) Container() fyne.CanvasObject {
	return rp.box
}

// Refresh re-measures the polygons.
func (rp *RegionsPanel) Refresh() {
	rp.report = rp.state.Metrics()
	rp.regions = sortedRegions(rp.report)
	rp.summary.SetText(summarize(rp.report))
	rp.list.Refresh()
	rp.syncSelection()
}

func (rp *RegionsPanel) onSelected(id widget.ListItemID) {
	if rp.syncing || id >= len(rp.regions) {
		return
	}
	sel := rp.regions[id].ID
	if sel == rp.state.Engine.Selected() {
		return
	}
	// Rejections surface through EventEditRejected.
	_ = rp.state.Engine.Request(editor.Action{Kind: editor.ActionSelect, PolygonID: sel})
}

// syncSelection highlights the row of the engine's selected polygon.
func (rp *RegionsPanel) syncSelection() {
	rp.syncing = true
	defer func() { rp.syncing = false }()

	sel := rp.state.Engine.Selected()
	for i, r := range rp.regions {
		if r.ID == sel {
			rp.list.Select(i)
			rp.list.ScrollTo(i)
			return
		}
	}
	rp.list.UnselectAll()
}

// sortedRegions lists the regions in id order, each hole right
// after its parent.
func sortedRegions(r features.Report) []features.Region {
	var outer []features.Region
	holes := make(map[string][]features.Region)
	for _, reg := range r.Regions {
		if reg.Kind == polygon.KindInternal && reg.ParentID != "" {
			holes[reg.ParentID] = append(holes[reg.ParentID], reg)
			continue
		}
		outer = append(outer, reg)
	}

	byID := func(list []features.Region) {
		sort.SliceStable(list, func(i, j int) bool { return idLess(list[i].ID, list[j].ID) })
	}
	byID(outer)

	out := make([]features.Region, 0, len(r.Regions))
	for _, reg := range outer {
		out = append(out, reg)
		hs := holes[reg.ID]
		byID(hs)
		out = append(out, hs...)
		delete(holes, reg.ID)
	}
	// Holes whose parent is missing go last.
	var orphans []features.Region
	for _, hs := range holes {
		orphans = append(orphans, hs...)
	}
	byID(orphans)
	return append(out, orphans...)
}

func rowText(r features.Region, scale features.Scale) string {
	if r.Kind == polygon.KindInternal {
		return fmt.Sprintf("  %s  %.4g %s²", r.ID, r.Area, scale.Unit)
	}
	return fmt.Sprintf("%s  %.4g %s²  c=%.2f", r.ID, r.NetArea, scale.Unit, r.Circularity)
}

// summarize reports the count and the area spread of the external regions.
func summarize(r features.Report) string {
	if r.Count == 0 {
		return "No regions"
	}
	var areas []float64
	for _, reg := range r.Regions {
		if reg.Kind == polygon.KindExternal {
			areas = append(areas, reg.NetArea)
		}
	}
	mean, sd := stat.PopMeanStdDev(areas, nil)
	return fmt.Sprintf("%d regions\narea %.4g ± %.3g %s²\ncircularity %.3f",
		r.Count, mean, sd, r.Scale.Unit, r.MeanCircular)
}
