// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"image"
	"strconv"

	"seg-editor/internal/maskimport"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"
)

const previewSize = 256

// MaskImportDialog edits the contour extraction options for a mask, with a
// preview of the thresholded mask.
type MaskImportDialog struct {
	opts   maskimport.Options
	mask   image.Image
	window fyne.Window

	thresholdEntry *widget.Entry
	minAreaEntry   *widget.Entry
	simplifyEntry  *widget.Entry

	preview *fynecanvas.Image

	onImport func(maskimport.Options)
}

// NewMaskImportDialog creates a dialog for mask, starting from opts. mask
// may be nil, in which case no preview is shown.
func NewMaskImportDialog(mask image.Image, opts maskimport.Options, window fyne.Window, onImport func(maskimport.Options)) *MaskImportDialog {
	return &MaskImportDialog{
		opts:     opts,
		mask:     mask,
		window:   window,
		onImport: onImport,
	}
}

// Show displays the dialog.
func (d *MaskImportDialog) Show() {
	dlg := dialog.NewCustomConfirm(
		"Import Mask",
		"Import",
		"Cancel",
		d.createContent(),
		func(ok bool) {
			if ok && d.onImport != nil {
				d.onImport(d.Options())
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(420, 520))
	dlg.Show()
}

func (d *MaskImportDialog) createContent() fyne.CanvasObject {
	d.thresholdEntry = widget.NewEntry()
	d.thresholdEntry.SetText(strconv.Itoa(int(d.opts.Threshold)))
	d.minAreaEntry = widget.NewEntry()
	d.minAreaEntry.SetText(fmt.Sprintf("%.0f", d.opts.MinArea))
	d.simplifyEntry = widget.NewEntry()
	d.simplifyEntry.SetText(fmt.Sprintf("%.2f", d.opts.Simplify))

	form := widget.NewForm(
		widget.NewFormItem("Threshold (0-255)", d.thresholdEntry),
		widget.NewFormItem("Min area (px)", d.minAreaEntry),
		widget.NewFormItem("Simplify (% of perimeter)", d.simplifyEntry),
	)

	cards := []fyne.CanvasObject{widget.NewCard("Contours", "", form)}

	if d.mask != nil {
		d.preview = fynecanvas.NewImageFromImage(d.thresholded())
		d.preview.FillMode = fynecanvas.ImageFillContain
		d.preview.ScaleMode = fynecanvas.ImageScalePixels
		d.preview.SetMinSize(fyne.NewSize(previewSize, previewSize))
		d.thresholdEntry.OnChanged = func(string) { d.updatePreview() }
		cards = append(cards, widget.NewCard("Foreground", "", d.preview))
	}

	return container.NewVBox(cards...)
}

// Options returns the options as edited. Fields that do not parse keep
// their previous value.
func (d *MaskImportDialog) Options() maskimport.Options {
	if d.thresholdEntry == nil {
		return d.opts
	}
	return ParseMaskOptions(d.opts, d.thresholdEntry.Text, d.minAreaEntry.Text, d.simplifyEntry.Text)
}

// ParseMaskOptions applies the text fields to base.
func ParseMaskOptions(base maskimport.Options, threshold, minArea, simplify string) maskimport.Options {
	opts := base
	if v, err := strconv.ParseUint(threshold, 10, 8); err == nil {
		opts.Threshold = uint8(v)
	}
	if v, err := strconv.ParseFloat(minArea, 64); err == nil && v >= 0 {
		opts.MinArea = v
	}
	if v, err := strconv.ParseFloat(simplify, 64); err == nil && v >= 0 {
		opts.Simplify = v
	}
	return opts
}

// thresholded binarizes a downscaled copy of the mask for the preview.
func (d *MaskImportDialog) thresholded() image.Image {
	small := imaging.Fit(d.mask, previewSize, previewSize, imaging.NearestNeighbor)
	return maskimport.Binarize(small, d.Options().Threshold)
}

func (d *MaskImportDialog) updatePreview() {
	d.preview.Image = d.thresholded()
	d.preview.Refresh()
}
