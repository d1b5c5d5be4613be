// Package image provides microscopy image loading, resolution metadata, and
// compositing of the image and polygon overlays into a view.
package image

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"seg-editor/internal/features"
	"seg-editor/pkg/geometry"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// Layer is the image being annotated.
type Layer struct {
	Path      string      // Original file path
	Image     image.Image // Decoded, orientation-corrected pixels
	PixelSize float64     // Micrometres per pixel, 0 when unknown
	Visible   bool
	Opacity   float64 // 0.0 - 1.0
}

// NewLayer creates a new Layer with default settings.
func NewLayer() *Layer {
	return &Layer{
		Visible: true,
		Opacity: 1.0,
	}
}

// Load decodes an image file, applying EXIF orientation. For TIFF files the
// resolution tags give the pixel size.
func Load(path string) (*Layer, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	layer := NewLayer()
	layer.Path = path
	layer.Image = img

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if size, err := tiffPixelSize(path); err == nil {
			layer.PixelSize = size
		}
	}

	return layer, nil
}

// FromImage wraps already decoded pixels.
func FromImage(img image.Image) *Layer {
	layer := NewLayer()
	layer.Image = img
	return layer
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (l *Layer) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(l.Width()),
		Height: float64(l.Height()),
	}
}

// Scale returns the measurement scale for the image: micrometres when the
// pixel size is known, pixels otherwise.
func (l *Layer) Scale() features.Scale {
	if l.PixelSize <= 0 {
		return features.Pixels
	}
	return features.Scale{PixelSize: l.PixelSize, Unit: "µm"}
}

// PixelAt returns the color at the specified pixel coordinates.
func (l *Layer) PixelAt(x, y int) color.Color {
	if l.Image == nil {
		return color.Black
	}
	bounds := l.Image.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return color.Black
	}
	return l.Image.At(x, y)
}

// Grayscale returns the layer converted to 8-bit gray.
func (l *Layer) Grayscale() *image.NRGBA {
	return imaging.Grayscale(l.Image)
}

// tiffPixelSize reads XResolution/YResolution and ResolutionUnit from the
// first IFD and returns micrometres per pixel.
func tiffPixelSize(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	// Read TIFF header to determine byte order
	header := make([]byte, 8)
	if _, err := io.ReadFull(file, header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	if header[0] == 'I' && header[1] == 'I' {
		byteOrder = binary.LittleEndian
	} else if header[0] == 'M' && header[1] == 'M' {
		byteOrder = binary.BigEndian
	} else {
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), io.SeekStart); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // Default to inches

	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := io.ReadFull(file, entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		valueOffset := byteOrder.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 { // RATIONAL
				xRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 283: // YResolution
			if fieldType == 5 {
				yRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 { // SHORT, left-justified in the value field
				resUnit = byteOrder.Uint16(entry[8:10])
			}
		}
	}

	res := xRes
	if res == 0 {
		res = yRes
	}
	if res == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}

	switch resUnit {
	case 2: // inch
		return 25400 / res, nil
	case 3: // centimetre
		return 10000 / res, nil
	default:
		return 0, fmt.Errorf("resolution has no absolute unit")
	}
}

// readTIFFRational reads a RATIONAL value (two uint32s) from a TIFF file.
func readTIFFRational(file *os.File, offset int64, byteOrder binary.ByteOrder) float64 {
	currentPos, _ := file.Seek(0, io.SeekCurrent)
	defer file.Seek(currentPos, io.SeekStart)

	file.Seek(offset, io.SeekStart)
	var num, denom uint32
	binary.Read(file, byteOrder, &num)
	binary.Read(file, byteOrder, &denom)

	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".bmp", ".gif"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
