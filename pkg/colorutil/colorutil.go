// Package colorutil provides the polygon palette and the color helpers used
// to draw overlays.
package colorutil

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.NRGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.NRGBA{R: 255, G: 0, B: 255, A: 255}
	Yellow  = color.NRGBA{R: 255, G: 255, B: 0, A: 255}
	Red     = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

// Palette assigns colors to extracted regions, cycling by index.
var Palette = []string{
	"#FF5733", "#33FF57", "#3357FF", "#F033FF", "#FF33F0",
	"#33FFF0", "#F0FF33", "#FF3333", "#33FF33", "#3333FF",
}

// PaletteColor returns the palette entry for index i.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// ParseHex parses "#rrggbb" into an opaque color.
func ParseHex(s string) (color.NRGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return toNRGBA(c, 255), nil
}

// ParseHexOr is ParseHex with a fallback for empty or malformed input.
func ParseHexOr(s string, fallback color.NRGBA) color.NRGBA {
	if s == "" {
		return fallback
	}
	c, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}

// Hex formats c as "#rrggbb", ignoring alpha.
func Hex(c color.Color) string {
	cf, _ := colorful.MakeColor(opaque(c))
	return cf.Hex()
}

// Highlight blends c toward white in Lab space by t in [0, 1], keeping its
// alpha. Used for hovered edges and selected rings.
func Highlight(c color.NRGBA, t float64) color.NRGBA {
	cf, _ := colorful.MakeColor(opaque(c))
	white := colorful.Color{R: 1, G: 1, B: 1}
	return toNRGBA(cf.BlendLab(white, clamp01(t)).Clamped(), c.A)
}

// WithAlpha returns c with alpha a.
func WithAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

// Contrast returns black or white, whichever reads better on c.
func Contrast(c color.NRGBA) color.NRGBA {
	cf, _ := colorful.MakeColor(opaque(c))
	l, _, _ := cf.Lab()
	if l > 0.6 {
		return Black
	}
	return White
}

func toNRGBA(c colorful.Color, a uint8) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// opaque drops alpha so MakeColor sees the straight color.
func opaque(c color.Color) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 255
	return n
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
