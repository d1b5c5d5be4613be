// Command segtool works with segmentation results without the editor:
// tracing masks, measuring and checking polygon files, and rendering
// overlays.
package main

import (
	"fmt"
	"os"

	"seg-editor/internal/features"
	segimage "seg-editor/internal/image"
	"seg-editor/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "segtool",
	Short: "Inspect, measure and render microscopy segmentation polygons",
	Long: `segtool works on segmentation result files (JSON polygon lists).
It traces binary masks into polygons, reports per-region morphology,
checks ring invariants and renders polygon overlays onto images.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveScale picks the measurement scale: an explicit pixel size wins,
// then the resolution stored in the image.
func resolveScale(imagePath string, pixelSize float64) (features.Scale, error) {
	if pixelSize > 0 {
		return features.Scale{PixelSize: pixelSize, Unit: "µm"}, nil
	}
	if imagePath == "" {
		return features.Pixels, nil
	}
	layer, err := segimage.Load(imagePath)
	if err != nil {
		return features.Scale{}, err
	}
	return layer.Scale(), nil
}
