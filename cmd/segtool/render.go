package main

import (
	"fmt"

	"seg-editor/internal/editor"
	segimage "seg-editor/internal/image"
	"seg-editor/internal/maskimport"
	"seg-editor/internal/mode"
	"seg-editor/internal/polygon"
	"seg-editor/internal/segmentation"
	"seg-editor/internal/viewport"
	"seg-editor/pkg/colorutil"
	"seg-editor/pkg/geometry"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

var (
	renderOutput    string
	renderZoom      float64
	renderLabels    bool
	renderFillAlpha uint8
	renderBlend     string
	renderTint      string
	renderOpacity   float64
)

var renderCmd = &cobra.Command{
	Use:   "render [image] [polygons.json]",
	Short: "Draw polygons over an image",
	Long: `Render the image with its polygon outlines. With --blend the regions are
also composited as a tinted mask (normal, multiply, screen, overlay or
difference).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "overlay.png", "Output image")
	renderCmd.Flags().Float64VarP(&renderZoom, "zoom", "z", 1, "Output scale")
	renderCmd.Flags().BoolVarP(&renderLabels, "labels", "l", false, "Draw polygon ids")
	renderCmd.Flags().Uint8Var(&renderFillAlpha, "fill-alpha", segimage.DefaultOverlayStyle().FillAlpha, "Region fill opacity (0-255)")
	renderCmd.Flags().StringVar(&renderBlend, "blend", "", "Composite the regions as a mask with this blend mode")
	renderCmd.Flags().StringVar(&renderTint, "tint", colorutil.Hex(colorutil.Magenta), "Mask tint")
	renderCmd.Flags().Float64Var(&renderOpacity, "opacity", 0.5, "Mask opacity (0-1)")
}

func runRender(cmd *cobra.Command, args []string) error {
	layer, err := segimage.Load(args[0])
	if err != nil {
		return err
	}

	set, _ := polygon.NewSet()
	if len(args) > 1 {
		if set, err = segmentation.Load(args[1]); err != nil {
			return err
		}
	}

	vp, err := viewport.New(renderZoom, geometry.Point2D{})
	if err != nil {
		return err
	}
	w := int(float64(layer.Width())*vp.Zoom + 0.5)
	h := int(float64(layer.Height())*vp.Zoom + 0.5)
	out := segimage.RenderView(layer, vp, w, h)

	style := segimage.DefaultOverlayStyle()
	style.Labels = renderLabels
	style.FillAlpha = renderFillAlpha

	if renderBlend != "" {
		mask := maskimport.Rasterize(set, layer.Width(), layer.Height())
		tint := colorutil.ParseHexOr(renderTint, colorutil.Magenta)
		segimage.BlendMask(out, segimage.MaskView(mask, vp, w, h), tint, segimage.ParseBlendMode(renderBlend), renderOpacity)
		style.FillAlpha = 0
	}

	segimage.DrawScene(out, segimage.Scene{
		Polygons: set,
		Mode:     mode.View,
		Preview:  editor.Preview{AnchorIndex: editor.NoVertex},
		Viewport: vp,
	}, style)

	if err := imaging.Save(out, renderOutput); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d, %d polygons)\n", renderOutput, w, h, set.Len())
	return nil
}
