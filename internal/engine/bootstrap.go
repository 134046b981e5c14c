package engine

import (
	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/colorfx"
	"github.com/inamate/scenerender/internal/scene"
)

// SurfaceConfig describes how a raster surface is prepared for a frame.
type SurfaceConfig struct {
	// Scale is the device stage: device pixel ratio or export scale.
	Scale               float64
	NormalizedWidth     float64
	NormalizedHeight    float64
	Theme               scene.Theme
	IsExporting         bool
	ViewBackgroundColor string
}

// NormalizedDimensions returns the surface size in the coordinate space left
// after the device scale is applied.
func NormalizedDimensions(ctx canvas.Context, scale float64) (float64, float64) {
	if scale <= 0 {
		scale = 1
	}
	return float64(ctx.Width()) / scale, float64(ctx.Height()) / scale
}

// Bootstrap resets the transform, applies the device scale, the export theme
// filter and the background. It reports whether the dark theme still has to
// be applied as a pixel post-process because the context has no filter support.
func Bootstrap(ctx canvas.Context, cfg SurfaceConfig) (needsPostFilter bool) {
	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}
	ctx.SetTransform(1, 0, 0, 1, 0, 0)
	ctx.Scale(scale, scale)

	if cfg.IsExporting && cfg.Theme == scene.ThemeDark {
		needsPostFilter = !ctx.SetFilter(colorfx.ThemeFilter)
	}

	paintBackground(ctx, cfg.ViewBackgroundColor, cfg.NormalizedWidth, cfg.NormalizedHeight)
	return needsPostFilter
}

// paintBackground clears then fills translucent backgrounds so they composite
// over an empty surface, fills opaque ones directly, and only clears when no
// usable color is configured.
func paintBackground(ctx canvas.Context, bg string, w, h float64) {
	ctx.Save()
	defer ctx.Restore()

	if _, err := colorfx.Parse(bg); bg == "" || err != nil {
		ctx.ClearRect(0, 0, w, h)
		return
	}
	if colorfx.IsTransparent(bg) {
		ctx.ClearRect(0, 0, w, h)
	}
	ctx.SetFillStyle(bg)
	ctx.FillRect(0, 0, w, h)
}

// ApplyThemePostFilter runs the dark-theme color transform over the whole
// surface. It reports false when the context exposes no pixel memory.
func ApplyThemePostFilter(ctx canvas.Context) bool {
	pb, ok := ctx.(canvas.PixelBuffer)
	if !ok {
		return false
	}
	colorfx.ApplyInvertFilter(pb.Pix())
	return true
}
