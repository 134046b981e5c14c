package engine

import (
	"math"

	"github.com/inamate/scenerender/internal/canvas"
)

const (
	GridLineBold    = "#dddddd"
	GridLineRegular = "#e5e5e5"

	// minGridCellPixels is the zoomed cell size below which regular lines
	// are dropped.
	minGridCellPixels = 10
)

// GridParams places the grid. Width and Height are in zoomed scene units.
type GridParams struct {
	Size    float64
	Step    int
	ScrollX float64
	ScrollY float64
	Zoom    float64
	Width   float64
	Height  float64
}

// jsRound rounds half up, matching the browser's Math.round.
func jsRound(v float64) float64 {
	return math.Floor(v + 0.5)
}

func isBoldLine(pos, scroll float64, p GridParams) bool {
	if p.Step <= 1 {
		return false
	}
	return math.Mod(jsRound(pos-scroll), float64(p.Step)*p.Size) == 0
}

// StrokeGrid draws the infinite grid over the visible area. Lines are
// anchored to scene space through the scroll offset; every Step-th line is
// solid and bold, the rest dashed and dropped entirely when the zoomed cell
// is too small to read.
func StrokeGrid(ctx canvas.Context, p GridParams) {
	if p.Size <= 0 || p.Zoom <= 0 {
		return
	}
	offsetX := math.Mod(p.ScrollX, p.Size) - p.Size
	offsetY := math.Mod(p.ScrollY, p.Size) - p.Size

	actualGridSize := p.Size * p.Zoom
	spaceWidth := 1 / p.Zoom

	ctx.Save()
	defer ctx.Restore()

	// Half-pixel offset keeps 1px lines crisp, only at 100% where it stays
	// on the pixel grid. Axes already on a half pixel are left alone.
	if p.Zoom == 1 {
		tx, ty := 0.5, 0.5
		if math.Mod(offsetX, 1) != 0 {
			tx = 0
		}
		if math.Mod(offsetY, 1) != 0 {
			ty = 0
		}
		ctx.Translate(tx, ty)
	}

	line := func(bold bool, x1, y1, x2, y2 float64) {
		lineWidth := math.Min(1/p.Zoom, 1)
		if bold {
			lineWidth = math.Min(1/p.Zoom, 4)
		}
		ctx.SetLineWidth(lineWidth)
		ctx.BeginPath()
		if bold {
			ctx.SetLineDash(nil)
			ctx.SetStrokeStyle(GridLineBold)
		} else {
			ctx.SetLineDash([]float64{lineWidth * 3, spaceWidth + (lineWidth + spaceWidth)})
			ctx.SetStrokeStyle(GridLineRegular)
		}
		ctx.MoveTo(x1, y1)
		ctx.LineTo(x2, y2)
		ctx.Stroke()
	}

	for x := offsetX; x < offsetX+p.Width+p.Size*2; x += p.Size {
		bold := isBoldLine(x, p.ScrollX, p)
		if !bold && actualGridSize < minGridCellPixels {
			continue
		}
		line(bold, x, offsetY-p.Size, x, math.Ceil(offsetY+p.Height+p.Size*2))
	}

	for y := offsetY; y < offsetY+p.Height+p.Size*2; y += p.Size {
		bold := isBoldLine(y, p.ScrollY, p)
		if !bold && actualGridSize < minGridCellPixels {
			continue
		}
		line(bold, offsetX-p.Size, y, math.Ceil(offsetX+p.Width+p.Size*2), y)
	}
}
