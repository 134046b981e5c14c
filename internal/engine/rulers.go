package engine

import (
	"math"
	"strconv"

	"github.com/inamate/scenerender/internal/canvas"
)

const (
	RulerWidth      = 20
	RulerColor      = "#888888"
	RulerBackground = "#f5f5f5"

	majorTickLength = 10
	minorTickLength = 5
	ticksPerMajor   = 10
	maxRulerTicks   = 10000
)

// RulerParams places the rulers. Width and Height are normalized screen
// units, i.e. after the device scale but before view zoom.
type RulerParams struct {
	GridSize float64
	GridStep int
	ScrollX  float64
	ScrollY  float64
	Zoom     float64
	Width    float64
	Height   float64
}

// DrawRulers draws the vertical ruler along the left edge and the horizontal
// ruler along the top. A major tick falls on every metre of scene space and is
// labelled with its metre count; ten minor ticks divide each metre.
func DrawRulers(ctx canvas.Context, p RulerParams) {
	drawRuler(ctx, p, false)
	drawRuler(ctx, p, true)
}

func drawRuler(ctx canvas.Context, p RulerParams, horizontal bool) {
	metre := p.GridSize * float64(p.GridStep)
	if metre <= 0 || p.Zoom <= 0 {
		return
	}
	minor := metre / ticksPerMajor

	size, scroll := p.Height, p.ScrollY
	endX, endY := float64(RulerWidth), p.Height
	if horizontal {
		size, scroll = p.Width, p.ScrollX
		endX, endY = p.Width, RulerWidth
	}

	ctx.Save()
	defer ctx.Restore()

	ctx.SetFillStyle(RulerBackground)
	ctx.SetStrokeStyle(RulerColor)
	ctx.SetLineWidth(1)
	ctx.SetLineDash(nil)
	ctx.SetFont(canvas.SansSerif(10))
	ctx.SetTextAlign(canvas.AlignRight)
	ctx.SetTextBaseline(canvas.BaselineAlphabetic)
	ctx.FillRect(0, 0, endX, endY)
	ctx.SetFillStyle(RulerColor)

	// Scene coordinate s lands at (s + scroll) * zoom on screen.
	first := int(math.Ceil(-scroll / minor))
	last := int(math.Floor((size/p.Zoom - scroll) / minor))
	if last-first > maxRulerTicks {
		last = first + maxRulerTicks
	}

	for k := first; k <= last; k++ {
		pos := (float64(k)*minor + scroll) * p.Zoom
		major := k%ticksPerMajor == 0
		length := float64(minorTickLength)
		if major {
			length = majorTickLength
		}

		ctx.BeginPath()
		if horizontal {
			ctx.MoveTo(pos, 0)
			ctx.LineTo(pos, length)
		} else {
			ctx.MoveTo(0, pos)
			ctx.LineTo(length, pos)
		}
		ctx.Stroke()

		if !major || k == 0 {
			continue
		}
		label := strconv.FormatFloat(float64(k)/ticksPerMajor, 'f', -1, 64)
		if horizontal {
			ctx.FillText(label, pos+4, RulerWidth-2)
		} else {
			ctx.FillText(label, RulerWidth-2, pos+4)
		}
	}
}
