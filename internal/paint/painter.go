// Package paint draws individual scene elements onto a canvas.Context. It is
// the element renderer the compositor delegates each shape to.
package paint

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/colorfx"
	"github.com/inamate/scenerender/internal/engine"
	"github.com/inamate/scenerender/internal/geom"
	"github.com/inamate/scenerender/internal/scene"
)

// ErrUnsupportedElement is returned for element kinds the painter cannot draw.
var ErrUnsupportedElement = errors.New("unsupported element type")

const (
	defaultFontSize   = 20
	lineHeight        = 1.25
	frameNameFontSize = 14
	frameNameOffset   = 6
	frameStrokeColor  = "#bbb"
	frameNameColor    = "#999999"
	imagePlaceholder  = "#e9ecef"

	// Roundness types of rectangles.
	roundnessProportional = 2
	roundnessAdaptive     = 3
	adaptiveRadius        = 32
	proportionalRadius    = 0.25
)

// Painter draws elements in scene space: the context it receives carries the
// device scale and zoom, and the painter applies scroll and rotation.
type Painter struct {
	logger *slog.Logger

	mu     sync.RWMutex
	assets ImageSource
	files  ImageSource
}

// New creates a painter that resolves image bitmaps from assets. assets may be nil.
func New(assets ImageSource, logger *slog.Logger) *Painter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Painter{assets: assets, logger: logger}
}

// LoadFiles replaces the snapshot-embedded files used for image elements.
// They take precedence over the asset store.
func (p *Painter) LoadFiles(files map[string]scene.BinaryFile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files = NewFileImages(files)
}

func (p *Painter) images() ImageSource {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Sources{p.files, p.assets}
}

// RenderElement draws one element. It satisfies engine.ElementRenderer.
func (p *Painter) RenderElement(ctx canvas.Context, el scene.Element, _, _ scene.ElementsMap, rc engine.RenderConfig, state scene.AppState) error {
	x1, y1, x2, y2 := scene.AbsoluteCoords(el)
	cx, cy := (x1+x2)/2, (y1+y2)/2

	ctx.Save()
	defer ctx.Restore()
	ctx.Translate(cx+state.ScrollX, cy+state.ScrollY)
	ctx.Rotate(el.Angle)

	switch el.Type {
	case scene.TypeRectangle, scene.TypeEmbeddable, scene.TypeIframe:
		p.drawShape(ctx, el, rectanglePath(el))
	case scene.TypeDiamond:
		p.drawShape(ctx, el, diamondPath(el.Width, el.Height))
	case scene.TypeEllipse:
		p.drawShape(ctx, el, ellipsePath(el.Width/2, el.Height/2))
	case scene.TypeLine, scene.TypeArrow, scene.TypeFreedraw:
		p.drawLinear(ctx, el, geom.Vec(cx, cy))
	case scene.TypeText:
		p.drawText(ctx, el)
	case scene.TypeImage:
		p.drawImage(ctx, el)
	case scene.TypeFrame, scene.TypeMagicFrame:
		p.drawFrame(ctx, el, rc, state)
	default:
		return fmt.Errorf("paint %s %s: %w", el.Type, el.ID, ErrUnsupportedElement)
	}
	return nil
}

func rectanglePath(el scene.Element) []PathCommand {
	if el.Roundness == nil {
		return rectPath(el.Width, el.Height)
	}
	return roundRectPath(el.Width, el.Height, cornerRadius(math.Min(math.Abs(el.Width), math.Abs(el.Height)), el.Roundness.Type))
}

// cornerRadius sizes rounded corners: adaptive corners stay at a fixed radius
// once the shape is large enough, proportional ones scale with the shape.
func cornerRadius(size float64, roundness int) float64 {
	if roundness == roundnessAdaptive {
		cutoff := adaptiveRadius / proportionalRadius
		if size <= cutoff {
			return size * proportionalRadius
		}
		return adaptiveRadius
	}
	return size * proportionalRadius
}

func dashFor(style string, width float64) []float64 {
	switch style {
	case "dashed":
		return []float64{8, 8 + width}
	case "dotted":
		return []float64{1.5, 6 + width}
	}
	return nil
}

func hasFill(bg string) bool {
	return bg != "" && bg != colorfx.Transparent
}

func (p *Painter) applyStroke(ctx canvas.Context, el scene.Element) {
	width := el.StrokeWidth
	if width <= 0 {
		width = 1
	}
	ctx.SetStrokeStyle(el.StrokeColor)
	ctx.SetLineWidth(width)
	ctx.SetLineDash(dashFor(el.StrokeStyle, width))
}

func (p *Painter) drawShape(ctx canvas.Context, el scene.Element, path []PathCommand) {
	ctx.BeginPath()
	trace(ctx, path)
	if hasFill(el.BackgroundColor) {
		ctx.SetFillStyle(el.BackgroundColor)
		ctx.Fill()
	}
	if el.StrokeColor != "" && el.StrokeColor != colorfx.Transparent {
		p.applyStroke(ctx, el)
		ctx.Stroke()
	}
}

// drawLinear draws the element's points relative to center. A line whose
// last point meets its first is a closed polygon and takes the background.
func (p *Painter) drawLinear(ctx canvas.Context, el scene.Element, center geom.Vector) {
	if len(el.Points) == 0 {
		return
	}
	pts := make([]geom.Vector, len(el.Points))
	for i, pt := range el.Points {
		pts[i] = geom.Vec(el.X+pt.X-center.X, el.Y+pt.Y-center.Y)
	}

	ctx.BeginPath()
	trace(ctx, polylinePath(pts))
	closed := len(pts) > 2 && pts[0] == pts[len(pts)-1]
	if closed && el.Type == scene.TypeLine && hasFill(el.BackgroundColor) {
		ctx.SetFillStyle(el.BackgroundColor)
		ctx.Fill()
	}
	p.applyStroke(ctx, el)
	ctx.Stroke()

	if el.Type == scene.TypeArrow && len(pts) >= 2 {
		head := arrowheadPath(pts[len(pts)-2], pts[len(pts)-1], el.StrokeWidth)
		if head == nil {
			return
		}
		ctx.BeginPath()
		trace(ctx, head)
		ctx.SetLineDash(nil)
		ctx.Stroke()
	}
}

// drawText lays out each line of el.Text inside the element box. Elements
// without a box, such as embed placeholders, are centered on their origin.
func (p *Painter) drawText(ctx canvas.Context, el scene.Element) {
	if el.Text == "" {
		return
	}
	size := el.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	lines := strings.Split(el.Text, "\n")
	step := size * lineHeight
	total := step * float64(len(lines))

	ctx.SetFont(canvas.SansSerif(size))
	ctx.SetFillStyle(el.StrokeColor)
	ctx.SetTextBaseline(canvas.BaselineTop)

	x := -el.Width / 2
	switch el.TextAlign {
	case "center":
		ctx.SetTextAlign(canvas.AlignCenter)
		x = 0
	case "right":
		ctx.SetTextAlign(canvas.AlignRight)
		x = el.Width / 2
	default:
		ctx.SetTextAlign(canvas.AlignLeft)
	}

	y := -el.Height / 2
	switch el.VerticalAlign {
	case "middle":
		y = -total / 2
	case "bottom":
		y = el.Height/2 - total
	}

	for i, line := range lines {
		ctx.FillText(line, x, y+float64(i)*step)
	}
}

func (p *Painter) drawImage(ctx canvas.Context, el scene.Element) {
	x, y := -el.Width/2, -el.Height/2
	img, err := p.images().Image(el.FileID)
	if err != nil {
		p.logger.Debug("image placeholder", "element", el.ID, "file", el.FileID, "error", err)
		ctx.SetFillStyle(imagePlaceholder)
		ctx.FillRect(x, y, el.Width, el.Height)
		return
	}
	ctx.DrawImage(img, x, y, el.Width, el.Height)
}

// drawFrame draws the outline and name of a frame. Line width and name size
// stay constant on screen regardless of zoom.
func (p *Painter) drawFrame(ctx canvas.Context, el scene.Element, rc engine.RenderConfig, state scene.AppState) {
	fr := state.FrameRendering
	if !fr.Enabled {
		return
	}
	zoom := state.Zoom.Value
	if zoom <= 0 {
		zoom = 1
	}

	if hasFill(el.BackgroundColor) {
		ctx.BeginPath()
		trace(ctx, roundRectPath(el.Width, el.Height, scene.FrameRadius/zoom))
		ctx.SetFillStyle(el.BackgroundColor)
		ctx.Fill()
	}

	if fr.Outline {
		ctx.BeginPath()
		trace(ctx, roundRectPath(el.Width, el.Height, scene.FrameRadius/zoom))
		ctx.SetStrokeStyle(frameStrokeColor)
		ctx.SetLineWidth(1 / zoom)
		ctx.SetLineDash(nil)
		ctx.Stroke()
	}

	if fr.Name && !rc.IsExporting {
		name := el.Name
		if name == "" {
			name = "Frame"
		}
		ctx.SetFont(canvas.SansSerif(frameNameFontSize / zoom))
		ctx.SetFillStyle(frameNameColor)
		ctx.SetTextAlign(canvas.AlignLeft)
		ctx.SetTextBaseline(canvas.BaselineBottom)
		ctx.FillText(name, -el.Width/2, -el.Height/2-frameNameOffset/zoom)
	}
}
