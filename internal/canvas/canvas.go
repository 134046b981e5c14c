// Package canvas defines the immediate-mode raster context the renderer draws
// through. Its shape follows Canvas2D so that a browser frontend can replay
// recorded commands one to one, while server-side backends rasterize directly.
package canvas

import "image"

// TextAlign is the horizontal anchor of FillText.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// TextBaseline is the vertical anchor of FillText.
type TextBaseline string

const (
	BaselineTop        TextBaseline = "top"
	BaselineMiddle     TextBaseline = "middle"
	BaselineAlphabetic TextBaseline = "alphabetic"
	BaselineBottom     TextBaseline = "bottom"
)

// Font describes the face used for FillText.
type Font struct {
	Size   float64 `json:"size"`
	Family string  `json:"family"`
}

// SansSerif returns a sans-serif font of the given pixel size.
func SansSerif(size float64) Font {
	return Font{Size: size, Family: "sans-serif"}
}

// Context is a 2D raster drawing context. Coordinates are transformed by the
// current transform; Save and Restore bracket transform, style and clip state.
type Context interface {
	// Width and Height are the physical pixel dimensions of the surface.
	Width() int
	Height() int

	Save()
	Restore()

	SetTransform(a, b, c, d, e, f float64)
	Scale(x, y float64)
	Translate(x, y float64)
	Rotate(angle float64)

	// SetFilter applies a CSS filter string to everything drawn afterwards.
	// It reports false when the backend has no filter support.
	SetFilter(filter string) bool

	SetFillStyle(color string)
	SetStrokeStyle(color string)
	SetLineWidth(width float64)
	SetLineDash(segments []float64)
	SetFont(font Font)
	SetTextAlign(align TextAlign)
	SetTextBaseline(baseline TextBaseline)
	SetShadow(color string, blur float64)

	ClearRect(x, y, w, h float64)
	FillRect(x, y, w, h float64)

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64)
	Rect(x, y, w, h float64)
	Ellipse(cx, cy, rx, ry float64)
	ClosePath()
	Fill()
	Stroke()
	Clip()

	FillText(text string, x, y float64)
	DrawImage(img image.Image, x, y, w, h float64)

	// NewOffscreen creates a detached surface of the same backend.
	NewOffscreen(width, height int) Offscreen
}

// Offscreen is a detached surface whose pixels can be drawn into another Context.
type Offscreen interface {
	Context
	Image() image.Image
}

// RoundRecter is implemented by contexts that can add rounded rectangles to the
// current path.
type RoundRecter interface {
	RoundRect(x, y, w, h, radius float64)
}

// PixelBuffer is implemented by contexts that expose their RGBA pixel memory
// for in-place post-processing.
type PixelBuffer interface {
	Pix() []uint8
}
