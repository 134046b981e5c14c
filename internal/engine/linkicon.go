package engine

import (
	"image"
	"math"

	"github.com/inamate/scenerender/internal/canvas"
)

// LinkKind selects the link icon variant.
type LinkKind int

const (
	LinkExternal LinkKind = iota
	LinkElement
)

func (k LinkKind) String() string {
	if k == LinkElement {
		return "elementLink"
	}
	return "regularLink"
}

type linkIcon struct {
	img  image.Image
	zoom float64
}

// LinkIconCache keeps one pre-rendered icon bitmap per link kind, rebuilt
// lazily when requested at a different zoom. It is owned by one compositor
// caller and is not safe for concurrent use.
type LinkIconCache struct {
	devicePixelRatio float64
	entries          [2]*linkIcon
	builds           int
}

// NewLinkIconCache creates an empty cache for a display with the given pixel ratio.
func NewLinkIconCache(devicePixelRatio float64) *LinkIconCache {
	if devicePixelRatio <= 0 {
		devicePixelRatio = 1
	}
	return &LinkIconCache{devicePixelRatio: devicePixelRatio}
}

// Builds returns how many bitmaps have been rendered so far.
func (c *LinkIconCache) Builds() int {
	return c.builds
}

// Icon returns the bitmap for kind at zoom, sized width x height in scene
// units. A miss renders it on an offscreen surface created from ctx.
func (c *LinkIconCache) Icon(ctx canvas.Context, kind LinkKind, zoom, width, height float64) image.Image {
	if e := c.entries[kind]; e != nil && e.zoom == zoom {
		return e.img
	}

	scale := c.devicePixelRatio * zoom
	off := ctx.NewOffscreen(
		max(1, int(math.Ceil(width*scale))),
		max(1, int(math.Ceil(height*scale))),
	)
	off.Scale(scale, scale)
	off.SetFillStyle("#fff")
	off.FillRect(0, 0, width, height)
	drawLinkGlyph(off, kind, width, height)

	img := off.Image()
	c.entries[kind] = &linkIcon{img: img, zoom: zoom}
	c.builds++
	return img
}

// drawLinkGlyph draws the icon into a w x h box: an arrow leaving a box for
// external links, two chained rings for links to scene elements.
func drawLinkGlyph(ctx canvas.Context, kind LinkKind, w, h float64) {
	ctx.SetStrokeStyle("#1e1e1e")
	ctx.SetLineWidth(w / 12)
	ctx.SetLineDash(nil)

	if kind == LinkElement {
		r := w * 0.18
		ctx.BeginPath()
		ctx.Ellipse(w*0.38, h*0.62, r, r)
		ctx.Stroke()
		ctx.BeginPath()
		ctx.Ellipse(w*0.62, h*0.38, r, r)
		ctx.Stroke()
		return
	}

	ctx.BeginPath()
	ctx.MoveTo(w*0.55, h*0.2)
	ctx.LineTo(w*0.2, h*0.2)
	ctx.LineTo(w*0.2, h*0.8)
	ctx.LineTo(w*0.8, h*0.8)
	ctx.LineTo(w*0.8, h*0.45)
	ctx.Stroke()

	ctx.BeginPath()
	ctx.MoveTo(w*0.45, h*0.55)
	ctx.LineTo(w*0.85, h*0.15)
	ctx.MoveTo(w*0.6, h*0.15)
	ctx.LineTo(w*0.85, h*0.15)
	ctx.LineTo(w*0.85, h*0.4)
	ctx.Stroke()
}
