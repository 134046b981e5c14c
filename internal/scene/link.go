package scene

import (
	"math"
	"net/url"
	"strings"

	"github.com/inamate/scenerender/internal/geom"
)

// LinkHandleSize is the on-screen edge of the link icon in pixels.
const LinkHandleSize = 14

// IsElementLink reports whether a link points at another element of the scene
// rather than an external page.
func IsElementLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	return u.Query().Get("element") != ""
}

// LinkHandle returns the scene-space rectangle of the link icon for an element
// with absolute coords [x1, y1, x2, y2]. The icon sits off the north-east
// corner and follows the element's rotation.
func LinkHandle(x1, y1, x2, y2, angle, zoom float64) geom.Rect {
	size := LinkHandleSize / zoom
	linkMarginY := LinkHandleSize / zoom
	centeringOffset := (LinkHandleSize - 8) / (2 * zoom)
	dashedLineMargin := 4 / zoom

	x := x2 + dashedLineMargin - centeringOffset
	y := y1 - dashedLineMargin - linkMarginY + centeringOffset

	center := geom.Vec((x1+x2)/2, (y1+y2)/2)
	p := geom.RotatePoint(geom.Vec(x+size/2, y+size/2), center, angle)
	return geom.Rect{X: p.X - size/2, Y: p.Y - size/2, Width: size, Height: size}
}

// PlaceholderEmbeddableLabel builds the text element drawn over an embed that
// cannot show live content.
func PlaceholderEmbeddableLabel(e Element) Element {
	text := e.Link
	switch {
	case e.Type == TypeIframe:
		text = "IFrame element"
	case text == "":
		text = "Empty Web-Embed"
	}
	n := float64(len([]rune(text)))
	fontSize := math.Max(math.Min(e.Width/2, e.Width/n), e.Width/30)

	stroke := e.StrokeColor
	if stroke == "" || stroke == "transparent" {
		stroke = "black"
	}
	return Element{
		ID:              e.ID + ":placeholder",
		Type:            TypeText,
		X:               e.X + e.Width/2,
		Y:               e.Y + e.Height/2,
		Angle:           e.Angle,
		StrokeColor:     stroke,
		BackgroundColor: "transparent",
		Text:            text,
		FontSize:        fontSize,
		TextAlign:       "center",
		VerticalAlign:   "middle",
		FrameID:         e.FrameID,
	}
}

// VisibleElements returns the non-deleted elements whose rotated bounds meet
// the viewport of a width x height canvas (in CSS pixels).
func VisibleElements(elements []Element, state AppState, width, height float64) []Element {
	zoom := state.Zoom.Value
	if zoom <= 0 {
		zoom = 1
	}
	viewport := geom.Rect{
		X:      -state.ScrollX,
		Y:      -state.ScrollY,
		Width:  width / zoom,
		Height: height / zoom,
	}
	out := make([]Element, 0, len(elements))
	for _, el := range elements {
		if el.IsDeleted {
			continue
		}
		if RotatedBounds(el).Intersects(viewport) {
			out = append(out, el)
		}
	}
	return out
}
