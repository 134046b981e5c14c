package annotate

import (
	"github.com/inamate/scenerender/internal/geom"
	"github.com/inamate/scenerender/internal/scene"
)

// FromElement maps a scene element to its label subject. Only rectangles,
// ellipses, images, lines and arrows carry size labels.
func FromElement(e scene.Element) (Subject, bool) {
	box := Box{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height, Angle: e.Angle, StrokeColor: e.StrokeColor}
	switch e.Type {
	case scene.TypeRectangle:
		return Rectangle{box}, true
	case scene.TypeEllipse:
		return Ellipse{box}, true
	case scene.TypeImage:
		return Image{box}, true
	case scene.TypeLine, scene.TypeArrow:
		return Line{
			X: e.X, Y: e.Y,
			Width: e.Width, Height: e.Height,
			Angle:       e.Angle,
			Points:      e.Points,
			StrokeColor: e.StrokeColor,
			Linear:      true,
		}, true
	}
	return nil, false
}

// GroupFromElements builds the group subject for a multi-element selection
// from the union of the elements' rotated bounds.
func GroupFromElements(elements []scene.Element, strokeColor string) (Group, bool) {
	if len(elements) == 0 {
		return Group{}, false
	}
	var bounds geom.Rect
	for i, el := range elements {
		b := scene.RotatedBounds(el)
		if i == 0 {
			bounds = b
			continue
		}
		bounds = geom.RectFromBounds(
			min(bounds.X, b.X), min(bounds.Y, b.Y),
			max(bounds.MaxX(), b.MaxX()), max(bounds.MaxY(), b.MaxY()),
		)
	}
	return GroupFromRect(bounds, strokeColor), true
}
