package scene

import "github.com/inamate/scenerender/internal/geom"

// FrameRadius is the corner radius of frame outlines and clips in screen pixels.
const FrameRadius = 8

// ContainerElement returns the container a bound text element sits in.
func ContainerElement(e Element, elements ElementsMap) (Element, bool) {
	if !e.IsText() || e.ContainerID == "" {
		return Element{}, false
	}
	c, ok := elements[e.ContainerID]
	return c, ok
}

// BoundTextElement returns the text element bound to a container, if any.
func BoundTextElement(e Element, elements ElementsMap) (Element, bool) {
	for _, b := range e.BoundElements {
		if b.Type != TypeText {
			continue
		}
		if t, ok := elements[b.ID]; ok && !t.IsDeleted {
			return t, true
		}
	}
	return Element{}, false
}

// containingFrame resolves the element's own frame reference.
func containingFrame(e Element, elements ElementsMap) (Element, bool) {
	if e.FrameID == "" {
		return Element{}, false
	}
	f, ok := elements[e.FrameID]
	if !ok || !f.IsFrameLike() || f.IsDeleted {
		return Element{}, false
	}
	return f, true
}

// highlightedFrame resolves the frame the view is highlighting.
func highlightedFrame(elements ElementsMap, state AppState) (Element, bool) {
	if state.FrameToHighlight == "" {
		return Element{}, false
	}
	f, ok := elements[state.FrameToHighlight]
	if !ok || !f.IsFrameLike() {
		return Element{}, false
	}
	return f, true
}

// TargetFrame returns the frame an element is drawn into: the highlighted frame
// while the element is selected and being dragged, otherwise its own frame.
// Bound text resolves through its container.
func TargetFrame(e Element, elements ElementsMap, state AppState) (Element, bool) {
	if c, ok := ContainerElement(e, elements); ok {
		e = c
	}
	if state.IsSelected(e.ID) && state.SelectedElementsAreBeingDragged {
		return highlightedFrame(elements, state)
	}
	return containingFrame(e, elements)
}

// ElementOverlapsWithFrame reports whether the element's rotated bounds touch
// or enclose the frame's bounds, or the other way round.
func ElementOverlapsWithFrame(e, frame Element) bool {
	return RotatedBounds(e).Intersects(RotatedBounds(frame))
}

// IsElementInFrame reports whether the element is drawn inside its target
// frame. Grouped elements count as inside when any member of their outermost
// group overlaps the frame.
func IsElementInFrame(e Element, elements ElementsMap, state AppState) bool {
	frame, ok := TargetFrame(e, elements, state)
	if !ok {
		return false
	}
	if c, ok := ContainerElement(e, elements); ok {
		e = c
	}
	if ElementOverlapsWithFrame(e, frame) {
		return true
	}
	if len(e.GroupIDs) == 0 {
		return false
	}
	outer := e.GroupIDs[len(e.GroupIDs)-1]
	for _, other := range elements {
		if other.ID == e.ID || other.IsDeleted || !hasGroup(other, outer) {
			continue
		}
		if ElementOverlapsWithFrame(other, frame) {
			return true
		}
	}
	return false
}

func hasGroup(e Element, groupID string) bool {
	for _, g := range e.GroupIDs {
		if g == groupID {
			return true
		}
	}
	return false
}

// FrameRect returns the frame's scene-space rectangle.
func FrameRect(frame Element) geom.Rect {
	return geom.Rect{X: frame.X, Y: frame.Y, Width: frame.Width, Height: frame.Height}
}
