// Package scene holds the read-only scene snapshot consumed by the renderer:
// elements, the view state they are drawn under, and the relationship helpers
// (frames, bound text, links) the compositor resolves by id.
package scene

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/inamate/scenerender/internal/geom"
)

type ElementType string

const (
	TypeRectangle  ElementType = "rectangle"
	TypeDiamond    ElementType = "diamond"
	TypeEllipse    ElementType = "ellipse"
	TypeLine       ElementType = "line"
	TypeArrow      ElementType = "arrow"
	TypeFreedraw   ElementType = "freedraw"
	TypeText       ElementType = "text"
	TypeImage      ElementType = "image"
	TypeFrame      ElementType = "frame"
	TypeMagicFrame ElementType = "magicframe"
	TypeEmbeddable ElementType = "embeddable"
	TypeIframe     ElementType = "iframe"
)

// Points is a list of path vertices relative to the element origin. On the
// wire each point is a [x, y] pair.
type Points []geom.Vector

func (p Points) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(p))
	for i, v := range p {
		pairs[i] = [2]float64{v.X, v.Y}
	}
	return json.Marshal(pairs)
}

func (p *Points) UnmarshalJSON(data []byte) error {
	var pairs [][]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("decode points: %w", err)
	}
	out := make(Points, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return fmt.Errorf("decode points: point %d has %d coordinates", i, len(pair))
		}
		out = append(out, geom.Vec(pair[0], pair[1]))
	}
	*p = out
	return nil
}

// Roundness marks elements drawn with rounded corners.
type Roundness struct {
	Type int `json:"type"`
}

type BoundElement struct {
	ID   string      `json:"id"`
	Type ElementType `json:"type"`
}

// Element is one drawable scene object. X and Y are the top-left of the
// un-rotated bounding box; Angle is a clockwise rotation in radians about the
// element center.
type Element struct {
	ID              string         `json:"id"`
	Type            ElementType    `json:"type"`
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Width           float64        `json:"width"`
	Height          float64        `json:"height"`
	Angle           float64        `json:"angle"`
	StrokeColor     string         `json:"strokeColor"`
	BackgroundColor string         `json:"backgroundColor"`
	StrokeWidth     float64        `json:"strokeWidth"`
	StrokeStyle     string         `json:"strokeStyle,omitempty"`
	Roundness       *Roundness     `json:"roundness,omitempty"`
	Points          Points         `json:"points,omitempty"`
	GroupIDs        []string       `json:"groupIds"`
	FrameID         string         `json:"frameId,omitempty"`
	BoundElements   []BoundElement `json:"boundElements,omitempty"`
	ContainerID     string         `json:"containerId,omitempty"`
	Link            string         `json:"link,omitempty"`
	IsDeleted       bool           `json:"isDeleted"`
	Locked          bool           `json:"locked,omitempty"`

	// text
	Text          string  `json:"text,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	TextAlign     string  `json:"textAlign,omitempty"`
	VerticalAlign string  `json:"verticalAlign,omitempty"`

	// image
	FileID string `json:"fileId,omitempty"`

	// frame
	Name string `json:"name,omitempty"`
}

// IsFrameLike reports whether the element clips and contains other elements.
func (e Element) IsFrameLike() bool {
	return e.Type == TypeFrame || e.Type == TypeMagicFrame
}

// IsIframeLike reports whether the element hosts external content.
func (e Element) IsIframeLike() bool {
	return e.Type == TypeEmbeddable || e.Type == TypeIframe
}

// IsLinear reports whether the element's geometry is its point path.
func (e Element) IsLinear() bool {
	return e.Type == TypeLine || e.Type == TypeArrow
}

// IsPath reports whether the element stores its geometry as points.
func (e Element) IsPath() bool {
	return e.IsLinear() || e.Type == TypeFreedraw
}

func (e Element) IsText() bool { return e.Type == TypeText }

// Center returns the rotation pivot.
func (e Element) Center() geom.Vector {
	x1, y1, x2, y2 := AbsoluteCoords(e)
	return geom.Vec((x1+x2)/2, (y1+y2)/2)
}

// AbsoluteCoords returns the un-rotated scene-space bounds [x1, y1, x2, y2].
// Path elements use the extent of their points.
func AbsoluteCoords(e Element) (x1, y1, x2, y2 float64) {
	if e.IsPath() && len(e.Points) > 0 {
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range e.Points {
			minX = min(minX, p.X)
			minY = min(minY, p.Y)
			maxX = max(maxX, p.X)
			maxY = max(maxY, p.Y)
		}
		return e.X + minX, e.Y + minY, e.X + maxX, e.Y + maxY
	}
	return e.X, e.Y, e.X + e.Width, e.Y + e.Height
}

// RotatedBounds returns the axis-aligned box of the element after rotation.
func RotatedBounds(e Element) geom.Rect {
	x1, y1, x2, y2 := AbsoluteCoords(e)
	if e.Angle == 0 {
		return geom.RectFromBounds(x1, y1, x2, y2)
	}
	c := geom.Vec((x1+x2)/2, (y1+y2)/2)
	return geom.BoundsOf(
		geom.RotatePoint(geom.Vec(x1, y1), c, e.Angle),
		geom.RotatePoint(geom.Vec(x2, y1), c, e.Angle),
		geom.RotatePoint(geom.Vec(x2, y2), c, e.Angle),
		geom.RotatePoint(geom.Vec(x1, y2), c, e.Angle),
	)
}

// ElementsMap indexes elements by id. Values are copies; the renderer never
// writes back into the snapshot.
type ElementsMap map[string]Element

// NewElementsMap indexes elements by id, later duplicates winning.
func NewElementsMap(elements []Element) ElementsMap {
	m := make(ElementsMap, len(elements))
	for _, el := range elements {
		m[el.ID] = el
	}
	return m
}

// NonDeleted returns the elements that are not marked deleted, in order.
func NonDeleted(elements []Element) []Element {
	out := make([]Element, 0, len(elements))
	for _, el := range elements {
		if !el.IsDeleted {
			out = append(out, el)
		}
	}
	return out
}
