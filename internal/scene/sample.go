package scene

import (
	"math"

	"github.com/inamate/scenerender/internal/geom"
	"github.com/inamate/scenerender/internal/typeid"
)

// SampleSnapshot builds a small demo scene: a frame clipping a rectangle with
// bound text, a rotated ellipse, a line, a linked diamond and an unvalidated
// embed.
func SampleSnapshot() *Snapshot {
	frameID := typeid.NewElementID()
	rectID := typeid.NewElementID()
	labelID := typeid.NewElementID()
	ellipseID := typeid.NewElementID()
	lineID := typeid.NewElementID()
	diamondID := typeid.NewElementID()
	embedID := typeid.NewElementID()

	state := DefaultAppState()
	state.ScrollX, state.ScrollY = 40, 40
	state.Width, state.Height = 1280, 720

	return &Snapshot{
		AppState: state,
		Elements: []Element{
			{
				ID: frameID, Type: TypeFrame, Name: "Room",
				X: 0, Y: 0, Width: 400, Height: 300,
				StrokeColor: "#bbbbbb", BackgroundColor: "transparent", StrokeWidth: 1,
				GroupIDs: []string{},
			},
			{
				ID: rectID, Type: TypeRectangle, FrameID: frameID,
				X: 300, Y: 200, Width: 200, Height: 100,
				StrokeColor: "#1e1e1e", BackgroundColor: "#ffc9c9", StrokeWidth: 2,
				GroupIDs:      []string{},
				BoundElements: []BoundElement{{ID: labelID, Type: TypeText}},
			},
			{
				ID: labelID, Type: TypeText, ContainerID: rectID, FrameID: frameID,
				X: 360, Y: 240, Width: 80, Height: 20,
				StrokeColor: "#1e1e1e", Text: "Desk", FontSize: 20,
				TextAlign: "center", VerticalAlign: "middle",
				GroupIDs: []string{},
			},
			{
				ID: ellipseID, Type: TypeEllipse,
				X: 520, Y: 60, Width: 160, Height: 90, Angle: math.Pi / 6,
				StrokeColor: "#1971c2", BackgroundColor: "#a5d8ff", StrokeWidth: 2,
				GroupIDs: []string{},
			},
			{
				ID: lineID, Type: TypeLine,
				X: 520, Y: 260, Width: 180, Height: 60,
				StrokeColor: "#2f9e44", StrokeWidth: 2,
				Points:   Points{geom.Vec(0, 0), geom.Vec(180, 60)},
				GroupIDs: []string{},
			},
			{
				ID: diamondID, Type: TypeDiamond,
				X: 760, Y: 80, Width: 120, Height: 120,
				StrokeColor: "#e8590c", BackgroundColor: "transparent", StrokeWidth: 2,
				Link:     "https://example.com/plans",
				GroupIDs: []string{},
			},
			{
				ID: embedID, Type: TypeEmbeddable,
				X: 760, Y: 300, Width: 240, Height: 135,
				StrokeColor: "#1e1e1e", BackgroundColor: "transparent", StrokeWidth: 2,
				GroupIDs: []string{},
			},
		},
	}
}
