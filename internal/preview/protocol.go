package preview

import (
	"encoding/json"

	"github.com/inamate/scenerender/internal/engine"
	"github.com/inamate/scenerender/internal/geom"
)

// Message is the envelope for every preview message in either direction.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client -> server
	TypeSceneLoad       = "scene.load"
	TypeSceneSample     = "scene.sample"
	TypeViewUpdate      = "view.update"
	TypeViewportUpdate  = "viewport.update"
	TypeSelectionUpdate = "selection.update"
	TypeThemeUpdate     = "theme.update"
	TypeFrameHighlight  = "frame.highlight"
	TypeEmbedValidate   = "embed.validate"
	TypeRenderRequest   = "render.request"
	TypeLabelRequest    = "label.request"
	TypeBoundsRequest   = "bounds.request"

	// Server -> client
	TypeWelcome = "welcome"
	TypeFrame   = "frame"
	TypeLabel   = "label"
	TypeBounds  = "bounds"
	TypeError   = "error"
)

// Error codes carried by TypeError messages.
const (
	CodeInvalidMessage  = "invalid_message"
	CodeInvalidSnapshot = "invalid_snapshot"
	CodeUnknownType     = "unknown_type"
	CodeNoLabel         = "no_label"
	CodeTooLarge        = "canvas_too_large"
)

type WelcomePayload struct {
	SessionID   string  `json:"sessionId"`
	RefreshRate int     `json:"refreshRate"`
	PixelRatio  float64 `json:"pixelRatio"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Seq of the client message that caused the error, if any.
	Seq int64 `json:"seq,omitempty"`
}

type ViewPayload struct {
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
	Zoom    float64 `json:"zoom"`
}

type ViewportPayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type SelectionPayload struct {
	IDs []string `json:"ids"`
}

type ThemePayload struct {
	Theme string `json:"theme"`
}

type FrameHighlightPayload struct {
	ID string `json:"id"`
}

type EmbedValidatePayload struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
}

type LabelRequestPayload struct {
	ID string `json:"id"`
}

type LabelPayload struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
	Shadow   bool    `json:"shadow"`
}

type BoundsPayload struct {
	Bounds geom.Rect `json:"bounds"`
}

// FramePayload carries one rendered frame as canvas draw commands.
type FramePayload struct {
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Stats    engine.Stats    `json:"stats"`
	Commands json.RawMessage `json:"commands"`
}
