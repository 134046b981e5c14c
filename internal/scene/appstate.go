package scene

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	DefaultGridSize = 20
	DefaultGridStep = 5
	MinZoom         = 0.1
	MaxZoom         = 30
)

type Zoom struct {
	Value float64 `json:"value"`
}

// FrameRendering toggles how frames are drawn.
type FrameRendering struct {
	Enabled bool `json:"enabled"`
	Name    bool `json:"name"`
	Outline bool `json:"outline"`
	Clip    bool `json:"clip"`
}

// AppState is the view state a frame is rendered under.
type AppState struct {
	ScrollX             float64         `json:"scrollX"`
	ScrollY             float64         `json:"scrollY"`
	Zoom                Zoom            `json:"zoom"`
	Width               float64         `json:"width"`
	Height              float64         `json:"height"`
	GridSize            float64         `json:"gridSize"`
	GridStep            int             `json:"gridStep"`
	GridModeEnabled     bool            `json:"gridModeEnabled"`
	Theme               Theme           `json:"theme"`
	ViewBackgroundColor string          `json:"viewBackgroundColor"`
	SelectedElementIDs  map[string]bool `json:"selectedElementIds"`
	FrameToHighlight    string          `json:"frameToHighlight,omitempty"`
	FrameRendering      FrameRendering  `json:"frameRendering"`

	// SelectedElementsAreBeingDragged makes selected elements resolve to the
	// highlighted frame instead of their own.
	SelectedElementsAreBeingDragged bool `json:"selectedElementsAreBeingDragged,omitempty"`
}

// DefaultAppState returns the state of a fresh, unscrolled light canvas.
func DefaultAppState() AppState {
	return AppState{
		Zoom:                Zoom{Value: 1},
		GridSize:            DefaultGridSize,
		GridStep:            DefaultGridStep,
		Theme:               ThemeLight,
		ViewBackgroundColor: "#ffffff",
		SelectedElementIDs:  map[string]bool{},
		FrameRendering:      FrameRendering{Enabled: true, Name: true, Outline: true, Clip: true},
	}
}

// IsSelected reports whether the element id is in the selection.
func (s AppState) IsSelected(id string) bool {
	return s.SelectedElementIDs[id]
}

// MetreSize is the scene length shown as one unit on rulers and size labels.
func (s AppState) MetreSize() float64 {
	return s.GridSize * float64(s.GridStep)
}

// Normalize fills defaults and clamps the zoom into range.
func (s *AppState) Normalize() {
	if s.Zoom.Value == 0 {
		s.Zoom.Value = 1
	}
	s.Zoom.Value = min(max(s.Zoom.Value, MinZoom), MaxZoom)
	if s.GridSize <= 0 {
		s.GridSize = DefaultGridSize
	}
	if s.GridStep <= 0 {
		s.GridStep = DefaultGridStep
	}
	if s.Theme != ThemeDark {
		s.Theme = ThemeLight
	}
	if s.SelectedElementIDs == nil {
		s.SelectedElementIDs = map[string]bool{}
	}
}
