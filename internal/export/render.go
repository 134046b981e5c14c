package export

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/inamate/scenerender/internal/engine"
	"github.com/inamate/scenerender/internal/geom"
	"github.com/inamate/scenerender/internal/paint"
	"github.com/inamate/scenerender/internal/raster"
	"github.com/inamate/scenerender/internal/scene"
)

// ErrEmptyScene is returned when a snapshot has nothing to export.
var ErrEmptyScene = errors.New("scene has no elements")

const (
	DefaultPadding = 10
	minScale       = 0.1
	maxScale       = 8
)

// Options controls one export.
type Options struct {
	Scale float64
	Dark  bool
	// Background paints the scene's view background; otherwise the export
	// is transparent.
	Background bool
	Padding    float64
}

// Renderer rasterizes snapshots for download.
type Renderer struct {
	assets    paint.ImageSource
	maxPixels int
	logger    *slog.Logger
}

func NewRenderer(assets paint.ImageSource, maxPixels int, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{assets: assets, maxPixels: maxPixels, logger: logger}
}

// ClampScale keeps an export scale within the supported range; non-positive
// values mean 1.
func ClampScale(s float64) float64 {
	if s <= 0 || math.IsNaN(s) {
		return 1
	}
	return min(max(s, minScale), maxScale)
}

// SceneBounds is the union of the rotated bounds of every non-deleted element.
func SceneBounds(elements []scene.Element) (geom.Rect, bool) {
	var bounds geom.Rect
	found := false
	for _, el := range elements {
		if el.IsDeleted {
			continue
		}
		b := scene.RotatedBounds(el)
		if !found {
			bounds, found = b, true
			continue
		}
		bounds = geom.RectFromBounds(
			min(bounds.X, b.X), min(bounds.Y, b.Y),
			max(bounds.MaxX(), b.MaxX()), max(bounds.MaxY(), b.MaxY()),
		)
	}
	return bounds, found
}

// Render draws the whole snapshot, framed by its bounds plus padding, onto a
// new raster canvas.
func (r *Renderer) Render(snap *scene.Snapshot, opts Options) (*raster.Canvas, engine.Stats, error) {
	bounds, ok := SceneBounds(snap.Elements)
	if !ok {
		return nil, engine.Stats{}, ErrEmptyScene
	}
	scale := ClampScale(opts.Scale)
	pad := opts.Padding
	if pad < 0 {
		pad = DefaultPadding
	}

	width := int(math.Ceil((bounds.Width + 2*pad) * scale))
	height := int(math.Ceil((bounds.Height + 2*pad) * scale))
	c, err := raster.NewBounded(max(1, width), max(1, height), r.maxPixels)
	if err != nil {
		return nil, engine.Stats{}, fmt.Errorf("render export: %w", err)
	}

	state := snap.AppState
	state.ScrollX = -bounds.X + pad
	state.ScrollY = -bounds.Y + pad
	state.Zoom.Value = 1
	state.SelectedElementIDs = nil
	state.FrameToHighlight = ""
	state.SelectedElementsAreBeingDragged = false
	state.Theme = scene.ThemeLight
	if opts.Dark {
		state.Theme = scene.ThemeDark
	}
	if !opts.Background {
		state.ViewBackgroundColor = ""
	}

	painter := paint.New(r.assets, r.logger)
	painter.LoadFiles(snap.Files)

	rc := engine.RenderConfig{
		IsExporting:            true,
		EmbedsValidationStatus: map[string]bool{},
	}
	visible := scene.NonDeleted(snap.Elements)
	stats := engine.RenderStaticScene(engine.StaticSceneConfig{
		Canvas:          c,
		Renderer:        painter,
		ElementsMap:     scene.NewElementsMap(visible),
		AllElementsMap:  scene.NewElementsMap(snap.Elements),
		VisibleElements: visible,
		Scale:           scale,
		AppState:        state,
		RenderConfig:    rc,
		Logger:          r.logger,
	}, nil)

	if err := c.Err(); err != nil {
		return nil, stats, fmt.Errorf("rasterize export: %w", err)
	}
	return c, stats, nil
}
