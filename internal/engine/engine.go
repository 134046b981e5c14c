package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"sync"

	"github.com/inamate/scenerender/internal/annotate"
	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/geom"
	"github.com/inamate/scenerender/internal/scene"
)

// Frame is the result of one throttled render.
type Frame struct {
	Canvas canvas.Context
	Stats  Stats
	State  scene.AppState
}

// FileLoader is implemented by renderers that draw the files embedded in a
// snapshot. The engine hands them over whenever a snapshot is loaded.
type FileLoader interface {
	LoadFiles(files map[string]scene.BinaryFile)
}

// Options configures an Engine.
type Options struct {
	// Width and Height are the viewport in CSS pixels.
	Width, Height    int
	DevicePixelRatio float64
	Renderer         ElementRenderer
	// Scheduler paces RequestRender; defaults to a 60 Hz IntervalScheduler.
	Scheduler Scheduler
	// NewCanvas creates the surface for each frame; defaults to a Recorder.
	NewCanvas func(width, height int) canvas.Context
	// OnFrame receives every throttled frame.
	OnFrame func(Frame)
	Logger  *slog.Logger
}

// Engine owns the current scene snapshot and view state, and renders static
// frames from them either on demand or throttled to the display rate.
type Engine struct {
	mu       sync.Mutex
	snap     *scene.Snapshot
	state    scene.AppState
	config   RenderConfig
	width    int
	height   int
	dpr      float64
	renderer ElementRenderer
	newCanv  func(width, height int) canvas.Context
	onFrame  func(Frame)
	logger   *slog.Logger

	// renderMu serializes frames; the icon cache is single-writer.
	renderMu sync.Mutex
	icons    *LinkIconCache

	throttle *Throttler[frameRequest]
}

// frameRequest is a self-contained copy of everything a frame needs, so that
// later state changes cannot leak into a frame that is already pending.
type frameRequest struct {
	elements []scene.Element
	state    scene.AppState
	config   RenderConfig
	width    int
	height   int
	dpr      float64
}

// NewEngine creates an engine with an empty scene.
func NewEngine(opts Options) *Engine {
	if opts.DevicePixelRatio <= 0 {
		opts.DevicePixelRatio = 1
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewIntervalScheduler(60)
	}
	if opts.NewCanvas == nil {
		opts.NewCanvas = func(w, h int) canvas.Context { return canvas.NewRecorder(w, h) }
	}
	if opts.Renderer == nil {
		opts.Renderer = ElementRendererFunc(func(canvas.Context, scene.Element, scene.ElementsMap, scene.ElementsMap, RenderConfig, scene.AppState) error {
			return nil
		})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		snap:     &scene.Snapshot{AppState: scene.DefaultAppState()},
		state:    scene.DefaultAppState(),
		config:   DefaultRenderConfig(),
		width:    opts.Width,
		height:   opts.Height,
		dpr:      opts.DevicePixelRatio,
		renderer: opts.Renderer,
		newCanv:  opts.NewCanvas,
		onFrame:  opts.OnFrame,
		logger:   opts.Logger,
		icons:    NewLinkIconCache(opts.DevicePixelRatio),
	}
	e.throttle = NewThrottler(opts.Scheduler, e.renderRequest)
	return e
}

// --- Commands ---

// LoadSnapshot replaces the scene with a decoded snapshot document.
func (e *Engine) LoadSnapshot(data []byte) error {
	snap, err := scene.Decode(data)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	e.setSnapshot(snap)
	return nil
}

// LoadSample loads the built-in demo scene.
func (e *Engine) LoadSample() {
	e.setSnapshot(scene.SampleSnapshot())
}

func (e *Engine) setSnapshot(snap *scene.Snapshot) {
	if fl, ok := e.renderer.(FileLoader); ok {
		fl.LoadFiles(snap.Files)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = snap
	e.state = snap.AppState
	e.state.Normalize()
}

// SetSelection replaces the selected element ids.
func (e *Engine) SetSelection(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sel := make(map[string]bool, len(ids))
	for _, id := range ids {
		sel[id] = true
	}
	e.state.SelectedElementIDs = sel
}

// SetView sets scroll and zoom; zoom is clamped to the supported range.
func (e *Engine) SetView(scrollX, scrollY, zoom float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.ScrollX = scrollX
	e.state.ScrollY = scrollY
	e.state.Zoom.Value = zoom
	e.state.Normalize()
}

func (e *Engine) SetTheme(theme scene.Theme) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Theme = theme
	e.state.Normalize()
}

// SetViewport resizes the viewport in CSS pixels.
func (e *Engine) SetViewport(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if width > 0 {
		e.width = width
	}
	if height > 0 {
		e.height = height
	}
}

// SetFrameToHighlight sets the highlighted frame id; empty clears it.
func (e *Engine) SetFrameToHighlight(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.FrameToHighlight = id
}

// SetEmbedValidation records whether an embed's content was validated.
func (e *Engine) SetEmbedValidation(id string, valid bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config.EmbedsValidationStatus[id] = valid
}

// SetRenderConfig replaces the render flags.
func (e *Engine) SetRenderConfig(rc RenderConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rc.EmbedsValidationStatus == nil {
		rc.EmbedsValidationStatus = map[string]bool{}
	}
	e.config = rc
}

// RequestRender schedules a throttled frame with the current state. Requests
// made before the frame fires collapse into one frame with the latest state.
func (e *Engine) RequestRender() {
	e.throttle.Request(e.snapshotRequest())
}

// CancelRender drops a pending throttled frame, if any.
func (e *Engine) CancelRender() {
	e.throttle.Cancel()
}

// RenderNow renders the current state synchronously onto ctx.
func (e *Engine) RenderNow(ctx canvas.Context) Stats {
	req := e.snapshotRequest()
	return e.renderInto(ctx, req)
}

// RenderCommands renders the current state into a recorder and returns the
// draw commands as JSON for a browser frontend.
func (e *Engine) RenderCommands() (string, error) {
	req := e.snapshotRequest()
	w, h := req.physicalSize()
	rec := canvas.NewRecorder(w, h)
	e.renderInto(rec, req)
	return rec.ToJSON()
}

// --- Queries ---

// State returns a copy of the current view state.
func (e *Engine) State() scene.AppState {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.SelectedElementIDs = maps.Clone(e.state.SelectedElementIDs)
	return s
}

// Snapshot returns the loaded scene.
func (e *Engine) Snapshot() *scene.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// SizeLabel computes the size label of one element without drawing it.
func (e *Engine) SizeLabel(id string) (annotate.Label, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, el := range e.snap.Elements {
		if el.ID != id || el.IsDeleted {
			continue
		}
		s, ok := annotate.FromElement(el)
		if !ok {
			return annotate.Label{}, false
		}
		return annotate.Compute(s, annotate.Grid{Size: e.state.GridSize, Step: e.state.GridStep})
	}
	return annotate.Label{}, false
}

// GetSelectionBounds returns the combined rotated bounds of the selection.
func (e *Engine) GetSelectionBounds() geom.Rect {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result geom.Rect
	first := true
	for _, el := range e.snap.Elements {
		if el.IsDeleted || !e.state.IsSelected(el.ID) {
			continue
		}
		b := scene.RotatedBounds(el)
		if first {
			result = b
			first = false
			continue
		}
		result = result.Union(b)
	}
	return result
}

// HitTest returns the id of the topmost element under the viewport point
// (x, y) in CSS pixels, or "" when nothing is hit. Rotated elements are
// tested in their own frame.
func (e *Engine) HitTest(x, y float64) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := geom.Vec(x/e.state.Zoom.Value-e.state.ScrollX, y/e.state.Zoom.Value-e.state.ScrollY)
	for i := len(e.snap.Elements) - 1; i >= 0; i-- {
		el := e.snap.Elements[i]
		if el.IsDeleted {
			continue
		}
		x1, y1, x2, y2 := scene.AbsoluteCoords(el)
		local := geom.RotatePoint(p, el.Center(), -el.Angle)
		if geom.RectFromBounds(x1, y1, x2, y2).Contains(local.X, local.Y) {
			return el.ID
		}
	}
	return ""
}

// --- Rendering ---

func (e *Engine) snapshotRequest() frameRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.state
	state.SelectedElementIDs = maps.Clone(e.state.SelectedElementIDs)
	config := e.config
	config.EmbedsValidationStatus = maps.Clone(e.config.EmbedsValidationStatus)

	return frameRequest{
		elements: e.snap.Elements,
		state:    state,
		config:   config,
		width:    e.width,
		height:   e.height,
		dpr:      e.dpr,
	}
}

func (r frameRequest) physicalSize() (int, int) {
	return int(math.Ceil(float64(r.width) * r.dpr)), int(math.Ceil(float64(r.height) * r.dpr))
}

func (e *Engine) renderRequest(req frameRequest) {
	w, h := req.physicalSize()
	ctx := e.newCanv(w, h)
	stats := e.renderInto(ctx, req)
	if e.onFrame != nil {
		e.onFrame(Frame{Canvas: ctx, Stats: stats, State: req.state})
	}
}

func (e *Engine) renderInto(ctx canvas.Context, req frameRequest) Stats {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	all := scene.NewElementsMap(req.elements)
	nonDeleted := scene.NewElementsMap(scene.NonDeleted(req.elements))
	visible := scene.VisibleElements(req.elements, req.state, float64(req.width), float64(req.height))

	return RenderStaticScene(StaticSceneConfig{
		Canvas:          ctx,
		Renderer:        e.renderer,
		ElementsMap:     nonDeleted,
		AllElementsMap:  all,
		VisibleElements: visible,
		Scale:           req.dpr,
		AppState:        req.state,
		RenderConfig:    req.config,
		Logger:          e.logger,
	}, e.icons)
}
