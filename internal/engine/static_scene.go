package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/inamate/scenerender/internal/annotate"
	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/scene"
)

// SelectionColor is the stroke color of group size labels.
const SelectionColor = "#6965db"

// RenderConfig carries the per-frame flags of the static scene. Flags that
// would otherwise be ambient UI state are passed here explicitly.
type RenderConfig struct {
	RenderGrid     bool
	RenderRulers   bool
	ShowSizeLabels bool
	IsExporting    bool

	// EmbedsValidationStatus maps embeddable ids to whether their content was
	// validated. Missing ids are unknown and treated as not validated.
	EmbedsValidationStatus map[string]bool

	// PendingFlowchartNodes are drawn last, unclipped.
	PendingFlowchartNodes []scene.Element
}

// DefaultRenderConfig returns the interactive defaults.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		RenderGrid:             true,
		RenderRulers:           true,
		ShowSizeLabels:         true,
		EmbedsValidationStatus: map[string]bool{},
	}
}

// ElementRenderer draws a single element onto ctx in the zoomed scene
// coordinate space. Implementations apply the scroll offset themselves.
type ElementRenderer interface {
	RenderElement(ctx canvas.Context, el scene.Element, elements, allElements scene.ElementsMap, rc RenderConfig, state scene.AppState) error
}

// ElementRendererFunc adapts a function to ElementRenderer.
type ElementRendererFunc func(ctx canvas.Context, el scene.Element, elements, allElements scene.ElementsMap, rc RenderConfig, state scene.AppState) error

func (f ElementRendererFunc) RenderElement(ctx canvas.Context, el scene.Element, elements, allElements scene.ElementsMap, rc RenderConfig, state scene.AppState) error {
	return f(ctx, el, elements, allElements, rc, state)
}

// StaticSceneConfig is everything one static frame is rendered from. The
// compositor reads it and never mutates it.
type StaticSceneConfig struct {
	Canvas          canvas.Context
	Renderer        ElementRenderer
	ElementsMap     scene.ElementsMap // non-deleted elements
	AllElementsMap  scene.ElementsMap // every element, deleted included
	VisibleElements []scene.Element
	// Scale is the device stage of the two-stage scale; view zoom is applied
	// on top of it from AppState.
	Scale        float64
	AppState     scene.AppState
	RenderConfig RenderConfig
	Logger       *slog.Logger
}

// Stats summarizes one rendered frame.
type Stats struct {
	Rendered      int      `json:"rendered"`
	Failed        int      `json:"failed"`
	Clipped       int      `json:"clipped"`
	Embeds        int      `json:"embeds"`
	Placeholders  int      `json:"placeholders"`
	LinkIcons     int      `json:"linkIcons"`
	Pending       int      `json:"pending"`
	Labels        int      `json:"labels"`
	GroupsInFrame []string `json:"groupsInFrame,omitempty"`
	PostFiltered  bool     `json:"postFiltered,omitempty"`
}

// GroupsInHighlightedFrame collects the group ids folded into the highlighted
// frame: a selected, grouped element contributes all of its groups when it
// overlaps the frame or shares a group already collected. This is one forward
// pass in element order; membership reachable only through an element later
// in the order is not picked up.
func GroupsInHighlightedFrame(visible []scene.Element, elements scene.ElementsMap, state scene.AppState) map[string]struct{} {
	groups := make(map[string]struct{})
	frame, ok := elements[state.FrameToHighlight]
	if state.FrameToHighlight == "" || !ok {
		return groups
	}
	for _, el := range visible {
		if el.IsDeleted || len(el.GroupIDs) == 0 || !state.IsSelected(el.ID) {
			continue
		}
		include := scene.ElementOverlapsWithFrame(el, frame)
		if !include {
			for _, g := range el.GroupIDs {
				if _, seen := groups[g]; seen {
					include = true
					break
				}
			}
		}
		if include {
			for _, g := range el.GroupIDs {
				groups[g] = struct{}{}
			}
		}
	}
	return groups
}

// RenderStaticScene paints one frame of the static scene in strict order:
// surface bootstrap, grid, rulers, the normal element pass with frame clips,
// bound text and link icons, embeds on top, pending flowchart nodes, and size
// labels. A failing element is logged and skipped; the frame always completes.
func RenderStaticScene(cfg StaticSceneConfig, icons *LinkIconCache) Stats {
	if cfg.Canvas == nil {
		return Stats{}
	}
	r := &sceneRun{
		cfg:    cfg,
		ctx:    cfg.Canvas,
		state:  cfg.AppState,
		rc:     cfg.RenderConfig,
		icons:  icons,
		logger: cfg.Logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.icons == nil {
		r.icons = NewLinkIconCache(1)
	}
	if r.state.Zoom.Value <= 0 {
		r.state.Zoom.Value = 1
	}
	r.run()
	return r.stats
}

type sceneRun struct {
	cfg    StaticSceneConfig
	ctx    canvas.Context
	state  scene.AppState
	rc     RenderConfig
	icons  *LinkIconCache
	logger *slog.Logger
	stats  Stats
}

func (r *sceneRun) run() {
	ctx, state := r.ctx, r.state
	zoom := state.Zoom.Value

	// Stage one: device scale.
	nw, nh := NormalizedDimensions(ctx, r.cfg.Scale)
	postFilter := Bootstrap(ctx, SurfaceConfig{
		Scale:               r.cfg.Scale,
		NormalizedWidth:     nw,
		NormalizedHeight:    nh,
		Theme:               state.Theme,
		IsExporting:         r.rc.IsExporting,
		ViewBackgroundColor: state.ViewBackgroundColor,
	})

	// Stage two: view zoom.
	ctx.Scale(zoom, zoom)

	if r.rc.RenderGrid {
		StrokeGrid(ctx, GridParams{
			Size:    state.GridSize,
			Step:    state.GridStep,
			ScrollX: state.ScrollX,
			ScrollY: state.ScrollY,
			Zoom:    zoom,
			Width:   nw / zoom,
			Height:  nh / zoom,
		})
	}

	if r.rc.RenderRulers {
		ctx.Save()
		ctx.Scale(1/zoom, 1/zoom)
		DrawRulers(ctx, RulerParams{
			GridSize: state.GridSize,
			GridStep: state.GridStep,
			ScrollX:  state.ScrollX,
			ScrollY:  state.ScrollY,
			Zoom:     zoom,
			Width:    nw,
			Height:   nh,
		})
		ctx.Restore()
	}

	groups := GroupsInHighlightedFrame(r.cfg.VisibleElements, r.cfg.ElementsMap, state)
	for g := range groups {
		r.stats.GroupsInFrame = append(r.stats.GroupsInFrame, g)
	}
	slices.Sort(r.stats.GroupsInFrame)

	for _, el := range r.cfg.VisibleElements {
		if el.IsIframeLike() {
			continue
		}
		r.guard(el, func() error { return r.paintElement(el) })
	}

	for _, el := range r.cfg.VisibleElements {
		if !el.IsIframeLike() {
			continue
		}
		r.guard(el, func() error { return r.paintEmbed(el) })
	}

	for _, el := range r.rc.PendingFlowchartNodes {
		if r.guard(el, func() error { return r.render(el) }) {
			r.stats.Pending++
		}
	}

	if r.rc.ShowSizeLabels && !r.rc.IsExporting {
		r.paintSizeLabels()
	}

	if postFilter {
		r.stats.PostFiltered = ApplyThemePostFilter(ctx)
		if !r.stats.PostFiltered {
			r.logger.Warn("dark theme export without filter or pixel access")
		}
	}
}

// guard runs one element's drawing, turning errors and panics into a logged
// failure so the rest of the pass continues.
func (r *sceneRun) guard(el scene.Element, fn func() error) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.fail(el, fmt.Errorf("panic: %v", p))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		r.fail(el, err)
		return false
	}
	return true
}

func (r *sceneRun) fail(el scene.Element, err error) {
	r.stats.Failed++
	r.logger.Error("render element", "element", el.ID, "type", el.Type, "error", err)
}

func (r *sceneRun) render(el scene.Element) error {
	return r.cfg.Renderer.RenderElement(r.ctx, el, r.cfg.ElementsMap, r.cfg.AllElementsMap, r.rc, r.state)
}

// clipsToFrame reports whether el is drawn through a frame clip.
func (r *sceneRun) clipsToFrame(el scene.Element) bool {
	frameID := el.FrameID
	if frameID == "" {
		frameID = r.state.FrameToHighlight
	}
	fr := r.state.FrameRendering
	return frameID != "" && fr.Enabled && fr.Clip
}

// applyFrameClip clips to the element's target frame if the element actually
// lies in it. Missing frames leave the element unclipped.
func (r *sceneRun) applyFrameClip(el scene.Element) {
	frame, ok := scene.TargetFrame(el, r.cfg.ElementsMap, r.state)
	if !ok || !scene.IsElementInFrame(el, r.cfg.ElementsMap, r.state) {
		return
	}
	frameClip(r.ctx, frame, r.state)
	r.stats.Clipped++
}

func frameClip(ctx canvas.Context, frame scene.Element, state scene.AppState) {
	tx, ty := frame.X+state.ScrollX, frame.Y+state.ScrollY
	ctx.Translate(tx, ty)
	ctx.BeginPath()
	if rr, ok := ctx.(canvas.RoundRecter); ok {
		rr.RoundRect(0, 0, frame.Width, frame.Height, scene.FrameRadius/state.Zoom.Value)
	} else {
		ctx.Rect(0, 0, frame.Width, frame.Height)
	}
	ctx.Clip()
	ctx.Translate(-tx, -ty)
}

func (r *sceneRun) paintElement(el scene.Element) error {
	if el.IsText() && el.ContainerID != "" {
		if _, ok := r.cfg.ElementsMap[el.ContainerID]; ok {
			// drawn with its container
			return nil
		}
	}

	if err := r.paintClipped(el); err != nil {
		return err
	}
	r.stats.Rendered++

	if !r.rc.IsExporting {
		r.paintLinkIcon(el)
	}
	return nil
}

func (r *sceneRun) paintClipped(el scene.Element) error {
	r.ctx.Save()
	defer r.ctx.Restore()

	if r.clipsToFrame(el) {
		r.applyFrameClip(el)
	}
	if err := r.render(el); err != nil {
		return err
	}
	if text, ok := scene.BoundTextElement(el, r.cfg.ElementsMap); ok {
		if err := r.render(text); err != nil {
			return fmt.Errorf("bound text %s: %w", text.ID, err)
		}
	}
	return nil
}

func (r *sceneRun) paintEmbed(el scene.Element) error {
	if r.clipsToFrame(el) {
		r.ctx.Save()
		defer r.ctx.Restore()
		r.applyFrameClip(el)
	}

	if err := r.render(el); err != nil {
		return err
	}
	r.stats.Embeds++

	validated := r.rc.EmbedsValidationStatus[el.ID]
	unvalidatedEmbed := el.Type == scene.TypeEmbeddable && !validated
	if (r.rc.IsExporting || unvalidatedEmbed) && el.Width != 0 && el.Height != 0 {
		if err := r.render(scene.PlaceholderEmbeddableLabel(el)); err != nil {
			return fmt.Errorf("placeholder: %w", err)
		}
		r.stats.Placeholders++
	}

	if !r.rc.IsExporting {
		r.paintLinkIcon(el)
	}
	return nil
}

func (r *sceneRun) paintLinkIcon(el scene.Element) {
	if el.Link == "" || r.state.IsSelected(el.ID) {
		return
	}
	zoom := r.state.Zoom.Value
	x1, y1, x2, y2 := scene.AbsoluteCoords(el)
	h := scene.LinkHandle(x1, y1, x2, y2, el.Angle, zoom)
	cx, cy := h.X+h.Width/2, h.Y+h.Height/2

	r.ctx.Save()
	defer r.ctx.Restore()
	r.ctx.Translate(r.state.ScrollX+cx, r.state.ScrollY+cy)
	r.ctx.Rotate(el.Angle)

	kind := LinkExternal
	if scene.IsElementLink(el.Link) {
		kind = LinkElement
	}
	img := r.icons.Icon(r.ctx, kind, zoom, h.Width, h.Height)
	r.ctx.DrawImage(img, h.X-cx, h.Y-cy, h.Width, h.Height)
	r.stats.LinkIcons++
}

// paintSizeLabels labels a single selected shape, or the union of a
// multi-element selection.
func (r *sceneRun) paintSizeLabels() {
	var selected []scene.Element
	for _, el := range r.cfg.VisibleElements {
		if r.state.IsSelected(el.ID) && !el.IsText() {
			selected = append(selected, el)
		}
	}
	grid := annotate.Grid{Size: r.state.GridSize, Step: r.state.GridStep}

	var subject annotate.Subject
	switch len(selected) {
	case 0:
		return
	case 1:
		s, ok := annotate.FromElement(selected[0])
		if !ok {
			return
		}
		subject = s
	default:
		g, ok := annotate.GroupFromElements(selected, SelectionColor)
		if !ok {
			return
		}
		subject = g
	}

	r.ctx.Save()
	defer r.ctx.Restore()
	r.ctx.Translate(r.state.ScrollX, r.state.ScrollY)
	if annotate.Render(r.ctx, subject, grid) {
		r.stats.Labels++
	}
}
