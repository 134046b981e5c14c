package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/inamate/scenerender/internal/annotate"
	"github.com/inamate/scenerender/internal/engine"
	"github.com/inamate/scenerender/internal/raster"
	"github.com/inamate/scenerender/internal/scene"
	"github.com/inamate/scenerender/internal/typeid"
)

const (
	maxSnapshotSize = 50 << 20 // 50MB
	defaultQuality  = 92

	ExportIDHeader     = "X-Export-Id"
	FailedShapesHeader = "X-Render-Failed"
)

type Handler struct {
	renderer *Renderer
}

func NewHandler(renderer *Renderer) *Handler {
	return &Handler{renderer: renderer}
}

// ExportPNG handles POST /export/png. The body is a scene snapshot; query
// parameters are scale, dark=1, background=0|1 and padding.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "image/png", func(c *raster.Canvas, out io.Writer) error {
		return c.EncodePNG(out)
	}, true)
}

// ExportJPEG handles POST /export/jpeg. JPEG has no alpha, so the background
// is always painted. Accepts quality (1-100) on top of the PNG parameters.
func (h *Handler) ExportJPEG(w http.ResponseWriter, r *http.Request) {
	quality, err := strconv.Atoi(r.URL.Query().Get("quality"))
	if err != nil || quality < 1 || quality > 100 {
		quality = defaultQuality
	}
	h.export(w, r, "image/jpeg", func(c *raster.Canvas, out io.Writer) error {
		return c.EncodeJPEG(out, quality)
	}, false)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, contentType string, encode func(*raster.Canvas, io.Writer) error, allowTransparent bool) {
	snap, ok := decodeSnapshot(w, r)
	if !ok {
		return
	}
	opts := parseOptions(r)
	if !allowTransparent {
		opts.Background = true
	}

	c, stats, err := h.renderer.Render(snap, opts)
	switch {
	case errors.Is(err, ErrEmptyScene):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scene has no elements"})
		return
	case errors.Is(err, raster.ErrCanvasTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "export too large, reduce scale"})
		return
	case err != nil:
		slog.Error("render export", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	var buf bytes.Buffer
	if err := encode(c, &buf); err != nil {
		slog.Error("encode export", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	exportID := typeid.NewExportID()
	slog.Info("export rendered",
		"export", exportID,
		"type", contentType,
		"width", c.Width(),
		"height", c.Height(),
		"rendered", stats.Rendered,
		"failed", stats.Failed,
	)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set(ExportIDHeader, exportID)
	w.Header().Set(FailedShapesHeader, strconv.Itoa(stats.Failed))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func decodeSnapshot(w http.ResponseWriter, r *http.Request) (*scene.Snapshot, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSnapshotSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "snapshot too large"})
		return nil, false
	}
	snap, err := scene.Decode(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	return snap, true
}

func parseOptions(r *http.Request) Options {
	q := r.URL.Query()
	opts := Options{Scale: 1, Background: true, Padding: DefaultPadding}
	if s, err := strconv.ParseFloat(q.Get("scale"), 64); err == nil {
		opts.Scale = ClampScale(s)
	}
	opts.Dark = q.Get("dark") == "1" || q.Get("dark") == "true"
	if bg := q.Get("background"); bg == "0" || bg == "false" {
		opts.Background = false
	}
	if p, err := strconv.ParseFloat(q.Get("padding"), 64); err == nil && p >= 0 {
		opts.Padding = p
	}
	return opts
}

type labelRequest struct {
	Element  *scene.Element  `json:"element"`
	Group    []scene.Element `json:"group"`
	GridSize float64         `json:"gridSize"`
	GridStep int             `json:"gridStep"`
}

type labelResponse struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
	Shadow   bool    `json:"shadow"`
}

// Label handles POST /annotate/label: the size label of one element, or of
// the bounding box of a group, without rendering anything.
func (h *Handler) Label(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnapshotSize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	grid := annotate.Grid{Size: req.GridSize, Step: req.GridStep}
	if grid.Size <= 0 {
		grid.Size = scene.DefaultGridSize
	}
	if grid.Step <= 0 {
		grid.Step = scene.DefaultGridStep
	}

	var subject annotate.Subject
	switch {
	case req.Element != nil && len(req.Group) > 0:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "send either element or group"})
		return
	case req.Element != nil:
		s, ok := annotate.FromElement(*req.Element)
		if !ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "element type has no size label"})
			return
		}
		subject = s
	case len(req.Group) > 0:
		g, _ := annotate.GroupFromElements(req.Group, engine.SelectionColor)
		subject = g
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "element or group is required"})
		return
	}

	l, ok := annotate.Compute(subject, grid)
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "shape has no size label"})
		return
	}
	writeJSON(w, http.StatusOK, labelResponse{
		Text:     l.Text,
		X:        l.Position.X,
		Y:        l.Position.Y,
		FontSize: l.FontSize,
		Color:    l.Color,
		Shadow:   l.Shadow,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
