package export

import (
	"encoding/json"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/scenerender/internal/scene"
	"github.com/inamate/scenerender/internal/typeid"
)

const rectScene = `{
  "elements": [
    {"id": "a", "type": "rectangle", "x": 100, "y": 50, "width": 200, "height": 100,
     "strokeColor": "#1e1e1e", "backgroundColor": "#ff0000", "strokeWidth": 2},
    {"id": "gone", "type": "rectangle", "x": -5000, "y": 0, "width": 10, "height": 10, "isDeleted": true}
  ],
  "appState": {"viewBackgroundColor": "#ffffff"}
}`

func newHandler(maxPixels int) *Handler {
	return NewHandler(NewRenderer(nil, maxPixels, slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func post(h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
	return rec
}

func TestSceneBounds(t *testing.T) {
	snap, err := scene.Decode([]byte(rectScene))
	require.NoError(t, err)
	b, ok := SceneBounds(snap.Elements)
	require.True(t, ok)
	assert.Equal(t, 100.0, b.X)
	assert.Equal(t, 200.0, b.Width)

	_, ok = SceneBounds(nil)
	assert.False(t, ok)
}

func TestClampScale(t *testing.T) {
	assert.Equal(t, 1.0, ClampScale(0))
	assert.Equal(t, 1.0, ClampScale(-2))
	assert.Equal(t, 0.1, ClampScale(0.01))
	assert.Equal(t, 8.0, ClampScale(100))
	assert.Equal(t, 2.0, ClampScale(2))
}

func TestExportPNG(t *testing.T) {
	h := newHandler(0)
	rec := post(h.ExportPNG, "/export/png?scale=2", rectScene)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NoError(t, typeid.Validate(rec.Header().Get(ExportIDHeader), typeid.PrefixExport))
	assert.Equal(t, "0", rec.Header().Get(FailedShapesHeader))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	// (200 + 2*10) x (100 + 2*10) at scale 2.
	assert.Equal(t, image.Rect(0, 0, 440, 240), img.Bounds())

	// Padding shows the white background, the middle the red fill.
	r, g, b, a := img.At(4, 4).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a})
	r, g, _, _ = img.At(220, 120).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Less(t, g, uint32(0x1000))
}

func TestExportPNGTransparent(t *testing.T) {
	rec := post(newHandler(0).ExportPNG, "/export/png?background=0", rectScene)
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	_, _, _, a := img.At(2, 2).RGBA()
	assert.Zero(t, a)
}

func TestExportPNGDark(t *testing.T) {
	rec := post(newHandler(0).ExportPNG, "/export/png?dark=1", rectScene)
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	r, g, b, _ := img.At(2, 2).RGBA()
	assert.Less(t, r>>8, uint32(64))
	assert.Less(t, g>>8, uint32(64))
	assert.Less(t, b>>8, uint32(64))
}

func TestExportJPEG(t *testing.T) {
	rec := post(newHandler(0).ExportJPEG, "/export/jpeg?background=0&quality=80", rectScene)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	img, err := jpeg.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 220, img.Bounds().Dx())

	// Background forced on: the padding is white, not black.
	r, _, _, _ := img.At(2, 2).RGBA()
	assert.Greater(t, r>>8, uint32(200))
}

func TestExportRejects(t *testing.T) {
	h := newHandler(1000)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"invalid element", `{"elements":[{"type":"rectangle"}]}`, http.StatusBadRequest},
		{"empty", `{"elements":[]}`, http.StatusBadRequest},
		{"too large", rectScene, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.ExportPNG, "/export/png", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestLabel(t *testing.T) {
	h := newHandler(0)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantText string
		wantX    float64
		wantY    float64
	}{
		{
			name:     "rectangle",
			body:     `{"element": {"id": "a", "type": "rectangle", "x": 0, "y": 0, "width": 200, "height": 100}, "gridSize": 20, "gridStep": 5}`,
			wantCode: http.StatusOK, wantText: "2м x 1м", wantX: 220, wantY: -20,
		},
		{
			name:     "grid defaults",
			body:     `{"element": {"id": "a", "type": "ellipse", "x": 0, "y": 0, "width": 150, "height": 100}}`,
			wantCode: http.StatusOK, wantText: "1.5м x 1м", wantX: 170, wantY: -20,
		},
		{
			name: "group",
			body: `{"group": [
				{"id": "a", "type": "rectangle", "x": 0, "y": 0, "width": 100, "height": 100},
				{"id": "b", "type": "text", "x": 200, "y": 100, "width": 100, "height": 100}
			], "gridSize": 20, "gridStep": 5}`,
			wantCode: http.StatusOK, wantText: "3м x 2м", wantX: 320, wantY: -20,
		},
		{
			name:     "polyline",
			body:     `{"element": {"id": "l", "type": "line", "points": [[0,0],[10,0],[10,10]]}}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "text",
			body:     `{"element": {"id": "t", "type": "text"}}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{"neither", `{}`, http.StatusBadRequest, "", 0, 0},
		{"both", `{"element": {"id": "a", "type": "rectangle"}, "group": [{"id": "b", "type": "rectangle"}]}`, http.StatusBadRequest, "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.Label, "/annotate/label", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp labelResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantText, resp.Text)
			assert.InDelta(t, tt.wantX, resp.X, 1e-9)
			assert.InDelta(t, tt.wantY, resp.Y, 1e-9)
		})
	}
}
