package asset

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/scenerender/internal/typeid"
)

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.NRGBA{G: 255, A: 255})
	return img
}

func TestStorePutImage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	a, err := s.Put(testImage())
	require.NoError(t, err)
	assert.NoError(t, typeid.Validate(a.ID, typeid.PrefixAsset))
	assert.Equal(t, 4, a.Width)
	assert.Equal(t, 3, a.Height)

	// A fresh store reads it back from disk.
	s2, err := NewStore(dir)
	require.NoError(t, err)
	img, err := s2.Image(a.ID)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	r, g, _, _ := img.At(1, 1).RGBA()
	assert.Zero(t, r)
	assert.Equal(t, uint32(0xffff), g)
}

func TestStoreNotFound(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Image(typeid.NewAssetID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Image("../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Image(typeid.NewExportID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	a, err := s.Put(testImage())
	require.NoError(t, err)

	require.NoError(t, s.Delete(a.ID))
	_, err = os.Stat(s.path(a.ID))
	assert.True(t, os.IsNotExist(err))
	_, err = s.Image(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(a.ID), ErrNotFound)
}

func newRouter(t *testing.T) (*mux.Router, *Store) {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	h := NewHandler(s)
	r := mux.NewRouter()
	r.HandleFunc("/assets/upload", h.Upload).Methods(http.MethodPost)
	r.HandleFunc("/assets/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/assets/{id}", h.Delete).Methods(http.MethodDelete)
	return r, s
}

func uploadRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="plan.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandlerUploadAndGet(t *testing.T) {
	r, _ := newRouter(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "image/png", buf.Bytes()))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "plan.png", resp.Name)
	assert.Equal(t, 4, resp.Width)
	assert.Equal(t, "/assets/"+resp.ID, resp.URL)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dy())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, resp.URL, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandlerUploadRejects(t *testing.T) {
	r, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "image/gif", []byte("GIF89a")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "image/png", []byte("not a png")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGetMissing(t *testing.T) {
	r, _ := newRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/"+typeid.NewAssetID(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
