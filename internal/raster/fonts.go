package raster

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// faceCache hands out sans-serif faces backed by the embedded Go Regular font.
type faceCache struct {
	once   sync.Once
	source *text.FontSource
	err    error

	mu    sync.Mutex
	faces map[float64]text.Face
}

var sansSerif = &faceCache{faces: make(map[float64]text.Face)}

// face returns a face of the given pixel size, rounded to a quarter pixel so
// zoomed text does not grow the cache without bound.
func (f *faceCache) face(size float64) (text.Face, error) {
	f.once.Do(func() {
		f.source, f.err = text.NewFontSource(goregular.TTF)
		if f.err != nil {
			f.err = fmt.Errorf("load sans-serif font: %w", f.err)
		}
	})
	if f.err != nil {
		return nil, f.err
	}

	key := math.Round(size*4) / 4
	if key <= 0 {
		key = 0.25
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	face := f.source.Face(key)
	f.faces[key] = face
	return face, nil
}
