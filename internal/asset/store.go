package asset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/inamate/scenerender/internal/typeid"
)

// ErrNotFound is returned for asset ids with no stored bitmap.
var ErrNotFound = errors.New("asset not found")

// Asset describes a stored bitmap.
type Asset struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Store keeps image assets as PNG files in a directory, keyed by asset id,
// and caches decoded bitmaps for rendering.
type Store struct {
	dir string

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Store{dir: dir, cache: make(map[string]image.Image)}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".png")
}

// Put stores img under a new asset id.
func (s *Store) Put(img image.Image) (Asset, error) {
	id := typeid.NewAssetID()
	p := s.path(id)

	out, err := os.Create(p)
	if err != nil {
		return Asset{}, fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(p)
		return Asset{}, fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(p)
		return Asset{}, fmt.Errorf("close asset file: %w", err)
	}

	s.mu.Lock()
	s.cache[id] = img
	s.mu.Unlock()

	b := img.Bounds()
	return Asset{ID: id, Width: b.Dx(), Height: b.Dy()}, nil
}

// Image returns the decoded bitmap for an asset id.
func (s *Store) Image(id string) (image.Image, error) {
	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.cache[id]; ok {
		return img, nil
	}

	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", id, err)
	}
	s.cache[id] = img
	return img, nil
}

// Delete removes an asset file and its cached bitmap.
func (s *Store) Delete(id string) error {
	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		return fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}

	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("asset %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("remove asset: %w", err)
	}
	return nil
}
