package paint

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/inamate/scenerender/internal/scene"
)

// ErrImageNotFound is returned when no source holds a bitmap for a file id.
var ErrImageNotFound = errors.New("image not found")

// ImageSource resolves the bitmap of an image element by file id.
type ImageSource interface {
	Image(fileID string) (image.Image, error)
}

// Sources tries each source in order and returns the first bitmap found. When
// every source misses, the error wraps ErrImageNotFound together with any
// source-specific failures.
type Sources []ImageSource

func (s Sources) Image(fileID string) (image.Image, error) {
	errs := []error{fmt.Errorf("file %s: %w", fileID, ErrImageNotFound)}
	for _, src := range s {
		if src == nil {
			continue
		}
		img, err := src.Image(fileID)
		if err == nil {
			return img, nil
		}
		if !errors.Is(err, ErrImageNotFound) {
			errs = append(errs, err)
		}
	}
	return nil, errors.Join(errs...)
}

// FileImages decodes the data URLs embedded in a snapshot on first use and
// keeps the decoded bitmaps.
type FileImages struct {
	mu      sync.Mutex
	files   map[string]scene.BinaryFile
	decoded map[string]image.Image
}

func NewFileImages(files map[string]scene.BinaryFile) *FileImages {
	return &FileImages{files: files, decoded: make(map[string]image.Image)}
}

func (f *FileImages) Image(fileID string) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if img, ok := f.decoded[fileID]; ok {
		return img, nil
	}
	file, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", fileID, ErrImageNotFound)
	}
	img, err := file.Decode()
	if err != nil {
		return nil, err
	}
	f.decoded[fileID] = img
	return img, nil
}
