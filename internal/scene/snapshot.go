package scene

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

var ErrInvalidSnapshot = errors.New("invalid scene snapshot")

// BinaryFile is an embedded image referenced by image elements.
type BinaryFile struct {
	ID       string `json:"id"`
	MimeType string `json:"mimeType"`
	DataURL  string `json:"dataURL"`
}

// Decode decodes the base64 data URL into an image.
func (f BinaryFile) Decode() (image.Image, error) {
	_, payload, ok := strings.Cut(f.DataURL, ";base64,")
	if !ok {
		return nil, fmt.Errorf("decode file %s: not a base64 data URL", f.ID)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode file %s: %w", f.ID, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode file %s: %w", f.ID, err)
	}
	return img, nil
}

// Snapshot is an immutable scene document: ordered elements, the view state and
// embedded files.
type Snapshot struct {
	Elements []Element            `json:"elements"`
	AppState AppState             `json:"appState"`
	Files    map[string]BinaryFile `json:"files,omitempty"`
}

// Decode parses and validates a snapshot document. Element ids must be present
// and unique; view state defaults are filled in.
func Decode(data []byte) (*Snapshot, error) {
	snap := &Snapshot{AppState: DefaultAppState()}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	snap.AppState.Normalize()
	return snap, nil
}

// Validate checks structural invariants of the element list.
func (s *Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Elements))
	for i, el := range s.Elements {
		if el.ID == "" {
			return fmt.Errorf("%w: element %d has no id", ErrInvalidSnapshot, i)
		}
		if _, dup := seen[el.ID]; dup {
			return fmt.Errorf("%w: duplicate element id %q", ErrInvalidSnapshot, el.ID)
		}
		if el.Type == "" {
			return fmt.Errorf("%w: element %q has no type", ErrInvalidSnapshot, el.ID)
		}
		seen[el.ID] = struct{}{}
	}
	return nil
}

// ElementsMap indexes every element, deleted ones included.
func (s *Snapshot) ElementsMap() ElementsMap {
	return NewElementsMap(s.Elements)
}

// Encode serializes the snapshot.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}
