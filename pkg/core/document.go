// pkg/core/document.go
package core

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMalformedDocument is returned when a plan file cannot be parsed.
	ErrMalformedDocument = errors.New("malformed plan document")
	// ErrDocumentNotFound is returned by storage backends for unknown names.
	ErrDocumentNotFound = errors.New("plan document not found")
)

var gzipMagic = []byte{0x1f, 0x8b}

// Document is the saved plan file: {items, scenes}.
// A nil slice means the key was absent and must not replace current state.
type Document struct {
	Items  []MapItem `json:"items"`
	Scenes []Scene   `json:"scenes"`
}

// ParseDocument decodes a plan file. Gzip-compressed input is detected by
// its magic bytes. Keys that are absent or null stay nil.
func ParseDocument(data []byte) (Document, error) {
	var r io.Reader = bytes.NewReader(data)
	if bytes.HasPrefix(data, gzipMagic) {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		defer gz.Close()
		r = gz
	}

	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return doc, nil
}

// WriteDocument encodes doc as JSON, gzip-compressed when compress is set.
func WriteDocument(w io.Writer, doc Document, compress bool) error {
	if !compress {
		return json.NewEncoder(w).Encode(doc)
	}
	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(doc); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// Frame is the render instruction set for one timeline cursor.
type Frame struct {
	Cursor   float64   `json:"cursor"`
	Clock    string    `json:"clock"`
	Items    []MapItem `json:"items"`
	Overlays []Overlay `json:"overlays"`
}

// OverlayKind identifies a derived overlay.
type OverlayKind string

const (
	OverlayRing   OverlayKind = "ring"
	OverlayCone   OverlayKind = "cone"
	OverlayVector OverlayKind = "vector"
)

// Overlay is geometry derived from an item's authoring parameters.
type Overlay struct {
	ItemID string      `json:"itemId"`
	Kind   OverlayKind `json:"kind"`
	Color  string      `json:"color"`
	Center GeoPoint    `json:"center"`
	Radius float64     `json:"radius,omitempty"`
	Path   []GeoPoint  `json:"path,omitempty"`
}
