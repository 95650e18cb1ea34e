// internal/storage/memory/export.go
package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OCAP2/geotime/internal/util"
	"github.com/OCAP2/geotime/pkg/core"
)

const (
	extJSON = ".json"
	extGzip = ".json.gz"
)

// fileBase maps a document name to its file name stem, keeping clear of the
// templates file.
func fileBase(name string) string {
	base := util.SanitizeFilename(name)
	if base+extJSON == TemplatesFile {
		base += "_plan"
	}
	return base
}

// DocumentPath returns where a document named name is written.
func (b *Backend) DocumentPath(name string) string {
	ext := extJSON
	if b.cfg.CompressOutput {
		ext = extGzip
	}
	return filepath.Join(b.cfg.OutputDir, fileBase(name)+ext)
}

// SaveDocument writes doc as <name>.json (or .json.gz when compression is
// on) and returns the written path. A stale file with the other extension is
// removed so a later load cannot pick it up.
func (b *Backend) SaveDocument(_ context.Context, name string, doc core.Document) (string, error) {
	path := b.DocumentPath(name)
	err := writeFileAtomic(path, func(f *os.File) error {
		return core.WriteDocument(f, doc, b.cfg.CompressOutput)
	})
	if err != nil {
		return "", err
	}

	stale := filepath.Join(b.cfg.OutputDir, fileBase(name)+extJSON)
	if !b.cfg.CompressOutput {
		stale = filepath.Join(b.cfg.OutputDir, fileBase(name)+extGzip)
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to remove stale %s: %w", stale, err)
	}
	return path, nil
}

// LoadDocument reads a saved document. Either extension is accepted.
func (b *Backend) LoadDocument(_ context.Context, name string) (core.Document, error) {
	base := filepath.Join(b.cfg.OutputDir, fileBase(name))
	for _, ext := range []string{extGzip, extJSON} {
		data, err := os.ReadFile(base + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return core.Document{}, fmt.Errorf("failed to read %s: %w", base+ext, err)
		}
		return core.ParseDocument(data)
	}
	return core.Document{}, fmt.Errorf("%w: %s", core.ErrDocumentNotFound, name)
}

// Documents lists saved document names, sorted.
func (b *Backend) Documents(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.cfg.OutputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", b.cfg.OutputDir, err)
	}

	seen := make(map[string]bool)
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || e.Name() == TemplatesFile {
			continue
		}
		var name string
		switch {
		case strings.HasSuffix(e.Name(), extGzip):
			name = strings.TrimSuffix(e.Name(), extGzip)
		case strings.HasSuffix(e.Name(), extJSON):
			name = strings.TrimSuffix(e.Name(), extJSON)
		default:
			continue
		}
		if name == "" || strings.HasPrefix(name, ".") || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
