// Package memory stores plan documents and org templates as JSON files in a
// single output directory. Templates are held in memory and rewritten to
// templates.json on every change.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/OCAP2/geotime/internal/config"
	"github.com/OCAP2/geotime/internal/hierarchy"
	"github.com/OCAP2/geotime/pkg/core"
)

// TemplatesFile is the file holding user-saved org templates.
const TemplatesFile = "templates.json"

// Backend is the file-based storage backend.
type Backend struct {
	cfg config.MemoryConfig

	templates map[string]core.CommandNode
	mu        sync.RWMutex
}

// New creates a new file backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:       cfg,
		templates: make(map[string]core.CommandNode),
	}
}

// Init creates the output directory and reads previously saved templates.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := os.ReadFile(b.templatesPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read templates: %w", err)
	}

	templates := make(map[string]core.CommandNode)
	if err := json.Unmarshal(data, &templates); err != nil {
		return fmt.Errorf("failed to parse %s: %w", TemplatesFile, err)
	}

	b.mu.Lock()
	b.templates = templates
	b.mu.Unlock()
	return nil
}

// Close has nothing to release; every write is flushed immediately.
func (b *Backend) Close() error {
	return nil
}

// SaveTemplate stores a deep copy of tree under name and persists the set.
func (b *Backend) SaveTemplate(_ context.Context, name string, tree core.CommandNode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.templates[name] = hierarchy.Clone(tree)
	return b.writeTemplates()
}

// DeleteTemplate removes a saved template. Unknown names are a no-op.
func (b *Backend) DeleteTemplate(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.templates[name]; !ok {
		return nil
	}
	delete(b.templates, name)
	return b.writeTemplates()
}

// Templates returns deep copies of all saved templates.
func (b *Backend) Templates(_ context.Context) (map[string]core.CommandNode, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]core.CommandNode, len(b.templates))
	for name, tree := range b.templates {
		out[name] = hierarchy.Clone(tree)
	}
	return out, nil
}

func (b *Backend) templatesPath() string {
	return filepath.Join(b.cfg.OutputDir, TemplatesFile)
}

// writeTemplates must be called with mu held.
func (b *Backend) writeTemplates() error {
	data, err := json.MarshalIndent(b.templates, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}
	return writeFileAtomic(b.templatesPath(), func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// writeFileAtomic writes through a temp file in the same directory and
// renames it over path, so readers never see a partial file.
func writeFileAtomic(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".geotime-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
