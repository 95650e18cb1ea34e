// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/OCAP2/geotime/pkg/core"
)

// ErrUnknownBackend is returned by NewBackend for an unrecognised type.
var ErrUnknownBackend = errors.New("unknown storage type")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Plan documents. SaveDocument returns where the document was written.
	SaveDocument(ctx context.Context, name string, doc core.Document) (string, error)
	LoadDocument(ctx context.Context, name string) (core.Document, error)
	Documents(ctx context.Context) ([]string, error)

	TemplateStore
}

// TemplateStore persists user-saved org templates by name.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, name string, tree core.CommandNode) error
	Templates(ctx context.Context) (map[string]core.CommandNode, error)
	DeleteTemplate(ctx context.Context, name string) error
}

// Runner is implemented by backends with background work, such as the
// in-memory SQLite dump loop.
type Runner interface {
	Run(ctx context.Context) error
}
