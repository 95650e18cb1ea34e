// Package workspace owns the live state of one planning session: items,
// scenes, timeline, camera, org chart and security plan. Every transport
// (HTTP, WebSocket, CLI) goes through a Workspace instead of touching the
// stores directly.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/geotime/internal/ai"
	"github.com/OCAP2/geotime/internal/catalog"
	"github.com/OCAP2/geotime/internal/hierarchy"
	"github.com/OCAP2/geotime/internal/logging"
	"github.com/OCAP2/geotime/internal/plan"
	"github.com/OCAP2/geotime/internal/queue"
	"github.com/OCAP2/geotime/internal/scene"
	"github.com/OCAP2/geotime/internal/storage"
	"github.com/OCAP2/geotime/internal/store"
	"github.com/OCAP2/geotime/internal/timeline"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/OCAP2/geotime/pkg/streaming"
)

var (
	// ErrBusy is returned while another AI request is outstanding.
	ErrBusy = errors.New("an AI request is already in progress")
	// ErrClosed is returned once the workspace is closed. Responses that
	// arrive after Close are discarded with this error.
	ErrClosed = errors.New("workspace is closed")
	// ErrNoBackend is returned by Save and Load when no storage is configured.
	ErrNoBackend = errors.New("no storage backend configured")
	// ErrEmptyQuery is returned for blank commands and searches.
	ErrEmptyQuery = errors.New("query is empty")
)

// Result is the human-readable outcome of an operation, plus whatever it
// produced.
type Result struct {
	Message  string         `json:"message"`
	Items    []core.MapItem `json:"items,omitempty"`
	Location *core.GeoPoint `json:"location,omitempty"`
}

// Dependencies holds the collaborators of a Workspace. Only Catalog is
// required.
type Dependencies struct {
	Catalog  *catalog.Catalog
	AI       ai.Service
	Geocoder ai.Geocoder
	Backend  storage.Backend
	Logger   *slog.Logger
}

// Workspace is the single owner of session state.
type Workspace struct {
	catalog  *catalog.Catalog
	ai       ai.Service
	geocoder ai.Geocoder
	backend  storage.Backend
	log      *slog.Logger

	items    *store.Store
	timeline *timeline.Controller
	view     *scene.ViewState
	scenes   *scene.Book
	chart    *hierarchy.Chart
	plan     *plan.Plan

	// mu serialises item creation so generated names stay sequential.
	mu          sync.Mutex
	drawMu      sync.Mutex
	drawingKind core.ItemKind
	drawing     *queue.Queue[core.GeoPoint]

	aiBusy atomic.Bool
	closed atomic.Bool
}

// New creates a workspace with an empty map, the default org chart and an
// unchecked security plan.
func New(deps Dependencies) (*Workspace, error) {
	if deps.Catalog == nil {
		return nil, errors.New("workspace: catalog is required")
	}
	tl, err := timeline.New()
	if err != nil {
		return nil, fmt.Errorf("creating timeline: %w", err)
	}

	w := &Workspace{
		catalog:  deps.Catalog,
		ai:       deps.AI,
		geocoder: deps.Geocoder,
		backend:  deps.Backend,
		items:    store.New(),
		timeline: tl,
		view:     scene.NewViewState(),
		scenes:   scene.NewBook(),
		plan:     plan.New(deps.Catalog.PlanSections()),
		drawing:  queue.New[core.GeoPoint](),
	}
	if w.ai == nil {
		w.ai = ai.Disabled{}
	}
	if w.geocoder == nil {
		w.geocoder = w.ai
	}

	var templates hierarchy.TemplateStore
	if deps.Backend != nil {
		templates = deps.Backend
	}
	w.chart = hierarchy.NewChart(deps.Catalog.Default(), deps.Catalog.Templates(), templates)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w.log = logging.WithContext(logger, w.logContext)

	return w, nil
}

func (w *Workspace) logContext() []slog.Attr {
	return []slog.Attr{
		slog.Int("items", w.items.Len()),
		slog.Float64("cursor", w.timeline.Cursor()),
	}
}

// Logger returns the workspace logger. Records carry the item count and cursor.
func (w *Workspace) Logger() *slog.Logger {
	return w.log
}

// Timeline returns the playback controller.
func (w *Workspace) Timeline() *timeline.Controller {
	return w.timeline
}

// Chart returns the org chart.
func (w *Workspace) Chart() *hierarchy.Chart {
	return w.chart
}

// Plan returns the security plan checklist.
func (w *Workspace) Plan() *plan.Plan {
	return w.plan
}

// Catalog returns the built-in catalog.
func (w *Workspace) Catalog() *catalog.Catalog {
	return w.catalog
}

// Camera returns the current map camera.
func (w *Workspace) Camera() core.Camera {
	return w.view.Camera()
}

// Pan records a user camera move. Non-finite centers are refused.
func (w *Workspace) Pan(center core.GeoPoint, zoom float64) bool {
	return w.view.Pan(center, zoom)
}

// Render returns the frame for cursor t.
func (w *Workspace) Render(t float64) core.Frame {
	return w.items.Render(t)
}

// Frame returns the frame message for the current timeline state.
func (w *Workspace) Frame() streaming.FrameMessage {
	return w.frameMessage(w.timeline.State())
}

func (w *Workspace) frameMessage(st timeline.State) streaming.FrameMessage {
	return streaming.FrameMessage{
		Type:   streaming.TypeFrame,
		Frame:  w.items.Render(st.Cursor),
		Status: string(st.Status),
		Speed:  st.Speed,
		Camera: w.view.Camera(),
	}
}

// Run drives the timeline until ctx is cancelled, handing every frame to
// onFrame.
func (w *Workspace) Run(ctx context.Context, interval time.Duration, onFrame func(streaming.FrameMessage)) error {
	w.log.Info("Timeline loop started", "interval", interval)
	err := w.timeline.Run(ctx, interval, func(st timeline.State) {
		if onFrame != nil {
			onFrame(w.frameMessage(st))
		}
	})
	w.log.Info("Timeline loop stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close pauses playback and makes every later AI response a no-op. The
// storage backend is owned by the caller.
func (w *Workspace) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	w.timeline.Pause()
	w.CancelDrawing()
	w.log.Info("Workspace closed")
	return nil
}

// Closed reports whether Close was called.
func (w *Workspace) Closed() bool {
	return w.closed.Load()
}
