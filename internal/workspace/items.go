package workspace

import (
	"errors"
	"fmt"

	"github.com/OCAP2/geotime/internal/geo"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/google/uuid"
)

// Colors and names of drawn shapes.
const (
	AreaColor  = "#ef4444"
	RouteColor = "#fbbf24"
	AreaName   = "Area"
	RouteName  = "Route"
)

var (
	// ErrNotDrawing is returned for drawing operations outside drawing mode.
	ErrNotDrawing = errors.New("not in drawing mode")
	// ErrTooFewPoints is returned when finishing a shape with fewer than two points.
	ErrTooFewPoints = errors.New("a shape needs at least two points")
	// ErrDrawingKind is returned when starting a drawing that is not a polygon or polyline.
	ErrDrawingKind = errors.New("drawing kind must be polygon or polyline")
)

// Drawing is the shape being drawn.
type Drawing struct {
	Active bool            `json:"active"`
	Kind   core.ItemKind   `json:"kind,omitempty"`
	Path   []core.GeoPoint `json:"path"`
}

// Items returns every item in insertion order.
func (w *Workspace) Items() []core.MapItem {
	return w.items.All()
}

// Item returns the item with the given id.
func (w *Workspace) Item(id string) (core.MapItem, bool) {
	return w.items.Get(id)
}

// VisibleAt returns the items drawn at cursor t.
func (w *Workspace) VisibleAt(t float64) []core.MapItem {
	return w.items.VisibleAt(t)
}

// DropMarker places a marker of iconType at pos, as when an icon is dropped
// on the map. The marker is named "<Label> N" after the icon catalog, starts
// at the current cursor and stays open ended. customIconURL is kept for
// user-supplied icons.
func (w *Workspace) DropMarker(iconType string, pos core.GeoPoint, customIconURL string) (core.MapItem, error) {
	if !pos.Valid() {
		return core.MapItem{}, geo.ErrInvalidCoordinates
	}
	label, color := w.catalog.MarkerStyle(iconType)

	w.mu.Lock()
	defer w.mu.Unlock()
	item := core.MapItem{
		ID:            uuid.NewString(),
		Kind:          core.KindMarker,
		SubType:       iconType,
		Name:          fmt.Sprintf("%s %d", label, w.items.Len()+1),
		Position:      pos,
		Color:         color,
		Visible:       true,
		StartTime:     w.timeline.Cursor(),
		CustomIconURL: customIconURL,
	}
	w.items.Add(item)
	w.log.Debug("Marker dropped", "id", item.ID, "type", iconType)
	return item, nil
}

// AddItem stores a fully described item. A missing id is generated.
func (w *Workspace) AddItem(item core.MapItem) (core.MapItem, error) {
	if !item.Valid() {
		return core.MapItem{}, geo.ErrInvalidCoordinates
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items.Add(item)
	return item.Clone(), nil
}

// UpdateItem merges patch into an item. Unknown ids are a no-op.
func (w *Workspace) UpdateItem(id string, patch core.ItemPatch) (core.MapItem, bool) {
	if !w.items.Update(id, patch) {
		return core.MapItem{}, false
	}
	return w.items.Get(id)
}

// RemoveItem deletes an item. Unknown ids are a no-op.
func (w *Workspace) RemoveItem(id string) bool {
	return w.items.Remove(id)
}

// MoveItem applies a marker drag end. Locked items stay put.
func (w *Workspace) MoveItem(id string, pos core.GeoPoint) bool {
	return w.items.Move(id, pos)
}

// AddImage appends an image to an item gallery.
func (w *Workspace) AddImage(id, url string) bool {
	return w.items.AddImage(id, url)
}

// RemoveImage removes the gallery image at index.
func (w *Workspace) RemoveImage(id string, index int) bool {
	return w.items.RemoveImage(id, index)
}

// StartDrawing enters drawing mode for a polygon or polyline. Points of any
// earlier unfinished shape are discarded.
func (w *Workspace) StartDrawing(kind core.ItemKind) error {
	if kind != core.KindPolygon && kind != core.KindPolyline {
		return fmt.Errorf("%w: %q", ErrDrawingKind, kind)
	}
	w.drawMu.Lock()
	defer w.drawMu.Unlock()
	w.drawingKind = kind
	w.drawing.Clear()
	return nil
}

// AddDrawingPoint appends a map click to the shape being drawn.
func (w *Workspace) AddDrawingPoint(p core.GeoPoint) error {
	if !p.Valid() {
		return geo.ErrInvalidCoordinates
	}
	w.drawMu.Lock()
	defer w.drawMu.Unlock()
	if w.drawingKind == "" {
		return ErrNotDrawing
	}
	w.drawing.Push(p)
	return nil
}

// UndoDrawingPoint drops the last clicked point.
func (w *Workspace) UndoDrawingPoint() bool {
	w.drawMu.Lock()
	defer w.drawMu.Unlock()
	_, ok := w.drawing.Undo()
	return ok
}

// DrawingState returns the shape in progress.
func (w *Workspace) DrawingState() Drawing {
	w.drawMu.Lock()
	defer w.drawMu.Unlock()
	path := w.drawing.Snapshot()
	if path == nil {
		path = []core.GeoPoint{}
	}
	return Drawing{
		Active: w.drawingKind != "",
		Kind:   w.drawingKind,
		Path:   path,
	}
}

// FinishDrawing turns the clicked points into an "Area N" polygon or a
// "Route N" polyline starting at the current cursor, then leaves drawing
// mode. With fewer than two points nothing changes.
func (w *Workspace) FinishDrawing() (core.MapItem, error) {
	w.drawMu.Lock()
	defer w.drawMu.Unlock()
	if w.drawingKind == "" {
		return core.MapItem{}, ErrNotDrawing
	}
	if w.drawing.Len() < 2 {
		return core.MapItem{}, ErrTooFewPoints
	}

	name, color := RouteName, RouteColor
	if w.drawingKind == core.KindPolygon {
		name, color = AreaName, AreaColor
	}
	path := w.drawing.Drain()

	w.mu.Lock()
	defer w.mu.Unlock()
	item := core.MapItem{
		ID:        uuid.NewString(),
		Kind:      w.drawingKind,
		Name:      fmt.Sprintf("%s %d", name, w.items.Len()+1),
		Position:  path[0],
		Path:      path,
		Color:     color,
		Visible:   true,
		StartTime: w.timeline.Cursor(),
	}
	w.items.Add(item)
	w.drawingKind = ""
	w.log.Debug("Shape drawn", "id", item.ID, "kind", item.Kind, "points", len(path))
	return item, nil
}

// CancelDrawing leaves drawing mode and discards the points.
func (w *Workspace) CancelDrawing() {
	w.drawMu.Lock()
	defer w.drawMu.Unlock()
	w.drawingKind = ""
	w.drawing.Clear()
}

// Measure returns the great-circle distance in meters between a and b, or 0
// when either point is invalid.
func (w *Workspace) Measure(a, b core.GeoPoint) float64 {
	return geo.Distance(a, b)
}

// CaptureScene bookmarks the camera and cursor along with the ids of the
// currently visible items.
func (w *Workspace) CaptureScene() core.Scene {
	return w.scenes.Capture(w.view, w.timeline.Cursor(), w.items.VisibleIDs())
}

// Scenes returns every captured scene.
func (w *Workspace) Scenes() []core.Scene {
	return w.scenes.All()
}

// RestoreScene flies to a scene and moves the cursor to its timestamp.
func (w *Workspace) RestoreScene(id string) bool {
	return w.scenes.Restore(id, w.view, w.timeline)
}
