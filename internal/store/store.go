// Package store keeps the tactical items placed on the map and derives what
// the map surface should draw at a given timeline cursor.
package store

import (
	"sync"

	"github.com/OCAP2/geotime/internal/geo"
	"github.com/OCAP2/geotime/internal/timeline"
	"github.com/OCAP2/geotime/pkg/core"
)

// Store holds map items in insertion order.
type Store struct {
	mu    sync.RWMutex
	items []core.MapItem
}

// New creates an empty Store
func New() *Store {
	return &Store{}
}

// Add appends an item. Ids are assumed unique.
func (s *Store) Add(item core.MapItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item.Clone())
}

// Update merges patch into the item with the given id. Unknown ids are a
// silent no-op and return false.
func (s *Store) Update(id string, patch core.ItemPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items[i] = patch.Apply(s.items[i])
	return true
}

// Remove deletes the item with the given id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id string) (core.MapItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return core.MapItem{}, false
	}
	return s.items[i].Clone(), true
}

// All returns copies of every item in insertion order.
func (s *Store) All() []core.MapItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.MapItem, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// Len returns the number of stored items
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Replace swaps the whole collection, as on document load or demo.
func (s *Store) Replace(items []core.MapItem) {
	cloned := make([]core.MapItem, len(items))
	for i, item := range items {
		cloned[i] = item.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cloned
}

// Move relocates a marker after a drag. Locked items, unknown ids and
// non-finite positions are refused.
func (s *Store) Move(id string, pos core.GeoPoint) bool {
	if !pos.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 || s.items[i].Locked {
		return false
	}
	s.items[i].Position = pos
	return true
}

// AddImage appends an image URL to the item's gallery.
func (s *Store) AddImage(id, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items[i].Images = append(s.items[i].Images, url)
	return true
}

// RemoveImage removes the image at index.
func (s *Store) RemoveImage(id string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false
	}
	imgs := s.items[i].Images
	if index < 0 || index >= len(imgs) {
		return false
	}
	s.items[i].Images = append(imgs[:index:index], imgs[index+1:]...)
	return true
}

// VisibleIDs returns the ids of items whose visible flag is set, regardless
// of timeline window.
func (s *Store) VisibleIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.items))
	for _, item := range s.items {
		if item.Visible {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// VisibleAt returns the items to draw at cursor t: visible flag set, every
// coordinate finite and active at t. Order is insertion order.
func (s *Store) VisibleAt(t float64) []core.MapItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.MapItem, 0, len(s.items))
	for _, item := range s.items {
		if item.Visible && item.Valid() && item.ActiveAt(t) {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Render builds the frame for cursor t with overlays derived from the
// visible markers. Nothing derived is ever stored.
func (s *Store) Render(t float64) core.Frame {
	items := s.VisibleAt(t)
	frame := core.Frame{
		Cursor:   t,
		Clock:    timeline.FormatClock(t),
		Items:    items,
		Overlays: make([]core.Overlay, 0),
	}
	for _, item := range items {
		frame.Overlays = append(frame.Overlays, Overlays(item)...)
	}
	return frame
}

// Overlays derives ring, cone and targeting vector geometry for a marker.
func Overlays(item core.MapItem) []core.Overlay {
	if item.Kind != core.KindMarker || !item.Position.Valid() {
		return nil
	}

	var out []core.Overlay
	if item.RangeRadius > 0 {
		out = append(out, core.Overlay{
			ItemID: item.ID,
			Kind:   core.OverlayRing,
			Color:  item.Color,
			Center: item.Position,
			Radius: item.RangeRadius,
		})
	}

	if vc := item.ViewCone; vc != nil && vc.Enabled && vc.Range > 0 {
		poly := geo.ViewConePolygon(item.Position, vc.Range, vc.Direction, vc.Spread)
		if len(poly) > 0 {
			out = append(out, core.Overlay{
				ItemID: item.ID,
				Kind:   core.OverlayCone,
				Color:  item.Color,
				Center: item.Position,
				Path:   poly,
			})
		}
	}

	if tv := item.TargetingVector; tv != nil && tv.Enabled && tv.Range > 0 {
		if end, ok := geo.TargetingEndpoint(item.Position, tv.Range, tv.Direction); ok {
			out = append(out, core.Overlay{
				ItemID: item.ID,
				Kind:   core.OverlayVector,
				Color:  item.Color,
				Center: item.Position,
				Path:   []core.GeoPoint{item.Position, end},
			})
		}
	}

	return out
}

func (s *Store) index(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
