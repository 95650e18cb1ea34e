// Package scene captures and replays camera bookmarks tied to a timeline
// cursor.
package scene

import (
	"fmt"
	"math"
	"sync"

	"github.com/OCAP2/geotime/pkg/core"
	"github.com/google/uuid"
)

// CursorSetter receives the cursor of a restored scene.
type CursorSetter interface {
	SetCursor(t float64)
}

// Book is the ordered list of captured scenes.
type Book struct {
	mu     sync.RWMutex
	scenes []core.Scene
}

// NewBook creates an empty Book
func NewBook() *Book {
	return &Book{}
}

// Capture snapshots the camera, cursor and visible item ids as a new scene.
func (b *Book) Capture(view *ViewState, cursor float64, activeIDs []string) core.Scene {
	cam := view.Camera()

	b.mu.Lock()
	defer b.mu.Unlock()

	sc := core.Scene{
		ID:             uuid.NewString(),
		Title:          fmt.Sprintf("Scene %d", len(b.scenes)+1),
		Description:    fmt.Sprintf("Tactical record at T-%d", int(math.Floor(cursor))),
		Center:         cam.Center,
		Zoom:           cam.Zoom,
		Timestamp:      cursor,
		ActiveLayerIDs: append([]string{}, activeIDs...),
	}
	b.scenes = append(b.scenes, sc)
	return cloneScene(sc)
}

// Restore replays the scene with the given id.
func (b *Book) Restore(id string, view *ViewState, cursor CursorSetter) bool {
	sc, ok := b.Get(id)
	if !ok {
		return false
	}
	return RestoreScene(sc, view, cursor)
}

// RestoreScene flies the camera to the scene and sets the cursor. A scene
// with a non-finite center is ignored. ActiveLayerIDs are not applied.
func RestoreScene(sc core.Scene, view *ViewState, cursor CursorSetter) bool {
	if !sc.Center.Valid() {
		return false
	}
	if !view.FlyTo(sc.Center, sc.Zoom) {
		return false
	}
	cursor.SetCursor(sc.Timestamp)
	return true
}

// Get returns the scene with the given id
func (b *Book) Get(id string) (core.Scene, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sc := range b.scenes {
		if sc.ID == id {
			return cloneScene(sc), true
		}
	}
	return core.Scene{}, false
}

// All returns every scene in capture order
func (b *Book) All() []core.Scene {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.Scene, len(b.scenes))
	for i, sc := range b.scenes {
		out[i] = cloneScene(sc)
	}
	return out
}

// Replace swaps all scenes, as on document load.
func (b *Book) Replace(scenes []core.Scene) {
	cloned := make([]core.Scene, len(scenes))
	for i, sc := range scenes {
		cloned[i] = cloneScene(sc)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scenes = cloned
}

// Len returns the number of scenes
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.scenes)
}

func cloneScene(sc core.Scene) core.Scene {
	if sc.ActiveLayerIDs != nil {
		sc.ActiveLayerIDs = append([]string(nil), sc.ActiveLayerIDs...)
	}
	return sc
}
