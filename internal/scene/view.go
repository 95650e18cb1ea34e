package scene

import (
	"sync"

	"github.com/OCAP2/geotime/pkg/core"
)

// DefaultCamera is the view shown before anything is loaded (Brasilia).
var DefaultCamera = core.Camera{
	Center: core.GeoPoint{Lat: -15.793889, Lng: -47.882778},
	Zoom:   5,
}

// ViewState holds the shared camera
type ViewState struct {
	mu     sync.RWMutex
	camera core.Camera
}

// NewViewState creates a ViewState at DefaultCamera
func NewViewState() *ViewState {
	return &ViewState{camera: DefaultCamera}
}

// Camera returns the current camera
func (v *ViewState) Camera() core.Camera {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.camera
}

// Pan records a user-driven camera change. It does not request a fly, so
// the map surface never snaps back to an earlier target.
func (v *ViewState) Pan(center core.GeoPoint, zoom float64) bool {
	if !center.Valid() {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.camera.Center = center
	v.camera.Zoom = zoom
	return true
}

// FlyTo requests a one-shot animated move to center/zoom.
func (v *ViewState) FlyTo(center core.GeoPoint, zoom float64) bool {
	if !center.Valid() {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.camera.Center = center
	v.camera.Zoom = zoom
	v.camera.FlySeq++
	return true
}
