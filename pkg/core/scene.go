// pkg/core/scene.go
package core

// Scene is a bookmark of camera position and timeline cursor.
type Scene struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Center      GeoPoint `json:"center"`
	Zoom        float64  `json:"zoom"`
	Timestamp   float64  `json:"timestamp"`
	// ActiveLayerIDs is recorded for reference only; restore does not apply it.
	ActiveLayerIDs []string `json:"activeLayerIds"`
}

// Camera is the map view: center and zoom level.
type Camera struct {
	Center GeoPoint `json:"center"`
	Zoom   float64  `json:"zoom"`
	// FlySeq increments on every one-shot fly request.
	FlySeq uint64 `json:"flySeq"`
}
