// pkg/core/geo.go
package core

import "math"

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite numbers.
func (p GeoPoint) Valid() bool {
	return isFinite(p.Lat) && isFinite(p.Lng)
}

// IsZero reports whether p is the {0,0} sentinel used for failed projections.
func (p GeoPoint) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// ValidPath reports whether every point of path is finite.
func ValidPath(path []GeoPoint) bool {
	for _, p := range path {
		if !p.Valid() {
			return false
		}
	}
	return true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
