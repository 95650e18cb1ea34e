package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/geotime/pkg/core"
)

// ParsePoint parses a "lat,lng" string into a GeoPoint.
func ParsePoint(coords string) (core.GeoPoint, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	p := core.GeoPoint{Lat: lat, Lng: lng}
	if !p.Valid() {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	return p, nil
}

// ParsePath parses a JSON array of [lat,lng] pairs into a vertex path.
// Input format: "[[lat1,lng1],[lat2,lng2],...]"
func ParsePath(input string) ([]core.GeoPoint, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse path JSON: %w", err)
	}

	if len(coords) < 2 {
		return nil, fmt.Errorf("path must have at least 2 points, got %d", len(coords))
	}

	path := make([]core.GeoPoint, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		path[i] = core.GeoPoint{Lat: coord[0], Lng: coord[1]}
	}

	return path, nil
}
