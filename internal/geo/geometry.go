package geo

import (
	"errors"
	"fmt"

	"github.com/OCAP2/geotime/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ToMercator projects a WGS84 point to EPSG:3857 meters (x = easting, y = northing).
func ToMercator(p core.GeoPoint) (x, y float64, err error) {
	if !p.Valid() {
		return 0, 0, ErrInvalidCoordinates
	}
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(p.Lng, p.Lat, 0)
	if !finite(x, y) {
		return 0, 0, ErrInvalidCoordinates
	}
	return x, y, nil
}

// PointGeometry converts p into a geom.Point with X = longitude, Y = latitude.
func PointGeometry(p core.GeoPoint) (geom.Point, error) {
	if !p.Valid() {
		return geom.NewEmptyPoint(geom.DimXY), ErrInvalidCoordinates
	}
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.Lng, Y: p.Lat},
		Type: geom.DimXY,
	})
}

// PathGeometry converts a vertex path into a geom.LineString.
func PathGeometry(path []core.GeoPoint) (geom.LineString, error) {
	if len(path) < 2 {
		return geom.LineString{}, fmt.Errorf("path must have at least 2 points, got %d", len(path))
	}
	if !core.ValidPath(path) {
		return geom.LineString{}, ErrInvalidCoordinates
	}
	return geom.NewLineString(geom.NewSequence(flatten(path), geom.DimXY))
}

// AreaGeometry converts a polygon path into a geom.Polygon, closing the ring
// when the last vertex differs from the first.
func AreaGeometry(path []core.GeoPoint) (geom.Polygon, error) {
	if len(path) < 3 {
		return geom.Polygon{}, fmt.Errorf("polygon must have at least 3 points, got %d", len(path))
	}
	if !core.ValidPath(path) {
		return geom.Polygon{}, ErrInvalidCoordinates
	}
	ring := path
	if path[0] != path[len(path)-1] {
		ring = append(append([]core.GeoPoint(nil), path...), path[0])
	}
	ls, err := geom.NewLineString(geom.NewSequence(flatten(ring), geom.DimXY))
	if err != nil {
		return geom.Polygon{}, err
	}
	return geom.NewPolygon([]geom.LineString{ls})
}

// ConeGeometry builds the view cone of an item as a polygon.
func ConeGeometry(center core.GeoPoint, cone core.ViewCone) (geom.Polygon, error) {
	path := ViewConePolygon(center, cone.Range, cone.Direction, cone.Spread)
	if len(path) == 0 {
		return geom.Polygon{}, ErrInvalidCoordinates
	}
	return AreaGeometry(path)
}

// ItemGeometry returns the natural geometry for an item: a point for markers,
// a line string for routes and a polygon for areas.
func ItemGeometry(item core.MapItem) (geom.Geometry, error) {
	switch item.Kind {
	case core.KindPolyline:
		ls, err := PathGeometry(item.Path)
		if err != nil {
			return geom.Geometry{}, err
		}
		return ls.AsGeometry(), nil
	case core.KindPolygon:
		poly, err := AreaGeometry(item.Path)
		if err != nil {
			return geom.Geometry{}, err
		}
		return poly.AsGeometry(), nil
	default:
		pt, err := PointGeometry(item.Position)
		if err != nil {
			return geom.Geometry{}, err
		}
		return pt.AsGeometry(), nil
	}
}

func flatten(path []core.GeoPoint) []float64 {
	flat := make([]float64, 0, len(path)*2)
	for _, p := range path {
		flat = append(flat, p.Lng, p.Lat)
	}
	return flat
}
