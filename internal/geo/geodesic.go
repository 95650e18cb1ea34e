// Package geo holds the spherical-earth projection used to derive map
// overlays, plus conversions into simplefeatures geometries.
package geo

import (
	"math"

	"github.com/OCAP2/geotime/pkg/core"
)

// EarthRadius is the mean Earth radius in meters used by all projections.
const EarthRadius = 6371e3

// ConeSegments is the angular resolution of a view cone arc.
const ConeSegments = 20

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// DestinationPoint returns the point reached by travelling distanceMeters from
// origin along the initial bearing (0 = north, clockwise). Non-finite input or
// output yields the {0,0} sentinel.
func DestinationPoint(origin core.GeoPoint, distanceMeters, bearingDegrees float64) core.GeoPoint {
	res, ok := project(origin, distanceMeters, bearingDegrees)
	if !ok {
		return core.GeoPoint{}
	}
	return res
}

// project is DestinationPoint with failure reported through ok instead of
// the sentinel, so callers never mistake {0,0} for a real vertex.
func project(origin core.GeoPoint, distanceMeters, bearingDegrees float64) (core.GeoPoint, bool) {
	if !finite(origin.Lat, origin.Lng, distanceMeters, bearingDegrees) {
		return core.GeoPoint{}, false
	}

	bearing := toRad(bearingDegrees)
	lat1 := toRad(origin.Lat)
	lon1 := toRad(origin.Lng)
	d := distanceMeters / EarthRadius
	if !finite(bearing, d) {
		return core.GeoPoint{}, false
	}

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(
		math.Sin(bearing)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	res := core.GeoPoint{Lat: toDeg(lat2), Lng: toDeg(lon2)}
	if !res.Valid() {
		return core.GeoPoint{}, false
	}
	return res, true
}

// ViewConePolygon builds a closed fan: center, 21 rays across
// [direction-spread/2, direction+spread/2], center. Rays that fail to project
// are dropped. An invalid center gives an empty polygon.
func ViewConePolygon(center core.GeoPoint, rangeMeters, directionDegrees, spreadDegrees float64) []core.GeoPoint {
	if !center.Valid() {
		return nil
	}

	points := make([]core.GeoPoint, 0, ConeSegments+3)
	points = append(points, center)

	start := directionDegrees - spreadDegrees/2
	end := directionDegrees + spreadDegrees/2
	for i := 0; i <= ConeSegments; i++ {
		bearing := start + (end-start)*float64(i)/ConeSegments
		pt, ok := project(center, rangeMeters, bearing)
		if !ok {
			continue
		}
		points = append(points, pt)
	}

	return append(points, center)
}

// TargetingEndpoint projects the far end of a targeting vector. ok is false
// when the projection failed.
func TargetingEndpoint(origin core.GeoPoint, rangeMeters, directionDegrees float64) (core.GeoPoint, bool) {
	return project(origin, rangeMeters, directionDegrees)
}
