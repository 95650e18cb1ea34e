package geo

import (
	"math"
	"testing"

	"github.com/OCAP2/geotime/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rio = core.GeoPoint{Lat: -22.9673, Lng: -43.1788}

func TestDestinationPoint_ZeroDistance(t *testing.T) {
	got := DestinationPoint(rio, 0, 137)

	if math.Abs(got.Lat-rio.Lat) > 1e-9 || math.Abs(got.Lng-rio.Lng) > 1e-9 {
		t.Errorf("expected %v, got %v", rio, got)
	}
}

func TestDestinationPoint_NorthOneKilometer(t *testing.T) {
	origin := core.GeoPoint{Lat: 0, Lng: 0}
	got := DestinationPoint(origin, 1000, 0)

	// 1000 / 6371000 rad in degrees
	assert.InDelta(t, 0.008993, got.Lat, 1e-6)
	assert.InDelta(t, 0, got.Lng, 1e-9)
}

func TestDestinationPoint_East(t *testing.T) {
	origin := core.GeoPoint{Lat: 0, Lng: 0}
	got := DestinationPoint(origin, 1000, 90)

	assert.InDelta(t, 0, got.Lat, 1e-9)
	assert.InDelta(t, 0.008993, got.Lng, 1e-6)
}

func TestDestinationPoint_RoundTripDistance(t *testing.T) {
	for _, bearing := range []float64{0, 45, 90, 180, 270, 359} {
		got := DestinationPoint(rio, 2500, bearing)
		assert.InDelta(t, 2500, Distance(rio, got), 0.01, "bearing %v", bearing)
		assert.InDelta(t, bearing, InitialBearing(rio, got), 1e-6, "bearing %v", bearing)
	}
}

func TestDestinationPoint_InvalidInputs(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	tests := []struct {
		name     string
		origin   core.GeoPoint
		distance float64
		bearing  float64
	}{
		{"nan lat", core.GeoPoint{Lat: nan, Lng: 0}, 100, 0},
		{"inf lng", core.GeoPoint{Lat: 0, Lng: inf}, 100, 0},
		{"nan distance", rio, nan, 0},
		{"inf distance", rio, inf, 0},
		{"nan bearing", rio, 100, nan},
		{"neg inf bearing", rio, 100, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DestinationPoint(tt.origin, tt.distance, tt.bearing)
			assert.Equal(t, core.GeoPoint{}, got)
		})
	}
}

func TestViewConePolygon_Shape(t *testing.T) {
	poly := ViewConePolygon(rio, 500, 90, 60)

	require.Len(t, poly, ConeSegments+3)
	assert.Equal(t, rio, poly[0])
	assert.Equal(t, rio, poly[len(poly)-1])
	for i, p := range poly[1 : len(poly)-1] {
		assert.InDelta(t, 500, Distance(rio, p), 0.01, "ray %d", i)
	}
	assert.InDelta(t, 60, InitialBearing(rio, poly[1]), 1e-6)
	assert.InDelta(t, 120, InitialBearing(rio, poly[len(poly)-2]), 1e-6)
}

func TestViewConePolygon_ZeroSpread(t *testing.T) {
	poly := ViewConePolygon(rio, 300, 10, 0)

	require.Len(t, poly, ConeSegments+3)
	for _, p := range poly[2 : len(poly)-1] {
		assert.Equal(t, poly[1], p)
	}
}

func TestViewConePolygon_InvalidCenter(t *testing.T) {
	poly := ViewConePolygon(core.GeoPoint{Lat: math.NaN(), Lng: 0}, 100, 0, 90)
	assert.Empty(t, poly)
}

func TestViewConePolygon_DropsBadRays(t *testing.T) {
	poly := ViewConePolygon(rio, math.NaN(), 0, 90)

	// only the center bookends survive
	require.Len(t, poly, 2)
	assert.Equal(t, rio, poly[0])
	assert.Equal(t, rio, poly[1])
}

func TestTargetingEndpoint(t *testing.T) {
	end, ok := TargetingEndpoint(rio, 1000, 45)
	require.True(t, ok)
	assert.InDelta(t, 1000, Distance(rio, end), 0.01)

	_, ok = TargetingEndpoint(rio, math.Inf(1), 45)
	assert.False(t, ok)
}

func TestOverflowingBearingNeverYieldsSentinel(t *testing.T) {
	poly := ViewConePolygon(rio, 1000, 1e308, 10)
	require.Len(t, poly, 2)
	assert.Equal(t, []core.GeoPoint{rio, rio}, poly)

	end, ok := TargetingEndpoint(rio, 1000, 1e308)
	assert.False(t, ok)
	assert.Equal(t, core.GeoPoint{}, end)

	assert.Equal(t, core.GeoPoint{}, DestinationPoint(rio, 1000, -1e308))
}
