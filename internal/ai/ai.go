// Package ai defines the contract with the AI collaborator that writes
// situation reports, plots scenarios and geocodes free text. Everything it
// returns is treated as untrusted: coordinates are finite-checked before the
// workspace uses them.
package ai

import (
	"context"
	"errors"

	"github.com/OCAP2/geotime/pkg/core"
)

var (
	// ErrMissingCredentials is returned when no API key is configured.
	ErrMissingCredentials = errors.New("AI API key not configured; set GEMINI_API_KEY in .env")
	// ErrNotFound is returned when a lookup produced no usable answer.
	ErrNotFound = errors.New("location not found")
)

// ScenarioItem is one asset plotted by the collaborator.
type ScenarioItem struct {
	SubType     string  `json:"subType"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Color       string  `json:"color,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// Point returns the item position
func (s ScenarioItem) Point() core.GeoPoint {
	return core.GeoPoint{Lat: s.Lat, Lng: s.Lng}
}

// Scenario is an auto-plotted set of assets around a target location.
type Scenario struct {
	TargetLocation core.GeoPoint  `json:"targetLocation"`
	Items          []ScenarioItem `json:"items"`
}

// PointOfInterest is a suggested place near the map center.
type PointOfInterest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// Point returns the POI position
func (p PointOfInterest) Point() core.GeoPoint {
	return core.GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

// Geocoder resolves free text to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (core.GeoPoint, error)
}

// Service is the AI collaborator.
type Service interface {
	Geocoder
	GenerateReport(ctx context.Context, items []core.MapItem, scenes []core.Scene) (string, error)
	GenerateScenario(ctx context.Context, command string, center core.GeoPoint) (Scenario, error)
	FindPointsOfInterest(ctx context.Context, query string, center core.GeoPoint) ([]PointOfInterest, error)
}

// Disabled is the Service used when no credentials are available. Every
// call fails with ErrMissingCredentials.
type Disabled struct{}

func (Disabled) GenerateReport(context.Context, []core.MapItem, []core.Scene) (string, error) {
	return "", ErrMissingCredentials
}

func (Disabled) GenerateScenario(context.Context, string, core.GeoPoint) (Scenario, error) {
	return Scenario{}, ErrMissingCredentials
}

func (Disabled) Geocode(context.Context, string) (core.GeoPoint, error) {
	return core.GeoPoint{}, ErrMissingCredentials
}

func (Disabled) FindPointsOfInterest(context.Context, string, core.GeoPoint) ([]PointOfInterest, error) {
	return nil, ErrMissingCredentials
}
