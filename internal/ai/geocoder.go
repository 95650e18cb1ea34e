package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/geotime/internal/cache"
	"github.com/OCAP2/geotime/pkg/core"
)

// FallbackGeocoder asks Primary first and Fallback when Primary errors or
// returns a non-finite point.
type FallbackGeocoder struct {
	Primary  Geocoder
	Fallback Geocoder
	Logger   *slog.Logger
}

// Geocode implements Geocoder.
func (g FallbackGeocoder) Geocode(ctx context.Context, query string) (core.GeoPoint, error) {
	var primaryErr error
	if g.Primary != nil {
		p, err := g.Primary.Geocode(ctx, query)
		if err == nil && p.Valid() {
			return p, nil
		}
		primaryErr = err
		if primaryErr == nil {
			primaryErr = ErrNotFound
		}
		if g.Logger != nil {
			g.Logger.Warn("AI geocoding failed, trying fallback", "query", query, "error", primaryErr)
		}
	}
	if g.Fallback == nil {
		return core.GeoPoint{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	p, err := g.Fallback.Geocode(ctx, query)
	if err != nil {
		return core.GeoPoint{}, fmt.Errorf("%w: %q: %w", ErrNotFound, query, errors.Join(primaryErr, err))
	}
	if !p.Valid() {
		return core.GeoPoint{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return p, nil
}

// CachedGeocoder memoises successful lookups of the wrapped Geocoder.
type CachedGeocoder struct {
	Geocoder Geocoder
	Cache    *cache.GeoCache
}

// Geocode implements Geocoder.
func (g CachedGeocoder) Geocode(ctx context.Context, query string) (core.GeoPoint, error) {
	if p, ok := g.Cache.Get(query); ok {
		return p, nil
	}
	p, err := g.Geocoder.Geocode(ctx, query)
	if err != nil {
		return core.GeoPoint{}, err
	}
	g.Cache.Set(query, p)
	return p, nil
}
