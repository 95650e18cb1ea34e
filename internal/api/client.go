// Package api talks to the OpenStreetMap Nominatim geocoding service, used
// as the fallback when the AI collaborator cannot place a search query.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/OCAP2/geotime/pkg/core"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// UserAgent identifies geotime to Nominatim, which rejects anonymous clients.
const UserAgent = "GEOTIME_Tactical_App/1.0"

// ErrNoResults is returned when the search matched nothing usable.
var ErrNoResults = errors.New("no geocoding results")

// Place is one Nominatim search hit.
type Place struct {
	DisplayName string        `json:"displayName"`
	Point       core.GeoPoint `json:"point"`
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Client handles communication with a Nominatim server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new Nominatim client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Healthcheck checks if the Nominatim server is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := c.newRequest(ctx, "/status", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Search returns up to limit places matching query. Hits whose coordinates
// do not parse to finite numbers are skipped.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	if limit <= 0 {
		limit = 1
	}
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	req, err := c.newRequest(ctx, "/search", params)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		p := core.GeoPoint{Lat: lat, Lng: lng}
		if !p.Valid() {
			continue
		}
		places = append(places, Place{DisplayName: r.DisplayName, Point: p})
	}
	return places, nil
}

// Geocode returns the first search hit for query.
func (c *Client) Geocode(ctx context.Context, query string) (core.GeoPoint, error) {
	places, err := c.Search(ctx, query, 1)
	if err != nil {
		return core.GeoPoint{}, err
	}
	if len(places) == 0 {
		return core.GeoPoint{}, fmt.Errorf("%w: %q", ErrNoResults, query)
	}
	return places[0].Point, nil
}

func (c *Client) newRequest(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
