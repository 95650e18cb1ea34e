// Package gemini implements ai.Service on the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/OCAP2/geotime/internal/ai"
	"github.com/OCAP2/geotime/internal/util"
	"github.com/OCAP2/geotime/pkg/core"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// AllowedIcons are the marker subtypes the scenario generator may use.
var AllowedIcons = []string{
	"police", "army", "navy", "aircraft", "helicopter", "submarine", "protest",
	"station", "fire", "vehicle", "drone", "team", "journalist", "media", "target", "poi",
	"tanker", "base_attack", "antiair",
}

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the Gemini client.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is an ai.Service backed by Gemini.
type Client struct {
	models  generator
	model   string
	timeout time.Duration
}

var _ ai.Service = (*Client)(nil)

// New creates a Gemini client. An empty key yields ai.ErrMissingCredentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ai.ErrMissingCredentials
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return newWithGenerator(client.Models, cfg), nil
}

func newWithGenerator(g generator, cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{models: g, model: model, timeout: cfg.Timeout}
}

func (c *Client) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}

func jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
}

func decode(text string, out any) error {
	clean := util.StripCodeFence(text)
	if clean == "" {
		return fmt.Errorf("empty response")
	}
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// GenerateReport writes a SITREP from the visible items and the scenes.
func (c *Client) GenerateReport(ctx context.Context, items []core.MapItem, scenes []core.Scene) (string, error) {
	ri, rs := ai.ReportInput(items, scenes)
	itemsJSON, _ := json.MarshalIndent(ri, "", "  ")
	scenesJSON, _ := json.MarshalIndent(rs, "", "  ")

	prompt := fmt.Sprintf(`Act as a geospatial and tactical intelligence (GEOINT) specialist.
Analyse the following theatre-of-operations data and write a concise situation report (SITREP).

ASSETS ON THE MAP:
%s

RECORDED NARRATIVE SCENES:
%s

The report must contain:
1. Summary of the current situation.
2. Identification of potential threats.
3. Tactical recommendations.

Keep a professional military/police tone.`, itemsJSON, scenesJSON)

	text, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("generating report: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("generating report: empty response")
	}
	return text, nil
}

var pointSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"lat": {Type: genai.TypeNumber},
		"lng": {Type: genai.TypeNumber},
	},
	Required: []string{"lat", "lng"},
}

var scenarioSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"targetLocation": {
			Type:        genai.TypeObject,
			Description: "Geographic center of the action. If the order moved the location, put the new coordinates here.",
			Properties: map[string]*genai.Schema{
				"lat": {Type: genai.TypeNumber},
				"lng": {Type: genai.TypeNumber},
			},
			Required: []string{"lat", "lng"},
		},
		"items": {
			Type:        genai.TypeArray,
			Description: "Tactical markers placed AROUND the targetLocation.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"subType":     {Type: genai.TypeString},
					"lat":         {Type: genai.TypeNumber},
					"lng":         {Type: genai.TypeNumber},
					"name":        {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"color":       {Type: genai.TypeString},
				},
				Required: []string{"subType", "lat", "lng", "name"},
			},
		},
	},
	Required: []string{"targetLocation", "items"},
}

// GenerateScenario plots assets for a free-text command. The target stays at
// center unless the command names another place. An empty answer returns
// center with no items.
func (c *Client) GenerateScenario(ctx context.Context, command string, center core.GeoPoint) (ai.Scenario, error) {
	prompt := fmt.Sprintf(`You are a military tactical scenario generation engine.

INPUT:
- Current map center (TACTICAL AIM): Lat %v, Lng %v
- Command order: %q

STEP 1: IDENTIFY LOCATION
Check whether the order EXPLICITLY names a geographic place different from the current center.
- If it names a city or country, compute that place's coordinates as "targetLocation".
- Otherwise use EXACTLY the current center above as "targetLocation". Do not move elsewhere on your own.

STEP 2: GENERATE ASSETS
Generate the requested military/police assets. The lat/lng of EVERY item must be computed relative to targetLocation, spread realistically around it.
- Ships/submarines (sea): offset +/- 0.05 to 0.5 degrees.
- Urban: offset +/- 0.002 to 0.01 degrees.

ALLOWED ICON TYPES (subType): %s

Return JSON strictly following the schema.`, center.Lat, center.Lng, command, strings.Join(AllowedIcons, ", "))

	text, err := c.generate(ctx, prompt, jsonConfig(scenarioSchema))
	if err != nil {
		return ai.Scenario{}, fmt.Errorf("generating scenario: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return ai.Scenario{TargetLocation: center, Items: []ai.ScenarioItem{}}, nil
	}

	var sc ai.Scenario
	if err := decode(text, &sc); err != nil {
		return ai.Scenario{}, fmt.Errorf("generating scenario: %w", err)
	}
	return sc, nil
}

// Geocode resolves an address or landmark.
func (c *Client) Geocode(ctx context.Context, query string) (core.GeoPoint, error) {
	prompt := fmt.Sprintf(`Act as a high-precision geocoding system.
Identify the exact geographic coordinates (latitude and longitude) of the following address or landmark:
%q

For an intersection (e.g. "corner of X and Y") return the crossing point.
Return ONLY a JSON object: { "lat": number, "lng": number }.`, query)

	text, err := c.generate(ctx, prompt, jsonConfig(pointSchema))
	if err != nil {
		return core.GeoPoint{}, fmt.Errorf("geocoding %q: %w", query, err)
	}

	var p core.GeoPoint
	if err := decode(text, &p); err != nil {
		return core.GeoPoint{}, fmt.Errorf("geocoding %q: %w", query, err)
	}
	if !p.Valid() {
		return core.GeoPoint{}, fmt.Errorf("%w: %q", ai.ErrNotFound, query)
	}
	return p, nil
}

// FindPointsOfInterest suggests three plausible places matching query near
// center.
func (c *Client) FindPointsOfInterest(ctx context.Context, query string, center core.GeoPoint) ([]ai.PointOfInterest, error) {
	prompt := fmt.Sprintf(`The user is looking for %q near Lat: %v, Lng: %v.
Generate 3 fictitious but realistic coordinates near this location that could match the search, for a tactical system demo.
Return ONLY a JSON array: [{ "name": "...", "lat": ..., "lng": ..., "description": "..." }]`, query, center.Lat, center.Lng)

	text, err := c.generate(ctx, prompt, jsonConfig(nil))
	if err != nil {
		return nil, fmt.Errorf("finding points of interest: %w", err)
	}

	var pois []ai.PointOfInterest
	if err := decode(text, &pois); err != nil {
		return nil, fmt.Errorf("finding points of interest: %w", err)
	}
	return pois, nil
}
