package ai

import "github.com/OCAP2/geotime/pkg/core"

// FiniteItems drops scenario items whose coordinates are not finite.
func FiniteItems(items []ScenarioItem) []ScenarioItem {
	out := make([]ScenarioItem, 0, len(items))
	for _, it := range items {
		if it.Point().Valid() {
			out = append(out, it)
		}
	}
	return out
}

// FinitePOIs drops suggestions whose coordinates are not finite.
func FinitePOIs(pois []PointOfInterest) []PointOfInterest {
	out := make([]PointOfInterest, 0, len(pois))
	for _, p := range pois {
		if p.Point().Valid() {
			out = append(out, p)
		}
	}
	return out
}

// ReportItem is the view of a map item sent to the report generator.
type ReportItem struct {
	Name        string        `json:"name"`
	Type        core.ItemKind `json:"type"`
	SubType     string        `json:"subType,omitempty"`
	Position    core.GeoPoint `json:"position"`
	Description string        `json:"description,omitempty"`
}

// ReportScene is the view of a scene sent to the report generator.
type ReportScene struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// ReportInput summarises visible items and scenes for a SITREP.
func ReportInput(items []core.MapItem, scenes []core.Scene) ([]ReportItem, []ReportScene) {
	ri := make([]ReportItem, 0, len(items))
	for _, it := range items {
		if !it.Visible {
			continue
		}
		ri = append(ri, ReportItem{
			Name:        it.Name,
			Type:        it.Kind,
			SubType:     it.SubType,
			Position:    it.Position,
			Description: it.Description,
		})
	}
	rs := make([]ReportScene, len(scenes))
	for i, s := range scenes {
		rs[i] = ReportScene{Title: s.Title, Desc: s.Description}
	}
	return ri, rs
}
