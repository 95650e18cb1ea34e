// pkg/core/item.go
package core

// ItemKind is the geometry kind of a map item.
type ItemKind string

const (
	KindMarker   ItemKind = "marker"
	KindPolygon  ItemKind = "polygon"
	KindPolyline ItemKind = "polyline"
	KindCircle   ItemKind = "circle" // reserved
)

// ViewCone is a field-of-view fan anchored at a marker.
type ViewCone struct {
	Enabled   bool    `json:"enabled"`
	Range     float64 `json:"range"`     // meters
	Direction float64 `json:"direction"` // azimuth, 0-360
	Spread    float64 `json:"spread"`    // fan width in degrees
}

// TargetingVector is a straight line of fire/sight from a marker.
type TargetingVector struct {
	Enabled   bool    `json:"enabled"`
	Range     float64 `json:"range"`     // meters
	Direction float64 `json:"direction"` // azimuth, 0-360
}

// MapItem is an annotatable entity on the tactical map.
// Field names match the saved plan file format.
type MapItem struct {
	ID          string     `json:"id"`
	Kind        ItemKind   `json:"type"`
	SubType     string     `json:"subType,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Position    GeoPoint   `json:"position"`
	Path        []GeoPoint `json:"path,omitempty"`
	Radius      float64    `json:"radius,omitempty"`
	RangeRadius float64    `json:"rangeRadius,omitempty"`

	ViewCone        *ViewCone        `json:"viewCone,omitempty"`
	TargetingVector *TargetingVector `json:"targetingVector,omitempty"`

	Color   string `json:"color"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`

	// Relative timeline window, 0-100
	StartTime float64  `json:"startTime"`
	EndTime   *float64 `json:"endTime,omitempty"`

	// Calendar dates are descriptive only
	DateStart string `json:"dateStart,omitempty"`
	DateEnd   string `json:"dateEnd,omitempty"`

	Images        []string `json:"images,omitempty"`
	CustomIconURL string   `json:"customIconUrl,omitempty"`
}

// HasPath reports whether the item carries a vertex path.
func (m MapItem) HasPath() bool {
	return m.Kind == KindPolygon || m.Kind == KindPolyline
}

// Valid reports whether every coordinate of the item is finite. A single bad
// vertex invalidates the whole item.
func (m MapItem) Valid() bool {
	if !m.Position.Valid() {
		return false
	}
	if m.HasPath() && !ValidPath(m.Path) {
		return false
	}
	return true
}

// ActiveAt reports whether the item's timeline window contains t.
// An end time of zero counts as unset.
func (m MapItem) ActiveAt(t float64) bool {
	if t < m.StartTime {
		return false
	}
	if m.EndTime != nil && *m.EndTime != 0 && t > *m.EndTime {
		return false
	}
	return true
}

// Clone returns a copy that shares no slices or pointers with m.
func (m MapItem) Clone() MapItem {
	c := m
	if m.Path != nil {
		c.Path = append([]GeoPoint(nil), m.Path...)
	}
	if m.Images != nil {
		c.Images = append([]string(nil), m.Images...)
	}
	if m.ViewCone != nil {
		vc := *m.ViewCone
		c.ViewCone = &vc
	}
	if m.TargetingVector != nil {
		tv := *m.TargetingVector
		c.TargetingVector = &tv
	}
	if m.EndTime != nil {
		end := *m.EndTime
		c.EndTime = &end
	}
	return c
}

// ItemPatch is a partial update. Nil fields are left untouched.
type ItemPatch struct {
	SubType         *string          `json:"subType,omitempty"`
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Position        *GeoPoint        `json:"position,omitempty"`
	Path            []GeoPoint       `json:"path,omitempty"`
	Radius          *float64         `json:"radius,omitempty"`
	RangeRadius     *float64         `json:"rangeRadius,omitempty"`
	ViewCone        *ViewCone        `json:"viewCone,omitempty"`
	TargetingVector *TargetingVector `json:"targetingVector,omitempty"`
	Color           *string          `json:"color,omitempty"`
	Visible         *bool            `json:"visible,omitempty"`
	Locked          *bool            `json:"locked,omitempty"`
	StartTime       *float64         `json:"startTime,omitempty"`
	EndTime         *float64         `json:"endTime,omitempty"`
	ClearEndTime    bool             `json:"clearEndTime,omitempty"`
	DateStart       *string          `json:"dateStart,omitempty"`
	DateEnd         *string          `json:"dateEnd,omitempty"`
	CustomIconURL   *string          `json:"customIconUrl,omitempty"`
}

// Apply merges the patch into item and returns the result.
func (p ItemPatch) Apply(item MapItem) MapItem {
	out := item.Clone()
	if p.SubType != nil {
		out.SubType = *p.SubType
	}
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Path != nil {
		out.Path = append([]GeoPoint(nil), p.Path...)
	}
	if p.Radius != nil {
		out.Radius = *p.Radius
	}
	if p.RangeRadius != nil {
		out.RangeRadius = *p.RangeRadius
	}
	if p.ViewCone != nil {
		vc := *p.ViewCone
		out.ViewCone = &vc
	}
	if p.TargetingVector != nil {
		tv := *p.TargetingVector
		out.TargetingVector = &tv
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.Visible != nil {
		out.Visible = *p.Visible
	}
	if p.Locked != nil {
		out.Locked = *p.Locked
	}
	if p.StartTime != nil {
		out.StartTime = *p.StartTime
	}
	if p.ClearEndTime {
		out.EndTime = nil
	} else if p.EndTime != nil {
		end := *p.EndTime
		out.EndTime = &end
	}
	if p.DateStart != nil {
		out.DateStart = *p.DateStart
	}
	if p.DateEnd != nil {
		out.DateEnd = *p.DateEnd
	}
	if p.CustomIconURL != nil {
		out.CustomIconURL = *p.CustomIconURL
	}
	return out
}
