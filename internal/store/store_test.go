package store

import (
	"math"
	"testing"

	"github.com/OCAP2/geotime/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = core.GeoPoint{Lat: -22.9673, Lng: -43.1788}

func ptr(f float64) *float64 { return &f }

func marker(id string) core.MapItem {
	return core.MapItem{
		ID:       id,
		Kind:     core.KindMarker,
		Name:     id,
		Position: base,
		Color:    "#fff",
		Visible:  true,
	}
}

func ids(items []core.MapItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestAddGetAll(t *testing.T) {
	s := New()
	s.Add(marker("a"))
	s.Add(marker("b"))

	assert.Equal(t, 2, s.Len())
	got, ok := s.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", got.Name)
	assert.Equal(t, []string{"a", "b"}, ids(s.All()))

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestAll_ReturnsCopies(t *testing.T) {
	s := New()
	item := marker("a")
	item.Images = []string{"one"}
	s.Add(item)

	all := s.All()
	all[0].Images[0] = "changed"
	all[0].Name = "changed"

	got, _ := s.Get("a")
	assert.Equal(t, "one", got.Images[0])
	assert.Equal(t, "a", got.Name)
}

func TestUpdate(t *testing.T) {
	s := New()
	s.Add(marker("a"))

	name := "Sniper 1"
	ok := s.Update("a", core.ItemPatch{Name: &name, EndTime: ptr(40)})
	require.True(t, ok)

	got, _ := s.Get("a")
	assert.Equal(t, "Sniper 1", got.Name)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, 40.0, *got.EndTime)

	assert.True(t, s.Update("a", core.ItemPatch{ClearEndTime: true}))
	got, _ = s.Get("a")
	assert.Nil(t, got.EndTime)
}

func TestUpdateRemove_UnknownIDIsNoop(t *testing.T) {
	s := New()
	s.Add(marker("a"))

	name := "x"
	assert.False(t, s.Update("nope", core.ItemPatch{Name: &name}))
	assert.False(t, s.Remove("nope"))
	assert.Equal(t, 1, s.Len())
}

func TestRemove_KeepsOrder(t *testing.T) {
	s := New()
	for _, id := range []string{"a", "b", "c"} {
		s.Add(marker(id))
	}

	require.True(t, s.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, ids(s.All()))
}

func TestMove(t *testing.T) {
	s := New()
	s.Add(marker("a"))
	locked := marker("l")
	locked.Locked = true
	s.Add(locked)

	dest := core.GeoPoint{Lat: -22.95, Lng: -43.2}
	assert.True(t, s.Move("a", dest))
	got, _ := s.Get("a")
	assert.Equal(t, dest, got.Position)

	assert.False(t, s.Move("l", dest))
	got, _ = s.Get("l")
	assert.Equal(t, base, got.Position)

	assert.False(t, s.Move("a", core.GeoPoint{Lat: math.NaN()}))
	assert.False(t, s.Move("missing", dest))
}

func TestImages(t *testing.T) {
	s := New()
	s.Add(marker("a"))

	assert.True(t, s.AddImage("a", "one"))
	assert.True(t, s.AddImage("a", "two"))
	assert.True(t, s.AddImage("a", "three"))
	assert.True(t, s.RemoveImage("a", 1))
	assert.False(t, s.RemoveImage("a", 5))
	assert.False(t, s.AddImage("missing", "x"))

	got, _ := s.Get("a")
	assert.Equal(t, []string{"one", "three"}, got.Images)
}

func TestReplace(t *testing.T) {
	s := New()
	s.Add(marker("a"))
	s.Replace([]core.MapItem{marker("x"), marker("y")})
	assert.Equal(t, []string{"x", "y"}, ids(s.All()))

	s.Replace([]core.MapItem{})
	assert.Equal(t, 0, s.Len())
}

func TestVisibleIDs(t *testing.T) {
	s := New()
	hidden := marker("h")
	hidden.Visible = false
	future := marker("f")
	future.StartTime = 90

	s.Add(marker("a"))
	s.Add(hidden)
	s.Add(future)

	assert.Equal(t, []string{"a", "f"}, ids(s.VisibleAt(95)))
	assert.Equal(t, []string{"a", "f"}, s.VisibleIDs())
}

func TestVisibleAt_EachExclusionIndependently(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.MapItem)
		cursor  float64
		visible bool
	}{
		{"baseline", func(*core.MapItem) {}, 50, true},
		{"visible flag off", func(m *core.MapItem) { m.Visible = false }, 50, false},
		{"before start", func(m *core.MapItem) { m.StartTime = 60 }, 50, false},
		{"at start", func(m *core.MapItem) { m.StartTime = 50 }, 50, true},
		{"after end", func(m *core.MapItem) { m.EndTime = ptr(40) }, 50, false},
		{"at end", func(m *core.MapItem) { m.EndTime = ptr(50) }, 50, true},
		{"zero end is unset", func(m *core.MapItem) { m.EndTime = ptr(0) }, 50, true},
		{"nan position", func(m *core.MapItem) { m.Position.Lat = math.NaN() }, 50, false},
		{"inf position", func(m *core.MapItem) { m.Position.Lng = math.Inf(-1) }, 50, false},
		{"bad path vertex", func(m *core.MapItem) {
			m.Kind = core.KindPolyline
			m.Path = []core.GeoPoint{base, {Lat: math.NaN(), Lng: 1}}
		}, 50, false},
		{"good path", func(m *core.MapItem) {
			m.Kind = core.KindPolygon
			m.Path = []core.GeoPoint{base, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 0}}
		}, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := marker("a")
			tt.mutate(&item)
			s := New()
			s.Add(item)

			got := s.VisibleAt(tt.cursor)
			if tt.visible {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestVisibleAt_TimeWindowScenario(t *testing.T) {
	s := New()
	a := marker("A")
	a.StartTime = 10
	a.EndTime = ptr(20)
	s.Add(a)

	assert.Empty(t, s.VisibleAt(5))
	assert.Equal(t, []string{"A"}, ids(s.VisibleAt(15)))
	assert.Empty(t, s.VisibleAt(25))
}

func TestVisibleAt_InsertionOrder(t *testing.T) {
	s := New()
	for _, id := range []string{"c", "a", "b"} {
		s.Add(marker(id))
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids(s.VisibleAt(0)))
}

func TestRender_Overlays(t *testing.T) {
	s := New()

	m := marker("m")
	m.RangeRadius = 250
	m.ViewCone = &core.ViewCone{Enabled: true, Range: 300, Direction: 45, Spread: 60}
	m.TargetingVector = &core.TargetingVector{Enabled: true, Range: 800, Direction: 90}
	s.Add(m)

	disabled := marker("d")
	disabled.ViewCone = &core.ViewCone{Enabled: false, Range: 300, Spread: 60}
	disabled.TargetingVector = &core.TargetingVector{Enabled: true, Range: 0}
	s.Add(disabled)

	area := core.MapItem{
		ID: "z", Kind: core.KindPolygon, Visible: true, RangeRadius: 100,
		Position: base, Path: []core.GeoPoint{base, {Lat: -22.96, Lng: -43.17}, {Lat: -22.97, Lng: -43.16}},
	}
	s.Add(area)

	frame := s.Render(50)

	assert.Equal(t, 50.0, frame.Cursor)
	assert.Equal(t, "12:00", frame.Clock)
	assert.Len(t, frame.Items, 3)
	require.Len(t, frame.Overlays, 3)

	assert.Equal(t, core.OverlayRing, frame.Overlays[0].Kind)
	assert.Equal(t, 250.0, frame.Overlays[0].Radius)
	assert.Equal(t, core.OverlayCone, frame.Overlays[1].Kind)
	assert.Len(t, frame.Overlays[1].Path, 23)
	assert.Equal(t, core.OverlayVector, frame.Overlays[2].Kind)
	assert.Len(t, frame.Overlays[2].Path, 2)
	for _, o := range frame.Overlays {
		assert.Equal(t, "m", o.ItemID)
	}
}

func TestRender_HiddenMarkerHasNoOverlays(t *testing.T) {
	s := New()
	m := marker("m")
	m.RangeRadius = 100
	m.EndTime = ptr(10)
	s.Add(m)

	frame := s.Render(50)
	assert.Empty(t, frame.Items)
	assert.Empty(t, frame.Overlays)
}

func TestRender_DerivedOnRead(t *testing.T) {
	s := New()
	m := marker("m")
	m.RangeRadius = 100
	s.Add(m)

	r := 900.0
	s.Update("m", core.ItemPatch{RangeRadius: &r})

	frame := s.Render(0)
	require.Len(t, frame.Overlays, 1)
	assert.Equal(t, 900.0, frame.Overlays[0].Radius)
}

func TestRender_OverflowingDirectionDrawsNoSentinel(t *testing.T) {
	s := New()
	m := marker("m")
	m.ViewCone = &core.ViewCone{Enabled: true, Range: 300, Direction: 1e308, Spread: 10}
	m.TargetingVector = &core.TargetingVector{Enabled: true, Range: 800, Direction: 1e308}
	s.Add(m)

	frame := s.Render(0)
	require.Len(t, frame.Overlays, 1)
	cone := frame.Overlays[0]
	assert.Equal(t, core.OverlayCone, cone.Kind)
	for _, p := range cone.Path {
		assert.NotEqual(t, core.GeoPoint{}, p)
	}
	assert.Equal(t, []core.GeoPoint{base, base}, cone.Path)
}
