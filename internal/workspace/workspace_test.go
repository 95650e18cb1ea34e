package workspace

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/OCAP2/geotime/internal/catalog"
	"github.com/OCAP2/geotime/internal/config"
	"github.com/OCAP2/geotime/internal/geo"
	"github.com/OCAP2/geotime/internal/storage/memory"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/OCAP2/geotime/pkg/streaming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T, deps Dependencies) *Workspace {
	t.Helper()
	if deps.Catalog == nil {
		cat, err := catalog.Load()
		require.NoError(t, err)
		deps.Catalog = cat
	}
	w, err := New(deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func newMemoryBackend(t *testing.T, compress bool) *memory.Backend {
	t.Helper()
	b := memory.New(config.MemoryConfig{OutputDir: t.TempDir(), CompressOutput: compress})
	require.NoError(t, b.Init())
	return b
}

var rio = core.GeoPoint{Lat: -22.9673, Lng: -43.1788}

func TestNew_RequiresCatalog(t *testing.T) {
	_, err := New(Dependencies{})
	assert.Error(t, err)
}

func TestNew_InitialState(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	assert.Empty(t, w.Items())
	assert.Empty(t, w.Scenes())
	assert.Equal(t, 0.0, w.Timeline().Cursor())
	assert.Equal(t, w.Catalog().Default(), w.Chart().Tree())
	assert.Equal(t, 0, w.Plan().Completion())
	assert.NotEmpty(t, w.Plan().Sections())
}

// An item with startTime=10 and endTime=20 is hidden at 5, shown at 15 and
// hidden again at 25.
func TestTimeWindow_EndToEnd(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})

	w.Timeline().SetCursor(10)
	a, err := w.DropMarker("police", rio, "")
	require.NoError(t, err)
	end := 20.0
	_, ok := w.UpdateItem(a.ID, core.ItemPatch{EndTime: &end})
	require.True(t, ok)

	ids := func(t float64) []string {
		var out []string
		for _, item := range w.VisibleAt(t) {
			out = append(out, item.ID)
		}
		return out
	}
	assert.NotContains(t, ids(5), a.ID)
	assert.Contains(t, ids(15), a.ID)
	assert.NotContains(t, ids(25), a.ID)

	assert.Len(t, w.Render(15).Items, 1)
	assert.Empty(t, w.Render(25).Items)
}

func TestDropMarker(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	w.Timeline().SetCursor(42)

	first, err := w.DropMarker("police", rio, "")
	require.NoError(t, err)
	assert.Equal(t, "Police 1", first.Name)
	assert.Equal(t, "#3b82f6", first.Color)
	assert.Equal(t, core.KindMarker, first.Kind)
	assert.Equal(t, 42.0, first.StartTime)
	assert.True(t, first.Visible)
	assert.Nil(t, first.EndTime)

	second, err := w.DropMarker("not-an-icon", rio, "https://icons/x.png")
	require.NoError(t, err)
	assert.Equal(t, "Item 2", second.Name)
	assert.Equal(t, "#fff", second.Color)
	assert.Equal(t, "https://icons/x.png", second.CustomIconURL)

	_, err = w.DropMarker("police", core.GeoPoint{Lat: math.NaN()}, "")
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
	assert.Len(t, w.Items(), 2)
}

func TestAddItem(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})

	item, err := w.AddItem(core.MapItem{Kind: core.KindMarker, Position: rio, Visible: true})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)

	_, err = w.AddItem(core.MapItem{Kind: core.KindPolyline, Position: rio, Path: []core.GeoPoint{{Lat: math.Inf(1)}}})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
	assert.Len(t, w.Items(), 1)
}

func TestItemEdits_UnknownIDsAreNoops(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	item, err := w.DropMarker("army", rio, "")
	require.NoError(t, err)

	name := "x"
	_, ok := w.UpdateItem("missing", core.ItemPatch{Name: &name})
	assert.False(t, ok)
	assert.False(t, w.RemoveItem("missing"))
	assert.False(t, w.MoveItem("missing", rio))
	assert.False(t, w.AddImage("missing", "u"))

	got, _ := w.Item(item.ID)
	assert.Equal(t, item, got)
}

func TestMoveItem_Locked(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	item, err := w.DropMarker("army", rio, "")
	require.NoError(t, err)

	dest := core.GeoPoint{Lat: -22.9, Lng: -43.2}
	assert.True(t, w.MoveItem(item.ID, dest))

	locked := true
	w.UpdateItem(item.ID, core.ItemPatch{Locked: &locked})
	assert.False(t, w.MoveItem(item.ID, rio))

	got, _ := w.Item(item.ID)
	assert.Equal(t, dest, got.Position)
}

func TestImages(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	item, err := w.DropMarker("army", rio, "")
	require.NoError(t, err)

	assert.True(t, w.AddImage(item.ID, "a"))
	assert.True(t, w.AddImage(item.ID, "b"))
	assert.True(t, w.RemoveImage(item.ID, 0))
	assert.False(t, w.RemoveImage(item.ID, 5))

	got, _ := w.Item(item.ID)
	assert.Equal(t, []string{"b"}, got.Images)
}

func TestDrawing_Polygon(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	_, err := w.DropMarker("army", rio, "")
	require.NoError(t, err)
	w.Timeline().SetCursor(7)

	require.NoError(t, w.StartDrawing(core.KindPolygon))
	require.NoError(t, w.AddDrawingPoint(core.GeoPoint{Lat: 1, Lng: 1}))

	_, err = w.FinishDrawing()
	assert.ErrorIs(t, err, ErrTooFewPoints)
	assert.True(t, w.DrawingState().Active, "a failed finish keeps drawing mode")

	require.NoError(t, w.AddDrawingPoint(core.GeoPoint{Lat: 2, Lng: 2}))
	require.NoError(t, w.AddDrawingPoint(core.GeoPoint{Lat: 3, Lng: 1}))
	assert.Len(t, w.DrawingState().Path, 3)

	item, err := w.FinishDrawing()
	require.NoError(t, err)
	assert.Equal(t, "Area 2", item.Name)
	assert.Equal(t, AreaColor, item.Color)
	assert.Equal(t, core.KindPolygon, item.Kind)
	assert.Equal(t, core.GeoPoint{Lat: 1, Lng: 1}, item.Position)
	assert.Len(t, item.Path, 3)
	assert.Equal(t, 7.0, item.StartTime)

	state := w.DrawingState()
	assert.False(t, state.Active)
	assert.Empty(t, state.Path)
}

func TestDrawing_RouteUndoAndCancel(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})

	assert.ErrorIs(t, w.AddDrawingPoint(rio), ErrNotDrawing)
	_, err := w.FinishDrawing()
	assert.ErrorIs(t, err, ErrNotDrawing)
	assert.ErrorIs(t, w.StartDrawing(core.KindMarker), ErrDrawingKind)

	require.NoError(t, w.StartDrawing(core.KindPolyline))
	require.NoError(t, w.AddDrawingPoint(core.GeoPoint{Lat: 1, Lng: 1}))
	require.NoError(t, w.AddDrawingPoint(core.GeoPoint{Lat: 2, Lng: 2}))
	assert.ErrorIs(t, w.AddDrawingPoint(core.GeoPoint{Lat: math.NaN()}), geo.ErrInvalidCoordinates)
	assert.True(t, w.UndoDrawingPoint())
	require.NoError(t, w.AddDrawingPoint(core.GeoPoint{Lat: 5, Lng: 5}))

	item, err := w.FinishDrawing()
	require.NoError(t, err)
	assert.Equal(t, "Route 1", item.Name)
	assert.Equal(t, RouteColor, item.Color)
	assert.Equal(t, []core.GeoPoint{{Lat: 1, Lng: 1}, {Lat: 5, Lng: 5}}, item.Path)

	require.NoError(t, w.StartDrawing(core.KindPolyline))
	require.NoError(t, w.AddDrawingPoint(rio))
	w.CancelDrawing()
	assert.False(t, w.DrawingState().Active)
	assert.Len(t, w.Items(), 1)
}

func TestMeasure(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	d := w.Measure(core.GeoPoint{Lat: 0, Lng: 0}, core.GeoPoint{Lat: 1, Lng: 0})
	assert.InDelta(t, 111195, d, 1)
	assert.Zero(t, w.Measure(rio, core.GeoPoint{Lat: math.NaN()}))
}

func TestScenes_CaptureRestore(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	item, err := w.DropMarker("army", rio, "")
	require.NoError(t, err)
	require.True(t, w.Pan(rio, 15))
	w.Timeline().SetCursor(33.7)

	sc := w.CaptureScene()
	assert.Equal(t, "Scene 1", sc.Title)
	assert.Equal(t, "Tactical record at T-33", sc.Description)
	assert.Equal(t, []string{item.ID}, sc.ActiveLayerIDs)

	require.True(t, w.Pan(core.GeoPoint{Lat: 10, Lng: 10}, 3))
	w.Timeline().SetCursor(90)
	flySeq := w.Camera().FlySeq

	assert.True(t, w.RestoreScene(sc.ID))
	assert.Equal(t, rio, w.Camera().Center)
	assert.Equal(t, 15.0, w.Camera().Zoom)
	assert.Equal(t, flySeq+1, w.Camera().FlySeq)
	assert.InDelta(t, 33.7, w.Timeline().Cursor(), 1e-9)

	assert.False(t, w.RestoreScene("missing"))
}

func TestRun_PushesFrames(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	_, err := w.DropMarker("army", rio, "")
	require.NoError(t, err)
	w.Timeline().Play()

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan streaming.FrameMessage, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, time.Millisecond, func(f streaming.FrameMessage) {
			select {
			case frames <- f:
			default:
			}
		})
	}()

	select {
	case f := <-frames:
		assert.Equal(t, streaming.TypeFrame, f.Type)
		assert.Equal(t, "playing", f.Status)
		assert.Greater(t, f.Frame.Cursor, 0.0)
		assert.Len(t, f.Frame.Items, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestClose_PausesTimeline(t *testing.T) {
	w := newTestWorkspace(t, Dependencies{})
	w.Timeline().Play()
	require.NoError(t, w.StartDrawing(core.KindPolygon))

	require.NoError(t, w.Close())
	assert.True(t, w.Closed())
	assert.Equal(t, "paused", string(w.Timeline().Status()))
	assert.False(t, w.DrawingState().Active)
	assert.NoError(t, w.Close(), "second close is a no-op")
}
