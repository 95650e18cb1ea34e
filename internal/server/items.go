package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/OCAP2/geotime/internal/workspace"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// createItemRequest either drops a catalog marker (IconType + Position) or
// adds a fully described Item.
type createItemRequest struct {
	IconType      string         `json:"iconType"`
	Position      *core.GeoPoint `json:"position"`
	CustomIconURL string         `json:"customIconUrl"`
	Item          *core.MapItem  `json:"item"`
}

type imageRequest struct {
	URL string `json:"url"`
}

// optionalCursor parses the t query parameter. ok is false when absent.
func optionalCursor(r *http.Request) (t float64, ok bool, err error) {
	raw := r.URL.Query().Get("t")
	if raw == "" {
		return 0, false, nil
	}
	t, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: t: %v", errBadRequest, err)
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, false, fmt.Errorf("%w: t must be finite", errBadRequest)
	}
	return t, true, nil
}

func handleFrame(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok, err := optionalCursor(r)
		if err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if !ok {
			t = ws.Timeline().Cursor()
		}
		render.JSON(w, r, ws.Render(t))
	}
}

func handleListItems(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok, err := optionalCursor(r)
		if err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		items := ws.Items()
		if ok {
			items = ws.VisibleAt(t)
		}
		if items == nil {
			items = []core.MapItem{}
		}
		render.JSON(w, r, items)
	}
}

func handleCreateItem(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}

		var (
			item core.MapItem
			err  error
		)
		switch {
		case req.Item != nil:
			item, err = ws.AddItem(*req.Item)
		case req.Position != nil:
			item, err = ws.DropMarker(req.IconType, *req.Position, req.CustomIconURL)
		default:
			err = fmt.Errorf("%w: position or item required", errBadRequest)
		}
		if err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		respond(w, r, http.StatusCreated, item)
	}
}

func handleUpdateItem(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch core.ItemPatch
		if err := decode(r, &patch); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if patch.Position != nil && !patch.Position.Valid() || patch.Path != nil && !core.ValidPath(patch.Path) {
			render.Render(w, r, errResponse(fmt.Errorf("%w: coordinates", errBadRequest), ""))
			return
		}
		item, ok := ws.UpdateItem(chi.URLParam(r, "id"), patch)
		if !ok {
			render.Render(w, r, errResponse(errNotFound, ""))
			return
		}
		render.JSON(w, r, item)
	}
}

func handleDeleteItem(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ws.RemoveItem(chi.URLParam(r, "id")) {
			render.Render(w, r, errResponse(errNotFound, ""))
			return
		}
		render.NoContent(w, r)
	}
}

func handleMoveItem(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pos core.GeoPoint
		if err := decode(r, &pos); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if !pos.Valid() {
			render.Render(w, r, errResponse(fmt.Errorf("%w: coordinates", errBadRequest), ""))
			return
		}
		id := chi.URLParam(r, "id")
		moved := ws.MoveItem(id, pos)
		item, ok := ws.Item(id)
		if !ok {
			render.Render(w, r, errResponse(errNotFound, ""))
			return
		}
		render.JSON(w, r, map[string]any{"moved": moved, "item": item})
	}
}

func handleAddImage(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if req.URL == "" {
			render.Render(w, r, errResponse(fmt.Errorf("%w: url required", errBadRequest), ""))
			return
		}
		id := chi.URLParam(r, "id")
		if !ws.AddImage(id, req.URL) {
			render.Render(w, r, errResponse(errNotFound, ""))
			return
		}
		item, _ := ws.Item(id)
		respond(w, r, http.StatusCreated, item)
	}
}

func handleRemoveImage(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			render.Render(w, r, errResponse(fmt.Errorf("%w: index: %v", errBadRequest, err), ""))
			return
		}
		id := chi.URLParam(r, "id")
		if !ws.RemoveImage(id, index) {
			render.Render(w, r, errResponse(errNotFound, ""))
			return
		}
		item, _ := ws.Item(id)
		render.JSON(w, r, item)
	}
}

type startDrawingRequest struct {
	Kind core.ItemKind `json:"kind"`
}

type measureRequest struct {
	From core.GeoPoint `json:"from"`
	To   core.GeoPoint `json:"to"`
}

func handleDrawingState(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, ws.DrawingState())
	}
}

func handleStartDrawing(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startDrawingRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if err := ws.StartDrawing(req.Kind); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, ws.DrawingState())
	}
}

func handleAddDrawingPoint(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p core.GeoPoint
		if err := decode(r, &p); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if err := ws.AddDrawingPoint(p); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, ws.DrawingState())
	}
}

func handleUndoDrawingPoint(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws.UndoDrawingPoint()
		render.JSON(w, r, ws.DrawingState())
	}
}

func handleFinishDrawing(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := ws.FinishDrawing()
		if err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		respond(w, r, http.StatusCreated, item)
	}
}

func handleCancelDrawing(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws.CancelDrawing()
		render.NoContent(w, r)
	}
}

func handleMeasure(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req measureRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, map[string]float64{"meters": ws.Measure(req.From, req.To)})
	}
}
