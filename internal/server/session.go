package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/OCAP2/geotime/internal/plan"
	"github.com/OCAP2/geotime/internal/workspace"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/OCAP2/geotime/pkg/streaming"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func handleListScenes(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scenes := ws.Scenes()
		if scenes == nil {
			scenes = []core.Scene{}
		}
		render.JSON(w, r, scenes)
	}
}

func handleCaptureScene(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusCreated, ws.CaptureScene())
	}
}

func handleRestoreScene(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ws.RestoreScene(chi.URLParam(r, "id")) {
			render.Render(w, r, errResponse(errNotFound, ""))
			return
		}
		render.JSON(w, r, ws.Frame())
	}
}

func handleTimeline(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, ws.Timeline().State())
	}
}

func handlePlay(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws.Timeline().Play()
		render.JSON(w, r, ws.Timeline().State())
	}
}

func handlePause(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws.Timeline().Pause()
		render.JSON(w, r, ws.Timeline().State())
	}
}

func handleSetCursor(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req streaming.CursorPayload
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		ws.Timeline().SetCursor(req.Cursor)
		render.JSON(w, r, ws.Timeline().State())
	}
}

func handleSetSpeed(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req streaming.SpeedPayload
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if err := ws.Timeline().SetSpeed(req.Speed); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, ws.Timeline().State())
	}
}

func handleCamera(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, ws.Camera())
	}
}

func handlePan(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req streaming.CameraPayload
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if !ws.Pan(req.Center, req.Zoom) {
			render.Render(w, r, errResponse(fmt.Errorf("%w: coordinates", errBadRequest), ""))
			return
		}
		render.JSON(w, r, ws.Camera())
	}
}

func handleHierarchy(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, ws.Chart().Tree())
	}
}

func handleAddNode(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusCreated, ws.Chart().AddChild(chi.URLParam(r, "id")))
	}
}

func handleUpdateNode(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch core.NodePatch
		if err := decode(r, &patch); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, ws.Chart().Update(chi.URLParam(r, "id"), patch))
	}
}

func handleRemoveNode(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, err := ws.Chart().Remove(chi.URLParam(r, "id"))
		if err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, tree)
	}
}

func handleListTemplates(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := ws.Chart().Templates(r.Context())
		if err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, templates)
	}
}

// handleLoadTemplate loads a built-in template, or a saved one with
// ?custom=true.
func handleLoadTemplate(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		custom, _ := strconv.ParseBool(r.URL.Query().Get("custom"))
		tree, err := ws.Chart().LoadTemplate(r.Context(), chi.URLParam(r, "name"), custom)
		if err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, tree)
	}
}

func handleSaveTemplate(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := ws.Chart().SaveTemplate(r.Context(), name); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, map[string]string{"saved": name})
	}
}

func handleDeleteTemplate(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ws.Chart().DeleteTemplate(r.Context(), chi.URLParam(r, "name")); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type planResponse struct {
	Sections   []core.PlanSection `json:"sections"`
	Completion int                `json:"completion"`
}

type planCheckRequest struct {
	Checked *bool   `json:"checked"`
	Notes   *string `json:"notes"`
}

type presetRequest struct {
	Level plan.Preset `json:"level"`
}

func currentPlan(ws *workspace.Workspace) planResponse {
	return planResponse{Sections: ws.Plan().Sections(), Completion: ws.Plan().Completion()}
}

func handlePlan(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, currentPlan(ws))
	}
}

// handlePlanCheck sets checked and/or notes. An empty body toggles the check.
func handlePlanCheck(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planCheckRequest
		if r.ContentLength != 0 {
			if err := decode(r, &req); err != nil {
				render.Render(w, r, errResponse(err, ""))
				return
			}
		}
		section, check := chi.URLParam(r, "section"), chi.URLParam(r, "check")

		var ok bool
		switch {
		case req.Checked == nil && req.Notes == nil:
			ok = ws.Plan().Toggle(section, check)
		default:
			ok = true
			if req.Checked != nil {
				ok = ws.Plan().SetChecked(section, check, *req.Checked)
			}
			if ok && req.Notes != nil {
				ok = ws.Plan().SetNotes(section, check, *req.Notes)
			}
		}
		if !ok {
			render.Render(w, r, errResponse(errNotFound, ""))
			return
		}
		render.JSON(w, r, currentPlan(ws))
	}
}

func handlePlanPreset(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req presetRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if err := ws.Plan().ApplyPreset(req.Level); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		render.JSON(w, r, currentPlan(ws))
	}
}
