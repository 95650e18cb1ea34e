package server

import (
	"log/slog"
	"net/http"

	"github.com/OCAP2/geotime/internal/workspace"
	"github.com/go-chi/chi/v5"
)

func addRoutes(r chi.Router, logger *slog.Logger, ws *workspace.Workspace, stream http.Handler) {
	r.Get("/healthz", handleHealth(ws))
	if stream != nil {
		r.Method(http.MethodGet, "/ws", stream)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/frame", handleFrame(ws))

		// Items
		r.Route("/items", func(r chi.Router) {
			r.Get("/", handleListItems(ws))
			r.Post("/", handleCreateItem(ws))
			r.Patch("/{id}", handleUpdateItem(ws))
			r.Delete("/{id}", handleDeleteItem(ws))
			r.Post("/{id}/move", handleMoveItem(ws))
			r.Post("/{id}/images", handleAddImage(ws))
			r.Delete("/{id}/images/{index}", handleRemoveImage(ws))
		})

		// Drawing mode
		r.Route("/drawing", func(r chi.Router) {
			r.Get("/", handleDrawingState(ws))
			r.Post("/", handleStartDrawing(ws))
			r.Post("/points", handleAddDrawingPoint(ws))
			r.Delete("/points/last", handleUndoDrawingPoint(ws))
			r.Post("/finish", handleFinishDrawing(ws))
			r.Delete("/", handleCancelDrawing(ws))
		})
		r.Post("/measure", handleMeasure(ws))

		// Scenes, timeline, camera
		r.Get("/scenes", handleListScenes(ws))
		r.Post("/scenes", handleCaptureScene(ws))
		r.Post("/scenes/{id}/restore", handleRestoreScene(ws))

		r.Route("/timeline", func(r chi.Router) {
			r.Get("/", handleTimeline(ws))
			r.Post("/play", handlePlay(ws))
			r.Post("/pause", handlePause(ws))
			r.Put("/cursor", handleSetCursor(ws))
			r.Put("/speed", handleSetSpeed(ws))
		})
		r.Get("/camera", handleCamera(ws))
		r.Put("/camera", handlePan(ws))

		// Org chart
		r.Route("/hierarchy", func(r chi.Router) {
			r.Get("/", handleHierarchy(ws))
			r.Get("/templates", handleListTemplates(ws))
			r.Post("/templates/{name}/load", handleLoadTemplate(ws))
			r.Put("/templates/{name}", handleSaveTemplate(ws))
			r.Delete("/templates/{name}", handleDeleteTemplate(ws))
			r.Post("/{id}/children", handleAddNode(ws))
			r.Patch("/{id}", handleUpdateNode(ws))
			r.Delete("/{id}", handleRemoveNode(ws))
		})

		// Security plan
		r.Get("/plan", handlePlan(ws))
		r.Post("/plan/preset", handlePlanPreset(ws))
		r.Patch("/plan/{section}/{check}", handlePlanCheck(ws))

		// Plan documents
		r.Route("/document", func(r chi.Router) {
			r.Get("/", handleExport(ws))
			r.Put("/", handleImport(ws))
			r.Get("/saved", handleSavedPlans(ws))
			r.Post("/save", handleSave(ws))
			r.Post("/load", handleLoad(ws))
		})
		r.Post("/demo", handleDemo(ws))

		// AI assistant
		r.Route("/ai", func(r chi.Router) {
			r.Post("/report", handleReport(ws, logger))
			r.Post("/scenario", handleScenario(ws, logger))
			r.Post("/search", handleSearch(ws, logger))
			r.Post("/poi", handlePOI(ws, logger))
		})
	})
}
