package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/OCAP2/geotime/internal/workspace"
	"github.com/go-chi/render"
)

const maxDocumentSize = 32 << 20

type nameRequest struct {
	Name string `json:"name"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type commandRequest struct {
	Command string `json:"command"`
}

// handleExport returns the plan document, gzip-compressed with
// ?compress=true.
func handleExport(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compress, _ := strconv.ParseBool(r.URL.Query().Get("compress"))
		if !compress {
			render.JSON(w, r, ws.Document())
			return
		}
		data, err := ws.Export(true)
		if err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		w.Header().Set("Content-Type", "application/gzip")
		w.Header().Set("Content-Disposition", `attachment; filename="plan.json.gz"`)
		_, _ = w.Write(data)
	}
}

// handleImport replaces state with the uploaded document, plain or gzip.
func handleImport(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
		if err != nil {
			render.Render(w, r, errResponse(fmt.Errorf("%w: %v", errBadRequest, err), ""))
			return
		}
		res, err := ws.Import(data)
		if err != nil {
			render.Render(w, r, errResponse(err, res.Message))
			return
		}
		render.JSON(w, r, res)
	}
}

func handleSavedPlans(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := ws.SavedPlans(r.Context())
		if err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if names == nil {
			names = []string{}
		}
		render.JSON(w, r, names)
	}
}

func handleSave(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		if req.Name == "" {
			req.Name = "plan"
		}
		res, err := ws.Save(r.Context(), req.Name)
		if err != nil {
			render.Render(w, r, errResponse(err, res.Message))
			return
		}
		render.JSON(w, r, res)
	}
}

func handleLoad(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		res, err := ws.Load(r.Context(), req.Name)
		if err != nil {
			render.Render(w, r, errResponse(err, res.Message))
			return
		}
		render.JSON(w, r, res)
	}
}

func handleDemo(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, ws.LoadDemo())
	}
}

func handleReport(ws *workspace.Workspace, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ws.Report(r.Context())
		writeResult(w, r, logger, "report", res, err)
	}
}

func handleScenario(ws *workspace.Workspace, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commandRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		res, err := ws.ExecuteCommand(r.Context(), req.Command)
		writeResult(w, r, logger, "scenario", res, err)
	}
}

func handleSearch(ws *workspace.Workspace, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		res, err := ws.Search(r.Context(), req.Query)
		writeResult(w, r, logger, "search", res, err)
	}
}

func handlePOI(ws *workspace.Workspace, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := decode(r, &req); err != nil {
			render.Render(w, r, errResponse(err, ""))
			return
		}
		res, err := ws.SearchPOI(r.Context(), req.Query)
		writeResult(w, r, logger, "poi", res, err)
	}
}

func writeResult(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, res workspace.Result, err error) {
	if err != nil {
		logger.Warn("AI request failed", "op", op, "error", err)
		render.Render(w, r, errResponse(err, res.Message))
		return
	}
	render.JSON(w, r, res)
}
