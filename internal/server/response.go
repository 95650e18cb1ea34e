package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/OCAP2/geotime/internal/ai"
	"github.com/OCAP2/geotime/internal/geo"
	"github.com/OCAP2/geotime/internal/hierarchy"
	"github.com/OCAP2/geotime/internal/plan"
	"github.com/OCAP2/geotime/internal/timeline"
	"github.com/OCAP2/geotime/internal/workspace"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/go-chi/render"
)

var (
	errNotFound   = errors.New("not found")
	errBadRequest = errors.New("invalid request")
)

// ErrResponse is the JSON body of every failed request.
type ErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	ErrorText      string `json:"error"`
	Message        string `json:"message,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// errResponse maps err to a status code. message is the human-readable
// text of a workspace Result, when there is one.
func errResponse(err error, message string) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: statusFor(err),
		ErrorText:      err.Error(),
		Message:        message,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, geo.ErrInvalidCoordinates),
		errors.Is(err, timeline.ErrInvalidSpeed),
		errors.Is(err, hierarchy.ErrRootRemoval),
		errors.Is(err, hierarchy.ErrEmptyName),
		errors.Is(err, plan.ErrUnknownPreset),
		errors.Is(err, core.ErrMalformedDocument),
		errors.Is(err, workspace.ErrEmptyQuery),
		errors.Is(err, workspace.ErrDrawingKind),
		errors.Is(err, workspace.ErrTooFewPoints):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound),
		errors.Is(err, hierarchy.ErrUnknownTemplate),
		errors.Is(err, core.ErrDocumentNotFound),
		errors.Is(err, ai.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrBusy),
		errors.Is(err, workspace.ErrNotDrawing):
		return http.StatusConflict
	case errors.Is(err, workspace.ErrClosed),
		errors.Is(err, workspace.ErrNoBackend),
		errors.Is(err, ai.ErrMissingCredentials):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// respond writes v as JSON with the given status.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
