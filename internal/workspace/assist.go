package workspace

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/OCAP2/geotime/internal/ai"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/google/uuid"
)

const (
	// ScenarioZoom is the zoom used when a scenario moves the map.
	ScenarioZoom = 11
	// SearchZoom is the zoom used after a successful search.
	SearchZoom = 17
	// MoveThreshold is the smallest center change, in degrees on either axis,
	// that makes a scenario move the map.
	MoveThreshold = 0.001

	POIColor       = "#10b981"
	POISubType     = "poi"
	ScenarioColor  = "#3b82f6"
	ScenarioType   = "vehicle"
	ScenarioName   = "AI Unit"
	ScenarioDetail = "Placed via tactical command"
)

// acquire admits one AI request at a time. The returned release must be
// called when the request is done.
func (w *Workspace) acquire() (release func(), err error) {
	if w.closed.Load() {
		return nil, ErrClosed
	}
	if !w.aiBusy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { w.aiBusy.Store(false) }, nil
}

// Busy reports whether an AI request is outstanding.
func (w *Workspace) Busy() bool {
	return w.aiBusy.Load()
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "The AI is still working on the previous request."
	case errors.Is(err, ErrClosed):
		return "The session is closed."
	case errors.Is(err, ai.ErrMissingCredentials):
		return "AI API key not found or invalid. Set GEMINI_API_KEY in the .env file and restart."
	default:
		return "Error talking to the AI service. Check the logs for details."
	}
}

// Report asks the AI collaborator for a situation report on the current
// plan.
func (w *Workspace) Report(ctx context.Context) (Result, error) {
	release, err := w.acquire()
	if err != nil {
		return Result{Message: failureMessage(err)}, err
	}
	defer release()

	text, err := w.ai.GenerateReport(ctx, w.items.All(), w.scenes.All())
	if w.closed.Load() {
		return Result{Message: failureMessage(ErrClosed)}, ErrClosed
	}
	if err != nil {
		w.log.Error("Report generation failed", "error", err)
		return Result{Message: failureMessage(err)}, fmt.Errorf("generating report: %w", err)
	}
	return Result{Message: text}, nil
}

// ExecuteCommand asks the AI collaborator to plot a scenario around the map
// center. Items with non-finite coordinates are dropped, the rest start at
// the current cursor. The map flies to the target only when it differs from
// the current center by more than MoveThreshold.
func (w *Workspace) ExecuteCommand(ctx context.Context, command string) (Result, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Message: "Enter a tactical command."}, ErrEmptyQuery
	}
	release, err := w.acquire()
	if err != nil {
		return Result{Message: failureMessage(err)}, err
	}
	defer release()

	center := w.view.Camera().Center
	w.log.Info("Executing tactical command", "command", command, "center", center)
	sc, err := w.ai.GenerateScenario(ctx, command, center)
	if w.closed.Load() {
		return Result{Message: failureMessage(ErrClosed)}, ErrClosed
	}
	if err != nil {
		w.log.Error("Scenario generation failed", "error", err)
		return Result{Message: failureMessage(err)}, fmt.Errorf("generating scenario: %w", err)
	}

	moved := false
	if target := sc.TargetLocation; target.Valid() &&
		(math.Abs(target.Lat-center.Lat) > MoveThreshold || math.Abs(target.Lng-center.Lng) > MoveThreshold) {
		moved = w.view.FlyTo(target, ScenarioZoom)
	}

	cursor := w.timeline.Cursor()
	valid := ai.FiniteItems(sc.Items)
	added := make([]core.MapItem, 0, len(valid))
	for _, res := range valid {
		added = append(added, w.scenarioItem(res, cursor))
	}

	w.mu.Lock()
	for _, item := range added {
		w.items.Add(item)
	}
	w.mu.Unlock()

	res := Result{Items: added}
	if moved {
		loc := sc.TargetLocation
		res.Location = &loc
	}
	switch {
	case len(added) > 0:
		res.Message = fmt.Sprintf("Order executed: %d assets deployed.", len(added))
		if moved {
			res.Message += " Map moved to the mission area."
		}
	case moved:
		res.Message = "The map moved to the requested location, but no assets were plotted. Try a more specific command (e.g. 'add 3 ships here')."
	default:
		res.Message = "Command received, but no assets were generated. Try rephrasing: 'Set up a roadblock with 3 vehicles at THIS position'."
	}
	w.log.Info("Tactical command applied", "added", len(added), "moved", moved)
	return res, nil
}

func (w *Workspace) scenarioItem(res ai.ScenarioItem, cursor float64) core.MapItem {
	subType := res.SubType
	if subType == "" {
		subType = ScenarioType
	}
	name := res.Name
	if name == "" {
		name = ScenarioName
	}
	desc := res.Description
	if desc == "" {
		desc = ScenarioDetail
	}
	color := res.Color
	if color == "" {
		if icon, ok := w.catalog.Icon(subType); ok {
			color = icon.DefaultColor
		} else {
			color = ScenarioColor
		}
	}
	return core.MapItem{
		ID:          uuid.NewString(),
		Kind:        core.KindMarker,
		SubType:     subType,
		Name:        name,
		Description: desc,
		Position:    res.Point(),
		Color:       color,
		Visible:     true,
		StartTime:   cursor,
	}
}

// Search geocodes query and flies the map there at SearchZoom.
func (w *Workspace) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Message: "Enter a place to search for."}, ErrEmptyQuery
	}
	if w.closed.Load() {
		return Result{Message: failureMessage(ErrClosed)}, ErrClosed
	}

	p, err := w.geocoder.Geocode(ctx, query)
	if w.closed.Load() {
		return Result{Message: failureMessage(ErrClosed)}, ErrClosed
	}
	if err == nil && !p.Valid() {
		err = ai.ErrNotFound
	}
	if err != nil {
		w.log.Warn("Search failed", "query", query, "error", err)
		return Result{Message: "Location not found. Try a simpler address."}, fmt.Errorf("searching %q: %w", query, err)
	}

	w.view.FlyTo(p, SearchZoom)
	return Result{Message: fmt.Sprintf("Found %q.", query), Location: &p}, nil
}

// SearchPOI asks the AI collaborator for points of interest near the map
// center and adds them as markers.
func (w *Workspace) SearchPOI(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Message: "Enter what you are looking for."}, ErrEmptyQuery
	}
	release, err := w.acquire()
	if err != nil {
		return Result{Message: failureMessage(err)}, err
	}
	defer release()

	pois, err := w.ai.FindPointsOfInterest(ctx, query, w.view.Camera().Center)
	if w.closed.Load() {
		return Result{Message: failureMessage(ErrClosed)}, ErrClosed
	}
	if err != nil {
		w.log.Error("POI search failed", "query", query, "error", err)
		return Result{Message: failureMessage(err)}, fmt.Errorf("searching points of interest: %w", err)
	}

	cursor := w.timeline.Cursor()
	valid := ai.FinitePOIs(pois)
	added := make([]core.MapItem, 0, len(valid))
	for _, poi := range valid {
		name := poi.Name
		if name == "" {
			name = query
		}
		added = append(added, core.MapItem{
			ID:          uuid.NewString(),
			Kind:        core.KindMarker,
			SubType:     POISubType,
			Name:        name,
			Description: poi.Description,
			Position:    poi.Point(),
			Color:       POIColor,
			Visible:     true,
			StartTime:   cursor,
		})
	}

	w.mu.Lock()
	for _, item := range added {
		w.items.Add(item)
	}
	w.mu.Unlock()

	return Result{Message: fmt.Sprintf("%d points of interest found.", len(added)), Items: added}, nil
}
