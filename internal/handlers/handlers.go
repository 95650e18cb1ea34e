// Package handlers maps WebSocket commands onto workspace operations.
package handlers

import (
	"errors"
	"fmt"

	"github.com/OCAP2/geotime/internal/dispatcher"
	"github.com/OCAP2/geotime/internal/geo"
	"github.com/OCAP2/geotime/internal/timeline"
	"github.com/OCAP2/geotime/internal/workspace"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/OCAP2/geotime/pkg/streaming"
)

// PanBufferSize is the queue depth for camera.pan events.
const PanBufferSize = 256

// ErrBadPayload is returned when a command payload cannot be decoded.
var ErrBadPayload = errors.New("invalid command payload")

// Outcome is the ack result of a command. Applied is false when the command
// targeted an unknown or locked id and nothing changed.
type Outcome struct {
	Applied  bool            `json:"applied"`
	Timeline *timeline.State `json:"timeline,omitempty"`
	Item     *core.MapItem   `json:"item,omitempty"`
	Camera   *core.Camera    `json:"camera,omitempty"`
}

// Service handles the commands clients send over the frame stream.
type Service struct {
	ws *workspace.Workspace
}

// NewService creates a new handler service
func NewService(ws *workspace.Workspace) *Service {
	return &Service{ws: ws}
}

// RegisterHandlers registers every command with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Playback
	d.Register(streaming.CmdTimelinePlay, s.handlePlay, dispatcher.Logged())
	d.Register(streaming.CmdTimelinePause, s.handlePause, dispatcher.Logged())
	d.Register(streaming.CmdTimelineToggle, s.handleToggle, dispatcher.Logged())
	d.Register(streaming.CmdTimelineCursor, s.handleCursor)
	d.Register(streaming.CmdTimelineSpeed, s.handleSpeed, dispatcher.Logged())

	// Map surface
	d.Register(streaming.CmdSceneRestore, s.handleSceneRestore, dispatcher.Logged())
	d.Register(streaming.CmdItemMove, s.handleItemMove, dispatcher.Logged())

	// Camera moves arrive on every map drag - buffered
	d.Register(streaming.CmdCameraPan, s.handleCameraPan, dispatcher.Buffered(PanBufferSize))
}

func decode(e dispatcher.Event, v any) error {
	if err := e.Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, e.Command, err)
	}
	return nil
}

func (s *Service) timelineOutcome() Outcome {
	st := s.ws.Timeline().State()
	return Outcome{Applied: true, Timeline: &st}
}

func (s *Service) handlePlay(dispatcher.Event) (any, error) {
	s.ws.Timeline().Play()
	return s.timelineOutcome(), nil
}

func (s *Service) handlePause(dispatcher.Event) (any, error) {
	s.ws.Timeline().Pause()
	return s.timelineOutcome(), nil
}

func (s *Service) handleToggle(dispatcher.Event) (any, error) {
	s.ws.Timeline().Toggle()
	return s.timelineOutcome(), nil
}

func (s *Service) handleCursor(e dispatcher.Event) (any, error) {
	var p streaming.CursorPayload
	if err := decode(e, &p); err != nil {
		return nil, err
	}
	s.ws.Timeline().SetCursor(p.Cursor)
	return s.timelineOutcome(), nil
}

func (s *Service) handleSpeed(e dispatcher.Event) (any, error) {
	var p streaming.SpeedPayload
	if err := decode(e, &p); err != nil {
		return nil, err
	}
	if err := s.ws.Timeline().SetSpeed(p.Speed); err != nil {
		return nil, err
	}
	return s.timelineOutcome(), nil
}

func (s *Service) handleSceneRestore(e dispatcher.Event) (any, error) {
	var p streaming.SceneRestorePayload
	if err := decode(e, &p); err != nil {
		return nil, err
	}
	if !s.ws.RestoreScene(p.ID) {
		return Outcome{}, nil
	}
	out := s.timelineOutcome()
	cam := s.ws.Camera()
	out.Camera = &cam
	return out, nil
}

func (s *Service) handleItemMove(e dispatcher.Event) (any, error) {
	var p streaming.ItemMovePayload
	if err := decode(e, &p); err != nil {
		return nil, err
	}
	if !p.Position.Valid() {
		return nil, geo.ErrInvalidCoordinates
	}
	if !s.ws.MoveItem(p.ID, p.Position) {
		return Outcome{}, nil
	}
	item, ok := s.ws.Item(p.ID)
	if !ok {
		return Outcome{}, nil
	}
	return Outcome{Applied: true, Item: &item}, nil
}

func (s *Service) handleCameraPan(e dispatcher.Event) (any, error) {
	var p streaming.CameraPayload
	if err := decode(e, &p); err != nil {
		return nil, err
	}
	if !s.ws.Pan(p.Center, p.Zoom) {
		return nil, geo.ErrInvalidCoordinates
	}
	cam := s.ws.Camera()
	return Outcome{Applied: true, Camera: &cam}, nil
}
