// Package streaming defines the messages exchanged over the /ws socket.
package streaming

import (
	"encoding/json"

	"github.com/OCAP2/geotime/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeFrame   = "frame"
	TypeCommand = "command"
	TypeAck     = "ack"
	TypeError   = "error"
)

// Commands accepted from clients.
const (
	CmdTimelinePlay   = "timeline.play"
	CmdTimelinePause  = "timeline.pause"
	CmdTimelineToggle = "timeline.toggle"
	CmdTimelineCursor = "timeline.cursor"
	CmdTimelineSpeed  = "timeline.speed"
	CmdSceneRestore   = "scene.restore"
	CmdItemMove       = "item.move"
	CmdCameraPan      = "camera.pan"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AckMessage is the server's acknowledgement of a command.
type AckMessage struct {
	Type   string `json:"type"` // "ack" or "error"
	ID     string `json:"id,omitempty"`
	For    string `json:"for"` // the command being acknowledged
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

// FrameMessage carries one rendered frame and the timeline state it was
// rendered at.
type FrameMessage struct {
	Type   string      `json:"type"` // always "frame"
	Frame  core.Frame  `json:"frame"`
	Status string      `json:"status"`
	Speed  int         `json:"speed"`
	Camera core.Camera `json:"camera"`
}

// CursorPayload is the payload of timeline.cursor.
type CursorPayload struct {
	Cursor float64 `json:"cursor"`
}

// SpeedPayload is the payload of timeline.speed.
type SpeedPayload struct {
	Speed int `json:"speed"`
}

// SceneRestorePayload is the payload of scene.restore.
type SceneRestorePayload struct {
	ID string `json:"id"`
}

// CameraPayload is the payload of camera.pan.
type CameraPayload struct {
	Center core.GeoPoint `json:"center"`
	Zoom   float64       `json:"zoom"`
}

// ItemMovePayload is the payload of item.move (marker drag end).
type ItemMovePayload struct {
	ID       string        `json:"id"`
	Position core.GeoPoint `json:"position"`
}
