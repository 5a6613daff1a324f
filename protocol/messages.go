package protocol

import (
	"encoding/json"

	"github.com/bishal292/whiteboard/models"
)

// Client -> server message types
const (
	TypeJoinRoom    = "join-room"
	TypeLeaveRoom   = "leave-room"
	TypeDrawStart   = "draw-start"
	TypeDrawMove    = "draw-move"
	TypeDrawEnd     = "draw-end"
	TypeClearCanvas = "clear-canvas"
	TypeCursorMove  = "cursor-move"
)

// Server -> client message types. draw-*, clear-canvas, cursor-move and
// leave-room are shared with the client side.
const (
	TypeError          = "error"
	TypeConnected      = "connected"
	TypeDrawingData    = "drawing-data"
	TypePresenceUpdate = "presence-update"
)

// Message is the envelope used in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads

type JoinRoomData struct {
	RoomId      string  `json:"roomId"`
	Color       *string `json:"color,omitempty"`
	StrokeWidth *int    `json:"strokeWidth,omitempty"`
	Tool        *string `json:"tool,omitempty"`
}

type LeaveRoomData struct {
	RoomId string `json:"roomId"`
}

type DrawStartData struct {
	RoomId      string      `json:"roomId,omitempty"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Color       string      `json:"color"`
	StrokeWidth int         `json:"strokeWidth"`
	Tool        models.Tool `json:"tool"`
}

// PointData is the payload of draw-move and cursor-move.
type PointData struct {
	RoomId string  `json:"roomId,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// RoomData is the payload of draw-end and clear-canvas; both may be empty.
type RoomData struct {
	RoomId string `json:"roomId,omitempty"`
}

// Outbound payloads

type ErrorData struct {
	Message string `json:"message"`
}

type ConnectedData struct {
	ConnectionId string `json:"connectionId"`
}

type DrawingData struct {
	RoomId  string                           `json:"roomId"`
	Events  []models.DrawingEvent            `json:"events"`
	Count   int                              `json:"count"`
	Members map[string]models.DrawAttributes `json:"members"`
}

type PresenceData struct {
	Count int `json:"count"`
}

type StrokeStartData struct {
	ConnectionId string      `json:"connectionId"`
	X            float64     `json:"x"`
	Y            float64     `json:"y"`
	Color        string      `json:"color"`
	StrokeWidth  int         `json:"strokeWidth"`
	Tool         models.Tool `json:"tool"`
}

type StrokeMoveData struct {
	ConnectionId string  `json:"connectionId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

type StrokeEndData struct {
	ConnectionId string `json:"connectionId"`
}

type ClearData struct{}

type CursorData struct {
	ConnectionId string  `json:"connectionId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

type LeaveAckData struct {
	Status string `json:"status"`
	RoomId string `json:"roomId"`
}

// Encode wraps data in an envelope. Payloads are plain structs, so marshaling
// cannot fail.
func Encode(msgType string, data any) []byte {
	raw, _ := json.Marshal(data)
	b, _ := json.Marshal(Message{Type: msgType, Data: raw})
	return b
}

func Decode(b []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(b, &msg)
	return msg, err
}

// LiveEvent converts a recorded drawing event into the message peers receive.
func LiveEvent(event models.DrawingEvent) []byte {
	var x, y float64
	if event.Point != nil {
		x, y = event.Point.X, event.Point.Y
	}

	switch event.Type {
	case models.EventStrokeStart:
		return Encode(TypeDrawStart, StrokeStartData{
			ConnectionId: event.ConnectionId,
			X:            x,
			Y:            y,
			Color:        event.Color,
			StrokeWidth:  event.StrokeWidth,
			Tool:         event.Tool,
		})
	case models.EventStrokeMove:
		return Encode(TypeDrawMove, StrokeMoveData{ConnectionId: event.ConnectionId, X: x, Y: y})
	case models.EventStrokeEnd:
		return Encode(TypeDrawEnd, StrokeEndData{ConnectionId: event.ConnectionId})
	default:
		return Encode(TypeClearCanvas, ClearData{})
	}
}
