package models

import "time"

type EventKind string

const (
	EventStrokeStart EventKind = "stroke-start"
	EventStrokeMove  EventKind = "stroke-move"
	EventStrokeEnd   EventKind = "stroke-end"
	EventClear       EventKind = "clear"
)

type Tool string

const (
	ToolPencil Tool = "pencil"
	ToolPen    Tool = "pen"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawAttributes are the per-connection drawing settings captured at join time
// and carried by every stroke-start.
type DrawAttributes struct {
	Color       string `json:"color"`
	StrokeWidth int    `json:"strokeWidth"`
	Tool        Tool   `json:"tool"`
}

// DrawingEvent is one entry of a room's append-only log. Only stroke-start
// carries attributes; stroke-start and stroke-move carry a point.
type DrawingEvent struct {
	Id           string    `json:"id"`
	Type         EventKind `json:"type"`
	ConnectionId string    `json:"connectionId"`
	Point        *Point    `json:"point,omitempty"`
	Color        string    `json:"color,omitempty"`
	StrokeWidth  int       `json:"strokeWidth,omitempty"`
	Tool         Tool      `json:"tool,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type Room struct {
	Id           string         `json:"roomId"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastActivity time.Time      `json:"lastActivity"`
	ExpiresAt    time.Time      `json:"expiresAt"`
	DrawingData  []DrawingEvent `json:"drawingData"`
}

// Expired reports whether the room is past its retention window at t.
func (r Room) Expired(t time.Time) bool {
	return !r.ExpiresAt.IsZero() && !t.Before(r.ExpiresAt)
}
