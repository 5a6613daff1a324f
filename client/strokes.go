package client

import (
	"encoding/json"
	"fmt"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/protocol"
)

// Stroke is one reconstructed pointer gesture.
type Stroke struct {
	ConnectionId string
	Color        string
	StrokeWidth  int
	Tool         models.Tool
	Points       []models.Point
	// Complete is set once the matching stroke-end arrived.
	Complete bool
}

// StrokeAssembler rebuilds strokes from a room's event stream. A move or end
// belongs to the most recent start from the same connection.
type StrokeAssembler struct {
	strokes []*Stroke
	open    map[string]*Stroke
}

func NewStrokeAssembler() *StrokeAssembler {
	return &StrokeAssembler{open: make(map[string]*Stroke)}
}

func (a *StrokeAssembler) Apply(event models.DrawingEvent) {
	switch event.Type {
	case models.EventStrokeStart:
		stroke := &Stroke{
			ConnectionId: event.ConnectionId,
			Color:        event.Color,
			StrokeWidth:  event.StrokeWidth,
			Tool:         event.Tool,
		}
		if event.Point != nil {
			stroke.Points = append(stroke.Points, *event.Point)
		}
		a.strokes = append(a.strokes, stroke)
		a.open[event.ConnectionId] = stroke

	case models.EventStrokeMove:
		stroke, ok := a.open[event.ConnectionId]
		if !ok || event.Point == nil {
			return
		}
		stroke.Points = append(stroke.Points, *event.Point)

	case models.EventStrokeEnd:
		if stroke, ok := a.open[event.ConnectionId]; ok {
			stroke.Complete = true
			delete(a.open, event.ConnectionId)
		}

	case models.EventClear:
		a.Reset()
	}
}

func (a *StrokeAssembler) Reset() {
	a.strokes = nil
	a.open = make(map[string]*Stroke)
}

// ApplyMessage feeds a server message into the assembler. drawing-data
// replaces the state with the replayed log; messages that carry no drawing
// are ignored.
func (a *StrokeAssembler) ApplyMessage(msg protocol.Message) error {
	switch msg.Type {
	case protocol.TypeDrawingData:
		var data protocol.DrawingData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		a.Reset()
		for _, event := range data.Events {
			a.Apply(event)
		}

	case protocol.TypeDrawStart:
		var data protocol.StrokeStartData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		a.Apply(models.DrawingEvent{
			Type:         models.EventStrokeStart,
			ConnectionId: data.ConnectionId,
			Point:        &models.Point{X: data.X, Y: data.Y},
			Color:        data.Color,
			StrokeWidth:  data.StrokeWidth,
			Tool:         data.Tool,
		})

	case protocol.TypeDrawMove:
		var data protocol.StrokeMoveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		a.Apply(models.DrawingEvent{
			Type:         models.EventStrokeMove,
			ConnectionId: data.ConnectionId,
			Point:        &models.Point{X: data.X, Y: data.Y},
		})

	case protocol.TypeDrawEnd:
		var data protocol.StrokeEndData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		a.Apply(models.DrawingEvent{Type: models.EventStrokeEnd, ConnectionId: data.ConnectionId})

	case protocol.TypeClearCanvas:
		a.Reset()
	}
	return nil
}

// Strokes returns copies of the strokes in start order.
func (a *StrokeAssembler) Strokes() []Stroke {
	out := make([]Stroke, 0, len(a.strokes))
	for _, stroke := range a.strokes {
		s := *stroke
		s.Points = append([]models.Point(nil), stroke.Points...)
		out = append(out, s)
	}
	return out
}
