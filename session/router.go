package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/protocol"
	"github.com/gofrs/uuid/v5"
)

// RecordStrokeStart appends and broadcasts the start of a stroke. An empty
// roomId targets the connection's active room.
func (e *Engine) RecordStrokeStart(ctx context.Context, connectionId, roomId string, at models.Point, attrs models.DrawAttributes) error {
	if e.validateAttrs != nil {
		if err := e.validateAttrs(attrs); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
	}
	return e.record(ctx, connectionId, roomId, models.DrawingEvent{
		Type:        models.EventStrokeStart,
		Point:       &at,
		Color:       attrs.Color,
		StrokeWidth: attrs.StrokeWidth,
		Tool:        attrs.Tool,
	})
}

func (e *Engine) RecordStrokeMove(ctx context.Context, connectionId, roomId string, at models.Point) error {
	return e.record(ctx, connectionId, roomId, models.DrawingEvent{
		Type:  models.EventStrokeMove,
		Point: &at,
	})
}

func (e *Engine) RecordStrokeEnd(ctx context.Context, connectionId, roomId string) error {
	return e.record(ctx, connectionId, roomId, models.DrawingEvent{Type: models.EventStrokeEnd})
}

// RecordClear appends a clear and sends it to every member, the sender
// included.
func (e *Engine) RecordClear(ctx context.Context, connectionId, roomId string) error {
	return e.record(ctx, connectionId, roomId, models.DrawingEvent{Type: models.EventClear})
}

func (e *Engine) resolveRoom(connectionId, roomId string) (string, error) {
	roomId = strings.TrimSpace(roomId)
	if roomId != "" {
		return roomId, nil
	}
	active, ok := e.registry.activeRoom(connectionId)
	if !ok {
		return "", ErrNotInRoom
	}
	return active, nil
}

// record runs append-then-broadcast as one unit under the room lock. A
// failed append is returned to the caller and nothing is broadcast. The
// append is not cancelled if the sender goes away mid-flight.
func (e *Engine) record(ctx context.Context, connectionId, roomId string, event models.DrawingEvent) error {
	roomId, err := e.resolveRoom(connectionId, roomId)
	if err != nil {
		return err
	}

	rs := e.acquire(roomId, false)
	if rs == nil {
		return ErrNotInRoom
	}
	defer e.release(rs)

	if !rs.hasMember(connectionId) {
		return ErrNotInRoom
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate event id: %w", err)
	}
	event.Id = id.String()
	event.ConnectionId = connectionId
	event.Timestamp = e.now().UTC().Truncate(time.Millisecond)

	if err := e.history.Append(context.WithoutCancel(ctx), roomId, event); err != nil {
		e.log.WithError(err).WithField("room_id", roomId).WithField("connection_id", connectionId).Error("Failed to append drawing event")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	exclude := connectionId
	if event.Type == models.EventClear {
		exclude = ""
	}
	if dropped := rs.broadcast(protocol.LiveEvent(event), exclude); len(dropped) > 0 {
		e.log.WithField("room_id", roomId).WithField("dropped", dropped).Warn("Drawing event dropped for slow connections")
	}

	e.history.Touch(roomId, event.Timestamp)
	return nil
}
