package store

import (
	"context"
	"errors"
	"time"

	"github.com/bishal292/whiteboard/models"
)

// WhiteboardStore is the durable room store. Room logs are append only;
// whole-room expiry is the only way anything is removed.
type WhiteboardStore interface {
	// EnsureRoom creates the room if it is missing or expired. The returned
	// room carries metadata only; the bool reports whether it was created.
	EnsureRoom(ctx context.Context, room models.Room) (models.Room, bool, error)
	// GetRoom returns the room with its full ordered log.
	GetRoom(ctx context.Context, roomId string) (models.Room, error)
	// GetRoomMeta returns the room without reading its log.
	GetRoomMeta(ctx context.Context, roomId string) (models.Room, error)
	AppendEvent(ctx context.Context, roomId string, event models.DrawingEvent) error
	TouchRoom(ctx context.Context, roomId string, at time.Time) error
}

// Custom error types for clarity
var (
	ErrItemNotFound    = errors.New("item does not exist")
	ErrConditionFailed = errors.New("condition not met")
)
