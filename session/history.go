package session

import (
	"context"
	"time"

	"github.com/bishal292/whiteboard/models"
)

// History is the durable side of a room: an ordered append-only log plus a
// full-log read.
type History interface {
	// Snapshot returns the room's full ordered log. found is false when the
	// room does not exist or has expired.
	Snapshot(ctx context.Context, roomId string) (events []models.DrawingEvent, found bool, err error)
	Append(ctx context.Context, roomId string, event models.DrawingEvent) error
	// Touch refreshes the room's last-activity time. It must not block.
	Touch(roomId string, at time.Time)
}
