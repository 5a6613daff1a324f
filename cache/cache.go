package cache

import "context"

// WhiteboardCache keeps a copy of room event logs. A room's cached list is
// only trusted while it is marked complete.
type WhiteboardCache interface {
	AppendEvent(ctx context.Context, roomId string, eventData []byte) error
	SetRoomEvents(ctx context.Context, roomId string, events [][]byte) error
	GetEvents(ctx context.Context, roomId string) ([][]byte, error)

	IsRoomComplete(ctx context.Context, roomId string) (bool, error)
	InvalidateRooms(ctx context.Context, roomIds []string) error
}
