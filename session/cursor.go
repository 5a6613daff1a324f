package session

import (
	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/protocol"
)

// RelayCursor forwards a pointer position to the other members of the room.
// It is never persisted and does not wait on the room's ordering lock.
func (e *Engine) RelayCursor(connectionId, roomId string, at models.Point) error {
	roomId, err := e.resolveRoom(connectionId, roomId)
	if err != nil {
		return err
	}

	rs := e.lookupSession(roomId)
	if rs == nil || !rs.hasMember(connectionId) {
		return ErrNotInRoom
	}

	rs.broadcast(protocol.Encode(protocol.TypeCursorMove, protocol.CursorData{
		ConnectionId: connectionId,
		X:            at.X,
		Y:            at.Y,
	}), connectionId)
	return nil
}
