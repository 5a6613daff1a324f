package session

import "github.com/bishal292/whiteboard/protocol"

// publishPresence sends the current member count to every member. Callers
// hold rs.mu. Presence is latest-value only and never replayed.
func (e *Engine) publishPresence(rs *roomSession) {
	msg := protocol.Encode(protocol.TypePresenceUpdate, protocol.PresenceData{Count: rs.count()})
	if dropped := rs.broadcast(msg, ""); len(dropped) > 0 {
		e.log.WithField("room_id", rs.id).WithField("dropped", dropped).Warn("Presence update dropped for slow connections")
	}
}

// PublishPresence recomputes and broadcasts a room's member count.
func (e *Engine) PublishPresence(roomId string) {
	rs := e.acquire(roomId, false)
	if rs == nil {
		return
	}
	defer e.release(rs)
	e.publishPresence(rs)
}
