package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/protocol"
	"github.com/sirupsen/logrus"
)

type JoinResult struct {
	RoomId  string
	Events  []models.DrawingEvent
	Count   int
	Members map[string]models.DrawAttributes
}

type LeaveResult struct {
	RoomId string
	// Left is false when the connection was not a member.
	Left      bool
	Remaining int
}

// Join adds the connection to the room. The joiner is sent the room's full
// log before anyone in the room sees a later event, and the new member count
// is then published to the whole room. Joining a room the connection is
// already in refreshes its attributes and resends the log.
func (e *Engine) Join(ctx context.Context, connectionId, roomId string, attrs models.DrawAttributes) (JoinResult, error) {
	roomId = strings.TrimSpace(roomId)
	if roomId == "" {
		return JoinResult{}, ErrMissingRoomId
	}

	conn, ok := e.registry.lookup(connectionId)
	if !ok {
		return JoinResult{}, ErrUnknownConnection
	}

	rs := e.acquire(roomId, true)
	defer e.release(rs)

	events, found, err := e.history.Snapshot(ctx, roomId)
	if err != nil {
		return JoinResult{}, fmt.Errorf("load room log: %w", err)
	}
	if !found {
		return JoinResult{}, ErrRoomNotFound
	}
	if events == nil {
		events = []models.DrawingEvent{}
	}

	if !e.registry.joined(connectionId, roomId) {
		return JoinResult{}, ErrUnknownConnection
	}
	first := rs.addMember(conn, attrs, e.now())
	rs.opened = true

	result := JoinResult{
		RoomId:  roomId,
		Events:  events,
		Count:   rs.count(),
		Members: rs.attributes(),
	}

	conn.Send(protocol.Encode(protocol.TypeDrawingData, protocol.DrawingData{
		RoomId:  result.RoomId,
		Events:  result.Events,
		Count:   result.Count,
		Members: result.Members,
	}))
	e.publishPresence(rs)

	e.log.WithFields(logrus.Fields{
		"room_id":       roomId,
		"connection_id": connectionId,
		"members":       result.Count,
		"rejoin":        !first,
	}).Info("Joined room")

	return result, nil
}

// Leave removes the connection from the room. Leaving a room the connection
// is not in is a no-op. The session entry is dropped with its last member.
func (e *Engine) Leave(connectionId, roomId string) (LeaveResult, error) {
	roomId = strings.TrimSpace(roomId)
	if roomId == "" {
		return LeaveResult{}, ErrMissingRoomId
	}

	e.registry.left(connectionId, roomId)
	return e.leave(connectionId, roomId), nil
}

func (e *Engine) leave(connectionId, roomId string) LeaveResult {
	rs := e.acquire(roomId, false)
	if rs == nil {
		return LeaveResult{RoomId: roomId}
	}
	defer e.release(rs)

	left := rs.removeMember(connectionId)
	remaining := rs.count()
	if left && remaining > 0 {
		e.publishPresence(rs)
	}

	if left {
		e.log.WithFields(logrus.Fields{
			"room_id":       roomId,
			"connection_id": connectionId,
			"members":       remaining,
		}).Info("Left room")
	}

	return LeaveResult{RoomId: roomId, Left: left, Remaining: remaining}
}

// Disconnect forgets the connection and leaves every room it belonged to,
// once each.
func (e *Engine) Disconnect(connectionId string) []LeaveResult {
	rooms, ok := e.registry.remove(connectionId)
	if !ok {
		return nil
	}

	results := make([]LeaveResult, 0, len(rooms))
	for _, roomId := range rooms {
		results = append(results, e.leave(connectionId, roomId))
	}

	e.log.WithField("connection_id", connectionId).WithField("rooms", len(rooms)).Debug("Connection removed")
	return results
}
