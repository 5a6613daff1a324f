package service

import (
	"context"
	"errors"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/store"
	"github.com/sirupsen/logrus"
)

var ErrRoomNotFound = errors.New("room not found")

// JoinOrCreateRoom validates the room id and creates the room document if it
// does not exist yet. Existing rooms are returned as stored.
func (s *Service) JoinOrCreateRoom(ctx context.Context, rawRoomId string) (models.Room, error) {
	roomId, err := NormalizeRoomId(rawRoomId)
	if err != nil {
		return models.Room{}, err
	}

	now := s.now().UTC()
	room, created, err := s.Store.EnsureRoom(ctx, models.Room{
		Id:           roomId,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(s.RoomRetention),
		DrawingData:  []models.DrawingEvent{},
	})
	if err != nil {
		return models.Room{}, err
	}

	if created {
		logrus.WithFields(logrus.Fields{"room_id": roomId, "expires_at": room.ExpiresAt}).Info("Room created")
		// A cached log left by an expired room of the same id must not be served
		if err := s.Cache.InvalidateRooms(ctx, []string{roomId}); err != nil {
			logrus.WithError(err).WithField("room_id", roomId).Warn("Failed to invalidate cache for new room")
		}
	}
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, roomId string) (models.Room, error) {
	room, err := s.Store.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Room{}, ErrRoomNotFound
		}
		return models.Room{}, err
	}
	if room.DrawingData == nil {
		room.DrawingData = []models.DrawingEvent{}
	}
	return room, nil
}
