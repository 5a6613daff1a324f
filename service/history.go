package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/store"
	"github.com/bishal292/whiteboard/worker"
	"github.com/sirupsen/logrus"
)

// RoomExists reports whether the room exists and has not expired. It reads
// only the room's metadata. Join does not call it; Snapshot reports the same
// thing through its found result.
func (s *Service) RoomExists(ctx context.Context, roomId string) (bool, error) {
	_, err := s.Store.GetRoomMeta(ctx, roomId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Snapshot returns the full ordered event log of a room, with found false
// when the room is missing or expired. The cached copy is used while it is
// marked complete and belongs to the current room; otherwise the whole room
// is read from the store in one query and the cache rebuilt from it.
func (s *Service) Snapshot(ctx context.Context, roomId string) ([]models.DrawingEvent, bool, error) {
	log := logrus.WithField("room_id", roomId)

	isComplete, err := s.Cache.IsRoomComplete(ctx, roomId)
	if err != nil {
		log.WithError(err).Warn("Room cache unavailable, reading store")
	} else if isComplete {
		events, found, err := s.cachedSnapshot(ctx, roomId)
		if err != nil || !found {
			return nil, false, err
		}
		if events != nil {
			return events, true, nil
		}
	}

	room, err := s.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	encoded := make([][]byte, 0, len(room.DrawingData))
	for _, event := range room.DrawingData {
		b, err := json.Marshal(event)
		if err != nil {
			return room.DrawingData, true, nil
		}
		encoded = append(encoded, b)
	}
	if err := s.Cache.SetRoomEvents(ctx, roomId, encoded); err != nil {
		log.WithError(err).Warn("Failed to populate room cache")
	}

	return room.DrawingData, true, nil
}

// cachedSnapshot checks the room's metadata item, since the cache can outlive
// the room, and then serves the cached log. A nil log with found true means
// the cache is unusable and the store must be read.
func (s *Service) cachedSnapshot(ctx context.Context, roomId string) ([]models.DrawingEvent, bool, error) {
	log := logrus.WithField("room_id", roomId)

	room, err := s.Store.GetRoomMeta(ctx, roomId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			s.invalidate(ctx, roomId)
			return nil, false, nil
		}
		return nil, false, err
	}

	events, err := s.cachedEvents(ctx, roomId)
	if err != nil {
		log.WithError(err).Warn("Cached room log unreadable, falling back to store")
		return nil, true, nil
	}
	// Events older than the room were cached for an expired room of the same id
	if len(events) > 0 && events[0].Timestamp.Before(room.CreatedAt) {
		log.Warn("Cached room log predates the room, rebuilding")
		s.invalidate(ctx, roomId)
		return nil, true, nil
	}
	return events, true, nil
}

func (s *Service) invalidate(ctx context.Context, roomId string) {
	if err := s.Cache.InvalidateRooms(ctx, []string{roomId}); err != nil {
		logrus.WithError(err).WithField("room_id", roomId).Error("Failed to invalidate room cache")
	}
}

func (s *Service) cachedEvents(ctx context.Context, roomId string) ([]models.DrawingEvent, error) {
	raw, err := s.Cache.GetEvents(ctx, roomId)
	if err != nil {
		return nil, err
	}

	events := make([]models.DrawingEvent, 0, len(raw))
	for _, b := range raw {
		var event models.DrawingEvent
		if err := json.Unmarshal(b, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Append persists one event at the end of the room's log. The cached copy is
// only extended when it is complete, so a partial cache never looks whole.
func (s *Service) Append(ctx context.Context, roomId string, event models.DrawingEvent) error {
	if err := s.Store.AppendEvent(ctx, roomId, event); err != nil {
		return err
	}

	isComplete, err := s.Cache.IsRoomComplete(ctx, roomId)
	if err != nil || !isComplete {
		return nil
	}

	b, err := json.Marshal(event)
	if err == nil {
		err = s.Cache.AppendEvent(ctx, roomId, b)
	}
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomId).Warn("Failed to append to room cache, invalidating")
		s.invalidate(ctx, roomId)
	}
	return nil
}

// Touch hands the activity refresh to the batcher without blocking.
func (s *Service) Touch(roomId string, at time.Time) {
	if !s.ActivityBatcher.Touch(roomId, at) {
		logrus.WithField("room_id", roomId).Debug("Activity batcher full, dropping touch")
	}
}

// RoomClosed announces that a room's live session has ended.
func (s *Service) RoomClosed(roomId string) {
	msg := worker.RoomSessionEndedMessage{RoomId: roomId, EndedAt: s.now().UTC()}
	go func() {
		b, err := json.Marshal(msg)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.RoomSessionsQueue.Send(ctx, string(b)); err != nil {
			logrus.WithError(err).WithField("room_id", roomId).Warn("Failed to queue room session end")
		}
	}()
}
