package service

import (
	"time"

	"github.com/bishal292/whiteboard/cache"
	"github.com/bishal292/whiteboard/mq"
	"github.com/bishal292/whiteboard/store"
	"github.com/bishal292/whiteboard/worker"
)

const DefaultRoomRetention = 30 * 24 * time.Hour

type Service struct {
	Store             store.WhiteboardStore
	Cache             cache.WhiteboardCache
	RoomSessionsQueue mq.MessageQueue
	ActivityBatcher   *worker.ActivityBatcher
	RoomRetention     time.Duration

	now func() time.Time
}

func NewService(
	store store.WhiteboardStore,
	cache cache.WhiteboardCache,
	roomSessionsQueue mq.MessageQueue,
	activityBatcher *worker.ActivityBatcher,
	roomRetention time.Duration,
) *Service {
	if roomRetention <= 0 {
		roomRetention = DefaultRoomRetention
	}

	return &Service{
		Store:             store,
		Cache:             cache,
		RoomSessionsQueue: roomSessionsQueue,
		ActivityBatcher:   activityBatcher,
		RoomRetention:     roomRetention,
		now:               time.Now,
	}
}
