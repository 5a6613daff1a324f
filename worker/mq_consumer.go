package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bishal292/whiteboard/cache"
	"github.com/bishal292/whiteboard/mq"
	"github.com/sirupsen/logrus"
)

// RoomSessionEndedMessage is sent when the last member leaves a room's live
// session. The consumer evicts the room's cached log so an idle room does not
// hold cache memory until its TTL.
type RoomSessionEndedMessage struct {
	RoomId  string    `json:"roomId"`
	EndedAt time.Time `json:"endedAt"`
}

type MQConsumer struct {
	roomSessionsQueue mq.MessageQueue
	whiteboardCache   cache.WhiteboardCache
}

func NewMQConsumer(roomSessionsQueue mq.MessageQueue, whiteboardCache cache.WhiteboardCache) *MQConsumer {
	return &MQConsumer{
		roomSessionsQueue: roomSessionsQueue,
		whiteboardCache:   whiteboardCache,
	}
}

const (
	visibilityTimeout = 30
	receiveBatchSize  = 10
)

func (mqConsumer *MQConsumer) Run(shutdownCtx context.Context) {
	log := logrus.WithField("component", "mq_consumer")
	for {
		msgs, err := mqConsumer.roomSessionsQueue.Receive(shutdownCtx, receiveBatchSize, visibilityTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || shutdownCtx.Err() != nil {
				return
			}
			log.WithError(err).Warn("Receive failed")
			select {
			case <-shutdownCtx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if len(msgs) > 0 {
			mqConsumer.handleBatch(msgs)
		}
	}
}

func (mqConsumer *MQConsumer) handleBatch(msgs []mq.Message) {
	log := logrus.WithField("component", "mq_consumer")

	// timeout should be a little less than queue visibility timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)
	defer cancel()

	roomIds := make([]string, 0, len(msgs))
	valid := make([]mq.Message, 0, len(msgs))
	for _, msg := range msgs {
		var ended RoomSessionEndedMessage
		if err := json.Unmarshal([]byte(msg.Body), &ended); err != nil || ended.RoomId == "" {
			// Malformed messages would be redelivered forever
			log.WithField("message_id", msg.Id).Warn("Dropping malformed room session message")
			if err := mqConsumer.roomSessionsQueue.Delete(ctx, msg); err != nil {
				log.WithError(err).Warn("Delete failed")
			}
			continue
		}
		roomIds = append(roomIds, ended.RoomId)
		valid = append(valid, msg)
	}

	if len(roomIds) == 0 {
		return
	}

	if err := mqConsumer.whiteboardCache.InvalidateRooms(ctx, roomIds); err != nil {
		// Leave the messages to be redelivered after the visibility timeout
		log.WithError(err).WithField("rooms", len(roomIds)).Warn("Failed to invalidate cached rooms")
		return
	}

	for _, msg := range valid {
		if err := mqConsumer.roomSessionsQueue.Delete(ctx, msg); err != nil {
			log.WithError(err).WithField("message_id", msg.Id).Warn("Delete failed")
		}
	}
}
