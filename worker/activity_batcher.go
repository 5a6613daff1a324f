package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bishal292/whiteboard/store"
	"github.com/sirupsen/logrus"
)

type ActivityUpdate struct {
	RoomId string
	At     time.Time
}

// ActivityBatcher coalesces last-activity refreshes so that a busy room costs
// one store write per flush interval instead of one per drawing event.
type ActivityBatcher struct {
	UpdateCh        chan ActivityUpdate
	whiteboardStore store.WhiteboardStore
	flushInterval   time.Duration
	maxPending      int
}

func NewActivityBatcher(whiteboardStore store.WhiteboardStore, flushInterval time.Duration) *ActivityBatcher {
	return &ActivityBatcher{
		UpdateCh:        make(chan ActivityUpdate, 1024), // buffer to absorb bursts
		whiteboardStore: whiteboardStore,
		flushInterval:   flushInterval,
		maxPending:      100,
	}
}

// Touch queues an activity refresh without blocking. It reports false when
// the buffer is full; the next event in the room will refresh it again.
func (b *ActivityBatcher) Touch(roomId string, at time.Time) bool {
	select {
	case b.UpdateCh <- ActivityUpdate{RoomId: roomId, At: at}:
		return true
	default:
		return false
	}
}

func (b *ActivityBatcher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	// roomId -> latest activity time
	pending := make(map[string]time.Time)
	var inflight sync.WaitGroup

	flush := func() {
		for roomId, at := range pending {
			inflight.Add(1)
			go func(roomId string, at time.Time) {
				defer inflight.Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				err := b.whiteboardStore.TouchRoom(ctx, roomId, at)
				if err != nil && !errors.Is(err, store.ErrConditionFailed) {
					logrus.WithError(err).WithField("room_id", roomId).Warn("Failed to update room last activity")
				}
			}(roomId, at)
		}
		pending = make(map[string]time.Time)
	}

	for {
		select {
		case update := <-b.UpdateCh:
			if update.At.After(pending[update.RoomId]) {
				pending[update.RoomId] = update.At
			}
			if len(pending) >= b.maxPending {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-shutdownCtx.Done():
			// Drain what is already buffered before the final flush
		drain:
			for {
				select {
				case update := <-b.UpdateCh:
					if update.At.After(pending[update.RoomId]) {
						pending[update.RoomId] = update.At
					}
				default:
					break drain
				}
			}
			flush()
			inflight.Wait()
			return
		}
	}
}
