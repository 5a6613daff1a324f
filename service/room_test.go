package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bishal292/whiteboard/cache/mocks"
	"github.com/bishal292/whiteboard/models"
	mqmocks "github.com/bishal292/whiteboard/mq/mocks"
	"github.com/bishal292/whiteboard/service"
	"github.com/bishal292/whiteboard/store"
	storemocks "github.com/bishal292/whiteboard/store/mocks"
	"github.com/bishal292/whiteboard/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     *service.Service
	store   *storemocks.MockStore
	cache   *mocks.MockCache
	queue   *mqmocks.MockMQ
	batcher *worker.ActivityBatcher
}

func newFixture() fixture {
	mockStore := new(storemocks.MockStore)
	mockCache := new(mocks.MockCache)
	mockQueue := new(mqmocks.MockMQ)
	batcher := worker.NewActivityBatcher(mockStore, time.Hour)
	return fixture{
		svc:     service.NewService(mockStore, mockCache, mockQueue, batcher, 0),
		store:   mockStore,
		cache:   mockCache,
		queue:   mockQueue,
		batcher: batcher,
	}
}

func TestJoinOrCreateRoom_CreatesWithRetention(t *testing.T) {
	f := newFixture()

	f.store.On("EnsureRoom", mock.Anything, mock.MatchedBy(func(room models.Room) bool {
		return room.Id == "ABC123" &&
			room.ExpiresAt.Sub(room.CreatedAt) == service.DefaultRoomRetention &&
			room.LastActivity.Equal(room.CreatedAt) &&
			len(room.DrawingData) == 0
	})).Return(models.Room{Id: "ABC123"}, true, nil)
	f.cache.On("InvalidateRooms", mock.Anything, []string{"ABC123"}).Return(nil)

	room, err := f.svc.JoinOrCreateRoom(context.Background(), " ABC123 ")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", room.Id)
	f.store.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestJoinOrCreateRoom_ExistingRoomKeepsCache(t *testing.T) {
	f := newFixture()
	f.store.On("EnsureRoom", mock.Anything, mock.Anything).Return(models.Room{Id: "ABC123"}, false, nil)

	_, err := f.svc.JoinOrCreateRoom(context.Background(), "ABC123")
	require.NoError(t, err)
	f.cache.AssertNotCalled(t, "InvalidateRooms", mock.Anything, mock.Anything)
}

func TestJoinOrCreateRoom_RecreatedRoomDropsOldCachedLog(t *testing.T) {
	f := newFixture()
	recreatedAt := time.UnixMilli(1800000000000).UTC()
	oldLog := encodeAll(t, sampleEvents())

	// the previous room of this id expired with a complete cached log
	f.store.On("EnsureRoom", mock.Anything, mock.Anything).Return(models.Room{Id: "ABC123", CreatedAt: recreatedAt}, true, nil)
	f.cache.On("InvalidateRooms", mock.Anything, []string{"ABC123"}).Return(nil).Once()

	_, err := f.svc.JoinOrCreateRoom(context.Background(), "ABC123")
	require.NoError(t, err)
	f.cache.AssertExpectations(t)

	// invalidation lost: the stale log is still detected by its age
	f.cache.On("IsRoomComplete", mock.Anything, "ABC123").Return(true, nil)
	f.cache.On("GetEvents", mock.Anything, "ABC123").Return(oldLog, nil)
	f.cache.On("InvalidateRooms", mock.Anything, []string{"ABC123"}).Return(nil).Once()
	f.store.On("GetRoomMeta", mock.Anything, "ABC123").Return(models.Room{Id: "ABC123", CreatedAt: recreatedAt}, nil)
	f.store.On("GetRoom", mock.Anything, "ABC123").Return(models.Room{Id: "ABC123", CreatedAt: recreatedAt}, nil)
	f.cache.On("SetRoomEvents", mock.Anything, "ABC123", [][]byte{}).Return(nil)

	events, found, err := f.svc.Snapshot(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, events)
	f.cache.AssertNumberOfCalls(t, "InvalidateRooms", 2)
}

func TestJoinOrCreateRoom_InvalidIdTouchesNothing(t *testing.T) {
	f := newFixture()

	_, err := f.svc.JoinOrCreateRoom(context.Background(), "no!")
	assert.ErrorIs(t, err, service.ErrInvalidRoomId)
	f.store.AssertNotCalled(t, "EnsureRoom", mock.Anything, mock.Anything)
}

func TestGetRoom_NotFound(t *testing.T) {
	f := newFixture()
	f.store.On("GetRoom", mock.Anything, "ABC123").Return(models.Room{}, store.ErrItemNotFound)

	_, err := f.svc.GetRoom(context.Background(), "ABC123")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
}

func TestGetRoom_StoreErrorPropagates(t *testing.T) {
	f := newFixture()
	f.store.On("GetRoom", mock.Anything, "ABC123").Return(models.Room{}, errors.New("throttled"))

	_, err := f.svc.GetRoom(context.Background(), "ABC123")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrRoomNotFound)
}

func TestGetRoom_NilLogBecomesEmpty(t *testing.T) {
	f := newFixture()
	f.store.On("GetRoom", mock.Anything, "ABC123").Return(models.Room{Id: "ABC123"}, nil)

	room, err := f.svc.GetRoom(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.NotNil(t, room.DrawingData)
	assert.Empty(t, room.DrawingData)
}
