package mocks

import (
	"context"
	"time"

	"github.com/bishal292/whiteboard/models"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) EnsureRoom(ctx context.Context, room models.Room) (models.Room, bool, error) {
	args := m.Called(ctx, room)
	return args.Get(0).(models.Room), args.Bool(1), args.Error(2)
}

func (m *MockStore) GetRoom(ctx context.Context, roomId string) (models.Room, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *MockStore) GetRoomMeta(ctx context.Context, roomId string) (models.Room, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *MockStore) AppendEvent(ctx context.Context, roomId string, event models.DrawingEvent) error {
	args := m.Called(ctx, roomId, event)
	return args.Error(0)
}

func (m *MockStore) TouchRoom(ctx context.Context, roomId string, at time.Time) error {
	args := m.Called(ctx, roomId, at)
	return args.Error(0)
}
