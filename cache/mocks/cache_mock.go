package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AppendEvent(ctx context.Context, roomId string, eventData []byte) error {
	args := m.Called(ctx, roomId, eventData)
	return args.Error(0)
}

func (m *MockCache) SetRoomEvents(ctx context.Context, roomId string, events [][]byte) error {
	args := m.Called(ctx, roomId, events)
	return args.Error(0)
}

func (m *MockCache) GetEvents(ctx context.Context, roomId string) ([][]byte, error) {
	args := m.Called(ctx, roomId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]byte), args.Error(1)
}

func (m *MockCache) IsRoomComplete(ctx context.Context, roomId string) (bool, error) {
	args := m.Called(ctx, roomId)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) InvalidateRooms(ctx context.Context, roomIds []string) error {
	args := m.Called(ctx, roomIds)
	return args.Error(0)
}
