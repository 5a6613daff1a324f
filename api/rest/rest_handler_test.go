package rest_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bishal292/whiteboard/api/rest"
	cachemocks "github.com/bishal292/whiteboard/cache/mocks"
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

func newMux(mockStore *storemocks.MockStore) *http.ServeMux {
	mockCache := new(cachemocks.MockCache)
	mockCache.On("InvalidateRooms", mock.Anything, mock.Anything).Return(nil).Maybe()
	svc := service.NewService(mockStore, mockCache, new(mqmocks.MockMQ), worker.NewActivityBatcher(mockStore, time.Hour), 0)
	handler := rest.NewHandler(svc)

	mux := http.NewServeMux()
	mux.Handle("/api/rooms/join", rest.WithCORS("*", http.HandlerFunc(handler.HandleJoinRoom)))
	mux.Handle("/api/rooms/{roomId}", rest.WithCORS("*", http.HandlerFunc(handler.HandleGetRoom)))
	return mux
}

func TestHandleJoinRoom(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mockStore.On("EnsureRoom", mock.Anything, mock.MatchedBy(func(room models.Room) bool {
		return room.Id == "ABC123"
	})).Return(models.Room{Id: "ABC123", CreatedAt: created, LastActivity: created}, true, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/join", strings.NewReader(`{"roomId":" ABC123 "}`))
	newMux(mockStore).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ABC123", resp["roomId"])
	assert.Equal(t, "2026-01-02T03:04:05Z", resp["createdAt"])
	assert.Contains(t, resp, "lastActivity")
}

func TestHandleJoinRoom_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"invalid id", http.MethodPost, `{"roomId":"ab"}`, http.StatusBadRequest},
		{"missing id", http.MethodPost, `{}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(storemocks.MockStore)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/api/rooms/join", strings.NewReader(tt.body))
			newMux(mockStore).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			mockStore.AssertNotCalled(t, "EnsureRoom", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleJoinRoom_StoreFailure(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	mockStore.On("EnsureRoom", mock.Anything, mock.Anything).Return(models.Room{}, false, errors.New("throttled"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/join", strings.NewReader(`{"roomId":"ABC123"}`))
	newMux(mockStore).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleGetRoom(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	mockStore.On("GetRoom", mock.Anything, "ABC123").Return(models.Room{
		Id: "ABC123",
		DrawingData: []models.DrawingEvent{
			{Id: "e1", Type: models.EventClear, ConnectionId: "c1"},
		},
	}, nil)

	rec := httptest.NewRecorder()
	newMux(mockStore).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/ABC123", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var room models.Room
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))
	assert.Equal(t, "ABC123", room.Id)
	require.Len(t, room.DrawingData, 1)
	assert.Equal(t, models.EventClear, room.DrawingData[0].Type)
}

func TestHandleGetRoom_NotFound(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	mockStore.On("GetRoom", mock.Anything, "ZZZ999").Return(models.Room{}, store.ErrItemNotFound)

	rec := httptest.NewRecorder()
	newMux(mockStore).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/ZZZ999", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"not found"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	newMux(new(storemocks.MockStore)).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/rooms/join", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}
