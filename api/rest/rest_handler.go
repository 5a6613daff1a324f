package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/service"
	"github.com/sirupsen/logrus"
)

type RoomService interface {
	JoinOrCreateRoom(ctx context.Context, roomId string) (models.Room, error)
	GetRoom(ctx context.Context, roomId string) (models.Room, error)
}

type Handler struct {
	Service RoomService
}

func NewHandler(svc RoomService) *Handler {
	return &Handler{Service: svc}
}

type joinRoomRequest struct {
	RoomId string `json:"roomId"`
}

type joinRoomResponse struct {
	RoomId       string    `json:"roomId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

type errorResponse struct {
	Msg string `json:"msg"`
}

func (h *Handler) HandleJoinRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.Service.JoinOrCreateRoom(r.Context(), req.RoomId)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRoomId) || errors.Is(err, service.ErrRoomIdMissing) {
			h.sendError(w, http.StatusBadRequest, err.Error())
			return
		}
		logrus.WithError(err).WithField("room_id", req.RoomId).Error("Join room failed")
		h.sendError(w, http.StatusInternalServerError, "failed to join room")
		return
	}

	resp := joinRoomResponse{
		RoomId:       room.Id,
		CreatedAt:    room.CreatedAt,
		LastActivity: room.LastActivity,
	}
	h.sendResponse(w, resp)
}

// HandleGetRoom serves the full room document, drawing log included.
func (h *Handler) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	roomId := r.PathValue("roomId")
	room, err := h.Service.GetRoom(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			h.sendError(w, http.StatusNotFound, "not found")
			return
		}
		logrus.WithError(err).WithField("room_id", roomId).Error("Get room failed")
		h.sendError(w, http.StatusInternalServerError, "failed to load room")
		return
	}

	h.sendResponse(w, room)
}

// WithCORS allows browser clients served from allowedOrigin to call the API.
func WithCORS(allowedOrigin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) sendError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Msg: msg})
}
