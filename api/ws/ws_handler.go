package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/protocol"
	"github.com/bishal292/whiteboard/service"
	"github.com/bishal292/whiteboard/session"
	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Engine *session.Engine
}

func NewHandler(engine *session.Engine) *Handler {
	return &Handler{Engine: engine}
}

// NewWsUpgrader accepts only the configured origin; "*" accepts any.
func (h *Handler) NewWsUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
}

// ServeWS handles websocket requests from the peer.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("Failed to upgrade ws connection")
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		logrus.WithError(err).Error("Failed to generate connection id")
		conn.Close()
		return
	}

	client := NewClient(id.String(), conn, h.HandleWsMessage, h.handleClose)
	if err := h.Engine.Connect(client); err != nil {
		client.log.WithError(err).Error("Failed to register connection")
		conn.Close()
		return
	}

	// Start pumps
	go client.ReadPump()
	go client.WritePump(shutdownCtx)

	client.Send(protocol.Encode(protocol.TypeConnected, protocol.ConnectedData{ConnectionId: client.ID()}))
}

func (h *Handler) handleClose(client *Client) {
	results := h.Engine.Disconnect(client.ID())
	client.log.WithField("rooms", len(results)).Info("Connection closed")
}

func (h *Handler) HandleWsMessage(client *Client, messageBytes []byte) {
	msg, err := protocol.Decode(messageBytes)
	if err != nil {
		client.log.WithError(err).Debug("Invalid JSON")
		sendError(client, "invalid message")
		return
	}

	switch msg.Type {
	case protocol.TypeJoinRoom:
		var data protocol.JoinRoomData
		if !decode(client, msg, &data) {
			return
		}
		h.handleJoin(client, data)

	case protocol.TypeLeaveRoom:
		var data protocol.LeaveRoomData
		if !decode(client, msg, &data) {
			return
		}
		h.handleLeave(client, data)

	case protocol.TypeDrawStart:
		var data protocol.DrawStartData
		if !decode(client, msg, &data) {
			return
		}
		attrs := models.DrawAttributes{Color: data.Color, StrokeWidth: data.StrokeWidth, Tool: data.Tool}
		if attrs.Color == "" {
			attrs.Color = service.DefaultColor
		}
		if attrs.StrokeWidth == 0 {
			attrs.StrokeWidth = service.DefaultStrokeWidth
		}
		if attrs.Tool == "" {
			attrs.Tool = service.DefaultTool
		}
		err = h.Engine.RecordStrokeStart(client.Context(), client.ID(), data.RoomId, models.Point{X: data.X, Y: data.Y}, attrs)

	case protocol.TypeDrawMove:
		var data protocol.PointData
		if !decode(client, msg, &data) {
			return
		}
		err = h.Engine.RecordStrokeMove(client.Context(), client.ID(), data.RoomId, models.Point{X: data.X, Y: data.Y})

	case protocol.TypeDrawEnd:
		var data protocol.RoomData
		if !decode(client, msg, &data) {
			return
		}
		err = h.Engine.RecordStrokeEnd(client.Context(), client.ID(), data.RoomId)

	case protocol.TypeClearCanvas:
		var data protocol.RoomData
		if !decode(client, msg, &data) {
			return
		}
		err = h.Engine.RecordClear(client.Context(), client.ID(), data.RoomId)

	case protocol.TypeCursorMove:
		var data protocol.PointData
		if !decode(client, msg, &data) {
			return
		}
		// cursor updates are never acknowledged
		if err := h.Engine.RelayCursor(client.ID(), data.RoomId, models.Point{X: data.X, Y: data.Y}); err != nil {
			client.log.WithError(err).Debug("Cursor not relayed")
		}

	default:
		client.log.WithField("type", msg.Type).Debug("Unknown message type")
		sendError(client, "unknown message type")
	}

	if err != nil {
		sendError(client, errorMessage(err))
	}
}

func (h *Handler) handleJoin(client *Client, data protocol.JoinRoomData) {
	roomId, err := service.NormalizeRoomId(data.RoomId)
	if err != nil {
		sendError(client, err.Error())
		return
	}

	attrs, err := service.PartialDrawAttributes{
		Color:       data.Color,
		StrokeWidth: data.StrokeWidth,
		Tool:        data.Tool,
	}.Resolve()
	if err != nil {
		sendError(client, err.Error())
		return
	}

	if _, err := h.Engine.Join(client.Context(), client.ID(), roomId, attrs); err != nil {
		client.log.WithError(err).WithField("room_id", roomId).Info("Join rejected")
		sendError(client, errorMessage(err))
	}
}

func (h *Handler) handleLeave(client *Client, data protocol.LeaveRoomData) {
	res, err := h.Engine.Leave(client.ID(), data.RoomId)
	if err != nil {
		sendError(client, errorMessage(err))
		return
	}
	client.Send(protocol.Encode(protocol.TypeLeaveRoom, protocol.LeaveAckData{Status: "ok", RoomId: res.RoomId}))
}

func decode(client *Client, msg protocol.Message, v any) bool {
	data := msg.Data
	if len(data) == 0 || string(data) == "null" {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		client.log.WithError(err).WithField("type", msg.Type).Debug("Invalid message data")
		sendError(client, "invalid "+msg.Type+" data")
		return false
	}
	return true
}

// errorMessage maps engine failures to what the sender is told. Store
// details never leave the server.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrPersistence):
		return session.ErrPersistence.Error()
	case errors.Is(err, session.ErrInvalidEvent),
		errors.Is(err, session.ErrMissingRoomId),
		errors.Is(err, session.ErrRoomNotFound),
		errors.Is(err, session.ErrNotInRoom):
		return err.Error()
	default:
		return "internal error"
	}
}

func sendError(client *Client, message string) {
	client.Send(protocol.Encode(protocol.TypeError, protocol.ErrorData{Message: message}))
}
