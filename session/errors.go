package session

import "errors"

var (
	ErrMissingRoomId     = errors.New("roomId required")
	ErrRoomNotFound      = errors.New("room not found")
	ErrPersistence       = errors.New("failed to save drawing")
	ErrNotInRoom         = errors.New("not in room")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrConnectionExists  = errors.New("connection already registered")
	ErrInvalidEvent      = errors.New("invalid event")
)
