package session_test

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/protocol"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id   string
	mu   sync.Mutex
	msgs []protocol.Message
	full bool
}

func newConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	msg, err := protocol.Decode(b)
	if err != nil {
		panic(err)
	}
	c.msgs = append(c.msgs, msg)
	return true
}

func (c *fakeConn) messages(types ...string) []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []protocol.Message
	for _, msg := range c.msgs {
		if len(types) == 0 || slices.Contains(types, msg.Type) {
			out = append(out, msg)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

func decodeData[T any](t *testing.T, msg protocol.Message) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg.Data, &v))
	return v
}

func lastPresence(t *testing.T, c *fakeConn) int {
	t.Helper()
	msgs := c.messages(protocol.TypePresenceUpdate)
	require.NotEmpty(t, msgs)
	return decodeData[protocol.PresenceData](t, msgs[len(msgs)-1]).Count
}

type fakeHistory struct {
	mu        sync.Mutex
	rooms     map[string][]models.DrawingEvent
	appendErr error
	touches   map[string]int
}

func newHistory(rooms ...string) *fakeHistory {
	h := &fakeHistory{
		rooms:   make(map[string][]models.DrawingEvent),
		touches: make(map[string]int),
	}
	for _, room := range rooms {
		h.rooms[room] = nil
	}
	return h
}

func (h *fakeHistory) Snapshot(ctx context.Context, roomId string) ([]models.DrawingEvent, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	events, ok := h.rooms[roomId]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(events), true, nil
}

func (h *fakeHistory) Append(ctx context.Context, roomId string, event models.DrawingEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return h.appendErr
	}
	h.rooms[roomId] = append(h.rooms[roomId], event)
	return nil
}

func (h *fakeHistory) Touch(roomId string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.touches[roomId]++
}

func (h *fakeHistory) setAppendErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appendErr = err
}

func (h *fakeHistory) log(roomId string) []models.DrawingEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.rooms[roomId])
}

func (h *fakeHistory) touchCount(roomId string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.touches[roomId]
}

var defaultAttrs = models.DrawAttributes{Color: "#000000", StrokeWidth: 2, Tool: models.ToolPencil}
