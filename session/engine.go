package session

import (
	"sync"
	"time"

	"github.com/bishal292/whiteboard/models"
	"github.com/sirupsen/logrus"
)

// Engine owns every live room session and the connection registry. All
// membership and ordering state is reachable only through its methods.
type Engine struct {
	history  History
	registry *registry

	mu    sync.Mutex
	rooms map[string]*roomSession

	onRoomClosed  func(roomId string)
	validateAttrs func(models.DrawAttributes) error
	now           func() time.Time
	log           *logrus.Entry
}

// Option configures an Engine in NewEngine.
type Option func(*Engine)

// WithRoomClosedHook registers fn to run after a room's last member leaves.
func WithRoomClosedHook(fn func(roomId string)) Option {
	return func(e *Engine) { e.onRoomClosed = fn }
}

// WithAttributeValidator checks the attributes carried by stroke-start.
func WithAttributeValidator(fn func(models.DrawAttributes) error) Option {
	return func(e *Engine) { e.validateAttrs = fn }
}

// WithClock replaces the time source for event timestamps and join times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(history History, opts ...Option) *Engine {
	e := &Engine{
		history:  history,
		registry: newRegistry(),
		rooms:    make(map[string]*roomSession),
		now:      time.Now,
		log:      logrus.WithField("component", "session"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connect registers a new transport connection.
func (e *Engine) Connect(conn Conn) error {
	if !e.registry.add(conn) {
		return ErrConnectionExists
	}
	e.log.WithField("connection_id", conn.ID()).Debug("Connection registered")
	return nil
}

// acquire returns the room's session with its lock held. With create set a
// missing session is made; otherwise nil is returned for a room with no live
// session.
func (e *Engine) acquire(roomId string, create bool) *roomSession {
	e.mu.Lock()
	rs, ok := e.rooms[roomId]
	if !ok {
		if !create {
			e.mu.Unlock()
			return nil
		}
		rs = newRoomSession(roomId)
		e.rooms[roomId] = rs
	}
	rs.refs++
	e.mu.Unlock()

	rs.mu.Lock()
	return rs
}

// release unlocks the session and tears it down when nobody holds or waits
// on it and it has no members left.
func (e *Engine) release(rs *roomSession) {
	rs.mu.Unlock()

	e.mu.Lock()
	rs.refs--
	closed := false
	if rs.refs == 0 && rs.count() == 0 {
		delete(e.rooms, rs.id)
		closed = rs.opened
	}
	e.mu.Unlock()

	if closed {
		e.log.WithField("room_id", rs.id).Info("Room session closed")
		if e.onRoomClosed != nil {
			e.onRoomClosed(rs.id)
		}
	}
}

func (e *Engine) lookupSession(roomId string) *roomSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rooms[roomId]
}

type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	rooms := len(e.rooms)
	e.mu.Unlock()

	return Stats{Rooms: rooms, Connections: e.registry.count()}
}

// MemberCount is the number of live members of a room, zero when the room
// has no session.
func (e *Engine) MemberCount(roomId string) int {
	rs := e.lookupSession(roomId)
	if rs == nil {
		return 0
	}
	return rs.count()
}

// HasSession reports whether the room currently has a live session entry.
func (e *Engine) HasSession(roomId string) bool {
	return e.lookupSession(roomId) != nil
}

// ActiveRoom is the room a connection joined most recently and still belongs to.
func (e *Engine) ActiveRoom(connectionId string) (string, bool) {
	return e.registry.activeRoom(connectionId)
}

// Rooms lists the rooms a connection belongs to, in join order.
func (e *Engine) Rooms(connectionId string) []string {
	return e.registry.roomsOf(connectionId)
}
