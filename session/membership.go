package session

import (
	"sync"
	"time"

	"github.com/bishal292/whiteboard/models"
)

type member struct {
	conn     Conn
	attrs    models.DrawAttributes
	joinedAt time.Time
}

// roomSession is the live, in-memory side of a room. mu serializes every
// membership change and every append-then-broadcast for the room. membersMu
// only guards the member map so cursor relay can read it without waiting
// behind a slow append.
type roomSession struct {
	id string
	mu sync.Mutex

	membersMu sync.RWMutex
	members   map[string]*member

	// refs is guarded by Engine.mu. opened is set under mu and read by the
	// last releaser.
	refs   int
	opened bool
}

func newRoomSession(id string) *roomSession {
	return &roomSession{
		id:      id,
		members: make(map[string]*member),
	}
}

// addMember inserts or refreshes a member and returns true on first join.
func (rs *roomSession) addMember(conn Conn, attrs models.DrawAttributes, at time.Time) bool {
	rs.membersMu.Lock()
	defer rs.membersMu.Unlock()

	if m, ok := rs.members[conn.ID()]; ok {
		m.conn = conn
		m.attrs = attrs
		return false
	}
	rs.members[conn.ID()] = &member{conn: conn, attrs: attrs, joinedAt: at}
	return true
}

func (rs *roomSession) removeMember(id string) bool {
	rs.membersMu.Lock()
	defer rs.membersMu.Unlock()

	if _, ok := rs.members[id]; !ok {
		return false
	}
	delete(rs.members, id)
	return true
}

func (rs *roomSession) hasMember(id string) bool {
	rs.membersMu.RLock()
	defer rs.membersMu.RUnlock()
	_, ok := rs.members[id]
	return ok
}

func (rs *roomSession) count() int {
	rs.membersMu.RLock()
	defer rs.membersMu.RUnlock()
	return len(rs.members)
}

func (rs *roomSession) attributes() map[string]models.DrawAttributes {
	rs.membersMu.RLock()
	defer rs.membersMu.RUnlock()

	attrs := make(map[string]models.DrawAttributes, len(rs.members))
	for id, m := range rs.members {
		attrs[id] = m.attrs
	}
	return attrs
}

// broadcast queues msg on every member except the one with id exclude. An
// empty exclude reaches everyone. It returns the ids whose send buffers were
// full.
func (rs *roomSession) broadcast(msg []byte, exclude string) []string {
	rs.membersMu.RLock()
	defer rs.membersMu.RUnlock()

	var dropped []string
	for id, m := range rs.members {
		if id == exclude {
			continue
		}
		if !m.conn.Send(msg) {
			dropped = append(dropped, id)
		}
	}
	return dropped
}
