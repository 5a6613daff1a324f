package session

import (
	"slices"
	"sync"
)

// Conn is a live client transport. Send must not block; it reports false when
// the message could not be queued.
type Conn interface {
	ID() string
	Send(msg []byte) bool
}

type connEntry struct {
	conn Conn
	// rooms in join order; the last one is the active room
	rooms []string
}

type registry struct {
	mu    sync.Mutex
	conns map[string]*connEntry
}

func newRegistry() *registry {
	return &registry{conns: make(map[string]*connEntry)}
}

func (r *registry) add(conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID()]; ok {
		return false
	}
	r.conns[conn.ID()] = &connEntry{conn: conn}
	return true
}

// remove forgets the connection and returns the rooms it was still in.
func (r *registry) remove(id string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	delete(r.conns, id)
	return entry.rooms, true
}

func (r *registry) lookup(id string) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return entry.conn, true
}

// joined records the room as the connection's active room. It fails when the
// connection is no longer registered.
func (r *registry) joined(id, roomId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[id]
	if !ok {
		return false
	}
	entry.rooms = slices.DeleteFunc(entry.rooms, func(room string) bool { return room == roomId })
	entry.rooms = append(entry.rooms, roomId)
	return true
}

func (r *registry) left(id, roomId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[id]
	if !ok {
		return
	}
	entry.rooms = slices.DeleteFunc(entry.rooms, func(room string) bool { return room == roomId })
}

func (r *registry) activeRoom(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[id]
	if !ok || len(entry.rooms) == 0 {
		return "", false
	}
	return entry.rooms[len(entry.rooms)-1], true
}

func (r *registry) roomsOf(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[id]
	if !ok {
		return nil
	}
	return slices.Clone(entry.rooms)
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
