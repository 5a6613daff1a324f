package client

import (
	"sort"
	"sync"
	"time"
)

// CursorTTL is how long a cursor stays visible without an update.
const CursorTTL = 5 * time.Second

type Cursor struct {
	ConnectionId string
	X            float64
	Y            float64
	SeenAt       time.Time
}

// CursorTracker keeps the latest position per connection. Positions older
// than CursorTTL are dropped when read.
type CursorTracker struct {
	mu      sync.Mutex
	cursors map[string]Cursor
	now     func() time.Time
}

func NewCursorTracker() *CursorTracker {
	return &CursorTracker{
		cursors: make(map[string]Cursor),
		now:     time.Now,
	}
}

func (t *CursorTracker) Update(connectionId string, x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursors[connectionId] = Cursor{ConnectionId: connectionId, X: x, Y: y, SeenAt: t.now()}
}

func (t *CursorTracker) Remove(connectionId string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cursors, connectionId)
}

// Active returns the live cursors ordered by connection id.
func (t *CursorTracker) Active() []Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-CursorTTL)
	active := make([]Cursor, 0, len(t.cursors))
	for id, cursor := range t.cursors {
		if cursor.SeenAt.Before(cutoff) {
			delete(t.cursors, id)
			continue
		}
		active = append(active, cursor)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ConnectionId < active[j].ConnectionId })
	return active
}
