package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorTracker_LatestWinsAndDecays(t *testing.T) {
	now := time.Unix(1000, 0)
	tracker := NewCursorTracker()
	tracker.now = func() time.Time { return now }

	tracker.Update("c2", 1, 1)
	tracker.Update("c1", 2, 2)
	tracker.Update("c2", 3, 4)

	active := tracker.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "c1", active[0].ConnectionId)
	assert.Equal(t, Cursor{ConnectionId: "c2", X: 3, Y: 4, SeenAt: now}, active[1])

	now = now.Add(3 * time.Second)
	tracker.Update("c1", 5, 5)

	now = now.Add(2*time.Second + time.Millisecond)
	active = tracker.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "c1", active[0].ConnectionId)

	tracker.Remove("c1")
	assert.Empty(t, tracker.Active())
}
