package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/protocol"
	"github.com/bishal292/whiteboard/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRoom(t *testing.T, opts ...session.Option) (*session.Engine, *fakeHistory, *fakeConn, *fakeConn) {
	t.Helper()
	ctx := context.Background()
	history := newHistory("ABC123")
	engine := session.NewEngine(history, opts...)

	c1, c2 := newConn("c1"), newConn("c2")
	require.NoError(t, engine.Connect(c1))
	require.NoError(t, engine.Connect(c2))
	_, err := engine.Join(ctx, "c1", "ABC123", defaultAttrs)
	require.NoError(t, err)
	_, err = engine.Join(ctx, "c2", "ABC123", defaultAttrs)
	require.NoError(t, err)
	c1.reset()
	c2.reset()
	return engine, history, c1, c2
}

func TestRecord_OrderFidelity(t *testing.T) {
	ctx := context.Background()
	engine, history, c1, c2 := setupRoom(t)

	require.NoError(t, engine.RecordStrokeStart(ctx, "c1", "ABC123", models.Point{X: 1, Y: 1}, defaultAttrs))
	for i := 2; i <= 6; i++ {
		require.NoError(t, engine.RecordStrokeMove(ctx, "c1", "ABC123", models.Point{X: float64(i), Y: float64(i)}))
	}
	require.NoError(t, engine.RecordStrokeEnd(ctx, "c1", ""))

	logged := history.log("ABC123")
	received := c2.messages()
	require.Len(t, logged, 7)
	require.Len(t, received, 7)

	kinds := map[string]models.EventKind{
		protocol.TypeDrawStart: models.EventStrokeStart,
		protocol.TypeDrawMove:  models.EventStrokeMove,
		protocol.TypeDrawEnd:   models.EventStrokeEnd,
	}
	for i, msg := range received {
		assert.Equal(t, logged[i].Type, kinds[msg.Type], "event %d", i)
		if msg.Type == protocol.TypeDrawMove {
			move := decodeData[protocol.StrokeMoveData](t, msg)
			assert.Equal(t, "c1", move.ConnectionId)
			assert.Equal(t, logged[i].Point.X, move.X)
		}
	}

	// strokes never echo back to the sender
	assert.Empty(t, c1.messages())
	assert.Equal(t, 7, history.touchCount("ABC123"))
}

func TestRecord_StrokeStartCarriesAttributes(t *testing.T) {
	engine, history, _, c2 := setupRoom(t)

	attrs := models.DrawAttributes{Color: "#00FF00", StrokeWidth: 7, Tool: models.ToolPen}
	require.NoError(t, engine.RecordStrokeStart(context.Background(), "c1", "ABC123", models.Point{X: 3, Y: 4}, attrs))

	msgs := c2.messages(protocol.TypeDrawStart)
	require.Len(t, msgs, 1)
	start := decodeData[protocol.StrokeStartData](t, msgs[0])
	assert.Equal(t, protocol.StrokeStartData{ConnectionId: "c1", X: 3, Y: 4, Color: "#00FF00", StrokeWidth: 7, Tool: models.ToolPen}, start)

	logged := history.log("ABC123")
	require.Len(t, logged, 1)
	assert.NotEmpty(t, logged[0].Id)
	assert.False(t, logged[0].Timestamp.IsZero())
}

func TestRecordClear_ReachesSender(t *testing.T) {
	engine, history, c1, c2 := setupRoom(t)

	require.NoError(t, engine.RecordClear(context.Background(), "c1", "ABC123"))

	assert.Len(t, c1.messages(protocol.TypeClearCanvas), 1)
	assert.Len(t, c2.messages(protocol.TypeClearCanvas), 1)

	logged := history.log("ABC123")
	require.Len(t, logged, 1)
	assert.Equal(t, models.EventClear, logged[0].Type)
	assert.Equal(t, "c1", logged[0].ConnectionId)
}

func TestRecord_PersistenceFailureIsNotBroadcast(t *testing.T) {
	ctx := context.Background()
	engine, history, c1, c2 := setupRoom(t)

	history.setAppendErr(errors.New("table unavailable"))
	err := engine.RecordStrokeStart(ctx, "c1", "ABC123", models.Point{X: 1, Y: 1}, defaultAttrs)
	assert.ErrorIs(t, err, session.ErrPersistence)

	err = engine.RecordClear(ctx, "c1", "ABC123")
	assert.ErrorIs(t, err, session.ErrPersistence)

	assert.Empty(t, c1.messages())
	assert.Empty(t, c2.messages())
	assert.Zero(t, history.touchCount("ABC123"))

	// the room keeps working once the store recovers
	history.setAppendErr(nil)
	require.NoError(t, engine.RecordStrokeEnd(ctx, "c1", "ABC123"))
	assert.Len(t, c2.messages(protocol.TypeDrawEnd), 1)
}

func TestRecord_RequiresMembership(t *testing.T) {
	ctx := context.Background()
	engine, history, _, _ := setupRoom(t)
	outsider := newConn("c3")
	require.NoError(t, engine.Connect(outsider))

	err := engine.RecordStrokeMove(ctx, "c3", "ABC123", models.Point{})
	assert.ErrorIs(t, err, session.ErrNotInRoom)

	err = engine.RecordStrokeMove(ctx, "c3", "", models.Point{})
	assert.ErrorIs(t, err, session.ErrNotInRoom)

	err = engine.RecordClear(ctx, "c1", "OTHER1")
	assert.ErrorIs(t, err, session.ErrNotInRoom)

	assert.Empty(t, history.log("ABC123"))
}

func TestRecord_InvalidAttributes(t *testing.T) {
	validator := func(attrs models.DrawAttributes) error {
		if attrs.StrokeWidth > 20 {
			return errors.New("invalid stroke width")
		}
		return nil
	}
	engine, history, _, c2 := setupRoom(t, session.WithAttributeValidator(validator))

	attrs := defaultAttrs
	attrs.StrokeWidth = 50
	err := engine.RecordStrokeStart(context.Background(), "c1", "ABC123", models.Point{}, attrs)
	assert.ErrorIs(t, err, session.ErrInvalidEvent)
	assert.Empty(t, history.log("ABC123"))
	assert.Empty(t, c2.messages())
}

func TestRecord_EmptyRoomTargetsActiveRoom(t *testing.T) {
	ctx := context.Background()
	history := newHistory("ROOMAA", "ROOMBB")
	engine := session.NewEngine(history)
	require.NoError(t, engine.Connect(newConn("c1")))

	_, err := engine.Join(ctx, "c1", "ROOMAA", defaultAttrs)
	require.NoError(t, err)
	_, err = engine.Join(ctx, "c1", "ROOMBB", defaultAttrs)
	require.NoError(t, err)

	active, ok := engine.ActiveRoom("c1")
	require.True(t, ok)
	assert.Equal(t, "ROOMBB", active)

	require.NoError(t, engine.RecordClear(ctx, "c1", ""))
	assert.Empty(t, history.log("ROOMAA"))
	assert.Len(t, history.log("ROOMBB"), 1)

	_, err = engine.Leave("c1", "ROOMBB")
	require.NoError(t, err)
	active, _ = engine.ActiveRoom("c1")
	assert.Equal(t, "ROOMAA", active)
}

func TestRecord_ConcurrentSendersKeepOneOrder(t *testing.T) {
	ctx := context.Background()
	history := newHistory("ABC123")
	engine := session.NewEngine(history)

	observer := newConn("observer")
	require.NoError(t, engine.Connect(observer))
	_, err := engine.Join(ctx, "observer", "ABC123", defaultAttrs)
	require.NoError(t, err)

	const senders, moves = 8, 25
	for i := 0; i < senders; i++ {
		id := fmt.Sprintf("s%d", i)
		require.NoError(t, engine.Connect(newConn(id)))
		_, err := engine.Join(ctx, id, "ABC123", defaultAttrs)
		require.NoError(t, err)
	}
	observer.reset()

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			for j := 0; j < moves; j++ {
				assert.NoError(t, engine.RecordStrokeMove(ctx, id, "ABC123", models.Point{X: float64(j)}))
			}
		}()
	}
	wg.Wait()

	logged := history.log("ABC123")
	received := observer.messages(protocol.TypeDrawMove)
	require.Len(t, logged, senders*moves)
	require.Len(t, received, senders*moves)
	for i, msg := range received {
		move := decodeData[protocol.StrokeMoveData](t, msg)
		assert.Equal(t, logged[i].ConnectionId, move.ConnectionId, "event %d", i)
		assert.Equal(t, logged[i].Point.X, move.X, "event %d", i)
	}
}

func TestRelayCursor_SkipsSenderAndHistory(t *testing.T) {
	engine, history, c1, c2 := setupRoom(t)

	require.NoError(t, engine.RelayCursor("c1", "ABC123", models.Point{X: 5, Y: 6}))

	msgs := c2.messages(protocol.TypeCursorMove)
	require.Len(t, msgs, 1)
	assert.Equal(t, protocol.CursorData{ConnectionId: "c1", X: 5, Y: 6}, decodeData[protocol.CursorData](t, msgs[0]))
	assert.Empty(t, c1.messages())
	assert.Empty(t, history.log("ABC123"))
	assert.Zero(t, history.touchCount("ABC123"))

	assert.ErrorIs(t, engine.RelayCursor("c1", "OTHER1", models.Point{}), session.ErrNotInRoom)
}

func TestRecord_TimestampsComeFromEngineClock(t *testing.T) {
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 123456789, time.FixedZone("UTC+2", 2*60*60))
	engine, history, _, _ := setupRoom(t, session.WithClock(func() time.Time { return fixed }))

	require.NoError(t, engine.RecordClear(context.Background(), "c1", "ABC123"))

	logged := history.log("ABC123")
	require.Len(t, logged, 1)
	assert.Equal(t, fixed.UTC().Truncate(time.Millisecond), logged[0].Timestamp)
	assert.Equal(t, time.UTC, logged[0].Timestamp.Location())
}
