package dynamo

import (
	"time"

	"github.com/bishal292/whiteboard/models"
)

// A room is one partition: the metadata item at SK "ROOM" plus one item per
// drawing event at SK "EVT#<event id>". Event ids are UUIDv7, so sort key
// order is log order.
const (
	roomSortKey        = "ROOM"
	eventSortKeyPrefix = "EVT#"
)

func buildRoomPK(roomId string) string {
	return "ROOM#" + roomId
}

func buildEventSK(eventId string) string {
	return eventSortKeyPrefix + eventId
}

type dynamoRoom struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	RoomId       string `dynamodbav:"RoomId"`
	CreatedAt    int64  `dynamodbav:"CreatedAt"`
	LastActivity int64  `dynamodbav:"LastActivity"`
	ExpiresAt    int64  `dynamodbav:"ExpiresAt"` // TTL attribute, unix seconds
}

type dynamoEvent struct {
	PK           string   `dynamodbav:"PK"`
	SK           string   `dynamodbav:"SK"`
	Id           string   `dynamodbav:"Id"`
	Type         string   `dynamodbav:"Type"`
	ConnectionId string   `dynamodbav:"ConnectionId"`
	X            *float64 `dynamodbav:"X,omitempty"`
	Y            *float64 `dynamodbav:"Y,omitempty"`
	Color        string   `dynamodbav:"Color,omitempty"`
	StrokeWidth  int      `dynamodbav:"StrokeWidth,omitempty"`
	Tool         string   `dynamodbav:"Tool,omitempty"`
	Timestamp    int64    `dynamodbav:"Timestamp"` // unix ms
	ExpiresAt    int64    `dynamodbav:"ExpiresAt"`
}

// Map domain Room -> Dynamo. The drawing log is stored as separate items.
func roomToDynamo(r models.Room) dynamoRoom {
	return dynamoRoom{
		PK:           buildRoomPK(r.Id),
		SK:           roomSortKey,
		RoomId:       r.Id,
		CreatedAt:    r.CreatedAt.UnixMilli(),
		LastActivity: r.LastActivity.UnixMilli(),
		ExpiresAt:    r.ExpiresAt.Unix(),
	}
}

// Map Dynamo -> domain Room. Events older than the room itself belong to an
// expired room of the same id whose items have not been reaped yet.
func roomFromDynamo(dr dynamoRoom, des []dynamoEvent) models.Room {
	events := make([]models.DrawingEvent, 0, len(des))
	for _, de := range des {
		if de.Timestamp < dr.CreatedAt {
			continue
		}
		events = append(events, eventFromDynamo(de))
	}

	return models.Room{
		Id:           dr.RoomId,
		CreatedAt:    time.UnixMilli(dr.CreatedAt).UTC(),
		LastActivity: time.UnixMilli(dr.LastActivity).UTC(),
		ExpiresAt:    time.Unix(dr.ExpiresAt, 0).UTC(),
		DrawingData:  events,
	}
}

func eventToDynamo(roomId string, e models.DrawingEvent, expiresAt time.Time) dynamoEvent {
	de := dynamoEvent{
		PK:           buildRoomPK(roomId),
		SK:           buildEventSK(e.Id),
		Id:           e.Id,
		Type:         string(e.Type),
		ConnectionId: e.ConnectionId,
		Color:        e.Color,
		StrokeWidth:  e.StrokeWidth,
		Tool:         string(e.Tool),
		Timestamp:    e.Timestamp.UnixMilli(),
		ExpiresAt:    expiresAt.Unix(),
	}
	if e.Point != nil {
		x, y := e.Point.X, e.Point.Y
		de.X = &x
		de.Y = &y
	}
	return de
}

func eventFromDynamo(de dynamoEvent) models.DrawingEvent {
	e := models.DrawingEvent{
		Id:           de.Id,
		Type:         models.EventKind(de.Type),
		ConnectionId: de.ConnectionId,
		Color:        de.Color,
		StrokeWidth:  de.StrokeWidth,
		Tool:         models.Tool(de.Tool),
		Timestamp:    time.UnixMilli(de.Timestamp).UTC(),
	}
	if de.X != nil && de.Y != nil {
		e.Point = &models.Point{X: *de.X, Y: *de.Y}
	}
	return e
}
