package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bishal292/whiteboard/models"
	"github.com/bishal292/whiteboard/store"
)

type DynamoWhiteboardStore struct {
	client    *dynamodb.Client
	tableName string
	// eventRetention is how long an event item lives after it is written.
	// It matches the room retention, so events never expire before their room.
	eventRetention time.Duration
	now            func() time.Time
}

// NewDynamoWhiteboardStore connects to DynamoDB and checks the rooms table.
// In dev mode a missing table is created.
func NewDynamoWhiteboardStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string, retention time.Duration) (*DynamoWhiteboardStore, error) {
	if retention <= 0 {
		return nil, errors.New("room retention must be positive")
	}

	client, err := newDynamoDBClient(ctx, devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	if err := ensureTable(ctx, client, tableName, devMode); err != nil {
		return nil, err
	}

	return &DynamoWhiteboardStore{
		client:         client,
		tableName:      tableName,
		eventRetention: retention,
		now:            time.Now,
	}, nil
}

// EnsureRoom creates the room metadata item if it does not exist yet, or
// replaces it when the stored room has expired. An existing live room is
// returned untouched; the bool reports whether a room was created.
func (dynamoStore *DynamoWhiteboardStore) EnsureRoom(ctx context.Context, room models.Room) (models.Room, bool, error) {
	err := dynamoStore.putRoom(ctx, roomToDynamo(room), "attribute_not_exists(PK)", nil)
	if err == nil {
		return room, true, nil
	}
	if !errors.Is(err, store.ErrConditionFailed) {
		return models.Room{}, false, err
	}

	dr, err := dynamoStore.readRoom(ctx, room.Id)
	if err != nil {
		return models.Room{}, false, err
	}

	existing := roomFromDynamo(dr, nil)
	if !existing.Expired(dynamoStore.now()) {
		return existing, false, nil
	}

	// TTL deletion is lazy. Replace the expired item unless another caller
	// already did.
	err = dynamoStore.putRoom(ctx, roomToDynamo(room), "attribute_not_exists(PK) OR ExpiresAt = :expiresAt", map[string]types.AttributeValue{
		":expiresAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(dr.ExpiresAt, 10)},
	})
	if err == nil {
		return room, true, nil
	}
	if !errors.Is(err, store.ErrConditionFailed) {
		return models.Room{}, false, err
	}

	dr, err = dynamoStore.readRoom(ctx, room.Id)
	if err != nil {
		return models.Room{}, false, err
	}
	return roomFromDynamo(dr, nil), false, nil
}

// GetRoom reads the whole room partition in one paginated query and returns
// the room with its ordered log.
func (dynamoStore *DynamoWhiteboardStore) GetRoom(ctx context.Context, roomId string) (models.Room, error) {
	dr, events, err := dynamoStore.queryRoomPartition(ctx, roomId)
	if err != nil {
		return models.Room{}, err
	}
	if dr == nil {
		return models.Room{}, store.ErrItemNotFound
	}

	room := roomFromDynamo(*dr, events)
	if room.Expired(dynamoStore.now()) {
		return models.Room{}, store.ErrItemNotFound
	}
	return room, nil
}

// GetRoomMeta reads only the room metadata item.
func (dynamoStore *DynamoWhiteboardStore) GetRoomMeta(ctx context.Context, roomId string) (models.Room, error) {
	dr, err := dynamoStore.readRoom(ctx, roomId)
	if err != nil {
		return models.Room{}, err
	}

	room := roomFromDynamo(dr, nil)
	if room.Expired(dynamoStore.now()) {
		return models.Room{}, store.ErrItemNotFound
	}
	return room, nil
}

// AppendEvent writes one event item into the room's partition. The write is
// a transaction conditioned on the room being present and unexpired, so a
// room past its retention never gains events.
func (dynamoStore *DynamoWhiteboardStore) AppendEvent(ctx context.Context, roomId string, event models.DrawingEvent) error {
	item, err := attributevalue.MarshalMap(eventToDynamo(roomId, event, event.Timestamp.Add(dynamoStore.eventRetention)))
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	_, err = dynamoStore.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				ConditionCheck: &types.ConditionCheck{
					TableName:           aws.String(dynamoStore.tableName),
					Key:                 roomKey(roomId),
					ConditionExpression: aws.String("attribute_exists(PK) AND ExpiresAt > :now"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(dynamoStore.now().Unix(), 10)},
					},
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(dynamoStore.tableName),
					Item:      item,
				},
			},
		},
	})
	if err == nil {
		return nil
	}

	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) && len(canceled.CancellationReasons) > 0 &&
		aws.ToString(canceled.CancellationReasons[0].Code) == "ConditionalCheckFailed" {
		return store.ErrItemNotFound
	}
	return fmt.Errorf("append event to room %s: %w", roomId, err)
}

// TouchRoom moves LastActivity forward to at. Returns store.ErrConditionFailed
// when the room is gone or already has a later activity time.
func (dynamoStore *DynamoWhiteboardStore) TouchRoom(ctx context.Context, roomId string, at time.Time) error {
	return dynamoStore.updateRoom(ctx, roomId,
		"SET LastActivity = :at",
		"attribute_exists(PK) AND LastActivity < :at",
		map[string]types.AttributeValue{
			":at": &types.AttributeValueMemberN{Value: strconv.FormatInt(at.UnixMilli(), 10)},
		},
	)
}
