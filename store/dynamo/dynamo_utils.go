package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bishal292/whiteboard/awsconf"
	"github.com/bishal292/whiteboard/store"
	"github.com/sirupsen/logrus"
)

const tableCreateTimeout = 30 * time.Second

func newDynamoDBClient(ctx context.Context, devMode bool, dynamodbEndpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconf.Load(ctx, devMode)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = awsconf.Endpoint(dynamodbEndpoint)
	}), nil
}

// ensureTable checks that the rooms table exists. Against a local emulator a
// missing table is created with ExpiresAt as its TTL attribute.
func ensureTable(ctx context.Context, client *dynamodb.Client, tableName string, devMode bool) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table %s: %w", tableName, err)
	}
	if !devMode {
		return fmt.Errorf("table %s not found in dynamodb", tableName)
	}

	logrus.WithField("table", tableName).Info("Creating dynamodb table")
	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", tableName, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, tableCreateTimeout); err != nil {
		return fmt.Errorf("wait for table %s: %w", tableName, err)
	}

	_, err = client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String("ExpiresAt"),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		// dynamodb-local accepts TTL settings but some emulators do not
		logrus.WithError(err).WithField("table", tableName).Warn("Failed to enable TTL")
	}
	return nil
}

func roomKey(roomId string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: buildRoomPK(roomId)},
		"SK": &types.AttributeValueMemberS{Value: roomSortKey},
	}
}

func (dynamoStore *DynamoWhiteboardStore) readRoom(ctx context.Context, roomId string) (dynamoRoom, error) {
	resp, err := dynamoStore.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(dynamoStore.tableName),
		Key:            roomKey(roomId),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return dynamoRoom{}, fmt.Errorf("get room %s: %w", roomId, err)
	}
	if resp.Item == nil {
		return dynamoRoom{}, store.ErrItemNotFound
	}

	var dr dynamoRoom
	if err := attributevalue.UnmarshalMap(resp.Item, &dr); err != nil {
		return dynamoRoom{}, fmt.Errorf("unmarshal room %s: %w", roomId, err)
	}
	return dr, nil
}

// putRoom writes the room metadata item under a condition. A failed
// condition is returned as store.ErrConditionFailed.
func (dynamoStore *DynamoWhiteboardStore) putRoom(ctx context.Context, dr dynamoRoom, condition string, values map[string]types.AttributeValue) error {
	item, err := attributevalue.MarshalMap(dr)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", dr.RoomId, err)
	}

	_, err = dynamoStore.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(dynamoStore.tableName),
		Item:                      item,
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeValues: values,
	})
	return mapConditionErr(err, "put room "+dr.RoomId)
}

// queryRoomPartition reads every item under the room's partition key in sort
// key order. Event items sort before the "ROOM" metadata item. The returned
// room is nil when the partition has no metadata item.
func (dynamoStore *DynamoWhiteboardStore) queryRoomPartition(ctx context.Context, roomId string) (*dynamoRoom, []dynamoEvent, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(dynamoStore.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildRoomPK(roomId)},
		},
		ScanIndexForward: aws.Bool(true),
		ConsistentRead:   aws.Bool(true),
	}

	var room *dynamoRoom
	events := []dynamoEvent{}

	paginator := dynamodb.NewQueryPaginator(dynamoStore.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("query room %s: %w", roomId, err)
		}

		for _, item := range page.Items {
			sk, ok := item["SK"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			switch {
			case sk.Value == roomSortKey:
				var dr dynamoRoom
				if err := attributevalue.UnmarshalMap(item, &dr); err != nil {
					return nil, nil, fmt.Errorf("unmarshal room %s: %w", roomId, err)
				}
				room = &dr
			case strings.HasPrefix(sk.Value, eventSortKeyPrefix):
				var de dynamoEvent
				if err := attributevalue.UnmarshalMap(item, &de); err != nil {
					return nil, nil, fmt.Errorf("unmarshal event %s: %w", sk.Value, err)
				}
				events = append(events, de)
			}
		}
	}

	return room, events, nil
}

// updateRoom runs a conditional UpdateItem on the room item.
func (dynamoStore *DynamoWhiteboardStore) updateRoom(
	ctx context.Context,
	roomId string,
	updateExpression string,
	conditionExpression string,
	values map[string]types.AttributeValue,
) error {
	_, err := dynamoStore.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(dynamoStore.tableName),
		Key:                       roomKey(roomId),
		UpdateExpression:          aws.String(updateExpression),
		ConditionExpression:       aws.String(conditionExpression),
		ExpressionAttributeValues: values,
	})
	return mapConditionErr(err, "update room "+roomId)
}

func mapConditionErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return store.ErrConditionFailed
	}
	return fmt.Errorf("%s: %w", op, err)
}
