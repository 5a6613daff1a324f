package redis

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type RedisWhiteboardCache struct {
	client redis.UniversalClient
}

func NewRedisWhiteboardCache(ctx context.Context, devMode bool, redisEndpoint string) (*RedisWhiteboardCache, error) {
	opts := &redis.Options{Addr: redisEndpoint}
	if !devMode {
		// Managed redis endpoints require TLS
		opts.TLSConfig = &tls.Config{}
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisWhiteboardCacheFromClient(client), nil
}

func NewRedisWhiteboardCacheFromClient(client redis.UniversalClient) *RedisWhiteboardCache {
	return &RedisWhiteboardCache{client: client}
}

// Keys share a hash tag so both keys of a room land in the same cluster slot.
func buildRoomEventsKey(roomId string) string {
	return "room:{" + roomId + "}:events"
}

func buildRoomCompleteKey(roomId string) string {
	return "room:{" + roomId + "}:complete"
}

const cacheTTL = 10 * time.Minute

// AppendEvent pushes one encoded event to the tail of the room's list.
// Callers only append to rooms they have seen marked complete.
func (redisCache *RedisWhiteboardCache) AppendEvent(ctx context.Context, roomId string, eventData []byte) error {
	key := buildRoomEventsKey(roomId)
	completeKey := buildRoomCompleteKey(roomId)

	pipe := redisCache.client.TxPipeline()
	pipe.RPush(ctx, key, eventData)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, completeKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// SetRoomEvents replaces the cached list with the full log and marks it complete.
func (redisCache *RedisWhiteboardCache) SetRoomEvents(ctx context.Context, roomId string, events [][]byte) error {
	key := buildRoomEventsKey(roomId)
	completeKey := buildRoomCompleteKey(roomId)

	values := make([]interface{}, len(events))
	for i, e := range events {
		values[i] = e
	}

	pipe := redisCache.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		pipe.RPush(ctx, key, values...)
		pipe.Expire(ctx, key, cacheTTL)
	}
	pipe.Set(ctx, completeKey, "true", cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (redisCache *RedisWhiteboardCache) GetEvents(ctx context.Context, roomId string) ([][]byte, error) {
	key := buildRoomEventsKey(roomId)
	completeKey := buildRoomCompleteKey(roomId)

	raw, err := redisCache.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	events := make([][]byte, 0, len(raw))
	for _, s := range raw {
		events = append(events, []byte(s))
	}

	// Refresh TTL
	pipe := redisCache.client.Pipeline()
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, completeKey, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithError(err).WithField("room_id", roomId).Debug("Failed to refresh room cache TTL")
	}

	return events, nil
}

func (redisCache *RedisWhiteboardCache) IsRoomComplete(ctx context.Context, roomId string) (bool, error) {
	val, err := redisCache.client.Exists(ctx, buildRoomCompleteKey(roomId)).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}

func (redisCache *RedisWhiteboardCache) InvalidateRooms(ctx context.Context, roomIds []string) error {
	// Each room has its own hash tag, so rooms are deleted one by one
	for _, roomId := range roomIds {
		if err := redisCache.client.Del(ctx, buildRoomCompleteKey(roomId), buildRoomEventsKey(roomId)).Err(); err != nil {
			return err
		}
	}
	return nil
}
