package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Manas2412/8Byte/pkg/models"
)

// RefreshQueue is the durable work log that decouples answering a request
// from refreshing its data. Delivery is at-least-once within one named
// consumer group; unacknowledged messages stay claimable.
type RefreshQueue interface {
	Enqueue(ctx context.Context, userID string) (string, error)
	EnsureGroup(ctx context.Context) error
	ReadBatch(ctx context.Context, consumer string, count int64, block time.Duration) ([]models.RefreshMessage, error)
	Ack(ctx context.Context, streamIDs ...string) error
}

const userIDField = "user_id"

// Compile-time check to ensure RedisQueue implements RefreshQueue
var _ RefreshQueue = (*RedisQueue)(nil)

// RedisQueue implements the refresh queue on a Redis Stream with one
// consumer group.
type RedisQueue struct {
	client *redis.Client
	stream string
	group  string
}

func NewRedisQueue(client *redis.Client, stream, group string) *RedisQueue {
	return &RedisQueue{client: client, stream: stream, group: group}
}

// Enqueue appends a refresh request and returns the stream entry ID.
func (q *RedisQueue) Enqueue(ctx context.Context, userID string) (string, error) {
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{userIDField: userID},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueue refresh for %s: %w", userID, err)
	}
	return id, nil
}

// EnsureGroup creates the consumer group and the stream if absent. Calling it
// when the group already exists is not an error.
func (q *RedisQueue) EnsureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create consumer group %s: %w", q.group, err)
	}
	return nil
}

// ReadBatch blocks up to the given duration for at most count new messages.
// An empty batch is returned as (nil, nil).
func (q *RedisQueue) ReadBatch(ctx context.Context, consumer string, count int64, block time.Duration) ([]models.RefreshMessage, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: consumer,
		Streams:  []string{q.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read refresh batch: %w", err)
	}

	var msgs []models.RefreshMessage
	for _, s := range streams {
		for _, m := range s.Messages {
			if msg, ok := messageFromEntry(m); ok {
				msgs = append(msgs, msg)
			}
		}
	}
	return msgs, nil
}

// Ack acknowledges processed messages so the group never redelivers them.
func (q *RedisQueue) Ack(ctx context.Context, streamIDs ...string) error {
	if len(streamIDs) == 0 {
		return nil
	}
	if err := q.client.XAck(ctx, q.stream, q.group, streamIDs...).Err(); err != nil {
		return fmt.Errorf("ack %d messages: %w", len(streamIDs), err)
	}
	return nil
}

func messageFromEntry(m redis.XMessage) (models.RefreshMessage, bool) {
	raw, ok := m.Values[userIDField]
	if !ok {
		return models.RefreshMessage{}, false
	}
	userID, ok := raw.(string)
	if !ok || userID == "" {
		return models.RefreshMessage{}, false
	}
	return models.RefreshMessage{StreamID: m.ID, UserID: userID}, true
}

func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}
