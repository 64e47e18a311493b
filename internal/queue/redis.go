package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostedid/accounts/internal/database"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "queue:"

// RedisQueue is a FIFO of descriptors stored in a Redis list. Producers
// LPUSH, consumers BRPOP. Failed jobs are moved to a companion ":dead" list.
type RedisQueue struct {
	rdb     *database.Redis
	key     string
	deadKey string
}

// NewRedisQueue creates a queue stored under queue:<name>
func NewRedisQueue(rdb *database.Redis, name string) *RedisQueue {
	key := keyPrefix + name
	return &RedisQueue{
		rdb:     rdb,
		key:     key,
		deadKey: key + ":dead",
	}
}

// Enqueue appends d to the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, d Descriptor) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("queue: encode descriptor: %w", err)
	}
	if err := q.rdb.Push(ctx, q.key, raw); err != nil {
		return fmt.Errorf("queue: enqueue %s: %w", d.Name, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the oldest descriptor.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (Descriptor, error) {
	raw, err := q.rdb.BlockingPop(ctx, q.key, timeout)
	if errors.Is(err, redis.Nil) {
		return Descriptor{}, ErrEmpty
	}
	if err != nil {
		return Descriptor{}, fmt.Errorf("queue: dequeue: %w", err)
	}

	var d Descriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		bad := Descriptor{ID: uuid.NewString(), LastError: "malformed descriptor: " + raw}
		if dlErr := q.DeadLetter(ctx, bad); dlErr != nil {
			return Descriptor{}, fmt.Errorf("queue: dead-letter malformed descriptor: %w", dlErr)
		}
		return Descriptor{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return d, nil
}

// DeadLetter stores a descriptor that will not be retried.
func (q *RedisQueue) DeadLetter(ctx context.Context, d Descriptor) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("queue: encode descriptor: %w", err)
	}
	return q.rdb.Push(ctx, q.deadKey, raw)
}

// DeadLetters returns dead-lettered descriptors, oldest first.
func (q *RedisQueue) DeadLetters(ctx context.Context) ([]Descriptor, error) {
	values, err := q.rdb.LRange(ctx, q.deadKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("queue: list dead letters: %w", err)
	}

	out := make([]Descriptor, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		var d Descriptor
		if err := json.Unmarshal([]byte(values[i]), &d); err != nil {
			return nil, fmt.Errorf("queue: decode dead letter: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Len returns the number of pending descriptors.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
