package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/shared"
	"github.com/redis/go-redis/v9"
)

// RedisQueue implements [Queue] over a Redis list.
//
// Enqueue pushes to the tail with RPUSH; Receive long-polls the head with
// BLPOP, so delivery is FIFO. BLPOP removes the element it returns, which is
// what gives this queue its immediate-delete acknowledgement policy.
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

// NewRedisQueue connects to Redis and returns a queue over the given list key.
func NewRedisQueue(ctx context.Context, cfg shared.RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: redis ping: %v", shared.ErrServiceUnavailable, err)
	}

	return &RedisQueue{
		client:      client,
		key:         cfg.QueueKey,
		pollTimeout: cfg.PollTimeout(),
	}, nil
}

// Enqueue publishes a unit of work after validating the tagged payload.
func (q *RedisQueue) Enqueue(ctx context.Context, msg models.QueueMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: enqueue: %v", shared.ErrServiceUnavailable, err)
	}

	return nil
}

// Receive blocks for up to the configured long-poll window waiting for at most
// one unit of work. A timeout with no work returns (nil, nil).
//
// Malformed payloads are reported as errors; BLPOP has already discarded them,
// consistent with the immediate-delete policy.
func (q *RedisQueue) Receive(ctx context.Context) (*Delivery, error) {
	res, err := q.client.BLPop(ctx, q.pollTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: receive: %v", shared.ErrServiceUnavailable, err)
	}

	if len(res) < 2 {
		return nil, nil
	}

	payload := res[1]

	var msg models.QueueMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return nil, fmt.Errorf("%w: invalid queue payload: %v", shared.ErrInvalidInput, err)
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return &Delivery{Message: msg, Raw: payload}, nil
}

// Policy returns the acknowledgement policy in force.
func (q *RedisQueue) Policy() AckPolicy {
	return AckPolicyImmediate
}

// Close releases the underlying Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
