package notify

import (
	"context"
	"fmt"

	"supply_go/internal/event"

	"github.com/redis/go-redis/v9"
)

// ListStore is the subset of *redis.Client used by RedisSink.
type ListStore interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// NewRedisClient builds a client for addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisSink keeps the most recent notifications in a capped Redis list,
// newest first.
type RedisSink struct {
	store  ListStore
	key    string
	maxLen int64
}

func NewRedisSink(store ListStore, key string, maxLen int64) *RedisSink {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &RedisSink{store: store, key: key, maxLen: maxLen}
}

func (r *RedisSink) Name() string { return "redis" }

func (r *RedisSink) Publish(ctx context.Context, n event.Notification, payload []byte) error {
	if err := r.store.LPush(ctx, r.key, payload).Err(); err != nil {
		return publishErr(ctx, "redis lpush", err)
	}
	if err := r.store.LTrim(ctx, r.key, 0, r.maxLen-1).Err(); err != nil {
		return publishErr(ctx, "redis ltrim", err)
	}
	return nil
}

// Recent returns up to limit notifications, newest first.
func (r *RedisSink) Recent(ctx context.Context, limit int) ([]event.Envelope, error) {
	if limit <= 0 || int64(limit) > r.maxLen {
		limit = int(r.maxLen)
	}
	items, err := r.store.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	out := make([]event.Envelope, 0, len(items))
	for _, item := range items {
		n, err := event.Decode([]byte(item))
		if err != nil {
			continue // skip entries written by an incompatible version
		}
		env, err := event.Wrap(n)
		if err != nil {
			continue
		}
		out = append(out, env)
	}
	return out, nil
}

func (r *RedisSink) Close() error {
	if c, ok := r.store.(*redis.Client); ok {
		return c.Close()
	}
	return nil
}
