package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event is the fire-and-forget notification payload published for the UI
// layer. Delivery is best effort; workflow correctness never depends on it.
type Event struct {
	Type      string    `json:"type"`
	Reference string    `json:"reference"`
	Member    string    `json:"member,omitempty"`
	At        time.Time `json:"at"`
}

func publishEvent(ctx context.Context, rdb *redis.Client, channel string, evt Event) {
	if rdb == nil {
		return
	}

	evt.At = time.Now()
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}

	if err := rdb.Publish(ctx, channel, payload).Err(); err != nil {
		zap.S().Warnw("publish notification event", "type", evt.Type, "error", err)
	}
}

func cacheGet(ctx context.Context, rdb *redis.Client, key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}

	payload, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}

	return json.Unmarshal(payload, dest) == nil
}

func cacheSet(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) {
	if rdb == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		zap.S().Warnw("cache set", "key", key, "error", err)
	}
}

func cacheInvalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}

	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		zap.S().Warnw("cache invalidate", "keys", keys, "error", err)
	}
}
