package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

const latestHashKey = "rsi:latest"

// Compile-time check to ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)

// RedisStore keeps the latest-value mapping in a single Redis hash
// (field = token, value = event JSON). It exists so multi-replica
// deployments can share one mapping; the broadcaster itself does not
// depend on which backend is wired in.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (r *RedisStore) Upsert(ev models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.client.HSet(context.Background(), latestHashKey, ev.Token, payload).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (r *RedisStore) Snapshot() ([]models.Event, error) {
	entries, err := r.client.HGetAll(context.Background(), latestHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	out := make([]models.Event, 0, len(entries))
	for token, payload := range entries {
		var ev models.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			r.logger.Warn("Skipping malformed stored event", zap.String("token", token), zap.Error(err))
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
