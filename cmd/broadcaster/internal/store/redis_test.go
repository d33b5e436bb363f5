package store_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/store"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

func setupRedis(t *testing.T) *store.RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return store.NewRedisStore(client, zap.NewNop())
}

func TestRedisStore_UpsertSnapshot(t *testing.T) {
	s := setupRedis(t)

	if err := s.Upsert(models.Event{Token: "ABC", RSI: fl(71.5), Price: fl(0.002), TimestampMs: 1700000000000}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := s.Upsert(models.Event{Token: "ABC", RSI: fl(30), TimestampMs: 1700000000001}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(snap))
	}
	ev := snap[0]
	if ev.Token != "ABC" || ev.RSI == nil || *ev.RSI != 30 || ev.Price != nil {
		t.Errorf("Snapshot entry is not the latest upsert: %+v", ev)
	}
	if ev.TimestampMs != 1700000000001 {
		t.Errorf("Unexpected timestamp: %d", ev.TimestampMs)
	}
}

func TestRedisStore_SkipsMalformedEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mr.HSet("rsi:latest", "BAD", "{not json")

	s := store.NewRedisStore(client, zap.NewNop())
	if err := s.Upsert(models.Event{Token: "GOOD", TimestampMs: 5}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap) != 1 || snap[0].Token != "GOOD" {
		t.Errorf("Expected only the well-formed entry, got %+v", snap)
	}
}
