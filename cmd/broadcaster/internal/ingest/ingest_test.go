package ingest_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/ingest"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/normalizer"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/store"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/testutils"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/config"
)

var kafkaCfg = config.KafkaConfig{Brokers: []string{"localhost:29092"}, Topic: "rsi-data"}

func runConsumer(t *testing.T, payloads ...[]byte) (*store.MemoryStore, *testutils.MockBroadcaster) {
	t.Helper()

	st := store.NewMemoryStore()
	bc := &testutils.MockBroadcaster{}
	c := ingest.NewConsumer(kafkaCfg, testutils.NewMockReader(payloads...), normalizer.New(), st, bc, zap.NewNop())

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return st, bc
}

func TestConsumer_ValidRecordStoredAndBroadcast(t *testing.T) {
	st, bc := runConsumer(t,
		[]byte(`{"token_address":"ABC","rsi":"71.5","price_in_sol":"0.002","timestamp_ms":1700000000000}`),
	)

	snap, _ := st.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Expected 1 stored entry, got %d", len(snap))
	}
	ev := snap[0]
	if ev.Token != "ABC" || ev.RSI == nil || *ev.RSI != 71.5 || ev.Price == nil || *ev.Price != 0.002 {
		t.Errorf("Stored event mismatch: %+v", ev)
	}

	events := bc.Broadcasted()
	if len(events) != 1 || events[0].Token != "ABC" {
		t.Errorf("Expected exactly one broadcast for ABC, got %+v", events)
	}
}

func TestConsumer_RejectedRecordLeavesStoreUntouched(t *testing.T) {
	st, bc := runConsumer(t, []byte(`{}`))

	snap, _ := st.Snapshot()
	if len(snap) != 0 {
		t.Errorf("Store must be unmodified by rejected records, got %d entries", len(snap))
	}
	if len(bc.Broadcasted()) != 0 {
		t.Errorf("No broadcast may be emitted for rejected records")
	}
}

func TestConsumer_BadRecordDoesNotStopLoop(t *testing.T) {
	st, bc := runConsumer(t,
		[]byte(`not json at all`),
		[]byte(`{"rsi":50}`),
		[]byte(`{"token":"XYZ"}`),
	)

	snap, _ := st.Snapshot()
	if len(snap) != 1 || snap[0].Token != "XYZ" {
		t.Errorf("Expected only XYZ stored after skipping bad records, got %+v", snap)
	}
	if len(bc.Broadcasted()) != 1 {
		t.Errorf("Expected 1 broadcast, got %d", len(bc.Broadcasted()))
	}
}

func TestConsumer_RunStopsOnContextCancel(t *testing.T) {
	st := store.NewMemoryStore()
	bc := &testutils.MockBroadcaster{}
	c := ingest.NewConsumer(kafkaCfg, testutils.NewMockReader(), normalizer.New(), st, bc, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx); err != nil {
		t.Errorf("Run must return nil on cancellation, got %v", err)
	}
	if c.State() != ingest.StateDisconnected {
		t.Errorf("Expected disconnected state, got %s", c.State())
	}
}

func TestConsumer_ConnectFailureIsTerminal(t *testing.T) {
	cfg := config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}, Topic: "rsi-data"}
	c := ingest.NewConsumer(cfg, testutils.NewMockReader(), normalizer.New(), store.NewMemoryStore(), &testutils.MockBroadcaster{}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err == nil {
		t.Fatal("Connect to an unreachable broker must fail")
	}
	if c.State() != ingest.StateFailed {
		t.Errorf("Expected failed state, got %s", c.State())
	}
}
