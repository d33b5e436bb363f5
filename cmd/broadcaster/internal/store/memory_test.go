package store_test

import (
	"sync"
	"testing"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/store"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

func fl(v float64) *float64 { return &v }

func TestMemoryStore_LastWriteWins(t *testing.T) {
	s := store.NewMemoryStore()

	s.Upsert(models.Event{Token: "ABC", RSI: fl(40), TimestampMs: 1})
	s.Upsert(models.Event{Token: "ABC", RSI: fl(70), TimestampMs: 2})
	s.Upsert(models.Event{Token: "XYZ", Price: fl(0.5), TimestampMs: 3})

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(snap))
	}

	byToken := make(map[string]models.Event)
	for _, ev := range snap {
		byToken[ev.Token] = ev
	}

	abc, ok := byToken["ABC"]
	if !ok {
		t.Fatal("ABC missing from snapshot")
	}
	if abc.RSI == nil || *abc.RSI != 70 || abc.TimestampMs != 2 {
		t.Errorf("ABC entry is not the latest upsert: %+v", abc)
	}
	if _, ok := byToken["XYZ"]; !ok {
		t.Error("XYZ missing from snapshot")
	}
}

func TestMemoryStore_EmptySnapshot(t *testing.T) {
	s := store.NewMemoryStore()

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("Expected empty snapshot, got %d entries", len(snap))
	}
}

func TestMemoryStore_ConcurrentReadersOneWriter(t *testing.T) {
	// Run with `go test -race ./...`
	s := store.NewMemoryStore()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Upsert(models.Event{Token: "ABC", RSI: fl(float64(i)), TimestampMs: int64(i)})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap, err := s.Snapshot()
				if err != nil {
					t.Errorf("Snapshot returned error: %v", err)
					return
				}
				for _, ev := range snap {
					// A torn record would have a nil RSI or mismatched timestamp.
					if ev.RSI == nil || int64(*ev.RSI) != ev.TimestampMs {
						t.Errorf("Torn record observed: %+v", ev)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
}
