package store

import (
	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

// Store is the latest-value mapping: token -> most recent canonical event.
// Exactly one writer (the ingest loop) overlaps with many concurrent readers
// (the snapshot endpoint and each session's join snapshot); implementations
// must never return a torn record. Iteration order of Snapshot is not stable
// across calls.
type Store interface {
	Upsert(ev models.Event) error
	Snapshot() ([]models.Event, error)
	Close() error
}
