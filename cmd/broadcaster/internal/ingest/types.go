package ingest

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

// KafkaReader abstracts the input stream
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Broadcaster abstracts the fan-out hub
type Broadcaster interface {
	Broadcast(ev models.Event)
}

// State is the adapter lifecycle. Failed is terminal: the process exits
// non-zero rather than serve with no feed behind it.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateConsuming
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateConsuming:
		return "consuming"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
