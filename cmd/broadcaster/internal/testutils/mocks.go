package testutils

import (
	"context"
	"io"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

// MockReader replays scripted payloads, then reports EOF like a closed reader.
type MockReader struct {
	Payloads [][]byte
	pos      int
	Closed   bool
	Mu       sync.Mutex
}

func NewMockReader(payloads ...[]byte) *MockReader {
	return &MockReader{Payloads: payloads}
}

func (m *MockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}

	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.pos >= len(m.Payloads) {
		return kafka.Message{}, io.EOF
	}
	msg := kafka.Message{Value: m.Payloads[m.pos]}
	m.pos++
	return msg, nil
}

func (m *MockReader) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

// MockBroadcaster records every event pushed through it.
type MockBroadcaster struct {
	Events []models.Event
	Mu     sync.Mutex
}

func (m *MockBroadcaster) Broadcast(ev models.Event) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Events = append(m.Events, ev)
}

func (m *MockBroadcaster) Broadcasted() []models.Event {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	out := make([]models.Event, len(m.Events))
	copy(out, m.Events)
	return out
}
