package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/store"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

// ErrShuttingDown is returned by Register once Shutdown has started.
var ErrShuttingDown = errors.New("hub is shutting down")

type snapshotFrame struct {
	Type     string         `json:"type"`
	Snapshot []models.Event `json:"snapshot"`
}

type updateFrame struct {
	Type    string       `json:"type"`
	Payload models.Event `json:"payload"`
}

// Hub tracks connected subscriber sessions and fans every accepted event out
// to all of them. Delivery is best-effort per session: a session that cannot
// keep up is deregistered, never waited on.
type Hub struct {
	store  store.Store
	logger *zap.Logger
	clock  clockwork.Clock

	heartbeatEvery time.Duration
	sessionBuffer  int

	mu       sync.RWMutex
	sessions map[*Session]struct{}
	closed   bool
	nextID   int64
}

func NewHub(st store.Store, logger *zap.Logger, clock clockwork.Clock, heartbeatEvery time.Duration, sessionBuffer int) *Hub {
	return &Hub{
		store:          st,
		logger:         logger,
		clock:          clock,
		heartbeatEvery: heartbeatEvery,
		sessionBuffer:  sessionBuffer,
		sessions:       make(map[*Session]struct{}),
	}
}

// Register creates a session and seeds it with a snapshot frame holding the
// full current store contents, guaranteed to precede any live update frame.
func (h *Hub) Register() (*Session, error) {
	snap, err := h.store.Snapshot()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = []models.Event{}
	}
	data, err := json.Marshal(snapshotFrame{Type: "snapshot", Snapshot: snap})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrShuttingDown
	}
	h.nextID++
	s := newSession(h.nextID, h.sessionBuffer)
	// Enqueued under the write lock so no broadcast can slip in ahead of it.
	s.frames <- Frame{Data: data}
	h.sessions[s] = struct{}{}
	total := len(h.sessions)
	h.mu.Unlock()

	go h.heartbeatLoop(s)

	h.logger.Debug("Session registered", zap.Int64("session_id", s.ID()), zap.Int("total_sessions", total))
	return s, nil
}

// Deregister removes a session and stops its heartbeat. Safe to call from
// the transport, the broadcast path, and the heartbeat loop; only the first
// call does anything.
func (h *Hub) Deregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	if ok {
		delete(h.sessions, s)
	}
	remaining := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return
	}
	s.close()
	h.logger.Debug("Session deregistered", zap.Int64("session_id", s.ID()), zap.Int("remaining_sessions", remaining))
}

// Broadcast pushes one canonical event to every registered session. Sessions
// whose buffers are full are evicted after the sweep so one stalled
// subscriber never delays the rest.
func (h *Hub) Broadcast(ev models.Event) {
	data, err := json.Marshal(updateFrame{Type: "update", Payload: ev})
	if err != nil {
		h.logger.Error("Failed to marshal update frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	var failed []*Session
	for s := range h.sessions {
		if !s.trySend(Frame{Data: data}) {
			failed = append(failed, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range failed {
		h.logger.Warn("Evicting slow session", zap.Int64("session_id", s.ID()), zap.String("token", ev.Token))
		h.Deregister(s)
	}
}

// Count returns the number of registered sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown rejects new registrations and closes every open session.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	open := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		open = append(open, s)
	}
	h.sessions = make(map[*Session]struct{})
	h.mu.Unlock()

	for _, s := range open {
		s.close()
	}
	h.logger.Info("Hub shut down", zap.Int("closed_sessions", len(open)))
}

// heartbeatLoop sends a periodic no-op frame so intermediaries keep the
// connection alive. It exits when the session is deregistered; a failed
// enqueue takes the same eviction path as a failed broadcast.
func (h *Hub) heartbeatLoop(s *Session) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Heartbeat loop panic recovered", zap.Int64("session_id", s.ID()), zap.Any("panic", r))
		}
	}()

	ticker := h.clock.NewTicker(h.heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if !s.trySend(Frame{Heartbeat: true}) {
				h.Deregister(s)
				return
			}
		case <-s.done:
			return
		}
	}
}
