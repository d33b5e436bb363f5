package hub

import (
	"sync"
)

// Frame is one outbound message for a session. Heartbeat frames carry no
// data; the transport decides how to encode them (SSE comment line,
// websocket ping).
type Frame struct {
	Heartbeat bool
	Data      []byte
}

// Session is one connected live subscriber. It owns nothing but its frame
// channel and housekeeping state; the hub owns the session for its lifetime.
type Session struct {
	id        int64
	frames    chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id int64, buffer int) *Session {
	return &Session{
		id:     id,
		frames: make(chan Frame, buffer),
		done:   make(chan struct{}),
	}
}

// Frames is the channel the transport pump drains.
func (s *Session) Frames() <-chan Frame { return s.frames }

// Done is closed when the session is deregistered.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) ID() int64 { return s.id }

// trySend enqueues a frame without ever blocking the caller. A full buffer
// or a closed session reports failure; the hub treats that as a dead
// subscriber.
func (s *Session) trySend(f Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.frames <- f:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
