package server

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// handleStream serves the live feed as text/event-stream. The first data
// frame is always the join snapshot; heartbeats go out as comment lines so
// clients keying off the "data:" prefix ignore them.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess, err := s.hub.Register()
	if err != nil {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.hub.Deregister(sess)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.logger.Debug("SSE session opened", zap.Int64("session_id", sess.ID()), zap.String("remote", r.RemoteAddr))

	for {
		select {
		case f := <-sess.Frames():
			var err error
			if f.Heartbeat {
				_, err = fmt.Fprint(w, ": hb\n\n")
			} else {
				_, err = fmt.Fprintf(w, "data: %s\n\n", f.Data)
			}
			if err != nil {
				return
			}
			flusher.Flush()
		case <-sess.Done():
			return
		case <-r.Context().Done():
			return
		}
	}
}
