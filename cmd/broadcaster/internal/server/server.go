package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/hub"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/ingest"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/store"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

// IngestStatus is what the health endpoint needs from the ingest adapter.
type IngestStatus interface {
	State() ingest.State
}

// Server exposes the store as a pull snapshot and the hub as a push stream.
type Server struct {
	store  store.Store
	hub    *hub.Hub
	ingest IngestStatus
	logger *zap.Logger
}

func New(st store.Store, h *hub.Hub, ing IngestStatus, logger *zap.Logger) *Server {
	return &Server{store: st, hub: h, ingest: ing, logger: logger}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

type snapshotResponse struct {
	Snapshot []models.Event `json:"snapshot"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot()
	if err != nil {
		s.logger.Error("Snapshot read failed", zap.Error(err))
		http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
		return
	}
	if snap == nil {
		snap = []models.Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshotResponse{Snapshot: snap}); err != nil {
		s.logger.Warn("Snapshot write failed", zap.Error(err))
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Ingest   string `json:"ingest"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:   "ok",
		Ingest:   s.ingest.State().String(),
		Sessions: s.hub.Count(),
	})
}
