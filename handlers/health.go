package handlers

import (
	"context"
	"net/http"
	"time"

	"schoollicense.app/renewal/internal/logger"
	"schoollicense.app/renewal/internal/version"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Version:   version.Version,
		Store:     s.Config.StoreDriver,
		Timestamp: time.Now().UTC(),
	}

	if err := s.Storage.Ping(ctx); err != nil {
		logger.Error("Health check failed", map[string]interface{}{
			"store": s.Config.StoreDriver,
			"error": err.Error(),
		})
		resp.Status = "unavailable"
		resp.Error = "store unreachable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
