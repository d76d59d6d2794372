package handler

import (
	"context"
	"net/http"
	"time"
)

// StorePinger checks that the KV backend is reachable.
type StorePinger interface {
	Read(ctx context.Context, key string) (string, bool, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	store StorePinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store StorePinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Uptime string            `json:"uptime,omitempty"`
}

var startTime = time.Now()

// GetHealth handles GET /health
// Basic health check - returns 200 OK if service is running
func GetHealth(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(startTime).String(),
	})
}

// GetLiveness handles GET /health/live
func GetLiveness(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetReadiness handles GET /health/ready. Ready means the KV backend
// answers; a synthetic key read exercises the round trip.
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "ok"
	httpStatus := http.StatusOK

	if _, _, err := h.store.Read(ctx, "healthcheck"); err != nil {
		checks["storage"] = "unhealthy: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "healthy"
	}

	respondData(w, httpStatus, HealthResponse{Status: status, Checks: checks})
}
