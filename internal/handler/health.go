package handler

import (
	"context"
	"net/http"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

func (h *Handler) checks() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"postgres": h.db.HealthCheck,
		"redis":    h.rdb.HealthCheck,
	}
}

// Health returns the health status of the service and its dependencies
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]string)
	status := "healthy"
	for name, check := range h.checks() {
		if err := check(r.Context()); err != nil {
			services[name] = "unhealthy"
			status = "degraded"
			continue
		}
		services[name] = "healthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:   status,
		Version:  Version,
		Services: services,
	})
}

// Ready returns whether the service can accept registrations
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "database not ready")
		return
	}
	// The welcome email queue lives in Redis
	if err := h.rdb.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "redis not ready")
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
