package handlers

import (
	"net/http"
	"time"

	"audio-converter/internal/startup"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health reports liveness. It requires no session so orchestrators can
// probe it.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{
		Status:  "ok",
		Version: startup.Version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}
