package gateway

import (
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "degraded"
	Uptime string `json:"uptime"`
}

// handleHealth returns 200 when the database answers, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Uptime: time.Since(g.startedAt).Round(time.Second).String(),
		}

		status := http.StatusOK
		if err := g.store.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, resp)
	}
}
