package handler

import (
	"net/http"

	"github.com/attaboy/bonusvalue/internal/infra"
)

type healthStatus struct {
	Status    string  `json:"status"`
	Database  string  `json:"database"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// HealthHandler reports whether the offer store is reachable. The catalog is
// unusable without it, so a failed ping answers 503.
func HealthHandler(db infra.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latency, err := infra.HealthCheck(r.Context(), db)
		res := healthStatus{
			Status:    "healthy",
			Database:  "up",
			LatencyMS: float64(latency.Microseconds()) / 1000,
		}
		if err != nil {
			res.Status = "unhealthy"
			res.Database = "down"
			res.Error = err.Error()
			RespondJSON(w, http.StatusServiceUnavailable, res)
			return
		}
		RespondJSON(w, http.StatusOK, res)
	}
}
