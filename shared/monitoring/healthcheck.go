package monitoring

import (
	"encoding/json"
	"net/http"
	"time"
)

type HealthStatus struct {
	Status    string    `json:"status"`
	Summary   string    `json:"summary"`
	Analyses  int       `json:"analyses"`
	Failures  int       `json:"failures"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler reports the monitor state, answering 503 while the last
// analysis is a critical failure.
func HealthHandler(monitor *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analyses, failures := monitor.Counts()
		health := HealthStatus{
			Status:    "healthy",
			Summary:   monitor.GetStatusSummary(),
			Analyses:  analyses,
			Failures:  failures,
			Timestamp: time.Now(),
		}

		statusCode := http.StatusOK
		if !monitor.IsHealthy() {
			health.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}
