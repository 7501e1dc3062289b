package server

import (
	"net/http"
	"time"
)

type healthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	UptimeMs  int64                  `json:"uptimeMs"`
	Checks    map[string]healthCheck `json:"checks"`
}

var processStart = time.Now()

// HealthHandler serves GET /api/health: store reachability plus uptime.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")

		status := "healthy"
		code := http.StatusOK
		checks := map[string]healthCheck{}

		if err := s.store.Ping(r.Context()); err != nil {
			checks["database"] = healthCheck{Status: "unhealthy", Error: err.Error()}
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			checks["database"] = healthCheck{Status: "healthy"}
		}

		s.writeJSON(w, code, healthResponse{
			Status:    status,
			Timestamp: s.nowFunc().UTC().Format(time.RFC3339),
			UptimeMs:  s.nowFunc().Sub(processStart).Milliseconds(),
			Checks:    checks,
		})
	}
}
