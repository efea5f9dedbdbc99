package api

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/identrelay/internal/middleware"
)

// healthStatus is the body of GET /health.
type healthStatus struct {
	Status             string `json:"status"`
	UpstreamConfigured bool   `json:"upstream_configured"`
}

// HealthHandler reports liveness and whether an identification API key is
// configured. A relay without a key still answers 200.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "health"

	body := healthStatus{Status: "ok", UpstreamConfigured: s.Config.APIKey != ""}
	if err := writeJSON(w, http.StatusOK, body); err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Error("write health response", zap.Error(err))
	}

	s.Metrics.IncrementRequests(endpoint, r.Method, strconv.Itoa(http.StatusOK))
	s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start))
}
