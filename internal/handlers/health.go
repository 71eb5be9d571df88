package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecks serves /api/health, /healthz and /readyz. Cache and Audit are
// optional.
type HealthChecks struct {
	Store      Pinger
	Cache      Pinger
	Audit      Pinger
	Scoreboard Scoreboard
}

const pingTimeout = 2 * time.Second

func ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}

// Health reports every dependency. Only the store and the scoreboard
// degrade the overall status.
func (hc *HealthChecks) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := ping(ctx, hc.Store); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks["database"] = map[string]any{"status": "unhealthy", "error": err.Error()}
	} else {
		checks["database"] = map[string]any{"status": "healthy"}
	}

	for name, p := range map[string]Pinger{"cache": hc.Cache, "audit": hc.Audit} {
		switch {
		case p == nil:
			checks[name] = map[string]any{"status": "not_configured"}
		case ping(ctx, p) != nil:
			checks[name] = map[string]any{"status": "unhealthy"}
		default:
			checks[name] = map[string]any{"status": "healthy"}
		}
	}

	board := hc.Scoreboard.Health()
	sb := map[string]any{"status": "healthy", "lastSuccess": board.LastSuccess}
	if hc.Scoreboard.Snapshot() == nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		sb["status"] = "not_ready"
	}
	if board.LastError != "" {
		sb["status"] = "stale"
		sb["error"] = board.LastError
	}
	checks["scoreboard"] = sb

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// Liveness handles Kubernetes liveness probes
func (hc *HealthChecks) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness returns 200 once the store answers and a scoreboard exists
func (hc *HealthChecks) Readiness(w http.ResponseWriter, r *http.Request) {
	reason := ""
	switch {
	case ping(r.Context(), hc.Store) != nil:
		reason = "database_unavailable"
	case hc.Scoreboard.Snapshot() == nil:
		reason = "scoreboard_not_ready"
	}

	if reason != "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"reason":    reason,
			"timestamp": time.Now().Unix(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
