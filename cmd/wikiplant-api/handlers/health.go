package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

// Pinger is a dependency whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	logger  *observability.Logger
	service string
	checks  map[string]Pinger
	missing []string
}

// NewHealthHandler creates a health handler. missing lists unconfigured
// API keys, reported by /ready without failing it.
func NewHealthHandler(logger *observability.Logger, service string, checks map[string]Pinger, missing []string) *HealthHandler {
	return &HealthHandler{logger: logger, service: service, checks: checks, missing: missing}
}

// Health reports that the process is up.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "healthy", "service": h.service})
}

// Ready pings every dependency.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.WithContext(ctx).Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{"status": "ready", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "not ready"
	}
	if len(h.missing) > 0 {
		body["missingKeys"] = h.missing
	}
	writeJSON(w, h.logger, status, body)
}
