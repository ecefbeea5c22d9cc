package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	deps   map[string]Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler reporting on deps, keyed by name.
func NewHealthHandler(deps map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{deps: deps, logger: logger}
}

// HealthCheck pings every dependency and responds 200 when all are
// reachable, 503 otherwise.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ok", http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.deps[name].Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "handler: health check failed",
				slog.String("dependency", name),
				slog.String("error", err.Error()),
			)
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
