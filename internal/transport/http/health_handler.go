package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthHandler reports process and data health. The health payload includes
// the last load report so operators can see dropped-row counts.
type HealthHandler struct {
	service IndicatorServiceInterface
	logger  *slog.Logger
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service IndicatorServiceInterface, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
		version: version,
		started: time.Now(),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":  "healthy",
		"version": h.version,
		"uptime":  time.Since(h.started).String(),
	}

	report, err := h.service.Report(r.Context())
	if err != nil {
		payload["status"] = "degraded"
		payload["error"] = err.Error()
		render.Status(r, http.StatusServiceUnavailable)
	} else {
		payload["data"] = map[string]interface{}{
			"total_rows":   report.TotalRows,
			"loaded_rows":  report.LoadedRows,
			"dropped_rows": report.DroppedRows,
			"loaded_at":    report.LoadedAt.Format(time.RFC3339),
		}
	}

	render.JSON(w, r, payload)
}

// LivenessCheck handles GET /api/health/live
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "alive"})
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": h.version})
}
