package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "icedash/internal/errors"
	"icedash/internal/exporter"
	"icedash/internal/scoring"
	"icedash/internal/store"
	api "icedash/pkg/contracts/api/v1"
)

// ScoreHandler serves the computed score endpoints.
type ScoreHandler struct {
	service  IndicatorServiceInterface
	exporter *exporter.CSVWriter
	logger   *slog.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(service IndicatorServiceInterface, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{
		service:  service,
		exporter: exporter.NewCSVWriter(logger),
		logger:   logger.With(slog.String("component", "score_handler")),
	}
}

// Routes returns the score routes
func (h *ScoreHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/overall", h.Overall)
	r.Get("/by-component", h.ByComponent)
	r.Get("/by-category", h.ByCategory)
	r.Get("/pivot", h.Pivot)
	r.Get("/summary", h.Summary)

	return r
}

// Overall handles GET /api/scores/overall
func (h *ScoreHandler) Overall(w http.ResponseWriter, r *http.Request) {
	date, apiErr := dateFromQuery(r)
	if apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	overall, err := h.service.OverallScore(r.Context(), date)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, api.ScoreResponse{
		Success: true,
		Date:    dateLabel(date),
		Overall: overall,
	})
}

// ByComponent handles GET /api/scores/by-component
func (h *ScoreHandler) ByComponent(w http.ResponseWriter, r *http.Request) {
	h.grouped(w, r, scoring.DimComponent)
}

// ByCategory handles GET /api/scores/by-category
func (h *ScoreHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	h.grouped(w, r, scoring.DimCategory)
}

func (h *ScoreHandler) grouped(w http.ResponseWriter, r *http.Request, dim scoring.Dimension) {
	date, apiErr := dateFromQuery(r)
	if apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	groups, err := h.service.GroupScores(r.Context(), date, dim)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, api.ScoreResponse{
		Success: true,
		Date:    dateLabel(date),
		Groups:  groups,
	})
}

// Pivot handles GET /api/scores/pivot?rows=component&cols=category&field=compliance
func (h *ScoreHandler) Pivot(w http.ResponseWriter, r *http.Request) {
	date, apiErr := dateFromQuery(r)
	if apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	rows, ok := parseDimension(r.URL.Query().Get("rows"), scoring.DimComponent)
	if !ok {
		apierrors.WriteError(w, apierrors.ErrValidation("rows", "must be component or category"))
		return
	}
	cols, ok := parseDimension(r.URL.Query().Get("cols"), scoring.DimCategory)
	if !ok {
		apierrors.WriteError(w, apierrors.ErrValidation("cols", "must be component or category"))
		return
	}
	field, ok := parseField(r.URL.Query().Get("field"))
	if !ok {
		apierrors.WriteError(w, apierrors.ErrValidation("field", "must be value, compliance or weighted_score"))
		return
	}

	pivot, err := h.service.PivotScores(r.Context(), date, rows, cols, field)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, api.PivotResponse{
		Success: true,
		Date:    dateLabel(date),
		Pivot:   pivot,
	})
}

// Summary handles GET /api/scores/summary
func (h *ScoreHandler) Summary(w http.ResponseWriter, r *http.Request) {
	date, apiErr := dateFromQuery(r)
	if apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	summary, err := h.service.Summary(r.Context(), date)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, summary)
}

// ExportCSV handles GET /api/export/scores, writing the grouped scores as a
// two-column CSV.
func (h *ScoreHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	date, apiErr := dateFromQuery(r)
	if apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}
	dim, ok := parseDimension(r.URL.Query().Get("dim"), scoring.DimComponent)
	if !ok {
		apierrors.WriteError(w, apierrors.ErrValidation("dim", "must be component or category"))
		return
	}

	groups, err := h.service.GroupScores(r.Context(), date, dim)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="puntajes.csv"`)

	if err := h.exporter.WriteScores(w, groups); err != nil {
		h.logger.ErrorContext(r.Context(), "score export failed", slog.String("error", err.Error()))
	}
}

func parseDimension(raw string, def scoring.Dimension) (scoring.Dimension, bool) {
	switch raw {
	case "":
		return def, true
	case string(scoring.DimComponent):
		return scoring.DimComponent, true
	case string(scoring.DimCategory):
		return scoring.DimCategory, true
	}
	return "", false
}

func parseField(raw string) (scoring.Field, bool) {
	switch raw {
	case "":
		return scoring.FieldCompliance, true
	case string(scoring.FieldValue):
		return scoring.FieldValue, true
	case string(scoring.FieldCompliance):
		return scoring.FieldCompliance, true
	case string(scoring.FieldWeightedScore):
		return scoring.FieldWeightedScore, true
	}
	return "", false
}

func dateLabel(date *time.Time) string {
	if date == nil {
		return "latest"
	}
	return store.FormatDate(*date)
}

func (h *ScoreHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.logger, err)
}
