package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "icedash/internal/errors"
	"icedash/internal/services"
	"icedash/internal/store"
	api "icedash/pkg/contracts/api/v1"
	"icedash/pkg/contracts/domain"
)

var validate = validator.New()

// ObservationHandler serves the observation CRUD and export endpoints.
type ObservationHandler struct {
	service IndicatorServiceInterface
	logger  *slog.Logger
}

// NewObservationHandler creates a new observation handler
func NewObservationHandler(service IndicatorServiceInterface, logger *slog.Logger) *ObservationHandler {
	return &ObservationHandler{
		service: service,
		logger:  logger.With(slog.String("component", "observation_handler")),
	}
}

// Routes returns the observation routes
func (h *ObservationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/", h.Upsert)
	r.Delete("/{code}", h.Delete)

	return r
}

// List handles GET /api/observations with component/category/code/date filters
func (h *ObservationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, apiErr := filterFromQuery(r)
	if apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	slice, err := h.service.Observations(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, api.ObservationListResponse{
		Success:      true,
		Count:        len(slice),
		Observations: slice,
	})
}

// Upsert handles POST /api/observations
func (h *ObservationHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req api.UpsertObservationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		apierrors.WriteError(w, validationDetails(err))
		return
	}

	date, ok := store.ParseDate(req.Date)
	if !ok {
		apierrors.WriteError(w, apierrors.ErrInvalidDate)
		return
	}

	var seed *domain.Observation
	if req.Name != "" || req.Component != "" || req.Category != "" {
		seed = &domain.Observation{
			ActionLine: req.ActionLine,
			Component:  req.Component,
			Category:   req.Category,
			Code:       req.Code,
			Name:       req.Name,
			Target:     req.Target,
			Weight:     req.Weight,
		}
	}

	res, err := h.service.Upsert(r.Context(), req.Code, date, req.Value, seed)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	action := "updated"
	status := http.StatusOK
	if res.Created {
		action = "created"
		status = http.StatusCreated
	}

	h.logger.InfoContext(r.Context(), "observation written",
		slog.String("code", req.Code),
		slog.String("date", req.Date),
		slog.String("action", action),
	)

	render.Status(r, status)
	render.JSON(w, r, api.MutationResponse{
		Success: true,
		Action:  action,
		Code:    req.Code,
		Date:    req.Date,
	})
}

// Delete handles DELETE /api/observations/{code}?date=DD/MM/YYYY
func (h *ObservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		apierrors.WriteError(w, apierrors.ErrValidation("date", "date query parameter is required"))
		return
	}

	date, ok := store.ParseDate(rawDate)
	if !ok {
		apierrors.WriteError(w, apierrors.ErrInvalidDate)
		return
	}

	if err := h.service.Delete(r.Context(), code, date); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "observation deleted",
		slog.String("code", code),
		slog.String("date", rawDate),
	)

	render.JSON(w, r, api.MutationResponse{
		Success: true,
		Action:  "deleted",
		Code:    code,
		Date:    rawDate,
	})
}

// ExportCSV handles GET /api/export/csv, streaming the filtered table in the
// canonical on-disk format.
func (h *ObservationHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, apiErr := filterFromQuery(r)
	if apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="indicadores.csv"`)

	if err := h.service.ExportCSV(r.Context(), filter, w); err != nil {
		// Headers may already be out; log and stop.
		h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", err.Error()))
	}
}

// filterFromQuery parses the shared listing/export query parameters.
func filterFromQuery(r *http.Request) (services.FilterQuery, *apierrors.APIError) {
	q := r.URL.Query()

	filter := services.FilterQuery{
		Component: q.Get("component"),
		Category:  q.Get("category"),
		Code:      q.Get("code"),
		All:       q.Get("all") == "true",
	}

	if raw := q.Get("date"); raw != "" {
		date, ok := store.ParseDate(raw)
		if !ok {
			return services.FilterQuery{}, apierrors.ErrInvalidDate
		}
		filter.Date = &date
	}

	return filter, nil
}

// dateFromQuery parses the optional date parameter used by the score routes.
func dateFromQuery(r *http.Request) (*time.Time, *apierrors.APIError) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return nil, nil
	}
	date, ok := store.ParseDate(raw)
	if !ok {
		return nil, apierrors.ErrInvalidDate
	}
	return &date, nil
}

// validationDetails converts validator errors into field-level details.
func validationDetails(err error) *apierrors.APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return apierrors.ErrValidation(first.Field(), "failed "+first.Tag()+" validation")
	}
	return apierrors.ErrValidationFailed
}

// writeServiceError maps store and service failures onto the API error
// taxonomy. Unavailable media stay 503 and are never downgraded to "no data".
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var schemaErr *store.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		apierrors.WriteError(w, apierrors.SchemaError(schemaErr.Missing))
	case errors.Is(err, store.ErrNotFound):
		apierrors.WriteError(w, apierrors.ErrObservationNotFound)
	case errors.Is(err, store.ErrNoBaseRecord):
		apierrors.WriteError(w, apierrors.ErrNoBaseRecord)
	case errors.Is(err, store.ErrUnavailable):
		apierrors.WriteError(w, apierrors.MediumUnavailableError(err))
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.WriteError(w, apierrors.ErrInternalServer)
	}
}

func (h *ObservationHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.logger, err)
}
