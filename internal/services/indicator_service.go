// Package services orchestrates the indicator store, score engine and
// exporter behind the interface the HTTP layer consumes. Filter state is an
// explicit argument on every call, never ambient session state.
package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"icedash/internal/exporter"
	"icedash/internal/observability"
	"icedash/internal/scoring"
	"icedash/internal/store"
	"icedash/pkg/contracts/domain"
)

// FilterQuery is the explicit filter state of one interaction: the cascade
// of component, category and code narrows the slice selected by Date. A nil
// Date means the most recent slice; All disables date slicing entirely.
type FilterQuery struct {
	Component string
	Category  string
	Code      string
	Date      *time.Time
	All       bool
}

// IndicatorService binds the store and the score engine into the
// operations the dashboard exposes.
type IndicatorService struct {
	store    *store.Store
	exporter *exporter.CSVWriter
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewIndicatorService creates the service.
func NewIndicatorService(st *store.Store, csv *exporter.CSVWriter, metrics *observability.Metrics, logger *slog.Logger) *IndicatorService {
	return &IndicatorService{
		store:    st,
		exporter: csv,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "indicator_service")),
	}
}

// Observations returns the rows matching the filter. Date slicing happens
// first, then the categorical cascade.
func (s *IndicatorService) Observations(ctx context.Context, q FilterQuery) (domain.Table, error) {
	var slice domain.Table
	var err error

	if q.All {
		slice, _, err = s.store.Load(ctx)
	} else {
		slice, err = s.store.Query(ctx, q.Date)
	}
	if err != nil {
		return nil, err
	}

	return filterTable(slice, q), nil
}

// Latest returns the current-state snapshot: one row per code.
func (s *IndicatorService) Latest(ctx context.Context) (domain.Table, error) {
	return s.store.LatestPerCode(ctx)
}

// Report returns the load report of the last normalization, so callers can
// surface the dropped-row count.
func (s *IndicatorService) Report(ctx context.Context) (domain.LoadReport, error) {
	_, report, err := s.store.Load(ctx)
	return report, err
}

// scoreSlice picks the rows scores are computed over: the exact date slice
// when a date is given, otherwise the latest observation per indicator.
func (s *IndicatorService) scoreSlice(ctx context.Context, date *time.Time) (domain.Table, error) {
	if date != nil {
		return s.store.Query(ctx, date)
	}
	return s.store.LatestPerCode(ctx)
}

// OverallScore computes the weighted score across the selected slice.
func (s *IndicatorService) OverallScore(ctx context.Context, date *time.Time) (float64, error) {
	slice, err := s.scoreSlice(ctx, date)
	if err != nil {
		return 0, err
	}
	s.metrics.ScoreRequests.Inc()
	return scoring.OverallScore(slice), nil
}

// GroupScores aggregates the selected slice by component or category.
func (s *IndicatorService) GroupScores(ctx context.Context, date *time.Time, dim scoring.Dimension) ([]domain.GroupScore, error) {
	slice, err := s.scoreSlice(ctx, date)
	if err != nil {
		return nil, err
	}
	s.metrics.ScoreRequests.Inc()
	return scoring.Aggregate(slice, dim)
}

// PivotScores computes the pivot matrix over the selected slice.
func (s *IndicatorService) PivotScores(ctx context.Context, date *time.Time, rows, cols scoring.Dimension, field scoring.Field) (domain.PivotTable, error) {
	slice, err := s.scoreSlice(ctx, date)
	if err != nil {
		return domain.PivotTable{}, err
	}
	s.metrics.ScoreRequests.Inc()
	return scoring.Pivot(slice, rows, cols, field)
}

// Summary produces the dashboard headline over the selected slice.
func (s *IndicatorService) Summary(ctx context.Context, date *time.Time) (domain.Summary, error) {
	slice, err := s.scoreSlice(ctx, date)
	if err != nil {
		return domain.Summary{}, err
	}
	s.metrics.ScoreRequests.Inc()
	return scoring.Summarize(slice)
}

// Upsert writes a value for (code, date), creating the row when needed.
func (s *IndicatorService) Upsert(ctx context.Context, code string, date time.Time, value float64, seed *domain.Observation) (store.UpsertResult, error) {
	res, err := s.store.Upsert(ctx, code, date, value, seed)
	s.metrics.Mutations.WithLabelValues("upsert", mutationOutcome(err)).Inc()
	return res, err
}

// Delete removes the observation at (code, date).
func (s *IndicatorService) Delete(ctx context.Context, code string, date time.Time) error {
	err := s.store.Delete(ctx, code, date)
	s.metrics.Mutations.WithLabelValues("delete", mutationOutcome(err)).Inc()
	return err
}

// ExportCSV streams the filtered view as CSV.
func (s *IndicatorService) ExportCSV(ctx context.Context, q FilterQuery, w io.Writer) error {
	slice, err := s.Observations(ctx, q)
	if err != nil {
		return err
	}
	s.metrics.CSVExports.Inc()
	return s.exporter.Write(w, slice)
}

func filterTable(slice domain.Table, q FilterQuery) domain.Table {
	out := domain.Table{}
	for _, o := range slice {
		if q.Component != "" && o.Component != q.Component {
			continue
		}
		if q.Category != "" && o.Category != q.Category {
			continue
		}
		if q.Code != "" && o.Code != q.Code {
			continue
		}
		out = append(out, o)
	}
	return out
}

func mutationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
