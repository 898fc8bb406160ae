package http

import (
	"context"
	"io"
	"time"

	"icedash/internal/scoring"
	"icedash/internal/services"
	"icedash/internal/store"
	"icedash/pkg/contracts/domain"
)

// IndicatorServiceInterface defines the service surface the handlers depend
// on. Keeping it here lets handler tests substitute a stub.
type IndicatorServiceInterface interface {
	Observations(ctx context.Context, q services.FilterQuery) (domain.Table, error)
	Report(ctx context.Context) (domain.LoadReport, error)
	OverallScore(ctx context.Context, date *time.Time) (float64, error)
	GroupScores(ctx context.Context, date *time.Time, dim scoring.Dimension) ([]domain.GroupScore, error)
	PivotScores(ctx context.Context, date *time.Time, rows, cols scoring.Dimension, field scoring.Field) (domain.PivotTable, error)
	Summary(ctx context.Context, date *time.Time) (domain.Summary, error)
	Upsert(ctx context.Context, code string, date time.Time, value float64, seed *domain.Observation) (store.UpsertResult, error)
	Delete(ctx context.Context, code string, date time.Time) error
	ExportCSV(ctx context.Context, q services.FilterQuery, w io.Writer) error
}
