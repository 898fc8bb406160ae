// Package store owns the canonical table of indicator observations. It
// hides the quirks of the backing media (semicolon CSV with decimal commas,
// XLSX worksheets, a remote Google Sheets worksheet) behind one normalized
// schema and exposes load, filtered query, upsert and delete operations.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"icedash/internal/config"
	"icedash/internal/observability"
	"icedash/pkg/contracts/domain"
)

// Sentinel errors surfaced by store operations. Callers distinguish
// not-found (recoverable, retry with another key) from unavailable (remote
// medium unreachable, never downgraded to "no data").
var (
	ErrNotFound     = errors.New("observation not found")
	ErrNoBaseRecord = errors.New("no base record for code")
	ErrUnavailable  = errors.New("backing medium unavailable")
	ErrEmptySource  = errors.New("no rows survived cleaning")
)

// SchemaError reports required columns absent after header renaming. It is
// blocking: no partial processing happens on a malformed source.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// loadOutcome classifies a load failure for the metrics label.
func loadOutcome(err error) string {
	var schemaErr *SchemaError
	switch {
	case errors.As(err, &schemaErr):
		return "schema_error"
	case errors.Is(err, ErrEmptySource):
		return "parse_error"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// Raw is the untyped shape every medium produces: the header row plus one
// string slice per data row.
type Raw struct {
	Header []string
	Rows   [][]string
}

// Medium reads and writes a whole table against a backing medium.
type Medium interface {
	Load(ctx context.Context) (Raw, error)
	Persist(ctx context.Context, table domain.Table) error
}

// RowMedium is implemented by media that support row-level mutations, so
// the store can dispatch the minimal operation instead of rewriting the
// whole sheet.
type RowMedium interface {
	AppendRow(ctx context.Context, obs domain.Observation) error
	UpdateValue(ctx context.Context, code string, date time.Time, value float64) error
	DeleteRow(ctx context.Context, code string, date time.Time) error
}

// Store is the IndicatorStore: it loads the canonical table through a TTL
// cache, runs table operations, and reconciles mutations with the medium.
type Store struct {
	medium  Medium
	cache   *loadCache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a store over the given medium. A zero TTL disables caching.
func New(medium Medium, ttl time.Duration, logger *slog.Logger) *Store {
	s := &Store{
		medium: medium,
		logger: logger.With(slog.String("component", "store")),
	}
	s.cache = newLoadCache(ttl, s.loadUncached)
	return s
}

// WithMetrics attaches Prometheus instrumentation to loads and cache
// lookups. It returns the store for chaining.
func (s *Store) WithMetrics(m *observability.Metrics) *Store {
	s.metrics = m
	s.cache.onHit = func() { m.CacheLookups.WithLabelValues("hit").Inc() }
	s.cache.onMiss = func() { m.CacheLookups.WithLabelValues("miss").Inc() }
	return s
}

// mediumName labels metrics with the backing medium kind.
func (s *Store) mediumName() string {
	if n, ok := s.medium.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unknown"
}

func (s *Store) recordLoad(outcome string, dropped int, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.TableLoads.WithLabelValues(s.mediumName(), outcome).Inc()
	if dropped > 0 {
		s.metrics.RowsDropped.Add(float64(dropped))
	}
	if outcome == "success" {
		s.metrics.LoadDuration.Observe(elapsed.Seconds())
	}
}

// Load returns the canonical table, served from cache within the TTL.
// The report describes the last real load from the medium.
func (s *Store) Load(ctx context.Context) (domain.Table, domain.LoadReport, error) {
	return s.cache.get(ctx)
}

func (s *Store) loadUncached(ctx context.Context) (domain.Table, domain.LoadReport, error) {
	start := time.Now()

	raw, err := s.medium.Load(ctx)
	if err != nil {
		s.recordLoad(loadOutcome(err), 0, 0)
		return nil, domain.LoadReport{}, err
	}

	table, report, err := Normalize(raw)
	if err != nil {
		s.recordLoad(loadOutcome(err), report.DroppedRows, 0)
		return nil, report, err
	}
	s.recordLoad("success", report.DroppedRows, time.Since(start))

	s.logger.InfoContext(ctx, "table loaded",
		slog.Int("total_rows", report.TotalRows),
		slog.Int("loaded_rows", report.LoadedRows),
		slog.Int("dropped_rows", report.DroppedRows))

	return table, report, nil
}

// Invalidate drops the cached table so the next Load hits the medium.
func (s *Store) Invalidate() {
	s.cache.invalidate()
}

// Query returns the slice of the table matching the given date, or the most
// recent slice when asOf is nil. An empty result is not an error.
func (s *Store) Query(ctx context.Context, asOf *time.Time) (domain.Table, error) {
	table, _, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Query(table, asOf), nil
}

// LatestPerCode returns the current-state snapshot: one row per code, the
// most recent observation of each.
func (s *Store) LatestPerCode(ctx context.Context) (domain.Table, error) {
	table, _, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return LatestPerCode(table), nil
}

// UpsertResult tells the caller whether the write created a new row or
// overwrote an existing one.
type UpsertResult struct {
	Created bool
	Row     domain.Observation
}

// Upsert writes value for (code, date). An exact key match is overwritten;
// otherwise a new row is appended with its non-varying fields copied from
// the first existing row of the same code, or from seed when the code is
// new. A new code without a seed fails with ErrNoBaseRecord.
func (s *Store) Upsert(ctx context.Context, code string, date time.Time, value float64, seed *domain.Observation) (UpsertResult, error) {
	table, _, err := s.Load(ctx)
	if err != nil {
		return UpsertResult{}, err
	}

	updated, created, err := Upsert(table, code, date, value, seed)
	if err != nil {
		return UpsertResult{}, err
	}

	row := updated[len(updated)-1]
	if !created {
		for _, o := range updated {
			if o.SameKey(code, date) {
				row = o
				break
			}
		}
	}

	if rm, ok := s.medium.(RowMedium); ok {
		if created {
			err = rm.AppendRow(ctx, row)
		} else {
			err = rm.UpdateValue(ctx, code, date, value)
		}
	} else {
		err = s.medium.Persist(ctx, updated)
	}
	if err != nil {
		return UpsertResult{}, err
	}

	s.Invalidate()
	s.logger.InfoContext(ctx, "observation upserted",
		slog.String("code", code),
		slog.String("date", date.Format(config.DateLayout)),
		slog.Float64("value", value),
		slog.Bool("created", created))

	return UpsertResult{Created: created, Row: row}, nil
}

// Delete removes the observation at exactly (code, date), comparing dates
// at day granularity. A miss fails with ErrNotFound and leaves the table
// unchanged.
func (s *Store) Delete(ctx context.Context, code string, date time.Time) error {
	table, _, err := s.Load(ctx)
	if err != nil {
		return err
	}

	updated, err := Delete(table, code, date)
	if err != nil {
		return err
	}

	if rm, ok := s.medium.(RowMedium); ok {
		err = rm.DeleteRow(ctx, code, date)
	} else {
		err = s.medium.Persist(ctx, updated)
	}
	if err != nil {
		return err
	}

	s.Invalidate()
	s.logger.InfoContext(ctx, "observation deleted",
		slog.String("code", code),
		slog.String("date", date.Format(config.DateLayout)))

	return nil
}
