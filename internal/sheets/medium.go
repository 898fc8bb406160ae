package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"icedash/internal/config"
	"icedash/internal/store"
	"icedash/pkg/contracts/domain"
)

// Medium is the Google Sheets backing medium. The connection is lazily
// established on first use and cached for the process lifetime. Row
// matching scans all rows once per mutation, which is acceptable at this
// scale (a few hundred rows at most).
type Medium struct {
	cfg       config.SheetsConfig
	worksheet string
	logger    *slog.Logger

	mu  sync.Mutex
	api valuesAPI
}

// NewMedium creates a sheets medium. No network traffic happens until the
// first operation.
func NewMedium(cfg config.SheetsConfig, worksheet string, logger *slog.Logger) *Medium {
	return &Medium{
		cfg:       cfg,
		worksheet: worksheet,
		logger:    logger.With(slog.String("component", "sheets_medium")),
	}
}

// newMediumWithAPI wires a pre-built API, used by tests.
func newMediumWithAPI(api valuesAPI, logger *slog.Logger) *Medium {
	return &Medium{api: api, logger: logger.With(slog.String("component", "sheets_medium"))}
}

func (m *Medium) connect(ctx context.Context) (valuesAPI, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.api != nil {
		return m.api, nil
	}

	api, err := newGoogleValuesAPI(ctx, m.cfg.CredentialsFile, m.cfg.SpreadsheetID, m.worksheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	m.logger.InfoContext(ctx, "sheets connection established",
		slog.String("spreadsheet_id", m.cfg.SpreadsheetID),
		slog.String("worksheet", m.worksheet))

	m.api = api
	return api, nil
}

// Load reads the full worksheet: row 1 headers, every following row one
// observation.
func (m *Medium) Load(ctx context.Context) (store.Raw, error) {
	api, err := m.connect(ctx)
	if err != nil {
		return store.Raw{}, err
	}

	values, err := api.Get(ctx)
	if err != nil {
		return store.Raw{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if len(values) == 0 {
		return store.Raw{}, store.ErrEmptySource
	}

	raw := store.Raw{Header: toStrings(values[0])}
	for _, row := range values[1:] {
		raw.Rows = append(raw.Rows, toStrings(row))
	}
	return raw, nil
}

// Persist rewrites the whole worksheet. Mutating operations prefer the
// row-level methods; this exists for bulk migrations between media.
func (m *Medium) Persist(ctx context.Context, table domain.Table) error {
	api, err := m.connect(ctx)
	if err != nil {
		return err
	}

	values := [][]interface{}{toCells(config.ColumnHeaders)}
	for _, o := range table {
		values = append(values, observationCells(o))
	}

	if err := api.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if err := api.Update(ctx, "A1", values); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// AppendRow adds one observation to the bottom of the worksheet.
func (m *Medium) AppendRow(ctx context.Context, o domain.Observation) error {
	api, err := m.connect(ctx)
	if err != nil {
		return err
	}

	if err := api.Append(ctx, observationCells(o)); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// UpdateValue overwrites the Valor cell of the row matching (code, date).
// Dates on the sheet are day-first text and compared as calendar dates.
func (m *Medium) UpdateValue(ctx context.Context, code string, date time.Time, value float64) error {
	api, err := m.connect(ctx)
	if err != nil {
		return err
	}

	values, err := api.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	rowIndex, columns, err := findRow(values, code, date)
	if err != nil {
		return err
	}

	valueCol, ok := columns[config.HeaderValue]
	if !ok {
		return &store.SchemaError{Missing: []string{config.HeaderValue}}
	}

	// Sheets ranges are 1-based.
	cellRef := fmt.Sprintf("%s%d", columnLetter(valueCol), rowIndex+1)
	if err := api.Update(ctx, cellRef, [][]interface{}{{store.FormatDecimal(value)}}); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	m.logger.InfoContext(ctx, "sheet cell updated",
		slog.String("code", code),
		slog.String("cell", cellRef))
	return nil
}

// DeleteRow removes the worksheet row matching (code, date).
func (m *Medium) DeleteRow(ctx context.Context, code string, date time.Time) error {
	api, err := m.connect(ctx)
	if err != nil {
		return err
	}

	values, err := api.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	rowIndex, _, err := findRow(values, code, date)
	if err != nil {
		return err
	}

	if err := api.DeleteRow(ctx, int64(rowIndex)); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	m.logger.InfoContext(ctx, "sheet row deleted",
		slog.String("code", code),
		slog.Int("row", rowIndex))
	return nil
}

// findRow scans the worksheet once for the (code, date) key and returns the
// 0-based row index plus the header column map. A miss is store.ErrNotFound.
func findRow(values [][]interface{}, code string, date time.Time) (int, map[string]int, error) {
	if len(values) == 0 {
		return 0, nil, store.ErrEmptySource
	}

	header := toStrings(values[0])
	columns := map[string]int{}
	for i, h := range header {
		columns[h] = i
	}

	codeCol, okCode := columns[config.HeaderCode]
	dateCol, okDate := columns[config.HeaderDate]
	if !okCode || !okDate {
		var missing []string
		if !okCode {
			missing = append(missing, config.HeaderCode)
		}
		if !okDate {
			missing = append(missing, config.HeaderDate)
		}
		return 0, nil, &store.SchemaError{Missing: missing}
	}

	for i, row := range values[1:] {
		cells := toStrings(row)
		if codeCol >= len(cells) || dateCol >= len(cells) {
			continue
		}
		if cells[codeCol] != code {
			continue
		}
		rowDate, ok := store.ParseDate(cells[dateCol])
		if !ok {
			continue
		}
		if domain.SameDay(rowDate, date) {
			return i + 1, columns, nil
		}
	}
	return 0, nil, store.ErrNotFound
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = fmt.Sprint(cell)
	}
	return out
}

func toCells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}

func observationCells(o domain.Observation) []interface{} {
	return []interface{}{
		o.ActionLine,
		o.Component,
		o.Category,
		o.Code,
		o.Name,
		store.FormatDecimal(o.Value),
		store.FormatDate(o.Date),
		store.FormatDecimal(o.Target),
		store.FormatDecimal(o.Weight),
	}
}

// columnLetter converts a 0-based column index to its A1 letter.
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}

// Name labels the medium in metrics and logs.
func (m *Medium) Name() string { return "sheets" }
