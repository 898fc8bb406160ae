package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"icedash/internal/config"
	"icedash/pkg/contracts/domain"
)

// validate checks every typed Observation built at the store boundary, so
// malformed rows are quarantined here instead of propagating into scoring.
var validate = validator.New()

// dateLayouts are tried in order. Sources are day-first; the rest cover
// exports that went through other tooling.
var dateLayouts = []string{
	config.DateLayout,    // 02/01/2006
	"2/1/2006",
	"02-01-2006",
	config.DateLayoutISO, // 2006-01-02
}

// headerAliases maps recognized source header spellings onto the canonical
// ones. Keys are normalized (lowercased, trimmed).
var headerAliases = map[string]string{
	"linea de acción":      config.HeaderActionLine,
	"línea de acción":      config.HeaderActionLine,
	"linea de accion":      config.HeaderActionLine,
	"componente propuesto": config.HeaderComponent,
	"componente":           config.HeaderComponent,
	"categoría":            config.HeaderCategory,
	"categoria":            config.HeaderCategory,
	"cod":                  config.HeaderCode,
	"código":               config.HeaderCode,
	"nombre de indicador":  config.HeaderName,
	"indicador":            config.HeaderName,
	"valor":                config.HeaderValue,
	"fecha":                config.HeaderDate,
	"meta":                 config.HeaderTarget,
	"peso":                 config.HeaderWeight,
}

// Normalize turns a raw medium payload into the canonical table: headers
// renamed via the fixed mapping, day-first dates parsed with layout
// fallbacks, decimal commas converted, default target and weight columns
// injected. Rows with unparseable dates or values are dropped and counted,
// never silently zeroed. Missing required columns are a blocking schema
// error; a load where zero rows survive cleaning is ErrEmptySource.
func Normalize(raw Raw) (domain.Table, domain.LoadReport, error) {
	report := domain.LoadReport{TotalRows: len(raw.Rows), LoadedAt: time.Now()}

	columns := mapColumns(raw.Header)
	if missing := missingRequired(columns); len(missing) > 0 {
		return nil, report, &SchemaError{Missing: missing}
	}

	cell := func(row []string, header string) string {
		idx, ok := columns[header]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	table := make(domain.Table, 0, len(raw.Rows))
	var missingWeight []int

	for _, row := range raw.Rows {
		if isEmptyRow(row) {
			report.DroppedRows++
			continue
		}

		date, ok := ParseDate(cell(row, config.HeaderDate))
		if !ok {
			report.DroppedRows++
			continue
		}

		value, ok := ParseDecimal(cell(row, config.HeaderValue))
		if !ok {
			report.DroppedRows++
			continue
		}

		obs := domain.Observation{
			ActionLine: cell(row, config.HeaderActionLine),
			Component:  cell(row, config.HeaderComponent),
			Category:   cell(row, config.HeaderCategory),
			Code:       cell(row, config.HeaderCode),
			Name:       cell(row, config.HeaderName),
			Value:      value,
			Date:       date,
			Target:     config.DefaultTarget,
			Weight:     -1,
		}

		if target, ok := ParseDecimal(cell(row, config.HeaderTarget)); ok && target > 0 {
			obs.Target = target
		}
		if weight, ok := ParseDecimal(cell(row, config.HeaderWeight)); ok {
			obs.Weight = weight
		} else {
			missingWeight = append(missingWeight, len(table))
		}

		// Weight may still carry the -1 "fill me" marker here; validate a
		// copy with it cleared.
		candidate := obs
		if candidate.Weight < 0 {
			candidate.Weight = 0
		}
		if err := validate.Struct(candidate); err != nil {
			report.DroppedRows++
			continue
		}

		table = append(table, obs)
	}

	if len(table) == 0 {
		return nil, report, ErrEmptySource
	}

	// Default weight: 100 split evenly across distinct codes, computed once
	// per load over the full indicator set.
	if len(missingWeight) > 0 {
		even := config.TotalWeight / float64(len(table.Codes()))
		for _, i := range missingWeight {
			table[i].Weight = even
		}
	}

	report.LoadedRows = len(table)
	return table, report, nil
}

// mapColumns builds the source-header to column-index mapping, resolving
// aliases. Later duplicates of a header are ignored.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		canonical, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, dup := columns[canonical]; !dup {
			columns[canonical] = i
		}
	}
	return columns
}

func missingRequired(columns map[string]int) []string {
	var missing []string
	for _, h := range config.RequiredHeaders {
		if _, ok := columns[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseDate parses a day-first textual date, falling back through the known
// layouts. The time component is discarded.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// Some exports append a time-of-day; only the date part matters.
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), true
		}
	}
	return time.Time{}, false
}

// ParseDecimal parses a number that may use a decimal comma.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatDate renders a date in the locale format of the flat-file medium.
func FormatDate(t time.Time) string {
	return t.Format(config.DateLayout)
}

// FormatDecimal renders a number with a decimal comma, the notation the
// flat-file medium uses.
func FormatDecimal(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', -1, 64), ".", ",")
}
