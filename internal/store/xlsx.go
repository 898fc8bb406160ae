package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"icedash/internal/config"
	"icedash/pkg/contracts/domain"
)

// XLSXMedium loads the indicator table from an Excel workbook. It is a
// read-only medium: mutations flow through the CSV or Sheets media.
type XLSXMedium struct {
	path      string
	worksheet string
}

// NewXLSXMedium creates a workbook medium. An empty worksheet name means
// "find the sheet that carries indicator data".
func NewXLSXMedium(path, worksheet string) *XLSXMedium {
	return &XLSXMedium{path: path, worksheet: worksheet}
}

// Load opens the workbook and extracts header plus data rows. The header
// row is discovered by scanning for the indicator columns, since exports
// often carry title rows above the real table.
func (m *XLSXMedium) Load(ctx context.Context) (Raw, error) {
	f, err := excelize.OpenFile(m.path)
	if err != nil {
		return Raw{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	rows, err := m.sheetRows(f)
	if err != nil {
		return Raw{}, err
	}

	headerRow := findHeaderRow(rows)
	if headerRow == -1 {
		return Raw{}, &SchemaError{Missing: config.RequiredHeaders}
	}

	return Raw{Header: rows[headerRow], Rows: rows[headerRow+1:]}, nil
}

// Persist is not supported for workbooks.
func (m *XLSXMedium) Persist(ctx context.Context, table domain.Table) error {
	return fmt.Errorf("xlsx medium is read-only")
}

func (m *XLSXMedium) sheetRows(f *excelize.File) ([][]string, error) {
	if m.worksheet != "" {
		rows, err := f.GetRows(m.worksheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read worksheet %q: %w", m.worksheet, err)
		}
		return rows, nil
	}

	// No worksheet configured: pick the first sheet whose rows look like
	// indicator data.
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) < 2 {
			continue
		}
		if findHeaderRow(rows) != -1 {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("could not find indicator data sheet in file")
}

// findHeaderRow returns the index of the first row containing the code and
// value columns, or -1 when no row qualifies.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		rowText := strings.ToLower(strings.Join(row, " "))
		if strings.Contains(rowText, "cod") &&
			strings.Contains(rowText, "valor") &&
			strings.Contains(rowText, "fecha") {
			return i
		}
	}
	return -1
}

// Name labels the medium in metrics and logs.
func (m *XLSXMedium) Name() string { return "xlsx" }
