package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"icedash/internal/config"
	"icedash/pkg/contracts/domain"
)

// utf8BOM prefixes the flat-file medium so Excel recognizes the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVMedium reads and writes the semicolon-delimited flat-file medium:
// UTF-8 with BOM, Spanish headers, DD/MM/YYYY dates, decimal commas.
type CSVMedium struct {
	path string
}

// NewCSVMedium creates a flat-file medium over the given path.
func NewCSVMedium(path string) *CSVMedium {
	return &CSVMedium{path: path}
}

// Load reads all rows from the file. The first row is the header.
func (m *CSVMedium) Load(ctx context.Context) (Raw, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return Raw{}, fmt.Errorf("failed to read %s: %w", m.path, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = config.CSVDelimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Raw{}, fmt.Errorf("failed to parse %s: %w", m.path, err)
	}
	if len(records) == 0 {
		return Raw{}, fmt.Errorf("%s: %w", m.path, ErrEmptySource)
	}

	return Raw{Header: records[0], Rows: records[1:]}, nil
}

// Persist writes the canonical table back to the file, converting dates to
// the locale format and decimals back to comma notation.
func (m *CSVMedium) Persist(ctx context.Context, table domain.Table) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", m.path, err)
	}

	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	writer.Comma = config.CSVDelimiter

	if err := writer.Write(config.ColumnHeaders); err != nil {
		file.Close()
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, o := range table {
		if err := writer.Write(formatRow(o)); err != nil {
			file.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// formatRow renders an observation in the column order of ColumnHeaders.
func formatRow(o domain.Observation) []string {
	return []string{
		o.ActionLine,
		o.Component,
		o.Category,
		o.Code,
		o.Name,
		FormatDecimal(o.Value),
		FormatDate(o.Date),
		FormatDecimal(o.Target),
		FormatDecimal(o.Weight),
	}
}

// Name labels the medium in metrics and logs.
func (m *CSVMedium) Name() string { return "csv" }
