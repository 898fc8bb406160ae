// Package exporter produces the CSV download surface: the current filtered
// view rendered in the same locale conventions as the flat-file medium, so
// a downloaded file can be re-imported unchanged.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"icedash/internal/config"
	"icedash/internal/store"
	"icedash/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter renders observation tables as CSV.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	return &CSVWriter{logger: logger.With(slog.String("component", "exporter"))}
}

// Write streams the table as semicolon CSV with a UTF-8 BOM (helps Excel
// recognize the encoding), using locale date and decimal formatting.
func (w *CSVWriter) Write(out io.Writer, table domain.Table) error {
	if _, err := out.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(out)
	writer.Comma = config.CSVDelimiter

	if err := writer.Write(config.ColumnHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, o := range table {
		record := []string{
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
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes the table to a CSV file, creating directories as needed.
func (w *CSVWriter) WriteFile(path string, table domain.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w.logger.Info("Writing CSV export",
		slog.String("path", path),
		slog.Int("record_count", len(table)))

	if err := w.Write(file, table); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteScores writes group scores as a two-column CSV, for the score
// summary export.
func (w *CSVWriter) WriteScores(out io.Writer, groups []domain.GroupScore) error {
	if _, err := out.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(out)
	writer.Comma = config.CSVDelimiter

	if err := writer.Write([]string{"Grupo", "Puntaje"}); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, g := range groups {
		if err := writer.Write([]string{g.Group, store.FormatDecimal(g.Score)}); err != nil {
			return fmt.Errorf("failed to write score row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
