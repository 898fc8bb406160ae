// Command icecsv converts an indicator source (XLSX workbook, semicolon CSV
// or a Google Sheets worksheet) into the canonical CSV format and prints a
// score summary of the loaded table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"icedash/internal/config"
	"icedash/internal/exporter"
	"icedash/internal/infrastructure"
	"icedash/internal/scoring"
	"icedash/internal/sheets"
	"icedash/internal/store"
	"icedash/pkg/contracts/domain"
)

func main() {
	medium := flag.String("medium", config.MediumXLSX, "source medium: csv | xlsx | sheets")
	in := flag.String("in", "", "input file path (csv and xlsx media)")
	worksheet := flag.String("worksheet", "Indicadores", "worksheet name (xlsx and sheets media)")
	out := flag.String("out", "", "output csv file path (empty skips the export)")
	spreadsheet := flag.String("spreadsheet", "", "spreadsheet ID (sheets medium)")
	credentials := flag.String("credentials", "credentials.json", "service account credentials file (sheets medium)")
	summary := flag.Bool("summary", true, "print the score summary of the loaded table")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		defaults := config.Default()
		cfg = &defaults
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	source, err := buildMedium(*medium, *in, *worksheet, *spreadsheet, *credentials, logger)
	if err != nil {
		logger.Error("Invalid source", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Loading indicator table",
		slog.String("medium", *medium),
		slog.String("input", *in))

	ctx := context.Background()
	st := store.New(source, 0, logger)

	table, report, err := st.Load(ctx)
	if err != nil {
		logger.Error("Failed to load table", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Table loaded",
		slog.Int("total_rows", report.TotalRows),
		slog.Int("loaded_rows", report.LoadedRows),
		slog.Int("dropped_rows", report.DroppedRows))
	fmt.Printf("Loaded %d rows (%d dropped)\n", report.LoadedRows, report.DroppedRows)

	if *out != "" {
		if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
			logger.Error("Cannot create output directory", slog.String("error", err.Error()))
			os.Exit(1)
		}

		writer := exporter.NewCSVWriter(logger)
		if err := writer.WriteFile(*out, table); err != nil {
			logger.Error("Failed to write CSV", slog.String("error", err.Error()))
			os.Exit(1)
		}

		logger.Info("Canonical CSV written", slog.String("path", *out))
		fmt.Printf("Wrote %s\n", *out)
	}

	if *summary {
		printSummary(table)
	}
}

// buildMedium maps the -medium flag onto a store.Medium.
func buildMedium(medium, in, worksheet, spreadsheet, credentials string, logger *slog.Logger) (store.Medium, error) {
	switch medium {
	case config.MediumCSV:
		if in == "" {
			return nil, fmt.Errorf("-in is required for medium %q", medium)
		}
		return store.NewCSVMedium(in), nil
	case config.MediumXLSX:
		if in == "" {
			return nil, fmt.Errorf("-in is required for medium %q", medium)
		}
		return store.NewXLSXMedium(in, worksheet), nil
	case config.MediumSheets:
		if spreadsheet == "" {
			return nil, fmt.Errorf("-spreadsheet is required for medium %q", medium)
		}
		return sheets.NewMedium(config.SheetsConfig{
			SpreadsheetID:   spreadsheet,
			CredentialsFile: credentials,
		}, worksheet, logger), nil
	default:
		return nil, fmt.Errorf("unknown medium: %q", medium)
	}
}

// printSummary prints the overall score and the per-component breakdown over
// the latest observation of each indicator.
func printSummary(table domain.Table) {
	latest := store.LatestPerCode(table)

	summary, err := scoring.Summarize(latest)
	if err != nil {
		fmt.Printf("No scores available: %v\n", err)
		return
	}

	fmt.Printf("Overall score: %.2f (%d indicators)\n", summary.Overall, summary.Indicators)
	for _, g := range summary.ByComponent {
		fmt.Printf("  %-30s %6.2f\n", g.Group, g.Score)
	}
}
