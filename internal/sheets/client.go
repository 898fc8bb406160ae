// Package sheets backs the indicator store with a Google Sheets worksheet:
// row 1 holds the headers, every following row one observation. Mutations
// are dispatched as minimal row-level operations (append, cell update, row
// delete) instead of rewriting the whole sheet.
package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// valuesAPI is the thin seam over the remote worksheet so tests can run
// against a fake instead of the network.
type valuesAPI interface {
	Get(ctx context.Context) ([][]interface{}, error)
	Append(ctx context.Context, row []interface{}) error
	Update(ctx context.Context, rangeRef string, values [][]interface{}) error
	Clear(ctx context.Context) error
	DeleteRow(ctx context.Context, rowIndex int64) error
}

// googleValuesAPI implements valuesAPI against the Sheets v4 service.
type googleValuesAPI struct {
	service       *sheets.Service
	spreadsheetID string
	worksheet     string
	sheetID       int64
	sheetIDKnown  bool
}

// newGoogleValuesAPI creates the Sheets service from a service-account
// credentials file.
func newGoogleValuesAPI(ctx context.Context, credentialsFile, spreadsheetID, worksheet string) (*googleValuesAPI, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &googleValuesAPI{
		service:       service,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}, nil
}

func (g *googleValuesAPI) Get(ctx context.Context) ([][]interface{}, error) {
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, g.worksheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read from sheets: %w", err)
	}
	return resp.Values, nil
}

func (g *googleValuesAPI) Append(ctx context.Context, row []interface{}) error {
	valueRange := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, g.worksheet, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to sheets: %w", err)
	}
	return nil
}

func (g *googleValuesAPI) Update(ctx context.Context, rangeRef string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{Values: values}
	_, err := g.service.Spreadsheets.Values.Update(
		g.spreadsheetID,
		fmt.Sprintf("%s!%s", g.worksheet, rangeRef),
		valueRange,
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update sheets: %w", err)
	}
	return nil
}

func (g *googleValuesAPI) Clear(ctx context.Context) error {
	_, err := g.service.Spreadsheets.Values.Clear(g.spreadsheetID, g.worksheet, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheets: %w", err)
	}
	return nil
}

// DeleteRow removes one worksheet row (0-based index) via a structural
// batch update, which needs the numeric sheet ID rather than its title.
func (g *googleValuesAPI) DeleteRow(ctx context.Context, rowIndex int64) error {
	sheetID, err := g.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: rowIndex,
					EndIndex:   rowIndex + 1,
				},
			},
		}},
	}

	_, err = g.service.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete row from sheets: %w", err)
	}
	return nil
}

func (g *googleValuesAPI) resolveSheetID(ctx context.Context) (int64, error) {
	if g.sheetIDKnown {
		return g.sheetID, nil
	}

	spreadsheet, err := g.service.Spreadsheets.Get(g.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == g.worksheet {
			g.sheetID = sheet.Properties.SheetId
			g.sheetIDKnown = true
			return g.sheetID, nil
		}
	}
	return 0, fmt.Errorf("worksheet %q not found in spreadsheet", g.worksheet)
}
