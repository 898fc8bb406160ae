package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeSampleXLSX(t *testing.T, sheet string, withTitleRow bool) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}

	row := 1
	if withTitleRow {
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Dashboard ICE - Indicadores"}))
		row = 2
	}

	header := []interface{}{
		"LINEA DE ACCIÓN", "COMPONENTE PROPUESTO", "CATEGORÍA", "COD",
		"Nombre de indicador", "Valor", "Fecha",
	}
	require.NoError(t, f.SetSheetRow(sheet, cellRef(row), &header))
	require.NoError(t, f.SetSheetRow(sheet, cellRef(row+1),
		&[]interface{}{"LA-1", "Datos", "Apertura", "D01-1", "Datasets", "0,4", "01/01/2025"}))
	require.NoError(t, f.SetSheetRow(sheet, cellRef(row+2),
		&[]interface{}{"LA-2", "Servicios", "Tramites", "S01-1", "Trámites", "0,8", "01/01/2025"}))

	path := filepath.Join(t.TempDir(), "indicadores.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func cellRef(row int) string {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	return cell
}

func TestXLSXMedium_Load(t *testing.T) {
	path := writeSampleXLSX(t, "Sheet1", false)
	medium := NewXLSXMedium(path, "Sheet1")

	raw, err := medium.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, raw.Rows, 2)

	table, _, err := Normalize(raw)
	require.NoError(t, err)
	assert.Len(t, table, 2)
}

func TestXLSXMedium_SkipsTitleRows(t *testing.T) {
	path := writeSampleXLSX(t, "Sheet1", true)
	medium := NewXLSXMedium(path, "Sheet1")

	raw, err := medium.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "COD", raw.Header[3])
	assert.Len(t, raw.Rows, 2)
}

func TestXLSXMedium_DiscoversWorksheet(t *testing.T) {
	path := writeSampleXLSX(t, "Indicadores", false)
	medium := NewXLSXMedium(path, "")

	raw, err := medium.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, raw.Rows, 2)
}

func TestXLSXMedium_PersistUnsupported(t *testing.T) {
	medium := NewXLSXMedium("whatever.xlsx", "")
	err := medium.Persist(context.Background(), nil)
	assert.Error(t, err)
}

func TestXLSXMedium_MissingFile(t *testing.T) {
	medium := NewXLSXMedium(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	_, err := medium.Load(context.Background())
	assert.Error(t, err)
}
