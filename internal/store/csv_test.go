package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "\ufeff" +
	"LINEA DE ACCIÓN;COMPONENTE PROPUESTO;CATEGORÍA;COD;Nombre de indicador;Valor;Fecha\n" +
	"LA-1;Datos;Apertura;D01-1;Datasets publicados;0,4;01/01/2025\n" +
	"LA-1;Datos;Apertura;D01-1;Datasets publicados;0,6;01/02/2025\n" +
	"LA-2;Servicios;Tramites;S01-1;Trámites en línea;0,8;01/01/2025\n"

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "indicadores.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))
	return path
}

func TestCSVMedium_Load(t *testing.T) {
	medium := NewCSVMedium(writeSampleCSV(t))

	raw, err := medium.Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, raw.Rows, 3)
	// BOM stripped from first header cell.
	assert.Equal(t, "LINEA DE ACCIÓN", raw.Header[0])
}

func TestCSVMedium_LoadMissingFile(t *testing.T) {
	medium := NewCSVMedium(filepath.Join(t.TempDir(), "nope.csv"))
	_, err := medium.Load(context.Background())
	assert.Error(t, err)
}

func TestCSVMedium_RoundTrip(t *testing.T) {
	ctx := context.Background()
	medium := NewCSVMedium(writeSampleCSV(t))

	raw, err := medium.Load(ctx)
	require.NoError(t, err)
	table, _, err := Normalize(raw)
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out.csv")
	out := NewCSVMedium(outPath)
	require.NoError(t, out.Persist(ctx, table))

	// A persisted canonical table loads back to the same rows under
	// date/decimal reformatting.
	raw2, err := out.Load(ctx)
	require.NoError(t, err)
	table2, _, err := Normalize(raw2)
	require.NoError(t, err)
	assert.Equal(t, table, table2)

	// File keeps its BOM and locale formatting.
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
	assert.Contains(t, string(data), "0,4")
	assert.Contains(t, string(data), "01/01/2025")
}
