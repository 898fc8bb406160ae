package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icedash/internal/store"
	api "icedash/pkg/contracts/api/v1"
	"icedash/pkg/contracts/domain"
)

func newScoreServer(svc IndicatorServiceInterface) *httptest.Server {
	h := NewScoreHandler(svc, testLogger())
	r := chi.NewRouter()
	r.Mount("/api/scores", h.Routes())
	return httptest.NewServer(r)
}

func TestScoreHandler_Overall(t *testing.T) {
	srv := newScoreServer(&stubService{overall: 70.0})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/scores/overall")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.ScoreResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "latest", body.Date)
	assert.InDelta(t, 70.0, body.Overall, 1e-9)
}

func TestScoreHandler_Overall_WithDate(t *testing.T) {
	srv := newScoreServer(&stubService{overall: 60.0})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/scores/overall?date=01/01/2025")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body api.ScoreResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "01/01/2025", body.Date)
}

func TestScoreHandler_ByComponent(t *testing.T) {
	srv := newScoreServer(&stubService{groups: []domain.GroupScore{
		{Group: "Datos", Score: 30},
		{Group: "Servicios", Score: 40},
	}})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/scores/by-component")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body api.ScoreResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Groups, 2)
	assert.Equal(t, "Datos", body.Groups[0].Group)
}

func TestScoreHandler_Pivot_BadField(t *testing.T) {
	srv := newScoreServer(&stubService{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/scores/pivot?field=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScoreHandler_Pivot_Defaults(t *testing.T) {
	srv := newScoreServer(&stubService{pivot: domain.PivotTable{
		Rows:    []string{"Datos"},
		Columns: []string{"Apertura"},
		Cells:   [][]float64{{50}},
	}})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/scores/pivot")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.PivotResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"Datos"}, body.Pivot.Rows)
}

func TestScoreHandler_ExportCSV(t *testing.T) {
	h := NewScoreHandler(&stubService{groups: []domain.GroupScore{
		{Group: "Datos", Score: 30},
	}}, testLogger())

	rec := httptest.NewRecorder()
	h.ExportCSV(rec, httptest.NewRequest(http.MethodGet, "/api/export/scores?dim=component", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Grupo;Puntaje")
	assert.Contains(t, rec.Body.String(), "Datos;30")
}

func TestScoreHandler_MediumUnavailable(t *testing.T) {
	srv := newScoreServer(&stubService{err: store.ErrUnavailable})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/scores/overall")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(&stubService{report: domain.LoadReport{TotalRows: 10, LoadedRows: 9, DroppedRows: 1}}, "1.0.0", testLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"dropped_rows":1`)
}

func TestHealthHandler_Degraded(t *testing.T) {
	h := NewHealthHandler(&stubService{err: store.ErrUnavailable}, "1.0.0", testLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}
