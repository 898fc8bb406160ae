package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icedash/internal/scoring"
	"icedash/internal/services"
	"icedash/internal/store"
	api "icedash/pkg/contracts/api/v1"
	"icedash/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// stubService implements IndicatorServiceInterface with canned responses.
type stubService struct {
	table      domain.Table
	report     domain.LoadReport
	overall    float64
	groups     []domain.GroupScore
	pivot      domain.PivotTable
	summary    domain.Summary
	upsertRes  store.UpsertResult
	err        error
	lastFilter services.FilterQuery
	lastCode   string
	lastDate   time.Time
	lastValue  float64
	lastSeed   *domain.Observation
}

func (s *stubService) Observations(ctx context.Context, q services.FilterQuery) (domain.Table, error) {
	s.lastFilter = q
	return s.table, s.err
}

func (s *stubService) Report(ctx context.Context) (domain.LoadReport, error) {
	return s.report, s.err
}

func (s *stubService) OverallScore(ctx context.Context, date *time.Time) (float64, error) {
	return s.overall, s.err
}

func (s *stubService) GroupScores(ctx context.Context, date *time.Time, dim scoring.Dimension) ([]domain.GroupScore, error) {
	return s.groups, s.err
}

func (s *stubService) PivotScores(ctx context.Context, date *time.Time, rows, cols scoring.Dimension, field scoring.Field) (domain.PivotTable, error) {
	return s.pivot, s.err
}

func (s *stubService) Summary(ctx context.Context, date *time.Time) (domain.Summary, error) {
	return s.summary, s.err
}

func (s *stubService) Upsert(ctx context.Context, code string, date time.Time, value float64, seed *domain.Observation) (store.UpsertResult, error) {
	s.lastCode, s.lastDate, s.lastValue, s.lastSeed = code, date, value, seed
	return s.upsertRes, s.err
}

func (s *stubService) Delete(ctx context.Context, code string, date time.Time) error {
	s.lastCode, s.lastDate = code, date
	return s.err
}

func (s *stubService) ExportCSV(ctx context.Context, q services.FilterQuery, w io.Writer) error {
	s.lastFilter = q
	_, err := w.Write([]byte("COD;Valor\nD01-1;0,5\n"))
	if s.err != nil {
		return s.err
	}
	return err
}

func newObservationServer(svc IndicatorServiceInterface) *httptest.Server {
	h := NewObservationHandler(svc, testLogger())
	r := chi.NewRouter()
	r.Mount("/api/observations", h.Routes())
	r.Get("/api/export/csv", h.ExportCSV)
	return httptest.NewServer(r)
}

func TestObservationHandler_List(t *testing.T) {
	svc := &stubService{table: domain.Table{
		{Code: "D01-1", Component: "Datos", Category: "Apertura", Value: 0.5, Date: day(2025, 1, 1)},
	}}
	srv := newObservationServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/observations?component=Datos&date=01/01/2025")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.ObservationListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Count)

	assert.Equal(t, "Datos", svc.lastFilter.Component)
	require.NotNil(t, svc.lastFilter.Date)
	assert.Equal(t, day(2025, 1, 1), *svc.lastFilter.Date)
}

func TestObservationHandler_List_BadDate(t *testing.T) {
	srv := newObservationServer(&stubService{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/observations?date=2025-13-45")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestObservationHandler_Upsert_Created(t *testing.T) {
	svc := &stubService{upsertRes: store.UpsertResult{Created: true}}
	srv := newObservationServer(svc)
	defer srv.Close()

	payload := `{"code":"X01-1","date":"05/03/2025","value":0.7,"name":"Nuevo","component":"Datos","category":"Apertura"}`
	resp, err := http.Post(srv.URL+"/api/observations", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body api.MutationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "created", body.Action)

	assert.Equal(t, "X01-1", svc.lastCode)
	assert.Equal(t, day(2025, 3, 5), svc.lastDate)
	require.NotNil(t, svc.lastSeed)
	assert.Equal(t, "Nuevo", svc.lastSeed.Name)
}

func TestObservationHandler_Upsert_Updated(t *testing.T) {
	svc := &stubService{upsertRes: store.UpsertResult{Created: false}}
	srv := newObservationServer(svc)
	defer srv.Close()

	payload := `{"code":"D01-1","date":"01/01/2025","value":0.9}`
	resp, err := http.Post(srv.URL+"/api/observations", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, svc.lastSeed)
}

func TestObservationHandler_Upsert_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing code", `{"date":"01/01/2025","value":0.5}`},
		{"missing date", `{"code":"D01-1","value":0.5}`},
		{"iso date rejected", `{"code":"D01-1","date":"2025-01-01","value":0.5}`},
		{"negative value", `{"code":"D01-1","date":"01/01/2025","value":-1}`},
		{"not json", `not json`},
	}

	srv := newObservationServer(&stubService{})
	defer srv.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/observations", "application/json", strings.NewReader(tt.payload))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestObservationHandler_Upsert_NoBaseRecord(t *testing.T) {
	svc := &stubService{err: store.ErrNoBaseRecord}
	srv := newObservationServer(svc)
	defer srv.Close()

	payload := `{"code":"Z99-9","date":"01/01/2025","value":0.5}`
	resp, err := http.Post(srv.URL+"/api/observations", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestObservationHandler_Delete(t *testing.T) {
	svc := &stubService{}
	srv := newObservationServer(svc)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/observations/D01-1?date=01/01/2025", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "D01-1", svc.lastCode)
	assert.Equal(t, day(2025, 1, 1), svc.lastDate)
}

func TestObservationHandler_Delete_Errors(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		serviceErr error
		wantStatus int
	}{
		{"missing date", "/api/observations/D01-1", nil, http.StatusBadRequest},
		{"not found", "/api/observations/D01-1?date=01/01/2025", store.ErrNotFound, http.StatusNotFound},
		{"medium down", "/api/observations/D01-1?date=01/01/2025", store.ErrUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newObservationServer(&stubService{err: tt.serviceErr})
			defer srv.Close()

			req, _ := http.NewRequest(http.MethodDelete, srv.URL+tt.url, nil)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestObservationHandler_ExportCSV(t *testing.T) {
	svc := &stubService{}
	srv := newObservationServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/export/csv?all=true")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "indicadores.csv")

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "D01-1")
	assert.True(t, svc.lastFilter.All)
}
