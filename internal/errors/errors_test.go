package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "gone")
	assert.Equal(t, "gone", err.Error())
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"validation", ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"observation not found", ErrObservationNotFound, http.StatusNotFound, "OBSERVATION_NOT_FOUND"},
		{"schema", ErrSchemaInvalid, http.StatusUnprocessableEntity, "SCHEMA_ERROR"},
		{"no base record", ErrNoBaseRecord, http.StatusUnprocessableEntity, "NO_BASE_RECORD"},
		{"medium unavailable", ErrMediumUnavailable, http.StatusServiceUnavailable, "MEDIUM_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
		})
	}
}

func TestSchemaError_CarriesMissingColumns(t *testing.T) {
	err := SchemaError([]string{"COD", "Fecha"})
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
	assert.Equal(t, []string{"COD", "Fecha"}, err.Details)
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("D01-1", "01/02/2025")
	assert.Contains(t, err.Message, "D01-1")
	assert.Contains(t, err.Message, "01/02/2025")
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, MediumUnavailableError(assert.AnError))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "MEDIUM_UNAVAILABLE", resp.Error.ErrorCode)
}
