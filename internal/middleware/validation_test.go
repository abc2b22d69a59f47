package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func TestValidateStruct(t *testing.T) {
	v := NewValidationMiddleware(testLogger(), apperrors.NewErrorHandler(testLogger(), false))

	tests := []struct {
		name       string
		req        domain.DashboardRequest
		wantFields []string
	}{
		{"valid", domain.DashboardRequest{Region: "Adana", Horizon: 5}, nil},
		{"horizon above bound", domain.DashboardRequest{Region: "Adana", Horizon: 31}, []string{"horizon"}},
		{"missing region and horizon", domain.DashboardRequest{}, []string{"region", "horizon"}},
		{"bad scenario kind", domain.DashboardRequest{Region: "Adana", Horizon: 5, Kind: "political"}, []string{"kind"}},
		{"scenario bounds", domain.DashboardRequest{Region: "Adana", Horizon: 5, TriggerYear: 2010, Severity: 99}, []string{"trigger_year", "severity"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.req)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			apiErr, ok := err.(*apperrors.APIError)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details := apiErr.Details.(apperrors.ValidationErrors)
			var fields []string
			for _, e := range details.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestFormatValidationErrorMessage(t *testing.T) {
	v := NewValidationMiddleware(testLogger(), apperrors.NewErrorHandler(testLogger(), false))

	err := v.ValidateStruct(domain.DashboardRequest{Region: "Adana", Horizon: 31})
	require.Error(t, err)
	details := err.(*apperrors.APIError).Details.(apperrors.ValidationErrors)
	assert.Equal(t, "horizon must be at most 30", details.Errors[0].Message)
}

func TestQueryParamValidator(t *testing.T) {
	q := NewQueryParamValidator(testLogger(), apperrors.NewErrorHandler(testLogger(), false))

	t.Run("int default and bounds", func(t *testing.T) {
		rec := httptest.NewRecorder()
		got, ok := q.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/", nil), "horizon", 1, 30, 5)
		assert.True(t, ok)
		assert.Equal(t, 5, got)

		rec = httptest.NewRecorder()
		_, ok = q.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?horizon=40", nil), "horizon", 1, 30, 5)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("parse int rejects garbage", func(t *testing.T) {
		rec := httptest.NewRecorder()
		got, ok := q.ParseInt(rec, httptest.NewRequest(http.MethodGet, "/?horizon=99", nil), "horizon", 5)
		assert.True(t, ok)
		assert.Equal(t, 99, got)

		rec = httptest.NewRecorder()
		_, ok = q.ParseInt(rec, httptest.NewRequest(http.MethodGet, "/?horizon=ten", nil), "horizon", 5)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bool", func(t *testing.T) {
		rec := httptest.NewRecorder()
		got, ok := q.ValidateBool(rec, httptest.NewRequest(http.MethodGet, "/?scenario=true", nil), "scenario", false)
		assert.True(t, ok)
		assert.True(t, got)

		rec = httptest.NewRecorder()
		_, ok = q.ValidateBool(rec, httptest.NewRequest(http.MethodGet, "/?scenario=maybe", nil), "scenario", false)
		assert.False(t, ok)
	})

	t.Run("enum", func(t *testing.T) {
		rec := httptest.NewRecorder()
		got, ok := q.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?kind=economic", nil), "kind", []string{"economic", "demographic", "both"}, "both")
		assert.True(t, ok)
		assert.Equal(t, "economic", got)

		rec = httptest.NewRecorder()
		_, ok = q.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?kind=x", nil), "kind", []string{"economic"}, "")
		assert.False(t, ok)
		assert.Contains(t, rec.Body.String(), "kind must be one of")
	})
}

func TestContentTypeValidator(t *testing.T) {
	handler := ContentTypeValidator(apperrors.NewErrorHandler(testLogger(), false), "application/json")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
