package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/middleware"
	"github.com/SirGarbage/Bitirme-Projesi/internal/report"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDashboard records the last request and answers with a fixed view
type fakeDashboard struct {
	last domain.DashboardRequest
	err  error
}

func (f *fakeDashboard) WithDefaults(req domain.DashboardRequest) domain.DashboardRequest {
	if req.Horizon == 0 {
		req.Horizon = 5
	}
	if req.Scenario {
		if req.Kind == "" {
			req.Kind = domain.ScenarioBoth
		}
		if req.TriggerYear == 0 {
			req.TriggerYear = 2030
		}
		if req.Severity == 0 {
			req.Severity = 20
		}
	}
	return req
}

func (f *fakeDashboard) BuildView(ctx context.Context, req domain.DashboardRequest) (*domain.DashboardView, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.DashboardView{
		Request:  req,
		Warnings: []string{"No GDP data for this region"},
		Table:    []domain.ForecastRow{{DS: domain.YearEnd(2024), YHat: 100}},
	}, nil
}

func (f *fakeDashboard) Chart(ctx context.Context, req domain.DashboardRequest, name string) (*plot.Plot, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return report.MessageChart(name, "chart for "+req.Region)
}

type fakeRegions struct {
	regions []string
	err     error
}

func (f fakeRegions) Regions() ([]string, error) {
	return f.regions, f.err
}

func newTestRouter(svc *fakeDashboard, regions fakeRegions) chi.Router {
	errHandler := apperrors.NewErrorHandler(testLogger(), false)
	h := NewDashboardHandler(svc, regions, errHandler, testLogger())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Get("/api/regions", h.GetRegions)
	r.Mount("/api/dashboard", h.Routes())
	return r
}

func serve(r http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetRegions(t *testing.T) {
	r := newTestRouter(&fakeDashboard{}, fakeRegions{regions: []string{"Adana", "Bursa"}})

	rec := serve(r, "/api/regions")
	require.Equal(t, http.StatusOK, rec.Code)

	var body RegionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Adana", "Bursa"}, body.Regions)
	assert.Equal(t, 2, body.Count)
}

func TestGetRegionsDatasetNotLoaded(t *testing.T) {
	notLoaded := apperrors.NewAppError(apperrors.ErrTypeSourceUnavailable, "dataset is not loaded", nil)
	r := newTestRouter(&fakeDashboard{}, fakeRegions{err: notLoaded})

	rec := serve(r, "/api/regions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestGetForecast(t *testing.T) {
	svc := &fakeDashboard{}
	r := newTestRouter(svc, fakeRegions{})

	rec := serve(r, "/api/dashboard/forecast?region=Adana&horizon=10&scenario=true&kind=economic&severity=35")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, domain.DashboardRequest{
		Region:      "Adana",
		Horizon:     10,
		Scenario:    true,
		Kind:        domain.ScenarioEconomic,
		TriggerYear: 2030,
		Severity:    35,
	}, svc.last)

	var view domain.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, []string{"No GDP data for this region"}, view.Warnings)
	assert.Len(t, view.Table, 1)
}

func TestGetForecastValidation(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantField string
	}{
		{"horizon above bound", "region=Adana&horizon=31", "horizon"},
		{"horizon not a number", "region=Adana&horizon=ten", "horizon"},
		{"missing region", "horizon=5", "region"},
		{"severity above bound", "region=Adana&scenario=true&severity=95", "severity"},
		{"trigger year below bound", "region=Adana&scenario=true&trigger_year=2000", "trigger_year"},
		{"unknown kind", "region=Adana&scenario=true&kind=political", "kind"},
		{"scenario not a bool", "region=Adana&scenario=maybe", "scenario"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDashboard{}
			r := newTestRouter(svc, fakeRegions{})

			rec := serve(r, "/api/dashboard/forecast?"+tt.query)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem struct {
				Type    string `json:"type"`
				Details struct {
					Errors []apperrors.ValidationError `json:"errors"`
				} `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, apperrors.TypeValidation, problem.Type)
			require.NotEmpty(t, problem.Details.Errors)
			assert.Equal(t, tt.wantField, problem.Details.Errors[0].Field)
			assert.Empty(t, svc.last.Region, "service must not be called")
		})
	}
}

func TestGetForecastServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown region", apperrors.NewNotFoundError("region Atlantis"), http.StatusNotFound},
		{"dataset not loaded", apperrors.NewAppError(apperrors.ErrTypeSourceUnavailable, "dataset is not loaded", nil), http.StatusServiceUnavailable},
		{"unexpected", apperrors.NewCalculationError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeDashboard{err: tt.err}, fakeRegions{})
			rec := serve(r, "/api/dashboard/forecast?region=Atlantis")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestGetChart(t *testing.T) {
	svc := &fakeDashboard{}
	r := newTestRouter(svc, fakeRegions{})

	rec := serve(r, "/api/dashboard/charts/population.svg?region=Bursa")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
	assert.Equal(t, "Bursa", svc.last.Region)
}

func TestGetChartUnknownName(t *testing.T) {
	unknown := apperrors.NewAppError(apperrors.ErrTypeValidation, "chart must be one of: population, economy, sectors", nil)
	r := newTestRouter(&fakeDashboard{err: unknown}, fakeRegions{})

	rec := serve(r, "/api/dashboard/charts/pie.svg?region=Adana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
