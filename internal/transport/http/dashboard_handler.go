package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/internal/middleware"
	"github.com/SirGarbage/Bitirme-Projesi/internal/report"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// Chart canvas size
const (
	chartWidth  = 9 * vg.Inch
	chartHeight = 5 * vg.Inch
)

// DashboardServiceInterface is the dashboard service as seen by the handler
type DashboardServiceInterface interface {
	WithDefaults(req domain.DashboardRequest) domain.DashboardRequest
	BuildView(ctx context.Context, req domain.DashboardRequest) (*domain.DashboardView, error)
	Chart(ctx context.Context, req domain.DashboardRequest, name string) (*plot.Plot, error)
}

// RegionLister lists the regions of the served dataset
type RegionLister interface {
	Regions() ([]string, error)
}

// RegionsResponse is the body of GET /api/regions
type RegionsResponse struct {
	Regions []string `json:"regions"`
	Count   int      `json:"count"`
}

// DashboardHandler serves the dashboard JSON and chart endpoints
type DashboardHandler struct {
	service      DashboardServiceInterface
	regions      RegionLister
	validator    *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, regions RegionLister, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		regions:      regions,
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       infrastructure.WithComponent(logger, "dashboard_handler"),
	}
}

// Routes mounts under /api/dashboard
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/forecast", h.GetForecast)
	r.Get("/charts/{chart}.svg", h.GetChart)
	return r
}

// GetRegions handles GET /api/regions
func (h *DashboardHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.regions.Regions()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, RegionsResponse{Regions: regions, Count: len(regions)})
}

// GetForecast handles GET /api/dashboard/forecast
func (h *DashboardHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	view, err := h.service.BuildView(r.Context(), req)
	if err != nil {
		infrastructure.RecordError(r.Context(), err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "dashboard view built",
		slog.String("region", req.Region),
		slog.Int("horizon", req.Horizon),
		slog.Int("warnings", len(view.Warnings)))

	render.JSON(w, r, view)
}

// GetChart handles GET /api/dashboard/charts/{chart}.svg
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	p, err := h.service.Chart(r.Context(), req, chi.URLParam(r, "chart"))
	if err != nil {
		infrastructure.RecordError(r.Context(), err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Render into a buffer so a canvas failure still yields a problem response
	var buf bytes.Buffer
	if err := report.WriteSVG(&buf, p, chartWidth, chartHeight); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewAppError(apperrors.ErrTypeCalculation, "chart rendering failed", err))
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// parseRequest reads the dashboard query parameters, applies the
// defaults and validates the result. On failure the problem response has
// already been written.
func (h *DashboardHandler) parseRequest(w http.ResponseWriter, r *http.Request) (domain.DashboardRequest, bool) {
	q := r.URL.Query()
	req := domain.DashboardRequest{
		Region: strings.TrimSpace(q.Get("region")),
		Kind:   domain.ScenarioKind(q.Get("kind")),
	}

	var ok bool
	if req.Horizon, ok = h.query.ParseInt(w, r, "horizon", 0); !ok {
		return req, false
	}
	if req.Scenario, ok = h.query.ValidateBool(w, r, "scenario", false); !ok {
		return req, false
	}
	if req.TriggerYear, ok = h.query.ParseInt(w, r, "trigger_year", 0); !ok {
		return req, false
	}
	if req.Severity, ok = h.query.ParseInt(w, r, "severity", 0); !ok {
		return req, false
	}

	req = h.service.WithDefaults(req)
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return req, false
	}
	return req, true
}
