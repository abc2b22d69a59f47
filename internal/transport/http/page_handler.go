package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// pageData feeds the index template
type pageData struct {
	Title   string
	Version string
	Regions []string
	Warning string

	DefaultHorizon     int
	MinHorizon         int
	MaxHorizon         int
	DefaultTriggerYear int
	MinTriggerYear     int
	MaxTriggerYear     int
	DefaultSeverity    int
	MinSeverity        int
	MaxSeverity        int
}

// PageHandler renders the dashboard page
type PageHandler struct {
	regions RegionLister
	cfg     config.DashboardConfig
	logger  *slog.Logger
}

// NewPageHandler creates a page handler
func NewPageHandler(regions RegionLister, cfg config.DashboardConfig, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		regions: regions,
		cfg:     cfg,
		logger:  infrastructure.WithComponent(logger, "page_handler"),
	}
}

// ServeIndex handles GET /. The page still renders without a dataset,
// showing the load failure instead of the region list.
func (h *PageHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:              "Regional Population and GDP Forecasts",
		Version:            contracts.Version,
		DefaultHorizon:     h.cfg.DefaultHorizon,
		MinHorizon:         config.MinHorizon,
		MaxHorizon:         config.MaxHorizon,
		DefaultTriggerYear: h.cfg.DefaultTriggerYear,
		MinTriggerYear:     config.MinTriggerYear,
		MaxTriggerYear:     config.MaxTriggerYear,
		DefaultSeverity:    h.cfg.DefaultSeverity,
		MinSeverity:        config.MinSeverity,
		MaxSeverity:        config.MaxSeverity,
	}

	regions, err := h.regions.Regions()
	if err != nil {
		h.logger.WarnContext(r.Context(), "rendering page without regions", slog.String("error", err.Error()))
		data.Warning = "The dataset is not loaded yet. Run the prepare step and reload."
	}
	data.Regions = regions

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
