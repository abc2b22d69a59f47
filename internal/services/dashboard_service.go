package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/exporter"
	"github.com/SirGarbage/Bitirme-Projesi/internal/forecast"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/internal/report"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// Chart names served by the dashboard
const (
	ChartPopulation = "population"
	ChartEconomy    = "economy"
	ChartSectors    = "sectors"
)

// Charts lists the valid chart names
var Charts = []string{ChartPopulation, ChartEconomy, ChartSectors}

// DatasetProvider hands out the dataset currently served
type DatasetProvider interface {
	Dataset() (*domain.MergedDataset, error)
}

// DashboardService turns a dashboard request into forecasts, metrics and
// charts for one region
type DashboardService struct {
	datasets DatasetProvider
	engine   *forecast.Engine
	cfg      config.DashboardConfig
	validate *validator.Validate
	metrics  *infrastructure.ForecastMetrics
	logger   *slog.Logger
}

// NewDashboardService creates the service. metrics may be nil.
func NewDashboardService(datasets DatasetProvider, engine *forecast.Engine, cfg config.DashboardConfig, metrics *infrastructure.ForecastMetrics, logger *slog.Logger) *DashboardService {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return &DashboardService{
		datasets: datasets,
		engine:   engine,
		cfg:      cfg,
		validate: v,
		metrics:  metrics,
		logger:   infrastructure.WithComponent(logger, "dashboard_service"),
	}
}

// WithDefaults fills the unset request fields from the dashboard config
func (s *DashboardService) WithDefaults(req domain.DashboardRequest) domain.DashboardRequest {
	if req.Horizon == 0 {
		req.Horizon = s.cfg.DefaultHorizon
	}
	if req.Scenario {
		if req.Kind == "" {
			req.Kind = domain.ScenarioBoth
		}
		if req.TriggerYear == 0 {
			req.TriggerYear = s.cfg.DefaultTriggerYear
		}
		if req.Severity == 0 {
			req.Severity = s.cfg.DefaultSeverity
		}
	}
	return req
}

// analysis is everything computed for one request. Charts and the JSON
// view are both rendered from it.
type analysis struct {
	view       *domain.DashboardView
	popHistory []domain.TimeSeriesPoint
	gdpHistory []domain.TimeSeriesPoint
	unit       string
	sectors    *forecast.SectorForecast
	lastDS     time.Time
	crashYear  int
}

// BuildView computes the dashboard payload for a request. Parts that
// cannot be computed are reported as warnings, never as errors.
func (s *DashboardService) BuildView(ctx context.Context, req domain.DashboardRequest) (*domain.DashboardView, error) {
	a, err := s.analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.view, nil
}

func (s *DashboardService) analyze(ctx context.Context, req domain.DashboardRequest) (*analysis, error) {
	req = s.WithDefaults(req)
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}

	ds, err := s.datasets.Dataset()
	if err != nil {
		return nil, err
	}
	rows := ds.RegionSlice(req.Region)
	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError("region " + req.Region)
	}

	a := &analysis{
		view:   &domain.DashboardView{Request: req, Warnings: []string{}},
		lastDS: rows[len(rows)-1].Date,
	}
	scenario, shockOn := req.ScenarioSpec()
	if shockOn {
		a.crashYear = scenario.TriggerYear
	}

	a.popHistory = domain.SeriesOf(rows, domain.PopulationOf)
	pop, err := s.signal(ctx, domain.SignalPopulation, a.popHistory, req.Horizon, scenario, shockOn && scenario.Kind.AffectsPopulation())
	switch {
	case err != nil:
		if err := s.warn(ctx, a.view, "Population forecast", req.Region, err); err != nil {
			return nil, err
		}
	default:
		pop.Target = exporter.ColValue
		pop.Metric.Label = "Est. Population"
		a.view.Population = pop
		a.view.Table = tail(pop.Forecast.Rows, s.cfg.TableRows)
	}

	if !ds.HasEconomicData || gdpTotal(rows) <= 0 {
		a.view.Warnings = append(a.view.Warnings, "No GDP data for this region")
		return a, nil
	}

	a.gdpHistory, a.unit = report.EconomySeries(ds, rows)
	target := exporter.ColGDP
	if a.unit == "USD" {
		target = exporter.ColGDPUSD
	}
	gdp, err := s.signal(ctx, domain.SignalGDP, a.gdpHistory, req.Horizon, scenario, shockOn && scenario.Kind.AffectsEconomy())
	switch {
	case err != nil:
		if err := s.warn(ctx, a.view, "GDP forecast", req.Region, err); err != nil {
			return nil, err
		}
	default:
		gdp.Target = target
		gdp.Metric.Label = "Est. GDP"
		gdp.Metric.Unit = a.unit
		a.view.Economy = gdp
	}

	sectors := ds.Sectors.Without(s.cfg.ExcludedSectors...)
	sf, err := forecast.ForecastSectorTrends(ctx, s.engine, rows, sectors, ds.Sectors, req.Horizon)
	if err != nil {
		return a, s.warn(ctx, a.view, "Sector forecast", req.Region, err)
	}
	a.sectors = sf
	if len(sf.Trends) == 0 {
		a.view.Warnings = append(a.view.Warnings, "Sector data unavailable")
		return a, nil
	}
	if len(sf.Omitted) > 0 {
		a.view.Warnings = append(a.view.Warnings,
			fmt.Sprintf("Sectors without enough history: %s", strings.Join(sf.Omitted, ", ")))
	}
	a.view.Sectors = forecast.TopSectors(sf.Trends, s.cfg.TopSectors)
	return a, nil
}

// warn turns a failed forecast into an inline warning on the view.
// Cancellation is returned so the request itself fails.
func (s *DashboardService) warn(ctx context.Context, view *domain.DashboardView, part, region string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, forecast.ErrInsufficientHistory) {
		view.Warnings = append(view.Warnings, part+" unavailable: not enough history")
		return nil
	}
	s.logger.WarnContext(ctx, "Forecast failed",
		slog.String("part", part),
		slog.String("region", region),
		slog.String("error", err.Error()))
	view.Warnings = append(view.Warnings, part+" unavailable: "+err.Error())
	return nil
}

// signal forecasts one series and applies the shock when requested
func (s *DashboardService) signal(ctx context.Context, name domain.Signal, history []domain.TimeSeriesPoint, horizon int, scenario domain.Scenario, shock bool) (*domain.SignalView, error) {
	start := time.Now()
	result, err := s.engine.Forecast(ctx, history, horizon)
	if s.metrics != nil {
		s.metrics.RecordForecast(ctx, string(name), time.Since(start), errors.Is(err, forecast.ErrInsufficientHistory))
	}
	if err != nil {
		return nil, err
	}

	if shock {
		if result, err = forecast.ApplyShock(result, scenario); err != nil {
			return nil, err
		}
	}

	view := &domain.SignalView{History: history, Forecast: result, Shocked: shock}
	if growth, ok := forecast.GrowthSummary(result); ok {
		view.Metric.Growth = growth
		view.Metric.Value = domain.Float(growth.FinalValue)
	}
	return view, nil
}

// Chart renders one of the dashboard charts. A chart whose data is
// unavailable is rendered as a warning label.
func (s *DashboardService) Chart(ctx context.Context, req domain.DashboardRequest, name string) (*plot.Plot, error) {
	if !slices.Contains(Charts, name) {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("chart must be one of: %s", strings.Join(Charts, ", ")), ErrUnknownChart)
	}
	a, err := s.analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	region := a.view.Request.Region
	printer := report.NewPrinter()

	switch name {
	case ChartPopulation:
		v := a.view.Population
		title := fmt.Sprintf("%s Population Forecast", region)
		if v == nil {
			return report.MessageChart(title, "Population forecast unavailable")
		}
		return report.ForecastChart(a.popHistory, v.Forecast, report.ForecastOptions{
			Title:     title,
			XLabel:    printer.Sprintf("Year (%s: %d)", strconv.Itoa(v.Metric.Growth.FinalYear), int64(math.Round(v.Metric.Growth.FinalValue))),
			YLabel:    "Population",
			Color:     report.ColorPopulation,
			CrashYear: crashFor(a, v),
		})

	case ChartEconomy:
		v := a.view.Economy
		title := fmt.Sprintf("%s Economic Forecast (%s)", region, a.unit)
		if v == nil {
			return report.MessageChart(fmt.Sprintf("%s Economic Forecast", region), "No GDP data for this region")
		}
		return report.ForecastChart(a.gdpHistory, v.Forecast, report.ForecastOptions{
			Title:     title,
			XLabel:    "Year",
			YLabel:    fmt.Sprintf("GDP (%s)", a.unit),
			Color:     report.ColorEconomy,
			CrashYear: crashFor(a, v),
		})

	default:
		title := fmt.Sprintf("%s Estimated Economic Composition", region)
		if a.sectors == nil || len(a.sectors.Trends) == 0 {
			return report.MessageChart(title, "Sector data unavailable")
		}
		return report.StackedAreaChart(title, "Year", "Share (%)",
			sectorLayers(a.sectors.Trends, s.cfg.TopSectors), report.YearValue(a.lastDS))
	}
}

func crashFor(a *analysis, v *domain.SignalView) int {
	if v.Shocked {
		return a.crashYear
	}
	return 0
}

// sectorLayers builds the top n trends by future mean plus an Others
// layer holding the per period remainder of 100
func sectorLayers(trends []domain.SectorTrend, n int) []report.Layer {
	top := forecast.TopSectors(trends, n)
	byLabel := make(map[string]domain.SectorTrend, len(trends))
	periods := math.MaxInt
	for _, t := range trends {
		byLabel[t.Sector.Label] = t
		periods = min(periods, len(t.Rows))
	}

	layers := make([]report.Layer, 0, len(top))
	used := make([]float64, periods)
	var dates []time.Time
	for _, share := range top {
		t, ok := byLabel[share.Label]
		if !ok {
			continue
		}
		if dates == nil {
			dates = make([]time.Time, periods)
			for i := range dates {
				dates[i] = t.Rows[i].DS
			}
		}
		pts := make(plotter.XYs, periods)
		for i := 0; i < periods; i++ {
			pts[i] = plotter.XY{X: report.YearValue(t.Rows[i].DS), Y: t.Rows[i].YHat}
			used[i] += t.Rows[i].YHat
		}
		layers = append(layers, report.Layer{Label: share.Label, Points: pts})
	}

	others := make(plotter.XYs, periods)
	for i := range others {
		others[i] = plotter.XY{X: report.YearValue(dates[i]), Y: math.Max(0, 100-used[i])}
	}
	return append(layers, report.Layer{Label: forecast.OthersLabel, Points: others})
}

func gdpTotal(rows []domain.MergedRecord) float64 {
	var sum float64
	for _, r := range rows {
		sum += r.GDP
	}
	return sum
}

func tail(rows []domain.ForecastRow, n int) []domain.ForecastRow {
	if n <= 0 || len(rows) <= n {
		return rows
	}
	return rows[len(rows)-n:]
}
