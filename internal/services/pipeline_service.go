package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/dataprocessing"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/exporter"
	"github.com/SirGarbage/Bitirme-Projesi/internal/forecast"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/internal/report"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// PrepareResult summarises a prepare run
type PrepareResult struct {
	Path       string
	Rows       int
	Regions    int
	Population dataprocessing.LoadStats
	// Economic is nil when the run continued with population data only
	Economic *dataprocessing.NormalizeStats
	Merge    dataprocessing.MergeStats
	Warnings []string
}

// ConvertResult summarises a convert run
type ConvertResult struct {
	Path  string
	Rows  int
	Stats dataprocessing.ConversionStats
}

// ReportResult summarises a report run
type ReportResult struct {
	Source     string
	Population report.Stats
	Economy    *report.Stats
	CSVPath    string
	Warnings   []string
}

// EvaluationRun summarises an evaluate run
type EvaluationRun struct {
	Source  string
	Path    string
	Results []domain.EvaluationResult
	Failed  int
}

// PipelineService runs the batch stages: prepare, convert, report and
// evaluate. Each stage reads its input from disk and writes its output
// next to it, so stages can be rerun independently.
type PipelineService struct {
	cfg     *config.Config
	paths   *config.Paths
	engine  *forecast.Engine
	store   *exporter.WorkbookStore
	csv     *exporter.CSVWriter
	metrics *infrastructure.ForecastMetrics
	workers int
	logger  *slog.Logger
}

// NewPipelineService creates the batch pipeline. workers bounds the
// per-region fan-out; zero uses the evaluation config. metrics may be nil.
func NewPipelineService(cfg *config.Config, paths *config.Paths, engine *forecast.Engine, workers int, metrics *infrastructure.ForecastMetrics, logger *slog.Logger) *PipelineService {
	if workers <= 0 {
		workers = cfg.Evaluation.Workers
	}
	logger = infrastructure.WithComponent(logger, "pipeline_service")
	return &PipelineService{
		cfg:     cfg,
		paths:   paths,
		engine:  engine,
		store:   exporter.NewWorkbookStore(cfg.Dataset, cfg.Sectors, logger),
		csv:     exporter.NewCSVWriter(paths.ReportsDir, logger),
		metrics: metrics,
		workers: workers,
		logger:  logger,
	}
}

// Prepare loads both sources, merges them and writes the training
// workbook. A missing population source aborts the run; a missing
// economic source only drops the economic columns.
func (s *PipelineService) Prepare(ctx context.Context) (*PrepareResult, error) {
	start := time.Now()
	result := &PrepareResult{Path: s.paths.TrainingWorkbook, Warnings: []string{}}

	pop, popStats, err := dataprocessing.NewPopulationLoader(s.cfg.Dataset.PopulationColumns, s.logger).Load(ctx, s.paths.PopulationFile)
	if err != nil {
		return nil, err
	}
	result.Population = popStats

	econ, econStats, err := dataprocessing.NewNormalizer(s.cfg.Dataset, s.cfg.Sectors, s.logger).Load(ctx, s.paths.EconomicFile)
	switch {
	case apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable):
		msg := fmt.Sprintf("economic source %s not found, continuing with population data only", s.paths.EconomicFile)
		s.logger.WarnContext(ctx, "Economic source unavailable",
			slog.String("path", s.paths.EconomicFile),
			slog.String("error", err.Error()))
		result.Warnings = append(result.Warnings, msg)
		econ = nil
	case err != nil:
		return nil, fmt.Errorf("failed to process economic source: %w", err)
	default:
		result.Economic = &econStats
		result.Warnings = append(result.Warnings, econStats.Warnings...)
	}

	ds, mergeStats := dataprocessing.NewMerger(s.cfg.Sectors, s.logger).Merge(pop, econ)
	result.Merge = mergeStats
	result.Rows = len(ds.Regions)
	result.Regions = len(ds.RegionNames())

	if err := s.store.Write(ctx, s.paths.TrainingWorkbook, ds); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Prepare completed",
		slog.String("path", result.Path),
		slog.Int("rows", result.Rows),
		slog.Int("regions", result.Regions),
		slog.Bool("has_economic_data", ds.HasEconomicData),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// Convert reads the training workbook and writes the USD workbook
func (s *PipelineService) Convert(ctx context.Context) (*ConvertResult, error) {
	ds, err := s.store.Read(ctx, s.paths.TrainingWorkbook)
	if err != nil {
		return nil, err
	}
	if !ds.HasEconomicData {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("%s has no GDP column, run prepare with the economic source first", s.paths.TrainingWorkbook),
			ErrNoEconomicData)
	}

	converted, stats := dataprocessing.NewConverter(s.cfg.RateTable(), s.logger).ConvertDataset(ds)
	if err := s.store.WriteUSD(ctx, s.paths.USDWorkbook, converted); err != nil {
		return nil, err
	}

	return &ConvertResult{Path: s.paths.USDWorkbook, Rows: len(converted.Regions), Stats: stats}, nil
}

// ReportOptions selects the report outputs
type ReportOptions struct {
	Periods int
	// CSV also streams every forecast row to the forecasts CSV
	CSV bool
}

// Report renders the population and economy PDFs from the dashboard
// workbook. The economy report is skipped when there is no GDP data.
func (s *PipelineService) Report(ctx context.Context, opts ReportOptions) (*ReportResult, error) {
	if opts.Periods <= 0 {
		opts.Periods = s.cfg.Forecast.Horizon
	}

	source := s.paths.DashboardWorkbook(true)
	ds, err := s.store.Read(ctx, source)
	if err != nil {
		return nil, err
	}
	result := &ReportResult{Source: source, Warnings: []string{}}

	renderer := report.NewRenderer(s.engine, s.workers, s.logger)
	if result.Population, err = renderer.RenderPopulation(ctx, ds, s.paths.PopulationReport, opts.Periods); err != nil {
		return nil, err
	}

	if ds.HasEconomicData {
		stats, err := renderer.RenderEconomy(ctx, ds, s.paths.EconomyReport, opts.Periods)
		if err != nil {
			return nil, err
		}
		result.Economy = &stats
	} else {
		result.Warnings = append(result.Warnings, "no GDP data, economy report skipped")
	}

	if opts.CSV {
		if err := s.writeForecasts(ctx, ds, opts.Periods); err != nil {
			return nil, err
		}
		result.CSVPath = s.paths.ForecastsCSV
	}
	return result, nil
}

type regionForecasts struct {
	population *domain.ForecastResult
	economy    *domain.ForecastResult
	signal     domain.Signal
}

// writeForecasts streams history and forecast rows per region in region
// order. Regions whose series are too short are left out.
func (s *PipelineService) writeForecasts(ctx context.Context, ds *domain.MergedDataset, periods int) error {
	outcomes := forecast.MapRegions(ctx, ds.RegionNames(), s.workers, func(ctx context.Context, region string) (regionForecasts, error) {
		rows := ds.RegionSlice(region)
		var out regionForecasts

		pop, err := s.forecast(ctx, domain.SignalPopulation, domain.SeriesOf(rows, domain.PopulationOf), periods)
		if err != nil {
			return out, err
		}
		out.population = pop

		if ds.HasEconomicData && gdpTotal(rows) > 0 {
			history, unit := report.EconomySeries(ds, rows)
			out.signal = domain.SignalGDP
			if unit == "USD" {
				out.signal = domain.SignalGDPUSD
			}
			if out.economy, err = s.forecast(ctx, out.signal, history, periods); err != nil {
				return out, err
			}
		}
		return out, nil
	})

	stream, err := s.csv.CreateStreamWriter(s.paths.ForecastsCSV, exporter.ForecastHeaders)
	if err != nil {
		return apperrors.NewStorageError("failed to create forecasts CSV", err)
	}

	written := 0
	for _, o := range outcomes {
		if o.Err != nil {
			s.logger.WarnContext(ctx, "Region left out of forecasts CSV",
				slog.String("region", o.Region),
				slog.String("error", o.Err.Error()))
			continue
		}
		if o.Value.population != nil {
			if err := stream.WriteForecast(o.Region, domain.SignalPopulation, o.Value.population); err != nil {
				stream.Close()
				return apperrors.NewStorageError("failed to write forecasts CSV", err)
			}
		}
		if o.Value.economy != nil {
			if err := stream.WriteForecast(o.Region, o.Value.signal, o.Value.economy); err != nil {
				stream.Close()
				return apperrors.NewStorageError("failed to write forecasts CSV", err)
			}
		}
		written++
	}

	if err := stream.Close(); err != nil {
		return apperrors.NewStorageError("failed to close forecasts CSV", err)
	}
	s.logger.InfoContext(ctx, "Forecasts CSV written",
		slog.String("path", s.paths.ForecastsCSV),
		slog.Int("regions", written))
	return nil
}

// forecast runs one signal. An insufficient history yields a nil result
// and no error so the caller can keep the other signal.
func (s *PipelineService) forecast(ctx context.Context, signal domain.Signal, history []domain.TimeSeriesPoint, periods int) (*domain.ForecastResult, error) {
	start := time.Now()
	result, err := s.engine.Forecast(ctx, history, periods)
	skipped := errors.Is(err, forecast.ErrInsufficientHistory)
	if s.metrics != nil {
		s.metrics.RecordForecast(ctx, string(signal), time.Since(start), skipped)
	}
	if skipped {
		return nil, nil
	}
	return result, err
}

// Signals returns the signals worth evaluating for a dataset
func Signals(ds *domain.MergedDataset) []domain.Signal {
	signals := []domain.Signal{domain.SignalPopulation}
	if ds.HasEconomicData {
		signals = append(signals, domain.SignalGDP)
	}
	if ds.HasUSD {
		signals = append(signals, domain.SignalGDPUSD)
	}
	return signals
}

// Evaluate cross-validates every region of the dashboard workbook and
// writes the summary CSV. A failing region is reported in its row and
// never fails the run.
func (s *PipelineService) Evaluate(ctx context.Context, signals []domain.Signal) (*EvaluationRun, error) {
	source := s.paths.DashboardWorkbook(true)
	ds, err := s.store.Read(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		signals = Signals(ds)
	}

	start := time.Now()
	results := forecast.EvaluateRegions(ctx, s.engine, ds, signals, s.cfg.Evaluation, s.workers)

	run := &EvaluationRun{Source: source, Path: s.paths.EvaluationSummary, Results: results}
	for _, r := range results {
		failed := r.Err != ""
		if failed {
			run.Failed++
		}
		if s.metrics != nil {
			s.metrics.RecordEvaluation(ctx, string(r.Signal), failed)
		}
	}

	if err := s.csv.WriteEvaluationSummary(s.paths.EvaluationSummary, results); err != nil {
		return nil, apperrors.NewStorageError("failed to write evaluation summary", err)
	}

	s.logger.InfoContext(ctx, "Evaluation completed",
		slog.String("source", source),
		slog.Int("results", len(results)),
		slog.Int("failed", run.Failed),
		slog.Duration("duration", time.Since(start)))
	return run, nil
}
