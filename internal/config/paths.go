package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved locations of every input and output file.
// It is the single source of truth for file paths in the application.
type Paths struct {
	DataDir    string
	ReportsDir string
	LogsDir    string

	// Inputs
	PopulationFile string
	EconomicFile   string

	// Intermediate workbooks
	TrainingWorkbook string
	USDWorkbook      string

	// Outputs
	PopulationReport  string
	EconomyReport     string
	EvaluationSummary string
	ForecastsCSV      string
}

// ResolvePaths turns the configured names into absolute paths.
// File names are joined to DataDir unless already absolute; report
// outputs are joined to ReportsDir.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	reportsDir := resolveUnder(dataDir, orDefault(cfg.ReportsDir, "reports"))
	logsDir := resolveUnder(dataDir, orDefault(cfg.LogsDir, "logs"))

	return &Paths{
		DataDir:           dataDir,
		ReportsDir:        reportsDir,
		LogsDir:           logsDir,
		PopulationFile:    resolveUnder(dataDir, orDefault(cfg.PopulationFile, PopulationFileName)),
		EconomicFile:      resolveUnder(dataDir, orDefault(cfg.EconomicFile, EconomicFileName)),
		TrainingWorkbook:  resolveUnder(dataDir, orDefault(cfg.TrainingWorkbook, TrainingWorkbookName)),
		USDWorkbook:       resolveUnder(dataDir, orDefault(cfg.USDWorkbook, USDWorkbookName)),
		PopulationReport:  resolveUnder(reportsDir, orDefault(cfg.PopulationReport, PopulationReportName)),
		EconomyReport:     resolveUnder(reportsDir, orDefault(cfg.EconomyReport, EconomyReportName)),
		EvaluationSummary: resolveUnder(reportsDir, orDefault(cfg.EvaluationSummary, EvaluationSummaryName)),
		ForecastsCSV:      resolveUnder(reportsDir, orDefault(cfg.ForecastsCSV, ForecastsCSVName)),
	}, nil
}

// EnsureDirectories creates the output directories
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DashboardWorkbook returns the workbook the dashboard should serve.
// The USD variant wins when it exists and preferUSD is set.
func (p *Paths) DashboardWorkbook(preferUSD bool) string {
	if preferUSD && FileExists(p.USDWorkbook) {
		return p.USDWorkbook
	}
	return p.TrainingWorkbook
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved paths",
		slog.String("data_dir", p.DataDir),
		slog.String("reports_dir", p.ReportsDir),
		slog.String("population_file", p.PopulationFile),
		slog.Bool("population_exists", FileExists(p.PopulationFile)),
		slog.String("economic_file", p.EconomicFile),
		slog.Bool("economic_exists", FileExists(p.EconomicFile)),
		slog.String("training_workbook", p.TrainingWorkbook),
		slog.String("usd_workbook", p.USDWorkbook),
	)
}

// FileExists checks if a regular file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func resolveUnder(base, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(base, name)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
