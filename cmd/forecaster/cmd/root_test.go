package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/dataprocessing"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/exporter"
	"github.com/SirGarbage/Bitirme-Projesi/internal/services"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// execute runs the root command with fresh flag values and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, logLevel, workers = "", "", 0
	reportPeriods, reportCSV = config.DefaultHorizon, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig points the data directory at a temp dir
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "paths:\n  data_dir: " + dir + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path, dir
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "forecaster "+contracts.Version)
	assert.Contains(t, out, "workbook format")
}

func TestPrepareWithoutPopulationSourceFails(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := execute(t, "--config", cfgPath, "prepare")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))
}

func TestConvertCommand(t *testing.T) {
	cfgPath, dir := writeConfig(t)

	cfg := config.Default()
	cfg.Paths.DataDir = dir
	paths, err := config.ResolvePaths(cfg.Paths)
	require.NoError(t, err)

	sectors := domain.DefaultSectorTaxonomy()
	shares := []float64{8, 14, 16, 6, 30, 3, 5, 7, 4, 5, 2}
	var rows []domain.MergedRecord
	for year := 2020; year <= 2025; year++ {
		rows = append(rows, domain.MergedRecord{
			RegionRecord: domain.RegionRecord{
				RegionKey:       dataprocessing.CanonicalizeRegion("Adana"),
				Region:          "Adana",
				Year:            year,
				PopulationTotal: 2200000 + float64(year-2020)*10000,
			},
			Date:   domain.YearEnd(year),
			GDP:    90000,
			Shares: append([]float64(nil), shares...),
		})
	}
	ds := &domain.MergedDataset{
		Regions:         rows,
		National:        dataprocessing.NationalAggregate(rows, true, len(sectors)),
		Sectors:         sectors,
		HasEconomicData: true,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := exporter.NewWorkbookStore(cfg.Dataset, sectors, logger)
	require.NoError(t, store.Write(context.Background(), paths.TrainingWorkbook, ds))

	out, err := execute(t, "--config", cfgPath, "--workers", "2", "convert")
	require.NoError(t, err)
	assert.Contains(t, out, "USD workbook: "+paths.USDWorkbook)
	assert.Contains(t, out, "converted: 5, without rate: 1")
	assert.Contains(t, out, "warning: no exchange rate for 2025")
	assert.FileExists(t, paths.USDWorkbook)
}

func TestReportRejectsPeriodsOutOfRange(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := execute(t, "--config", cfgPath, "report", "--periods", "31")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--periods must be between 1 and 30")
}

func TestNegativeWorkersRejected(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := execute(t, "--config", cfgPath, "--workers", "-1", "prepare")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--workers")
}

func TestParseSignals(t *testing.T) {
	signals, err := parseSignals([]string{"population", "gdp_usd"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Signal{domain.SignalPopulation, domain.SignalGDPUSD}, signals)

	_, err = parseSignals([]string{"inflation"})
	assert.EqualError(t, err, `unknown signal "inflation"`)
}

func TestPrintEvaluation(t *testing.T) {
	run := &services.EvaluationRun{
		Path: "/tmp/evaluation_summary.csv",
		Results: []domain.EvaluationResult{
			{Region: "Adana", Signal: domain.SignalPopulation, Windows: 4,
				RMSE: domain.NullFloat64{Float64: 1234.5, Valid: true}, MAPE: domain.NullFloat64{Float64: 0.0123, Valid: true}},
			{Region: "Bursa", Signal: domain.SignalGDP, Err: "insufficient history"},
		},
		Failed: 1,
	}

	var out bytes.Buffer
	printEvaluation(&out, run)

	assert.Contains(t, out.String(), "1234.5000")
	assert.Contains(t, out.String(), "insufficient history")
	assert.Contains(t, out.String(), "2 results, 1 failed")
	assert.Contains(t, out.String(), "Summary CSV: /tmp/evaluation_summary.csv")
}
