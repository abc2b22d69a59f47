package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere", "pop.csv")

	p, err := ResolvePaths(PathsConfig{
		DataDir:        dir,
		PopulationFile: abs,
	})
	require.NoError(t, err)

	assert.Equal(t, abs, p.PopulationFile)
	assert.Equal(t, filepath.Join(dir, EconomicFileName), p.EconomicFile)
	assert.Equal(t, filepath.Join(dir, "reports"), p.ReportsDir)
	assert.Equal(t, filepath.Join(dir, "reports", PopulationReportName), p.PopulationReport)
	assert.Equal(t, filepath.Join(dir, "reports", EvaluationSummaryName), p.EvaluationSummary)
}

func TestEnsureDirectoriesAndDashboardWorkbook(t *testing.T) {
	dir := t.TempDir()
	p, err := ResolvePaths(Default().Paths)
	require.NoError(t, err)
	p.DataDir = dir
	p.ReportsDir = filepath.Join(dir, "reports")
	p.LogsDir = filepath.Join(dir, "logs")
	p.TrainingWorkbook = filepath.Join(dir, TrainingWorkbookName)
	p.USDWorkbook = filepath.Join(dir, USDWorkbookName)

	require.NoError(t, p.EnsureDirectories())
	assert.DirExists(t, p.ReportsDir)

	assert.Equal(t, p.TrainingWorkbook, p.DashboardWorkbook(true))

	require.NoError(t, os.WriteFile(p.USDWorkbook, []byte("x"), 0644))
	assert.Equal(t, p.USDWorkbook, p.DashboardWorkbook(true))
	assert.Equal(t, p.TrainingWorkbook, p.DashboardWorkbook(false))
	assert.False(t, FileExists(dir))
}
