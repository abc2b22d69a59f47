package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Dataset.YearRow)
	assert.Equal(t, 5, cfg.Dataset.FirstRegionRow)
	assert.Len(t, cfg.Sectors, 11)
	assert.Equal(t, 7.01, cfg.ExchangeRates[2020])
	assert.Equal(t, 3650*24*time.Hour, cfg.Evaluation.Initial)
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 5s
forecast:
  horizon: 10
exchange_rates:
  2020: 7.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout, "keys absent from the file keep defaults")
	assert.Equal(t, 10, cfg.Forecast.Horizon)
	assert.Equal(t, map[int]float64{2020: 7.5}, cfg.ExchangeRates)
	assert.Len(t, cfg.Sectors, 11)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("FORECAST_SERVER_PORT", "7070")
	t.Setenv("FORECAST_LOGGING_LEVEL", "DEBUG")
	t.Setenv("FORECAST_EVALUATION_PARALLEL", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Evaluation.Parallel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"negative rate", "exchange_rates:\n  2020: -1\n"},
		{"overlapping sheets", "dataset:\n  national_sheet: X\n  region_sheet: X\n"},
		{"unknown excluded sector", "dashboard:\n  excluded_sectors: [mining]\n"},
		{"interval width", "forecast:\n  interval_width: 1.5\n"},
		{"duplicate sectors", `
sectors:
  - {key: a, column: Pay_A}
  - {key: a, column: Pay_B}
dashboard:
  excluded_sectors: []
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestRateTable(t *testing.T) {
	table := Default().RateTable()
	rate, ok := table.Rate(2024)
	require.True(t, ok)
	assert.Equal(t, 31.50, rate)
	_, ok = table.Rate(2003)
	assert.False(t, ok)
}

func TestDefaultExchangeRates(t *testing.T) {
	assert.Equal(t, map[int]float64{
		2004: 1.42, 2005: 1.34, 2006: 1.43, 2007: 1.30,
		2008: 1.29, 2009: 1.55, 2010: 1.50, 2011: 1.67,
		2012: 1.80, 2013: 1.90, 2014: 2.19, 2015: 2.72,
		2016: 3.02, 2017: 3.65, 2018: 4.81, 2019: 5.67,
		2020: 7.01, 2021: 8.89, 2022: 16.57, 2023: 23.77,
		2024: 31.50,
	}, DefaultExchangeRates())
}
