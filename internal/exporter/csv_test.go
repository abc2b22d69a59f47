package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func readCSV(t *testing.T, path string) (bool, [][]string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	hasBOM := bytes.HasPrefix(data, utf8BOM)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return hasBOM, records
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, testLogger())

	tests := []struct {
		name    string
		file    string
		options WriteOptions
		bom     bool
		rows    int
	}{
		{
			name:    "with headers and BOM",
			file:    "with_bom.csv",
			options: WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"1", "2"}}, BOMPrefix: true},
			bom:     true,
			rows:    2,
		},
		{
			name:    "records only",
			file:    "plain.csv",
			options: WriteOptions{Records: [][]string{{"1"}, {"2"}, {"3"}}},
			rows:    3,
		},
		{
			name:    "nested directory",
			file:    filepath.Join("nested", "deep.csv"),
			options: WriteOptions{Headers: []string{"x"}},
			rows:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.file, tt.options))

			hasBOM, records := readCSV(t, filepath.Join(dir, tt.file))
			assert.Equal(t, tt.bom, hasBOM)
			assert.Len(t, records, tt.rows)
		})
	}
}

func TestCSVWriter_AbsolutePath(t *testing.T) {
	writer := NewCSVWriter(t.TempDir(), testLogger())
	abs := filepath.Join(t.TempDir(), "abs.csv")

	require.NoError(t, writer.WriteCSV(abs, WriteOptions{Headers: []string{"h"}}))
	assert.FileExists(t, abs)
}

func TestCSVWriter_WriteEvaluationSummary(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, testLogger())

	results := []domain.EvaluationResult{
		{Region: "Adana", Signal: domain.SignalPopulation, Windows: 4, RMSE: domain.Float(1200.5), MAPE: domain.Float(0.0123)},
		{Region: "Bayburt", Signal: domain.SignalGDP, Err: "insufficient history"},
	}

	require.NoError(t, writer.WriteEvaluationSummary("cv_summary.csv", results))

	hasBOM, records := readCSV(t, filepath.Join(dir, "cv_summary.csv"))
	assert.True(t, hasBOM)
	require.Len(t, records, 3)
	assert.Equal(t, EvaluationSummaryHeaders, records[0])
	assert.Equal(t, []string{"Adana", "population", "4", "1200.5000", "0.0123", ""}, records[1])
	assert.Equal(t, []string{"Bayburt", "gdp", "0", "", "", "insufficient history"}, records[2])
}

func TestStreamWriter_WriteForecast(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, testLogger())

	stream, err := writer.CreateStreamWriter("forecasts.csv", ForecastHeaders)
	require.NoError(t, err)

	result := &domain.ForecastResult{
		Rows: []domain.ForecastRow{
			{DS: domain.YearEnd(2020), YHat: 10, YHatLower: 9, YHatUpper: 11, Historical: true},
			{DS: domain.YearEnd(2021), YHat: 12.5, YHatLower: 10, YHatUpper: 15},
		},
		Periods: 1,
	}
	require.NoError(t, stream.WriteForecast("Adana", domain.SignalPopulation, result))
	require.NoError(t, stream.Close())

	hasBOM, records := readCSV(t, filepath.Join(dir, "forecasts.csv"))
	assert.True(t, hasBOM)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Adana", "population", "2020-12-31", "history", "10", "9", "11"}, records[1])
	assert.Equal(t, []string{"Adana", "population", "2021-12-31", "forecast", "12.5", "10", "15"}, records[2])
}
