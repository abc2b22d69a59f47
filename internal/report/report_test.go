package report

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/forecast"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := forecast.NewEngine(config.Default().Forecast, logger)
	require.NoError(t, err)
	return NewRenderer(engine, 2, logger)
}

func testDataset() *domain.MergedDataset {
	sectors := domain.DefaultSectorTaxonomy()
	var rows []domain.MergedRecord
	add := func(region string, first, last int, gdp float64) {
		for y := first; y <= last; y++ {
			shares := make([]float64, len(sectors))
			for i := range shares {
				shares[i] = float64(i + 1)
			}
			rows = append(rows, domain.MergedRecord{
				RegionRecord: domain.RegionRecord{Region: region, RegionKey: strings.ToUpper(region), Year: y, PopulationTotal: 1e5 + 1e3*float64(y-first)},
				Date:         domain.YearEnd(y),
				GDP:          gdp * float64(y-first+1),
				Shares:       shares,
				GDPUSD:       domain.Float(gdp / 10),
			})
		}
	}
	add("Ordu", 2010, 2023, 500)
	add("Bayburt", 2023, 2023, 100)
	add("Adana", 2010, 2023, 0)
	add("Kars", 2012, 2023, 300)

	return &domain.MergedDataset{
		Regions:         rows,
		Sectors:         sectors,
		HasEconomicData: true,
		HasUSD:          true,
	}
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "not a PDF")
}

func TestRenderPopulation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "population.pdf")

	stats, err := newTestRenderer(t).RenderPopulation(context.Background(), testDataset(), path, 5)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Pages)
	require.Len(t, stats.Skipped, 1)
	assert.Equal(t, "Bayburt", stats.Skipped[0].Region)
	assertPDF(t, path)
}

func TestRenderEconomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "economy.pdf")

	stats, err := newTestRenderer(t).RenderEconomy(context.Background(), testDataset(), path, 5)
	require.NoError(t, err)

	// Adana has no GDP; Bayburt gets an insufficient data page
	assert.Equal(t, 3, stats.Pages)
	require.Len(t, stats.Skipped, 1)
	assert.Equal(t, "Adana", stats.Skipped[0].Region)
	assertPDF(t, path)
}

func TestRenderEconomyWithoutEconomicData(t *testing.T) {
	ds := testDataset()
	ds.HasEconomicData = false

	_, err := newTestRenderer(t).RenderEconomy(context.Background(), ds, filepath.Join(t.TempDir(), "e.pdf"), 5)
	assert.Error(t, err)
}

func TestEconomySeriesFallsBackToLocalCurrency(t *testing.T) {
	ds := testDataset()
	rows := ds.RegionSlice("Ordu")

	series, unit := EconomySeries(ds, rows)
	assert.Equal(t, "USD", unit)
	assert.Len(t, series, len(rows))

	for i := range rows[1:] {
		rows[i+1].GDPUSD = domain.Unavailable()
	}
	series, unit = EconomySeries(ds, rows)
	assert.Equal(t, "TRY", unit)
	assert.Equal(t, rows[0].GDP, series[0].Y)

	ds.HasUSD = false
	_, unit = EconomySeries(ds, ds.RegionSlice("Ordu"))
	assert.Equal(t, "TRY", unit)
}

func TestForecastChartSVG(t *testing.T) {
	result := &domain.ForecastResult{
		Rows: []domain.ForecastRow{
			{DS: domain.YearEnd(2022), YHat: 10, YHatLower: 9, YHatUpper: 11, Historical: true},
			{DS: domain.YearEnd(2023), YHat: 12, YHatLower: 10, YHatUpper: 14},
		},
		Periods: 1,
	}
	history := []domain.TimeSeriesPoint{{DS: domain.YearEnd(2022), Y: 10}}

	p, err := ForecastChart(history, result, ForecastOptions{Title: "İzmir", Color: ColorPopulation, CrashYear: 2023})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, p, 6*vg.Inch, 4*vg.Inch))
	assert.Contains(t, buf.String(), "<svg")

	_, err = ForecastChart(nil, &domain.ForecastResult{}, ForecastOptions{})
	assert.Error(t, err)
}

func TestStackedAreaChart(t *testing.T) {
	layers := []Layer{
		{Label: "A", Points: plotter.XYs{{X: 2020, Y: 40}, {X: 2021, Y: 50}}},
		{Label: "B", Points: plotter.XYs{{X: 2020, Y: 60}, {X: 2021, Y: 50}}},
	}

	p, err := StackedAreaChart("mix", "Year", "%", layers, 2020.5)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.Y.Max)

	layers[1].Points = layers[1].Points[:1]
	_, err = StackedAreaChart("mix", "Year", "%", layers, 0)
	assert.Error(t, err)

	_, err = StackedAreaChart("mix", "Year", "%", nil, 0)
	assert.Error(t, err)
}

func TestMessageChartSVG(t *testing.T) {
	p, err := MessageChart("Economy", "Insufficient data")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, p, 4*vg.Inch, 3*vg.Inch))
	assert.Contains(t, buf.String(), "Insufficient data")
}

func TestYearValue(t *testing.T) {
	assert.Equal(t, 2030.0, YearValue(domain.YearEnd(2029).AddDate(0, 0, 1)))
	v := YearValue(domain.YearEnd(2020))
	assert.Greater(t, v, 2020.99)
	assert.Less(t, v, 2021.0)
}

func TestThousandsTicker(t *testing.T) {
	ticks := thousandsTicker{printer: NewPrinter()}.Ticks(0, 2e6)
	var labels []string
	for _, tk := range ticks {
		if tk.Label != "" {
			labels = append(labels, tk.Label)
		}
	}
	assert.Contains(t, labels, "1,000,000")
}
