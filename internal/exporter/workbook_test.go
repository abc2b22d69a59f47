package exporter

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/dataprocessing"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore() *WorkbookStore {
	return NewWorkbookStore(config.Default().Dataset, domain.DefaultSectorTaxonomy(), testLogger())
}

func sampleDataset(t *testing.T, withEconomy bool) *domain.MergedDataset {
	t.Helper()
	sectors := domain.DefaultSectorTaxonomy()
	shares := func(base float64) []float64 {
		out := make([]float64, len(sectors))
		for i := range out {
			out[i] = base + float64(i)
		}
		return out
	}

	var regions []domain.MergedRecord
	for _, name := range []string{"Adana", "İzmir"} {
		for year := 2019; year <= 2021; year++ {
			r := domain.MergedRecord{
				RegionRecord: domain.RegionRecord{
					RegionKey:        dataprocessing.CanonicalizeRegion(name),
					Region:           name,
					Year:             year,
					PopulationTotal:  float64(1000000 + year),
					PopulationMale:   500000,
					PopulationFemale: float64(500000 + year),
					Category:         "İl",
				},
				Date: domain.YearEnd(year),
			}
			if withEconomy {
				r.GDP = float64(year) * 1.5
				r.Shares = shares(float64(year - 2018))
			}
			regions = append(regions, r)
		}
	}

	return &domain.MergedDataset{
		Regions:         regions,
		National:        dataprocessing.NationalAggregate(regions, withEconomy, len(sectors)),
		Sectors:         sectors,
		HasEconomicData: withEconomy,
	}
}

func TestWorkbookRoundTrip(t *testing.T) {
	store := newTestStore()
	path := filepath.Join(t.TempDir(), "training.xlsx")
	in := sampleDataset(t, true)

	require.NoError(t, store.Write(context.Background(), path, in))

	out, err := store.Read(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, out.HasEconomicData)
	assert.False(t, out.HasUSD)
	require.Len(t, out.Regions, len(in.Regions))
	for i := range in.Regions {
		want, got := in.Regions[i], out.Regions[i]
		assert.Equal(t, want.RegionKey, got.RegionKey)
		assert.Equal(t, want.Region, got.Region)
		assert.Equal(t, want.Year, got.Year)
		assert.True(t, want.Date.Equal(got.Date), "date %v != %v", want.Date, got.Date)
		assert.Equal(t, want.PopulationTotal, got.PopulationTotal)
		assert.Equal(t, want.PopulationFemale, got.PopulationFemale)
		assert.Equal(t, want.Category, got.Category)
		assert.InDelta(t, want.GDP, got.GDP, 1e-9)
		assert.Equal(t, want.Shares, got.Shares)
	}

	require.Len(t, out.National, len(in.National))
	for i := range in.National {
		assert.True(t, in.National[i].Date.Equal(out.National[i].Date))
		assert.Equal(t, in.National[i].Population, out.National[i].Population)
		assert.InDelta(t, in.National[i].GDP, out.National[i].GDP, 1e-9)
		assert.Equal(t, in.National[i].Shares, out.National[i].Shares)
	}
}

func TestWorkbookWithoutEconomicData(t *testing.T) {
	store := newTestStore()
	path := filepath.Join(t.TempDir(), "training.xlsx")

	require.NoError(t, store.Write(context.Background(), path, sampleDataset(t, false)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	header, err := f.GetRows(config.RegionSheetName)
	require.NoError(t, err)
	assert.Equal(t, []string{ColDate, ColValue, ColRegion, ColYear, ColCategory, ColMale, ColFemale, ColGDP}, header[0])
	require.NoError(t, f.Close())

	out, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, out.HasEconomicData)
	assert.Nil(t, out.Regions[0].Shares)
}

func TestUSDWorkbookKeepsMissingValues(t *testing.T) {
	store := newTestStore()
	path := filepath.Join(t.TempDir(), "usd.xlsx")

	in := sampleDataset(t, true)
	in.HasUSD = true
	for i := range in.Regions {
		if in.Regions[i].Year == 2021 {
			in.Regions[i].GDPUSD = domain.Unavailable()
		} else {
			in.Regions[i].GDPUSD = domain.Float(in.Regions[i].GDP / 7)
		}
	}

	require.NoError(t, store.WriteUSD(context.Background(), path, in))

	out, err := store.Read(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, out.HasUSD)
	require.Len(t, out.Regions, len(in.Regions))
	for i := range in.Regions {
		assert.Equal(t, in.Regions[i].GDPUSD.Valid, out.Regions[i].GDPUSD.Valid, "row %d", i)
		if in.Regions[i].GDPUSD.Valid {
			assert.InDelta(t, in.Regions[i].GDPUSD.Float64, out.Regions[i].GDPUSD.Float64, 1e-6)
		}
	}

	// The national sheet is rebuilt from the regions
	require.Len(t, out.National, 3)
	assert.Equal(t, in.National[0].Population, out.National[0].Population)
}

func TestWorkbookReadMissingFile(t *testing.T) {
	_, err := newTestStore().Read(context.Background(), filepath.Join(t.TempDir(), "none.xlsx"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))
}

func TestWorkbookReadPartialShareColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", config.RegionSheetName))
	header := []interface{}{ColDate, ColValue, ColRegion, ColYear, ColGDP, "Pay_Tarim"}
	require.NoError(t, f.SetSheetRow(config.RegionSheetName, "A1", &header))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := newTestStore().Read(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestWorkbookReadsISODates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iso.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", config.RegionSheetName))
	rows := [][]interface{}{
		{ColDate, ColValue, ColRegion, ColYear, ColGDP},
		{"2020-12-31", 100, "Adana", 2020, 5},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(config.RegionSheetName, cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := newTestStore().Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, ds.Regions, 1)
	assert.True(t, domain.YearEnd(2020).Equal(ds.Regions[0].Date))
	assert.Equal(t, "ADANA", ds.Regions[0].RegionKey)
}

func TestWorkbookWriteHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestStore().Write(ctx, filepath.Join(t.TempDir(), "x.xlsx"), sampleDataset(t, false))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("44196")
	require.NoError(t, err)
	assert.True(t, domain.YearEnd(2020).Equal(d))

	_, err = parseDate("yesterday")
	assert.Error(t, err)
}
