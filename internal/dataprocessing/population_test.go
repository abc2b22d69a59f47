package dataprocessing

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
)

func newTestPopulationLoader() *PopulationLoader {
	return NewPopulationLoader(testDatasetConfig().PopulationColumns, discardLogger())
}

func TestPopulationReadTrimsHeaderAndBOM(t *testing.T) {
	input := "\ufeff İl , Yıl ,Toplam_Nüfus, Erkek ,Kadın,Kategori\n" +
		"Adana,2020,2258718,1124587,1134131,İl\n" +
		"istanbul,2020.0,\"15,462,452\",7732000,7730452,İl\n"

	records, stats, err := newTestPopulationLoader().Read(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, 2, stats.Regions)

	assert.Equal(t, "ADANA", records[0].RegionKey)
	assert.Equal(t, "Adana", records[0].Region)
	assert.Equal(t, 2020, records[0].Year)
	assert.Equal(t, 2258718.0, records[0].PopulationTotal)
	assert.Equal(t, 1124587.0, records[0].PopulationMale)
	assert.Equal(t, "İl", records[0].Category)

	assert.Equal(t, "İSTANBUL", records[1].RegionKey)
	assert.Equal(t, 2020, records[1].Year)
	assert.Equal(t, 15462452.0, records[1].PopulationTotal)
}

func TestPopulationReadSkipsBadRows(t *testing.T) {
	input := "İl,Yıl,Toplam_Nüfus\n" +
		"Adana,2020,100\n" +
		",2020,50\n" +
		"Ankara,20x0,70\n" +
		"Bursa,2020,\n" +
		"Bursa,2021,80\n"

	records, stats, err := newTestPopulationLoader().Read(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 0.0, records[1].PopulationMale)
}

func TestPopulationReadEnglishAliases(t *testing.T) {
	input := "region,year,population\nKonya,2019,2250020\n"

	records, _, err := newTestPopulationLoader().Read(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "KONYA", records[0].RegionKey)
}

func TestPopulationReadMissingColumns(t *testing.T) {
	loader := NewPopulationLoader(config.PopulationColumns{Region: "İl", Year: "Yıl", Total: "Toplam_Nüfus"}, discardLogger())

	_, _, err := loader.Read(context.Background(), strings.NewReader("İl,Nüfus\nAdana,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Yıl")
}

func TestPopulationLoadMissingFile(t *testing.T) {
	_, _, err := newTestPopulationLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))
}

func TestParseCount(t *testing.T) {
	v, err := parseCount("1 234 567")
	require.NoError(t, err)
	assert.Equal(t, 1234567.0, v)

	_, err = parseCount("nan")
	assert.Error(t, err)

	_, err = parseCount("many")
	assert.Error(t, err)
}

func TestParseYear(t *testing.T) {
	y, err := parseYear("2020.0")
	require.NoError(t, err)
	assert.Equal(t, 2020, y)

	_, err = parseYear("2020.5")
	assert.Error(t, err)
}
