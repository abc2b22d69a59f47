package dataprocessing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(testDatasetConfig(), domain.DefaultSectorTaxonomy(), discardLogger())
}

func TestNormalizeRecordCount(t *testing.T) {
	rows := economicTable([]string{"Adana-1", "Ankara-2", "İzmir-3"}, []int{2019, 2020})

	records, stats, err := newTestNormalizer().Normalize(context.Background(), rows)
	require.NoError(t, err)

	assert.Len(t, records, 6)
	assert.Equal(t, 3, stats.RegionRows)
	assert.Equal(t, 2, stats.Years)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Coerced)

	first := records[0]
	assert.Equal(t, "ADANA", first.RegionKey)
	assert.Equal(t, 2019, first.Year)
	assert.Equal(t, 1000.0, first.GDP)
	require.Len(t, first.Shares, 11)
	assert.Equal(t, 1.0, first.Shares[0])
	assert.Equal(t, 11.0, first.Shares[10])

	assert.Equal(t, "İZMİR", records[5].RegionKey)
	assert.Equal(t, 2020, records[5].Year)
	assert.Equal(t, 3001.0, records[5].GDP)
}

func TestNormalizeCorruptedCellIsIsolated(t *testing.T) {
	rows := economicTable([]string{"Adana-1", "Ankara-2"}, []int{2019, 2020})
	// GDP of Ankara 2020
	rows[7][13] = "abc"

	records, stats, err := newTestNormalizer().Normalize(context.Background(), rows)
	require.NoError(t, err)

	assert.Len(t, records, 4)
	assert.Equal(t, 1, stats.Coerced)
	assert.Equal(t, 0.0, records[3].GDP)
	assert.Equal(t, 2000.0, records[2].GDP)
	assert.Equal(t, 1001.0, records[1].GDP)
}

func TestNormalizeSkipsPairsOutsideTable(t *testing.T) {
	rows := economicTable([]string{"Adana-1", "Ankara-2"}, []int{2019, 2020})
	// A third year label whose block runs past the right edge
	header := rows[3]
	rows[3] = append(header, "2021")

	records, stats, err := newTestNormalizer().Normalize(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Years)
	assert.Len(t, records, 4)
	assert.Equal(t, 2, stats.Skipped)
	assert.Len(t, stats.Warnings, 1)
	assert.Equal(t, stats.RegionRows*stats.Years-stats.Skipped, stats.Records)
}

func TestNormalizeSkipsRowsWithoutRegionName(t *testing.T) {
	rows := economicTable([]string{"Adana-1", "nan", "", "Bursa-16"}, []int{2020})

	records, stats, err := newTestNormalizer().Normalize(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.RegionRows)
	require.Len(t, records, 2)
	assert.Equal(t, "ADANA", records[0].RegionKey)
	assert.Equal(t, "BURSA", records[1].RegionKey)
}

func TestNormalizeOverlappingBlocksFail(t *testing.T) {
	rows := economicTable([]string{"Adana-1"}, []int{2019, 2020})
	rows[3][13] = ""
	rows[3][6] = "2020"

	_, _, err := newTestNormalizer().Normalize(context.Background(), rows)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Error(), "overlaps")
}

func TestNormalizeDuplicateYearLabelFails(t *testing.T) {
	rows := economicTable([]string{"Adana-1"}, []int{2019, 2020})
	rows[3][13] = "2019"

	_, _, err := newTestNormalizer().Normalize(context.Background(), rows)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Problems[0], "2019")
}

func TestNormalizeWithoutYearLabelsFails(t *testing.T) {
	rows := economicTable([]string{"Adana-1"}, []int{2020})
	rows[3][1] = "Yil"

	_, _, err := newTestNormalizer().Normalize(context.Background(), rows)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Error(), "no year labels")
}

func TestNormalizeRespectsCancellation(t *testing.T) {
	rows := economicTable([]string{"Adana-1"}, []int{2020})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newTestNormalizer().Normalize(ctx, rows)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadRowsPipeDelimited(t *testing.T) {
	input := "\ufeffa|b|c\n1|2\n|x|y|z\n"

	rows, err := newTestNormalizer().ReadRows(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"1", "2"}, rows[1])
	assert.Len(t, rows[2], 4)
}

func TestNormalizerLoadMissingFile(t *testing.T) {
	_, _, err := newTestNormalizer().Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))
	assert.True(t, apperrors.IsFatal(err))
}

func TestNormalizerLoadFile(t *testing.T) {
	rows := economicTable([]string{"Adana-1", "Ankara-2"}, []int{2019, 2020})
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r, "|")
	}
	path := filepath.Join(t.TempDir(), "econ.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	records, stats, err := newTestNormalizer().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, 4, stats.Records)
}
