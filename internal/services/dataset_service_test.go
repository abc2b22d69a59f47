package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/exporter"
	ws "github.com/SirGarbage/Bitirme-Projesi/internal/websocket"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func newTestStore() *exporter.WorkbookStore {
	return exporter.NewWorkbookStore(config.Default().Dataset, domain.DefaultSectorTaxonomy(), discardLogger())
}

func writeWorkbook(t *testing.T, path string, ds *domain.MergedDataset) {
	t.Helper()
	require.NoError(t, newTestStore().Write(context.Background(), path, ds))
}

func TestDatasetServiceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.xlsx")
	writeWorkbook(t, path, sampleDataset(true, 2019, 2021, "Adana", "Bursa"))

	svc := NewDatasetService(newTestStore(), func() string { return path }, nil, nil, discardLogger())

	_, err := svc.Dataset()
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))
	assert.False(t, svc.Status().Loaded)

	require.NoError(t, svc.Load(context.Background()))

	status := svc.Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, path, status.Path)
	assert.Equal(t, 2, status.Regions)
	assert.Equal(t, 6, status.Rows)
	assert.True(t, status.HasEconomicData)
	assert.False(t, status.HasUSD)

	regions, err := svc.Regions()
	require.NoError(t, err)
	assert.Equal(t, []string{"Adana", "Bursa"}, regions)
}

func TestDatasetServiceLoadMissingWorkbook(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.xlsx")
	svc := NewDatasetService(newTestStore(), func() string { return missing }, nil, nil, discardLogger())

	err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))

	_, err = svc.Reload(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))
}

func TestDatasetServiceReloadOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "training.xlsx")
	writeWorkbook(t, path, sampleDataset(false, 2019, 2021, "Adana"))

	hub := &fakeHub{}
	svc := NewDatasetService(newTestStore(), func() string { return path }, hub, nil, discardLogger())
	require.NoError(t, svc.Load(ctx))

	changed, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, hub.messages())

	writeWorkbook(t, path, sampleDataset(true, 2019, 2021, "Adana", "Bursa"))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	changed, err = svc.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	status := svc.Status()
	assert.Equal(t, 2, status.Regions)
	assert.True(t, status.HasEconomicData)

	sent := hub.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, ws.TypeDatasetReloaded, sent[0].Type)
	assert.Equal(t, status.Regions, sent[0].Data.(DatasetStatus).Regions)
}

func TestDatasetServiceReloadFollowsResolvedPath(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	training := filepath.Join(dir, "training.xlsx")
	usd := filepath.Join(dir, "usd.xlsx")
	writeWorkbook(t, training, sampleDataset(true, 2019, 2021, "Adana"))

	paths := &config.Paths{TrainingWorkbook: training, USDWorkbook: usd}
	svc := NewDatasetService(newTestStore(), func() string { return paths.DashboardWorkbook(true) }, nil, nil, discardLogger())
	require.NoError(t, svc.Load(ctx))
	assert.Equal(t, training, svc.Status().Path)

	ds := sampleDataset(true, 2019, 2021, "Adana")
	for i := range ds.Regions {
		ds.Regions[i].GDPUSD = domain.Float(ds.Regions[i].GDP / 20)
	}
	ds.HasUSD = true
	require.NoError(t, newTestStore().WriteUSD(ctx, usd, ds))

	changed, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, usd, svc.Status().Path)
	assert.True(t, svc.Status().HasUSD)
}

func TestDatasetServiceSchedule(t *testing.T) {
	svc := NewDatasetService(newTestStore(), func() string { return "" }, nil, nil, discardLogger())

	assert.NoError(t, svc.StartSchedule(""))

	err := svc.StartSchedule("every now and then")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	require.NoError(t, svc.StartSchedule("@every 1h"))
	svc.Stop()
	svc.Stop()
}
