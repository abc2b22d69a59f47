package services

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/dataprocessing"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/forecast"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) *forecast.Engine {
	t.Helper()
	engine, err := forecast.NewEngine(config.Default().Forecast, discardLogger())
	require.NoError(t, err)
	return engine
}

// shareWeights sum to 100 and keep Services ahead of Manufacturing
var shareWeights = []float64{8, 14, 16, 6, 30, 3, 5, 7, 4, 5, 2}

// sampleDataset builds regions with one row per year. Population and GDP
// grow linearly; shares are constant.
func sampleDataset(withEconomy bool, first, last int, regions ...string) *domain.MergedDataset {
	sectors := domain.DefaultSectorTaxonomy()
	var rows []domain.MergedRecord
	for ri, name := range regions {
		for year := first; year <= last; year++ {
			step := float64(year - first)
			r := domain.MergedRecord{
				RegionRecord: domain.RegionRecord{
					RegionKey:       dataprocessing.CanonicalizeRegion(name),
					Region:          name,
					Year:            year,
					PopulationTotal: float64(1000000*(ri+1)) + 15000*step,
				},
				Date: domain.YearEnd(year),
			}
			if withEconomy {
				r.GDP = 50000 + 4000*step
				r.Shares = append([]float64(nil), shareWeights...)
			}
			rows = append(rows, r)
		}
	}
	return &domain.MergedDataset{
		Regions:         rows,
		National:        dataprocessing.NationalAggregate(rows, withEconomy, len(sectors)),
		Sectors:         sectors,
		HasEconomicData: withEconomy,
	}
}

// staticDatasets serves a fixed dataset, or the not loaded error when nil
type staticDatasets struct {
	ds *domain.MergedDataset
}

func (s staticDatasets) Dataset() (*domain.MergedDataset, error) {
	if s.ds == nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeSourceUnavailable, "dataset is not loaded", nil)
	}
	return s.ds, nil
}

type broadcast struct {
	Type string
	Data interface{}
}

// fakeHub records broadcasts
type fakeHub struct {
	mu   sync.Mutex
	sent []broadcast
}

func (h *fakeHub) Broadcast(messageType string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, broadcast{Type: messageType, Data: data})
}

func (h *fakeHub) messages() []broadcast {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]broadcast(nil), h.sent...)
}
