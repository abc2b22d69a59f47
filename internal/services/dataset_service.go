package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	ws "github.com/SirGarbage/Bitirme-Projesi/internal/websocket"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// WebSocketHub is the broadcast side of the websocket hub
type WebSocketHub interface {
	Broadcast(messageType string, data interface{})
}

// DatasetReader loads a merged dataset from a workbook
type DatasetReader interface {
	Read(ctx context.Context, path string) (*domain.MergedDataset, error)
}

// DatasetStatus describes the dataset currently served
type DatasetStatus struct {
	Loaded          bool      `json:"loaded"`
	Path            string    `json:"path"`
	Regions         int       `json:"regions"`
	Rows            int       `json:"rows"`
	HasEconomicData bool      `json:"has_economic_data"`
	HasUSD          bool      `json:"has_usd"`
	ModTime         time.Time `json:"mod_time"`
	LoadedAt        time.Time `json:"loaded_at"`
}

// DatasetService holds the dashboard dataset and swaps it when the
// workbook on disk changes
type DatasetService struct {
	mu       sync.RWMutex
	dataset  *domain.MergedDataset
	path     string
	modTime  time.Time
	loadedAt time.Time

	reader  DatasetReader
	resolve func() string
	hub     WebSocketHub
	metrics *infrastructure.ForecastMetrics
	logger  *slog.Logger

	cron *cron.Cron
}

// NewDatasetService creates the service. resolve returns the workbook
// path at each load, so a workbook created after startup is picked up.
// hub and metrics may be nil.
func NewDatasetService(reader DatasetReader, resolve func() string, hub WebSocketHub, metrics *infrastructure.ForecastMetrics, logger *slog.Logger) *DatasetService {
	return &DatasetService{
		reader:  reader,
		resolve: resolve,
		hub:     hub,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "dataset_service"),
	}
}

// Load reads the workbook unconditionally and swaps it in
func (s *DatasetService) Load(ctx context.Context) error {
	path := s.resolve()
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewSourceUnavailableError(path, err)
	}
	return s.load(ctx, path, info.ModTime())
}

func (s *DatasetService) load(ctx context.Context, path string, modTime time.Time) error {
	start := time.Now()
	ds, err := s.reader.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	s.mu.Lock()
	s.dataset = ds
	s.path = path
	s.modTime = modTime
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Dataset loaded",
		slog.String("path", path),
		slog.Int("rows", len(ds.Regions)),
		slog.Bool("has_economic_data", ds.HasEconomicData),
		slog.Bool("has_usd", ds.HasUSD),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Reload loads the workbook again when its path or modification time
// changed since the last load. It reports whether the dataset changed
// and broadcasts a dataset_reloaded event when it did.
func (s *DatasetService) Reload(ctx context.Context) (bool, error) {
	path := s.resolve()
	info, err := os.Stat(path)
	if err != nil {
		return false, apperrors.NewSourceUnavailableError(path, err)
	}

	s.mu.RLock()
	unchanged := s.dataset != nil && s.path == path && s.modTime.Equal(info.ModTime())
	s.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	if err := s.load(ctx, path, info.ModTime()); err != nil {
		return false, err
	}

	if s.metrics != nil {
		s.metrics.DatasetReloads.Add(ctx, 1)
	}
	if s.hub != nil {
		s.hub.Broadcast(ws.TypeDatasetReloaded, s.Status())
	}
	return true, nil
}

// StartSchedule reloads the workbook on the given cron spec, e.g. "@every 5m".
// An empty spec disables the schedule.
func (s *DatasetService) StartSchedule(spec string) error {
	if spec == "" {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx := infrastructure.EnsureTraceID(context.Background())
		changed, err := s.Reload(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Scheduled dataset reload failed",
				slog.String("error", err.Error()))
			return
		}
		if changed {
			s.logger.InfoContext(ctx, "Scheduled dataset reload picked up a new workbook")
		}
	}); err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("invalid reload schedule %q", spec), err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.logger.Info("Dataset reload scheduled", slog.String("schedule", spec))
	return nil
}

// Stop stops the reload schedule and waits for a running reload
func (s *DatasetService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Dataset returns the current dataset. Callers must not modify it.
func (s *DatasetService) Dataset() (*domain.MergedDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeSourceUnavailable, "dataset is not loaded", nil)
	}
	return s.dataset, nil
}

// Regions returns the sorted region names of the current dataset
func (s *DatasetService) Regions() ([]string, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.RegionNames(), nil
}

// Status describes the dataset currently served
func (s *DatasetService) Status() DatasetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := DatasetStatus{
		Path:     s.path,
		ModTime:  s.modTime,
		LoadedAt: s.loadedAt,
	}
	if s.dataset != nil {
		status.Loaded = true
		status.Regions = len(s.dataset.RegionNames())
		status.Rows = len(s.dataset.Regions)
		status.HasEconomicData = s.dataset.HasEconomicData
		status.HasUSD = s.dataset.HasUSD
	}
	return status
}
