package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	ws "github.com/SirGarbage/Bitirme-Projesi/internal/websocket"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts"
)

// Health states
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// DatasetStatusProvider reports the state of the served dataset
type DatasetStatusProvider interface {
	Status() DatasetStatus
}

// HubStatusProvider reports the state of the websocket hub
type HubStatusProvider interface {
	Running() bool
	Stats() ws.HubStats
}

// HealthService provides health check functionality
type HealthService struct {
	paths     *config.Paths
	datasets  DatasetStatusProvider
	hub       HubStatusProvider
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// NewHealthService creates a health service. Any dependency may be nil;
// a nil dependency is reported as not ready.
func NewHealthService(paths *config.Paths, datasets DatasetStatusProvider, hub HubStatusProvider, logger *slog.Logger) *HealthService {
	logger = infrastructure.WithComponent(logger, "health_service")
	logger.Debug("HealthService initialized", slog.String("version", contracts.Version))

	return &HealthService{
		paths:     paths,
		datasets:  datasets,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports ready only when the dataset is loaded and the
// hub is running
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]interface{}{
			"dataset":   hs.checkDataset(),
			"websocket": hs.checkWebSocket(),
			"data_dir":  hs.checkDataDir(),
		},
	}

	for name, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != StatusReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "Readiness check failed",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// VersionReport is the version payload with process uptime
type VersionReport struct {
	contracts.VersionInfo
	UptimeSeconds float64 `json:"uptime_seconds"`
	StartTime     string  `json:"start_time"`
}

// Version returns version information
func (hs *HealthService) Version() VersionReport {
	return VersionReport{
		VersionInfo:   contracts.GetVersionInfo(),
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		StartTime:     hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDataset() ServiceHealth {
	if hs.datasets == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "dataset service not initialized"}
	}
	st := hs.datasets.Status()
	if !st.Loaded {
		return ServiceHealth{Status: StatusNotReady, Message: "dataset is not loaded", Details: st}
	}
	return ServiceHealth{Status: StatusReady, Details: st}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil || !hs.hub.Running() {
		return ServiceHealth{Status: StatusNotReady, Message: "websocket hub is not running"}
	}
	return ServiceHealth{Status: StatusReady, Details: hs.hub.Stats()}
}

func (hs *HealthService) checkDataDir() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "paths not resolved"}
	}
	info, err := os.Stat(hs.paths.DataDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("data directory not found: %s", hs.paths.DataDir),
		}
	}
	return ServiceHealth{Status: StatusReady}
}
