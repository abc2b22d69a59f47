package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	ws "github.com/SirGarbage/Bitirme-Projesi/internal/websocket"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts"
)

type stubDatasets struct{ status DatasetStatus }

func (s stubDatasets) Status() DatasetStatus { return s.status }

type stubHub struct{ running bool }

func (h stubHub) Running() bool { return h.running }

func (h stubHub) Stats() ws.HubStats { return ws.HubStats{ActiveClients: 2} }

func TestReadinessCheck(t *testing.T) {
	paths := &config.Paths{DataDir: t.TempDir()}

	tests := []struct {
		name     string
		paths    *config.Paths
		datasets DatasetStatusProvider
		hub      HubStatusProvider
		want     string
	}{
		{"all ready", paths, stubDatasets{DatasetStatus{Loaded: true}}, stubHub{running: true}, StatusReady},
		{"dataset not loaded", paths, stubDatasets{}, stubHub{running: true}, StatusNotReady},
		{"hub stopped", paths, stubDatasets{DatasetStatus{Loaded: true}}, stubHub{}, StatusNotReady},
		{"no data directory", &config.Paths{DataDir: "/nonexistent/forecast-data"}, stubDatasets{DatasetStatus{Loaded: true}}, stubHub{running: true}, StatusNotReady},
		{"nothing wired", nil, nil, nil, StatusNotReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService(tt.paths, tt.datasets, tt.hub, discardLogger())
			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Services, 3)
			assert.Equal(t, contracts.Version, status.Version)
		})
	}
}

func TestHealthAndLiveness(t *testing.T) {
	hs := NewHealthService(nil, nil, nil, discardLogger())

	assert.Equal(t, StatusOK, hs.HealthCheck(context.Background()).Status)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, StatusAlive, live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, contracts.Version, v.Version)
	assert.NotEmpty(t, v.StartTime)
}
