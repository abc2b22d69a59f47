package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// Message types exchanged with dashboard clients
const (
	TypeConnection      = "connection"
	TypeHeartbeat       = "heartbeat"
	TypeDashboard       = "dashboard"
	TypeDatasetReloaded = "dataset_reloaded"
	TypeError           = "error"
)

// Message is the envelope of every frame sent to a client
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// inbound is the envelope of a frame received from a client
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Responder answers dashboard requests received over a client connection
type Responder interface {
	BuildView(ctx context.Context, req domain.DashboardRequest) (*domain.DashboardView, error)
}

// HubStats is a snapshot of the hub counters
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesReceived int64 `json:"messages_received"`
	DroppedClients   int64 `json:"dropped_clients"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	cfg       config.WebSocketConfig
	responder Responder
	metrics   *infrastructure.ForecastMetrics
	logger    *slog.Logger

	totalConnections int64
	messagesSent     int64
	messagesReceived int64
	droppedClients   int64

	quit        chan struct{}
	running     bool
	metricsQuit chan struct{}
}

// NewHub creates a hub. responder may be nil, in which case dashboard
// requests are answered with an error frame.
func NewHub(cfg config.WebSocketConfig, responder Responder, metrics *infrastructure.ForecastMetrics, logger *slog.Logger) *Hub {
	return &Hub{
		broadcast:   make(chan []byte),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		cfg:         withDefaults(cfg),
		responder:   responder,
		metrics:     metrics,
		logger:      infrastructure.WithComponent(logger, "websocket.hub"),
		quit:        make(chan struct{}),
		metricsQuit: make(chan struct{}),
	}
}

func withDefaults(cfg config.WebSocketConfig) config.WebSocketConfig {
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = (cfg.PongWait * 9) / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	return cfg
}

// Start starts the hub's goroutines
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
	go h.reportMetrics()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			ctx := client.context()
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))
			h.recordClients(ctx, 1)

			h.sendTo(client, TypeConnection, map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				ctx := client.context()
				h.logger.InfoContext(ctx, "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
				h.recordClients(ctx, -1)
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			var dropped []*Client
			h.mu.Lock()
			count := len(h.clients)
			for client := range h.clients {
				select {
				case client.send <- message:
					h.messagesSent++
				default:
					// Slow consumer; drop it rather than block every other client.
					close(client.send)
					delete(h.clients, client)
					h.droppedClients++
					dropped = append(dropped, client)
				}
			}
			h.mu.Unlock()

			for _, client := range dropped {
				h.recordClients(client.context(), -1)
				h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
					slog.String("client_id", client.id))
			}

			h.logger.Debug("Broadcast delivered",
				slog.Int("client_count", count),
				slog.Int("fail_count", len(dropped)),
				slog.Int("message_size", len(message)))
		}
	}
}

// Broadcast sends a typed event to every connected client.
// It is a no-op once the hub has stopped.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	payload, err := encode(messageType, data, "")
	if err != nil {
		h.logger.Error("Error marshaling broadcast message",
			slog.String("message_type", messageType),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

// sendTo queues a message for a single client without blocking
func (h *Hub) sendTo(client *Client, messageType string, data interface{}) bool {
	payload, err := encode(messageType, data, client.traceID)
	if err != nil {
		h.logger.ErrorContext(client.context(), "Error marshaling client message",
			slog.String("message_type", messageType),
			slog.String("error", err.Error()))
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	select {
	case client.send <- payload:
		h.messagesSent++
		return true
	default:
		h.logger.WarnContext(client.context(), "Client buffer full, message dropped",
			slog.String("client_id", client.id),
			slog.String("message_type", messageType))
		return false
	}
}

func encode(messageType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	})
}

func (h *Hub) recordClients(ctx context.Context, delta int64) {
	if h.metrics == nil {
		return
	}
	h.metrics.WebSocketClients.Add(ctx, delta)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the current hub counters
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		ActiveClients:    len(h.clients),
		TotalConnections: h.totalConnections,
		MessagesSent:     h.messagesSent,
		MessagesReceived: h.messagesReceived,
		DroppedClients:   h.droppedClients,
	}
}

// Running reports whether the hub loop is active
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Stop gracefully stops the hub and closes every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	close(h.metricsQuit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// reportMetrics periodically logs the hub counters
func (h *Hub) reportMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.metricsQuit:
			return
		case <-ticker.C:
			stats := h.Stats()
			h.logger.Debug("WebSocket hub metrics",
				slog.Int("active_clients", stats.ActiveClients),
				slog.Int64("total_connections", stats.TotalConnections),
				slog.Int64("messages_sent", stats.MessagesSent),
				slog.Int64("messages_received", stats.MessagesReceived))
		}
	}
}
