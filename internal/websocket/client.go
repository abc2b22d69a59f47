package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Outbound messages buffered per client before it counts as slow
	sendBuffer = 32
)

// Client is a middleman between one websocket connection and the hub
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewClient creates a client for conn. An empty traceID gets a fresh one.
func NewClient(hub *Hub, conn Connection, traceID string) *Client {
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(infrastructure.WithTraceID(context.Background(), traceID))

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		logger: hub.logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id)),
	}
}

// ID returns the client identifier
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// ReadPump reads frames from the connection until it fails.
// Dashboard requests are answered in order on the same connection.
func (c *Client) ReadPump() {
	defer func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.logger.InfoContext(c.context(), "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}

		c.hub.mu.Lock()
		c.hub.messagesReceived++
		c.hub.mu.Unlock()

		c.handle(message)
	}
}

func (c *Client) handle(message []byte) {
	var in inbound
	if err := json.Unmarshal(message, &in); err != nil {
		c.replyError(apperrors.NewAppValidationError("malformed message: " + err.Error()))
		return
	}

	switch in.Type {
	case TypeHeartbeat:
		c.logger.Debug("Heartbeat received")
	case TypeDashboard:
		var req domain.DashboardRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			c.replyError(apperrors.NewAppValidationError("malformed dashboard request: " + err.Error()))
			return
		}
		c.respond(req)
	default:
		c.replyError(apperrors.NewAppValidationError("unknown message type: " + in.Type))
	}
}

func (c *Client) respond(req domain.DashboardRequest) {
	if c.hub.responder == nil {
		c.replyError(apperrors.NewAppError(apperrors.ErrTypeSourceUnavailable, "dashboard is not ready", nil))
		return
	}

	view, err := c.hub.responder.BuildView(c.context(), req)
	if err != nil {
		c.logger.WarnContext(c.context(), "Dashboard request failed",
			slog.String("region", req.Region),
			slog.String("error", err.Error()))
		c.replyError(err)
		return
	}
	c.hub.sendTo(c, TypeDashboard, view)
}

func (c *Client) replyError(err error) {
	data := map[string]interface{}{"message": err.Error()}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		data["code"] = string(appErr.Type)
		data["message"] = appErr.Message
	}
	c.hub.sendTo(c, TypeError, data)
}

// WritePump writes queued messages and keepalive pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

// ServeWS registers a new client for conn and starts its pumps
func ServeWS(hub *Hub, conn Connection, traceID string) *Client {
	client := NewClient(hub, conn, traceID)
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return client
}
