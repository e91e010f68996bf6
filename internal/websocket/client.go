package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apierrors "salesdash/internal/errors"
	"salesdash/internal/infrastructure"
)

const (
	writeWait       = 10 * time.Second
	defaultPongWait = 60 * time.Second

	// Dashboards only send heartbeats.
	maxMessageSize = 512

	sendBuffer = 256
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time
	logger      *slog.Logger
}

// NewClient creates a client over any Connection.
func NewClient(hub *Hub, conn Connection, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	id := uuid.New().String()
	logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// ID returns the client identifier sent in the connection message.
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// ReadPump drains inbound frames until the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	pongWait := c.hub.pongWait
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(c.context(), "unexpected websocket close",
					slog.String("error", err.Error()))
			}
			return
		}
		c.logger.Debug("client message ignored", slog.Int("size", len(message)))
	}
}

// WritePump writes queued messages and keepalive pings to the peer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
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
				c.logger.ErrorContext(c.context(), "error writing websocket message",
					slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "ping failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// Serve registers the client and starts its pumps.
func (c *Client) Serve() bool {
	if !c.hub.Register(c) {
		c.conn.Close()
		return false
	}
	go c.WritePump()
	go c.ReadPump()
	return true
}

// HandlerConfig configures the upgrade endpoint.
type HandlerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	// AllowedOrigins lists accepted Origin headers. Empty or "*" allows all.
	AllowedOrigins []string
	// ErrorHandler writes rejected upgrades as problem details.
	ErrorHandler *apierrors.ErrorHandler
}

// NewHandler returns the /ws endpoint that upgrades requests onto the hub.
func NewHandler(hub *Hub, cfg HandlerConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.handler"))
	errorHandler := cfg.ErrorHandler
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), cfg.AllowedOrigins)
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			logger.WarnContext(r.Context(), "websocket upgrade failed",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			errorHandler.HandleError(w, r, apierrors.WebSocketUpgradeFailed(status, reason))
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hub.Running() {
			errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		traceID := infrastructure.GetTraceID(r.Context())
		client := NewClient(hub, NewConnectionWrapper(conn), traceID, logger)
		client.Serve()
	})
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
