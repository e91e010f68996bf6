package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"salesdash/internal/infrastructure"
)

// Message types and actions pushed to dashboards.
const (
	TypeConnection = "connection"
	TypeDataset    = "dataset"

	SubtypeRefresh = "refresh"

	ActionStarted   = "started"
	ActionCompleted = "completed"
	ActionFailed    = "failed"
)

const broadcastBuffer = 64

// Message is the JSON envelope written to every client.
type Message struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype,omitempty"`
	Action    string `json:"action,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
	TraceID   string `json:"trace_id,omitempty"`
}

// HubOptions tunes client keepalive and metrics. Zero values use defaults.
type HubOptions struct {
	PingPeriod time.Duration
	PongWait   time.Duration
	Metrics    *infrastructure.SalesMetrics
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.SalesMetrics

	pingPeriod time.Duration
	pongWait   time.Duration

	quit    chan struct{}
	done    chan struct{}
	running bool
	stopped bool

	messagesSent    int64
	messagesDropped int64
}

// NewHub creates a hub. Call Start before serving clients.
func NewHub(logger *slog.Logger, opts HubOptions) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	pongWait := opts.PongWait
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	pingPeriod := opts.PingPeriod
	if pingPeriod <= 0 || pingPeriod >= pongWait {
		pingPeriod = (pongWait * 9) / 10
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    opts.Metrics,
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the hub loop. A stopped hub cannot be restarted.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running || h.stopped {
		return
	}
	h.running = true
	go h.Run()
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "closed")

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// Stop closes every client and waits for the loop to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.stopped = true
		h.mu.Unlock()
		return
	}
	h.running = false
	h.stopped = true
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

// Running reports whether the hub loop is active.
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns counters for the status endpoint.
func (h *Hub) Stats() map[string]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]int64{
		"clients":          int64(len(h.clients)),
		"messages_sent":    h.messagesSent,
		"messages_dropped": h.messagesDropped,
	}
}

// Register hands a client to the hub loop. It returns false once the hub
// has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// BroadcastUpdate sends an update to all connected clients.
func (h *Hub) BroadcastUpdate(updateType, subtype, action string, data any) {
	h.BroadcastUpdateWithTrace(updateType, subtype, action, data, "")
}

// BroadcastUpdateWithTrace sends an update tagged with a trace ID. It never
// blocks: when the hub is stopped or its queue is full the message is dropped.
func (h *Hub) BroadcastUpdateWithTrace(updateType, subtype, action string, data any, traceID string) {
	ctx := context.Background()
	if traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}

	payload, err := json.Marshal(Message{
		Type:      updateType,
		Subtype:   subtype,
		Action:    action,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", updateType))
		return
	}

	if !h.Running() {
		h.logger.DebugContext(ctx, "hub not running, dropping message",
			slog.String("message_type", updateType))
		h.countDropped(1)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.countDropped(1)
		h.logger.WarnContext(ctx, "broadcast queue full, dropping message",
			slog.String("message_type", updateType))
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	ctx := c.context()
	h.logger.InfoContext(ctx, "client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", c.id),
		slog.String("remote_addr", c.remoteAddr))

	if h.metrics != nil {
		h.metrics.WebSocketClients.Add(ctx, 1)
	}

	hello, err := json.Marshal(Message{
		Type: TypeConnection,
		Data: map[string]any{
			"status":    "connected",
			"message":   "Connected to salesdash",
			"client_id": c.id,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   c.traceID,
	})
	if err != nil {
		return
	}
	select {
	case c.send <- hello:
	default:
		h.logger.WarnContext(ctx, "client buffer full, connection message dropped",
			slog.String("client_id", c.id))
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := c.context()
	h.logger.InfoContext(ctx, "client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", c.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(c.connectedAt)))

	if h.metrics != nil {
		h.metrics.WebSocketClients.Add(ctx, -1)
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var sent, slow int
	for _, c := range clients {
		select {
		case c.send <- message:
			sent++
		default:
			slow++
			h.removeClient(c, "send buffer full")
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(sent)
	h.messagesDropped += int64(slow)
	h.mu.Unlock()

	h.logger.Debug("broadcast delivered",
		slog.Int("clients", len(clients)),
		slog.Int("message_size", len(message)))
	if slow > 0 {
		h.logger.Warn("slow clients disconnected during broadcast",
			slog.Int("sent", sent),
			slog.Int("disconnected", slow))
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.removeClient(c, "hub stopped")
	}
}

func (h *Hub) countDropped(n int64) {
	h.mu.Lock()
	h.messagesDropped += n
	h.mu.Unlock()
}
