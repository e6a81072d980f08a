package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plain-reactive/plain/pkg/telemetry"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeError ReloadMessageType = "error"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
	File  string            `json:"file,omitempty"`
}

// DefaultWriteTimeout bounds a single websocket write.
const DefaultWriteTimeout = 5 * time.Second

// Client is one websocket connection registered with a Hub. Writes are
// serialized; reads belong to the caller.
type Client struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	writeTimeout time.Duration
}

// Conn returns the underlying connection for reading.
func (c *Client) Conn() *websocket.Conn { return c.conn }

// Send writes v as a JSON text message.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(data)
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub's logger.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithHubMetrics counts connected clients.
func WithHubMetrics(m *telemetry.Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithCheckOrigin replaces the upgrader's origin check. The default allows
// every origin.
func WithCheckOrigin(fn func(*http.Request) bool) HubOption {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// Hub manages WebSocket connections and broadcasts to them.
type Hub struct {
	clients      map[*Client]struct{}
	mu           sync.RWMutex
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	metrics      *telemetry.Metrics
	writeTimeout time.Duration
}

// NewHub creates a new hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:       slog.Default(),
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Accept upgrades the request and registers the connection. The caller
// reads from Client.Conn and calls Remove when the connection ends.
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request) (*Client, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, writeTimeout: h.writeTimeout}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.ClientConnected()
	h.logger.Debug("dev: client connected", "remote", r.RemoteAddr)
	return c, nil
}

// Remove unregisters c and closes its connection. Removing a client twice
// is a no-op.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.conn.Close()
	h.metrics.ClientDisconnected()
}

// NotifyReload tells every client that file changed.
func (h *Hub) NotifyReload(file string) {
	h.Broadcast(ReloadMessage{Type: ReloadTypeFull, File: file})
}

// NotifyError sends an error message to all clients.
func (h *Hub) NotifyError(errMsg string) {
	h.Broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// Broadcast sends v as JSON to all connected clients. Clients whose write
// fails are removed.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("dev: cannot encode message", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.logger.Debug("dev: dropping client", "error", err)
			h.Remove(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.Remove(client)
	}
}
