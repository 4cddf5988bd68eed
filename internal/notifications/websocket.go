package notifications

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// FirehoseGroup receives updates for every audit
const FirehoseGroup = "audits"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HubMetrics records websocket activity
type HubMetrics interface {
	RecordWebSocketConnection(success bool)
	SetActiveWebSocketConnections(count int)
	RecordWebSocketMessage(messageType string, success bool)
	RecordGroupSubscription(action string)
}

// Hub manages WebSocket connections and message broadcasting
type Hub struct {
	connections    map[*Connection]bool
	mu             sync.RWMutex
	metrics        HubMetrics
	log            *slog.Logger
	maxConnections int
	writeTimeout   time.Duration
}

// HubOption configures the Hub
type HubOption func(*Hub)

// NewHub creates a new WebSocket hub with optional configurations
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		connections:  make(map[*Connection]bool),
		log:          slog.Default(),
		writeTimeout: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// WithHubMetrics sets the metrics collector for the hub
func WithHubMetrics(m HubMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithHubLogger sets the logger for the hub
func WithHubLogger(log *slog.Logger) HubOption {
	return func(h *Hub) { h.log = log }
}

// WithMaxConnections caps concurrent clients. Zero means unlimited.
func WithMaxConnections(n int) HubOption {
	return func(h *Hub) { h.maxConnections = n }
}

// WithWriteTimeout bounds each write to a client
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// AddConnection adds a new WebSocket connection to the hub. It reports false when the hub is full.
func (h *Hub) AddConnection(conn *Connection) bool {
	h.mu.Lock()
	if h.maxConnections > 0 && len(h.connections) >= h.maxConnections {
		h.mu.Unlock()
		if h.metrics != nil {
			h.metrics.RecordWebSocketConnection(false)
		}
		h.log.Warn("Rejected WebSocket connection, hub is full", slog.Int("max", h.maxConnections))
		return false
	}
	h.connections[conn] = true
	count := len(h.connections)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RecordWebSocketConnection(true)
		h.metrics.SetActiveWebSocketConnections(count)
	}

	h.log.Info("New WebSocket connection established", slog.Int("total", count))
	return true
}

// RemoveConnection removes a WebSocket connection from the hub
func (h *Hub) RemoveConnection(conn *Connection) {
	h.mu.Lock()
	if _, ok := h.connections[conn]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.connections, conn)
	count := len(h.connections)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.SetActiveWebSocketConnections(count)
	}

	h.log.Info("WebSocket connection closed",
		slog.Int("total", count),
		slog.Duration("duration", time.Since(conn.start)))
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// BroadcastToGroups sends msg to every connection subscribed to at least one of groups.
// With no groups the message goes to every connection.
func (h *Hub) BroadcastToGroups(msg any, msgType string, groups ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("Failed to marshal message", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections {
		if len(groups) > 0 && !conn.HasAnyGroup(groups) {
			continue
		}

		err := conn.WriteMessage(data, h.writeTimeout)
		if h.metrics != nil {
			h.metrics.RecordWebSocketMessage(msgType, err == nil)
		}
		if err != nil {
			h.log.Error("Failed to write to websocket", slog.Any("error", err))

			go func(c *Connection) {
				h.RemoveConnection(c)
				c.Close()
			}(conn)
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg any, msgType string) {
	h.BroadcastToGroups(msg, msgType)
}

// RecordGroupSubscription records subscription metrics
func (h *Hub) RecordGroupSubscription(action string) {
	if h.metrics != nil {
		h.metrics.RecordGroupSubscription(action)
	}
}

// Close shuts down the hub and closes all connections
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		conn.Close()
	}

	h.connections = make(map[*Connection]bool)
	if h.metrics != nil {
		h.metrics.SetActiveWebSocketConnections(0)
	}
	h.log.Info("WebSocket hub closed")
}

// Connection represents a WebSocket connection with group subscriptions
type Connection struct {
	conn    *websocket.Conn
	groups  []string
	mu      sync.RWMutex
	writeMu sync.Mutex
	hub     *Hub
	log     *slog.Logger
	start   time.Time
}

// SubscriptionMessage represents a subscription/unsubscription request
type SubscriptionMessage struct {
	Action string `json:"action"`
	Group  string `json:"group"`
}

// NewConnection creates a new WebSocket connection wrapper
func NewConnection(conn *websocket.Conn, hub *Hub, log *slog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		groups: make([]string, 0),
		hub:    hub,
		log:    log,
		start:  time.Now(),
	}
}

// AddGroup adds the connection to a subscription group
func (c *Connection) AddGroup(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.groups, group) {
		c.groups = append(c.groups, group)
	}
}

// RemoveGroup removes the connection from a subscription group
func (c *Connection) RemoveGroup(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = slices.DeleteFunc(c.groups, func(g string) bool { return g == group })
}

// HasGroup checks if the connection is subscribed to a group
func (c *Connection) HasGroup(group string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.groups, group)
}

// HasAnyGroup checks if the connection is subscribed to any of groups
func (c *Connection) HasAnyGroup(groups []string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range groups {
		if slices.Contains(c.groups, g) {
			return true
		}
	}
	return false
}

// WriteMessage sends a text frame, giving up after timeout
func (c *Connection) WriteMessage(msg []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Close closes the WebSocket connection
func (c *Connection) Close() error {
	return c.conn.Close()
}

// ReadLoop continuously reads messages from the WebSocket connection
func (c *Connection) ReadLoop() {
	defer func() {
		c.hub.RemoveConnection(c)
		c.conn.Close()
	}()

	for {
		msgType, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("Unexpected websocket close error", slog.Any("error", err))
			}
			break
		}

		if msgType == websocket.TextMessage {
			c.handleSubscriptionMessage(p)
		}
	}
}

// handleSubscriptionMessage processes subscription/unsubscription requests
func (c *Connection) handleSubscriptionMessage(data []byte) {
	var sub SubscriptionMessage
	if err := json.Unmarshal(data, &sub); err != nil {
		c.log.Error("Failed to unmarshal subscription message", slog.Any("error", err))
		return
	}
	if sub.Group == "" {
		return
	}

	switch sub.Action {
	case "subscribe":
		c.AddGroup(sub.Group)
		c.hub.RecordGroupSubscription("subscribe")
		c.log.Info("Added subscription for group", slog.String("group", sub.Group))

	case "unsubscribe":
		c.RemoveGroup(sub.Group)
		c.hub.RecordGroupSubscription("unsubscribe")
		c.log.Info("Removed subscription for group", slog.String("group", sub.Group))
	}
}

// Handler handles WebSocket HTTP requests and upgrades them to WebSocket connections
type Handler struct {
	hub *Hub
	log *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, log *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		log: log,
	}
}

// HandleWebSocket upgrades HTTP requests to WebSocket connections.
// Clients may pass ?audit_id= to subscribe to one audit right away.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub.maxConnections > 0 && h.hub.Count() >= h.hub.maxConnections {
		http.Error(w, "too many websocket connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade websocket connection", slog.Any("error", err))
		return
	}

	wsConn := NewConnection(conn, h.hub, h.log)
	if id := r.URL.Query().Get("audit_id"); id != "" {
		wsConn.AddGroup(id)
	}

	if !h.hub.AddConnection(wsConn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"))
		conn.Close()
		return
	}

	go wsConn.ReadLoop()
}
