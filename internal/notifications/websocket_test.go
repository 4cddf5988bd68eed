package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seoaudit/internal/messagebus"
	"seoaudit/internal/models"
)

type hubMetrics struct {
	mu            sync.Mutex
	connections   []bool
	active        int
	messages      int
	subscriptions []string
}

func (m *hubMetrics) RecordWebSocketConnection(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections = append(m.connections, success)
}

func (m *hubMetrics) SetActiveWebSocketConnections(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = count
}

func (m *hubMetrics) RecordWebSocketMessage(string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages++
}

func (m *hubMetrics) RecordGroupSubscription(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, action)
}

func wsURL(srv *httptest.Server, query string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http")
	if query != "" {
		u += "?" + query
	}
	return u
}

func subscribed(h *Hub, group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.connections {
		if c.HasGroup(group) {
			n++
		}
	}
	return n
}

func readUpdate(t *testing.T, conn *websocket.Conn, timeout time.Duration) (messagebus.JobUpdateMessage, error) {
	t.Helper()
	var msg messagebus.JobUpdateMessage
	conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	err = json.Unmarshal(data, &msg)
	return msg, err
}

func TestConnection_Groups(t *testing.T) {
	c := NewConnection(nil, NewHub(), slog.New(slog.DiscardHandler))

	c.AddGroup("a")
	c.AddGroup("a")
	c.AddGroup("b")
	assert.True(t, c.HasGroup("a"))
	assert.True(t, c.HasAnyGroup([]string{"x", "b"}))
	assert.False(t, c.HasAnyGroup([]string{"x", "y"}))

	c.RemoveGroup("a")
	assert.False(t, c.HasGroup("a"))
	assert.Equal(t, []string{"b"}, c.groups)
}

func TestHub_GroupRouting(t *testing.T) {
	metrics := &hubMetrics{}
	hub := NewHub(WithHubMetrics(metrics), WithHubLogger(slog.New(slog.DiscardHandler)))
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, slog.New(slog.DiscardHandler)).HandleWebSocket))
	defer srv.Close()

	watcher, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "audit_id=A"), nil)
	require.NoError(t, err)
	defer watcher.Close()

	firehose, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.NoError(t, err)
	defer firehose.Close()
	require.NoError(t, firehose.WriteJSON(SubscriptionMessage{Action: "subscribe", Group: FirehoseGroup}))

	require.Eventually(t, func() bool {
		return hub.Count() == 2 && subscribed(hub, FirehoseGroup) == 1 && subscribed(hub, "A") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastToGroups(messagebus.JobUpdateMessage{AuditID: "B", Status: models.JobStatusRunning}, "test", "B", FirehoseGroup)
	hub.BroadcastToGroups(messagebus.JobUpdateMessage{AuditID: "A", Status: models.JobStatusCompleted}, "test", "A", FirehoseGroup)

	msg, err := readUpdate(t, watcher, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "A", msg.AuditID, "watcher must not see other audits")
	assert.Equal(t, models.JobStatusCompleted, msg.Status)

	first, err := readUpdate(t, firehose, 2*time.Second)
	require.NoError(t, err)
	second, err := readUpdate(t, firehose, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, []string{first.AuditID, second.AuditID})

	metrics.mu.Lock()
	assert.Equal(t, []string{"subscribe"}, metrics.subscriptions)
	assert.Equal(t, 3, metrics.messages)
	assert.Equal(t, 2, metrics.active)
	metrics.mu.Unlock()
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(WithHubLogger(slog.New(slog.DiscardHandler)))
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, slog.New(slog.DiscardHandler)).HandleWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "audit_id=A"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return subscribed(hub, "A") == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.WriteJSON(SubscriptionMessage{Action: "unsubscribe", Group: "A"}))
	require.Eventually(t, func() bool { return subscribed(hub, "A") == 0 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastToGroups(messagebus.JobUpdateMessage{AuditID: "A"}, "test", "A")
	_, err = readUpdate(t, conn, 200*time.Millisecond)
	assert.Error(t, err)
}

func TestHub_MaxConnections(t *testing.T) {
	metrics := &hubMetrics{}
	hub := NewHub(WithHubMetrics(metrics), WithMaxConnections(1), WithHubLogger(slog.New(slog.DiscardHandler)))
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, slog.New(slog.DiscardHandler)).HandleWebSocket))
	defer srv.Close()

	first, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.NoError(t, err)
	defer first.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 1, hub.Count())
}

func TestHub_RemovesClosedConnections(t *testing.T) {
	hub := NewHub(WithHubLogger(slog.New(slog.DiscardHandler)))
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, slog.New(slog.DiscardHandler)).HandleWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationService_RelaysJobUpdates(t *testing.T) {
	nc, closeFn, err := messagebus.Connect("", "notifications-test", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(closeFn)

	bus := messagebus.New(nc, nil, slog.New(slog.DiscardHandler))
	hub := NewHub(WithHubLogger(slog.New(slog.DiscardHandler)))
	defer hub.Close()

	svc := NewNotificationService(hub, bus, WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()
	require.NoError(t, nc.Flush())

	srv := httptest.NewServer(http.HandlerFunc(svc.WebSocketHandler().HandleWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "audit_id=01JAUDIT"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.PublishJobUpdate(context.Background(), messagebus.JobUpdateMessage{
		AuditID:   "01JAUDIT",
		URL:       "https://example.com/",
		Status:    models.JobStatusCompleted,
		Scores:    &models.Scores{Overall: 81},
		Timestamp: time.Now().UTC(),
	}))

	msg, err := readUpdate(t, conn, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, messagebus.JobUpdateMessageType, msg.Type)
	assert.Equal(t, "01JAUDIT", msg.AuditID)
	assert.Equal(t, models.JobStatusCompleted, msg.Status)
	require.NotNil(t, msg.Scores)
	assert.Equal(t, 81.0, msg.Scores.Overall)
}
