package socket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to read messages from a WebSocket connection with a timeout.
func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	var msg WSMessage
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read message from WebSocket")
	err = json.Unmarshal(p, &msg)
	require.NoError(t, err, "Failed to unmarshal WSMessage JSON")
	return msg
}

func newTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, r.URL.Query().Get("userId"))
	}))
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestHubIntegration(t *testing.T) {
	hub, wsURL := newTestServer(t)

	conn1, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?userId=u1", nil)
	require.NoError(t, err, "Subscriber 1 failed to connect")
	defer conn1.Close()

	ack := readMessage(t, conn1)
	assert.Equal(t, SubscribedType, ack.Type)
	assert.Equal(t, "u1", ack.UserID)

	conn2, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?userId=u2", nil)
	require.NoError(t, err, "Subscriber 2 failed to connect")
	defer conn2.Close()
	_ = readMessage(t, conn2)

	assert.Eventually(t, func() bool { return hub.Subscribers("u1") == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("u1", map[string]string{"id": "r1", "action": "created"})

	msg := readMessage(t, conn1)
	assert.Equal(t, ReviewsChangedType, msg.Type)
	assert.Equal(t, "u1", msg.UserID)
	assert.JSONEq(t, `{"id":"r1","action":"created"}`, string(msg.Payload))

	// The other user's subscriber must not see u1's events.
	conn2.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = conn2.ReadMessage()
	assert.Error(t, err)
}

func TestHubUnregisterOnClose(t *testing.T) {
	hub, wsURL := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?userId=u1", nil)
	require.NoError(t, err)
	_ = readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.Subscribers("u1") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers("u1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestServeWsRequiresUserID(t *testing.T) {
	_, wsURL := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Publish("u1", map[string]string{"id": "r1"})
	assert.Len(t, hub.Broadcast, 1)
}
