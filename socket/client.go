package socket

import (
	"net/http"
	"time"

	"reviewshare/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one websocket subscriber watching the reviews of UserID.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID string
	Send   chan []byte
}

// ServeWs upgrades the request and subscribes it to the change events of
// userID. The caller authenticates the request and passes the token subject,
// so a subscriber can only ever watch its own reviews.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	if userID == "" {
		http.Error(w, "Missing user id", http.StatusBadRequest)
		return
	}

	// 1. The HTTP connection is upgraded to a persistent WebSocket connection.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	// 2. The subscriber joins the room of its user. If the hub is already
	// shutting down the connection is dropped instead.
	client := &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 16),
	}
	select {
	case client.Hub.Register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	// 3. One goroutine writes queued events and pings, the other reads until
	// the peer goes away and then unregisters.
	go client.writePump()
	go client.readPump()
}

// readPump only drains control frames; subscribers never send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			return
		}
	}
}

// writePump sends queued events and keeps the connection alive with pings.
// A closed Send channel means the hub dropped this subscriber.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
