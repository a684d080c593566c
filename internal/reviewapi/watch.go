package reviewapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"reviewshare/internal/review/model"
	"reviewshare/pkg/logger"
	"reviewshare/socket"

	"github.com/gorilla/websocket"
)

// Watch subscribes to change events for the reviews of the token's user and
// calls fn for each one until ctx is done or the connection drops. It returns
// nil when ctx ends the subscription. The store rejects the subscription
// without a token.
func (c *Client) Watch(ctx context.Context, fn func(model.ChangeEvent)) error {
	wsURL, err := c.watchURL()
	if err != nil {
		return &NetworkError{Op: "watch", Err: err}
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		netErr := &NetworkError{Op: "watch", Err: err}
		if resp != nil {
			netErr.StatusCode = resp.StatusCode
		}
		return netErr
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var msg socket.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return &NetworkError{Op: "watch", Err: err}
		}
		if msg.Type != socket.ReviewsChangedType {
			continue
		}

		var event model.ChangeEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			logger.Sugar.Warnf("reviewapi: ignoring malformed change event: %v", err)
			continue
		}
		fn(event)
	}
}

func (c *Client) watchURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.New("unsupported scheme " + u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = ""
	return u.String(), nil
}
