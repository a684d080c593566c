package socket

import (
	"encoding/json"
	"sync"

	"reviewshare/pkg/logger"
)

const (
	ReviewsChangedType = "REVIEWS_CHANGED" // A review owned by the room's user was created, updated or deleted
	SubscribedType     = "SUBSCRIBED"      // Sent once to a new subscriber
)

// WSMessage is the frame written to subscribers. Payload carries a
// model.ChangeEvent for REVIEWS_CHANGED and is empty for SUBSCRIBED.
type WSMessage struct {
	Type    string          `json:"type"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans out review change events to every subscriber watching a user.
type Hub struct {
	Rooms      map[string]map[*Client]bool // userID -> subscribers
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

// NewHub creates an idle hub. Call Run in its own goroutine before serving
// subscribers and Stop on shutdown.
func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It owns room membership changes and the
// delivery of queued events until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		// 1. A new subscriber joins the room of its user and gets an ack so
		// it knows events will follow.
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.UserID] == nil {
				h.Rooms[client.UserID] = make(map[*Client]bool)
			}
			h.Rooms[client.UserID][client] = true
			h.mu.Unlock()

			ack, _ := json.Marshal(WSMessage{Type: SubscribedType, UserID: client.UserID})
			client.Send <- ack

		// 2. A subscriber whose connection ended leaves its room. Empty rooms
		// are removed.
		case client := <-h.Unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		// 3. A change event is delivered to every subscriber of its user. A
		// subscriber that cannot keep up is dropped rather than blocking the
		// others.
		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			// Copy recipients so no lock is held while sending.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[msg.UserID]))
			for client := range h.Rooms[msg.UserID] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					logger.Sugar.Warnf("Subscriber of %s has a full send buffer. Dropping it.", client.UserID)
					h.mu.Lock()
					h.removeLocked(client)
					h.mu.Unlock()
				}
			}
		}
	}
}

// Stop terminates Run.
func (h *Hub) Stop() {
	close(h.done)
}

// Publish queues a change event for the subscribers of userID. It never
// blocks the caller; events are dropped when the queue is full.
func (h *Hub) Publish(userID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling change event: %v", err)
		return
	}
	select {
	case h.Broadcast <- WSMessage{Type: ReviewsChangedType, UserID: userID, Payload: payload}:
	default:
		logger.Sugar.Warnf("Broadcast queue full, dropping change event for %s", userID)
	}
}

// Subscribers returns how many clients are watching userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[userID])
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.Rooms[client.UserID][client]; !ok {
		return
	}
	delete(h.Rooms[client.UserID], client)
	close(client.Send)
	if len(h.Rooms[client.UserID]) == 0 {
		delete(h.Rooms, client.UserID)
		logger.Sugar.Debugf("Closed empty room: %s", client.UserID)
	}
}
