package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Message is the WebSocket envelope format for outbound events.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub is the broadcast bus: a fan-out registry of room -> subscriber
// connections. It is the only structure shared across rooms and needs no
// cross-room coordination; subscriptions are append/remove-only.
type Hub struct {
	// roomID -> participantID -> conn
	conns map[string]map[string]*Connection

	mu sync.RWMutex

	register   chan *Connection
	unregister chan unregisterRequest
	broadcast  chan *BroadcastMessage
}

// Connection represents one subscribed WebSocket connection.
type Connection struct {
	RoomID        string
	ParticipantID string
	Send          chan []byte
	Hub           *Hub
}

type unregisterRequest struct {
	conn    *Connection
	removed chan bool
}

// BroadcastMessage is a message to fan out. Empty To means every participant
// of the room. closeRoom markers travel on the same channel as broadcasts so
// a room teardown can never overtake its own final events.
type BroadcastMessage struct {
	RoomID    string
	To        string
	Message   *Message
	closeRoom bool
}

// NewHub creates the hub and starts its coordination loop.
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan unregisterRequest),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.RoomID] == nil {
				h.conns[conn.RoomID] = make(map[string]*Connection)
			}
			if prev, ok := h.conns[conn.RoomID][conn.ParticipantID]; ok && prev != conn {
				close(prev.Send)
			}
			h.conns[conn.RoomID][conn.ParticipantID] = conn
			h.mu.Unlock()
			log.Printf("participant %s subscribed to room %s", conn.ParticipantID, conn.RoomID)

		case req := <-h.unregister:
			conn := req.conn
			removed := false
			h.mu.Lock()
			if room, ok := h.conns[conn.RoomID]; ok {
				if existing, ok := room[conn.ParticipantID]; ok && existing == conn {
					delete(room, conn.ParticipantID)
					close(conn.Send)
					if len(room) == 0 {
						delete(h.conns, conn.RoomID)
					}
					removed = true
					log.Printf("participant %s unsubscribed from room %s", conn.ParticipantID, conn.RoomID)
				}
			}
			h.mu.Unlock()
			req.removed <- removed

		case msg := <-h.broadcast:
			if msg.closeRoom {
				h.mu.Lock()
				if room, ok := h.conns[msg.RoomID]; ok {
					for _, conn := range room {
						close(conn.Send)
					}
					delete(h.conns, msg.RoomID)
				}
				h.mu.Unlock()
				continue
			}
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			if room, ok := h.conns[msg.RoomID]; ok {
				if msg.To != "" {
					if conn, ok := room[msg.To]; ok {
						conn.trySend(data)
					}
				} else {
					for _, conn := range room {
						conn.trySend(data)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// trySend drops the message when the subscriber's buffer is full. A slow
// client loses deltas rather than stalling the room.
func (c *Connection) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
	}
}

// Register adds a connection.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection. It reports whether this connection was
// still the registered one for its participant: a connection superseded by a
// reconnect is already gone, and its teardown must not touch the roster.
func (h *Hub) Unregister(conn *Connection) bool {
	req := unregisterRequest{conn: conn, removed: make(chan bool, 1)}
	h.unregister <- req
	return <-req.removed
}

// BroadcastToRoom sends an event to every participant of a room (implements
// live.Broadcaster).
func (h *Hub) BroadcastToRoom(roomID, event string, payload interface{}) {
	h.enqueue(roomID, "", event, payload)
}

// SendToParticipant sends an event to a single participant (implements
// live.Broadcaster).
func (h *Hub) SendToParticipant(roomID, participantID, event string, payload interface{}) {
	h.enqueue(roomID, participantID, event, payload)
}

// DisconnectRoom closes every subscription of a room (implements
// live.Broadcaster). The close marker rides the broadcast channel, so any
// event enqueued before it, the final room:ended included, is delivered
// before the subscriptions drop.
func (h *Hub) DisconnectRoom(roomID string) {
	h.broadcast <- &BroadcastMessage{RoomID: roomID, closeRoom: true}
}

func (h *Hub) enqueue(roomID, to, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("hub: dropping %s for room %s: %v", event, roomID, err)
		return
	}
	h.broadcast <- &BroadcastMessage{
		RoomID: roomID,
		To:     to,
		Message: &Message{
			Type:    event,
			Payload: data,
		},
	}
}
