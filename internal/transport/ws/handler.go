package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"eduforum/internal/live"
	"eduforum/internal/model"
	"eduforum/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16384
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// ScoreProvider supplies external engagement scores for BALANCED breakout
// assignment.
type ScoreProvider interface {
	Scores(ctx context.Context, userIDs []string) (map[string]float64, error)
}

// Handler upgrades connections and bridges them to the room serializers.
type Handler struct {
	hub      *Hub
	authSvc  *service.AuthService
	registry *live.Registry
	scores   ScoreProvider
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, authSvc *service.AuthService, registry *live.Registry, scores ScoreProvider) *Handler {
	return &Handler{
		hub:      hub,
		authSvc:  authSvc,
		registry: registry,
		scores:   scores,
	}
}

// RoomWS handles GET /v1/ws/rooms/{roomId}. The auth module verifies the
// token and supplies the (userId, displayName) pair at channel-open time.
func (h *Handler) RoomWS(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	room, ok := h.registry.Get(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	participant, err := room.Join(r.Context(), claims.UserID, claims.DisplayName)
	if err != nil {
		status := http.StatusConflict
		if live.IsCode(err, live.CodeRoomFull) {
			status = http.StatusForbidden
		}
		http.Error(w, err.Error(), status)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		RoomID:        roomID,
		ParticipantID: participant.ID,
		Send:          make(chan []byte, 256),
		Hub:           h.hub,
	}

	h.hub.Register(conn)
	log.Printf("user %s connected to room %s as participant %s", claims.UserID, roomID, participant.ID)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn, room)
}

// readPump decodes inbound envelopes and hands them to the room serializer.
// It is strictly FIFO per connection, so a client's own operations are never
// reordered relative to each other.
func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection, room *live.Room) {
	defer func() {
		// A reconnect supersedes this connection in the hub; only a
		// teardown of the live subscription demotes the participant.
		if h.hub.Unregister(conn) {
			room.Disconnect(conn.ParticipantID)
		}
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		room.Heartbeat(conn.ParticipantID)
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var evt model.ClientEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			// Malformed frames are rejected back to this connection
			// only; the connection itself stays open.
			h.hub.SendToParticipant(conn.RoomID, conn.ParticipantID, model.EvtError, model.ErrorEvent{
				Code:    string(live.CodeValidation),
				Message: "malformed event envelope",
			})
			continue
		}

		room.Heartbeat(conn.ParticipantID)

		if evt.Type == model.EvtBreakoutCreate {
			evt = h.injectScores(conn, evt)
		}
		if err := room.Deliver(conn.ParticipantID, evt); err != nil {
			break // room closed
		}
	}
}

// injectScores replaces any client-supplied engagement scores with the
// external provider's values before the event reaches the serializer.
func (h *Handler) injectScores(conn *Connection, evt model.ClientEvent) model.ClientEvent {
	var pl model.BreakoutCreatePayload
	if err := json.Unmarshal(evt.Payload, &pl); err != nil {
		return evt // serializer reports the validation error
	}
	pl.Scores = nil
	if pl.Method == model.AssignBalanced && h.scores != nil {
		if snap, ok := h.registry.Snapshot(conn.RoomID); ok {
			userIDs := make([]string, 0, len(snap.Participants))
			for _, p := range snap.Participants {
				userIDs = append(userIDs, p.UserID)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			scores, err := h.scores.Scores(ctx, userIDs)
			cancel()
			if err != nil {
				log.Printf("room %s: engagement scores unavailable: %v", conn.RoomID, err)
			} else {
				pl.Scores = scores
			}
		}
	}
	data, err := json.Marshal(pl)
	if err != nil {
		return evt
	}
	evt.Payload = data
	return evt
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
