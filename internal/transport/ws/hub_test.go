package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvMessage(t *testing.T, ch chan []byte) Message {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func expectClosed(t *testing.T, ch chan []byte) {
	t.Helper()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "expected closed send channel")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func subscribe(h *Hub, roomID, participantID string, buffer int) *Connection {
	conn := &Connection{
		RoomID:        roomID,
		ParticipantID: participantID,
		Send:          make(chan []byte, buffer),
		Hub:           h,
	}
	h.Register(conn)
	return conn
}

func TestBroadcastReachesEveryRoomSubscriber(t *testing.T) {
	h := NewHub()
	a := subscribe(h, "room-1", "p1", 4)
	b := subscribe(h, "room-1", "p2", 4)
	other := subscribe(h, "room-2", "p3", 4)

	h.BroadcastToRoom("room-1", "queue:updated", map[string]string{"hello": "world"})

	for _, conn := range []*Connection{a, b} {
		msg := recvMessage(t, conn.Send)
		assert.Equal(t, "queue:updated", msg.Type)
	}
	select {
	case <-other.Send:
		t.Fatal("message leaked into another room")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendToParticipantIsTargeted(t *testing.T) {
	h := NewHub()
	a := subscribe(h, "room-1", "p1", 4)
	b := subscribe(h, "room-1", "p2", 4)

	h.SendToParticipant("room-1", "p1", "error", map[string]string{"code": "VALIDATION"})

	msg := recvMessage(t, a.Send)
	assert.Equal(t, "error", msg.Type)
	select {
	case <-b.Send:
		t.Fatal("targeted message reached another participant")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	slow := subscribe(h, "room-1", "p1", 1)
	fence := subscribe(h, "room-1", "p2", 8)

	h.BroadcastToRoom("room-1", "a", nil)
	h.BroadcastToRoom("room-1", "b", nil)
	h.BroadcastToRoom("room-1", "c", nil)

	// Broadcasts fan out in order; once the fence saw "c" all three passed
	// the slow subscriber too.
	for _, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, recvMessage(t, fence.Send).Type)
	}

	// The slow buffer held one message; the rest were dropped, not queued.
	msg := recvMessage(t, slow.Send)
	assert.Equal(t, "a", msg.Type)
	assert.Empty(t, slow.Send)
}

func TestReconnectSupersedesOldConnection(t *testing.T) {
	h := NewHub()
	old := subscribe(h, "room-1", "p1", 4)
	fresh := subscribe(h, "room-1", "p1", 4)

	expectClosed(t, old.Send)

	h.BroadcastToRoom("room-1", "ping", nil)
	msg := recvMessage(t, fresh.Send)
	assert.Equal(t, "ping", msg.Type)
}

func TestUnregisterIgnoresSupersededConnection(t *testing.T) {
	h := NewHub()
	old := subscribe(h, "room-1", "p1", 4)
	fresh := subscribe(h, "room-1", "p1", 4)
	expectClosed(t, old.Send)

	// The read pump of the old connection unregisters after being replaced;
	// it must learn it no longer owns the subscription, and the fresh one
	// must survive.
	assert.False(t, h.Unregister(old))

	h.BroadcastToRoom("room-1", "ping", nil)
	msg := recvMessage(t, fresh.Send)
	assert.Equal(t, "ping", msg.Type)

	assert.True(t, h.Unregister(fresh))
	expectClosed(t, fresh.Send)
}

func TestFinalBroadcastOutrunsDisconnect(t *testing.T) {
	h := NewHub()
	conn := subscribe(h, "room-1", "p1", 8)

	// room:ended is enqueued immediately before the teardown; it must be
	// delivered, every time, before the subscription closes.
	for i := 0; i < 200; i++ {
		h.BroadcastToRoom("room-1", "room:ended", nil)
		h.DisconnectRoom("room-1")

		msg := recvMessage(t, conn.Send)
		assert.Equal(t, "room:ended", msg.Type)
		expectClosed(t, conn.Send)

		conn = subscribe(h, "room-1", "p1", 8)
	}
}

func TestDisconnectRoomClosesAllSubscriptions(t *testing.T) {
	h := NewHub()
	a := subscribe(h, "room-1", "p1", 4)
	b := subscribe(h, "room-1", "p2", 4)
	other := subscribe(h, "room-2", "p3", 4)

	// Registration is async; make sure both landed first.
	h.BroadcastToRoom("room-1", "sync", nil)
	recvMessage(t, a.Send)
	recvMessage(t, b.Send)

	h.DisconnectRoom("room-1")

	expectClosed(t, a.Send)
	expectClosed(t, b.Send)

	h.BroadcastToRoom("room-2", "still-alive", nil)
	msg := recvMessage(t, other.Send)
	assert.Equal(t, "still-alive", msg.Type)
}
