package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduforum/internal/model"
)

func TestCreateRoomDefaults(t *testing.T) {
	reg := NewRegistry(&fakeBus{}, nil, Options{Seed: 1})
	defer reg.Close()

	room, err := reg.CreateRoom("user_host", "Untitled", 0, "")
	require.NoError(t, err)

	snap := room.Snapshot()
	assert.Equal(t, 100, snap.Room.Capacity)
	assert.Equal(t, model.LayoutGallery, snap.Room.Layout)
	assert.Equal(t, model.RoomWaiting, snap.Room.Status)

	_, err = reg.CreateRoom("", "no host", 0, "")
	assert.True(t, IsCode(err, CodeValidation))
}

func TestCreateRoomUsesConfiguredClock(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)}
	reg := NewRegistry(&fakeBus{}, nil, Options{Seed: 1, Clock: clock.now})
	defer reg.Close()

	room, err := reg.CreateRoom("user_host", "Clocked", 0, "")
	require.NoError(t, err)
	assert.Equal(t, clock.t, room.Snapshot().Room.CreatedAt)
}

// Drives a whole session through the public serialized API: a host and two
// students queueing, speaking and ending the room.
func TestRoomLifecycleThroughSerializer(t *testing.T) {
	bus := &fakeBus{}
	arch := &fakeArchiver{}
	reg := NewRegistry(bus, arch, Options{Seed: 1})

	room, err := reg.CreateRoom("user_host", "Lab session", 10, model.LayoutGrid)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	host, err := room.Join(ctx, "user_host", "Host")
	require.NoError(t, err)
	require.NoError(t, room.Start("user_host"))

	alice, err := room.Join(ctx, "user_a", "Alice")
	require.NoError(t, err)
	bob, err := room.Join(ctx, "user_b", "Bob")
	require.NoError(t, err)

	deliver := func(from string, typ string, payload string) {
		t.Helper()
		require.NoError(t, room.Deliver(from, model.ClientEvent{
			Type:    typ,
			Payload: []byte(payload),
		}))
	}

	deliver(alice.ID, model.EvtQueueJoin, `{"topic":"question about recursion"}`)
	deliver(bob.ID, model.EvtQueueJoin, `{}`)

	// The serializer applies events in arrival order; once the snapshot shows
	// both entries the queue is settled.
	require.Eventually(t, func() bool {
		return len(room.Snapshot().Queue) == 2
	}, 2*time.Second, 10*time.Millisecond)

	snap := room.Snapshot()
	assert.Equal(t, alice.ID, snap.Queue[0].ParticipantID)
	assert.Equal(t, 1, snap.Queue[0].Position)
	assert.Equal(t, bob.ID, snap.Queue[1].ParticipantID)

	entryID := snap.Queue[0].ID
	deliver(host.ID, model.EvtQueueStart, `{"entryId":"`+entryID+`"}`)

	require.Eventually(t, func() bool {
		q := room.Snapshot().Queue
		return len(q) == 2 && q[0].Status == model.SpeakingActive
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, room.Snapshot().Queue[0].Position)

	require.NoError(t, room.End("user_host"))

	// The registry forgets the room and the session was archived.
	_, ok := reg.Get(room.ID())
	assert.False(t, ok)
	require.Len(t, arch.archives, 1)
	assert.Len(t, arch.archives[0].Participants, 3)
	assert.ErrorIs(t, room.Start("user_host"), ErrRoomClosed)
}

func TestRegistryCloseEndsEveryRoom(t *testing.T) {
	reg := NewRegistry(&fakeBus{}, nil, Options{Seed: 1})

	a, err := reg.CreateRoom("user_host", "one", 0, "")
	require.NoError(t, err)
	b, err := reg.CreateRoom("user_host", "two", 0, "")
	require.NoError(t, err)

	reg.Close()

	_, ok := reg.Get(a.ID())
	assert.False(t, ok)
	_, ok = reg.Get(b.ID())
	assert.False(t, ok)
}
