package live

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eduforum/internal/model"
)

// Shared fixtures for the live package tests. Rooms are driven by calling the
// serializer-owned methods directly on a single goroutine, with an injected
// clock and seed, so every test is deterministic.

type busEvent struct {
	roomID  string
	to      string // empty for broadcasts
	event   string
	payload interface{}
}

type fakeBus struct {
	events       []busEvent
	disconnected []string
}

func (b *fakeBus) BroadcastToRoom(roomID, event string, payload interface{}) {
	b.events = append(b.events, busEvent{roomID: roomID, event: event, payload: payload})
}

func (b *fakeBus) SendToParticipant(roomID, participantID, event string, payload interface{}) {
	b.events = append(b.events, busEvent{roomID: roomID, to: participantID, event: event, payload: payload})
}

func (b *fakeBus) DisconnectRoom(roomID string) {
	b.disconnected = append(b.disconnected, roomID)
}

func (b *fakeBus) count(event string) int {
	n := 0
	for _, e := range b.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (b *fakeBus) last(event string) (busEvent, bool) {
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].event == event {
			return b.events[i], true
		}
	}
	return busEvent{}, false
}

type fakeArchiver struct {
	archives []*model.RoomArchive
}

func (a *fakeArchiver) ArchiveRoom(archive *model.RoomArchive) {
	a.archives = append(a.archives, archive)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

const testHostUser = "user_host"

func newTestRoom(t *testing.T) (*Room, *fakeBus, *fakeClock) {
	t.Helper()
	bus := &fakeBus{}
	clock := &fakeClock{t: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	info := model.Room{
		ID:        "room-1",
		HostID:    testHostUser,
		Title:     "Algebra seminar",
		Status:    model.RoomWaiting,
		Capacity:  100,
		Layout:    model.LayoutGallery,
		CreatedAt: clock.t,
	}
	return newRoom(info, bus, nil, Options{Seed: 1, Clock: clock.now}, nil), bus, clock
}

// newActiveRoom returns a started room with the host plus n other joined
// participants. Index 0 of the returned slice is always the host.
func newActiveRoom(t *testing.T, n int) (*Room, *fakeBus, *fakeClock, []*model.Participant) {
	t.Helper()
	r, bus, clock := newTestRoom(t)
	host, err := r.join(testHostUser, "Host")
	require.NoError(t, err)
	require.NoError(t, r.startRoom(testHostUser))

	participants := []*model.Participant{host}
	for i := 0; i < n; i++ {
		p, err := r.join(fmt.Sprintf("user_%02d", i), fmt.Sprintf("Student %d", i))
		require.NoError(t, err)
		participants = append(participants, p)
	}
	return r, bus, clock, participants
}
