package live

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduforum/internal/model"
)

func TestJoinIsIdempotentForPresentUser(t *testing.T) {
	r, bus, _ := newTestRoom(t)

	p1, err := r.join("user_a", "Alice")
	require.NoError(t, err)
	p2, err := r.join("user_a", "Alice")
	require.NoError(t, err)

	assert.Equal(t, p1.ID, p2.ID)
	assert.Len(t, r.participants, 1)
	assert.Equal(t, 1, bus.count(model.EvtParticipantJoined))
}

func TestJoinRejectsWhenRoomFull(t *testing.T) {
	r, _, _ := newTestRoom(t)
	r.info.Capacity = 2

	_, err := r.join("user_a", "Alice")
	require.NoError(t, err)
	_, err = r.join("user_b", "Bob")
	require.NoError(t, err)

	_, err = r.join("user_c", "Carol")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeRoomFull))

	var le *Error
	require.ErrorAs(t, err, &le)
	state, ok := le.State.(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 2, state["capacity"])
	assert.Equal(t, 2, state["size"])
}

func TestNonHostWaitsUntilRoomStarts(t *testing.T) {
	r, bus, _ := newTestRoom(t)

	host, err := r.join(testHostUser, "Host")
	require.NoError(t, err)
	student, err := r.join("user_a", "Alice")
	require.NoError(t, err)

	assert.Equal(t, model.ParticipantJoined, host.Status)
	assert.Equal(t, model.RoleHost, host.Role)
	assert.Equal(t, model.ParticipantWaiting, student.Status)

	require.NoError(t, r.startRoom(testHostUser))
	assert.Equal(t, model.RoomActive, r.info.Status)
	assert.Equal(t, model.ParticipantJoined, student.Status)
	assert.Equal(t, 1, bus.count(model.EvtRoomStarted))
}

func TestStartIsHostOnly(t *testing.T) {
	r, _, _ := newTestRoom(t)
	_, err := r.join("user_a", "Alice")
	require.NoError(t, err)

	err = r.startRoom("user_a")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeValidation))
	assert.Equal(t, model.RoomWaiting, r.info.Status)
}

func TestStartTwiceConflicts(t *testing.T) {
	r, _, _ := newTestRoom(t)
	require.NoError(t, r.startRoom(testHostUser))

	err := r.startRoom(testHostUser)
	assert.True(t, IsCode(err, CodeStateConflict))
}

func TestEndArchivesAndDisconnects(t *testing.T) {
	r, bus, clock := newTestRoom(t)
	arch := &fakeArchiver{}
	r.archiver = arch

	_, err := r.join(testHostUser, "Host")
	require.NoError(t, err)
	require.NoError(t, r.startRoom(testHostUser))
	alice, err := r.join("user_a", "Alice")
	require.NoError(t, err)

	// Alice left mid-session; she must still appear in the archive.
	clock.advance(5 * time.Minute)
	r.markLeft(alice.ID)

	require.NoError(t, r.endRoom(testHostUser))

	assert.Equal(t, model.RoomEnded, r.info.Status)
	require.NotNil(t, r.info.EndedAt)
	assert.Equal(t, 1, bus.count(model.EvtRoomEnded))
	assert.Equal(t, []string{"room-1"}, bus.disconnected)

	require.Len(t, arch.archives, 1)
	assert.Len(t, arch.archives[0].Participants, 2)

	// The closed room refuses further joins and deliveries.
	_, err = r.join("user_b", "Bob")
	assert.True(t, IsCode(err, CodeStateConflict))
	assert.ErrorIs(t, r.Deliver("x", model.ClientEvent{Type: model.EvtHeartbeat}), ErrRoomClosed)
}

func TestEndIsHostOnly(t *testing.T) {
	r, _, _ := newTestRoom(t)
	err := r.endRoom("user_a")
	assert.True(t, IsCode(err, CodeValidation))
	assert.Equal(t, model.RoomWaiting, r.info.Status)
}

func TestDuplicateSeqIsDiscarded(t *testing.T) {
	r, bus, _, ps := newActiveRoom(t, 1)
	student := ps[1]

	payload, _ := json.Marshal(model.ChatSendPayload{Body: "hello"})
	evt := model.ClientEvent{Type: model.EvtChatSend, Seq: 7, Payload: payload}

	r.applyEvent(inboundEvent{from: student.ID, evt: evt})
	r.applyEvent(inboundEvent{from: student.ID, evt: evt}) // client retransmit

	assert.Equal(t, 1, bus.count(model.EvtChatMessage))
	assert.Len(t, r.chat, 1)
}

func TestJoinEventIsIdempotentAck(t *testing.T) {
	r, bus, clock, ps := newActiveRoom(t, 1)
	student := ps[1]

	clock.advance(10 * time.Second)
	before := len(bus.events)
	r.applyEvent(inboundEvent{from: student.ID, evt: model.ClientEvent{Type: model.EvtJoin}})

	// No rejection, no duplicate participant:joined; liveness refreshed.
	assert.NotContains(t, eventTypesSince(bus, before), model.EvtError)
	assert.NotContains(t, eventTypesSince(bus, before), model.EvtParticipantJoined)
	assert.Equal(t, clock.t, student.LastSeenAt)
}

func eventTypesSince(bus *fakeBus, from int) []string {
	types := make([]string, 0, len(bus.events)-from)
	for _, e := range bus.events[from:] {
		types = append(types, e.event)
	}
	return types
}

func TestStaleSeqIsDiscarded(t *testing.T) {
	r, bus, _, ps := newActiveRoom(t, 1)
	student := ps[1]

	payload, _ := json.Marshal(model.ChatSendPayload{Body: "hello"})
	r.applyEvent(inboundEvent{from: student.ID, evt: model.ClientEvent{Type: model.EvtChatSend, Seq: 7, Payload: payload}})
	r.applyEvent(inboundEvent{from: student.ID, evt: model.ClientEvent{Type: model.EvtChatSend, Seq: 3, Payload: payload}})

	assert.Equal(t, 1, bus.count(model.EvtChatMessage))
}

func TestDepartedParticipantEventsDroppedInGraceWindow(t *testing.T) {
	r, bus, clock, ps := newActiveRoom(t, 1)
	student := ps[1]

	r.markLeft(student.ID)
	before := len(bus.events)

	payload, _ := json.Marshal(model.ChatSendPayload{Body: "late"})
	r.applyEvent(inboundEvent{from: student.ID, evt: model.ClientEvent{Type: model.EvtChatSend, Payload: payload}})

	// Dropped silently: no chat, no error back.
	assert.Len(t, bus.events, before)

	// Past the grace window the id is forgotten and gets a real rejection.
	clock.advance(2 * time.Minute)
	r.tick(clock.now())
	r.applyEvent(inboundEvent{from: student.ID, evt: model.ClientEvent{Type: model.EvtChatSend, Payload: payload}})

	ev, ok := bus.last(model.EvtError)
	require.True(t, ok)
	assert.Equal(t, student.ID, ev.to)
}

func TestRejectionGoesToOriginatorOnly(t *testing.T) {
	r, bus, _, _ := newActiveRoom(t, 0)

	r.applyEvent(inboundEvent{from: "nobody", evt: model.ClientEvent{Type: model.EvtHandRaise}})

	ev, ok := bus.last(model.EvtError)
	require.True(t, ok)
	assert.Equal(t, "nobody", ev.to)
	errEv, ok := ev.payload.(model.ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, string(CodeNotFound), errEv.Code)
}

func TestHeartbeatTimeoutSweepsParticipant(t *testing.T) {
	r, bus, clock, ps := newActiveRoom(t, 1)
	student := ps[1]

	clock.advance(20 * time.Second)
	r.touch(student.ID)

	// The host went silent; the student kept pinging.
	clock.advance(25 * time.Second)
	r.sweepPresence(clock.now())

	assert.NotContains(t, r.participants, ps[0].ID)
	assert.Contains(t, r.participants, student.ID)
	assert.Equal(t, 1, bus.count(model.EvtParticipantLeft))
}

func TestRejoinAfterLeaveGetsFreshParticipant(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)
	student := ps[1]

	r.markLeft(student.ID)
	again, err := r.join(student.UserID, student.DisplayName)
	require.NoError(t, err)

	assert.NotEqual(t, student.ID, again.ID)
	assert.Equal(t, model.ParticipantJoined, again.Status)
}

func TestMediaUpdatePreservesHandState(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)
	student := ps[1]

	require.NoError(t, r.setHand(student, true))
	require.NoError(t, r.setMedia(student, model.MediaState{Muted: true, HandRaised: false}))

	assert.True(t, student.Media.Muted)
	assert.True(t, student.Media.HandRaised, "media:update must not lower a raised hand")
}

func TestLayoutIsHostOnly(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)

	err := r.setLayout(ps[1], model.LayoutSpeaker)
	assert.True(t, IsCode(err, CodeValidation))

	require.NoError(t, r.setLayout(ps[0], model.LayoutSpeaker))
	assert.Equal(t, model.LayoutSpeaker, r.info.Layout)

	err = r.setLayout(ps[0], model.LayoutType("CINEMA"))
	assert.True(t, IsCode(err, CodeValidation))
}

func TestSnapshotIsPublishedAndStable(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 2)
	r.publishSnapshot()

	snap := r.Snapshot()
	require.NotNil(t, snap)
	assert.Len(t, snap.Participants, 3)
	assert.Equal(t, model.RoomActive, snap.Room.Status)

	// Later mutations publish a new snapshot; the old pointer is unchanged.
	r.markLeft(ps[2].ID)
	assert.Len(t, snap.Participants, 3)
	assert.Len(t, r.Snapshot().Participants, 2)
}

func TestChatIsOrderedAndArchived(t *testing.T) {
	r, bus, _, ps := newActiveRoom(t, 1)
	arch := &fakeArchiver{}
	r.archiver = arch

	require.NoError(t, r.chatSend(ps[0], "welcome"))
	require.NoError(t, r.chatSend(ps[1], "hi"))
	r.reactionSend(ps[1], "👍")

	assert.Equal(t, 2, bus.count(model.EvtChatMessage))
	assert.Equal(t, 1, bus.count(model.EvtReactionSent))
	require.Len(t, r.chat, 2)
	assert.Equal(t, "welcome", r.chat[0].Body)

	require.NoError(t, r.endRoom(testHostUser))
	require.Len(t, arch.archives, 1)
	// Reactions are ephemeral; only chat survives into the archive.
	assert.Len(t, arch.archives[0].Chat, 2)
}
