package live

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"eduforum/internal/model"
)

// Broadcaster fans room events out to connected clients. Implemented by the
// websocket hub; defined here to keep the core free of transport imports.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload interface{})
	SendToParticipant(roomID, participantID, event string, payload interface{})
	DisconnectRoom(roomID string)
}

// Archiver persists the final session record. Called exactly once, at room
// end, never during the session.
type Archiver interface {
	ArchiveRoom(archive *model.RoomArchive)
}

// Options tune the per-room timers. Zero values pick defaults; the clock and
// seed are injectable for deterministic tests.
type Options struct {
	HeartbeatTimeout time.Duration
	GraceWindow      time.Duration
	TickInterval     time.Duration
	Seed             int64
	Clock            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.HeartbeatTimeout == 0 {
		o.HeartbeatTimeout = 30 * time.Second
	}
	if o.GraceWindow == 0 {
		o.GraceWindow = 60 * time.Second
	}
	if o.TickInterval == 0 {
		o.TickInterval = time.Second
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

type inboundEvent struct {
	from string
	evt  model.ClientEvent
}

type joinRequest struct {
	userID      string
	displayName string
	reply       chan joinResult
}

type joinResult struct {
	participant model.Participant
	err         error
}

type controlKind int

const (
	ctrlStart controlKind = iota
	ctrlEnd
)

type controlRequest struct {
	kind   controlKind
	userID string
	reply  chan error
}

// Room is one live session and its serializer. All mutating operations for
// the room are applied one at a time, in arrival order, by the Run loop; no
// lock is ever shared with another room.
type Room struct {
	info model.Room
	opts Options

	bus      Broadcaster
	archiver Archiver
	rng      *rand.Rand
	now      func() time.Time
	onClose  func(roomID string)

	inbox   chan inboundEvent
	joins   chan joinRequest
	parts   chan string
	control chan controlRequest
	hb      chan string
	done    chan struct{}

	// Serializer-owned state. Never touched outside the Run loop.
	participants map[string]*model.Participant
	byUser       map[string]string
	departed     map[string]time.Time
	former       []model.Participant
	lastSeq      map[string]uint64
	arrival      uint64

	breakout *model.BreakoutSession
	queue    []*model.SpeakingQueueEntry
	board    *board
	polls    map[string]*pollState
	pollIDs  []string
	quiz     *quizState
	chat     []model.ChatMessage

	snap atomic.Pointer[model.RoomSnapshot]
}

func newRoom(info model.Room, bus Broadcaster, archiver Archiver, opts Options, onClose func(string)) *Room {
	opts = opts.withDefaults()
	r := &Room{
		info:         info,
		opts:         opts,
		bus:          bus,
		archiver:     archiver,
		rng:          rand.New(rand.NewSource(opts.Seed)),
		now:          opts.Clock,
		onClose:      onClose,
		inbox:        make(chan inboundEvent, 256),
		joins:        make(chan joinRequest),
		parts:        make(chan string, 64),
		control:      make(chan controlRequest),
		hb:           make(chan string, 256),
		done:         make(chan struct{}),
		participants: make(map[string]*model.Participant),
		byUser:       make(map[string]string),
		departed:     make(map[string]time.Time),
		lastSeq:      make(map[string]uint64),
		board:        newBoard(),
		polls:        make(map[string]*pollState),
	}
	r.publishSnapshot()
	return r
}

func (r *Room) ID() string { return r.info.ID }

// Snapshot returns the latest published room view. Lock-free; safe from any
// goroutine and never blocks the serializer.
func (r *Room) Snapshot() *model.RoomSnapshot { return r.snap.Load() }

// Join registers a user in the room, returning the participant record. It is
// idempotent: joining while already JOINED returns the existing record
// unchanged.
func (r *Room) Join(ctx context.Context, userID, displayName string) (model.Participant, error) {
	req := joinRequest{userID: userID, displayName: displayName, reply: make(chan joinResult, 1)}
	select {
	case r.joins <- req:
	case <-r.done:
		return model.Participant{}, ErrRoomClosed
	case <-ctx.Done():
		return model.Participant{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.participant, res.err
	case <-ctx.Done():
		return model.Participant{}, ctx.Err()
	}
}

// Deliver queues a client event for serialized processing. Rejections are
// reported back to the originating connection through the bus, never
// broadcast.
func (r *Room) Deliver(from string, evt model.ClientEvent) error {
	// The inbox is buffered, so the closed check must win over an enqueue
	// that nobody will ever drain.
	select {
	case <-r.done:
		return ErrRoomClosed
	default:
	}
	select {
	case r.inbox <- inboundEvent{from: from, evt: evt}:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

// Disconnect reports a closed connection. The participant is demoted to LEFT
// the same way an explicit leave would.
func (r *Room) Disconnect(participantID string) {
	select {
	case r.parts <- participantID:
	case <-r.done:
	}
}

// Heartbeat refreshes the participant's liveness. Best effort: a dropped
// heartbeat is recovered by the next one.
func (r *Room) Heartbeat(participantID string) {
	select {
	case r.hb <- participantID:
	default:
	}
}

// Start transitions the room WAITING -> ACTIVE. Host only.
func (r *Room) Start(userID string) error { return r.ctl(ctrlStart, userID) }

// End transitions the room to ENDED, archives the session and disconnects
// every participant. Host only.
func (r *Room) End(userID string) error { return r.ctl(ctrlEnd, userID) }

func (r *Room) ctl(kind controlKind, userID string) error {
	req := controlRequest{kind: kind, userID: userID, reply: make(chan error, 1)}
	select {
	case r.control <- req:
		return <-req.reply
	case <-r.done:
		return ErrRoomClosed
	}
}

// Run is the serializer loop. One goroutine per room; it owns all room state.
func (r *Room) Run() {
	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case in := <-r.inbox:
			if !r.safely(func() { r.applyEvent(in) }) {
				return
			}
		case req := <-r.joins:
			if !r.safely(func() { r.applyJoin(req) }) {
				return
			}
		case pid := <-r.parts:
			if !r.safely(func() { r.markLeft(pid) }) {
				return
			}
		case req := <-r.control:
			var err error
			if !r.safely(func() { err = r.applyControl(req) }) {
				req.reply <- ErrRoomClosed
				return
			}
			req.reply <- err
			if req.kind == ctrlEnd && err == nil {
				return
			}
		case pid := <-r.hb:
			r.touch(pid)
		case now := <-ticker.C:
			if !r.safely(func() { r.tick(now) }) {
				return
			}
		case <-r.done:
			return
		}
	}
}

// safely applies f under the room's fault barrier. A panic is an
// unrecoverable internal fault: the room broadcasts room:error and
// terminates; other rooms are unaffected. Returns false when the room died.
func (r *Room) safely(f func()) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("room %s: internal fault, terminating: %v", r.info.ID, p)
			r.bus.BroadcastToRoom(r.info.ID, model.EvtRoomError, map[string]string{
				"roomId": r.info.ID,
				"reason": "internal fault, please re-join",
			})
			r.shutdown()
			ok = false
		}
	}()
	f()
	return true
}

func (r *Room) applyJoin(req joinRequest) {
	p, err := r.join(req.userID, req.displayName)
	if err != nil {
		req.reply <- joinResult{err: err}
		return
	}
	req.reply <- joinResult{participant: *p}
	r.publishSnapshot()
}

func (r *Room) applyControl(req controlRequest) error {
	switch req.kind {
	case ctrlStart:
		return r.startRoom(req.userID)
	case ctrlEnd:
		return r.endRoom(req.userID)
	}
	return errValidation("unknown control request")
}

// applyEvent is the single serialization point for client intents. Duplicate
// deliveries (client retransmits) are detected by the per-connection sequence
// number and discarded before any state is touched.
func (r *Room) applyEvent(in inboundEvent) {
	p, ok := r.participants[in.from]
	if !ok {
		// A recently departed participant may still have messages in
		// flight; within the grace window these are dropped, not errors.
		if _, gone := r.departed[in.from]; gone {
			return
		}
		r.reject(in.from, errNotFound("unknown participant"))
		return
	}
	if in.evt.Seq > 0 {
		if in.evt.Seq <= r.lastSeq[in.from] {
			return // retransmit of an already-applied operation
		}
		r.lastSeq[in.from] = in.evt.Seq
	}
	if err := r.dispatch(p, in.evt); err != nil {
		r.reject(in.from, err)
		return
	}
	r.publishSnapshot()
}

func (r *Room) dispatch(p *model.Participant, evt model.ClientEvent) error {
	switch evt.Type {
	case model.EvtJoin:
		// Membership is established at channel open; a join over the
		// channel is an idempotent acknowledgment.
		r.touch(p.ID)
		return nil
	case model.EvtLeave:
		r.markLeft(p.ID)
		return nil
	case model.EvtHeartbeat:
		r.touch(p.ID)
		return nil
	case model.EvtMediaUpdate:
		var flags model.MediaState
		if err := decode(evt.Payload, &flags); err != nil {
			return err
		}
		return r.setMedia(p, flags)
	case model.EvtHandRaise:
		return r.setHand(p, true)
	case model.EvtHandLower:
		return r.setHand(p, false)
	case model.EvtLayoutSet:
		var pl model.LayoutPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.setLayout(p, pl.Layout)
	case model.EvtBreakoutCreate:
		var pl model.BreakoutCreatePayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.createBreakout(p, pl)
	case model.EvtBreakoutEnd:
		return r.endBreakout(p)
	case model.EvtQueueJoin:
		var pl model.QueueJoinPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.queueJoin(p, pl.Topic)
	case model.EvtQueueLeave:
		var pl model.QueueEntryPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.queueLeave(p, pl.EntryID)
	case model.EvtQueueStart:
		var pl model.QueueEntryPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.queueStart(p, pl.EntryID)
	case model.EvtQueueEnd:
		var pl model.QueueEntryPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.queueEnd(p, pl.EntryID)
	case model.EvtBoardOp:
		var pl model.BoardOpPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.boardAppend(p, pl)
	case model.EvtBoardUndo:
		return r.boardUndo(p)
	case model.EvtBoardRedo:
		return r.boardRedo(p)
	case model.EvtBoardCursor:
		var pl model.CursorPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		r.boardCursor(p, pl)
		return nil
	case model.EvtPollCreate:
		var pl model.PollCreatePayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.createPoll(p, pl)
	case model.EvtPollStart:
		var pl model.PollIDPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.startPoll(p, pl.PollID)
	case model.EvtPollRespond:
		var pl model.PollRespondPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.respondPoll(p, pl)
	case model.EvtPollEnd:
		var pl model.PollIDPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.endPoll(p, pl.PollID)
	case model.EvtQuizStart:
		var pl model.QuizStartPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.startQuiz(p, pl)
	case model.EvtQuizSubmit:
		var pl model.QuizSubmitPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.submitQuiz(p, pl)
	case model.EvtChatSend:
		var pl model.ChatSendPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		return r.chatSend(p, pl.Body)
	case model.EvtReactionSend:
		var pl model.ReactionPayload
		if err := decode(evt.Payload, &pl); err != nil {
			return err
		}
		r.reactionSend(p, pl.Emoji)
		return nil
	default:
		return errValidation("unknown event type: " + evt.Type)
	}
}

// reject reports a failed operation to the originating connection only. The
// room keeps processing subsequent events from everyone else.
func (r *Room) reject(participantID string, err error) {
	ev := model.ErrorEvent{Code: string(CodeValidation), Message: err.Error()}
	if le, ok := err.(*Error); ok {
		ev.Code = string(le.Code)
		ev.Message = le.Message
		ev.State = le.State
	}
	r.bus.SendToParticipant(r.info.ID, participantID, model.EvtError, ev)
}

// tick drives every server-side timer: presence sweep, quiz countdown,
// breakout deadline, grace-window purge.
func (r *Room) tick(now time.Time) {
	r.sweepPresence(now)
	r.tickQuiz()
	if r.breakout != nil && r.breakout.EndsAt != nil && !now.Before(*r.breakout.EndsAt) {
		r.closeBreakout()
	}
	for pid, left := range r.departed {
		if now.Sub(left) > r.opts.GraceWindow {
			delete(r.departed, pid)
			delete(r.lastSeq, pid)
		}
	}
	r.publishSnapshot()
}

func (r *Room) startRoom(userID string) error {
	if userID != r.info.HostID {
		return errValidation("only the host may start the room")
	}
	if r.info.Status != model.RoomWaiting {
		return errConflict("room is not waiting", r.info.Status)
	}
	now := r.now()
	r.info.Status = model.RoomActive
	r.info.StartedAt = &now
	for _, p := range r.participants {
		if p.Status == model.ParticipantWaiting {
			p.Status = model.ParticipantJoined
		}
	}
	r.bus.BroadcastToRoom(r.info.ID, model.EvtRoomStarted, r.info)
	r.publishSnapshot()
	return nil
}

func (r *Room) endRoom(userID string) error {
	if userID != "" && userID != r.info.HostID {
		return errValidation("only the host may end the room")
	}
	if r.info.Status == model.RoomEnded {
		return errConflict("room already ended", r.info.Status)
	}
	now := r.now()
	r.info.Status = model.RoomEnded
	r.info.EndedAt = &now
	for _, ps := range r.polls {
		if ps.poll.Status == model.ActivityActive {
			ps.poll.Status = model.ActivityEnded
		}
	}
	if r.quiz != nil && r.quiz.session.Status == model.ActivityActive {
		r.finishQuiz()
	}
	r.bus.BroadcastToRoom(r.info.ID, model.EvtRoomEnded, r.info)
	if r.archiver != nil {
		r.archiver.ArchiveRoom(r.buildArchive(now))
	}
	r.publishSnapshot()
	r.shutdown()
	return nil
}

func (r *Room) shutdown() {
	select {
	case <-r.done:
		return
	default:
	}
	close(r.done)
	r.bus.DisconnectRoom(r.info.ID)
	if r.onClose != nil {
		r.onClose(r.info.ID)
	}
}

func (r *Room) buildArchive(now time.Time) *model.RoomArchive {
	arch := &model.RoomArchive{
		Room:       r.info,
		BoardOps:   r.board.ops(),
		Chat:       r.chat,
		ArchivedAt: now,
	}
	for _, p := range r.participants {
		arch.Participants = append(arch.Participants, *p)
	}
	arch.Participants = append(arch.Participants, r.former...)
	for _, id := range r.pollIDs {
		ps := r.polls[id]
		arch.Polls = append(arch.Polls, model.PollArchive{
			Poll:      ps.poll,
			Results:   ps.results(),
			Responses: ps.responseList(),
		})
	}
	if r.quiz != nil {
		arch.Quizzes = append(arch.Quizzes, model.QuizArchive{
			Quiz:        r.quiz.session,
			Submissions: r.quiz.submissionList(),
		})
	}
	return arch
}

func (r *Room) publishSnapshot() {
	snap := &model.RoomSnapshot{
		Room:     r.info,
		Queue:    r.queueView(),
		BoardSeq: r.board.lastSeq(),
		TakenAt:  r.now(),
	}
	for _, p := range r.participants {
		snap.Participants = append(snap.Participants, *p)
	}
	if r.breakout != nil && r.breakout.Status == model.BreakoutActive {
		b := *r.breakout
		snap.Breakout = &b
	}
	for _, id := range r.pollIDs {
		snap.Polls = append(snap.Polls, r.polls[id].results())
	}
	if r.quiz != nil {
		v := r.quiz.view()
		snap.Quiz = &v
	}
	r.snap.Store(snap)
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errValidation("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errValidation("malformed payload: " + err.Error())
	}
	return nil
}
