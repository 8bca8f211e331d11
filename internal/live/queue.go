package live

import (
	"sort"

	"github.com/google/uuid"

	"eduforum/internal/model"
)

// queueJoin appends a WAITING entry for the participant. One entry per
// participant at a time.
func (r *Room) queueJoin(p *model.Participant, topic string) error {
	if err := requireJoined(p); err != nil {
		return err
	}
	for _, e := range r.queue {
		if e.ParticipantID == p.ID {
			return errAlreadyQueued("already in the speaking queue", r.queueView())
		}
	}
	r.arrival++
	entry := &model.SpeakingQueueEntry{
		ID:            uuid.New().String(),
		RoomID:        r.info.ID,
		ParticipantID: p.ID,
		Topic:         topic,
		Status:        model.SpeakingWaiting,
		RequestedAt:   r.now(),
		Arrival:       r.arrival,
	}
	r.queue = append(r.queue, entry)
	r.broadcastQueue()
	return nil
}

// queueLeave withdraws a WAITING entry, or ends the turn when the entry is
// already SPEAKING, promoting the next waiter.
func (r *Room) queueLeave(p *model.Participant, entryID string) error {
	entry, idx := r.findQueueEntry(entryID)
	if entry == nil {
		return errNotFound("queue entry not found")
	}
	if entry.ParticipantID != p.ID && !p.CanModerate() {
		return errValidation("cannot remove another participant's entry")
	}
	if entry.Status == model.SpeakingActive {
		r.finishSpeaker(entry)
		r.promoteNext()
	} else {
		r.queue = append(r.queue[:idx], r.queue[idx+1:]...)
	}
	r.broadcastQueue()
	return nil
}

// queueStart grants the floor. Host only, and only while nobody else holds it.
func (r *Room) queueStart(p *model.Participant, entryID string) error {
	if !p.CanModerate() {
		return errValidation("granting the floor is host-only")
	}
	entry, _ := r.findQueueEntry(entryID)
	if entry == nil {
		return errNotFound("queue entry not found")
	}
	if entry.Status != model.SpeakingWaiting {
		return errConflict("entry is not waiting", r.queueView())
	}
	if cur := r.currentSpeaker(); cur != nil {
		return errSpeakerBusy("another participant is speaking", r.queueView())
	}
	r.grantSpeaker(entry)
	r.broadcastQueue()
	return nil
}

// queueEnd finishes the current turn and promotes the earliest waiter.
func (r *Room) queueEnd(p *model.Participant, entryID string) error {
	entry, _ := r.findQueueEntry(entryID)
	if entry == nil {
		return errNotFound("queue entry not found")
	}
	if entry.Status != model.SpeakingActive {
		return errConflict("entry is not speaking", r.queueView())
	}
	if entry.ParticipantID != p.ID && !p.CanModerate() {
		return errValidation("cannot end another participant's turn")
	}
	r.finishSpeaker(entry)
	r.promoteNext()
	r.broadcastQueue()
	return nil
}

// queueDrop removes a departing participant's entry, promoting the next
// waiter if that participant held the floor.
func (r *Room) queueDrop(participantID string) {
	for i, e := range r.queue {
		if e.ParticipantID != participantID {
			continue
		}
		wasSpeaking := e.Status == model.SpeakingActive
		r.queue = append(r.queue[:i], r.queue[i+1:]...)
		if wasSpeaking {
			r.promoteNext()
		}
		r.broadcastQueue()
		return
	}
}

func (r *Room) grantSpeaker(entry *model.SpeakingQueueEntry) {
	now := r.now()
	entry.Status = model.SpeakingActive
	entry.GrantedAt = &now
}

func (r *Room) finishSpeaker(entry *model.SpeakingQueueEntry) {
	now := r.now()
	entry.Status = model.SpeakingEnded
	entry.FinishedAt = &now
	if entry.GrantedAt != nil {
		entry.DurationSeconds = int(now.Sub(*entry.GrantedAt).Seconds())
	}
	for i, e := range r.queue {
		if e.ID == entry.ID {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			break
		}
	}
}

// promoteNext grants the floor to the WAITING entry with the earliest
// requested-at, ties broken by arrival sequence.
func (r *Room) promoteNext() {
	var next *model.SpeakingQueueEntry
	for _, e := range r.queue {
		if e.Status != model.SpeakingWaiting {
			continue
		}
		if next == nil || earlier(e, next) {
			next = e
		}
	}
	if next != nil {
		r.grantSpeaker(next)
	}
}

func (r *Room) currentSpeaker() *model.SpeakingQueueEntry {
	for _, e := range r.queue {
		if e.Status == model.SpeakingActive {
			return e
		}
	}
	return nil
}

func (r *Room) findQueueEntry(entryID string) (*model.SpeakingQueueEntry, int) {
	for i, e := range r.queue {
		if e.ID == entryID {
			return e, i
		}
	}
	return nil, -1
}

// queueView recomputes every position from the current ordering. Positions
// are never cached, so the view self-heals after out-of-order removals.
func (r *Room) queueView() []model.QueueEntryView {
	ordered := make([]*model.SpeakingQueueEntry, len(r.queue))
	copy(ordered, r.queue)
	sort.SliceStable(ordered, func(i, j int) bool { return earlier(ordered[i], ordered[j]) })

	view := make([]model.QueueEntryView, 0, len(ordered))
	if cur := r.currentSpeaker(); cur != nil {
		view = append(view, model.QueueEntryView{
			ID:            cur.ID,
			ParticipantID: cur.ParticipantID,
			Topic:         cur.Topic,
			Status:        cur.Status,
			Position:      0,
			RequestedAt:   cur.RequestedAt,
		})
	}
	pos := 1
	for _, e := range ordered {
		if e.Status != model.SpeakingWaiting {
			continue
		}
		view = append(view, model.QueueEntryView{
			ID:            e.ID,
			ParticipantID: e.ParticipantID,
			Topic:         e.Topic,
			Status:        e.Status,
			Position:      pos,
			RequestedAt:   e.RequestedAt,
		})
		pos++
	}
	return view
}

func (r *Room) broadcastQueue() {
	r.bus.BroadcastToRoom(r.info.ID, model.EvtQueueUpdated, r.queueView())
}

func earlier(a, b *model.SpeakingQueueEntry) bool {
	if !a.RequestedAt.Equal(b.RequestedAt) {
		return a.RequestedAt.Before(b.RequestedAt)
	}
	return a.Arrival < b.Arrival
}
