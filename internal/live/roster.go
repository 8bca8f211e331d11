package live

import (
	"log"
	"time"

	"github.com/google/uuid"

	"eduforum/internal/model"
)

// join admits a user into the room. Idempotent for an already-present user;
// a user re-joining after LEFT gets a fresh participant record.
func (r *Room) join(userID, displayName string) (*model.Participant, error) {
	if r.info.Status == model.RoomEnded {
		return nil, errConflict("room has ended", r.info.Status)
	}
	if pid, ok := r.byUser[userID]; ok {
		if p, ok := r.participants[pid]; ok {
			return p, nil
		}
	}
	if len(r.participants) >= r.info.Capacity {
		return nil, errRoomFull("room is at capacity", map[string]int{
			"capacity": r.info.Capacity,
			"size":     len(r.participants),
		})
	}

	now := r.now()
	p := &model.Participant{
		ID:          uuid.New().String(),
		RoomID:      r.info.ID,
		UserID:      userID,
		DisplayName: displayName,
		Role:        model.RoleParticipant,
		Status:      model.ParticipantJoined,
		Media:       model.MediaState{VideoOn: true},
		JoinedAt:    now,
		LastSeenAt:  now,
	}
	if userID == r.info.HostID {
		p.Role = model.RoleHost
	} else if r.info.Status == model.RoomWaiting {
		// Non-hosts sit in the waiting room until the host starts.
		p.Status = model.ParticipantWaiting
	}

	r.participants[p.ID] = p
	r.byUser[userID] = p.ID
	r.bus.BroadcastToRoom(r.info.ID, model.EvtParticipantJoined, p)
	if p.Status == model.ParticipantJoined {
		r.breakoutAdmit(p.ID)
	}
	return p, nil
}

// markLeft demotes a participant to LEFT and removes it from the roster. The
// id stays known for the grace window so late messages referencing it are
// dropped rather than treated as errors.
func (r *Room) markLeft(participantID string) {
	p, ok := r.participants[participantID]
	if !ok {
		return
	}
	now := r.now()
	p.Status = model.ParticipantLeft
	p.LeftAt = &now
	p.Media.HandRaised = false
	p.Media.ScreenSharing = false

	r.queueDrop(participantID)
	r.breakoutDrop(participantID)

	delete(r.participants, participantID)
	delete(r.byUser, p.UserID)
	r.departed[participantID] = now
	r.former = append(r.former, *p)

	r.bus.BroadcastToRoom(r.info.ID, model.EvtParticipantLeft, map[string]string{
		"participantId": p.ID,
		"userId":        p.UserID,
	})
	r.publishSnapshot()
}

func (r *Room) setMedia(p *model.Participant, flags model.MediaState) error {
	if err := requireJoined(p); err != nil {
		return err
	}
	// Hand state has its own events; media:update never toggles it.
	flags.HandRaised = p.Media.HandRaised
	p.Media = flags
	r.bus.BroadcastToRoom(r.info.ID, model.EvtMediaChanged, map[string]interface{}{
		"participantId": p.ID,
		"media":         p.Media,
	})
	return nil
}

func (r *Room) setHand(p *model.Participant, raised bool) error {
	if err := requireJoined(p); err != nil {
		return err
	}
	p.Media.HandRaised = raised
	r.bus.BroadcastToRoom(r.info.ID, model.EvtHandRaised, map[string]interface{}{
		"participantId": p.ID,
		"raised":        raised,
	})
	return nil
}

func (r *Room) setLayout(p *model.Participant, layout model.LayoutType) error {
	if !p.CanModerate() {
		return errValidation("layout changes are host-only")
	}
	switch layout {
	case model.LayoutGallery, model.LayoutSpeaker, model.LayoutGrid:
	default:
		return errValidation("unknown layout: " + string(layout))
	}
	r.info.Layout = layout
	r.bus.BroadcastToRoom(r.info.ID, model.EvtLayoutChanged, map[string]string{
		"layout": string(layout),
	})
	return nil
}

// touch refreshes liveness. No broadcast: presence pings are lossy.
func (r *Room) touch(participantID string) {
	if p, ok := r.participants[participantID]; ok {
		p.LastSeenAt = r.now()
	}
}

// sweepPresence demotes participants whose heartbeat went silent. A timeout
// is a normal lifecycle transition, not an error.
func (r *Room) sweepPresence(now time.Time) {
	var stale []string
	for id, p := range r.participants {
		if now.Sub(p.LastSeenAt) > r.opts.HeartbeatTimeout {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		log.Printf("room %s: heartbeat timeout for participant %s", r.info.ID, id)
		r.markLeft(id)
	}
}

func requireJoined(p *model.Participant) error {
	if p.Status != model.ParticipantJoined {
		return errConflict("participant has not joined yet", p.Status)
	}
	return nil
}
