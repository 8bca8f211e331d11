package live

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"eduforum/internal/model"
)

// createBreakout partitions the current roster into sub-rooms. Re-running on
// an active session replaces the whole mapping in one serializer step, so no
// participant ever observes a transient unassigned state.
func (r *Room) createBreakout(p *model.Participant, pl model.BreakoutCreatePayload) error {
	if !p.CanModerate() {
		return errValidation("breakout control is host-only")
	}
	if pl.TotalRooms < 1 {
		return errValidation("totalRooms must be at least 1")
	}
	roster := r.joinedParticipantIDs()
	if len(roster) == 0 {
		return errConflict("no joined participants to assign", nil)
	}

	var mapping [][]string
	var err error
	switch pl.Method {
	case model.AssignRandom:
		mapping = r.assignRandom(roster, pl.TotalRooms)
	case model.AssignBalanced:
		mapping = r.assignBalanced(roster, pl.TotalRooms, pl.Scores)
	case model.AssignManual:
		mapping, err = assignManual(roster, pl.TotalRooms, pl.Manual)
		if err != nil {
			return err
		}
	default:
		return errValidation("unknown assignment method: " + string(pl.Method))
	}

	now := r.now()
	session := &model.BreakoutSession{
		ID:        uuid.New().String(),
		RoomID:    r.info.ID,
		Method:    pl.Method,
		Status:    model.BreakoutActive,
		StartedAt: now,
	}
	for i, ids := range mapping {
		name := fmt.Sprintf("Room %d", i+1)
		if i < len(pl.RoomNames) && pl.RoomNames[i] != "" {
			name = pl.RoomNames[i]
		}
		session.SubRooms = append(session.SubRooms, model.SubRoom{
			ID:             uuid.New().String(),
			Name:           name,
			ParticipantIDs: ids,
		})
	}
	if pl.DurationSeconds > 0 {
		session.Duration = time.Duration(pl.DurationSeconds) * time.Second
		ends := now.Add(session.Duration)
		session.EndsAt = &ends
	}

	r.breakout = session
	r.bus.BroadcastToRoom(r.info.ID, model.EvtBreakoutAssigned, session)
	return nil
}

func (r *Room) endBreakout(p *model.Participant) error {
	if !p.CanModerate() {
		return errValidation("breakout control is host-only")
	}
	if r.breakout == nil || r.breakout.Status != model.BreakoutActive {
		return errNotFound("no active breakout session")
	}
	r.closeBreakout()
	return nil
}

// closeBreakout closes every sub-room and returns all participants to the
// parent roster. Also invoked by the tick when the configured duration
// elapses; clients never need to acknowledge.
func (r *Room) closeBreakout() {
	now := r.now()
	r.breakout.Status = model.BreakoutClosed
	r.breakout.EndedAt = &now
	r.bus.BroadcastToRoom(r.info.ID, model.EvtBreakoutEnded, r.breakout)
	r.breakout = nil
}

// breakoutAdmit places a participant joining mid-session into the smallest
// sub-room, keeping every joined participant in exactly one sub-room while
// the breakout is active.
func (r *Room) breakoutAdmit(participantID string) {
	if r.breakout == nil || r.breakout.Status != model.BreakoutActive {
		return
	}
	idx := 0
	for i := range r.breakout.SubRooms {
		if len(r.breakout.SubRooms[i].ParticipantIDs) < len(r.breakout.SubRooms[idx].ParticipantIDs) {
			idx = i
		}
	}
	r.breakout.SubRooms[idx].ParticipantIDs = append(r.breakout.SubRooms[idx].ParticipantIDs, participantID)
	r.bus.BroadcastToRoom(r.info.ID, model.EvtBreakoutAssigned, r.breakout)
}

// breakoutDrop removes a departing participant from its sub-room so the
// disjoint-membership invariant holds for the remaining roster.
func (r *Room) breakoutDrop(participantID string) {
	if r.breakout == nil {
		return
	}
	for i := range r.breakout.SubRooms {
		ids := r.breakout.SubRooms[i].ParticipantIDs
		for j, id := range ids {
			if id == participantID {
				r.breakout.SubRooms[i].ParticipantIDs = append(ids[:j], ids[j+1:]...)
				return
			}
		}
	}
}

// assignRandom shuffles with the room's seeded generator and deals
// round-robin, so sub-room sizes never differ by more than one.
func (r *Room) assignRandom(roster []string, totalRooms int) [][]string {
	shuffled := make([]string, len(roster))
	copy(shuffled, roster)
	r.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return dealRoundRobin(shuffled, totalRooms)
}

// assignBalanced ranks by engagement score and deals ranks round-robin, so
// every sub-room receives a comparable mix of high and low scorers.
func (r *Room) assignBalanced(roster []string, totalRooms int, scores map[string]float64) [][]string {
	ranked := make([]string, len(roster))
	copy(ranked, roster)
	sort.SliceStable(ranked, func(i, j int) bool {
		si := scores[r.participants[ranked[i]].UserID]
		sj := scores[r.participants[ranked[j]].UserID]
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})
	return dealRoundRobin(ranked, totalRooms)
}

func assignManual(roster []string, totalRooms int, manual map[string]int) ([][]string, error) {
	if len(manual) == 0 {
		return nil, errValidation("manual assignment requires a mapping")
	}
	mapping := make([][]string, totalRooms)
	seen := make(map[string]bool, len(roster))
	for _, pid := range roster {
		idx, ok := manual[pid]
		if !ok {
			return nil, errValidation("participant " + pid + " is unassigned")
		}
		if idx < 0 || idx >= totalRooms {
			return nil, errValidation(fmt.Sprintf("sub-room index %d out of range", idx))
		}
		mapping[idx] = append(mapping[idx], pid)
		seen[pid] = true
	}
	for pid := range manual {
		if !seen[pid] {
			return nil, errValidation("assignment references unknown participant " + pid)
		}
	}
	return mapping, nil
}

func dealRoundRobin(ordered []string, totalRooms int) [][]string {
	mapping := make([][]string, totalRooms)
	for i, pid := range ordered {
		idx := i % totalRooms
		mapping[idx] = append(mapping[idx], pid)
	}
	return mapping
}

func (r *Room) joinedParticipantIDs() []string {
	ids := make([]string, 0, len(r.participants))
	for id, p := range r.participants {
		if p.Status == model.ParticipantJoined {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
