package live

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"eduforum/internal/model"
)

// pollState holds one poll and its responses. For non-anonymous polls the
// map enforces the at-most-one-response-per-participant invariant; anonymous
// responses drop the identity link at write time and are stored flat.
type pollState struct {
	poll          model.Poll
	byParticipant map[string][]model.PollResponse
	order         []string // participant ids in first-response order
	anon          []model.PollResponse
}

func (r *Room) createPoll(p *model.Participant, pl model.PollCreatePayload) error {
	if !p.CanModerate() {
		return errValidation("poll lifecycle is host-only")
	}
	if strings.TrimSpace(pl.Question) == "" {
		return errValidation("poll question is required")
	}
	poll := model.Poll{
		ID:            uuid.New().String(),
		RoomID:        r.info.ID,
		CreatorID:     p.ID,
		Question:      pl.Question,
		Type:          pl.Type,
		Status:        model.ActivityDraft,
		AllowMultiple: pl.AllowMultiple,
		ShowResults:   pl.ShowResults,
		Anonymous:     pl.Anonymous,
		CreatedAt:     r.now(),
	}
	switch pl.Type {
	case model.PollMultipleChoice:
		if len(pl.Options) < 2 {
			return errValidation("multiple choice polls need at least two options")
		}
		for _, text := range pl.Options {
			poll.Options = append(poll.Options, model.PollOption{ID: uuid.New().String(), Text: text})
		}
	case model.PollYesNo:
		poll.Options = []model.PollOption{
			{ID: uuid.New().String(), Text: "Yes"},
			{ID: uuid.New().String(), Text: "No"},
		}
	case model.PollRating, model.PollWordCloud, model.PollOpenEnded:
	default:
		return errValidation("unknown poll type: " + string(pl.Type))
	}

	r.polls[poll.ID] = &pollState{
		poll:          poll,
		byParticipant: make(map[string][]model.PollResponse),
	}
	r.pollIDs = append(r.pollIDs, poll.ID)
	r.bus.BroadcastToRoom(r.info.ID, model.EvtPollCreated, poll)
	return nil
}

func (r *Room) startPoll(p *model.Participant, pollID string) error {
	if !p.CanModerate() {
		return errValidation("poll lifecycle is host-only")
	}
	ps, ok := r.polls[pollID]
	if !ok {
		return errNotFound("poll not found")
	}
	if ps.poll.Status != model.ActivityDraft {
		return errConflict("poll is not a draft", ps.results())
	}
	ps.poll.Status = model.ActivityActive
	r.bus.BroadcastToRoom(r.info.ID, model.EvtPollResults, ps.broadcastResults())
	return nil
}

func (r *Room) endPoll(p *model.Participant, pollID string) error {
	if !p.CanModerate() {
		return errValidation("poll lifecycle is host-only")
	}
	ps, ok := r.polls[pollID]
	if !ok {
		return errNotFound("poll not found")
	}
	if ps.poll.Status != model.ActivityActive {
		return errConflict("poll is not active", ps.results())
	}
	ps.poll.Status = model.ActivityEnded
	// Full results always go out at end, regardless of showResults.
	r.bus.BroadcastToRoom(r.info.ID, model.EvtPollResults, ps.results())
	return nil
}

// respondPoll records a response. A repeat response from the same participant
// replaces the prior one unless the poll allows multiple responses, in which
// case tallies are additive.
func (r *Room) respondPoll(p *model.Participant, pl model.PollRespondPayload) error {
	if err := requireJoined(p); err != nil {
		return err
	}
	ps, ok := r.polls[pl.PollID]
	if !ok {
		return errNotFound("poll not found")
	}
	if ps.poll.Status != model.ActivityActive {
		return errConflict("poll is not accepting responses", ps.results())
	}
	resp, err := ps.validate(pl)
	if err != nil {
		return err
	}
	resp.SubmittedAt = r.now()

	if ps.poll.Anonymous {
		resp.ParticipantID = "" // identity link dropped at write time
		ps.anon = append(ps.anon, resp)
	} else {
		resp.ParticipantID = p.ID
		prior, seen := ps.byParticipant[p.ID]
		switch {
		case !seen:
			ps.order = append(ps.order, p.ID)
			ps.byParticipant[p.ID] = []model.PollResponse{resp}
		case ps.poll.AllowMultiple:
			ps.byParticipant[p.ID] = append(prior, resp)
		default:
			ps.byParticipant[p.ID] = []model.PollResponse{resp}
		}
	}
	r.bus.BroadcastToRoom(r.info.ID, model.EvtPollResults, ps.broadcastResults())
	return nil
}

func (ps *pollState) validate(pl model.PollRespondPayload) (model.PollResponse, error) {
	resp := model.PollResponse{PollID: ps.poll.ID}
	switch ps.poll.Type {
	case model.PollMultipleChoice, model.PollYesNo:
		if len(pl.OptionIDs) == 0 {
			return resp, errValidation("a response option is required")
		}
		if !ps.poll.AllowMultiple && len(pl.OptionIDs) > 1 {
			return resp, errValidation("poll accepts a single option")
		}
		for _, id := range pl.OptionIDs {
			if !ps.hasOption(id) {
				return resp, errValidation("unknown option: " + id)
			}
		}
		resp.OptionIDs = pl.OptionIDs
	case model.PollRating:
		if pl.Rating < 1 || pl.Rating > 5 {
			return resp, errValidation("rating must be between 1 and 5")
		}
		resp.Rating = pl.Rating
	case model.PollWordCloud, model.PollOpenEnded:
		if strings.TrimSpace(pl.Text) == "" {
			return resp, errValidation("response text is required")
		}
		resp.Text = pl.Text
	}
	return resp, nil
}

func (ps *pollState) hasOption(id string) bool {
	for _, o := range ps.poll.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

func (ps *pollState) responseList() []model.PollResponse {
	out := make([]model.PollResponse, 0, len(ps.order)+len(ps.anon))
	for _, pid := range ps.order {
		out = append(out, ps.byParticipant[pid]...)
	}
	out = append(out, ps.anon...)
	return out
}

// results recomputes the live aggregation. Total is the count of distinct
// responding participants for non-multiple polls and the raw response count
// otherwise; percentages are count/total*100.
func (ps *pollState) results() model.PollResults {
	all := ps.responseList()
	res := model.PollResults{
		PollID:   ps.poll.ID,
		Question: ps.poll.Question,
		Type:     ps.poll.Type,
		Status:   ps.poll.Status,
	}
	if ps.poll.AllowMultiple {
		res.TotalResponses = len(all)
	} else {
		res.TotalResponses = len(ps.byParticipant) + len(ps.anon)
	}

	switch ps.poll.Type {
	case model.PollMultipleChoice, model.PollYesNo:
		counts := make(map[string]int)
		for _, resp := range all {
			for _, id := range resp.OptionIDs {
				counts[id]++
			}
		}
		for _, opt := range ps.poll.Options {
			or := model.OptionResult{OptionID: opt.ID, Text: opt.Text, Count: counts[opt.ID]}
			if res.TotalResponses > 0 {
				or.Percentage = float64(or.Count) / float64(res.TotalResponses) * 100
			}
			res.Options = append(res.Options, or)
		}
	case model.PollRating:
		var sum int
		for _, resp := range all {
			sum += resp.Rating
		}
		if len(all) > 0 {
			res.AverageRating = float64(sum) / float64(len(all))
		}
	case model.PollWordCloud:
		words := make(map[string]int)
		for _, resp := range all {
			for _, w := range strings.Fields(strings.ToLower(resp.Text)) {
				w = strings.Trim(w, `.,!?;:"'()`)
				if w != "" {
					words[w]++
				}
			}
		}
		res.Words = words
	case model.PollOpenEnded:
		answers := make([]string, 0, len(all))
		for _, resp := range all {
			answers = append(answers, resp.Text)
		}
		sort.Strings(answers)
		res.Answers = answers
	}
	return res
}

// broadcastResults is the live delta. While the poll is running with
// showResults off, only the participation count leaves the server; the
// breakdown stays hidden until the poll ends.
func (ps *pollState) broadcastResults() model.PollResults {
	full := ps.results()
	if ps.poll.ShowResults || ps.poll.Status != model.ActivityActive {
		return full
	}
	return model.PollResults{
		PollID:         full.PollID,
		Question:       full.Question,
		Type:           full.Type,
		Status:         full.Status,
		TotalResponses: full.TotalResponses,
	}
}
