package live

import (
	"github.com/google/uuid"

	"eduforum/internal/model"
)

// quizState holds the active quiz session. The remaining-time counter is
// decremented by the server tick only; client input never moves it.
type quizState struct {
	session     model.QuizSession
	submissions map[string]model.QuizSubmission
}

func (q *quizState) view() model.QuizStateView {
	return model.QuizStateView{
		ID:               q.session.ID,
		Title:            q.session.Title,
		Status:           q.session.Status,
		RemainingSeconds: q.session.RemainingSeconds,
		Submitted:        len(q.submissions),
	}
}

func (q *quizState) submissionList() []model.QuizSubmission {
	out := make([]model.QuizSubmission, 0, len(q.submissions))
	for _, s := range q.submissions {
		out = append(out, s)
	}
	return out
}

func (r *Room) startQuiz(p *model.Participant, pl model.QuizStartPayload) error {
	if !p.CanModerate() {
		return errValidation("quiz lifecycle is host-only")
	}
	if pl.TimeLimitSeconds <= 0 {
		return errValidation("timeLimitSeconds must be positive")
	}
	if r.quiz != nil && r.quiz.session.Status == model.ActivityActive {
		return errConflict("a quiz is already running", r.quiz.view())
	}
	now := r.now()
	r.quiz = &quizState{
		session: model.QuizSession{
			ID:               uuid.New().String(),
			RoomID:           r.info.ID,
			Title:            pl.Title,
			Status:           model.ActivityActive,
			TimeLimitSeconds: pl.TimeLimitSeconds,
			RemainingSeconds: pl.TimeLimitSeconds,
			StartedAt:        &now,
		},
		submissions: make(map[string]model.QuizSubmission),
	}
	r.bus.BroadcastToRoom(r.info.ID, model.EvtQuizTick, r.quiz.view())
	return nil
}

// submitQuiz accepts a participant's answers while the session is ACTIVE.
// Client-originated submits after the server deadline are rejected.
func (r *Room) submitQuiz(p *model.Participant, pl model.QuizSubmitPayload) error {
	if err := requireJoined(p); err != nil {
		return err
	}
	if r.quiz == nil || r.quiz.session.ID != pl.QuizID {
		return errNotFound("quiz session not found")
	}
	if r.quiz.session.Status != model.ActivityActive {
		return errDeadlineExceeded("quiz deadline has passed", r.quiz.view())
	}
	if _, done := r.quiz.submissions[p.ID]; done {
		return errConflict("already submitted", r.quiz.view())
	}
	r.quiz.submissions[p.ID] = model.QuizSubmission{
		QuizID:        pl.QuizID,
		ParticipantID: p.ID,
		Answers:       pl.Answers,
		SubmittedAt:   r.now(),
	}
	r.bus.BroadcastToRoom(r.info.ID, model.EvtQuizTick, r.quiz.view())
	return nil
}

// tickQuiz decrements the countdown once per server tick. The tick that
// reaches zero records exactly one automatic submission per un-submitted
// joined participant, then ends the session. Remaining time never goes
// negative.
func (r *Room) tickQuiz() {
	if r.quiz == nil || r.quiz.session.Status != model.ActivityActive {
		return
	}
	r.quiz.session.RemainingSeconds--
	if r.quiz.session.RemainingSeconds > 0 {
		r.bus.BroadcastToRoom(r.info.ID, model.EvtQuizTick, r.quiz.view())
		return
	}
	r.quiz.session.RemainingSeconds = 0
	now := r.now()
	for pid, p := range r.participants {
		if p.Status != model.ParticipantJoined {
			continue
		}
		if _, done := r.quiz.submissions[pid]; done {
			continue
		}
		r.quiz.submissions[pid] = model.QuizSubmission{
			QuizID:        r.quiz.session.ID,
			ParticipantID: pid,
			SubmittedAt:   now,
			Auto:          true,
		}
	}
	r.finishQuiz()
}

func (r *Room) finishQuiz() {
	now := r.now()
	r.quiz.session.Status = model.ActivityEnded
	r.quiz.session.EndedAt = &now
	r.bus.BroadcastToRoom(r.info.ID, model.EvtQuizEnded, r.quiz.view())
}
