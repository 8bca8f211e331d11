package model

import (
	"encoding/json"
	"time"
)

// QuizSession runs a timed quiz inside a room. The remaining-time counter is
// owned by the server tick and only ever decremented; clients cannot extend
// or rewind it.
type QuizSession struct {
	ID               string         `json:"id" bson:"_id"`
	RoomID           string         `json:"roomId" bson:"roomId"`
	Title            string         `json:"title" bson:"title"`
	Status           ActivityStatus `json:"status" bson:"status"`
	TimeLimitSeconds int            `json:"timeLimitSeconds" bson:"timeLimitSeconds"`
	RemainingSeconds int            `json:"remainingSeconds" bson:"remainingSeconds"`
	StartedAt        *time.Time     `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt          *time.Time     `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// QuizSubmission records one participant's answers. Auto marks the single
// automatic submission recorded when the timer reaches zero.
type QuizSubmission struct {
	QuizID        string          `json:"quizId" bson:"quizId"`
	ParticipantID string          `json:"participantId" bson:"participantId"`
	Answers       json.RawMessage `json:"answers,omitempty" bson:"answers,omitempty"`
	SubmittedAt   time.Time       `json:"submittedAt" bson:"submittedAt"`
	Auto          bool            `json:"auto" bson:"auto"`
}

// QuizStateView is the client-facing quiz state carried in snapshots and
// quiz:tick events.
type QuizStateView struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Status           ActivityStatus `json:"status"`
	RemainingSeconds int            `json:"remainingSeconds"`
	Submitted        int            `json:"submitted"`
}
