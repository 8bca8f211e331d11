package model

import "time"

// PollArchive pairs a poll with its final results.
type PollArchive struct {
	Poll      Poll           `json:"poll" bson:"poll"`
	Results   PollResults    `json:"results" bson:"results"`
	Responses []PollResponse `json:"responses" bson:"responses"`
}

// QuizArchive pairs a quiz session with its submissions.
type QuizArchive struct {
	Quiz        QuizSession      `json:"quiz" bson:"quiz"`
	Submissions []QuizSubmission `json:"submissions" bson:"submissions"`
}

// RoomArchive is the final record of a live session, written to persistent
// storage exactly once, at room end.
type RoomArchive struct {
	Room         Room          `json:"room" bson:"room"`
	Participants []Participant `json:"participants" bson:"participants"`
	Polls        []PollArchive `json:"polls" bson:"polls"`
	Quizzes      []QuizArchive `json:"quizzes" bson:"quizzes"`
	BoardOps     []BoardOp     `json:"boardOps" bson:"boardOps"`
	Chat         []ChatMessage `json:"chat" bson:"chat"`
	ArchivedAt   time.Time     `json:"archivedAt" bson:"archivedAt"`
}
