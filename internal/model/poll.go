package model

import "time"

type PollType string

const (
	PollMultipleChoice PollType = "MULTIPLE_CHOICE"
	PollRating         PollType = "RATING"
	PollWordCloud      PollType = "WORD_CLOUD"
	PollOpenEnded      PollType = "OPEN_ENDED"
	PollYesNo          PollType = "YES_NO"
)

// ActivityStatus is the state machine shared by polls and quiz sessions.
// Transitions are monotonic: DRAFT -> ACTIVE -> ENDED -> ARCHIVED.
type ActivityStatus string

const (
	ActivityDraft    ActivityStatus = "DRAFT"
	ActivityActive   ActivityStatus = "ACTIVE"
	ActivityEnded    ActivityStatus = "ENDED"
	ActivityArchived ActivityStatus = "ARCHIVED"
)

type PollOption struct {
	ID   string `json:"id" bson:"_id"`
	Text string `json:"text" bson:"text"`
}

type Poll struct {
	ID            string         `json:"id" bson:"_id"`
	RoomID        string         `json:"roomId" bson:"roomId"`
	CreatorID     string         `json:"creatorId" bson:"creatorId"`
	Question      string         `json:"question" bson:"question"`
	Type          PollType       `json:"type" bson:"type"`
	Status        ActivityStatus `json:"status" bson:"status"`
	AllowMultiple bool           `json:"allowMultiple" bson:"allowMultiple"`
	ShowResults   bool           `json:"showResults" bson:"showResults"`
	Anonymous     bool           `json:"anonymous" bson:"anonymous"`
	Options       []PollOption   `json:"options" bson:"options"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
}

// PollResponse is one participant's response. For anonymous polls the
// identity link is dropped at write time: ParticipantID is empty.
type PollResponse struct {
	PollID        string    `json:"pollId" bson:"pollId"`
	ParticipantID string    `json:"participantId,omitempty" bson:"participantId,omitempty"`
	OptionIDs     []string  `json:"optionIds,omitempty" bson:"optionIds,omitempty"`
	Text          string    `json:"text,omitempty" bson:"text,omitempty"`
	Rating        int       `json:"rating,omitempty" bson:"rating,omitempty"`
	SubmittedAt   time.Time `json:"submittedAt" bson:"submittedAt"`
}

type OptionResult struct {
	OptionID   string  `json:"optionId"`
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PollResults is the live aggregation broadcast as poll:results. Total is the
// count of distinct responding participants for non-multiple polls.
type PollResults struct {
	PollID         string         `json:"pollId"`
	Question       string         `json:"question"`
	Type           PollType       `json:"type"`
	Status         ActivityStatus `json:"status"`
	TotalResponses int            `json:"totalResponses"`
	Options        []OptionResult `json:"options,omitempty"`
	Words          map[string]int `json:"words,omitempty"`
	AverageRating  float64        `json:"averageRating,omitempty"`
	Answers        []string       `json:"answers,omitempty"`
}
