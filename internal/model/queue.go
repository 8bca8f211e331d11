package model

import "time"

type SpeakingStatus string

const (
	SpeakingWaiting SpeakingStatus = "WAITING"
	SpeakingActive  SpeakingStatus = "SPEAKING"
	SpeakingEnded   SpeakingStatus = "ENDED"
)

// SpeakingQueueEntry is one request-to-speak. WAITING entries are totally
// ordered by RequestedAt with ties broken by Arrival, the per-room arrival
// sequence assigned by the serializer.
type SpeakingQueueEntry struct {
	ID              string         `json:"id" bson:"_id"`
	RoomID          string         `json:"roomId" bson:"roomId"`
	ParticipantID   string         `json:"participantId" bson:"participantId"`
	Topic           string         `json:"topic,omitempty" bson:"topic,omitempty"`
	Status          SpeakingStatus `json:"status" bson:"status"`
	RequestedAt     time.Time      `json:"requestedAt" bson:"requestedAt"`
	Arrival         uint64         `json:"-" bson:"arrival"`
	GrantedAt       *time.Time     `json:"grantedAt,omitempty" bson:"grantedAt,omitempty"`
	FinishedAt      *time.Time     `json:"finishedAt,omitempty" bson:"finishedAt,omitempty"`
	DurationSeconds int            `json:"durationSeconds,omitempty" bson:"durationSeconds,omitempty"`
}

// QueueEntryView is the client-facing view. Position is recomputed from the
// current ordering on every broadcast, never cached.
type QueueEntryView struct {
	ID            string         `json:"id"`
	ParticipantID string         `json:"participantId"`
	Topic         string         `json:"topic,omitempty"`
	Status        SpeakingStatus `json:"status"`
	Position      int            `json:"position"` // 0 while SPEAKING
	RequestedAt   time.Time      `json:"requestedAt"`
}
