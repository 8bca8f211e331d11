package model

import "time"

// ChatMessage flows through the ordered room channel and is archived at room
// end together with the rest of the session record.
type ChatMessage struct {
	ID            string    `json:"id" bson:"_id"`
	RoomID        string    `json:"roomId" bson:"roomId"`
	ParticipantID string    `json:"participantId" bson:"participantId"`
	DisplayName   string    `json:"displayName" bson:"displayName"`
	Body          string    `json:"body" bson:"body"`
	SentAt        time.Time `json:"sentAt" bson:"sentAt"`
}

// Reaction is ephemeral: broadcast on the lossy channel, never logged.
type Reaction struct {
	ParticipantID string `json:"participantId"`
	Emoji         string `json:"emoji"`
}
