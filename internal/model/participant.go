package model

import "time"

type ParticipantRole string

const (
	RoleHost        ParticipantRole = "HOST"
	RoleCoHost      ParticipantRole = "CO_HOST"
	RoleParticipant ParticipantRole = "PARTICIPANT"
)

type ParticipantStatus string

const (
	ParticipantWaiting ParticipantStatus = "WAITING"
	ParticipantJoined  ParticipantStatus = "JOINED"
	ParticipantLeft    ParticipantStatus = "LEFT"
)

// MediaState holds the logical media flags for a participant. The core never
// touches media bytes; it only tracks these flags.
type MediaState struct {
	Muted         bool `json:"muted" bson:"muted"`
	VideoOn       bool `json:"videoOn" bson:"videoOn"`
	ScreenSharing bool `json:"screenSharing" bson:"screenSharing"`
	HandRaised    bool `json:"handRaised" bson:"handRaised"`
}

// Participant binds a user to exactly one room. Re-joining after LEFT always
// creates a fresh Participant for the same user; old records are never
// resurrected.
type Participant struct {
	ID          string            `json:"id" bson:"_id"`
	RoomID      string            `json:"roomId" bson:"roomId"`
	UserID      string            `json:"userId" bson:"userId"`
	DisplayName string            `json:"displayName" bson:"displayName"`
	Role        ParticipantRole   `json:"role" bson:"role"`
	Status      ParticipantStatus `json:"status" bson:"status"`
	Media       MediaState        `json:"media" bson:"media"`
	JoinedAt    time.Time         `json:"joinedAt" bson:"joinedAt"`
	LeftAt      *time.Time        `json:"leftAt,omitempty" bson:"leftAt,omitempty"`
	LastSeenAt  time.Time         `json:"lastSeenAt" bson:"lastSeenAt"`
}

// CanModerate reports whether the participant may perform host-only
// operations (breakout control, queue grants, poll lifecycle, layout).
func (p *Participant) CanModerate() bool {
	return p.Role == RoleHost || p.Role == RoleCoHost
}
