package model

import "time"

type AssignmentMethod string

const (
	AssignManual   AssignmentMethod = "MANUAL"
	AssignRandom   AssignmentMethod = "RANDOM"
	AssignBalanced AssignmentMethod = "BALANCED"
)

type BreakoutStatus string

const (
	BreakoutActive BreakoutStatus = "ACTIVE"
	BreakoutClosed BreakoutStatus = "CLOSED"
)

// SubRoom holds a disjoint subset of the parent room's participants.
type SubRoom struct {
	ID             string   `json:"id" bson:"_id"`
	Name           string   `json:"name" bson:"name"`
	ParticipantIDs []string `json:"participantIds" bson:"participantIds"`
}

// BreakoutSession is a temporary partition of the parent room. While it is
// active every joined participant appears in exactly one sub-room.
type BreakoutSession struct {
	ID        string           `json:"id" bson:"_id"`
	RoomID    string           `json:"roomId" bson:"roomId"`
	Method    AssignmentMethod `json:"method" bson:"method"`
	Status    BreakoutStatus   `json:"status" bson:"status"`
	SubRooms  []SubRoom        `json:"subRooms" bson:"subRooms"`
	Duration  time.Duration    `json:"duration" bson:"duration"`
	StartedAt time.Time        `json:"startedAt" bson:"startedAt"`
	EndsAt    *time.Time       `json:"endsAt,omitempty" bson:"endsAt,omitempty"`
	EndedAt   *time.Time       `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}
