package model

import "time"

type RoomStatus string

const (
	RoomWaiting RoomStatus = "WAITING"
	RoomActive  RoomStatus = "ACTIVE"
	RoomEnded   RoomStatus = "ENDED"
)

type LayoutType string

const (
	LayoutGallery LayoutType = "GALLERY"
	LayoutSpeaker LayoutType = "SPEAKER"
	LayoutGrid    LayoutType = "GRID"
)

// Room is the top-level live session container. Status transitions are
// monotonic: WAITING -> ACTIVE -> ENDED.
type Room struct {
	ID        string     `json:"id" bson:"_id"`
	HostID    string     `json:"hostId" bson:"hostId"` // user id of the creator
	Title     string     `json:"title" bson:"title"`
	Status    RoomStatus `json:"status" bson:"status"`
	Capacity  int        `json:"capacity" bson:"capacity"`
	Layout    LayoutType `json:"layout" bson:"layout"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// RoomMeta is the Redis-cached view of a room, enough for lookups without
// touching the live registry.
type RoomMeta struct {
	HostID    string     `json:"hostId"`
	Title     string     `json:"title"`
	Status    RoomStatus `json:"status"`
	Capacity  int        `json:"capacity"`
	CreatedAt time.Time  `json:"createdAt"`
}

// RoomSnapshot is a consistent read-only view of a room, published by the
// room serializer after every applied mutation. Readers never block the
// serialization queue.
type RoomSnapshot struct {
	Room         Room             `json:"room"`
	Participants []Participant    `json:"participants"`
	Queue        []QueueEntryView `json:"queue"`
	Breakout     *BreakoutSession `json:"breakout,omitempty"`
	Polls        []PollResults    `json:"polls,omitempty"`
	Quiz         *QuizStateView   `json:"quiz,omitempty"`
	BoardSeq     int64            `json:"boardSeq"`
	TakenAt      time.Time        `json:"takenAt"`
}
