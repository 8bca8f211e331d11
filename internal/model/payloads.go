package model

import "encoding/json"

// Typed payloads for inbound client events. The transport decodes the outer
// envelope; the room serializer decodes these.

type LayoutPayload struct {
	Layout LayoutType `json:"layout"`
}

type BreakoutCreatePayload struct {
	TotalRooms      int              `json:"totalRooms"`
	Method          AssignmentMethod `json:"method"`
	DurationSeconds int              `json:"durationSeconds,omitempty"`
	RoomNames       []string         `json:"roomNames,omitempty"`
	// Manual maps participant id -> sub-room index, required for MANUAL.
	Manual map[string]int `json:"manual,omitempty"`
	// Scores maps user id -> engagement score. Always overwritten by the
	// transport from the external score provider; client-supplied values
	// are discarded.
	Scores map[string]float64 `json:"scores,omitempty"`
}

type QueueJoinPayload struct {
	Topic string `json:"topic,omitempty"`
}

type QueueEntryPayload struct {
	EntryID string `json:"entryId"`
}

type BoardOpPayload struct {
	Type    BoardOpType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CursorPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PollCreatePayload struct {
	Question      string   `json:"question"`
	Type          PollType `json:"type"`
	Options       []string `json:"options,omitempty"`
	AllowMultiple bool     `json:"allowMultiple,omitempty"`
	ShowResults   bool     `json:"showResults"`
	Anonymous     bool     `json:"anonymous,omitempty"`
}

type PollIDPayload struct {
	PollID string `json:"pollId"`
}

type PollRespondPayload struct {
	PollID    string   `json:"pollId"`
	OptionIDs []string `json:"optionIds,omitempty"`
	Text      string   `json:"text,omitempty"`
	Rating    int      `json:"rating,omitempty"`
}

type QuizStartPayload struct {
	Title            string `json:"title"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
}

type QuizSubmitPayload struct {
	QuizID  string          `json:"quizId"`
	Answers json.RawMessage `json:"answers,omitempty"`
}

type ChatSendPayload struct {
	Body string `json:"body"`
}

type ReactionPayload struct {
	Emoji string `json:"emoji"`
}
