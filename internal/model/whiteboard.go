package model

import (
	"encoding/json"
	"time"
)

type BoardOpType string

const (
	OpStroke BoardOpType = "stroke"
	OpShape  BoardOpType = "shape"
	OpText   BoardOpType = "text"
	OpErase  BoardOpType = "erase"
	OpClear  BoardOpType = "clear"
	OpUndo   BoardOpType = "undo"
	OpRedo   BoardOpType = "redo"
)

// BoardOp is one entry of the append-only whiteboard log. Seq is assigned by
// the room serializer at acceptance time and is strictly increasing per room.
// Undo/redo entries reference the target op through TargetSeq; history is
// never rewritten.
type BoardOp struct {
	Seq       int64           `json:"seq" bson:"seq"`
	AuthorID  string          `json:"authorId" bson:"authorId"`
	Type      BoardOpType     `json:"type" bson:"type"`
	Payload   json.RawMessage `json:"payload,omitempty" bson:"payload,omitempty"`
	TargetSeq int64           `json:"targetSeq,omitempty" bson:"targetSeq,omitempty"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
}

// CursorPosition travels on the lossy channel only. It is never logged and a
// missed update is never retried.
type CursorPosition struct {
	ParticipantID string  `json:"participantId"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}
