package model

import "encoding/json"

// Inbound event types (client -> core).
const (
	EvtJoin           = "join"
	EvtLeave          = "leave"
	EvtMediaUpdate    = "media:update"
	EvtHandRaise      = "hand:raise"
	EvtHandLower      = "hand:lower"
	EvtLayoutSet      = "layout:set"
	EvtBreakoutCreate = "breakout:create"
	EvtBreakoutEnd    = "breakout:end"
	EvtQueueJoin      = "queue:join"
	EvtQueueLeave     = "queue:leave"
	EvtQueueStart     = "queue:start"
	EvtQueueEnd       = "queue:end"
	EvtBoardOp        = "whiteboard:op"
	EvtBoardUndo      = "whiteboard:undo"
	EvtBoardRedo      = "whiteboard:redo"
	EvtBoardCursor    = "whiteboard:cursor"
	EvtPollCreate     = "poll:create"
	EvtPollStart      = "poll:start"
	EvtPollRespond    = "poll:respond"
	EvtPollEnd        = "poll:end"
	EvtQuizStart      = "quiz:start"
	EvtQuizSubmit     = "quiz:submit"
	EvtChatSend       = "chat:send"
	EvtReactionSend   = "reaction:send"
	EvtHeartbeat      = "heartbeat"
)

// Outbound event types (core -> clients).
const (
	EvtParticipantJoined = "participant:joined"
	EvtParticipantLeft   = "participant:left"
	EvtMediaChanged      = "media:changed"
	EvtHandRaised        = "hand:raised"
	EvtLayoutChanged     = "layout:changed"
	EvtBreakoutAssigned  = "breakout:assigned"
	EvtBreakoutEnded     = "breakout:ended"
	EvtQueueUpdated      = "queue:updated"
	EvtBoardApplied      = "whiteboard:applied"
	EvtCursorMoved       = "whiteboard:cursor"
	EvtPollCreated       = "poll:created"
	EvtPollResults       = "poll:results"
	EvtQuizTick          = "quiz:tick"
	EvtQuizEnded         = "quiz:ended"
	EvtChatMessage       = "chat:message"
	EvtReactionSent      = "reaction:sent"
	EvtRoomStarted       = "room:started"
	EvtRoomEnded         = "room:ended"
	EvtRoomError         = "room:error"
	EvtError             = "error"
)

// ClientEvent is the inbound envelope. Seq is the monotonic per-connection
// sequence number used to detect and discard client retransmits of already
// applied operations; 0 disables the check.
type ClientEvent struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorEvent is sent only to the originating connection. State carries enough
// of the current room state for the client to reconcile without a resync.
type ErrorEvent struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	State   interface{} `json:"state,omitempty"`
}
