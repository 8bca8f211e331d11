package live

import "errors"

type ErrorCode string

const (
	CodeValidation       ErrorCode = "VALIDATION"
	CodeStateConflict    ErrorCode = "STATE_CONFLICT"
	CodeRoomFull         ErrorCode = "ROOM_FULL"
	CodeSpeakerBusy      ErrorCode = "SPEAKER_BUSY"
	CodeAlreadyQueued    ErrorCode = "ALREADY_QUEUED"
	CodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
)

var ErrRoomClosed = errors.New("room is closed")

// Error is returned to the originating connection only. State carries the
// relevant slice of current room state so the client can reconcile its local
// view without a full resync.
type Error struct {
	Code    ErrorCode
	Message string
	State   interface{}
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// IsCode reports whether err is a live.Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var le *Error
	return errors.As(err, &le) && le.Code == code
}

func errValidation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func errNotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func errConflict(msg string, state interface{}) *Error {
	return &Error{Code: CodeStateConflict, Message: msg, State: state}
}

func errRoomFull(msg string, state interface{}) *Error {
	return &Error{Code: CodeRoomFull, Message: msg, State: state}
}

func errSpeakerBusy(msg string, state interface{}) *Error {
	return &Error{Code: CodeSpeakerBusy, Message: msg, State: state}
}

func errAlreadyQueued(msg string, state interface{}) *Error {
	return &Error{Code: CodeAlreadyQueued, Message: msg, State: state}
}

func errDeadlineExceeded(msg string, state interface{}) *Error {
	return &Error{Code: CodeDeadlineExceeded, Message: msg, State: state}
}
