package signal

import "errors"

// All of these are recovered locally: they surface as a failure result to
// the single caller and never propagate to other users.
var (
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyInRoom     = errors.New("already in this room")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotInRoom         = errors.New("not in a room")
	ErrTargetUnavailable = errors.New("user is offline or busy")
	ErrCallNotFound      = errors.New("call not found")
	ErrUserBusy          = errors.New("user is mid-call")
	ErrMalformed         = errors.New("malformed message")
)
