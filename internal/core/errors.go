package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeRoomLocked   = "room_locked"
	ErrCodeNotConnected = "not_connected"
)

var (
	// ErrRoomNotFound means the room id resolved neither from memory nor
	// from the persisted snapshot.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomLocked means the room exists but rejects joins.
	ErrRoomLocked = errors.New("room locked")
	// ErrNotConnected means a session action required a joined room.
	ErrNotConnected = errors.New("not connected to a room")
)

// CoreError wraps a code and human-readable message for surfacing to the
// presentation layer.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// AsCoreError maps domain errors onto code+message pairs.
func AsCoreError(err error) *CoreError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRoomNotFound):
		return &CoreError{Code: ErrCodeRoomNotFound, Message: "room not found or locked"}
	case errors.Is(err, ErrRoomLocked):
		return &CoreError{Code: ErrCodeRoomLocked, Message: "room not found or locked"}
	case errors.Is(err, ErrNotConnected):
		return &CoreError{Code: ErrCodeNotConnected, Message: "not connected to a room"}
	default:
		return &CoreError{Code: "internal", Message: err.Error()}
	}
}
