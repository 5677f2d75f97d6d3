package services

// OpError is a rejected room operation: the request was understood but cannot
// be applied. Rejections never leave partial state behind.
type OpError struct {
	Code    string
	Message string
}

func (e *OpError) Error() string {
	return e.Message
}

var (
	ErrNotIdentified  = &OpError{Code: "NOT_IDENTIFIED", Message: "identify before using room operations"}
	ErrAlreadyInRoom  = &OpError{Code: "ALREADY_IN_ROOM", Message: "already in a room"}
	ErrRoomNotFound   = &OpError{Code: "ROOM_NOT_FOUND", Message: "room not found"}
	ErrRoomFull       = &OpError{Code: "ROOM_FULL", Message: "room is full"}
	ErrGameInProgress = &OpError{Code: "GAME_IN_PROGRESS", Message: "game already in progress"}
	ErrNotInRoom      = &OpError{Code: "NOT_IN_ROOM", Message: "not in a room"}
	ErrNotHost        = &OpError{Code: "NOT_HOST", Message: "only the host can do that"}
	ErrNotAllReady    = &OpError{Code: "NOT_ALL_READY", Message: "not all players are ready"}
	ErrNotYourTurn    = &OpError{Code: "NOT_YOUR_TURN", Message: "not your turn"}
	ErrNotManualMode  = &OpError{Code: "NOT_MANUAL_MODE", Message: "reveals are automatic in this room"}
	ErrInvalidAmount  = &OpError{Code: "INVALID_AMOUNT", Message: "invalid amount"}
	ErrNotEnoughGold  = &OpError{Code: "NOT_ENOUGH_GOLD", Message: "not enough gold"}
	ErrUserOffline    = &OpError{Code: "USER_OFFLINE", Message: "user not online"}
	ErrCannotGiftSelf = &OpError{Code: "CANNOT_GIFT_SELF", Message: "cannot gift yourself"}
	ErrStartFailed    = &OpError{Code: "START_FAILED", Message: "no player could cover the stake"}
)

// invalidSelection wraps a number-selection validation failure with its
// specific reason (wrong count, duplicate, out of range).
func invalidSelection(err error) *OpError {
	return &OpError{Code: "INVALID_SELECTION", Message: err.Error()}
}
