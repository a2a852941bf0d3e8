// internal/game/errors.go
package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Code classifies a rejected request. Every code is recoverable: the request fails and
// state is left as it was.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeNotYourTurn  Code = "NOT_YOUR_TURN"
	CodeIllegalCard  Code = "ILLEGAL_CARD"
	CodeIllegalMove  Code = "ILLEGAL_MOVE"
	CodeNotYourCard  Code = "NOT_YOUR_CARD"
	CodeWrongPhase   Code = "WRONG_PHASE"
	CodeNotHost      Code = "NOT_HOST"
	CodeNotWinner    Code = "NOT_WINNER"
	CodeGameNotFound Code = "GAME_NOT_FOUND"
	CodeRoomNotFound Code = "ROOM_NOT_FOUND"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Error is the typed failure returned by engines and the orchestrator.
type Error struct {
	Code    Code       `json:"code"`
	Message string     `json:"message"`
	RuleID  *uuid.UUID `json:"ruleId,omitempty"` // set when a house rule caused the rejection
}

func (e *Error) Error() string {
	if e.RuleID != nil {
		return fmt.Sprintf("%s: %s (rule %s)", e.Code, e.Message, e.RuleID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds an *Error with a formatted message.
func Errorf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// RuleError builds an ILLEGAL_CARD error attributed to a house rule.
func RuleError(ruleID uuid.UUID, message string) *Error {
	id := ruleID
	return &Error{Code: CodeIllegalCard, Message: message, RuleID: &id}
}

// CodeOf extracts the code of err, or INTERNAL_ERROR for errors that are not *Error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return CodeInternal
}
