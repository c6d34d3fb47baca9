package ledger

import (
	"errors"
	"fmt"
)

// Code classifies a ledger failure. Every precondition violation aborts
// the surrounding transaction with one of these codes; no operation
// silently succeeds on bad input.
type Code string

const (
	// Authorization.
	ErrAuthorityMismatch    Code = "AUTHORITY_MISMATCH"
	ErrCreatorParticipation Code = "CREATOR_PARTICIPATION"

	// Timing.
	ErrEventAlreadyStarted         Code = "EVENT_ALREADY_STARTED"
	ErrEventIsNotOver              Code = "EVENT_IS_NOT_OVER"
	ErrInactiveEvent               Code = "INACTIVE_EVENT"
	ErrParticipationDeadlinePassed Code = "PARTICIPATION_DEADLINE_PASSED"
	ErrAppellationDeadlinePassed   Code = "APPELLATION_DEADLINE_PASSED"
	ErrEarlyClaim                  Code = "EARLY_CLAIM"

	// State conflict.
	ErrInvalidUUID         Code = "INVALID_UUID"
	ErrInvalidEndDate      Code = "INVALID_END_DATE"
	ErrInvalidIndex        Code = "INVALID_INDEX"
	ErrTooManyOptions      Code = "TOO_MANY_OPTIONS"
	ErrCanceledEvent       Code = "CANCELED_EVENT"
	ErrEventIsNotCancelled Code = "EVENT_IS_NOT_CANCELLED"
	ErrAlreadyCompleted    Code = "ALREADY_COMPLETED"
	ErrAlreadyClaimed      Code = "ALREADY_CLAIMED"
	ErrAlreadyAppealed     Code = "ALREADY_APPEALED"
	ErrAlreadyExists       Code = "ALREADY_EXISTS"
	ErrNotFound            Code = "NOT_FOUND"

	// Economic.
	ErrInsufficientStake Code = "INSUFFICIENT_STAKE"
	ErrStakeTooLow       Code = "STAKE_TOO_LOW"
	ErrAllStakeLocked    Code = "ALL_STAKE_LOCKED"
	ErrNotEnoughTrust    Code = "NOT_ENOUGH_TRUST"
	ErrInvalidAmount     Code = "INVALID_AMOUNT"
	ErrOverflow          Code = "OVERFLOW"
)

// Error is a coded ledger failure with optional record context.
type Error struct {
	Code    Code
	Message string

	// EventID and UserID identify the affected records when known.
	EventID string
	UserID  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.EventID != "" && e.UserID != "":
		return fmt.Sprintf("%s: %s (event=%s, user=%s)", e.Code, e.Message, e.EventID, e.UserID)
	case e.EventID != "":
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.EventID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NewError creates a coded error without record context.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewEventError creates a coded error tied to an event.
func NewEventError(code Code, message, eventID string) *Error {
	return &Error{Code: code, Message: message, EventID: eventID}
}

// CodeOf extracts the ledger code from an error chain.
// Returns an empty code if the chain contains no ledger error.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsCode reports whether the error chain carries the given ledger code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
