package core

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers pick the HTTP status with errors.Is against these.
var (
	ErrValidation          = errors.New("validation failed")
	ErrUnauthenticated     = errors.New("no current identity")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrPlanLimitReached    = errors.New("plan limit reached")
	ErrInactivePlan        = errors.New("subscription is not active")
	ErrUpstreamFailure     = errors.New("upstream service failure")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrOperationFailed     = errors.New("operation failed")
)

// Generic user-facing messages.
const (
	MsgOperationFailed = "Operazione non riuscita"
	MsgUpdateFailed    = "Errore durante l'aggiornamento"
	MsgSaveFailed      = "Errore durante il salvataggio"
)

// Error carries the Italian message shown to the user alongside the kind and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func validationError(message string) *Error {
	return newError(ErrValidation, message, nil)
}

// failed wraps an unexpected storage or provider error under a generic message.
func failed(message string, cause error) *Error {
	return newError(ErrOperationFailed, message, cause)
}

// UserMessage extracts the user-facing message of err, falling back to the generic banner.
func UserMessage(err error) string {
	var coreErr *Error
	if errors.As(err, &coreErr) && coreErr.Message != "" {
		return coreErr.Message
	}
	return MsgOperationFailed
}
