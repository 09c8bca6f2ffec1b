// Package apperror defines the engine's error taxonomy (spec §7) as a single
// typed Error with an HTTP status, a stable code, and an optional wrapped
// cause, following the teacher's apperror package.
package apperror

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind is one of the taxonomy entries from spec §7. It is not a Go error
// type switch target — Code carries the same information on the wire — but
// it gives call sites a closed set of constants to branch on internally.
type Kind string

const (
	KindParseError     Kind = "parse-error"
	KindTransformError Kind = "transform-error"
	KindCheckpointIO   Kind = "checkpoint-io"
	KindInfiniteLoop   Kind = "infinite-loop"
	KindLimitExceeded  Kind = "limit-exceeded"
	KindCancelled      Kind = "cancelled"
	KindUserError      Kind = "user-error"
)

// Error represents an application error with an HTTP status and stable code.
type Error struct {
	HTTPStatus int
	Code       string
	Kind       Kind
	Message    string
	Internal   error
	Details    map[string]any
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error so errors.Is/As see through Error.
func (e *Error) Unwrap() error {
	return e.Internal
}

// ToEchoError converts the app error to an echo.HTTPError.
func (e *Error) ToEchoError() *echo.HTTPError {
	errBody := map[string]any{
		"code":    e.Code,
		"kind":    string(e.Kind),
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		errBody["details"] = e.Details
	}
	return echo.NewHTTPError(e.HTTPStatus, map[string]any{"error": errBody})
}

// WithInternal returns a copy with an internal cause attached.
func (e *Error) WithInternal(err error) *Error {
	cp := *e
	cp.Internal = err
	return &cp
}

// WithMessage returns a copy with a custom message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// WithDetails returns a copy with details attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// New creates a new application error.
func New(status int, code string, kind Kind, message string) *Error {
	return &Error{HTTPStatus: status, Code: code, Kind: kind, Message: message}
}

// Common error definitions. The taxonomy entries map 1:1 to spec §7; the
// generic HTTP-flavored ones exist for the thin transport surface that
// exercises Submit/Resume/Status/Cancel end to end.
var (
	ErrParseError     = New(http.StatusBadRequest, "parse_error", KindParseError, "failed to parse program")
	ErrTransformError = New(http.StatusInternalServerError, "transform_error", KindTransformError, "failed to transform program")
	ErrCheckpointIO   = New(http.StatusInternalServerError, "checkpoint_io", KindCheckpointIO, "checkpoint store operation failed")
	ErrInfiniteLoop   = New(http.StatusUnprocessableEntity, "infinite_loop", KindInfiniteLoop, "resumable loop exceeded its iteration cap")
	ErrLimitExceeded  = New(http.StatusUnprocessableEntity, "limit_exceeded", KindLimitExceeded, "execution limit exceeded")
	ErrCancelled      = New(http.StatusConflict, "cancelled", KindCancelled, "execution was cancelled")
	ErrUserError      = New(http.StatusUnprocessableEntity, "user_error", KindUserError, "uncaught error from user program")

	ErrBadRequest = New(http.StatusBadRequest, "bad_request", "", "Invalid request")
	ErrNotFound   = New(http.StatusNotFound, "not_found", "", "Resource not found")
	ErrConflict   = New(http.StatusConflict, "conflict", "", "Resource already exists")
	ErrInternal   = New(http.StatusInternalServerError, "internal_error", "", "An internal error occurred")
)

// NewBadRequest creates a bad request error with a custom message.
func NewBadRequest(message string) *Error {
	return ErrBadRequest.WithMessage(message)
}

// NewNotFound creates a not found error for a resource type and ID.
func NewNotFound(resourceType, id string) *Error {
	return ErrNotFound.WithMessage(fmt.Sprintf("%s %q not found", resourceType, id))
}

// NewInternal wraps an internal error with a message.
func NewInternal(message string, err error) *Error {
	return ErrInternal.WithMessage(message).WithInternal(err)
}

// NewCheckpointIO builds a checkpoint-io error tagged with the failing
// operation ({save|load|clear}) and key, per spec §4.B.
func NewCheckpointIO(op, key string, err error) *Error {
	return ErrCheckpointIO.
		WithMessage(fmt.Sprintf("checkpoint %s failed for key %q", op, key)).
		WithInternal(err).
		WithDetails(map[string]any{"operation": op, "key": key})
}

// NewUserError surfaces an uncaught user-program error as-is.
func NewUserError(message string) *Error {
	return ErrUserError.WithMessage(message)
}
