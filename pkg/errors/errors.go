package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error. Business-rule rejections are
// expected outcomes the caller can act on; they are never retried by
// the engine itself.
type Kind string

const (
	KindConfiguration     Kind = "configuration_error"
	KindIneligiblePatient Kind = "ineligible_patient"
	KindWindowClosed      Kind = "window_closed"
	KindSlotFull          Kind = "slot_full"
	KindSlotDisabled      Kind = "slot_disabled"
	KindDuplicateBooking  Kind = "duplicate_booking"
	KindOverlapConflict   Kind = "overlap_conflict"
	KindStoreUnavailable  Kind = "store_unavailable"
	KindCommitConflict    Kind = "commit_conflict"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindBadRequest        Kind = "bad_request"
	KindInternal          Kind = "internal"
)

// AppError carries a kind, a human message, and enough structured
// detail for the caller to render an actionable response. A rejection
// is never a bare boolean.
type AppError struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap builds an AppError around an underlying cause.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// WithDetail attaches a structured detail field and returns the error
// for chaining.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// KindOf extracts the kind from err, or KindInternal when err is not
// an AppError.
func KindOf(err error) Kind {
	var app *AppError
	if errors.As(err, &app) {
		return app.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func NotFound(resource string, err error) *AppError {
	return Wrap(KindNotFound, fmt.Sprintf("%s not found", resource), err)
}

func BadRequest(message string, err error) *AppError {
	return Wrap(KindBadRequest, message, err)
}

func Internal(err error) *AppError {
	return Wrap(KindInternal, "internal error", err)
}

func StoreUnavailable(err error) *AppError {
	return Wrap(KindStoreUnavailable, "store unavailable", err)
}
