package photo

import (
	"errors"
	"fmt"
)

// Kind classifies why a photo operation failed.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindStorage       Kind = "storage"
	KindDatabase      Kind = "database"
	KindLimitExceeded Kind = "limit_exceeded"
	KindNotFound      Kind = "not_found"
)

// Reason narrows a validation failure.
type Reason string

const (
	ReasonFileTooLarge    Reason = "FileTooLarge"
	ReasonUnsupportedType Reason = "UnsupportedType"
)

// Error is returned by every Manager operation that fails.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("[%s/%s] %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not a photo error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// ReasonOf returns the validation Reason of err, if any.
func ReasonOf(err error) Reason {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return ""
}

func validationError(reason Reason, msg string) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: msg}
}

// storageError and databaseError surface the underlying message as-is.
func storageError(err error) *Error {
	return &Error{Kind: KindStorage, Message: err.Error(), Err: err}
}

func databaseError(err error) *Error {
	return &Error{Kind: KindDatabase, Message: err.Error(), Err: err}
}

func notFoundError(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

func limitError() *Error {
	return &Error{
		Kind:    KindLimitExceeded,
		Message: fmt.Sprintf("Maximum %d photos allowed per room", MaxPhotosPerRoom),
		Err:     ErrLimitExceeded,
	}
}
