package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures that can occur during a labeling session.
// Every kind is recoverable: the state machine converts it to a message and
// stays in (or regresses to) a safe stage.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindIO
	KindSchema
	KindSerialization
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindSchema:
		return "schema"
	case KindSerialization:
		return "serialization"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every core operation.
type Error struct {
	Kind ErrorKind
	Op   string // operation that failed, e.g. "load records"
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func ioError(op string, err error) *Error {
	return newError(KindIO, op, err)
}

func schemaError(op string, format string, args ...any) *Error {
	return newError(KindSchema, op, fmt.Errorf(format, args...))
}

func serializationError(op string, err error) *Error {
	return newError(KindSerialization, op, err)
}

func validationError(op string, format string, args ...any) *Error {
	return newError(KindValidation, op, fmt.Errorf(format, args...))
}

// KindOf reports the ErrorKind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Sentinel causes wrapped by validation errors so callers can test with errors.Is.
var (
	ErrEmptyUsername   = errors.New("username is required")
	ErrNoFile          = errors.New("no file selected")
	ErrInvalidFileName = errors.New("invalid file name")
	ErrInvalidUsername = errors.New("invalid username")
	ErrFileCompleted   = errors.New("file already completed")
	ErrEmptyTable      = errors.New("file has no records")
	ErrNoSentiment     = errors.New("no sentiment selected")
	ErrWrongStage      = errors.New("action not allowed in current stage")
	ErrNoSnapshot      = errors.New("no saved progress")
	ErrSnapshotInvalid = errors.New("saved progress does not match file")
)
