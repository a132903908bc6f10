package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of a download request
type ErrorKind string

const (
	// KindValidation is malformed or missing user input
	KindValidation ErrorKind = "validation"
	// KindExtraction is a failed metadata probe
	KindExtraction ErrorKind = "extraction"
	// KindDownload is a failed or oversized transfer
	KindDownload ErrorKind = "download"
	// KindUpload is a platform-side send failure
	KindUpload ErrorKind = "upload"
	// KindPersistence is a usage counter load or save failure
	KindPersistence ErrorKind = "persistence"
)

// Error carries the kind of a failure and the operation that produced it
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and operation name
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// NewValidationError builds a validation error with a user-facing message
func NewValidationError(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: errors.New(msg)}
}

// Errorf builds an error of the given kind from a format string
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, or "" if err carries none
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
