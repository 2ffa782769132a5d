package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrRepositoryExists    = errors.New("repository already exists")
	ErrNotFound            = errors.New("resource not found")
	ErrResourceExists      = errors.New("resource already exists")
	ErrIllegalResourceName = errors.New("illegal resource name")
	ErrIllegalAuthor       = errors.New("illegal author")
	ErrUnchanged           = errors.New("resource unchanged")
	ErrUnknown             = errors.New("unknown error")
)

// UnknownError wraps backend failures that have no more specific kind:
// tool failures, unparseable output, unexpected exit statuses.
// It matches ErrUnknown with errors.Is.
type UnknownError struct {
	Op     string
	Detail string
	Err    error
}

func (e *UnknownError) Error() string {
	msg := "unknown error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *UnknownError) Unwrap() error { return e.Err }

func (e *UnknownError) Is(target error) bool { return target == ErrUnknown }

// Unknown builds an UnknownError.
func Unknown(op, detail string, err error) error {
	return &UnknownError{Op: op, Detail: detail, Err: err}
}
