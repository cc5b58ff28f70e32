package provider

import (
	"errors"
	"fmt"
)

var (
	ErrDisposed         = errors.New("provider disposed")
	ErrNoSignaling      = errors.New("no signaling servers")
	ErrNoRoom           = errors.New("room id is empty")
	ErrConnectionFailed = errors.New("connection failed")
)

// SessionError records which step of a sharing session failed.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
