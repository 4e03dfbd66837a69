package session

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey is returned for a blank session key.
	ErrEmptyKey = errors.New("session key is empty")

	// ErrNoSnapshot is returned when saving a state without a snapshot.
	ErrNoSnapshot = errors.New("session state has no snapshot")

	// ErrUnknownBackend is returned for a backend other than memory, sqlite or redis.
	ErrUnknownBackend = errors.New("unknown session backend")
)

// SessionError wraps a store failure with the operation that caused it.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("session: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("session: %s failed: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// WrapSessionError wraps err as a SessionError if it isn't already one.
func WrapSessionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return err
	}
	return &SessionError{Op: op, Err: err, Details: details}
}
