package render

import (
	"errors"
	"fmt"
)

var (
	// ErrNilSnapshot is returned when Render is called without a snapshot.
	ErrNilSnapshot = errors.New("no snapshot to render")
)

// RenderError wraps errors with the failing operation.
type RenderError struct {
	Op      string
	Err     error
	Details string
}

func (e *RenderError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("render: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("render: %s failed: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// WrapRenderError wraps err as a RenderError if it isn't already one.
func WrapRenderError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return err
	}
	return &RenderError{Op: op, Err: err, Details: details}
}
