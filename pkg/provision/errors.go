package provision

import (
	"errors"
)

// Error describes a failed provisioning operation.
type Error struct {
	// Op is the provisioning operation, e.g. "create_account".
	Op string
	// Target identifies the account or group the operation acted on.
	Target string
	// Detail is a human-readable description of the failure.
	Detail string
	// Timeout marks a reconciliation that gave up waiting for the
	// directory to converge.
	Timeout bool
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a reconciliation timeout.
func IsTimeout(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Timeout
}

// ErrAccountNotFound is returned when an operation targets an account the
// directory does not know.
var ErrAccountNotFound = errors.New("account not found")

// ErrGroupNotFound is returned when an operation targets a group the
// directory does not know.
var ErrGroupNotFound = errors.New("group not found")

func opError(op, target string, err error) *Error {
	return &Error{Op: op, Target: target, Err: err}
}

func timeoutError(op, target string, err error) *Error {
	return &Error{
		Op:      op,
		Target:  target,
		Detail:  "directory did not converge within the reconcile window",
		Timeout: true,
		Err:     err,
	}
}
