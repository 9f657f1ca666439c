package extract

import (
	"errors"
	"fmt"
)

// TransientError marks an extraction failure worth retrying: network
// faults, server errors, provider rate limiting.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient extraction error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// FatalError marks an extraction failure that no retry can fix: bad
// credentials, a rejected request, an unexpected response shape.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal extraction error: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Transientf wraps a formatted error as transient
func Transientf(format string, args ...interface{}) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// Fatalf wraps a formatted error as fatal
func Fatalf(format string, args ...interface{}) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err is a retryable extraction failure
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsFatal reports whether err is a non-retryable extraction failure
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
