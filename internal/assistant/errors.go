package assistant

import "errors"

// TransientError marks a failure that may succeed on retry: rate limits,
// gateway errors, transport failures.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

// NewTransient wraps an error as retryable.
func NewTransient(err error) error {
	return &TransientError{err: err}
}

// FatalError marks a failure retrying cannot fix: bad requests, auth
// failures, malformed configuration.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

// NewFatal wraps an error as non-retryable.
func NewFatal(err error) error {
	return &FatalError{err: err}
}

// IsTransient reports whether the error should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether retrying the error is pointless.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
