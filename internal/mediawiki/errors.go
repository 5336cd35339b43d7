package mediawiki

import (
	"errors"
	"fmt"
)

// ErrNoRevisions is returned when a page detail carries no revision data.
var ErrNoRevisions = errors.New("page has no revisions")

// TransientError marks a fetch failure that is worth retrying: network
// errors, HTTP 429 and 5xx. The client retries these with backoff and
// returns the final TransientError once attempts are exhausted.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient fetch failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a non-retryable fetch failure: 4xx responses other
// than 429. Surfaced immediately without retry.
type FatalError struct {
	StatusCode int
	Err        error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal fetch failure (status %d): %v", e.StatusCode, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
