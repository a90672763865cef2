package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStoreUnavailable marks storage-level failures (connection refused,
// database locked beyond retry, ...). Reads hitting it are idempotent and
// safe for the caller to retry with backoff.
var ErrStoreUnavailable = errors.New("store unavailable")

// ValidationError rejects a malformed mutation before it reaches the store.
// Either Fields (missing required fields) or Message is set.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
	}
	return e.Message
}

// NotFoundError reports an absent entity by key.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
