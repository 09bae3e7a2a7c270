package envguard

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidEnvironment is wrapped by every ValidationError.
	ErrInvalidEnvironment = errors.New("error parsing environment variables")

	// ErrTainted is wrapped by every TaintViolation.
	ErrTainted = errors.New("environment source is tainted")

	// ErrUnknownKey is returned by typed accessors for keys that were never declared.
	ErrUnknownKey = errors.New("key not present in resolved environment")
)

// ValidationError reports every declared key that failed validation.
type ValidationError struct {
	// Fields maps each failing key to its failure messages.
	Fields map[string][]string
}

// Error lists the failing fields in key order.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, key := range e.Keys() {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(e.Fields[key], ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidEnvironment.Error(), strings.Join(parts, "; "))
}

// Unwrap returns ErrInvalidEnvironment.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidEnvironment
}

// Keys returns the failing keys, sorted.
func (e *ValidationError) Keys() []string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	return sortedKeys(keys)
}

// TaintViolation is returned by every read of a tainted source.
type TaintViolation struct {
	Key string
}

func (e *TaintViolation) Error() string {
	return fmt.Sprintf("cannot directly access environment variable %s: use the resolved environment instead", e.Key)
}

// Unwrap returns ErrTainted.
func (e *TaintViolation) Unwrap() error {
	return ErrTainted
}

// messages extracts the failure messages of a validator error.
func messages(err error) []string {
	var m interface{ Messages() []string }
	if errors.As(err, &m) {
		if msgs := m.Messages(); len(msgs) > 0 {
			return msgs
		}
	}
	return []string{err.Error()}
}
