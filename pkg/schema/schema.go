// Package schema provides validators for environment variable values. Every
// validator satisfies envguard.Validator.
//
// A validator receives the raw string and whether the key was present at all.
// Missing keys fail unless the validator is wrapped in Optional or Default.
// Failure messages never include the raw value, which may be a secret.
package schema

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrRequired is the failure of any validator applied to an absent key.
var ErrRequired = errors.New("required")

// Validator is the contract every schema satisfies. It matches
// envguard.Validator.
type Validator interface {
	Parse(value string, present bool) (any, error)
}

// Issues collects several failure messages for one value.
type Issues []string

func (i Issues) Error() string {
	return strings.Join(i, ", ")
}

// Messages returns the individual messages.
func (i Issues) Messages() []string {
	return i
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc func(value string, present bool) (any, error)

// Parse calls f.
func (f ValidatorFunc) Parse(value string, present bool) (any, error) {
	return f(value, present)
}

// Func builds a validator for a required key from a typed parse function.
func Func[T any](parse func(string) (T, error)) Validator {
	return ValidatorFunc(func(value string, present bool) (any, error) {
		if !present {
			return nil, ErrRequired
		}
		v, err := parse(value)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Literal accepts exactly want.
func Literal(want string) Validator {
	return Func(func(value string) (string, error) {
		if value != want {
			return "", errors.Errorf("must be exactly %q", want)
		}
		return value, nil
	})
}

// Enum accepts one of allowed.
func Enum(allowed ...string) Validator {
	return Func(func(value string) (string, error) {
		for _, a := range allowed {
			if value == a {
				return value, nil
			}
		}
		return "", errors.Errorf("must be one of [%s]", strings.Join(allowed, ", "))
	})
}

// Optional lets key be absent, in which case the result is nil. A present
// value is delegated to v.
func Optional(v Validator) Validator {
	return ValidatorFunc(func(value string, present bool) (any, error) {
		if !present {
			return nil, nil
		}
		return v.Parse(value, true)
	})
}

// Default parses raw with v when the key is absent.
func Default(v Validator, raw string) Validator {
	return ValidatorFunc(func(value string, present bool) (any, error) {
		if !present {
			return v.Parse(raw, true)
		}
		return v.Parse(value, true)
	})
}
