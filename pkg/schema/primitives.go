package schema

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// StringSchema validates free-form strings. The zero value accepts any
// present string, including "".
type StringSchema struct {
	minLen  int
	maxLen  int
	hasMax  bool
	pattern *regexp.Regexp
}

// String returns a validator for any present string.
func String() StringSchema {
	return StringSchema{}
}

// MinLen requires at least n bytes.
func (s StringSchema) MinLen(n int) StringSchema {
	s.minLen = n
	return s
}

// MaxLen allows at most n bytes.
func (s StringSchema) MaxLen(n int) StringSchema {
	s.maxLen = n
	s.hasMax = true
	return s
}

// NonEmpty rejects "".
func (s StringSchema) NonEmpty() StringSchema {
	return s.MinLen(1)
}

// Match requires the value to match re.
func (s StringSchema) Match(re *regexp.Regexp) StringSchema {
	s.pattern = re
	return s
}

// Parse implements Validator.
func (s StringSchema) Parse(value string, present bool) (any, error) {
	if !present {
		return nil, ErrRequired
	}

	var issues Issues
	if len(value) < s.minLen {
		issues = append(issues, "must contain at least "+strconv.Itoa(s.minLen)+" character(s)")
	}
	if s.hasMax && len(value) > s.maxLen {
		issues = append(issues, "must contain at most "+strconv.Itoa(s.maxLen)+" character(s)")
	}
	if s.pattern != nil && !s.pattern.MatchString(value) {
		issues = append(issues, "must match pattern "+s.pattern.String())
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return value, nil
}

// IntSchema validates base-10 integers and yields int.
type IntSchema struct {
	min, max       int
	hasMin, hasMax bool
}

// Int returns a validator for any integer.
func Int() IntSchema {
	return IntSchema{}
}

// Port accepts TCP/UDP port numbers.
func Port() IntSchema {
	return Int().Min(1).Max(65535)
}

// Min sets the inclusive lower bound.
func (s IntSchema) Min(n int) IntSchema {
	s.min, s.hasMin = n, true
	return s
}

// Max sets the inclusive upper bound.
func (s IntSchema) Max(n int) IntSchema {
	s.max, s.hasMax = n, true
	return s
}

// Parse implements Validator.
func (s IntSchema) Parse(value string, present bool) (any, error) {
	if !present {
		return nil, ErrRequired
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, errors.New("must be an integer")
	}
	if s.hasMin && n < s.min {
		return nil, errors.Errorf("must be greater than or equal to %d", s.min)
	}
	if s.hasMax && n > s.max {
		return nil, errors.Errorf("must be less than or equal to %d", s.max)
	}
	return n, nil
}

// Float accepts decimal numbers and yields float64.
func Float() Validator {
	return Func(func(value string) (float64, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, errors.New("must be a number")
		}
		return f, nil
	})
}

// Bool accepts the forms understood by strconv.ParseBool.
func Bool() Validator {
	return Func(func(value string) (bool, error) {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return false, errors.New("must be a boolean")
		}
		return b, nil
	})
}

// Duration accepts time.ParseDuration syntax such as "1m30s".
func Duration() Validator {
	return Func(func(value string) (time.Duration, error) {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return 0, errors.New("must be a duration")
		}
		return d, nil
	})
}

// List splits the value on sep, trims each element and drops empty ones.
// The result is []string. An empty sep means ",".
func List(sep string) Validator {
	if sep == "" {
		sep = ","
	}
	return Func(func(value string) ([]string, error) {
		items := make([]string, 0)
		for _, part := range strings.Split(value, sep) {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items, nil
	})
}

// YAML decodes a YAML (or JSON) document held in the variable into T.
func YAML[T any]() Validator {
	return Func(func(value string) (T, error) {
		var out T
		if err := yaml.Unmarshal([]byte(value), &out); err != nil {
			return out, errors.Errorf("must be a valid YAML document for %T", out)
		}
		return out, nil
	})
}
