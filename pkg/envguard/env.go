package envguard

import (
	"github.com/animalet/envguard/internal/snapshot"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Env is the validated, typed result of Resolve. It is a detached snapshot:
// later changes to the source, including unset keys, do not affect it.
type Env struct {
	values map[string]any
}

func newEnv(values map[string]any) (*Env, error) {
	copied, err := snapshot.Values(values)
	if err != nil {
		return nil, errors.Wrap(err, "failed to snapshot resolved environment")
	}
	return &Env{values: copied}, nil
}

// Get returns the parsed value for key. A declared optional key that was
// absent is present with a nil value.
func (e *Env) Get(key string) (any, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Has reports whether key was declared.
func (e *Env) Has(key string) bool {
	_, ok := e.values[key]
	return ok
}

// Keys returns the declared keys, sorted.
func (e *Env) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for key := range e.values {
		keys = append(keys, key)
	}
	return sortedKeys(keys)
}

// Len returns the number of declared keys.
func (e *Env) Len() int {
	return len(e.values)
}

// Map returns a deep copy of the resolved values.
func (e *Env) Map() map[string]any {
	// values were copyable when the snapshot was taken
	copied, err := snapshot.Values(e.values)
	if err != nil {
		panic(err)
	}
	return copied
}

// Lookup returns the value for key as T. A nil value (absent optional key)
// yields the zero T without error.
func Lookup[T any](e *Env, key string) (T, error) {
	var zero T
	v, ok := e.values[key]
	if !ok {
		return zero, errors.Wrapf(ErrUnknownKey, "key %q", key)
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("key %q holds %T, not %T", key, v, zero)
	}
	c, err := snapshot.Value(typed)
	if err != nil {
		return zero, err
	}
	return c.(T), nil
}

// MustGet is Lookup that panics on error.
func MustGet[T any](e *Env, key string) T {
	v, err := Lookup[T](e, key)
	if err != nil {
		panic(err)
	}
	return v
}

// Decode binds the resolved values into a new T using its yaml struct tags,
// keyed by variable name:
//
//	type AppEnv struct {
//	    Port    int           `yaml:"PORT"`
//	    Timeout time.Duration `yaml:"TIMEOUT"`
//	}
func Decode[T any](e *Env) (*T, error) {
	data, err := yaml.Marshal(e.values)
	if err != nil {
		return nil, errors.Wrap(err, "error marshalling resolved environment")
	}

	var out T
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrapf(err, "error decoding resolved environment into %T", out)
	}
	return &out, nil
}
