// Package snapshot produces detached deep copies of values so that resolved
// environments and configuration modules never share memory with their inputs.
package snapshot

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"
)

// Copy returns a deep copy of *src. Slices, maps and nested pointers are
// copied recursively. A nil src yields (nil, nil).
func Copy[T any](src *T) (*T, error) {
	if src == nil {
		return nil, nil
	}

	var dst T
	if err := deepcopy.Copy(&dst, src); err != nil {
		return nil, errors.Wrapf(err, "failed to deep copy type %T", src)
	}
	return &dst, nil
}

// MustCopy is Copy for values whose shape is known to be copyable. It panics
// on failure, which indicates a programming error rather than bad input.
func MustCopy[T any](src *T) *T {
	dst, err := Copy(src)
	if err != nil {
		panic("failed to create immutable snapshot: " + err.Error())
	}
	return dst
}

// Value deep copies a single dynamically typed value. The copy has the same
// dynamic type as v. A nil v is returned as nil.
func Value(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	dst := reflect.New(reflect.TypeOf(v))
	if err := deepcopy.Copy(dst.Interface(), v); err != nil {
		return nil, errors.Wrapf(err, "failed to deep copy value of type %T", v)
	}
	return dst.Elem().Interface(), nil
}

// Values deep copies every entry of src into a new map.
func Values(src map[string]any) (map[string]any, error) {
	dst := make(map[string]any, len(src))
	for key, v := range src {
		c, err := Value(v)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", key)
		}
		dst[key] = c
	}
	return dst, nil
}
