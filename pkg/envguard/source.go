package envguard

import (
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Source is a mutable string-to-string environment mapping.
//
// Implementations:
//   - the process environment, reachable through Ambient
//   - MapSource: a caller-supplied map
//   - TaintedSource: a guard that rejects every read
type Source interface {
	// Lookup returns the value stored under key and whether it was present.
	// A non-nil error means the source refused the read.
	Lookup(key string) (value string, found bool, err error)

	// Set stores value under key.
	Set(key, value string) error

	// Unset removes key. Removing an absent key is not an error.
	Unset(key string) error

	// Name returns a human-readable name of the source for logging.
	Name() string
}

// processSource reads and writes the environment of the running process.
type processSource struct{}

func (processSource) Lookup(key string) (string, bool, error) {
	value, found := os.LookupEnv(key)
	return value, found, nil
}

func (processSource) Set(key, value string) error {
	return errors.Wrapf(os.Setenv(key, value), "failed to set environment variable %q", key)
}

func (processSource) Unset(key string) error {
	return errors.Wrapf(os.Unsetenv(key), "failed to unset environment variable %q", key)
}

func (processSource) Name() string {
	return "process"
}

// MapSource is a Source backed by a map owned by the caller. The map is used
// by reference: Set and Unset are visible to the caller.
type MapSource struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMapSource wraps values. A nil map is replaced by an empty one.
func NewMapSource(values map[string]string) *MapSource {
	if values == nil {
		values = make(map[string]string)
	}
	return &MapSource{values: values}
}

// Lookup implements Source.
func (m *MapSource) Lookup(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, found := m.values[key]
	return value, found, nil
}

// Set implements Source.
func (m *MapSource) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Unset implements Source.
func (m *MapSource) Unset(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Name implements Source.
func (m *MapSource) Name() string {
	return "map"
}

// Len returns the number of keys currently held.
func (m *MapSource) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Keys returns the keys currently held, sorted.
func (m *MapSource) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	return sortedKeys(keys)
}

func sortedKeys(keys []string) []string {
	sort.Strings(keys)
	return keys
}
