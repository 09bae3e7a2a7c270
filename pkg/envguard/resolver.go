// Package envguard validates environment variables against declared
// validators and returns a typed, detached snapshot of the result.
//
// A typical start-up sequence:
//
//	env, err := envguard.Resolve(envguard.Declarations{
//	    "PORT":         envguard.Bare{Validator: schema.Port()},
//	    "DATABASE_URL": envguard.WithOptions{Validator: schema.String().NonEmpty(), Unset: true},
//	})
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Invalid environment")
//	}
//	envguard.TaintAmbient()
//
// After TaintAmbient every read through Ambient fails, so the rest of the
// program has to use env.
package envguard

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// resolveMu serializes read-validate-unset-taint across goroutines that may
// share the ambient source.
var resolveMu sync.Mutex

type options struct {
	source Source
	logger *zerolog.Logger
	taint  bool
}

// Option configures a single Resolve call.
type Option func(*options)

// WithSource validates src instead of the ambient environment. A supplied
// source is used even when it is empty. A nil src is ignored.
func WithSource(src Source) Option {
	return func(o *options) {
		if src != nil {
			o.source = src
		}
	}
}

// WithMap validates values instead of the ambient environment. Keys declared
// with Unset are deleted from values on success.
func WithMap(values map[string]string) Option {
	return WithSource(NewMapSource(values))
}

// WithLogger sets the logger that receives validation diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithTaint taints the ambient environment once resolution has succeeded.
func WithTaint() Option {
	return func(o *options) {
		o.taint = true
	}
}

// Resolve validates every declared key against the effective source and
// returns the parsed values.
//
// Resolution is all-or-nothing: if any key fails, a *ValidationError listing
// every failing key is returned and the source is left untouched. On success
// keys declared with Unset are removed from the effective source.
//
// A source that refuses a read, such as a tainted ambient environment, aborts
// the call with that error.
func Resolve(decls Declarations, opts ...Option) (*Env, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	resolveMu.Lock()
	defer resolveMu.Unlock()

	src := o.source
	if src == nil {
		src = Ambient()
	}

	validators, unset := normalize(decls)
	values := make(map[string]any, len(validators))
	fields := make(map[string][]string)

	for _, key := range sortedKeys(keysOf(validators)) {
		validator := validators[key]
		if validator == nil {
			fields[key] = []string{"no validator declared"}
			continue
		}

		raw, found, err := src.Lookup(key)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %q from %s environment", key, src.Name())
		}

		value, err := validator.Parse(raw, found)
		if err != nil {
			fields[key] = messages(err)
			continue
		}
		values[key] = value
	}

	if len(fields) > 0 {
		failure := &ValidationError{Fields: fields}
		report := zerolog.Dict()
		for _, key := range failure.Keys() {
			report.Strs(key, fields[key])
		}
		logger.Error().
			Str("source", src.Name()).
			Dict("fields", report).
			Msg("Error parsing environment variables")
		return nil, failure
	}

	env, err := newEnv(values)
	if err != nil {
		return nil, err
	}

	for _, key := range unset {
		deleteBestEffort(src, key, logger)
	}

	if o.taint {
		taintAmbient()
	}

	logger.Debug().
		Str("source", src.Name()).
		Int("variables", env.Len()).
		Int("unset", len(unset)).
		Msg("Environment resolved")
	return env, nil
}

// deleteBestEffort removes key from src. Failures are logged and ignored:
// a key that cannot be removed never turns a successful resolution into a
// failure.
func deleteBestEffort(src Source, key string, logger zerolog.Logger) {
	if err := src.Unset(key); err != nil {
		logger.Debug().
			Err(err).
			Str("env_var", key).
			Str("source", src.Name()).
			Msg("Could not unset environment variable, ignoring")
	}
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}
