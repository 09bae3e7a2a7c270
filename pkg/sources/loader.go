// Package sources loads environment sources from secret stores so that they
// can be validated with envguard.WithSource.
//
// Every store is modelled the same way: a config struct with Validate and
// CreateClient, and a Loader built around the resulting client.
package sources

import (
	"context"
	"fmt"

	"github.com/animalet/envguard/pkg/envguard"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Loader reads a complete key-value snapshot from a backing store.
type Loader interface {
	// Load returns every key the store holds for this loader.
	Load(ctx context.Context) (map[string]string, error)

	// Name returns a human-readable name for this loader (for logging/debugging)
	Name() string
}

// Merge loads every loader in order into a single MapSource. Keys loaded by
// later loaders override earlier ones. The first failing loader aborts the
// merge.
func Merge(ctx context.Context, loaders ...Loader) (*envguard.MapSource, error) {
	merged := make(map[string]string)
	for _, loader := range loaders {
		values, err := loader.Load(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load environment from %s", loader.Name())
		}
		for key, value := range values {
			merged[key] = value
		}
		log.Debug().
			Str("loader", loader.Name()).
			Int("keys", len(values)).
			Msg("Loaded environment source")
	}
	return envguard.NewMapSource(merged), nil
}

// stringValues flattens a decoded secret payload. Non-string scalars are
// formatted with fmt.Sprint and null entries are dropped.
func stringValues(data map[string]interface{}) map[string]string {
	values := make(map[string]string, len(data))
	for key, raw := range data {
		switch value := raw.(type) {
		case string:
			values[key] = value
		case nil:
			continue
		default:
			values[key] = fmt.Sprint(value)
		}
	}
	return values
}
