package config

import (
	"os"
	"reflect"
	"strings"

	"github.com/animalet/envguard/pkg/envguard"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// expander resolves ${VAR} references against an environment source. The
// first lookup error is kept and every later reference expands to "".
type expander struct {
	source envguard.Source
	err    error
}

func (e *expander) lookup(name string) string {
	if e.err != nil {
		return ""
	}

	value, found, err := e.source.Lookup(name)
	if err != nil {
		e.err = errors.Wrapf(err, "error expanding %q", name)
		return ""
	}
	if !found {
		log.Warn().Str("env_var", name).Msg("Environment variable referenced in configuration is not set")
		return ""
	}
	return value
}

// verbatimModule is implemented by module types whose strings are
// taken as written.
type verbatimModule interface {
	verbatim()
}

// expandVariables expands ${VAR} and $VAR references in every string
// reachable from ptr, which must be a pointer. References are looked up in
// the ambient environment, so a tainted ambient makes expansion fail.
func expandVariables(ptr any) error {
	if _, ok := ptr.(verbatimModule); ok {
		return nil
	}
	e := &expander{source: envguard.Ambient()}
	e.walk(reflect.ValueOf(ptr).Elem())
	return e.err
}

// walk recursively traverses the fields of a value and expands string fields.
// It handles nested structs, pointers, interfaces, slices, and maps.
func (e *expander) walk(val reflect.Value) {
	switch val.Kind() {
	case reflect.String:
		if val.CanSet() {
			val.SetString(os.Expand(strings.TrimSpace(val.String()), e.lookup))
		}
	case reflect.Struct:
		for i := 0; i < val.NumField(); i++ {
			e.walk(val.Field(i))
		}
	case reflect.Ptr:
		if !val.IsNil() {
			e.walk(val.Elem())
		}
	case reflect.Interface:
		if val.IsNil() || !val.CanSet() {
			return
		}
		// interface contents are not addressable
		elem := reflect.New(val.Elem().Type()).Elem()
		elem.Set(val.Elem())
		e.walk(elem)
		val.Set(elem)
	case reflect.Slice:
		for j := 0; j < val.Len(); j++ {
			e.walk(val.Index(j))
		}
	case reflect.Map:
		for _, key := range val.MapKeys() {
			// Create a new addressable value of the same type
			newVal := reflect.New(val.Type().Elem()).Elem()
			newVal.Set(val.MapIndex(key))
			e.walk(newVal)
			val.SetMapIndex(key, newVal)
		}
	default:
		return
	}
}
