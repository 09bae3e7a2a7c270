// Package config reads envguard declaration files.
//
// A declaration file is a YAML or TOML document made of top-level modules.
// Each module is kept as raw bytes until it is requested with Get, which
// decodes it into a typed struct, expands ${VAR} references through the
// ambient environment, validates it and returns an immutable snapshot.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/animalet/envguard/internal/snapshot"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Config holds the modules of one declaration file, keyed by module name.
	Config struct {
		modules map[string]ModuleRawConfig
	}

	// ModuleRawConfig is the undecoded YAML body of one module.
	ModuleRawConfig []byte
)

// Validatable is implemented by every module type that Get can return.
type Validatable interface {
	Validate() error
}

// ClientFactory is a module configuration that can build a client for the
// store it describes, such as a Vault API client or a Redis pool.
//
// Example implementations:
//   - sources.VaultConfig implements ClientFactory[*api.Client]
//   - sources.RedisConfig implements ClientFactory[*redis.Pool]
type ClientFactory[T any] interface {
	Validatable
	// CreateClient creates and configures a client from the config details.
	CreateClient() (T, error)
}

// NewConfig reads a declaration file. The format is taken from the extension:
// .yaml and .yml are YAML, .toml is TOML.
//
// Parameters:
//   - path: Path to the declaration file
//
// Returns:
//   - *Config: The modules found in the file
//   - error: Error if the file cannot be read, has an unknown extension or cannot be parsed
func NewConfig(path string) (*Config, error) {
	// #nosec G304 -- the path is chosen by the operator running the tool
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading configuration file %q", path)
	}

	var modules map[string]ModuleRawConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		modules, err = parseYAML(data)
	case ".toml":
		modules, err = parseTOML(data)
	default:
		return nil, errors.Errorf("unsupported configuration format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing configuration file %q", path)
	}

	if modules == nil {
		modules = make(map[string]ModuleRawConfig)
	}
	return &Config{modules: modules}, nil
}

func parseYAML(data []byte) (map[string]ModuleRawConfig, error) {
	var modules map[string]ModuleRawConfig
	if err := yaml.Unmarshal(data, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// parseTOML decodes the document generically and re-encodes every module as
// YAML so that Get works the same for both formats.
func parseTOML(data []byte) (map[string]ModuleRawConfig, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	modules := make(map[string]ModuleRawConfig, len(doc))
	for name, body := range doc {
		raw, err := yaml.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "error converting module %q", name)
		}
		modules[name] = raw
	}
	return modules, nil
}

// Has reports whether the file declares the module.
func (c *Config) Has(key string) bool {
	_, found := c.modules[key]
	return found
}

// Modules returns the declared module names in sorted order.
func (c *Config) Modules() []string {
	names := make([]string, 0, len(c.modules))
	for name := range c.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get decodes the module stored under key into T.
//
// Returns:
//   - *T: A detached copy of the module, or nil if the file does not declare it
//   - error: Error if decoding, expansion or validation fails
func Get[T Validatable](cfg *Config, key string) (*T, error) {
	raw, found := cfg.modules[key]
	if !found {
		return nil, nil
	}

	module, err := Unmarshal[T](raw)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading module %q", key)
	}
	return module, nil
}

// Unmarshal decodes raw YAML into T, expands ${VAR} references in every
// string field and validates the result.
func Unmarshal[T Validatable](raw ModuleRawConfig) (*T, error) {
	var result T
	if err := yaml.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, "error decoding configuration")
	}

	if err := expandVariables(&result); err != nil {
		return nil, err
	}

	if err := result.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration is invalid")
	}

	return snapshot.Copy(&result)
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
// It marshals the provided yaml.Node back into a YAML byte slice.
func (m *ModuleRawConfig) UnmarshalYAML(value *yaml.Node) error {
	out, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	*m = out
	return nil
}
