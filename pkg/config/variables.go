package config

import (
	"regexp"
	"sort"

	"github.com/animalet/envguard/pkg/envguard"
	"github.com/animalet/envguard/pkg/schema"
	"github.com/pkg/errors"
)

// Variable types understood by VariableSpec.
const (
	TypeString   = "string"
	TypeInt      = "int"
	TypePort     = "port"
	TypeFloat    = "float"
	TypeBool     = "bool"
	TypeDuration = "duration"
	TypeList     = "list"
	TypeLiteral  = "literal"
	TypeEnum     = "enum"
	TypeYAML     = "yaml"
)

type (
	// Variables is the "variables" module: one VariableSpec per environment key.
	Variables map[string]VariableSpec

	// VariableSpec declares how one environment variable is validated.
	// Type defaults to "string".
	VariableSpec struct {
		Type      string   `yaml:"type"`
		MinLen    *int     `yaml:"min_len,omitempty"`
		MaxLen    *int     `yaml:"max_len,omitempty"`
		Pattern   string   `yaml:"pattern,omitempty"`
		Min       *int     `yaml:"min,omitempty"`
		Max       *int     `yaml:"max,omitempty"`
		Values    []string `yaml:"values,omitempty"`
		Value     *string  `yaml:"value,omitempty"`
		Separator string   `yaml:"separator,omitempty"`
		Optional  bool     `yaml:"optional,omitempty"`
		Default   *string  `yaml:"default,omitempty"`
		Unset     bool     `yaml:"unset,omitempty"`
	}
)

// Validate checks every VariableSpec. The first invalid variable, in key
// order, is reported.
func (v Variables) Validate() error {
	if len(v) == 0 {
		return errors.New("at least one variable must be declared")
	}
	for _, key := range v.keys() {
		if err := v[key].Validate(); err != nil {
			return errors.Wrapf(err, "variable %q", key)
		}
	}
	return nil
}

// Declarations converts the variables into envguard declarations. Variables with
// unset set become WithOptions declarations.
func (v Variables) Declarations() (envguard.Declarations, error) {
	decls := make(envguard.Declarations, len(v))
	for _, key := range v.keys() {
		validator, err := v[key].Validator()
		if err != nil {
			return nil, errors.Wrapf(err, "variable %q", key)
		}
		if v[key].Unset {
			decls[key] = envguard.WithOptions{Validator: validator, Unset: true}
		} else {
			decls[key] = envguard.Bare{Validator: validator}
		}
	}
	return decls, nil
}

// Unset returns the sorted keys whose values are removed after resolution.
func (v Variables) Unset() []string {
	var keys []string
	for _, key := range v.keys() {
		if v[key].Unset {
			keys = append(keys, key)
		}
	}
	return keys
}

// verbatim keeps literals, enum values, defaults and patterns free of ${VAR}
// expansion.
func (Variables) verbatim() {}

func (v Variables) keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s VariableSpec) kind() string {
	if s.Type == "" {
		return TypeString
	}
	return s.Type
}

// Validate checks that the options fit the declared type.
func (s VariableSpec) Validate() error {
	kind := s.kind()
	switch kind {
	case TypeString, TypeInt, TypePort, TypeFloat, TypeBool, TypeDuration, TypeList, TypeYAML:
	case TypeLiteral:
		if s.Value == nil {
			return errors.New("literal type requires value")
		}
	case TypeEnum:
		if len(s.Values) == 0 {
			return errors.New("enum type requires at least one entry in values")
		}
	default:
		return errors.Errorf("unknown type %q", s.Type)
	}

	if kind != TypeString && (s.MinLen != nil || s.MaxLen != nil || s.Pattern != "") {
		return errors.Errorf("min_len, max_len and pattern only apply to %s variables", TypeString)
	}
	if kind != TypeInt && kind != TypePort && (s.Min != nil || s.Max != nil) {
		return errors.Errorf("min and max only apply to %s and %s variables", TypeInt, TypePort)
	}
	if kind != TypeList && s.Separator != "" {
		return errors.Errorf("separator only applies to %s variables", TypeList)
	}
	if s.MinLen != nil && *s.MinLen < 0 {
		return errors.New("min_len must be non-negative")
	}
	if s.MinLen != nil && s.MaxLen != nil && *s.MinLen > *s.MaxLen {
		return errors.New("min_len must not exceed max_len")
	}
	if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
		return errors.New("min must not exceed max")
	}
	if s.Pattern != "" {
		if _, err := regexp.Compile(s.Pattern); err != nil {
			return errors.Wrap(err, "invalid pattern")
		}
	}
	if s.Optional && s.Default != nil {
		return errors.New("optional and default are mutually exclusive")
	}
	return nil
}

// Validator builds the schema validator described by s.
func (s VariableSpec) Validator() (schema.Validator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var v schema.Validator
	switch s.kind() {
	case TypeString:
		str := schema.String()
		if s.MinLen != nil {
			str = str.MinLen(*s.MinLen)
		}
		if s.MaxLen != nil {
			str = str.MaxLen(*s.MaxLen)
		}
		if s.Pattern != "" {
			str = str.Match(regexp.MustCompile(s.Pattern))
		}
		v = str
	case TypeInt, TypePort:
		num := schema.Int()
		if s.kind() == TypePort {
			num = schema.Port()
		}
		if s.Min != nil {
			num = num.Min(*s.Min)
		}
		if s.Max != nil {
			num = num.Max(*s.Max)
		}
		v = num
	case TypeFloat:
		v = schema.Float()
	case TypeBool:
		v = schema.Bool()
	case TypeDuration:
		v = schema.Duration()
	case TypeList:
		v = schema.List(s.Separator)
	case TypeLiteral:
		v = schema.Literal(*s.Value)
	case TypeEnum:
		v = schema.Enum(s.Values...)
	case TypeYAML:
		v = schema.YAML[any]()
	}

	switch {
	case s.Default != nil:
		v = schema.Default(v, *s.Default)
	case s.Optional:
		v = schema.Optional(v)
	}
	return v, nil
}
