package envguard

// Validator parses and validates the raw value of a single environment
// variable. present is false when the key is absent from the source.
//
// A returned error is reported against the key. Errors that also implement
// Messages() []string contribute one entry per message.
type Validator interface {
	Parse(value string, present bool) (any, error)
}

// Declaration describes how one environment variable is validated and what
// happens to it afterwards. It is a closed union of Bare and WithOptions.
type Declaration interface {
	declaration()
}

// Declarations maps environment variable names to their declarations.
type Declarations map[string]Declaration

// Bare declares a variable that is only validated.
type Bare struct {
	Validator Validator
}

// WithOptions declares a variable with post-validation behaviour.
type WithOptions struct {
	Validator Validator
	// Unset removes the key from the effective source once the whole
	// resolution has succeeded.
	Unset bool
}

func (Bare) declaration()        {}
func (WithOptions) declaration() {}

// normalize flattens declarations into a validator-only schema and returns the
// keys marked for removal, sorted. Unknown or nil declarations map to a nil
// validator, which Resolve reports as a field failure.
func normalize(decls Declarations) (map[string]Validator, []string) {
	validators := make(map[string]Validator, len(decls))
	var unset []string

	for key, decl := range decls {
		var opts WithOptions
		switch d := decl.(type) {
		case Bare:
			opts.Validator = d.Validator
		case *Bare:
			if d != nil {
				opts.Validator = d.Validator
			}
		case WithOptions:
			opts = d
		case *WithOptions:
			if d != nil {
				opts = *d
			}
		}

		validators[key] = opts.Validator
		if opts.Unset {
			unset = append(unset, key)
		}
	}

	return validators, sortedKeys(unset)
}
