package envguard

// TaintedSource guards a Source so that every read fails with a
// TaintViolation. Writes pass through to the wrapped source.
type TaintedSource struct {
	inner Source
}

// Taint returns the guarded view of src. Tainting a tainted source returns it
// unchanged.
func Taint(src Source) *TaintedSource {
	if t, ok := src.(*TaintedSource); ok {
		return t
	}
	return &TaintedSource{inner: src}
}

// Lookup always fails, whether or not key is present.
func (t *TaintedSource) Lookup(key string) (string, bool, error) {
	return "", false, &TaintViolation{Key: key}
}

// Set implements Source.
func (t *TaintedSource) Set(key, value string) error {
	return t.inner.Set(key, value)
}

// Unset implements Source.
func (t *TaintedSource) Unset(key string) error {
	return t.inner.Unset(key)
}

// Name implements Source.
func (t *TaintedSource) Name() string {
	return t.inner.Name() + " (tainted)"
}
