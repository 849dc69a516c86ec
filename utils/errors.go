package utils

import (
	"errors"
	"fmt"
)

// ErrNoChannels reports an aggregate requested over zero eligible channels.
// Callers treat this as a named condition, not a failure: a composer
// substitutes documented fallback values instead of reporting a false zero.
var ErrNoChannels = errors.New("no eligible channels")

// ErrNoSamples reports a field with zero non-nil contributors within a
// non-empty eligible channel set.
var ErrNoSamples = errors.New("no samples for field")

// DecodeError reports a required field on a single channel record that could
// not be parsed at all. It carries the raw input so a vendor firmware change
// can be diagnosed from logs alone. Sibling records are unaffected.
type DecodeError struct {
	Reading string
	Field   string
	Value   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: cannot decode required field %q from %q", e.Reading, e.Field, e.Value)
}

// SchemaError reports a payload whose overall shape does not match the
// reading type. Fatal for that reading only.
type SchemaError struct {
	Reading string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: payload schema mismatch: %s", e.Reading, e.Reason)
}
