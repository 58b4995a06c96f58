package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// ErrMalformedSection is returned when a stored section cannot be decoded.
var ErrMalformedSection = errors.New("malformed settings section")

// ServerOwnedFields are bookkeeping columns the backend may include in a
// section payload. They are never loaded into, or sent from, the aggregate.
var ServerOwnedFields = []string{"id", "repository_id", "created_at", "updated_at"}

// Values holds the field values of one section keyed by wire field name.
type Values map[string]any

// Bool returns the boolean value of a field, false if unset or not a bool.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// String returns the string value of a field. A null nullable string
// returns "".
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Int returns the integer value of a field, 0 if unset.
func (v Values) Int(name string) int {
	n, _ := v[name].(int)
	return n
}

// IsNull reports whether a field holds an explicit null.
func (v Values) IsNull(name string) bool {
	val, ok := v[name]
	return ok && val == nil
}

// Aggregate is the complete set of settings for one repository: every
// section, every field.
type Aggregate map[Section]Values

// Defaults returns a fresh, complete aggregate populated with every field's
// default value.
func Defaults() Aggregate {
	agg := make(Aggregate, len(schema))
	for _, s := range Sections() {
		agg[s] = SectionDefaults(s)
	}
	return agg
}

// SectionDefaults returns a fresh copy of one section's default values.
func SectionDefaults(s Section) Values {
	fields := schema[s]
	v := make(Values, len(fields))
	for _, f := range fields {
		v[f.Name] = f.Default
	}
	return v
}

// Clone returns a deep copy of the aggregate.
func (a Aggregate) Clone() Aggregate {
	out := make(Aggregate, len(a))
	for s, v := range a {
		out[s] = maps.Clone(v)
	}
	return out
}

// Get returns the value of one field.
func (a Aggregate) Get(s Section, name string) (any, error) {
	if _, err := Lookup(s, name); err != nil {
		return nil, err
	}
	return a[s][name], nil
}

// Validate checks that the aggregate has every section and every field, and
// that each value has its field's kind.
func (a Aggregate) Validate() error {
	for _, s := range Sections() {
		values, ok := a[s]
		if !ok {
			return fmt.Errorf("missing section %s", s)
		}
		for _, f := range schema[s] {
			val, ok := values[f.Name]
			if !ok {
				return fmt.Errorf("missing field %s.%s", s, f.Name)
			}
			if _, err := f.Coerce(val); err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
		}
	}
	return nil
}

// DecodeSection merges a backend section payload over the section defaults.
// Fields absent from the payload, or null on a non-nullable field, keep their
// default. Unknown and server-owned fields are dropped. A payload that is not
// a JSON object, or carries a value of the wrong kind, is malformed.
func DecodeSection(s Section, payload []byte) (Values, error) {
	fields, ok := schema[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, string(s))
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedSection, s, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s: expected a JSON object", ErrMalformedSection, s)
	}

	values := SectionDefaults(s)
	for _, f := range fields {
		val, present := raw[f.Name]
		if !present || (val == nil && f.Kind != KindNullableString) {
			continue
		}
		coerced, err := f.Coerce(val)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedSection, s, err)
		}
		values[f.Name] = coerced
	}

	return values, nil
}

// EncodeSection returns the wire payload for a section: exactly the schema
// fields, with server-owned bookkeeping fields stripped. Missing fields are
// filled from defaults so the backend always receives the full field set.
func EncodeSection(s Section, v Values) map[string]any {
	fields := schema[s]
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		val, ok := v[f.Name]
		if !ok {
			val = f.Default
		}
		out[f.Name] = val
	}
	for _, name := range ServerOwnedFields {
		delete(out, name)
	}
	return out
}
