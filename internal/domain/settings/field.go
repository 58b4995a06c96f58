package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
)

// Kind is the primitive type of a settings field.
type Kind int

const (
	KindBool Kind = iota + 1
	KindString
	KindNullableString
	KindInt
	KindEnum
)

// String returns the kind name used in the schema endpoint.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindNullableString:
		return "nullable_string"
	case KindInt:
		return "int"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Enum names the closed value set an enum field draws from. Two enums with
// identical values (ActiveStatus, ScopeStatus) are still distinct.
type Enum string

const (
	EnumActiveStatus      Enum = "active_status"
	EnumScopeStatus       Enum = "scope_status"
	EnumProfileSetting    Enum = "profile_setting"
	EnumToolLanguageLevel Enum = "tool_language_level"
	EnumPhpStanLevel      Enum = "php_stan_level"
)

var (
	// ErrUnknownField is returned when a field name is not in the section's schema.
	ErrUnknownField = errors.New("unknown settings field")
	// ErrInvalidValue is returned when a value does not match the field's kind.
	ErrInvalidValue = errors.New("invalid settings value")
)

// Field describes one settings field: its wire name, kind, default and the
// labels the GUI renders for it.
type Field struct {
	Name        string
	Kind        Kind
	Enum        Enum
	Options     []string // Allowed values for KindEnum.
	Suggestions []string // Offered choices for free-text fields; not enforced.
	Default     any
	Label       string
	Description string
	Placeholder string
	Group       string
	Validate    func(any) error
}

// Coerce converts v into the canonical Go representation for the field:
// bool, string, nil-or-string, int, or string enum member. Values decoded
// from JSON (float64, json.Number) and typed enum constants are accepted.
func (f Field) Coerce(v any) (any, error) {
	out, err := f.coerce(v)
	if err != nil {
		return nil, err
	}
	if f.Validate != nil {
		if err := f.Validate(out); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidValue, f.Name, err)
		}
	}
	return out, nil
}

func (f Field) coerce(v any) (any, error) {
	switch f.Kind {
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindNullableString:
		switch s := v.(type) {
		case nil:
			return nil, nil
		case string:
			return s, nil
		case *string:
			if s == nil {
				return nil, nil
			}
			return *s, nil
		}
	case KindInt:
		if n, ok := toInt(v); ok {
			return n, nil
		}
	case KindEnum:
		return f.coerceEnum(v)
	}
	return nil, f.invalid(v)
}

func (f Field) coerceEnum(v any) (any, error) {
	var (
		raw  string
		enum = f.Enum
	)

	switch e := v.(type) {
	case string:
		raw = e
	case model.ActiveStatus:
		raw, enum = string(e), EnumActiveStatus
	case model.ScopeStatus:
		raw, enum = string(e), EnumScopeStatus
	case model.ProfileSetting:
		raw, enum = string(e), EnumProfileSetting
	case model.ToolLanguageLevel:
		raw, enum = string(e), EnumToolLanguageLevel
	case model.PhpStanLevel:
		raw, enum = string(e), EnumPhpStanLevel
	default:
		return nil, f.invalid(v)
	}

	if enum != f.Enum {
		return nil, fmt.Errorf("%w: %s expects %s, got %s", ErrInvalidValue, f.Name, f.Enum, enum)
	}
	if !slices.Contains(f.Options, raw) {
		return nil, fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalidValue, f.Name, strings.Join(f.Options, ", "), raw)
	}
	return raw, nil
}

func (f Field) invalid(v any) error {
	return fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidValue, f.Name, f.Kind, v)
}

// ParseFormValue converts a raw HTML form value into the field's canonical
// representation. Checkbox values "on"/"off" are accepted for booleans and an
// empty string clears a nullable string.
func (f Field) ParseFormValue(raw string) (any, error) {
	switch f.Kind {
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "on":
			return true, nil
		case "off", "":
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a boolean, got %q", ErrInvalidValue, f.Name, raw)
		}
		return b, nil
	case KindNullableString:
		if raw == "" {
			return f.Coerce(nil)
		}
		return f.Coerce(raw)
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects an integer, got %q", ErrInvalidValue, f.Name, raw)
		}
		return f.Coerce(n)
	default:
		return f.Coerce(raw)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
