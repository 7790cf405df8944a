package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// FieldRule is one declarative constraint on a document field.
type FieldRule struct {
	Field     string
	Required  bool
	Type      string // uuid, email, url, date-time, string, number, boolean, object, array
	MinLength int    // strings and arrays; 0 means unset
	MaxLength int    // strings and arrays; 0 means unset
	Enum      []string
	Pattern   *regexp.Regexp
	Custom    func(value any, path string) *ValidationError
}

// uuidRe accepts any version nibble (0–F), matching the upstream
// validator which admits v7 and future versions. IsValidUUID and the
// uuid field type must stay regex-equivalent.
var uuidRe = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// emailRe is deliberately loose: one @, something either side, a dot in
// the domain.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// dateTimeRe shapes an RFC3339-like timestamp; the actual parse confirms
// calendar validity.
var dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{3})?Z?$`)

// IsValidUUID reports whether s matches the UUID wire format.
func IsValidUUID(s string) bool {
	return uuidRe.MatchString(s)
}

// checkField applies a single rule to a value and produces at most one
// finding. Checks run in a fixed order and short-circuit on the first
// failure: required → type → length → enum → pattern → custom.
// It is a pure function; the context path only decorates the result.
func checkField(value any, rule FieldRule, path string) *ValidationError {
	if value == nil {
		if rule.Required {
			e := errorf("FIELD_REQUIRED", path, "field '%s' is missing", rule.Field)
			e.Context = map[string]any{"field": rule.Field}
			return e
		}
		return nil
	}

	if rule.Type != "" {
		if err := checkType(value, rule.Type, path); err != nil {
			return err
		}
	}

	if length, ok := lengthOf(value); ok {
		if rule.MinLength > 0 && length < rule.MinLength {
			return errorf("MIN_LENGTH_VIOLATION", path, "length %d is below the minimum of %d", length, rule.MinLength)
		}
		if rule.MaxLength > 0 && length > rule.MaxLength {
			return errorf("MAX_LENGTH_VIOLATION", path, "length %d exceeds the maximum of %d", length, rule.MaxLength)
		}
	}

	if len(rule.Enum) > 0 {
		s := fmt.Sprintf("%v", value)
		found := false
		for _, allowed := range rule.Enum {
			if s == allowed {
				found = true
				break
			}
		}
		if !found {
			e := errorf("INVALID_ENUM_VALUE", path, "value %q is not one of %v", s, rule.Enum)
			e.Context = map[string]any{"allowed": rule.Enum}
			return e
		}
	}

	if rule.Pattern != nil {
		if s, ok := value.(string); ok && !rule.Pattern.MatchString(s) {
			return errorf("PATTERN_MISMATCH", path, "value %q does not match pattern %s", s, rule.Pattern)
		}
	}

	if rule.Custom != nil {
		return rule.Custom(value, path)
	}
	return nil
}

// checkType dispatches on the closed set of semantic and raw kinds.
func checkType(value any, typ, path string) *ValidationError {
	switch typ {
	case "uuid":
		s, ok := value.(string)
		if !ok || !uuidRe.MatchString(s) {
			return errorf("INVALID_TYPE", path, "expected a UUID, got %v", value)
		}
	case "email":
		s, ok := value.(string)
		if !ok || !emailRe.MatchString(s) {
			return errorf("INVALID_TYPE", path, "expected an email address, got %v", value)
		}
	case "url":
		s, ok := value.(string)
		if !ok {
			return errorf("INVALID_TYPE", path, "expected a URL string, got %T", value)
		}
		if u, err := url.Parse(s); err != nil || u.Scheme == "" {
			return errorf("INVALID_TYPE", path, "value %q is not a valid URL", s)
		}
	case "date-time":
		s, ok := value.(string)
		if !ok || !dateTimeRe.MatchString(s) || !parsesAsTime(s) {
			return errorf("INVALID_TYPE", path, "expected an RFC3339 timestamp, got %v", value)
		}
	case "string":
		if _, ok := value.(string); !ok {
			return errorf("INVALID_TYPE", path, "expected a string, got %T", value)
		}
	case "number":
		if !isNumber(value) {
			return errorf("INVALID_TYPE", path, "expected a number, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return errorf("INVALID_TYPE", path, "expected a boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return errorf("INVALID_TYPE", path, "expected an object, got %T", value)
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return errorf("INVALID_TYPE", path, "expected an array, got %T", value)
		}
	}
	return nil
}

func parsesAsTime(s string) bool {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05.000"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func lengthOf(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return len(v), true
	case []any:
		return len(v), true
	}
	return 0, false
}

// isNumber covers the kinds JSON and YAML decoding produce.
func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// numberOf converts a decoded numeric value to float64.
func numberOf(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
