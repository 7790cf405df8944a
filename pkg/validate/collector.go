package validate

import (
	"fmt"
	"strconv"
	"strings"
)

// collector is the shared two-bucket accumulator embedded by each
// concrete validator. Buckets are private per instance; reset is called
// at the start of every public Validate* method, so a validator is
// stateless across calls but not safe for concurrent use.
type collector struct {
	errors   []*ValidationError
	warnings []*ValidationError
}

func (c *collector) reset() {
	c.errors = nil
	c.warnings = nil
}

// add routes a finding into the appropriate bucket. Nil findings are
// ignored so callers can pass checkField results straight through.
func (c *collector) add(errs ...*ValidationError) {
	for _, e := range errs {
		if e == nil {
			continue
		}
		if isWarning(e.Severity) {
			c.warnings = append(c.warnings, e)
		} else {
			c.errors = append(c.errors, e)
		}
	}
}

// Errors returns the errors bucket (info-severity findings included).
func (c *collector) Errors() []*ValidationError {
	return c.errors
}

// Warnings returns the warnings bucket.
func (c *collector) Warnings() []*ValidationError {
	return c.warnings
}

// validateFields applies a rule table to the named fields of obj,
// prefixing each finding's path with basePath.
func (c *collector) validateFields(obj map[string]any, rules []FieldRule, basePath string) {
	for _, rule := range rules {
		value, _ := obj[rule.Field]
		c.add(checkField(value, rule, joinPath(basePath, rule.Field)))
	}
}

// validateArray maps fn over the elements of value with indexed paths
// ("threats[3]"). Non-array values are reported as an error against
// basePath.
func (c *collector) validateArray(value any, basePath string, fn func(item any, path string)) {
	if value == nil {
		return
	}
	arr, ok := value.([]any)
	if !ok {
		c.add(errorf("INVALID_TYPE", basePath, "expected an array, got %T", value))
		return
	}
	for i, item := range arr {
		fn(item, fmt.Sprintf("%s[%d]", basePath, i))
	}
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

// nestedValue resolves a dotted path with optional indices
// ("diagrams[0].cells[2].id") against a generic document. The second
// return is false when any segment is absent or of the wrong kind.
func nestedValue(obj any, path string) (any, bool) {
	current := obj
	for _, seg := range strings.Split(path, ".") {
		name := seg
		index := -1
		if open := strings.IndexByte(seg, '['); open >= 0 && strings.HasSuffix(seg, "]") {
			name = seg[:open]
			idx, err := strconv.Atoi(seg[open+1 : len(seg)-1])
			if err != nil {
				return nil, false
			}
			index = idx
		}
		if name != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[name]
			if !ok {
				return nil, false
			}
		}
		if index >= 0 {
			arr, ok := current.([]any)
			if !ok || index >= len(arr) {
				return nil, false
			}
			current = arr[index]
		}
	}
	return current, true
}
