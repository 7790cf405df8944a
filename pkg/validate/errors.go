// Package validate implements the threat model validation pipeline:
// field rules → schema → diagrams → references, composed by a façade
// that merges the result buckets.
package validate

import "fmt"

// Severity classifies a finding. Anything that is not a warning — info
// included — lands in the errors bucket; only warnings are routed to the
// warnings bucket. Downstream consumers rely on this exact partition.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ValidationError is a single validation finding with location context.
type ValidationError struct {
	Code     string         `json:"code"`
	Path     string         `json:"path"` // JSON-path-like location (e.g. "threats[0].severity")
	Message  string         `json:"message"`
	Severity Severity       `json:"severity"`
	Context  map[string]any `json:"context,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s at %s", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func errorf(code, path, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(msg, args...),
		Severity: SeverityError,
	}
}

func warningf(code, path, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(msg, args...),
		Severity: SeverityWarning,
	}
}

func infof(code, path, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(msg, args...),
		Severity: SeverityInfo,
	}
}

// isWarning is the single bucket-partition predicate: only the warning
// severity is special-cased, info deliberately is not.
func isWarning(sev Severity) bool {
	return sev == SeverityWarning
}
