package validate

import "regexp"

// DiagramValidator is the per-family diagram checker. Validate and
// ValidateCells return the errors bucket only; Warnings exposes the
// warnings bucket from the most recent call for the façade.
type DiagramValidator interface {
	DiagramType() string
	VersionPattern() *regexp.Regexp
	Validate(diagram any) []*ValidationError
	ValidateCells(cells any) []*ValidationError
	Warnings() []*ValidationError
}

// DiagramValidatorFactory resolves a diagram type string to a registered
// validator. Resolution is a linear scan in registration order — first
// match wins — so more specific patterns should be registered first.
type DiagramValidatorFactory struct {
	validators []DiagramValidator
}

// NewDiagramValidatorFactory returns a factory with the built-in DFD
// validator registered.
func NewDiagramValidatorFactory() *DiagramValidatorFactory {
	f := &DiagramValidatorFactory{}
	f.Register(NewDFDValidator())
	return f
}

// Register appends a validator to the resolution order. Used at runtime
// to add future diagram families.
func (f *DiagramValidatorFactory) Register(v DiagramValidator) {
	f.validators = append(f.validators, v)
}

// GetValidator returns the first registered validator whose version
// pattern matches diagramType, or nil when none matches.
func (f *DiagramValidatorFactory) GetValidator(diagramType string) DiagramValidator {
	for _, v := range f.validators {
		if v.VersionPattern().MatchString(diagramType) {
			return v
		}
	}
	return nil
}

// SupportedTypes returns the diagram families with a registered
// validator, in registration order.
func (f *DiagramValidatorFactory) SupportedTypes() []string {
	types := make([]string, 0, len(f.validators))
	for _, v := range f.validators {
		types = append(types, v.DiagramType())
	}
	return types
}
