package validate

import (
	"fmt"
	"time"
)

// ValidatorVersion is reported in every result's metadata.
const ValidatorVersion = "1.0.0"

// ValidationConfig controls a single Validate call. The zero value is
// not useful; merge over DefaultConfig.
type ValidationConfig struct {
	IncludeWarnings   bool
	FailFast          bool
	MaxErrors         int
	StructuralSchema  bool // run the generated-JSON-Schema pass first
	DiagramValidators []DiagramValidator
	CustomRules       []CustomRule
}

// DefaultConfig returns the defaults applied when the caller passes nil.
func DefaultConfig() ValidationConfig {
	return ValidationConfig{
		IncludeWarnings: true,
		FailFast:        false,
		MaxErrors:       100,
	}
}

// ResultMetadata describes a validation run.
type ResultMetadata struct {
	Timestamp        time.Time `json:"timestamp"`
	ValidatorVersion string    `json:"validator_version"`
	DurationMS       int64     `json:"duration_ms"`
}

// ValidationResult is the merged outcome of a validation run. Valid is
// true exactly when the errors bucket is empty; warnings never affect it.
type ValidationResult struct {
	Valid    bool               `json:"valid"`
	Errors   []*ValidationError `json:"errors"`
	Warnings []*ValidationError `json:"warnings,omitempty"`
	Metadata ResultMetadata     `json:"metadata"`
}

// Validator is the validation façade: it orchestrates the schema,
// diagram and reference validators and merges their result buckets. A
// Validator owns mutable per-call state in its sub-validators, so create
// one per goroutine; separate instances need no coordination.
type Validator struct {
	factory   *DiagramValidatorFactory
	schema    *SchemaValidator
	reference *ReferenceValidator
}

// New returns a Validator with the built-in DFD diagram validator
// registered.
func New() *Validator {
	return &Validator{
		factory:   NewDiagramValidatorFactory(),
		schema:    NewSchemaValidator(),
		reference: NewReferenceValidator(),
	}
}

// RegisterDiagramValidator adds a diagram validator to the factory.
func (v *Validator) RegisterDiagramValidator(dv DiagramValidator) {
	v.factory.Register(dv)
}

// SupportedDiagramTypes lists the registered diagram families.
func (v *Validator) SupportedDiagramTypes() []string {
	return v.factory.SupportedTypes()
}

// DiagramValidatorFor resolves a diagram type string, or nil.
func (v *Validator) DiagramValidatorFor(diagramType string) DiagramValidator {
	return v.factory.GetValidator(diagramType)
}

// Validate runs the full pipeline on doc. It never panics: any panic
// raised while traversing the document (or inside a custom rule) is
// recovered and reported as a single VALIDATION_EXCEPTION error.
func (v *Validator) Validate(doc any, config *ValidationConfig) (result *ValidationResult) {
	start := time.Now()
	cfg := mergeConfig(config)

	defer func() {
		if r := recover(); r != nil {
			result = &ValidationResult{
				Valid:  false,
				Errors: []*ValidationError{errorf("VALIDATION_EXCEPTION", "", "validation aborted: %v", r)},
			}
			result.Metadata = v.metadata(start)
		}
	}()

	var errors, warnings []*ValidationError

	stop := func() bool {
		if cfg.FailFast && len(errors) > 0 {
			errors = errors[:1]
			return true
		}
		return false
	}

	if cfg.StructuralSchema {
		errors, warnings = partition(ValidateStructure(doc), errors, warnings)
	}

	if !stop() {
		errors = append(errors, v.schema.ValidateThreatModel(doc)...)
		warnings = append(warnings, v.schema.Warnings()...)
	}

	if !stop() {
		errs, warns := v.validateDiagrams(doc, cfg.DiagramValidators)
		errors = append(errors, errs...)
		warnings = append(warnings, warns...)
	}

	if !stop() {
		errors = append(errors, v.reference.ValidateReferences(doc)...)
		warnings = append(warnings, v.reference.Warnings()...)
	}

	if !stop() && len(cfg.CustomRules) > 0 {
		errors, warnings = partition(runCustomRules(doc, cfg.CustomRules), errors, warnings)
	}
	stop()

	if cfg.MaxErrors > 0 && len(errors) > cfg.MaxErrors {
		errors = errors[:cfg.MaxErrors]
	}
	if !cfg.IncludeWarnings {
		warnings = nil
	}

	return &ValidationResult{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
		Metadata: v.metadata(start),
	}
}

// ValidateSchema runs only the schema phase, wrapped in a result.
func (v *Validator) ValidateSchema(doc any) (result *ValidationResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = v.exceptionResult(start, r)
		}
	}()
	errors := v.schema.ValidateThreatModel(doc)
	return &ValidationResult{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: v.schema.Warnings(),
		Metadata: v.metadata(start),
	}
}

// ValidateReferences runs only the reference phase, wrapped in a result.
func (v *Validator) ValidateReferences(doc any) (result *ValidationResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = v.exceptionResult(start, r)
		}
	}()
	errors := v.reference.ValidateReferences(doc)
	return &ValidationResult{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: v.reference.Warnings(),
		Metadata: v.metadata(start),
	}
}

// validateDiagrams resolves a validator per diagram — per-call extras
// first, then the factory. Diagrams whose type has no registered
// validator are skipped here; the schema phase already enforces the
// type field's shape.
func (v *Validator) validateDiagrams(doc any, extras []DiagramValidator) ([]*ValidationError, []*ValidationError) {
	tm, ok := doc.(map[string]any)
	if !ok {
		return nil, nil
	}
	diagrams, ok := tm["diagrams"].([]any)
	if !ok {
		return nil, nil
	}

	var errors, warnings []*ValidationError
	for i, item := range diagrams {
		diagram, ok := item.(map[string]any)
		if !ok {
			continue
		}
		diagramType, _ := diagram["type"].(string)
		dv := resolveValidator(diagramType, extras)
		if dv == nil {
			dv = v.factory.GetValidator(diagramType)
		}
		if dv == nil {
			continue
		}
		prefix := fmt.Sprintf("diagrams[%d]", i)
		for _, e := range dv.Validate(diagram) {
			errors = append(errors, prefixPath(e, prefix))
		}
		for _, w := range dv.Warnings() {
			warnings = append(warnings, prefixPath(w, prefix))
		}
	}
	return errors, warnings
}

func resolveValidator(diagramType string, extras []DiagramValidator) DiagramValidator {
	for _, dv := range extras {
		if dv.VersionPattern().MatchString(diagramType) {
			return dv
		}
	}
	return nil
}

func prefixPath(e *ValidationError, prefix string) *ValidationError {
	prefixed := *e
	if e.Path != "" {
		prefixed.Path = prefix + "." + e.Path
	} else {
		prefixed.Path = prefix
	}
	return &prefixed
}

func (v *Validator) metadata(start time.Time) ResultMetadata {
	return ResultMetadata{
		Timestamp:        start,
		ValidatorVersion: ValidatorVersion,
		DurationMS:       time.Since(start).Milliseconds(),
	}
}

func (v *Validator) exceptionResult(start time.Time, cause any) *ValidationResult {
	return &ValidationResult{
		Valid:    false,
		Errors:   []*ValidationError{errorf("VALIDATION_EXCEPTION", "", "validation aborted: %v", cause)},
		Metadata: v.metadata(start),
	}
}

func mergeConfig(config *ValidationConfig) ValidationConfig {
	if config == nil {
		return DefaultConfig()
	}
	cfg := *config
	if cfg.MaxErrors == 0 {
		cfg.MaxErrors = DefaultConfig().MaxErrors
	}
	return cfg
}

// partition routes findings into the error and warning buckets using the
// same predicate the collectors use.
func partition(findings []*ValidationError, errors, warnings []*ValidationError) ([]*ValidationError, []*ValidationError) {
	for _, f := range findings {
		if isWarning(f.Severity) {
			warnings = append(warnings, f)
		} else {
			errors = append(errors, f)
		}
	}
	return errors, warnings
}
