package validate

import (
	"strings"
	"testing"
)

func TestValidateThreatModelWellFormed(t *testing.T) {
	v := NewSchemaValidator()
	errs := v.ValidateThreatModel(validDocument())
	if len(errs) != 0 {
		t.Fatalf("well-formed document should have no errors, got: %v", errs)
	}
}

func TestValidateThreatModelNonObject(t *testing.T) {
	v := NewSchemaValidator()
	for _, doc := range []any{nil, "string", 42, []any{}} {
		errs := v.ValidateThreatModel(doc)
		if !hasCode(errs, "INVALID_OBJECT") {
			t.Errorf("input %T: expected INVALID_OBJECT, got %v", doc, errs)
		}
	}
}

// TestValidateThreatModelNameOnly is the fixed scenario: a document with
// only a name must report every other required top-level field.
func TestValidateThreatModelNameOnly(t *testing.T) {
	v := NewSchemaValidator()
	errs := v.ValidateThreatModel(map[string]any{"name": "Test Threat Model"})

	for _, field := range []string{"id", "created_at", "modified_at", "owner", "created_by", "authorization"} {
		found := false
		for _, e := range errs {
			if e.Code == "FIELD_REQUIRED" && strings.Contains(e.Message, "'"+field+"' is missing") {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected FIELD_REQUIRED for %q, got: %v", field, errs)
		}
	}
}

func TestFrameworkConditionalRequirement(t *testing.T) {
	v := NewSchemaValidator()

	doc := validDocument()
	delete(doc, "threat_model_framework")
	errs := v.ValidateThreatModel(doc)
	e := findCode(errs, "MISSING_REQUIRED_FIELD")
	if e == nil {
		t.Fatalf("expected MISSING_REQUIRED_FIELD with threats present, got: %v", errs)
	}
	if !strings.Contains(e.Message, "threat_model_framework") {
		t.Errorf("error should mention threat_model_framework: %q", e.Message)
	}

	// Blank counts as absent.
	doc = validDocument()
	doc["threat_model_framework"] = "   "
	if errs := v.ValidateThreatModel(doc); !hasCode(errs, "MISSING_REQUIRED_FIELD") {
		t.Error("blank framework with threats should be MISSING_REQUIRED_FIELD")
	}

	// No threats: the framework is genuinely optional.
	doc = validDocument()
	delete(doc, "threat_model_framework")
	doc["threats"] = []any{}
	if errs := v.ValidateThreatModel(doc); hasCode(errs, "MISSING_REQUIRED_FIELD") {
		t.Errorf("no threats: framework should be optional, got %v", errs)
	}
}

func TestAuthorizationNoOwner(t *testing.T) {
	v := NewSchemaValidator()
	doc := validDocument()
	doc["authorization"] = []any{
		map[string]any{"subject": "u", "role": "reader"},
	}
	errs := v.ValidateThreatModel(doc)
	if !hasCode(errs, "NO_OWNER") {
		t.Errorf("expected NO_OWNER, got: %v", errs)
	}
}

func TestAuthorizationInvalidRole(t *testing.T) {
	v := NewSchemaValidator()
	doc := validDocument()
	doc["authorization"] = []any{
		map[string]any{"subject": "alice@example.com", "role": "owner"},
		map[string]any{"subject": "mallory", "role": "admin"},
	}
	errs := v.ValidateThreatModel(doc)
	e := findCode(errs, "INVALID_ENUM_VALUE")
	if e == nil {
		t.Fatalf("expected INVALID_ENUM_VALUE for role, got: %v", errs)
	}
	if !strings.Contains(e.Path, "authorization[1].role") {
		t.Errorf("path should point at the bad entry, got %q", e.Path)
	}
}

// Duplicate metadata keys are a warning: invisible to the errors-only
// return, present in the warnings bucket.
func TestDuplicateMetadataKeysAreWarnings(t *testing.T) {
	v := NewSchemaValidator()
	doc := validDocument()
	doc["metadata"] = []any{
		map[string]any{"key": "env", "value": "prod"},
		map[string]any{"key": "env", "value": "staging"},
	}
	errs := v.ValidateThreatModel(doc)
	if hasCode(errs, "DUPLICATE_VALUES") {
		t.Error("duplicate keys must not surface in the errors bucket")
	}
	if !hasCode(v.Warnings(), "DUPLICATE_VALUES") {
		t.Errorf("expected DUPLICATE_VALUES warning, got: %v", v.Warnings())
	}
}

func TestThreatModelIDMismatch(t *testing.T) {
	v := NewSchemaValidator()
	doc := validDocument()
	threat := doc["threats"].([]any)[0].(map[string]any)
	threat["threat_model_id"] = "99999999-9999-4999-8999-999999999999"
	errs := v.ValidateThreatModel(doc)
	if !hasCode(errs, "THREAT_MODEL_ID_MISMATCH") {
		t.Errorf("expected THREAT_MODEL_ID_MISMATCH, got: %v", errs)
	}
}

func TestInvalidThreatType(t *testing.T) {
	v := NewSchemaValidator()

	doc := validDocument()
	threat := doc["threats"].([]any)[0].(map[string]any)
	threat["threat_type"] = "Confidentiality" // CIA term under STRIDE
	errs := v.ValidateThreatModel(doc)
	e := findCode(errs, "INVALID_THREAT_TYPE")
	if e == nil {
		t.Fatalf("expected INVALID_THREAT_TYPE, got: %v", errs)
	}
	if !strings.Contains(e.Message, "STRIDE") {
		t.Errorf("message should name the framework: %q", e.Message)
	}

	// The same term is fine once the document framework is CIA.
	doc["threat_model_framework"] = "CIA"
	if errs := v.ValidateThreatModel(doc); hasCode(errs, "INVALID_THREAT_TYPE") {
		t.Errorf("Confidentiality should be valid under CIA, got %v", errs)
	}
}

func TestDocumentRules(t *testing.T) {
	v := NewSchemaValidator()
	doc := validDocument()
	doc["documents"] = []any{
		map[string]any{"id": "not-a-uuid", "name": "x", "url": "::nope::"},
	}
	errs := v.ValidateThreatModel(doc)
	if countCode(errs, "INVALID_TYPE") < 2 {
		t.Errorf("expected INVALID_TYPE for id and url, got: %v", errs)
	}
}

func TestDiagramTypePattern(t *testing.T) {
	v := NewSchemaValidator()
	doc := validDocument()
	diagram := doc["diagrams"].([]any)[0].(map[string]any)
	diagram["type"] = "DFD_one"
	errs := v.ValidateThreatModel(doc)
	if !hasCode(errs, "PATTERN_MISMATCH") {
		t.Errorf("expected PATTERN_MISMATCH for diagram type, got: %v", errs)
	}
}

func TestSchemaValidatorStatelessAcrossCalls(t *testing.T) {
	v := NewSchemaValidator()
	bad := map[string]any{"name": "x"}
	first := len(v.ValidateThreatModel(bad))
	second := len(v.ValidateThreatModel(bad))
	if first != second {
		t.Errorf("buffers must reset between calls: %d vs %d", first, second)
	}
}
