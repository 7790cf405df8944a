package validate

import (
	"regexp"
	"strings"

	"github.com/ormasoftchile/tmval/pkg/schema"
)

// diagramTypeRe shapes a versioned diagram type: <FAMILY>-<major>.<minor>.<patch>.
var diagramTypeRe = regexp.MustCompile(`^[A-Za-z0-9]+-\d+\.\d+\.\d+$`)

// Rule tables mirror the upstream API's field contracts. Kept as data,
// not methods, so the validated surface is auditable in one place.
var threatModelRules = []FieldRule{
	{Field: "id", Required: true, Type: "uuid"},
	{Field: "name", Required: true, Type: "string", MinLength: 1, MaxLength: 256},
	{Field: "description", Type: "string", MaxLength: 1024},
	{Field: "created_at", Required: true, Type: "date-time"},
	{Field: "modified_at", Required: true, Type: "date-time"},
	{Field: "owner", Required: true, Type: "string", MinLength: 1},
	{Field: "created_by", Required: true, Type: "string", MinLength: 1},
	{Field: "threat_model_framework", Type: "string", Enum: schema.Frameworks()},
	{Field: "issue_url", Type: "url"},
	{Field: "authorization", Required: true, Type: "array"},
	{Field: "metadata", Type: "array"},
	{Field: "documents", Type: "array"},
	{Field: "diagrams", Type: "array"},
	{Field: "threats", Type: "array"},
}

var authorizationRules = []FieldRule{
	{Field: "subject", Required: true, Type: "string", MinLength: 1},
	{Field: "role", Required: true, Type: "string", Enum: []string{schema.RoleReader, schema.RoleWriter, schema.RoleOwner}},
}

var metadataRules = []FieldRule{
	{Field: "key", Required: true, Type: "string", MinLength: 1},
	{Field: "value", Required: true, Type: "string"},
}

var documentRules = []FieldRule{
	{Field: "id", Required: true, Type: "uuid"},
	{Field: "name", Required: true, Type: "string", MinLength: 1},
	{Field: "url", Required: true, Type: "url"},
	{Field: "description", Type: "string"},
	{Field: "metadata", Type: "array"},
}

var threatRules = []FieldRule{
	{Field: "id", Required: true, Type: "uuid"},
	{Field: "threat_model_id", Required: true, Type: "uuid"},
	{Field: "name", Required: true, Type: "string", MinLength: 1},
	{Field: "description", Type: "string"},
	{Field: "threat_type", Required: true, Type: "string", MinLength: 1},
	{Field: "severity", Required: true, Type: "string", Enum: schema.ThreatSeverities},
	{Field: "created_at", Required: true, Type: "date-time"},
	{Field: "modified_at", Required: true, Type: "date-time"},
	{Field: "diagram_id", Type: "uuid"},
	{Field: "cell_id", Type: "uuid"},
	{Field: "score", Type: "number"},
	{Field: "priority", Type: "string"},
	{Field: "mitigated", Type: "boolean"},
	{Field: "status", Type: "string"},
	{Field: "issue_url", Type: "url"},
	{Field: "metadata", Type: "array"},
}

var diagramRules = []FieldRule{
	{Field: "id", Required: true, Type: "uuid"},
	{Field: "name", Required: true, Type: "string", MinLength: 1},
	{Field: "type", Required: true, Type: "string", Pattern: diagramTypeRe},
	{Field: "description", Type: "string"},
	{Field: "created_at", Required: true, Type: "date-time"},
	{Field: "modified_at", Required: true, Type: "date-time"},
	{Field: "metadata", Type: "array"},
	{Field: "cells", Type: "array"},
}

// SchemaValidator checks a threat model document's shape against the
// field rule tables. ValidateThreatModel returns the errors bucket only;
// callers that need warnings (duplicate metadata keys) retrieve both
// buckets through the façade.
type SchemaValidator struct {
	collector
}

func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// ValidateThreatModel validates the whole document shape, including the
// nested authorization, metadata, document, threat and diagram entries.
func (v *SchemaValidator) ValidateThreatModel(doc any) []*ValidationError {
	v.reset()

	tm, ok := doc.(map[string]any)
	if !ok || tm == nil {
		v.add(errorf("INVALID_OBJECT", "", "threat model must be an object, got %T", doc))
		return v.errors
	}

	v.validateFields(tm, threatModelRules, "")
	v.checkFrameworkRequirement(tm)
	v.validateAuthorization(tm["authorization"])
	v.validateMetadataList(tm["metadata"], "metadata")
	v.validateDocuments(tm["documents"])
	v.validateThreats(tm)
	v.validateDiagrams(tm["diagrams"])

	return v.errors
}

// checkFrameworkRequirement enforces the conditional rule: a framework
// is required once the document carries any threats.
func (v *SchemaValidator) checkFrameworkRequirement(tm map[string]any) {
	threats, ok := tm["threats"].([]any)
	if !ok || len(threats) == 0 {
		return
	}
	framework, _ := tm["threat_model_framework"].(string)
	if strings.TrimSpace(framework) == "" {
		v.add(errorf("MISSING_REQUIRED_FIELD", "threat_model_framework",
			"threat_model_framework is required when the model contains threats"))
	}
}

func (v *SchemaValidator) validateAuthorization(value any) {
	arr, isArray := value.([]any)
	v.validateArray(value, "authorization", func(item any, path string) {
		entry, ok := item.(map[string]any)
		if !ok {
			v.add(errorf("INVALID_OBJECT", path, "authorization entry must be an object, got %T", item))
			return
		}
		v.validateFields(entry, authorizationRules, path)
	})

	if !isArray {
		return
	}
	hasOwner := false
	for _, item := range arr {
		if entry, ok := item.(map[string]any); ok {
			if role, _ := entry["role"].(string); role == schema.RoleOwner {
				hasOwner = true
				break
			}
		}
	}
	if !hasOwner {
		v.add(errorf("NO_OWNER", "authorization", "at least one authorization entry must have the owner role"))
	}
}

// validateMetadataList checks per-entry rules and flags duplicate keys.
// Duplicates are a warning, so they are invisible to errors-only callers.
func (v *SchemaValidator) validateMetadataList(value any, basePath string) {
	seen := map[string]int{}
	v.validateArray(value, basePath, func(item any, path string) {
		entry, ok := item.(map[string]any)
		if !ok {
			v.add(errorf("INVALID_OBJECT", path, "metadata entry must be an object, got %T", item))
			return
		}
		v.validateFields(entry, metadataRules, path)
		if key, ok := entry["key"].(string); ok && key != "" {
			seen[key]++
			if seen[key] == 2 {
				v.add(warningf("DUPLICATE_VALUES", basePath, "metadata key %q appears more than once", key))
			}
		}
	})
}

func (v *SchemaValidator) validateDocuments(value any) {
	v.validateArray(value, "documents", func(item any, path string) {
		doc, ok := item.(map[string]any)
		if !ok {
			v.add(errorf("INVALID_OBJECT", path, "document must be an object, got %T", item))
			return
		}
		v.validateFields(doc, documentRules, path)
		v.validateMetadataList(doc["metadata"], path+".metadata")
	})
}

func (v *SchemaValidator) validateThreats(tm map[string]any) {
	modelID, _ := tm["id"].(string)
	framework, _ := tm["threat_model_framework"].(string)

	v.validateArray(tm["threats"], "threats", func(item any, path string) {
		threat, ok := item.(map[string]any)
		if !ok {
			v.add(errorf("INVALID_OBJECT", path, "threat must be an object, got %T", item))
			return
		}
		v.validateFields(threat, threatRules, path)
		v.validateMetadataList(threat["metadata"], path+".metadata")

		if refID, _ := threat["threat_model_id"].(string); refID != "" && modelID != "" && refID != modelID {
			v.add(errorf("THREAT_MODEL_ID_MISMATCH", path+".threat_model_id",
				"threat_model_id %q does not match the containing model id %q", refID, modelID))
		}

		threatType, _ := threat["threat_type"].(string)
		if _, known := schema.FrameworkThreatTypes[framework]; known && threatType != "" {
			if !schema.IsFrameworkThreatType(framework, threatType) {
				e := errorf("INVALID_THREAT_TYPE", path+".threat_type",
					"threat_type %q is not part of the %s framework", threatType, framework)
				e.Context = map[string]any{"framework": framework, "allowed": schema.FrameworkThreatTypes[framework]}
				v.add(e)
			}
		}
	})
}

func (v *SchemaValidator) validateDiagrams(value any) {
	v.validateArray(value, "diagrams", func(item any, path string) {
		diagram, ok := item.(map[string]any)
		if !ok {
			v.add(errorf("INVALID_OBJECT", path, "diagram must be an object, got %T", item))
			return
		}
		v.validateFields(diagram, diagramRules, path)
		v.validateMetadataList(diagram["metadata"], path+".metadata")
	})
}
