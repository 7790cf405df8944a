package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ormasoftchile/tmval/pkg/schema"
)

// ValidateStructure checks a raw document against the JSON Schema
// generated from the typed ThreatModel struct. Findings are advisory
// warnings: the rule tables remain the validation contract, the schema
// pass catches shape drift (unknown enum members, malformed nesting)
// the tables don't cover.
func ValidateStructure(doc any) []*ValidationError {
	schemaJSON, err := schema.GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{errorf("SCHEMA_GENERATION_FAILED", "", "generate schema: %v", err)}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{errorf("SCHEMA_GENERATION_FAILED", "", "unmarshal schema: %v", err)}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("threat-model-v1.json", schemaDoc); err != nil {
		return []*ValidationError{errorf("SCHEMA_GENERATION_FAILED", "", "add schema resource: %v", err)}
	}
	sch, err := c.Compile("threat-model-v1.json")
	if err != nil {
		return []*ValidationError{errorf("SCHEMA_GENERATION_FAILED", "", "compile schema: %v", err)}
	}

	// Round-trip through JSON so YAML-decoded documents normalize to the
	// value kinds the schema library expects.
	data, err := json.Marshal(doc)
	if err != nil {
		return []*ValidationError{errorf("SCHEMA_GENERATION_FAILED", "", "marshal document: %v", err)}
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return []*ValidationError{errorf("SCHEMA_GENERATION_FAILED", "", "unmarshal document: %v", err)}
	}

	if err := sch.Validate(instance); err != nil {
		var findings []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenCauses(ve) {
				findings = append(findings, warningf("SCHEMA_VIOLATION",
					strings.Join(cause.InstanceLocation, "/"),
					"%s", fmt.Sprintf("%v", cause.ErrorKind)))
			}
		} else {
			findings = append(findings, warningf("SCHEMA_VIOLATION", "", "%s", err.Error()))
		}
		return findings
	}
	return nil
}

// flattenCauses recursively collects all leaf validation errors.
func flattenCauses(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenCauses(cause)...)
	}
	return flat
}
