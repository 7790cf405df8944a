package validate

import (
	"fmt"
	"strings"
)

// referenceMap indexes every referenceable id in the document in one
// pass so the per-threat checks are set lookups.
type referenceMap struct {
	diagramIDs  map[string]bool
	cellIDs     map[string]map[string]bool // diagram id → cell id set
	documentIDs map[string]bool
	threatIDs   map[string]bool
	userIDs     map[string]bool
}

// ReferenceValidator checks cross-entity consistency over a whole
// document: threat→diagram/cell integrity, back-references, orphan
// detection. ValidateReferences returns the errors bucket only.
type ReferenceValidator struct {
	collector
}

func NewReferenceValidator() *ReferenceValidator {
	return &ReferenceValidator{}
}

// ValidateReferences validates all cross-entity references in doc.
func (v *ReferenceValidator) ValidateReferences(doc any) []*ValidationError {
	v.reset()

	tm, ok := doc.(map[string]any)
	if !ok || tm == nil {
		v.add(errorf("INVALID_THREAT_MODEL", "", "threat model must be an object, got %T", doc))
		return v.errors
	}

	refs := buildReferenceMap(tm)

	v.checkPrincipals(tm, refs)
	v.checkThreatReferences(tm, refs)
	v.checkMetadataReferences(tm, refs)
	v.checkOrphanedThreats(tm, refs)

	return v.errors
}

// buildReferenceMap collects all ids in one pass. Owner and created_by
// are inserted into the user set unconditionally alongside the
// authorization subjects; as a consequence the owner/creator presence
// checks below cannot fire. That matches the upstream implementation
// and is kept as-is.
func buildReferenceMap(tm map[string]any) *referenceMap {
	refs := &referenceMap{
		diagramIDs:  map[string]bool{},
		cellIDs:     map[string]map[string]bool{},
		documentIDs: map[string]bool{},
		threatIDs:   map[string]bool{},
		userIDs:     map[string]bool{},
	}

	if diagrams, ok := tm["diagrams"].([]any); ok {
		for _, item := range diagrams {
			d, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id, _ := d["id"].(string)
			if id == "" {
				continue
			}
			refs.diagramIDs[id] = true
			if cells, ok := d["cells"].([]any); ok {
				set := map[string]bool{}
				for _, c := range cells {
					if cell, ok := c.(map[string]any); ok {
						if cid, _ := cell["id"].(string); cid != "" {
							set[cid] = true
						}
					}
				}
				refs.cellIDs[id] = set
			}
		}
	}

	if documents, ok := tm["documents"].([]any); ok {
		for _, item := range documents {
			if d, ok := item.(map[string]any); ok {
				if id, _ := d["id"].(string); id != "" {
					refs.documentIDs[id] = true
				}
			}
		}
	}

	if threats, ok := tm["threats"].([]any); ok {
		for _, item := range threats {
			if t, ok := item.(map[string]any); ok {
				if id, _ := t["id"].(string); id != "" {
					refs.threatIDs[id] = true
				}
			}
		}
	}

	if auth, ok := tm["authorization"].([]any); ok {
		for _, item := range auth {
			if entry, ok := item.(map[string]any); ok {
				if subject, _ := entry["subject"].(string); subject != "" {
					refs.userIDs[subject] = true
				}
			}
		}
	}
	if owner, _ := tm["owner"].(string); owner != "" {
		refs.userIDs[owner] = true
	}
	if creator, _ := tm["created_by"].(string); creator != "" {
		refs.userIDs[creator] = true
	}

	return refs
}

// checkPrincipals verifies owner and created_by appear in the user set.
// Dead by construction (see buildReferenceMap); kept for parity with the
// upstream validator.
func (v *ReferenceValidator) checkPrincipals(tm map[string]any, refs *referenceMap) {
	if owner, _ := tm["owner"].(string); owner != "" && !refs.userIDs[owner] {
		v.add(warningf("OWNER_NOT_IN_AUTHORIZATION", "owner",
			"owner %q has no authorization entry", owner))
	}
	if creator, _ := tm["created_by"].(string); creator != "" && !refs.userIDs[creator] {
		v.add(infof("CREATOR_NOT_IN_AUTHORIZATION", "created_by",
			"created_by %q has no authorization entry", creator))
	}
}

func (v *ReferenceValidator) checkThreatReferences(tm map[string]any, refs *referenceMap) {
	modelID, _ := tm["id"].(string)

	v.validateArray(tm["threats"], "threats", func(item any, path string) {
		threat, ok := item.(map[string]any)
		if !ok {
			return
		}

		if refID, _ := threat["threat_model_id"].(string); refID != "" && modelID != "" && refID != modelID {
			v.add(errorf("INVALID_THREAT_MODEL_REFERENCE", path+".threat_model_id",
				"threat_model_id %q does not match the document id %q", refID, modelID))
		}

		diagramID, _ := threat["diagram_id"].(string)
		cellID, _ := threat["cell_id"].(string)

		if diagramID != "" && !refs.diagramIDs[diagramID] {
			v.add(errorf("INVALID_DIAGRAM_REFERENCE", path+".diagram_id",
				"diagram_id %q does not reference a diagram in this model", diagramID))
			return
		}

		if cellID != "" && diagramID == "" {
			v.add(warningf("ORPHANED_CELL_REFERENCE", path+".cell_id",
				"cell_id %q is set without a diagram_id", cellID))
			return
		}

		// Cell scoping is diagram-local: the cell must exist in the
		// referenced diagram, not merely somewhere in the model.
		if cellID != "" && diagramID != "" {
			if !refs.cellIDs[diagramID][cellID] {
				v.add(errorf("INVALID_CELL_REFERENCE", path+".cell_id",
					"cell_id %q does not exist in diagram %q", cellID, diagramID))
			}
		}
	})
}

// checkMetadataReferences applies the heuristic: a metadata value that
// looks like a UUID under a key mentioning "threat" probably intends to
// reference a threat; flag it when no such threat exists.
func (v *ReferenceValidator) checkMetadataReferences(tm map[string]any, refs *referenceMap) {
	check := func(value any, basePath string) {
		entries, ok := value.([]any)
		if !ok {
			return
		}
		for i, item := range entries {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			key, _ := entry["key"].(string)
			val, _ := entry["value"].(string)
			if key == "" || val == "" {
				continue
			}
			if !strings.Contains(strings.ToLower(key), "threat") {
				continue
			}
			if IsValidUUID(val) && !refs.threatIDs[val] {
				v.add(infof("POTENTIAL_INVALID_THREAT_REFERENCE", fmt.Sprintf("%s[%d]", basePath, i),
					"metadata key %q holds UUID %q which is not a known threat id", key, val))
			}
		}
	}

	check(tm["metadata"], "metadata")
	for _, collection := range []string{"documents", "threats", "diagrams"} {
		if entities, ok := tm[collection].([]any); ok {
			for i, item := range entities {
				if entity, ok := item.(map[string]any); ok {
					check(entity["metadata"], fmt.Sprintf("%s[%d].metadata", collection, i))
				}
			}
		}
	}
}

// checkOrphanedThreats emits one aggregate finding naming every threat
// with no diagram anchor. Suppressed entirely when the model has no
// diagrams — nothing to anchor to yet.
func (v *ReferenceValidator) checkOrphanedThreats(tm map[string]any, refs *referenceMap) {
	if len(refs.diagramIDs) == 0 {
		return
	}
	threats, ok := tm["threats"].([]any)
	if !ok {
		return
	}

	var orphaned []string
	for _, item := range threats {
		threat, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if diagramID, _ := threat["diagram_id"].(string); diagramID != "" {
			continue
		}
		name, _ := threat["name"].(string)
		if name == "" {
			name, _ = threat["id"].(string)
		}
		if name != "" {
			orphaned = append(orphaned, name)
		}
	}

	if len(orphaned) > 0 {
		v.add(infof("ORPHANED_THREATS", "threats",
			"%d threat(s) are not associated with any diagram: %s",
			len(orphaned), strings.Join(orphaned, ", ")))
	}
}
