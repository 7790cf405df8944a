package validate

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateReferencesWellFormed(t *testing.T) {
	v := NewReferenceValidator()
	errs := v.ValidateReferences(validDocument())
	if len(errs) != 0 {
		t.Fatalf("expected no reference errors, got: %v", errs)
	}
}

func TestValidateReferencesNonObject(t *testing.T) {
	v := NewReferenceValidator()
	if errs := v.ValidateReferences("nope"); !hasCode(errs, "INVALID_THREAT_MODEL") {
		t.Errorf("expected INVALID_THREAT_MODEL, got %v", errs)
	}
}

func TestThreatModelIDBackReference(t *testing.T) {
	v := NewReferenceValidator()
	doc := validDocument()
	threat := doc["threats"].([]any)[0].(map[string]any)
	threat["threat_model_id"] = uuid.NewString()
	errs := v.ValidateReferences(doc)
	if !hasCode(errs, "INVALID_THREAT_MODEL_REFERENCE") {
		t.Errorf("expected INVALID_THREAT_MODEL_REFERENCE, got: %v", errs)
	}
}

func TestInvalidDiagramReference(t *testing.T) {
	v := NewReferenceValidator()
	doc := validDocument()
	threat := doc["threats"].([]any)[0].(map[string]any)
	threat["diagram_id"] = uuid.NewString()
	errs := v.ValidateReferences(doc)
	if !hasCode(errs, "INVALID_DIAGRAM_REFERENCE") {
		t.Errorf("expected INVALID_DIAGRAM_REFERENCE, got: %v", errs)
	}
	// The cell check is not reached once the diagram is unknown.
	if hasCode(errs, "INVALID_CELL_REFERENCE") {
		t.Errorf("cell check should not fire for an unknown diagram: %v", errs)
	}
}

func TestInvalidCellReference(t *testing.T) {
	v := NewReferenceValidator()
	doc := validDocument()
	threat := doc["threats"].([]any)[0].(map[string]any)
	threat["cell_id"] = uuid.NewString()
	errs := v.ValidateReferences(doc)
	if !hasCode(errs, "INVALID_CELL_REFERENCE") {
		t.Errorf("expected INVALID_CELL_REFERENCE, got: %v", errs)
	}
}

// Cell scoping is diagram-local: a cell that exists only in a different
// diagram still fails the check against the referenced diagram.
func TestCellReferenceIsDiagramLocal(t *testing.T) {
	v := NewReferenceValidator()
	doc := validDocument()

	otherDiagramID := uuid.NewString()
	otherCellID := uuid.NewString()
	doc["diagrams"] = append(doc["diagrams"].([]any), map[string]any{
		"id":          otherDiagramID,
		"name":        "Other flow",
		"type":        "DFD-1.0.0",
		"created_at":  "2025-01-15T10:30:00Z",
		"modified_at": "2025-01-15T10:30:00Z",
		"cells": []any{
			map[string]any{
				"id":       otherCellID,
				"shape":    "process",
				"position": map[string]any{"x": 0.0, "y": 0.0},
				"size":     map[string]any{"width": 80.0, "height": 40.0},
			},
		},
	})

	// The threat still points at the first diagram, but at the cell that
	// only exists in the second.
	threat := doc["threats"].([]any)[0].(map[string]any)
	threat["cell_id"] = otherCellID

	errs := v.ValidateReferences(doc)
	if !hasCode(errs, "INVALID_CELL_REFERENCE") {
		t.Errorf("cell in a different diagram must still fail, got: %v", errs)
	}
}

func TestOrphanedCellReferenceWarning(t *testing.T) {
	v := NewReferenceValidator()
	doc := validDocument()
	threat := doc["threats"].([]any)[0].(map[string]any)
	delete(threat, "diagram_id")
	errs := v.ValidateReferences(doc)
	if hasCode(errs, "ORPHANED_CELL_REFERENCE") {
		t.Error("orphaned cell reference must be a warning, not an error")
	}
	if !hasCode(v.Warnings(), "ORPHANED_CELL_REFERENCE") {
		t.Errorf("expected ORPHANED_CELL_REFERENCE warning, got: %v", v.Warnings())
	}
}

// Owner and created_by are inserted into the user set during map
// construction, so the presence checks can never fire — even for a
// principal that has no authorization entry. Upstream behavior, kept.
func TestOwnerCreatorChecksAreDead(t *testing.T) {
	v := NewReferenceValidator()
	doc := validDocument()
	doc["owner"] = "stranger@example.com"
	doc["created_by"] = "ghost@example.com"
	errs := v.ValidateReferences(doc)
	if hasCode(errs, "CREATOR_NOT_IN_AUTHORIZATION") {
		t.Error("CREATOR_NOT_IN_AUTHORIZATION fired; the map construction should make it unreachable")
	}
	if hasCode(v.Warnings(), "OWNER_NOT_IN_AUTHORIZATION") {
		t.Error("OWNER_NOT_IN_AUTHORIZATION fired; the map construction should make it unreachable")
	}
}

func TestMetadataThreatReferenceHeuristic(t *testing.T) {
	v := NewReferenceValidator()
	doc := validDocument()
	phantom := uuid.NewString()
	doc["metadata"] = []any{
		map[string]any{"key": "related_threat", "value": phantom},
		map[string]any{"key": "unrelated", "value": phantom},        // key doesn't mention threat
		map[string]any{"key": "threat_notes", "value": "freetext"},  // value not UUID-shaped
		map[string]any{"key": "parent_threat", "value": fixThreatID}, // resolves
	}
	errs := v.ValidateReferences(doc)
	if countCode(errs, "POTENTIAL_INVALID_THREAT_REFERENCE") != 1 {
		t.Errorf("exactly one heuristic hit expected, got: %v", errs)
	}
	e := findCode(errs, "POTENTIAL_INVALID_THREAT_REFERENCE")
	if e.Severity != SeverityInfo {
		t.Errorf("heuristic finding should be info severity, got %s", e.Severity)
	}
}

func TestOrphanedThreatsAggregate(t *testing.T) {
	v := NewReferenceValidator()

	doc := validDocument()
	orphanID := uuid.NewString()
	doc["threats"] = append(doc["threats"].([]any), map[string]any{
		"id":              orphanID,
		"threat_model_id": fixModelID,
		"name":            "Unanchored threat",
		"threat_type":     "Spoofing",
		"severity":        "Low",
		"created_at":      "2025-01-16T09:00:00Z",
		"modified_at":     "2025-01-16T09:00:00Z",
	})
	errs := v.ValidateReferences(doc)
	e := findCode(errs, "ORPHANED_THREATS")
	if e == nil {
		t.Fatalf("expected one aggregate ORPHANED_THREATS, got: %v", errs)
	}
	if !strings.Contains(e.Message, "Unanchored threat") {
		t.Errorf("aggregate should name the orphaned threat: %q", e.Message)
	}
	if countCode(errs, "ORPHANED_THREATS") != 1 {
		t.Error("orphaned threats must aggregate into a single finding")
	}

	// Suppressed entirely when the model has no diagrams.
	doc["diagrams"] = []any{}
	for _, item := range doc["threats"].([]any) {
		threat := item.(map[string]any)
		delete(threat, "diagram_id")
		delete(threat, "cell_id")
	}
	errs = v.ValidateReferences(doc)
	if hasCode(errs, "ORPHANED_THREATS") {
		t.Errorf("no diagrams: aggregate must be suppressed, got: %v", errs)
	}
}
