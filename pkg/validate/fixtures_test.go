package validate

import (
	"regexp"

	"github.com/google/uuid"
)

// Fixture ids are generated once per test binary; the validators only
// care about format and cross-reference consistency.
var (
	fixModelID   = uuid.NewString()
	fixDiagramID = uuid.NewString()
	fixActorID   = uuid.NewString()
	fixProcessID = uuid.NewString()
	fixEdgeID    = uuid.NewString()
	fixThreatID  = uuid.NewString()
	fixDocID     = uuid.NewString()
)

// validDocument builds a fully conforming threat model document in the
// raw map form the validators consume. Tests mutate the copy they get.
func validDocument() map[string]any {
	return map[string]any{
		"id":                     fixModelID,
		"name":                   "Payment Service",
		"description":            "Threat model for the payment flow",
		"created_at":             "2025-01-15T10:30:00Z",
		"modified_at":            "2025-06-02T08:00:00Z",
		"owner":                  "alice@example.com",
		"created_by":             "alice@example.com",
		"threat_model_framework": "STRIDE",
		"authorization": []any{
			map[string]any{"subject": "alice@example.com", "role": "owner"},
			map[string]any{"subject": "bob@example.com", "role": "writer"},
		},
		"metadata": []any{
			map[string]any{"key": "reviewed", "value": "true"},
		},
		"documents": []any{
			map[string]any{
				"id":   fixDocID,
				"name": "Architecture overview",
				"url":  "https://wiki.example.com/payments",
			},
		},
		"diagrams": []any{
			map[string]any{
				"id":          fixDiagramID,
				"name":        "Payment flow",
				"type":        "DFD-1.0.0",
				"created_at":  "2025-01-15T10:30:00Z",
				"modified_at": "2025-06-02T08:00:00Z",
				"cells":       validCells(),
			},
		},
		"threats": []any{
			map[string]any{
				"id":              fixThreatID,
				"threat_model_id": fixModelID,
				"name":            "Tampered payment amount",
				"threat_type":     "Tampering",
				"severity":        "High",
				"created_at":      "2025-01-16T09:00:00Z",
				"modified_at":     "2025-01-16T09:00:00Z",
				"diagram_id":      fixDiagramID,
				"cell_id":         fixProcessID,
			},
		},
	}
}

// validCells builds a minimal actor → process DFD cell graph.
func validCells() []any {
	return []any{
		map[string]any{
			"id":       fixActorID,
			"shape":    "actor",
			"position": map[string]any{"x": 40.0, "y": 40.0},
			"size":     map[string]any{"width": 80.0, "height": 40.0},
		},
		map[string]any{
			"id":     fixProcessID,
			"shape":  "process",
			"x":      200.0,
			"y":      40.0,
			"width":  120.0,
			"height": 60.0,
		},
		map[string]any{
			"id":     fixEdgeID,
			"shape":  "edge",
			"source": fixActorID,
			"target": map[string]any{"cell": fixProcessID},
		},
	}
}

// stubDiagramValidator stands in for a runtime-registered diagram
// family in factory and façade tests.
type stubDiagramValidator struct {
	collector
	family          string
	panicOnValidate bool
}

func (s *stubDiagramValidator) DiagramType() string { return s.family }

func (s *stubDiagramValidator) VersionPattern() *regexp.Regexp {
	return regexp.MustCompile("^" + s.family + `-\d+\.\d+\.\d+$`)
}

func (s *stubDiagramValidator) Validate(diagram any) []*ValidationError {
	s.reset()
	if s.panicOnValidate {
		panic("stub validator exploded")
	}
	return s.errors
}

func (s *stubDiagramValidator) ValidateCells(cells any) []*ValidationError {
	s.reset()
	return s.errors
}

func hasCode(errs []*ValidationError, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func countCode(errs []*ValidationError, code string) int {
	n := 0
	for _, e := range errs {
		if e.Code == code {
			n++
		}
	}
	return n
}

func findCode(errs []*ValidationError, code string) *ValidationError {
	for _, e := range errs {
		if e.Code == code {
			return e
		}
	}
	return nil
}
