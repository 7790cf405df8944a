package validate

import (
	"fmt"
	"regexp"

	"github.com/ormasoftchile/tmval/pkg/schema"
)

// MinCellDimension is the smallest usable node width or height. A node
// with both dimensions exactly zero is flagged as a warning (collapsed
// placeholder); a non-zero dimension below this floor is an error.
const MinCellDimension = 10.0

// dfdTypeRe matches the DFD family at major version 1; minor and patch
// float freely.
var dfdTypeRe = regexp.MustCompile(`^DFD-1\.\d+\.\d+$`)

var dfdShapes = map[string]bool{
	schema.ShapeActor:            true,
	schema.ShapeProcess:          true,
	schema.ShapeStore:            true,
	schema.ShapeSecurityBoundary: true,
	schema.ShapeTextBox:          true,
	schema.ShapeEdge:             true,
}

// DFDValidator validates Data Flow Diagram cell graphs (family "DFD",
// major version 1).
type DFDValidator struct {
	collector
}

func NewDFDValidator() *DFDValidator {
	return &DFDValidator{}
}

// DiagramType returns the diagram family this validator handles.
func (v *DFDValidator) DiagramType() string { return "DFD" }

// VersionPattern returns the type pattern used for factory matching.
func (v *DFDValidator) VersionPattern() *regexp.Regexp { return dfdTypeRe }

// Validate checks a whole diagram object: type support, then its cells.
// Returns the errors bucket only.
func (v *DFDValidator) Validate(diagram any) []*ValidationError {
	v.reset()

	d, ok := diagram.(map[string]any)
	if !ok || d == nil {
		v.add(errorf("INVALID_DIAGRAM", "", "diagram must be an object, got %T", diagram))
		return v.errors
	}

	if typ, _ := d["type"].(string); !dfdTypeRe.MatchString(typ) {
		v.add(errorf("UNSUPPORTED_DIAGRAM_TYPE", "type",
			"diagram type %q is not supported by the DFD validator (want DFD-1.x.x)", typ))
		return v.errors
	}

	if cells, ok := d["cells"]; ok {
		v.checkCells(cells)
	}
	return v.errors
}

// ValidateCells checks a cell array in isolation. Returns the errors
// bucket only.
func (v *DFDValidator) ValidateCells(cells any) []*ValidationError {
	v.reset()
	v.checkCells(cells)
	return v.errors
}

func (v *DFDValidator) checkCells(cells any) {
	arr, ok := cells.([]any)
	if !ok {
		v.add(errorf("INVALID_CELLS", "cells", "cells must be an array, got %T", cells))
		return
	}

	for i, item := range arr {
		v.checkCell(item, cellPath(i))
	}
	v.checkCellRelationships(arr)
}

func cellPath(i int) string {
	return fmt.Sprintf("cells[%d]", i)
}

func (v *DFDValidator) checkCell(item any, path string) {
	cell, ok := item.(map[string]any)
	if !ok || cell == nil {
		v.add(errorf("INVALID_CELL", path, "cell must be an object, got %T", item))
		return
	}

	shape, _ := cell["shape"].(string)
	if shape == "" {
		v.add(errorf("MISSING_SHAPE", path+".shape", "cell has no shape"))
	} else if !dfdShapes[shape] {
		v.add(errorf("INVALID_CELL_TYPE", path+".shape",
			"shape %q is not a DFD shape (actor, process, store, security-boundary, text-box, edge)", shape))
	}

	id, _ := cell["id"].(string)
	if id == "" {
		v.add(errorf("MISSING_CELL_ID", path+".id", "cell has no id"))
	} else if !IsValidUUID(id) {
		v.add(errorf("INVALID_CELL_ID", path+".id", "cell id %q is not a UUID", id))
	}

	if shape == schema.ShapeEdge {
		v.checkEdgeCell(cell, path)
	} else if shape != "" {
		v.checkNodeCell(cell, path)
	}
}

// checkNodeCell validates geometry: nested position/size or the flat
// x/y/width/height form, numeric values, and the dimension policy.
func (v *DFDValidator) checkNodeCell(cell map[string]any, path string) {
	if _, _, ok := nodeCoordinates(cell, "position", "x", "y"); !ok {
		if hasGeometry(cell, "position", "x", "y") {
			v.add(errorf("INVALID_POSITION", path, "cell position must have numeric x and y"))
		} else {
			v.add(errorf("MISSING_POSITION", path, "node cell requires a position"))
		}
	}

	w, h, ok := nodeCoordinates(cell, "size", "width", "height")
	if !ok {
		if hasGeometry(cell, "size", "width", "height") {
			v.add(errorf("INVALID_SIZE", path, "cell size must have numeric width and height"))
		} else {
			v.add(errorf("MISSING_SIZE", path, "node cell requires a size"))
		}
		return
	}

	switch {
	case w == 0 && h == 0:
		v.add(warningf("INVALID_DIMENSIONS", path, "cell has zero width and height"))
	case w < MinCellDimension || h < MinCellDimension:
		v.add(errorf("INVALID_DIMENSIONS", path,
			"cell dimensions %.0fx%.0f are below the minimum of %.0f", w, h, MinCellDimension))
	}
}

// nodeCoordinates extracts a coordinate pair from the nested object form
// (cell[nested] = {a, b}) or the flat form (cell[a], cell[b]).
func nodeCoordinates(cell map[string]any, nested, a, b string) (float64, float64, bool) {
	if obj, ok := cell[nested].(map[string]any); ok {
		av, aok := numberOf(obj[a])
		bv, bok := numberOf(obj[b])
		if aok && bok {
			return av, bv, true
		}
		return 0, 0, false
	}
	av, aok := numberOf(cell[a])
	bv, bok := numberOf(cell[b])
	if aok && bok {
		return av, bv, true
	}
	return 0, 0, false
}

// hasGeometry reports whether any of the geometry keys are present at
// all, distinguishing "missing" from "present but invalid".
func hasGeometry(cell map[string]any, nested, a, b string) bool {
	if _, ok := cell[nested]; ok {
		return true
	}
	if _, ok := cell[a]; ok {
		return true
	}
	_, ok := cell[b]
	return ok
}

func (v *DFDValidator) checkEdgeCell(cell map[string]any, path string) {
	source, sourceOK := v.checkEdgeTerminal(cell, "source", path)
	target, targetOK := v.checkEdgeTerminal(cell, "target", path)

	if sourceOK && targetOK && source == target {
		v.add(warningf("SELF_REFERENCING_EDGE", path, "edge source and target are the same cell %q", source))
	}
}

// checkEdgeTerminal validates one edge endpoint: present, and either a
// bare UUID string or an object {cell: <uuid>}.
func (v *DFDValidator) checkEdgeTerminal(cell map[string]any, field, path string) (string, bool) {
	code := "INVALID_EDGE_SOURCE"
	missingCode := "MISSING_EDGE_SOURCE"
	if field == "target" {
		code = "INVALID_EDGE_TARGET"
		missingCode = "MISSING_EDGE_TARGET"
	}

	raw, ok := cell[field]
	if !ok || raw == nil {
		v.add(errorf(missingCode, path+"."+field, "edge cell requires a %s", field))
		return "", false
	}

	id, ok := edgeTerminalID(raw)
	if !ok || !IsValidUUID(id) {
		v.add(errorf(code, path+"."+field,
			"edge %s must be a cell id or {cell: <id>} with a UUID, got %v", field, raw))
		return "", false
	}
	return id, true
}

// edgeTerminalID normalizes both endpoint forms to a bare id.
func edgeTerminalID(raw any) (string, bool) {
	switch t := raw.(type) {
	case string:
		return t, t != ""
	case map[string]any:
		id, _ := t["cell"].(string)
		return id, id != ""
	}
	return "", false
}

// checkCellRelationships runs the whole-array pass after per-cell checks:
// duplicate ids and edge endpoints that do not reference a sibling node.
func (v *DFDValidator) checkCellRelationships(cells []any) {
	seen := map[string]int{}
	nodeIDs := map[string]bool{}

	for i, item := range cells {
		cell, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := cell["id"].(string)
		if id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			v.add(errorf("DUPLICATE_CELL_IDS", cellPath(i)+".id",
				"cell id %q is already used at cells[%d]", id, first))
		} else {
			seen[id] = i
		}
		if shape, _ := cell["shape"].(string); shape != schema.ShapeEdge {
			nodeIDs[id] = true
		}
	}

	for i, item := range cells {
		cell, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if shape, _ := cell["shape"].(string); shape != schema.ShapeEdge {
			continue
		}
		for _, field := range []string{"source", "target"} {
			id, ok := edgeTerminalID(cell[field])
			if !ok || !IsValidUUID(id) {
				continue // format problems already reported per cell
			}
			if !nodeIDs[id] {
				code := "INVALID_EDGE_SOURCE"
				if field == "target" {
					code = "INVALID_EDGE_TARGET"
				}
				v.add(errorf(code, cellPath(i)+"."+field,
					"edge %s %q does not reference a cell in this diagram", field, id))
			}
		}
	}
}
