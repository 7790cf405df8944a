// Package schema defines the Go struct types for the threat model
// interchange format and provides permissive JSON/YAML loading.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Role names accepted in an authorization entry.
const (
	RoleReader = "reader"
	RoleWriter = "writer"
	RoleOwner  = "owner"
)

// Threat model frameworks. A document's framework selects the closed
// vocabulary its threats' threat_type values must come from.
const (
	FrameworkCIA     = "CIA"
	FrameworkSTRIDE  = "STRIDE"
	FrameworkLINDDUN = "LINDDUN"
	FrameworkDIE     = "DIE"
	FrameworkPLOT4ai = "PLOT4ai"
)

// Severity levels a threat may carry.
var ThreatSeverities = []string{"Unknown", "None", "Low", "Medium", "High", "Critical"}

// Cell shapes recognized in a DFD diagram.
const (
	ShapeActor            = "actor"
	ShapeProcess          = "process"
	ShapeStore            = "store"
	ShapeSecurityBoundary = "security-boundary"
	ShapeTextBox          = "text-box"
	ShapeEdge             = "edge"
)

// ThreatModel is the top-level document.
type ThreatModel struct {
	ID                   string          `yaml:"id"                    json:"id"                   jsonschema:"required,format=uuid"`
	Name                 string          `yaml:"name"                  json:"name"                 jsonschema:"required,minLength=1,maxLength=256"`
	Description          string          `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"maxLength=1024"`
	CreatedAt            string          `yaml:"created_at"            json:"created_at"           jsonschema:"required,format=date-time"`
	ModifiedAt           string          `yaml:"modified_at"           json:"modified_at"          jsonschema:"required,format=date-time"`
	Owner                string          `yaml:"owner"                 json:"owner"                jsonschema:"required,minLength=1"`
	CreatedBy            string          `yaml:"created_by"            json:"created_by"           jsonschema:"required,minLength=1"`
	ThreatModelFramework string          `yaml:"threat_model_framework,omitempty" json:"threat_model_framework,omitempty" jsonschema:"enum=CIA,enum=STRIDE,enum=LINDDUN,enum=DIE,enum=PLOT4ai"`
	IssueURL             string          `yaml:"issue_url,omitempty"   json:"issue_url,omitempty"`
	Authorization        []Authorization `yaml:"authorization"         json:"authorization"        jsonschema:"required"`
	Metadata             []Metadata      `yaml:"metadata,omitempty"    json:"metadata,omitempty"`
	Documents            []Document      `yaml:"documents,omitempty"   json:"documents,omitempty"`
	Diagrams             []Diagram       `yaml:"diagrams,omitempty"    json:"diagrams,omitempty"`
	Threats              []Threat        `yaml:"threats,omitempty"     json:"threats,omitempty"`
}

// Authorization grants a subject a role on the threat model.
type Authorization struct {
	Subject string `yaml:"subject" json:"subject" jsonschema:"required,minLength=1"`
	Role    string `yaml:"role"    json:"role"    jsonschema:"required,enum=reader,enum=writer,enum=owner"`
}

// Metadata is a free-form key/value pair attached to an entity.
type Metadata struct {
	Key   string `yaml:"key"   json:"key"   jsonschema:"required,minLength=1"`
	Value string `yaml:"value" json:"value" jsonschema:"required"`
}

// Document is an external reference document linked to the model.
type Document struct {
	ID          string     `yaml:"id"                    json:"id"          jsonschema:"required,format=uuid"`
	Name        string     `yaml:"name"                  json:"name"        jsonschema:"required,minLength=1"`
	URL         string     `yaml:"url"                   json:"url"         jsonschema:"required,format=uri"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Metadata    []Metadata `yaml:"metadata,omitempty"    json:"metadata,omitempty"`
}

// Threat is a single identified threat, optionally anchored to a diagram cell.
type Threat struct {
	ID            string     `yaml:"id"              json:"id"              jsonschema:"required,format=uuid"`
	ThreatModelID string     `yaml:"threat_model_id" json:"threat_model_id" jsonschema:"required,format=uuid"`
	Name          string     `yaml:"name"            json:"name"            jsonschema:"required,minLength=1"`
	Description   string     `yaml:"description,omitempty" json:"description,omitempty"`
	ThreatType    string     `yaml:"threat_type"     json:"threat_type"     jsonschema:"required,minLength=1"`
	Severity      string     `yaml:"severity"        json:"severity"        jsonschema:"required,enum=Unknown,enum=None,enum=Low,enum=Medium,enum=High,enum=Critical"`
	CreatedAt     string     `yaml:"created_at"      json:"created_at"      jsonschema:"required,format=date-time"`
	ModifiedAt    string     `yaml:"modified_at"     json:"modified_at"     jsonschema:"required,format=date-time"`
	DiagramID     string     `yaml:"diagram_id,omitempty" json:"diagram_id,omitempty" jsonschema:"format=uuid"`
	CellID        string     `yaml:"cell_id,omitempty"    json:"cell_id,omitempty"    jsonschema:"format=uuid"`
	Score         *float64   `yaml:"score,omitempty"      json:"score,omitempty"`
	Priority      string     `yaml:"priority,omitempty"   json:"priority,omitempty"`
	Mitigated     *bool      `yaml:"mitigated,omitempty"  json:"mitigated,omitempty"`
	Status        string     `yaml:"status,omitempty"     json:"status,omitempty"`
	IssueURL      string     `yaml:"issue_url,omitempty"  json:"issue_url,omitempty"`
	Metadata      []Metadata `yaml:"metadata,omitempty"   json:"metadata,omitempty"`
}

// Diagram is a typed, versioned cell graph (e.g. type "DFD-1.0.0").
type Diagram struct {
	ID          string     `yaml:"id"                    json:"id"          jsonschema:"required,format=uuid"`
	Name        string     `yaml:"name"                  json:"name"        jsonschema:"required,minLength=1"`
	Type        string     `yaml:"type"                  json:"type"        jsonschema:"required,pattern=^[A-Za-z0-9]+-[0-9]+\\.[0-9]+\\.[0-9]+$"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	CreatedAt   string     `yaml:"created_at"            json:"created_at"  jsonschema:"required,format=date-time"`
	ModifiedAt  string     `yaml:"modified_at"           json:"modified_at" jsonschema:"required,format=date-time"`
	Metadata    []Metadata `yaml:"metadata,omitempty"    json:"metadata,omitempty"`
	Cells       []Cell     `yaml:"cells,omitempty"       json:"cells,omitempty"`
}

// Position is the canvas location of a node cell.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Size is the rendered extent of a node cell.
type Size struct {
	Width  float64 `yaml:"width"  json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

/// Cell is one element of a diagram: a node (actor, process, store,
// security-boundary, text-box) or an edge connecting two nodes.
// Node geometry may be nested (position/size) or flat (x/y/width/height);
// both forms occur in exported documents.
type Cell struct {
	ID       string        `yaml:"id"                 json:"id"    jsonschema:"required,format=uuid"`
	Shape    string        `yaml:"shape"              json:"shape" jsonschema:"required,enum=actor,enum=process,enum=store,enum=security-boundary,enum=text-box,enum=edge"`
	Label    string        `yaml:"label,omitempty"    json:"label,omitempty"`
	Position *Position     `yaml:"position,omitempty" json:"position,omitempty"`
	Size     *Size         `yaml:"size,omitempty"     json:"size,omitempty"`
	X        *float64      `yaml:"x,omitempty"        json:"x,omitempty"`
	Y        *float64      `yaml:"y,omitempty"        json:"y,omitempty"`
	Width    *float64      `yaml:"width,omitempty"    json:"width,omitempty"`
	Height   *float64      `yaml:"height,omitempty"   json:"height,omitempty"`
	Source   *EdgeTerminal `yaml:"source,omitempty"   json:"source,omitempty"`
	Target   *EdgeTerminal `yaml:"target,omitempty"   json:"target,omitempty"`
}

// EdgeTerminal is one end of an edge. The wire form is either a bare
// cell-id string or an object {"cell": "<id>"}.
type EdgeTerminal struct {
	Cell string `yaml:"cell" json:"cell"`
}

// UnmarshalJSON accepts both the bare-string and object forms.
func (t *EdgeTerminal) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t.Cell = s
		return nil
	}
	var obj struct {
		Cell string `json:"cell"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Cell = obj.Cell
	return nil
}

// JSONSchema declares both accepted wire forms so generated schemas
// match what UnmarshalJSON accepts.
func (EdgeTerminal) JSONSchema() *jsonschema.Schema {
	cell := &jsonschema.Schema{Type: "string"}
	props := jsonschema.NewProperties()
	props.Set("cell", cell)
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "object", Properties: props, Required: []string{"cell"}},
		},
	}
}

// UnmarshalYAML accepts both the bare-string and mapping forms.
func (t *EdgeTerminal) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		t.Cell = s
		return nil
	}
	var obj struct {
		Cell string `yaml:"cell"`
	}
	if err := unmarshal(&obj); err != nil {
		return err
	}
	t.Cell = obj.Cell
	return nil
}

// FrameworkThreatTypes maps each framework to its closed threat_type
// vocabulary. Mirrors the taxonomy the upstream API defines; a threat's
// threat_type must be a member of its document framework's set.
var FrameworkThreatTypes = map[string][]string{
	FrameworkSTRIDE: {
		"Spoofing", "Tampering", "Repudiation",
		"Information Disclosure", "Denial of Service", "Elevation of Privilege",
	},
	FrameworkCIA: {
		"Confidentiality", "Integrity", "Availability",
	},
	FrameworkLINDDUN: {
		"Linkability", "Identifiability", "Non-repudiation", "Detectability",
		"Disclosure of Information", "Unawareness", "Non-compliance",
	},
	FrameworkDIE: {
		"Distributed", "Immutable", "Ephemeral",
	},
	FrameworkPLOT4ai: {
		"Privacy", "Liability", "Opacity", "Technology",
		"Fairness", "Accountability", "Interpretability",
	},
}

// IsFrameworkThreatType reports whether threatType belongs to framework's
// vocabulary. Unknown frameworks match nothing.
func IsFrameworkThreatType(framework, threatType string) bool {
	for _, t := range FrameworkThreatTypes[framework] {
		if t == threatType {
			return true
		}
	}
	return false
}

// Frameworks returns the known framework names in a stable order.
func Frameworks() []string {
	return []string{FrameworkCIA, FrameworkSTRIDE, FrameworkLINDDUN, FrameworkDIE, FrameworkPLOT4ai}
}

// NodePosition returns the effective position of a node cell, honoring
// both the nested and flat geometry forms. ok is false when neither is set.
func (c *Cell) NodePosition() (Position, bool) {
	if c.Position != nil {
		return *c.Position, true
	}
	if c.X != nil && c.Y != nil {
		return Position{X: *c.X, Y: *c.Y}, true
	}
	return Position{}, false
}

// NodeSize returns the effective size of a node cell, honoring both
// geometry forms.
func (c *Cell) NodeSize() (Size, bool) {
	if c.Size != nil {
		return *c.Size, true
	}
	if c.Width != nil && c.Height != nil {
		return Size{Width: *c.Width, Height: *c.Height}, true
	}
	return Size{}, false
}

// IsEdge reports whether the cell is an edge connector.
func (c *Cell) IsEdge() bool {
	return c.Shape == ShapeEdge
}

// OwnerEntry returns the first authorization entry with the owner role.
func (tm *ThreatModel) OwnerEntry() (Authorization, error) {
	for _, a := range tm.Authorization {
		if a.Role == RoleOwner {
			return a, nil
		}
	}
	return Authorization{}, fmt.Errorf("threat model %q has no owner authorization", tm.Name)
}

// DiagramByID returns the diagram with the given id, or nil.
func (tm *ThreatModel) DiagramByID(id string) *Diagram {
	for i := range tm.Diagrams {
		if tm.Diagrams[i].ID == id {
			return &tm.Diagrams[i]
		}
	}
	return nil
}
