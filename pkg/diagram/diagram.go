// Package diagram renders DFD cell graphs as text diagrams.
// Supports Mermaid flowchart and ASCII formats.
package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/ormasoftchile/tmval/pkg/schema"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// Render produces a diagram string from a DFD diagram's cells.
func Render(d *schema.Diagram, format Format) (string, error) {
	if d == nil {
		return "", fmt.Errorf("nil diagram")
	}
	g := buildGraph(d)
	switch format {
	case FormatMermaid:
		return renderMermaid(g), nil
	case FormatASCII:
		return renderASCII(g), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// --- graph extraction ---

type graph struct {
	name       string
	nodes      []node
	edges      []edge
	boundaries []node
}

type node struct {
	id    string
	label string
	shape string
}

type edge struct {
	id     string
	label  string
	source string
	target string
}

// buildGraph separates a diagram's cells into nodes, edges and security
// boundaries, ordered top-to-bottom then left-to-right by position so
// the rendering is stable across runs.
func buildGraph(d *schema.Diagram) graph {
	g := graph{name: d.Name}
	if g.name == "" {
		g.name = "Data Flow Diagram"
	}

	for _, c := range d.Cells {
		switch c.Shape {
		case schema.ShapeEdge:
			g.edges = append(g.edges, edge{
				id:     c.ID,
				label:  c.Label,
				source: terminalID(c.Source),
				target: terminalID(c.Target),
			})
		case schema.ShapeSecurityBoundary:
			g.boundaries = append(g.boundaries, node{id: c.ID, label: cellLabel(c), shape: c.Shape})
		default:
			g.nodes = append(g.nodes, node{id: c.ID, label: cellLabel(c), shape: c.Shape})
		}
	}

	positions := make(map[string][2]float64, len(d.Cells))
	for _, c := range d.Cells {
		if p, ok := c.NodePosition(); ok {
			positions[c.ID] = [2]float64{p.X, p.Y}
		}
	}
	sort.SliceStable(g.nodes, func(i, j int) bool {
		a, b := positions[g.nodes[i].id], positions[g.nodes[j].id]
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[0] < b[0]
	})
	return g
}

func terminalID(t *schema.EdgeTerminal) string {
	if t == nil {
		return ""
	}
	return t.Cell
}

func cellLabel(c schema.Cell) string {
	if c.Label != "" {
		return c.Label
	}
	return c.Shape + " " + shortID(c.ID)
}

// --- Mermaid flowchart ---

func renderMermaid(g graph) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	for _, n := range g.nodes {
		b.WriteString("    " + nodeDefinition(n) + "\n")
	}

	for _, bd := range g.boundaries {
		id := safeID(bd.id)
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, escMermaid(bd.label)))
		b.WriteString(fmt.Sprintf("    style %s stroke-dasharray: 5 5,fill:none,stroke:#c33\n", id))
	}

	for _, e := range g.edges {
		if e.source == "" || e.target == "" {
			continue
		}
		if e.label != "" {
			b.WriteString(fmt.Sprintf("    %s -->|%q| %s\n",
				safeID(e.source), truncate(e.label, 30), safeID(e.target)))
		} else {
			b.WriteString(fmt.Sprintf("    %s --> %s\n", safeID(e.source), safeID(e.target)))
		}
	}

	for _, n := range g.nodes {
		if style := shapeStyle(n.shape); style != "" {
			b.WriteString(fmt.Sprintf("    style %s %s\n", safeID(n.id), style))
		}
	}

	return b.String()
}

func nodeDefinition(n node) string {
	id := safeID(n.id)
	label := escMermaid(n.label)
	switch n.shape {
	case schema.ShapeActor:
		return fmt.Sprintf(`%s["%s %s"]`, id, shapeIcon(n.shape), label)
	case schema.ShapeProcess:
		return fmt.Sprintf(`%s(("%s"))`, id, label)
	case schema.ShapeStore:
		return fmt.Sprintf(`%s[("%s")]`, id, label)
	case schema.ShapeTextBox:
		return fmt.Sprintf(`%s>"%s"]`, id, label)
	default:
		return fmt.Sprintf(`%s["%s"]`, id, label)
	}
}

func shapeStyle(shape string) string {
	switch shape {
	case schema.ShapeActor:
		return "fill:#1a3a4a,stroke:#0af"
	case schema.ShapeStore:
		return "fill:#3a2a1a,stroke:#fa0"
	default:
		return ""
	}
}

// --- ASCII ---

func renderASCII(g graph) string {
	var b strings.Builder

	if len(g.nodes) == 0 {
		b.WriteString(g.name + " (empty)\n")
		return b.String()
	}

	// Compute uniform box width so every box and connector aligns.
	const indent = 8
	boxWidth := computeUniformBoxWidth(g)
	connCol := indent + 1 + boxWidth/2 // +1 accounts for the └/┌ border character
	pad := strings.Repeat(" ", indent)
	connPad := strings.Repeat(" ", connCol)

	// Header, same width as body boxes, name centered.
	headerText := centerPad(g.name, boxWidth)
	mid := boxWidth / 2
	b.WriteString(pad + "╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString(pad + "║" + headerText + "║\n")
	b.WriteString(pad + "╚" + strings.Repeat("═", mid) + "╤" + strings.Repeat("═", boxWidth-mid-1) + "╝\n")
	b.WriteString(connPad + "│\n")

	labels := make(map[string]string, len(g.nodes))
	for i, n := range g.nodes {
		labels[n.id] = n.label
		writeASCIINode(&b, n, indent, boxWidth)
		if i < len(g.nodes)-1 {
			b.WriteString(connPad + "│\n")
		}
	}

	if len(g.edges) > 0 {
		b.WriteString("\n" + pad + "flows:\n")
		for _, e := range g.edges {
			src := labels[e.source]
			if src == "" {
				src = shortID(e.source)
			}
			dst := labels[e.target]
			if dst == "" {
				dst = shortID(e.target)
			}
			line := pad + "  " + src + " ──▶ " + dst
			if e.label != "" {
				line += "  (" + truncate(e.label, 40) + ")"
			}
			b.WriteString(line + "\n")
		}
	}

	for _, bd := range g.boundaries {
		b.WriteString(pad + "  ╌╌ boundary: " + bd.label + "\n")
	}

	return b.String()
}

// computeUniformBoxWidth returns the widest interior width needed
// across all nodes and the header name.
func computeUniformBoxWidth(g graph) int {
	minWidth := 22
	w := minWidth

	nameWidth := runewidth.StringWidth(g.name) + 4 // "  name  "
	if nameWidth > w {
		w = nameWidth
	}

	for _, n := range g.nodes {
		content := fmt.Sprintf(" %s %s ", shapeIcon(n.shape), n.label)
		if cw := runewidth.StringWidth(content); cw > w {
			w = cw
		}
	}
	return w
}

// centerPad centers s within width using spaces, based on display width.
func centerPad(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	total := width - sw
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func writeASCIINode(b *strings.Builder, n node, indent, boxWidth int) {
	content := fmt.Sprintf(" %s %s ", shapeIcon(n.shape), n.label)
	contentWidth := runewidth.StringWidth(content)

	pad := strings.Repeat(" ", indent)
	topBot := strings.Repeat("─", boxWidth)
	mid := boxWidth / 2

	b.WriteString(pad + "┌" + topBot + "┐\n")
	b.WriteString(pad + "│" + content + strings.Repeat(" ", boxWidth-contentWidth) + "│\n")
	b.WriteString(pad + "└" + strings.Repeat("─", mid) + "┬" + strings.Repeat("─", boxWidth-mid-1) + "┘\n")
}

func shapeIcon(shape string) string {
	switch shape {
	case schema.ShapeActor:
		return "🧑"
	case schema.ShapeProcess:
		return "⚙"
	case schema.ShapeStore:
		return "🗄"
	case schema.ShapeTextBox:
		return "📝"
	default:
		return "○"
	}
}

// --- string helpers ---

func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
