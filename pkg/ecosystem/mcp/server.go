// Package mcp exposes tmval as MCP tools so AI agents can validate
// threat model documents, export the JSON schema and render diagrams.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with tmval tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"tmval",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("tmval/validate",
			mcp.WithDescription("Validate a threat model document (JSON or YAML file)"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the threat model file")),
			mcp.WithBoolean("fail_fast", mcp.Description("Stop at the first error")),
			mcp.WithNumber("max_errors", mcp.Description("Maximum number of errors to report (default 100)")),
			mcp.WithBoolean("no_warnings", mcp.Description("Omit warnings from the result")),
			mcp.WithString("rules", mcp.Description("Path to a YAML file of custom expression rules")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("tmval/schema",
			mcp.WithDescription("Export the threat model JSON Schema (Draft 2020-12)"),
		),
		HandleSchema,
	)

	s.AddTool(
		mcp.NewTool("tmval/diagram",
			mcp.WithDescription("Render a DFD diagram from a threat model as Mermaid or ASCII"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the threat model file")),
			mcp.WithString("diagram", mcp.Description("Diagram id or name (defaults to the first diagram)")),
			mcp.WithString("format", mcp.Description("Output format: mermaid or ascii (default mermaid)")),
		),
		HandleDiagram,
	)

	return s
}
