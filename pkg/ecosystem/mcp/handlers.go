package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/tmval/pkg/diagram"
	"github.com/ormasoftchile/tmval/pkg/schema"
	"github.com/ormasoftchile/tmval/pkg/validate"
)

// HandleValidate implements the tmval/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	doc, err := schema.LoadRawFile(path)
	if err != nil {
		return errorResult(fmt.Sprintf("load document: %s", err)), nil
	}

	cfg := validate.DefaultConfig()
	if v, ok := args["fail_fast"].(bool); ok {
		cfg.FailFast = v
	}
	if v, ok := args["max_errors"].(float64); ok && v > 0 {
		cfg.MaxErrors = int(v)
	}
	if v, ok := args["no_warnings"].(bool); ok && v {
		cfg.IncludeWarnings = false
	}
	if rulesPath, _ := args["rules"].(string); rulesPath != "" {
		rules, err := validate.LoadCustomRules(rulesPath)
		if err != nil {
			return errorResult(fmt.Sprintf("load rules: %s", err)), nil
		}
		cfg.CustomRules = rules
	}

	result := validate.New().Validate(doc, &cfg)

	data, _ := json.MarshalIndent(result, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: !result.Valid,
	}, nil
}

// HandleSchema implements the tmval/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := schema.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// HandleDiagram implements the tmval/diagram MCP tool.
func HandleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	tm, err := schema.LoadFile(path)
	if err != nil {
		return errorResult(fmt.Sprintf("load document: %s", err)), nil
	}
	if len(tm.Diagrams) == 0 {
		return errorResult("document has no diagrams"), nil
	}

	d := &tm.Diagrams[0]
	if sel, _ := args["diagram"].(string); sel != "" {
		d = selectDiagram(tm, sel)
		if d == nil {
			return errorResult(fmt.Sprintf("no diagram with id or name %q", sel)), nil
		}
	}

	format := diagram.FormatMermaid
	if f, _ := args["format"].(string); f != "" {
		format = diagram.Format(f)
	}

	out, err := diagram.Render(d, format)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(out), nil
}

func selectDiagram(tm *schema.ThreatModel, sel string) *schema.Diagram {
	for i := range tm.Diagrams {
		if tm.Diagrams[i].ID == sel || tm.Diagrams[i].Name == sel {
			return &tm.Diagrams[i]
		}
	}
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
