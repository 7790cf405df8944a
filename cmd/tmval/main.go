package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/tmval/pkg/diagram"
	"github.com/ormasoftchile/tmval/pkg/report"
	"github.com/ormasoftchile/tmval/pkg/schema"
	"github.com/ormasoftchile/tmval/pkg/tui"
	"github.com/ormasoftchile/tmval/pkg/validate"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	loadDotEnv() // load .env file if present (gitignored)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDotEnv reads a .env file from the working directory and sets
// any variables that aren't already set in the environment.
// Lines are KEY=VALUE (or KEY="VALUE"). Comments (#) and blanks are skipped.
// The .env file is gitignored so secrets never end up in source control.
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return // no .env file — that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		val = strings.Trim(val, `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "tmval",
	Short: "Threat model document validator",
	Long:  "tmval — schema, diagram and reference validation for threat model interchange documents.",
}

// --- validate ---

var (
	validateFailFast   bool
	validateMaxErrors  int
	validateNoWarnings bool
	validateFormat     string
	validateRules      string
	validateStructural bool
	validateStrict     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [model.json|model.yaml]",
	Short: "Validate a threat model document",
	Long: `Run the full validation pipeline on a threat model document:
field rules, diagram cell checks and cross-reference integrity.

Exit codes:
  0 — document is valid
  1 — validation errors found`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	doc, err := schema.LoadRawFile(filePath)
	if err != nil {
		return err
	}

	if validateStrict {
		if _, err := schema.LoadFile(filePath); err != nil {
			fmt.Fprintf(os.Stderr, "  ⚠ strict decode: %v\n", err)
		}
	}

	cfg := validate.DefaultConfig()
	cfg.FailFast = validateFailFast
	cfg.StructuralSchema = validateStructural
	if validateMaxErrors > 0 {
		cfg.MaxErrors = validateMaxErrors
	}
	if validateNoWarnings {
		cfg.IncludeWarnings = false
	}
	if validateRules != "" {
		rules, err := validate.LoadCustomRules(validateRules)
		if err != nil {
			return err
		}
		cfg.CustomRules = rules
	}

	result := validate.New().Validate(doc, &cfg)

	out, err := report.Render(result, report.Format(validateFormat))
	if err != nil {
		return err
	}
	fmt.Print(out)

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

// --- schema export ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the threat model JSON Schema to stdout",
	RunE:  runSchemaExport,
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	data, err := schema.GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// --- diagram ---

var (
	diagramSelect string
	diagramFormat string
)

var diagramCmd = &cobra.Command{
	Use:   "diagram [model.json|model.yaml]",
	Short: "Render a DFD diagram as Mermaid or ASCII",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagram,
}

func runDiagram(cmd *cobra.Command, args []string) error {
	tm, err := schema.LoadFile(args[0])
	if err != nil {
		return err
	}
	if len(tm.Diagrams) == 0 {
		return fmt.Errorf("%s has no diagrams", args[0])
	}

	d := &tm.Diagrams[0]
	if diagramSelect != "" {
		d = tm.DiagramByID(diagramSelect)
		if d == nil {
			for i := range tm.Diagrams {
				if tm.Diagrams[i].Name == diagramSelect {
					d = &tm.Diagrams[i]
					break
				}
			}
		}
		if d == nil {
			return fmt.Errorf("no diagram with id or name %q", diagramSelect)
		}
	}

	out, err := diagram.Render(d, diagram.Format(diagramFormat))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// --- tui ---

var tuiCmd = &cobra.Command{
	Use:   "tui [model.json|model.yaml]",
	Short: "Browse validation results interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	doc, err := schema.LoadRawFile(args[0])
	if err != nil {
		return err
	}
	result := validate.New().Validate(doc, nil)
	return tui.Run(args[0], result)
}

// --- init ---

var initOwner string

var initCmd = &cobra.Command{
	Use:   "init [model.json]",
	Short: "Generate a skeleton threat model document",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("%s already exists", filePath)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	tm := schema.ThreatModel{
		ID:                   uuid.NewString(),
		Name:                 "New Threat Model",
		CreatedAt:            now,
		ModifiedAt:           now,
		Owner:                initOwner,
		CreatedBy:            initOwner,
		ThreatModelFramework: schema.FrameworkSTRIDE,
		Authorization: []schema.Authorization{
			{Subject: initOwner, Role: schema.RoleOwner},
		},
		Diagrams: []schema.Diagram{
			{
				ID:         uuid.NewString(),
				Name:       "System overview",
				Type:       "DFD-1.0.0",
				CreatedAt:  now,
				ModifiedAt: now,
			},
		},
	}

	data, err := json.MarshalIndent(&tm, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, append(data, '\n'), 0644); err != nil {
		return err
	}
	fmt.Printf("✓ wrote %s\n", filePath)
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tmval %s (build: %s)\n", version, commit)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateFailFast, "fail-fast", false, "Stop at the first error")
	validateCmd.Flags().IntVar(&validateMaxErrors, "max-errors", 0, "Maximum number of errors to report (default 100)")
	validateCmd.Flags().BoolVar(&validateNoWarnings, "no-warnings", false, "Omit warnings from the result")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "Output format: text, markdown, or json")
	validateCmd.Flags().StringVar(&validateRules, "rules", "", "Path to a YAML file of custom expression rules")
	validateCmd.Flags().BoolVar(&validateStructural, "structural", false, "Also run the generated-JSON-Schema pass")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Warn on unknown fields via strict decoding")

	diagramCmd.Flags().StringVar(&diagramSelect, "diagram", "", "Diagram id or name (defaults to the first diagram)")
	diagramCmd.Flags().StringVar(&diagramFormat, "format", "mermaid", "Output format: mermaid or ascii")

	initCmd.Flags().StringVar(&initOwner, "owner", "owner@example.com", "Owner subject for the skeleton document")

	schemaCmd.AddCommand(schemaExportCmd)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
