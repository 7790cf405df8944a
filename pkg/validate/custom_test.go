package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCustomRulePasses(t *testing.T) {
	rules := []CustomRule{
		{Name: "stride-only", Expr: `doc.threat_model_framework == "STRIDE"`},
	}
	findings := runCustomRules(validDocument(), rules)
	if len(findings) != 0 {
		t.Errorf("expected no findings, got: %v", findings)
	}
}

func TestCustomRuleViolation(t *testing.T) {
	rules := []CustomRule{
		{Name: "needs-two-owners", Expr: `len(filter(doc.authorization, .role == "owner")) >= 2`,
			Message: "at least two owners required"},
	}
	findings := runCustomRules(validDocument(), rules)
	if len(findings) != 1 {
		t.Fatalf("expected one finding, got: %v", findings)
	}
	f := findings[0]
	if f.Code != "CUSTOM_RULE_VIOLATION" || f.Message != "at least two owners required" {
		t.Errorf("unexpected finding: %v", f)
	}
	if f.Severity != SeverityError {
		t.Errorf("severity should default to error, got %q", f.Severity)
	}
	if f.Context["rule"] != "needs-two-owners" {
		t.Errorf("context should name the rule, got %v", f.Context)
	}
}

func TestCustomRuleDefaultMessageAndSeverity(t *testing.T) {
	rules := []CustomRule{
		{Name: "no-high-threats", Expr: `len(filter(doc.threats, .severity == "High")) == 0`,
			Severity: SeverityWarning},
	}
	findings := runCustomRules(validDocument(), rules)
	if len(findings) != 1 {
		t.Fatalf("expected one finding, got: %v", findings)
	}
	if !strings.Contains(findings[0].Message, "no-high-threats") {
		t.Errorf("default message should name the rule, got %q", findings[0].Message)
	}
	if findings[0].Severity != SeverityWarning {
		t.Errorf("severity: got %q", findings[0].Severity)
	}
}

func TestCustomRuleCompileError(t *testing.T) {
	rules := []CustomRule{
		{Name: "broken", Expr: `doc.name ==`},
		{Name: "fine", Expr: `doc.name != ""`},
	}
	findings := runCustomRules(validDocument(), rules)
	if len(findings) != 1 || findings[0].Code != "CUSTOM_RULE_INVALID" {
		t.Fatalf("broken rule should yield one CUSTOM_RULE_INVALID without aborting, got: %v", findings)
	}
	if !strings.Contains(findings[0].Message, "broken") {
		t.Errorf("finding should name the rule, got %q", findings[0].Message)
	}
}

func TestCustomRuleUUIDHelper(t *testing.T) {
	rules := []CustomRule{
		{Name: "model-id-is-uuid", Expr: `isValidUUID(doc.id)`},
	}
	if findings := runCustomRules(validDocument(), rules); len(findings) != 0 {
		t.Errorf("uuid helper should accept a generated id, got: %v", findings)
	}
	doc := validDocument()
	doc["id"] = "not-a-uuid"
	if findings := runCustomRules(doc, rules); len(findings) != 1 {
		t.Errorf("uuid helper should reject a malformed id, got: %v", findings)
	}
}

func TestLoadCustomRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
- name: stride-only
  expr: doc.threat_model_framework == "STRIDE"
  message: only STRIDE models are accepted
  severity: warning
- name: named
  expr: doc.name != ""
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadCustomRules(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Severity != SeverityWarning || rules[0].Message == "" {
		t.Errorf("first rule not parsed: %+v", rules[0])
	}
	if rules[1].Name != "named" {
		t.Errorf("second rule not parsed: %+v", rules[1])
	}

	if _, err := LoadCustomRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should error")
	}
}
