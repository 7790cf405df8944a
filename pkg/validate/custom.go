package validate

import (
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"
)

// CustomRule is a caller-supplied validation rule. Expr is an expr-lang
// expression evaluated against an environment exposing the raw document
// as `doc`; it must return true for a conforming document. A false
// result produces one finding with the rule's message and severity.
type CustomRule struct {
	Name     string   `yaml:"name"               json:"name"`
	Expr     string   `yaml:"expr"               json:"expr"`
	Message  string   `yaml:"message,omitempty"  json:"message,omitempty"`
	Severity Severity `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// LoadCustomRules reads a YAML list of custom rules from a file.
func LoadCustomRules(path string) ([]CustomRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var rules []CustomRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return rules, nil
}

// runCustomRules compiles and evaluates each rule against the document.
// A rule that fails to compile or evaluate yields its own finding rather
// than aborting the run.
func runCustomRules(doc any, rules []CustomRule) []*ValidationError {
	var findings []*ValidationError

	env := map[string]any{
		"doc":         doc,
		"isValidUUID": IsValidUUID,
	}

	for _, rule := range rules {
		program, err := expr.Compile(rule.Expr, expr.Env(env), expr.AsBool())
		if err != nil {
			findings = append(findings, errorf("CUSTOM_RULE_INVALID", "",
				"custom rule %q does not compile: %v", rule.Name, err))
			continue
		}
		output, err := expr.Run(program, env)
		if err != nil {
			findings = append(findings, errorf("CUSTOM_RULE_INVALID", "",
				"custom rule %q failed to evaluate: %v", rule.Name, err))
			continue
		}
		passed, ok := output.(bool)
		if !ok {
			findings = append(findings, errorf("CUSTOM_RULE_INVALID", "",
				"custom rule %q did not return a boolean (got %T)", rule.Name, output))
			continue
		}
		if !passed {
			message := rule.Message
			if message == "" {
				message = fmt.Sprintf("custom rule %q failed", rule.Name)
			}
			severity := rule.Severity
			if severity == "" {
				severity = SeverityError
			}
			findings = append(findings, &ValidationError{
				Code:     "CUSTOM_RULE_VIOLATION",
				Message:  message,
				Severity: severity,
				Context:  map[string]any{"rule": rule.Name},
			})
		}
	}
	return findings
}
