package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/tmval/pkg/validate"
)

func browserResult() *validate.ValidationResult {
	return &validate.ValidationResult{
		Valid: false,
		Errors: []*validate.ValidationError{
			{Code: "FIELD_REQUIRED", Path: "id", Message: "required field 'id' is missing", Severity: validate.SeverityError},
			{Code: "INVALID_CELL_ID", Path: "diagrams[0].cells[1].id", Message: "cell id must be a valid UUID", Severity: validate.SeverityError},
		},
		Warnings: []*validate.ValidationError{
			{Code: "DUPLICATE_VALUES", Path: "metadata", Message: "duplicate metadata key", Severity: validate.SeverityWarning},
		},
	}
}

func TestModel_InitFromResult(t *testing.T) {
	m := NewModel("model.json", browserResult())
	if len(m.visible) != 3 {
		t.Fatalf("expected 3 visible findings, got %d", len(m.visible))
	}
	if m.selected != 0 {
		t.Errorf("cursor should start at 0, got %d", m.selected)
	}
	if m.filter != filterAll {
		t.Errorf("filter should start at all, got %v", m.filter)
	}
}

func TestModel_Navigation(t *testing.T) {
	m := NewModel("model.json", browserResult())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.selected != 1 {
		t.Errorf("after down: selected = %d, want 1", m.selected)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if m.selected != 0 {
		t.Errorf("after up: selected = %d, want 0", m.selected)
	}

	// Cursor stays clamped at the top.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if m.selected != 0 {
		t.Errorf("cursor should clamp at 0, got %d", m.selected)
	}
}

func TestModel_FilterCycle(t *testing.T) {
	m := NewModel("model.json", browserResult())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m = next.(Model)
	if m.filter != filterErrors || len(m.visible) != 2 {
		t.Errorf("after f: filter=%v visible=%d, want errors/2", m.filter, len(m.visible))
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m = next.(Model)
	if m.filter != filterWarnings || len(m.visible) != 1 {
		t.Errorf("after ff: filter=%v visible=%d, want warnings/1", m.filter, len(m.visible))
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m = next.(Model)
	if m.filter != filterAll || len(m.visible) != 3 {
		t.Errorf("after fff: filter=%v visible=%d, want all/3", m.filter, len(m.visible))
	}
}

func TestModel_ViewListsFindings(t *testing.T) {
	m := NewModel("model.json", browserResult())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{
		"tmval: model.json",
		"INVALID",
		"FIELD_REQUIRED",
		"INVALID_CELL_ID",
		"DUPLICATE_VALUES",
		"2 errors",
		"1 warnings",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_ViewValidResult(t *testing.T) {
	m := NewModel("model.json", &validate.ValidationResult{Valid: true})
	view := m.View()
	if !strings.Contains(view, "VALID") {
		t.Errorf("view missing valid badge:\n%s", view)
	}
	if !strings.Contains(view, "no findings") {
		t.Errorf("view should report no findings:\n%s", view)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := NewModel("model.json", browserResult())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should produce a quit command")
	}
}

func TestFindingDetailMarkdown(t *testing.T) {
	md := findingDetail(&validate.ValidationError{
		Code:     "INVALID_DIAGRAM_REFERENCE",
		Path:     "threats[0].diagram_id",
		Message:  "diagram_id does not reference a diagram in this model",
		Severity: validate.SeverityError,
		Context:  map[string]any{"diagram_id": "abc"},
	})
	for _, want := range []string{
		"INVALID_DIAGRAM_REFERENCE",
		"threats[0].diagram_id",
		"does not reference",
		"Context",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("detail missing %q:\n%s", want, md)
		}
	}
}
