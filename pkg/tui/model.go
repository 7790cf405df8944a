package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/tmval/pkg/validate"
)

// filterKind selects which findings the list shows.
type filterKind int

const (
	filterAll filterKind = iota
	filterErrors
	filterWarnings
)

func (f filterKind) String() string {
	switch f {
	case filterErrors:
		return "errors"
	case filterWarnings:
		return "warnings"
	default:
		return "all"
	}
}

// Model is the Bubble Tea model for the validation result browser.
type Model struct {
	title    string
	result   *validate.ValidationResult
	filter   filterKind
	visible  []*validate.ValidationError
	selected int
	detail   viewport.Model
	width    int
	height   int
	ready    bool
}

// NewModel creates a browser model for a validation result. title names
// the validated document in the header.
func NewModel(title string, result *validate.ValidationResult) Model {
	m := Model{
		title:  title,
		result: result,
		detail: viewport.New(0, 0),
	}
	m.applyFilter()
	return m
}

// Run starts the interactive browser and blocks until the user quits.
func Run(title string, result *validate.ValidationResult) error {
	p := tea.NewProgram(NewModel(title, result), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// applyFilter rebuilds the visible finding list and clamps the cursor.
func (m *Model) applyFilter() {
	m.visible = m.visible[:0]
	if m.filter != filterWarnings {
		m.visible = append(m.visible, m.result.Errors...)
	}
	if m.filter != filterErrors {
		m.visible = append(m.visible, m.result.Warnings...)
	}
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.refreshDetail()
}

func (m *Model) refreshDetail() {
	if len(m.visible) == 0 {
		m.detail.SetContent(pathStyle.Render("no findings"))
		return
	}
	m.detail.SetContent(renderMarkdown(findingDetail(m.visible[m.selected])))
}

// findingDetail builds the markdown body for the detail panel.
func findingDetail(e *validate.ValidationError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## `%s`\n\n", e.Code)
	fmt.Fprintf(&b, "**Severity:** %s\n\n", e.Severity)
	if e.Path != "" {
		fmt.Fprintf(&b, "**Path:** `%s`\n\n", e.Path)
	}
	b.WriteString(e.Message + "\n")
	if len(e.Context) > 0 {
		b.WriteString("\n### Context\n\n")
		for k, v := range e.Context {
			fmt.Fprintf(&b, "- **%s:** %v\n", k, v)
		}
	}
	return b.String()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
				m.refreshDetail()
			}
		case key.Matches(msg, keys.Down):
			if m.selected < len(m.visible)-1 {
				m.selected++
				m.refreshDetail()
			}
		case key.Matches(msg, keys.Filter):
			m.filter = (m.filter + 1) % 3
			m.selected = 0
			m.applyFilter()
		case key.Matches(msg, keys.PgUp):
			m.detail.HalfViewUp()
		case key.Matches(msg, keys.PgDown):
			m.detail.HalfViewDown()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width - 4
		m.detail.Height = msg.Height / 3
		m.ready = true
		m.refreshDetail()
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	badge := validBadgeStyle.Render(GlyphValid + " VALID")
	if !m.result.Valid {
		badge = invalidBadgeStyle.Render(GlyphError + " INVALID")
	}
	b.WriteString(headerStyle.Render("tmval: "+m.title) + " " + badge)
	b.WriteString(pathStyle.Render(fmt.Sprintf("  %d errors · %d warnings · filter: %s",
		len(m.result.Errors), len(m.result.Warnings), m.filter)))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(pathStyle.Render("  no findings") + "\n")
	}
	for i, f := range m.visible {
		line := fmt.Sprintf("%s %s %s", severityGlyph(f.Severity), f.Code, pathStyle.Render(f.Path))
		if i == m.selected {
			b.WriteString(findingSelected.Render(GlyphCursor+" ") + severityStyle(f.Severity).Render(line))
		} else {
			b.WriteString("  " + severityStyle(f.Severity).Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(panelTitle.Render("Detail") + "\n")
	b.WriteString(panelBorder.Render(m.detail.View()) + "\n")

	b.WriteString("\n")
	b.WriteString(keyBarStyle.Render(keyBarText()))
	return b.String()
}

func severityGlyph(s validate.Severity) string {
	switch s {
	case validate.SeverityWarning:
		return GlyphWarning
	case validate.SeverityInfo:
		return GlyphInfo
	default:
		return GlyphError
	}
}

func severityStyle(s validate.Severity) lipgloss.Style {
	switch s {
	case validate.SeverityWarning:
		return findingWarning
	case validate.SeverityInfo:
		return findingInfo
	default:
		return findingError
	}
}
