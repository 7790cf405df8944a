// Package report formats validation results for terminals, documents
// and machine consumers.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/tmval/pkg/validate"
)

// Format selects the rendering of a validation result.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Finding glyphs — convey meaning without relying on color alone.
const (
	GlyphError   = "✗"
	GlyphWarning = "⚠"
	GlyphInfo    = "ℹ"
	GlyphPassed  = "✓"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

var (
	bannerPassedStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(colorGreen).
				Foreground(colorGreen).
				Bold(true).
				Padding(0, 2)

	bannerFailedStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(colorRed).
				Foreground(colorRed).
				Bold(true).
				Padding(0, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	pathStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)
)

// Render formats a validation result in the given format.
func Render(result *validate.ValidationResult, format Format) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nil result")
	}
	switch format {
	case FormatText:
		return renderText(result), nil
	case FormatMarkdown:
		return renderMarkdown(result), nil
	case FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal result: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", format)
	}
}

func renderText(result *validate.ValidationResult) string {
	var b strings.Builder

	if result.Valid {
		b.WriteString(bannerPassedStyle.Render(GlyphPassed+" VALID") + "\n")
	} else {
		b.WriteString(bannerFailedStyle.Render(GlyphError+" INVALID") + "\n")
	}
	b.WriteString("\n")

	if len(result.Errors) > 0 {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("Errors (%d)", len(result.Errors))) + "\n")
		for _, e := range result.Errors {
			b.WriteString("  " + findingLine(e) + "\n")
		}
		b.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("Warnings (%d)", len(result.Warnings))) + "\n")
		for _, w := range result.Warnings {
			b.WriteString("  " + findingLine(w) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(pathStyle.Render(fmt.Sprintf("validator %s · %dms",
		result.Metadata.ValidatorVersion, result.Metadata.DurationMS)) + "\n")
	return b.String()
}

func findingLine(e *validate.ValidationError) string {
	var style lipgloss.Style
	var glyph string
	switch e.Severity {
	case validate.SeverityWarning:
		style, glyph = warningStyle, GlyphWarning
	case validate.SeverityInfo:
		style, glyph = infoStyle, GlyphInfo
	default:
		style, glyph = errorStyle, GlyphError
	}
	line := style.Render(glyph+" ["+e.Code+"]") + " " + e.Message
	if e.Path != "" {
		line += " " + pathStyle.Render("at "+e.Path)
	}
	return line
}

func renderMarkdown(result *validate.ValidationResult) string {
	var b strings.Builder

	b.WriteString("# Validation Report\n\n")
	if result.Valid {
		b.WriteString("**Status:** " + GlyphPassed + " valid\n\n")
	} else {
		b.WriteString("**Status:** " + GlyphError + " invalid\n\n")
	}

	writeFindingTable(&b, "Errors", result.Errors)
	writeFindingTable(&b, "Warnings", result.Warnings)

	b.WriteString(fmt.Sprintf("_validator %s · %dms_\n",
		result.Metadata.ValidatorVersion, result.Metadata.DurationMS))
	return b.String()
}

func writeFindingTable(b *strings.Builder, title string, findings []*validate.ValidationError) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s (%d)\n\n", title, len(findings))
	b.WriteString("| Code | Path | Message |\n")
	b.WriteString("|------|------|---------|\n")
	for _, f := range findings {
		fmt.Fprintf(b, "| `%s` | `%s` | %s |\n", f.Code, f.Path, escapePipes(f.Message))
	}
	b.WriteString("\n")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
