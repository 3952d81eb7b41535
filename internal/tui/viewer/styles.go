// ============================================================================
// calcparse - Calc Language Front End
// ============================================================================
//
// Package:     viewer
// Description: Styles for the run viewer TUI
// Author:      msto63
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package viewer

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/calcparse/foundation/calc"
	mdwast "github.com/msto63/calcparse/foundation/calc/ast"
)

// Color Palette
var (
	ColorPrimary   = lipgloss.Color("#8B5CF6") // Violet
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray

	ColorBgPanel = lipgloss.Color("#1E293B") // Slate 800

	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
	ColorTextDim   = lipgloss.Color("#64748B") // Slate 500
)

// Header styles
var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	TitlePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 2).
			MarginBottom(1)
)

// Detail styles
var (
	SourceStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	LineNumberStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	DiagErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	DiagRetryStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	DiagSkipStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	IdentStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	LiteralStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	OperatorStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	DetailPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorDimmed).
				Padding(0, 1)

	FilterBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)
)

// Status styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)

	StatusOKStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	StatusFailedStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Bold(true)

	StatusAbortedStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	StatusPausedStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Bold(true)
)

// Help styles
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	FilterActiveStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true)

	FilterInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorTextDim)
)

// Logo
const Logo = "calc Runs"

// RenderKeyHint renders a keyboard shortcut hint
func RenderKeyHint(key, description string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(description)
}

// RenderStatusBadge renders a run status with appropriate styling
func RenderStatusBadge(status calc.Status) string {
	switch status {
	case calc.StatusOK:
		return StatusOKStyle.Render("[OK]     ")
	case calc.StatusFailed:
		return StatusFailedStyle.Render("[FAILED] ")
	case calc.StatusAborted:
		return StatusAbortedStyle.Render("[ABORTED]")
	default:
		return HelpDescStyle.Render("[" + strings.ToUpper(string(status)) + "]")
	}
}

// RenderDiagnostic colours a diagnostic line by its kind
func RenderDiagnostic(line string) string {
	switch {
	case strings.HasPrefix(line, "Error:"):
		return DiagErrorStyle.Render(line)
	case strings.HasPrefix(line, "Retry"):
		return DiagRetryStyle.Render(line)
	default:
		return DiagSkipStyle.Render(line)
	}
}

// RenderFilterStatus renders a filter status indicator
func RenderFilterStatus(name string, active bool) string {
	if active {
		return FilterActiveStyle.Render(name)
	}
	return FilterInactiveStyle.Render(name)
}

// decorateLabel colours tree labels for ast.Printer
func decorateLabel(n *mdwast.Node, label string) string {
	switch {
	case strings.HasPrefix(label, "id '"):
		return IdentStyle.Render(label)
	case strings.HasPrefix(label, "literal '"):
		return LiteralStyle.Render(label)
	case n.IsLeaf():
		return label
	default:
		return OperatorStyle.Render(label)
	}
}
