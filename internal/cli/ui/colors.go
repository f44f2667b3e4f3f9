// Package ui provides UI styling and output functions for the CLI.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
)

var (
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#0099FF"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	BoldStyle    = lipgloss.NewStyle().Bold(true)
)

// Icons prefixed to status lines and section headers
const (
	MailIcon     = "📬"
	ArchiveIcon  = "🗄️"
	RejectedIcon = "🚫"
	SuccessIcon  = "✅"
	ErrorIcon    = "❌"
	InfoIcon     = "ⓘ"
	WarningIcon  = "⚠️"
)

// stageStyles colors rejection stages by how much of the pipeline ran.
// Decode failures never reached a handler; archive collisions did.
var stageStyles = map[mailbox.Stage]lipgloss.Style{
	mailbox.StageDecode:   DimStyle,
	mailbox.StageValidate: WarningStyle,
	mailbox.StageDispatch: ErrorStyle,
	mailbox.StageArchive:  ErrorStyle.Bold(true),
}

// StageLabel renders a rejection stage in its color
func StageLabel(stage mailbox.Stage) string {
	style, ok := stageStyles[stage]
	if !ok {
		return string(stage)
	}
	return style.Render(string(stage))
}
