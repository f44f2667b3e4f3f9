package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
)

// NewTable returns a table writing to Stdout with the id column in bold
func NewTable(headers ...interface{}) table.Table {
	return table.New(headers...).
		WithFirstColumnFormatter(func(format string, vals ...interface{}) string {
			return BoldStyle.Render(fmt.Sprintf(format, vals...))
		}).
		WithPadding(2).
		WithWidthFunc(lipgloss.Width).
		WithWriter(Stdout)
}

// PrintSectionHeader prints "<icon> <title> (<count>)" after a blank line
func PrintSectionHeader(icon string, title string, count int) {
	OutputLine("\n%s %s (%d)", icon, title, count)
}

// printSection prints a section header followed by the table and a trailing blank line
func printSection(icon, title string, count int, tbl table.Table) {
	PrintSectionHeader(icon, title, count)
	tbl.Print()
	fmt.Fprintln(Stdout)
}
