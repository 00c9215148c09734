package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

// printProblem prints an error message and an optional hint
func printProblem(w io.Writer, message, hint string) {
	fmt.Fprintf(w, "\n%s %s\n", errorStyle.Render("Error:"), message)
	if hint != "" {
		fmt.Fprintln(w, dimStyle.Render("Hint: "+hint))
	}
	fmt.Fprintln(w)
}

// field prints a dimmed label followed by a value
func field(w io.Writer, indent, label string, value interface{}) {
	fmt.Fprintf(w, "%s%s %v\n", indent, dimStyle.Render(label+":"), value)
}
