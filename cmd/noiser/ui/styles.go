// Package ui is the terminal front end of noiser.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	Primary     = lipgloss.Color("#8BC34A")
	Muted       = lipgloss.Color("#6b7685")
	Border      = lipgloss.Color("#2a3850")
	Destructive = lipgloss.Color("#e53935")
	Warning     = lipgloss.Color("#FFC107")

	TrueBar   = lipgloss.Color("#4db6ac")
	NoisedBar = lipgloss.Color("#ff8a65")
)

// Styles holds the lipgloss styles of the noiser screen.
type Styles struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Busy      lipgloss.Style
	Panel     lipgloss.Style
	ChartHead lipgloss.Style
	TrueBar   lipgloss.Style
	NoisedBar lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(Primary),
		Label:     lipgloss.NewStyle().Foreground(Muted),
		Value:     lipgloss.NewStyle().Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(Muted),
		Error:     lipgloss.NewStyle().Foreground(Destructive).Bold(true),
		Busy:      lipgloss.NewStyle().Foreground(Warning),
		Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Border).Padding(0, 1),
		ChartHead: lipgloss.NewStyle().Bold(true).Underline(true),
		TrueBar:   lipgloss.NewStyle().Foreground(TrueBar),
		NoisedBar: lipgloss.NewStyle().Foreground(NoisedBar),
	}
}
