package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/psagent"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	Banner    lipgloss.Style
	BannerBox lipgloss.Style
	UserMsg   lipgloss.Style
	UserBar   lipgloss.Style
	Agent     lipgloss.Style
	AgentBar  lipgloss.Style
	Thinking  lipgloss.Style
	ToolCall  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style
	Accent    lipgloss.Style
	Config    lipgloss.Style
	ConfigBox lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t psagent.Theme) Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Foreground(ansiColor(t.Banner)).Bold(true),
		BannerBox: lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(ansiColor(t.Banner)).Padding(0, 2),
		UserMsg:   lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		UserBar:   lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)),
		Agent:     lipgloss.NewStyle().Foreground(ansiColor(t.Agent)).Bold(true),
		AgentBar:  lipgloss.NewStyle().Foreground(ansiColor(t.Agent)),
		Thinking:  lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		ToolCall:  lipgloss.NewStyle().Foreground(ansiColor(t.ToolCall)),
		Error:     lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:   lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:     lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:    lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Config:    lipgloss.NewStyle().Foreground(ansiColor(t.Config)).Bold(true),
		ConfigBox: lipgloss.NewStyle().Foreground(ansiColor(t.Config)),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
