package bubbletea

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Fixed shell texts.
const (
	Title             = "POWERSHELL AGENT"
	Tagline           = "Execute PowerShell commands using natural language"
	PoweredBy         = "Powered by Google Gemini"
	Instructions      = "Type your natural language command and press Enter. Commands: exit, quit, help, config"
	ProcessingMessage = "Processing your request..."
	GoodbyeMessage    = "Goodbye! Have a great day!"
	CanceledMessage   = "Request canceled."
)

// Examples are the sample queries shown on startup and by the help command.
var Examples = []string{
	"List all files in the current directory",
	"Show me the top 5 processes by CPU usage",
	"What is the Get-Process command used for?",
	"Check the Windows version",
	"Show all running services",
}

// Info describes the running configuration for the config panel.
type Info struct {
	Model             string
	RequestsPerMinute float64
	MaxTokens         int
	Shell             string
	CommandTimeout    time.Duration
}

func (i Info) rows() [][]string {
	rate := "unlimited"
	if i.RequestsPerMinute > 0 {
		rate = strconv.FormatFloat(i.RequestsPerMinute, 'f', -1, 64) + " requests/minute"
	}
	rows := [][]string{
		{"Model", i.Model},
		{"Rate Limit", rate},
		{"Max Tokens", strconv.Itoa(i.MaxTokens)},
	}
	if i.Shell != "" {
		rows = append(rows, []string{"Shell", i.Shell})
	}
	if i.CommandTimeout > 0 {
		rows = append(rows, []string{"Command Timeout", i.CommandTimeout.String()})
	}
	return rows
}

func renderBanner(s Styles, width int) string {
	box := s.BannerBox.Render(lipgloss.JoinVertical(lipgloss.Center,
		s.Banner.Render(Title),
		Tagline,
		s.Muted.Render(PoweredBy),
	))
	if lipgloss.Width(box) >= width {
		return box
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}

func renderConfig(info Info, s Styles) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.ConfigBox).
		Headers("Setting", "Value").
		Rows(info.rows()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			st := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return st.Inherit(s.Config)
			}
			if col == 0 {
				return st.Inherit(s.Accent)
			}
			return st
		})
	return s.Config.Render("Configuration") + "\n" + t.Render()
}

func renderHelp(s Styles) string {
	var b strings.Builder
	b.WriteString(s.Config.Render("Example queries"))
	for _, ex := range Examples {
		fmt.Fprintf(&b, "\n  %s %s", s.Accent.Render("•"), ex)
	}
	b.WriteString("\n\n")
	b.WriteString(s.Muted.Render(Instructions))
	return b.String()
}

func renderIntro(info Info, s Styles, width int) string {
	return renderBanner(s, width) + "\n\n" + renderConfig(info, s) + "\n\n" + renderHelp(s)
}
