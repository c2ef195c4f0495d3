package psagent

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values.
type Theme struct {
	Banner   int // Banner art
	UserMsg  int // Request panel border
	Agent    int // Response panel border
	ToolCall int // Tool call header
	Error    int // Error messages
	Success  int // Success indicators
	Muted    int // Status bar, placeholders
	Accent   int // Headings, links
	Config   int // Config and instructions panels
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Banner:   13,
		UserMsg:  2,
		Agent:    5,
		ToolCall: 3,
		Error:    1,
		Success:  2,
		Muted:    8,
		Accent:   6,
		Config:   3,
	}
}
