package psagent

import "time"

// Session is the in-memory conversation of one shell process. It is never
// written to disk.
type Session struct {
	ID           string
	Messages     []Message
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Usage returns the accumulated token usage of all assistant messages.
func (s *Session) Usage() Usage {
	var u Usage
	for _, m := range s.Messages {
		if am, ok := m.(AssistantMessage); ok {
			u = u.Add(am.Usage)
		}
	}
	return u
}
