package bubbletea_test

import (
	"testing"

	bt "github.com/fwojciec/psagent/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Get-Process output", "Get-Process output"},
		{"strips color", "\x1b[31mred\x1b[0m text", "red text"},
		{"normalizes crlf", "a\r\nb\r\n", "a\nb\n"},
		{"keeps tabs", "Name\tId", "Name\tId"},
		{"drops bell and backspace", "ab\x07c\x08d", "abcd"},
		{"carriage return overwrites", "progress 10%\rprogress 99%", "progress 99%"},
		{"shorter overwrite keeps tail", "abcdef\rXY", "XYcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bt.Sanitize(tt.in))
		})
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	t.Run("within limit", func(t *testing.T) {
		t.Parallel()
		got, hidden := bt.Tail("a\nb\nc", 5)
		assert.Equal(t, "a\nb\nc", got)
		assert.Zero(t, hidden)
	})

	t.Run("keeps last lines", func(t *testing.T) {
		t.Parallel()
		got, hidden := bt.Tail("a\nb\nc", 2)
		assert.Equal(t, "b\nc", got)
		assert.Equal(t, 1, hidden)
	})

	t.Run("trailing newline is not a line", func(t *testing.T) {
		t.Parallel()
		got, hidden := bt.Tail("a\nb\n", 1)
		assert.Equal(t, "b", got)
		assert.Equal(t, 1, hidden)
	})
}

func TestPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "first line", bt.Preview("\n\n  first line  \nsecond", 80))
	assert.Equal(t, "abcd…", bt.Preview("abcdefgh", 5))
	assert.Equal(t, "日本…", bt.Preview("日本語テキスト", 5))
	assert.Empty(t, bt.Preview("anything", 0))
	assert.Empty(t, bt.Preview("\n \n", 10))
}
