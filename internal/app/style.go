package app

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/muesli/reflow/wordwrap"
)

var (
	statsStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	presetNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	categoryStyle   = lipgloss.NewStyle().Underline(true)
)

// terminalStyle decorates REPL output. The zero value prints plain text,
// which is what non-interactive output uses.
type terminalStyle struct {
	enabled bool
	width   int // wrap width, 0 disables wrapping
}

func newTerminalStyle() terminalStyle {
	return terminalStyle{enabled: true, width: readline.GetScreenWidth()}
}

func (t terminalStyle) wrap(text string) string {
	if !t.enabled || t.width <= 0 {
		return text
	}
	return wordwrap.String(text, t.width)
}

func (t terminalStyle) render(style lipgloss.Style, text string) string {
	if !t.enabled {
		return text
	}
	return style.Render(text)
}
