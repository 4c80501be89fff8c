package logtail

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	keyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF"))
	msgStyle  = lipgloss.NewStyle().Bold(true)

	levelStyles = map[slog.Level]lipgloss.Style{
		slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
		slog.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
		slog.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		slog.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

// Render formats e for a terminal. Unparsed lines are returned unchanged.
func Render(e Entry) string {
	if !e.Parsed {
		return e.Raw
	}

	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(timeStyle.Render(e.Time.Local().Format("2006-01-02 15:04:05")))
		b.WriteByte(' ')
	}
	b.WriteString(levelStyle(e.Level).Render(padLevel(e.Level)))
	b.WriteByte(' ')
	b.WriteString(msgStyle.Render(e.Message))
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(keyStyle.Render(a.Key + "="))
		b.WriteString(a.Value)
	}
	for _, line := range e.Continuation {
		b.WriteByte('\n')
		b.WriteString(timeStyle.Render(line))
	}
	return b.String()
}

func levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return levelStyles[slog.LevelError]
	case level >= slog.LevelWarn:
		return levelStyles[slog.LevelWarn]
	case level >= slog.LevelInfo:
		return levelStyles[slog.LevelInfo]
	default:
		return levelStyles[slog.LevelDebug]
	}
}

func padLevel(level slog.Level) string {
	s := level.String()
	if len(s) < 5 {
		s += strings.Repeat(" ", 5-len(s))
	}
	return s
}
