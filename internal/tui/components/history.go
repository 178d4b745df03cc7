package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/cuecard/internal/core"
	"github.com/tessro/cuecard/internal/tui/styles"
)

// HistoryEntry is one round played this session
type HistoryEntry struct {
	Track    *core.Track
	PlayedAt time.Time
	Revealed bool
}

// History displays the rounds played this session
type History struct{}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{}
}

// Render renders the history panel, newest first.
func (h *History) Render(entries []HistoryEntry, width, height int) string {
	title := styles.PanelTitle("Played", false)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No rounds yet")
	} else {
		content = h.renderHistory(entries, width-4, height-4)
	}

	return styles.Panel(false).
		Width(width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			content,
		))
}

func (h *History) renderHistory(entries []HistoryEntry, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	for i := len(entries) - 1; i >= 0 && len(lines) < maxLines; i-- {
		entry := entries[i]
		if entry.Track == nil {
			continue
		}

		timeAgo := formatTimeAgo(entry.PlayedAt)

		label := styles.Hidden.Render("? ? ?")
		icon := styles.Dim.Render("·")
		if entry.Revealed {
			icon = styles.Dim.Render("✓")
			year := ""
			if entry.Track.Year != nil {
				year = fmt.Sprintf(" (%d)", *entry.Track.Year)
			}
			available := max(8, width-6-len(timeAgo))
			label = truncate(entry.Track.Name+" — "+entry.Track.ArtistLine(), available-len(year)) + year
		}

		padding := max(1, width-2-lipgloss.Width(label)-len(timeAgo))
		lines = append(lines, fmt.Sprintf("%s %s%s%s",
			icon,
			label,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(timeAgo)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return t.Format("Jan 2")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:max(0, n)])
	}
	return string(r[:n-1]) + "…"
}
