package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/cuecard/internal/core"
	"github.com/tessro/cuecard/internal/tui/styles"
)

// Round displays the current card, hidden until revealed
type Round struct{}

// NewRound creates a new Round component
func NewRound() *Round {
	return &Round{}
}

// Render renders the round panel. number is the 1-based round count.
func (r *Round) Render(pb core.PlaybackState, device *core.Device, number, width, height int) string {
	title := styles.PanelTitle("Round", true)
	if number > 0 {
		title = styles.PanelTitle(fmt.Sprintf("Round %d", number), true)
	}

	var content string
	switch {
	case !pb.HasTrack():
		content = lipgloss.JoinVertical(lipgloss.Left,
			styles.Muted.Render("Scan a card to start a round."),
			"",
			styles.Dim.Render("Press / to type a code by hand."),
		)
	case pb.Revealed:
		content = r.renderRevealed(pb, width-4)
	default:
		content = r.renderHidden(pb)
	}

	return styles.Panel(true).
		Width(width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			content,
			"",
			r.renderDevice(device),
		))
}

func (r *Round) renderHidden(pb core.PlaybackState) string {
	icon := styles.StatusIcon(pb.IsPlaying)
	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+styles.Hidden.Render("? ? ?"),
		"",
		styles.Dim.Render("Press r to reveal the answer."),
	)
}

func (r *Round) renderRevealed(pb core.PlaybackState, width int) string {
	track := pb.CurrentTrack

	icon := styles.StatusIcon(pb.IsPlaying)
	titleStyle := styles.Title.Width(max(10, width-4))

	year := "????"
	if track.Year != nil {
		year = fmt.Sprintf("%d", *track.Year)
	}

	lines := []string{
		styles.Year.Render(year),
		"",
		icon + " " + titleStyle.Render(track.Name),
		"  " + styles.Subtitle.Render(track.ArtistLine()),
	}
	if track.Album != "" {
		lines = append(lines, "  "+styles.Dim.Render(track.Album))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (r *Round) renderDevice(device *core.Device) string {
	if device == nil {
		return ""
	}
	info := fmt.Sprintf("%s %s", styles.DeviceIcon(device.Type), device.Name)
	if device.VolumePercent != nil {
		info += fmt.Sprintf("  %s %d%%", styles.VolumeBar(*device.VolumePercent, 10), *device.VolumePercent)
	}
	return styles.Muted.Render(strings.TrimSpace(info))
}
