package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/cuecard/internal/core"
	"github.com/tessro/cuecard/internal/tui/styles"
)

// Devices displays available playback devices
type Devices struct {
	cursor int
}

// NewDevices creates a new Devices component
func NewDevices() *Devices {
	return &Devices{}
}

// Next moves the cursor down
func (d *Devices) Next(count int) {
	if d.cursor < count-1 {
		d.cursor++
	}
}

// Prev moves the cursor up
func (d *Devices) Prev() {
	if d.cursor > 0 {
		d.cursor--
	}
}

// Focus moves the cursor to the device with id, if listed.
func (d *Devices) Focus(devices []core.Device, id string) {
	for i := range devices {
		if devices[i].ID == id {
			d.cursor = i
			return
		}
	}
}

// Current returns the device under the cursor, or nil.
func (d *Devices) Current(devices []core.Device) *core.Device {
	if len(devices) == 0 {
		return nil
	}
	d.cursor = max(0, min(d.cursor, len(devices)-1))
	return &devices[d.cursor]
}

// Render renders the devices panel. selectedID is marked with a star.
func (d *Devices) Render(devices []core.Device, selectedID string, width, height int) string {
	title := styles.PanelTitle("Devices", true)

	var content string
	if len(devices) == 0 {
		content = lipgloss.JoinVertical(lipgloss.Left,
			styles.Muted.Render("No devices found"),
			"",
			styles.Dim.Render("Open Spotify on a phone, computer or speaker, then press r."),
		)
	} else {
		content = d.renderDevices(devices, selectedID, height-4)
	}

	return styles.Panel(true).
		Width(width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			content,
		))
}

func (d *Devices) renderDevices(devices []core.Device, selectedID string, maxLines int) string {
	d.cursor = max(0, min(d.cursor, len(devices)-1))

	lines := make([]string, 0, len(devices))
	for i, device := range devices {
		selector := "  "
		if i == d.cursor {
			selector = "▸ "
		}

		marks := ""
		if device.ID == selectedID {
			marks += styles.Highlight.Render(" ★")
		}
		if device.IsActive {
			marks += styles.Playing.Render(" ●")
		}

		name := device.Name
		if i == d.cursor {
			name = styles.Highlight.Render(name)
		}

		lines = append(lines, fmt.Sprintf("%s%s %s%s", selector, styles.DeviceIcon(device.Type), name, marks))
		if len(lines) >= maxLines {
			break
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
