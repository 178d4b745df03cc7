// Package tui is the host's terminal interface for a game session.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/cuecard/internal/controller"
	"github.com/tessro/cuecard/internal/core"
	"github.com/tessro/cuecard/internal/tui/components"
	"github.com/tessro/cuecard/internal/tui/styles"
)

const (
	noticeTTL     = 6 * time.Second
	volumeStep    = 5
	defaultVolume = 50
)

// Controller is the session the TUI drives.
type Controller interface {
	Dispatch(ctx context.Context, a controller.Action) error
	Subscribe() <-chan core.Snapshot
}

// Options wires the TUI to a session.
type Options struct {
	Controller Controller
	// Submit feeds a manually typed code through the scan pipeline.
	Submit func(ctx context.Context, raw string) bool
	// Notices is optional.
	Notices *NoticeFeed
	// AuthURL returns the pending sign-in URL, if any.
	AuthURL func() string
}

// Model is the main TUI model
type Model struct {
	ctx  context.Context
	opts Options

	width  int
	height int

	snap      core.Snapshot
	snapshots <-chan core.Snapshot

	// Rounds played this session
	history   []components.HistoryEntry
	lastTrack *core.Track

	// Components
	round   *components.Round
	devices *components.Devices
	played  *components.History

	// Manual entry
	entering bool
	input    textinput.Model

	busy     string // label of the action in progress
	showHelp bool

	notice       *core.Notice
	noticeExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "spotify:track:… or https://open.spotify.com/track/…"
	ti.CharLimit = 200
	ti.Width = 56

	return Model{
		ctx:       ctx,
		opts:      opts,
		snapshots: opts.Controller.Subscribe(),
		round:     components.NewRound(),
		devices:   components.NewDevices(),
		played:    components.NewHistory(),
		input:     ti,
	}
}

// Messages
type snapshotMsg core.Snapshot
type noticeMsg core.Notice
type actionDoneMsg struct{ err error }
type submitMsg struct {
	raw      string
	accepted bool
}
type tickMsg time.Time

// Commands
func waitForSnapshot(ch <-chan core.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func waitForNotice(feed *NoticeFeed) tea.Cmd {
	if feed == nil {
		return nil
	}
	return func() tea.Msg {
		return noticeMsg(<-feed.C())
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) dispatch(actions ...controller.Action) tea.Cmd {
	ctx := m.ctx
	c := m.opts.Controller
	return func() tea.Msg {
		for _, a := range actions {
			if err := c.Dispatch(ctx, a); err != nil {
				return actionDoneMsg{err: err}
			}
		}
		return actionDoneMsg{}
	}
}

func (m Model) submit(raw string) tea.Cmd {
	ctx := m.ctx
	submit := m.opts.Submit
	return func() tea.Msg {
		if submit == nil {
			return submitMsg{raw: raw}
		}
		return submitMsg{raw: raw, accepted: submit(ctx, raw)}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshot(m.snapshots),
		waitForNotice(m.opts.Notices),
		tick(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.applySnapshot(core.Snapshot(msg))
		return m, waitForSnapshot(m.snapshots)

	case noticeMsg:
		n := core.Notice(msg)
		m.notice = &n
		m.noticeExpiry = time.Now().Add(noticeTTL)
		return m, waitForNotice(m.opts.Notices)

	case actionDoneMsg:
		m.busy = ""
		return m, nil

	case submitMsg:
		if !msg.accepted {
			m.setNotice(core.NoticeInfo, "Card ignored", "Another card is still loading or was scanned moments ago.")
		}
		return m, nil

	case tickMsg:
		if m.notice != nil && time.Now().After(m.noticeExpiry) {
			m.notice = nil
		}
		return m, tick()
	}

	if m.entering {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applySnapshot records the snapshot and tracks rounds for the history panel.
func (m *Model) applySnapshot(snap core.Snapshot) {
	if snap.Screen != m.snap.Screen {
		m.entering = false
		m.input.Blur()
		if snap.Screen == core.ScreenDeviceSetup {
			m.devices.Focus(snap.Devices, snap.DeviceID)
		}
	}
	m.snap = snap

	track := snap.Playback.CurrentTrack
	if track != nil && track != m.lastTrack {
		m.history = append(m.history, components.HistoryEntry{Track: track, PlayedAt: time.Now()})
	}
	m.lastTrack = track
	if n := len(m.history); n > 0 && track != nil && m.history[n-1].Track == track {
		m.history[n-1].Revealed = snap.Playback.Revealed
	}
}

func (m *Model) setNotice(kind core.NoticeKind, title, message string) {
	m.notice = &core.Notice{Kind: kind, Title: title, Message: message}
	m.noticeExpiry = time.Now().Add(noticeTTL)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.entering {
		return m.handleEntryKeyPress(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	}

	if m.busy != "" {
		return m, nil
	}

	switch m.snap.Screen {
	case core.ScreenLogin:
		return m.handleLoginKey(msg)
	case core.ScreenDeviceSetup:
		return m.handleDeviceSetupKey(msg)
	case core.ScreenActivePlay:
		return m.handleActivePlayKey(msg)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "l":
		m.busy = "Waiting for sign-in in your browser…"
		return m, m.dispatch(controller.Action{Kind: controller.ActionLogin})
	}
	return m, nil
}

func (m Model) handleDeviceSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	devices := m.snap.Devices
	switch msg.String() {
	case "j", "down":
		m.devices.Next(len(devices))
	case "k", "up":
		m.devices.Prev()
	case "r":
		m.busy = "Looking for devices…"
		return m, m.dispatch(controller.Action{Kind: controller.ActionRefreshDevices})
	case " ":
		if d := m.devices.Current(devices); d != nil {
			return m, m.dispatch(controller.Action{Kind: controller.ActionSelectDevice, DeviceID: d.ID})
		}
	case "enter":
		d := m.devices.Current(devices)
		if d == nil {
			return m, nil
		}
		m.busy = "Connecting to " + d.Name + "…"
		return m, m.dispatch(
			controller.Action{Kind: controller.ActionSelectDevice, DeviceID: d.ID},
			controller.Action{Kind: controller.ActionStart},
		)
	case "L":
		return m, m.dispatch(controller.Action{Kind: controller.ActionLogout})
	}
	return m, nil
}

func (m Model) handleActivePlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m, m.dispatch(controller.Action{Kind: controller.ActionReveal})
	case " ":
		return m, m.dispatch(controller.Action{Kind: controller.ActionTogglePlayback})
	case "+", "=":
		return m, m.dispatch(controller.Action{Kind: controller.ActionSetVolume, Volume: m.volume() + volumeStep})
	case "-":
		return m, m.dispatch(controller.Action{Kind: controller.ActionSetVolume, Volume: m.volume() - volumeStep})
	case "d":
		m.busy = "Looking for devices…"
		return m, m.dispatch(controller.Action{Kind: controller.ActionChangeDevice})
	case "/":
		m.entering = true
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "L":
		return m, m.dispatch(controller.Action{Kind: controller.ActionLogout})
	}
	return m, nil
}

func (m Model) handleEntryKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.entering = false
		m.input.Blur()
		return m, nil
	case "enter":
		raw := strings.TrimSpace(m.input.Value())
		m.entering = false
		m.input.Blur()
		if raw == "" {
			return m, nil
		}
		return m, m.submit(raw)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) volume() int {
	if d := m.snap.SelectedDevice(); d != nil && d.VolumePercent != nil {
		return *d.VolumePercent
	}
	return defaultVolume
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var body string
	switch m.snap.Screen {
	case core.ScreenLogin:
		body = m.renderLogin()
	case core.ScreenDeviceSetup:
		body = m.devices.Render(m.snap.Devices, m.snap.DeviceID, m.width-2, m.height-4)
	case core.ScreenActivePlay:
		body = m.renderActivePlay()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatusBar())
}

func (m Model) renderHeader() string {
	left := styles.Highlight.Render("cuecard")
	right := ""
	if m.snap.Profile != nil {
		right = styles.Dim.Render(m.snap.Profile.DisplayName)
	}
	gap := max(1, m.width-2-lipgloss.Width(left)-lipgloss.Width(right))
	return lipgloss.NewStyle().Padding(0, 1).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderLogin() string {
	lines := []string{
		styles.Title.Render("Sign in to Spotify"),
		"",
		styles.Muted.Render("Press enter to open the Spotify sign-in page."),
	}
	if m.busy != "" && m.opts.AuthURL != nil {
		if u := m.opts.AuthURL(); u != "" {
			lines = append(lines, "", styles.Dim.Render("If the browser did not open, visit:"), u)
		}
	}
	return lipgloss.NewStyle().
		Width(m.width-2).
		Height(m.height-4).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func (m Model) renderActivePlay() string {
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	height := m.height - 4
	if m.entering {
		height -= 3
	}

	round := m.round.Render(m.snap.Playback, m.snap.SelectedDevice(), len(m.history), leftWidth-2, height)
	played := m.played.Render(m.history, rightWidth, height)
	main := lipgloss.JoinHorizontal(lipgloss.Top, round, played)

	if !m.entering {
		return main
	}
	entry := styles.FocusedBorder.Padding(0, 1).Width(m.width - 4).Render(m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, main, entry)
}

// keyHints is the status bar key table per screen.
var keyHints = map[core.Screen]string{
	core.ScreenLogin:       "enter:sign in  ?:help  q:quit",
	core.ScreenDeviceSetup: "↑/↓:move  space:choose  enter:start  r:refresh  L:sign out  q:quit",
	core.ScreenActivePlay:  "r:reveal  space:play/pause  +/-:volume  /:type code  d:device  ?:help  q:quit",
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render(keyHints[m.snap.Screen])

	switch {
	case m.busy != "":
		status = styles.Muted.Render(m.busy)
	case m.notice != nil:
		text := m.notice.Title
		if m.notice.Message != "" {
			text += ": " + m.notice.Message
		}
		if m.notice.Suggestion != "" {
			text += " (" + m.notice.Suggestion + ")"
		}
		status = styles.Notice(m.notice.Kind).Render(text)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "Cuecard - Keyboard Shortcuts"
	divider := strings.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help

  Devices
  ───────
  j/↓ k/↑      Move
  Space        Choose device
  Enter        Choose and start
  r            Refresh list
  L            Sign out

  Playing
  ───────
  r            Reveal the answer
  Space        Play/Pause
  +/=  -       Volume up/down
  /            Type a card code
  d            Change device
  L            Sign out

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Run starts the TUI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
