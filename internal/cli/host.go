package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/tessro/cuecard/internal/browser"
	"github.com/tessro/cuecard/internal/config"
	"github.com/tessro/cuecard/internal/controller"
	"github.com/tessro/cuecard/internal/core"
	"github.com/tessro/cuecard/internal/notify"
	"github.com/tessro/cuecard/internal/rounds"
	"github.com/tessro/cuecard/internal/scan"
	"github.com/tessro/cuecard/internal/spotify/auth"
	"github.com/tessro/cuecard/internal/tui"
	"github.com/tessro/cuecard/internal/watch"
)

var headless bool

var hostCmd = &cobra.Command{
	Use:     "host",
	Aliases: []string{"ui", "run"},
	Short:   "Host a game",
	Long: `Host a game: sign in, pick a speaker, then scan cards.

Each scanned card plays its song with the title hidden until you reveal it.
When stdout is not a terminal, or with --headless, cuecard runs without the
dashboard and logs each round instead.

Keyboard shortcuts (dashboard):
  r            Reveal the answer
  Space        Play/Pause
  +/-          Volume up/down
  /            Type a card code
  d            Change device
  ?            Help
  q, Ctrl+C    Quit`,
	RunE: runHost,
}

func init() {
	hostCmd.Flags().BoolVar(&headless, "headless", false, "run without the dashboard")
	rootCmd.AddCommand(hostCmd)
}

// host is a wired game session.
type host struct {
	logger     *zap.SugaredLogger
	session    *session
	rounds     *rounds.Store
	controller *controller.Controller
	scanner    *scan.Orchestrator
	feed       *tui.NoticeFeed

	// Headless only
	out        io.Writer
	loginRetry time.Duration
	signingIn  atomic.Bool
	wg         sync.WaitGroup
}

const defaultLoginRetry = 5 * time.Second

func runHost(cmd *cobra.Command, args []string) error {
	interactive := !headless && term.IsTerminal(int(os.Stdout.Fd()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := newHost(interactive)
	if err != nil {
		return err
	}
	defer h.close()

	if cfgPath != "" {
		if err := config.Watch(ctx, cfgPath, h.logger, h.applyConfig); err != nil {
			h.logger.Warnw("Config changes will not be picked up", "error", err)
		}
	}

	if err := h.controller.Start(ctx); err != nil {
		return err
	}

	if interactive {
		err = tui.Run(ctx, tui.Options{
			Controller: h.controller,
			Submit:     h.scanner.Submit,
			Notices:    h.feed,
			AuthURL:    h.session.flow.AuthURL,
		})
		stop()
		h.scanner.Wait()
		return err
	}
	return h.runHeadless(ctx)
}

func newHost(interactive bool) (*host, error) {
	// The dashboard owns the terminal, so logs only go to a file.
	logger, err := newLogger(interactive)
	if err != nil {
		return nil, err
	}

	var flowOpts []auth.FlowOption
	if !interactive {
		flowOpts = append(flowOpts, auth.WithOpener(func(url string) error {
			fmt.Fprintf(os.Stderr, "Sign in to Spotify: %s\n", url)
			return browser.Open(url)
		}))
	}
	s, err := newSession(logger, flowOpts...)
	if err != nil {
		return nil, err
	}

	store, err := rounds.Open(filepath.Join(cfg.Storage.Dir, rounds.FileName))
	if err != nil {
		return nil, err
	}

	h := &host{
		logger:     logger,
		session:    s,
		rounds:     store,
		out:        os.Stdout,
		loginRetry: defaultLoginRetry,
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.Notify.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(logger))
	}
	if interactive {
		h.feed = tui.NewNoticeFeed(8)
		notifiers = append(notifiers, h.feed)
	}

	h.controller = controller.New(controller.Deps{
		Gateway:  s.player,
		Auth:     s.flow,
		Devices:  s.devices,
		Notifier: notifiers,
		Logger:   logger,
		Rounds:   store,
	})

	opts := []scan.Option{
		scan.WithInvalidHandler(func(raw string, err error) {
			notifiers.Notify(core.Notice{
				Kind:    core.NoticeInfo,
				Title:   "Unrecognized card",
				Message: err.Error(),
			})
		}),
	}
	if src := newScanSource(interactive, logger); src != nil {
		opts = append(opts, scan.WithSource(src))
	}
	h.scanner = scan.New(h.play, cfg.Scan.Cooldown(), logger, opts...)

	subsystems := []controller.Subsystem{h.scanner}
	if interval := cfg.Sync.Interval(); interval > 0 {
		subsystems = append(subsystems, watch.NewWatcher(s.player, interval, h.controller.Reconcile, logger))
	}
	h.controller.Attach(subsystems...)

	return h, nil
}

// newScanSource builds the configured card source. In the dashboard,
// stdin belongs to the terminal and codes are typed with "/" instead.
func newScanSource(interactive bool, logger *zap.SugaredLogger) scan.Source {
	switch cfg.Scan.Source {
	case config.SourceSerial:
		return scan.NewSerialSource(cfg.Scan.SerialPort, uint(cfg.Scan.BaudRate), logger)
	case config.SourceStdin:
		if interactive {
			return nil
		}
		return scan.NewLineSource(os.Stdin, logger)
	}
	return nil
}

func (h *host) play(ctx context.Context, uri string) error {
	return h.controller.Dispatch(ctx, controller.Action{Kind: controller.ActionScan, TrackURI: uri})
}

func (h *host) applyConfig(next *config.Config) {
	h.scanner.SetCooldown(next.Scan.Cooldown())
	h.logger.Debugw("Applied config change", "cooldown", next.Scan.Cooldown())
}

// runHeadless logs every snapshot until ctx ends.
func (h *host) runHeadless(ctx context.Context) error {
	snapshots := h.controller.Subscribe()
	var last core.Snapshot
	for {
		select {
		case <-ctx.Done():
			h.wg.Wait()
			h.scanner.Wait()
			return nil
		case snap := <-snapshots:
			h.report(last, snap)
			h.advance(ctx, last, snap)
			last = snap
		}
	}
}

func (h *host) report(prev, snap core.Snapshot) {
	if jsonOut {
		data, err := json.Marshal(redacted(snap))
		if err == nil {
			fmt.Fprintln(h.out, string(data))
		}
		return
	}

	if snap.Screen != prev.Screen {
		switch snap.Screen {
		case core.ScreenLogin:
			fmt.Fprintln(h.out, "Not signed in. Finish signing in in your browser.")
		case core.ScreenDeviceSetup:
			if snap.DeviceID == "" {
				fmt.Fprintln(h.out, "No device to play on. Open Spotify on a speaker or run 'cuecard devices select'.")
			}
		case core.ScreenActivePlay:
			name := snap.DeviceID
			if d := snap.SelectedDevice(); d != nil {
				name = d.Name
			}
			fmt.Fprintf(h.out, "Ready. Playing on %s. Scan a card.\n", name)
		}
	}

	track := snap.Playback.CurrentTrack
	if track != nil && track != prev.Playback.CurrentTrack {
		fmt.Fprintln(h.out, "▶ Now playing: ? ? ?")
	}
}

// redacted drops the current track from snap until it is revealed.
func redacted(snap core.Snapshot) core.Snapshot {
	if !snap.Playback.Revealed {
		snap.Playback.CurrentTrack = nil
	}
	return snap
}

// advance drives the session forward without a keyboard: it signs in on
// the login screen and starts on the auto-selected device.
func (h *host) advance(ctx context.Context, prev, snap core.Snapshot) {
	switch {
	case snap.Screen == core.ScreenLogin:
		h.signIn(ctx)
	case snap.Screen == prev.Screen:
	case snap.Screen == core.ScreenDeviceSetup && snap.DeviceID != "":
		action := controller.Action{Kind: controller.ActionStart}
		h.wg.Go(func() {
			if err := h.controller.Dispatch(ctx, action); err != nil {
				h.logger.Debugw("Headless start failed", "error", err)
			}
		})
	}
}

// signIn keeps retrying sign-in while the session is on the login screen.
// At most one attempt runs at a time.
func (h *host) signIn(ctx context.Context) {
	if !h.signingIn.CompareAndSwap(false, true) {
		return
	}
	h.wg.Go(func() {
		defer h.signingIn.Store(false)
		for {
			err := h.controller.Dispatch(ctx, controller.Action{Kind: controller.ActionLogin})
			if ctx.Err() != nil || h.controller.Screen() != core.ScreenLogin {
				return
			}
			h.logger.Infow("Sign-in did not complete, retrying", "error", err, "in", h.loginRetry)
			select {
			case <-ctx.Done():
				return
			case <-time.After(h.loginRetry):
			}
		}
	})
}

func (h *host) close() {
	if err := h.rounds.Close(); err != nil {
		h.logger.Warnw("Failed to close round history", "error", err)
	}
	_ = h.logger.Sync()
}
