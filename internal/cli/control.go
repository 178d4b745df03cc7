package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tessro/cuecard/internal/core"
	apperrors "github.com/tessro/cuecard/internal/errors"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Long:  `Pause playback on the saved device.`,
	RunE:  runPause,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume playback",
	Long:  `Resume paused playback on the saved device.`,
	RunE:  runResume,
}

var (
	volumeUp   bool
	volumeDown bool
)

const volumeStep = 10

var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Set or adjust volume",
	Long: `Set the playback volume (0-100) or adjust it up/down.

Examples:
  cuecard volume 50      # Set volume to 50%
  cuecard volume --up    # Increase volume by 10%
  cuecard volume --down  # Decrease volume by 10%`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVolume,
}

func init() {
	volumeCmd.Flags().BoolVar(&volumeUp, "up", false, "Increase volume by 10%")
	volumeCmd.Flags().BoolVar(&volumeDown, "down", false, "Decrease volume by 10%")

	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(volumeCmd)
}

func runPause(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}

	if err := s.player.Pause(ctx); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "paused"})
	}
	fmt.Println("⏸ Paused")
	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}

	if err := s.player.Resume(ctx); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "playing"})
	}
	fmt.Println("▶ Resumed")
	return nil
}

func runVolume(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !volumeUp && !volumeDown {
		return fmt.Errorf("specify a volume level or use --up/--down")
	}

	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}

	var level int
	if len(args) == 1 {
		level, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid volume level: %s", args[0])
		}
	} else {
		devices, err := s.player.ListDevices(ctx)
		if err != nil {
			return err
		}
		current := currentVolume(devices, s.player.DeviceID())
		if current == nil {
			return fmt.Errorf("%w: cannot read the current volume", apperrors.ErrNoActiveDevice)
		}
		level = *current
		if volumeUp {
			level += volumeStep
		} else {
			level -= volumeStep
		}
	}

	level = max(0, min(100, level))
	if err := s.player.SetVolume(ctx, level); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]int{"volume": level})
	}
	fmt.Printf("🔊 Volume: %d%%\n", level)
	return nil
}

// currentVolume reads the volume of the target device, falling back to
// the active one.
func currentVolume(devices []core.Device, deviceID string) *int {
	d := core.FindDevice(devices, deviceID)
	if d == nil {
		d = core.ActiveDevice(devices)
	}
	if d == nil {
		return nil
	}
	return d.VolumePercent
}
