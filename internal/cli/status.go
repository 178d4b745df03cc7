package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/cuecard/internal/core"
)

var statusReveal bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current playback status",
	Long: `Shows what Spotify reports as playing and where.

The track stays hidden unless --reveal is given, so it is safe to run
mid-round.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusReveal, "reveal", "r", false, "Show the playing track")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}

	state, err := s.player.GetPlaybackState(ctx)
	if err != nil {
		return err
	}
	saved := s.devices.Load()

	if JSONOutput() {
		return outputStatusJSON(state, saved)
	}
	outputStatusText(state, saved)
	return nil
}

func outputStatusJSON(state *core.RemoteState, saved *core.SavedDevice) error {
	output := map[string]any{"is_playing": false}
	if saved != nil {
		output["saved_device"] = saved
	}
	if state == nil {
		return printJSON(output)
	}

	output["is_playing"] = state.IsPlaying
	if state.Track != nil {
		track := map[string]any{
			"duration": state.Track.Duration.String(),
		}
		if statusReveal {
			track["name"] = state.Track.Name
			track["artists"] = state.Track.Artists
			track["album"] = state.Track.Album
			track["year"] = state.Track.Year
			track["uri"] = state.Track.URI
		}
		output["track"] = track
		output["progress"] = state.Progress.String()
	}
	if state.Device != nil {
		output["device"] = map[string]any{
			"id":        state.Device.ID,
			"name":      state.Device.Name,
			"type":      state.Device.Type,
			"is_active": state.Device.IsActive,
		}
	}
	return printJSON(output)
}

func outputStatusText(state *core.RemoteState, saved *core.SavedDevice) {
	if saved != nil {
		fmt.Printf("Saved device: %s\n", saved.Name)
	} else {
		fmt.Println("Saved device: none (run 'cuecard devices select')")
	}

	if state == nil || state.Track == nil {
		fmt.Println("No active playback")
		return
	}

	playIcon := "▶"
	if !state.IsPlaying {
		playIcon = "⏸"
	}
	title := "Hidden track"
	if statusReveal {
		title = state.Track.Name
	}
	fmt.Printf("%s %s\n", playIcon, title)
	if statusReveal {
		fmt.Printf("  %s — %s\n", state.Track.ArtistLine(), state.Track.Album)
	}

	fmt.Printf("  %s %s / %s\n",
		FormatProgress(int(state.Progress/time.Second), int(state.Track.Duration/time.Second), 30),
		FormatDuration(int(state.Progress/time.Second)),
		FormatDuration(int(state.Track.Duration/time.Second)))

	if state.Device != nil {
		fmt.Printf("  %s %s", getDeviceIcon(state.Device.Type), state.Device.Name)
		if state.Device.VolumePercent != nil {
			fmt.Printf(" (🔊 %d%%)", *state.Device.VolumePercent)
		}
		fmt.Println()
	}
}
