package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/tessro/cuecard/internal/errors"
	"github.com/tessro/cuecard/internal/scan"
)

var playReveal bool

var playCmd = &cobra.Command{
	Use:   "play <code>",
	Short: "Play a card without the game session",
	Long: `Plays the track a card code points to on the saved device.

The code may be a spotify:track URI, an open.spotify.com track link, or a
bare track ID. The title stays hidden unless --reveal is given.

Examples:
  cuecard play spotify:track:4u7EnebtmKWzUH433cf5Qv
  cuecard play https://open.spotify.com/track/4u7EnebtmKWzUH433cf5Qv
  cuecard play 4u7EnebtmKWzUH433cf5Qv --reveal`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVarP(&playReveal, "reveal", "r", false, "Show the track after it starts")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	uri, err := scan.ParseTrackURI(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	if s.player.DeviceID() == "" {
		return apperrors.ErrNoDeviceSelected
	}

	track, err := s.player.Play(ctx, uri, "")
	if err != nil {
		return err
	}

	if JSONOutput() {
		out := map[string]any{"status": "playing", "uri": uri}
		if playReveal {
			out["name"] = track.Name
			out["artists"] = track.Artists
			out["album"] = track.Album
			out["year"] = track.Year
		}
		return printJSON(out)
	}

	if !playReveal {
		fmt.Println("▶ Playing card")
		return nil
	}
	fmt.Printf("▶ %s\n", track.Name)
	fmt.Printf("  %s\n", track.ArtistLine())
	if track.Year != nil {
		fmt.Printf("  %s (%d)\n", track.Album, *track.Year)
	} else if track.Album != "" {
		fmt.Printf("  %s\n", track.Album)
	}
	return nil
}
