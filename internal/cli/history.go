package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/cuecard/internal/rounds"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently played cards",
	Long:  `Lists the rounds played by 'cuecard host', newest first.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of rounds to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := rounds.Open(filepath.Join(cfg.Storage.Dir, rounds.FileName))
	if err != nil {
		return err
	}
	defer store.Close()

	recent, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if JSONOutput() {
		output := make([]map[string]any, 0, len(recent))
		for _, r := range recent {
			item := map[string]any{
				"id":        r.ID,
				"uri":       r.TrackURI,
				"name":      r.Name,
				"artists":   r.Artists,
				"year":      r.Year,
				"device_id": r.DeviceID,
				"played_at": r.PlayedAt,
				"revealed":  r.Revealed(),
			}
			if r.RevealedAt != nil {
				item["revealed_at"] = *r.RevealedAt
			}
			output = append(output, item)
		}
		return printJSON(output)
	}

	if len(recent) == 0 {
		fmt.Println("No rounds played yet. Start one with 'cuecard host'.")
		return nil
	}

	t := NewTable("PLAYED", "TRACK", "ARTIST", "YEAR", "REVEALED")
	for _, r := range recent {
		year := "-"
		if r.Year != nil {
			year = strconv.Itoa(*r.Year)
		}
		revealed := StatusIcon(r.Revealed())
		if r.RevealedAt != nil && Verbose() {
			revealed += " " + humanize.RelTime(r.PlayedAt, *r.RevealedAt, "before", "after")
		}
		t.Row(
			humanize.Time(r.PlayedAt),
			TruncateString(r.Name, 40),
			TruncateString(r.Artists, 30),
			year,
			revealed,
		)
	}
	t.Flush()
	return nil
}
