package main

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tableside/pkg/config"
	"github.com/vanderheijden86/tableside/pkg/journal"
	"github.com/vanderheijden86/tableside/pkg/tracks"
)

func newStatsCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize training progress per track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			sums, ok, err := summaries(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No training journal yet.")
				return nil
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sums)
			}

			// Tracks nobody has started still get a row.
			seen := make(map[string]bool, len(sums))
			for _, s := range sums {
				seen[s.Track] = true
			}
			var missing []string
			if reg, err := tracks.LoadOrDefault(cfg.TracksPath()); err == nil {
				for _, name := range reg.Names() {
					if !seen[name] {
						missing = append(missing, name)
					}
				}
			}

			fmt.Fprintf(out, "%-14s %7s %9s %6s %9s %6s %7s %10s\n",
				"TRACK", "STARTED", "COMPLETED", "RATE", "ABANDONED", "STALLS", "DETOURS", "MEAN TIME")
			for _, s := range sums {
				fmt.Fprintf(out, "%-14s %7d %9d %5.0f%% %9d %6d %7d %10s\n",
					s.Track, s.Started, s.Completed, s.CompletionRate()*100,
					s.Abandoned, s.Stalls, s.Detours, formatDuration(s.MeanDuration))
			}
			for _, name := range missing {
				fmt.Fprintf(out, "%-14s %7d %9d %6s %9d %6d %7d %10s\n", name, 0, 0, "-", 0, 0, 0, "-")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print summaries as JSON")
	return cmd
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func summaries(ctx context.Context, cfg config.Config) ([]journal.TrackSummary, bool, error) {
	j, ok, err := openJournal(cfg)
	if err != nil || !ok {
		return nil, ok, err
	}
	defer j.Close()
	s, err := j.Summary(ctx)
	return s, true, err
}
