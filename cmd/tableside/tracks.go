package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tableside/pkg/tracks"
)

func newTracksCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "List training tracks",
		Long:  "List the training tracks in chain order. Tracks come from the tracks file when it exists, otherwise the built-in set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			reg, err := tracks.LoadOrDefault(cfg.TracksPath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				data, err := reg.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			chain := reg.Chain()
			if len(cfg.Tracks.Chain) > 0 {
				chain = cfg.Tracks.Chain
			}
			position := make(map[string]int, len(chain))
			for i, name := range chain {
				position[name] = i + 1
			}

			fmt.Fprintf(out, "Tracks (%s):\n", reg.Source())
			for _, name := range reg.Names() {
				t, _ := reg.Track(name)
				order := "-"
				if n, ok := position[name]; ok {
					order = fmt.Sprint(n)
				}
				first := ""
				if len(t.Steps) > 0 {
					first = t.Steps[0].Selector
				}
				fmt.Fprintf(out, "  %-3s %-14s %2d steps  starts at %s\n", order, name, len(t.Steps), first)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the registry as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a tracks file without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := tracks.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tracks OK\n", args[0], reg.Len())
			return nil
		},
	})
	return cmd
}
