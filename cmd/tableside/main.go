// Command tableside runs the point-of-sale training shell and inspects its
// training journal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tableside/pkg/config"
	"github.com/vanderheijden86/tableside/pkg/debug"
	"github.com/vanderheijden86/tableside/pkg/version"
)

type globalFlags struct {
	configPath string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	run := &runOptions{}

	root := &cobra.Command{
		Use:   "tableside",
		Short: "Point-of-sale shell with guided staff training",
		Long: `tableside is a terminal point-of-sale shell. On first launch it walks new
staff through every screen with a chain of training tracks.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.debug {
				debug.SetEnabled(true)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, g, run)
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to config.yaml (default: XDG config dir)")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the shell (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, g, run)
		},
	}
	for _, c := range []*cobra.Command{root, runCmd} {
		c.Flags().BoolVar(&run.noTraining, "no-training", false, "Do not start the first-run training chain")
		c.Flags().StringVar(&run.track, "track", "", "Start this training track instead of the chain head")
		c.Flags().BoolVar(&run.metrics, "metrics", false, "Print walkthrough metrics on exit")
	}

	root.AddCommand(runCmd)
	root.AddCommand(newTracksCmd(g))
	root.AddCommand(newJournalCmd(g))
	root.AddCommand(newStatsCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tableside %s\n", version.Version)
		},
	}
}

// loadConfig reads --config when given, otherwise the XDG config file.
func loadConfig(g *globalFlags) (config.Config, error) {
	if g.configPath != "" {
		return config.LoadFrom(g.configPath)
	}
	return config.Load()
}
