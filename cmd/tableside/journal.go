package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/tableside/pkg/config"
	"github.com/vanderheijden86/tableside/pkg/journal"
)

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// confirmClear asks before the journal is wiped. Tests replace it.
var confirmClear = func(path string, count int) (bool, error) {
	ok := false
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %d journal entries?", count)).
				Description(path).
				Value(&ok).
				Affirmative("Yes, clear").
				Negative("Cancel"),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// openJournal opens the configured journal. ok is false when no journal
// file exists yet.
func openJournal(cfg config.Config) (j *journal.Journal, ok bool, err error) {
	path := cfg.JournalPath()
	if !fileExists(path) {
		return nil, false, nil
	}
	j, err = journal.Open(path)
	if err != nil {
		return nil, false, err
	}
	return j, true, nil
}

func newJournalCmd(g *globalFlags) *cobra.Command {
	var (
		asJSON bool
		filter journal.Filter
		kind   string
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show the training journal",
		Long:  "Show recorded training events: starts, steps, detours, stalls and completions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			j, ok, err := openJournal(cfg)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No training journal yet.")
				return nil
			}
			defer j.Close()

			filter.Kind = journal.Kind(kind)
			ctx := cmd.Context()
			if asJSON {
				return j.WriteJSON(ctx, out, filter)
			}
			events, err := j.Events(ctx, filter)
			if err != nil {
				return err
			}
			writeEvents(out, events)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print events as JSON")
	cmd.Flags().StringVar(&filter.Track, "track", "", "Only events for this track")
	cmd.Flags().StringVar(&kind, "kind", "", "Only events of this kind (started, step, completed, reset, detour, resume, stall)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Show only the newest N events")

	cmd.AddCommand(newJournalClearCmd(g))
	return cmd
}

func newJournalClearCmd(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every journal entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			j, ok, err := openJournal(cfg)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No training journal yet.")
				return nil
			}
			defer j.Close()

			ctx := cmd.Context()
			events, err := j.Events(ctx, journal.Filter{})
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "Journal is already empty.")
				return nil
			}
			if !yes {
				confirmed, err := confirmClear(j.Path(), len(events))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(out, "Clear cancelled")
					return nil
				}
			}
			n, err := j.Clear(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d journal entries\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}

func writeEvents(w io.Writer, events []journal.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No matching events.")
		return
	}
	for _, e := range events {
		line := fmt.Sprintf("%s  %-9s %-13s #%d", e.At.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Track, e.Step+1)
		if e.Selector != "" {
			line += "  " + e.Selector
		}
		if msg, ok := e.Data["error"]; ok {
			line += "  (" + msg + ")"
		}
		fmt.Fprintln(w, line)
	}
}
