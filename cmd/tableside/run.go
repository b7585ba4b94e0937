package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/tableside/pkg/config"
	"github.com/vanderheijden86/tableside/pkg/debug"
	"github.com/vanderheijden86/tableside/pkg/journal"
	"github.com/vanderheijden86/tableside/pkg/metrics"
	"github.com/vanderheijden86/tableside/pkg/tracks"
	"github.com/vanderheijden86/tableside/pkg/ui"
	"github.com/vanderheijden86/tableside/pkg/walkthrough"
	"github.com/vanderheijden86/tableside/pkg/watcher"
)

type runOptions struct {
	noTraining bool
	track      string
	metrics    bool
}

func runShell(cmd *cobra.Command, g *globalFlags, o *runOptions) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if o.noTraining || o.track != "" {
		cfg.Walkthrough.AutoStart = false
	}

	closeLog, err := redirectDebug(cfg.UI.DebugLog)
	if err != nil {
		return err
	}
	defer closeLog()

	tracksPath := cfg.TracksPath()
	reg, err := tracks.LoadOrDefault(tracksPath)
	if err != nil {
		return err
	}
	debug.Log("tableside: %d tracks from %s", reg.Len(), reg.Source())

	store := walkthrough.NewStore()

	// The journal subscribes before the shell so it sees the first start.
	var jr *journal.Journal
	if cfg.Journal.Enabled {
		jr, err = journal.Open(cfg.JournalPath())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: training journal disabled: %v\n", err)
		} else {
			defer jr.Close()
			detach := jr.Attach(store)
			defer detach()
		}
	}

	theme := ui.DefaultTheme(lipgloss.DefaultRenderer())
	m, err := ui.New(ui.Options{
		Store:  store,
		Tracks: reg,
		Config: cfg,
		Theme:  &theme,
		OnStall: func(step walkthrough.Step, cause error) {
			if jr == nil {
				return
			}
			if err := jr.RecordStall(context.Background(), store.Snapshot(), cause); err != nil {
				debug.Log("tableside: recording stall on %s: %v", step.Selector, err)
			}
		},
	})
	if err != nil {
		return err
	}
	defer m.Close()

	if o.track != "" && !o.noTraining {
		if err := m.StartTraining(o.track); err != nil {
			return err
		}
	}

	err = runProgram(cmd.Context(), m, cfg, tracksPath)

	if jr != nil {
		if jerr := jr.Err(); jerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: journal write failed: %v\n", jerr)
		}
	}
	if o.metrics || debug.Enabled() {
		printMetrics(cmd.ErrOrStderr())
	}
	return err
}

// runProgram runs the TUI and, when enabled, the tracks watcher until the
// user quits or a signal arrives.
func runProgram(parent context.Context, m ui.Model, cfg config.Config, tracksPath string) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	group, gctx := errgroup.WithContext(ctx)

	if cfg.Tracks.Watch && fileExists(tracksPath) {
		reloader, err := watcher.NewTracksReloader(tracksPath,
			func(reg *tracks.Registry) { p.Send(ui.TracksReloadedMsg{Registry: reg}) },
			func(err error) { p.Send(ui.TracksErrorMsg{Err: err}) },
		)
		if err != nil {
			return fmt.Errorf("watching %s: %w", tracksPath, err)
		}
		group.Go(func() error {
			return reloader.Run(gctx)
		})
	}

	// Optional auto-quit for automated tests: set TABLESIDE_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TABLESIDE_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			group.Go(func() error {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()
				select {
				case <-gctx.Done():
				case <-timer.C:
					p.Quit()
				}
				return nil
			})
		}
	}

	group.Go(func() error {
		// Quitting the TUI stops the watcher.
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
			return nil
		}
		return err
	})
	return group.Wait()
}

// redirectDebug sends debug output to a file while the alt screen is up.
func redirectDebug(path string) (func(), error) {
	if !debug.Enabled() {
		return func() {}, nil
	}
	if path == "" {
		path = filepath.Join(config.StateDir(), "debug.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating debug log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	debug.SetOutput(f)
	return func() {
		debug.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

func printMetrics(w io.Writer) {
	stats := metrics.AllTimingStats()
	counters := metrics.CounterValues()
	if len(stats) == 0 && len(counters) == 0 {
		return
	}
	fmt.Fprintln(w, "walkthrough metrics:")
	for _, s := range stats {
		fmt.Fprintf(w, "  %-16s n=%-4d avg=%.1fms max=%.1fms\n", s.Name, s.Count, s.AvgMs, s.MaxMs)
	}
	for _, c := range metrics.AllCounters() {
		fmt.Fprintf(w, "  %-20s %d\n", c.Name(), counters[c.Name()])
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
