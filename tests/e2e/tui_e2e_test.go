package main_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// runTUI runs the shell under a pseudo-TTY until it auto-closes.
func runTUI(t *testing.T, env string, args ...string) string {
	t.Helper()
	skipIfNoScript(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := scriptTUICommand(ctx, binary(t), args...)
	cmd.Dir = env
	cmd.Env = append(isolatedEnv(env),
		"TERM=xterm-256color",
		"TABLESIDE_TUI_AUTOCLOSE_MS=600",
	)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		t.Fatalf("tableside did not exit:\n%s", out)
	}
	if err != nil {
		t.Fatalf("tableside failed: %v\n%s", err, out)
	}
	return string(out)
}

type journalEvent struct {
	Kind     string `json:"kind"`
	Track    string `json:"track"`
	Step     int    `json:"step"`
	Selector string `json:"selector"`
}

func journalEvents(t *testing.T, env string) []journalEvent {
	t.Helper()
	out, err := run(t, env, "journal", "--json")
	if err != nil {
		t.Fatalf("journal --json failed: %v\n%s", err, out)
	}
	if strings.Contains(out, "No training journal yet.") {
		return nil
	}
	var events []journalEvent
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("invalid journal JSON: %v\n%s", err, out)
	}
	return events
}

// TestFirstRunStartsChainAndJournals verifies a fresh launch starts the
// first chained track and the journal records it.
func TestFirstRunStartsChainAndJournals(t *testing.T) {
	env := t.TempDir()
	out := runTUI(t, env)
	if !strings.Contains(out, "tableside") {
		t.Errorf("header missing from TUI output:\n%s", out)
	}

	events := journalEvents(t, env)
	if len(events) == 0 {
		t.Fatal("expected journal events after a training run")
	}
	first := events[0]
	if first.Kind != "started" || first.Track != "order" || first.Selector != ".nav-order" {
		t.Errorf("first event = %+v, want order started at .nav-order", first)
	}
}

// TestNoTrainingLeavesJournalEmpty verifies --no-training suppresses the
// first-run chain.
func TestNoTrainingLeavesJournalEmpty(t *testing.T) {
	env := t.TempDir()
	runTUI(t, env, "--no-training")
	for _, e := range journalEvents(t, env) {
		if e.Kind == "started" {
			t.Errorf("unexpected training start: %+v", e)
		}
	}
}

// TestTrackFlagStartsNamedTrack verifies --track bypasses the chain head.
func TestTrackFlagStartsNamedTrack(t *testing.T) {
	env := t.TempDir()
	runTUI(t, env, "run", "--track", "settings")
	events := journalEvents(t, env)
	if len(events) == 0 || events[0].Track != "settings" {
		t.Errorf("events = %+v, want settings first", events)
	}
}
