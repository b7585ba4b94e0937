package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/tableside/pkg/config"
	"github.com/vanderheijden86/tableside/pkg/journal"
	"github.com/vanderheijden86/tableside/pkg/metrics"
	"github.com/vanderheijden86/tableside/pkg/tracks"
	"github.com/vanderheijden86/tableside/pkg/version"
	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

// isolate points every XDG directory at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seedJournal records one completed order run and one abandoned table run.
func seedJournal(t *testing.T) {
	t.Helper()
	j, err := journal.Open(config.DefaultConfig().JournalPath())
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	store := walkthrough.NewStore()
	detach := j.Attach(store)
	defer detach()

	reg := tracks.MustDefault()
	order, _ := reg.Track(tracks.Order)
	if err := store.StartTrack(order); err != nil {
		t.Fatal(err)
	}
	for range order.Steps {
		store.Next()
	}
	table, _ := reg.Track(tracks.Table)
	if err := store.StartTrack(table); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordStall(context.Background(), store.Snapshot(), walkthrough.ErrTargetNotFound); err != nil {
		t.Fatal(err)
	}
	store.Reset()
	if err := j.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "tableside "+version.Version {
		t.Errorf("version output = %q", out)
	}
}

func TestTracksList(t *testing.T) {
	isolate(t)
	out, err := execute(t, "tracks")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Tracks (embedded)") {
		t.Errorf("missing source line:\n%s", out)
	}
	for _, name := range tracks.MustDefault().Names() {
		if !strings.Contains(out, name) {
			t.Errorf("track %s not listed:\n%s", name, out)
		}
	}
	if !strings.Contains(out, "starts at .nav-order") {
		t.Errorf("first step not shown:\n%s", out)
	}
}

func TestTracksJSON(t *testing.T) {
	isolate(t)
	out, err := execute(t, "tracks", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var f tracks.File
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(f.Tracks) != 6 || len(f.Chain) != 6 {
		t.Errorf("decoded %d tracks, chain %v", len(f.Tracks), f.Chain)
	}
}

func TestTracksFileOverride(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "data", "tableside", "tracks.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	doc := `
tracks:
  - name: closing
    steps:
      - selector: .nav-settings
        page: /
        content: "End of day."
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "tracks")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "closing") || strings.Contains(out, "orderHistory") {
		t.Errorf("override not used:\n%s", out)
	}

	out, err = execute(t, "tracks", "validate", path)
	if err != nil || !strings.Contains(out, "1 tracks OK") {
		t.Errorf("validate = %q, %v", out, err)
	}
}

func TestTracksValidateRejectsBadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	doc := `
chain: [missing]
tracks:
  - name: empty
    steps: []
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "tracks", "validate", path); err == nil {
		t.Error("validate accepted an empty track and an unknown chain entry")
	}
}

func TestJournalEmpty(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{{"journal"}, {"journal", "clear", "--yes"}, {"stats"}} {
		out, err := execute(t, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if !strings.Contains(out, "No training journal yet.") {
			t.Errorf("%v output = %q", args, out)
		}
	}
}

func TestJournalShow(t *testing.T) {
	isolate(t)
	seedJournal(t)

	out, err := execute(t, "journal", "--track", "order")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"started", "completed", ".payment-method-cash"} {
		if !strings.Contains(out, want) {
			t.Errorf("journal output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "stall") {
		t.Errorf("track filter leaked other tracks:\n%s", out)
	}

	out, err = execute(t, "journal", "--kind", "stall")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "table") || !strings.Contains(out, "target not found") {
		t.Errorf("stall output:\n%s", out)
	}

	out, err = execute(t, "journal", "--json", "--limit", "1")
	if err != nil {
		t.Fatal(err)
	}
	var events []journal.Event
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("journal --json: %v\n%s", err, out)
	}
	if len(events) != 1 || events[0].Kind != journal.KindReset {
		t.Errorf("newest event = %+v, want the reset", events)
	}
}

func TestStats(t *testing.T) {
	isolate(t)
	seedJournal(t)

	out, err := execute(t, "stats")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.HasPrefix(lines[0], "TRACK") {
		t.Fatalf("missing header:\n%s", out)
	}
	var orderRow, profileRow string
	for _, l := range lines {
		switch strings.Fields(l)[0] {
		case tracks.Order:
			orderRow = l
		case tracks.Profile:
			profileRow = l
		}
	}
	if !strings.Contains(orderRow, "100%") {
		t.Errorf("order row = %q, want full completion", orderRow)
	}
	if profileRow == "" {
		t.Error("tracks without events should still be listed")
	}

	out, err = execute(t, "stats", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var sums []journal.TrackSummary
	if err := json.Unmarshal([]byte(out), &sums); err != nil {
		t.Fatalf("stats --json: %v", err)
	}
	if len(sums) != 2 {
		t.Errorf("got %d summaries, want order and table", len(sums))
	}
}

func TestJournalClear(t *testing.T) {
	isolate(t)
	seedJournal(t)

	saved := confirmClear
	defer func() { confirmClear = saved }()

	asked := 0
	confirmClear = func(string, int) (bool, error) {
		asked++
		return false, nil
	}
	out, err := execute(t, "journal", "clear")
	if err != nil || !strings.Contains(out, "Clear cancelled") {
		t.Fatalf("declined clear = %q, %v", out, err)
	}
	if asked != 1 {
		t.Errorf("confirm asked %d times", asked)
	}

	confirmClear = func(string, int) (bool, error) {
		return false, errors.New("user aborted")
	}
	if _, err := execute(t, "journal", "clear"); err == nil {
		t.Error("form errors should fail the command")
	}

	confirmClear = func(string, int) (bool, error) { return true, nil }
	out, err = execute(t, "journal", "clear")
	if err != nil || !strings.Contains(out, "Deleted") {
		t.Fatalf("clear = %q, %v", out, err)
	}
	out, err = execute(t, "journal", "clear", "--yes")
	if err != nil || !strings.Contains(out, "already empty") {
		t.Errorf("second clear = %q, %v", out, err)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("walkthrough:\n  max_polls: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", path, "tracks"); err == nil {
		t.Error("invalid --config file should fail")
	}

	if err := os.WriteFile(path, []byte("tracks:\n  chain: [profile]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "--config", path, "tracks")
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range strings.Split(out, "\n") {
		fields := strings.Fields(l)
		if len(fields) > 1 && fields[1] == tracks.Profile && fields[0] != "1" {
			t.Errorf("profile should be first in the configured chain: %q", l)
		}
	}
}

func TestPrintMetrics(t *testing.T) {
	metrics.SetEnabled(true)
	metrics.ResetAll()
	defer metrics.ResetAll()

	metrics.PollAttempts.Inc()
	metrics.TargetResolve.Record(1500000)

	var buf bytes.Buffer
	printMetrics(&buf)
	out := buf.String()
	for _, want := range []string{"target_resolve", "poll_attempts", "1"} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q:\n%s", want, out)
		}
	}
}
