package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Walkthrough.AutoStart {
		t.Error("expected auto_start enabled by default")
	}
	if cfg.Walkthrough.HomePath != "/" {
		t.Errorf("expected home path '/', got %q", cfg.Walkthrough.HomePath)
	}
	if cfg.Walkthrough.Settle != 100*time.Millisecond {
		t.Errorf("expected settle 100ms, got %v", cfg.Walkthrough.Settle)
	}
	if cfg.Walkthrough.AutoClose != 2*time.Second {
		t.Errorf("expected auto_close 2s, got %v", cfg.Walkthrough.AutoClose)
	}
	if !cfg.Journal.Enabled {
		t.Error("expected journal enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Walkthrough.Poll != 100*time.Millisecond {
		t.Errorf("expected default config, got poll %v", cfg.Walkthrough.Poll)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
walkthrough:
  auto_start: false
  home_path: /floor
  settle: 50ms
  poll: 250ms
  poll_max: 2s
  max_polls: 0
  auto_close: 3s

tracks:
  path: ~/pos/tracks.yaml
  chain: [table, order]
  watch: true

journal:
  enabled: false
  path: /var/lib/tableside/journal.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	w := cfg.Walkthrough
	if w.AutoStart {
		t.Error("expected auto_start false")
	}
	if w.HomePath != "/floor" {
		t.Errorf("expected home path /floor, got %q", w.HomePath)
	}
	if w.Settle != 50*time.Millisecond || w.Poll != 250*time.Millisecond || w.PollMax != 2*time.Second {
		t.Errorf("unexpected durations %v %v %v", w.Settle, w.Poll, w.PollMax)
	}
	if w.MaxPolls != 0 {
		t.Errorf("expected unbounded polling, got %d", w.MaxPolls)
	}
	// Unset keys keep their defaults.
	if w.Detour != 1500*time.Millisecond {
		t.Errorf("expected default detour, got %v", w.Detour)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "pos/tracks.yaml"); cfg.Tracks.Path != want {
		t.Errorf("expected expanded path %q, got %q", want, cfg.Tracks.Path)
	}
	if len(cfg.Tracks.Chain) != 2 || cfg.Tracks.Chain[0] != "table" {
		t.Errorf("unexpected chain %v", cfg.Tracks.Chain)
	}
	if !cfg.Tracks.Watch {
		t.Error("expected watch enabled")
	}
	if cfg.Journal.Enabled || cfg.JournalPath() != "/var/lib/tableside/journal.db" {
		t.Errorf("unexpected journal config %+v", cfg.Journal)
	}

	timings := w.Timings()
	if timings.AutoClose != 3*time.Second || timings.MaxPolls != 0 {
		t.Errorf("unexpected timings %+v", timings)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
walkthrough:
  poll: 500ms
  poll_max: 100ms
  max_polls: -1
  home_path: floor
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"poll_max", "max_polls", "home_path"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Walkthrough.AutoClose = 5 * time.Second
	cfg.Walkthrough.MaxPolls = 40
	cfg.Tracks.Chain = []string{"profile"}
	cfg.UI.StartPage = "/tables"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}

	if loaded.Walkthrough.AutoClose != 5*time.Second {
		t.Errorf("expected auto_close 5s, got %v", loaded.Walkthrough.AutoClose)
	}
	if loaded.Walkthrough.MaxPolls != 40 {
		t.Errorf("expected max_polls 40, got %d", loaded.Walkthrough.MaxPolls)
	}
	if len(loaded.Tracks.Chain) != 1 || loaded.Tracks.Chain[0] != "profile" {
		t.Errorf("unexpected chain %v", loaded.Tracks.Chain)
	}
	if loaded.UI.StartPage != "/tables" {
		t.Errorf("expected start page /tables, got %q", loaded.UI.StartPage)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/", filepath.Join(home, "")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := ConfigDir()
	expected := filepath.Join(dir, "tableside")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if ConfigPath() != filepath.Join(expected, "config.yaml") {
		t.Errorf("unexpected config path %q", ConfigPath())
	}
}

func TestDataDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got := DataDir()
	expected := filepath.Join(dir, "tableside")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if p := DefaultConfig().TracksPath(); p != filepath.Join(expected, "tracks.yaml") {
		t.Errorf("unexpected tracks path %q", p)
	}
}

func TestStateDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	got := StateDir()
	expected := filepath.Join(dir, "tableside")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if p := DefaultConfig().JournalPath(); p != filepath.Join(expected, "journal.db") {
		t.Errorf("unexpected journal path %q", p)
	}
}
