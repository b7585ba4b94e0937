// Package config handles loading and saving tableside configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/tableside/config.yaml
//   - Data:    ~/.local/share/tableside/ (track overrides)
//   - State:   ~/.local/state/tableside/ (training journal, debug log)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

const appName = "tableside"

// WalkthroughConfig tunes the training engine. Durations use Go syntax
// ("150ms", "2s").
type WalkthroughConfig struct {
	AutoStart bool          `yaml:"auto_start"`          // Start the first-run chain on launch
	HomePath  string        `yaml:"home_path,omitempty"` // Route terminal steps return to
	Settle    time.Duration `yaml:"settle,omitempty"`
	Poll      time.Duration `yaml:"poll,omitempty"`
	PollMax   time.Duration `yaml:"poll_max,omitempty"`
	MaxPolls  int           `yaml:"max_polls"` // 0 polls until the element appears
	AutoClose time.Duration `yaml:"auto_close,omitempty"`
	Detour    time.Duration `yaml:"detour,omitempty"`
}

// Timings converts the config to controller timings.
func (w WalkthroughConfig) Timings() walkthrough.Timings {
	return walkthrough.Timings{
		Settle:    w.Settle,
		Poll:      w.Poll,
		PollMax:   w.PollMax,
		MaxPolls:  w.MaxPolls,
		AutoClose: w.AutoClose,
		Detour:    w.Detour,
	}
}

// TracksConfig points at an optional registry override.
type TracksConfig struct {
	Path  string   `yaml:"path,omitempty"`  // YAML file replacing the embedded tracks
	Chain []string `yaml:"chain,omitempty"` // Overrides the registry's chain order
	Watch bool     `yaml:"watch,omitempty"` // Reload Path when it changes
}

// JournalConfig controls the training audit log.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// UIConfig holds terminal shell preferences.
type UIConfig struct {
	StartPage string `yaml:"start_page,omitempty"`
	DebugLog  string `yaml:"debug_log,omitempty"` // File receiving TABLESIDE_DEBUG output while the TUI runs
}

// Config is the top-level configuration for tableside.
type Config struct {
	Walkthrough WalkthroughConfig `yaml:"walkthrough"`
	Tracks      TracksConfig      `yaml:"tracks,omitempty"`
	Journal     JournalConfig     `yaml:"journal"`
	UI          UIConfig          `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := walkthrough.DefaultTimings()
	return Config{
		Walkthrough: WalkthroughConfig{
			AutoStart: true,
			HomePath:  "/",
			Settle:    t.Settle,
			Poll:      t.Poll,
			PollMax:   t.PollMax,
			MaxPolls:  t.MaxPolls,
			AutoClose: t.AutoClose,
			Detour:    t.Detour,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
		UI: UIConfig{
			StartPage: "/",
		},
	}
}

// ConfigDir returns the XDG config directory for tableside.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for tableside.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for tableside.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Tracks.Path = expandHome(cfg.Tracks.Path)
	cfg.Journal.Path = expandHome(cfg.Journal.Path)
	cfg.UI.DebugLog = expandHome(cfg.UI.DebugLog)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	var errs []error
	w := c.Walkthrough
	for name, d := range map[string]time.Duration{
		"settle": w.Settle, "poll": w.Poll, "poll_max": w.PollMax,
		"auto_close": w.AutoClose, "detour": w.Detour,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("walkthrough.%s must not be negative", name))
		}
	}
	if w.MaxPolls < 0 {
		errs = append(errs, errors.New("walkthrough.max_polls must not be negative"))
	}
	if w.Poll > 0 && w.PollMax > 0 && w.PollMax < w.Poll {
		errs = append(errs, errors.New("walkthrough.poll_max must be at least poll"))
	}
	if w.HomePath != "" && !strings.HasPrefix(w.HomePath, "/") {
		errs = append(errs, fmt.Errorf("walkthrough.home_path %q must start with /", w.HomePath))
	}
	return errors.Join(errs...)
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// JournalPath returns the configured journal file, defaulting to the state
// directory.
func (c Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "journal.db")
}

// TracksPath returns the registry override, defaulting to
// DataDir()/tracks.yaml (used only when that file exists).
func (c Config) TracksPath() string {
	if c.Tracks.Path != "" {
		return c.Tracks.Path
	}
	dir := DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "tracks.yaml")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
