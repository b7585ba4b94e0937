// Package testutil provides deterministic training-track fixtures and
// assertion helpers shared by package tests.
package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

// ChainFixture is a set of tracks plus the order they chain in. It has the
// same shape as a tracks file.
type ChainFixture struct {
	Description string              `yaml:"-" json:"description,omitempty"`
	Chain       []string            `yaml:"chain,omitempty" json:"chain,omitempty"`
	Tracks      []walkthrough.Track `yaml:"tracks" json:"tracks"`
}

// GeneratorConfig controls track generation.
type GeneratorConfig struct {
	Seed       int64                       // Random seed for determinism (0 = use current time)
	NamePrefix string                      // Prefix for track names (default: "track")
	Pages      []string                    // Routes steps are spread over (default: "/")
	PolicyMix  []walkthrough.AdvancePolicy // Advancement policies to draw from (nil = description)
	Terminal   bool                        // Give the last step the auto-close directive
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       42, // Deterministic
		NamePrefix: "track",
		Pages:      []string{"/"},
		PolicyMix:  []walkthrough.AdvancePolicy{walkthrough.AdvanceDescription},
	}
}

// Generator creates track fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
	n   int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "track"
	}
	if len(cfg.Pages) == 0 {
		cfg.Pages = []string{"/"}
	}
	if len(cfg.PolicyMix) == 0 {
		cfg.PolicyMix = []walkthrough.AdvancePolicy{walkthrough.AdvanceDescription}
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Track returns the next track with the given number of steps. Names are
// <prefix>-<n> and selectors .<name>-<i>, so every selector is unique.
func (g *Generator) Track(steps int) walkthrough.Track {
	name := fmt.Sprintf("%s-%d", g.cfg.NamePrefix, g.n)
	g.n++

	t := walkthrough.Track{Name: name, Steps: make([]walkthrough.Step, steps)}
	for i := range t.Steps {
		t.Steps[i] = walkthrough.Step{
			Selector:  fmt.Sprintf(".%s-%d", name, i),
			Page:      g.cfg.Pages[g.rng.Intn(len(g.cfg.Pages))],
			Content:   fmt.Sprintf("Step %d of %s.", i+1, name),
			AdvanceOn: g.cfg.PolicyMix[g.rng.Intn(len(g.cfg.PolicyMix))],
		}
	}
	if g.cfg.Terminal && steps > 0 {
		t.Steps[steps-1].OnAdvance = walkthrough.AutoCloseAndNavigateHome
	}
	return t
}

// Chain creates count tracks chained in creation order.
func (g *Generator) Chain(count, steps int) ChainFixture {
	fx := ChainFixture{
		Description: fmt.Sprintf("%d chained tracks of %d steps", count, steps),
	}
	for i := 0; i < count; i++ {
		t := g.Track(steps)
		fx.Tracks = append(fx.Tracks, t)
		fx.Chain = append(fx.Chain, t.Name)
	}
	return fx
}

// Random creates count tracks of 1..maxSteps steps with no chain.
func (g *Generator) Random(count, maxSteps int) ChainFixture {
	fx := ChainFixture{
		Description: fmt.Sprintf("%d random tracks of up to %d steps", count, maxSteps),
	}
	for i := 0; i < count; i++ {
		fx.Tracks = append(fx.Tracks, g.Track(1+g.rng.Intn(maxSteps)))
	}
	return fx
}

// ToYAML renders the fixture in tracks-file format.
func ToYAML(fx ChainFixture) (string, error) {
	data, err := yaml.Marshal(fx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteTracksFile writes fx to dir/name and returns the path.
func WriteTracksFile(t *testing.T, dir, name string, fx ChainFixture) string {
	t.Helper()

	doc, err := ToYAML(fx)
	if err != nil {
		t.Fatalf("failed to marshal tracks: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create tracks dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write tracks file: %v", err)
	}
	return path
}

// QuickTrack returns a single description-only track on "/".
func QuickTrack(steps int) walkthrough.Track {
	return NewDefault().Track(steps)
}

// QuickChain returns count chained tracks of steps steps each.
func QuickChain(count, steps int) ChainFixture {
	return NewDefault().Chain(count, steps)
}

// Selectors lists a track's selectors in step order.
func Selectors(t walkthrough.Track) []string {
	out := make([]string, len(t.Steps))
	for i, s := range t.Steps {
		out[i] = s.Selector
	}
	return out
}
