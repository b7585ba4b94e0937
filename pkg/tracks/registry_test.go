package tracks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/tableside/pkg/testutil"
	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	want := []string{Order, Table, OrderHistory, TeamChat, Settings, Profile}
	names := r.Names()
	if len(names) != len(want) {
		t.Fatalf("expected %d tracks, got %v", len(want), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("track %d: expected %q, got %q", i, name, names[i])
		}
	}
	if got := r.Chain(); len(got) != len(want) || got[0] != Order || got[len(got)-1] != Profile {
		t.Errorf("unexpected chain %v", got)
	}
	if len(r.Links()) != len(want)-1 {
		t.Errorf("expected %d links, got %d", len(want)-1, len(r.Links()))
	}
	if r.Source() != "embedded" {
		t.Errorf("expected embedded source, got %q", r.Source())
	}
}

func TestDefaultTracksAreUsable(t *testing.T) {
	r := MustDefault()
	for _, name := range r.Names() {
		track, _ := r.Track(name)
		if err := track.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if track.Steps[0].Page != "/" {
			t.Errorf("%s: first step should start from home, got %q", name, track.Steps[0].Page)
		}
	}

	profile, _ := r.Track(Profile)
	if !profile.Steps[len(profile.Steps)-1].Terminal() {
		t.Error("profile track should end with the auto-close directive")
	}
	settings, _ := r.Track(Settings)
	if settings.IndexOf(".settings-menu-tab") < 0 {
		t.Error("settings track needs the menu detour step")
	}
}

func TestGetUnknown(t *testing.T) {
	r := MustDefault()
	if _, err := r.Get("payroll"); !errors.Is(err, ErrUnknownTrack) {
		t.Errorf("expected ErrUnknownTrack, got %v", err)
	}
	if _, err := r.Get(Order); err != nil {
		t.Errorf("Get(order): %v", err)
	}
}

func TestParseRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"syntax", "tracks: [", "parsing tracks"},
		{"empty track", "tracks:\n  - name: a\n", "no steps"},
		{"duplicate", "tracks:\n  - name: a\n    steps: [{selector: .x}]\n  - name: a\n    steps: [{selector: .y}]\n", "duplicate track"},
		{"bad chain", "chain: [a, b]\ntracks:\n  - name: a\n    steps: [{selector: .x}]\n", "unknown track \"b\""},
		{"bad policy", "tracks:\n  - name: a\n    steps: [{selector: .x, advance_on: hover}]\n", "advance_on"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFileAndOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracks.yaml")
	doc := `
chain: [demo]
tracks:
  - name: demo
    steps:
      - selector: .nav-order
        page: /
        content: hello
        advance_on: ui
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if r.Len() != 1 || r.Source() != path {
		t.Fatalf("expected one track from %s, got %d from %s", path, r.Len(), r.Source())
	}
	demo, _ := r.Track("demo")
	if demo.Steps[0].AdvanceOn != walkthrough.AdvanceUI {
		t.Errorf("expected advance_on ui, got %q", demo.Steps[0].AdvanceOn)
	}

	r, err = LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	if err != nil || r.Source() != "embedded" {
		t.Errorf("missing override should fall back to embedded, got %v %v", r, err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFile should fail on a missing file")
	}
}

func TestJSONExport(t *testing.T) {
	r := MustDefault()
	data, err := r.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if len(f.Tracks) != r.Len() {
		t.Errorf("expected %d tracks in export, got %d", r.Len(), len(f.Tracks))
	}
	if !strings.Contains(string(data), `"advanceOn": "ui"`) {
		t.Error("expected camelCase advanceOn in JSON export")
	}
}

func TestSelectors(t *testing.T) {
	sels := MustDefault().Selectors()
	seen := map[string]bool{}
	for i, s := range sels {
		if seen[s] {
			t.Errorf("duplicate selector %s", s)
		}
		seen[s] = true
		if i > 0 && sels[i-1] > s {
			t.Error("selectors not sorted")
		}
	}
	if !seen[".profile-timesheet"] {
		t.Error("expected .profile-timesheet")
	}
}

func TestGeneratedChainLoads(t *testing.T) {
	fx := testutil.New(testutil.GeneratorConfig{
		Seed:      3,
		Pages:     []string{"/", "/order", "/settings"},
		PolicyMix: []walkthrough.AdvancePolicy{walkthrough.AdvanceDescription, walkthrough.AdvanceUI},
		Terminal:  true,
	}).Chain(4, 3)
	path := testutil.WriteTracksFile(t, t.TempDir(), "tracks.yaml", fx)

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if r.Len() != 4 {
		t.Fatalf("expected 4 tracks, got %d", r.Len())
	}
	links := r.Links()
	if len(links) != 3 || links[0].After != fx.Chain[0] || links[2].Next != fx.Chain[3] {
		t.Errorf("unexpected links %v for chain %v", links, fx.Chain)
	}
	for _, want := range fx.Tracks {
		got, err := r.Get(want.Name)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertJSONEqual(t, want, got)
	}
}
