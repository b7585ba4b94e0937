package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

// AssertSnapshotConsistent checks the invariants every published snapshot
// must hold.
func AssertSnapshotConsistent(t *testing.T, snap walkthrough.Snapshot) {
	t.Helper()
	if !snap.IsActive {
		if snap.ActiveTraining != "" || len(snap.Steps) != 0 || snap.Completed || snap.Detour != nil {
			t.Errorf("inactive snapshot carries run state: %+v", snap)
		}
		return
	}
	if len(snap.Steps) == 0 {
		t.Errorf("active snapshot for %q has no steps", snap.ActiveTraining)
		return
	}
	if snap.CurrentStep < 0 || snap.CurrentStep >= len(snap.Steps) {
		t.Errorf("%s: step %d outside 0..%d", snap.ActiveTraining, snap.CurrentStep, len(snap.Steps)-1)
	}
	if snap.Completed {
		if snap.CurrentStep != len(snap.Steps)-1 {
			t.Errorf("%s completed at step %d, want the last step", snap.ActiveTraining, snap.CurrentStep)
		}
		if !snap.CompletedTrainings[snap.ActiveTraining] {
			t.Errorf("%s completed but not recorded in CompletedTrainings", snap.ActiveTraining)
		}
	}
	if snap.Detour != nil && snap.Detour.ReturnToTrack != snap.ActiveTraining {
		t.Errorf("detour returns to %q while %q is active", snap.Detour.ReturnToTrack, snap.ActiveTraining)
	}
}

// AssertAt verifies the active track and step index.
func AssertAt(t *testing.T, snap walkthrough.Snapshot, track string, index int) {
	t.Helper()
	if !snap.IsActive {
		t.Errorf("expected %s[%d], no training is active", track, index)
		return
	}
	if snap.ActiveTraining != track || snap.CurrentStep != index {
		t.Errorf("expected %s[%d], got %s[%d]", track, index, snap.ActiveTraining, snap.CurrentStep)
	}
}

// AssertCompleted verifies exactly the named tracks have been completed.
func AssertCompleted(t *testing.T, snap walkthrough.Snapshot, names ...string) {
	t.Helper()
	var got []string
	for name, done := range snap.CompletedTrainings {
		if done {
			got = append(got, name)
		}
	}
	want := append([]string(nil), names...)
	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("completed tracks = %v, want %v", got, want)
	}
}

// AssertValidTracks verifies every track passes validation.
func AssertValidTracks(t *testing.T, tracks []walkthrough.Track) {
	t.Helper()
	for i, tr := range tracks {
		if err := tr.Validate(); err != nil {
			t.Errorf("track %d (%s) invalid: %v", i, tr.Name, err)
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
// Useful for comparing structs that may have different Go representations
// but equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) == actual {
		return
	}
	expectedLines := strings.Split(string(expected), "\n")
	actualLines := strings.Split(actual, "\n")
	for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
		var expLine, actLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(actualLines) {
			actLine = actualLines[i]
		}
		if expLine != actLine {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, expLine, actLine)
			return
		}
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}
	g.Assert(string(data))
}
