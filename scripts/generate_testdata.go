//go:build ignore

// generate_testdata.go creates tracks files for exercising the loader, the
// watcher and the shell with larger training sets.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   tests/testdata/tracks/small.yaml   (3 chained tracks, 4 steps each)
//   tests/testdata/tracks/medium.yaml  (12 chained tracks, 8 steps each)
//   tests/testdata/tracks/large.yaml   (40 chained tracks, 20 steps each)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/tableside/pkg/testutil"
	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

type datasetSpec struct {
	name   string
	tracks int
	steps  int
}

var datasets = []datasetSpec{
	{"small", 3, 4},
	{"medium", 12, 8},
	{"large", 40, 20},
}

var pages = []string{"/", "/order", "/table", "/order-history", "/team-chat", "/settings", "/profile"}

var contents = []string{
	"Tap here to open this screen.",
	"Pick an item to add it to the order.",
	"Confirm the choice to continue.",
	"This shows the running total for the table.",
	"Use this to send a message to the team.",
}

func main() {
	outputDir := "tests/testdata/tracks"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d tracks)...\n", ds.name, ds.tracks)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:       int64(ds.tracks*100 + ds.steps), // Reproducible per-size
			NamePrefix: ds.name,
			Pages:      pages,
			PolicyMix: []walkthrough.AdvancePolicy{
				walkthrough.AdvanceDescription,
				walkthrough.AdvanceUI,
				walkthrough.AdvanceBoth,
			},
		})
		fx := gen.Chain(ds.tracks, ds.steps)
		addContent(fx)

		// The last track closes the chain the way the built-in set does.
		last := &fx.Tracks[len(fx.Tracks)-1]
		last.Steps[len(last.Steps)-1].OnAdvance = walkthrough.AutoCloseAndNavigateHome

		doc, err := testutil.ToYAML(fx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render %s: %v\n", ds.name, err)
			os.Exit(1)
		}

		outputPath := filepath.Join(outputDir, ds.name+".yaml")
		if err := os.WriteFile(outputPath, []byte(doc), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes, %d steps)\n", outputPath, len(doc), ds.tracks*ds.steps)
	}

	fmt.Println("\nDone! Tracks files created in", outputDir)
}

func addContent(fx testutil.ChainFixture) {
	for ti := range fx.Tracks {
		for si := range fx.Tracks[ti].Steps {
			s := &fx.Tracks[ti].Steps[si]
			s.Content = fmt.Sprintf("**%s** step %d. %s", fx.Tracks[ti].Name, si+1, contents[(ti+si)%len(contents)])
			if si%3 == 0 {
				s.Placement = "bottom"
			}
		}
	}
}
