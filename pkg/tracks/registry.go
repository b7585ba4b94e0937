// Package tracks holds the step registry: the statically defined training
// tracks and the order they chain in. The stock registry is embedded; a YAML
// file with the same shape can replace it at runtime.
package tracks

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

//go:embed tracks.yaml
var defaultYAML []byte

// Track names shipped in the stock registry.
const (
	Order        = "order"
	Table        = "table"
	OrderHistory = "orderHistory"
	TeamChat     = "teamchat"
	Settings     = "settings"
	Profile      = "profile"
)

// ErrUnknownTrack is returned when a name is not in the registry.
var ErrUnknownTrack = errors.New("unknown track")

// File is the on-disk registry format.
type File struct {
	Chain  []string            `yaml:"chain,omitempty" json:"chain,omitempty"`
	Tracks []walkthrough.Track `yaml:"tracks" json:"tracks"`
}

// Registry is an immutable set of tracks.
type Registry struct {
	order  []string
	tracks map[string]walkthrough.Track
	chain  []string
	source string
}

// Default returns the embedded registry.
func Default() (*Registry, error) {
	r, err := Parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded tracks: %w", err)
	}
	r.source = "embedded"
	return r, nil
}

// MustDefault is Default for package-level setup and tests.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFile reads a registry from path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tracks: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.source = path
	return r, nil
}

// LoadOrDefault reads path when it is set and exists, otherwise the embedded
// registry.
func LoadOrDefault(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default()
	}
	return LoadFile(path)
}

// Parse decodes and validates a registry document.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tracks: %w", err)
	}
	return New(f)
}

// New builds a registry from an in-memory File.
func New(f File) (*Registry, error) {
	r := &Registry{
		tracks: make(map[string]walkthrough.Track, len(f.Tracks)),
		chain:  append([]string(nil), f.Chain...),
	}
	var errs []error
	for _, t := range f.Tracks {
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.tracks[t.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate track %q", t.Name))
			continue
		}
		r.tracks[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	for _, name := range r.chain {
		if _, ok := r.tracks[name]; !ok {
			errs = append(errs, fmt.Errorf("chain: %w %q", ErrUnknownTrack, name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// Track implements walkthrough.TrackSource.
func (r *Registry) Track(name string) (walkthrough.Track, bool) {
	t, ok := r.tracks[name]
	return t, ok
}

// Get is Track with an error for callers that want one.
func (r *Registry) Get(name string) (walkthrough.Track, error) {
	t, ok := r.tracks[name]
	if !ok {
		return walkthrough.Track{}, fmt.Errorf("%w %q", ErrUnknownTrack, name)
	}
	return t, nil
}

// Names returns track names in file order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of tracks.
func (r *Registry) Len() int {
	return len(r.order)
}

// Chain returns the first-run order.
func (r *Registry) Chain() []string {
	return append([]string(nil), r.chain...)
}

// Links returns the chain as walkthrough links.
func (r *Registry) Links() []walkthrough.Link {
	return walkthrough.LinksFromOrder(r.chain)
}

// Source describes where the registry was loaded from.
func (r *Registry) Source() string {
	return r.source
}

// Selectors returns every distinct selector referenced by any track, sorted.
func (r *Registry) Selectors() []string {
	seen := make(map[string]bool)
	for _, t := range r.tracks {
		for _, s := range t.Steps {
			seen[s.Selector] = true
		}
	}
	out := make([]string, 0, len(seen))
	for sel := range seen {
		out = append(out, sel)
	}
	sort.Strings(out)
	return out
}

// File returns the registry in its serializable shape.
func (r *Registry) File() File {
	f := File{Chain: r.Chain()}
	for _, name := range r.order {
		f.Tracks = append(f.Tracks, r.tracks[name])
	}
	return f
}

// JSON encodes the registry for export.
func (r *Registry) JSON() ([]byte, error) {
	return json.MarshalIndent(r.File(), "", "  ")
}
