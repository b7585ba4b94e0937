package walkthrough

import "github.com/vanderheijden86/tableside/pkg/debug"

// TrackSource looks up registered tracks by name.
type TrackSource interface {
	Track(name string) (Track, bool)
}

// Link says: once After completes, start Next.
type Link struct {
	After string `yaml:"after" json:"after"`
	Next  string `yaml:"next" json:"next"`
}

// LinksFromOrder chains tracks in the given order.
func LinksFromOrder(order []string) []Link {
	if len(order) < 2 {
		return nil
	}
	links := make([]Link, 0, len(order)-1)
	for i := 1; i < len(order); i++ {
		links = append(links, Link{After: order[i-1], Next: order[i]})
	}
	return links
}

// Chain starts the next track when the active one completes, unless the next
// track already finished during this session.
type Chain struct {
	store    *Store
	tracks   TrackSource
	router   Router
	homePath string
	links    []Link

	unsubscribe func()
}

// NewChain creates a chain. router may be nil; homePath defaults to "/".
func NewChain(store *Store, tracks TrackSource, router Router, links []Link, homePath string) *Chain {
	if homePath == "" {
		homePath = "/"
	}
	return &Chain{store: store, tracks: tracks, router: router, homePath: homePath, links: links}
}

// Start subscribes to the store.
func (c *Chain) Start() {
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.store.Subscribe(c.observe)
}

// Close unsubscribes.
func (c *Chain) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Links returns the configured links.
func (c *Chain) Links() []Link {
	return c.links
}

func (c *Chain) observe(snap Snapshot) {
	if !snap.Completed || snap.ActiveTraining == "" {
		return
	}
	for _, link := range c.links {
		if link.After != snap.ActiveTraining {
			continue
		}
		if snap.CompletedTrainings[link.Next] {
			debug.Log("chain: %s already completed, not restarting", link.Next)
			continue
		}
		next, ok := c.tracks.Track(link.Next)
		if !ok {
			debug.Log("chain: unknown track %q after %q", link.Next, link.After)
			continue
		}
		if err := c.store.StartTrack(next); err != nil {
			debug.Log("chain: starting %q: %v", link.Next, err)
			continue
		}
		debug.Log("chain: %s -> %s", link.After, link.Next)
		if c.router != nil && c.router.Path() != c.homePath {
			c.router.Navigate(c.homePath)
		}
		return
	}
}
