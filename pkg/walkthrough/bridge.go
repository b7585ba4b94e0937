package walkthrough

import "sync"

// Bridge maps selectors to page actions that should run instead of a plain
// Next when a step's description is clicked (for example selecting a table
// on the floor plan, which advances the track itself).
type Bridge struct {
	mu      sync.RWMutex
	seq     int
	actions map[string]bridgeAction
}

type bridgeAction struct {
	id int
	fn func()
}

// NewBridge returns an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{actions: make(map[string]bridgeAction)}
}

// Register installs fn for selector, replacing any previous action. The
// returned function removes it again unless it was replaced in the meantime.
func (b *Bridge) Register(selector string, fn func()) func() {
	b.mu.Lock()
	b.seq++
	id := b.seq
	b.actions[selector] = bridgeAction{id: id, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if cur, ok := b.actions[selector]; ok && cur.id == id {
			delete(b.actions, selector)
		}
	}
}

// Lookup returns the action registered for selector.
func (b *Bridge) Lookup(selector string) (func(), bool) {
	if b == nil {
		return nil, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.actions[selector]
	return a.fn, ok
}

// Len returns the number of registered actions.
func (b *Bridge) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.actions)
}
