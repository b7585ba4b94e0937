package walkthrough

import (
	"errors"
	"fmt"
	"time"

	"github.com/vanderheijden86/tableside/pkg/debug"
	"github.com/vanderheijden86/tableside/pkg/metrics"
)

// ErrTargetNotFound is reported through Options.OnStall when a step's element
// never appears within the poll budget.
var ErrTargetNotFound = errors.New("walkthrough target not found")

// Router is the host's view of the current route.
type Router interface {
	Path() string
	Navigate(path string)
}

// Element is a resolved, clickable screen element.
type Element interface {
	Click()
}

// Document resolves selectors against whatever is currently mounted.
type Document interface {
	Query(selector string) (Element, bool)
}

// Handle is an attached overlay.
type Handle interface {
	Destroy()
}

// Overlay renders a highlight anchored to an element.
type Overlay interface {
	Attach(h Highlight) (Handle, error)
}

// CategorySink receives Step.SetCategory when a description is clicked.
type CategorySink interface {
	SetCategory(category string)
}

// Highlight describes what the overlay should draw. OnDescriptionClick must be
// called when the user activates the popover text.
type Highlight struct {
	Track   string
	Index   int
	Total   int
	Step    Step
	Element Element

	OnDescriptionClick func()
}

// State is the controller's position in the per-step state machine.
type State int

const (
	StateInactive State = iota
	StateAwaitingTarget
	StateHighlighting
	StateCompleted
	StateStalled
	StateDetouring
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateAwaitingTarget:
		return "awaiting-target"
	case StateHighlighting:
		return "highlighting"
	case StateCompleted:
		return "completed"
	case StateStalled:
		return "stalled"
	case StateDetouring:
		return "detouring"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Timings holds every delay the controller uses.
type Timings struct {
	// Settle is waited between finding an element and attaching the overlay.
	Settle time.Duration
	// Poll is the first retry interval while the element is missing.
	Poll time.Duration
	// PollMax caps the exponential poll backoff.
	PollMax time.Duration
	// MaxPolls bounds retries; 0 polls forever.
	MaxPolls int
	// AutoClose is waited before a terminal step completes the track.
	AutoClose time.Duration
	// Detour is waited before a detour returns to its origin.
	Detour time.Duration
}

// DefaultTimings returns the stock delays.
func DefaultTimings() Timings {
	return Timings{
		Settle:    100 * time.Millisecond,
		Poll:      100 * time.Millisecond,
		PollMax:   time.Second,
		MaxPolls:  120,
		AutoClose: 2 * time.Second,
		Detour:    1500 * time.Millisecond,
	}
}

// Options wires a Controller to its host.
type Options struct {
	Router     Router
	Document   Document
	Overlay    Overlay
	Scheduler  Scheduler
	Bridge     *Bridge
	Categories CategorySink
	Timings    Timings
	// HomePath is where terminal steps navigate. Defaults to "/".
	HomePath string
	// OnStall is called once when a step exhausts MaxPolls.
	OnStall func(step Step, err error)
}

// Controller anchors the store's current step to a live element. It keeps at
// most one pending timer and at most one attached overlay.
//
// A Controller is not safe for concurrent use: Refresh, the overlay callbacks
// and scheduler callbacks must all run on the host's UI goroutine.
type Controller struct {
	store *Store
	opts  Options

	unsubscribe func()

	state    State
	gen      uint64
	instance uint64
	track    string
	index    int
	step     Step
	polls    int
	timer    Timer
	handle   Handle

	resolveStop func()
	dwellStop   func()
	trackStop   func()

	last   passKey
	synced bool

	syncing    bool
	again      bool
	forceAgain bool
}

// passKey is the session and route state a pass depends on. Publishes that
// leave it unchanged do not disturb the current highlight or its timers.
type passKey struct {
	active    bool
	instance  uint64
	index     int
	completed bool
	detour    bool
	route     string
}

func (c *Controller) keyFor(snap Snapshot) passKey {
	k := passKey{
		active:    snap.IsActive,
		instance:  snap.TrainingInstanceID,
		index:     snap.CurrentStep,
		completed: snap.Completed,
		detour:    snap.Detour != nil,
	}
	if c.opts.Router != nil {
		k.route = c.opts.Router.Path()
	}
	return k
}

// NewController creates a controller. Call Start to begin observing the store.
func NewController(store *Store, opts Options) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.HomePath == "" {
		opts.HomePath = "/"
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	return &Controller{store: store, opts: opts}
}

// Start subscribes to the store and performs the first sync.
func (c *Controller) Start() {
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.store.Subscribe(func(Snapshot) { c.sync(false) })
	c.sync(true)
}

// Close unsubscribes and tears down any timer or overlay.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.teardown()
	c.state = StateInactive
	c.synced = false
}

// Refresh re-runs the algorithm. Hosts call it after a route change or when
// new elements were mounted. A refresh while waiting for a target resolves
// immediately and a stalled step gets a fresh poll budget; an attached
// highlight is left alone.
func (c *Controller) Refresh() {
	c.sync(true)
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Current returns the track, index and step the controller is working on.
func (c *Controller) Current() (track string, index int, step Step, ok bool) {
	if c.state == StateInactive || c.state == StateCompleted {
		return "", 0, Step{}, false
	}
	return c.track, c.index, c.step, true
}

// HasPendingTimer reports whether a poll, settle or auto-close timer is armed.
func (c *Controller) HasPendingTimer() bool {
	return c.timer != nil
}

// Attached reports whether an overlay is currently attached.
func (c *Controller) Attached() bool {
	return c.handle != nil
}

func (c *Controller) sync(force bool) {
	if c.syncing {
		c.again = true
		c.forceAgain = c.forceAgain || force
		return
	}
	c.syncing = true
	defer func() { c.syncing = false }()

	for {
		c.again, c.forceAgain = false, false
		c.pass(force)
		if !c.again {
			return
		}
		force = c.forceAgain
	}
}

// teardown cancels the pending timer, destroys the overlay and invalidates
// every callback scheduled so far.
func (c *Controller) teardown() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.handle != nil {
		c.handle.Destroy()
		c.handle = nil
	}
	if c.dwellStop != nil {
		c.dwellStop()
		c.dwellStop = nil
	}
}

func (c *Controller) pass(force bool) {
	snap := c.store.Snapshot()
	key := c.keyFor(snap)
	if force && c.state == StateStalled {
		c.polls = 0
	}
	if c.synced && key == c.last {
		if !force || (c.state != StateAwaitingTarget && c.state != StateStalled) {
			return
		}
	}
	c.last, c.synced = key, true
	c.teardown()

	if !snap.IsActive || len(snap.Steps) == 0 {
		c.state = StateInactive
		return
	}
	if snap.Completed {
		c.state = StateCompleted
		if c.trackStop != nil {
			c.trackStop()
			c.trackStop = nil
		}
		return
	}
	if snap.Detour != nil {
		// The track is parked on another screen until the detour resumes.
		c.state = StateDetouring
		return
	}
	step, ok := snap.Step()
	if !ok {
		debug.Log("walkthrough: index %d outside %q (%d steps)", snap.CurrentStep, snap.ActiveTraining, len(snap.Steps))
		c.state = StateInactive
		return
	}

	if c.instance != snap.TrainingInstanceID {
		c.trackStop = metrics.Timer(metrics.TrackDuration)
	}
	if c.instance != snap.TrainingInstanceID || c.index != snap.CurrentStep || c.track != snap.ActiveTraining {
		c.polls = 0
		c.resolveStop = metrics.Timer(metrics.TargetResolve)
	}
	c.instance = snap.TrainingInstanceID
	c.track = snap.ActiveTraining
	c.index = snap.CurrentStep
	c.step = step
	c.state = StateAwaitingTarget

	if c.opts.Router != nil && step.Page != "" && step.Page != c.opts.Router.Path() {
		if _, found := c.query(step.Selector); !found {
			debug.Log("walkthrough: %s[%d] navigating to %s", c.track, c.index, step.Page)
			metrics.Navigations.Inc()
			gen := c.gen
			c.opts.Router.Navigate(step.Page)
			// A synchronous route change may already have re-run the pass.
			if gen == c.gen && !c.again {
				c.schedulePoll(gen)
			}
			return
		}
	}

	c.resolve(c.gen)
}

func (c *Controller) query(selector string) (Element, bool) {
	if c.opts.Document == nil {
		return nil, false
	}
	el, ok := c.opts.Document.Query(selector)
	if !ok || el == nil {
		return nil, false
	}
	return el, true
}

func (c *Controller) resolve(gen uint64) {
	if _, found := c.query(c.step.Selector); !found {
		c.schedulePoll(gen)
		return
	}
	c.timer = c.opts.Scheduler.AfterFunc(c.opts.Timings.Settle, func() {
		c.fire(gen, c.attach)
	})
}

func (c *Controller) schedulePoll(gen uint64) {
	c.polls++
	metrics.PollAttempts.Inc()
	if max := c.opts.Timings.MaxPolls; max > 0 && c.polls > max {
		c.state = StateStalled
		metrics.Stalls.Inc()
		debug.Log("walkthrough: giving up on %q after %d polls", c.step.Selector, max)
		if c.opts.OnStall != nil {
			c.opts.OnStall(c.step, fmt.Errorf("%s[%d] %q: %w", c.track, c.index, c.step.Selector, ErrTargetNotFound))
		}
		return
	}
	debug.LogIf(c.polls == 1 || c.polls%10 == 0, "walkthrough: polling %q (attempt %d)", c.step.Selector, c.polls)
	c.timer = c.opts.Scheduler.AfterFunc(c.pollDelay(), func() {
		c.fire(gen, func() { c.resolve(gen) })
	})
}

// pollDelay doubles Poll for every ten failed attempts, capped at PollMax.
func (c *Controller) pollDelay() time.Duration {
	d := c.opts.Timings.Poll
	for i := 10; i < c.polls && d < c.opts.Timings.PollMax; i += 10 {
		d *= 2
	}
	if c.opts.Timings.PollMax > 0 && d > c.opts.Timings.PollMax {
		d = c.opts.Timings.PollMax
	}
	return d
}

// fire runs fn for a deferred callback unless the callback outlived the
// generation or training run it was scheduled for.
func (c *Controller) fire(gen uint64, fn func()) {
	if gen != c.gen || c.store.Snapshot().TrainingInstanceID != c.instance {
		metrics.StaleTimers.Inc()
		debug.Log("walkthrough: dropping stale timer (gen %d, now %d)", gen, c.gen)
		return
	}
	c.timer = nil
	fn()
}

func (c *Controller) attach() {
	gen := c.gen
	el, found := c.query(c.step.Selector)
	if !found {
		// Unmounted while settling.
		c.schedulePoll(gen)
		return
	}
	if c.opts.Overlay == nil {
		c.state = StateHighlighting
		return
	}

	snap := c.store.Snapshot()
	h := Highlight{
		Track:   c.track,
		Index:   c.index,
		Total:   len(snap.Steps),
		Step:    c.step,
		Element: el,
		OnDescriptionClick: func() {
			c.descriptionClicked(gen)
		},
	}
	handle, err := c.opts.Overlay.Attach(h)
	if err != nil {
		debug.Log("walkthrough: overlay attach for %q failed: %v", c.step.Selector, err)
		c.schedulePoll(gen)
		return
	}
	c.handle = handle
	c.state = StateHighlighting
	metrics.Attaches.Inc()
	if c.resolveStop != nil {
		c.resolveStop()
		c.resolveStop = nil
	}
	c.dwellStop = metrics.Timer(metrics.StepDwell)
	debug.Log("walkthrough: %s[%d] highlighting %q", c.track, c.index, c.step.Selector)

	if c.step.Terminal() {
		c.timer = c.opts.Scheduler.AfterFunc(c.opts.Timings.AutoClose, func() {
			c.fire(gen, c.autoClose)
		})
	}
}

func (c *Controller) autoClose() {
	debug.Log("walkthrough: %s auto-closing", c.track)
	c.store.Complete()
	if c.opts.Router != nil {
		c.opts.Router.Navigate(c.opts.HomePath)
	}
}

// ClickDescription activates the description of the current highlight, as if
// the user clicked the popover text. It is a no-op unless a step is attached.
func (c *Controller) ClickDescription() {
	if c.state != StateHighlighting {
		return
	}
	c.descriptionClicked(c.gen)
}

func (c *Controller) descriptionClicked(gen uint64) {
	if gen != c.gen || c.state != StateHighlighting {
		return
	}
	step := c.step
	if step.Terminal() {
		// The timed close owns this step.
		return
	}

	if step.Policy() == AdvanceUI {
		if el, found := c.query(step.Selector); found {
			el.Click()
		}
		return
	}

	if step.SetCategory != "" && c.opts.Categories != nil {
		c.opts.Categories.SetCategory(step.SetCategory)
	}
	if action, ok := c.opts.Bridge.Lookup(step.Selector); ok {
		action()
		return
	}
	c.store.Next()
}
