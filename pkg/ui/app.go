package ui

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/tableside/pkg/config"
	"github.com/vanderheijden86/tableside/pkg/debug"
	"github.com/vanderheijden86/tableside/pkg/tracks"
	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

// Routes served by the shell.
const (
	RouteHome     = "/"
	RouteOrder    = "/order"
	RouteTables   = "/tables"
	RouteHistory  = "/order-history"
	RouteTeamChat = "/teamchat"
	RouteSettings = "/settings"
	RouteProfile  = "/profile"
)

// Routes lists every route in navigation order.
var Routes = []string{RouteHome, RouteOrder, RouteTables, RouteHistory, RouteTeamChat, RouteSettings, RouteProfile}

var routeTitles = map[string]string{
	RouteHome:     "Home",
	RouteOrder:    "New order",
	RouteTables:   "Tables",
	RouteHistory:  "Order history",
	RouteTeamChat: "Team chat",
	RouteSettings: "Settings",
	RouteProfile:  "Profile",
}

// menuDetourCategory is the order category the settings menu tab shows off.
const menuDetourCategory = "drinks"

var errAnchorHidden = errors.New("highlight target is not rendered")

// Options configures the shell.
type Options struct {
	Store  *walkthrough.Store
	Tracks *tracks.Registry
	Config config.Config
	// Scheduler defaults to a TeaScheduler driven by the program loop.
	Scheduler walkthrough.Scheduler
	// OnStall is called in addition to the shell's own stall notice.
	OnStall func(walkthrough.Step, error)
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	Theme     *Theme
}

// app is the mutable shell shared by every copy of Model. It is the
// walkthrough's Router, Document and CategorySink.
type app struct {
	store    *walkthrough.Store
	registry *tracks.Registry
	cfg      config.Config
	theme    Theme

	sched      walkthrough.Scheduler
	teaSched   *TeaScheduler
	controller *walkthrough.Controller
	chain      *walkthrough.Chain
	bridge     *walkthrough.Bridge
	detour     *walkthrough.Detour
	overlay    *popover

	copy    func(string) error
	onStall func(walkthrough.Step, error)

	path     string
	focus    int
	pos      posState
	status   string
	stallErr error
	unbind   []func()
}

var (
	_ walkthrough.Router       = (*app)(nil)
	_ walkthrough.Document     = (*app)(nil)
	_ walkthrough.CategorySink = (*app)(nil)
)

func newApp(opts Options) (*app, error) {
	if opts.Store == nil {
		return nil, errors.New("ui: store is required")
	}
	if opts.Tracks == nil {
		return nil, errors.New("ui: track registry is required")
	}
	cfg := opts.Config
	if cfg.Walkthrough == (config.WalkthroughConfig{}) {
		cfg = config.DefaultConfig()
	}

	a := &app{
		store:    opts.Store,
		registry: opts.Tracks,
		cfg:      cfg,
		sched:    opts.Scheduler,
		copy:     opts.Clipboard,
		onStall:  opts.OnStall,
		path:     RouteHome,
		pos:      newPOSState(),
	}
	if opts.Theme != nil {
		a.theme = *opts.Theme
	} else {
		a.theme = TestTheme()
	}
	if a.sched == nil {
		a.teaSched = NewTeaScheduler()
		a.sched = a.teaSched
	}
	if a.copy == nil {
		a.copy = writeClipboard
	}
	if start := cfg.UI.StartPage; start != "" {
		if _, ok := routeTitles[start]; ok {
			a.path = start
		}
	}

	timings := cfg.Walkthrough.Timings()
	a.bridge = walkthrough.NewBridge()
	a.overlay = newPopover(a)
	a.controller = walkthrough.NewController(a.store, walkthrough.Options{
		Router:     a,
		Document:   a,
		Overlay:    a.overlay,
		Scheduler:  a.sched,
		Bridge:     a.bridge,
		Categories: a,
		Timings:    timings,
		HomePath:   a.homePath(),
		OnStall:    a.stalled,
	})
	a.detour = walkthrough.NewDetour(a.store, a, a.sched, timings.Detour)

	// Selecting table 3 from the popover seats the party, then moves on.
	a.unbind = append(a.unbind, a.bridge.Register(".table-card-3", func() {
		a.selectTable(3)
		a.store.Next()
	}))

	a.chain = a.newChain()
	return a, nil
}

func (a *app) homePath() string {
	if p := a.cfg.Walkthrough.HomePath; p != "" {
		return p
	}
	return RouteHome
}

func (a *app) chainOrder() []string {
	if len(a.cfg.Tracks.Chain) > 0 {
		return a.cfg.Tracks.Chain
	}
	return a.registry.Chain()
}

func (a *app) newChain() *walkthrough.Chain {
	links := walkthrough.LinksFromOrder(a.chainOrder())
	return walkthrough.NewChain(a.store, a.registry, a, links, a.homePath())
}

// start subscribes the engine and kicks off the first-run chain.
func (a *app) start() {
	a.controller.Start()
	a.chain.Start()
	if a.cfg.Walkthrough.AutoStart && !a.store.Snapshot().IsActive {
		a.startFirstRun()
	}
}

func (a *app) close() {
	a.detour.Cancel()
	a.chain.Close()
	a.controller.Close()
	for _, fn := range a.unbind {
		fn()
	}
	a.unbind = nil
	if a.teaSched != nil {
		a.teaSched.Close()
	}
}

// startFirstRun starts the first chained track not yet completed this
// session, or the head of the chain once everything is done.
func (a *app) startFirstRun() {
	order := a.chainOrder()
	if len(order) == 0 {
		order = a.registry.Names()
	}
	if len(order) == 0 {
		a.status = "no training tracks configured"
		return
	}
	snap := a.store.Snapshot()
	name := order[0]
	for _, n := range order {
		if !snap.HasCompleted(n) {
			name = n
			break
		}
	}
	if err := a.startTraining(name); err != nil {
		a.status = err.Error()
	}
}

func (a *app) startTraining(name string) error {
	t, err := a.registry.Get(name)
	if err != nil {
		return err
	}
	a.stallErr = nil
	if err := a.store.StartTrack(t); err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}
	a.status = "training: " + name
	return nil
}

// reload swaps in a new registry. The active track keeps the steps it was
// started with; the chain picks up the new order and tracks.
func (a *app) reload(reg *tracks.Registry) {
	a.registry = reg
	a.chain.Close()
	a.chain = a.newChain()
	a.chain.Start()
	a.status = fmt.Sprintf("reloaded %d tracks", reg.Len())
}

func (a *app) stalled(step walkthrough.Step, err error) {
	a.stallErr = err
	a.status = fmt.Sprintf("could not find %s; press r to retry", step.Selector)
	if a.onStall != nil {
		a.onStall(step, err)
	}
}

func (a *app) retry() {
	a.stallErr = nil
	a.controller.Refresh()
}

// Path implements walkthrough.Router.
func (a *app) Path() string {
	return a.path
}

// Navigate implements walkthrough.Router. Route changes re-run the
// controller synchronously.
func (a *app) Navigate(path string) {
	if path == a.path {
		return
	}
	if _, ok := routeTitles[path]; !ok {
		debug.Log("ui: unknown route %q", path)
		a.status = "unknown route " + path
		return
	}
	debug.Log("ui: route %s -> %s", a.path, path)
	a.path = path
	a.focus = 0
	a.mounted()
	a.controller.Refresh()
}

// mounted runs page-entry logic for the current route.
func (a *app) mounted() {
	if a.path != RouteOrder {
		return
	}
	token, ok := a.store.Detour()
	if !ok || token.ForcedSubState == "" {
		return
	}
	a.SetCategory(token.ForcedSubState)
	a.detour.ScheduleFinish(func(err error) {
		if err != nil {
			debug.Log("ui: detour finish: %v", err)
			a.status = "training detour expired"
		}
	})
}

// Query implements walkthrough.Document.
func (a *app) Query(selector string) (walkthrough.Element, bool) {
	if a.indexOf(selector) < 0 {
		return nil, false
	}
	return domElement{app: a, selector: selector}, true
}

// SetCategory implements walkthrough.CategorySink for both the order
// categories and the floor-plan areas.
func (a *app) SetCategory(category string) {
	switch {
	case contains(orderCategories, category):
		a.pos.category = category
	case contains(floorAreas, category):
		a.pos.floorArea = category
	default:
		debug.Log("ui: unknown category %q", category)
	}
}

func (a *app) indexOf(selector string) int {
	for i, el := range a.elements() {
		if el.selector == selector {
			return i
		}
	}
	return -1
}

// click activates the first element matching selector, as a user would.
func (a *app) click(selector string) bool {
	els := a.elements()
	for i, el := range els {
		if el.selector == selector {
			a.focus = i
			if el.click != nil {
				el.click()
			}
			return true
		}
	}
	return false
}

// activate clicks the focused element.
func (a *app) activate() {
	els := a.elements()
	if len(els) == 0 {
		return
	}
	a.clampFocus(len(els))
	if el := els[a.focus]; el.click != nil {
		el.click()
	}
}

func (a *app) moveFocus(delta int) {
	n := len(a.elements())
	if n == 0 {
		a.focus = 0
		return
	}
	a.focus = ((a.focus+delta)%n + n) % n
}

func (a *app) clampFocus(n int) {
	if a.focus >= n {
		a.focus = n - 1
	}
	if a.focus < 0 {
		a.focus = 0
	}
}

func (a *app) focusSelector(selector string) {
	if i := a.indexOf(selector); i >= 0 {
		a.focus = i
	}
}

func (a *app) copyStep() {
	h := a.overlay.Current()
	if h == nil {
		a.status = "nothing to copy"
		return
	}
	if err := a.copy(h.Step.Content); err != nil {
		a.status = "copy failed: " + err.Error()
		return
	}
	a.status = "step text copied"
}

// domElement is a live handle on a mounted element. Click re-resolves the
// selector so a stale handle does nothing once the element is gone.
type domElement struct {
	app      *app
	selector string
}

func (e domElement) Click() {
	if !e.app.click(e.selector) {
		debug.Log("ui: click on unmounted %s", e.selector)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
