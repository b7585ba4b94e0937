package ui

import (
	"fmt"
	"time"

	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

// element is one selectable thing on a screen. selector is the stable hook
// the training tracks point at; several elements may share one (menu items,
// history rows), in which case the first is the anchor.
type element struct {
	selector string
	label    string
	detail   string
	click    func()
}

type menuItem struct {
	name     string
	category string
	cents    int
}

var orderCategories = []string{"food", "drinks", "desserts"}

var menu = []menuItem{
	{"Burger", "food", 1250},
	{"Fries", "food", 400},
	{"Caesar salad", "food", 950},
	{"Espresso", "drinks", 250},
	{"Cola", "drinks", 300},
	{"House wine", "drinks", 550},
	{"Brownie", "desserts", 550},
	{"Tiramisu", "desserts", 650},
}

var floorAreas = []string{"floor", "terrace", "bar"}

const (
	tableFree    = "free"
	tableSeated  = "seated"
	tableBilling = "billing"
)

type table struct {
	number int
	area   string
	state  string
	seats  int
}

type receipt struct {
	number int
	table  int
	method string
	cents  int
	items  int
}

var chatChannels = []string{"kitchen", "floor", "bar"}

type chatMessage struct {
	channel string
	text    string
}

var settingsPanels = []string{"general", "menu", "printers"}

// posState is the business side of the shell: just enough order, table,
// chat and profile behavior for every training selector to do something.
type posState struct {
	category string
	cart     []menuItem
	paying   bool

	floorArea     string
	tables        []table
	selectedTable int
	orderTable    int

	receipts        []receipt
	historyFilter   string
	selectedReceipt int

	channel  string
	draft    string
	messages []chatMessage

	settingsPanel string
	saved         bool

	clockedIn bool
	shifts    []time.Duration
}

func newPOSState() posState {
	return posState{
		category:  orderCategories[0],
		floorArea: floorAreas[0],
		tables: []table{
			{1, "floor", tableFree, 2},
			{2, "floor", tableSeated, 4},
			{3, "floor", tableFree, 4},
			{4, "floor", tableBilling, 6},
			{5, "terrace", tableFree, 2},
			{6, "bar", tableFree, 2},
		},
		receipts: []receipt{
			{1041, 2, "card", 3450, 4},
			{1042, 4, "cash", 1800, 3},
			{1043, 1, "card", 950, 1},
		},
		historyFilter:   "all",
		selectedReceipt: -1,
		channel:         chatChannels[0],
		settingsPanel:   settingsPanels[0],
		shifts:          []time.Duration{8 * time.Hour, 7*time.Hour + 30*time.Minute},
	}
}

// elements returns what the current route has mounted.
func (a *app) elements() []element {
	switch a.path {
	case RouteHome:
		return a.homeElements()
	case RouteOrder:
		return a.orderElements()
	case RouteTables:
		return a.tableElements()
	case RouteHistory:
		return a.historyElements()
	case RouteTeamChat:
		return a.chatElements()
	case RouteSettings:
		return a.settingsElements()
	case RouteProfile:
		return a.profileElements()
	}
	return nil
}

func (a *app) homeElements() []element {
	nav := func(selector, label, route string) element {
		return element{
			selector: selector,
			label:    label,
			detail:   route,
			click: func() {
				// Advance before leaving so the controller does not route
				// back to the step's page.
				walkthrough.AdvanceIfTarget(a.store, selector)
				a.Navigate(route)
			},
		}
	}
	return []element{
		nav(".nav-order", "New order", RouteOrder),
		nav(".nav-tables", "Tables", RouteTables),
		nav(".nav-history", "History", RouteHistory),
		nav(".nav-teamchat", "Team chat", RouteTeamChat),
		nav(".nav-settings", "Settings", RouteSettings),
		nav(".nav-profile", "Profile", RouteProfile),
	}
}

func (a *app) orderElements() []element {
	p := &a.pos
	els := []element{{
		selector: ".order-category-tabs",
		label:    "Category: " + p.category,
		detail:   "enter cycles food / drinks / desserts",
		click: func() {
			p.category = cycle(orderCategories, p.category)
		},
	}}
	for _, item := range menu {
		if item.category != p.category {
			continue
		}
		item := item
		els = append(els, element{
			selector: ".order-menu-item",
			label:    item.name,
			detail:   formatCents(item.cents),
			click: func() {
				p.cart = append(p.cart, item)
				a.status = "added " + item.name
				walkthrough.AdvanceIfTarget(a.store, ".order-menu-item")
			},
		})
	}

	cartLabel := fmt.Sprintf("Cart: %d items, %s", len(p.cart), formatCents(cartTotal(p.cart)))
	if p.orderTable > 0 {
		cartLabel += fmt.Sprintf(" (table %d)", p.orderTable)
	}
	els = append(els,
		element{selector: ".order-cart", label: cartLabel},
		element{
			selector: ".order-pay-button",
			label:    "Pay",
			click: func() {
				p.paying = true
				walkthrough.AdvanceIfTarget(a.store, ".order-pay-button")
			},
		},
	)
	if p.paying {
		els = append(els,
			element{selector: ".payment-method-cash", label: "Cash", click: func() { a.pay("cash", ".payment-method-cash") }},
			element{selector: ".payment-method-card", label: "Card", click: func() { a.pay("card", ".payment-method-card") }},
		)
	}
	return els
}

func (a *app) pay(method, selector string) {
	p := &a.pos
	next := 1044
	if n := len(p.receipts); n > 0 {
		next = p.receipts[n-1].number + 1
	}
	p.receipts = append(p.receipts, receipt{
		number: next,
		table:  p.orderTable,
		method: method,
		cents:  cartTotal(p.cart),
		items:  len(p.cart),
	})
	p.cart = nil
	p.paying = false
	p.orderTable = 0
	a.status = fmt.Sprintf("receipt %d paid by %s", next, method)
	walkthrough.AdvanceIfTarget(a.store, selector)
}

func cartTotal(items []menuItem) int {
	total := 0
	for _, it := range items {
		total += it.cents
	}
	return total
}

func (a *app) tableElements() []element {
	p := &a.pos
	els := []element{{
		selector: ".table-grid",
		label:    "Floor plan: " + p.floorArea,
		detail:   "enter cycles areas",
		click: func() {
			p.floorArea = cycle(floorAreas, p.floorArea)
		},
	}}
	for _, t := range p.tables {
		t := t
		detail := fmt.Sprintf("%s · %d seats · %s", t.area, t.seats, t.state)
		if t.number == p.selectedTable {
			detail += " · selected"
		}
		els = append(els, element{
			selector: fmt.Sprintf(".table-card-%d", t.number),
			label:    fmt.Sprintf("Table %d", t.number),
			detail:   detail,
			click:    func() { a.selectTable(t.number) },
		})
	}
	els = append(els,
		element{selector: ".table-status-legend", label: "Legend", detail: "free · seated · billing"},
		element{
			selector: ".table-open-order",
			label:    "Open order",
			click: func() {
				a.openOrder()
				walkthrough.AdvanceIfTarget(a.store, ".table-open-order")
			},
		},
	)
	return els
}

func (a *app) selectTable(number int) {
	a.pos.selectedTable = number
	a.status = fmt.Sprintf("table %d selected", number)
}

func (a *app) openOrder() {
	p := &a.pos
	if p.selectedTable == 0 {
		a.status = "select a table first"
		return
	}
	for i := range p.tables {
		if p.tables[i].number == p.selectedTable {
			p.tables[i].state = tableSeated
		}
	}
	p.orderTable = p.selectedTable
	a.status = fmt.Sprintf("order opened for table %d", p.selectedTable)
}

func (a *app) historyElements() []element {
	p := &a.pos
	els := []element{{
		selector: ".history-filter",
		label:    "Filter: " + p.historyFilter,
		detail:   "enter cycles all / cash / card",
		click: func() {
			p.historyFilter = cycle([]string{"all", "cash", "card"}, p.historyFilter)
			p.selectedReceipt = -1
		},
	}}
	for i, r := range p.receipts {
		if p.historyFilter != "all" && r.method != p.historyFilter {
			continue
		}
		i, r := i, r
		label := fmt.Sprintf("#%d", r.number)
		if r.table > 0 {
			label += fmt.Sprintf(" · table %d", r.table)
		}
		els = append(els, element{
			selector: ".history-list",
			label:    label,
			detail:   fmt.Sprintf("%s · %s", formatCents(r.cents), r.method),
			click: func() {
				p.selectedReceipt = i
				walkthrough.AdvanceIfTarget(a.store, ".history-list")
			},
		})
	}
	if p.selectedReceipt >= 0 && p.selectedReceipt < len(p.receipts) {
		r := p.receipts[p.selectedReceipt]
		els = append(els, element{
			selector: ".history-receipt",
			label:    fmt.Sprintf("Receipt #%d", r.number),
			detail:   fmt.Sprintf("%d items · %s · enter reprints", r.items, formatCents(r.cents)),
			click: func() {
				a.status = fmt.Sprintf("receipt %d sent to printer", r.number)
			},
		})
	}
	return els
}

func (a *app) chatElements() []element {
	p := &a.pos
	els := []element{{
		selector: ".chat-channel-list",
		label:    "#" + p.channel,
		detail:   "enter switches channel",
		click: func() {
			p.channel = cycle(chatChannels, p.channel)
		},
	}}
	for _, msg := range p.messages {
		if msg.channel == p.channel {
			els = append(els, element{selector: ".chat-message", label: "› " + msg.text})
		}
	}
	draft := p.draft
	if draft == "" {
		draft = "(empty, enter to write)"
	}
	els = append(els,
		element{
			selector: ".chat-compose",
			label:    "Message: " + draft,
			click: func() {
				p.draft = "Table 3 is ready for dessert"
			},
		},
		element{
			selector: ".chat-send",
			label:    "Send",
			click: func() {
				text := p.draft
				if text == "" {
					text = "👍"
				}
				p.messages = append(p.messages, chatMessage{channel: p.channel, text: text})
				p.draft = ""
				walkthrough.AdvanceIfTarget(a.store, ".chat-send")
			},
		},
	)
	return els
}

func (a *app) settingsElements() []element {
	p := &a.pos
	saved := ""
	if p.saved {
		saved = "saved"
	}
	return []element{
		{
			selector: ".settings-nav",
			label:    "Section: " + p.settingsPanel,
			click: func() {
				p.settingsPanel = cycle(settingsPanels, p.settingsPanel)
			},
		},
		{
			selector: ".settings-menu-tab",
			label:    "Menu",
			detail:   "categories and items",
			click: func() {
				p.settingsPanel = "menu"
				if walkthrough.IsCurrentTarget(a.store, ".settings-menu-tab") {
					a.beginMenuDetour()
				}
			},
		},
		{
			selector: ".settings-printers",
			label:    "Printers",
			detail:   "receipt · kitchen",
			click: func() {
				p.settingsPanel = "printers"
			},
		},
		{
			selector: ".settings-save",
			label:    "Save",
			detail:   saved,
			click: func() {
				p.saved = true
				a.status = "settings saved"
				walkthrough.AdvanceIfTarget(a.store, ".settings-save")
			},
		},
	}
}

// beginMenuDetour shows the trainee the order screen with the drinks
// category forced, then returns to the printers step.
func (a *app) beginMenuDetour() {
	snap := a.store.Snapshot()
	back := -1
	for i, s := range snap.Steps {
		if s.Selector == ".settings-printers" {
			back = i
			break
		}
	}
	if back < 0 {
		walkthrough.AdvanceIfTarget(a.store, ".settings-menu-tab")
		return
	}
	if err := a.detour.Begin(menuDetourCategory, RouteOrder, back); err != nil {
		a.status = "detour: " + err.Error()
	}
}

func (a *app) profileElements() []element {
	p := &a.pos
	clock := "Clock in"
	if p.clockedIn {
		clock = "Clock out"
	}
	var total time.Duration
	for _, d := range p.shifts {
		total += d
	}
	return []element{
		{selector: ".profile-card", label: "Sam Rivera", detail: "server · PIN ••••"},
		{
			selector: ".profile-clock-in",
			label:    clock,
			click: func() {
				if p.clockedIn {
					p.shifts = append(p.shifts, 0)
				}
				p.clockedIn = !p.clockedIn
				walkthrough.AdvanceIfTarget(a.store, ".profile-clock-in")
			},
		},
		{
			selector: ".profile-timesheet",
			label:    "Timesheet",
			detail:   fmt.Sprintf("%d shifts · %.1fh", len(p.shifts), total.Hours()),
		},
	}
}

func cycle(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}
