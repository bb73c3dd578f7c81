package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AlexLem84/east-idaho-news-app/internal/fetch"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
	"github.com/AlexLem84/east-idaho-news-app/internal/realtime"
)

// Tracker is the analytics surface the reader reports to.
type Tracker interface {
	ArticleView(item model.ContentItem)
	ReadTime(item model.ContentItem, d time.Duration)
	CategoryView(category string)
}

// AppConfig wires the reader to the rest of the process. The App never
// holds the cache or the detector; it only sees their results as messages.
type AppConfig struct {
	// LoadPage returns a Cmd producing PageLoaded for f.
	LoadPage func(f fetch.Filter) tea.Cmd
	// Refresh drops any cached copy of f and loads it again.
	Refresh func(f fetch.Filter) tea.Cmd
	// ClearCache returns a Cmd producing CacheCleared.
	ClearCache func() tea.Cmd
	// Images returns the ordered image candidates for an item.
	Images func(item model.ContentItem) []string

	Tracker    Tracker
	Categories []string // cycled with "c"; "" is the unfiltered list
	PerPage    int
	Ring       *otel.RingBuffer
	Logger     *otel.Logger
}

type mode int

const (
	modeList mode = iota
	modeDetail
	modeSearch
)

// App is the root Bubble Tea model.
type App struct {
	cfg AppConfig
	now func() time.Time

	mode    mode
	filter  fetch.Filter
	pending string // key of the query we are waiting for
	catIdx  int

	items   []model.ContentItem
	total   int
	hasMore bool
	cached  bool
	cursor  int
	err     error
	loading bool
	spinner spinner.Model
	search  textinput.Model

	detail   model.ContentItem
	openedAt time.Time

	latest *realtime.Update
	unseen int

	showDebug bool
	width     int
	height    int
	ready     bool
}

// NewApp creates an App from cfg.
func NewApp(cfg AppConfig) App {
	if len(cfg.Categories) == 0 {
		cfg.Categories = []string{""}
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = fetch.DefaultPerPage
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search articles"
	ti.CharLimit = 100

	return App{
		cfg:     cfg,
		now:     time.Now,
		filter:  fetch.Filter{Category: cfg.Categories[0], Page: 1, PerPage: cfg.PerPage},
		spinner: s,
		search:  ti,
	}
}

// Init loads the first page.
func (a App) Init() tea.Cmd {
	if a.cfg.LoadPage == nil {
		return nil
	}
	return tea.Batch(a.cfg.LoadPage(a.filter), a.spinner.Tick)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.Tracing("ui") {
		a.cfg.Logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		a.cfg.Logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case PageLoaded:
		if msg.Filter.Key() != a.pending {
			// A newer query superseded this one.
			return a, nil
		}
		a.loading = false
		a.pending = ""
		a.items = msg.Items
		a.total = msg.Total
		a.hasMore = msg.HasMore
		a.cached = msg.Cached
		a.err = msg.Err
		if a.cursor >= len(a.items) {
			a.cursor = max(len(a.items)-1, 0)
		}
		return a, nil

	case CacheCleared:
		a.cursor = 0
		return a.load(a.filter)

	case UpdateReceived:
		u := msg.Update
		a.latest = &u
		a.unseen++
		return a, nil
	}

	return a, nil
}

// load starts a query for f, dropping any response still in flight.
func (a App) load(f fetch.Filter) (App, tea.Cmd) {
	return a.request(f, a.cfg.LoadPage)
}

func (a App) request(f fetch.Filter, fn func(fetch.Filter) tea.Cmd) (App, tea.Cmd) {
	f = f.Normalize()
	a.filter = f
	if fn == nil {
		return a, nil
	}
	a.pending = f.Key()
	a.loading = true
	a.err = nil
	return a, tea.Batch(fn(f), a.spinner.Tick)
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeDetail:
		return a.handleDetailKey(msg)
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit

	case "j", "down":
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}
		return a, nil

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case "g", "home":
		a.cursor = 0
		return a, nil

	case "G", "end":
		if len(a.items) > 0 {
			a.cursor = len(a.items) - 1
		}
		return a, nil

	case "enter":
		if a.cursor < len(a.items) {
			a.detail = a.items[a.cursor]
			a.openedAt = a.now()
			a.mode = modeDetail
			return a, a.track(func(t Tracker) { t.ArticleView(a.detail) })
		}
		return a, nil

	case "/":
		a.mode = modeSearch
		a.search.SetValue(a.filter.Search)
		a.search.CursorEnd()
		cmd := a.search.Focus()
		return a, cmd

	case "esc":
		if a.filter.Search == "" {
			return a, nil
		}
		f := a.filter
		f.Search = ""
		f.Page = 1
		a.cursor = 0
		return a.load(f)

	case "c":
		a.catIdx = (a.catIdx + 1) % len(a.cfg.Categories)
		category := a.cfg.Categories[a.catIdx]
		f := a.filter
		f.Category = category
		f.Page = 1
		a.cursor = 0
		next, cmd := a.load(f)
		return next, tea.Batch(cmd, next.track(func(t Tracker) { t.CategoryView(category) }))

	case "n":
		if !a.hasMore || a.loading {
			return a, nil
		}
		f := a.filter
		f.Page++
		a.cursor = 0
		return a.load(f)

	case "p":
		if a.filter.Page <= 1 || a.loading {
			return a, nil
		}
		f := a.filter
		f.Page--
		a.cursor = 0
		return a.load(f)

	case "r":
		return a.request(a.filter, a.cfg.Refresh)

	case "R":
		if a.cfg.ClearCache == nil {
			return a, nil
		}
		a.loading = true
		return a, a.cfg.ClearCache()

	case "u":
		a.latest = nil
		a.unseen = 0
		if a.filter.Page == 1 && a.filter.Search == "" {
			return a.request(a.filter, a.cfg.Refresh)
		}
		return a, nil

	case "D":
		if a.cfg.Ring != nil {
			a.showDebug = !a.showDebug
		}
		return a, nil
	}

	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.mode = modeList
		a.search.Blur()
		return a, nil
	case tea.KeyEnter:
		a.mode = modeList
		a.search.Blur()
		f := a.filter
		f.Search = a.search.Value()
		f.Page = 1
		a.cursor = 0
		return a.load(f)
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	return a, cmd
}

func (a App) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "h", "left":
		item := a.detail
		read := a.now().Sub(a.openedAt)
		a.mode = modeList
		a.detail = model.ContentItem{}
		return a, a.track(func(t Tracker) { t.ReadTime(item, read) })
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

// track runs fn off the update loop. Tracker calls may touch the network.
func (a App) track(fn func(Tracker)) tea.Cmd {
	t := a.cfg.Tracker
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		fn(t)
		return nil
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug {
		return debugOverlay(a.cfg.Ring, a.cfg.Logger, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	if a.mode == modeDetail {
		return RenderDetail(a.detail, a.imageFor(a.detail), a.width, a.height-1, a.now()) + "\n" +
			StatusBar.Width(a.width).Render(" "+StatusBarKey.Render("esc")+StatusBarText.Render(":back ")+StatusBarKey.Render("q")+StatusBarText.Render(":quit"))
	}

	header := RenderHeader(a.filter, a.total, a.cached, a.width)
	contentHeight := a.height - 2 // header + status bar

	banner := ""
	if a.latest != nil {
		banner = RenderBanner(*a.latest, a.unseen, a.width) + "\n"
		contentHeight--
	}

	errorBar := ""
	if a.err != nil {
		errorBar = ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()) + "\n"
		contentHeight--
	}

	var bottom string
	if a.mode == modeSearch {
		bottom = FilterBar.Width(a.width).Render(a.search.View())
	} else {
		bottom = RenderStatusBar(a.cursor, len(a.items), a.filter.Page, a.hasMore, a.width, a.loading, a.spinner.View())
	}

	var body string
	if a.loading && len(a.items) == 0 {
		body = HelpStyle.Render(a.spinner.View() + " Loading articles...")
	} else {
		body = RenderStream(a.items, a.cursor, a.width, contentHeight, a.now())
	}

	return header + "\n" + banner + errorBar + body + bottom
}

func (a App) imageFor(item model.ContentItem) string {
	if a.cfg.Images == nil {
		return item.OriginalImageURL()
	}
	if c := a.cfg.Images(item); len(c) > 0 {
		return c[0]
	}
	return ""
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Items returns the current items (for testing).
func (a App) Items() []model.ContentItem {
	return a.items
}

// Filter returns the active query.
func (a App) Filter() fetch.Filter {
	return a.filter
}
