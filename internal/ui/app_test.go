package ui

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AlexLem84/east-idaho-news-app/internal/fetch"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
	"github.com/AlexLem84/east-idaho-news-app/internal/realtime"
)

// mockDeps records calls made through AppConfig.
type mockDeps struct {
	loads     []fetch.Filter
	refreshes []fetch.Filter
	clears    int
}

func (m *mockDeps) loadPage(f fetch.Filter) tea.Cmd {
	m.loads = append(m.loads, f)
	return func() tea.Msg {
		return PageLoaded{Filter: f, Items: makeItems(3), Total: 3}
	}
}

func (m *mockDeps) refresh(f fetch.Filter) tea.Cmd {
	m.refreshes = append(m.refreshes, f)
	return m.loadPage(f)
}

func (m *mockDeps) clearCache() tea.Cmd {
	m.clears++
	return func() tea.Msg { return CacheCleared{} }
}

// mockTracker records analytics calls.
type mockTracker struct {
	mu         sync.Mutex
	views      []int64
	reads      []time.Duration
	categories []string
}

func (m *mockTracker) ArticleView(item model.ContentItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, item.ID)
}

func (m *mockTracker) ReadTime(_ model.ContentItem, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, d)
}

func (m *mockTracker) CategoryView(c string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = append(m.categories, c)
}

func newTestApp(deps *mockDeps, tr Tracker) App {
	app := NewApp(AppConfig{
		LoadPage:   deps.loadPage,
		Refresh:    deps.refresh,
		ClearCache: deps.clearCache,
		Tracker:    tr,
		Categories: []string{"", "news", "all sports"},
		PerPage:    10,
	})
	app.now = func() time.Time { return testNow }
	return app
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m tea.Model, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(App), cmd
}

// loaded drives the app through its first page load.
func loaded(t *testing.T, app App, msg PageLoaded) App {
	t.Helper()
	app, _ = app.load(msg.Filter)
	app, _ = send(t, app, msg)
	return app
}

func TestAppInit(t *testing.T) {
	deps := &mockDeps{}
	app := newTestApp(deps, nil)

	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	if len(deps.loads) != 1 || deps.loads[0].PerPage != 10 || deps.loads[0].Page != 1 {
		t.Errorf("Init loads = %+v", deps.loads)
	}
}

func TestAppInitNilLoadPage(t *testing.T) {
	app := NewApp(AppConfig{})
	if cmd := app.Init(); cmd != nil {
		t.Error("Init should return nil when LoadPage is nil")
	}
}

func TestAppNavigation(t *testing.T) {
	app := newTestApp(&mockDeps{}, nil)
	app.items = makeItems(3)

	steps := []struct {
		key  string
		want int
	}{
		{"j", 1}, {"k", 0}, {"k", 0}, {"G", 2}, {"j", 2}, {"g", 0}, {"down", 1}, {"up", 0},
	}
	for _, s := range steps {
		app, _ = send(t, app, key(s.key))
		if app.Cursor() != s.want {
			t.Errorf("after %q cursor = %d, want %d", s.key, app.Cursor(), s.want)
		}
	}
}

func TestPageLoadedReplacesItems(t *testing.T) {
	app := newTestApp(&mockDeps{}, nil)
	f := app.Filter()

	app = loaded(t, app, PageLoaded{Filter: f, Items: makeItems(5), Total: 25, HasMore: true, Cached: true})

	if len(app.Items()) != 5 || app.total != 25 || !app.hasMore || !app.cached {
		t.Errorf("state after load: items=%d total=%d more=%v cached=%v", len(app.Items()), app.total, app.hasMore, app.cached)
	}
	if app.loading {
		t.Error("loading should be cleared")
	}
}

func TestStalePageLoadedIgnored(t *testing.T) {
	deps := &mockDeps{}
	app := newTestApp(deps, nil)
	old := app.Filter()

	app, _ = app.load(old)
	app, _ = send(t, app, key("c")) // switches to "news"

	app, _ = send(t, app, PageLoaded{Filter: old, Items: makeItems(7)})
	if len(app.Items()) != 0 {
		t.Error("response for superseded query was applied")
	}
	if !app.loading {
		t.Error("still waiting for the newer query")
	}

	app, _ = send(t, app, PageLoaded{Filter: app.Filter(), Items: makeItems(2)})
	if len(app.Items()) != 2 {
		t.Errorf("items = %d, want 2", len(app.Items()))
	}
}

func TestEmptyAndFailedLoadsShowRetryHint(t *testing.T) {
	for _, err := range []error{nil, errors.New("503 Service Unavailable")} {
		app := newTestApp(&mockDeps{}, nil)
		app, _ = send(t, app, tea.WindowSizeMsg{Width: 100, Height: 30})
		app = loaded(t, app, PageLoaded{Filter: app.Filter(), Err: err})

		view := app.View()
		if !strings.Contains(view, "No articles. Press r to retry.") {
			t.Errorf("err=%v: view missing retry hint:\n%s", err, view)
		}
		if err != nil && !strings.Contains(view, "503") {
			t.Errorf("error not shown:\n%s", view)
		}
	}
}

func TestRetryRefreshesCurrentQuery(t *testing.T) {
	deps := &mockDeps{}
	app := newTestApp(deps, nil)
	app = loaded(t, app, PageLoaded{Filter: app.Filter()})

	app, cmd := send(t, app, key("r"))
	if cmd == nil || len(deps.refreshes) != 1 {
		t.Fatalf("r should refresh, refreshes=%d", len(deps.refreshes))
	}
	if deps.refreshes[0].Key() != app.Filter().Key() {
		t.Error("refresh used a different filter")
	}
}

func TestCategoryCycle(t *testing.T) {
	deps := &mockDeps{}
	tr := &mockTracker{}
	app := newTestApp(deps, tr)

	app, cmd := send(t, app, key("c"))
	if app.Filter().Category != "news" || app.Filter().Page != 1 {
		t.Errorf("filter = %+v", app.Filter())
	}
	runBatch(cmd)
	if len(tr.categories) != 1 || tr.categories[0] != "news" {
		t.Errorf("category views = %v", tr.categories)
	}

	app, _ = send(t, app, key("c"))
	app, _ = send(t, app, key("c"))
	if app.Filter().Category != "" {
		t.Errorf("cycle should wrap to all, got %q", app.Filter().Category)
	}
}

func TestNextPageOnlyWhenHasMore(t *testing.T) {
	deps := &mockDeps{}
	app := newTestApp(deps, nil)
	app = loaded(t, app, PageLoaded{Filter: app.Filter(), Items: makeItems(10), Total: 10})
	before := len(deps.loads)

	app, _ = send(t, app, key("n"))
	if len(deps.loads) != before || app.Filter().Page != 1 {
		t.Error("n should do nothing without more results")
	}

	app = loaded(t, app, PageLoaded{Filter: app.Filter(), Items: makeItems(10), Total: 30, HasMore: true})
	before = len(deps.loads)
	app, _ = send(t, app, key("n"))
	if len(deps.loads) != before+1 || app.Filter().Page != 2 {
		t.Errorf("n should load page 2, filter=%+v", app.Filter())
	}

	app = loaded(t, app, PageLoaded{Filter: app.Filter(), Items: makeItems(10), Total: 30, HasMore: true})
	app, _ = send(t, app, key("p"))
	if app.Filter().Page != 1 {
		t.Errorf("p should go back to page 1, got %d", app.Filter().Page)
	}
}

func TestSearch(t *testing.T) {
	deps := &mockDeps{}
	app := newTestApp(deps, nil)

	app, _ = send(t, app, key("/"))
	if app.mode != modeSearch {
		t.Fatal("/ should enter search mode")
	}
	for _, r := range "snow" {
		app, _ = send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	app, _ = send(t, app, key("enter"))

	if app.mode != modeList || app.Filter().Search != "snow" {
		t.Errorf("mode=%v filter=%+v", app.mode, app.Filter())
	}
	if last := deps.loads[len(deps.loads)-1]; last.Search != "snow" {
		t.Errorf("load used %+v", last)
	}

	app, _ = send(t, app, key("esc"))
	if app.Filter().Search != "" {
		t.Error("esc should clear the search")
	}
}

func TestSearchEscCancels(t *testing.T) {
	deps := &mockDeps{}
	app := newTestApp(deps, nil)
	app, _ = send(t, app, key("/"))
	app, _ = send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	app, _ = send(t, app, key("esc"))

	if app.mode != modeList || app.Filter().Search != "" || len(deps.loads) != 0 {
		t.Errorf("esc should cancel without loading: mode=%v loads=%d", app.mode, len(deps.loads))
	}
}

func TestDetailTracksViewAndReadTime(t *testing.T) {
	tr := &mockTracker{}
	app := newTestApp(&mockDeps{}, tr)
	app.items = makeItems(3)
	app.cursor = 1

	app, cmd := send(t, app, key("enter"))
	if app.mode != modeDetail || app.detail.ID != 2 {
		t.Fatalf("mode=%v detail=%d", app.mode, app.detail.ID)
	}
	runBatch(cmd)

	app.now = func() time.Time { return testNow.Add(42 * time.Second) }
	app, cmd = send(t, app, key("esc"))
	if app.mode != modeList {
		t.Error("esc should return to the list")
	}
	runBatch(cmd)

	if len(tr.views) != 1 || tr.views[0] != 2 {
		t.Errorf("views = %v", tr.views)
	}
	if len(tr.reads) != 1 || tr.reads[0] != 42*time.Second {
		t.Errorf("reads = %v", tr.reads)
	}
}

func TestClearCacheReloads(t *testing.T) {
	deps := &mockDeps{}
	app := newTestApp(deps, nil)

	app, cmd := send(t, app, key("R"))
	if deps.clears != 1 || cmd == nil {
		t.Fatal("R should clear the cache")
	}
	before := len(deps.loads)
	app, _ = send(t, app, cmd())
	if len(deps.loads) != before+1 {
		t.Error("CacheCleared should reload the current query")
	}
}

func TestUpdateReceivedShowsBanner(t *testing.T) {
	deps := &mockDeps{}
	app := newTestApp(deps, nil)
	app, _ = send(t, app, tea.WindowSizeMsg{Width: 120, Height: 30})

	u := realtime.Update{Type: realtime.BreakingNews, Item: model.ContentItem{ID: 9, Title: "Evacuations ordered"}}
	app, _ = send(t, app, UpdateReceived{Update: u})
	app, _ = send(t, app, UpdateReceived{Update: u})

	if app.unseen != 2 {
		t.Errorf("unseen = %d", app.unseen)
	}
	if view := app.View(); !strings.Contains(view, "BREAKING") || !strings.Contains(view, "Evacuations ordered") {
		t.Errorf("banner missing:\n%s", view)
	}

	app, _ = send(t, app, key("u"))
	if app.latest != nil || app.unseen != 0 || len(deps.refreshes) != 1 {
		t.Errorf("u should dismiss and refresh: latest=%v unseen=%d refreshes=%d", app.latest, app.unseen, len(deps.refreshes))
	}
}

func TestDebugToggleRequiresRing(t *testing.T) {
	app := newTestApp(&mockDeps{}, nil)
	app, _ = send(t, app, key("D"))
	if app.showDebug {
		t.Error("debug overlay should need a ring buffer")
	}

	app.cfg.Ring = otel.NewRingBuffer(16)
	app, _ = send(t, app, key("D"))
	if !app.showDebug {
		t.Error("D should toggle the overlay")
	}
}

func TestQuit(t *testing.T) {
	app := newTestApp(&mockDeps{}, nil)
	_, cmd := send(t, app, key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestViewBeforeReady(t *testing.T) {
	app := newTestApp(&mockDeps{}, nil)
	if app.View() != "Loading..." {
		t.Errorf("View() = %q", app.View())
	}
}

// runBatch executes cmd and any commands it batches, discarding messages.
func runBatch(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			runBatch(c)
		}
	}
}
