package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-freshcache/internal/catalog"
	"github.com/goliatone/go-freshcache/pkg/di"
	"github.com/goliatone/go-freshcache/pkg/testsupport"
	"github.com/goliatone/go-freshcache/routes"
)

func newTestModel(t *testing.T) (Model, *di.Container) {
	t.Helper()
	ctx := context.Background()
	clk := testsupport.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	source, err := catalog.Open(ctx, ":memory:", catalog.Options{Clock: clk})
	if err != nil {
		t.Fatalf("catalog.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = source.Close() })
	seed, err := catalog.DefaultSeed()
	if err != nil {
		t.Fatalf("DefaultSeed() failed: %v", err)
	}
	if err := source.Seed(ctx, seed); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}

	cfg := di.DefaultConfig()
	cfg.Prefetch.MaxConcurrent = 64
	app, err := di.NewContainer(cfg, di.Dependencies{Source: source, Session: testsupport.NewMapSession(), Clock: clk})
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(app.Close)
	app.SignIn("reader-1")

	m := New(ctx, app)
	t.Cleanup(m.Close)
	return m, app
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func press(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "pgdown":
		msg = tea.KeyMsg{Type: tea.KeyPgDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func settle(m Model, app *di.Container) {
	m.sched.Wait()
	app.Store().Wait()
}

func TestModelInit(t *testing.T) {
	m, _ := newTestModel(t)
	if cmd := m.Init(); cmd == nil {
		t.Error("expected Init to return a command")
	}
}

func TestModel_HomepageShowsLogoWhileLoading(t *testing.T) {
	m, _ := newTestModel(t)

	cmd := m.navigate(routes.HomePath(1))
	if !m.coord.State().IsLoading {
		t.Fatal("cold homepage navigation should show the overlay")
	}
	if !strings.Contains(m.View(), "┏┳┓") {
		t.Error("homepage overlay should show the logo")
	}

	m = run(t, m, cmd)
	if m.coord.State().IsLoading {
		t.Error("overlay should hide once the homepage is loaded")
	}
	view := m.View()
	if !strings.Contains(view, "Latest updates") || !strings.Contains(view, "Berserk") {
		t.Errorf("homepage view missing content:\n%s", view)
	}
	if !strings.Contains(view, "@reader-1") {
		t.Error("view should show the signed-in user")
	}
}

func TestModel_ColdNavigationShowsSpinner(t *testing.T) {
	m, app := newTestModel(t)
	m = run(t, m, m.navigate(routes.HomePath(1)))
	settle(m, app)

	m, cmd := press(m, "R")
	state := m.coord.State()
	if !state.IsLoading || state.TargetPath != "/rankings" {
		t.Fatalf("state = %+v, want loading /rankings", state)
	}
	if !strings.Contains(m.View(), "Loading /rankings") {
		t.Error("overlay should name the target")
	}

	m = run(t, m, cmd)
	if !strings.Contains(m.View(), "Rankings (weekly)") {
		t.Errorf("rankings view missing heading:\n%s", m.View())
	}
}

func TestModel_WarmNavigationSkipsOverlay(t *testing.T) {
	m, app := newTestModel(t)
	m = run(t, m, m.navigate(routes.HomePath(1)))
	settle(m, app)

	selected := m.list.SelectedItem().(item)
	if !app.Resolver().IsWarm(selected.path) {
		t.Fatalf("visible row %s should be prefetched", selected.path)
	}

	m, cmd := press(m, "enter")
	if m.coord.State().IsLoading {
		t.Error("warm navigation should not show the overlay")
	}
	m = run(t, m, cmd)
	if !strings.Contains(m.View(), "Kentaro Miura") {
		t.Errorf("manga view missing authors:\n%s", m.View())
	}

	m, cmd = press(m, "esc")
	m = run(t, m, cmd)
	if m.path != "/" {
		t.Errorf("path after back = %q, want /", m.path)
	}
}

func TestModel_PagingPrefetchesNewRows(t *testing.T) {
	m, app := newTestModel(t)
	m = run(t, m, m.navigate(routes.HomePath(1)))
	settle(m, app)

	items := m.list.Items()
	_, end := m.list.Paginator.GetSliceBounds(len(items))
	if end >= len(items) {
		t.Skip("every row fits on the first page")
	}
	hidden := items[end].(item)
	if m.sched.Attempted(hidden.path) && !repeated(items[:end], hidden.path) {
		t.Fatalf("row %s off screen should not be prefetched yet", hidden.path)
	}

	m, _ = press(m, "pgdown")
	if !m.sched.Attempted(hidden.path) {
		t.Errorf("row %s should be prefetched once paged in", hidden.path)
	}
}

func repeated(items []list.Item, path string) bool {
	for _, it := range items {
		if it.(item).path == path {
			return true
		}
	}
	return false
}

func TestModel_CursorHovers(t *testing.T) {
	m, app := newTestModel(t)
	m = run(t, m, m.navigate(routes.HomePath(1)))
	settle(m, app)

	m, _ = press(m, "down")
	if m.list.Index() != 1 {
		t.Fatalf("cursor = %d, want 1", m.list.Index())
	}
	if !m.sched.Attempted(m.list.SelectedItem().(item).path) {
		t.Error("hovered row should be prefetched")
	}
}

func TestModel_ToggleFavorite(t *testing.T) {
	m, app := newTestModel(t)
	m = run(t, m, m.navigate(routes.MangaPath("berserk")))
	if !strings.Contains(m.heading, "♥ 1") {
		t.Fatalf("heading = %q, want one favorite", m.heading)
	}

	m, cmd := press(m, "*")
	m = run(t, m, cmd)
	if !strings.Contains(m.heading, "♥ 0") {
		t.Errorf("heading after toggle = %q, want no favorites", m.heading)
	}
	if m.status != "removed from favorites" {
		t.Errorf("status = %q", m.status)
	}

	app.SignOut()
	m, cmd = press(m, "*")
	m = run(t, m, cmd)
	if m.err == nil {
		t.Error("toggling while signed out should fail")
	}
}

func TestModel_Search(t *testing.T) {
	m, _ := newTestModel(t)
	m = run(t, m, m.navigate(routes.HomePath(1)))

	m, _ = press(m, "S")
	if !m.searching {
		t.Fatal("S should open the search prompt")
	}
	for _, r := range "saga" {
		m, _ = press(m, string(r))
	}
	m, cmd := press(m, "enter")
	if m.searching {
		t.Error("enter should close the search prompt")
	}
	m = run(t, m, cmd)
	if !strings.Contains(m.View(), "Vinland Saga") {
		t.Errorf("search view missing result:\n%s", m.View())
	}
}

func TestModelUpdate_FocusAndResize(t *testing.T) {
	m, _ := newTestModel(t)

	for _, msg := range []tea.Msg{tea.BlurMsg{}, tea.FocusMsg{}} {
		if _, cmd := m.Update(msg); cmd != nil {
			t.Errorf("expected no command for %T", msg)
		}
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if got := updated.(Model); got.width != 120 || got.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", got.width, got.height)
	}
}

func TestModelUpdate_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	if _, cmd := press(m, "q"); cmd == nil {
		t.Error("expected quit command, got nil")
	}
}
