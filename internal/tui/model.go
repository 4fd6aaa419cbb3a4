// Package tui is a terminal front end for the reader. Cursor moves count as
// hovers, the rows on screen as the viewport and paging as scrolling; route
// changes go through the navigation coordinator.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-freshcache/navigation"
	"github.com/goliatone/go-freshcache/pkg/di"
	"github.com/goliatone/go-freshcache/prefetch"
	"github.com/goliatone/go-freshcache/routes"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeLines   = 5
)

// loadedMsg carries the outcome of loading a path.
type loadedMsg struct {
	path   string
	page   any
	err    error
	status string
}

// Model is the bubbletea model of the reader.
type Model struct {
	ctx    context.Context
	app    *di.Container
	router *router
	coord  *navigation.Coordinator
	sched  *prefetch.Scheduler

	list      list.Model
	spinner   spinner.Model
	search    textinput.Model
	searching bool

	path    string
	heading string
	page    any
	err     error
	status  string
	history []string
	width   int
	height  int
}

// New creates the model. Call Close once the program has exited.
func New(ctx context.Context, app *di.Container) Model {
	r := newRouter(ctx, app.Resolver())

	l := list.New(nil, list.NewDefaultDelegate(), defaultWidth, defaultHeight-chromeLines)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	ti := textinput.New()
	ti.Prompt = "search: "
	ti.Placeholder = "title words"

	return Model{
		ctx:     ctx,
		app:     app,
		router:  r,
		coord:   app.NewCoordinator(r),
		sched:   app.NewScheduler(),
		list:    l,
		spinner: sp,
		search:  ti,
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

// Close stops the scheduler and the coordinator timers.
func (m Model) Close() {
	m.sched.Close()
	m.coord.Close()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.navigate(routes.HomePath(1)))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-chromeLines, 1))
		m.markViewport()
		return m, nil

	case tea.FocusMsg:
		m.sched.OnVisibilityChange(true)
		return m, nil

	case tea.BlurMsg:
		m.sched.OnVisibilityChange(false)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		return m.loaded(msg)

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.sched.OnGesture()
	m.status = ""

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter":
		if it, ok := m.list.SelectedItem().(item); ok {
			cmd := m.forward(it.path)
			return m, cmd
		}
		return m, nil
	case "esc", "backspace":
		cmd := m.back()
		return m, cmd
	case "H":
		cmd := m.forward(routes.HomePath(1))
		return m, cmd
	case "C":
		cmd := m.forward(routes.CatalogPath(routes.CatalogQuery{}))
		return m, cmd
	case "R":
		cmd := m.forward(routes.RankingsPath(""))
		return m, cmd
	case "V":
		cmd := m.forward("/favorites")
		return m, cmd
	case "N":
		cmd := m.forward("/notifications")
		return m, cmd
	case "S":
		m.searching = true
		m.search.SetValue("")
		cmd := m.search.Focus()
		return m, cmd
	case "*":
		if detail, ok := m.page.(routes.MangaDetail); ok {
			return m, m.toggleFavorite(detail.Slug)
		}
		return m, nil
	case "M":
		if _, ok := m.page.(routes.Notifications); ok {
			return m, m.markRead()
		}
		return m, nil
	}

	index, page := m.list.Index(), m.list.Paginator.Page
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if m.list.Paginator.Page != page {
		m.sched.OnScroll()
		m.markViewport()
	}
	if m.list.Index() != index {
		if it, ok := m.list.SelectedItem().(item); ok {
			m.sched.OnHover(it.path)
		}
	}
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.search.Value())
		m.searching = false
		m.search.Blur()
		cmd := m.forward(routes.SearchPath(query))
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) loaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.coord.HideLoading()
		m.err = msg.err
		return m, nil
	}
	m.coord.RouteChanged(msg.path)

	m.path, m.page, m.err, m.status = msg.path, msg.page, nil, msg.status
	heading, items := pageItems(msg.page)
	m.heading = heading
	cmd := m.list.SetItems(items)
	m.list.Select(0)
	m.markViewport()
	return m, cmd
}

// forward navigates to path and remembers the current page for back.
func (m *Model) forward(path string) tea.Cmd {
	if m.path != "" && m.path != path {
		m.history = append(m.history, m.path)
	}
	return m.navigate(path)
}

func (m *Model) back() tea.Cmd {
	if len(m.history) == 0 {
		return nil
	}
	path := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	return m.navigate(path)
}

// navigate asks the coordinator for the route change and returns the load
// of the target.
func (m Model) navigate(path string) tea.Cmd {
	if err := m.coord.TriggerNavigation(path); err != nil {
		return func() tea.Msg { return loadedMsg{path: path, err: err} }
	}
	target, ok := m.router.take()
	if !ok {
		return nil
	}
	return m.load(target, "")
}

func (m Model) load(path, status string) tea.Cmd {
	ctx, resolver := m.ctx, m.app.Resolver()
	return func() tea.Msg {
		page, err := resolver.Load(ctx, path)
		return loadedMsg{path: path, page: page, err: err, status: status}
	}
}

func (m Model) toggleFavorite(slug string) tea.Cmd {
	ctx, app, path := m.ctx, m.app, m.path
	user := app.CurrentUser()
	return func() tea.Msg {
		if user == "" {
			return loadedMsg{path: path, err: routes.ErrSignedOut}
		}
		on, err := app.Mutations().ToggleFavorite(ctx, user, slug)
		if err != nil {
			return loadedMsg{path: path, err: err}
		}
		status := "removed from favorites"
		if on {
			status = "added to favorites"
		}
		page, err := app.Resolver().Load(ctx, path)
		return loadedMsg{path: path, page: page, err: err, status: status}
	}
}

func (m Model) markRead() tea.Cmd {
	ctx, app, path := m.ctx, m.app, m.path
	user := app.CurrentUser()
	return func() tea.Msg {
		if err := app.Mutations().MarkNotificationsRead(ctx, user); err != nil {
			return loadedMsg{path: path, err: err}
		}
		page, err := app.Resolver().Load(ctx, path)
		return loadedMsg{path: path, page: page, err: err, status: "inbox marked read"}
	}
}

// markViewport reports the rows of the current list page as visible.
func (m Model) markViewport() {
	items := m.list.Items()
	if len(items) == 0 {
		return
	}
	start, end := m.list.Paginator.GetSliceBounds(len(items))
	for _, it := range items[start:end] {
		if i, ok := it.(item); ok {
			m.sched.OnViewport(i.path, 1)
		}
	}
}

func (m Model) View() string {
	if state := m.coord.State(); state.IsLoading {
		return m.overlay(state)
	}

	var b strings.Builder
	header := m.heading
	if user := m.app.CurrentUser(); user != "" {
		header += "  " + userStyle.Render("@"+user)
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(m.list.View())
	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	b.WriteString("\n" + helpStyle.Render(helpText))
	return b.String()
}

func (m Model) overlay(state navigation.State) string {
	content := fmt.Sprintf("%s Loading %s", m.spinner.View(), state.TargetPath)
	if state.ShowLogo {
		content = logoStyle.Render(logo) + "\n" + m.spinner.View()
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
