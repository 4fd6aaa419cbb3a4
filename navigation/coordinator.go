// Package navigation decides whether a route change needs a loading overlay
// and guarantees the overlay never outlives a fixed ceiling.
package navigation

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-freshcache/pkg/clock"
	"github.com/goliatone/go-freshcache/pkg/signals"
)

// ErrWatchdogTimeout is logged when the watchdog forces the overlay off. It
// is never returned.
var ErrWatchdogTimeout = errors.New("navigation watchdog timeout")

const DefaultMaxWait = 10 * time.Second

// Navigator is the router the coordinator drives.
type Navigator interface {
	Navigate(path string) error
	Prefetch(path string) error
}

// WarmChecker reports whether the data behind path is available without
// waiting on the network.
type WarmChecker func(path string) bool

// State is the loading overlay state.
type State struct {
	IsLoading  bool
	TargetPath string
	// ShowLogo asks the overlay to show the brand logo instead of a plain
	// spinner.
	ShowLogo  bool
	AttemptID string
	StartedAt time.Time
}

// Options configures a Coordinator. Zero values take the defaults.
type Options struct {
	// MaxWait is the ceiling after which the overlay is hidden regardless
	// of outcome. Default: 10s
	MaxWait time.Duration
	// SettleDelay, when set, hides the overlay that long after navigating
	// even without a route change signal.
	SettleDelay time.Duration
	// ShowLogo picks the presentation hint per path. Default: homepage only.
	ShowLogo func(path string) bool
	Clock    clock.Clock
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxWait <= 0 {
		o.MaxWait = DefaultMaxWait
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.ShowLogo == nil {
		o.ShowLogo = IsHomepage
	}
	o.Clock = clock.OrReal(o.Clock)
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// IsHomepage reports whether path addresses a homepage, with or without a
// page query.
func IsHomepage(path string) bool {
	p, _, _ := strings.Cut(path, "?")
	return p == "" || p == "/"
}

// Coordinator owns the loading overlay state of the reader.
type Coordinator struct {
	nav  Navigator
	warm WarmChecker
	opts Options
	bus  *signals.Bus[State]

	mu       sync.Mutex
	state    State
	watchdog clock.Timer
	settle   clock.Timer
}

// New creates an idle Coordinator. A nil warm checker treats every path as cold.
func New(nav Navigator, warm WarmChecker, opts Options) *Coordinator {
	if warm == nil {
		warm = func(string) bool { return false }
	}
	return &Coordinator{
		nav:  nav,
		warm: warm,
		opts: opts.withDefaults(),
		bus:  signals.NewBus[State](),
	}
}

// State returns the current overlay state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for every state change.
func (c *Coordinator) Subscribe(fn func(State)) func() {
	return c.bus.Subscribe(fn)
}

// Starter returns the navigation trigger for components that only need to
// start navigations.
func (c *Coordinator) Starter() func(path string) error {
	return c.TriggerNavigation
}

// TriggerNavigation navigates to path. A warm path is navigated to directly
// and never shows the overlay. A cold path shows it until RouteChanged,
// HideLoading, the settle delay or the watchdog, whichever comes first.
func (c *Coordinator) TriggerNavigation(path string) error {
	if c.warm(path) {
		c.HideLoading()
		if err := c.nav.Navigate(path); err != nil {
			return fmt.Errorf("navigate to %q: %w", path, err)
		}
		return nil
	}

	id := c.begin(path)

	if err := c.nav.Prefetch(path); err != nil {
		c.opts.Logger.Debug("navigation prefetch failed", "path", path, "error", err)
	}
	if err := c.nav.Navigate(path); err != nil {
		c.end(id, "navigate failed")
		return fmt.Errorf("navigate to %q: %w", path, err)
	}
	return nil
}

// RouteChanged is the router's completion signal. It hides the overlay when
// path is the pending target.
func (c *Coordinator) RouteChanged(path string) {
	c.mu.Lock()
	id := c.state.AttemptID
	match := c.state.IsLoading && samePath(c.state.TargetPath, path)
	c.mu.Unlock()

	if match {
		c.end(id, "route changed")
	}
}

// HideLoading hides the overlay and cancels its timers. It is idempotent.
func (c *Coordinator) HideLoading() {
	c.mu.Lock()
	c.stopTimers()
	if !c.state.IsLoading {
		c.mu.Unlock()
		return
	}
	c.state = State{}
	c.mu.Unlock()

	c.bus.Publish(State{})
}

// Close cancels pending timers without publishing.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimers()
}

func (c *Coordinator) begin(path string) string {
	id := uuid.NewString()

	c.mu.Lock()
	c.stopTimers()
	c.state = State{
		IsLoading:  true,
		TargetPath: path,
		ShowLogo:   c.opts.ShowLogo(path),
		AttemptID:  id,
		StartedAt:  c.opts.Clock.Now(),
	}
	snapshot := c.state
	c.watchdog = c.opts.Clock.AfterFunc(c.opts.MaxWait, func() { c.timeout(id) })
	if c.opts.SettleDelay > 0 {
		c.settle = c.opts.Clock.AfterFunc(c.opts.SettleDelay, func() { c.end(id, "settled") })
	}
	c.mu.Unlock()

	c.bus.Publish(snapshot)
	return id
}

func (c *Coordinator) timeout(id string) {
	c.mu.Lock()
	if !c.state.IsLoading || c.state.AttemptID != id {
		c.mu.Unlock()
		return
	}
	target, waited := c.state.TargetPath, c.opts.Clock.Now().Sub(c.state.StartedAt)
	c.mu.Unlock()

	c.opts.Logger.Warn("hiding navigation overlay",
		"path", target,
		"attempt", id,
		"waited", waited,
		"error", ErrWatchdogTimeout,
	)
	c.end(id, "watchdog")
}

// end hides the overlay if attempt id is still the current one.
func (c *Coordinator) end(id, reason string) {
	c.mu.Lock()
	if !c.state.IsLoading || c.state.AttemptID != id {
		c.mu.Unlock()
		return
	}
	c.stopTimers()
	c.state = State{}
	c.mu.Unlock()

	c.opts.Logger.Debug("navigation overlay hidden", "attempt", id, "reason", reason)
	c.bus.Publish(State{})
}

// stopTimers must be called with c.mu held.
func (c *Coordinator) stopTimers() {
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	if c.settle != nil {
		c.settle.Stop()
		c.settle = nil
	}
}

func samePath(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(path string) string {
	p, query, _ := strings.Cut(path, "?")
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		p = "/"
	}
	if query != "" {
		return p + "?" + query
	}
	return p
}
