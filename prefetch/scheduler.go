package prefetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-freshcache/pkg/clock"
)

// Options configures a Scheduler. Zero values take the defaults.
type Options struct {
	// VisibilityThreshold is the visible ratio at which a row counts as in
	// the viewport. Default: 0.25
	VisibilityThreshold float64
	// IdleDelay is the wait between the first gesture and the likely-next
	// prefetches. Default: 2s
	IdleDelay time.Duration
	// LikelyNext are prefetched after the first gesture.
	// Default: /catalog, /search, /rankings
	LikelyNext []string
	// ScrollTargets are prefetched on the first scroll. Default: /
	ScrollTargets []string
	// VisibilityTargets are prefetched when the reader regains focus. Default: /
	VisibilityTargets []string
	// MaxConcurrent bounds the prefetches running at once. Default: 4
	MaxConcurrent int
	// Network defaults to an unconstrained StaticNetwork.
	Network NetworkInfo
	Clock   clock.Clock
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.VisibilityThreshold <= 0 {
		o.VisibilityThreshold = 0.25
	}
	if o.IdleDelay <= 0 {
		o.IdleDelay = 2 * time.Second
	}
	if o.LikelyNext == nil {
		o.LikelyNext = []string{"/catalog", "/search", "/rankings"}
	}
	if o.ScrollTargets == nil {
		o.ScrollTargets = []string{"/"}
	}
	if o.VisibilityTargets == nil {
		o.VisibilityTargets = []string{"/"}
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 4
	}
	if o.Network == nil {
		o.Network = StaticNetwork{EffectiveType: Effective4G}
	}
	o.Clock = clock.OrReal(o.Clock)
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Scheduler turns UI signals into speculative prefetches.
type Scheduler struct {
	loader Loader
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu        sync.Mutex
	attempted map[uint64]struct{}
	tasks     []Task
	gestured  bool
	scrolled  bool
	idle      clock.Timer
	closed    bool
}

// New creates a Scheduler for one mounted screen.
func New(loader Loader, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		loader:    loader,
		opts:      opts.withDefaults(),
		ctx:       ctx,
		cancel:    cancel,
		attempted: map[uint64]struct{}{},
	}
	s.group.SetLimit(s.opts.MaxConcurrent)
	return s
}

// OnViewport reports the visible ratio of a row linking to path.
func (s *Scheduler) OnViewport(path string, ratio float64) bool {
	if ratio < s.opts.VisibilityThreshold {
		return false
	}
	return s.fire(path, TriggerViewport)
}

// OnHover reports that the cursor is on a row linking to path.
func (s *Scheduler) OnHover(path string) bool {
	return s.fire(path, TriggerHover)
}

// OnFocus reports keyboard focus on a row linking to path.
func (s *Scheduler) OnFocus(path string) bool {
	return s.fire(path, TriggerFocus)
}

// OnGesture reports user activity. The first call arms the idle timer that
// prefetches the likely-next destinations; later calls do nothing.
func (s *Scheduler) OnGesture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gestured {
		return
	}
	s.gestured = true
	s.idle = s.opts.Clock.AfterFunc(s.opts.IdleDelay, func() {
		s.fireAll(s.opts.LikelyNext, TriggerIdle)
	})
}

// OnScroll reports scrolling on a detail screen. Only the first call counts.
func (s *Scheduler) OnScroll() {
	s.mu.Lock()
	if s.closed || s.scrolled {
		s.mu.Unlock()
		return
	}
	s.scrolled = true
	s.mu.Unlock()

	s.fireAll(s.opts.ScrollTargets, TriggerScroll)
}

// OnVisibilityChange reports the reader gaining or losing focus.
func (s *Scheduler) OnVisibilityChange(visible bool) {
	if !visible {
		return
	}
	s.fireAll(s.opts.VisibilityTargets, TriggerVisibility)
}

// Attempted reports whether a prefetch for path has been dispatched.
func (s *Scheduler) Attempted(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.attempted[xxhash.Sum64String(path)]
	return ok
}

// Tasks returns the dispatched prefetches in order.
func (s *Scheduler) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Wait blocks until every dispatched prefetch has returned.
func (s *Scheduler) Wait() {
	_ = s.group.Wait()
}

// Close stops the idle timer, cancels running prefetches and ignores every
// later signal.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.idle != nil {
		s.idle.Stop()
	}
	s.mu.Unlock()

	s.cancel()
}

func (s *Scheduler) fireAll(paths []string, trigger Trigger) {
	for _, path := range paths {
		s.fire(path, trigger)
	}
}

// fire dispatches a prefetch for path unless it was already attempted, the
// network hint asks for restraint, or the group is saturated. Only a
// dispatched prefetch marks the target.
func (s *Scheduler) fire(path string, trigger Trigger) bool {
	if path == "" {
		return false
	}
	hash := xxhash.Sum64String(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, ok := s.attempted[hash]; ok {
		return false
	}
	if hint := s.opts.Network.Hint(); hint.Constrained() {
		s.opts.Logger.Debug("prefetch suppressed",
			"path", path,
			"trigger", trigger.String(),
			"save_data", hint.SaveData,
			"effective_type", hint.EffectiveType,
		)
		return false
	}

	ok := s.group.TryGo(func() error {
		if err := s.loader.Prefetch(s.ctx, path); err != nil {
			s.opts.Logger.Debug("prefetch failed", "path", path, "trigger", trigger.String(), "error", err)
		}
		return nil
	})
	if !ok {
		s.opts.Logger.Debug("prefetch dropped, scheduler saturated", "path", path, "trigger", trigger.String())
		return false
	}

	s.attempted[hash] = struct{}{}
	s.tasks = append(s.tasks, Task{Path: path, Trigger: trigger, IssuedAt: s.opts.Clock.Now()})
	s.opts.Logger.Debug("prefetch dispatched", "path", path, "trigger", trigger.String())
	return true
}
