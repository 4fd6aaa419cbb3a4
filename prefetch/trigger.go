package prefetch

import (
	"context"
	"time"
)

// Trigger identifies the signal that asked for a prefetch.
type Trigger int

const (
	TriggerHover Trigger = iota
	TriggerFocus
	TriggerViewport
	TriggerIdle
	TriggerScroll
	TriggerVisibility
)

func (t Trigger) String() string {
	switch t {
	case TriggerHover:
		return "hover"
	case TriggerFocus:
		return "focus"
	case TriggerViewport:
		return "viewport"
	case TriggerIdle:
		return "idle"
	case TriggerScroll:
		return "scroll"
	case TriggerVisibility:
		return "visibility"
	default:
		return "unknown"
	}
}

// Task records a dispatched prefetch.
type Task struct {
	Path     string
	Trigger  Trigger
	IssuedAt time.Time
}

// Loader warms the data behind a path. Prefetch must not block on the
// network; the cache store runs the fetch in the background.
type Loader interface {
	Prefetch(ctx context.Context, path string) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) error

func (f LoaderFunc) Prefetch(ctx context.Context, path string) error {
	return f(ctx, path)
}
