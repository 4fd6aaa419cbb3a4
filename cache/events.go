package cache

import "time"

// EventType identifies what happened to an entry.
type EventType int

const (
	// EventFetched is published after a successful fetch was written.
	EventFetched EventType = iota
	// EventFailed is published after a fetch failed.
	EventFailed
	// EventInvalidated is published after Invalidate or InvalidateByPrefix.
	EventInvalidated
	// EventEvicted is published after Evict removed an entry.
	EventEvicted
	// EventDiscarded is published when a superseded fetch result was dropped.
	EventDiscarded
)

func (t EventType) String() string {
	switch t {
	case EventFetched:
		return "fetched"
	case EventFailed:
		return "failed"
	case EventInvalidated:
		return "invalidated"
	case EventEvicted:
		return "evicted"
	case EventDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Event is delivered to store listeners after the entry update it describes
// has been committed.
type Event struct {
	Type      EventType
	Key       string
	Value     any
	FetchedAt time.Time
	Err       error
	// Prefix is set on the summary event of InvalidateByPrefix, where Key
	// holds the kind rather than a single key.
	Prefix bool
}
